package writeoff

import "github.com/hasapchy/back-sub001/internal/domain/documents"

// Repository persists write-offs with their lines.
type Repository interface {
	documents.Store[*WriteOff]
}
