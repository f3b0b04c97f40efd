package sale

import "github.com/hasapchy/back-sub001/internal/domain/documents"

// Repository persists sales with their lines.
type Repository interface {
	documents.Store[*Sale]
}
