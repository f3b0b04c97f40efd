package movement

import "github.com/hasapchy/back-sub001/internal/domain/documents"

// Repository persists movements with their lines.
type Repository interface {
	documents.Store[*Movement]
}
