package order

import "github.com/hasapchy/back-sub001/internal/domain/documents"

// Repository persists orders with their lines.
type Repository interface {
	documents.Store[*Order]
}
