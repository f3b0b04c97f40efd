package receipt

import "github.com/hasapchy/back-sub001/internal/domain/documents"

// Repository persists receipts with their lines.
type Repository interface {
	documents.Store[*Receipt]
}
