package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hasapchy/back-sub001/internal/core/id"
	"github.com/hasapchy/back-sub001/internal/domain/documents"
	"github.com/hasapchy/back-sub001/internal/domain/documents/sale"
)

func TestExtractDBColumns_FlattensDocuments(t *testing.T) {
	cols := ExtractDBColumns[sale.Sale]()

	for _, want := range []string{
		"id", "version", "created_at", "updated_by", "number", "date", "revision",
		"client_id", "warehouse_id", "cash_register_id", "currency_id", "payment_type",
		"discount_kind", "discount_value", "entry_id", "amount", "client_delta", "delta_client_id",
	} {
		assert.Contains(t, cols, want)
	}
	assert.NotContains(t, cols, "lines")
}

func TestStructToMap_Sale(t *testing.T) {
	s := sale.NewSale("alice")
	s.Number = "SL-2026-00001"
	s.PaymentType = documents.PaymentCash
	entryID := id.New()
	s.EntryID = &entryID

	m := StructToMap(s)

	assert.Equal(t, s.ID, m["id"])
	assert.Equal(t, 1, m["version"])
	assert.Equal(t, "SL-2026-00001", m["number"])
	assert.Equal(t, documents.PaymentCash, m["payment_type"])
	assert.Equal(t, &entryID, m["entry_id"])
	assert.Equal(t, "alice", m["created_by"])
}
