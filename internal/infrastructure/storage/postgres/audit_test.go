package postgres

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditLog_CompressRoundTrip(t *testing.T) {
	a, err := NewAuditLog(16)
	require.NoError(t, err)

	small := AuditEntry{Changes: []byte(`{"a":1}`), CompressionAlgo: CompressionNone}
	a.compress(&small)
	assert.Equal(t, CompressionNone, small.CompressionAlgo)
	assert.Nil(t, small.ChangesCompressed)

	payload := []byte(`{"note":"` + string(bytes.Repeat([]byte("x"), 512)) + `"}`)
	large := AuditEntry{Changes: append([]byte(nil), payload...), CompressionAlgo: CompressionNone}
	a.compress(&large)
	assert.Equal(t, CompressionZstd, large.CompressionAlgo)
	assert.Nil(t, large.Changes)
	assert.Less(t, len(large.ChangesCompressed), len(payload))

	require.NoError(t, a.decompress(&large))
	assert.Equal(t, payload, []byte(large.Changes))
}
