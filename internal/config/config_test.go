package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	t.Setenv("APP_PORT", "")
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 30*time.Second, cfg.TxStatementTimeout)
	assert.Equal(t, 100, cfg.OutboxBatchSize)
	assert.True(t, cfg.IdempotencyEnabled)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	content := "APP_PORT=9000\nMETA_DATABASE_URL=postgres://meta\nOUTBOX_BATCH_SIZE=10\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.env"), []byte(content), 0o600))

	t.Setenv("OUTBOX_BATCH_SIZE", "25")

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, "postgres://meta", cfg.MetaDatabaseURL)
	assert.Equal(t, 25, cfg.OutboxBatchSize)
	require.NoError(t, cfg.Validate())
}

func TestValidate_RequiresMetaDatabase(t *testing.T) {
	t.Setenv("META_DATABASE_URL", "")
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Error(t, cfg.Validate())
}
