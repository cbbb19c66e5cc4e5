package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "portfoliohub.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestNewAppMemoryOnly(t *testing.T) {
	path := writeConfig(t, `
environment = "test"

[logging]
level = "error"

[quote]
persistence_enabled = false
`)

	a, err := NewApp(path)
	require.NoError(t, err)
	defer a.Close()

	assert.Equal(t, "test", a.Config.Environment)
	assert.NotNil(t, a.QuoteService)
	assert.NotNil(t, a.Cache)
}

func TestNewAppWithPersistentCache(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, `
[logging]
level = "error"

[storage]
cache_path = "`+filepath.Join(dir, "cache")+`"

[quote]
persistence_enabled = true
`)

	a, err := NewApp(path)
	require.NoError(t, err)
	defer a.Close()

	ctx := context.Background()
	a.Cache.Set(ctx, "quote", "AAPL", []byte("x"), time.Minute)
	stats := a.Cache.Stats()
	assert.Equal(t, 1, stats.Entries)
}
