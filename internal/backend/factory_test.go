package backend

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kakeibo/internal/config"
)

func TestCreateMemoryStore(t *testing.T) {
	factory := NewFactory(nil)

	result, err := factory.CreateStore(context.Background(), Config{Type: MemoryBackend})
	require.NoError(t, err)
	require.NotNil(t, result.Store)
	assert.Nil(t, result.Cleanup)

	require.NoError(t, result.Store.Set(context.Background(), "k", "v"))
	v, ok, err := result.Store.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", v)
}

func TestCreateSQLiteStore(t *testing.T) {
	factory := NewFactory(nil)

	result, err := factory.CreateStore(context.Background(), Config{
		Type:         SQLiteBackend,
		SQLiteDBPath: filepath.Join(t.TempDir(), "test.db"),
	})
	require.NoError(t, err)
	require.NotNil(t, result.Store)
	require.NotNil(t, result.Cleanup)
	defer result.Cleanup()

	require.NoError(t, result.Store.Set(context.Background(), "k", "v"))
	v, ok, err := result.Store.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", v)
}

func TestCreateStoreInvalidType(t *testing.T) {
	factory := NewFactory(nil)

	_, err := factory.CreateStore(context.Background(), Config{Type: "sheets"})
	assert.Error(t, err)
}

func TestFromAppConfig(t *testing.T) {
	_, err := FromAppConfig(nil)
	assert.Error(t, err)

	_, err = FromAppConfig(&config.Config{DataBackend: "postgres"})
	assert.Error(t, err)

	cfg, err := FromAppConfig(&config.Config{DataBackend: "sqlite", SQLiteDBPath: "/tmp/x.db"})
	require.NoError(t, err)
	assert.Equal(t, SQLiteBackend, cfg.Type)
	assert.Equal(t, "/tmp/x.db", cfg.SQLiteDBPath)
}
