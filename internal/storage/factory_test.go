package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/navsync/internal/common"
	"github.com/bobmcallan/navsync/internal/storage/memory"
)

func TestNewStorageManager_Memory(t *testing.T) {
	cfg := common.NewDefaultConfig()
	cfg.Storage.Backend = BackendMemory

	mgr, err := NewStorageManager(common.NewSilentLogger(), cfg)
	require.NoError(t, err)
	defer mgr.Close()

	assert.IsType(t, &memory.Manager{}, mgr)
	assert.NotNil(t, mgr.MovementStore())
}

func TestNewStorageManager_UnknownBackend(t *testing.T) {
	cfg := common.NewDefaultConfig()
	cfg.Storage.Backend = "gcs"

	_, err := NewStorageManager(common.NewSilentLogger(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown storage backend")
}
