package surrealdb

import (
	"context"
	"testing"

	"github.com/bobmcallan/navsync/internal/common"
	tcommon "github.com/bobmcallan/navsync/tests/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *common.Config {
	t.Helper()
	if testing.Short() {
		t.Skip("SurrealDB container tests skipped in short mode")
	}
	sc := tcommon.StartSurrealDB(t)

	cfg := common.NewDefaultConfig()
	cfg.Environment = "test"
	cfg.Storage.Address = sc.Address()
	cfg.Storage.Namespace = "navsync_test"
	cfg.Storage.Database = testDBName(t, "mgr")
	cfg.Storage.Username = "root"
	cfg.Storage.Password = "root"
	return cfg
}

func TestNewManager(t *testing.T) {
	cfg := testConfig(t)

	mgr, err := NewManager(common.NewSilentLogger(), cfg)
	require.NoError(t, err)
	defer mgr.Close()

	assert.NotNil(t, mgr.MovementStore())
	assert.NotNil(t, mgr.SchemeStore())
	assert.NotNil(t, mgr.RunStore())

	// Tables are defined up front, so an empty store answers queries.
	_, ok, err := mgr.MovementStore().LatestDate(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNewManager_BadCredentials(t *testing.T) {
	cfg := testConfig(t)
	cfg.Storage.Password = "wrong"

	_, err := NewManager(common.NewSilentLogger(), cfg)
	assert.Error(t, err)
}
