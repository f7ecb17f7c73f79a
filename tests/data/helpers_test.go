package data

import (
	"context"
	"testing"

	"github.com/bobmcallan/navsync/internal/common"
	"github.com/bobmcallan/navsync/internal/interfaces"
	"github.com/bobmcallan/navsync/internal/storage"
	tcommon "github.com/bobmcallan/navsync/tests/common"
)

// testManager creates a StorageManager connected to the shared SurrealDB container
// with a unique database per test for isolation.
func testManager(t *testing.T) interfaces.StorageManager {
	t.Helper()
	if testing.Short() {
		t.Skip("SurrealDB container tests skipped in short mode")
	}

	sc := tcommon.StartSurrealDB(t)
	cfg := sc.Config(t, "d")

	mgr, err := storage.NewStorageManager(common.NewSilentLogger(), cfg)
	if err != nil {
		t.Fatalf("create storage manager: %v", err)
	}

	t.Cleanup(func() {
		mgr.Close()
	})

	return mgr
}

// testContext returns a background context.
func testContext() context.Context {
	return context.Background()
}
