package surrealdb

import (
	"context"
	"fmt"

	"github.com/bobmcallan/navsync/internal/common"
	"github.com/bobmcallan/navsync/internal/interfaces"
	"github.com/surrealdb/surrealdb.go"
)

// Table names
const (
	tableMovement = "daily_movement"
	tableScheme   = "active_scheme"
	tableRuns     = "job_runs"
)

// Manager implements interfaces.StorageManager using SurrealDB.
type Manager struct {
	db     *surrealdb.DB
	logger *common.Logger

	movementStore *MovementStore
	schemeStore   *SchemeStore
	runStore      *RunStore
}

// NewManager creates a new StorageManager connected to SurrealDB.
func NewManager(logger *common.Logger, config *common.Config) (*Manager, error) {
	ctx := context.Background()

	// Connect to SurrealDB
	db, err := surrealdb.New(config.Storage.Address)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to SurrealDB: %w", err)
	}

	// Sign in
	if _, err := db.SignIn(ctx, map[string]interface{}{
		"user": config.Storage.Username,
		"pass": config.Storage.Password,
	}); err != nil {
		db.Close(ctx)
		return nil, fmt.Errorf("failed to sign in to SurrealDB: %w", err)
	}

	// Select namespace and database
	if err := db.Use(ctx, config.Storage.Namespace, config.Storage.Database); err != nil {
		db.Close(ctx)
		return nil, fmt.Errorf("failed to select namespace/database: %w", err)
	}

	if err := defineTables(ctx, db); err != nil {
		db.Close(ctx)
		return nil, err
	}

	m := newManager(db, logger)

	logger.Info().
		Str("address", config.Storage.Address).
		Str("namespace", config.Storage.Namespace).
		Str("database", config.Storage.Database).
		Msg("SurrealDB storage manager initialized")

	return m, nil
}

func newManager(db *surrealdb.DB, logger *common.Logger) *Manager {
	return &Manager{
		db:            db,
		logger:        logger,
		movementStore: NewMovementStore(db, logger),
		schemeStore:   NewSchemeStore(db, logger),
		runStore:      NewRunStore(db, logger),
	}
}

// defineTables makes sure every table exists (SurrealDB v3 errors on querying
// non-existent tables) and indexes the movement date used by gap planning.
func defineTables(ctx context.Context, db *surrealdb.DB) error {
	statements := []string{
		fmt.Sprintf("DEFINE TABLE IF NOT EXISTS %s SCHEMALESS", tableMovement),
		fmt.Sprintf("DEFINE TABLE IF NOT EXISTS %s SCHEMALESS", tableScheme),
		fmt.Sprintf("DEFINE TABLE IF NOT EXISTS %s SCHEMALESS", tableRuns),
		fmt.Sprintf("DEFINE INDEX IF NOT EXISTS idx_movement_date ON %s FIELDS nav_date", tableMovement),
	}
	for _, sql := range statements {
		if _, err := surrealdb.Query[any](ctx, db, sql, nil); err != nil {
			return fmt.Errorf("failed to run %q: %w", sql, err)
		}
	}
	return nil
}

func (m *Manager) MovementStore() interfaces.MovementStore {
	return m.movementStore
}

func (m *Manager) SchemeStore() interfaces.SchemeStore {
	return m.schemeStore
}

func (m *Manager) RunStore() interfaces.RunStore {
	return m.runStore
}

func (m *Manager) Close() error {
	m.db.Close(context.Background())
	return nil
}

// Compile-time check
var _ interfaces.StorageManager = (*Manager)(nil)
