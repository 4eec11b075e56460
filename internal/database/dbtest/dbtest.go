// Package dbtest provides SQLite-backed databases for tests. Only _test.go files import it.
package dbtest

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"go.uber.org/zap"

	"github.com/eion/usersdb/internal/config"
	"github.com/eion/usersdb/internal/database"
)

// NewTestConfig returns a sqlite configuration pointing at a private in-memory database.
func NewTestConfig(tb testing.TB) config.DatabaseConfig {
	tb.Helper()

	cfg := config.Default().Database
	cfg.Driver = config.DriverSQLite
	cfg.URL = fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	cfg.ConnectTimeout = 5
	return cfg
}

// SetupTestDB acquires a handle for cfg and releases it when the test finishes.
func SetupTestDB(tb testing.TB, cfg config.DatabaseConfig) *bun.DB {
	tb.Helper()

	handle, err := database.Acquire(context.Background(), cfg, zap.NewNop())
	require.NoError(tb, err, "Failed to acquire test database")

	tb.Cleanup(func() {
		_ = handle.Release()
	})

	return handle.DB
}
