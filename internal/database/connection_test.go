package database_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"go.uber.org/zap"

	"github.com/eion/usersdb/internal/config"
	"github.com/eion/usersdb/internal/database"
	"github.com/eion/usersdb/internal/database/dbtest"
	"github.com/eion/usersdb/internal/zerrors"
)

func TestAcquireAndRelease(t *testing.T) {
	ctx := context.Background()
	cfg := dbtest.NewTestConfig(t)

	handle, err := database.Acquire(ctx, cfg, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, handle.DB.PingContext(ctx))

	var fk int
	require.NoError(t, handle.DB.QueryRowContext(ctx, "PRAGMA foreign_keys").Scan(&fk))
	assert.Equal(t, 1, fk)

	require.NoError(t, handle.Release())
	assert.Error(t, handle.DB.PingContext(ctx), "pool must be closed after release")

	// second release is a no-op
	assert.NoError(t, handle.Release())
}

func TestAcquireUnreachableStore(t *testing.T) {
	cfg := config.Default().Database
	cfg.Host = "127.0.0.1"
	cfg.Port = 1
	cfg.ConnectTimeout = 2

	handle, err := database.Acquire(context.Background(), cfg, zap.NewNop())
	require.Error(t, err)
	assert.Nil(t, handle)
	assert.True(t, zerrors.IsConnectionError(err), "got %v", err)
}

func TestAcquireUnsupportedDriver(t *testing.T) {
	cfg := dbtest.NewTestConfig(t)
	cfg.Driver = "oracle"

	_, err := database.Acquire(context.Background(), cfg, nil)
	require.Error(t, err)
	assert.True(t, zerrors.IsConnectionError(err))
}

func TestWithConnectionReleasesOnEveryPath(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		var captured *bun.DB
		err := database.WithConnection(ctx, dbtest.NewTestConfig(t), zap.NewNop(), func(ctx context.Context, db *bun.DB) error {
			captured = db
			return db.PingContext(ctx)
		})
		require.NoError(t, err)
		assert.Error(t, captured.PingContext(ctx))
	})

	t.Run("operation error is returned", func(t *testing.T) {
		opErr := errors.New("boom")
		var captured *bun.DB
		err := database.WithConnection(ctx, dbtest.NewTestConfig(t), zap.NewNop(), func(_ context.Context, db *bun.DB) error {
			captured = db
			return opErr
		})
		assert.ErrorIs(t, err, opErr)
		assert.Error(t, captured.PingContext(ctx))
	})

	t.Run("panic", func(t *testing.T) {
		var captured *bun.DB
		assert.Panics(t, func() {
			_ = database.WithConnection(ctx, dbtest.NewTestConfig(t), zap.NewNop(), func(_ context.Context, db *bun.DB) error {
				captured = db
				panic("operation exploded")
			})
		})
		require.NotNil(t, captured)
		assert.Error(t, captured.PingContext(ctx))
	})

	t.Run("acquire failure skips the operation", func(t *testing.T) {
		cfg := dbtest.NewTestConfig(t)
		cfg.Driver = "oracle"

		called := false
		err := database.WithConnection(ctx, cfg, zap.NewNop(), func(context.Context, *bun.DB) error {
			called = true
			return nil
		})
		assert.True(t, zerrors.IsConnectionError(err))
		assert.False(t, called)
	})
}

func TestForeignKeysOnEveryConnection(t *testing.T) {
	ctx := context.Background()
	db := dbtest.SetupTestDB(t, dbtest.NewTestConfig(t))

	// no idle connections: every query below runs on a freshly opened one
	db.SetMaxIdleConns(0)

	for i := 0; i < 3; i++ {
		var fk int
		require.NoError(t, db.QueryRowContext(ctx, "PRAGMA foreign_keys").Scan(&fk))
		assert.Equal(t, 1, fk, "connection %d", i)
	}
}

func TestSQLiteDSN(t *testing.T) {
	tests := []struct {
		dsn  string
		want string
	}{
		{"file:usersdb.sqlite", "file:usersdb.sqlite?_pragma=foreign_keys(1)&_foreign_keys=1"},
		{"file:abc?mode=memory&cache=shared", "file:abc?mode=memory&cache=shared&_pragma=foreign_keys(1)&_foreign_keys=1"},
		{"file:x.db?_pragma=foreign_keys(0)", "file:x.db?_pragma=foreign_keys(0)"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, database.SQLiteDSN(tt.dsn))
	}
}

func TestHealth(t *testing.T) {
	ctx := context.Background()

	handle, err := database.Acquire(ctx, dbtest.NewTestConfig(t), zap.NewNop())
	require.NoError(t, err)

	health := database.NewHealth(zap.NewNop(), database.NewPoolProbe(handle.DB))
	require.NoError(t, health.Startup(ctx))

	report := health.Report(ctx)
	assert.True(t, report.Healthy)
	assert.Equal(t, map[string]string{"database": "healthy"}, report.Services)

	require.NoError(t, handle.Release())

	report = health.Report(ctx)
	assert.False(t, report.Healthy)
	assert.Contains(t, report.Services["database"], "ping failed")
	assert.ErrorContains(t, health.Startup(ctx), "database is not ready")
}
