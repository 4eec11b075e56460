package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/driver/sqliteshim"
	"go.uber.org/zap"

	"github.com/eion/usersdb/internal/config"
	"github.com/eion/usersdb/internal/zerrors"
)

// Handle owns one opened store connection pool. It is not shared between invocations.
type Handle struct {
	DB     *bun.DB
	driver string
	logger *zap.Logger

	once       sync.Once
	releaseErr error
}

// Acquire opens a connection pool for cfg and verifies the store is reachable.
// Nothing is left open when it fails.
func Acquire(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*Handle, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := open(cfg)
	if err != nil {
		return nil, zerrors.NewStorageConnectionError("acquire", cfg.Driver, err)
	}

	if logger.Core().Enabled(zap.DebugLevel) {
		db.AddQueryHook(&queryLogger{logger: logger})
	}

	// Test connection
	pingCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeoutDuration())
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		// Close the database connection on error
		_ = db.Close()
		return nil, zerrors.NewStorageConnectionError("acquire", cfg.Driver, err)
	}

	logger.Debug("Database connection acquired",
		zap.String("driver", cfg.Driver),
		zap.String("host", cfg.Host),
		zap.String("database", cfg.Database))

	return &Handle{
		DB:     db,
		driver: cfg.Driver,
		logger: logger,
	}, nil
}

// Release closes the pool. Only the first call closes; later calls return the same result.
func (h *Handle) Release() error {
	h.once.Do(func() {
		if err := h.DB.Close(); err != nil {
			h.releaseErr = fmt.Errorf("failed to close database connection: %w", err)
			return
		}
		h.logger.Debug("Database connection released", zap.String("driver", h.driver))
	})
	return h.releaseErr
}

// WithConnection acquires a handle, runs fn with it and releases the handle on every exit path.
// fn's error is returned; a release failure is only returned when fn succeeded.
func WithConnection(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger, fn func(ctx context.Context, db *bun.DB) error) (err error) {
	handle, err := Acquire(ctx, cfg, logger)
	if err != nil {
		return err
	}

	defer func() {
		if releaseErr := handle.Release(); releaseErr != nil {
			handle.logger.Warn("Failed to release database connection", zap.Error(releaseErr))
			if err == nil {
				err = releaseErr
			}
		}
	}()

	return fn(ctx, handle.DB)
}

func open(cfg config.DatabaseConfig) (*bun.DB, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		maxConnections := cfg.MaxOpenConnections
		if maxConnections <= 0 {
			maxConnections = 10
		}

		sqldb := sql.OpenDB(pgdriver.NewConnector(
			pgdriver.WithDSN(cfg.DSN()),
			pgdriver.WithDialTimeout(cfg.ConnectTimeoutDuration()),
		))
		sqldb.SetMaxOpenConns(maxConnections)
		sqldb.SetMaxIdleConns(maxConnections / 2)
		sqldb.SetConnMaxLifetime(time.Hour)

		return bun.NewDB(sqldb, pgdialect.New()), nil

	case config.DriverSQLite:
		sqldb, err := sql.Open(sqliteshim.ShimName, SQLiteDSN(cfg.DSN()))
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite database: %w", err)
		}
		// in-memory databases live and die with their connection
		sqldb.SetMaxOpenConns(1)
		sqldb.SetMaxIdleConns(1)
		sqldb.SetConnMaxLifetime(0)

		return bun.NewDB(sqldb, sqlitedialect.New()), nil

	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}
}

// SQLiteDSN adds the foreign key switch to dsn so every connection the pool opens enforces
// foreign keys. _pragma is read by modernc.org/sqlite, _foreign_keys by mattn/go-sqlite3;
// sqliteshim picks one of them at build time and the other ignores the unknown key.
func SQLiteDSN(dsn string) string {
	if strings.Contains(dsn, "foreign_keys") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=foreign_keys(1)&_foreign_keys=1"
}

type queryLogger struct {
	logger *zap.Logger
}

var _ bun.QueryHook = (*queryLogger)(nil)

func (q *queryLogger) BeforeQuery(ctx context.Context, _ *bun.QueryEvent) context.Context {
	return ctx
}

func (q *queryLogger) AfterQuery(_ context.Context, event *bun.QueryEvent) {
	fields := []zap.Field{
		zap.String("query", event.Query),
		zap.Duration("duration", time.Since(event.StartTime)),
	}
	if event.Err != nil && event.Err != sql.ErrNoRows {
		fields = append(fields, zap.Error(event.Err))
	}
	q.logger.Debug("Executed query", fields...)
}
