// Package storage picks and opens the storage backend at startup.
package storage

import (
	"context"
	"fmt"
	"strings"

	"capsule/internal/adapter/memory"
	"capsule/internal/adapter/sqlstore"
	"capsule/internal/app"

	"go.uber.org/zap"
)

// Backend names reported by Handle.Backend.
const (
	BackendMemory   = "memory"
	BackendPostgres = sqlstore.DriverPostgres
	BackendSQLite   = sqlstore.DriverSQLite
)

// Handle is an opened storage facade plus the resources behind it.
type Handle struct {
	*app.Facade

	backend string
	closer  func() error
}

// Backend reports which backend is in use.
func (h *Handle) Backend() string {
	return h.backend
}

// Close releases the backend.
func (h *Handle) Close() error {
	if h.closer == nil {
		return nil
	}
	return h.closer()
}

// Open returns a relational store when databaseURL is set, otherwise an
// in-memory one. A relational store that cannot be opened is logged and
// replaced by memory so the process still starts. After a relational open
// the unit backfill runs; its failure is logged only.
func Open(ctx context.Context, databaseURL string, logger *zap.Logger) *Handle {
	if databaseURL == "" {
		logger.Info("no database configured, using in-memory storage")
		return memoryHandle(logger)
	}

	driver, dsn, err := ParseURL(databaseURL)
	if err == nil {
		var db *sqlstore.DB
		db, err = sqlstore.Open(ctx, driver, dsn)
		if err == nil {
			h := &Handle{Facade: app.NewFacade(db, logger), backend: driver, closer: db.Close}
			if _, err := app.BackfillUnits(ctx, db, logger); err != nil {
				logger.Error("unit backfill failed", zap.Error(err))
			}
			logger.Info("storage ready", zap.String("backend", driver))
			return h
		}
	}
	logger.Warn("database unavailable, falling back to in-memory storage",
		zap.String("driver", driver),
		zap.Error(err),
	)
	return memoryHandle(logger)
}

func memoryHandle(logger *zap.Logger) *Handle {
	return &Handle{Facade: app.NewFacade(memory.New(), logger), backend: BackendMemory}
}

// ParseURL maps a connection string onto a driver name and the DSN that
// driver expects.
func ParseURL(raw string) (driver, dsn string, err error) {
	switch {
	case strings.HasPrefix(raw, "postgres://"), strings.HasPrefix(raw, "postgresql://"):
		return sqlstore.DriverPostgres, raw, nil
	case strings.HasPrefix(raw, "sqlite:"):
		dsn = strings.TrimPrefix(strings.TrimPrefix(raw, "sqlite:"), "//")
		if dsn == "" {
			return "", "", fmt.Errorf("storage: empty sqlite path in %q", raw)
		}
		return sqlstore.DriverSQLite, dsn, nil
	case strings.HasPrefix(raw, "file:"):
		return sqlstore.DriverSQLite, raw, nil
	}
	return "", "", fmt.Errorf("storage: unsupported database url %q", raw)
}
