// Package memory implements the storage contract in process memory, for
// development, tests and deployments without a database.
package memory

import (
	"context"
	"sync"
	"time"

	"capsule/internal/domain"

	"github.com/google/uuid"
)

// DB implements an in-memory database storage. Every entity lives in a map
// keyed by its natural key; one mutex guards all of them.
type DB struct {
	mu sync.Mutex

	users         map[string]domain.User
	sessions      map[string]domain.Session
	units         map[string]domain.Unit // by number
	guests        map[string]domain.Guest
	problems      map[string]domain.Problem
	tokens        map[string]domain.GuestToken
	notifications map[string]domain.Notification
	subscriptions map[string]domain.PushSubscription // by endpoint
	settings      map[string]domain.Setting
	expenses      map[string]domain.Expense

	now   func() time.Time
	newID func() string
}

// New creates a new in-memory database.
func New() *DB {
	return &DB{
		users:         make(map[string]domain.User),
		sessions:      make(map[string]domain.Session),
		units:         make(map[string]domain.Unit),
		guests:        make(map[string]domain.Guest),
		problems:      make(map[string]domain.Problem),
		tokens:        make(map[string]domain.GuestToken),
		notifications: make(map[string]domain.Notification),
		subscriptions: make(map[string]domain.PushSubscription),
		settings:      make(map[string]domain.Setting),
		expenses:      make(map[string]domain.Expense),
		now:           func() time.Time { return time.Now().UTC() },
		newID:         uuid.NewString,
	}
}

// Ensure interfaces are met.
var _ domain.Repositories = (*DB)(nil)

type txKey struct{ db *DB }

// lock acquires the store mutex unless ctx already runs inside WithinTx on
// this store, in which case the lock is held by the caller.
func (db *DB) lock(ctx context.Context) func() {
	if ctx.Value(txKey{db}) != nil {
		return func() {}
	}
	db.mu.Lock()
	return db.mu.Unlock
}

// WithinTx holds the store lock while fn runs, so readers never observe a
// half-applied multi-entity write. Writes made before fn fails are kept.
func (db *DB) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{db}) != nil {
		return fn(ctx)
	}
	db.mu.Lock()
	defer db.mu.Unlock()
	return fn(context.WithValue(ctx, txKey{db}, true))
}

func ptr[T any](v T) *T {
	return &v
}
