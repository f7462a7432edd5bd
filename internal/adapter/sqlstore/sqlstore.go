// Package sqlstore implements the storage contract on a relational database
// through database/sql. PostgreSQL (lib/pq) is the production target; SQLite
// (modernc) serves single-file deployments and hermetic tests.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"capsule/internal/domain"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Supported drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// DB wraps a *sql.DB and implements every domain repository.
type DB struct {
	sql    *sql.DB
	driver string

	now   func() time.Time
	newID func() string
}

var _ domain.Repositories = (*DB)(nil)

// Open connects, pings, and runs migrations. PostgreSQL gets a bounded pool;
// SQLite is limited to one connection so in-memory databases stay shared.
func Open(ctx context.Context, driver, dsn string) (*DB, error) {
	switch driver {
	case DriverPostgres:
	case DriverSQLite:
		dsn = sqliteDSN(dsn)
	default:
		return nil, fmt.Errorf("sqlstore: unknown driver %q", driver)
	}

	s, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	if driver == DriverSQLite {
		s.SetMaxOpenConns(1)
	} else {
		s.SetMaxOpenConns(10)
		s.SetMaxIdleConns(5)
		s.SetConnMaxLifetime(5 * time.Minute)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.PingContext(pingCtx); err != nil {
		_ = s.Close()
		return nil, err
	}

	d := &DB{
		sql:    s,
		driver: driver,
		now:    func() time.Time { return time.Now().UTC() },
		newID:  uuid.NewString,
	}
	if err := d.migrate(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return d, nil
}

// sqliteDSN turns on foreign keys and a sortable time format.
func sqliteDSN(dsn string) string {
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=foreign_keys(1)&_time_format=sqlite"
}

// Close closes the underlying database connection.
func (d *DB) Close() error {
	return d.sql.Close()
}

// Driver reports which database driver the store runs on.
func (d *DB) Driver() string {
	return d.driver
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type txKey struct{ db *DB }

// WithinTx runs fn inside one SQL transaction. Nested calls join the
// outer transaction.
func (d *DB) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{d}).(*sql.Tx); ok {
		return fn(ctx)
	}
	tx, err := d.sql.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlstore: begin: %w", err)
	}
	if err := fn(context.WithValue(ctx, txKey{d}, tx)); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlstore: commit: %w", err)
	}
	return nil
}

func (d *DB) conn(ctx context.Context) querier {
	if tx, ok := ctx.Value(txKey{d}).(*sql.Tx); ok {
		return tx
	}
	return d.sql
}

// rebind rewrites ? placeholders into PostgreSQL's $n form.
func (d *DB) rebind(query string) string {
	if d.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (d *DB) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return d.conn(ctx).ExecContext(ctx, d.rebind(query), args...)
}

func (d *DB) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return d.conn(ctx).QueryContext(ctx, d.rebind(query), args...)
}

func (d *DB) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return d.conn(ctx).QueryRowContext(ctx, d.rebind(query), args...)
}

// count runs a COUNT(*) style query.
func (d *DB) count(ctx context.Context, query string, args ...any) (int, error) {
	var n int
	err := d.queryRow(ctx, query, args...).Scan(&n)
	return n, err
}

// affected runs a statement and reports how many rows it touched.
func (d *DB) affected(ctx context.Context, query string, args ...any) (int, error) {
	res, err := d.exec(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// conflict tags duplicate-key errors from either driver with
// domain.ErrConflict. The driver error stays in the chain.
func conflict(err error, what string) error {
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key") {
		return fmt.Errorf("%s: %w: %w", what, domain.ErrConflict, err)
	}
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

// one scans a single row, mapping sql.ErrNoRows to a nil result.
func one[T any](row *sql.Row, scan func(rowScanner) (T, error)) (*T, error) {
	v, err := scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// all drains rows through scan.
func all[T any](rows *sql.Rows, scan func(rowScanner) (T, error)) ([]T, error) {
	defer rows.Close() //nolint:errcheck
	out := make([]T, 0)
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// page runs a counted, windowed listing.
func page[T any](ctx context.Context, d *DB, p domain.PageParams, countQuery, listQuery string, scan func(rowScanner) (T, error), args ...any) (domain.Page[T], error) {
	p = p.Normalize()
	total, err := d.count(ctx, countQuery, args...)
	if err != nil {
		return domain.Page[T]{}, err
	}
	rows, err := d.query(ctx, listQuery+" LIMIT ? OFFSET ?", append(args, p.Limit, p.Offset())...)
	if err != nil {
		return domain.Page[T]{}, err
	}
	items, err := all(rows, scan)
	if err != nil {
		return domain.Page[T]{}, err
	}
	return domain.NewPage(items, total, p), nil
}

func nullString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}

func nullBool(b *bool) any {
	if b == nil {
		return nil
	}
	return *b
}

// dayValue stores date-only fields as YYYY-MM-DD text.
func dayValue(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(domain.DayLayout)
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time.UTC()
	return &t
}

func boolPtr(nb sql.NullBool) *bool {
	if !nb.Valid {
		return nil
	}
	b := nb.Bool
	return &b
}

func dayPtr(ns sql.NullString) (*time.Time, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	t, err := time.Parse(domain.DayLayout, ns.String)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: bad date %q: %w", ns.String, err)
	}
	return &t, nil
}
