package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/rpcgate/rpcgate/pkg/tracking"
)

// DefaultBusyTimeout is how long SQLite waits for a lock before failing.
const DefaultBusyTimeout = 5 * time.Second

// sqlitePageSize is the page size of the FindByIP keyset scan.
const sqlitePageSize = 100

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS tracked_calls (
	ip TEXT NOT NULL,
	method TEXT NOT NULL,
	successful_calls INTEGER NOT NULL DEFAULT 0,
	failed_calls INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (ip, method)
);
`

// SQLiteRepository stores statistics in a SQLite database, one row per
// (ip, method) pair.
type SQLiteRepository struct {
	db        *sql.DB
	closeOnce sync.Once

	upsertStmt *sql.Stmt
	findStmt   *sql.Stmt
	pageStmt   *sql.Stmt
	deleteStmt *sql.Stmt
}

// SQLiteConfig configures the SQLite repository.
type SQLiteConfig struct {
	// Path is the database file. Parent directories are created.
	Path string

	// BusyTimeout. Default: 5 seconds.
	BusyTimeout time.Duration
}

// NewSQLiteRepository opens (and if needed creates) the database.
func NewSQLiteRepository(cfg SQLiteConfig) (*SQLiteRepository, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("db path cannot be empty")
	}
	if cfg.BusyTimeout <= 0 {
		cfg.BusyTimeout = DefaultBusyTimeout
	}

	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)",
		cfg.Path, cfg.BusyTimeout.Milliseconds())

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	r := &SQLiteRepository{db: db}

	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	if err := r.prepareStatements(); err != nil {
		_ = r.Close()
		return nil, fmt.Errorf("failed to prepare statements: %w", err)
	}

	return r, nil
}

func (r *SQLiteRepository) prepareStatements() error {
	var err error

	r.upsertStmt, err = r.db.Prepare(`
		INSERT INTO tracked_calls (ip, method, successful_calls, failed_calls)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (ip, method) DO UPDATE SET
			successful_calls = successful_calls + excluded.successful_calls,
			failed_calls = failed_calls + excluded.failed_calls
	`)
	if err != nil {
		return err
	}

	r.findStmt, err = r.db.Prepare(`
		SELECT successful_calls, failed_calls FROM tracked_calls
		WHERE ip = ? AND method = ?
	`)
	if err != nil {
		return err
	}

	r.pageStmt, err = r.db.Prepare(`
		SELECT method, successful_calls, failed_calls FROM tracked_calls
		WHERE ip = ? AND method > ?
		ORDER BY method
		LIMIT ?
	`)
	if err != nil {
		return err
	}

	r.deleteStmt, err = r.db.Prepare(`DELETE FROM tracked_calls WHERE ip = ?`)
	return err
}

// Increment implements tracking.Repository. All changes are applied in one
// transaction.
func (r *SQLiteRepository) Increment(ctx context.Context, changes []tracking.Change) (err error) {
	if len(changes) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt := tx.StmtContext(ctx, r.upsertStmt)
	for _, c := range changes {
		if c.IsZero() {
			continue
		}
		if _, err = stmt.ExecContext(ctx, c.IP, c.Method, c.SuccessfulCalls, c.FailedCalls); err != nil {
			return fmt.Errorf("upsert %s/%s: %w", c.IP, c.Method, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// FindByIPAndMethod implements tracking.Repository.
func (r *SQLiteRepository) FindByIPAndMethod(ctx context.Context, ip, method string) (*tracking.TrackedCall, error) {
	call := &tracking.TrackedCall{IP: ip, Method: method}
	err := r.findStmt.QueryRowContext(ctx, ip, method).Scan(&call.SuccessfulCalls, &call.FailedCalls)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, tracking.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	return call, nil
}

// FindByIP implements tracking.Repository. Rows are read in pages keyed by
// method name.
func (r *SQLiteRepository) FindByIP(ctx context.Context, ip string) (*tracking.CallsOfUser, error) {
	calls := &tracking.CallsOfUser{IP: ip, Methods: make(map[string]tracking.MethodCalls)}

	after := ""
	for {
		n, last, err := r.readPage(ctx, ip, after, calls)
		if err != nil {
			return nil, err
		}
		if n < sqlitePageSize {
			break
		}
		after = last
	}

	if len(calls.Methods) == 0 {
		return nil, tracking.ErrNotFound
	}
	return calls, nil
}

func (r *SQLiteRepository) readPage(ctx context.Context, ip, after string, calls *tracking.CallsOfUser) (int, string, error) {
	rows, err := r.pageStmt.QueryContext(ctx, ip, after, sqlitePageSize)
	if err != nil {
		return 0, "", fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	n := 0
	last := after
	for rows.Next() {
		var (
			method string
			mc     tracking.MethodCalls
		)
		if err := rows.Scan(&method, &mc.SuccessfulCalls, &mc.FailedCalls); err != nil {
			return 0, "", fmt.Errorf("scan: %w", err)
		}
		calls.Methods[method] = mc
		last = method
		n++
	}
	if err := rows.Err(); err != nil {
		return 0, "", fmt.Errorf("rows: %w", err)
	}
	return n, last, nil
}

// DeleteByIP implements tracking.Repository.
func (r *SQLiteRepository) DeleteByIP(ctx context.Context, ip string) (bool, error) {
	res, err := r.deleteStmt.ExecContext(ctx, ip)
	if err != nil {
		return false, fmt.Errorf("delete: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

// Ping implements tracking.Repository.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Close implements tracking.Repository.
func (r *SQLiteRepository) Close() error {
	var result *multierror.Error

	r.closeOnce.Do(func() {
		for _, stmt := range []*sql.Stmt{r.upsertStmt, r.findStmt, r.pageStmt, r.deleteStmt} {
			if stmt != nil {
				if err := stmt.Close(); err != nil {
					result = multierror.Append(result, err)
				}
			}
		}

		_, _ = r.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
		if err := r.db.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	})

	return result.ErrorOrNil()
}
