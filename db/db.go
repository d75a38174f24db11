// Package db opens the journal database, applies its migrations and hands
// out transaction-scoped entry stores.
package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib" // postgres
	_ "github.com/mattn/go-sqlite3"    // sqlite
	"github.com/pressly/goose/v3"
)

// Dialect names the SQL flavour spoken by the database. The values double
// as goose dialect names.
type Dialect string

const (
	SQLite   Dialect = "sqlite3"
	Postgres Dialect = "postgres"
)

//go:embed migrations
var migrations embed.FS

// goose keeps its settings in package globals.
var gooseMu sync.Mutex

type DB struct {
	db      *sql.DB
	dialect Dialect
}

// New wraps an already open connection pool.
func New(sqlDB *sql.DB, dialect Dialect) *DB {
	return &DB{db: sqlDB, dialect: dialect}
}

// Open connects to the database named by dsn. postgres:// and
// postgresql:// URLs use pgx; anything else is a SQLite path, optionally
// prefixed with sqlite://.
func Open(ctx context.Context, dsn string) (*DB, error) {
	driver, dialect, source := parseDSN(dsn)
	if source == "" {
		return nil, fmt.Errorf("dsn required")
	}

	if dialect == SQLite && !inMemory(source) && !strings.HasPrefix(source, "file:") {
		if err := os.MkdirAll(filepath.Dir(source), 0700); err != nil {
			return nil, err
		}
	}

	sqlDB, err := sql.Open(driver, source)
	if err != nil {
		return nil, err
	}

	if dialect == SQLite {
		// One connection: an in-memory database lives and dies with its
		// connection, and SQLite serialises writers anyway.
		sqlDB.SetMaxOpenConns(1)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	if dialect == SQLite && !inMemory(source) {
		if _, err := sqlDB.ExecContext(ctx, `PRAGMA journal_mode = wal;`); err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf("enable wal: %w", err)
		}
	}

	return New(sqlDB, dialect), nil
}

func parseDSN(dsn string) (driver string, dialect Dialect, source string) {
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return "pgx", Postgres, dsn
	case strings.HasPrefix(dsn, "sqlite://"):
		return "sqlite3", SQLite, strings.TrimPrefix(dsn, "sqlite://")
	default:
		return "sqlite3", SQLite, dsn
	}
}

func inMemory(source string) bool {
	return source == ":memory:" || strings.Contains(source, "mode=memory")
}

func (d *DB) Dialect() Dialect {
	return d.dialect
}

// Migrate applies the embedded migrations for the database's dialect. Goose
// progress is written to logger; nil discards it.
func (d *DB) Migrate(ctx context.Context, logger *log.Logger) error {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(migrations)
	goose.SetLogger(logger)
	if err := goose.SetDialect(string(d.dialect)); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}

	dir := "migrations/sqlite"
	if d.dialect == Postgres {
		dir = "migrations/postgres"
	}
	if err := goose.UpContext(ctx, d.db, dir); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// InTx runs fn with an entry store bound to a single transaction. The
// transaction commits when fn returns nil and rolls back otherwise.
func (d *DB) InTx(ctx context.Context, fn func(ctx context.Context, entries EntryStore) error) error {
	return WithTx(ctx, d.db, nil, func(ctx context.Context, tx DBTX) error {
		return fn(ctx, NewEntries(tx, d.dialect))
	})
}

func (d *DB) Close() error {
	if d.db != nil {
		return d.db.Close()
	}
	return nil
}

// rebind rewrites ? placeholders to $n for postgres.
func rebind(dialect Dialect, query string) string {
	if dialect != Postgres {
		return query
	}
	var b strings.Builder
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
