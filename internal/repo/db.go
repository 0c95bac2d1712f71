// Package repo implements the data persistence layer for scores, backed by
// GORM. This file contains database bootstrapping: dialect selection from the
// connection string, pool tuning, tracing and schema creation.
package repo

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/jackc/pgx/v5"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/opentelemetry/tracing"

	"github.com/tbourn/hanoi-scores/internal/domain"
)

// ErrUnsupportedDSN is returned when the connection string names no known dialect.
var ErrUnsupportedDSN = errors.New("unsupported DATABASE_URL: expected postgres:// or sqlite:// form")

// sqlitePragmas are applied to every pooled connection via the DSN.
var sqlitePragmas = []string{
	"busy_timeout(5000)",
	"journal_mode(WAL)",
	"synchronous(NORMAL)",
	"foreign_keys(1)",
}

// PoolOptions bounds the connection pool behind the *gorm.DB handle.
type PoolOptions struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxIdleTime time.Duration
	ConnMaxLifetime time.Duration

	// Logger overrides the GORM logger. Nil logs slow queries and errors at warn level.
	Logger logger.Interface
}

// DefaultPoolOptions mirrors the service defaults.
func DefaultPoolOptions() PoolOptions {
	return PoolOptions{
		MaxOpenConns:    10,
		MaxIdleConns:    10,
		ConnMaxIdleTime: 10 * time.Minute,
		ConnMaxLifetime: 30 * time.Minute,
	}
}

// Open builds the connection pool for dsn and verifies it with a ping.
//
// Accepted forms:
//   - postgres://... or postgresql://... or keyword DSNs ("host=... dbname=...")
//   - sqlite://<path>, file:<path>[?query], :memory:, or a path ending in .db/.sqlite
//
// Any failure (bad DSN, unreachable server, missing directory) is returned;
// callers treat it as fatal.
func Open(dsn string, opts PoolOptions) (*gorm.DB, error) {
	dialector, memory, err := dialectorFor(dsn)
	if err != nil {
		return nil, err
	}

	lg := opts.Logger
	if lg == nil {
		lg = logger.Default.LogMode(logger.Warn)
	}
	db, err := gorm.Open(dialector, &gorm.Config{Logger: lg})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
		return nil, fmt.Errorf("register tracing plugin: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	maxOpen, maxIdle := opts.MaxOpenConns, opts.MaxIdleConns
	if memory {
		// every connection to :memory: is a separate database
		maxOpen, maxIdle = 1, 1
	}
	if maxOpen > 0 {
		sqlDB.SetMaxOpenConns(maxOpen)
	}
	if maxIdle >= 0 {
		sqlDB.SetMaxIdleConns(maxIdle)
	}
	sqlDB.SetConnMaxIdleTime(opts.ConnMaxIdleTime)
	sqlDB.SetConnMaxLifetime(opts.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

// OpenSQLite opens (or creates) a SQLite database file at path.
func OpenSQLite(path string, opts PoolOptions) (*gorm.DB, error) {
	return Open("sqlite://"+path, opts)
}

// AutoMigrate creates the scores table when it does not exist yet.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&domain.Score{})
}

// dialectorFor maps a connection string to a GORM dialector. The second
// result reports an in-memory SQLite database.
func dialectorFor(dsn string) (gorm.Dialector, bool, error) {
	dsn = strings.TrimSpace(dsn)
	lower := strings.ToLower(dsn)

	switch {
	case dsn == "":
		return nil, false, ErrUnsupportedDSN
	case strings.HasPrefix(lower, "postgres://"),
		strings.HasPrefix(lower, "postgresql://"),
		strings.Contains(lower, "host=") || strings.Contains(lower, "dbname="):
		if _, err := pgx.ParseConfig(dsn); err != nil {
			return nil, false, fmt.Errorf("invalid postgres connection string: %w", err)
		}
		return postgres.Open(dsn), false, nil
	case strings.HasPrefix(lower, "sqlite://"):
		return sqliteDialector(dsn[len("sqlite://"):])
	case strings.HasPrefix(lower, "file:"),
		dsn == ":memory:",
		strings.HasSuffix(lower, ".db"),
		strings.HasSuffix(lower, ".sqlite"),
		strings.HasSuffix(lower, ".sqlite3"):
		return sqliteDialector(dsn)
	default:
		return nil, false, ErrUnsupportedDSN
	}
}

func sqliteDialector(target string) (gorm.Dialector, bool, error) {
	if target == "" {
		return nil, false, ErrUnsupportedDSN
	}
	memory := target == ":memory:" || strings.Contains(target, "mode=memory")

	// Fail early if the parent directory does not exist instead of a late
	// "unable to open database file" from the driver.
	if !memory {
		path := strings.TrimPrefix(target, "file:")
		if i := strings.IndexByte(path, '?'); i >= 0 {
			path = path[:i]
		}
		if dir := filepath.Dir(path); dir != "." {
			if _, err := os.Stat(dir); err != nil {
				return nil, false, err
			}
		}
	}

	sep := "?"
	if strings.Contains(target, "?") {
		sep = "&"
	}
	var b strings.Builder
	b.WriteString(target)
	for _, p := range sqlitePragmas {
		b.WriteString(sep)
		b.WriteString("_pragma=")
		b.WriteString(p)
		sep = "&"
	}
	return sqlite.Open(b.String()), memory, nil
}
