package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

type Config struct {
	// URL is a postgres:// URL or a sqlite file path (":memory:" works for tests).
	URL              string
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
}

// DB bundles the Ent SQL driver with the pool that backs it.
type DB struct {
	drv     *entsql.Driver
	pool    *pgxpool.Pool
	dialect string
	logger  *slog.Logger
}

func isPostgresURL(u string) bool {
	return strings.HasPrefix(u, "postgres://") || strings.HasPrefix(u, "postgresql://")
}

// Open connects to postgres (pgx pool wrapped as *sql.DB) or sqlite, wraps the
// connection for Ent and applies the schema.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*DB, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var (
		db  *DB
		err error
	)
	if isPostgresURL(cfg.URL) {
		db, err = openPostgres(ctx, cfg, logger)
	} else {
		db, err = openSQLite(cfg, logger)
	}
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func openPostgres(ctx context.Context, cfg Config, logger *slog.Logger) (*DB, error) {
	logger.Info("connecting to database", "backend", "postgres")
	pc, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		logger.Error("failed to parse database url", "error", err)
		return nil, err
	}

	if cfg.MaxConns > 0 {
		pc.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		pc.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		pc.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		pc.MaxConnIdleTime = cfg.MaxConnIdleTime
	}
	pc.ConnConfig.RuntimeParams["application_name"] = "quizgen"
	if cfg.StatementTimeout > 0 {
		pc.ConnConfig.RuntimeParams["statement_timeout"] = fmt.Sprint(cfg.StatementTimeout.Milliseconds())
	}

	dialTimeout := cfg.DialTimeout
	if dialTimeout <= 0 {
		dialTimeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()
	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		logger.Error("failed to ping database", "error", err)
		return nil, err
	}

	// Wrap pool as *sql.DB for Ent
	sqlDB := stdlib.OpenDBFromPool(pool)
	logger.Info("successfully connected to database")
	return &DB{drv: entsql.OpenDB(dialect.Postgres, sqlDB), pool: pool, dialect: dialect.Postgres, logger: logger}, nil
}

func openSQLite(cfg Config, logger *slog.Logger) (*DB, error) {
	path := cfg.URL
	if path == "" {
		path = "quizgen.db"
	}
	logger.Info("connecting to database", "backend", "sqlite", "path", path)
	sqlDB, err := sql.Open("sqlite", path+sqlitePragmas(path))
	if err != nil {
		return nil, err
	}
	// one writer; sqlite serializes anyway and :memory: is per connection
	sqlDB.SetMaxOpenConns(1)
	return &DB{drv: entsql.OpenDB(dialect.SQLite, sqlDB), dialect: dialect.SQLite, logger: logger}, nil
}

func sqlitePragmas(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return sep + "_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
}

// Dialect is the Ent dialect name in use.
func (d *DB) Dialect() string { return d.dialect }

// Close closes the database connections gracefully
func (d *DB) Close() {
	d.logger.Info("closing database connections")
	if err := d.drv.Close(); err != nil {
		d.logger.Error("failed to close sql driver", "error", err)
	}
	if d.pool != nil {
		d.pool.Close()
	}
	d.logger.Info("database connections closed")
}

// HealthCheck pings using database/sql to catch connectivity issues early.
func (d *DB) HealthCheck(ctx context.Context, timeout time.Duration) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return d.drv.DB().PingContext(ctx)
}

var schemaDDL = []string{
	`CREATE TABLE IF NOT EXISTS extract_job (
		id            TEXT PRIMARY KEY,
		content_hash  TEXT NOT NULL,
		filename      TEXT NOT NULL,
		params_key    TEXT NOT NULL,
		source        TEXT NOT NULL,
		status        TEXT NOT NULL,
		page_count    INTEGER NOT NULL DEFAULT 0,
		ocr_pages     INTEGER NOT NULL DEFAULT 0,
		empty_pages   INTEGER NOT NULL DEFAULT 0,
		error_message TEXT,
		result_json   TEXT,
		started_at    BIGINT NOT NULL,
		finished_at   BIGINT
	)`,
	`CREATE INDEX IF NOT EXISTS extract_job_cache_idx ON extract_job (content_hash, params_key, status)`,
	`CREATE INDEX IF NOT EXISTS extract_job_started_idx ON extract_job (started_at)`,
}

// Migrate creates the tables if they do not exist.
func (d *DB) Migrate(ctx context.Context) error {
	for _, stmt := range schemaDDL {
		if err := d.drv.Exec(ctx, stmt, []any{}, nil); err != nil {
			d.logger.Error("migration failed", "error", err)
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
