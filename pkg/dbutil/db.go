// Package dbutil wraps the Postgres connection for Service 1, following the
// teacher's pkg/db.New connect-ping-migrate pattern adapted to Postgres and
// sqlx.
package dbutil

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"

	"github.com/nashrakhan-aithon/service1-text-extraction/pkg/migrations"
)

// DB wraps a *sqlx.DB. A single process-wide instance is expected; the
// queue store layered on top opens a fresh statement per operation rather
// than holding multi-statement transactions (spec §4.3).
type DB struct {
	*sqlx.DB
	logger *log.Logger
}

// Config holds the connection parameters resolved from Settings.
type Config struct {
	Host     string
	Database string
	User     string
	Password string
	Port     string
}

func (c Config) dsn() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Host, c.Port, c.User, c.Password, c.Database)
}

// Connect opens the connection, pings it, and runs pending migrations.
func Connect(cfg Config, logger *log.Logger) (*DB, error) {
	sqlDB, err := sqlx.Connect("postgres", cfg.dsn())
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	logger.Info("connected to postgres", "host", cfg.Host, "database", cfg.Database)

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return nil, fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.Up(sqlDB.DB, "."); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("migrations applied")

	return &DB{DB: sqlDB, logger: logger}, nil
}

// Health reports whether the underlying connection is reachable.
func (db *DB) Health() error {
	return db.Ping()
}
