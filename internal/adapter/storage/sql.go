package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// sqliteSchema mirrors migrations/000001_records.up.sql.
const sqliteSchema = `
CREATE TABLE IF NOT EXISTS records (
	owner      TEXT    NOT NULL,
	name       TEXT    NOT NULL,
	value      BLOB    NOT NULL,
	updated_at INTEGER NOT NULL,
	PRIMARY KEY (owner, name)
);`

type sqldb interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type SQLDB struct {
	*sql.DB
}

// NewSQLDB opens the database of the driver and checks it is reachable.
// SQLite databases get the records schema on open, PostgreSQL databases
// are migrated by cmd/migrator.
func NewSQLDB(ctx context.Context, driver, dsn string) (SQLDB, error) {
	const op = "NewSQLDB"
	log := slog.With("op", op, "driver", driver)

	db, err := open(driver, dsn)
	if err != nil {
		return SQLDB{}, fmt.Errorf("%s: %w", op, err)
	}

	s := SQLDB{db}
	if err := s.PingContext(ctx); err != nil {
		s.DB.Close()
		return SQLDB{}, fmt.Errorf("%s: database is unavailable: %w", op, err)
	}

	if driver == DriverSQLite {
		if _, err := s.ExecContext(ctx, sqliteSchema); err != nil {
			s.DB.Close()
			return SQLDB{}, fmt.Errorf("%s: failed to create schema: %w", op, err)
		}
	}

	log.Info("database is available")
	return s, nil
}

func open(driver, dsn string) (*sql.DB, error) {
	switch driver {
	case DriverPostgres:
		connConfig, err := pgx.ParseConfig(dsn)
		if err != nil {
			return nil, err
		}
		return sql.Open("pgx", stdlib.RegisterConnConfig(connConfig))
	case DriverSQLite:
		db, err := sql.Open("sqlite3", dsn)
		if err != nil {
			return nil, err
		}
		// one writer, and every ":memory:" connection is a separate database
		db.SetMaxOpenConns(1)
		return db, nil
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", driver)
	}
}

func (s SQLDB) Close() {
	const op = "SQLDB.Close"
	log := slog.With("op", op)

	log.Info("closing sql database...")

	if err := s.DB.Close(); err != nil {
		log.Error("failed to close", "err", err)
		return
	}
	log.Info("sql database is closed")
}
