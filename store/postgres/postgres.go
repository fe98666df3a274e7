// Package postgres provides the durable KvStore/GraphStore backend used for
// multi-restart deployments. It is the only store/ implementation that
// imports a database driver; store/memory covers the single-process default.
package postgres

import (
	"context"
	"embed"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// DB wraps a sqlx connection shared by the KvStore and GraphStore
// implementations in this package.
type DB struct {
	conn *sqlx.DB
}

// Open connects to Postgres and, when migrate is true, applies pending
// schema migrations embedded in this package before returning.
func Open(ctx context.Context, dsn string, runMigrations bool) (*DB, error) {
	conn, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	db := &DB{conn: conn}
	if runMigrations {
		if err := db.migrate(dsn); err != nil {
			_ = conn.Close()
			return nil, err
		}
	}
	return db, nil
}

func (db *DB) migrate(dsn string) error {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}

	driver, err := postgres.WithInstance(db.conn.DB, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("init migrator: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (db *DB) Close(ctx context.Context) error {
	return db.conn.Close()
}
