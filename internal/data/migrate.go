package data

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	msqlite3 "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations
var migrationsFS embed.FS

// migrateUp applies every pending migration for the dialect.
func migrateUp(db *sql.DB, d dialect) error {
	sourceDriver, err := iofs.New(migrationsFS, "migrations/"+d.name)
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	var (
		dbDriver database.Driver
		conn     *sql.Conn
	)
	switch d.name {
	case dialectPostgres:
		// Closing the migrate instance would close db, so the driver gets a
		// dedicated connection that is released here instead.
		conn, err = db.Conn(context.Background())
		if err != nil {
			return fmt.Errorf("failed to acquire migration connection: %w", err)
		}
		defer conn.Close()
		dbDriver, err = postgres.WithConnection(context.Background(), conn, &postgres.Config{})
	default:
		dbDriver, err = msqlite3.WithInstance(db, &msqlite3.Config{})
	}
	if err != nil {
		return fmt.Errorf("failed to create database driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, d.name, dbDriver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}
