package db

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	migratemysql "github.com/golang-migrate/migrate/v4/database/mysql"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations
var migrationsFS embed.FS

// RunMigrations applies all pending migrations (Up) for cfg's dialect.
// It opens its own connection because closing a migrate instance closes the
// underlying *sql.DB. Returns nil if already at the latest version.
func RunMigrations(cfg Config) error {
	dsn, err := DSN(cfg)
	if err != nil {
		return err
	}

	conn, err := sql.Open(cfg.Driver, dsn)
	if err != nil {
		return fmt.Errorf("migrate open: %w", err)
	}

	dir, name, driver, err := migrationDriver(cfg.Driver, conn)
	if err != nil {
		_ = conn.Close()
		return err
	}

	src, err := iofs.New(migrationsFS, "migrations/"+dir)
	if err != nil {
		_ = driver.Close()
		return fmt.Errorf("migrate source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, name, driver)
	if err != nil {
		_ = src.Close()
		_ = driver.Close()
		return fmt.Errorf("migrate new: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate up: %w", err)
	}
	return nil
}

func migrationDriver(driverName string, conn *sql.DB) (dir, name string, driver database.Driver, err error) {
	switch driverName {
	case DriverPostgres, DriverPgx:
		driver, err = postgres.WithInstance(conn, &postgres.Config{})
		dir, name = "postgres", "postgres"
	case DriverMySQL:
		driver, err = migratemysql.WithInstance(conn, &migratemysql.Config{})
		dir, name = "mysql", "mysql"
	case DriverSQLite:
		driver, err = sqlite3.WithInstance(conn, &sqlite3.Config{})
		dir, name = "sqlite3", "sqlite3"
	default:
		return "", "", nil, fmt.Errorf("no migrations for driver %q", driverName)
	}
	if err != nil {
		return "", "", nil, fmt.Errorf("migrate driver: %w", err)
	}
	return dir, name, driver, nil
}
