package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type dialect struct {
	driver         string
	numberedParams bool
	idColumn       string
	fkType         string
}

var (
	sqliteDialect = dialect{
		driver:   DriverSQLite,
		idColumn: "id INTEGER PRIMARY KEY AUTOINCREMENT",
		fkType:   "INTEGER",
	}
	postgresDialect = dialect{
		driver:         DriverPostgres,
		numberedParams: true,
		idColumn:       "id BIGSERIAL PRIMARY KEY",
		fkType:         "BIGINT",
	}
)

func dialectFor(driver string) (dialect, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", DriverSQLite:
		return sqliteDialect, nil
	case DriverPostgres:
		return postgresDialect, nil
	default:
		return dialect{}, fmt.Errorf("%w: unsupported db driver %q (expected sqlite|postgres)", ErrInvalidInput, driver)
	}
}

type migration struct {
	name string
	run  func(tx *sql.Tx, d dialect) error
}

var migrations = []migration{
	{name: "0001_feeds_schema", run: migrateFeedsSchema},
	{name: "0002_feed_items_channel_index", run: migrateFeedItemsIndex},
}

// OpenDB opens the store for driver. For SQLite dsn is a file path whose
// parent directory is created on demand; for Postgres it is a connection
// string. Pending migrations are applied before returning.
func OpenDB(driver, dsn string) (*sql.DB, error) {
	d, err := dialectFor(driver)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("%w: database path must not be empty", ErrInvalidInput)
	}

	if d.driver == DriverSQLite {
		if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open(d.driver, dsn)
	if err != nil {
		return nil, err
	}

	switch d.driver {
	case DriverSQLite:
		// SQLite allows one writer at a time; serialize connections to avoid busy/locked storms.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)

		for _, pragma := range []string{
			`PRAGMA foreign_keys = ON;`,
			`PRAGMA busy_timeout = 5000;`,
			`PRAGMA journal_mode = WAL;`,
		} {
			if _, err := db.Exec(pragma); err != nil {
				_ = db.Close()
				return nil, err
			}
		}
	case DriverPostgres:
		db.SetMaxOpenConns(4)
		db.SetMaxIdleConns(2)
		db.SetConnMaxLifetime(5 * time.Minute)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("ping postgres: %w", err)
		}
	}

	if err := runMigrations(db, d); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func runMigrations(db *sql.DB, d dialect) error {
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			name TEXT PRIMARY KEY,
			applied_at TEXT NOT NULL
		);
	`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	applied, err := appliedMigrations(db)
	if err != nil {
		return err
	}

	for _, m := range migrations {
		if _, ok := applied[m.name]; ok {
			continue
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %s: %w", m.name, err)
		}

		if err := m.run(tx, d); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("run migration %s: %w", m.name, err)
		}

		if _, err := tx.Exec(
			rebind(d, `INSERT INTO schema_migrations(name, applied_at) VALUES (?, ?)`),
			m.name,
			FormatRFC2822(time.Now()),
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record migration %s: %w", m.name, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %s: %w", m.name, err)
		}
	}

	return nil
}

func appliedMigrations(db *sql.DB) (map[string]struct{}, error) {
	rows, err := db.Query(`SELECT name FROM schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("query schema_migrations: %w", err)
	}
	defer rows.Close()

	out := make(map[string]struct{})
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan schema_migrations: %w", err)
		}
		out[name] = struct{}{}
	}
	return out, rows.Err()
}

func migrateFeedsSchema(tx *sql.Tx, d dialect) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS feeds (
			` + d.idColumn + `,
			url TEXT NOT NULL,
			feed_url TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL,
			create_date TEXT NOT NULL,
			update_date TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS feed_items (
			` + d.idColumn + `,
			channel_id ` + d.fkType + ` NOT NULL REFERENCES feeds(id) ON DELETE CASCADE,
			item_key TEXT NOT NULL,
			title TEXT,
			url TEXT,
			description TEXT,
			author TEXT,
			pub_date TEXT,
			create_date TEXT NOT NULL,
			update_date TEXT NOT NULL,
			UNIQUE(channel_id, item_key)
		);`,
	}

	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

func migrateFeedItemsIndex(tx *sql.Tx, d dialect) error {
	_, err := tx.Exec(`CREATE INDEX IF NOT EXISTS idx_feed_items_channel ON feed_items(channel_id, id);`)
	return err
}
