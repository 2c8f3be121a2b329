package library

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"
)

// Supported SQLite drivers.
const (
	DriverCGO    = "sqlite3" // github.com/mattn/go-sqlite3
	DriverPureGo = "sqlite"  // modernc.org/sqlite
)

// Database is a transactional Store backed by a SQLite file. Each collection is
// one row holding its JSON-encoded records; a Save batch commits in a single
// transaction.
type Database struct {
	db *sqlx.DB

	loadStmt *sqlx.Stmt
}

// NewDatabase opens (or creates) the SQLite database at dbPath using the
// default cgo driver.
func NewDatabase(dbPath string) (*Database, error) {
	return OpenDatabase(DriverCGO, dbPath)
}

// OpenDatabase opens (or creates) the SQLite database at dbPath with the named
// driver, applies schema migrations, and prepares common statements.
func OpenDatabase(driver, dbPath string) (*Database, error) {
	// Ensure directory exists so first-run succeeds.
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	dsn, err := buildDSN(driver, dbPath)
	if err != nil {
		return nil, err
	}
	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One connection serialises writers and keeps WAL pragmas per-connection consistent.
	db.SetMaxOpenConns(1)

	if err := applyMigrations(db); err != nil {
		db.Close()
		return nil, err
	}

	database := &Database{db: db}
	if err := database.prepareStatements(); err != nil {
		db.Close()
		return nil, err
	}
	return database, nil
}

func buildDSN(driver, dbPath string) (string, error) {
	switch driver {
	case DriverCGO:
		return fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=1", dbPath), nil
	case DriverPureGo:
		return fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", dbPath), nil
	}
	return "", fmt.Errorf("unsupported sqlite driver %q", driver)
}

// Close releases prepared statements and closes the DB.
func (d *Database) Close() error {
	if d.loadStmt != nil {
		d.loadStmt.Close()
	}
	return d.db.Close()
}

// ---------------------------------------------------------------------------
// Schema migration
// ---------------------------------------------------------------------------

const schemaVersion = 1

func applyMigrations(db *sqlx.DB) error {
	// WAL improves write concurrency.
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		return fmt.Errorf("enable WAL: %w", err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS meta (key TEXT PRIMARY KEY, value TEXT);`); err != nil {
		return err
	}

	var current int
	_ = db.Get(&current, `SELECT CAST(value AS INTEGER) FROM meta WHERE key='schema_version';`)
	if current >= schemaVersion {
		return nil
	}

	tx, err := db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS collections (
            name TEXT PRIMARY KEY CHECK (name IN ('books','members','loans')),
            data TEXT NOT NULL,
            updated_at DATETIME NOT NULL
        );`,
		`INSERT INTO meta(key,value) VALUES('schema_version',?)
            ON CONFLICT(key) DO UPDATE SET value=excluded.value;`,
	}

	for i, stmt := range stmts {
		var args []any
		if i == len(stmts)-1 {
			args = append(args, schemaVersion)
		}
		if _, err := tx.Exec(stmt, args...); err != nil {
			return fmt.Errorf("apply migration: %w", err)
		}
	}

	return tx.Commit()
}

// ---------------------------------------------------------------------------
// Prepared statements
// ---------------------------------------------------------------------------

func (d *Database) prepareStatements() error {
	var err error
	if d.loadStmt, err = d.db.Preparex(`SELECT data FROM collections WHERE name=?`); err != nil {
		return err
	}
	return nil
}

// ---------------------------------------------------------------------------
// Store
// ---------------------------------------------------------------------------

// Load returns the encoded collection, or nil if it was never saved.
func (d *Database) Load(collection string) ([]byte, error) {
	if !validCollection(collection) {
		return nil, invalidInput("unknown collection %q", collection)
	}
	var data string
	err := d.loadStmt.Get(&data, collection)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return []byte(data), nil
}

// Save replaces every collection in writes within one transaction.
func (d *Database) Save(writes ...Write) error {
	tx, err := d.db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now().UTC().Format(time.RFC3339Nano)
	for _, w := range writes {
		data, err := encodeWrite(w)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(`INSERT INTO collections(name,data,updated_at) VALUES(?,?,?)
            ON CONFLICT(name) DO UPDATE SET data=excluded.data, updated_at=excluded.updated_at`,
			w.Collection, string(data), now); err != nil {
			return fmt.Errorf("save %s: %w", w.Collection, err)
		}
	}
	return tx.Commit()
}
