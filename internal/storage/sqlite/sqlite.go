package sqlite

import (
	_ "embed"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schema string

// New opens (or creates) a SQLite database at storagePath and applies
// the schema. The modernc driver is pure Go, so single-binary deploys
// need no cgo toolchain.
func New(storagePath string) (*sqlx.DB, error) {
	const op = "storage.sqlite.New"

	db, err := sqlx.Open("sqlite", storagePath)
	if err != nil {
		return nil, fmt.Errorf("%s: open: %w", op, err)
	}

	if _, err := db.Exec(`PRAGMA foreign_keys = ON`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: enable foreign keys: %w", op, err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: apply schema: %w", op, err)
	}

	return db, nil
}
