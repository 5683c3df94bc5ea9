// ABOUTME: Database schema definitions and migrations
// ABOUTME: Handles SQLite table creation for the tabular record store
package db

import (
	"database/sql"
)

const schema = `
CREATE TABLE IF NOT EXISTS records (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	tbl TEXT NOT NULL,
	data TEXT NOT NULL,
	created_on DATETIME NOT NULL,
	modified_on DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_records_tbl ON records(tbl, id);
CREATE INDEX IF NOT EXISTS idx_records_modified ON records(tbl, modified_on DESC);
`

func InitSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
