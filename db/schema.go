// ABOUTME: Database schema definitions and migrations
// ABOUTME: Stores every collection in one JSON documents table
package db

import (
	"database/sql"
)

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	collection TEXT NOT NULL,
	id TEXT NOT NULL,
	data TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL,
	PRIMARY KEY (collection, id)
);

CREATE INDEX IF NOT EXISTS idx_documents_collection ON documents(collection);
CREATE INDEX IF NOT EXISTS idx_documents_stage ON documents(collection, json_extract(data, '$.stage'));
CREATE INDEX IF NOT EXISTS idx_documents_contact ON documents(collection, json_extract(data, '$.contactId'));
`

func InitSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
