package db

import (
	"database/sql"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

const migrationsSQL = `
CREATE TABLE IF NOT EXISTS languages (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL UNIQUE,
	word_characters TEXT NOT NULL DEFAULT 'a-zA-Z',
	rtl INTEGER NOT NULL DEFAULT 0,
	export_template TEXT NOT NULL DEFAULT '',
	dict_uri TEXT NOT NULL DEFAULT '',
	translator_uri TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS texts (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	language_id INTEGER NOT NULL REFERENCES languages(id),
	title TEXT NOT NULL DEFAULT '',
	url TEXT NOT NULL DEFAULT '',
	last_processed_sentence INTEGER NOT NULL DEFAULT -1,
	added_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	UNIQUE(url, title)
);

CREATE TABLE IF NOT EXISTS terms (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	language_id INTEGER NOT NULL REFERENCES languages(id),
	text TEXT NOT NULL,
	text_lc TEXT NOT NULL,
	translation TEXT NOT NULL DEFAULT '',
	romanization TEXT NOT NULL DEFAULT '',
	sentence TEXT NOT NULL DEFAULT '',
	status INTEGER NOT NULL DEFAULT 1,
	occurrence_count INTEGER NOT NULL DEFAULT 0,
	UNIQUE(language_id, text_lc)
);

CREATE INDEX IF NOT EXISTS idx_terms_text_lc ON terms(text_lc);

CREATE TABLE IF NOT EXISTS tags (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	text TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS term_tags (
	term_id INTEGER NOT NULL REFERENCES terms(id),
	tag_id INTEGER NOT NULL REFERENCES tags(id),
	PRIMARY KEY (term_id, tag_id)
)
`

// InitDB runs migrations on the given DB connection using the embedded SQL.
func InitDB(db *sql.DB) error {
	stmts := strings.Split(migrationsSQL, ";")
	for _, s := range stmts {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}
