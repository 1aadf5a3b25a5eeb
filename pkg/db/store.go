package db

import (
	"database/sql"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"github.com/mkallio/lexport/pkg/export"
)

// DBExecutor is an interface that allows methods to accept either *sql.DB or *sql.Tx.
type DBExecutor interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	Query(query string, args ...interface{}) (*sql.Rows, error)
	QueryRow(query string, args ...interface{}) *sql.Row
}

// CreateOrGetLanguage returns the id of the named language, creating the row
// with the given settings when it does not exist yet. Settings of an existing
// language are left untouched.
func CreateOrGetLanguage(db DBExecutor, lang Language) (int64, error) {
	name := strings.TrimSpace(lang.Name)
	if name == "" {
		return 0, fmt.Errorf("language name must be non-empty")
	}

	var id int64
	query := `INSERT INTO languages (name, word_characters, rtl, export_template, dict_uri, translator_uri)
			  VALUES (?, ?, ?, ?, ?, ?)
			  ON CONFLICT(name) DO UPDATE SET name = excluded.name
			  RETURNING id`
	err := db.QueryRow(query, name, lang.WordCharacters, boolToInt(lang.RTL),
		lang.ExportTemplate, lang.DictURI, lang.TranslatorURI).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upsert language: %w", err)
	}
	return id, nil
}

// GetLanguage loads a language by name, case-insensitively.
func GetLanguage(db DBExecutor, name string) (*Language, error) {
	var l Language
	var rtl int
	err := db.QueryRow(
		`SELECT id, name, word_characters, rtl, export_template, dict_uri, translator_uri
		 FROM languages WHERE name = ? COLLATE NOCASE`, strings.TrimSpace(name),
	).Scan(&l.ID, &l.Name, &l.WordCharacters, &rtl, &l.ExportTemplate, &l.DictURI, &l.TranslatorURI)
	if err != nil {
		return nil, err
	}
	l.RTL = rtl != 0
	return &l, nil
}

// UpdateLanguage overwrites the settings of an existing language.
func UpdateLanguage(db DBExecutor, lang *Language) error {
	if lang == nil || lang.ID <= 0 {
		return fmt.Errorf("language id must be positive")
	}
	_, err := db.Exec(
		`UPDATE languages SET word_characters = ?, rtl = ?, export_template = ?, dict_uri = ?, translator_uri = ?
		 WHERE id = ?`,
		lang.WordCharacters, boolToInt(lang.RTL), lang.ExportTemplate, lang.DictURI, lang.TranslatorURI, lang.ID)
	return err
}

// CreateOrGetTerm upserts a term by its lowercase text within a language and
// returns its id. Occurrence counts accumulate; an empty stored translation,
// romanization or example sentence is filled from the new values, non-empty
// ones win over the incoming data.
func CreateOrGetTerm(db DBExecutor, term Term) (int64, error) {
	text := strings.TrimSpace(term.Text)
	if text == "" {
		return 0, fmt.Errorf("term text must be non-empty")
	}
	if term.LanguageID <= 0 {
		return 0, fmt.Errorf("term language id must be positive")
	}
	textLC := term.TextLC
	if textLC == "" {
		textLC = strings.ToLower(text)
	}
	status := term.Status
	if status <= 0 {
		status = 1
	}

	var id int64
	query := `INSERT INTO terms (language_id, text, text_lc, translation, romanization, sentence, status, occurrence_count)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			  ON CONFLICT(language_id, text_lc)
			  DO UPDATE SET
			    translation = COALESCE(NULLIF(terms.translation, ''), excluded.translation),
			    romanization = COALESCE(NULLIF(terms.romanization, ''), excluded.romanization),
			    sentence = COALESCE(NULLIF(terms.sentence, ''), excluded.sentence),
			    occurrence_count = terms.occurrence_count + excluded.occurrence_count
			  RETURNING id`
	err := db.QueryRow(query, term.LanguageID, text, textLC, term.Translation,
		term.Romanization, term.Sentence, status, term.OccurrenceCount).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upsert term: %w", err)
	}
	return id, nil
}

// GetTermByText finds a term by text within a language, case-insensitively.
func GetTermByText(db DBExecutor, languageID int64, text string) (*Term, error) {
	var t Term
	err := db.QueryRow(
		`SELECT id, language_id, text, text_lc, translation, romanization, sentence, status, occurrence_count
		 FROM terms WHERE language_id = ? AND text_lc = ?`,
		languageID, strings.ToLower(strings.TrimSpace(text)),
	).Scan(&t.ID, &t.LanguageID, &t.Text, &t.TextLC, &t.Translation, &t.Romanization,
		&t.Sentence, &t.Status, &t.OccurrenceCount)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// UpdateTermTranslation fills in translation and romanization for a term.
func UpdateTermTranslation(db DBExecutor, termID int64, translation, romanization string) error {
	if termID <= 0 {
		return fmt.Errorf("termID must be positive")
	}
	_, err := db.Exec(`UPDATE terms SET translation = ?, romanization = ? WHERE id = ?`,
		translation, romanization, termID)
	return err
}

// SetTermStatus updates the learning status code of a term.
func SetTermStatus(db DBExecutor, termID int64, status int) error {
	if termID <= 0 {
		return fmt.Errorf("termID must be positive")
	}
	_, err := db.Exec(`UPDATE terms SET status = ? WHERE id = ?`, status, termID)
	return err
}

// AttachTag tags a term, creating the tag row when missing.
func AttachTag(db DBExecutor, termID int64, tag string) error {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return fmt.Errorf("tag must be non-empty")
	}
	if termID <= 0 {
		return fmt.Errorf("termID must be positive")
	}
	if _, err := db.Exec(`INSERT OR IGNORE INTO tags (text) VALUES (?)`, tag); err != nil {
		return err
	}
	var tagID int64
	if err := db.QueryRow(`SELECT id FROM tags WHERE text = ?`, tag).Scan(&tagID); err != nil {
		return err
	}
	_, err := db.Exec(`INSERT OR IGNORE INTO term_tags (term_id, tag_id) VALUES (?, ?)`, termID, tagID)
	return err
}

// CreateOrGetText returns an existing text id for the URL/title pair or
// inserts a new row.
func CreateOrGetText(db DBExecutor, languageID int64, title, url string) (int64, error) {
	if languageID <= 0 {
		return 0, fmt.Errorf("languageID must be positive")
	}
	var id int64
	err := db.QueryRow(`SELECT id FROM texts WHERE url = ? AND title = ?`, url, title).Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return 0, err
	}
	res, err := db.Exec(`INSERT INTO texts (language_id, title, url) VALUES (?, ?, ?)`,
		languageID, title, url)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// GetTextProgress returns the last processed sentence index for a text.
func GetTextProgress(db DBExecutor, textID int64) (int, error) {
	var index int
	err := db.QueryRow(`SELECT last_processed_sentence FROM texts WHERE id = ?`, textID).Scan(&index)
	if err != nil {
		return 0, err
	}
	return index, nil
}

// UpdateTextProgress updates the resume checkpoint of a text.
func UpdateTextProgress(db DBExecutor, textID int64, index int) error {
	_, err := db.Exec(`UPDATE texts SET last_processed_sentence = ? WHERE id = ?`, index, textID)
	return err
}

// ListExportRecords loads terms joined with their language settings and tag
// lists, flattened into the records the row formatters consume. An empty
// language name selects all languages; minStatus <= 0 selects all statuses.
func ListExportRecords(db DBExecutor, languageName string, minStatus int) ([]*export.Record, error) {
	q := sq.Select(
		"t.id", "t.text", "t.text_lc", "t.translation", "t.romanization",
		"t.sentence", "t.status",
		"l.name", "l.rtl", "l.word_characters", "l.export_template",
		"IFNULL(GROUP_CONCAT(g.text, ','), '')",
	).
		From("terms t").
		Join("languages l ON l.id = t.language_id").
		LeftJoin("term_tags tt ON tt.term_id = t.id").
		LeftJoin("tags g ON g.id = tt.tag_id").
		GroupBy("t.id").
		OrderBy("l.name", "t.text_lc")
	if name := strings.TrimSpace(languageName); name != "" {
		q = q.Where(sq.Eq{"l.name": name})
	}
	if minStatus > 0 {
		q = q.Where(sq.GtOrEq{"t.status": minStatus})
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build export query: %w", err)
	}
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list export records: %w", err)
	}
	defer rows.Close()

	var out []*export.Record
	for rows.Next() {
		var rec export.Record
		var rtl int
		if err := rows.Scan(&rec.ID, &rec.Text, &rec.TextLC, &rec.Translation,
			&rec.Romanization, &rec.Sentence, &rec.Status,
			&rec.Language, &rtl, &rec.WordClass, &rec.Template, &rec.Tags); err != nil {
			return nil, err
		}
		rec.RTL = rtl != 0
		out = append(out, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
