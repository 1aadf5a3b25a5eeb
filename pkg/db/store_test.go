package db

import (
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

func setupTestDB(t *testing.T) *sql.DB {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	// Ensure single connection to avoid separate in-memory DBs per connection.
	db.SetMaxOpenConns(1)
	if err := InitDB(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func testLanguage(t *testing.T, db *sql.DB) int64 {
	t.Helper()
	id, err := CreateOrGetLanguage(db, Language{
		Name:           "English",
		WordCharacters: "a-zA-Z",
		DictURI:        "http://dict.example/###",
	})
	if err != nil {
		t.Fatalf("create language: %v", err)
	}
	return id
}

func TestCreateOrGetLanguage(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	id1 := testLanguage(t, db)
	id2 := testLanguage(t, db)
	if id1 != id2 {
		t.Fatalf("expected same id, got %d and %d", id1, id2)
	}
	lang, err := GetLanguage(db, "english")
	if err != nil {
		t.Fatalf("get language (case-insensitive): %v", err)
	}
	if lang.WordCharacters != "a-zA-Z" {
		t.Fatalf("unexpected word characters %q", lang.WordCharacters)
	}
}

func TestCreateOrGetTermAccumulates(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	langID := testLanguage(t, db)

	id1, err := CreateOrGetTerm(db, Term{
		LanguageID:      langID,
		Text:            "Dog",
		Sentence:        "The {dog} barks.",
		OccurrenceCount: 1,
	})
	if err != nil {
		t.Fatalf("create term: %v", err)
	}
	id2, err := CreateOrGetTerm(db, Term{
		LanguageID:      langID,
		Text:            "dog",
		Translation:     "a canine",
		OccurrenceCount: 2,
	})
	if err != nil {
		t.Fatalf("upsert term: %v", err)
	}
	if id1 != id2 {
		t.Fatalf("expected same id for case-insensitive match, got %d and %d", id1, id2)
	}

	term, err := GetTermByText(db, langID, "DOG")
	if err != nil {
		t.Fatalf("get term: %v", err)
	}
	if term.OccurrenceCount != 3 {
		t.Fatalf("expected accumulated count 3, got %d", term.OccurrenceCount)
	}
	if term.Translation != "a canine" {
		t.Fatalf("expected empty translation to be filled, got %q", term.Translation)
	}
	if term.Sentence != "The {dog} barks." {
		t.Fatalf("expected stored sentence to survive, got %q", term.Sentence)
	}
}

func TestTextProgress(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	langID := testLanguage(t, db)

	textID, err := CreateOrGetText(db, langID, "A Story", "https://example.com/story")
	if err != nil {
		t.Fatalf("create text: %v", err)
	}
	again, err := CreateOrGetText(db, langID, "A Story", "https://example.com/story")
	if err != nil {
		t.Fatalf("get text: %v", err)
	}
	if textID != again {
		t.Fatalf("expected same text id, got %d and %d", textID, again)
	}

	idx, err := GetTextProgress(db, textID)
	if err != nil {
		t.Fatalf("get progress: %v", err)
	}
	if idx != -1 {
		t.Fatalf("expected fresh checkpoint -1, got %d", idx)
	}
	if err := UpdateTextProgress(db, textID, 12); err != nil {
		t.Fatalf("update progress: %v", err)
	}
	idx, err = GetTextProgress(db, textID)
	if err != nil {
		t.Fatalf("get progress: %v", err)
	}
	if idx != 12 {
		t.Fatalf("expected checkpoint 12, got %d", idx)
	}
}

func TestListExportRecords(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	langID, err := CreateOrGetLanguage(db, Language{
		Name:           "Hebrew",
		WordCharacters: "א-ת",
		RTL:            true,
		ExportTemplate: "%w\\t%t",
	})
	if err != nil {
		t.Fatalf("create language: %v", err)
	}

	termID, err := CreateOrGetTerm(db, Term{
		LanguageID:  langID,
		Text:        "שלום",
		Translation: "hello",
		Sentence:    "אומר {שלום} לך.",
		Status:      2,
	})
	if err != nil {
		t.Fatalf("create term: %v", err)
	}
	if err := AttachTag(db, termID, "greeting"); err != nil {
		t.Fatalf("attach tag: %v", err)
	}

	recs, err := ListExportRecords(db, "Hebrew", 0)
	if err != nil {
		t.Fatalf("list export records: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("expected 1 record, got %d", len(recs))
	}
	rec := recs[0]
	if !rec.RTL {
		t.Fatal("expected RTL flag from language row")
	}
	if rec.WordClass != "א-ת" {
		t.Fatalf("unexpected word class %q", rec.WordClass)
	}
	if rec.Template != "%w\\t%t" {
		t.Fatalf("unexpected template %q", rec.Template)
	}
	if rec.Tags != "greeting" {
		t.Fatalf("unexpected tags %q", rec.Tags)
	}

	// Status filter excludes the record.
	recs, err = ListExportRecords(db, "Hebrew", 3)
	if err != nil {
		t.Fatalf("list export records: %v", err)
	}
	if len(recs) != 0 {
		t.Fatalf("expected status filter to drop record, got %d", len(recs))
	}
}
