package db

import "time"

// Language holds the per-language settings the export engine needs: the
// word-character class (or the segmenter sentinel), script direction, the
// flexible-format template and the lookup URI templates.
type Language struct {
	ID             int64
	Name           string
	WordCharacters string
	RTL            bool
	ExportTemplate string
	DictURI        string
	TranslatorURI  string
}

// Text is a provenance record for an imported source text.
type Text struct {
	ID         int64
	LanguageID int64
	Title      string
	URL        string
	// LastProcessedSentence is the resume checkpoint; -1 means none.
	LastProcessedSentence int
	AddedAt               time.Time
}

// Term is one vocabulary entry. Sentence carries the example sentence with
// the term between { and } delimiters.
type Term struct {
	ID              int64
	LanguageID      int64
	Text            string
	TextLC          string
	Translation     string
	Romanization    string
	Sentence        string
	Status          int
	OccurrenceCount int
}
