// Package export turns stored term records into flashcard/TSV output lines.
// It hosts the whitespace normalizer, the placeholder template renderer and
// the per-format row builders; masking of the target term lives in pkg/mask.
package export

// Record carries everything the row builders need to know about one
// exportable term, flattened together with its language settings. Zero
// values stand in for absent fields; only a missing record itself is an
// error.
type Record struct {
	ID           int64
	Text         string // original case
	TextLC       string // lowercase, used for case-insensitive lookups
	Translation  string
	Romanization string
	// Sentence is the example sentence with the term between { and }.
	Sentence string
	Status   int

	// Language settings, denormalized onto the record.
	Language  string
	RTL       bool
	WordClass string // regex class fragment, or the segmenter sentinel
	Template  string // flexible-format template, empty when unset

	Tags string // comma-joined tag list
}
