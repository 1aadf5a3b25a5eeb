package export

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/mkallio/lexport/pkg/mask"
)

// ErrNoRecord is returned when a row is requested for a missing record.
var ErrNoRecord = errors.New("export: no term record")

// Format selects one of the output-line layouts.
type Format string

const (
	FormatAnki     Format = "anki"
	FormatTSV      Format = "tsv"
	FormatFlexible Format = "flexible"
)

// ParseFormat maps a user-supplied format name onto a Format.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatAnki:
		return FormatAnki, nil
	case FormatTSV:
		return FormatTSV, nil
	case FormatFlexible:
		return FormatFlexible, nil
	}
	return "", fmt.Errorf("export: unknown format %q", s)
}

// Formatter builds terminated output lines from records. The zero value is
// usable; Masks may be shared across formatters to reuse compiled word
// classes between export runs.
type Formatter struct {
	Masks    *mask.Cache
	Renderer Renderer
}

// Row dispatches to the builder for format.
func (f *Formatter) Row(format Format, rec *Record) (string, error) {
	switch format {
	case FormatAnki:
		return f.AnkiRow(rec)
	case FormatTSV:
		return f.TSVRow(rec)
	case FormatFlexible:
		return f.FlexibleRow(rec)
	}
	return "", fmt.Errorf("export: unknown format %q", format)
}

// AnkiRow emits the fixed Anki import layout: masked sentence, term,
// translation, romanization, language, id, tags, tab separated and CRLF
// terminated. Every text field is whitespace-normalized first so embedded
// tabs and newlines cannot break the row.
func (f *Formatter) AnkiRow(rec *Record) (string, error) {
	if rec == nil {
		return "", ErrNoRecord
	}
	class := mask.ParseWordClass(rec.WordClass)
	sentence := NormalizeWhitespace(mask.Term(rec.Sentence, class, f.Masks))
	term := NormalizeWhitespace(rec.Text)
	if rec.RTL {
		sentence = rtlSpan(mirrorBrackets.Replace(sentence))
		term = rtlSpan(term)
	}
	cols := []string{
		sentence,
		term,
		NormalizeWhitespace(rec.Translation),
		NormalizeWhitespace(rec.Romanization),
		NormalizeWhitespace(rec.Language),
		strconv.FormatInt(rec.ID, 10),
		NormalizeWhitespace(rec.Tags),
	}
	return strings.Join(cols, "\t") + "\r\n", nil
}

// TSVRow emits the plain spreadsheet layout: term, translation, sentence
// (braces stripped, unmasked), romanization, status, language, id, tags.
// Term and translation are whitespace-normalized to keep the TSV well
// formed; the sentence is passed through verbatim.
func (f *Formatter) TSVRow(rec *Record) (string, error) {
	if rec == nil {
		return "", ErrNoRecord
	}
	cols := []string{
		NormalizeWhitespace(rec.Text),
		NormalizeWhitespace(rec.Translation),
		stripBraces.Replace(rec.Sentence),
		rec.Romanization,
		strconv.Itoa(rec.Status),
		rec.Language,
		strconv.FormatInt(rec.ID, 10),
		rec.Tags,
	}
	return strings.Join(cols, "\t") + "\r\n", nil
}

// FlexibleRow delegates to the template renderer using the record's
// per-language template. No template configured means no output line.
func (f *Formatter) FlexibleRow(rec *Record) (string, error) {
	if rec == nil {
		return "", ErrNoRecord
	}
	out := f.Renderer.Render(rec.Template, rec)
	if out == "" {
		return "", nil
	}
	return out + "\r\n", nil
}
