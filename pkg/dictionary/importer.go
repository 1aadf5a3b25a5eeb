package dictionary

import (
	"database/sql"
	"log"
	"sort"
	"strings"
	"sync"

	"github.com/mkallio/lexport/pkg/db"
)

// maxGlosses bounds how many glosses are joined into one translation string.
const maxGlosses = 3

// Importer matches terms against an in-memory JMdict index and fills in
// their translations and readings.
type Importer struct {
	conn *sql.DB
	// index maps kanji and kana writings to their entries. It is built once
	// and read concurrently by registration workers; the mutex guards
	// against future code that mutates the map after construction.
	mu    sync.RWMutex
	index map[string][]JMdictEntry
}

// NewImporter creates an importer and indexes the provided dictionary.
func NewImporter(conn *sql.DB, entries []JMdictEntry) *Importer {
	idx := make(map[string][]JMdictEntry)
	for _, e := range entries {
		for _, k := range e.Kanji {
			idx[k.Text] = append(idx[k.Text], e)
		}
		for _, k := range e.Kana {
			idx[k.Text] = append(idx[k.Text], e)
		}
	}
	return &Importer{conn: conn, index: idx}
}

// FillTranslations finds dictionary matches for stored terms of a language
// that still have an empty translation and updates them. Returns the number
// of terms updated.
func (im *Importer) FillTranslations(languageID int64) (int, error) {
	rows, err := im.conn.Query(
		`SELECT id, text, romanization FROM terms WHERE language_id = ? AND translation = ''`,
		languageID)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	type update struct {
		id                        int64
		translation, romanization string
	}
	var updates []update

	for rows.Next() {
		var id int64
		var text string
		var romanization sql.NullString
		if err := rows.Scan(&id, &text, &romanization); err != nil {
			return 0, err
		}

		translation, reading := im.Translation(text, text, romanization.String)
		if translation == "" {
			continue
		}
		if reading == "" {
			reading = romanization.String
		}
		updates = append(updates, update{id, translation, reading})
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}

	updated := 0
	for _, u := range updates {
		if err := db.UpdateTermTranslation(im.conn, u.id, u.translation, u.romanization); err != nil {
			log.Printf("failed to update term %d: %v", u.id, err)
			continue
		}
		updated++
	}
	return updated, nil
}

// Translation returns a short gloss summary and a hiragana reading for the
// best dictionary matches of the given word. Empty strings mean no match.
func (im *Importer) Translation(word, lemma, reading string) (string, string) {
	matches := im.findMatches(word, lemma, reading)
	if len(matches) == 0 {
		return "", ""
	}
	return glossSummary(matches[0]), primaryReading(matches[0])
}

// Lookup finds matching entries for a word, lemma, and reading.
func (im *Importer) Lookup(word, lemma, reading string) []JMdictEntry {
	return im.findMatches(word, lemma, reading)
}

func (im *Importer) findMatches(word, lemma, reading string) []JMdictEntry {
	candidates := make(map[string]JMdictEntry)

	search := func(term string) {
		if term == "" {
			return
		}
		im.mu.RLock()
		entries, ok := im.index[term]
		im.mu.RUnlock()
		if ok {
			for _, e := range entries {
				candidates[e.Id] = e
			}
		}
	}
	search(word)
	search(lemma)

	var results []JMdictEntry
	for _, entry := range candidates {
		if isMatch(entry, word, lemma, reading) {
			results = append(results, entry)
		}
	}
	// Deterministic order across runs.
	sort.Slice(results, func(i, j int) bool {
		return results[i].Id < results[j].Id
	})
	return results
}

func isMatch(entry JMdictEntry, word, lemma, reading string) bool {
	hasText := false
	for _, k := range entry.Kanji {
		if k.Text == word || k.Text == lemma {
			hasText = true
			break
		}
	}
	for _, k := range entry.Kana {
		if k.Text == word || k.Text == lemma {
			hasText = true
			break
		}
	}
	if !hasText {
		return false
	}
	if reading == "" {
		return true
	}

	// When the term carries a reading, require a kana element that agrees
	// with it, so homographs with a different pronunciation are skipped.
	normalized := ToHiragana(reading)
	for _, k := range entry.Kana {
		if ToHiragana(k.Text) == normalized {
			return true
		}
		// Kana-only words match on the text itself.
		if k.Text == word || k.Text == lemma {
			return true
		}
	}
	return false
}

// glossSummary joins the first few glosses of an entry into the translation
// string stored on a term.
func glossSummary(entry JMdictEntry) string {
	var glosses []string
	for _, s := range entry.Sense {
		for _, g := range s.Gloss {
			glosses = append(glosses, g.Text)
			if len(glosses) == maxGlosses {
				return strings.Join(glosses, "; ")
			}
		}
	}
	return strings.Join(glosses, "; ")
}

// primaryReading picks the common kana writing of an entry, converted to
// hiragana, for the romanization column.
func primaryReading(entry JMdictEntry) string {
	if len(entry.Kana) == 0 {
		return ""
	}
	for _, k := range entry.Kana {
		if k.Common {
			return ToHiragana(k.Text)
		}
	}
	return ToHiragana(entry.Kana[0].Text)
}

// ToHiragana converts katakana to hiragana, leaving other runes untouched.
func ToHiragana(s string) string {
	runes := []rune(s)
	for i, r := range runes {
		if r >= 0x30A1 && r <= 0x30F6 {
			runes[i] = r - 0x60
		}
	}
	return string(runes)
}
