// Package ingest turns segmented text into stored term records: content
// words become terms, each carrying an example sentence with the term
// between { and } delimiters so the export engine can mask it later.
package ingest

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"regexp"
	"strings"
	"sync/atomic"
	"time"

	"github.com/mkallio/lexport/pkg/db"
	"github.com/mkallio/lexport/pkg/dictionary"
	"github.com/mkallio/lexport/pkg/segment"
)

// Pool abstracts the worker pool so tests can inject failing implementations.
type Pool interface {
	Start(ctx context.Context)
	Submit(Job) error
	// SubmitCtx attempts to enqueue a job but returns promptly if ctx is canceled.
	SubmitCtx(ctx context.Context, job Job) error
	Close()
}

// Registrar registers the vocabulary of segmented sentences into the term
// store, using concurrent workers for the CPU-bound analysis and batched
// transactions for the writes. Registration resumes from the text's
// checkpoint when interrupted.
type Registrar struct {
	DB *sql.DB
	// Dict optionally supplies translations/readings during registration;
	// nil leaves them empty for later back-fill.
	Dict      *dictionary.Importer
	BatchSize int
	Workers   int
	// Logger receives informational messages (e.g. resume status); nil means silent.
	Logger *log.Logger
	// OnProgress is called periodically with processed and total sentence counts.
	OnProgress func(current, total int)
	// PoolFactory lets tests swap in custom pool implementations.
	PoolFactory func(workers, queue int) Pool
}

// NewRegistrar creates a Registrar with the default worker and batch sizes.
func NewRegistrar(conn *sql.DB, dict *dictionary.Importer) *Registrar {
	return &Registrar{
		DB:        conn,
		Dict:      dict,
		BatchSize: 50,
		Workers:   4,
	}
}

// termData is one word occurrence group prepared for a single sentence.
type termData struct {
	Text         string
	Romanization string
	Translation  string
	Sentence     string // example sentence with the {term} braced
	Count        int
}

// processedSentence is the analysis result for one sentence, pre-DB.
type processedSentence struct {
	Index int
	Terms []termData
	Err   error
}

// Skip grammatical machinery and punctuation: symbols, particles,
// auxiliary verbs, and numerals.
var skipPOS = map[string]bool{"記号": true, "補助記号": true, "助詞": true, "助動詞": true}

var asciiOnly = regexp.MustCompile(`^[a-zA-Z0-9\s[:punct:]]+$`)

// Register processes sentences for the given text and stores their
// vocabulary under languageID. It returns the number of term occurrences
// registered.
func (rg *Registrar) Register(ctx context.Context, languageID, textID int64, sentences []segment.Sentence) (int, error) {
	lastProcessed, err := db.GetTextProgress(rg.DB, textID)
	if err != nil {
		if rg.Logger != nil {
			rg.Logger.Printf("warning: failed to read checkpoint: %v", err)
		}
		lastProcessed = -1
	}
	startIdx := lastProcessed + 1
	total := len(sentences)
	if startIdx >= total {
		return 0, nil
	}
	if startIdx > 0 && rg.Logger != nil {
		rg.Logger.Printf("resuming from sentence %d of %d", startIdx, total)
	}

	var pool Pool
	if rg.PoolFactory != nil {
		pool = rg.PoolFactory(rg.Workers, rg.Workers*2)
	} else {
		pool = NewWorkerPool(rg.Workers, rg.Workers*2)
	}
	resultCh := make(chan processedSentence, rg.Workers*2)
	doneCh := make(chan error, 1)

	bw := NewBatchWriter(rg.DB, rg.BatchSize, 100*time.Millisecond)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	pool.Start(ctx)

	var registered int64

	// Consumer: restore sentence order, then push writes to the batch writer.
	go func() {
		defer close(doneCh)
		pending := make(map[int]processedSentence)
		nextIdx := startIdx

		flush := func(item processedSentence) error {
			current := item
			return bw.Submit(func(ctx context.Context, tx *sql.Tx) error {
				for _, td := range current.Terms {
					if _, err := db.CreateOrGetTerm(tx, db.Term{
						LanguageID:      languageID,
						Text:            td.Text,
						Translation:     td.Translation,
						Romanization:    td.Romanization,
						Sentence:        td.Sentence,
						OccurrenceCount: td.Count,
					}); err != nil {
						return fmt.Errorf("persist term %q: %w", td.Text, err)
					}
					atomic.AddInt64(&registered, int64(td.Count))
				}
				if err := db.UpdateTextProgress(tx, textID, current.Index); err != nil {
					return fmt.Errorf("save checkpoint: %w", err)
				}
				return nil
			})
		}

		for res := range resultCh {
			if res.Err != nil {
				cancel()
				doneCh <- res.Err
				return
			}
			pending[res.Index] = res
			for {
				item, ok := pending[nextIdx]
				if !ok {
					break
				}
				delete(pending, nextIdx)
				if err := flush(item); err != nil {
					cancel()
					doneCh <- err
					return
				}
				if rg.OnProgress != nil && (nextIdx+1)%rg.BatchSize == 0 {
					rg.OnProgress(nextIdx+1, total)
				}
				nextIdx++
			}
			select {
			case <-ctx.Done():
				doneCh <- ctx.Err()
				return
			default:
			}
		}
		if rg.OnProgress != nil {
			rg.OnProgress(total, total)
		}
		doneCh <- nil
	}()

	// Producer: one analysis job per sentence.
producer:
	for i := startIdx; i < total; i++ {
		idx, sent := i, sentences[i]
		job := func(ctx context.Context) error {
			res := rg.processSentence(idx, sent)
			select {
			case resultCh <- res:
			case <-ctx.Done():
			}
			return nil
		}
		if err := pool.SubmitCtx(ctx, job); err != nil {
			if err == ctx.Err() || err == ErrPoolClosed {
				break producer
			}
			pool.Close()
			close(resultCh)
			<-doneCh
			_ = bw.Close()
			return int(atomic.LoadInt64(&registered)), err
		}
	}

	// All jobs finished once the pool drains; then the consumer sees EOF.
	pool.Close()
	close(resultCh)
	consumerErr := <-doneCh

	if err := bw.Close(); err != nil && consumerErr == nil {
		consumerErr = err
	}
	return int(atomic.LoadInt64(&registered)), consumerErr
}

// processSentence groups the sentence's content words and prepares them as
// term data: canonical (base) form, hiragana reading, optional dictionary
// translation, and the example sentence with the first occurrence braced.
func (rg *Registrar) processSentence(index int, sentence segment.Sentence) processedSentence {
	counts := make(map[string]int)
	data := make(map[string]*termData)
	var order []string

	for _, tok := range sentence.Tokens {
		if skipPOS[tok.PrimaryPOS] {
			continue
		}
		if len(tok.PartsOfSpeech) > 1 && tok.PartsOfSpeech[1] == "数" {
			continue
		}
		if asciiOnly.MatchString(tok.Surface) {
			continue
		}

		canonical := tok.Surface
		if tok.BaseForm != "" && tok.BaseForm != "*" {
			canonical = tok.BaseForm
		}

		if _, seen := counts[canonical]; !seen {
			td := &termData{
				Text:         canonical,
				Romanization: dictionary.ToHiragana(tok.Reading),
				Sentence:     braceTerm(sentence.Text, tok.Surface),
			}
			if rg.Dict != nil {
				translation, reading := rg.Dict.Translation(tok.Surface, canonical, tok.Reading)
				td.Translation = translation
				if reading != "" {
					td.Romanization = reading
				}
			}
			data[canonical] = td
			order = append(order, canonical)
		} else if data[canonical].Romanization == "" {
			data[canonical].Romanization = dictionary.ToHiragana(tok.Reading)
		}
		counts[canonical]++
	}

	terms := make([]termData, 0, len(order))
	for _, key := range order {
		td := data[key]
		td.Count = counts[key]
		terms = append(terms, *td)
	}
	return processedSentence{Index: index, Terms: terms}
}

// braceTerm wraps the first occurrence of surface in sentence with the {…}
// delimiters the export masker expects. The sentence is returned unchanged
// when the surface form does not occur (e.g. after lemmatization).
func braceTerm(sentence, surface string) string {
	sentence = strings.TrimSpace(sentence)
	if surface == "" {
		return sentence
	}
	i := strings.Index(sentence, surface)
	if i < 0 {
		return sentence
	}
	return sentence[:i] + "{" + surface + "}" + sentence[i+len(surface):]
}
