package main

import (
	"bytes"
	"context"
	"database/sql"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-shiori/go-readability"
	"github.com/mkallio/lexport/pkg/config"
	"github.com/mkallio/lexport/pkg/db"
	"github.com/mkallio/lexport/pkg/dictionary"
	"github.com/mkallio/lexport/pkg/dicturl"
	"github.com/mkallio/lexport/pkg/export"
	"github.com/mkallio/lexport/pkg/ingest"
	"github.com/mkallio/lexport/pkg/mask"
	"github.com/mkallio/lexport/pkg/segment"

	_ "github.com/mattn/go-sqlite3"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	urlFlag := flag.String("url", "", "URL of a text to fetch and register")
	dbFlag := flag.String("db", cfg.Database.Path, "Path to SQLite database")
	langFlag := flag.String("lang", "Japanese", "Language name to operate on")
	wordCharsFlag := flag.String("word-chars", mask.SegmenterSentinel, "Word-character class for new languages, or \"mecab\" for the built-in segmenter")
	dictFlag := flag.String("import-dict", "", "Path to jmdict-simplified JSON; back-fills missing translations and exits")
	termFlag := flag.String("term", "", "Print the language's dictionary and translator lookup URLs for this term and exit")
	exportFlag := flag.Bool("export", false, "Export the language's terms after other work")
	formatFlag := flag.String("format", cfg.Export.Format, "Export row format: anki, tsv, or flexible")
	outFlag := flag.String("out", "", "Export output file (default stdout)")
	minStatusFlag := flag.Int("min-status", cfg.Export.MinStatus, "Only export terms with at least this status (0 exports everything)")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	conn, err := sql.Open("sqlite3", *dbFlag)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer conn.Close()

	if err := db.InitDB(conn); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	if *dictFlag != "" {
		if err := runDictImport(conn, *dictFlag, *langFlag); err != nil {
			log.Fatalf("Dictionary import failed: %v", err)
		}
		return
	}

	if *termFlag != "" {
		if err := printLookupURLs(conn, *langFlag, *termFlag); err != nil {
			log.Fatalf("Lookup failed: %v", err)
		}
		return
	}

	if *urlFlag == "" && !*exportFlag {
		log.Fatal("Please provide a -url, -import-dict, -term, or -export")
	}

	if *urlFlag != "" {
		if err := runIntake(ctx, conn, cfg, *urlFlag, *langFlag, *wordCharsFlag); err != nil {
			log.Fatalf("Registration failed: %v", err)
		}
	}

	if *exportFlag {
		if err := runExport(conn, cfg, *langFlag, *formatFlag, *outFlag, *minStatusFlag); err != nil {
			log.Fatalf("Export failed: %v", err)
		}
	}
}

func runDictImport(conn *sql.DB, path, language string) error {
	fmt.Printf("Loading dictionary from %s...\n", path)
	entries, err := dictionary.LoadJMdictSimplified(path)
	if err != nil {
		return fmt.Errorf("load dictionary: %w", err)
	}
	fmt.Printf("Loaded %d entries. Processing updates...\n", len(entries))

	lang, err := db.GetLanguage(conn, language)
	if err != nil {
		return fmt.Errorf("language %q: %w", language, err)
	}

	importer := dictionary.NewImporter(conn, entries)
	count, err := importer.FillTranslations(lang.ID)
	if err != nil {
		return fmt.Errorf("fill translations: %w", err)
	}
	fmt.Printf("Successfully updated translations for %d terms.\n", count)
	return nil
}

func printLookupURLs(conn *sql.DB, language, term string) error {
	lang, err := db.GetLanguage(conn, language)
	if err != nil {
		return fmt.Errorf("language %q: %w", language, err)
	}

	builder := dicturl.Builder{Logger: log.New(os.Stderr, "", log.LstdFlags)}
	if lang.DictURI != "" {
		fmt.Printf("Dictionary: %s\n", builder.Build(lang.DictURI, term))
	}
	if lang.TranslatorURI != "" {
		fmt.Printf("Translator: %s\n", builder.Build(lang.TranslatorURI, term))
	}
	if lang.DictURI == "" && lang.TranslatorURI == "" {
		fmt.Printf("Language %q has no lookup URIs configured.\n", language)
	}
	return nil
}

func runIntake(ctx context.Context, conn *sql.DB, cfg *config.Config, rawURL, language, wordChars string) error {
	fmt.Printf("Fetching %s...\n", rawURL)

	body, err := fetchHTML(ctx, rawURL)
	if err != nil {
		return err
	}

	// Strip furigana before extraction so readings don't duplicate the base text.
	body = segment.StripRuby(body)

	parsedURL, _ := url.Parse(rawURL)
	article, err := readability.FromReader(bytes.NewReader(body), parsedURL)
	if err != nil {
		return fmt.Errorf("extract article: %w", err)
	}

	fmt.Printf("Title: %s\n", article.Title)
	fmt.Printf("Extracted Text Length: %d chars\n", len(article.TextContent))

	langID, err := db.CreateOrGetLanguage(conn, db.Language{Name: language, WordCharacters: wordChars})
	if err != nil {
		return fmt.Errorf("persist language: %w", err)
	}
	textID, err := db.CreateOrGetText(conn, langID, article.Title, rawURL)
	if err != nil {
		return fmt.Errorf("persist text: %w", err)
	}
	fmt.Printf("Text saved with ID: %d\n", textID)

	seg, err := segment.New()
	if err != nil {
		return fmt.Errorf("create segmenter: %w", err)
	}
	sentences, err := seg.Document(article.TextContent)
	if err != nil {
		return fmt.Errorf("segment text: %w", err)
	}
	fmt.Printf("Segmented %d sentences.\n", len(sentences))

	rg := ingest.NewRegistrar(conn, nil)
	rg.Workers = cfg.Ingest.Workers
	rg.BatchSize = cfg.Ingest.BatchSize
	rg.Logger = log.New(os.Stderr, "", log.LstdFlags)

	count, err := rg.Register(ctx, langID, textID, sentences)
	if err != nil {
		return fmt.Errorf("register terms: %w", err)
	}
	fmt.Printf("Processing complete. Registered %d word occurrences.\n", count)
	return nil
}

func runExport(conn *sql.DB, cfg *config.Config, language, format, out string, minStatus int) error {
	parsed, err := export.ParseFormat(format)
	if err != nil {
		return err
	}

	recs, err := db.ListExportRecords(conn, language, minStatus)
	if err != nil {
		return fmt.Errorf("list terms: %w", err)
	}

	var w io.Writer = os.Stdout
	if out != "" {
		f, err := os.Create(out)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	formatter := &export.Formatter{
		Masks:    &mask.Cache{},
		Renderer: export.Renderer{ClozeHint: cfg.Export.ClozeHint},
	}
	written, err := export.WriteRows(w, parsed, formatter, recs)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Exported %d rows.\n", written)
	return nil
}

func fetchHTML(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	// Mimic a real browser to avoid being blocked (e.g. 403 or Cloudflare).
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9,ja;q=0.8")

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("got status code %d", resp.StatusCode)
	}

	// Size limit so untrusted URLs can't exhaust memory.
	const maxBodySize = 10 * 1024 * 1024

	if resp.ContentLength > int64(maxBodySize) {
		return nil, fmt.Errorf("content length %d exceeds limit of %d bytes", resp.ContentLength, maxBodySize)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	if int64(len(body)) >= int64(maxBodySize) {
		return nil, fmt.Errorf("response body exceeded maximum size of %d bytes", maxBodySize)
	}
	return body, nil
}
