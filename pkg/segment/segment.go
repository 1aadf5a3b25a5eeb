// Package segment splits imported text into sentences and tokens. Japanese
// and other unspaced scripts go through the kagome morphological analyzer;
// this is the concrete segmenter behind the "mecab" word-class sentinel.
package segment

import (
	"regexp"
	"strings"

	"github.com/ikawaha/kagome-dict/ipa"
	"github.com/ikawaha/kagome/v2/tokenizer"
)

// Token represents a single analyzed unit of text.
type Token struct {
	Surface       string   // the text as it appears (e.g. "行っ")
	BaseForm      string   // the dictionary form (e.g. "行く")
	Reading       string   // the pronunciation (katakana, e.g. "イッ")
	PartsOfSpeech []string // kagome POS labels
	PrimaryPOS    string   // first POS label if available
}

// Sentence represents a sentence containing tokens.
type Sentence struct {
	Text   string
	Tokens []Token
}

// Segmenter tokenizes text with the embedded IPA dictionary.
type Segmenter struct {
	t *tokenizer.Tokenizer
}

// New creates a Segmenter backed by a fresh kagome tokenizer.
func New() (*Segmenter, error) {
	t, err := tokenizer.New(ipa.Dict(), tokenizer.OmitBosEos())
	if err != nil {
		return nil, err
	}
	return &Segmenter{t: t}, nil
}

// Tokens breaks text into tokens with readings and base forms.
func (s *Segmenter) Tokens(text string) ([]Token, error) {
	var result []Token
	for _, token := range s.t.Tokenize(text) {
		if token.Class == tokenizer.DUMMY {
			continue
		}
		if strings.TrimSpace(token.Surface) == "" {
			continue
		}

		// IPA features: 0..3 POS levels, 4/5 conjugation, 6 base form,
		// 7 reading, 8 pronunciation.
		features := token.Features()
		base := token.Surface
		if len(features) > 6 && features[6] != "*" {
			base = features[6]
		}
		reading := ""
		if len(features) > 7 && features[7] != "*" {
			reading = features[7]
		}
		primaryPOS := ""
		if len(features) > 0 {
			primaryPOS = features[0]
		}

		result = append(result, Token{
			Surface:       token.Surface,
			BaseForm:      base,
			Reading:       reading,
			PartsOfSpeech: features,
			PrimaryPOS:    primaryPOS,
		})
	}
	return result, nil
}

// Document splits the text into sentences and tokenizes each one.
func (s *Segmenter) Document(text string) ([]Sentence, error) {
	var result []Sentence
	for _, raw := range SplitSentences(text) {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		tokens, err := s.Tokens(raw)
		if err != nil {
			return nil, err
		}
		result = append(result, Sentence{Text: raw, Tokens: tokens})
	}
	return result, nil
}

// SplitSentences cuts text on sentence-final punctuation and newlines.
// Handles both Western (. ! ?) and Japanese (。 ！ ？) delimiters.
func SplitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	for _, r := range text {
		current.WriteRune(r)
		switch r {
		case '。', '！', '？', '.', '!', '?', '\n':
			sentences = append(sentences, current.String())
			current.Reset()
		}
	}
	if current.Len() > 0 {
		sentences = append(sentences, current.String())
	}
	return sentences
}

var (
	// (?s) allows dot to match newlines; (?i) makes it case-insensitive.
	reRT = regexp.MustCompile(`(?si)<rt\b[^>]*>.*?</rt>`)
	reRP = regexp.MustCompile(`(?si)<rp\b[^>]*>.*?</rp>`)
)

// StripRuby removes ruby text (<rt>...</rt>) and ruby parentheses
// (<rp>...</rp>) from HTML content. Readability keeps furigana otherwise,
// which duplicates the base text (e.g. "漢字" becomes "漢字かんじ").
func StripRuby(content []byte) []byte {
	cleaned := reRT.ReplaceAll(content, []byte{})
	return reRP.ReplaceAll(cleaned, []byte{})
}
