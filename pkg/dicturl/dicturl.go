// Package dicturl builds dictionary and translator lookup URLs from
// per-language URI templates. A template marks the term position with the
// token "###" or "lwt_term"; without either token the encoded term is
// appended.
package dicturl

import (
	"log"
	"net/url"
	"regexp"
	"strings"
)

// TermToken and LegacyTermToken mark where the looked-up term is inserted.
const (
	TermToken       = "###"
	LegacyTermToken = "lwt_term"
)

// Older templates carried an encoding between double delimiters, e.g.
// "###UTF-8###". The charset is ignored; terms are always form-urlencoded
// UTF-8 now, but the marker must still be recognized and replaced whole.
var legacyEncoding = regexp.MustCompile(`###([A-Za-z0-9_-]+)###`)

// Builder constructs lookup URLs. Logger receives advisory diagnostics such
// as the legacy-encoding warning; nil means no logging.
type Builder struct {
	Logger *log.Logger
}

// Build substitutes term into template. Both inputs are trimmed first. The
// term is encoded per application/x-www-form-urlencoded (space becomes '+');
// an empty term encodes as a single "+" to match what existing templates
// were written against. Total: any non-empty template yields a usable URL.
func (b *Builder) Build(template, term string) string {
	template = strings.TrimSpace(template)
	enc := EncodeTerm(strings.TrimSpace(term))

	if m := legacyEncoding.FindStringSubmatch(template); m != nil {
		if b.Logger != nil {
			b.Logger.Printf("dicturl: template %q uses the obsolete ###%s### encoding marker; the charset is ignored", template, m[1])
		}
		return legacyEncoding.ReplaceAllLiteralString(template, enc)
	}
	if strings.Contains(template, TermToken) {
		return strings.ReplaceAll(template, TermToken, enc)
	}
	if strings.Contains(template, LegacyTermToken) {
		return strings.ReplaceAll(template, LegacyTermToken, enc)
	}
	return template + enc
}

// Build substitutes term into template without diagnostics. See Builder.Build.
func Build(template, term string) string {
	var b Builder
	return b.Build(template, term)
}

// EncodeTerm form-urlencodes a term for use in a lookup URL. The empty term
// encodes as "+".
func EncodeTerm(term string) string {
	if term == "" {
		return "+"
	}
	return url.QueryEscape(term)
}
