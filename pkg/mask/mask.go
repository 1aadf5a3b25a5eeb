// Package mask hides the target term inside an example sentence so a learner
// has to recall it from context. Sentences store the term between '{' and '}'
// delimiters; the braces themselves always survive masking.
package mask

import (
	"regexp"
	"strings"
)

// Bullet replaces each word character of the term when masking.
const Bullet = '•'

// Term masks every word character inside {…} spans with the bullet glyph.
// Characters outside spans, the braces themselves, and span characters not in
// the class (punctuation, digits, embedded spaces) pass through unchanged.
//
// The scan is a two-state loop over runes: an unmatched '}' outside a span is
// copied as-is, an unterminated '{' masks through to the end of the sentence,
// and consecutive spans are independent. An empty class masks nothing, so the
// output equals the input.
func Term(sentence string, class WordClass, cache *Cache) string {
	re := cache.matcher(class)
	if re == nil {
		return sentence
	}

	var b strings.Builder
	b.Grow(len(sentence))
	masking := false
	for _, r := range sentence {
		switch {
		case r == '{':
			masking = true
			b.WriteRune(r)
		case r == '}':
			masking = false
			b.WriteRune(r)
		case masking && re.MatchString(string(r)):
			b.WriteRune(Bullet)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// EllipsisMarker replaces a whole {…} span in Bracketed.
const EllipsisMarker = "[...]"

var bracedSpan = regexp.MustCompile(`\{[^{}]*\}`)

// Bracketed replaces every {…} span, including empty ones, with the literal
// "[...]" marker. The span content is never inspected.
func Bracketed(sentence string) string {
	if !strings.Contains(sentence, "{") {
		return sentence
	}
	return bracedSpan.ReplaceAllString(sentence, EllipsisMarker)
}
