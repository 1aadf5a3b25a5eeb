package export

import (
	"regexp"
	"strings"
)

// The whitespace set is deliberately narrow: the ASCII blank/control blanks
// plus NBSP. Zero-width space (U+200B) and other exotic Unicode spacing stay
// untouched so segmentation hints embedded in imported text survive export.
var whitespaceRun = regexp.MustCompile("[\t\n\v\f\r  ]+")

// NormalizeWhitespace collapses every run of whitespace characters to a
// single ASCII space and trims the ends. Idempotent and total.
func NormalizeWhitespace(s string) string {
	return strings.Trim(whitespaceRun.ReplaceAllString(s, " "), " ")
}
