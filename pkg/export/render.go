package export

import (
	"strconv"
	"strings"

	"github.com/mkallio/lexport/pkg/mask"
)

// Renderer expands a per-language export template against a Record.
//
// Templates hold two-character placeholder tokens: a '%' family substituted
// verbatim and a '$' family substituted HTML-escaped, plus the Anki cloze
// tokens $x and $y. After all placeholders are resolved, the escape
// sequences \t, \n, \r and %% are decoded. Unknown tokens stay literal so a
// stray '%' or '$' never corrupts a template.
type Renderer struct {
	// ClozeHint separates the term from the translation hint inside a $y
	// cloze deletion. Empty means Anki's native "::".
	ClozeHint string
}

// Render expands template against rec. An empty template renders to the
// empty string; a nil record renders as if every field were empty.
func (rn Renderer) Render(template string, rec *Record) string {
	if template == "" {
		return ""
	}
	if rec == nil {
		rec = &Record{}
	}

	rs := []rune(template)
	var b strings.Builder
	b.Grow(len(template))
	for i := 0; i < len(rs); i++ {
		r := rs[i]
		if (r != '%' && r != '$') || i+1 == len(rs) {
			b.WriteRune(r)
			continue
		}
		next := rs[i+1]
		if r == '%' && next == '%' {
			// Copied opaquely here so the trailing '%' cannot pair with the
			// following character; decoded to a literal '%' below.
			b.WriteString("%%")
			i++
			continue
		}
		if v, ok := rn.substitute(r, next, rec); ok {
			b.WriteString(v)
			i++
			continue
		}
		b.WriteRune(r)
	}
	return decodeEscapes.Replace(b.String())
}

var decodeEscapes = strings.NewReplacer(`\t`, "\t", `\n`, "\n", `\r`, "\r", "%%", "%")

var htmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")

var (
	stripBraces    = strings.NewReplacer("{", "", "}", "")
	bracketBraces  = strings.NewReplacer("{", "[", "}", "]")
	mirrorBrackets = strings.NewReplacer("[", "]", "]", "[")
)

func rtlSpan(s string) string {
	return `<span dir="rtl">` + s + `</span>`
}

// Value kinds decide RTL handling: term- and sentence-valued substitutions
// get the dir="rtl" span, bracket-bearing ones additionally have their
// brackets mirrored so they read correctly right to left.
const (
	fieldPlain = iota
	fieldTerm
	fieldSentence
	fieldSentenceBrackets
)

type fieldSpec struct {
	kind int
	get  func(*Record) string
}

// Shared suffix table for both families; the escape flag is threaded through
// substitute rather than duplicating the table per family.
var fields = map[rune]fieldSpec{
	'w': {fieldTerm, func(r *Record) string { return r.Text }},
	'k': {fieldTerm, func(r *Record) string { return r.TextLC }},
	't': {fieldPlain, func(r *Record) string { return r.Translation }},
	'r': {fieldPlain, func(r *Record) string { return r.Romanization }},
	'a': {fieldPlain, func(r *Record) string { return strconv.Itoa(r.Status) }},
	'z': {fieldPlain, func(r *Record) string { return r.Tags }},
	'l': {fieldPlain, func(r *Record) string { return r.Language }},
	'n': {fieldPlain, func(r *Record) string { return strconv.FormatInt(r.ID, 10) }},
	's': {fieldSentence, func(r *Record) string { return stripBraces.Replace(r.Sentence) }},
	// '%'-family only: masked views of the sentence.
	'c': {fieldSentenceBrackets, func(r *Record) string { return mask.Bracketed(r.Sentence) }},
	'd': {fieldSentenceBrackets, func(r *Record) string { return bracketBraces.Replace(r.Sentence) }},
}

func (rn Renderer) substitute(family, suffix rune, rec *Record) (string, bool) {
	escape := family == '$'

	switch suffix {
	case 'x', 'y':
		if !escape {
			return "", false
		}
		return rn.cloze(suffix, rec), true
	case 'c', 'd':
		if escape {
			return "", false
		}
	}

	f, ok := fields[suffix]
	if !ok {
		return "", false
	}
	v := f.get(rec)
	if escape {
		v = htmlEscaper.Replace(v)
	}
	if rec.RTL && f.kind != fieldPlain {
		if f.kind == fieldSentenceBrackets {
			v = mirrorBrackets.Replace(v)
		}
		v = rtlSpan(v)
	}
	return v, true
}

func (rn Renderer) cloze(suffix rune, rec *Record) string {
	term := htmlEscaper.Replace(rec.Text)
	if rec.RTL {
		term = rtlSpan(term)
	}
	if suffix == 'x' {
		return "{{c1::" + term + "}}"
	}
	hint := rn.ClozeHint
	if hint == "" {
		hint = "::"
	}
	return "{{c1::" + term + hint + htmlEscaper.Replace(rec.Translation) + "}}"
}
