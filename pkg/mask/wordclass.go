package mask

import (
	"regexp"
	"sync"
)

// SegmenterSentinel is the word-characters setting value that language rows
// carry when term boundaries come from the built-in CJK segmenter instead of
// a literal character class.
const SegmenterSentinel = "mecab"

// segmenterClass covers CJK unified ideographs, hiragana, katakana, the
// prolonged sound mark and the common iteration/ka-size marks.
const segmenterClass = `一-龥ぁ-ゖァ-ヺー々〆ヵヶ`

// WordClass identifies which characters of a sentence count as part of a
// word. It is either an explicit regex character-class fragment (e.g.
// "a-zA-Z", "а-яА-Я") or the built-in segmenter range.
type WordClass struct {
	expr    string
	builtin bool
}

// Explicit returns a WordClass built from a regex character-class fragment.
// An empty fragment matches nothing.
func Explicit(expr string) WordClass { return WordClass{expr: expr} }

// BuiltinSegmenter returns the WordClass covering the built-in CJK/kana range.
func BuiltinSegmenter() WordClass { return WordClass{builtin: true} }

// ParseWordClass interprets a language's word-characters setting, mapping the
// segmenter sentinel to the built-in range.
func ParseWordClass(s string) WordClass {
	if s == SegmenterSentinel {
		return BuiltinSegmenter()
	}
	return Explicit(s)
}

// IsBuiltin reports whether the class is the built-in segmenter range.
func (c WordClass) IsBuiltin() bool { return c.builtin }

func (c WordClass) fragment() string {
	if c.builtin {
		return segmenterClass
	}
	return c.expr
}

// compile builds the single-character matcher for the class. An empty or
// invalid fragment yields nil, meaning "matches nothing".
func (c WordClass) compile() *regexp.Regexp {
	frag := c.fragment()
	if frag == "" {
		return nil
	}
	re, err := regexp.Compile("[" + frag + "]")
	if err != nil {
		return nil
	}
	return re
}

// Cache holds compiled word-class regexps keyed by class fragment. Export
// runs for the same language hit the same entry, so lookups are read-mostly;
// a zero Cache is ready to use and safe for concurrent callers. Callers that
// don't care about recompilation can pass a nil *Cache everywhere.
type Cache struct {
	mu sync.RWMutex
	re map[string]*regexp.Regexp
}

func (c *Cache) matcher(class WordClass) *regexp.Regexp {
	if c == nil {
		return class.compile()
	}
	key := class.fragment()

	c.mu.RLock()
	re, ok := c.re[key]
	c.mu.RUnlock()
	if ok {
		return re
	}

	re = class.compile()
	c.mu.Lock()
	if c.re == nil {
		c.re = make(map[string]*regexp.Regexp)
	}
	// A concurrent compile of the same key produces an identical regexp, so
	// last-write-wins is fine.
	c.re[key] = re
	c.mu.Unlock()
	return re
}
