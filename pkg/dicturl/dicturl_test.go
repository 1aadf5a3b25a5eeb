package dicturl

import (
	"bytes"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildTokenSubstitution(t *testing.T) {
	assert.Equal(t, "http://dict.com/hello+world", Build("http://dict.com/###", "hello world"))
	assert.Equal(t, "http://dict.com/?q=cat", Build("http://dict.com/?q=lwt_term", "cat"))
}

func TestBuildReplacesAllOccurrences(t *testing.T) {
	got := Build("http://d.com/###?fallback=###", "cat")
	assert.Equal(t, "http://d.com/cat?fallback=cat", got)
}

func TestBuildAppendsWithoutToken(t *testing.T) {
	assert.Equal(t, "http://dict.com/search?q=dog", Build("http://dict.com/search?q=", "dog"))
}

func TestBuildTrimsInputs(t *testing.T) {
	assert.Equal(t, "http://dict.com/dog", Build("  http://dict.com/###  ", " dog "))
}

func TestBuildEmptyTermEncodesAsPlus(t *testing.T) {
	assert.Equal(t, "http://dict.com/+", Build("http://dict.com/###", ""))
	assert.Equal(t, "http://dict.com/+", Build("http://dict.com/###", "   "))
}

func TestBuildFormEncoding(t *testing.T) {
	cases := map[string]string{
		"a&b":   "a%26b",
		"a/b":   "a%2Fb",
		"a+b":   "a%2Bb",
		"a#b":   "a%23b",
		"犬と猫":   "%E7%8A%AC%E3%81%A8%E7%8C%AB",
		"a b c": "a+b+c",
	}
	for term, want := range cases {
		assert.Equal(t, "http://d.com/"+want, Build("http://d.com/###", term), "term %q", term)
	}
}

func TestBuildLegacyEncodingMarker(t *testing.T) {
	var buf bytes.Buffer
	b := &Builder{Logger: log.New(&buf, "", 0)}

	got := b.Build("http://dict.com/###UTF-8###/entry", "hello world")
	assert.Equal(t, "http://dict.com/hello+world/entry", got)
	assert.Contains(t, buf.String(), "UTF-8")
}

func TestBuildLegacyMarkerWithoutLogger(t *testing.T) {
	got := Build("http://dict.com/###ISO-8859-1###", "café")
	assert.Equal(t, "http://dict.com/caf%C3%A9", got)
}
