package segment

import (
	"strings"
	"testing"
)

func TestSplitSentences(t *testing.T) {
	got := SplitSentences("一文目。二文目！Third one. Fourth?")
	want := []string{"一文目。", "二文目！", "Third one.", " Fourth?"}
	if len(got) != len(want) {
		t.Fatalf("expected %d sentences, got %d: %q", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sentence %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestSplitSentencesKeepsTrailingFragment(t *testing.T) {
	got := SplitSentences("no terminator here")
	if len(got) != 1 || got[0] != "no terminator here" {
		t.Fatalf("expected single fragment, got %q", got)
	}
}

func TestStripRuby(t *testing.T) {
	in := []byte(`<ruby>漢字<rp>(</rp><rt>かんじ</rt><rp>)</rp></ruby>`)
	got := string(StripRuby(in))
	if strings.Contains(got, "かんじ") {
		t.Errorf("expected furigana removed, got %q", got)
	}
	if !strings.Contains(got, "漢字") {
		t.Errorf("expected base text kept, got %q", got)
	}
}

func TestTokens(t *testing.T) {
	seg, err := New()
	if err != nil {
		t.Fatalf("create segmenter: %v", err)
	}
	tokens, err := seg.Tokens("猫が好きです。")
	if err != nil {
		t.Fatalf("tokenize: %v", err)
	}
	if len(tokens) == 0 {
		t.Fatal("no tokens found")
	}
	found := false
	for _, tok := range tokens {
		if tok.Surface == "猫" {
			found = true
			if tok.PrimaryPOS == "" {
				t.Error("expected a primary POS for 猫")
			}
		}
	}
	if !found {
		t.Error("expected to find token 猫")
	}
}

func TestDocument(t *testing.T) {
	seg, err := New()
	if err != nil {
		t.Fatalf("create segmenter: %v", err)
	}
	sentences, err := seg.Document("犬がいる。猫もいる。")
	if err != nil {
		t.Fatalf("analyze document: %v", err)
	}
	if len(sentences) != 2 {
		t.Fatalf("expected 2 sentences, got %d", len(sentences))
	}
	for _, s := range sentences {
		if len(s.Tokens) == 0 {
			t.Errorf("sentence %q has no tokens", s.Text)
		}
	}
}
