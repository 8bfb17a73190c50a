package geminiservice

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestChunkDecoderPassesASCIIThrough(t *testing.T) {
	var d chunkDecoder
	if got := d.Feed([]byte("hello")); got != "hello" {
		t.Errorf("Feed = %q, want %q", got, "hello")
	}
	if got := d.Finish(); got != "" {
		t.Errorf("Finish = %q, want empty", got)
	}
}

func TestChunkDecoderReassemblesSplitRune(t *testing.T) {
	// "héllo" with the two-byte é split across chunks.
	full := []byte("héllo")
	var d chunkDecoder

	first := d.Feed(full[:2]) // "h" + first byte of é
	if first != "h" {
		t.Fatalf("first Feed = %q, want %q", first, "h")
	}
	second := d.Feed(full[2:])
	if second != "éllo" {
		t.Fatalf("second Feed = %q, want %q", second, "éllo")
	}
}

func TestChunkDecoderSplitEverywhere(t *testing.T) {
	// Any split point of a multilingual string must decode to the same text.
	full := "weight 体重 ⚖️ żółć"
	for cut := 0; cut <= len(full); cut++ {
		var d chunkDecoder
		got := d.Feed([]byte(full[:cut])) + d.Feed([]byte(full[cut:])) + d.Finish()
		if got != full {
			t.Fatalf("split at %d: got %q, want %q", cut, got, full)
		}
	}
}

func TestChunkDecoderFinishReplacesTruncatedRune(t *testing.T) {
	// A stream that dies in the middle of a three-byte rune must flush as
	// replacement characters, not crash or emit invalid UTF-8.
	var d chunkDecoder
	e := []byte("€") // 3 bytes
	if got := d.Feed(e[:2]); got != "" {
		t.Fatalf("Feed of partial rune = %q, want empty", got)
	}
	out := d.Finish()
	if out == "" {
		t.Fatal("Finish returned nothing for pending bytes")
	}
	if !utf8.ValidString(out) {
		t.Fatalf("Finish returned invalid UTF-8: %q", out)
	}
	if !strings.Contains(out, string(utf8.RuneError)) {
		t.Fatalf("Finish = %q, want replacement character", out)
	}
}
