package geminiservice

import (
	"strings"
	"unicode/utf8"
)

// chunkDecoder turns the raw byte chunks of a streamed response into text.
// Chunk boundaries carry no meaning, so a multi-byte UTF-8 sequence can be
// split across two chunks; the decoder carries the incomplete tail over to
// the next Feed call and only ever emits whole runes.
type chunkDecoder struct {
	pending []byte
}

// Feed appends a raw chunk and returns every complete rune decoded so far.
func (d *chunkDecoder) Feed(chunk []byte) string {
	d.pending = append(d.pending, chunk...)

	// Walk forward to the last position that ends on a complete rune.
	validLen := 0
	for i := 0; i < len(d.pending); {
		r, size := utf8.DecodeRune(d.pending[i:])
		if r == utf8.RuneError && size == 1 {
			if len(d.pending)-i < utf8.UTFMax {
				// Possibly the start of a sequence whose tail has not
				// arrived yet; hold it back.
				break
			}
			// Four bytes available and still invalid: skip the byte.
			i++
			validLen = i
		} else {
			i += size
			validLen = i
		}
	}

	if validLen == 0 {
		return ""
	}
	out := string(d.pending[:validLen])
	d.pending = d.pending[validLen:]
	return out
}

// Finish flushes whatever is still buffered at end of stream. A sequence
// truncated by upstream termination decodes to replacement characters
// instead of failing the caller.
func (d *chunkDecoder) Finish() string {
	if len(d.pending) == 0 {
		return ""
	}
	out := strings.ToValidUTF8(string(d.pending), string(utf8.RuneError))
	d.pending = nil
	return out
}
