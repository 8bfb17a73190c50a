package geminiservice

/* =================================================================================
					BALANCED OBJECT EXTRACTION
	Gemini's streaming endpoint delivers a JSON array of response objects
	whose chunk boundaries never line up with object boundaries. The scanner
	below recovers every complete top-level {...} span from the accumulated
	text and keeps the unconsumed remainder for the next pass.
=================================================================================*/

// scanState is the explicit cursor state of the object scanner. It is a plain
// value so a scan can stop at any byte and resume on the next Feed without
// re-reading anything.
type scanState struct {
	// depth is the current brace nesting level, quoted strings excluded.
	depth int

	// inString is true while the cursor is inside a quoted string.
	inString bool

	// escaped is true when the previous byte was an unescaped backslash,
	// making exactly the next byte literal.
	escaped bool

	// spanStart is the buffer index of the '{' that opened the current
	// top-level object, or -1 when no object is open.
	spanStart int

	// pos is the next buffer index to examine.
	pos int
}

// ObjectScanner accumulates streamed text and yields balanced top-level
// object spans. The buffer only ever holds text not yet consumed as a
// complete object; extracted spans are cut out of it.
type ObjectScanner struct {
	buf string
	st  scanState
}

// NewObjectScanner returns a scanner with an empty buffer.
func NewObjectScanner() *ObjectScanner {
	return &ObjectScanner{st: scanState{spanStart: -1}}
}

// Feed appends text and returns every complete top-level object span found
// so far, in order. A returned span is syntactically balanced but not
// guaranteed to be valid JSON; parse failures are the caller's to handle.
// Text outside any span (array brackets, separators, a trailing partial
// object) stays buffered for the next call. Single pass, O(n) in the text
// scanned: the cursor never revisits bytes it has already classified.
func (s *ObjectScanner) Feed(text string) []string {
	s.buf += text

	var objects []string
	b := s.buf
	st := s.st

	for st.pos < len(b) {
		c := b[st.pos]

		if st.escaped {
			st.escaped = false
			st.pos++
			continue
		}
		if st.inString {
			switch c {
			case '\\':
				st.escaped = true
			case '"':
				st.inString = false
			}
			st.pos++
			continue
		}

		switch c {
		case '"':
			st.inString = true
			st.pos++
		case '{':
			if st.depth == 0 {
				st.spanStart = st.pos
			}
			st.depth++
			st.pos++
		case '}':
			if st.depth == 0 {
				// Stray closer in leftover text; keep it as plain text.
				st.pos++
				continue
			}
			st.depth--
			if st.depth > 0 {
				st.pos++
				continue
			}
			// Depth 1 -> 0: the span is complete. Cut it out of the
			// buffer and resume at the cut point.
			objects = append(objects, b[st.spanStart:st.pos+1])
			b = b[:st.spanStart] + b[st.pos+1:]
			st.pos = st.spanStart
			st.spanStart = -1
		default:
			st.pos++
		}
	}

	s.buf = b
	s.st = st
	return objects
}

// Remainder exposes the unconsumed buffer, for logging at stream end.
func (s *ObjectScanner) Remainder() string {
	return s.buf
}
