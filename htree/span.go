package htree

// Span represents a source location of a token in the parsed text.
type Span struct {
	Offset int // Byte offset in the source
	Line   int // 1-based line number
	Column int // 1-based column number (in runes, not bytes)
	Length int // Length in bytes
}

// IsZero returns true if the span is uninitialized
func (s Span) IsZero() bool {
	return s.Offset == 0 && s.Line == 0 && s.Column == 0 && s.Length == 0
}

// End returns the end offset of the span
func (s Span) End() int {
	return s.Offset + s.Length
}

// lineTracker converts byte offsets into line/column pairs. Offsets must be
// requested in non-decreasing order.
type lineTracker struct {
	src    string
	off    int
	line   int
	column int
}

func newLineTracker(src string) *lineTracker {
	return &lineTracker{src: src, line: 1, column: 1}
}

// span returns the Span covering src[start:end].
func (t *lineTracker) span(start, end int) Span {
	for _, r := range t.src[t.off:start] {
		if r == '\n' {
			t.line++
			t.column = 1
		} else {
			t.column++
		}
	}
	t.off = start
	return Span{
		Offset: start,
		Line:   t.line,
		Column: t.column,
		Length: end - start,
	}
}
