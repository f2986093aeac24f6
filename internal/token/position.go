package token

import "fmt"

// Position is a location in rule source. The zero Position is unknown.
type Position struct {
	Filename string
	Line     int // 1-based
	Column   int // 1-based byte column
	Offset   int // 0-based byte offset
}

func (p Position) String() string {
	if p.Filename != "" {
		return fmt.Sprintf("%s:%d:%d", p.Filename, p.Line, p.Column)
	}
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// IsValid reports whether p refers to real source.
func (p Position) IsValid() bool {
	return p.Line > 0
}

// Before orders positions by line, then column.
func (p Position) Before(other Position) bool {
	if p.Line != other.Line {
		return p.Line < other.Line
	}
	return p.Column < other.Column
}

// Span covers the source of one construct, from Start up to End.
// Diagnostics and lowering failures carry the span of the offending
// construct.
type Span struct {
	Start Position
	End   Position
}

// SpanOf builds a span from two positions.
func SpanOf(start, end Position) Span {
	return Span{Start: start, End: end}
}

// String renders the span as "line:col-col" when it stays on one line.
func (s Span) String() string {
	switch {
	case !s.Start.IsValid():
		return "<unknown>"
	case s.Start.Line == s.End.Line:
		return fmt.Sprintf("%s-%d", s.Start, s.End.Column)
	default:
		return fmt.Sprintf("%s-%s", s.Start, s.End)
	}
}
