package compiler

import (
	"github.com/ItsDeltin/Overwatch-Script-To-Workshop-sub001/internal/isa"
	"github.com/ItsDeltin/Overwatch-Script-To-Workshop-sub001/internal/token"
)

// SkipStart is a forward skip whose count is not known yet. It
// finalizes to Skip, or Skip If when Cond is set.
type SkipStart struct {
	Cond    isa.Value // nil for an unconditional skip
	Comment string

	stream *Stream
	span   token.Span
	end    *SkipEnd
	pos    int
}

// SkipEnd is a zero-width jump target. Any number of SkipStarts may
// resolve against one SkipEnd.
type SkipEnd struct {
	stream *Stream
	pos    int
}

// Resolved reports whether the skip has been bound to its target.
func (m *SkipStart) Resolved() bool {
	return m.end != nil
}

// Count returns the finalized skip distance. It is only meaningful
// after the owning stream has been finalized.
func (m *SkipStart) Count() int {
	return m.end.pos - (m.pos + 1)
}

func (m *SkipStart) instruction() isa.Instruction {
	if m.end == nil {
		fail("skip", m.span, "skip %q was never resolved", m.Comment)
	}
	n := m.Count()
	if n < 0 {
		fail("skip", m.span, "skip %q resolves backwards by %d", m.Comment, -n)
	}
	var in isa.Instruction
	if m.Cond == nil {
		in = isa.NewSkip(isa.Number(n))
	} else {
		in = isa.NewSkipIf(m.Cond, isa.Number(n))
	}
	return resolvePlaceholders(in.WithComment(m.Comment))
}

// Pos returns the finalized position of the target.
func (m *SkipEnd) Pos() int {
	return m.pos
}

func (s *Stream) newStart(cond isa.Value, comment string) *SkipStart {
	return &SkipStart{Cond: cond, Comment: comment, stream: s, span: s.span}
}

func (s *Stream) newEnd() *SkipEnd {
	return &SkipEnd{stream: s}
}

// StartMarker appends a pending skip. A nil cond makes it unconditional.
func (s *Stream) StartMarker(cond isa.Value, comment string) *SkipStart {
	m := s.newStart(cond, comment)
	s.Append(m)
	return m
}

// EndMarker appends a jump target at the current tail.
func (s *Stream) EndMarker() *SkipEnd {
	m := s.newEnd()
	s.Append(m)
	return m
}

// Resolve binds start to end. The distance itself is computed when the
// stream is finalized. Binding twice, binding a marker from another
// stream, or binding to a target before the skip is an *InternalError.
func (s *Stream) Resolve(start *SkipStart, end *SkipEnd) {
	if start.stream != s || end.stream != s {
		fail("skip", start.span, "skip %q resolved against a foreign stream", start.Comment)
	}
	if start.end != nil {
		fail("skip", start.span, "skip %q resolved twice", start.Comment)
	}
	i, j := s.indexOf(start), s.indexOf(end)
	if i < 0 || j < 0 {
		fail("skip", start.span, "skip %q resolved before both markers were placed", start.Comment)
	}
	if j < i {
		fail("skip", start.span, "skip %q targets an earlier position", start.Comment)
	}
	start.end = end
}
