package compiler

import (
	"github.com/ItsDeltin/Overwatch-Script-To-Workshop-sub001/internal/isa"
	"github.com/ItsDeltin/Overwatch-Script-To-Workshop-sub001/internal/token"
)

// Item is one entry of a Stream: an Instr, a *SkipStart or a *SkipEnd.
type Item interface {
	streamItem()
}

// Instr is a concrete instruction in a Stream.
type Instr isa.Instruction

func (Instr) streamItem()      {}
func (*SkipStart) streamItem() {}
func (*SkipEnd) streamItem()   {}

// Stream is the ordered, mutable instruction list of one rule.
// Positions are only assigned when the stream is finalized, so
// inserting at the front never invalidates a jump.
type Stream struct {
	items []Item
	span  token.Span
}

// NewStream returns an empty stream.
func NewStream() *Stream {
	return &Stream{}
}

// Append adds item at the tail.
func (s *Stream) Append(item Item) {
	s.adopt(item)
	s.items = append(s.items, item)
}

// Emit appends a concrete instruction.
func (s *Stream) Emit(in isa.Instruction) {
	s.items = append(s.items, Instr(in))
}

// InsertRange inserts items before position index.
func (s *Stream) InsertRange(index int, items ...Item) {
	if index < 0 || index > len(s.items) {
		fail("stream", s.span, "insert at %d outside stream of %d items", index, len(s.items))
	}
	for _, it := range items {
		s.adopt(it)
	}
	s.items = append(s.items[:index], append(append([]Item(nil), items...), s.items[index:]...)...)
}

func (s *Stream) adopt(item Item) {
	switch m := item.(type) {
	case *SkipStart:
		if m.stream != s {
			fail("stream", s.span, "skip %q belongs to another stream", m.Comment)
		}
	case *SkipEnd:
		if m.stream != s {
			fail("stream", s.span, "end marker belongs to another stream")
		}
	}
}

// SetSpan records the source range currently being lowered. Markers
// created afterwards report it in internal errors.
func (s *Stream) SetSpan(span token.Span) {
	s.span = span
}

// Items returns a copy of the stream contents, markers included.
func (s *Stream) Items() []Item {
	return append([]Item(nil), s.items...)
}

// Size returns the number of items, markers included.
func (s *Stream) Size() int {
	return len(s.items)
}

// Len returns the number of concrete instructions.
func (s *Stream) Len() int {
	n := 0
	for _, it := range s.items {
		if _, ok := it.(*SkipEnd); !ok {
			n++
		}
	}
	return n
}

func (s *Stream) indexOf(item Item) int {
	for i, it := range s.items {
		if it == item {
			return i
		}
	}
	return -1
}

// layout assigns final positions. A SkipEnd takes the position of the
// next concrete instruction.
func (s *Stream) layout() {
	pos := 0
	for _, it := range s.items {
		switch m := it.(type) {
		case *SkipEnd:
			m.pos = pos
		case *SkipStart:
			m.pos = pos
			pos++
		default:
			pos++
		}
	}
}

// Finalize flattens the stream into the rule's instruction list. Every
// SkipStart becomes a Skip or Skip If with its resolved count and every
// placeholder operand is resolved. An unresolved marker is an
// *InternalError.
func (s *Stream) Finalize() (out []isa.Instruction, err error) {
	defer recoverInternal(&err)

	s.layout()
	out = make([]isa.Instruction, 0, len(s.items))
	for _, it := range s.items {
		switch m := it.(type) {
		case Instr:
			out = append(out, resolvePlaceholders(isa.Instruction(m)))
		case *SkipStart:
			out = append(out, m.instruction())
		case *SkipEnd:
			// zero width
		}
	}
	return out, nil
}

func resolvePlaceholders(in isa.Instruction) isa.Instruction {
	var operands map[string]isa.Value
	for name, v := range in.Operands {
		if !isa.Contains(v, isa.IsPlaceholder) {
			continue
		}
		if operands == nil {
			operands = make(map[string]isa.Value, len(in.Operands))
			for k, w := range in.Operands {
				operands[k] = w
			}
		}
		operands[name] = isa.Transform(v, func(n isa.Value) isa.Value {
			if p, ok := n.(*isa.Placeholder); ok {
				return p.Resolve()
			}
			return n
		})
	}
	if operands != nil {
		in.Operands = operands
	}
	return in
}
