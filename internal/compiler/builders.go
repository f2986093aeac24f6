package compiler

import (
	"github.com/ItsDeltin/Overwatch-Script-To-Workshop-sub001/internal/isa"
	"github.com/ItsDeltin/Overwatch-Script-To-Workshop-sub001/internal/storage"
	"github.com/ItsDeltin/Overwatch-Script-To-Workshop-sub001/internal/token"
)

// Unit is the lowering context of one rule. Every builder of the rule
// shares it; nothing in it is shared with other rules.
type Unit struct {
	Stream *Stream
	Header *RestartHeader
	Alloc  storage.Allocator
	Caps   Capabilities
}

// NewUnit returns a fresh context drawing cells from alloc.
func NewUnit(alloc storage.Allocator, caps Capabilities, minWait float64) *Unit {
	s := NewStream()
	return &Unit{
		Stream: s,
		Header: NewRestartHeader(s, alloc, minWait),
		Alloc:  alloc,
		Caps:   caps,
	}
}

type builderState uint8

const (
	stateCreated builderState = iota
	stateSetup
	stateFinished
)

var stateNames = [...]string{
	stateCreated:  "created",
	stateSetup:    "set up",
	stateFinished: "finished",
}

func (st builderState) String() string { return stateNames[st] }

// advance moves the builder from one state to the next.
func (st *builderState) advance(construct string, span token.Span, from, to builderState) {
	if *st != from {
		fail(construct, span, "cannot move to %s: builder is %s", to, *st)
	}
	*st = to
}

func (st builderState) expect(construct string, span token.Span, want builderState, op string) {
	if st != want {
		fail(construct, span, "%s called while builder is %s", op, st)
	}
}

// IfBuilder lowers if and if-else:
//
//	Skip If(!cond, then)    // guard
//	  then...
//	Skip(else)              // only with Else
//	  else...
type IfBuilder struct {
	unit  *Unit
	cond  isa.Value
	span  token.Span
	state builderState

	guard    *SkipStart
	skipElse *SkipStart
}

// NewIfBuilder returns a builder for an if with the given condition.
func NewIfBuilder(u *Unit, cond isa.Value, span token.Span) *IfBuilder {
	return &IfBuilder{unit: u, cond: cond, span: span}
}

// Setup emits the guard that skips the then branch.
func (b *IfBuilder) Setup() {
	b.state.advance("if", b.span, stateCreated, stateSetup)
	b.guard = b.unit.Stream.StartMarker(isa.Negate(b.cond), "if")
}

// Else ends the then branch and starts the else branch.
func (b *IfBuilder) Else() {
	b.state.expect("if", b.span, stateSetup, "Else")
	if b.skipElse != nil {
		fail("if", b.span, "Else called twice")
	}
	s := b.unit.Stream
	b.skipElse = s.StartMarker(nil, "else")
	s.Resolve(b.guard, s.EndMarker())
	b.guard = nil
}

// Finish places the end of the statement.
func (b *IfBuilder) Finish() {
	b.state.advance("if", b.span, stateSetup, stateFinished)
	s := b.unit.Stream
	end := s.EndMarker()
	if b.guard != nil {
		s.Resolve(b.guard, end)
	}
	if b.skipElse != nil {
		s.Resolve(b.skipElse, end)
	}
}

// WhileBuilder lowers a while loop. With the restart apparatus:
//
//	<loop start>
//	Skip If(!cond, exit)
//	  body...
//	Set Variable(skipCounter, <loop start>)
//	Loop;
//	Set Variable(skipCounter, 0)
//	<exit>
//
// With native loops and a condition that needs no setup instructions
// it emits While(cond) ... End instead.
type WhileBuilder struct {
	unit  *Unit
	cond  func() isa.Value
	span  token.Span
	state builderState

	native    bool
	loopStart *SkipEnd
	guard     *SkipStart
	flow      *FlowTracker
}

// NewWhileBuilder returns a builder for a while loop. cond is invoked
// once during Setup, after the loop start has been placed, so any
// instructions it emits are re-run on every iteration.
func NewWhileBuilder(u *Unit, cond func() isa.Value, span token.Span) *WhileBuilder {
	return &WhileBuilder{unit: u, cond: cond, span: span}
}

// Setup emits the loop start and the exit guard.
func (b *WhileBuilder) Setup() {
	b.state.advance("while", b.span, stateCreated, stateSetup)
	s := b.unit.Stream

	b.loopStart = s.EndMarker()
	before := s.Size()
	cond := b.cond()
	pure := s.Size() == before

	if b.unit.Caps.NativeLoops && pure {
		b.native = true
		s.Emit(isa.NewWhile(cond).WithComment("while"))
	} else {
		b.unit.Header.Setup()
		b.guard = s.StartMarker(isa.Negate(cond), "while: exit")
	}
	cont, brk := b.unit.Caps.strategies(b.native)
	b.flow = NewFlowTracker(s, cont, brk)
}

// Flow returns the loop's break/continue tracker.
func (b *WhileBuilder) Flow() *FlowTracker {
	if b.state == stateCreated {
		fail("while", b.span, "Flow called before Setup")
	}
	return b.flow
}

// Native reports whether the loop was lowered to While/End.
func (b *WhileBuilder) Native() bool {
	return b.native
}

// LoopStart returns the loop's recheck point.
func (b *WhileBuilder) LoopStart() *SkipEnd {
	return b.loopStart
}

// Finish emits the back edge and the loop exit.
func (b *WhileBuilder) Finish() {
	b.state.advance("while", b.span, stateSetup, stateFinished)
	s := b.unit.Stream

	if b.native {
		s.Emit(isa.NewEnd())
		return
	}
	h := b.unit.Header
	h.SetSkipCountTo(b.loopStart)
	s.Emit(isa.NewLoop().WithComment("while: repeat"))
	h.ResetSkipCount()
	s.Resolve(b.guard, s.EndMarker())
}

// ForeachBuilder lowers a foreach loop as a while loop over a hidden
// index cell:
//
//	Set Variable(index, 0)
//	while (index < CountOf(collection)) {
//	  body...
//	  Modify Variable(index, Add, 1)
//	}
type ForeachBuilder struct {
	*WhileBuilder
	collection isa.Value
	index      storage.Handle
}

// NewForeachBuilder returns a builder iterating over collection.
func NewForeachBuilder(u *Unit, collection isa.Value, span token.Span) *ForeachBuilder {
	b := &ForeachBuilder{collection: collection}
	b.WhileBuilder = NewWhileBuilder(u, func() isa.Value {
		return isa.Compare{
			Op:    isa.CmpLt,
			Left:  isa.Var{Cell: b.index},
			Right: isa.Call{Name: "CountOf", Args: []isa.Value{b.collection}},
		}
	}, span)
	return b
}

// Setup allocates the index, initializes it and sets up the loop.
func (b *ForeachBuilder) Setup() {
	b.state.expect("foreach", b.span, stateCreated, "Setup")
	b.index = b.unit.Alloc.Allocate("foreachIndex", false, true)
	b.unit.Stream.Emit(isa.NewSet(b.index, isa.Number(0)).WithComment("foreach"))
	b.WhileBuilder.Setup()
	// A native Continue would jump straight to the While and skip the
	// index increment emitted by Finish.
	b.flow.cont = Emulated
}

// Current returns the element at the current index.
func (b *ForeachBuilder) Current() isa.Value {
	b.state.expect("foreach", b.span, stateSetup, "Current")
	return isa.IndexOf{Array: b.collection, Index: isa.Var{Cell: b.index}}
}

// Index returns the hidden index cell.
func (b *ForeachBuilder) Index() storage.Handle {
	return b.index
}

// Finish advances the index, closes the loop and releases the index.
func (b *ForeachBuilder) Finish() {
	b.state.expect("foreach", b.span, stateSetup, "Finish")
	b.unit.Stream.Emit(isa.NewModify(b.index, isa.ModAdd, isa.Number(1)))
	b.WhileBuilder.Finish()
	b.unit.Alloc.Release(b.index)
}
