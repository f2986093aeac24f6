package compiler

import "github.com/ItsDeltin/Overwatch-Script-To-Workshop-sub001/internal/isa"

// Capabilities describes which optional control-flow opcodes the
// target engine supports.
type Capabilities struct {
	// NativeLoops lowers while and foreach to While/End blocks when the
	// loop condition needs no setup instructions.
	NativeLoops bool `toml:"native_loops"`

	// NativeContinue and NativeBreak allow the Continue and Break opcodes
	// inside native loops.
	NativeContinue bool `toml:"native_continue"`
	NativeBreak    bool `toml:"native_break"`

	// ContinueWorkaround emulates continue with a skip even when the
	// engine has a native Continue. On the reference engine a native
	// Continue inside an if nested in a While resumes at the wrong
	// instruction.
	ContinueWorkaround bool `toml:"continue_workaround"`
}

// DefaultCapabilities matches the reference engine.
func DefaultCapabilities() Capabilities {
	return Capabilities{
		NativeContinue:     true,
		NativeBreak:        true,
		ContinueWorkaround: true,
	}
}

// Strategy selects how a loop exit is emitted.
type Strategy uint8

const (
	Emulated Strategy = iota // forward skip to a marker
	Native                   // Continue or Break opcode
)

func (s Strategy) String() string {
	if s == Native {
		return "native"
	}
	return "emulated"
}

// strategies picks the continue and break strategies for one loop.
// Native opcodes only make sense inside a native While block.
func (c Capabilities) strategies(nativeLoop bool) (cont, brk Strategy) {
	if !nativeLoop {
		return Emulated, Emulated
	}
	if c.NativeContinue && !c.ContinueWorkaround {
		cont = Native
	}
	if c.NativeBreak {
		brk = Native
	}
	return cont, brk
}

// FlowTracker collects the pending break and continue exits of one
// loop until the loop binds them to its resume points.
type FlowTracker struct {
	stream    *Stream
	cont, brk Strategy
	continues []*SkipStart
	breaks    []*SkipStart
}

// NewFlowTracker returns a tracker that emits into s.
func NewFlowTracker(s *Stream, cont, brk Strategy) *FlowTracker {
	return &FlowTracker{stream: s, cont: cont, brk: brk}
}

// Strategies returns the continue and break strategies.
func (f *FlowTracker) Strategies() (cont, brk Strategy) {
	return f.cont, f.brk
}

// AddContinue emits a continue.
func (f *FlowTracker) AddContinue(comment string) {
	if f.cont == Native {
		f.stream.Emit(isa.NewContinue().WithComment(comment))
		return
	}
	f.continues = append(f.continues, f.stream.StartMarker(nil, comment))
}

// AddBreak emits a break.
func (f *FlowTracker) AddBreak(comment string) {
	if f.brk == Native {
		f.stream.Emit(isa.NewBreak().WithComment(comment))
		return
	}
	f.breaks = append(f.breaks, f.stream.StartMarker(nil, comment))
}

// ContinueToHere places the loop's recheck point at the tail and
// resolves every pending continue against it. Call it right before the
// loop's back edge.
func (f *FlowTracker) ContinueToHere() {
	end := f.stream.EndMarker()
	for _, m := range f.continues {
		f.stream.Resolve(m, end)
	}
	f.continues = nil
}

// BreakToHere places the loop exit at the tail and resolves every
// pending break against it. Call it right after the loop.
func (f *FlowTracker) BreakToHere() {
	end := f.stream.EndMarker()
	for _, m := range f.breaks {
		f.stream.Resolve(m, end)
	}
	f.breaks = nil
}

// Pending returns the number of unresolved continue and break exits.
func (f *FlowTracker) Pending() (continues, breaks int) {
	return len(f.continues), len(f.breaks)
}
