package compiler

import (
	"github.com/ItsDeltin/Overwatch-Script-To-Workshop-sub001/internal/isa"
	"github.com/ItsDeltin/Overwatch-Script-To-Workshop-sub001/internal/storage"
)

// RestartHeader turns the engine's whole-rule restart into a resume at
// an arbitrary position. Before restarting, a loop stores in the
// counter how far past the header execution should resume. The header
// at the top of the rule then skips that many instructions:
//
//	0: Wait(minWait);
//	1: Skip If(skipCounter == 0, 3);
//	2: Set Variable(skipCounterTemp, skipCounter);
//	3: Set Variable(skipCounter, 0);
//	4: Skip(skipCounterTemp);
//	   <header end>
//
// On a normal entry the counter is zero and the header falls through.
type RestartHeader struct {
	stream  *Stream
	alloc   storage.Allocator
	minWait float64

	ready   bool
	counter storage.Handle
	temp    storage.Handle
	skip    *SkipStart
	end     *SkipEnd
}

// NewRestartHeader returns a header for the rule that emits into s.
// Nothing is emitted until Setup.
func NewRestartHeader(s *Stream, alloc storage.Allocator, minWait float64) *RestartHeader {
	return &RestartHeader{stream: s, alloc: alloc, minWait: minWait}
}

// Setup inserts the header at the front of the rule. Later calls do
// nothing.
func (h *RestartHeader) Setup() {
	if h.ready {
		return
	}
	h.counter = h.alloc.Allocate("skipCounter", true, true)
	h.temp = h.alloc.Allocate("skipCounterTemp", true, true)

	h.skip = h.stream.newStart(isa.Compare{
		Op:    isa.CmpEq,
		Left:  isa.Var{Cell: h.counter},
		Right: isa.Number(0),
	}, "restart: not resuming")
	h.end = h.stream.newEnd()

	h.stream.InsertRange(0,
		Instr(isa.NewWait(isa.Number(h.minWait)).WithComment("restart: minimum wait")),
		h.skip,
		Instr(isa.NewSet(h.temp, isa.Var{Cell: h.counter})),
		Instr(isa.NewSet(h.counter, isa.Number(0))),
		Instr(isa.NewSkip(isa.Var{Cell: h.temp}).WithComment("restart: resume")),
		h.end,
	)
	h.stream.Resolve(h.skip, h.end)
	h.ready = true
}

// Ready reports whether Setup has run.
func (h *RestartHeader) Ready() bool {
	return h.ready
}

// Counter returns the cell holding the pending resume distance.
func (h *RestartHeader) Counter() storage.Handle {
	h.mustBeReady("Counter")
	return h.counter
}

// SetSkipCount stores n as the resume distance.
func (h *RestartHeader) SetSkipCount(n int) {
	h.mustBeReady("SetSkipCount")
	h.stream.Emit(isa.NewSet(h.counter, isa.Number(n)).WithComment("restart: resume distance"))
}

// SetSkipCountTo stores the distance from the header end to target as
// the resume distance.
func (h *RestartHeader) SetSkipCountTo(target *SkipEnd) {
	h.mustBeReady("SetSkipCountTo")
	h.stream.Emit(isa.NewSet(h.counter, h.SkipCount(target)).WithComment("restart: resume distance"))
}

// ResetSkipCount clears the resume distance so that a later normal entry
// into the rule does not skip.
func (h *RestartHeader) ResetSkipCount() {
	h.mustBeReady("ResetSkipCount")
	h.stream.Emit(isa.NewSet(h.counter, isa.Number(0)))
}

// SkipCount returns the distance from the header end to target. The
// value is a placeholder resolved when the stream is finalized.
func (h *RestartHeader) SkipCount(target *SkipEnd) isa.Value {
	h.mustBeReady("SkipCount")
	if target.stream != h.stream {
		fail("restart header", h.stream.span, "skip count requested for a foreign marker")
	}
	end := h.end
	return &isa.Placeholder{
		Label: "skip count",
		Resolve: func() isa.Value {
			n := target.pos - end.pos
			if n < 0 {
				fail("restart header", h.stream.span, "resume target lies inside the header")
			}
			return isa.Number(n)
		},
	}
}

func (h *RestartHeader) mustBeReady(op string) {
	if !h.ready {
		fail("restart header", h.stream.span, "%s called before Setup", op)
	}
}
