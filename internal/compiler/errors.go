package compiler

import (
	"fmt"

	"github.com/ItsDeltin/Overwatch-Script-To-Workshop-sub001/internal/token"
)

// InternalError reports a broken lowering invariant: a marker resolved
// twice, a builder finished before setup, and so on. It is never caused
// by the source program itself.
type InternalError struct {
	Construct string     // construct being lowered, e.g. "while"
	Span      token.Span // source range of the construct, if known
	Message   string
}

func (e *InternalError) Error() string {
	if e.Span.Start.IsValid() {
		return fmt.Sprintf("internal compiler error: %s at %s: %s", e.Construct, e.Span, e.Message)
	}
	return fmt.Sprintf("internal compiler error: %s: %s", e.Construct, e.Message)
}

// fail aborts lowering of the current rule. The panic is recovered by
// Stream.Finalize and Compile.
func fail(construct string, span token.Span, format string, args ...any) {
	panic(&InternalError{
		Construct: construct,
		Span:      span,
		Message:   fmt.Sprintf(format, args...),
	})
}

// recoverInternal converts a panicked *InternalError into *err.
// Any other panic is re-raised.
func recoverInternal(err *error) {
	if r := recover(); r != nil {
		if ie, ok := r.(*InternalError); ok {
			*err = ie
			return
		}
		panic(r)
	}
}
