package ostw

import (
	"fmt"
)

// ParseError represents a syntax error in rule source code.
type ParseError struct {
	Line    int    // 1-based line number
	Column  int    // 1-based column number
	Decl    string // Enclosing rule or function, if any
	Message string // Error description
}

func (e *ParseError) Error() string {
	if e.Decl != "" {
		return fmt.Sprintf("parse error at %d:%d in %s: %s", e.Line, e.Column, e.Decl, e.Message)
	}
	return fmt.Sprintf("parse error at %d:%d: %s", e.Line, e.Column, e.Message)
}

// Diagnostic is a problem found by semantic analysis.
type Diagnostic struct {
	Line    int
	Column  int
	Message string
	Warning bool
}

func (d Diagnostic) String() string {
	if d.Warning {
		return fmt.Sprintf("%d:%d: warning: %s", d.Line, d.Column, d.Message)
	}
	return fmt.Sprintf("%d:%d: %s", d.Line, d.Column, d.Message)
}

// CompileError reports the error diagnostics of a program. The program
// returned alongside it is still complete: each construct a diagnostic
// names was lowered as a no-op.
type CompileError struct {
	Diagnostics []Diagnostic // error severity only
}

func (e *CompileError) Error() string {
	switch len(e.Diagnostics) {
	case 0:
		return "compile error"
	case 1:
		return fmt.Sprintf("compile error: %s", e.Diagnostics[0])
	default:
		return fmt.Sprintf("compile error: %s (and %d more errors)", e.Diagnostics[0], len(e.Diagnostics)-1)
	}
}

// RuntimeError represents an error raised by the engine simulator.
type RuntimeError struct {
	Rule    string // Rule that failed
	Message string // Error description
}

func (e *RuntimeError) Error() string {
	if e.Rule == "" {
		return fmt.Sprintf("runtime error: %s", e.Message)
	}
	return fmt.Sprintf("runtime error in rule %q: %s", e.Rule, e.Message)
}
