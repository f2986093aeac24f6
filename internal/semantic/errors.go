// Package semantic provides semantic analysis for rule-language programs.
//
// The analyzer performs:
//   - Name resolution: binding identifiers to their declarations
//   - Scope analysis: block scopes, function frames, foreach bindings
//   - Call graph analysis: inlined functions must not recurse
//   - Context validation: break/continue outside a loop, returns in rules
//
// Problems are reported as Diagnostics rather than aborting, so the
// compiler can still lower the rest of the program and degrade each
// offending construct to a no-op.
package semantic

import (
	"fmt"
	"strings"

	"github.com/ItsDeltin/Overwatch-Script-To-Workshop-sub001/internal/ast"
	"github.com/ItsDeltin/Overwatch-Script-To-Workshop-sub001/internal/token"
)

// Severity classifies a diagnostic.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
)

// String returns a human-readable name for the severity.
func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return "unknown"
	}
}

// Diagnostic is a problem found in the source.
type Diagnostic struct {
	Severity Severity
	Message  string
	Span     token.Span
}

// Error implements the error interface.
func (d *Diagnostic) Error() string {
	if d.Severity == SeverityWarning {
		return fmt.Sprintf("%s: warning: %s", d.Span.Start, d.Message)
	}
	return fmt.Sprintf("%s: %s", d.Span.Start, d.Message)
}

// Diagnostics is an ordered collection of diagnostics.
type Diagnostics []*Diagnostic

// Errorf appends an error-severity diagnostic covering node.
func (dl *Diagnostics) Errorf(node ast.Node, format string, args ...any) {
	dl.add(SeverityError, ast.SpanOf(node), format, args...)
}

// Warnf appends a warning covering node.
func (dl *Diagnostics) Warnf(node ast.Node, format string, args ...any) {
	dl.add(SeverityWarning, ast.SpanOf(node), format, args...)
}

func (dl *Diagnostics) add(sev Severity, span token.Span, format string, args ...any) {
	*dl = append(*dl, &Diagnostic{
		Severity: sev,
		Message:  fmt.Sprintf(format, args...),
		Span:     span,
	})
}

// HasErrors reports whether any diagnostic has error severity.
func (dl Diagnostics) HasErrors() bool {
	for _, d := range dl {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Errors returns only the error-severity diagnostics.
func (dl Diagnostics) Errors() Diagnostics {
	var out Diagnostics
	for _, d := range dl {
		if d.Severity == SeverityError {
			out = append(out, d)
		}
	}
	return out
}

// Err returns the error diagnostics as an error, or nil if there are none.
func (dl Diagnostics) Err() error {
	if errs := dl.Errors(); len(errs) > 0 {
		return errs
	}
	return nil
}

// Error implements the error interface for Diagnostics.
func (dl Diagnostics) Error() string {
	switch len(dl) {
	case 0:
		return "no errors"
	case 1:
		return dl[0].Error()
	default:
		var sb strings.Builder
		sb.WriteString(dl[0].Error())
		for _, d := range dl[1:] {
			sb.WriteByte('\n')
			sb.WriteString(d.Error())
		}
		return sb.String()
	}
}

// Common error messages as constants for consistency.
const (
	errBreakOutsideLoop    = "break statement must be inside a loop"
	errContinueOutsideLoop = "continue statement must be inside a loop"
	errIfWithoutCondition  = "if statement is missing its condition"
	errUndefined           = "undefined: %s"
	errUndefinedFunc       = "undefined function %q"
	errRedeclared          = "%s redeclared in this block"
	errDuplicateGlobal     = "global variable %q already declared"
	errDuplicateFunc       = "function %q already defined"
	errFuncShadowsBuiltin  = "function %q shadows a builtin"
	errTooManyArgs         = "too many arguments in call to %q"
	errNotEnoughArgs       = "not enough arguments in call to %q"
	errRecursive           = "recursive call to %q cannot be inlined"
	errAssignLoopVar       = "cannot assign to foreach element %q"
	errRuleReturnsValue    = "rule cannot return a value"
	errActionAsValue       = "%s() does not produce a value"
	errNotCallable         = "%q is a variable, not a function"
	errFuncAsValue         = "function %q used as a value"
)

// Common warning messages.
const (
	warnUnusedResult = "result of %s() is not used"
	warnUnusedVar    = "variable %q is declared but never used"
)
