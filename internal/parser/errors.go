// Package parser provides a recursive descent parser for the rule language.
package parser

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ItsDeltin/Overwatch-Script-To-Workshop-sub001/internal/token"
)

// ParseError is a syntax error with its source position and, when it
// occurred inside one, the enclosing rule or function.
type ParseError struct {
	Pos     token.Position
	Decl    string // e.g. `rule "spawn"` or `function clamp`; empty at top level
	Message string
	Got     string // offending token, if any
	Want    string // expected token or construct, if any
}

func (e *ParseError) Error() string {
	var sb strings.Builder
	if e.Pos.IsValid() {
		sb.WriteString(e.Pos.String())
		sb.WriteString(": ")
	}
	if e.Decl != "" {
		sb.WriteString("in ")
		sb.WriteString(e.Decl)
		sb.WriteString(": ")
	}
	sb.WriteString(e.Message)
	return sb.String()
}

// ErrorList is the set of errors from one parse, in source order.
type ErrorList []*ParseError

func (el ErrorList) Error() string {
	switch len(el) {
	case 0:
		return "no errors"
	case 1:
		return el[0].Error()
	default:
		return fmt.Sprintf("%s (and %d more errors)", el[0].Error(), len(el)-1)
	}
}

// Decls returns the declarations that contain errors, each once, in
// the order they first appear.
func (el ErrorList) Decls() []string {
	var out []string
	seen := make(map[string]bool)
	for _, e := range el {
		if e.Decl != "" && !seen[e.Decl] {
			seen[e.Decl] = true
			out = append(out, e.Decl)
		}
	}
	return out
}

// Err returns the list as an error sorted by position, or nil if it is
// empty.
func (el ErrorList) Err() error {
	if len(el) == 0 {
		return nil
	}
	sort.SliceStable(el, func(i, j int) bool { return el[i].Pos.Before(el[j].Pos) })
	return el
}

func errorf(pos token.Position, format string, args ...any) *ParseError {
	return &ParseError{Pos: pos, Message: fmt.Sprintf(format, args...)}
}

func expectedError(pos token.Position, want, got string) *ParseError {
	return &ParseError{
		Pos:     pos,
		Message: fmt.Sprintf("expected %s, got %s", want, got),
		Want:    want,
		Got:     got,
	}
}
