package ostw

import (
	"errors"
	"fmt"

	"github.com/ItsDeltin/Overwatch-Script-To-Workshop-sub001/internal/compiler"
	"github.com/ItsDeltin/Overwatch-Script-To-Workshop-sub001/internal/parser"
	"github.com/ItsDeltin/Overwatch-Script-To-Workshop-sub001/internal/semantic"
)

// Version is the ostw version string.
const Version = "0.1.0"

// Compile parses, analyzes and lowers a rule script.
//
// When analysis reports errors, Compile returns the lowered program
// together with a *CompileError: every offending construct becomes a
// no-op and the rest of the program is still usable. A *ParseError
// returns no program.
//
// Example:
//
//	prog, err := ostw.Compile(src, nil)
//	var cerr *ostw.CompileError
//	if errors.As(err, &cerr) {
//	    for _, d := range cerr.Diagnostics {
//	        fmt.Println(d)
//	    }
//	}
func Compile(src string, config *Config) (*Program, error) {
	if config == nil {
		config = DefaultConfig()
	}
	config.applyDefaults()

	astProg, err := parser.Parse(src)
	if err != nil {
		return nil, convertParseError(err)
	}

	res, semErr := semantic.Analyze(astProg)

	opts, err := config.options()
	if err != nil {
		return nil, err
	}
	compiled, err := compiler.Compile(astProg, res, opts)
	if err != nil {
		return nil, fmt.Errorf("ostw: %w", err)
	}

	prog := &Program{
		compiled: compiled,
		source:   src,
		diags:    convertDiagnostics(res.Diagnostics),
	}
	if semErr != nil {
		cerr := &CompileError{}
		for _, d := range prog.diags {
			if !d.Warning {
				cerr.Diagnostics = append(cerr.Diagnostics, d)
			}
		}
		return prog, cerr
	}
	return prog, nil
}

// Run compiles src and executes every rule once in the engine
// simulator. Programs with compile errors are not run.
//
// Example:
//
//	output, err := ostw.Run(`rule "hello" { log("hi"); }`, nil)
//	// output: "hi\n"
func Run(src string, config *Config) (string, error) {
	prog, err := Compile(src, config)
	if err != nil {
		return "", err
	}
	return prog.Run(config)
}

// MustCompile is like Compile but panics on any error.
func MustCompile(src string) *Program {
	prog, err := Compile(src, nil)
	if err != nil {
		panic(err)
	}
	return prog
}

func convertParseError(err error) *ParseError {
	var pe *parser.ParseError
	if errors.As(err, &pe) {
		return &ParseError{Line: pe.Pos.Line, Column: pe.Pos.Column, Decl: pe.Decl, Message: pe.Message}
	}
	var el parser.ErrorList
	if errors.As(err, &el) && len(el) > 0 {
		return &ParseError{Line: el[0].Pos.Line, Column: el[0].Pos.Column, Decl: el[0].Decl, Message: el[0].Message}
	}
	return &ParseError{Message: err.Error()}
}

func convertDiagnostics(ds semantic.Diagnostics) []Diagnostic {
	out := make([]Diagnostic, 0, len(ds))
	for _, d := range ds {
		out = append(out, Diagnostic{
			Line:    d.Span.Start.Line,
			Column:  d.Span.Start.Column,
			Message: d.Message,
			Warning: d.Severity == semantic.SeverityWarning,
		})
	}
	return out
}
