package ostw

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/ItsDeltin/Overwatch-Script-To-Workshop-sub001/internal/compiler"
	"github.com/ItsDeltin/Overwatch-Script-To-Workshop-sub001/internal/isa"
	"github.com/ItsDeltin/Overwatch-Script-To-Workshop-sub001/internal/vm"
)

// Output formats accepted by Encode and Decode.
const (
	FormatText = "text"
	FormatCBOR = string(isa.FormatCBOR)
	FormatYAML = string(isa.FormatYAML)
)

// Program is a compiled rule script. It is immutable and safe for
// concurrent use; each call to Run gets its own simulator.
type Program struct {
	compiled *compiler.Program
	source   string
	diags    []Diagnostic
}

// Rules returns the names of the compiled rules in source order.
func (p *Program) Rules() []string {
	names := make([]string, len(p.compiled.Rules))
	for i, r := range p.compiled.Rules {
		names[i] = r.Name
	}
	return names
}

// Listing returns the instructions of the first rule with the given
// name, one per line.
func (p *Program) Listing(rule string) ([]string, bool) {
	r, ok := p.compiled.Rule(rule)
	if !ok {
		return nil, false
	}
	lines := make([]string, len(r.Instructions))
	for i, in := range r.Instructions {
		lines[i] = in.String()
	}
	return lines, true
}

// Disassemble returns a human-readable listing of every rule.
func (p *Program) Disassemble() string {
	return p.compiled.Disassemble()
}

// Diagnostics returns every diagnostic of semantic analysis, warnings
// included.
func (p *Program) Diagnostics() []Diagnostic {
	return append([]Diagnostic(nil), p.diags...)
}

// Source returns the original source code. Decoded programs have none.
func (p *Program) Source() string {
	return p.source
}

// Run executes every rule once, in order, against fresh global cells.
//
// If config is nil, default configuration is used.
// If config.Output is set, output is written there and the returned
// string will be empty.
func (p *Program) Run(config *Config) (string, error) {
	if config == nil {
		config = DefaultConfig()
	}

	var outputBuf *bytes.Buffer
	out := config.Output
	if out == nil {
		outputBuf = &bytes.Buffer{}
		out = outputBuf
	}

	machine := vm.New(p.compiled, vm.Config{MaxSteps: config.MaxSteps, Output: out})
	if err := machine.Run(); err != nil {
		var rerr *vm.RuntimeError
		if errors.As(err, &rerr) {
			return "", &RuntimeError{Rule: rerr.Rule, Message: fmt.Sprintf("at %d: %s", rerr.Pos, rerr.Message)}
		}
		return "", &RuntimeError{Message: err.Error()}
	}

	if outputBuf != nil {
		return outputBuf.String(), nil
	}
	return "", nil
}

// Encode writes the program to w as a listing (FormatText) or in a
// binary form (FormatCBOR, FormatYAML) that Decode can read back.
func (p *Program) Encode(w io.Writer, format string) error {
	if format == FormatText {
		_, err := io.WriteString(w, p.Disassemble())
		return err
	}
	f, err := isa.ParseFormat(format)
	if err != nil {
		return err
	}
	wire, err := p.compiled.Wire()
	if err != nil {
		return err
	}
	return isa.Encode(w, f, wire)
}

// Decode reads a program written by Encode in FormatCBOR or FormatYAML.
func Decode(r io.Reader, format string) (*Program, error) {
	f, err := isa.ParseFormat(format)
	if err != nil {
		return nil, err
	}
	wire, err := isa.Decode(r, f)
	if err != nil {
		return nil, err
	}
	compiled, err := compiler.FromWire(wire)
	if err != nil {
		return nil, err
	}
	return &Program{compiled: compiled}, nil
}
