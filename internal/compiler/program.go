package compiler

import (
	"fmt"
	"strings"

	"github.com/ItsDeltin/Overwatch-Script-To-Workshop-sub001/internal/isa"
)

// Program is the lowered form of a source file.
type Program struct {
	// Globals lists the global cells by index.
	Globals []string

	// Rules in source order.
	Rules []*Rule
}

// Rule is one lowered rule.
type Rule struct {
	Name         string
	Instructions []isa.Instruction

	// Cells names the rule's private cells by index. A reused cell is
	// listed under its last name.
	Cells []string
}

// Rule returns the first rule with the given name.
func (p *Program) Rule(name string) (*Rule, bool) {
	for _, r := range p.Rules {
		if r.Name == name {
			return r, true
		}
	}
	return nil, false
}

// Disassemble returns a human-readable listing of the program.
func (p *Program) Disassemble() string {
	var sb strings.Builder

	if len(p.Globals) > 0 {
		sb.WriteString("=== Globals ===\n")
		for i, name := range p.Globals {
			fmt.Fprintf(&sb, "  [%d] %s\n", i, name)
		}
		sb.WriteString("\n")
	}

	for i, r := range p.Rules {
		if i > 0 {
			sb.WriteString("\n")
		}
		r.disassemble(&sb)
	}
	return sb.String()
}

// Disassemble returns a listing of the rule.
func (r *Rule) Disassemble() string {
	var sb strings.Builder
	r.disassemble(&sb)
	return sb.String()
}

func (r *Rule) disassemble(sb *strings.Builder) {
	fmt.Fprintf(sb, "=== Rule %q ===\n", r.Name)
	for i, in := range r.Instructions {
		fmt.Fprintf(sb, "  %04d: %s\n", i, in)
	}
}

// Wire converts the program to its serializable form.
func (p *Program) Wire() (*isa.WireProgram, error) {
	w := &isa.WireProgram{Globals: p.Globals}
	for _, r := range p.Rules {
		wr := isa.WireRule{Name: r.Name, Cells: r.Cells}
		for i, in := range r.Instructions {
			wi, err := isa.ToWire(in)
			if err != nil {
				return nil, fmt.Errorf("rule %q instruction %d: %w", r.Name, i, err)
			}
			wr.Instructions = append(wr.Instructions, wi)
		}
		w.Rules = append(w.Rules, wr)
	}
	return w, nil
}

// FromWire rebuilds a program from its serialized form.
func FromWire(w *isa.WireProgram) (*Program, error) {
	p := &Program{Globals: w.Globals}
	for _, wr := range w.Rules {
		r := &Rule{Name: wr.Name, Cells: wr.Cells}
		for i, wi := range wr.Instructions {
			in, err := isa.FromWire(wi)
			if err != nil {
				return nil, fmt.Errorf("rule %q instruction %d: %w", wr.Name, i, err)
			}
			r.Instructions = append(r.Instructions, in)
		}
		p.Rules = append(p.Rules, r)
	}
	return p, nil
}
