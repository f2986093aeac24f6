// Package isa defines the flat instruction set executed by the target
// engine. The engine has no jumps: control flow is expressed with
// forward skips, an unconditional whole-rule restart, and optionally
// native While/End blocks.
package isa

import (
	"fmt"
	"strings"

	"github.com/ItsDeltin/Overwatch-Script-To-Workshop-sub001/internal/storage"
)

// Opcode identifies an instruction.
type Opcode uint8

const (
	Wait Opcode = iota + 1
	Skip
	SkipIf
	Loop
	Abort
	SetVariable
	SetVariableAtIndex
	ModifyVariable
	While
	End
	Break
	Continue
	Action
)

var opcodeNames = [...]string{
	Wait:               "Wait",
	Skip:               "Skip",
	SkipIf:             "Skip If",
	Loop:               "Loop",
	Abort:              "Abort",
	SetVariable:        "Set Variable",
	SetVariableAtIndex: "Set Variable At Index",
	ModifyVariable:     "Modify Variable",
	While:              "While",
	End:                "End",
	Break:              "Break",
	Continue:           "Continue",
	Action:             "Action",
}

// String returns the display name of the opcode.
func (op Opcode) String() string {
	if int(op) < len(opcodeNames) && opcodeNames[op] != "" {
		return opcodeNames[op]
	}
	return fmt.Sprintf("Opcode(%d)", uint8(op))
}

// ParseOpcode is the inverse of Opcode.String.
func ParseOpcode(name string) (Opcode, bool) {
	for op, n := range opcodeNames {
		if n != "" && n == name {
			return Opcode(op), true
		}
	}
	return 0, false
}

// Operand names.
const (
	Duration  = "Duration"
	Count     = "Count"
	Condition = "Condition"
	Variable  = "Variable"
	Index     = "Index"
	ValueArg  = "Value"
	Operator  = "Operator"
	Name      = "Name"
	Arguments = "Arguments"
)

// signatures lists the operands of each opcode in display order.
var signatures = map[Opcode][]string{
	Wait:               {Duration},
	Skip:               {Count},
	SkipIf:             {Condition, Count},
	SetVariable:        {Variable, ValueArg},
	SetVariableAtIndex: {Variable, Index, ValueArg},
	ModifyVariable:     {Variable, Operator, ValueArg},
	While:              {Condition},
}

// Signature returns the operand names of op in display order.
func Signature(op Opcode) []string {
	return signatures[op]
}

// ModifyOp names the operation applied by ModifyVariable.
type ModifyOp string

const (
	ModAdd      ModifyOp = "Add"
	ModSubtract ModifyOp = "Subtract"
	ModMultiply ModifyOp = "Multiply"
	ModDivide   ModifyOp = "Divide"
	ModModulo   ModifyOp = "Modulo"
)

// Instruction is one entry of a finalized rule. Its position is its
// index in the rule's instruction slice.
type Instruction struct {
	Op       Opcode
	Operands map[string]Value
	Comment  string
}

// Operand returns the named operand, or nil if it is absent.
func (in Instruction) Operand(name string) Value {
	return in.Operands[name]
}

// Cell returns the storage handle of the Variable operand.
func (in Instruction) Cell() (storage.Handle, bool) {
	v, ok := in.Operands[Variable].(Var)
	return v.Cell, ok
}

// String renders the instruction in listing form, e.g.
// "Skip If(counter == 0, 3);".
func (in Instruction) String() string {
	var sb strings.Builder
	if in.Op == Action {
		name, _ := in.Operands[Name].(String)
		sb.WriteString(string(name))
		sb.WriteByte('(')
		if args, ok := in.Operands[Arguments].(Array); ok {
			sb.WriteString(join(args.Elems))
		}
		sb.WriteByte(')')
	} else {
		sb.WriteString(in.Op.String())
		if sig := signatures[in.Op]; len(sig) > 0 {
			parts := make([]string, len(sig))
			for i, name := range sig {
				v := in.Operands[name]
				switch {
				case v == nil:
					parts[i] = "?"
				case name == Operator:
					s, _ := v.(String)
					parts[i] = string(s)
				default:
					parts[i] = v.String()
				}
			}
			sb.WriteByte('(')
			sb.WriteString(strings.Join(parts, ", "))
			sb.WriteByte(')')
		}
	}
	sb.WriteByte(';')
	if in.Comment != "" {
		sb.WriteString(" // ")
		sb.WriteString(in.Comment)
	}
	return sb.String()
}

// Constructors

func NewWait(d Value) Instruction {
	return Instruction{Op: Wait, Operands: map[string]Value{Duration: d}}
}

func NewSkip(count Value) Instruction {
	return Instruction{Op: Skip, Operands: map[string]Value{Count: count}}
}

func NewSkipIf(cond, count Value) Instruction {
	return Instruction{Op: SkipIf, Operands: map[string]Value{Condition: cond, Count: count}}
}

func NewLoop() Instruction  { return Instruction{Op: Loop} }
func NewAbort() Instruction { return Instruction{Op: Abort} }

func NewSet(cell storage.Handle, v Value) Instruction {
	return Instruction{Op: SetVariable, Operands: map[string]Value{Variable: Var{Cell: cell}, ValueArg: v}}
}

func NewSetAt(cell storage.Handle, index, v Value) Instruction {
	return Instruction{Op: SetVariableAtIndex, Operands: map[string]Value{
		Variable: Var{Cell: cell},
		Index:    index,
		ValueArg: v,
	}}
}

func NewModify(cell storage.Handle, op ModifyOp, v Value) Instruction {
	return Instruction{Op: ModifyVariable, Operands: map[string]Value{
		Variable: Var{Cell: cell},
		Operator: String(op),
		ValueArg: v,
	}}
}

func NewWhile(cond Value) Instruction {
	return Instruction{Op: While, Operands: map[string]Value{Condition: cond}}
}

func NewEnd() Instruction      { return Instruction{Op: End} }
func NewBreak() Instruction    { return Instruction{Op: Break} }
func NewContinue() Instruction { return Instruction{Op: Continue} }

// NewAction builds an engine action call such as Log.
func NewAction(name string, args ...Value) Instruction {
	if args == nil {
		args = []Value{}
	}
	return Instruction{Op: Action, Operands: map[string]Value{
		Name:      String(name),
		Arguments: Array{Elems: args},
	}}
}

// WithComment returns a copy of in carrying comment.
func (in Instruction) WithComment(comment string) Instruction {
	in.Comment = comment
	return in
}
