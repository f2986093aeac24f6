// Package vm simulates the target engine. It executes finalized rules
// the way the engine does: a flat instruction list walked forward,
// with skips, whole-rule restarts, and native While blocks.
package vm

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/ItsDeltin/Overwatch-Script-To-Workshop-sub001/internal/compiler"
	"github.com/ItsDeltin/Overwatch-Script-To-Workshop-sub001/internal/isa"
	"github.com/ItsDeltin/Overwatch-Script-To-Workshop-sub001/internal/runtime"
	"github.com/ItsDeltin/Overwatch-Script-To-Workshop-sub001/internal/types"
)

// DefaultMaxSteps bounds the instructions a single rule may execute.
const DefaultMaxSteps = 1_000_000

// Config holds VM configuration options.
type Config struct {
	// MaxSteps is the per-rule instruction budget. Zero means
	// DefaultMaxSteps.
	MaxSteps int

	// Output receives Log actions. Nil means os.Stdout.
	Output io.Writer

	// Trace, when set, is called before every executed instruction.
	Trace func(Event)
}

// Event describes one executed instruction.
type Event struct {
	Rule  string
	Pos   int
	Instr isa.Instruction
	Clock float64 // virtual time in seconds
}

// RuntimeError is raised when a rule cannot continue.
type RuntimeError struct {
	Rule    string
	Pos     int
	Message string
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("rule %q at %d: %s", e.Rule, e.Pos, e.Message)
}

// VM runs the rules of one program against shared global cells.
type VM struct {
	program *compiler.Program
	config  Config

	globals []types.Value
	clock   float64

	regexCache *runtime.RegexCache
}

// New creates a VM for prog.
func New(prog *compiler.Program, config Config) *VM {
	if config.MaxSteps <= 0 {
		config.MaxSteps = DefaultMaxSteps
	}
	if config.Output == nil {
		config.Output = os.Stdout
	}
	return &VM{
		program:    prog,
		config:     config,
		globals:    make([]types.Value, len(prog.Globals)),
		regexCache: runtime.NewRegexCache(runtime.DefaultCacheSize),
	}
}

// Run executes every rule once, in program order.
func (vm *VM) Run() error {
	for _, r := range vm.program.Rules {
		if err := vm.RunRule(r); err != nil {
			return err
		}
	}
	return nil
}

// Global returns the current value of the named global cell.
func (vm *VM) Global(name string) (types.Value, bool) {
	for i, n := range vm.program.Globals {
		if n == name {
			return vm.globals[i], true
		}
	}
	return types.Null(), false
}

// SetGlobal assigns the named global cell.
func (vm *VM) SetGlobal(name string, v types.Value) bool {
	for i, n := range vm.program.Globals {
		if n == name {
			vm.globals[i] = v
			return true
		}
	}
	return false
}

// Clock returns the virtual time spent in Wait instructions.
func (vm *VM) Clock() float64 {
	return vm.clock
}

// frame is the state of one rule execution.
type frame struct {
	rule   *compiler.Rule
	cells  []types.Value
	blocks *blocks
	pc     int
	waited bool // a Wait ran since the last restart
}

// RunRule executes r until it falls off its end or aborts. Rule cells
// start out null on every run.
func (vm *VM) RunRule(r *compiler.Rule) error {
	b, err := matchBlocks(r.Instructions)
	if err != nil {
		return &RuntimeError{Rule: r.Name, Pos: err.pos, Message: err.msg}
	}
	f := &frame{
		rule:   r,
		cells:  make([]types.Value, len(r.Cells)),
		blocks: b,
	}

	code := r.Instructions
	for steps := 0; f.pc < len(code); steps++ {
		if steps >= vm.config.MaxSteps {
			return vm.errorf(f, "step limit of %d exceeded", vm.config.MaxSteps)
		}
		in := code[f.pc]
		if vm.config.Trace != nil {
			vm.config.Trace(Event{Rule: r.Name, Pos: f.pc, Instr: in, Clock: vm.clock})
		}

		done, err := vm.step(f, in)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
	return nil
}

// step executes one instruction and advances the program counter. It
// reports true when the rule aborted.
func (vm *VM) step(f *frame, in isa.Instruction) (bool, error) {
	switch in.Op {
	case isa.Wait:
		d, err := vm.eval(f, in.Operand(isa.Duration))
		if err != nil {
			return false, err
		}
		vm.clock += math.Max(d.AsNum(), 0)
		f.waited = true
		f.pc++

	case isa.Skip:
		n, err := vm.count(f, in)
		if err != nil {
			return false, err
		}
		f.pc += 1 + n

	case isa.SkipIf:
		cond, err := vm.eval(f, in.Operand(isa.Condition))
		if err != nil {
			return false, err
		}
		if !cond.AsBool() {
			f.pc++
			break
		}
		n, err := vm.count(f, in)
		if err != nil {
			return false, err
		}
		f.pc += 1 + n

	case isa.Loop:
		if !f.waited {
			return false, vm.errorf(f, "Loop without a Wait since the rule started")
		}
		f.waited = false
		f.pc = 0

	case isa.Abort:
		return true, nil

	case isa.SetVariable:
		v, err := vm.eval(f, in.Operand(isa.ValueArg))
		if err != nil {
			return false, err
		}
		if err := vm.store(f, in, v); err != nil {
			return false, err
		}
		f.pc++

	case isa.SetVariableAtIndex:
		idx, err := vm.eval(f, in.Operand(isa.Index))
		if err != nil {
			return false, err
		}
		v, err := vm.eval(f, in.Operand(isa.ValueArg))
		if err != nil {
			return false, err
		}
		cur, err := vm.load(f, in)
		if err != nil {
			return false, err
		}
		if err := vm.store(f, in, cur.SetIndex(int(idx.AsNum()), v)); err != nil {
			return false, err
		}
		f.pc++

	case isa.ModifyVariable:
		if err := vm.modify(f, in); err != nil {
			return false, err
		}
		f.pc++

	case isa.While:
		cond, err := vm.eval(f, in.Operand(isa.Condition))
		if err != nil {
			return false, err
		}
		if cond.AsBool() {
			f.pc++
		} else {
			f.pc = f.blocks.end[f.pc] + 1
		}

	case isa.End:
		f.pc = f.blocks.start[f.pc]

	case isa.Break:
		f.pc = f.blocks.end[f.blocks.owner[f.pc]] + 1

	case isa.Continue:
		f.pc = f.blocks.owner[f.pc]

	case isa.Action:
		if err := vm.action(f, in); err != nil {
			return false, err
		}
		f.pc++

	default:
		return false, vm.errorf(f, "unknown instruction %s", in.Op)
	}
	return false, nil
}

// count reads the Count operand of a skip. It must be a non-negative
// whole number.
func (vm *VM) count(f *frame, in isa.Instruction) (int, error) {
	v, err := vm.eval(f, in.Operand(isa.Count))
	if err != nil {
		return 0, err
	}
	n := v.AsNum()
	if n < 0 || n != math.Trunc(n) {
		return 0, vm.errorf(f, "invalid skip count %s", types.FormatNum(n))
	}
	return int(n), nil
}

func (vm *VM) cell(f *frame, in isa.Instruction) (*types.Value, error) {
	h, ok := in.Cell()
	if !ok {
		return nil, vm.errorf(f, "%s without a variable", in.Op)
	}
	cells := f.cells
	if h.Global {
		cells = vm.globals
	}
	if h.Index < 0 || h.Index >= len(cells) {
		return nil, vm.errorf(f, "cell %s out of range", h)
	}
	return &cells[h.Index], nil
}

func (vm *VM) load(f *frame, in isa.Instruction) (types.Value, error) {
	c, err := vm.cell(f, in)
	if err != nil {
		return types.Null(), err
	}
	return *c, nil
}

func (vm *VM) store(f *frame, in isa.Instruction, v types.Value) error {
	c, err := vm.cell(f, in)
	if err != nil {
		return err
	}
	*c = v
	return nil
}

func (vm *VM) modify(f *frame, in isa.Instruction) error {
	v, err := vm.eval(f, in.Operand(isa.ValueArg))
	if err != nil {
		return err
	}
	cur, err := vm.load(f, in)
	if err != nil {
		return err
	}
	op, _ := in.Operand(isa.Operator).(isa.String)

	var res types.Value
	switch isa.ModifyOp(op) {
	case isa.ModAdd:
		res = add(cur, v)
	case isa.ModSubtract:
		res = arith(isa.OpSub, cur, v)
	case isa.ModMultiply:
		res = arith(isa.OpMul, cur, v)
	case isa.ModDivide:
		res = arith(isa.OpDiv, cur, v)
	case isa.ModModulo:
		res = arith(isa.OpMod, cur, v)
	default:
		return vm.errorf(f, "unknown modify operator %q", string(op))
	}
	return vm.store(f, in, res)
}

func (vm *VM) action(f *frame, in isa.Instruction) error {
	name, _ := in.Operand(isa.Name).(isa.String)
	args, _ := in.Operand(isa.Arguments).(isa.Array)

	switch name {
	case "Log":
		parts := make([]string, len(args.Elems))
		for i, a := range args.Elems {
			v, err := vm.eval(f, a)
			if err != nil {
				return err
			}
			parts[i] = v.AsStr()
		}
		_, err := fmt.Fprintln(vm.config.Output, strings.Join(parts, " "))
		return err
	default:
		return vm.errorf(f, "unknown action %s", string(name))
	}
}

func (vm *VM) errorf(f *frame, format string, args ...any) error {
	return &RuntimeError{Rule: f.rule.Name, Pos: f.pc, Message: fmt.Sprintf(format, args...)}
}
