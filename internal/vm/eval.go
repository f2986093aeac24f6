package vm

import (
	"math"

	"github.com/ItsDeltin/Overwatch-Script-To-Workshop-sub001/internal/isa"
	"github.com/ItsDeltin/Overwatch-Script-To-Workshop-sub001/internal/types"
)

// eval computes an engine value tree.
func (vm *VM) eval(f *frame, v isa.Value) (types.Value, error) {
	switch v := v.(type) {
	case nil:
		return types.Null(), vm.errorf(f, "missing operand")
	case isa.Number:
		return types.Num(float64(v)), nil
	case isa.String:
		return types.Str(string(v)), nil
	case isa.Bool:
		return types.Bool(bool(v)), nil
	case isa.Null:
		return types.Null(), nil

	case isa.Var:
		cells := f.cells
		if v.Cell.Global {
			cells = vm.globals
		}
		if v.Cell.Index < 0 || v.Cell.Index >= len(cells) {
			return types.Null(), vm.errorf(f, "cell %s out of range", v.Cell)
		}
		return cells[v.Cell.Index], nil

	case isa.Not:
		x, err := vm.eval(f, v.X)
		if err != nil {
			return x, err
		}
		return types.Bool(!x.AsBool()), nil

	case isa.Binary:
		l, err := vm.eval(f, v.Left)
		if err != nil {
			return l, err
		}
		// And/Or short-circuit
		switch v.Op {
		case isa.OpAnd:
			if !l.AsBool() {
				return types.Bool(false), nil
			}
		case isa.OpOr:
			if l.AsBool() {
				return types.Bool(true), nil
			}
		}
		r, err := vm.eval(f, v.Right)
		if err != nil {
			return r, err
		}
		switch v.Op {
		case isa.OpAnd, isa.OpOr:
			return types.Bool(r.AsBool()), nil
		case isa.OpAdd:
			return add(l, r), nil
		}
		return arith(v.Op, l, r), nil

	case isa.Compare:
		l, err := vm.eval(f, v.Left)
		if err != nil {
			return l, err
		}
		r, err := vm.eval(f, v.Right)
		if err != nil {
			return r, err
		}
		return types.Bool(compare(v.Op, l, r)), nil

	case isa.IndexOf:
		arr, err := vm.eval(f, v.Array)
		if err != nil {
			return arr, err
		}
		idx, err := vm.eval(f, v.Index)
		if err != nil {
			return idx, err
		}
		return arr.Index(int(idx.AsNum())), nil

	case isa.Array:
		elems, err := vm.evalAll(f, v.Elems)
		if err != nil {
			return types.Null(), err
		}
		return types.Array(elems...), nil

	case isa.Call:
		args, err := vm.evalAll(f, v.Args)
		if err != nil {
			return types.Null(), err
		}
		return vm.call(f, v.Name, args)

	case *isa.Placeholder:
		return types.Null(), vm.errorf(f, "unresolved placeholder %s", v)
	}
	return types.Null(), vm.errorf(f, "unknown value %T", v)
}

func (vm *VM) evalAll(f *frame, vs []isa.Value) ([]types.Value, error) {
	out := make([]types.Value, len(vs))
	for i, a := range vs {
		v, err := vm.eval(f, a)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// add concatenates when either side is a string and sums otherwise.
func add(l, r types.Value) types.Value {
	if l.IsStr() || r.IsStr() {
		return types.Str(l.AsStr() + r.AsStr())
	}
	return types.Num(l.AsNum() + r.AsNum())
}

// arith applies a numeric operator. Division and modulo by zero yield
// zero, as the engine does.
func arith(op isa.BinOp, l, r types.Value) types.Value {
	a, b := l.AsNum(), r.AsNum()
	switch op {
	case isa.OpAdd:
		return types.Num(a + b)
	case isa.OpSub:
		return types.Num(a - b)
	case isa.OpMul:
		return types.Num(a * b)
	case isa.OpDiv:
		if b == 0 {
			return types.Num(0)
		}
		return types.Num(a / b)
	case isa.OpMod:
		if b == 0 {
			return types.Num(0)
		}
		return types.Num(math.Mod(a, b))
	case isa.OpPow:
		return types.Num(math.Pow(a, b))
	}
	return types.Null()
}

func compare(op isa.CmpOp, l, r types.Value) bool {
	switch op {
	case isa.CmpEq:
		return types.Equal(l, r)
	case isa.CmpNe:
		return !types.Equal(l, r)
	}
	c := types.Compare(l, r)
	switch op {
	case isa.CmpLt:
		return c < 0
	case isa.CmpLe:
		return c <= 0
	case isa.CmpGt:
		return c > 0
	case isa.CmpGe:
		return c >= 0
	}
	return false
}
