package isa

import (
	"strconv"
	"strings"

	"github.com/ItsDeltin/Overwatch-Script-To-Workshop-sub001/internal/storage"
)

// Value is an expression tree evaluated by the target engine.
// The set of implementations is closed.
type Value interface {
	String() string
	value()
}

// BinOp is an arithmetic or logical operator.
type BinOp string

const (
	OpAdd BinOp = "+"
	OpSub BinOp = "-"
	OpMul BinOp = "*"
	OpDiv BinOp = "/"
	OpMod BinOp = "%"
	OpPow BinOp = "^"
	OpAnd BinOp = "&&"
	OpOr  BinOp = "||"
)

// CmpOp is a comparison operator.
type CmpOp string

const (
	CmpEq CmpOp = "=="
	CmpNe CmpOp = "!="
	CmpLt CmpOp = "<"
	CmpLe CmpOp = "<="
	CmpGt CmpOp = ">"
	CmpGe CmpOp = ">="
)

var inverse = map[CmpOp]CmpOp{
	CmpEq: CmpNe,
	CmpNe: CmpEq,
	CmpLt: CmpGe,
	CmpGe: CmpLt,
	CmpGt: CmpLe,
	CmpLe: CmpGt,
}

// Inverse returns the comparison that holds exactly when op does not.
func (op CmpOp) Inverse() CmpOp {
	return inverse[op]
}

type (
	// Number is a numeric constant.
	Number float64

	// String is a string constant.
	String string

	// Bool is a boolean constant.
	Bool bool

	// Null is the absent value.
	Null struct{}

	// Var reads a storage cell.
	Var struct {
		Cell storage.Handle
	}

	// Binary applies an arithmetic or logical operator.
	Binary struct {
		Op          BinOp
		Left, Right Value
	}

	// Compare applies a comparison operator.
	Compare struct {
		Op          CmpOp
		Left, Right Value
	}

	// Not is logical negation.
	Not struct {
		X Value
	}

	// IndexOf reads one element of an array.
	IndexOf struct {
		Array, Index Value
	}

	// Array builds an array.
	Array struct {
		Elems []Value
	}

	// Call invokes an engine-provided value function such as CountOf.
	Call struct {
		Name string
		Args []Value
	}

	// Placeholder stands for a value that is only known once the
	// instruction stream is complete. It must be resolved before the
	// stream is finalized.
	Placeholder struct {
		Label   string
		Resolve func() Value
	}
)

func (Number) value()       {}
func (String) value()       {}
func (Bool) value()         {}
func (Null) value()         {}
func (Var) value()          {}
func (Binary) value()       {}
func (Compare) value()      {}
func (Not) value()          {}
func (IndexOf) value()      {}
func (Array) value()        {}
func (Call) value()         {}
func (*Placeholder) value() {}

func (n Number) String() string { return strconv.FormatFloat(float64(n), 'g', -1, 64) }
func (s String) String() string { return strconv.Quote(string(s)) }
func (b Bool) String() string   { return strconv.FormatBool(bool(b)) }
func (Null) String() string     { return "null" }
func (v Var) String() string    { return v.Cell.String() }

func (b Binary) String() string {
	return operand(b.Left) + " " + string(b.Op) + " " + operand(b.Right)
}

func (c Compare) String() string {
	return operand(c.Left) + " " + string(c.Op) + " " + operand(c.Right)
}

func (n Not) String() string { return "!" + operand(n.X) }

func (ix IndexOf) String() string {
	return operand(ix.Array) + "[" + ix.Index.String() + "]"
}

func (a Array) String() string { return "[" + join(a.Elems) + "]" }

func (c Call) String() string { return c.Name + "(" + join(c.Args) + ")" }

func (p *Placeholder) String() string { return "<" + p.Label + ">" }

func operand(v Value) string {
	switch v.(type) {
	case Binary, Compare:
		return "(" + v.String() + ")"
	}
	return v.String()
}

func join(vs []Value) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = v.String()
	}
	return strings.Join(parts, ", ")
}

// Negate returns the logical inverse of v. Comparisons and constants
// are inverted in place; double negation is removed.
func Negate(v Value) Value {
	switch x := v.(type) {
	case Compare:
		return Compare{Op: x.Op.Inverse(), Left: x.Left, Right: x.Right}
	case Not:
		return x.X
	case Bool:
		return !x
	default:
		return Not{X: v}
	}
}

// Transform rebuilds v bottom-up, replacing every node with fn(node)
// after its children have been transformed.
func Transform(v Value, fn func(Value) Value) Value {
	switch x := v.(type) {
	case Binary:
		x.Left = Transform(x.Left, fn)
		x.Right = Transform(x.Right, fn)
		return fn(x)
	case Compare:
		x.Left = Transform(x.Left, fn)
		x.Right = Transform(x.Right, fn)
		return fn(x)
	case Not:
		x.X = Transform(x.X, fn)
		return fn(x)
	case IndexOf:
		x.Array = Transform(x.Array, fn)
		x.Index = Transform(x.Index, fn)
		return fn(x)
	case Array:
		x.Elems = transformAll(x.Elems, fn)
		return fn(x)
	case Call:
		x.Args = transformAll(x.Args, fn)
		return fn(x)
	case nil:
		return nil
	default:
		return fn(v)
	}
}

func transformAll(vs []Value, fn func(Value) Value) []Value {
	if vs == nil {
		return nil
	}
	out := make([]Value, len(vs))
	for i, v := range vs {
		out[i] = Transform(v, fn)
	}
	return out
}

// Contains reports whether pred holds for v or any value nested in it.
func Contains(v Value, pred func(Value) bool) bool {
	found := false
	Transform(v, func(n Value) Value {
		if pred(n) {
			found = true
		}
		return n
	})
	return found
}

// IsPlaceholder reports whether v is an unresolved placeholder.
func IsPlaceholder(v Value) bool {
	_, ok := v.(*Placeholder)
	return ok
}
