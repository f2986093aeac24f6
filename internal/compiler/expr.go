package compiler

import (
	"github.com/ItsDeltin/Overwatch-Script-To-Workshop-sub001/internal/ast"
	"github.com/ItsDeltin/Overwatch-Script-To-Workshop-sub001/internal/isa"
	"github.com/ItsDeltin/Overwatch-Script-To-Workshop-sub001/internal/semantic"
	"github.com/ItsDeltin/Overwatch-Script-To-Workshop-sub001/internal/token"
)

var binaryOps = map[token.Token]isa.BinOp{
	token.ADD: isa.OpAdd,
	token.SUB: isa.OpSub,
	token.MUL: isa.OpMul,
	token.DIV: isa.OpDiv,
	token.MOD: isa.OpMod,
	token.POW: isa.OpPow,
	token.AND: isa.OpAnd,
	token.OR:  isa.OpOr,
}

var compareOps = map[token.Token]isa.CmpOp{
	token.EQUALS:     isa.CmpEq,
	token.NOT_EQUALS: isa.CmpNe,
	token.LESS:       isa.CmpLt,
	token.LTE:        isa.CmpLe,
	token.GREATER:    isa.CmpGt,
	token.GTE:        isa.CmpGe,
}

// engineFuncs maps builtin value functions to engine value names.
var engineFuncs = map[string]string{
	"count":   "CountOf",
	"abs":     "AbsoluteValue",
	"min":     "Min",
	"max":     "Max",
	"round":   "Round",
	"floor":   "Floor",
	"ceil":    "Ceil",
	"sqrt":    "SquareRoot",
	"str":     "String",
	"append":  "Append",
	"matches": "Matches",
}

// expr lowers an expression to an engine value. Only calls to user
// functions emit instructions. Expressions rejected by analysis lower
// to null.
func (c *ruleCompiler) expr(e ast.Expr) isa.Value {
	if e == nil || c.res.Invalid(e) {
		return isa.Null{}
	}

	switch e := e.(type) {
	case *ast.NumLit:
		return isa.Number(e.Value)
	case *ast.StrLit:
		return isa.String(e.Value)
	case *ast.BoolLit:
		return isa.Bool(e.Value)
	case *ast.NullLit:
		return isa.Null{}
	case *ast.ArrayLit:
		elems := c.exprs(e.Elems)
		if elems == nil {
			elems = []isa.Value{}
		}
		return isa.Array{Elems: elems}

	case *ast.Ident:
		return c.ident(e)

	case *ast.IndexExpr:
		return isa.IndexOf{Array: c.expr(e.Array), Index: c.expr(e.Index)}

	case *ast.GroupExpr:
		return c.expr(e.Expr)

	case *ast.UnaryExpr:
		x := c.expr(e.Expr)
		if e.Op == token.NOT {
			return isa.Negate(x)
		}
		if n, ok := x.(isa.Number); ok {
			return -n
		}
		return isa.Binary{Op: isa.OpSub, Left: isa.Number(0), Right: x}

	case *ast.BinaryExpr:
		left := c.expr(e.Left)
		right := c.expr(e.Right)
		if op, ok := compareOps[e.Op]; ok {
			return isa.Compare{Op: op, Left: left, Right: right}
		}
		if op, ok := binaryOps[e.Op]; ok {
			return isa.Binary{Op: op, Left: left, Right: right}
		}
		fail("expression", ast.SpanOf(e), "unexpected operator %s", e.Op)

	case *ast.CallExpr:
		return c.call(e)
	}

	fail("expression", ast.SpanOf(e), "unexpected %T", e)
	return nil
}

func (c *ruleCompiler) exprs(list []ast.Expr) []isa.Value {
	if len(list) == 0 {
		return nil
	}
	out := make([]isa.Value, len(list))
	for i, e := range list {
		out[i] = c.expr(e)
	}
	return out
}

func (c *ruleCompiler) ident(id *ast.Ident) isa.Value {
	sym, ok := c.res.SymbolOf(id)
	if !ok {
		return isa.Null{}
	}
	if sym.Kind == semantic.SymbolGlobal {
		return isa.Var{Cell: c.pool.Global(sym.Name)}
	}
	b, ok := c.lookup(sym)
	if !ok {
		fail("identifier", ast.SpanOf(id), "%s is not bound", id.Name)
	}
	return b.value
}

func (c *ruleCompiler) call(call *ast.CallExpr) isa.Value {
	if name, ok := engineFuncs[call.Name]; ok {
		return isa.Call{Name: name, Args: c.exprs(call.Args)}
	}
	if fi, ok := c.res.Function(call.Name); ok {
		return c.inline(call, fi)
	}
	// actions used as values are rejected by analysis
	return isa.Null{}
}
