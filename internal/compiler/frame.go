package compiler

import (
	"github.com/ItsDeltin/Overwatch-Script-To-Workshop-sub001/internal/ast"
	"github.com/ItsDeltin/Overwatch-Script-To-Workshop-sub001/internal/isa"
	"github.com/ItsDeltin/Overwatch-Script-To-Workshop-sub001/internal/semantic"
	"github.com/ItsDeltin/Overwatch-Script-To-Workshop-sub001/internal/storage"
)

type frameKind uint8

const (
	ruleFrame frameKind = iota
	funcFrame
)

// frame is the body being lowered: the rule itself or one inlined call.
type frame struct {
	kind   frameKind
	name   string
	root   *scope
	result storage.Handle // return value cell of a value-returning function
	hasRes bool
	exits  []*SkipStart // returns waiting for the end of the inlined body
}

// lowerReturn stores the returned value, tears down every scope of the
// frame and leaves it.
func (c *ruleCompiler) lowerReturn(s *ast.ReturnStmt) {
	f := c.frame
	if s.Value != nil {
		v := c.expr(s.Value)
		if f.kind == funcFrame && f.hasRes {
			c.unit.Stream.Emit(isa.NewSet(f.result, v).WithComment("return " + f.name))
		}
	}

	for sc := c.scope; sc != nil; sc = sc.parent {
		c.emitTeardown(sc)
		if sc == f.root {
			break
		}
	}

	if f.kind == ruleFrame {
		c.unit.Stream.Emit(isa.NewAbort())
		return
	}
	f.exits = append(f.exits, c.unit.Stream.StartMarker(nil, "return "+f.name))
}

// inline lowers a call to a user function by expanding its body at the
// call site. Arguments are evaluated in the caller's scope and copied
// into fresh parameter cells.
func (c *ruleCompiler) inline(call *ast.CallExpr, fi *semantic.FuncInfo) isa.Value {
	name := fi.Decl.Name
	if c.inlining[name] {
		fail("call", ast.SpanOf(call), "recursive inline of %q", name)
	}

	if len(call.Args) != fi.Arity() {
		fail("call", ast.SpanOf(call), "%q takes %d arguments, got %d", name, fi.Arity(), len(call.Args))
	}
	args := make([]isa.Value, len(call.Args))
	for i, arg := range call.Args {
		args[i] = c.expr(arg)
	}

	f := &frame{kind: funcFrame, name: name}
	if fi.Returns {
		f.result = c.temp(name + "Result")
		f.hasRes = true
		c.unit.Stream.Emit(isa.NewSet(f.result, isa.Null{}))
	}

	savedFrame, savedScope, savedLoop := c.frame, c.scope, c.loop
	c.inlining[name] = true
	c.frame = f
	c.loop = nil
	f.root = c.pushScope()

	for i, param := range fi.Params {
		cell := c.declare(param)
		c.unit.Stream.Emit(isa.NewSet(cell, args[i]).WithComment(name + ": " + param.Name))
	}
	c.stmts(fi.Decl.Body.Stmts)
	c.popScope(!endsInReturn(fi.Decl.Body))

	if len(f.exits) > 0 {
		end := c.unit.Stream.EndMarker()
		for _, m := range f.exits {
			c.unit.Stream.Resolve(m, end)
		}
	}

	delete(c.inlining, name)
	c.frame, c.scope, c.loop = savedFrame, savedScope, savedLoop

	if f.hasRes {
		return isa.Var{Cell: f.result}
	}
	return isa.Null{}
}

func endsInReturn(b *ast.BlockStmt) bool {
	_, ok := b.Last().(*ast.ReturnStmt)
	return ok
}
