package semantic

import (
	"github.com/ItsDeltin/Overwatch-Script-To-Workshop-sub001/internal/ast"
)

// Checker performs context validation after resolution.
// It checks for errors that depend on where a construct appears.
type Checker struct {
	result *Result

	// Context tracking
	loopDepth int
	inFunc    bool
}

// Check validates prog against a resolved result, appending to its
// diagnostics and marking rejected nodes.
func Check(prog *ast.Program, result *Result) {
	c := &Checker{result: result}

	for _, fn := range prog.Functions {
		c.inFunc = true
		c.loopDepth = 0
		c.checkBlock(fn.Body)
		c.inFunc = false
	}

	for _, rule := range prog.Rules {
		c.loopDepth = 0
		c.checkBlock(rule.Body)
	}
}

func (c *Checker) errorf(node ast.Node, format string, args ...any) {
	c.result.Diagnostics.Errorf(node, format, args...)
	c.result.markInvalid(node)
}

func (c *Checker) checkBlock(block *ast.BlockStmt) {
	for _, stmt := range block.Stmts {
		c.checkStmt(stmt)
	}
}

func (c *Checker) checkStmt(stmt ast.Stmt) {
	switch s := stmt.(type) {
	case nil:
		return

	case *ast.DefineStmt:
		c.checkExpr(s.Value)

	case *ast.AssignStmt:
		c.checkTarget(s, s.Target)
		c.checkExpr(s.Target)
		c.checkExpr(s.Value)

	case *ast.IncDecStmt:
		c.checkTarget(s, s.Target)
		c.checkExpr(s.Target)

	case *ast.ExprStmt:
		if call, ok := s.Expr.(*ast.CallExpr); ok {
			c.checkCall(call, false)
			if b, ok := LookupBuiltin(call.Name); ok && !b.Action {
				c.result.Diagnostics.Warnf(call, warnUnusedResult, call.Name)
			}
			return
		}
		c.checkExpr(s.Expr)

	case *ast.BlockStmt:
		c.checkBlock(s)

	case *ast.IfStmt:
		if s.Cond == nil {
			c.errorf(s, errIfWithoutCondition)
		}
		c.checkExpr(s.Cond)
		c.checkStmt(s.Then)
		c.checkStmt(s.Else)

	case *ast.WhileStmt:
		c.checkExpr(s.Cond)
		c.loopDepth++
		c.checkStmt(s.Body)
		c.loopDepth--

	case *ast.ForeachStmt:
		c.checkExpr(s.Collection)
		c.loopDepth++
		c.checkStmt(s.Body)
		c.loopDepth--

	case *ast.BreakStmt:
		if c.loopDepth == 0 {
			c.errorf(s, errBreakOutsideLoop)
		}

	case *ast.ContinueStmt:
		if c.loopDepth == 0 {
			c.errorf(s, errContinueOutsideLoop)
		}

	case *ast.ReturnStmt:
		if s.Value != nil && !c.inFunc {
			c.errorf(s, errRuleReturnsValue)
		}
		c.checkExpr(s.Value)
	}
}

// checkTarget rejects writes through a foreach element binding.
func (c *Checker) checkTarget(stmt ast.Stmt, target ast.Expr) {
	root := target
	for {
		ix, ok := root.(*ast.IndexExpr)
		if !ok {
			break
		}
		root = ix.Array
	}
	id, ok := root.(*ast.Ident)
	if !ok {
		return
	}
	if sym, ok := c.result.Uses[id]; ok && !sym.Assignable() {
		c.errorf(stmt, errAssignLoopVar, id.Name)
	}
}

func (c *Checker) checkExpr(expr ast.Expr) {
	switch e := expr.(type) {
	case nil:
		return

	case *ast.ArrayLit:
		for _, el := range e.Elems {
			c.checkExpr(el)
		}

	case *ast.IndexExpr:
		c.checkExpr(e.Array)
		c.checkExpr(e.Index)

	case *ast.BinaryExpr:
		c.checkExpr(e.Left)
		c.checkExpr(e.Right)

	case *ast.UnaryExpr:
		c.checkExpr(e.Expr)

	case *ast.GroupExpr:
		c.checkExpr(e.Expr)

	case *ast.CallExpr:
		c.checkCall(e, true)
	}
}

// checkCall validates arity, and for value positions that the callee
// produces a value.
func (c *Checker) checkCall(call *ast.CallExpr, asValue bool) {
	for _, arg := range call.Args {
		c.checkExpr(arg)
	}
	if c.result.Invalid(call) {
		return
	}

	minArgs, maxArgs := -1, -1
	if b, ok := LookupBuiltin(call.Name); ok {
		if asValue && b.Action {
			c.errorf(call, errActionAsValue, call.Name)
			return
		}
		minArgs, maxArgs = b.MinArgs, b.MaxArgs
	} else if fi, ok := c.result.Function(call.Name); ok {
		minArgs, maxArgs = fi.Arity(), fi.Arity()
	} else {
		return
	}

	switch n := len(call.Args); {
	case n < minArgs:
		c.errorf(call, errNotEnoughArgs, call.Name)
	case maxArgs >= 0 && n > maxArgs:
		c.errorf(call, errTooManyArgs, call.Name)
	}
}
