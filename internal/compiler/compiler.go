// Package compiler lowers resolved rules to the flat instruction set of
// the target engine.
//
// The engine only has forward skips and a whole-rule restart. Forward
// jumps are emitted as markers and resolved when the rule's stream is
// finalized. Loops use the restart together with a header at the top of
// the rule that skips back down to the loop's recheck point.
package compiler

import (
	"fmt"
	"runtime"

	"github.com/tliron/commonlog"
	"golang.org/x/sync/errgroup"

	"github.com/ItsDeltin/Overwatch-Script-To-Workshop-sub001/internal/ast"
	"github.com/ItsDeltin/Overwatch-Script-To-Workshop-sub001/internal/isa"
	"github.com/ItsDeltin/Overwatch-Script-To-Workshop-sub001/internal/semantic"
	"github.com/ItsDeltin/Overwatch-Script-To-Workshop-sub001/internal/storage"
	"github.com/ItsDeltin/Overwatch-Script-To-Workshop-sub001/internal/token"
)

var log = commonlog.GetLogger("ostw.compiler")

// DefaultMinWait is the shortest wait the engine accepts before a
// restart, in seconds.
const DefaultMinWait = 0.016

// Options controls lowering.
type Options struct {
	Capabilities Capabilities

	// MinWait is the duration of the wait at the top of the restart
	// header. Zero means DefaultMinWait.
	MinWait float64

	// Workers bounds the number of rules lowered in parallel. Zero
	// means GOMAXPROCS.
	Workers int

	// Filter selects the rules to compile. Nil selects all rules.
	Filter func(name string) bool
}

// DefaultOptions returns options for the reference engine.
func DefaultOptions() Options {
	return Options{Capabilities: DefaultCapabilities()}
}

// Compile lowers every selected rule of prog. res must come from
// semantic analysis of prog; constructs it marked invalid are lowered
// as no-ops. Rules are lowered in parallel, and the result lists them
// in source order.
func Compile(prog *ast.Program, res *semantic.Result, opts Options) (*Program, error) {
	if opts.MinWait <= 0 {
		opts.MinWait = DefaultMinWait
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}

	pool := storage.NewPool()
	for _, g := range res.Globals {
		pool.Global(g.Name)
	}

	var rules []*ast.Rule
	for _, rule := range prog.Rules {
		if opts.Filter == nil || opts.Filter(rule.Name) {
			rules = append(rules, rule)
		}
	}

	out := make([]*Rule, len(rules))
	var g errgroup.Group
	g.SetLimit(opts.Workers)
	for i, rule := range rules {
		g.Go(func() error {
			// Rule names need not be unique, the partition key must be.
			key := fmt.Sprintf("%s#%d", rule.Name, i)
			r, err := lowerRule(pool.Rule(key), res, pool, rule, opts)
			if err != nil {
				return err
			}
			out[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	p := &Program{Rules: out}
	for _, h := range pool.Globals() {
		p.Globals = append(p.Globals, h.Name)
	}
	return p, nil
}

// lowerRule lowers one rule into a fresh unit.
func lowerRule(part *storage.Partition, res *semantic.Result, pool *storage.Pool, rule *ast.Rule, opts Options) (r *Rule, err error) {
	defer recoverInternal(&err)

	c := newRuleCompiler(NewUnit(part, opts.Capabilities, opts.MinWait), res, pool)
	c.lowerBody(rule.Name, rule.Body)

	instrs, err := c.unit.Stream.Finalize()
	if err != nil {
		return nil, err
	}
	log.Debugf("lowered rule %q: %d instructions, %d cells, restart header: %t",
		rule.Name, len(instrs), part.Size(), c.unit.Header.Ready())

	return &Rule{
		Name:         rule.Name,
		Instructions: instrs,
		Cells:        part.Names(),
	}, nil
}

// ruleCompiler holds the lowering state of one rule.
type ruleCompiler struct {
	unit *Unit
	res  *semantic.Result
	pool *storage.Pool

	scope    *scope
	frame    *frame
	loop     *FlowTracker // innermost loop, nil outside loops
	inlining map[string]bool
}

func newRuleCompiler(u *Unit, res *semantic.Result, pool *storage.Pool) *ruleCompiler {
	return &ruleCompiler{
		unit:     u,
		res:      res,
		pool:     pool,
		inlining: make(map[string]bool),
	}
}

// lowerBody lowers a rule body in a fresh rule frame.
func (c *ruleCompiler) lowerBody(name string, body *ast.BlockStmt) {
	c.frame = &frame{kind: ruleFrame, name: name}
	c.frame.root = c.pushScope()
	c.stmts(body.Stmts)
	c.popScope(!endsInReturn(body))
}

func (c *ruleCompiler) stmts(list []ast.Stmt) {
	for _, s := range list {
		c.stmt(s)
	}
}

func (c *ruleCompiler) emit(in isa.Instruction) {
	c.unit.Stream.Emit(in)
}

// block lowers a block in its own scope.
func (c *ruleCompiler) block(b *ast.BlockStmt) {
	c.pushScope()
	c.stmts(b.Stmts)
	c.popScope(!endsInReturn(b))
}

// body lowers the statement controlled by if/while/foreach. A bare
// statement still gets its own scope.
func (c *ruleCompiler) body(s ast.Stmt) {
	if b, ok := s.(*ast.BlockStmt); ok {
		c.block(b)
		return
	}
	c.pushScope()
	c.stmt(s)
	_, isReturn := s.(*ast.ReturnStmt)
	c.popScope(!isReturn)
}

func (c *ruleCompiler) stmt(s ast.Stmt) {
	if s == nil || c.res.Invalid(s) {
		return
	}
	c.unit.Stream.SetSpan(ast.SpanOf(s))

	switch s := s.(type) {
	case *ast.BlockStmt:
		c.block(s)

	case *ast.DefineStmt:
		var v isa.Value = isa.Null{}
		if s.Value != nil {
			v = c.expr(s.Value)
		}
		sym, ok := c.res.Defs[s.Name]
		if !ok {
			fail("define", ast.SpanOf(s), "%s has no symbol", s.Name.Name)
		}
		cell := c.declare(sym)
		c.emit(isa.NewSet(cell, v))

	case *ast.AssignStmt:
		c.assign(s)

	case *ast.IncDecStmt:
		op := isa.ModAdd
		if s.Op == token.DECR {
			op = isa.ModSubtract
		}
		c.modify(s.Target, op, isa.Number(1))

	case *ast.ExprStmt:
		c.exprStmt(s)

	case *ast.IfStmt:
		c.ifStmt(s)

	case *ast.WhileStmt:
		w := NewWhileBuilder(c.unit, func() isa.Value { return c.expr(s.Cond) }, ast.SpanOf(s))
		c.loopStmt(w, func() { c.body(s.Body) })

	case *ast.ForeachStmt:
		c.foreachStmt(s)

	case *ast.BreakStmt:
		if c.loop != nil {
			c.loop.AddBreak("break")
		}

	case *ast.ContinueStmt:
		if c.loop != nil {
			c.loop.AddContinue("continue")
		}

	case *ast.ReturnStmt:
		c.lowerReturn(s)

	default:
		fail("statement", ast.SpanOf(s), "unexpected %T", s)
	}
}

func (c *ruleCompiler) ifStmt(s *ast.IfStmt) {
	b := NewIfBuilder(c.unit, c.expr(s.Cond), ast.SpanOf(s))
	b.Setup()
	c.body(s.Then)
	if s.Else != nil {
		b.Else()
		c.body(s.Else)
	}
	b.Finish()
}

// loopBuilder is implemented by WhileBuilder and ForeachBuilder.
type loopBuilder interface {
	Setup()
	Flow() *FlowTracker
	Finish()
}

// loopStmt drives a loop builder around body. Continues resume right
// before the back edge; breaks leave right after the loop.
func (c *ruleCompiler) loopStmt(b loopBuilder, body func()) {
	b.Setup()
	saved := c.loop
	flow := b.Flow()
	c.loop = flow

	body()

	flow.ContinueToHere()
	b.Finish()
	flow.BreakToHere()
	c.loop = saved
}

func (c *ruleCompiler) foreachStmt(s *ast.ForeachStmt) {
	sym, ok := c.res.Defs[s.Var]
	if !ok {
		fail("foreach", ast.SpanOf(s), "%s has no symbol", s.Var.Name)
	}
	b := NewForeachBuilder(c.unit, c.expr(s.Collection), ast.SpanOf(s))
	c.loopStmt(b, func() {
		c.pushScope()
		c.bind(sym, b.Current())
		c.body(s.Body)
		c.popScope(false)
	})
}

var modifyOps = map[token.Token]isa.ModifyOp{
	token.ADD_ASSIGN: isa.ModAdd,
	token.SUB_ASSIGN: isa.ModSubtract,
	token.MUL_ASSIGN: isa.ModMultiply,
	token.DIV_ASSIGN: isa.ModDivide,
	token.MOD_ASSIGN: isa.ModModulo,
}

var compoundOps = map[isa.ModifyOp]isa.BinOp{
	isa.ModAdd:      isa.OpAdd,
	isa.ModSubtract: isa.OpSub,
	isa.ModMultiply: isa.OpMul,
	isa.ModDivide:   isa.OpDiv,
	isa.ModModulo:   isa.OpMod,
}

func (c *ruleCompiler) assign(s *ast.AssignStmt) {
	if s.Op == token.ASSIGN {
		c.store(s.Target, c.expr(s.Value))
		return
	}
	op, ok := modifyOps[s.Op]
	if !ok {
		fail("assignment", ast.SpanOf(s), "unexpected operator %s", s.Op)
	}
	c.modify(s.Target, op, c.expr(s.Value))
}

// store lowers target = v.
func (c *ruleCompiler) store(target ast.Expr, v isa.Value) {
	switch t := ast.Unparen(target).(type) {
	case *ast.Ident:
		if cell, ok := c.cellOf(t); ok {
			c.emit(isa.NewSet(cell, v))
		}
	case *ast.IndexExpr:
		if cell, ok := c.cellOf(t.Array.(*ast.Ident)); ok {
			c.emit(isa.NewSetAt(cell, c.expr(t.Index), v))
		}
	}
}

// modify lowers target op= v. Array elements have no modify opcode, so
// they are rewritten as element = element op v.
func (c *ruleCompiler) modify(target ast.Expr, op isa.ModifyOp, v isa.Value) {
	switch t := ast.Unparen(target).(type) {
	case *ast.Ident:
		if cell, ok := c.cellOf(t); ok {
			c.emit(isa.NewModify(cell, op, v))
		}
	case *ast.IndexExpr:
		cell, ok := c.cellOf(t.Array.(*ast.Ident))
		if !ok {
			return
		}
		idx := c.expr(t.Index)
		elem := isa.IndexOf{Array: isa.Var{Cell: cell}, Index: idx}
		c.emit(isa.NewSetAt(cell, idx, isa.Binary{Op: compoundOps[op], Left: elem, Right: v}))
	}
}

// cellOf returns the cell an assignment to id writes.
func (c *ruleCompiler) cellOf(id *ast.Ident) (storage.Handle, bool) {
	if c.res.Invalid(id) {
		return storage.Handle{}, false
	}
	sym, ok := c.res.SymbolOf(id)
	if !ok {
		return storage.Handle{}, false
	}
	if sym.Kind == semantic.SymbolGlobal {
		return c.pool.Global(sym.Name), true
	}
	b, ok := c.lookup(sym)
	if !ok || !b.store {
		fail("assignment", ast.SpanOf(id), "%s is not assignable", id.Name)
	}
	return b.cell, true
}

func (c *ruleCompiler) exprStmt(s *ast.ExprStmt) {
	call, ok := ast.Unparen(s.Expr).(*ast.CallExpr)
	if !ok || c.res.Invalid(call) {
		return
	}
	switch call.Name {
	case "wait":
		c.emit(isa.NewWait(c.expr(call.Args[0])))
	case "log":
		c.emit(isa.NewAction("Log", c.exprs(call.Args)...))
	default:
		c.expr(call)
	}
}

