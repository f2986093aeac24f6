package semantic

import (
	"sort"

	"github.com/ItsDeltin/Overwatch-Script-To-Workshop-sub001/internal/ast"
)

// Result contains the results of semantic analysis.
type Result struct {
	// Global variables in declaration order
	Globals []*Symbol

	// User-defined functions by name
	Functions map[string]*FuncInfo

	// Uses maps each identifier reference to its declaration.
	Uses map[*ast.Ident]*Symbol

	// Defs maps each declaring identifier to the symbol it introduces.
	Defs map[*ast.Ident]*Symbol

	// Diagnostics in source order
	Diagnostics Diagnostics

	invalid map[ast.Node]bool
}

// Invalid reports whether node was rejected by analysis. The compiler
// lowers invalid statements as no-ops and invalid expressions as null.
func (r *Result) Invalid(node ast.Node) bool {
	return r.invalid[node]
}

// SymbolOf returns the symbol bound to id, whether id declares or uses it.
func (r *Result) SymbolOf(id *ast.Ident) (*Symbol, bool) {
	if sym, ok := r.Uses[id]; ok {
		return sym, true
	}
	sym, ok := r.Defs[id]
	return sym, ok
}

// Function returns the user function called by name.
func (r *Result) Function(name string) (*FuncInfo, bool) {
	fi, ok := r.Functions[name]
	return fi, ok
}

func (r *Result) markInvalid(node ast.Node) {
	r.invalid[node] = true
}

// Resolver binds names to declarations.
type Resolver struct {
	result *Result

	globals *SymbolTable
	funcs   *SymbolTable

	// Current scope for variable resolution
	currentScope *SymbolTable

	// Current function being resolved (nil inside rules)
	currentFunc *FuncInfo

	locals []*Symbol
}

// Analyze resolves and checks prog. The result is always usable; the
// error is non-nil when there are error-severity diagnostics.
func Analyze(prog *ast.Program) (*Result, error) {
	result := Resolve(prog)
	Check(prog, result)

	sort.SliceStable(result.Diagnostics, func(i, j int) bool {
		return result.Diagnostics[i].Span.Start.Before(result.Diagnostics[j].Span.Start)
	})

	return result, result.Diagnostics.Err()
}

// Resolve performs name resolution on the given program.
func Resolve(prog *ast.Program) *Result {
	r := &Resolver{
		result: &Result{
			Functions: make(map[string]*FuncInfo),
			Uses:      make(map[*ast.Ident]*Symbol),
			Defs:      make(map[*ast.Ident]*Symbol),
			invalid:   make(map[ast.Node]bool),
		},
		globals: NewSymbolTable(nil, "global"),
		funcs:   NewSymbolTable(nil, "functions"),
	}
	r.currentScope = r.globals

	// Phase 1: declarations visible everywhere
	r.collectGlobals(prog)
	r.collectFunctions(prog)

	// Phase 2: bodies
	for _, fn := range prog.Functions {
		if fi, ok := r.result.Functions[fn.Name]; ok && fi.Decl == fn {
			r.resolveFunction(fi)
		}
	}
	for _, rule := range prog.Rules {
		r.resolveRule(rule)
	}

	// Phase 3: inlining requires an acyclic call graph
	r.checkRecursion(prog)

	for _, sym := range r.locals {
		if !sym.Used {
			r.result.Diagnostics.Warnf(sym.Decl, warnUnusedVar, sym.Name)
		}
	}

	return r.result
}

func (r *Resolver) collectGlobals(prog *ast.Program) {
	for _, g := range prog.Globals {
		sym := r.globals.Define(g.Name.Name, SymbolGlobal, g.Name.Pos())
		if sym == nil {
			r.result.Diagnostics.Errorf(g, errDuplicateGlobal, g.Name.Name)
			continue
		}
		sym.Decl = g.Name
		r.result.Defs[g.Name] = sym
		r.result.Globals = append(r.result.Globals, sym)
	}
}

func (r *Resolver) collectFunctions(prog *ast.Program) {
	for _, fn := range prog.Functions {
		if IsBuiltinFunc(fn.Name) {
			r.result.Diagnostics.Errorf(fn, errFuncShadowsBuiltin, fn.Name)
			continue
		}
		sym := r.funcs.Define(fn.Name, SymbolFunction, fn.NamePos)
		if sym == nil {
			r.result.Diagnostics.Errorf(fn, errDuplicateFunc, fn.Name)
			continue
		}
		r.result.Functions[fn.Name] = &FuncInfo{Decl: fn, Symbol: sym}
	}
}

func (r *Resolver) resolveFunction(fi *FuncInfo) {
	fn := fi.Decl
	r.currentFunc = fi
	r.currentScope = NewSymbolTable(r.globals, fn.Name)

	for _, param := range fn.Params {
		sym := r.currentScope.Define(param.Name, SymbolParam, param.Pos())
		if sym == nil {
			// parser reports duplicates; keep the first binding
			sym, _ = r.currentScope.LookupLocal(param.Name)
		} else {
			sym.Decl = param
		}
		r.result.Defs[param] = sym
		fi.Params = append(fi.Params, sym)
	}

	r.resolveBlock(fn.Body)

	r.currentScope = r.globals
	r.currentFunc = nil
}

func (r *Resolver) resolveRule(rule *ast.Rule) {
	r.currentScope = NewSymbolTable(r.globals, rule.Name)
	r.resolveBlock(rule.Body)
	r.currentScope = r.globals
}

// withScope runs fn inside a fresh child scope.
func (r *Resolver) withScope(name string, fn func()) {
	saved := r.currentScope
	r.currentScope = NewSymbolTable(saved, name)
	fn()
	r.currentScope = saved
}

func (r *Resolver) resolveBlock(block *ast.BlockStmt) {
	r.withScope("block", func() {
		for _, stmt := range block.Stmts {
			r.resolveStmt(stmt)
		}
	})
}

// resolveBody resolves the statement controlled by if/while/foreach.
// A bare statement still gets its own scope, matching how it is lowered.
func (r *Resolver) resolveBody(stmt ast.Stmt) {
	if stmt == nil {
		return
	}
	if b, ok := stmt.(*ast.BlockStmt); ok {
		r.resolveBlock(b)
		return
	}
	r.withScope("body", func() { r.resolveStmt(stmt) })
}

func (r *Resolver) resolveStmt(stmt ast.Stmt) {
	switch s := stmt.(type) {
	case *ast.DefineStmt:
		r.resolveExpr(s.Value)
		r.declare(s.Name, SymbolLocal)

	case *ast.AssignStmt:
		r.resolveExpr(s.Target)
		r.resolveExpr(s.Value)

	case *ast.IncDecStmt:
		r.resolveExpr(s.Target)

	case *ast.ExprStmt:
		r.resolveExpr(s.Expr)

	case *ast.BlockStmt:
		r.resolveBlock(s)

	case *ast.IfStmt:
		r.resolveExpr(s.Cond)
		r.resolveBody(s.Then)
		r.resolveBody(s.Else)

	case *ast.WhileStmt:
		r.resolveExpr(s.Cond)
		r.resolveBody(s.Body)

	case *ast.ForeachStmt:
		r.resolveExpr(s.Collection)
		r.withScope("foreach", func() {
			r.declare(s.Var, SymbolLoopVar)
			r.resolveBody(s.Body)
		})

	case *ast.ReturnStmt:
		r.resolveExpr(s.Value)
		if s.Value != nil && r.currentFunc != nil {
			r.currentFunc.Returns = true
		}

	case *ast.BreakStmt, *ast.ContinueStmt:
		// checked by Checker
	}
}

// declare introduces id in the current scope.
func (r *Resolver) declare(id *ast.Ident, kind SymbolKind) {
	sym := r.currentScope.Define(id.Name, kind, id.Pos())
	if sym == nil {
		r.result.Diagnostics.Errorf(id, errRedeclared, id.Name)
		// bind to the existing symbol so later uses still resolve
		sym, _ = r.currentScope.LookupLocal(id.Name)
	} else {
		sym.Decl = id
		if kind == SymbolLocal {
			r.locals = append(r.locals, sym)
		}
	}
	r.result.Defs[id] = sym
}

func (r *Resolver) resolveExpr(expr ast.Expr) {
	switch e := expr.(type) {
	case nil:
		return

	case *ast.NumLit, *ast.StrLit, *ast.BoolLit, *ast.NullLit:
		// no names

	case *ast.Ident:
		sym, ok := r.currentScope.Lookup(e.Name)
		if !ok {
			if _, isFunc := r.funcs.LookupLocal(e.Name); isFunc || IsBuiltinFunc(e.Name) {
				r.result.Diagnostics.Errorf(e, errFuncAsValue, e.Name)
			} else {
				r.result.Diagnostics.Errorf(e, errUndefined, e.Name)
			}
			r.result.markInvalid(e)
			return
		}
		sym.Used = true
		r.result.Uses[e] = sym

	case *ast.ArrayLit:
		for _, el := range e.Elems {
			r.resolveExpr(el)
		}

	case *ast.IndexExpr:
		r.resolveExpr(e.Array)
		r.resolveExpr(e.Index)

	case *ast.BinaryExpr:
		r.resolveExpr(e.Left)
		r.resolveExpr(e.Right)

	case *ast.UnaryExpr:
		r.resolveExpr(e.Expr)

	case *ast.GroupExpr:
		r.resolveExpr(e.Expr)

	case *ast.CallExpr:
		r.resolveCall(e)
	}
}

func (r *Resolver) resolveCall(call *ast.CallExpr) {
	for _, arg := range call.Args {
		r.resolveExpr(arg)
	}

	if IsBuiltinFunc(call.Name) {
		return
	}

	fsym, ok := r.funcs.LookupLocal(call.Name)
	if !ok {
		if _, isVar := r.currentScope.Lookup(call.Name); isVar {
			r.result.Diagnostics.Errorf(call, errNotCallable, call.Name)
		} else {
			r.result.Diagnostics.Errorf(call, errUndefinedFunc, call.Name)
		}
		r.result.markInvalid(call)
		return
	}
	fsym.Used = true

	if r.currentFunc != nil {
		r.currentFunc.Calls = append(r.currentFunc.Calls, call)
	}
}

// checkRecursion reports every call that closes a cycle in the call graph.
func (r *Resolver) checkRecursion(prog *ast.Program) {
	const (
		white = iota
		gray
		black
	)
	color := make(map[string]int)

	var visit func(fi *FuncInfo)
	visit = func(fi *FuncInfo) {
		color[fi.Decl.Name] = gray
		for _, call := range fi.Calls {
			callee, ok := r.result.Functions[call.Name]
			if !ok {
				continue
			}
			switch color[callee.Decl.Name] {
			case gray:
				r.result.Diagnostics.Errorf(call, errRecursive, call.Name)
				r.result.markInvalid(call)
			case white:
				visit(callee)
			}
		}
		color[fi.Decl.Name] = black
	}

	for _, fn := range prog.Functions {
		if fi, ok := r.result.Functions[fn.Name]; ok && fi.Decl == fn && color[fn.Name] == white {
			visit(fi)
		}
	}
}
