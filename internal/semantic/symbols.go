package semantic

import (
	"github.com/ItsDeltin/Overwatch-Script-To-Workshop-sub001/internal/ast"
	"github.com/ItsDeltin/Overwatch-Script-To-Workshop-sub001/internal/token"
)

// SymbolKind defines the category of a symbol.
type SymbolKind int

const (
	SymbolGlobal   SymbolKind = iota // globalvar declaration
	SymbolLocal                      // define inside a rule or function body
	SymbolParam                      // function parameter
	SymbolLoopVar                    // foreach element binding (read-only)
	SymbolFunction                   // user-defined function
	SymbolBuiltin                    // builtin function or action
)

// String returns a human-readable name for the symbol kind.
func (k SymbolKind) String() string {
	switch k {
	case SymbolGlobal:
		return "global"
	case SymbolLocal:
		return "local"
	case SymbolParam:
		return "param"
	case SymbolLoopVar:
		return "loop variable"
	case SymbolFunction:
		return "function"
	case SymbolBuiltin:
		return "builtin"
	default:
		return "unknown"
	}
}

// Symbol holds information about a declared name.
type Symbol struct {
	Name string         // Symbol name
	Kind SymbolKind     // Category
	Pos  token.Position // Declaration position
	Decl *ast.Ident     // Declaring identifier (nil for functions and builtins)
	Used bool           // Whether the symbol is referenced
}

// IsVariable returns true if the symbol names a storage location or binding.
func (s *Symbol) IsVariable() bool {
	switch s.Kind {
	case SymbolGlobal, SymbolLocal, SymbolParam, SymbolLoopVar:
		return true
	}
	return false
}

// Assignable reports whether the symbol may be the target of an assignment.
func (s *Symbol) Assignable() bool {
	return s.IsVariable() && s.Kind != SymbolLoopVar
}

// SymbolTable implements a hierarchical symbol table with scope support.
// Each scope can have a parent, enabling nested lookups.
type SymbolTable struct {
	parent  *SymbolTable
	symbols map[string]*Symbol
	name    string // Scope name (e.g., function name or "global")
}

// NewSymbolTable creates a new symbol table with the given parent.
// Pass nil for the global scope.
func NewSymbolTable(parent *SymbolTable, name string) *SymbolTable {
	return &SymbolTable{
		parent:  parent,
		symbols: make(map[string]*Symbol),
		name:    name,
	}
}

// Name returns the scope name.
func (st *SymbolTable) Name() string {
	return st.name
}

// Parent returns the parent scope, or nil for the global scope.
func (st *SymbolTable) Parent() *SymbolTable {
	return st.parent
}

// Define adds a new symbol to the current scope.
// Returns nil if a symbol with that name already exists in this scope.
func (st *SymbolTable) Define(name string, kind SymbolKind, pos token.Position) *Symbol {
	if _, exists := st.symbols[name]; exists {
		return nil
	}
	sym := &Symbol{
		Name: name,
		Kind: kind,
		Pos:  pos,
	}
	st.symbols[name] = sym
	return sym
}

// Lookup searches for a symbol in this scope and all parent scopes.
func (st *SymbolTable) Lookup(name string) (*Symbol, bool) {
	for scope := st; scope != nil; scope = scope.parent {
		if sym, ok := scope.symbols[name]; ok {
			return sym, true
		}
	}
	return nil, false
}

// LookupLocal searches for a symbol only in the current scope.
func (st *SymbolTable) LookupLocal(name string) (*Symbol, bool) {
	sym, ok := st.symbols[name]
	return sym, ok
}

// FuncInfo holds resolved information about a user-defined function.
type FuncInfo struct {
	Decl    *ast.FuncDecl
	Symbol  *Symbol
	Params  []*Symbol
	Calls   []*ast.CallExpr // Calls to user functions made from the body
	Returns bool            // Whether any return carries a value
}

// Arity returns the number of declared parameters.
func (fi *FuncInfo) Arity() int {
	return len(fi.Params)
}

// BuiltinInfo holds information about a builtin function or action.
type BuiltinInfo struct {
	Name    string // Function name
	MinArgs int    // Minimum number of arguments
	MaxArgs int    // Maximum number of arguments (-1 for variadic)
	Action  bool   // Statement-only; produces no value
}

var builtins = map[string]*BuiltinInfo{
	"count":   {Name: "count", MinArgs: 1, MaxArgs: 1},
	"abs":     {Name: "abs", MinArgs: 1, MaxArgs: 1},
	"min":     {Name: "min", MinArgs: 2, MaxArgs: 2},
	"max":     {Name: "max", MinArgs: 2, MaxArgs: 2},
	"round":   {Name: "round", MinArgs: 1, MaxArgs: 1},
	"floor":   {Name: "floor", MinArgs: 1, MaxArgs: 1},
	"ceil":    {Name: "ceil", MinArgs: 1, MaxArgs: 1},
	"sqrt":    {Name: "sqrt", MinArgs: 1, MaxArgs: 1},
	"str":     {Name: "str", MinArgs: 1, MaxArgs: 1},
	"append":  {Name: "append", MinArgs: 2, MaxArgs: 2},
	"matches": {Name: "matches", MinArgs: 2, MaxArgs: 2},
	"wait":    {Name: "wait", MinArgs: 1, MaxArgs: 1, Action: true},
	"log":     {Name: "log", MinArgs: 0, MaxArgs: -1, Action: true},
}

// LookupBuiltin returns information about a builtin, if name is one.
func LookupBuiltin(name string) (*BuiltinInfo, bool) {
	b, ok := builtins[name]
	return b, ok
}

// IsBuiltinFunc returns true if name is a builtin function or action.
func IsBuiltinFunc(name string) bool {
	_, ok := builtins[name]
	return ok
}
