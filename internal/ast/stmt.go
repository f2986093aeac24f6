package ast

import "github.com/ItsDeltin/Overwatch-Script-To-Workshop-sub001/internal/token"

// -----------------------------------------------------------------------------
// Basic statements
// -----------------------------------------------------------------------------

// DefineStmt declares a variable in the current block.
// Examples: define x; define total = 0;
type DefineStmt struct {
	BaseStmt
	Name    *Ident
	Value   Expr // Initializer (nil if absent)
}

// AssignStmt represents plain and compound assignment.
// Examples: x = 1; scores[i] += 5;
type AssignStmt struct {
	BaseStmt
	Target Expr        // *Ident or *IndexExpr
	Op     token.Token // ASSIGN, ADD_ASSIGN, SUB_ASSIGN, MUL_ASSIGN, DIV_ASSIGN, MOD_ASSIGN
	Value  Expr
}

// IncDecStmt represents x++ and x--.
type IncDecStmt struct {
	BaseStmt
	Target Expr
	Op     token.Token // INCR or DECR
}

// ExprStmt represents a call used as a statement.
// Example: log("hello");
type ExprStmt struct {
	BaseStmt
	Expr Expr
}

// BlockStmt represents a block of statements with its own scope.
type BlockStmt struct {
	BaseStmt
	Stmts []Stmt
}

// Last returns the final statement of the block, or nil if it is empty.
func (b *BlockStmt) Last() Stmt {
	if b == nil || len(b.Stmts) == 0 {
		return nil
	}
	return b.Stmts[len(b.Stmts)-1]
}

// -----------------------------------------------------------------------------
// Structured statements
// -----------------------------------------------------------------------------

// IfStmt represents if and if-else.
// Cond is nil when the source omitted the condition; the semantic
// layer reports that and lowering treats the statement as a no-op.
type IfStmt struct {
	BaseStmt
	Cond Expr
	Then Stmt
	Else Stmt // nil if no else, or another *IfStmt for else-if
}

// WhileStmt represents a while loop.
type WhileStmt struct {
	BaseStmt
	Cond Expr
	Body Stmt
}

// ForeachStmt iterates over the elements of an array.
// Example: foreach (define p in players) { ... }
type ForeachStmt struct {
	BaseStmt
	Var        *Ident // Element binding, read-only inside the body
	Collection Expr
	Body       Stmt
}

// -----------------------------------------------------------------------------
// Control flow statements
// -----------------------------------------------------------------------------

// BreakStmt exits the innermost enclosing loop.
type BreakStmt struct {
	BaseStmt
}

// ContinueStmt resumes the innermost enclosing loop at its condition.
type ContinueStmt struct {
	BaseStmt
}

// ReturnStmt leaves the current rule or function.
type ReturnStmt struct {
	BaseStmt
	Value Expr // nil for bare return
}

// Ensure all statement types implement Stmt interface.
var (
	_ Stmt = (*DefineStmt)(nil)
	_ Stmt = (*AssignStmt)(nil)
	_ Stmt = (*IncDecStmt)(nil)
	_ Stmt = (*ExprStmt)(nil)
	_ Stmt = (*BlockStmt)(nil)
	_ Stmt = (*IfStmt)(nil)
	_ Stmt = (*WhileStmt)(nil)
	_ Stmt = (*ForeachStmt)(nil)
	_ Stmt = (*BreakStmt)(nil)
	_ Stmt = (*ContinueStmt)(nil)
	_ Stmt = (*ReturnStmt)(nil)
)
