package ast

import "github.com/ItsDeltin/Overwatch-Script-To-Workshop-sub001/internal/token"

// -----------------------------------------------------------------------------
// Literals
// -----------------------------------------------------------------------------

// NumLit represents a numeric literal.
// Examples: 42, 3.14, 1e3
type NumLit struct {
	BaseExpr
	Value float64 // Parsed numeric value
	Raw   string  // Original source text
}

// StrLit represents a string literal.
type StrLit struct {
	BaseExpr
	Value string // Unescaped string value
}

// BoolLit represents true or false.
type BoolLit struct {
	BaseExpr
	Value bool
}

// NullLit represents null.
type NullLit struct {
	BaseExpr
}

// ArrayLit represents an array literal.
// Example: [1, 2, 3]
type ArrayLit struct {
	BaseExpr
	Elems []Expr
}

// -----------------------------------------------------------------------------
// References
// -----------------------------------------------------------------------------

// Ident represents a variable reference.
type Ident struct {
	BaseExpr
	Name string
}

// IndexExpr represents an array subscript.
// Example: scores[i]
type IndexExpr struct {
	BaseExpr
	Array Expr
	Index Expr
}

// -----------------------------------------------------------------------------
// Operations
// -----------------------------------------------------------------------------

// BinaryExpr represents a binary operation.
// Examples: a + b, x == y, ready && armed
type BinaryExpr struct {
	BaseExpr
	Left  Expr        // Left operand
	Op    token.Token // Operator token
	Right Expr        // Right operand
}

// UnaryExpr represents a prefix operation (SUB or NOT).
type UnaryExpr struct {
	BaseExpr
	Op   token.Token
	Expr Expr
}

// GroupExpr represents a parenthesized expression.
type GroupExpr struct {
	BaseExpr
	Expr Expr
}

// CallExpr represents a call to a builtin or a user-defined function.
// Calls to builtin actions (wait, log) are only valid as statements.
type CallExpr struct {
	BaseExpr
	Name    string
	NamePos token.Position
	Args    []Expr
}

// Unparen strips any number of enclosing GroupExprs.
func Unparen(e Expr) Expr {
	for {
		g, ok := e.(*GroupExpr)
		if !ok {
			return e
		}
		e = g.Expr
	}
}

// Ensure all expression types implement Expr interface.
var (
	_ Expr = (*NumLit)(nil)
	_ Expr = (*StrLit)(nil)
	_ Expr = (*BoolLit)(nil)
	_ Expr = (*NullLit)(nil)
	_ Expr = (*ArrayLit)(nil)
	_ Expr = (*Ident)(nil)
	_ Expr = (*IndexExpr)(nil)
	_ Expr = (*BinaryExpr)(nil)
	_ Expr = (*UnaryExpr)(nil)
	_ Expr = (*GroupExpr)(nil)
	_ Expr = (*CallExpr)(nil)
)
