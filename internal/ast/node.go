// Package ast holds the syntax tree of a rule script.
//
// A Program is a list of declarations: globalvar names, functions and
// rules. Function and rule bodies are BlockStmts. Expressions cover
// literals (numbers, strings, booleans, null, array literals), names,
// indexing, unary and binary operators, parentheses and calls; a call
// names either a builtin or a user function; the parser does not
// distinguish them.
package ast

import "github.com/ItsDeltin/Overwatch-Script-To-Workshop-sub001/internal/token"

// Node is any tree node. Pos is the first byte of the node and End the
// first byte after it.
type Node interface {
	Pos() token.Position
	End() token.Position
}

// Expr is a node producing a value.
type Expr interface {
	Node
	exprNode()
}

// Stmt is a node executed for its effect.
type Stmt interface {
	Node
	stmtNode()
}

// Decl is a top-level globalvar, function or rule.
type Decl interface {
	Node
	declNode()
}

// BaseExpr is embedded by every expression node.
type BaseExpr struct {
	StartPos token.Position
	EndPos   token.Position
}

func (b *BaseExpr) Pos() token.Position { return b.StartPos }
func (b *BaseExpr) End() token.Position { return b.EndPos }
func (b *BaseExpr) exprNode()           {}

// BaseStmt is embedded by every statement node.
type BaseStmt struct {
	StartPos token.Position
	EndPos   token.Position
}

func (b *BaseStmt) Pos() token.Position { return b.StartPos }
func (b *BaseStmt) End() token.Position { return b.EndPos }
func (b *BaseStmt) stmtNode()           {}

// BaseDecl is embedded by every declaration.
type BaseDecl struct {
	StartPos token.Position
	EndPos   token.Position
}

func (b *BaseDecl) Pos() token.Position { return b.StartPos }
func (b *BaseDecl) End() token.Position { return b.EndPos }
func (b *BaseDecl) declNode()           {}

// SpanOf returns the source range covered by n.
func SpanOf(n Node) token.Span {
	return token.SpanOf(n.Pos(), n.End())
}

// IsLValue reports whether e can be stored to: a name, or one level of
// indexing into a name. The engine has no nested SetVariableAtIndex.
func IsLValue(e Expr) bool {
	switch x := e.(type) {
	case *Ident:
		return true
	case *IndexExpr:
		_, ok := x.Array.(*Ident)
		return ok
	default:
		return false
	}
}

func MakeBaseExpr(start, end token.Position) BaseExpr {
	return BaseExpr{StartPos: start, EndPos: end}
}

func MakeBaseStmt(start, end token.Position) BaseStmt {
	return BaseStmt{StartPos: start, EndPos: end}
}

func MakeBaseDecl(start, end token.Position) BaseDecl {
	return BaseDecl{StartPos: start, EndPos: end}
}
