package ast

import "github.com/ItsDeltin/Overwatch-Script-To-Workshop-sub001/internal/token"

// Program represents a complete source file:
//   - globalvar declarations shared by every rule
//   - function declarations, inlined at each call site
//   - rules, each lowered to its own flat instruction sequence
type Program struct {
	Filename  string
	Globals   []*GlobalDecl
	Functions []*FuncDecl
	Rules     []*Rule

	StartPos token.Position
	EndPos   token.Position
}

// Pos returns the position of the first token in the program.
func (p *Program) Pos() token.Position { return p.StartPos }

// End returns the position after the last token in the program.
func (p *Program) End() token.Position { return p.EndPos }

// GlobalDecl declares a program-wide variable.
// Example: globalvar score;
type GlobalDecl struct {
	BaseDecl
	Name *Ident
}

// FuncDecl represents a user-defined function.
// Example: function clamp(v, lo, hi) { ... }
type FuncDecl struct {
	BaseDecl
	Name    string
	NamePos token.Position
	Params  []*Ident
	Body    *BlockStmt
}

// Rule is one independently triggered compilation unit.
// Example: rule "Count up" { ... }
type Rule struct {
	BaseDecl
	Name string
	Body *BlockStmt
}

var (
	_ Node = (*Program)(nil)
	_ Decl = (*GlobalDecl)(nil)
	_ Decl = (*FuncDecl)(nil)
	_ Decl = (*Rule)(nil)
)
