package ast

import (
	"fmt"
	"io"
	"strings"
)

// Printer provides pretty-printing for AST nodes.
// It outputs source-like text suitable for debugging.
type Printer struct {
	w      io.Writer
	indent int
	err    error
}

// NewPrinter creates a new Printer that writes to w.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

// Print writes a pretty-printed representation of the node to the writer.
func (p *Printer) Print(node Node) error {
	p.printNode(node)
	return p.err
}

func (p *Printer) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}

func (p *Printer) writeIndent() {
	if p.err != nil {
		return
	}
	for i := 0; i < p.indent; i++ {
		_, p.err = io.WriteString(p.w, "    ")
	}
}

func (p *Printer) printNode(node Node) {
	if node == nil {
		p.printf("<nil>")
		return
	}

	switch n := node.(type) {
	case *Program:
		p.printProgram(n)
	case *GlobalDecl:
		p.printf("globalvar %s;", n.Name.Name)
	case *FuncDecl:
		p.printFuncDecl(n)
	case *Rule:
		p.printRule(n)
	case Expr:
		p.printExpr(n)
	case Stmt:
		p.printStmt(n)
	default:
		p.printf("<%T>", node)
	}
}

func (p *Printer) printProgram(prog *Program) {
	for _, g := range prog.Globals {
		p.printf("globalvar %s;\n", g.Name.Name)
	}
	if len(prog.Globals) > 0 {
		p.printf("\n")
	}

	for _, f := range prog.Functions {
		p.printFuncDecl(f)
		p.printf("\n\n")
	}

	for _, r := range prog.Rules {
		p.printRule(r)
		p.printf("\n\n")
	}
}

func (p *Printer) printRule(r *Rule) {
	p.printf("rule %q ", r.Name)
	p.printStmt(r.Body)
}

func (p *Printer) printFuncDecl(f *FuncDecl) {
	p.printf("function %s(", f.Name)
	for i, param := range f.Params {
		if i > 0 {
			p.printf(", ")
		}
		p.printf("%s", param.Name)
	}
	p.printf(") ")
	p.printStmt(f.Body)
}

func (p *Printer) printExpr(e Expr) {
	if e == nil {
		p.printf("<nil>")
		return
	}

	switch n := e.(type) {
	case *NumLit:
		if n.Raw != "" {
			p.printf("%s", n.Raw)
		} else {
			p.printf("%g", n.Value)
		}

	case *StrLit:
		p.printf("%q", n.Value)

	case *BoolLit:
		p.printf("%t", n.Value)

	case *NullLit:
		p.printf("null")

	case *ArrayLit:
		p.printf("[")
		p.printArgs(n.Elems)
		p.printf("]")

	case *Ident:
		p.printf("%s", n.Name)

	case *IndexExpr:
		p.printExpr(n.Array)
		p.printf("[")
		p.printExpr(n.Index)
		p.printf("]")

	case *BinaryExpr:
		p.printOperand(n.Left)
		p.printf(" %s ", n.Op)
		p.printOperand(n.Right)

	case *UnaryExpr:
		p.printf("%s", n.Op)
		p.printOperand(n.Expr)

	case *GroupExpr:
		p.printf("(")
		p.printExpr(n.Expr)
		p.printf(")")

	case *CallExpr:
		p.printf("%s(", n.Name)
		p.printArgs(n.Args)
		p.printf(")")

	default:
		p.printf("<%T>", e)
	}
}

func (p *Printer) printOperand(e Expr) {
	if _, ok := e.(*BinaryExpr); ok {
		p.printf("(")
		p.printExpr(e)
		p.printf(")")
		return
	}
	p.printExpr(e)
}

func (p *Printer) printArgs(args []Expr) {
	for i, arg := range args {
		if i > 0 {
			p.printf(", ")
		}
		p.printExpr(arg)
	}
}

func (p *Printer) printStmt(s Stmt) {
	if s == nil {
		p.printf("<nil>")
		return
	}

	switch n := s.(type) {
	case *DefineStmt:
		p.printf("define %s", n.Name.Name)
		if n.Value != nil {
			p.printf(" = ")
			p.printExpr(n.Value)
		}
		p.printf(";")

	case *AssignStmt:
		p.printExpr(n.Target)
		p.printf(" %s ", n.Op)
		p.printExpr(n.Value)
		p.printf(";")

	case *IncDecStmt:
		p.printExpr(n.Target)
		p.printf("%s;", n.Op)

	case *ExprStmt:
		p.printExpr(n.Expr)
		p.printf(";")

	case *BlockStmt:
		if n == nil {
			p.printf("<nil>")
			return
		}
		p.printf("{\n")
		p.indent++
		for _, stmt := range n.Stmts {
			p.writeIndent()
			p.printStmt(stmt)
			p.printf("\n")
		}
		p.indent--
		p.writeIndent()
		p.printf("}")

	case *IfStmt:
		p.printf("if (")
		if n.Cond != nil {
			p.printExpr(n.Cond)
		}
		p.printf(") ")
		p.printStmt(n.Then)
		if n.Else != nil {
			p.printf(" else ")
			p.printStmt(n.Else)
		}

	case *WhileStmt:
		p.printf("while (")
		p.printExpr(n.Cond)
		p.printf(") ")
		p.printStmt(n.Body)

	case *ForeachStmt:
		p.printf("foreach (define %s in ", n.Var.Name)
		p.printExpr(n.Collection)
		p.printf(") ")
		p.printStmt(n.Body)

	case *BreakStmt:
		p.printf("break;")

	case *ContinueStmt:
		p.printf("continue;")

	case *ReturnStmt:
		p.printf("return")
		if n.Value != nil {
			p.printf(" ")
			p.printExpr(n.Value)
		}
		p.printf(";")

	default:
		p.printf("<%T>", s)
	}
}

// String returns a string representation of the node.
func String(node Node) string {
	var sb strings.Builder
	p := NewPrinter(&sb)
	_ = p.Print(node)
	return sb.String()
}
