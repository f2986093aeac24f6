package parser_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/ItsDeltin/Overwatch-Script-To-Workshop-sub001/internal/ast"
	"github.com/ItsDeltin/Overwatch-Script-To-Workshop-sub001/internal/parser"
	"github.com/ItsDeltin/Overwatch-Script-To-Workshop-sub001/internal/token"
)

// TestParseEmpty tests parsing an empty program.
func TestParseEmpty(t *testing.T) {
	prog, err := parser.Parse("")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if prog == nil {
		t.Fatal("Parse() returned nil program")
	}
	if len(prog.Globals) != 0 || len(prog.Functions) != 0 || len(prog.Rules) != 0 {
		t.Errorf("got %d globals, %d functions, %d rules, want none",
			len(prog.Globals), len(prog.Functions), len(prog.Rules))
	}
}

// TestParseProgram tests parsing complete programs.
func TestParseProgram(t *testing.T) {
	tests := []struct {
		name        string
		src         string
		wantGlobals int
		wantFuncs   int
		wantRules   int
		wantErr     bool
	}{
		{
			name:        "globalvar",
			src:         "globalvar score;",
			wantGlobals: 1,
		},
		{
			name:      "rule",
			src:       `rule "tick" { wait(1); }`,
			wantRules: 1,
		},
		{
			name:      "function",
			src:       "function add(a, b) { return a + b; }",
			wantFuncs: 1,
		},
		{
			name: "multiple items",
			src: `globalvar a; globalvar b;
function f() { }
rule "one" { } rule "two" { }`,
			wantGlobals: 2,
			wantFuncs:   1,
			wantRules:   2,
		},
		{
			name:    "stray statement at top level",
			src:     "x = 1;",
			wantErr: true,
		},
		{
			name:    "rule without name",
			src:     "rule { }",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prog, err := parser.Parse(tt.src)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Parse() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if len(prog.Globals) != tt.wantGlobals {
				t.Errorf("Globals = %d, want %d", len(prog.Globals), tt.wantGlobals)
			}
			if len(prog.Functions) != tt.wantFuncs {
				t.Errorf("Functions = %d, want %d", len(prog.Functions), tt.wantFuncs)
			}
			if len(prog.Rules) != tt.wantRules {
				t.Errorf("Rules = %d, want %d", len(prog.Rules), tt.wantRules)
			}
		})
	}
}

// TestParseExpr tests expression parsing and precedence.
func TestParseExpr(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		wantErr bool
		check   func(ast.Expr) bool
	}{
		{
			name: "number",
			src:  "3.5",
			check: func(e ast.Expr) bool {
				n, ok := e.(*ast.NumLit)
				return ok && n.Value == 3.5 && n.Raw == "3.5"
			},
		},
		{
			name: "string",
			src:  `"hi"`,
			check: func(e ast.Expr) bool {
				s, ok := e.(*ast.StrLit)
				return ok && s.Value == "hi"
			},
		},
		{
			name: "bool",
			src:  "false",
			check: func(e ast.Expr) bool {
				b, ok := e.(*ast.BoolLit)
				return ok && !b.Value
			},
		},
		{
			name: "null",
			src:  "null",
			check: func(e ast.Expr) bool {
				_, ok := e.(*ast.NullLit)
				return ok
			},
		},
		{
			name: "mul binds tighter than add",
			src:  "1 + 2 * 3",
			check: func(e ast.Expr) bool {
				b, ok := e.(*ast.BinaryExpr)
				if !ok || b.Op != token.ADD {
					return false
				}
				r, ok := b.Right.(*ast.BinaryExpr)
				return ok && r.Op == token.MUL
			},
		},
		{
			name: "subtraction is left associative",
			src:  "a - b - c",
			check: func(e ast.Expr) bool {
				b, ok := e.(*ast.BinaryExpr)
				if !ok || b.Op != token.SUB {
					return false
				}
				_, ok = b.Left.(*ast.BinaryExpr)
				return ok
			},
		},
		{
			name: "pow is right associative",
			src:  "2 ^ 3 ^ 2",
			check: func(e ast.Expr) bool {
				b, ok := e.(*ast.BinaryExpr)
				if !ok || b.Op != token.POW {
					return false
				}
				r, ok := b.Right.(*ast.BinaryExpr)
				return ok && r.Op == token.POW
			},
		},
		{
			name: "unary minus applies after pow",
			src:  "-x ^ 2",
			check: func(e ast.Expr) bool {
				u, ok := e.(*ast.UnaryExpr)
				if !ok || u.Op != token.SUB {
					return false
				}
				_, ok = u.Expr.(*ast.BinaryExpr)
				return ok
			},
		},
		{
			name: "and binds tighter than or",
			src:  "a || b && c",
			check: func(e ast.Expr) bool {
				b, ok := e.(*ast.BinaryExpr)
				if !ok || b.Op != token.OR {
					return false
				}
				r, ok := b.Right.(*ast.BinaryExpr)
				return ok && r.Op == token.AND
			},
		},
		{
			name: "comparison under and",
			src:  "x < 3 && !done",
			check: func(e ast.Expr) bool {
				b, ok := e.(*ast.BinaryExpr)
				if !ok || b.Op != token.AND {
					return false
				}
				l, ok := b.Left.(*ast.BinaryExpr)
				if !ok || l.Op != token.LESS {
					return false
				}
				u, ok := b.Right.(*ast.UnaryExpr)
				return ok && u.Op == token.NOT
			},
		},
		{
			name: "call",
			src:  "max(1, y, 3)",
			check: func(e ast.Expr) bool {
				c, ok := e.(*ast.CallExpr)
				return ok && c.Name == "max" && len(c.Args) == 3
			},
		},
		{
			name: "call without arguments",
			src:  "f()",
			check: func(e ast.Expr) bool {
				c, ok := e.(*ast.CallExpr)
				return ok && len(c.Args) == 0
			},
		},
		{
			name: "nested index",
			src:  "grid[i][j]",
			check: func(e ast.Expr) bool {
				outer, ok := e.(*ast.IndexExpr)
				if !ok {
					return false
				}
				_, ok = outer.Array.(*ast.IndexExpr)
				return ok
			},
		},
		{
			name: "array literal",
			src:  "[1, 2, [3]]",
			check: func(e ast.Expr) bool {
				a, ok := e.(*ast.ArrayLit)
				return ok && len(a.Elems) == 3
			},
		},
		{
			name: "group",
			src:  "(a + b) * c",
			check: func(e ast.Expr) bool {
				b, ok := e.(*ast.BinaryExpr)
				if !ok || b.Op != token.MUL {
					return false
				}
				_, ok = b.Left.(*ast.GroupExpr)
				return ok
			},
		},
		{name: "dangling operator", src: "1 +", wantErr: true},
		{name: "unclosed paren", src: "(1", wantErr: true},
		{name: "trailing tokens", src: "1 2", wantErr: true},
		{name: "lone ampersand", src: "a & b", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expr, err := parser.ParseExpr(tt.src)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseExpr(%q) error = %v, wantErr %v", tt.src, err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if !tt.check(expr) {
				t.Errorf("ParseExpr(%q) = %s, check failed", tt.src, ast.String(expr))
			}
		})
	}
}

// TestParseStmt tests statement parsing inside a rule body.
func TestParseStmt(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		wantErr bool
		check   func(*ast.BlockStmt) bool
	}{
		{
			name: "define with value",
			src:  "define x = 1;",
			check: func(b *ast.BlockStmt) bool {
				d, ok := b.Stmts[0].(*ast.DefineStmt)
				return ok && d.Name.Name == "x" && d.Value != nil
			},
		},
		{
			name: "define without value",
			src:  "define x;",
			check: func(b *ast.BlockStmt) bool {
				d, ok := b.Stmts[0].(*ast.DefineStmt)
				return ok && d.Value == nil
			},
		},
		{
			name: "compound assignment to element",
			src:  "a[2] += 3;",
			check: func(b *ast.BlockStmt) bool {
				s, ok := b.Stmts[0].(*ast.AssignStmt)
				if !ok || s.Op != token.ADD_ASSIGN {
					return false
				}
				_, ok = s.Target.(*ast.IndexExpr)
				return ok
			},
		},
		{
			name: "increment",
			src:  "n++;",
			check: func(b *ast.BlockStmt) bool {
				s, ok := b.Stmts[0].(*ast.IncDecStmt)
				return ok && s.Op == token.INCR
			},
		},
		{
			name: "call statement",
			src:  `log("x", 1);`,
			check: func(b *ast.BlockStmt) bool {
				s, ok := b.Stmts[0].(*ast.ExprStmt)
				if !ok {
					return false
				}
				c, ok := s.Expr.(*ast.CallExpr)
				return ok && c.Name == "log"
			},
		},
		{
			name: "if else chain",
			src:  "if (a) x = 1; else if (b) x = 2; else x = 3;",
			check: func(b *ast.BlockStmt) bool {
				s, ok := b.Stmts[0].(*ast.IfStmt)
				if !ok {
					return false
				}
				inner, ok := s.Else.(*ast.IfStmt)
				return ok && inner.Else != nil
			},
		},
		{
			name: "if without condition parses",
			src:  "if () { }",
			check: func(b *ast.BlockStmt) bool {
				s, ok := b.Stmts[0].(*ast.IfStmt)
				return ok && s.Cond == nil
			},
		},
		{
			name: "while with body",
			src:  "while (x < 3) { x++; if (x) continue; }",
			check: func(b *ast.BlockStmt) bool {
				s, ok := b.Stmts[0].(*ast.WhileStmt)
				if !ok {
					return false
				}
				body, ok := s.Body.(*ast.BlockStmt)
				return ok && len(body.Stmts) == 2
			},
		},
		{
			name: "foreach",
			src:  "foreach (define p in players) log(p);",
			check: func(b *ast.BlockStmt) bool {
				s, ok := b.Stmts[0].(*ast.ForeachStmt)
				if !ok || s.Var.Name != "p" {
					return false
				}
				id, ok := s.Collection.(*ast.Ident)
				return ok && id.Name == "players"
			},
		},
		{
			name: "break and continue outside loops parse",
			src:  "break; continue;",
			check: func(b *ast.BlockStmt) bool {
				return len(b.Stmts) == 2
			},
		},
		{
			name: "bare return",
			src:  "return;",
			check: func(b *ast.BlockStmt) bool {
				s, ok := b.Stmts[0].(*ast.ReturnStmt)
				return ok && s.Value == nil
			},
		},
		{
			name: "empty statements are dropped",
			src:  ";; x = 1;;",
			check: func(b *ast.BlockStmt) bool {
				return len(b.Stmts) == 1
			},
		},
		{name: "missing semicolon", src: "x = 1", wantErr: true},
		{name: "expression statement", src: "x + 1;", wantErr: true},
		{name: "assign to call", src: "f() = 1;", wantErr: true},
		{name: "foreach without define", src: "foreach (p in ps) { }", wantErr: true},
		{name: "unterminated string", src: `log("abc);`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prog, err := parser.Parse(`rule "r" { ` + tt.src + ` }`)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Parse(%q) error = %v, wantErr %v", tt.src, err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			body := prog.Rules[0].Body
			if len(body.Stmts) == 0 {
				t.Fatalf("no statements parsed from %q", tt.src)
			}
			if !tt.check(body) {
				t.Errorf("check failed for %q:\n%s", tt.src, ast.String(body))
			}
		})
	}
}

// TestParseFunction tests function declarations.
func TestParseFunction(t *testing.T) {
	tests := []struct {
		name       string
		src        string
		wantName   string
		wantParams []string
		wantErr    bool
	}{
		{"no params", "function f() { }", "f", nil, false},
		{"params", "function clamp(v, lo, hi) { }", "clamp", []string{"v", "lo", "hi"}, false},
		{"duplicate param", "function f(a, a) { }", "", nil, true},
		{"param named like function", "function f(f) { }", "", nil, true},
		{"trailing comma", "function f(a,) { }", "", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prog, err := parser.Parse(tt.src)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Parse() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			fn := prog.Functions[0]
			if fn.Name != tt.wantName {
				t.Errorf("Name = %q, want %q", fn.Name, tt.wantName)
			}
			if len(fn.Params) != len(tt.wantParams) {
				t.Fatalf("Params = %d, want %d", len(fn.Params), len(tt.wantParams))
			}
			for i, p := range fn.Params {
				if p.Name != tt.wantParams[i] {
					t.Errorf("Params[%d] = %q, want %q", i, p.Name, tt.wantParams[i])
				}
			}
		})
	}
}

// TestParseErrorPosition tests that errors carry file positions.
func TestParseErrorPosition(t *testing.T) {
	_, err := parser.ParseFile("demo.ostw", []byte("rule \"r\" {\n  x = ;\n}"))
	if err == nil {
		t.Fatal("expected error")
	}

	var list parser.ErrorList
	if !errors.As(err, &list) {
		t.Fatalf("error type = %T, want parser.ErrorList", err)
	}
	first := list[0]
	if first.Pos.Filename != "demo.ostw" || first.Pos.Line != 2 || first.Pos.Column != 7 {
		t.Errorf("error position = %s, want demo.ostw:2:7", first.Pos)
	}
	if first.Want != "expression" || first.Got != ";" {
		t.Errorf("Want/Got = %q/%q, want expression/;", first.Want, first.Got)
	}
}

// TestParseRecovers tests that parsing continues past a bad statement.
func TestParseRecovers(t *testing.T) {
	_, err := parser.Parse(`rule "r" { x = ; y = ; }`)
	var list parser.ErrorList
	if !errors.As(err, &list) {
		t.Fatalf("error type = %T, want parser.ErrorList", err)
	}
	if len(list) != 2 {
		t.Errorf("errors = %d, want 2: %v", len(list), err)
	}
}

// TestPositions tests that node spans cover their source text.
func TestPositions(t *testing.T) {
	src := `rule "r" { define total = 1 + 2; }`
	prog, err := parser.Parse(src)
	if err != nil {
		t.Fatal(err)
	}
	def := prog.Rules[0].Body.Stmts[0]
	got := src[def.Pos().Offset:def.End().Offset]
	if got != "define total = 1 + 2;" {
		t.Errorf("define span = %q", got)
	}
}

// TestParseErrorDecl tests that errors name the enclosing declaration.
func TestParseErrorDecl(t *testing.T) {
	src := `function f(a) { a = ; }
rule "spawn" { x = ; }
rule "ok" { log(1); }`
	_, err := parser.Parse(src)

	var list parser.ErrorList
	if !errors.As(err, &list) {
		t.Fatalf("error type = %T, want parser.ErrorList", err)
	}
	got := list.Decls()
	if len(got) != 2 || got[0] != "function f" || got[1] != `rule "spawn"` {
		t.Errorf("Decls() = %q, want [function f, rule \"spawn\"]", got)
	}
	if msg := list[1].Error(); !strings.Contains(msg, `in rule "spawn": `) {
		t.Errorf("Error() = %q, want the rule name", msg)
	}
}
