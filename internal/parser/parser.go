package parser

import (
	"strconv"

	"github.com/ItsDeltin/Overwatch-Script-To-Workshop-sub001/internal/ast"
	"github.com/ItsDeltin/Overwatch-Script-To-Workshop-sub001/internal/lexer"
	"github.com/ItsDeltin/Overwatch-Script-To-Workshop-sub001/internal/token"
)

// maxErrors bounds the error list; past it the parser gives up.
const maxErrors = 25

// Parser is a recursive descent parser for rule-language programs.
//
// Scope checks (break outside a loop, return values in rules, unknown
// names) are left to the semantic layer so that a single mistake does
// not hide the rest of the program.
type Parser struct {
	lexer   *lexer.Lexer // Lexer instance
	tok     lexer.Token  // Current token
	prevTok lexer.Token  // Previous token
	prevEnd token.Position
	errors  ErrorList // Accumulated errors
	decl    string    // Declaration being parsed, for error context
}

// Parse parses a program from source code.
// Returns the AST and any parse errors encountered.
func Parse(src string) (*ast.Program, error) {
	return ParseFile("", []byte(src))
}

// ParseFile parses a program, tagging every position with filename.
func ParseFile(filename string, src []byte) (*ast.Program, error) {
	p := &Parser{
		lexer: lexer.NewFile(filename, src),
	}
	p.next() // Initialize first token

	prog := p.parseProgram()
	prog.Filename = filename

	if err := p.errors.Err(); err != nil {
		return nil, err
	}
	return prog, nil
}

// ParseExpr parses a single expression (useful for testing).
func ParseExpr(src string) (ast.Expr, error) {
	p := &Parser{
		lexer: lexer.New([]byte(src)),
	}
	p.next()

	expr := p.parseExpr()
	if p.tok.Type != token.EOF {
		p.error(expectedError(p.tok.Pos, "end of expression", p.tokenDesc()))
	}

	if err := p.errors.Err(); err != nil {
		return nil, err
	}
	return expr, nil
}

// -----------------------------------------------------------------------------
// Token handling
// -----------------------------------------------------------------------------

// next advances to the next token.
func (p *Parser) next() {
	p.prevTok = p.tok
	p.prevEnd = p.lexer.Pos()
	p.tok = p.lexer.Scan()
}

// expect checks that the current token is tok and advances.
// If not, it records an error.
func (p *Parser) expect(tok token.Token) bool {
	if p.tok.Type != tok {
		p.error(expectedError(p.tok.Pos, tok.String(), p.tokenDesc()))
		return false
	}
	p.next()
	return true
}

// expectIdent expects a NAME token and returns it as an identifier.
func (p *Parser) expectIdent() *ast.Ident {
	start := p.tok.Pos
	name := p.tok.Value
	if !p.expect(token.NAME) {
		return nil
	}
	return &ast.Ident{
		BaseExpr: ast.MakeBaseExpr(start, p.prevEnd),
		Name:     name,
	}
}

// match returns true if current token matches any of the given types.
func (p *Parser) match(types ...token.Token) bool {
	for _, t := range types {
		if p.tok.Type == t {
			return true
		}
	}
	return false
}

// tokenDesc returns a description of the current token for error messages.
func (p *Parser) tokenDesc() string {
	switch p.tok.Type {
	case token.NAME, token.NUMBER:
		return p.tok.Value
	case token.STRING:
		return strconv.Quote(p.tok.Value)
	case token.ILLEGAL:
		// ILLEGAL token's Value contains the lexer's message
		return p.tok.Value
	default:
		return p.tok.Type.String()
	}
}

// error records a parse error.
func (p *Parser) error(err *ParseError) {
	if err.Decl == "" {
		err.Decl = p.decl
	}
	p.errors = append(p.errors, err)
}

// errorf records a formatted parse error at current position.
func (p *Parser) errorf(format string, args ...any) {
	p.error(errorf(p.tok.Pos, format, args...))
}

// tooManyErrors reports whether parsing should stop.
func (p *Parser) tooManyErrors() bool {
	return len(p.errors) >= maxErrors
}

// sync skips tokens until just after a statement boundary.
func (p *Parser) sync() {
	for !p.match(token.EOF, token.RBRACE) {
		if p.tok.Type == token.SEMICOLON {
			p.next()
			return
		}
		p.next()
	}
}

// -----------------------------------------------------------------------------
// Program parsing
// -----------------------------------------------------------------------------

// parseProgram parses a complete source file.
func (p *Parser) parseProgram() *ast.Program {
	prog := &ast.Program{
		StartPos: p.tok.Pos,
	}

	for p.tok.Type != token.EOF && !p.tooManyErrors() {
		switch p.tok.Type {
		case token.GLOBALVAR:
			if g := p.parseGlobal(); g != nil {
				prog.Globals = append(prog.Globals, g)
			}

		case token.FUNCTION:
			if fn := p.parseFunction(); fn != nil {
				prog.Functions = append(prog.Functions, fn)
			}

		case token.RULE:
			if r := p.parseRule(); r != nil {
				prog.Rules = append(prog.Rules, r)
			}

		case token.SEMICOLON:
			p.next()

		default:
			p.error(expectedError(p.tok.Pos, "rule, function or globalvar", p.tokenDesc()))
			p.next()
		}
	}

	prog.EndPos = p.tok.Pos
	return prog
}

// parseGlobal parses "globalvar NAME;".
func (p *Parser) parseGlobal() *ast.GlobalDecl {
	startPos := p.tok.Pos
	p.next() // consume 'globalvar'

	name := p.expectIdent()
	if name == nil {
		p.sync()
		return nil
	}
	p.expect(token.SEMICOLON)

	return &ast.GlobalDecl{
		BaseDecl: ast.MakeBaseDecl(startPos, p.prevEnd),
		Name:     name,
	}
}

// parseRule parses `rule "name" { ... }`.
func (p *Parser) parseRule() *ast.Rule {
	startPos := p.tok.Pos
	p.next() // consume 'rule'

	name := p.tok.Value
	if !p.expect(token.STRING) {
		p.sync()
		return nil
	}
	p.decl = "rule " + strconv.Quote(name)
	defer func() { p.decl = "" }()

	body := p.parseBlock()
	if body == nil {
		return nil
	}

	return &ast.Rule{
		BaseDecl: ast.MakeBaseDecl(startPos, p.prevEnd),
		Name:     name,
		Body:     body,
	}
}

// parseFunction parses a function declaration.
func (p *Parser) parseFunction() *ast.FuncDecl {
	startPos := p.tok.Pos
	p.next() // consume 'function'

	namePos := p.tok.Pos
	name := p.tok.Value
	if !p.expect(token.NAME) {
		p.sync()
		return nil
	}
	p.decl = "function " + name
	defer func() { p.decl = "" }()

	if !p.expect(token.LPAREN) {
		p.sync()
		return nil
	}

	var params []*ast.Ident
	seen := make(map[string]bool)
	for p.tok.Type != token.RPAREN && p.tok.Type != token.EOF {
		if len(params) > 0 && !p.expect(token.COMMA) {
			break
		}
		param := p.expectIdent()
		if param == nil {
			break
		}
		if param.Name == name {
			p.error(errorf(param.Pos(), "can't use function name as parameter name"))
		} else if seen[param.Name] {
			p.error(errorf(param.Pos(), "duplicate parameter name %q", param.Name))
		}
		seen[param.Name] = true
		params = append(params, param)
	}
	p.expect(token.RPAREN)

	body := p.parseBlock()
	if body == nil {
		return nil
	}

	return &ast.FuncDecl{
		BaseDecl: ast.MakeBaseDecl(startPos, p.prevEnd),
		Name:     name,
		NamePos:  namePos,
		Params:   params,
		Body:     body,
	}
}

// parseBlock parses a brace-enclosed block of statements.
func (p *Parser) parseBlock() *ast.BlockStmt {
	startPos := p.tok.Pos
	if !p.expect(token.LBRACE) {
		return nil
	}

	var stmts []ast.Stmt
	for p.tok.Type != token.RBRACE && p.tok.Type != token.EOF && !p.tooManyErrors() {
		before := p.tok.Pos.Offset
		stmt := p.parseStmt()
		if stmt != nil {
			stmts = append(stmts, stmt)
		}
		if p.tok.Pos.Offset == before && p.tok.Type != token.RBRACE && p.tok.Type != token.EOF {
			p.next() // ensure progress after an error
		}
	}

	p.expect(token.RBRACE)

	return &ast.BlockStmt{
		BaseStmt: ast.MakeBaseStmt(startPos, p.prevEnd),
		Stmts:    stmts,
	}
}

// -----------------------------------------------------------------------------
// Statement parsing
// -----------------------------------------------------------------------------

// parseStmt parses any statement. Empty statements yield nil.
func (p *Parser) parseStmt() ast.Stmt {
	startPos := p.tok.Pos

	switch p.tok.Type {
	case token.SEMICOLON:
		p.next()
		return nil

	case token.LBRACE:
		return p.parseBlock()

	case token.DEFINE:
		return p.parseDefine()

	case token.IF:
		return p.parseIfStmt()

	case token.WHILE:
		return p.parseWhileStmt()

	case token.FOREACH:
		return p.parseForeachStmt()

	case token.BREAK:
		p.next()
		p.expectSemi()
		return &ast.BreakStmt{BaseStmt: ast.MakeBaseStmt(startPos, p.prevEnd)}

	case token.CONTINUE:
		p.next()
		p.expectSemi()
		return &ast.ContinueStmt{BaseStmt: ast.MakeBaseStmt(startPos, p.prevEnd)}

	case token.RETURN:
		p.next()
		var value ast.Expr
		if p.tok.Type != token.SEMICOLON {
			value = p.parseExpr()
		}
		p.expectSemi()
		return &ast.ReturnStmt{
			BaseStmt: ast.MakeBaseStmt(startPos, p.prevEnd),
			Value:    value,
		}

	default:
		return p.parseSimpleStmt()
	}
}

// expectSemi expects a statement terminator, resynchronizing on failure.
func (p *Parser) expectSemi() {
	if !p.expect(token.SEMICOLON) {
		p.sync()
	}
}

// parseDefine parses "define NAME [= expr];".
func (p *Parser) parseDefine() ast.Stmt {
	startPos := p.tok.Pos
	p.next() // consume 'define'

	name := p.expectIdent()
	if name == nil {
		p.sync()
		return nil
	}

	var value ast.Expr
	if p.tok.Type == token.ASSIGN {
		p.next()
		value = p.parseExpr()
	}
	p.expectSemi()

	return &ast.DefineStmt{
		BaseStmt: ast.MakeBaseStmt(startPos, p.prevEnd),
		Name:     name,
		Value:    value,
	}
}

// parseSimpleStmt parses assignments, increments, and call statements.
func (p *Parser) parseSimpleStmt() ast.Stmt {
	startPos := p.tok.Pos

	expr := p.parseExpr()
	if expr == nil {
		p.sync()
		return nil
	}

	var stmt ast.Stmt
	switch {
	case p.tok.Type.IsAssign():
		op := p.tok.Type
		if !ast.IsLValue(expr) {
			p.error(errorf(expr.Pos(), "cannot assign to %s", ast.String(expr)))
		}
		p.next()
		value := p.parseExpr()
		stmt = &ast.AssignStmt{
			BaseStmt: ast.MakeBaseStmt(startPos, p.prevEnd),
			Target:   expr,
			Op:       op,
			Value:    value,
		}

	case p.match(token.INCR, token.DECR):
		op := p.tok.Type
		if !ast.IsLValue(expr) {
			p.error(errorf(expr.Pos(), "cannot apply %s to %s", op, ast.String(expr)))
		}
		p.next()
		stmt = &ast.IncDecStmt{
			BaseStmt: ast.MakeBaseStmt(startPos, p.prevEnd),
			Target:   expr,
			Op:       op,
		}

	default:
		if _, ok := expr.(*ast.CallExpr); !ok {
			p.error(errorf(expr.Pos(), "%s is not a statement", ast.String(expr)))
		}
		stmt = &ast.ExprStmt{
			BaseStmt: ast.MakeBaseStmt(startPos, p.prevEnd),
			Expr:     expr,
		}
	}

	p.expectSemi()
	return stmt
}

// parseIfStmt parses an if statement. An empty condition is accepted
// here and reported by the semantic layer.
func (p *Parser) parseIfStmt() *ast.IfStmt {
	startPos := p.tok.Pos
	p.next() // consume 'if'

	p.expect(token.LPAREN)
	var cond ast.Expr
	if p.tok.Type != token.RPAREN {
		cond = p.parseExpr()
	}
	p.expect(token.RPAREN)

	then := p.parseBody()

	var elseStmt ast.Stmt
	if p.tok.Type == token.ELSE {
		p.next()
		elseStmt = p.parseBody()
	}

	return &ast.IfStmt{
		BaseStmt: ast.MakeBaseStmt(startPos, p.prevEnd),
		Cond:     cond,
		Then:     then,
		Else:     elseStmt,
	}
}

// parseWhileStmt parses a while loop.
func (p *Parser) parseWhileStmt() *ast.WhileStmt {
	startPos := p.tok.Pos
	p.next() // consume 'while'

	p.expect(token.LPAREN)
	cond := p.parseExpr()
	p.expect(token.RPAREN)

	body := p.parseBody()

	return &ast.WhileStmt{
		BaseStmt: ast.MakeBaseStmt(startPos, p.prevEnd),
		Cond:     cond,
		Body:     body,
	}
}

// parseForeachStmt parses "foreach (define NAME in expr) stmt".
func (p *Parser) parseForeachStmt() *ast.ForeachStmt {
	startPos := p.tok.Pos
	p.next() // consume 'foreach'

	p.expect(token.LPAREN)
	p.expect(token.DEFINE)
	v := p.expectIdent()
	p.expect(token.IN)
	coll := p.parseExpr()
	p.expect(token.RPAREN)

	body := p.parseBody()

	if v == nil {
		// already reported; keep the node so the body is still checked
		v = &ast.Ident{BaseExpr: ast.MakeBaseExpr(startPos, startPos)}
	}
	return &ast.ForeachStmt{
		BaseStmt:   ast.MakeBaseStmt(startPos, p.prevEnd),
		Var:        v,
		Collection: coll,
		Body:       body,
	}
}

// parseBody parses the statement controlled by if/while/foreach.
// A missing statement becomes an empty block.
func (p *Parser) parseBody() ast.Stmt {
	pos := p.tok.Pos
	if s := p.parseStmt(); s != nil {
		return s
	}
	return &ast.BlockStmt{BaseStmt: ast.MakeBaseStmt(pos, p.prevEnd)}
}

// -----------------------------------------------------------------------------
// Expression parsing
// -----------------------------------------------------------------------------

// parseExpr parses a full expression.
//
// Precedence, lowest first:
//
//	||
//	&&
//	== != < <= > >=
//	+ -
//	* / %
//	unary - !
//	^ (right-associative)
//	postfix [index]
func (p *Parser) parseExpr() ast.Expr {
	return p.parseOr()
}

func (p *Parser) parseOr() ast.Expr {
	return p.parseBinaryLeft(p.parseAnd, token.OR)
}

func (p *Parser) parseAnd() ast.Expr {
	return p.parseBinaryLeft(p.parseCompare, token.AND)
}

func (p *Parser) parseCompare() ast.Expr {
	return p.parseBinaryLeft(p.parseAdd,
		token.EQUALS, token.NOT_EQUALS, token.LESS, token.LTE, token.GREATER, token.GTE)
}

func (p *Parser) parseAdd() ast.Expr {
	return p.parseBinaryLeft(p.parseMul, token.ADD, token.SUB)
}

func (p *Parser) parseMul() ast.Expr {
	return p.parseBinaryLeft(p.parseUnary, token.MUL, token.DIV, token.MOD)
}

// parseUnary parses prefix - and !.
func (p *Parser) parseUnary() ast.Expr {
	if p.match(token.SUB, token.NOT) {
		startPos := p.tok.Pos
		op := p.tok.Type
		p.next()
		operand := p.parseUnary()
		if operand == nil {
			return nil
		}
		return &ast.UnaryExpr{
			BaseExpr: ast.MakeBaseExpr(startPos, operand.End()),
			Op:       op,
			Expr:     operand,
		}
	}
	return p.parsePow()
}

// parsePow parses exponentiation. The right operand may carry a sign.
func (p *Parser) parsePow() ast.Expr {
	expr := p.parsePostfix()
	if expr == nil {
		return nil
	}

	if p.tok.Type == token.POW {
		p.next()
		right := p.parseUnary() // Right-associative
		if right == nil {
			return expr
		}
		return &ast.BinaryExpr{
			BaseExpr: ast.MakeBaseExpr(expr.Pos(), right.End()),
			Left:     expr,
			Op:       token.POW,
			Right:    right,
		}
	}
	return expr
}

// parsePostfix parses index expressions.
func (p *Parser) parsePostfix() ast.Expr {
	expr := p.parsePrimary()
	if expr == nil {
		return nil
	}

	for p.tok.Type == token.LBRACKET {
		p.next()
		index := p.parseExpr()
		p.expect(token.RBRACKET)
		if index == nil {
			return expr
		}
		expr = &ast.IndexExpr{
			BaseExpr: ast.MakeBaseExpr(expr.Pos(), p.prevEnd),
			Array:    expr,
			Index:    index,
		}
	}
	return expr
}

// parsePrimary parses primary expressions.
func (p *Parser) parsePrimary() ast.Expr {
	startPos := p.tok.Pos

	switch p.tok.Type {
	case token.NUMBER:
		raw := p.tok.Value
		n, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			p.errorf("invalid number %q", raw)
		}
		p.next()
		return &ast.NumLit{
			BaseExpr: ast.MakeBaseExpr(startPos, p.prevEnd),
			Value:    n,
			Raw:      raw,
		}

	case token.STRING:
		s := p.tok.Value
		p.next()
		return &ast.StrLit{
			BaseExpr: ast.MakeBaseExpr(startPos, p.prevEnd),
			Value:    s,
		}

	case token.TRUE, token.FALSE:
		v := p.tok.Type == token.TRUE
		p.next()
		return &ast.BoolLit{
			BaseExpr: ast.MakeBaseExpr(startPos, p.prevEnd),
			Value:    v,
		}

	case token.NULL:
		p.next()
		return &ast.NullLit{BaseExpr: ast.MakeBaseExpr(startPos, p.prevEnd)}

	case token.NAME:
		name := p.tok.Value
		p.next()
		if p.tok.Type == token.LPAREN {
			return p.parseCall(name, startPos)
		}
		return &ast.Ident{
			BaseExpr: ast.MakeBaseExpr(startPos, p.prevEnd),
			Name:     name,
		}

	case token.LBRACKET:
		p.next()
		elems := p.parseExprList(token.RBRACKET)
		p.expect(token.RBRACKET)
		return &ast.ArrayLit{
			BaseExpr: ast.MakeBaseExpr(startPos, p.prevEnd),
			Elems:    elems,
		}

	case token.LPAREN:
		p.next()
		inner := p.parseExpr()
		p.expect(token.RPAREN)
		if inner == nil {
			return nil
		}
		return &ast.GroupExpr{
			BaseExpr: ast.MakeBaseExpr(startPos, p.prevEnd),
			Expr:     inner,
		}

	default:
		p.error(expectedError(p.tok.Pos, "expression", p.tokenDesc()))
		return nil
	}
}

// parseCall parses the argument list of a call; the name is consumed.
func (p *Parser) parseCall(name string, namePos token.Position) *ast.CallExpr {
	p.expect(token.LPAREN)
	args := p.parseExprList(token.RPAREN)
	p.expect(token.RPAREN)
	return &ast.CallExpr{
		BaseExpr: ast.MakeBaseExpr(namePos, p.prevEnd),
		Name:     name,
		NamePos:  namePos,
		Args:     args,
	}
}

// parseBinaryLeft parses a left-associative binary operator level.
func (p *Parser) parseBinaryLeft(higher func() ast.Expr, ops ...token.Token) ast.Expr {
	expr := higher()
	if expr == nil {
		return nil
	}

	for p.match(ops...) {
		op := p.tok.Type
		p.next()
		right := higher()
		if right == nil {
			break
		}
		expr = &ast.BinaryExpr{
			BaseExpr: ast.MakeBaseExpr(expr.Pos(), right.End()),
			Left:     expr,
			Op:       op,
			Right:    right,
		}
	}
	return expr
}

// parseExprList parses comma-separated expressions up to closer.
func (p *Parser) parseExprList(closer token.Token) []ast.Expr {
	var exprs []ast.Expr
	for !p.match(closer, token.EOF) {
		if len(exprs) > 0 && !p.expect(token.COMMA) {
			break
		}
		e := p.parseExpr()
		if e == nil {
			break
		}
		exprs = append(exprs, e)
	}
	return exprs
}
