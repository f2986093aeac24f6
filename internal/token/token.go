// Package token defines lexical tokens for the rule language.
package token

import "strconv"

// Token represents a lexical token type.
type Token uint8

const (
	// Special tokens
	ILLEGAL Token = iota // <illegal>
	EOF                  // EOF

	// Operators and delimiters
	operatorStart
	ADD        // +
	ADD_ASSIGN // +=
	SUB        // -
	SUB_ASSIGN // -=
	MUL        // *
	MUL_ASSIGN // *=
	DIV        // /
	DIV_ASSIGN // /=
	MOD        // %
	MOD_ASSIGN // %=
	POW        // ^

	ASSIGN     // =
	EQUALS     // ==
	NOT_EQUALS // !=
	LESS       // <
	LTE        // <=
	GREATER    // >
	GTE        // >=

	AND // &&
	OR  // ||
	NOT // !

	INCR // ++
	DECR // --

	LPAREN    // (
	RPAREN    // )
	LBRACE    // {
	RBRACE    // }
	LBRACKET  // [
	RBRACKET  // ]
	COMMA     // ,
	SEMICOLON // ;
	operatorEnd

	// Keywords
	keywordStart
	RULE      // rule
	GLOBALVAR // globalvar
	DEFINE    // define
	FUNCTION  // function
	IF        // if
	ELSE      // else
	WHILE     // while
	FOREACH   // foreach
	IN        // in
	BREAK     // break
	CONTINUE  // continue
	RETURN    // return
	TRUE      // true
	FALSE     // false
	NULL      // null
	keywordEnd

	// Literals
	NAME   // name
	NUMBER // number
	STRING // string
)

var names = [...]string{
	ILLEGAL:    "illegal",
	EOF:        "end of file",
	ADD:        "+",
	ADD_ASSIGN: "+=",
	SUB:        "-",
	SUB_ASSIGN: "-=",
	MUL:        "*",
	MUL_ASSIGN: "*=",
	DIV:        "/",
	DIV_ASSIGN: "/=",
	MOD:        "%",
	MOD_ASSIGN: "%=",
	POW:        "^",
	ASSIGN:     "=",
	EQUALS:     "==",
	NOT_EQUALS: "!=",
	LESS:       "<",
	LTE:        "<=",
	GREATER:    ">",
	GTE:        ">=",
	AND:        "&&",
	OR:         "||",
	NOT:        "!",
	INCR:       "++",
	DECR:       "--",
	LPAREN:     "(",
	RPAREN:     ")",
	LBRACE:     "{",
	RBRACE:     "}",
	LBRACKET:   "[",
	RBRACKET:   "]",
	COMMA:      ",",
	SEMICOLON:  ";",
	RULE:       "rule",
	GLOBALVAR:  "globalvar",
	DEFINE:     "define",
	FUNCTION:   "function",
	IF:         "if",
	ELSE:       "else",
	WHILE:      "while",
	FOREACH:    "foreach",
	IN:         "in",
	BREAK:      "break",
	CONTINUE:   "continue",
	RETURN:     "return",
	TRUE:       "true",
	FALSE:      "false",
	NULL:       "null",
	NAME:       "name",
	NUMBER:     "number",
	STRING:     "string",
}

// String returns the source spelling of operators and keywords,
// or a descriptive name for the other tokens.
func (t Token) String() string {
	if int(t) < len(names) && names[t] != "" {
		return names[t]
	}
	return "token(" + strconv.Itoa(int(t)) + ")"
}

// IsOperator returns true if the token is an operator.
func (t Token) IsOperator() bool {
	return t > operatorStart && t < operatorEnd
}

// IsKeyword returns true if the token is a keyword.
func (t Token) IsKeyword() bool {
	return t > keywordStart && t < keywordEnd
}

// IsLiteral returns true if the token is a literal (name, number, string).
func (t Token) IsLiteral() bool {
	return t == NAME || t == NUMBER || t == STRING
}

// IsAssign returns true for = and the compound assignment operators.
func (t Token) IsAssign() bool {
	switch t {
	case ASSIGN, ADD_ASSIGN, SUB_ASSIGN, MUL_ASSIGN, DIV_ASSIGN, MOD_ASSIGN:
		return true
	}
	return false
}

// keywords maps keyword strings to their token types.
var keywords = map[string]Token{
	"rule":      RULE,
	"globalvar": GLOBALVAR,
	"define":    DEFINE,
	"function":  FUNCTION,
	"if":        IF,
	"else":      ELSE,
	"while":     WHILE,
	"foreach":   FOREACH,
	"in":        IN,
	"break":     BREAK,
	"continue":  CONTINUE,
	"return":    RETURN,
	"true":      TRUE,
	"false":     FALSE,
	"null":      NULL,
}

// LookupIdent returns the token type for a given identifier.
// Returns a keyword token if found, otherwise NAME.
func LookupIdent(ident string) Token {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return NAME
}
