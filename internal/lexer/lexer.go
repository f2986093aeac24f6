// Package lexer provides rule-language source tokenization.
package lexer

import (
	"github.com/ItsDeltin/Overwatch-Script-To-Workshop-sub001/internal/token"
)

// Lexer tokenizes rule-language source code.
type Lexer struct {
	src     []byte         // Source code
	ch      byte           // Current character (0 at EOF)
	offset  int            // Offset of the character after ch
	pos     token.Position // Position of ch
	nextPos token.Position // Position of next character
}

// New creates a new Lexer for the given source code.
func New(src []byte) *Lexer {
	return NewFile("", src)
}

// NewFile creates a Lexer whose positions carry filename.
func NewFile(filename string, src []byte) *Lexer {
	l := &Lexer{
		src: src,
		nextPos: token.Position{
			Filename: filename,
			Line:     1,
			Column:   1,
		},
	}
	l.next() // Initialize first character
	return l
}

// NewFromString creates a new Lexer from a string.
func NewFromString(src string) *Lexer {
	return New([]byte(src))
}

// Token represents a scanned token with its position and value.
type Token struct {
	Type  token.Token
	Pos   token.Position
	Value string
}

// Pos returns the position of the current character.
// At EOF this is the position just past the last character.
func (l *Lexer) Pos() token.Position {
	return l.pos
}

// Scan scans and returns the next token.
func (l *Lexer) Scan() Token {
	l.skipSpaceAndComments()

	pos := l.pos

	if l.ch == 0 {
		return Token{Type: token.EOF, Pos: pos}
	}

	switch l.ch {
	case '+':
		l.next()
		if l.ch == '+' {
			l.next()
			return Token{Type: token.INCR, Pos: pos, Value: "++"}
		}
		if l.ch == '=' {
			l.next()
			return Token{Type: token.ADD_ASSIGN, Pos: pos, Value: "+="}
		}
		return Token{Type: token.ADD, Pos: pos, Value: "+"}

	case '-':
		l.next()
		if l.ch == '-' {
			l.next()
			return Token{Type: token.DECR, Pos: pos, Value: "--"}
		}
		if l.ch == '=' {
			l.next()
			return Token{Type: token.SUB_ASSIGN, Pos: pos, Value: "-="}
		}
		return Token{Type: token.SUB, Pos: pos, Value: "-"}

	case '*':
		return l.withAssign(pos, token.MUL, token.MUL_ASSIGN)
	case '/':
		return l.withAssign(pos, token.DIV, token.DIV_ASSIGN)
	case '%':
		return l.withAssign(pos, token.MOD, token.MOD_ASSIGN)
	case '=':
		return l.withAssign(pos, token.ASSIGN, token.EQUALS)
	case '!':
		return l.withAssign(pos, token.NOT, token.NOT_EQUALS)
	case '<':
		return l.withAssign(pos, token.LESS, token.LTE)
	case '>':
		return l.withAssign(pos, token.GREATER, token.GTE)

	case '^':
		l.next()
		return Token{Type: token.POW, Pos: pos, Value: "^"}

	case '&':
		l.next()
		if l.ch == '&' {
			l.next()
			return Token{Type: token.AND, Pos: pos, Value: "&&"}
		}
		return Token{Type: token.ILLEGAL, Pos: pos, Value: "unexpected '&'"}

	case '|':
		l.next()
		if l.ch == '|' {
			l.next()
			return Token{Type: token.OR, Pos: pos, Value: "||"}
		}
		return Token{Type: token.ILLEGAL, Pos: pos, Value: "unexpected '|'"}

	case '(':
		return l.single(pos, token.LPAREN)
	case ')':
		return l.single(pos, token.RPAREN)
	case '{':
		return l.single(pos, token.LBRACE)
	case '}':
		return l.single(pos, token.RBRACE)
	case '[':
		return l.single(pos, token.LBRACKET)
	case ']':
		return l.single(pos, token.RBRACKET)
	case ',':
		return l.single(pos, token.COMMA)
	case ';':
		return l.single(pos, token.SEMICOLON)

	case '"':
		return l.scanString(pos)

	default:
		if isDigit(l.ch) || (l.ch == '.' && l.offset < len(l.src) && isDigit(l.src[l.offset])) {
			return l.scanNumber(pos)
		}
		if isIdentStart(l.ch) {
			return l.scanIdent(pos)
		}
		ch := l.ch
		l.next()
		return Token{Type: token.ILLEGAL, Pos: pos, Value: "unexpected character " + quoteByte(ch)}
	}
}

func (l *Lexer) single(pos token.Position, tok token.Token) Token {
	l.next()
	return Token{Type: tok, Pos: pos, Value: tok.String()}
}

// withAssign scans a one-character operator that has a two-character
// variant ending in '='.
func (l *Lexer) withAssign(pos token.Position, plain, withEq token.Token) Token {
	l.next()
	if l.ch == '=' {
		l.next()
		return Token{Type: withEq, Pos: pos, Value: withEq.String()}
	}
	return Token{Type: plain, Pos: pos, Value: plain.String()}
}

func (l *Lexer) scanString(pos token.Position) Token {
	l.next() // consume opening quote

	var sb []byte
	for l.ch != 0 && l.ch != '"' && l.ch != '\n' {
		if l.ch == '\\' {
			l.next()
			switch l.ch {
			case 'n':
				sb = append(sb, '\n')
			case 't':
				sb = append(sb, '\t')
			case 'r':
				sb = append(sb, '\r')
			case '\\':
				sb = append(sb, '\\')
			case '"':
				sb = append(sb, '"')
			case 0:
				return Token{Type: token.ILLEGAL, Pos: pos, Value: "unterminated string"}
			default:
				sb = append(sb, '\\', l.ch)
			}
			l.next()
			continue
		}
		sb = append(sb, l.ch)
		l.next()
	}

	if l.ch != '"' {
		return Token{Type: token.ILLEGAL, Pos: pos, Value: "unterminated string"}
	}
	l.next() // consume closing quote

	return Token{Type: token.STRING, Pos: pos, Value: string(sb)}
}

func (l *Lexer) scanNumber(pos token.Position) Token {
	start := pos.Offset
	for isDigit(l.ch) {
		l.next()
	}
	if l.ch == '.' {
		l.next()
		for isDigit(l.ch) {
			l.next()
		}
	}
	if (l.ch == 'e' || l.ch == 'E') && l.hasValidExponent() {
		l.next()
		if l.ch == '+' || l.ch == '-' {
			l.next()
		}
		for isDigit(l.ch) {
			l.next()
		}
	}
	return Token{Type: token.NUMBER, Pos: pos, Value: string(l.src[start:l.pos.Offset])}
}

func (l *Lexer) scanIdent(pos token.Position) Token {
	start := pos.Offset
	for isIdentContinue(l.ch) {
		l.next()
	}
	name := string(l.src[start:l.pos.Offset])
	return Token{Type: token.LookupIdent(name), Pos: pos, Value: name}
}

// hasValidExponent checks if current e/E is followed by a valid exponent.
func (l *Lexer) hasValidExponent() bool {
	idx := l.offset
	if idx >= len(l.src) {
		return false
	}
	ch := l.src[idx]
	if isDigit(ch) {
		return true
	}
	if ch == '+' || ch == '-' {
		idx++
		return idx < len(l.src) && isDigit(l.src[idx])
	}
	return false
}

func (l *Lexer) skipSpaceAndComments() {
	for {
		switch {
		case l.ch == ' ' || l.ch == '\t' || l.ch == '\r' || l.ch == '\n':
			l.next()
		case l.ch == '/' && l.peek() == '/':
			for l.ch != 0 && l.ch != '\n' {
				l.next()
			}
		case l.ch == '/' && l.peek() == '*':
			l.next()
			l.next()
			for l.ch != 0 && !(l.ch == '*' && l.peek() == '/') {
				l.next()
			}
			if l.ch != 0 {
				l.next()
				l.next()
			}
		default:
			return
		}
	}
}

func (l *Lexer) peek() byte {
	if l.offset >= len(l.src) {
		return 0
	}
	return l.src[l.offset]
}

// next advances one byte. Identifiers and operators are ASCII; non-ASCII
// bytes only appear inside strings and comments, where they pass through.
func (l *Lexer) next() {
	l.pos = l.nextPos
	if l.offset >= len(l.src) {
		l.ch = 0
		return
	}

	l.ch = l.src[l.offset]
	l.offset++
	l.nextPos.Offset = l.offset
	if l.ch == '\n' {
		l.nextPos.Line++
		l.nextPos.Column = 1
	} else {
		l.nextPos.Column++
	}
}

// Helper functions

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isIdentStart(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch == '_'
}

func isIdentContinue(ch byte) bool {
	return isIdentStart(ch) || isDigit(ch)
}

func quoteByte(ch byte) string {
	if ch >= 0x20 && ch < 0x7f {
		return "'" + string(rune(ch)) + "'"
	}
	const hex = "0123456789abcdef"
	return "'\\x" + string([]byte{hex[ch>>4], hex[ch&0xf]}) + "'"
}
