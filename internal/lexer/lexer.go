package lexer

import (
	"math"
	"strconv"
	"unicode"
	"unicode/utf8"

	"github.com/funvibe/mscript/internal/diagnostics"
	"github.com/funvibe/mscript/internal/token"
)

type Lexer struct {
	input        string
	position     int  // current position in input (points to current char)
	readPosition int  // current reading position in input (after current char)
	ch           rune // current char under examination
	line         int  // current line number
	column       int  // current column number

	// pending is set when whitespace skipping hits an unterminated comment.
	pending *token.Token
}

func New(input string) *Lexer {
	l := &Lexer{input: input, line: 1, column: 0}
	l.readChar()
	return l
}

func (l *Lexer) readChar() {
	if l.ch == '\n' {
		l.line++
		l.column = 0
	}

	if l.readPosition >= len(l.input) {
		l.ch = 0
	} else {
		r, w := utf8.DecodeRuneInString(l.input[l.readPosition:])
		l.ch = r
		l.position = l.readPosition
		l.readPosition += w
		l.column++
		return
	}

	l.position = l.readPosition
	l.readPosition++
	l.column++
}

// NextToken returns the next token. Errors surface as ILLEGAL tokens whose
// Literal is the diagnostic code and Lexeme the offending text.
func (l *Lexer) NextToken() token.Token {
	var tok token.Token

	l.skipWhitespace()
	if l.pending != nil {
		tok = *l.pending
		l.pending = nil
		return tok
	}

	switch l.ch {
	case '=':
		tok = l.either('=', token.EQ, token.ASSIGN)
	case '+':
		tok = l.either('=', token.PLUS_ASSIGN, token.PLUS)
	case '-':
		if l.peekChar() == '>' {
			tok = l.twoChar(token.ARROW)
		} else {
			tok = l.either('=', token.MINUS_ASSIGN, token.MINUS)
		}
	case '*':
		tok = l.either('=', token.ASTERISK_ASSIGN, token.ASTERISK)
	case '/':
		tok = l.either('=', token.SLASH_ASSIGN, token.SLASH)
	case '%':
		tok = l.either('=', token.PERCENT_ASSIGN, token.PERCENT)
	case '!':
		tok = l.either('=', token.NOT_EQ, token.BANG)
	case '<':
		tok = l.either('=', token.LTE, token.LT)
	case '>':
		tok = l.either('=', token.GTE, token.GT)
	case '&':
		if l.peekChar() == '&' {
			tok = l.twoChar(token.AND)
		} else {
			tok = l.illegal(diagnostics.ErrL001, string(l.ch))
		}
	case '|':
		if l.peekChar() == '|' {
			tok = l.twoChar(token.OR)
		} else {
			tok = l.illegal(diagnostics.ErrL001, string(l.ch))
		}
	case ',':
		tok = newToken(token.COMMA, l.ch, l.line, l.column)
	case ';':
		tok = newToken(token.SEMICOLON, l.ch, l.line, l.column)
	case ':':
		tok = newToken(token.COLON, l.ch, l.line, l.column)
	case '.':
		tok = newToken(token.DOT, l.ch, l.line, l.column)
	case '(':
		tok = newToken(token.LPAREN, l.ch, l.line, l.column)
	case ')':
		tok = newToken(token.RPAREN, l.ch, l.line, l.column)
	case '{':
		tok = newToken(token.LBRACE, l.ch, l.line, l.column)
	case '}':
		tok = newToken(token.RBRACE, l.ch, l.line, l.column)
	case '[':
		tok = newToken(token.LBRACKET, l.ch, l.line, l.column)
	case ']':
		tok = newToken(token.RBRACKET, l.ch, l.line, l.column)
	case '"':
		// readString leaves l.ch on the closing quote (or on EOF)
		return l.readString()
	case 0:
		tok = token.Token{Type: token.EOF, Lexeme: "", Literal: "", Line: l.line, Column: l.column}
		return tok
	default:
		if isLetter(l.ch) {
			line, col := l.line, l.column
			ident := l.readIdentifier()
			return token.Token{Type: token.LookupIdent(ident), Lexeme: ident, Literal: ident, Line: line, Column: col}
		}
		if isDigit(l.ch) {
			return l.readNumber()
		}
		tok = l.illegal(diagnostics.ErrL001, string(l.ch))
	}

	l.readChar()
	return tok
}

// Tokenize lexes the whole input. The returned slice always ends with EOF
// unless an ILLEGAL token was produced, in which case lexing stops there.
func Tokenize(input string) []token.Token {
	l := New(input)
	var tokens []token.Token
	for {
		tok := l.NextToken()
		tokens = append(tokens, tok)
		if tok.Type == token.EOF || tok.Type == token.ILLEGAL {
			return tokens
		}
	}
}

func (l *Lexer) either(next rune, matched, single token.TokenType) token.Token {
	if l.peekChar() == next {
		return l.twoChar(matched)
	}
	return newToken(single, l.ch, l.line, l.column)
}

func (l *Lexer) twoChar(tokenType token.TokenType) token.Token {
	line, col := l.line, l.column
	ch := l.ch
	l.readChar()
	literal := string(ch) + string(l.ch)
	return token.Token{Type: tokenType, Lexeme: literal, Literal: literal, Line: line, Column: col}
}

func (l *Lexer) illegal(code diagnostics.ErrorCode, lexeme string) token.Token {
	return token.Token{Type: token.ILLEGAL, Lexeme: lexeme, Literal: code, Line: l.line, Column: l.column}
}

func (l *Lexer) readString() token.Token {
	startLine, startCol := l.line, l.column
	var result []byte
	buf := make([]byte, 4)

	for {
		l.readChar()
		switch l.ch {
		case 0, '\n':
			return token.Token{Type: token.ILLEGAL, Lexeme: "\"" + string(result), Literal: diagnostics.ErrL002, Line: startLine, Column: startCol}
		case '"':
			l.readChar() // consume closing quote
			s := string(result)
			return token.Token{Type: token.STRING, Lexeme: strconv.Quote(s), Literal: s, Line: startLine, Column: startCol}
		case '\\':
			l.readChar()
			switch l.ch {
			case 'n':
				result = append(result, '\n')
			case 't':
				result = append(result, '\t')
			case 'r':
				result = append(result, '\r')
			case '0':
				result = append(result, 0)
			case '\\':
				result = append(result, '\\')
			case '"':
				result = append(result, '"')
			default:
				return token.Token{Type: token.ILLEGAL, Lexeme: "\\" + string(l.ch), Literal: diagnostics.ErrL002, Line: l.line, Column: l.column}
			}
		default:
			n := utf8.EncodeRune(buf, l.ch)
			result = append(result, buf[:n]...)
		}
	}
}

func (l *Lexer) readIdentifier() string {
	position := l.position
	for isLetter(l.ch) || isDigit(l.ch) {
		l.readChar()
	}
	return l.input[position:l.position]
}

func (l *Lexer) readNumber() token.Token {
	startLine, startCol := l.line, l.column
	position := l.position
	isHex := false
	isFloat := false

	if l.ch == '0' && (l.peekChar() == 'x' || l.peekChar() == 'X') {
		isHex = true
		l.readChar()
		l.readChar()
		for isHexDigit(l.ch) {
			l.readChar()
		}
	} else {
		for isDigit(l.ch) {
			l.readChar()
		}
		// Check for float dot
		if l.ch == '.' && isDigit(l.peekChar()) {
			isFloat = true
			l.readChar() // .
			for isDigit(l.ch) {
				l.readChar()
			}
		}
		if l.ch == 'e' || l.ch == 'E' {
			isFloat = true
			l.readChar()
			if l.ch == '+' || l.ch == '-' {
				l.readChar()
			}
			if !isDigit(l.ch) {
				return l.malformedNumber(position, startLine, startCol)
			}
			for isDigit(l.ch) {
				l.readChar()
			}
		}
	}

	// A number glued to letters (12abc, 0x) is malformed, not two tokens.
	if isLetter(l.ch) || (isHex && l.position-position == 2) {
		return l.malformedNumber(position, startLine, startCol)
	}

	lexeme := l.input[position:l.position]
	if isFloat {
		val, err := strconv.ParseFloat(lexeme, 64)
		if err != nil {
			return token.Token{Type: token.ILLEGAL, Lexeme: lexeme, Literal: diagnostics.ErrL003, Line: startLine, Column: startCol}
		}
		return token.Token{Type: token.FLOAT, Lexeme: lexeme, Literal: val, Line: startLine, Column: startCol}
	}

	// strconv.ParseInt(s, 0, 64) auto-detects the 0x prefix
	val, err := strconv.ParseInt(lexeme, 0, 64)
	if err != nil {
		// 1<<63 is only valid negated; the parser rejects it anywhere else.
		if u, uerr := strconv.ParseUint(lexeme, 0, 64); uerr == nil && u == 1<<63 {
			return token.Token{Type: token.INT, Lexeme: lexeme, Literal: int64(math.MinInt64), Line: startLine, Column: startCol}
		}
		return token.Token{Type: token.ILLEGAL, Lexeme: lexeme, Literal: diagnostics.ErrL003, Line: startLine, Column: startCol}
	}
	return token.Token{Type: token.INT, Lexeme: lexeme, Literal: val, Line: startLine, Column: startCol}
}

func (l *Lexer) malformedNumber(position, line, col int) token.Token {
	for isLetter(l.ch) || isDigit(l.ch) {
		l.readChar()
	}
	return token.Token{Type: token.ILLEGAL, Lexeme: l.input[position:l.position], Literal: diagnostics.ErrL003, Line: line, Column: col}
}

func isHexDigit(ch rune) bool {
	return isDigit(ch) || ('a' <= ch && ch <= 'f') || ('A' <= ch && ch <= 'F')
}

func isLetter(ch rune) bool {
	return 'a' <= ch && ch <= 'z' || 'A' <= ch && ch <= 'Z' || ch == '_' || (ch >= 0x80 && unicode.IsLetter(ch))
}

func isDigit(ch rune) bool {
	return '0' <= ch && ch <= '9'
}

func (l *Lexer) peekChar() rune {
	if l.readPosition >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.readPosition:])
	return r
}

func newToken(tokenType token.TokenType, ch rune, line, col int) token.Token {
	literal := string(ch)
	return token.Token{Type: tokenType, Lexeme: literal, Literal: literal, Line: line, Column: col}
}

func (l *Lexer) skipWhitespace() {
	for {
		for l.ch == ' ' || l.ch == '\t' || l.ch == '\r' || l.ch == '\n' {
			l.readChar()
		}
		// Handle comments
		if l.ch == '/' {
			if l.peekChar() == '/' {
				l.readChar() // consume first /
				l.readChar() // consume second /
				for l.ch != '\n' && l.ch != 0 {
					l.readChar()
				}
				continue
			} else if l.peekChar() == '*' {
				line, col := l.line, l.column
				l.readChar() // consume /
				l.readChar() // consume *
				closed := false
				for l.ch != 0 {
					if l.ch == '*' && l.peekChar() == '/' {
						l.readChar() // consume *
						l.readChar() // consume /
						closed = true
						break
					}
					l.readChar()
				}
				if !closed {
					l.pending = &token.Token{Type: token.ILLEGAL, Lexeme: "/*", Literal: diagnostics.ErrL002, Line: line, Column: col}
					return
				}
				continue
			}
		}
		break
	}
}
