package query

import (
	"fmt"
	"strconv"
	"unicode"
	"unicode/utf8"
)

type tokenKind int

const (
	tEOF tokenKind = iota
	tIdent
	tInt
	tColon
	tSemi
	tLParen
	tRParen
	tAnd
	tPar
	tQuot
	tLE
	tLT
	tGE
	tGT
	tEQ
	tArrow
	tAt
	tDot
	tMinus
	tSaveAs
)

var tokenNames = map[tokenKind]string{
	tEOF:    "end of input",
	tIdent:  "name",
	tInt:    "integer",
	tColon:  "':'",
	tSemi:   "';'",
	tLParen: "'('",
	tRParen: "')'",
	tAnd:    "'&&'",
	tPar:    "'||'",
	tQuot:   "'\\\\'",
	tLE:     "'<='",
	tLT:     "'<'",
	tGE:     "'>='",
	tGT:     "'>'",
	tEQ:     "'=='",
	tArrow:  "'->'",
	tAt:     "'@'",
	tDot:    "'.'",
	tMinus:  "'-'",
	tSaveAs: "'save-as'",
}

func (k tokenKind) String() string { return tokenNames[k] }

type token struct {
	kind tokenKind
	text string
	pos  Pos
	end  int
}

func (t token) describe() string {
	switch t.kind {
	case tIdent, tInt:
		return fmt.Sprintf("%q", t.text)
	default:
		return t.kind.String()
	}
}

// operators are matched longest first.
var operators = []struct {
	text string
	kind tokenKind
}{
	{"&&", tAnd}, {"||", tPar}, {"//", tPar}, {`\\`, tQuot}, {"<=", tLE}, {">=", tGE},
	{"==", tEQ}, {"->", tArrow}, {`\`, tQuot}, {"<", tLT}, {">", tGT}, {":", tColon},
	{";", tSemi}, {"(", tLParen}, {")", tRParen}, {"@", tAt}, {".", tDot}, {"-", tMinus},
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return isIdentStart(r) || unicode.IsDigit(r)
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

type lexer struct {
	src  string
	off  int
	line int
	col  int
}

func (l *lexer) pos() Pos { return Pos{Offset: l.off, Line: l.line, Column: l.col} }

func (l *lexer) advance(n int) {
	for i := 0; i < n; {
		r, size := utf8.DecodeRuneInString(l.src[l.off:])
		l.off += size
		i += size
		if r == '\n' {
			l.line++
			l.col = 1
		} else {
			l.col++
		}
	}
}

func (l *lexer) peekRune(at int) rune {
	if l.off+at >= len(l.src) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.src[l.off+at:])
	return r
}

// lex splits src into tokens, ending with tEOF.
func lex(src string) ([]token, error) {
	l := &lexer{src: src, line: 1, col: 1}
	var out []token
	for {
		for l.off < len(src) {
			switch l.peekRune(0) {
			case ' ', '\t', '\r', '\n':
				l.advance(1)
				continue
			}
			break
		}
		start := l.pos()
		if l.off >= len(src) {
			return append(out, token{kind: tEOF, pos: start, end: l.off}), nil
		}
		r := l.peekRune(0)
		switch {
		case isIdentStart(r):
			n := 0
			for l.off+n < len(src) {
				r, size := utf8.DecodeRuneInString(src[l.off+n:])
				if !isIdentPart(r) {
					break
				}
				n += size
			}
			text := src[l.off : l.off+n]
			if text == "save" && len(src) >= l.off+7 && src[l.off+4:l.off+7] == "-as" &&
				!isIdentPart(l.peekRune(7)) {
				l.advance(7)
				out = append(out, token{kind: tSaveAs, text: "save-as", pos: start, end: l.off})
				continue
			}
			l.advance(n)
			out = append(out, token{kind: tIdent, text: text, pos: start, end: l.off})
		case isDigit(r):
			n := 0
			for l.off+n < len(src) && isDigit(l.peekRune(n)) {
				n++
			}
			text := src[l.off : l.off+n]
			if _, err := strconv.ParseInt(text, 10, 64); err != nil {
				return nil, &ParseError{Pos: start, Message: fmt.Sprintf("integer %s out of range", text)}
			}
			l.advance(n)
			out = append(out, token{kind: tInt, text: text, pos: start, end: l.off})
		default:
			matched := false
			for _, op := range operators {
				if len(src)-l.off >= len(op.text) && src[l.off:l.off+len(op.text)] == op.text {
					l.advance(len(op.text))
					out = append(out, token{kind: op.kind, text: op.text, pos: start, end: l.off})
					matched = true
					break
				}
			}
			if !matched {
				return nil, &ParseError{Pos: start, Message: fmt.Sprintf("unexpected character %q", r)}
			}
		}
	}
}
