package syntax

import (
	"fmt"
	"io"
	"strings"

	"github.com/you-not-fish/ftypeinfo/internal/source"
)

// Scanner performs lexical analysis of declaration notation: type
// specifications, array specifications and constant expressions.
// Names are case-insensitive and reported in lower case.
type Scanner struct {
	reader

	tok    Token
	lit    string  // name, literal text without kind suffix, decoded string
	kind   LitKind // only valid when tok == _Literal
	suffix string  // kind parameter of a literal: the "8" of 1_8
	tokPos source.Pos

	litBuf strings.Builder
}

// NewScanner creates a Scanner for src.
// The errh function is called for each lexical error; if nil, errors are ignored.
func NewScanner(filename string, src io.Reader, errh func(line, col uint32, msg string)) *Scanner {
	return &Scanner{reader: *newReader(filename, src, errh)}
}

// Next advances to the next token.
func (s *Scanner) Next() {
	for isWhitespace(s.ch) {
		s.nextch()
	}
	s.tokPos = s.pos()
	s.lit = ""
	s.suffix = ""

	switch {
	case s.ch < 0:
		s.tok = _EOF
	case isLetter(s.ch):
		s.scanName()
	case isDigit(s.ch):
		s.scanNumber()
	case s.ch == '.':
		s.scanDot()
	case s.ch == '\'' || s.ch == '"':
		s.scanString()
	default:
		s.scanOperator()
	}
}

func (s *Scanner) Token() Token     { return s.tok }
func (s *Scanner) Literal() string  { return s.lit }
func (s *Scanner) LitKind() LitKind { return s.kind }
func (s *Scanner) Suffix() string   { return s.suffix }
func (s *Scanner) Pos() source.Pos  { return s.tokPos }

func (s *Scanner) errorf(format string, args ...interface{}) {
	s.error(fmt.Sprintf(format, args...))
}

func (s *Scanner) scanName() {
	s.litBuf.Reset()
	for isNameChar(s.ch) {
		s.litBuf.WriteRune(lower(s.ch))
		s.nextch()
	}
	s.tok = _Name
	s.lit = s.litBuf.String()
}

// scanNumber scans an integer or real literal and its kind suffix.
func (s *Scanner) scanNumber() {
	s.litBuf.Reset()
	s.kind = IntLit
	s.digits()
	if s.ch == '.' && s.peek() != '.' && !isLetter(s.peek()) {
		s.kind = RealLit
		s.litBuf.WriteRune('.')
		s.nextch()
		s.digits()
	}
	s.exponent()
	s.finishNumber()
}

func (s *Scanner) digits() {
	for isDigit(s.ch) {
		s.litBuf.WriteRune(s.ch)
		s.nextch()
	}
}

func (s *Scanner) exponent() {
	switch lower(s.ch) {
	case 'e', 'd':
	default:
		return
	}
	if n := s.peek(); !isDigit(n) && n != '+' && n != '-' {
		return
	}
	s.kind = RealLit
	s.litBuf.WriteRune(lower(s.ch))
	s.nextch()
	if s.ch == '+' || s.ch == '-' {
		s.litBuf.WriteRune(s.ch)
		s.nextch()
	}
	if !isDigit(s.ch) {
		s.errorf("exponent has no digits")
	}
	s.digits()
}

func (s *Scanner) finishNumber() {
	s.tok = _Literal
	s.lit = s.litBuf.String()
	s.kindSuffix()
}

// kindSuffix scans "_kind" after a literal.
func (s *Scanner) kindSuffix() {
	if s.ch != '_' || !isNameChar(s.peek()) {
		return
	}
	s.nextch()
	var b strings.Builder
	for isNameChar(s.ch) {
		b.WriteRune(lower(s.ch))
		s.nextch()
	}
	s.suffix = b.String()
}

// scanDot scans "..", a real literal starting with '.', or a dotted
// logical constant.
func (s *Scanner) scanDot() {
	switch n := s.peek(); {
	case n == '.':
		s.nextch()
		s.nextch()
		s.tok = _DotDot
	case isDigit(n):
		s.litBuf.Reset()
		s.litBuf.WriteString("0.")
		s.nextch()
		s.kind = RealLit
		s.digits()
		s.exponent()
		s.finishNumber()
	case isLetter(n):
		s.nextch()
		var b strings.Builder
		for isLetter(s.ch) {
			b.WriteRune(lower(s.ch))
			s.nextch()
		}
		word := b.String()
		if s.ch != '.' {
			s.errorf("unterminated .%s", word)
			s.tok = _Error
			return
		}
		s.nextch()
		if word != "true" && word != "false" {
			s.errorf("unknown operator .%s.", word)
			s.tok = _Error
			return
		}
		s.tok = _Literal
		s.kind = LogicalLit
		s.lit = word
		s.kindSuffix()
	default:
		s.nextch()
		s.errorf("unexpected '.'")
		s.tok = _Error
	}
}

// scanString scans a quoted character literal. A doubled quote stands
// for one quote character.
func (s *Scanner) scanString() {
	quote := s.ch
	s.nextch()
	s.litBuf.Reset()
	for {
		switch {
		case s.ch < 0 || s.ch == '\n':
			s.errorf("string literal not terminated")
			s.tok = _Error
			return
		case s.ch == quote:
			s.nextch()
			if s.ch != quote {
				s.tok = _Literal
				s.kind = StringLit
				s.lit = s.litBuf.String()
				return
			}
		}
		s.litBuf.WriteRune(s.ch)
		s.nextch()
	}
}

func (s *Scanner) scanOperator() {
	switch s.ch {
	case '=':
		s.tok = _Assign
	case '+':
		s.tok = _Add
	case '-':
		s.tok = _Sub
	case '*':
		s.tok = _Mul
	case '/':
		s.tok = _Div
	case '(':
		s.tok = _Lparen
	case ')':
		s.tok = _Rparen
	case ',':
		s.tok = _Comma
	case ':':
		s.tok = _Colon
	default:
		s.errorf("invalid character %q", s.ch)
		s.tok = _Error
	}
	s.nextch()
}
