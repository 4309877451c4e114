package syntax

import (
	"io"
	"unicode/utf8"

	"github.com/you-not-fish/ftypeinfo/internal/source"
)

// reader is a character reader with position tracking over UTF-8 text.
type reader struct {
	buf []byte // entire input

	filename string
	line     uint32 // 1-based
	col      uint32 // 1-based, counted in runes

	ch   rune // current character, -1 at EOF
	offs int  // byte offset after ch

	errh func(line, col uint32, msg string)
}

// newReader reads all of src. The errh function is called for each
// error; if nil, errors are ignored.
func newReader(filename string, src io.Reader, errh func(line, col uint32, msg string)) *reader {
	s := &reader{
		filename: filename,
		line:     1,
		ch:       -1,
		errh:     errh,
	}
	var err error
	s.buf, err = io.ReadAll(src)
	if err != nil {
		s.error("error reading source: " + err.Error())
		return s
	}
	s.nextch()
	return s
}

// nextch advances to the next character. After it returns, (line, col)
// is the position of s.ch.
func (s *reader) nextch() {
	if s.ch == '\n' {
		s.line++
		s.col = 1
	} else {
		s.col++
	}
	if s.offs >= len(s.buf) {
		s.ch = -1
		return
	}
	r, width := utf8.DecodeRune(s.buf[s.offs:])
	if r == utf8.RuneError && width == 1 {
		s.error("invalid UTF-8 encoding")
	}
	s.ch = r
	s.offs += width
}

// peek returns the character after s.ch without consuming it.
func (s *reader) peek() rune {
	if s.offs >= len(s.buf) {
		return -1
	}
	r, _ := utf8.DecodeRune(s.buf[s.offs:])
	return r
}

func (s *reader) pos() source.Pos {
	return source.NewPos(s.filename, s.line, s.col)
}

func (s *reader) error(msg string) {
	if s.errh != nil {
		s.errh(s.line, s.col, msg)
	}
}

func isLetter(r rune) bool {
	return 'a' <= r && r <= 'z' || 'A' <= r && r <= 'Z'
}

func isDigit(r rune) bool {
	return '0' <= r && r <= '9'
}

// isNameChar reports whether r may continue a Fortran name.
func isNameChar(r rune) bool {
	return isLetter(r) || isDigit(r) || r == '_' || r == '$'
}

// lower maps ASCII upper-case letters to lower case.
func lower(r rune) rune {
	if 'A' <= r && r <= 'Z' {
		return r + ('a' - 'A')
	}
	return r
}

func isWhitespace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\r' || r == '\n'
}
