// Package source describes locations in Fortran source files.
package source

import "fmt"

// Pos is a position in a source file. The zero value is NoPos.
type Pos struct {
	file string // source file name
	line uint32 // 1-based line
	col  uint32 // 1-based column
}

// NoPos is the position of compiler-created entities.
var NoPos Pos

// NewPos returns the position at line:col of file.
func NewPos(file string, line, col uint32) Pos {
	return Pos{file: file, line: line, col: col}
}

// String formats p as "file:line:col", "line:col" without a file name,
// or "-" for NoPos.
func (p Pos) String() string {
	switch {
	case !p.IsValid():
		return "-"
	case p.file != "":
		return fmt.Sprintf("%s:%d:%d", p.file, p.line, p.col)
	default:
		return fmt.Sprintf("%d:%d", p.line, p.col)
	}
}

// IsValid reports whether p refers to a real source line.
func (p Pos) IsValid() bool {
	return p.line > 0
}

func (p Pos) File() string { return p.file }
func (p Pos) Line() uint32 { return p.line }
func (p Pos) Col() uint32  { return p.col }

// Before orders positions by file name, then line, then column.
// Invalid positions sort first.
func (p Pos) Before(q Pos) bool {
	if p.IsValid() != q.IsValid() {
		return !p.IsValid()
	}
	if p.file != q.file {
		return p.file < q.file
	}
	if p.line != q.line {
		return p.line < q.line
	}
	return p.col < q.col
}
