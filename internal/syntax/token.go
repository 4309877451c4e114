package syntax

import "fmt"

// Token represents the type of a lexical token.
type Token uint

const (
	_EOF   Token = iota // end of input
	_Error              // lexical error

	_Name    // identifier, lower-cased: integer, k, my_type
	_Literal // literal value (used with LitKind)

	// Operators (ordered by precedence, low to high)
	_Assign // =

	_Add // +
	_Sub // -

	_Mul // *
	_Div // /

	// Delimiters
	_Lparen // (
	_Rparen // )
	_Comma  // ,
	_Colon  // :
	_DotDot // ..

	tokenCount
)

var tokenNames = [...]string{
	_EOF:   "EOF",
	_Error: "ERROR",

	_Name:    "NAME",
	_Literal: "LITERAL",

	_Assign: "=",

	_Add: "+",
	_Sub: "-",

	_Mul: "*",
	_Div: "/",

	_Lparen: "(",
	_Rparen: ")",
	_Comma:  ",",
	_Colon:  ":",
	_DotDot: "..",
}

func (t Token) String() string {
	if t < tokenCount {
		return tokenNames[t]
	}
	return fmt.Sprintf("token(%d)", t)
}

// Precedence returns the precedence of a binary operator, 0 for other
// tokens.
//
//	1: + -
//	2: * /
func (t Token) Precedence() int {
	switch t {
	case _Add, _Sub:
		return 1
	case _Mul, _Div:
		return 2
	}
	return 0
}

// IsOperator reports whether t is an arithmetic operator.
func (t Token) IsOperator() bool {
	return t >= _Add && t <= _Div
}

// Exported operator tokens for the program loader.
const (
	Add Token = _Add
	Sub Token = _Sub
	Mul Token = _Mul
	Div Token = _Div
)

// LitKind represents the kind of a literal token.
type LitKind uint8

const (
	IntLit     LitKind = iota // 42, 8_8
	RealLit                   // 1.5, 2.0d0, .5e-3_4
	StringLit                 // 'abc', "it''s"
	LogicalLit                // .true., .false._1
)

var litKindNames = [...]string{
	IntLit:     "int",
	RealLit:    "real",
	StringLit:  "string",
	LogicalLit: "logical",
}

func (k LitKind) String() string {
	if k <= LogicalLit {
		return litKindNames[k]
	}
	return fmt.Sprintf("LitKind(%d)", k)
}
