// Package syntax implements lexical and syntactic analysis of Fortran
// declaration notation as it appears in program descriptions: type
// specifications such as "type(matrix(k=8,n=*))", array specifications
// such as "(0:n-1,:)", and constant expressions.
package syntax

import "github.com/you-not-fish/ftypeinfo/internal/source"

// ----------------------------------------------------------------------------
// Interfaces

// Node is the interface implemented by all AST nodes.
type Node interface {
	Pos() source.Pos // position of first character belonging to the node
	aNode()          // marker method to restrict implementations to this package
}

// Expr is the interface for all expression nodes.
type Expr interface {
	Node
	aExpr()
}

// ----------------------------------------------------------------------------
// Base node types

type node struct {
	pos source.Pos
}

func (n *node) Pos() source.Pos { return n.pos }
func (n *node) aNode()          {}

type expr struct{ node }

func (*expr) aExpr() {}

// ----------------------------------------------------------------------------
// Specifications

// TypeSpec is a declaration type specification.
//
//	integer(kind=8)       Keyword "integer", Params [kind=8]
//	character(len=*)      Keyword "character", Params [len=*]
//	type(p(k=4,n=:))      Keyword "type", Derived p(k=4,n=:)
//	class(*)              Keyword "class", Star
type TypeSpec struct {
	node
	Keyword string       // integer, real, complex, logical, character, doubleprecision, type, class
	Params  []*Param     // kind and length selectors of an intrinsic type
	Derived *DerivedSpec // for type(...) and class(...) unless Star
	Star    bool         // type(*) or class(*)
}

// IsDerived reports whether s names a derived type.
func (s *TypeSpec) IsDerived() bool { return s.Derived != nil }

// DerivedSpec is a derived type name with optional type parameter values.
type DerivedSpec struct {
	node
	Name   *Name
	Params []*Param
}

// Param is a type parameter value or a kind/length selector,
// optionally introduced by a keyword: "k=4", "*", "len=:".
type Param struct {
	node
	Keyword string // "" when positional
	Value   Expr   // nil for * and :
	Star    bool   // *
	Colon   bool   // :
}

// Shape is an array specification. A nil *Shape is a scalar.
//
//	(3)        Dims [{Upper 3}]
//	(0:n,:)    Dims [{Lower 0, Upper n}, {Colon}]
//	(*)        Dims [{Star}]
//	(..)       AssumedRank
type Shape struct {
	node
	Dims        []*Dim
	AssumedRank bool
}

// Dim is one dimension of a Shape. Lower is nil when omitted; Upper is
// nil for ":" and "*" upper bounds.
type Dim struct {
	node
	Lower Expr
	Upper Expr
	Colon bool // the dimension contains ':'
	Star  bool // the upper bound is '*'
}

// IsDeferred reports whether d is ":".
func (d *Dim) IsDeferred() bool {
	return d.Colon && d.Lower == nil && d.Upper == nil && !d.Star
}

// ----------------------------------------------------------------------------
// Expressions

// Name is an identifier, lower-cased.
type Name struct {
	expr
	Value string
}

// BasicLit is a literal constant. For strings Value is the decoded text;
// for logicals "true" or "false". Kind is the kind parameter suffix, "" if
// none.
type BasicLit struct {
	expr
	Value   string
	LitKind LitKind
	Kind    string
}

// Operation is a unary (Y == nil) or binary arithmetic operation.
type Operation struct {
	expr
	Op   Token
	X, Y Expr
}

// ParenExpr is a parenthesized expression.
type ParenExpr struct {
	expr
	X Expr
}

// CallExpr is an intrinsic function reference such as null().
type CallExpr struct {
	expr
	Fun  *Name
	Args []Expr
}
