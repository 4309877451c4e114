package semantics

import (
	"strconv"
	"strings"
)

// Expr is a constant expression or an initializer form. Expressions are
// immutable once built.
type Expr interface {
	String() string
	aExpr()
}

type expr struct{}

func (expr) aExpr() {}

// IntConst is an INTEGER constant. Kind 0 means default kind.
type IntConst struct {
	expr
	Value int64
	Kind  int
}

// Int returns a default-kind integer constant.
func Int(v int64) *IntConst { return &IntConst{Value: v} }

// IntKind returns an integer constant of the given kind.
func IntKind(v int64, kind int) *IntConst { return &IntConst{Value: v, Kind: kind} }

func (e *IntConst) String() string {
	s := strconv.FormatInt(e.Value, 10)
	if e.Kind != 0 {
		s += "_" + strconv.Itoa(e.Kind)
	}
	return s
}

// RealConst is a REAL constant.
type RealConst struct {
	expr
	Value float64
	Kind  int
}

func (e *RealConst) String() string {
	s := strconv.FormatFloat(e.Value, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eEnN") {
		s += "."
	}
	if e.Kind != 0 {
		s += "_" + strconv.Itoa(e.Kind)
	}
	return s
}

// ComplexConst is a COMPLEX constant.
type ComplexConst struct {
	expr
	Re, Im float64
	Kind   int
}

func (e *ComplexConst) String() string {
	re := &RealConst{Value: e.Re, Kind: e.Kind}
	im := &RealConst{Value: e.Im, Kind: e.Kind}
	return "(" + re.String() + "," + im.String() + ")"
}

// LogicalConst is a LOGICAL constant.
type LogicalConst struct {
	expr
	Value bool
	Kind  int
}

func (e *LogicalConst) String() string {
	s := ".false."
	if e.Value {
		s = ".true."
	}
	if e.Kind != 0 {
		s += "_" + strconv.Itoa(e.Kind)
	}
	return s
}

// CharConst is a CHARACTER constant.
type CharConst struct {
	expr
	Value string
	Kind  int
}

// Str returns a default-kind character constant.
func Str(s string) *CharConst { return &CharConst{Value: s} }

func (e *CharConst) String() string {
	return "'" + strings.ReplaceAll(e.Value, "'", "''") + "'"
}

// ParamRef names a type parameter of the enclosing derived type.
type ParamRef struct {
	expr
	Name string
}

func (e *ParamRef) String() string { return e.Name }

// Negate is unary minus.
type Negate struct {
	expr
	X Expr
}

func (e *Negate) String() string { return "(-" + e.X.String() + ")" }

// BinaryOp is an arithmetic operator.
type BinaryOp int

const (
	Add BinaryOp = iota
	Sub
	Mul
	Div
)

func (op BinaryOp) String() string {
	return [...]string{"+", "-", "*", "/"}[op]
}

// Binary is X op Y.
type Binary struct {
	expr
	Op   BinaryOp
	X, Y Expr
}

func (e *Binary) String() string {
	return "(" + e.X.String() + e.Op.String() + e.Y.String() + ")"
}

// Null is the NULL() intrinsic reference; a disassociated pointer or
// address.
type Null struct {
	expr
}

func (*Null) String() string { return "NULL()" }

// Designator references a named object or procedure: an initial data
// target, a procedure target, or a named constant.
type Designator struct {
	expr
	Symbol *Symbol
}

// Ref returns a designator of sym.
func Ref(sym *Symbol) *Designator { return &Designator{Symbol: sym} }

func (e *Designator) String() string { return e.Symbol.Name() }

// ComponentValue is one component of a structure constructor.
type ComponentValue struct {
	Name  string
	Value Expr
}

// StructureCtor is a structure constructor t(c1=v1, ...).
type StructureCtor struct {
	expr
	Spec   *DerivedTypeSpec
	Values []ComponentValue
}

// Find returns the value given for the named component.
func (e *StructureCtor) Find(name string) Expr {
	for _, v := range e.Values {
		if v.Name == name {
			return v.Value
		}
	}
	return nil
}

func (e *StructureCtor) String() string {
	var buf strings.Builder
	buf.WriteString(e.Spec.Name())
	buf.WriteString("(")
	for i, v := range e.Values {
		if i > 0 {
			buf.WriteString(",")
		}
		buf.WriteString(v.Name)
		buf.WriteString("=")
		buf.WriteString(v.Value.String())
	}
	buf.WriteString(")")
	return buf.String()
}

// ArrayCtor is an array constructor [T :: v1, v2, ...]. Shape holds the
// extents when the array has rank > 1, with elements in column-major
// order.
type ArrayCtor struct {
	expr
	Type   *DeclTypeSpec
	Values []Expr
	Shape  []int64
}

func (e *ArrayCtor) String() string {
	var buf strings.Builder
	buf.WriteString("[")
	if e.Type != nil {
		buf.WriteString(typeCtorName(e.Type))
		buf.WriteString("::")
	}
	for i, v := range e.Values {
		if i > 0 {
			buf.WriteString(",")
		}
		buf.WriteString(v.String())
	}
	buf.WriteString("]")
	if len(e.Shape) > 1 {
		dims := make([]string, len(e.Shape))
		for i, n := range e.Shape {
			dims[i] = strconv.FormatInt(n, 10)
		}
		return "reshape(" + buf.String() + ",[" + strings.Join(dims, ",") + "])"
	}
	return buf.String()
}

func typeCtorName(t *DeclTypeSpec) string {
	if d := t.AsDerived(); d != nil {
		return d.String()
	}
	return t.String()
}
