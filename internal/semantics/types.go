package semantics

import (
	"fmt"
	"strings"
)

// TypeCategory is the category of an intrinsic type.
type TypeCategory int

const (
	Integer TypeCategory = iota
	Real
	Complex
	Character
	Logical
)

func (c TypeCategory) String() string {
	switch c {
	case Integer:
		return "integer"
	case Real:
		return "real"
	case Complex:
		return "complex"
	case Character:
		return "character"
	case Logical:
		return "logical"
	}
	return fmt.Sprintf("TypeCategory(%d)", int(c))
}

// ParamCategory tells how a type parameter value is given.
type ParamCategory int

const (
	ParamExplicit ParamCategory = iota // an expression
	ParamAssumed                       // *
	ParamDeferred                      // :
)

// ParamValue is the value of a kind or length type parameter, or a
// character length.
type ParamValue struct {
	Category ParamCategory
	Expr     Expr // for ParamExplicit
}

// ExplicitParam returns a ParamValue holding e.
func ExplicitParam(e Expr) ParamValue {
	return ParamValue{Category: ParamExplicit, Expr: e}
}

// AssumedParam returns the * value.
func AssumedParam() ParamValue { return ParamValue{Category: ParamAssumed} }

// DeferredParam returns the : value.
func DeferredParam() ParamValue { return ParamValue{Category: ParamDeferred} }

func (v ParamValue) IsExplicit() bool { return v.Category == ParamExplicit }
func (v ParamValue) IsAssumed() bool  { return v.Category == ParamAssumed }
func (v ParamValue) IsDeferred() bool { return v.Category == ParamDeferred }

// Int64 returns the value when it is an integer constant.
func (v ParamValue) Int64() (int64, bool) {
	if v.Category != ParamExplicit || v.Expr == nil {
		return 0, false
	}
	return ToInt64(v.Expr)
}

func (v ParamValue) String() string {
	switch v.Category {
	case ParamAssumed:
		return "*"
	case ParamDeferred:
		return ":"
	}
	if v.Expr == nil {
		return "?"
	}
	return v.Expr.String()
}

// IntrinsicTypeSpec is an intrinsic type: category, kind, and for
// CHARACTER the length.
type IntrinsicTypeSpec struct {
	Category TypeCategory
	Kind     Expr
	Len      ParamValue // CHARACTER only
}

// KindValue returns the folded kind.
func (t *IntrinsicTypeSpec) KindValue() (int, bool) {
	if t.Kind == nil {
		return 0, false
	}
	k, ok := ToInt64(t.Kind)
	return int(k), ok
}

// DeclKind distinguishes the forms of a declaration type spec.
type DeclKind int

const (
	IntrinsicDecl DeclKind = iota // INTEGER(4), CHARACTER(LEN=n), ...
	TypeDerived                   // TYPE(t)
	ClassDerived                  // CLASS(t)
	TypeStar                      // TYPE(*)
	ClassStar                     // CLASS(*)
)

// DeclTypeSpec is the type of a declared entity.
type DeclTypeSpec struct {
	Kind      DeclKind
	Intrinsic *IntrinsicTypeSpec
	Derived   *DerivedTypeSpec
}

// IntrinsicType returns an intrinsic type of the given category and kind.
func IntrinsicType(cat TypeCategory, kind Expr) *DeclTypeSpec {
	return &DeclTypeSpec{Kind: IntrinsicDecl, Intrinsic: &IntrinsicTypeSpec{Category: cat, Kind: kind}}
}

// CharacterType returns CHARACTER(LEN=length, KIND=kind).
func CharacterType(length ParamValue, kind Expr) *DeclTypeSpec {
	return &DeclTypeSpec{
		Kind:      IntrinsicDecl,
		Intrinsic: &IntrinsicTypeSpec{Category: Character, Kind: kind, Len: length},
	}
}

// TypeOf returns TYPE(spec).
func TypeOf(spec *DerivedTypeSpec) *DeclTypeSpec {
	return &DeclTypeSpec{Kind: TypeDerived, Derived: spec}
}

// ClassOf returns CLASS(spec).
func ClassOf(spec *DerivedTypeSpec) *DeclTypeSpec {
	return &DeclTypeSpec{Kind: ClassDerived, Derived: spec}
}

// Unlimited returns CLASS(*).
func Unlimited() *DeclTypeSpec { return &DeclTypeSpec{Kind: ClassStar} }

// AssumedType returns TYPE(*).
func AssumedType() *DeclTypeSpec { return &DeclTypeSpec{Kind: TypeStar} }

// IsPolymorphic reports whether t is CLASS(...).
func (t *DeclTypeSpec) IsPolymorphic() bool {
	return t.Kind == ClassDerived || t.Kind == ClassStar
}

// AsDerived returns the derived type of TYPE(t) or CLASS(t), or nil.
func (t *DeclTypeSpec) AsDerived() *DerivedTypeSpec {
	if t == nil || (t.Kind != TypeDerived && t.Kind != ClassDerived) {
		return nil
	}
	return t.Derived
}

func (t *DeclTypeSpec) String() string {
	if t == nil {
		return "untyped"
	}
	switch t.Kind {
	case IntrinsicDecl:
		it := t.Intrinsic
		var args []string
		if it.Category == Character {
			args = append(args, "len="+it.Len.String())
		}
		if it.Kind != nil {
			args = append(args, "kind="+it.Kind.String())
		}
		if len(args) == 0 {
			return it.Category.String()
		}
		return it.Category.String() + "(" + strings.Join(args, ",") + ")"
	case TypeDerived:
		return "type(" + t.Derived.String() + ")"
	case ClassDerived:
		return "class(" + t.Derived.String() + ")"
	case TypeStar:
		return "type(*)"
	case ClassStar:
		return "class(*)"
	}
	return "?"
}

// ParamBinding is one type parameter value of a DerivedTypeSpec.
type ParamBinding struct {
	Name  string
	Value ParamValue
}

// DerivedTypeSpec is a derived type name bound to values for its type
// parameters. Its Scope is the definition scope for a type without
// parameters and the instantiation scope once parameters are bound.
type DerivedTypeSpec struct {
	typeSymbol *Symbol
	params     []ParamBinding
	scope      *Scope
}

// NewDerivedTypeSpec returns a spec for the derived type symbol sym with
// the given parameter values. A type without parameters is bound to its
// definition scope right away.
func NewDerivedTypeSpec(sym *Symbol, params ...ParamBinding) *DerivedTypeSpec {
	s := &DerivedTypeSpec{typeSymbol: sym.GetUltimate(), params: params}
	if ts := s.typeSymbol.Scope(); ts != nil && len(ts.TypeParameters()) == 0 {
		s.scope = ts
	}
	return s
}

func (s *DerivedTypeSpec) TypeSymbol() *Symbol { return s.typeSymbol }
func (s *DerivedTypeSpec) Name() string        { return s.typeSymbol.Name() }

// Scope returns the scope bound to the spec, or nil while its parameter
// values are not yet known.
func (s *DerivedTypeSpec) Scope() *Scope { return s.scope }

// Params returns the parameter values in the order they were given, or in
// declaration order after instantiation.
func (s *DerivedTypeSpec) Params() []ParamBinding { return s.params }

// FindParam returns the value given for the named parameter.
func (s *DerivedTypeSpec) FindParam(name string) (ParamValue, bool) {
	for _, p := range s.params {
		if p.Name == name {
			return p.Value, true
		}
	}
	return ParamValue{}, false
}

// IsInstance reports whether the spec is bound to an instantiation scope
// rather than to the definition.
func (s *DerivedTypeSpec) IsInstance() bool {
	return s.scope != nil && s.scope != s.typeSymbol.Scope()
}

func (s *DerivedTypeSpec) String() string {
	if len(s.params) == 0 {
		return s.Name()
	}
	parts := make([]string, len(s.params))
	for i, p := range s.params {
		parts[i] = p.Name + "=" + p.Value.String()
	}
	return s.Name() + "(" + strings.Join(parts, ",") + ")"
}

// BoundCategory tells how an array bound is given.
type BoundCategory int

const (
	BoundExplicit BoundCategory = iota
	BoundDeferred               // :
	BoundAssumed                // *
)

// Bound is one lower or upper array bound.
type Bound struct {
	Category BoundCategory
	Expr     Expr
}

// ExplicitBound returns a bound holding e.
func ExplicitBound(e Expr) Bound { return Bound{Category: BoundExplicit, Expr: e} }

// ShapeSpec is the bounds of one dimension.
type ShapeSpec struct {
	Lower, Upper Bound
}

// ArraySpec is the declared shape of an entity. A nil ArraySpec is a
// scalar. AssumedRank marks DIMENSION(..).
type ArraySpec struct {
	Dims        []ShapeSpec
	AssumedRank bool
}

// ExplicitShape returns the shape (lo(0):hi(0), lo(1):hi(1), ...).
func ExplicitShape(bounds ...[2]int64) ArraySpec {
	var a ArraySpec
	for _, b := range bounds {
		a.Dims = append(a.Dims, ShapeSpec{
			Lower: ExplicitBound(Int(b[0])),
			Upper: ExplicitBound(Int(b[1])),
		})
	}
	return a
}

// DeferredShape returns the shape (:,:,...) of the given rank.
func DeferredShape(rank int) ArraySpec {
	var a ArraySpec
	for i := 0; i < rank; i++ {
		a.Dims = append(a.Dims, ShapeSpec{
			Lower: Bound{Category: BoundDeferred},
			Upper: Bound{Category: BoundDeferred},
		})
	}
	return a
}

func (a ArraySpec) Rank() int { return len(a.Dims) }

// IsExplicitShape reports whether every bound is an expression.
func (a ArraySpec) IsExplicitShape() bool {
	if a.AssumedRank {
		return false
	}
	for _, d := range a.Dims {
		if d.Lower.Category != BoundExplicit || d.Upper.Category != BoundExplicit {
			return false
		}
	}
	return true
}

// IsDeferredShape reports whether the shape is (:,...) with rank > 0.
func (a ArraySpec) IsDeferredShape() bool {
	if a.AssumedRank || len(a.Dims) == 0 {
		return false
	}
	for _, d := range a.Dims {
		if d.Upper.Category != BoundDeferred {
			return false
		}
	}
	return true
}

// Extents returns the constant number of elements along each dimension.
func (a ArraySpec) Extents() ([]int64, bool) {
	ext := make([]int64, 0, len(a.Dims))
	for _, d := range a.Dims {
		if d.Lower.Category != BoundExplicit || d.Upper.Category != BoundExplicit {
			return nil, false
		}
		lo, ok1 := ToInt64(d.Lower.Expr)
		hi, ok2 := ToInt64(d.Upper.Expr)
		if !ok1 || !ok2 {
			return nil, false
		}
		n := hi - lo + 1
		if n < 0 {
			n = 0
		}
		ext = append(ext, n)
	}
	return ext, true
}

func (a ArraySpec) String() string {
	if a.AssumedRank {
		return "(..)"
	}
	if len(a.Dims) == 0 {
		return ""
	}
	bound := func(b Bound) string {
		switch b.Category {
		case BoundDeferred:
			return ""
		case BoundAssumed:
			return "*"
		}
		return b.Expr.String()
	}
	parts := make([]string, len(a.Dims))
	for i, d := range a.Dims {
		lo, hi := bound(d.Lower), bound(d.Upper)
		switch {
		case lo == "" && hi == "":
			parts[i] = ":"
		case lo == "1" && d.Upper.Category == BoundExplicit:
			parts[i] = hi
		default:
			parts[i] = lo + ":" + hi
		}
	}
	return "(" + strings.Join(parts, ",") + ")"
}
