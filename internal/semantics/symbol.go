package semantics

import (
	"fmt"

	"github.com/you-not-fish/ftypeinfo/internal/source"
)

// Details holds what a symbol is: an object, a procedure, a binding...
type Details interface {
	aDetails()
}

type details struct{}

func (details) aDetails() {}

// ObjectEntityDetails describes a variable, named constant, dummy
// argument, or data component.
type ObjectEntityDetails struct {
	details
	Type    *DeclTypeSpec
	Shape   ArraySpec
	Init    Expr // default initialization or constant value
	IsDummy bool
}

// ProcEntityDetails describes a procedure pointer or dummy procedure.
// Init is the default procedure target; NullInit records "=> NULL()".
type ProcEntityDetails struct {
	details
	Interface *Symbol
	Init      *Symbol
	NullInit  bool
	IsDummy   bool
}

// TypeParamAttr distinguishes kind from length type parameters.
type TypeParamAttr int

const (
	KindParam TypeParamAttr = iota
	LenParam
)

func (a TypeParamAttr) String() string {
	if a == KindParam {
		return "kind"
	}
	return "len"
}

// TypeParamDetails describes a type parameter. In a definition scope Init
// is the default value; in an instantiation scope it is the bound value,
// nil for an assumed or deferred length.
type TypeParamDetails struct {
	details
	Attr TypeParamAttr
	Type *DeclTypeSpec
	Init Expr
}

// ProcBindingDetails describes a specific type-bound procedure.
// TargetName names the procedure, PassName the passed-object dummy
// argument ("" for the first one). Target is bound by ResolveBindings.
type ProcBindingDetails struct {
	details
	TargetName string
	Target     *Symbol
	PassName   string
	Interface  *Symbol // for DEFERRED bindings
}

// GenericKind identifies a generic identifier.
type GenericKind int

const (
	GenericName GenericKind = iota
	GenericAssignment
	GenericReadFormatted
	GenericReadUnformatted
	GenericWriteFormatted
	GenericWriteUnformatted
	GenericOperator
)

var genericKindNames = [...]string{
	"name", "assignment(=)", "read(formatted)", "read(unformatted)",
	"write(formatted)", "write(unformatted)", "operator",
}

func (k GenericKind) String() string { return genericKindNames[k] }

// IsDefinedIO reports whether k is one of the defined input/output kinds.
func (k GenericKind) IsDefinedIO() bool {
	return k >= GenericReadFormatted && k <= GenericWriteUnformatted
}

// GenericDetails describes a generic interface or a type-bound generic.
// Specifics of a type-bound generic are binding symbols.
type GenericDetails struct {
	details
	Kind      GenericKind
	Specifics []*Symbol
}

// SubprogramDetails describes a function or subroutine.
type SubprogramDetails struct {
	details
	DummyArgs  []*Symbol
	IsFunction bool
	Result     *Symbol
	BindName   string
}

// DerivedTypeDetails describes a derived type definition. ParamNames are
// the type's own parameters; inherited ones are found through the parent.
type DerivedTypeDetails struct {
	details
	ParamNames []string
	Finals     []*Symbol
}

// ModuleDetails describes a module or submodule.
type ModuleDetails struct {
	details
	IsSubmodule bool
}

// UseDetails is a use-associated name for Symbol.
type UseDetails struct {
	details
	Symbol *Symbol
}

// Symbol is a named entity in a scope.
type Symbol struct {
	name    string
	pos     source.Pos
	owner   *Scope
	scope   *Scope // scope defined by this symbol, if any
	attrs   Attrs
	flags   Flag
	details Details

	// layout, set by ComputeLayout for components
	offset, size, align int64
}

// NewSymbol returns a symbol that is not yet in any scope.
func NewSymbol(pos source.Pos, name string, attrs Attrs, d Details) *Symbol {
	return &Symbol{name: name, pos: pos, attrs: attrs, details: d}
}

func (s *Symbol) Name() string          { return s.name }
func (s *Symbol) Pos() source.Pos       { return s.pos }
func (s *Symbol) Owner() *Scope         { return s.owner }
func (s *Symbol) Scope() *Scope         { return s.scope }
func (s *Symbol) Attrs() Attrs          { return s.attrs }
func (s *Symbol) Details() Details      { return s.details }
func (s *Symbol) Test(f Flag) bool      { return s.flags&f != 0 }
func (s *Symbol) Set(f Flag)            { s.flags |= f }
func (s *Symbol) SetAttrs(a Attrs)      { s.attrs = a }
func (s *Symbol) SetDetails(d Details)  { s.details = d }
func (s *Symbol) SetScope(scope *Scope) { s.scope = scope }

// Offset, Size and Alignment return the component layout in bytes.
func (s *Symbol) Offset() int64    { return s.offset }
func (s *Symbol) Size() int64      { return s.size }
func (s *Symbol) Alignment() int64 { return s.align }

// SetLayout records the storage of a component.
func (s *Symbol) SetLayout(offset, size, align int64) {
	s.offset, s.size, s.align = offset, size, align
}

// GetUltimate follows use association to the original symbol.
func (s *Symbol) GetUltimate() *Symbol {
	for {
		u, ok := s.details.(*UseDetails)
		if !ok {
			return s
		}
		s = u.Symbol
	}
}

// Type returns the declared type of an object, type parameter, or
// function, or nil.
func (s *Symbol) Type() *DeclTypeSpec {
	switch d := s.GetUltimate().details.(type) {
	case *ObjectEntityDetails:
		return d.Type
	case *TypeParamDetails:
		return d.Type
	case *SubprogramDetails:
		if d.Result != nil {
			return d.Result.Type()
		}
	}
	return nil
}

// Rank returns the declared rank of an object, -1 for assumed rank.
func (s *Symbol) Rank() int {
	if d, ok := s.GetUltimate().details.(*ObjectEntityDetails); ok {
		if d.Shape.AssumedRank {
			return -1
		}
		return d.Shape.Rank()
	}
	return 0
}

// IsObject reports whether s is a data object.
func (s *Symbol) IsObject() bool {
	_, ok := s.GetUltimate().details.(*ObjectEntityDetails)
	return ok
}

// IsProcedure reports whether s is a subprogram or a procedure entity.
func (s *Symbol) IsProcedure() bool {
	switch s.GetUltimate().details.(type) {
	case *SubprogramDetails, *ProcEntityDetails:
		return true
	}
	return false
}

// IsDerivedType reports whether s names a derived type.
func (s *Symbol) IsDerivedType() bool {
	_, ok := s.GetUltimate().details.(*DerivedTypeDetails)
	return ok
}

// IsComponent reports whether s is a data or procedure pointer component.
func (s *Symbol) IsComponent() bool {
	if s.owner == nil || s.owner.Kind() != ScopeDerivedType {
		return false
	}
	switch s.details.(type) {
	case *ObjectEntityDetails, *ProcEntityDetails:
		return true
	}
	return false
}

// IsDummy reports whether s is a dummy argument.
func (s *Symbol) IsDummy() bool {
	switch d := s.details.(type) {
	case *ObjectEntityDetails:
		return d.IsDummy
	case *ProcEntityDetails:
		return d.IsDummy
	}
	return false
}

func (s *Symbol) String() string {
	return fmt.Sprintf("%s: %T", s.name, s.details)
}
