package semantics

import (
	"fmt"
	"sort"
	"strings"

	"github.com/you-not-fish/ftypeinfo/internal/source"
)

// ScopeKind identifies the construct a scope belongs to.
type ScopeKind int

const (
	ScopeGlobal ScopeKind = iota
	ScopeModule
	ScopeSubmodule
	ScopeSubprogram
	ScopeBlockConstruct
	ScopeDerivedType
	ScopeTypeInfo // compiler-created descriptor objects
)

func (k ScopeKind) String() string {
	return [...]string{"global", "module", "submodule", "subprogram", "block",
		"derived type", "type info"}[k]
}

// Scope is a symbol table region. Scopes form a tree rooted at the
// global scope; symbols keep their insertion order.
type Scope struct {
	kind     ScopeKind
	parent   *Scope
	children []*Scope
	symbol   *Symbol // the module, subprogram, or type defining the scope
	elems    map[string]*Symbol
	order    []*Symbol
	pos      source.Pos

	// derived-type scopes: the instantiated spec, nil for a definition
	spec *DerivedTypeSpec

	// module scopes
	fromModFile bool
	intrinsic   bool

	// layout, set by ComputeLayout for derived-type scopes
	layoutDone  bool
	size, align int64
}

// NewScope returns a new child of parent defined by sym.
func NewScope(parent *Scope, kind ScopeKind, sym *Symbol) *Scope {
	s := &Scope{
		kind:   kind,
		parent: parent,
		symbol: sym,
		elems:  make(map[string]*Symbol),
	}
	if sym != nil {
		s.pos = sym.pos
		if sym.scope == nil {
			sym.scope = s
		}
	}
	if parent != nil {
		parent.children = append(parent.children, s)
	}
	return s
}

func (s *Scope) Kind() ScopeKind       { return s.kind }
func (s *Scope) Parent() *Scope        { return s.parent }
func (s *Scope) Children() []*Scope    { return s.children }
func (s *Scope) Symbol() *Symbol       { return s.symbol }
func (s *Scope) Pos() source.Pos       { return s.pos }
func (s *Scope) IsDerivedType() bool   { return s.kind == ScopeDerivedType }
func (s *Scope) IsModule() bool        { return s.kind == ScopeModule || s.kind == ScopeSubmodule }
func (s *Scope) FromModFile() bool     { return s.fromModFile }
func (s *Scope) IsIntrinsic() bool     { return s.intrinsic }
func (s *Scope) SetFromModFile(b bool) { s.fromModFile = b }
func (s *Scope) SetIntrinsic(b bool)   { s.intrinsic = b }

// Name returns the name of the defining symbol, or "" for the global
// scope and block constructs.
func (s *Scope) Name() string {
	if s.symbol == nil {
		return ""
	}
	return s.symbol.name
}

// DerivedTypeSpec returns the spec a derived-type instantiation scope was
// created for, or nil for a definition scope.
func (s *Scope) DerivedTypeSpec() *DerivedTypeSpec { return s.spec }

// IsParameterizedInstance reports whether s instantiates a parameterized
// derived type.
func (s *Scope) IsParameterizedInstance() bool {
	return s.kind == ScopeDerivedType && s.spec != nil
}

// Lookup returns the symbol with the given name in s only.
func (s *Scope) Lookup(name string) *Symbol {
	return s.elems[strings.ToLower(name)]
}

// LookupParent searches s and then its host scopes, skipping the
// components of enclosing derived types.
func (s *Scope) LookupParent(name string) (*Symbol, *Scope) {
	name = strings.ToLower(name)
	for scope := s; scope != nil; scope = scope.parent {
		if scope != s && scope.kind == ScopeDerivedType {
			continue
		}
		if sym := scope.elems[name]; sym != nil {
			return sym, scope
		}
	}
	return nil, nil
}

// Insert adds sym to the scope. If a symbol with the same name exists it
// is returned and sym is not inserted.
func (s *Scope) Insert(sym *Symbol) *Symbol {
	sym.name = strings.ToLower(sym.name)
	if existing := s.elems[sym.name]; existing != nil {
		return existing
	}
	s.elems[sym.name] = sym
	s.order = append(s.order, sym)
	sym.owner = s
	return nil
}

// Symbols returns the symbols of the scope in insertion order.
func (s *Scope) Symbols() []*Symbol { return s.order }

// Names returns the names of the symbols, sorted.
func (s *Scope) Names() []string {
	names := make([]string, 0, len(s.order))
	for _, sym := range s.order {
		names = append(names, sym.name)
	}
	sort.Strings(names)
	return names
}

func (s *Scope) NumSymbols() int { return len(s.order) }

// Components returns the data and procedure pointer components of a
// derived-type scope in declaration order, parent component first.
func (s *Scope) Components() []*Symbol {
	var comps []*Symbol
	for _, sym := range s.order {
		if sym.IsComponent() {
			comps = append(comps, sym)
		}
	}
	return comps
}

// ParentComponent returns the parent component of an extended type.
func (s *Scope) ParentComponent() *Symbol {
	for _, sym := range s.order {
		if sym.Test(ParentComp) {
			return sym
		}
	}
	return nil
}

// DerivedTypeParent returns the scope of the parent type of an extended
// type, or nil.
func (s *Scope) DerivedTypeParent() *Scope {
	pc := s.ParentComponent()
	if pc == nil {
		return nil
	}
	if spec := pc.Type().AsDerived(); spec != nil {
		if spec.Scope() != nil {
			return spec.Scope()
		}
		return spec.TypeSymbol().Scope()
	}
	return nil
}

// TypeParameters returns the type parameter symbols of a derived-type
// scope in declaration order, inherited parameters first.
func (s *Scope) TypeParameters() []*Symbol {
	var params []*Symbol
	if p := s.DerivedTypeParent(); p != nil {
		for _, ps := range p.TypeParameters() {
			if own := s.Lookup(ps.name); own != nil {
				params = append(params, own)
			} else {
				params = append(params, ps)
			}
		}
	}
	for _, sym := range s.order {
		if _, ok := sym.details.(*TypeParamDetails); ok && !containsSymbolNamed(params, sym.name) {
			params = append(params, sym)
		}
	}
	return params
}

func containsSymbolNamed(list []*Symbol, name string) bool {
	for _, s := range list {
		if s.name == name {
			return true
		}
	}
	return false
}

// Size and Alignment return the layout of a derived-type scope.
func (s *Scope) Size() int64      { return s.size }
func (s *Scope) Alignment() int64 { return s.align }

// LayoutDone reports whether ComputeLayout has run for s.
func (s *Scope) LayoutDone() bool { return s.layoutDone }

// SetLayout records the size and alignment of a derived-type scope.
func (s *Scope) SetLayout(size, align int64) {
	s.size, s.align, s.layoutDone = size, align, true
}

// Comment describes the scope for dumps.
func (s *Scope) Comment() string {
	if name := s.Name(); name != "" {
		if s.spec != nil {
			return s.kind.String() + " " + s.spec.String()
		}
		return s.kind.String() + " " + name
	}
	return s.kind.String()
}

// String returns a dump of the scope tree.
func (s *Scope) String() string {
	var buf strings.Builder
	s.writeTo(&buf, 0)
	return buf.String()
}

func (s *Scope) writeTo(buf *strings.Builder, indent int) {
	prefix := strings.Repeat("  ", indent)
	fmt.Fprintf(buf, "%sscope %s {\n", prefix, s.Comment())
	for _, sym := range s.order {
		if t := sym.Type(); t != nil {
			fmt.Fprintf(buf, "%s  %s: %s\n", prefix, sym.name, t)
		} else {
			fmt.Fprintf(buf, "%s  %s\n", prefix, sym.name)
		}
	}
	for _, child := range s.children {
		child.writeTo(buf, indent+1)
	}
	fmt.Fprintf(buf, "%s}\n", prefix)
}
