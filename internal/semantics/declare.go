package semantics

import (
	"fmt"

	"github.com/you-not-fish/ftypeinfo/internal/source"
)

func declError(pos source.Pos, format string, args ...interface{}) error {
	return &Message{Pos: pos, Severity: SeverityError, Text: fmt.Sprintf(format, args...)}
}

func insert(scope *Scope, sym *Symbol) error {
	if existing := scope.Insert(sym); existing != nil {
		if !existing.pos.IsValid() {
			return declError(sym.pos, "%s redeclared in this scope", sym.name)
		}
		return declError(sym.pos, "%s redeclared in this scope (previous declaration at %s)",
			sym.name, existing.pos)
	}
	return nil
}

// NewModule declares a module in the global scope.
func (c *Context) NewModule(pos source.Pos, name string) (*Scope, error) {
	sym := NewSymbol(pos, name, 0, &ModuleDetails{})
	if err := insert(c.global, sym); err != nil {
		return nil, err
	}
	return NewScope(c.global, ScopeModule, sym), nil
}

// NewSubmodule declares a submodule of the module ancestor.
func (c *Context) NewSubmodule(pos source.Pos, ancestor *Scope, name string) (*Scope, error) {
	sym := NewSymbol(pos, name, 0, &ModuleDetails{IsSubmodule: true})
	if err := insert(c.global, sym); err != nil {
		return nil, err
	}
	return NewScope(ancestor, ScopeSubmodule, sym), nil
}

// NewSubprogram declares a function or subroutine in parent.
func NewSubprogram(parent *Scope, pos source.Pos, name string, isFunction bool, attrs Attrs) (*Symbol, error) {
	sym := NewSymbol(pos, name, attrs, &SubprogramDetails{IsFunction: isFunction})
	if err := insert(parent, sym); err != nil {
		return nil, err
	}
	NewScope(parent, ScopeSubprogram, sym)
	return sym, nil
}

// AddDummy appends a dummy data argument to subprogram sub.
func AddDummy(sub *Symbol, pos source.Pos, name string, typ *DeclTypeSpec, shape ArraySpec, attrs Attrs) (*Symbol, error) {
	sd, ok := sub.details.(*SubprogramDetails)
	if !ok {
		return nil, declError(pos, "%s is not a subprogram", sub.name)
	}
	arg := NewSymbol(pos, name, attrs, &ObjectEntityDetails{Type: typ, Shape: shape, IsDummy: true})
	if err := insert(sub.scope, arg); err != nil {
		return nil, err
	}
	sd.DummyArgs = append(sd.DummyArgs, arg)
	return arg, nil
}

// SetResult declares the result variable of function sub.
func SetResult(sub *Symbol, pos source.Pos, name string, typ *DeclTypeSpec) (*Symbol, error) {
	sd, ok := sub.details.(*SubprogramDetails)
	if !ok || !sd.IsFunction {
		return nil, declError(pos, "%s is not a function", sub.name)
	}
	res := NewSymbol(pos, name, 0, &ObjectEntityDetails{Type: typ})
	if err := insert(sub.scope, res); err != nil {
		return nil, err
	}
	sd.Result = res
	return res, nil
}

// NewBlock opens a BLOCK construct scope in parent.
func NewBlock(parent *Scope) *Scope {
	return NewScope(parent, ScopeBlockConstruct, nil)
}

// NewObject declares a variable or, with the PARAMETER attribute, a named
// constant.
func NewObject(scope *Scope, pos source.Pos, name string, typ *DeclTypeSpec, shape ArraySpec, attrs Attrs, init Expr) (*Symbol, error) {
	sym := NewSymbol(pos, name, attrs, &ObjectEntityDetails{Type: typ, Shape: shape, Init: init})
	if err := insert(scope, sym); err != nil {
		return nil, err
	}
	return sym, nil
}

// UseSymbol makes sym visible in scope under localName ("" keeps the name).
func UseSymbol(scope *Scope, sym *Symbol, localName string) (*Symbol, error) {
	if localName == "" {
		localName = sym.name
	}
	use := NewSymbol(sym.pos, localName, 0, &UseDetails{Symbol: sym})
	if err := insert(scope, use); err != nil {
		return nil, err
	}
	return use, nil
}

// NewDerivedType declares a derived type in parent and opens its scope.
// Attributes ABSTRACT, SEQUENCE, BIND(C), PUBLIC, PRIVATE apply.
func NewDerivedType(parent *Scope, pos source.Pos, name string, attrs Attrs) (*Symbol, error) {
	sym := NewSymbol(pos, name, attrs, &DerivedTypeDetails{})
	if err := insert(parent, sym); err != nil {
		return nil, err
	}
	NewScope(parent, ScopeDerivedType, sym)
	return sym, nil
}

func typeDetails(ts *Symbol) (*DerivedTypeDetails, error) {
	d, ok := ts.details.(*DerivedTypeDetails)
	if !ok {
		return nil, declError(ts.pos, "%s is not a derived type", ts.name)
	}
	return d, nil
}

// AddTypeParam declares a kind or length type parameter of ts with an
// optional default value.
func AddTypeParam(ts *Symbol, pos source.Pos, name string, attr TypeParamAttr, kind int, init Expr) (*Symbol, error) {
	d, err := typeDetails(ts)
	if err != nil {
		return nil, err
	}
	p := NewSymbol(pos, name, 0, &TypeParamDetails{
		Attr: attr,
		Type: IntrinsicType(Integer, Int(int64(kind))),
		Init: init,
	})
	if err := insert(ts.scope, p); err != nil {
		return nil, err
	}
	d.ParamNames = append(d.ParamNames, p.name)
	return p, nil
}

// Extend makes ts an extension of parent. It must precede the
// declaration of any component. Parameters of the parent that parent
// does not bind are inherited by name.
func Extend(ts *Symbol, pos source.Pos, parent *DerivedTypeSpec) (*Symbol, error) {
	if _, err := typeDetails(ts); err != nil {
		return nil, err
	}
	if len(ts.scope.Components()) > 0 {
		return nil, declError(pos, "EXTENDS must precede the components of %s", ts.name)
	}
	if ps := parent.typeSymbol.Scope(); ps != nil && parent.scope == nil {
		for _, p := range ps.TypeParameters() {
			if _, given := parent.FindParam(p.name); !given {
				parent.params = append(parent.params, ParamBinding{
					Name:  p.name,
					Value: ExplicitParam(&ParamRef{Name: p.name}),
				})
			}
		}
	}
	pc := NewSymbol(pos, parent.Name(), 0, &ObjectEntityDetails{Type: TypeOf(parent)})
	pc.Set(ParentComp)
	if err := insert(ts.scope, pc); err != nil {
		return nil, err
	}
	return pc, nil
}

// AddComponent declares a data component of ts.
func AddComponent(ts *Symbol, pos source.Pos, name string, typ *DeclTypeSpec, shape ArraySpec, attrs Attrs, init Expr) (*Symbol, error) {
	if _, err := typeDetails(ts); err != nil {
		return nil, err
	}
	return NewObject(ts.scope, pos, name, typ, shape, attrs, init)
}

// AddProcComponent declares a procedure pointer component of ts with an
// optional default target or NULL() initialization.
func AddProcComponent(ts *Symbol, pos source.Pos, name string, iface *Symbol, attrs Attrs, init *Symbol, nullInit bool) (*Symbol, error) {
	if _, err := typeDetails(ts); err != nil {
		return nil, err
	}
	sym := NewSymbol(pos, name, attrs.With(Pointer), &ProcEntityDetails{
		Interface: iface,
		Init:      init,
		NullInit:  nullInit,
	})
	if err := insert(ts.scope, sym); err != nil {
		return nil, err
	}
	return sym, nil
}

// AddBinding declares the specific type-bound procedure
// "procedure[(iface)][, attrs] :: name => target". For DEFERRED bindings
// target names the interface. pass names the passed-object dummy, ""
// for the first dummy argument.
func AddBinding(ts *Symbol, pos source.Pos, name, target, pass string, attrs Attrs) (*Symbol, error) {
	if _, err := typeDetails(ts); err != nil {
		return nil, err
	}
	if target == "" {
		target = name
	}
	sym := NewSymbol(pos, name, attrs, &ProcBindingDetails{TargetName: target, PassName: pass})
	if err := insert(ts.scope, sym); err != nil {
		return nil, err
	}
	return sym, nil
}

// AddGeneric declares a generic interface in scope, or a type-bound
// generic when scope is a derived-type scope.
func AddGeneric(scope *Scope, pos source.Pos, name string, kind GenericKind, specifics ...*Symbol) (*Symbol, error) {
	if existing := scope.Lookup(name); existing != nil {
		if g, ok := existing.details.(*GenericDetails); ok && g.Kind == kind {
			g.Specifics = append(g.Specifics, specifics...)
			return existing, nil
		}
	}
	sym := NewSymbol(pos, name, 0, &GenericDetails{Kind: kind, Specifics: specifics})
	if err := insert(scope, sym); err != nil {
		return nil, err
	}
	return sym, nil
}

// AddFinal records sub as a FINAL subroutine of ts.
func AddFinal(ts *Symbol, sub *Symbol) error {
	d, err := typeDetails(ts)
	if err != nil {
		return err
	}
	for _, f := range d.Finals {
		if f == sub {
			return declError(sub.pos, "FINAL subroutine %s appears twice in %s", sub.name, ts.name)
		}
	}
	d.Finals = append(d.Finals, sub)
	return nil
}

// FindBinding returns the type-bound procedure or generic named name in
// the derived-type scope or its ancestors.
func FindBinding(typeScope *Scope, name string) *Symbol {
	for s := typeScope; s != nil; s = s.DerivedTypeParent() {
		if sym := s.Lookup(name); sym != nil {
			switch sym.details.(type) {
			case *ProcBindingDetails, *GenericDetails:
				return sym
			}
		}
	}
	return nil
}

// ResolveBindings binds the target of every specific type-bound procedure
// of the derived type ts to the procedure it names, searching the host
// scopes of the type. Unresolved targets stay nil.
func ResolveBindings(ts *Symbol) {
	host := ts.scope.Parent()
	for _, sym := range ts.scope.order {
		b, ok := sym.details.(*ProcBindingDetails)
		if !ok || b.Target != nil {
			continue
		}
		target, _ := host.LookupParent(b.TargetName)
		if target == nil || !target.IsProcedure() {
			continue
		}
		if sym.attrs.Has(Deferred) {
			b.Interface = target.GetUltimate()
		} else {
			b.Target = target.GetUltimate()
		}
	}
}
