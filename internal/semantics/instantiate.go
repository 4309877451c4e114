package semantics

import (
	"strings"

	"github.com/you-not-fish/ftypeinfo/internal/source"
)

// Instantiate binds spec to the scope of its parameter values, creating
// the instantiation scope on first use. Parameters not given take their
// defaults; kind values are folded. Specs with equal folded parameters
// share one scope. Kind parameters that do not fold are kept as given;
// such a scope is not laid out. pos is the instantiation site.
func (c *Context) Instantiate(spec *DerivedTypeSpec, pos source.Pos) *DerivedTypeSpec {
	if spec.scope != nil {
		return spec
	}
	sym := spec.typeSymbol
	def := sym.Scope()
	params := def.TypeParameters()
	if len(params) == 0 {
		return &DerivedTypeSpec{typeSymbol: sym, scope: def}
	}

	bound := make([]ParamBinding, len(params))
	bindings := Bindings{}
	var key strings.Builder
	for i, p := range params {
		pd := p.details.(*TypeParamDetails)
		v, given := spec.FindParam(p.name)
		if !given {
			v = ExplicitParam(pd.Init)
		}
		if v.IsExplicit() && v.Expr != nil {
			v.Expr = Fold(v.Expr, nil)
			if IsConstant(v.Expr) {
				bindings[p.name] = v.Expr
			}
		}
		bound[i] = ParamBinding{Name: p.name, Value: v}
		if i > 0 {
			key.WriteString(",")
		}
		key.WriteString(p.name + "=" + v.String())
	}

	if inst := c.instances[sym][key.String()]; inst != nil {
		return inst.spec
	}
	out := &DerivedTypeSpec{typeSymbol: sym, params: bound}
	inst := NewScope(def.parent, ScopeDerivedType, sym)
	inst.spec = out
	if pos.IsValid() {
		inst.pos = pos
	}
	out.scope = inst
	if c.instances[sym] == nil {
		c.instances[sym] = make(map[string]*Scope)
	}
	c.instances[sym][key.String()] = inst

	for i, p := range params {
		pd := p.details.(*TypeParamDetails)
		var init Expr
		if v := bound[i].Value; v.IsExplicit() {
			init = v.Expr
		}
		cp := NewSymbol(p.pos, p.name, p.attrs, &TypeParamDetails{Attr: pd.Attr, Type: pd.Type, Init: init})
		inst.Insert(cp)
	}
	for _, orig := range def.order {
		if _, isParam := orig.details.(*TypeParamDetails); isParam {
			continue
		}
		cp := NewSymbol(orig.pos, orig.name, orig.attrs, c.substDetails(orig.details, bindings, pos))
		cp.flags = orig.flags
		inst.Insert(cp)
	}

	if !hasUnboundKind(inst) {
		c.ComputeLayout(inst)
	}
	return out
}

func (c *Context) substDetails(d Details, b Bindings, pos source.Pos) Details {
	if od, ok := d.(*ObjectEntityDetails); ok {
		return &ObjectEntityDetails{
			Type:    c.substType(od.Type, b, pos),
			Shape:   substShape(od.Shape, b),
			Init:    Fold(od.Init, b),
			IsDummy: od.IsDummy,
		}
	}
	return d
}

func (c *Context) substType(t *DeclTypeSpec, b Bindings, pos source.Pos) *DeclTypeSpec {
	if t == nil {
		return nil
	}
	switch t.Kind {
	case IntrinsicDecl:
		it := *t.Intrinsic
		it.Kind = Fold(it.Kind, b)
		if it.Len.IsExplicit() && it.Len.Expr != nil {
			it.Len = ExplicitParam(Fold(it.Len.Expr, b))
		}
		return &DeclTypeSpec{Kind: IntrinsicDecl, Intrinsic: &it}
	case TypeDerived, ClassDerived:
		spec := t.Derived
		if spec.scope == nil {
			spec = c.substSpec(spec, b, pos)
		}
		return &DeclTypeSpec{Kind: t.Kind, Derived: spec}
	}
	return t
}

// substSpec folds the parameter values of an unbound spec and
// instantiates it once no value refers to an enclosing type parameter.
func (c *Context) substSpec(spec *DerivedTypeSpec, b Bindings, pos source.Pos) *DerivedTypeSpec {
	params := make([]ParamBinding, len(spec.params))
	pending := false
	for i, p := range spec.params {
		v := p.Value
		if v.IsExplicit() && v.Expr != nil {
			v.Expr = Fold(v.Expr, b)
			if len(ParamRefs(v.Expr)) > 0 {
				pending = true
			}
		}
		params[i] = ParamBinding{Name: p.Name, Value: v}
	}
	out := &DerivedTypeSpec{typeSymbol: spec.typeSymbol, params: params}
	if pending {
		return out
	}
	return c.Instantiate(out, pos)
}

func substShape(a ArraySpec, b Bindings) ArraySpec {
	if len(a.Dims) == 0 {
		return a
	}
	out := ArraySpec{AssumedRank: a.AssumedRank, Dims: make([]ShapeSpec, len(a.Dims))}
	for i, d := range a.Dims {
		out.Dims[i] = ShapeSpec{Lower: substBound(d.Lower, b), Upper: substBound(d.Upper, b)}
	}
	return out
}

func substBound(bd Bound, b Bindings) Bound {
	if bd.Category == BoundExplicit {
		bd.Expr = Fold(bd.Expr, b)
	}
	return bd
}

// Spec returns the spec TYPE(sym(params...)) as written at pos,
// instantiated unless a value refers to a parameter of an enclosing
// type.
func (c *Context) Spec(sym *Symbol, pos source.Pos, params ...ParamBinding) *DerivedTypeSpec {
	spec := NewDerivedTypeSpec(sym, params...)
	if spec.scope != nil {
		return spec
	}
	return c.substSpec(spec, nil, pos)
}
