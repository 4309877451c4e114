package typeinfo

import (
	"github.com/you-not-fish/ftypeinfo/internal/rtabi"
	"github.com/you-not-fish/ftypeinfo/internal/semantics"
	"github.com/you-not-fish/ftypeinfo/internal/source"
)

// allocate creates the empty derivedtype object of every descriptor, in
// emission order. After it any descriptor can be referenced.
func (b *builder) allocate(work []*Descriptor) {
	typ := b.schema.record(rtabi.RecDerivedType).Type()
	for _, d := range work {
		d.Symbol = b.object(rtabi.PrefixDerivedType+d.Name, typ, semantics.ArraySpec{}, nil)
		b.order = append(b.order, d)
		b.tables.Descriptors = append(b.tables.Descriptors, d)
		b.tables.Names[d.Name] = struct{}{}
	}
}

// fill sets the initializer of every allocated descriptor and checks
// that none is left empty.
func (b *builder) fill() {
	for _, d := range b.order {
		od := d.Symbol.Details().(*semantics.ObjectEntityDetails)
		od.Init = b.describe(d)
	}
	for _, d := range b.order {
		if d.Init() == nil {
			b.report(InternalInvariant, d.Scope.Pos(), "descriptor %s was allocated but not filled", d.Name)
		}
	}
}

// ref returns a reference to the descriptor of the derived type spec,
// declaring an external descriptor for a type defined by another
// compilation. It returns NULL() for a type without a descriptor.
func (b *builder) ref(spec *semantics.DerivedTypeSpec) semantics.Expr {
	scope := specScope(spec)
	if scope == nil {
		return &semantics.Null{}
	}
	if d := b.byScope[scope]; d != nil {
		return semantics.Ref(d.Symbol)
	}
	if !definedElsewhere(scope) || scope.IsParameterizedInstance() || hasKindParams(scope) {
		return &semantics.Null{}
	}
	name, err := QualifiedName(scope)
	if err != nil {
		return &semantics.Null{}
	}
	d := b.byName[name]
	if d == nil {
		sym := semantics.NewSymbol(source.NoPos, rtabi.PrefixDerivedType+name,
			semantics.MakeAttrs(semantics.External, semantics.Target),
			&semantics.ObjectEntityDetails{Type: b.schema.record(rtabi.RecDerivedType).Type()})
		sym.Set(semantics.CompilerCreated | semantics.ModFileDescriptor)
		if existing := b.scope.Insert(sym); existing != nil {
			sym = existing
		}
		d = &Descriptor{Name: name, Symbol: sym, External: true}
		b.byName[name] = d
		b.tables.Descriptors = append(b.tables.Descriptors, d)
		b.tables.Externals[name] = struct{}{}
	}
	b.byScope[scope] = d
	return semantics.Ref(d.Symbol)
}

// definedElsewhere reports whether a derived-type scope belongs to a
// module read from a module file.
func definedElsewhere(s *semantics.Scope) bool {
	for p := s.Parent(); p != nil; p = p.Parent() {
		if p.IsModule() && p.FromModFile() {
			return true
		}
	}
	return false
}

// describe builds the derivedtype initializer of d.
func (b *builder) describe(d *Descriptor) *semantics.StructureCtor {
	dt := d.Scope
	q := d.Name
	typeSym := dt.Symbol()

	comps, procs := b.components(d)
	bindings := b.bindingTable(d)
	specials := b.specialTable(d)
	kinds, lenKinds, lenValues := b.parameters(d)
	sum := b.summarize(dt)

	var bitset int64
	for _, sp := range b.specialsOf(dt) {
		bitset |= 1 << uint(b.schema.special(sp.which))
	}

	var parent semantics.Expr = &semantics.Null{}
	if pc := dt.ParentComponent(); pc != nil {
		if spec := pc.Type().AsDerived(); spec != nil {
			parent = b.ref(spec)
		}
	}

	values := map[string]semantics.Expr{
		"binding":                b.table(rtabi.PrefixBindings+q, b.schema.record(rtabi.RecBinding).Type(), bindings),
		"name":                   b.str(typeSym.Name()),
		"sizeinbytes":            semantics.Int(dt.Size()),
		"alignment":              semantics.Int(dt.Alignment()),
		"category":               b.schema.category(rtabi.CategoryDerived),
		"kindparameter":          b.table(rtabi.PrefixKindParams+q, intType(rtabi.SubscriptKind), kinds),
		"lenparameterkind":       b.table(rtabi.PrefixLenParamKinds+q, intType(1), lenKinds),
		"lenparametervalue":      b.table(rtabi.PrefixLenParamVals+q, b.schema.record(rtabi.RecValue).Type(), lenValues),
		"component":              b.table(rtabi.PrefixComponents+q, b.schema.record(rtabi.RecComponent).Type(), comps),
		"procptr":                b.table(rtabi.PrefixProcPtrs+q, b.schema.record(rtabi.RecProcPtrComponent).Type(), procs),
		"special":                b.table(rtabi.PrefixSpecials+q, b.schema.record(rtabi.RecSpecialBinding).Type(), specials),
		"specialbitset":          semantics.Int(bitset),
		"hasparent":              flag(dt.ParentComponent() != nil),
		"issequence":             flag(typeSym.Attrs().Has(semantics.Sequence)),
		"isbindc":                flag(typeSym.Attrs().Has(semantics.BindC)),
		"isabstract":             flag(typeSym.Attrs().Has(semantics.Abstract)),
		"noinitializationneeded": flag(!sum.needsInit),
		"nodestructionneeded":    flag(!sum.needsDestruction),
		"nofinalizationneeded":   flag(!sum.needsFinal),
		"nodefinedassignment":    flag(!sum.definedAssignment),
		"parent":                 parent,
	}
	return b.build(rtabi.RecDerivedType, values)
}

func intType(kind int) *semantics.DeclTypeSpec {
	return semantics.IntrinsicType(semantics.Integer, semantics.Int(int64(kind)))
}

// bindingTable returns the binding records of d in table order.
func (b *builder) bindingTable(d *Descriptor) []semantics.Expr {
	t := b.bindings.of(d.Scope)
	out := make([]semantics.Expr, 0, t.Len())
	for i := 0; i < t.Len(); i++ {
		slot := t.at(i)
		sym := slot.symbol
		bd := sym.Details().(*semantics.ProcBindingDetails)
		target := bd.Target
		if target == nil && !sym.Attrs().Has(semantics.Deferred) {
			b.reportOnce(bd, MissingBindingTarget, sym.Pos(),
				"type-bound procedure %s of %s names no procedure %s", sym.Name(), sym.Owner().Name(), bd.TargetName)
		}
		out = append(out, b.build(rtabi.RecBinding, map[string]semantics.Expr{
			"proc":       procRef(target),
			"name":       b.str(sym.Name()),
			"passindex":  semantics.Int(int64(passIndex(sym, rtabi.NoPassIndex))),
			"isoverride": flag(slot.override),
		}))
	}
	return out
}
