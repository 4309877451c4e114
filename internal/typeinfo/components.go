package typeinfo

import (
	"github.com/you-not-fish/ftypeinfo/internal/rtabi"
	"github.com/you-not-fish/ftypeinfo/internal/semantics"
)

var categoryCodes = map[semantics.TypeCategory]int{
	semantics.Integer:   rtabi.CategoryInteger,
	semantics.Real:      rtabi.CategoryReal,
	semantics.Complex:   rtabi.CategoryComplex,
	semantics.Character: rtabi.CategoryCharacter,
	semantics.Logical:   rtabi.CategoryLogical,
}

// components returns the component records and the procedure pointer
// component records of d, in declaration order with the parent
// component first.
func (b *builder) components(d *Descriptor) (comps, procs []semantics.Expr) {
	for _, comp := range d.Scope.Components() {
		switch cd := comp.Details().(type) {
		case *semantics.ObjectEntityDetails:
			comps = append(comps, b.dataComponent(d, comp, cd))
		case *semantics.ProcEntityDetails:
			comps = append(comps, b.build(rtabi.RecComponent, map[string]semantics.Expr{
				"name":           b.str(comp.Name()),
				"genre":          b.schema.componentGenre(rtabi.GenrePointer),
				"category":       b.schema.category(rtabi.CategoryProcPointer),
				"kind":           semantics.Int(0),
				"rank":           semantics.Int(0),
				"offset":         semantics.Int(comp.Offset()),
				"elementsize":    semantics.Int(rtabi.SizePtr),
				"characterlen":   b.value(rtabi.ValueDeferred, 0),
				"derived":        &semantics.Null{},
				"lenvalue":       &semantics.Null{},
				"bounds":         &semantics.Null{},
				"initialization": &semantics.Null{},
			}))
			procs = append(procs, b.build(rtabi.RecProcPtrComponent, map[string]semantics.Expr{
				"name":           b.str(comp.Name()),
				"offset":         semantics.Int(comp.Offset()),
				"initialization": procRef(cd.Init),
			}))
		}
	}
	return comps, procs
}

func componentGenre(comp *semantics.Symbol) int {
	switch {
	case comp.Attrs().Has(semantics.Pointer):
		return rtabi.GenrePointer
	case comp.Attrs().Has(semantics.Allocatable):
		return rtabi.GenreAllocatable
	case semantics.IsAutomatic(comp):
		return rtabi.GenreAutomatic
	}
	return rtabi.GenreData
}

func (b *builder) dataComponent(d *Descriptor, comp *semantics.Symbol, cd *semantics.ObjectEntityDetails) semantics.Expr {
	genre := componentGenre(comp)
	typ := cd.Type
	category, kind := rtabi.CategoryUntyped, 0
	var derived semantics.Expr = &semantics.Null{}
	var lenValue semantics.Expr = &semantics.Null{}
	characterLen := b.value(rtabi.ValueDeferred, 0)

	switch {
	case typ == nil:
	case typ.Kind == semantics.IntrinsicDecl:
		category = categoryCodes[typ.Intrinsic.Category]
		kind, _ = typ.Intrinsic.KindValue()
		if typ.Intrinsic.Category == semantics.Character {
			characterLen = b.paramValue(d, typ.Intrinsic.Len)
		}
	case typ.AsDerived() != nil:
		category = rtabi.CategoryDerived
		spec := typ.AsDerived()
		derived = b.ref(spec)
		lenValue = b.lenValues(d, comp, spec)
	}

	elemSize, _ := semantics.ElementSize(typ)

	return b.build(rtabi.RecComponent, map[string]semantics.Expr{
		"name":           b.str(comp.Name()),
		"genre":          b.schema.componentGenre(genre),
		"category":       b.schema.category(category),
		"kind":           semantics.Int(int64(kind)),
		"rank":           semantics.Int(int64(comp.Rank())),
		"offset":         semantics.Int(comp.Offset()),
		"elementsize":    semantics.Int(elemSize),
		"characterlen":   characterLen,
		"derived":        derived,
		"lenvalue":       lenValue,
		"bounds":         b.bounds(d, comp, cd, genre),
		"initialization": b.initialization(d, comp, cd, genre),
	})
}

// bounds returns the bounds holder of an explicit-shape or automatic
// array component: a (2, rank) array of value records holding the lower
// and upper bound of each dimension.
func (b *builder) bounds(d *Descriptor, comp *semantics.Symbol, cd *semantics.ObjectEntityDetails, genre int) semantics.Expr {
	if genre == rtabi.GenrePointer || genre == rtabi.GenreAllocatable || cd.Shape.Rank() == 0 || !cd.Shape.IsExplicitShape() {
		return &semantics.Null{}
	}
	var values []semantics.Expr
	for _, dim := range cd.Shape.Dims {
		values = append(values,
			b.paramValue(d, semantics.ExplicitParam(dim.Lower.Expr)),
			b.paramValue(d, semantics.ExplicitParam(dim.Upper.Expr)))
	}
	rank := int64(cd.Shape.Rank())
	typ := b.schema.record(rtabi.RecValue).Type()
	shape := semantics.ExplicitShape([2]int64{1, 2}, [2]int64{1, rank})
	init := &semantics.ArrayCtor{Type: typ, Values: values, Shape: []int64{2, rank}}
	return b.holder(rtabi.PrefixBounds+d.Name+"."+Transliterate(comp.Name()), typ, shape, init)
}

// lenValues returns the holder of the length parameter values of a
// derived-type component, or NULL() when its type has none.
func (b *builder) lenValues(d *Descriptor, comp *semantics.Symbol, spec *semantics.DerivedTypeSpec) semantics.Expr {
	scope := specScope(spec)
	if scope == nil {
		return &semantics.Null{}
	}
	var values []semantics.Expr
	for _, p := range scope.TypeParameters() {
		if p.Details().(*semantics.TypeParamDetails).Attr != semantics.LenParam {
			continue
		}
		v, ok := spec.FindParam(p.Name())
		if !ok {
			v = semantics.ExplicitParam(p.Details().(*semantics.TypeParamDetails).Init)
		}
		values = append(values, b.paramValue(d, v))
	}
	if len(values) == 0 {
		return &semantics.Null{}
	}
	typ := b.schema.record(rtabi.RecValue).Type()
	shape, init := array(typ, values)
	return b.holder(rtabi.PrefixLenValues+d.Name+"."+Transliterate(comp.Name()), typ, shape, init)
}

// initialization returns the default initialization of a component: a
// holder of the folded constant for a data component, the initial
// target of a pointer component, or NULL().
func (b *builder) initialization(d *Descriptor, comp *semantics.Symbol, cd *semantics.ObjectEntityDetails, genre int) semantics.Expr {
	if cd.Init == nil {
		return &semantics.Null{}
	}
	switch genre {
	case rtabi.GenrePointer:
		if ref, ok := cd.Init.(*semantics.Designator); ok && semantics.IsStaticInitializer(ref) {
			return ref
		}
		return &semantics.Null{}
	case rtabi.GenreData:
		v := semantics.Fold(cd.Init, nil)
		if !semantics.IsStaticInitializer(v) {
			b.reportOnce(comp, UnfoldableParameter, comp.Pos(),
				"default initialization of component %s of %s is not a constant", comp.Name(), d.Name)
			return &semantics.Null{}
		}
		return b.holder(rtabi.PrefixDefaultInit+d.Name+"."+Transliterate(comp.Name()), cd.Type, cd.Shape, v)
	}
	return &semantics.Null{}
}
