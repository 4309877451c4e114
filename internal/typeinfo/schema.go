package typeinfo

import (
	"github.com/you-not-fish/ftypeinfo/internal/rtabi"
	"github.com/you-not-fish/ftypeinfo/internal/semantics"
	"github.com/you-not-fish/ftypeinfo/internal/source"
)

// requiredFields lists, per schema record, the components the builder
// writes. The schema may order them as it likes.
var requiredFields = map[string][]string{
	rtabi.RecDerivedType: {
		"binding", "name", "sizeinbytes", "alignment", "category",
		"kindparameter", "lenparameterkind", "lenparametervalue",
		"component", "procptr", "special", "specialbitset",
		"hasparent", "issequence", "isbindc", "isabstract",
		"noinitializationneeded", "nodestructionneeded",
		"nofinalizationneeded", "nodefinedassignment", "parent",
	},
	rtabi.RecBinding:          {"proc", "name", "passindex", "isoverride"},
	rtabi.RecValue:            {"genre", "value"},
	rtabi.RecComponent:        {"name", "genre", "category", "kind", "rank", "offset", "elementsize", "characterlen", "derived", "lenvalue", "bounds", "initialization"},
	rtabi.RecProcPtrComponent: {"name", "offset", "initialization"},
	rtabi.RecSpecialBinding:   {"which", "isargdescriptorset", "istypebound", "proc"},
}

var recordOrder = []string{
	rtabi.RecDerivedType, rtabi.RecBinding, rtabi.RecValue,
	rtabi.RecComponent, rtabi.RecProcPtrComponent, rtabi.RecSpecialBinding,
}

// record resolves one schema record type and builds its constructors.
type record struct {
	name   string
	symbol *semantics.Symbol
	spec   *semantics.DerivedTypeSpec
	fields []*semantics.Symbol // data components in schema order
}

// Type returns TYPE(record).
func (r *record) Type() *semantics.DeclTypeSpec { return semantics.TypeOf(r.spec) }

// build returns the structure constructor of the record with the given
// component values, in schema component order. Integer values take the
// kind of the component they initialize. It returns the names of schema
// components without a value; those get NULL().
func (r *record) build(values map[string]semantics.Expr) (*semantics.StructureCtor, []string) {
	var missing []string
	out := &semantics.StructureCtor{Spec: r.spec}
	for _, f := range r.fields {
		v, ok := values[f.Name()]
		if !ok || v == nil {
			missing = append(missing, f.Name())
			v = &semantics.Null{}
		}
		out.Values = append(out.Values, semantics.ComponentValue{Name: f.Name(), Value: coerce(v, f)})
	}
	return out, missing
}

// coerce gives an untyped integer constant the kind of component f.
func coerce(v semantics.Expr, f *semantics.Symbol) semantics.Expr {
	c, ok := v.(*semantics.IntConst)
	if !ok || c.Kind != 0 {
		return v
	}
	t := f.Type()
	if t == nil || t.Kind != semantics.IntrinsicDecl || t.Intrinsic.Category != semantics.Integer {
		return v
	}
	if k, ok := t.Intrinsic.KindValue(); ok {
		return semantics.IntKind(c.Value, k)
	}
	return v
}

// schema caches the records and enumerators of __fortran_type_info.
type schema struct {
	scope   *semantics.Scope
	records map[string]*record
	enums   map[string]int64
}

// bindSchema locates the schema module in ctx and resolves every record,
// record component and enumerator the builder uses.
func bindSchema(ctx *semantics.Context, module string) (*schema, error) {
	mod := ctx.FindModule(module)
	if mod == nil {
		return nil, errorf(MissingSchema, source.NoPos, "module %s is not available", module)
	}
	s := &schema{
		scope:   mod,
		records: make(map[string]*record, len(recordOrder)),
		enums:   make(map[string]int64),
	}
	for _, name := range recordOrder {
		sym := mod.Lookup(name)
		if sym == nil || !sym.IsDerivedType() {
			return nil, errorf(MissingSchema, source.NoPos, "%s has no derived type %s", module, name)
		}
		sym = sym.GetUltimate()
		r := &record{name: name, symbol: sym, spec: ctx.Spec(sym, source.NoPos)}
		for _, comp := range sym.Scope().Components() {
			if comp.IsObject() {
				r.fields = append(r.fields, comp)
			}
		}
		for _, field := range requiredFields[name] {
			if sym.Scope().Lookup(field) == nil {
				return nil, errorf(MissingSchema, source.NoPos, "%s: %s has no component %s", module, name, field)
			}
		}
		s.records[name] = r
	}
	for _, group := range []map[int]string{
		rtabi.ValueGenreNames, rtabi.ComponentGenreNames,
		rtabi.CategoryNames, rtabi.SpecialNames,
	} {
		for _, name := range group {
			v, ok := enumerator(mod, name)
			if !ok {
				return nil, errorf(MissingSchema, source.NoPos, "%s has no enumerator %s", module, name)
			}
			s.enums[name] = v
		}
	}
	return s, nil
}

func enumerator(mod *semantics.Scope, name string) (int64, bool) {
	sym := mod.Lookup(name)
	if sym == nil || !sym.Attrs().Has(semantics.Parameter) {
		return 0, false
	}
	d, ok := sym.GetUltimate().Details().(*semantics.ObjectEntityDetails)
	if !ok {
		return 0, false
	}
	return semantics.ToInt64(d.Init)
}

func (s *schema) record(name string) *record { return s.records[name] }

// enum returns the value of the enumerator name as a constant.
func (s *schema) enum(name string) semantics.Expr {
	return semantics.Int(s.enums[name])
}

func (s *schema) valueGenre(code int) semantics.Expr {
	return s.enum(rtabi.ValueGenreNames[code])
}

func (s *schema) componentGenre(code int) semantics.Expr {
	return s.enum(rtabi.ComponentGenreNames[code])
}

func (s *schema) category(code int) semantics.Expr {
	return s.enum(rtabi.CategoryNames[code])
}

// special returns the Which code of a special binding. Final procedures
// of rank r > 0 are ScalarFinal + r and have no enumerator of their own.
func (s *schema) special(which int) int64 {
	if name, ok := rtabi.SpecialNames[which]; ok {
		return s.enums[name]
	}
	return s.enums[rtabi.SpecialNames[rtabi.ScalarFinal]] + int64(which-rtabi.ScalarFinal)
}
