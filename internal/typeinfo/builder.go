package typeinfo

import (
	"github.com/you-not-fish/ftypeinfo/internal/rtabi"
	"github.com/you-not-fish/ftypeinfo/internal/semantics"
	"github.com/you-not-fish/ftypeinfo/internal/source"
)

// builder holds the state of one run of the pass.
type builder struct {
	ctx    *semantics.Context
	schema *schema
	tables *RuntimeDerivedTypeTables
	scope  *semantics.Scope // the reserved scope receiving the objects

	byName  map[string]*Descriptor
	byScope map[*semantics.Scope]*Descriptor
	order   []*Descriptor // local descriptors in emission order

	strings  map[string]*semantics.Symbol // .n. objects by text
	holders  map[string]*semantics.Symbol // value holders by type and value
	bindings *bindingTables
	specials map[*semantics.Scope][]special
	summary  map[*semantics.Scope]*summary

	reported map[interface{}]bool // bindings and components already diagnosed
	errors   []*Error
}

func newBuilder(ctx *semantics.Context, s *schema, tables *RuntimeDerivedTypeTables) *builder {
	sym := semantics.NewSymbol(source.NoPos, rtabi.TypeInfoScope, 0, &semantics.ModuleDetails{})
	sym.Set(semantics.CompilerCreated)
	scope := semantics.NewScope(ctx.GlobalScope(), semantics.ScopeTypeInfo, sym)
	tables.Schemata = scope

	b := &builder{
		ctx:      ctx,
		schema:   s,
		tables:   tables,
		scope:    scope,
		byName:   make(map[string]*Descriptor),
		byScope:  make(map[*semantics.Scope]*Descriptor),
		strings:  make(map[string]*semantics.Symbol),
		holders:  make(map[string]*semantics.Symbol),
		specials: make(map[*semantics.Scope][]special),
		summary:  make(map[*semantics.Scope]*summary),
		reported: make(map[interface{}]bool),
	}
	b.bindings = newBindingTables(b.checkOverride)
	return b
}

// report records a local failure and passes it to the diagnostics of the
// context.
func (b *builder) report(kind ErrorKind, pos source.Pos, format string, args ...interface{}) {
	e := errorf(kind, pos, format, args...)
	b.errors = append(b.errors, e)
	sev := semantics.SeverityError
	if kind == InternalInvariant {
		sev = semantics.SeverityInternal
	}
	b.ctx.Messages().Say(pos, sev, "%s", e.Msg)
}

// reportOnce reports for key only the first time.
func (b *builder) reportOnce(key interface{}, kind ErrorKind, pos source.Pos, format string, args ...interface{}) {
	if b.reported[key] {
		return
	}
	b.reported[key] = true
	b.report(kind, pos, format, args...)
}

func (b *builder) checkOverride(old, over *semantics.Symbol) bool {
	problem := overrideProblem(old, over)
	if problem == "" {
		return true
	}
	b.reportOnce(over, InvalidOverride, over.Pos(), "binding %s: %s", over.Name(), problem)
	return false
}

// object creates a compiler-created static object in the reserved scope.
func (b *builder) object(name string, typ *semantics.DeclTypeSpec, shape semantics.ArraySpec, init semantics.Expr) *semantics.Symbol {
	sym := semantics.NewSymbol(source.NoPos, name, semantics.MakeAttrs(semantics.Save, semantics.Target),
		&semantics.ObjectEntityDetails{Type: typ, Shape: shape, Init: init})
	sym.Set(semantics.CompilerCreated)
	if existing := b.scope.Insert(sym); existing != nil {
		b.report(InternalInvariant, source.NoPos, "object %s emitted twice", name)
		return existing
	}
	return sym
}

// build returns the constructor of the named record, reporting schema
// components the builder left without a value.
func (b *builder) build(rec string, values map[string]semantics.Expr) *semantics.StructureCtor {
	r := b.schema.record(rec)
	ctor, missing := r.build(values)
	for _, name := range missing {
		b.reportOnce(rec+"."+name, InternalInvariant, source.NoPos,
			"no value for component %s of schema record %s", name, rec)
	}
	return ctor
}

// array returns an array of records or constants with lower bound 0.
func array(typ *semantics.DeclTypeSpec, values []semantics.Expr) (semantics.ArraySpec, *semantics.ArrayCtor) {
	shape := semantics.ExplicitShape([2]int64{0, int64(len(values)) - 1})
	return shape, &semantics.ArrayCtor{Type: typ, Values: values}
}

// table emits an array object named name, or returns NULL() when values
// is empty.
func (b *builder) table(name string, typ *semantics.DeclTypeSpec, values []semantics.Expr) semantics.Expr {
	if len(values) == 0 {
		return &semantics.Null{}
	}
	shape, init := array(typ, values)
	return semantics.Ref(b.object(name, typ, shape, init))
}

// str returns a reference to the character object holding text, shared
// by every user of the same text.
func (b *builder) str(text string) semantics.Expr {
	if sym := b.strings[text]; sym != nil {
		return semantics.Ref(sym)
	}
	typ := semantics.CharacterType(semantics.ExplicitParam(semantics.Int(int64(len(text)))),
		semantics.Int(rtabi.DefaultCharacter))
	sym := b.object(rtabi.PrefixName+Transliterate(text), typ, semantics.ArraySpec{}, semantics.Str(text))
	b.strings[text] = sym
	return semantics.Ref(sym)
}

// holder returns a reference to a value holder object with the given
// type, shape and constant value. Holders with equal type, shape and
// value are shared; the first one gets the name.
func (b *builder) holder(name string, typ *semantics.DeclTypeSpec, shape semantics.ArraySpec, value semantics.Expr) semantics.Expr {
	key := typ.String() + shape.String() + "=" + value.String()
	if sym := b.holders[key]; sym != nil {
		return semantics.Ref(sym)
	}
	sym := b.object(name, typ, shape, value)
	b.holders[key] = sym
	return semantics.Ref(sym)
}

// value returns a value record.
func (b *builder) value(genre int, v int64) semantics.Expr {
	return b.build(rtabi.RecValue, map[string]semantics.Expr{
		"genre": b.schema.valueGenre(genre),
		"value": semantics.Int(v),
	})
}

func flag(on bool) semantics.Expr {
	if on {
		return semantics.Int(1)
	}
	return semantics.Int(0)
}

func procRef(proc *semantics.Symbol) semantics.Expr {
	if proc == nil {
		return &semantics.Null{}
	}
	return semantics.Ref(proc)
}
