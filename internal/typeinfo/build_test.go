package typeinfo

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/you-not-fish/ftypeinfo/internal/builtins"
	"github.com/you-not-fish/ftypeinfo/internal/rtabi"
	"github.com/you-not-fish/ftypeinfo/internal/semantics"
	"github.com/you-not-fish/ftypeinfo/internal/source"
)

func isNull(e semantics.Expr) bool {
	_, ok := e.(*semantics.Null)
	return ok
}

func TestSimpleType(t *testing.T) {
	f := newFixture(t)
	ts := f.typ(f.mod, "T")
	f.comp(ts, "i", intT(4))
	f.comp(ts, "r", realT(4))
	tables := f.build()

	if got := join(tables.SortedNames()); got != "m.t" {
		t.Fatalf("names = %q, want %q", got, "m.t")
	}
	dt := f.descriptor(tables, "m.t")
	if got := stringValue(dt.Find("name")); got != "t" {
		t.Errorf("name = %q, want %q", got, "t")
	}
	if got := field(dt, "sizeinbytes"); got != 8 {
		t.Errorf("sizeinbytes = %d, want 8", got)
	}
	if got := field(dt, "alignment"); got != 4 {
		t.Errorf("alignment = %d, want 4", got)
	}

	comps := tableElems(dt.Find("component"))
	tests := []struct {
		name     string
		category int64
		kind     int64
		offset   int64
		size     int64
	}{
		{"i", rtabi.CategoryInteger, 4, 0, 4},
		{"r", rtabi.CategoryReal, 4, 4, 4},
	}
	if len(comps) != len(tests) {
		t.Fatalf("%d components, want %d", len(comps), len(tests))
	}
	for i, tt := range tests {
		c := comps[i]
		t.Run(tt.name, func(t *testing.T) {
			if got := stringValue(c.Find("name")); got != tt.name {
				t.Errorf("name = %q, want %q", got, tt.name)
			}
			if got := field(c, "genre"); got != rtabi.GenreData {
				t.Errorf("genre = %d, want %d", got, rtabi.GenreData)
			}
			if got := field(c, "category"); got != tt.category {
				t.Errorf("category = %d, want %d", got, tt.category)
			}
			if got := field(c, "kind"); got != tt.kind {
				t.Errorf("kind = %d, want %d", got, tt.kind)
			}
			if got := field(c, "offset"); got != tt.offset {
				t.Errorf("offset = %d, want %d", got, tt.offset)
			}
			if got := field(c, "elementsize"); got != tt.size {
				t.Errorf("elementsize = %d, want %d", got, tt.size)
			}
		})
	}

	for _, name := range []string{"binding", "special", "procptr", "kindparameter", "parent"} {
		if !isNull(dt.Find(name)) {
			t.Errorf("%s = %s, want NULL()", name, dt.Find(name))
		}
	}
	for name, want := range map[string]int64{
		"hasparent":              0,
		"specialbitset":          0,
		"noinitializationneeded": 1,
		"nodestructionneeded":    1,
		"nofinalizationneeded":   1,
		"nodefinedassignment":    1,
	} {
		if got := field(dt, name); got != want {
			t.Errorf("%s = %d, want %d", name, got, want)
		}
	}
	if tables.Object(".dt.m.t") == nil || tables.Object(".c.m.t") == nil {
		t.Errorf("objects .dt.m.t and .c.m.t not emitted")
	}
}

func TestExtension(t *testing.T) {
	f := newFixture(t)
	tt := f.typ(f.mod, "t")
	f.comp(tt, "i", intT(4))
	f.comp(tt, "r", realT(4))
	f.sub(f.mod, "t_foo", semantics.ClassOf(semantics.NewDerivedTypeSpec(tt)))
	f.binding(tt, "foo", "t_foo")
	semantics.ResolveBindings(tt)

	u := f.typ(f.mod, "u")
	f.extend(u, tt)
	f.comp(u, "b", semantics.IntrinsicType(semantics.Logical, semantics.Int(4)))
	tables := f.build()

	dt := f.descriptor(tables, "m.u")
	if got := field(dt, "hasparent"); got != 1 {
		t.Errorf("hasparent = %d, want 1", got)
	}
	if got := refName(dt.Find("parent")); got != ".dt.m.t" {
		t.Errorf("parent = %s, want .dt.m.t", got)
	}
	comps := tableElems(dt.Find("component"))
	if got := join(names(comps)); got != "t b" {
		t.Fatalf("components = %q, want %q", got, "t b")
	}
	parent := comps[0]
	if field(parent, "offset") != 0 || field(parent, "category") != rtabi.CategoryDerived {
		t.Errorf("parent component = %s", parent)
	}
	if got := refName(parent.Find("derived")); got != ".dt.m.t" {
		t.Errorf("parent component derived = %s, want .dt.m.t", got)
	}
	if got := field(parent, "elementsize"); got != 8 {
		t.Errorf("parent component elementsize = %d, want 8", got)
	}
	if got := field(comps[1], "offset"); got != 8 {
		t.Errorf("b offset = %d, want 8", got)
	}
	if got := field(dt, "sizeinbytes"); got != 12 {
		t.Errorf("sizeinbytes = %d, want 12", got)
	}

	bindings := tableElems(dt.Find("binding"))
	if len(bindings) != 1 {
		t.Fatalf("%d bindings, want 1", len(bindings))
	}
	if got := refName(bindings[0].Find("proc")); got != "t_foo" {
		t.Errorf("inherited binding proc = %s, want t_foo", got)
	}
	if got := field(bindings[0], "isoverride"); got != 0 {
		t.Errorf("isoverride = %d, want 0", got)
	}
}

func TestEmissionOrder(t *testing.T) {
	f := newFixture(t)
	z := f.typ(f.mod, "z")
	f.comp(z, "i", intT(4))
	y := f.typ(f.mod, "y")
	f.comp(y, "i", intT(8))
	a := f.typ(f.mod, "a")
	f.extend(a, z)
	f.comp(a, "c", semantics.TypeOf(semantics.NewDerivedTypeSpec(y)))
	tables := f.build()

	var order []string
	for _, d := range tables.Descriptors {
		order = append(order, d.Name)
	}
	// a depends on z (parent) and y (component); dependencies come first
	// in component order.
	if got, want := join(order), "m.z m.y m.a"; got != want {
		t.Errorf("emission order = %q, want %q", got, want)
	}
}

func TestParameterizedInstances(t *testing.T) {
	f := newFixture(t)
	p := f.typ(f.mod, "p")
	_, err := semantics.AddTypeParam(p, f.pos(), "k", semantics.KindParam, 4, semantics.Int(4))
	f.check(err)
	f.comp(p, "x", semantics.IntrinsicType(semantics.Real, &semantics.ParamRef{Name: "k"}))

	for _, k := range []int64{4, 8, 4} {
		f.ctx.Spec(p, f.pos(), semantics.ParamBinding{Name: "k", Value: semantics.ExplicitParam(semantics.Int(k))})
	}
	tables := f.build()

	if got, want := join(tables.SortedNames()), "m.p.k_4 m.p.k_8"; got != want {
		t.Fatalf("names = %q, want %q", got, want)
	}
	for _, tt := range []struct {
		name string
		size int64
	}{
		{"m.p.k_4", 4},
		{"m.p.k_8", 8},
	} {
		t.Run(tt.name, func(t *testing.T) {
			dt := f.descriptor(tables, tt.name)
			comps := tableElems(dt.Find("component"))
			if len(comps) != 1 {
				t.Fatalf("%d components, want 1", len(comps))
			}
			if got := field(comps[0], "elementsize"); got != tt.size {
				t.Errorf("x elementsize = %d, want %d", got, tt.size)
			}
			if got := field(comps[0], "kind"); got != tt.size {
				t.Errorf("x kind = %d, want %d", got, tt.size)
			}
			kinds, ok := arrayValues(dt.Find("kindparameter"))
			if !ok || len(kinds) != 1 || intValue(kinds[0]) != tt.size {
				t.Errorf("kindparameter = %v", kinds)
			}
		})
	}
}

func TestOverride(t *testing.T) {
	f := newFixture(t)
	tt := f.typ(f.mod, "t")
	tSpec := semantics.ClassOf(semantics.NewDerivedTypeSpec(tt))
	f.sub(f.mod, "t_bar", tSpec)
	f.sub(f.mod, "t_foo", tSpec)
	f.binding(tt, "bar", "t_bar")
	f.binding(tt, "foo", "t_foo")
	semantics.ResolveBindings(tt)

	u := f.typ(f.mod, "u")
	f.extend(u, tt)
	uSpec := semantics.ClassOf(semantics.NewDerivedTypeSpec(u))
	f.sub(f.mod, "u_baz", uSpec)
	f.sub(f.mod, "u_foo", uSpec)
	f.binding(u, "baz", "u_baz")
	f.binding(u, "foo", "u_foo")
	semantics.ResolveBindings(u)
	tables := f.build()

	want := []struct {
		name, proc string
		override   int64
	}{
		{"bar", "t_bar", 0},
		{"foo", "u_foo", 1},
		{"baz", "u_baz", 0},
	}
	bindings := tableElems(f.descriptor(tables, "m.u").Find("binding"))
	if len(bindings) != len(want) {
		t.Fatalf("%d bindings, want %d", len(bindings), len(want))
	}
	for i, w := range want {
		b := bindings[i]
		if got := stringValue(b.Find("name")); got != w.name {
			t.Errorf("slot %d: name = %s, want %s", i, got, w.name)
		}
		if got := refName(b.Find("proc")); got != w.proc {
			t.Errorf("slot %d: proc = %s, want %s", i, got, w.proc)
		}
		if got := field(b, "isoverride"); got != w.override {
			t.Errorf("slot %d: isoverride = %d, want %d", i, got, w.override)
		}
		if got := field(b, "passindex"); got != 0 {
			t.Errorf("slot %d: passindex = %d, want 0", i, got)
		}
	}

	parent := tableElems(f.descriptor(tables, "m.t").Find("binding"))
	if got := refName(parent[1].Find("proc")); got != "t_foo" {
		t.Errorf("parent slot 1 proc = %s, want t_foo", got)
	}
}

func TestInvalidOverride(t *testing.T) {
	f := newFixture(t)
	tt := f.typ(f.mod, "t")
	f.sub(f.mod, "t_foo", semantics.ClassOf(semantics.NewDerivedTypeSpec(tt)))
	f.binding(tt, "foo", "t_foo")
	semantics.ResolveBindings(tt)

	u := f.typ(f.mod, "u")
	f.extend(u, tt)
	f.binding(u, "foo", "u_foo", semantics.NoPass)
	f.sub(f.mod, "u_foo")
	semantics.ResolveBindings(u)
	tables := f.build()

	bindings := tableElems(f.descriptor(tables, "m.u").Find("binding"))
	if len(bindings) != 1 {
		t.Fatalf("%d bindings, want 1", len(bindings))
	}
	if got := refName(bindings[0].Find("proc")); got != "t_foo" {
		t.Errorf("proc = %s, want the parent's t_foo", got)
	}
	if len(tables.Errors) != 1 || tables.Errors[0].Kind != InvalidOverride {
		t.Fatalf("errors = %v, want one InvalidOverride", tables.Errors)
	}
	if !f.ctx.Messages().AnyError() {
		t.Errorf("InvalidOverride not reported to the context")
	}
	if got := CollectBindings(u.Scope()); len(got) != 1 || got[0].Owner() != tt.Scope() {
		t.Errorf("CollectBindings(u) = %v, want the parent's binding", got)
	}
}

func TestMissingBindingTarget(t *testing.T) {
	f := newFixture(t)
	tt := f.typ(f.mod, "t")
	f.binding(tt, "foo", "nothere")
	semantics.ResolveBindings(tt)
	u := f.typ(f.mod, "u")
	f.extend(u, tt)
	tables := f.build()

	for _, name := range []string{"m.t", "m.u"} {
		bindings := tableElems(f.descriptor(tables, name).Find("binding"))
		if len(bindings) != 1 || !isNull(bindings[0].Find("proc")) {
			t.Errorf("%s: bindings = %v, want one with a NULL() proc", name, bindings)
		}
	}
	if len(tables.Errors) != 1 || tables.Errors[0].Kind != MissingBindingTarget {
		t.Errorf("errors = %v, want one MissingBindingTarget", tables.Errors)
	}
}

func TestDeferredBinding(t *testing.T) {
	f := newFixture(t)
	tt := f.typ(f.mod, "t", semantics.Abstract)
	f.sub(f.mod, "work_iface", semantics.ClassOf(semantics.NewDerivedTypeSpec(tt)))
	f.binding(tt, "work", "work_iface", semantics.Deferred)
	semantics.ResolveBindings(tt)
	tables := f.build()

	dt := f.descriptor(tables, "m.t")
	if got := field(dt, "isabstract"); got != 1 {
		t.Errorf("isabstract = %d, want 1", got)
	}
	bindings := tableElems(dt.Find("binding"))
	if len(bindings) != 1 || !isNull(bindings[0].Find("proc")) {
		t.Errorf("bindings = %v, want one with a NULL() proc", bindings)
	}
	if len(tables.Errors) != 0 {
		t.Errorf("errors = %v, want none", tables.Errors)
	}
}

func (f *fixture) finalSub(name string, ts *semantics.Symbol, rank int, attrs ...semantics.Attr) *semantics.Symbol {
	f.t.Helper()
	s, err := semantics.NewSubprogram(f.mod, f.pos(), name, false, semantics.MakeAttrs(attrs...))
	f.check(err)
	var shape semantics.ArraySpec
	if rank > 0 {
		shape = semantics.DeferredShape(rank)
	}
	_, err = semantics.AddDummy(s, f.pos(), "x", semantics.TypeOf(semantics.NewDerivedTypeSpec(ts)), shape, 0)
	f.check(err)
	f.check(semantics.AddFinal(ts, s))
	return s
}

func TestFinal(t *testing.T) {
	f := newFixture(t)
	tt := f.typ(f.mod, "t")
	f.comp(tt, "i", intT(4))
	f.finalSub("t_final1", tt, 1)
	f.finalSub("t_final2", tt, 2)
	tables := f.build()

	dt := f.descriptor(tables, "m.t")
	specials := tableElems(dt.Find("special"))
	want := []struct {
		which int64
		proc  string
	}{
		{rtabi.ScalarFinal + 1, "t_final1"},
		{rtabi.ScalarFinal + 2, "t_final2"},
	}
	if len(specials) != len(want) {
		t.Fatalf("%d specials, want %d", len(specials), len(want))
	}
	for i, w := range want {
		sp := specials[i]
		if got := field(sp, "which"); got != w.which {
			t.Errorf("special %d: which = %d, want %d", i, got, w.which)
		}
		if got := refName(sp.Find("proc")); got != w.proc {
			t.Errorf("special %d: proc = %s, want %s", i, got, w.proc)
		}
		if got := field(sp, "istypebound"); got != 0 {
			t.Errorf("special %d: istypebound = %d, want 0", i, got)
		}
		if got := field(sp, "isargdescriptorset"); got != 1 {
			t.Errorf("special %d: isargdescriptorset = %d, want 1", i, got)
		}
	}
	if got, want := field(dt, "specialbitset"), int64(1<<10|1<<11); got != want {
		t.Errorf("specialbitset = %#x, want %#x", got, want)
	}
	if got := field(dt, "nofinalizationneeded"); got != 0 {
		t.Errorf("nofinalizationneeded = %d, want 0", got)
	}
}

func TestFinalKinds(t *testing.T) {
	f := newFixture(t)
	tt := f.typ(f.mod, "t")
	f.finalSub("scalar", tt, 0)
	f.finalSub("elem", tt, 0, semantics.Elemental)
	tables := f.build()

	specials := tableElems(f.descriptor(tables, "m.t").Find("special"))
	var got []int64
	for _, sp := range specials {
		got = append(got, field(sp, "which"))
	}
	if len(got) != 2 || got[0] != rtabi.ElementalFinal || got[1] != rtabi.ScalarFinal {
		t.Errorf("which = %v, want [%d %d]", got, rtabi.ElementalFinal, rtabi.ScalarFinal)
	}
}

func TestFinalNotInherited(t *testing.T) {
	f := newFixture(t)
	tt := f.typ(f.mod, "t")
	f.finalSub("t_final", tt, 0)
	u := f.typ(f.mod, "u")
	f.extend(u, tt)
	tables := f.build()

	dt := f.descriptor(tables, "m.u")
	if !isNull(dt.Find("special")) {
		t.Errorf("special = %s, want NULL()", dt.Find("special"))
	}
	// The parent component still needs finalization.
	if got := field(dt, "nofinalizationneeded"); got != 0 {
		t.Errorf("nofinalizationneeded = %d, want 0", got)
	}
}

func TestSelfReference(t *testing.T) {
	f := newFixture(t)
	node := f.typ(f.mod, "node")
	f.comp(node, "next", semantics.TypeOf(semantics.NewDerivedTypeSpec(node)), semantics.Pointer)
	tables := f.build()

	if len(tables.Descriptors) != 1 {
		t.Fatalf("%d descriptors, want 1", len(tables.Descriptors))
	}
	dt := f.descriptor(tables, "m.node")
	comps := tableElems(dt.Find("component"))
	if len(comps) != 1 {
		t.Fatalf("%d components, want 1", len(comps))
	}
	next := comps[0]
	if got := field(next, "genre"); got != rtabi.GenrePointer {
		t.Errorf("genre = %d, want %d", got, rtabi.GenrePointer)
	}
	if got := refName(next.Find("derived")); got != ".dt.m.node" {
		t.Errorf("derived = %s, want .dt.m.node", got)
	}
	if got, want := field(dt, "sizeinbytes"), rtabi.DescriptorSize(0, true); got != want {
		t.Errorf("sizeinbytes = %d, want %d", got, want)
	}
	if got := field(dt, "noinitializationneeded"); got != 0 {
		t.Errorf("noinitializationneeded = %d, want 0", got)
	}
}

func TestMutualReference(t *testing.T) {
	f := newFixture(t)
	a := f.typ(f.mod, "a")
	b := f.typ(f.mod, "b")
	f.comp(a, "pb", semantics.TypeOf(semantics.NewDerivedTypeSpec(b)), semantics.Pointer)
	f.comp(b, "pa", semantics.TypeOf(semantics.NewDerivedTypeSpec(a)), semantics.Allocatable)
	tables := f.build()

	pb := tableElems(f.descriptor(tables, "m.a").Find("component"))[0]
	pa := tableElems(f.descriptor(tables, "m.b").Find("component"))[0]
	if refName(pb.Find("derived")) != ".dt.m.b" || refName(pa.Find("derived")) != ".dt.m.a" {
		t.Errorf("derived = %s, %s", pb.Find("derived"), pa.Find("derived"))
	}
	if got := field(pa, "genre"); got != rtabi.GenreAllocatable {
		t.Errorf("pa genre = %d, want %d", got, rtabi.GenreAllocatable)
	}
	if got := field(f.descriptor(tables, "m.b"), "nodestructionneeded"); got != 0 {
		t.Errorf("b nodestructionneeded = %d, want 0", got)
	}
}

func TestSummaryCycle(t *testing.T) {
	for _, pair := range [][2]string{{"a", "b"}, {"z", "y"}} {
		t.Run(pair[0]+pair[1], func(t *testing.T) {
			f := newFixture(t)
			d := f.typ(f.mod, "d")
			f.finalSub("d_final", d, 0)
			x := f.typ(f.mod, pair[0])
			y := f.typ(f.mod, pair[1])
			f.comp(x, "yx", semantics.TypeOf(semantics.NewDerivedTypeSpec(y)), semantics.Allocatable)
			f.comp(x, "dd", semantics.TypeOf(semantics.NewDerivedTypeSpec(d)))
			f.comp(y, "xx", semantics.TypeOf(semantics.NewDerivedTypeSpec(x)), semantics.Allocatable)
			tables := f.build()

			for _, name := range pair {
				if got := field(f.descriptor(tables, "m."+name), "nofinalizationneeded"); got != 0 {
					t.Errorf("%s nofinalizationneeded = %d, want 0", name, got)
				}
			}
		})
	}
}

func TestNoDerivedTypes(t *testing.T) {
	f := newFixture(t)
	tables := f.build()
	if len(tables.Names) != 0 || len(tables.Descriptors) != 0 {
		t.Errorf("names = %v, descriptors = %d, want none", tables.SortedNames(), len(tables.Descriptors))
	}
	if tables.Schemata == nil {
		t.Fatal("Schemata is nil")
	}
	if tables.Schemata.Name() != rtabi.TypeInfoScope || tables.Schemata.NumSymbols() != 0 {
		t.Errorf("Schemata = %s with %d symbols", tables.Schemata.Name(), tables.Schemata.NumSymbols())
	}
}

func TestMissingSchema(t *testing.T) {
	tests := []struct {
		name string
		conf *builtins.Config
	}{
		{"no module", &builtins.Config{NoTypeInfo: true}},
		{"no record", &builtins.Config{Omit: []string{"specialbinding"}}},
		{"no field", &builtins.Config{Omit: []string{"component.offset"}}},
		{"no enumerator", &builtins.Config{Omit: []string{"categoryderived"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := semantics.NewContext(nil)
			if _, err := builtins.Install(ctx, tt.conf); err != nil {
				t.Fatalf("Install: %v", err)
			}
			tables, err := BuildRuntimeDerivedTypeTables(ctx)
			if !errors.Is(err, &Error{Kind: MissingSchema}) {
				t.Fatalf("err = %v, want MissingSchema", err)
			}
			if tables.Schemata != nil {
				t.Errorf("Schemata = %s, want nil", tables.Schemata.Name())
			}
			if !ctx.Messages().AnyError() {
				t.Errorf("MissingSchema not reported to the context")
			}
		})
	}

	ctx := semantics.NewContext(nil)
	if _, err := BuildRuntimeDerivedTypeTables(ctx); !errors.Is(err, &Error{Kind: MissingSchema}) {
		t.Errorf("without builtins: err = %v, want MissingSchema", err)
	}
}

func TestSchemaOption(t *testing.T) {
	f := newFixture(t)
	_, err := Build(f.ctx, &Options{Schema: "no_such_module"})
	var e *Error
	if !errors.As(err, &e) || e.Kind != MissingSchema || !strings.Contains(e.Msg, "no_such_module") {
		t.Errorf("err = %v, want MissingSchema naming no_such_module", err)
	}
}

func TestTrace(t *testing.T) {
	f := newFixture(t)
	f.comp(f.typ(f.mod, "t"), "i", intT(4))
	var phases []string
	_, err := Build(f.ctx, &Options{Trace: func(phase string, _ time.Duration) {
		phases = append(phases, phase)
	}})
	f.check(err)
	if got, want := join(phases), "bind walk allocate fill"; got != want {
		t.Errorf("phases = %q, want %q", got, want)
	}
}

func declareSample(f *fixture, order []string) {
	types := map[string]*semantics.Symbol{}
	for _, name := range order {
		types[name] = f.typ(f.mod, name)
	}
	for _, name := range order {
		ts := types[name]
		switch name {
		case "base":
			f.comp(ts, "id", intT(8), semantics.Allocatable)
			f.comp(ts, "name", semantics.CharacterType(semantics.ExplicitParam(semantics.Int(8)), semantics.Int(1)))
		case "leaf":
			_, err := semantics.AddComponent(ts, f.pos(), "v", realT(8), semantics.ExplicitShape([2]int64{1, 3}), 0, semantics.Int(0))
			f.check(err)
		case "list":
			f.comp(ts, "head", semantics.TypeOf(semantics.NewDerivedTypeSpec(types["leaf"])), semantics.Pointer)
			f.comp(ts, "owner", semantics.TypeOf(semantics.NewDerivedTypeSpec(types["base"])))
		}
	}
}

func TestIdempotent(t *testing.T) {
	f := newFixture(t)
	declareSample(f, []string{"base", "leaf", "list"})
	var first, second bytes.Buffer
	Fprint(&first, f.build())
	Fprint(&second, f.build())
	if first.String() != second.String() {
		t.Errorf("second run differs:\n%s\nfirst:\n%s", second.String(), first.String())
	}
}

func TestReorderIndependent(t *testing.T) {
	var out []string
	for _, order := range [][]string{
		{"base", "leaf", "list"},
		{"list", "leaf", "base"},
		{"leaf", "base", "list"},
	} {
		f := newFixture(t)
		declareSample(f, order)
		var buf bytes.Buffer
		Fprint(&buf, f.build())
		out = append(out, buf.String())
	}
	for i := 1; i < len(out); i++ {
		if out[i] != out[0] {
			t.Errorf("order %d differs:\n%s\nwant:\n%s", i, out[i], out[0])
		}
	}
}

func TestSharedInstantiation(t *testing.T) {
	f := newFixture(t)
	p := f.typ(f.mod, "p")
	_, err := semantics.AddTypeParam(p, f.pos(), "k", semantics.KindParam, 4, nil)
	f.check(err)
	f.comp(p, "x", semantics.IntrinsicType(semantics.Integer, &semantics.ParamRef{Name: "k"}))

	k2 := semantics.ParamBinding{Name: "k", Value: semantics.ExplicitParam(semantics.Int(2))}
	k2sum := semantics.ParamBinding{Name: "k", Value: semantics.ExplicitParam(
		&semantics.Binary{Op: semantics.Add, X: semantics.Int(1), Y: semantics.Int(1)})}
	f.user("a", p, k2)
	f.user("b", p, k2sum)
	tables := f.build()

	if got, want := join(tables.SortedNames()), "m.a m.b m.p.k_2"; got != want {
		t.Fatalf("names = %q, want %q", got, want)
	}
	da := tableElems(f.descriptor(tables, "m.a").Find("component"))[0]
	db := tableElems(f.descriptor(tables, "m.b").Find("component"))[0]
	if refName(da.Find("derived")) != ".dt.m.p.k_2" || refSymbol(da.Find("derived")) != refSymbol(db.Find("derived")) {
		t.Errorf("derived = %s, %s, want one .dt.m.p.k_2", da.Find("derived"), db.Find("derived"))
	}
}

// user declares a type with one component of type p(params).
func (f *fixture) user(name string, p *semantics.Symbol, params ...semantics.ParamBinding) *semantics.Symbol {
	ts := f.typ(f.mod, name)
	f.comp(ts, "c", semantics.TypeOf(f.ctx.Spec(p, f.pos(), params...)))
	return ts
}

func TestUnfoldableKind(t *testing.T) {
	f := newFixture(t)
	p := f.typ(f.mod, "p")
	_, err := semantics.AddTypeParam(p, f.pos(), "k", semantics.KindParam, 4, nil)
	f.check(err)
	f.comp(p, "x", semantics.IntrinsicType(semantics.Real, &semantics.ParamRef{Name: "k"}))
	n, err := semantics.NewObject(f.mod, f.pos(), "n", intT(4), semantics.ArraySpec{}, 0, nil)
	f.check(err)
	f.ctx.Spec(p, f.pos(), semantics.ParamBinding{Name: "k", Value: semantics.ExplicitParam(semantics.Ref(n))})
	f.ctx.Spec(p, f.pos(), semantics.ParamBinding{Name: "k", Value: semantics.ExplicitParam(semantics.Int(4))})
	tables := f.build()

	if got := join(tables.SortedNames()); got != "m.p.k_4" {
		t.Errorf("names = %q, want m.p.k_4", got)
	}
	if len(tables.Errors) != 1 || tables.Errors[0].Kind != UnfoldableParameter {
		t.Errorf("errors = %v, want one UnfoldableParameter", tables.Errors)
	}
}

func TestUnfoldableDefaultInit(t *testing.T) {
	f := newFixture(t)
	n, err := semantics.NewObject(f.mod, f.pos(), "n", intT(4), semantics.ArraySpec{}, 0, nil)
	f.check(err)
	ts := f.typ(f.mod, "t")
	_, err = semantics.AddComponent(ts, f.pos(), "i", intT(4), semantics.ArraySpec{}, 0, semantics.Ref(n))
	f.check(err)
	tables := f.build()

	c := tableElems(f.descriptor(tables, "m.t").Find("component"))[0]
	if !isNull(c.Find("initialization")) {
		t.Errorf("initialization = %s, want NULL()", c.Find("initialization"))
	}
	if len(tables.Errors) != 1 || tables.Errors[0].Kind != UnfoldableParameter {
		t.Errorf("errors = %v, want one UnfoldableParameter", tables.Errors)
	}
}

func TestDefaultInitShared(t *testing.T) {
	f := newFixture(t)
	for _, name := range []string{"a", "b"} {
		ts := f.typ(f.mod, name)
		_, err := semantics.AddComponent(ts, f.pos(), "n", intT(4), semantics.ArraySpec{}, 0, semantics.Int(0))
		f.check(err)
	}
	tables := f.build()

	var inits []string
	for _, name := range []string{"m.a", "m.b"} {
		dt := f.descriptor(tables, name)
		if got := field(dt, "noinitializationneeded"); got != 0 {
			t.Errorf("%s: noinitializationneeded = %d, want 0", name, got)
		}
		inits = append(inits, refName(tableElems(dt.Find("component"))[0].Find("initialization")))
	}
	if inits[0] != ".di.m.a.n" || inits[1] != inits[0] {
		t.Errorf("initializations = %v, want both .di.m.a.n", inits)
	}
	if tables.Object(".di.m.b.n") != nil {
		t.Errorf(".di.m.b.n emitted")
	}
	// The names are interned the same way.
	if tables.Object(".n.n") == nil {
		t.Errorf(".n.n not emitted")
	}
}

func TestArrayBounds(t *testing.T) {
	f := newFixture(t)
	ts := f.typ(f.mod, "t")
	_, err := semantics.AddComponent(ts, f.pos(), "a", intT(4), semantics.ExplicitShape([2]int64{0, 2}, [2]int64{1, 4}), 0, nil)
	f.check(err)
	_, err = semantics.AddComponent(ts, f.pos(), "p", intT(4), semantics.DeferredShape(1), semantics.MakeAttrs(semantics.Pointer), nil)
	f.check(err)
	tables := f.build()

	comps := tableElems(f.descriptor(tables, "m.t").Find("component"))
	a, p := comps[0], comps[1]
	if got := field(a, "rank"); got != 2 {
		t.Errorf("a rank = %d, want 2", got)
	}
	if got := refName(a.Find("bounds")); got != ".b.m.t.a" {
		t.Fatalf("a bounds = %s, want .b.m.t.a", got)
	}
	values, _ := arrayValues(a.Find("bounds"))
	var bounds []int64
	for _, v := range values {
		bounds = append(bounds, field(v.(*semantics.StructureCtor), "value"))
	}
	if got, want := len(bounds), 4; got != want {
		t.Fatalf("%d bounds, want %d", got, want)
	}
	for i, want := range []int64{0, 2, 1, 4} {
		if bounds[i] != want {
			t.Errorf("bounds = %v, want [0 2 1 4]", bounds)
			break
		}
	}
	if !isNull(p.Find("bounds")) || field(p, "genre") != rtabi.GenrePointer {
		t.Errorf("p = %s, want a pointer without bounds", p)
	}
}

func TestProcPointerComponent(t *testing.T) {
	f := newFixture(t)
	iface := f.sub(f.mod, "callback")
	ts := f.typ(f.mod, "t")
	f.comp(ts, "i", intT(4))
	_, err := semantics.AddProcComponent(ts, f.pos(), "cb", iface, 0, iface, false)
	f.check(err)
	tables := f.build()

	dt := f.descriptor(tables, "m.t")
	comps := tableElems(dt.Find("component"))
	if got := join(names(comps)); got != "i cb" {
		t.Fatalf("components = %q", got)
	}
	if got := field(comps[1], "category"); got != rtabi.CategoryProcPointer {
		t.Errorf("cb category = %d, want %d", got, rtabi.CategoryProcPointer)
	}
	procs := tableElems(dt.Find("procptr"))
	if len(procs) != 1 {
		t.Fatalf("%d procptr entries, want 1", len(procs))
	}
	if got := field(procs[0], "offset"); got != 8 {
		t.Errorf("cb offset = %d, want 8", got)
	}
	if got := refName(procs[0].Find("initialization")); got != "callback" {
		t.Errorf("cb initialization = %s, want callback", got)
	}
}

func TestLengthParameters(t *testing.T) {
	f := newFixture(t)
	s := f.typ(f.mod, "s")
	_, err := semantics.AddTypeParam(s, f.pos(), "n", semantics.LenParam, 8, nil)
	f.check(err)
	f.comp(s, "c", semantics.CharacterType(semantics.ExplicitParam(&semantics.ParamRef{Name: "n"}), semantics.Int(1)))
	ln := func(v semantics.ParamValue) semantics.ParamBinding { return semantics.ParamBinding{Name: "n", Value: v} }
	f.ctx.Spec(s, f.pos(), ln(semantics.ExplicitParam(semantics.Int(5))))
	f.ctx.Spec(s, f.pos(), ln(semantics.AssumedParam()))
	tables := f.build()

	if got, want := join(tables.SortedNames()), "m.s m.s.n_5"; got != want {
		t.Fatalf("names = %q, want %q", got, want)
	}

	def := f.descriptor(tables, "m.s")
	kinds, _ := arrayValues(def.Find("lenparameterkind"))
	if len(kinds) != 1 || intValue(kinds[0]) != 8 {
		t.Errorf("lenparameterkind = %v, want [8]", kinds)
	}
	vals, _ := arrayValues(def.Find("lenparametervalue"))
	if len(vals) != 1 || field(vals[0].(*semantics.StructureCtor), "genre") != rtabi.ValueLenParameter {
		t.Errorf("lenparametervalue = %v, want a len parameter reference", vals)
	}
	c := tableElems(def.Find("component"))[0]
	if got := field(c, "genre"); got != rtabi.GenreAutomatic {
		t.Errorf("definition c genre = %d, want %d", got, rtabi.GenreAutomatic)
	}
	if got := c.Find("characterlen").(*semantics.StructureCtor); field(got, "genre") != rtabi.ValueLenParameter || field(got, "value") != 0 {
		t.Errorf("definition c characterlen = %s", got)
	}

	inst := f.descriptor(tables, "m.s.n_5")
	c = tableElems(inst.Find("component"))[0]
	if got := field(c, "genre"); got != rtabi.GenreData {
		t.Errorf("instance c genre = %d, want %d", got, rtabi.GenreData)
	}
	if got := c.Find("characterlen").(*semantics.StructureCtor); field(got, "genre") != rtabi.ValueExplicit || field(got, "value") != 5 {
		t.Errorf("instance c characterlen = %s", got)
	}
	if got := field(inst, "sizeinbytes"); got != 5 {
		t.Errorf("instance sizeinbytes = %d, want 5", got)
	}
}

func TestExternalParent(t *testing.T) {
	f := newFixture(t)
	ext := f.module("ext")
	ext.SetFromModFile(true)
	base := f.typ(ext, "base")
	f.comp(base, "x", intT(4))

	d := f.typ(f.mod, "d")
	f.extend(d, base)
	f.comp(d, "y", intT(4))
	tables := f.build()

	if got := join(tables.SortedNames()); got != "m.d" {
		t.Errorf("names = %q, want m.d", got)
	}
	if _, ok := tables.Externals["ext.base"]; !ok || len(tables.Externals) != 1 {
		t.Errorf("externals = %v, want ext.base", tables.Externals)
	}
	parent := f.descriptor(tables, "m.d").Find("parent")
	sym := refSymbol(parent)
	if sym == nil || sym.Name() != ".dt.ext.base" {
		t.Fatalf("parent = %s, want .dt.ext.base", parent)
	}
	if !sym.Attrs().Has(semantics.External) || !sym.Test(semantics.ModFileDescriptor) {
		t.Errorf("external descriptor %s lacks EXTERNAL or the module-file flag", sym.Name())
	}
	if ed := tables.Lookup("ext.base"); ed == nil || !ed.External || ed.Init() != nil {
		t.Errorf("Lookup(ext.base) = %+v", ed)
	}
}

func TestSpecialProcedures(t *testing.T) {
	f := newFixture(t)
	tt := f.typ(f.mod, "t")
	f.comp(tt, "i", intT(4))
	tClass := semantics.ClassOf(semantics.NewDerivedTypeSpec(tt))
	tType := semantics.TypeOf(semantics.NewDerivedTypeSpec(tt))

	f.sub(f.mod, "t_asgn", tClass, tClass)
	f.sub(f.mod, "t_wf", tClass, intT(4))
	rf := f.sub(f.mod, "t_rf", tType, intT(4))
	other := f.sub(f.mod, "other_asgn", tType, tType)

	asgn := f.binding(tt, "asgn", "t_asgn")
	wf := f.binding(tt, "wf", "t_wf")
	_, err := semantics.AddGeneric(tt.Scope(), f.pos(), semantics.GenericAssignment.String(), semantics.GenericAssignment, asgn)
	f.check(err)
	_, err = semantics.AddGeneric(tt.Scope(), f.pos(), semantics.GenericWriteFormatted.String(), semantics.GenericWriteFormatted, wf)
	f.check(err)
	_, err = semantics.AddGeneric(f.mod, f.pos(), semantics.GenericReadFormatted.String(), semantics.GenericReadFormatted, rf)
	f.check(err)
	_, err = semantics.AddGeneric(f.mod, f.pos(), semantics.GenericAssignment.String(), semantics.GenericAssignment, other)
	f.check(err)
	semantics.ResolveBindings(tt)

	u := f.typ(f.mod, "u")
	f.extend(u, tt)
	f.sub(f.mod, "u_asgn", semantics.ClassOf(semantics.NewDerivedTypeSpec(u)), tClass)
	f.binding(u, "asgn", "u_asgn")
	semantics.ResolveBindings(u)
	tables := f.build()

	type entry struct {
		which, argDesc, typeBound int64
		proc                      string
	}
	check := func(name string, bitset int64, want []entry) {
		t.Run(name, func(t *testing.T) {
			dt := f.descriptor(tables, name)
			specials := tableElems(dt.Find("special"))
			if len(specials) != len(want) {
				t.Fatalf("%d specials, want %d", len(specials), len(want))
			}
			for i, w := range want {
				sp := specials[i]
				got := entry{field(sp, "which"), field(sp, "isargdescriptorset"), field(sp, "istypebound"), refName(sp.Find("proc"))}
				if got != w {
					t.Errorf("special %d = %+v, want %+v", i, got, w)
				}
			}
			if got := field(dt, "specialbitset"); got != bitset {
				t.Errorf("specialbitset = %#x, want %#x", got, bitset)
			}
			if got := field(dt, "nodefinedassignment"); got != 0 {
				t.Errorf("nodefinedassignment = %d, want 0", got)
			}
		})
	}
	check("m.t", 1<<1|1<<3|1<<5, []entry{
		{rtabi.ScalarAssignment, 3, 1, "t_asgn"},
		{rtabi.ReadFormatted, 0, 0, "t_rf"},
		{rtabi.WriteFormatted, 1, 1, "t_wf"},
	})
	check("m.u", 1<<1|1<<5, []entry{
		{rtabi.ScalarAssignment, 3, 1, "u_asgn"},
		{rtabi.WriteFormatted, 1, 1, "t_wf"},
	})
}

func TestInternalVariableScopes(t *testing.T) {
	f := newFixture(t)
	sub := f.sub(f.mod, "run")
	blk := semantics.NewBlock(sub.Scope())
	f.comp(f.typ(sub.Scope(), "local"), "i", intT(4))
	f.comp(f.typ(blk, "inner"), "i", intT(4))
	tables := f.build()

	if got, want := join(tables.SortedNames()), "m.run.$block1.inner m.run.local"; got != want {
		t.Errorf("names = %q, want %q", got, want)
	}
}

func TestBlockNamesDistinct(t *testing.T) {
	f := newFixture(t)
	host := f.sub(f.mod, "s")
	named := f.sub(host.Scope(), "block1")
	f.comp(f.typ(named.Scope(), "t"), "i", intT(4))
	blk := semantics.NewBlock(host.Scope())
	bt := f.typ(blk, "t")
	f.comp(bt, "x", realT(8))
	f.comp(bt, "y", realT(8))
	tables := f.build()

	if got, want := join(tables.SortedNames()), "m.s.$block1.t m.s.block1.t"; got != want {
		t.Fatalf("names = %q, want %q", got, want)
	}
	if got := field(f.descriptor(tables, "m.s.block1.t"), "sizeinbytes"); got != 4 {
		t.Errorf("m.s.block1.t sizeinbytes = %d, want 4", got)
	}
	if got := field(f.descriptor(tables, "m.s.$block1.t"), "sizeinbytes"); got != 16 {
		t.Errorf("m.s.$block1.t sizeinbytes = %d, want 16", got)
	}
}

func TestDefinitionsSharingName(t *testing.T) {
	f := newFixture(t)
	f.comp(f.typ(f.mod, "t"), "i", intT(4))
	// A second definition scope named t that the module does not list.
	other := semantics.NewSymbol(f.pos(), "t", 0, &semantics.DerivedTypeDetails{})
	semantics.NewScope(f.mod, semantics.ScopeDerivedType, other)
	f.ctx.CompleteLayouts()

	tables, err := BuildRuntimeDerivedTypeTables(f.ctx)
	if !errors.Is(err, &Error{Kind: InternalInvariant}) {
		t.Fatalf("err = %v, want InternalInvariant", err)
	}
	if !strings.Contains(err.Error(), "share the name m.t") {
		t.Errorf("err = %v", err)
	}
	if got := join(tables.SortedNames()); got != "m.t" {
		t.Errorf("names = %q, want m.t", got)
	}
	if err := Verify(tables); err == nil || !strings.Contains(err.Error(), "share descriptor m.t") {
		t.Errorf("Verify = %v, want a shared descriptor violation", err)
	}
}

func TestErrorKinds(t *testing.T) {
	tests := []struct {
		kind  ErrorKind
		name  string
		fatal bool
	}{
		{MissingSchema, "missing schema", true},
		{UnfoldableParameter, "unfoldable parameter", false},
		{MissingBindingTarget, "missing binding target", false},
		{InvalidOverride, "invalid override", false},
		{InternalInvariant, "internal invariant", false},
		{ErrorKind(42), "ErrorKind(42)", false},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.name {
			t.Errorf("String() = %q, want %q", got, tt.name)
		}
		if got := tt.kind.Fatal(); got != tt.fatal {
			t.Errorf("%s: Fatal() = %v, want %v", tt.name, got, tt.fatal)
		}
	}
	e := errorf(InvalidOverride, source.NewPos("m.f90", 1, 1), "binding %s", "foo")
	if got, want := e.Error(), "m.f90:1:1: invalid override: binding foo"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if errors.Is(e, &Error{Kind: MissingSchema}) || !errors.Is(e, &Error{Kind: InvalidOverride}) {
		t.Errorf("errors.Is does not match by kind")
	}
}
