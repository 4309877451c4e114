package typeinfo

import (
	"testing"

	"github.com/you-not-fish/ftypeinfo/internal/builtins"
	"github.com/you-not-fish/ftypeinfo/internal/semantics"
	"github.com/you-not-fish/ftypeinfo/internal/source"
)

// fixture builds a small program in module m.
type fixture struct {
	t    *testing.T
	ctx  *semantics.Context
	mod  *semantics.Scope
	line uint32
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := semantics.NewContext(nil)
	if _, err := builtins.Install(ctx, nil); err != nil {
		t.Fatalf("builtins.Install: %v", err)
	}
	f := &fixture{t: t, ctx: ctx}
	f.mod = f.module("m")
	return f
}

func (f *fixture) pos() source.Pos {
	f.line++
	return source.NewPos("m.f90", f.line, 1)
}

func (f *fixture) module(name string) *semantics.Scope {
	f.t.Helper()
	m, err := f.ctx.NewModule(f.pos(), name)
	if err != nil {
		f.t.Fatal(err)
	}
	return m
}

func (f *fixture) check(err error) {
	f.t.Helper()
	if err != nil {
		f.t.Fatal(err)
	}
}

func intT(kind int64) *semantics.DeclTypeSpec {
	return semantics.IntrinsicType(semantics.Integer, semantics.Int(kind))
}

func realT(kind int64) *semantics.DeclTypeSpec {
	return semantics.IntrinsicType(semantics.Real, semantics.Int(kind))
}

func (f *fixture) typ(scope *semantics.Scope, name string, attrs ...semantics.Attr) *semantics.Symbol {
	f.t.Helper()
	ts, err := semantics.NewDerivedType(scope, f.pos(), name, semantics.MakeAttrs(attrs...))
	f.check(err)
	return ts
}

func (f *fixture) comp(ts *semantics.Symbol, name string, typ *semantics.DeclTypeSpec, attrs ...semantics.Attr) *semantics.Symbol {
	f.t.Helper()
	c, err := semantics.AddComponent(ts, f.pos(), name, typ, semantics.ArraySpec{}, semantics.MakeAttrs(attrs...), nil)
	f.check(err)
	return c
}

func (f *fixture) extend(ts, parent *semantics.Symbol) {
	f.t.Helper()
	_, err := semantics.Extend(ts, f.pos(), semantics.NewDerivedTypeSpec(parent))
	f.check(err)
}

// sub declares a subroutine in scope whose dummy arguments have the
// given types; a rank > 0 gives an explicit-shape dummy.
func (f *fixture) sub(scope *semantics.Scope, name string, dummies ...*semantics.DeclTypeSpec) *semantics.Symbol {
	f.t.Helper()
	s, err := semantics.NewSubprogram(scope, f.pos(), name, false, 0)
	f.check(err)
	for i, typ := range dummies {
		_, err := semantics.AddDummy(s, f.pos(), "a"+string(rune('0'+i)), typ, semantics.ArraySpec{}, 0)
		f.check(err)
	}
	return s
}

func (f *fixture) binding(ts *semantics.Symbol, name, target string, attrs ...semantics.Attr) *semantics.Symbol {
	f.t.Helper()
	b, err := semantics.AddBinding(ts, f.pos(), name, target, "", semantics.MakeAttrs(attrs...))
	f.check(err)
	return b
}

// build runs the pass, requires it to succeed and verifies the result.
func (f *fixture) build() *RuntimeDerivedTypeTables {
	f.t.Helper()
	f.ctx.CompleteLayouts()
	tables, err := BuildRuntimeDerivedTypeTables(f.ctx)
	if err != nil {
		f.t.Fatalf("BuildRuntimeDerivedTypeTables: %v", err)
	}
	if err := Verify(tables); err != nil {
		f.t.Fatalf("Verify: %v", err)
	}
	return tables
}

func (f *fixture) descriptor(tables *RuntimeDerivedTypeTables, name string) *semantics.StructureCtor {
	f.t.Helper()
	d := tables.Lookup(name)
	if d == nil {
		f.t.Fatalf("no descriptor %s; names %v", name, tables.SortedNames())
	}
	if d.Init() == nil {
		f.t.Fatalf("descriptor %s has no initializer", name)
	}
	return d.Init()
}

func field(ctor *semantics.StructureCtor, name string) int64 {
	return intValue(ctor.Find(name))
}

func names(ctors []*semantics.StructureCtor) []string {
	out := make([]string, len(ctors))
	for i, c := range ctors {
		out[i] = stringValue(c.Find("name"))
	}
	return out
}

func join(list []string) string {
	s := ""
	for i, x := range list {
		if i > 0 {
			s += " "
		}
		s += x
	}
	return s
}

func refName(e semantics.Expr) string {
	if sym := refSymbol(e); sym != nil {
		return sym.Name()
	}
	return e.String()
}
