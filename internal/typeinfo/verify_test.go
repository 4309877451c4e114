package typeinfo

import (
	"strings"
	"testing"

	"github.com/you-not-fish/ftypeinfo/internal/semantics"
)

func setValue(ctor *semantics.StructureCtor, name string, v semantics.Expr) {
	for i := range ctor.Values {
		if ctor.Values[i].Name == name {
			ctor.Values[i].Value = v
		}
	}
}

// sampleTables builds t with components i and r, a binding and a final
// subroutine, and u extending t.
func sampleTables(t *testing.T) (*fixture, *RuntimeDerivedTypeTables) {
	f := newFixture(t)
	tt := f.typ(f.mod, "t")
	f.comp(tt, "i", intT(4))
	f.comp(tt, "r", realT(4))
	f.sub(f.mod, "t_foo", semantics.ClassOf(semantics.NewDerivedTypeSpec(tt)))
	f.binding(tt, "foo", "t_foo")
	f.finalSub("t_final", tt, 0)
	semantics.ResolveBindings(tt)
	u := f.typ(f.mod, "u")
	f.extend(u, tt)
	f.comp(u, "j", intT(8))
	return f, f.build()
}

func TestVerify(t *testing.T) {
	tests := []struct {
		name    string
		corrupt func(f *fixture, tables *RuntimeDerivedTypeTables)
		want    string
	}{
		{
			"offset",
			func(f *fixture, tables *RuntimeDerivedTypeTables) {
				c := tableElems(f.descriptor(tables, "m.t").Find("component"))[1]
				setValue(c, "offset", semantics.Int(2))
			},
			"layout says 4",
		},
		{
			"order",
			func(f *fixture, tables *RuntimeDerivedTypeTables) {
				c := tableElems(f.descriptor(tables, "m.t").Find("component"))[0]
				setValue(c, "offset", semantics.Int(6))
			},
			"precedes offset 6",
		},
		{
			"size",
			func(f *fixture, tables *RuntimeDerivedTypeTables) {
				setValue(f.descriptor(tables, "m.t"), "sizeinbytes", semantics.Int(6))
			},
			"beyond size 6",
		},
		{
			"unfilled",
			func(f *fixture, tables *RuntimeDerivedTypeTables) {
				tables.Lookup("m.u").Symbol.Details().(*semantics.ObjectEntityDetails).Init = nil
			},
			"descriptor m.u has no initializer",
		},
		{
			"names",
			func(f *fixture, tables *RuntimeDerivedTypeTables) {
				delete(tables.Names, "m.u")
			},
			"descriptor m.u missing from names",
		},
		{
			"bindings",
			func(f *fixture, tables *RuntimeDerivedTypeTables) {
				setValue(f.descriptor(tables, "m.u"), "binding", &semantics.Null{})
			},
			"0 bindings, want 1 inherited + 0 new",
		},
		{
			"bitset",
			func(f *fixture, tables *RuntimeDerivedTypeTables) {
				setValue(f.descriptor(tables, "m.t"), "specialbitset", semantics.Int(0))
			},
			"specialbitset 0x0, want 0x200",
		},
		{
			"cycle",
			func(f *fixture, tables *RuntimeDerivedTypeTables) {
				t := f.descriptor(tables, "m.t")
				setValue(t, "parent", semantics.Ref(tables.Lookup("m.u").Symbol))
			},
			"parent chain is cyclic",
		},
		{
			"dangling",
			func(f *fixture, tables *RuntimeDerivedTypeTables) {
				stray := semantics.NewSymbol(f.pos(), ".dt.m.stray", 0, &semantics.ObjectEntityDetails{})
				c := tableElems(f.descriptor(tables, "m.u").Find("component"))[0]
				setValue(c, "derived", semantics.Ref(stray))
			},
			"reference to unknown descriptor .dt.m.stray",
		},
		{
			"schemata",
			func(f *fixture, tables *RuntimeDerivedTypeTables) {
				tables.Schemata = nil
			},
			"no schemata scope",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, tables := sampleTables(t)
			if err := Verify(tables); err != nil {
				t.Fatalf("Verify before corruption: %v", err)
			}
			tt.corrupt(f, tables)
			err := Verify(tables)
			if err == nil {
				t.Fatal("Verify succeeded on corrupted tables")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Verify error %q does not mention %q", err, tt.want)
			}
		})
	}
}
