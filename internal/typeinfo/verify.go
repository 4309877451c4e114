package typeinfo

import (
	"fmt"
	"strings"

	"modernc.org/mathutil"

	"github.com/you-not-fish/ftypeinfo/internal/rtabi"
	"github.com/you-not-fish/ftypeinfo/internal/semantics"
)

// Verify checks the structural integrity of built tables.
// It returns an error describing all violations found, or nil if valid.
func Verify(t *RuntimeDerivedTypeTables) error {
	var errs []string

	add := func(format string, args ...interface{}) {
		errs = append(errs, fmt.Sprintf(format, args...))
	}

	if t.Schemata == nil {
		add("no schemata scope")
		return combineErrors(errs)
	}

	bySymbol := make(map[*semantics.Symbol]*Descriptor, len(t.Descriptors))
	local := 0
	for _, d := range t.Descriptors {
		bySymbol[d.Symbol] = d
		if d.Symbol.Owner() != t.Schemata {
			add("descriptor %s: object is not in %s", d.Name, t.Schemata.Name())
		}
		if want := rtabi.PrefixDerivedType + d.Name; d.Symbol.Name() != want {
			add("descriptor %s: object named %s, want %s", d.Name, d.Symbol.Name(), want)
		}
		_, named := t.Names[d.Name]
		_, external := t.Externals[d.Name]
		if d.External {
			if named || !external {
				add("external descriptor %s: listed in names %v, in externals %v", d.Name, named, external)
			}
			if d.Init() != nil {
				add("external descriptor %s has an initializer", d.Name)
			}
			continue
		}
		local++
		if !named {
			add("descriptor %s missing from names", d.Name)
		}
		if d.Init() == nil {
			add("descriptor %s has no initializer (unresolved forward reference)", d.Name)
		}
	}
	if local != len(t.Names) {
		add("%d names for %d descriptors", len(t.Names), local)
	}

	verifyDefinitions(t, add)

	for _, d := range t.Descriptors {
		if d.External || d.Init() == nil {
			continue
		}
		verifyComponents(d, add)
		verifyBindings(d, add)
		verifySpecials(d, add)
		verifyParentChain(d, bySymbol, len(t.Descriptors), add)
	}

	// Every object referenced from an emitted initializer must be emitted
	// too.
	for _, sym := range t.Schemata.Symbols() {
		od, ok := sym.Details().(*semantics.ObjectEntityDetails)
		if !ok || od.Init == nil {
			continue
		}
		forEachRef(od.Init, func(ref *semantics.Symbol) {
			if ref.Test(semantics.CompilerCreated) && ref.Owner() != t.Schemata {
				add("%s: reference to %s outside %s", sym.Name(), ref.Name(), t.Schemata.Name())
			}
			if strings.HasPrefix(ref.Name(), rtabi.PrefixDerivedType) && bySymbol[ref] == nil {
				add("%s: reference to unknown descriptor %s", sym.Name(), ref.Name())
			}
		})
	}

	return combineErrors(errs)
}

// verifyDefinitions checks that no two derived-type definitions of the
// compilation are described by one descriptor.
func verifyDefinitions(t *RuntimeDerivedTypeTables, add func(string, ...interface{})) {
	root := t.Schemata
	for root.Parent() != nil {
		root = root.Parent()
	}
	byName := map[string]*semantics.Scope{}
	for _, s := range describedScopes(root) {
		if s.DerivedTypeSpec() != nil {
			continue
		}
		name, err := QualifiedName(s)
		if err != nil {
			continue
		}
		if prev := byName[name]; prev != nil {
			add("derived types at %s and %s share descriptor %s", prev.Pos(), s.Pos(), name)
			continue
		}
		byName[name] = s
	}
}

func verifyComponents(d *Descriptor, add func(string, ...interface{})) {
	init := d.Init()
	comps := tableElems(init.Find("component"))
	syms := d.Scope.Components()
	if len(comps) != len(syms) {
		add("descriptor %s: %d components, scope has %d", d.Name, len(comps), len(syms))
		return
	}
	size := intValue(init.Find("sizeinbytes"))
	var prev int64
	for i, c := range comps {
		off := intValue(c.Find("offset"))
		name := syms[i].Name()
		if off < prev {
			add("descriptor %s: component %s at offset %d precedes offset %d", d.Name, name, off, prev)
		}
		prev = mathutil.MaxInt64(prev, off)
		if off != syms[i].Offset() {
			add("descriptor %s: component %s at offset %d, layout says %d", d.Name, name, off, syms[i].Offset())
		}
		if off+syms[i].Size() > size {
			add("descriptor %s: component %s ends at %d beyond size %d", d.Name, name, off+syms[i].Size(), size)
		}
	}
	if intValue(init.Find("hasparent")) != 0 {
		if len(syms) == 0 || !syms[0].Test(semantics.ParentComp) || (len(comps) > 0 && intValue(comps[0].Find("offset")) != 0) {
			add("descriptor %s: parent component is not first at offset 0", d.Name)
		}
	}
}

func verifyBindings(d *Descriptor, add func(string, ...interface{})) {
	entries := tableElems(d.Init().Find("binding"))
	seen := map[string]bool{}
	for _, e := range entries {
		name := stringValue(e.Find("name"))
		if seen[name] {
			add("descriptor %s: binding %s listed twice", d.Name, name)
		}
		seen[name] = true
	}

	var inherited []*semantics.Symbol
	if p := d.Scope.DerivedTypeParent(); p != nil {
		inherited = CollectBindings(p)
	}
	parentNames := map[string]bool{}
	for _, sym := range inherited {
		parentNames[sym.Name()] = true
	}
	added := 0
	for _, sym := range d.Scope.Symbols() {
		if _, ok := sym.Details().(*semantics.ProcBindingDetails); ok && !parentNames[sym.Name()] {
			added++
		}
	}
	if want := len(inherited) + added; len(entries) != want {
		add("descriptor %s: %d bindings, want %d inherited + %d new", d.Name, len(entries), len(inherited), added)
	}
}

func verifySpecials(d *Descriptor, add func(string, ...interface{})) {
	var bits int64
	seen := map[int64]bool{}
	for _, e := range tableElems(d.Init().Find("special")) {
		which := intValue(e.Find("which"))
		if seen[which] {
			add("descriptor %s: special binding %d listed twice", d.Name, which)
		}
		seen[which] = true
		bits |= 1 << uint(which)
	}
	if got := intValue(d.Init().Find("specialbitset")); got != bits {
		add("descriptor %s: specialbitset %#x, want %#x", d.Name, got, bits)
	}
}

func verifyParentChain(d *Descriptor, bySymbol map[*semantics.Symbol]*Descriptor, limit int, add func(string, ...interface{})) {
	cur := d
	for steps := 0; cur != nil && !cur.External; steps++ {
		if steps > limit {
			add("descriptor %s: parent chain is cyclic", d.Name)
			return
		}
		init := cur.Init()
		if init == nil {
			return
		}
		ref := refSymbol(init.Find("parent"))
		if ref == nil {
			return
		}
		cur = bySymbol[ref]
	}
}

// arrayValues returns the elements of the array object e refers to.
func arrayValues(e semantics.Expr) ([]semantics.Expr, bool) {
	sym := refSymbol(e)
	if sym == nil {
		return nil, false
	}
	od, ok := sym.Details().(*semantics.ObjectEntityDetails)
	if !ok {
		return nil, false
	}
	arr, ok := od.Init.(*semantics.ArrayCtor)
	if !ok {
		return nil, false
	}
	return arr.Values, true
}

// tableElems returns the record constructors of the array object a table
// pointer refers to.
func tableElems(e semantics.Expr) []*semantics.StructureCtor {
	values, _ := arrayValues(e)
	var out []*semantics.StructureCtor
	for _, v := range values {
		if c, ok := v.(*semantics.StructureCtor); ok {
			out = append(out, c)
		}
	}
	return out
}

func refSymbol(e semantics.Expr) *semantics.Symbol {
	if ref, ok := e.(*semantics.Designator); ok {
		return ref.Symbol
	}
	return nil
}

func intValue(e semantics.Expr) int64 {
	v, _ := semantics.ToInt64(e)
	return v
}

// stringValue returns the text of the character object e refers to.
func stringValue(e semantics.Expr) string {
	sym := refSymbol(e)
	if sym == nil {
		return ""
	}
	if od, ok := sym.Details().(*semantics.ObjectEntityDetails); ok {
		if c, ok := od.Init.(*semantics.CharConst); ok {
			return c.Value
		}
	}
	return ""
}

// forEachRef calls fn for each symbol designated in e.
func forEachRef(e semantics.Expr, fn func(*semantics.Symbol)) {
	switch e := e.(type) {
	case *semantics.Designator:
		fn(e.Symbol)
	case *semantics.StructureCtor:
		for _, v := range e.Values {
			forEachRef(v.Value, fn)
		}
	case *semantics.ArrayCtor:
		for _, v := range e.Values {
			forEachRef(v, fn)
		}
	}
}

func combineErrors(errs []string) error {
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("type info verification failed:\n  %s", strings.Join(errs, "\n  "))
}
