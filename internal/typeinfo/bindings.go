package typeinfo

import (
	"strings"

	"src.elv.sh/pkg/persistent/vector"

	"github.com/you-not-fish/ftypeinfo/internal/semantics"
)

// binding is one slot of a binding table.
type binding struct {
	symbol   *semantics.Symbol
	override bool // replaces a binding of an ancestor
}

// bindingTable is the override-resolved binding table of a type: a
// persistent vector of *binding, sharing structure with the tables of
// its ancestors, and the slot of each binding name.
type bindingTable struct {
	slots vector.Vector
	index map[string]int
}

func (t *bindingTable) Len() int { return t.slots.Len() }

func (t *bindingTable) at(i int) *binding {
	v, _ := t.slots.Index(i)
	return v.(*binding)
}

// lookup returns the binding in the slot of name.
func (t *bindingTable) lookup(name string) *binding {
	i, ok := t.index[strings.ToLower(name)]
	if !ok {
		return nil
	}
	return t.at(i)
}

func (t *bindingTable) symbols() []*semantics.Symbol {
	out := make([]*semantics.Symbol, 0, t.Len())
	for it := t.slots.Iterator(); it.HasElem(); it.Next() {
		out = append(out, it.Elem().(*binding).symbol)
	}
	return out
}

// overrideChecker reports an InvalidOverride; it returns false to keep
// the overridden binding.
type overrideChecker func(old, over *semantics.Symbol) bool

// bindingTables computes binding tables along extension chains.
type bindingTables struct {
	memo  map[*semantics.Scope]*bindingTable
	check overrideChecker
}

func newBindingTables(check overrideChecker) *bindingTables {
	return &bindingTables{memo: make(map[*semantics.Scope]*bindingTable), check: check}
}

// of returns the binding table of the derived-type scope dt: the parent's
// slots in parent order, an overriding binding in the slot it overrides
// and new bindings appended in declaration order.
func (bt *bindingTables) of(dt *semantics.Scope) *bindingTable {
	if t := bt.memo[dt]; t != nil {
		return t
	}
	// Walk to the root first so that every ancestor is memoized without
	// recursion.
	var chain []*semantics.Scope
	for s := dt; s != nil && bt.memo[s] == nil; s = s.DerivedTypeParent() {
		if containsScope(chain, s) {
			break
		}
		chain = append(chain, s)
	}
	for i := len(chain) - 1; i >= 0; i-- {
		s := chain[i]
		base := &bindingTable{slots: vector.Empty, index: map[string]int{}}
		if p := s.DerivedTypeParent(); p != nil && bt.memo[p] != nil {
			base = bt.memo[p]
		}
		bt.memo[s] = bt.extend(base, s)
	}
	return bt.memo[dt]
}

func (bt *bindingTables) extend(base *bindingTable, s *semantics.Scope) *bindingTable {
	t := &bindingTable{slots: base.slots, index: base.index}
	copied := false
	for _, sym := range s.Symbols() {
		if _, ok := sym.Details().(*semantics.ProcBindingDetails); !ok {
			continue
		}
		if i, ok := t.index[sym.Name()]; ok {
			old := t.at(i)
			if old.symbol == sym {
				continue
			}
			if bt.check != nil && !bt.check(old.symbol, sym) {
				continue
			}
			t.slots = t.slots.Assoc(i, &binding{symbol: sym, override: true})
			continue
		}
		if !copied {
			index := make(map[string]int, len(base.index)+1)
			for k, v := range base.index {
				index[k] = v
			}
			t.index = index
			copied = true
		}
		t.index[sym.Name()] = t.slots.Len()
		t.slots = t.slots.Conj(&binding{symbol: sym})
	}
	return t
}

func containsScope(list []*semantics.Scope, s *semantics.Scope) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}

// CollectBindings returns the specific type-bound procedures visible in
// the derived-type scope dtScope, override-resolved: the parent's
// bindings in the parent's order with overridden slots taking the
// overriding binding, then the type's new bindings in declaration order.
// An incompatible override keeps the parent's binding.
func CollectBindings(dtScope *semantics.Scope) []*semantics.Symbol {
	bt := newBindingTables(compatibleOverride)
	return bt.of(dtScope).symbols()
}

// CollectGenericSpecifics returns the specific bindings of the type-bound
// generic named generic as seen from dtScope. Specifics inherited from
// the parent keep the parent's order, specifics the type adds are
// appended in declaration order, and each is resolved through the
// type's binding table so that an overriding binding replaces the one
// it overrides.
func CollectGenericSpecifics(dtScope *semantics.Scope, generic string) []*semantics.Symbol {
	return newBindingTables(compatibleOverride).genericSpecifics(dtScope, generic)
}

func (bt *bindingTables) genericSpecifics(dt *semantics.Scope, generic string) []*semantics.Symbol {
	generic = strings.ToLower(generic)
	var chain []*semantics.Scope
	for s := dt; s != nil && !containsScope(chain, s); s = s.DerivedTypeParent() {
		chain = append(chain, s)
	}
	names := vector.Empty
	seen := map[string]bool{}
	for i := len(chain) - 1; i >= 0; i-- {
		sym := chain[i].Lookup(generic)
		if sym == nil {
			continue
		}
		g, ok := sym.Details().(*semantics.GenericDetails)
		if !ok {
			continue
		}
		for _, spec := range g.Specifics {
			if !seen[spec.Name()] {
				seen[spec.Name()] = true
				names = names.Conj(spec)
			}
		}
	}

	table := bt.of(dt)
	out := make([]*semantics.Symbol, 0, names.Len())
	for it := names.Iterator(); it.HasElem(); it.Next() {
		spec := it.Elem().(*semantics.Symbol)
		if b := table.lookup(spec.Name()); b != nil {
			out = append(out, b.symbol)
		} else {
			out = append(out, spec)
		}
	}
	return out
}

// bindingInterface returns the procedure giving the characteristics of a
// binding: its target, or the interface of a deferred binding.
func bindingInterface(sym *semantics.Symbol) *semantics.Symbol {
	d, ok := sym.Details().(*semantics.ProcBindingDetails)
	if !ok {
		return nil
	}
	if d.Target != nil {
		return d.Target
	}
	return d.Interface
}

// compatibleOverride reports whether over may override old: both PASS or
// both NOPASS, both functions or both subroutines, with the same number
// of dummy arguments, and a deferred binding may not override a
// non-deferred one. Bindings whose procedures are unknown are accepted.
func compatibleOverride(old, over *semantics.Symbol) bool {
	return overrideProblem(old, over) == ""
}

func overrideProblem(old, over *semantics.Symbol) string {
	if old.Attrs().Has(semantics.NoPass) != over.Attrs().Has(semantics.NoPass) {
		return "NOPASS attribute differs from the overridden binding"
	}
	if over.Attrs().Has(semantics.Deferred) && !old.Attrs().Has(semantics.Deferred) {
		return "a DEFERRED binding cannot override a non-deferred binding"
	}
	op, np := bindingInterface(old), bindingInterface(over)
	if op == nil || np == nil {
		return ""
	}
	od, ok1 := op.Details().(*semantics.SubprogramDetails)
	nd, ok2 := np.Details().(*semantics.SubprogramDetails)
	if !ok1 || !ok2 {
		return ""
	}
	if od.IsFunction != nd.IsFunction {
		return "function and subroutine bindings cannot override each other"
	}
	if len(od.DummyArgs) != len(nd.DummyArgs) {
		return "number of dummy arguments differs from the overridden binding"
	}
	return ""
}

// passIndex returns the index of the passed-object dummy argument of a
// binding, or NoPassIndex.
func passIndex(sym *semantics.Symbol, noPass int) int {
	if sym.Attrs().Has(semantics.NoPass) {
		return noPass
	}
	d := sym.Details().(*semantics.ProcBindingDetails)
	if d.PassName == "" {
		return 0
	}
	proc := bindingInterface(sym)
	if proc == nil {
		return 0
	}
	if sd, ok := proc.Details().(*semantics.SubprogramDetails); ok {
		for i, arg := range sd.DummyArgs {
			if arg.Name() == strings.ToLower(d.PassName) {
				return i
			}
		}
	}
	return 0
}
