package typeinfo

import (
	"sort"

	"github.com/you-not-fish/ftypeinfo/internal/rtabi"
	"github.com/you-not-fish/ftypeinfo/internal/semantics"
)

// special is one entry of a special-procedure table.
type special struct {
	which     int
	proc      *semantics.Symbol
	typeBound bool
}

var ioSpecials = map[semantics.GenericKind]int{
	semantics.GenericReadFormatted:    rtabi.ReadFormatted,
	semantics.GenericReadUnformatted:  rtabi.ReadUnformatted,
	semantics.GenericWriteFormatted:   rtabi.WriteFormatted,
	semantics.GenericWriteUnformatted: rtabi.WriteUnformatted,
}

// specialKinds are the generic kinds that give special procedures, in
// the order they are examined.
var specialKinds = []semantics.GenericKind{
	semantics.GenericAssignment,
	semantics.GenericReadFormatted, semantics.GenericReadUnformatted,
	semantics.GenericWriteFormatted, semantics.GenericWriteUnformatted,
}

// specialsOf returns the special procedures of the derived-type scope dt
// ordered by Which, at most one per Which:
//
//   - type-bound defined assignment and defined input/output generics of
//     dt and its ancestors, each specific resolved through dt's binding
//     table, the entry of a more derived type replacing an inherited one;
//   - FINAL subroutines of dt itself, one per rank;
//   - generic interfaces for defined assignment and defined input/output
//     visible in the scope defining the type whose dummy arguments are of
//     the type, unless a type-bound procedure of the same Which exists.
//
// Final subroutines are not inherited: the runtime finalizes the parent
// component through the parent's descriptor.
func (b *builder) specialsOf(dt *semantics.Scope) []special {
	if sp, ok := b.specials[dt]; ok {
		return sp
	}
	byWhich := map[int]special{}
	add := func(sp special) {
		if _, dup := byWhich[sp.which]; !dup {
			byWhich[sp.which] = sp
		}
	}

	// Later specifics come from more derived types and override.
	for _, kind := range specialKinds {
		for _, spec := range b.typeBoundSpecifics(dt, kind.String()) {
			proc := specificTarget(spec)
			if proc == nil || (kind == semantics.GenericAssignment && !assignsType(proc, dt)) {
				continue
			}
			which := specialWhich(kind, proc)
			byWhich[which] = special{which: which, proc: proc, typeBound: true}
		}
	}

	typeSym := dt.Symbol()
	if td, ok := typeSym.Details().(*semantics.DerivedTypeDetails); ok {
		for _, final := range td.Finals {
			add(special{which: finalWhich(final), proc: final.GetUltimate()})
		}
	}

	if host := typeSym.Owner(); host != nil {
		for _, kind := range specialKinds {
			sym, _ := host.LookupParent(kind.String())
			if sym == nil {
				continue
			}
			g, ok := sym.GetUltimate().Details().(*semantics.GenericDetails)
			if !ok || g.Kind != kind {
				continue
			}
			for _, spec := range g.Specifics {
				proc := spec.GetUltimate()
				if !appliesTo(proc, typeSym, kind) {
					continue
				}
				add(special{which: specialWhich(kind, proc), proc: proc})
			}
		}
	}

	out := make([]special, 0, len(byWhich))
	for _, sp := range byWhich {
		out = append(out, sp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].which < out[j].which })
	b.specials[dt] = out
	return out
}

// typeBoundSpecifics returns the specifics of a type-bound generic of dt
// or an ancestor.
func (b *builder) typeBoundSpecifics(dt *semantics.Scope, generic string) []*semantics.Symbol {
	if semantics.FindBinding(dt, generic) == nil {
		return nil
	}
	return b.bindings.genericSpecifics(dt, generic)
}

// specificTarget returns the procedure of a specific of a type-bound
// generic, nil for a deferred binding.
func specificTarget(spec *semantics.Symbol) *semantics.Symbol {
	if d, ok := spec.Details().(*semantics.ProcBindingDetails); ok {
		return d.Target
	}
	if spec.IsProcedure() {
		return spec.GetUltimate()
	}
	return nil
}

// assignsType reports whether a type-bound defined assignment takes a
// right-hand side of the type of dt or of one of its ancestors.
func assignsType(proc *semantics.Symbol, dt *semantics.Scope) bool {
	sd, ok := proc.Details().(*semantics.SubprogramDetails)
	if !ok {
		return true
	}
	if len(sd.DummyArgs) != 2 {
		return false
	}
	spec := sd.DummyArgs[1].Type().AsDerived()
	if spec == nil {
		return false
	}
	for s := dt; s != nil; s = s.DerivedTypeParent() {
		if s.Symbol() == spec.TypeSymbol() {
			return true
		}
	}
	return false
}

func specialWhich(kind semantics.GenericKind, proc *semantics.Symbol) int {
	if kind == semantics.GenericAssignment {
		if proc.Attrs().Has(semantics.Elemental) {
			return rtabi.ElementalAssignment
		}
		return rtabi.ScalarAssignment
	}
	return ioSpecials[kind]
}

// finalWhich classifies a FINAL subroutine by its dummy argument.
func finalWhich(final *semantics.Symbol) int {
	proc := final.GetUltimate()
	if proc.Attrs().Has(semantics.Elemental) {
		return rtabi.ElementalFinal
	}
	sd, ok := proc.Details().(*semantics.SubprogramDetails)
	if !ok || len(sd.DummyArgs) == 0 {
		return rtabi.ScalarFinal
	}
	rank := sd.DummyArgs[0].Rank()
	if rank < 0 {
		return rtabi.AssumedRankFinal
	}
	return rtabi.ScalarFinal + rank
}

// appliesTo reports whether a non-type-bound specific is a special
// procedure of the type typeSym: its first dummy argument, and for
// defined assignment also its second, is of that type.
func appliesTo(proc, typeSym *semantics.Symbol, kind semantics.GenericKind) bool {
	sd, ok := proc.Details().(*semantics.SubprogramDetails)
	if !ok || len(sd.DummyArgs) == 0 {
		return false
	}
	n := 1
	if kind == semantics.GenericAssignment {
		if len(sd.DummyArgs) != 2 {
			return false
		}
		n = 2
	}
	for _, arg := range sd.DummyArgs[:n] {
		spec := arg.Type().AsDerived()
		if spec == nil || spec.TypeSymbol() != typeSym.GetUltimate() {
			return false
		}
	}
	return true
}

// passedByDescriptor reports whether a dummy argument is passed by
// descriptor: assumed-shape, assumed-rank, polymorphic, allocatable or
// pointer dummies.
func passedByDescriptor(arg *semantics.Symbol) bool {
	d, ok := arg.GetUltimate().Details().(*semantics.ObjectEntityDetails)
	if !ok {
		return false
	}
	if arg.Attrs().Has(semantics.Allocatable) || arg.Attrs().Has(semantics.Pointer) {
		return true
	}
	if d.Shape.AssumedRank || d.Shape.IsDeferredShape() {
		return true
	}
	return d.Type != nil && d.Type.IsPolymorphic()
}

// argDescriptorSet returns the bit set of the dummy arguments of proc
// passed by descriptor.
func argDescriptorSet(proc *semantics.Symbol) int64 {
	sd, ok := proc.GetUltimate().Details().(*semantics.SubprogramDetails)
	if !ok {
		return 0
	}
	var set int64
	for i, arg := range sd.DummyArgs {
		if passedByDescriptor(arg) {
			set |= 1 << uint(i)
		}
	}
	return set
}

// specialTable returns the specialbinding records of d.
func (b *builder) specialTable(d *Descriptor) []semantics.Expr {
	var out []semantics.Expr
	for _, sp := range b.specialsOf(d.Scope) {
		out = append(out, b.build(rtabi.RecSpecialBinding, map[string]semantics.Expr{
			"which":              semantics.Int(b.schema.special(sp.which)),
			"isargdescriptorset": semantics.Int(argDescriptorSet(sp.proc)),
			"istypebound":        flag(sp.typeBound),
			"proc":               semantics.Ref(sp.proc),
		}))
	}
	return out
}
