package typeinfo

import (
	"github.com/you-not-fish/ftypeinfo/internal/rtabi"
	"github.com/you-not-fish/ftypeinfo/internal/semantics"
)

// summary holds what the runtime needs to do for objects of a type.
type summary struct {
	needsInit         bool // some component has a default or null initialization
	needsDestruction  bool // some component is allocatable or automatic
	needsFinal        bool // the type or a component type has FINAL subroutines
	definedAssignment bool // the type or a component type has defined assignment
}

// summaryEdge is a component of derived type from whose type the summary
// of its owner takes flags.
type summaryEdge struct {
	from, to *semantics.Scope
	data     bool
}

// summarize computes the summary of the derived-type scope dt from its
// components. The summaries of all types reachable from dt are solved
// together, so a cycle of allocatable components gives each of its types
// the same flags whichever is reached first.
func (b *builder) summarize(dt *semantics.Scope) *summary {
	if sum, ok := b.summary[dt]; ok {
		return sum
	}
	local := map[*semantics.Scope]*summary{}
	var edges []summaryEdge
	queue := []*semantics.Scope{dt}
	for len(queue) > 0 {
		s := queue[0]
		queue = queue[1:]
		if _, seen := local[s]; seen {
			continue
		}
		sum, out := b.localSummary(s)
		local[s] = sum
		for _, e := range out {
			if _, done := b.summary[e.to]; !done {
				queue = append(queue, e.to)
			}
		}
		edges = append(edges, out...)
	}

	lookup := func(s *semantics.Scope) *summary {
		if sum, ok := local[s]; ok {
			return sum
		}
		return b.summary[s]
	}
	for changed := true; changed; {
		changed = false
		for _, e := range edges {
			sum, is := lookup(e.from), lookup(e.to)
			before := *sum
			if e.data {
				sum.needsInit = sum.needsInit || is.needsInit
				sum.needsDestruction = sum.needsDestruction || is.needsDestruction
			}
			sum.needsFinal = sum.needsFinal || is.needsFinal
			sum.definedAssignment = sum.definedAssignment || is.definedAssignment
			if *sum != before {
				changed = true
			}
		}
	}
	for s, sum := range local {
		b.summary[s] = sum
	}
	return local[dt]
}

// localSummary returns the flags of dt that do not depend on its component
// types, together with the component types they do depend on.
func (b *builder) localSummary(dt *semantics.Scope) (*summary, []summaryEdge) {
	sum := &summary{}
	if td, ok := dt.Symbol().Details().(*semantics.DerivedTypeDetails); ok && len(td.Finals) > 0 {
		sum.needsFinal = true
	}
	for _, sp := range b.specialsOf(dt) {
		if sp.which == rtabi.ScalarAssignment || sp.which == rtabi.ElementalAssignment {
			sum.definedAssignment = true
		}
	}

	var edges []summaryEdge
	for _, comp := range dt.Components() {
		cd, ok := comp.Details().(*semantics.ObjectEntityDetails)
		if !ok {
			sum.needsInit = true // procedure pointers are nullified
			continue
		}
		genre := componentGenre(comp)
		switch genre {
		case rtabi.GenrePointer:
			sum.needsInit = true
			continue
		case rtabi.GenreAllocatable, rtabi.GenreAutomatic:
			sum.needsInit = true
			sum.needsDestruction = true
		}
		if cd.Init != nil {
			sum.needsInit = true
		}
		spec := cd.Type.AsDerived()
		if spec == nil {
			continue
		}
		inner := specScope(spec)
		if inner == nil || inner == dt {
			continue
		}
		edges = append(edges, summaryEdge{from: dt, to: inner, data: genre == rtabi.GenreData})
	}
	return sum, edges
}
