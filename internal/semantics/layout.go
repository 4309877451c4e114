package semantics

import (
	"modernc.org/mathutil"

	"github.com/you-not-fish/ftypeinfo/internal/rtabi"
)

// IntrinsicStorage returns the size and alignment of one element of an
// intrinsic type. It fails for an unfolded kind or a non-constant
// character length.
func IntrinsicStorage(t *IntrinsicTypeSpec) (size, align int64, ok bool) {
	k, ok := t.KindValue()
	if !ok || k <= 0 {
		return 0, 0, false
	}
	kind := int64(k)
	switch t.Category {
	case Integer, Logical:
		return kind, kind, true
	case Real:
		if kind == 10 {
			return 16, 16, true
		}
		return kind, kind, true
	case Complex:
		if kind == 10 {
			return 32, 16, true
		}
		return 2 * kind, kind, true
	case Character:
		n, ok := t.Len.Int64()
		if !ok {
			return 0, 0, false
		}
		if n < 0 {
			n = 0
		}
		return n * kind, kind, true
	}
	return 0, 0, false
}

// ElementSize returns the storage of one element of type t; for a
// derived type the layout of its bound scope must be done.
func ElementSize(t *DeclTypeSpec) (int64, bool) {
	if t == nil {
		return 0, false
	}
	switch t.Kind {
	case IntrinsicDecl:
		size, _, ok := IntrinsicStorage(t.Intrinsic)
		return size, ok
	case TypeDerived, ClassDerived:
		if s := t.Derived.Scope(); s != nil && s.LayoutDone() {
			return s.Size(), true
		}
	}
	return 0, false
}

// IsAutomatic reports whether a data component has a nonconstant
// character length or array bound, making it an automatic component
// stored through a descriptor.
func IsAutomatic(sym *Symbol) bool {
	d, ok := sym.details.(*ObjectEntityDetails)
	if !ok || sym.attrs.Has(Pointer) || sym.attrs.Has(Allocatable) {
		return false
	}
	if d.Type != nil && d.Type.Kind == IntrinsicDecl && d.Type.Intrinsic.Category == Character {
		if _, ok := d.Type.Intrinsic.Len.Int64(); !ok {
			return true
		}
	}
	if d.Shape.Rank() > 0 {
		if _, ok := d.Shape.Extents(); !ok {
			return true
		}
	}
	return false
}

// ComputeLayout assigns offsets to the components of the derived-type
// scope s and records its size and alignment. It is idempotent and
// reports whether the layout could be established: every kind
// parameter must be known and every data component type laid out.
func (c *Context) ComputeLayout(s *Scope) bool {
	return c.computeLayout(s, map[*Scope]bool{})
}

func (c *Context) computeLayout(s *Scope, active map[*Scope]bool) bool {
	if s.layoutDone {
		return true
	}
	if active[s] {
		c.Say(s.pos, "derived type %s has a recursive nonpointer nonallocatable component", s.Name())
		return false
	}
	active[s] = true
	defer delete(active, s)

	var offset int64
	var maxAlign int64 = 1
	type placed struct {
		sym                 *Symbol
		offset, size, align int64
	}
	var layout []placed
	for _, comp := range s.Components() {
		size, align, ok := c.componentStorage(comp, active)
		if !ok {
			return false
		}
		offset = alignTo(offset, align)
		layout = append(layout, placed{comp, offset, size, align})
		offset += size
		maxAlign = mathutil.MaxInt64(maxAlign, align)
	}
	for _, p := range layout {
		p.sym.SetLayout(p.offset, p.size, p.align)
	}
	s.SetLayout(alignTo(offset, maxAlign), maxAlign)
	return true
}

func (c *Context) componentStorage(sym *Symbol, active map[*Scope]bool) (size, align int64, ok bool) {
	if _, isProc := sym.details.(*ProcEntityDetails); isProc {
		return rtabi.SizePtr, rtabi.AlignPtr, true
	}
	d := sym.details.(*ObjectEntityDetails)
	if d.Type == nil {
		return 0, 0, false
	}
	if sym.attrs.Has(Pointer) || sym.attrs.Has(Allocatable) || IsAutomatic(sym) {
		addendum := d.Type.Kind != IntrinsicDecl
		return rtabi.DescriptorSize(d.Shape.Rank(), addendum), rtabi.AlignDescriptor, true
	}
	var elem int64
	switch d.Type.Kind {
	case IntrinsicDecl:
		elem, align, ok = IntrinsicStorage(d.Type.Intrinsic)
		if !ok {
			return 0, 0, false
		}
	case TypeDerived:
		ts := d.Type.Derived.Scope()
		if ts == nil || !c.computeLayout(ts, active) {
			return 0, 0, false
		}
		elem, align = ts.Size(), ts.Alignment()
	default:
		// CLASS and TYPE(*) data components are not storable
		return 0, 0, false
	}
	count := int64(1)
	if ext, ok := d.Shape.Extents(); ok {
		for _, n := range ext {
			count *= n
		}
	}
	return elem * count, mathutil.MaxInt64(align, 1), true
}

// CompleteLayouts lays out every derived-type scope of the program whose
// parameters are known: definitions without kind parameters and
// instantiations. It returns the number of scopes laid out.
func (c *Context) CompleteLayouts() int {
	n := 0
	var walk func(s *Scope)
	walk = func(s *Scope) {
		if s.kind == ScopeDerivedType && !s.layoutDone && !hasUnboundKind(s) {
			if c.ComputeLayout(s) {
				n++
			}
		}
		for _, child := range s.children {
			walk(child)
		}
	}
	walk(c.global)
	return n
}

// hasUnboundKind reports whether a derived-type scope has a kind
// parameter without a constant value.
func hasUnboundKind(s *Scope) bool {
	for _, p := range s.TypeParameters() {
		d := p.details.(*TypeParamDetails)
		if d.Attr != KindParam {
			continue
		}
		if s.spec == nil {
			return true
		}
		if _, ok := ToInt64(d.Init); !ok || p.owner != s {
			return true
		}
	}
	return false
}

// alignTo returns x rounded up to a multiple of a.
func alignTo(x, a int64) int64 {
	return (x + a - 1) &^ (a - 1)
}
