package typeinfo

import (
	"errors"
	"sort"

	"github.com/you-not-fish/ftypeinfo/internal/semantics"
)

// walk selects the derived-type scopes that get a descriptor and returns
// their descriptors in emission order.
//
// Every derived-type definition of this compilation is described unless
// it has kind parameters, and every instantiation is described, including
// instantiations of types defined by another compilation. Builtin
// modules and reserved type-info scopes are not walked. Instantiations
// sharing a canonical name share one descriptor, and a definition takes
// precedence over instantiations with its name. Two definitions with one
// name are an internal error.
func (b *builder) walk() []*Descriptor {
	var roots []*Descriptor
	for _, s := range describedScopes(b.ctx.GlobalScope()) {
		name, err := QualifiedName(s)
		if err != nil {
			var e *Error
			if !errors.As(err, &e) {
				e = errorf(InternalInvariant, s.Pos(), "%v", err)
			}
			b.reportOnce(s, e.Kind, e.Pos, "%s", e.Msg)
			continue
		}
		if !s.LayoutDone() && !b.ctx.ComputeLayout(s) {
			b.report(InternalInvariant, s.Pos(), "layout of derived type %s is not established", name)
			continue
		}
		if d := b.byName[name]; d != nil {
			def, prev := s.DerivedTypeSpec() == nil, d.Scope.DerivedTypeSpec() == nil
			switch {
			case def && prev:
				b.report(InternalInvariant, s.Pos(), "derived types at %s and %s share the name %s", d.Scope.Pos(), s.Pos(), name)
				continue
			case def:
				d.Scope = s
			}
			b.byScope[s] = d
			continue
		}
		d := &Descriptor{Name: name, Scope: s}
		b.byName[name] = d
		b.byScope[s] = d
		roots = append(roots, d)
	}
	sort.Slice(roots, func(i, j int) bool { return roots[i].Name < roots[j].Name })
	return b.postOrder(roots)
}

// describedScopes returns the derived-type scopes below root that get a
// descriptor, in depth-first order.
func describedScopes(root *semantics.Scope) []*semantics.Scope {
	type item struct {
		scope *semantics.Scope
		local bool
	}
	var found []*semantics.Scope
	stack := []item{{root, true}}
	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		s, local := it.scope, it.local
		switch s.Kind() {
		case semantics.ScopeTypeInfo:
			continue
		case semantics.ScopeModule, semantics.ScopeSubmodule:
			if s.IsIntrinsic() {
				continue
			}
			if s.FromModFile() {
				local = false
			}
		case semantics.ScopeDerivedType:
			if s.IsParameterizedInstance() || (local && !hasKindParams(s)) {
				found = append(found, s)
			}
			continue
		}
		children := s.Children()
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, item{children[i], local})
		}
	}
	return found
}
// postOrder orders descriptors so that each follows the descriptors of
// its parent and component types. Cycles through pointer components are
// broken at the first descriptor reached again.
func (b *builder) postOrder(roots []*Descriptor) []*Descriptor {
	const (
		unvisited = iota
		active
		done
	)
	state := make(map[*Descriptor]int, len(roots))
	type frame struct {
		d    *Descriptor
		deps []*Descriptor
		next int
	}
	var out []*Descriptor
	for _, root := range roots {
		if state[root] != unvisited {
			continue
		}
		state[root] = active
		stack := []*frame{{d: root, deps: b.dependencies(root)}}
		for len(stack) > 0 {
			top := stack[len(stack)-1]
			if top.next == len(top.deps) {
				state[top.d] = done
				out = append(out, top.d)
				stack = stack[:len(stack)-1]
				continue
			}
			dep := top.deps[top.next]
			top.next++
			if state[dep] == unvisited {
				state[dep] = active
				stack = append(stack, &frame{d: dep, deps: b.dependencies(dep)})
			}
		}
	}
	return out
}

// dependencies returns the local descriptors of the parent and component
// types of d, in component order.
func (b *builder) dependencies(d *Descriptor) []*Descriptor {
	var deps []*Descriptor
	for _, comp := range d.Scope.Components() {
		spec := comp.Type().AsDerived()
		if spec == nil {
			continue
		}
		if dep := b.byScope[specScope(spec)]; dep != nil && dep != d {
			deps = append(deps, dep)
		}
	}
	return deps
}

// specScope returns the scope a derived type spec refers to.
func specScope(spec *semantics.DerivedTypeSpec) *semantics.Scope {
	if s := spec.Scope(); s != nil {
		return s
	}
	return spec.TypeSymbol().Scope()
}

func hasKindParams(s *semantics.Scope) bool {
	for _, p := range s.TypeParameters() {
		if p.Details().(*semantics.TypeParamDetails).Attr == semantics.KindParam {
			return true
		}
	}
	return false
}
