package program

import (
	"fmt"
	"strings"

	"github.com/you-not-fish/ftypeinfo/internal/semantics"
	"github.com/you-not-fish/ftypeinfo/internal/source"
	"github.com/you-not-fish/ftypeinfo/internal/syntax"
)

// Load declares the program f in ctx. filename appears in the positions
// of declarations that carry a line number. Builtin modules used by the
// program must be installed in ctx first.
//
// Modules are declared in file order, each after the modules it uses.
// Within a module names may be used before their declaration: the
// loader processes use associations, named constants, type parameters,
// type bodies (each after the types it embeds or instantiates), data
// objects and dummy arguments, final subroutines and generic interfaces
// in that order. Type-bound procedure targets are resolved last.
func Load(ctx *semantics.Context, filename string, f *File) error {
	l := &loader{
		ctx:    ctx,
		file:   filename,
		byType: make(map[*semantics.Symbol]*typeEntry),
	}
	return l.load(f)
}

// LoadFile reads the named description and declares it in ctx.
func LoadFile(ctx *semantics.Context, path string) (*File, error) {
	f, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := Load(ctx, path, f); err != nil {
		return f, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

type loader struct {
	ctx  *semantics.Context
	file string

	modules []*moduleEntry
	types   []*typeEntry
	byType  map[*semantics.Symbol]*typeEntry
}

// moduleEntry is a module with the units, types and subprograms
// declared in it.
type moduleEntry struct {
	scope *semantics.Scope
	def   *Module
	where string

	units []*unitEntry
	types []*typeEntry
	subs  []*subEntry
}

type unitEntry struct {
	scope *semantics.Scope
	unit  *Unit
	where string
}

type typeState int

const (
	typeDeclared typeState = iota
	typeDefining
	typeDefined
)

type typeEntry struct {
	sym   *semantics.Symbol
	def   *Type
	host  *semantics.Scope
	where string
	state typeState
}

type subEntry struct {
	sym   *semantics.Symbol
	def   *Subprogram
	where string
}

func (l *loader) load(f *File) error {
	if err := l.declareModules(f); err != nil {
		return err
	}
	phases := []func(*moduleEntry) error{
		l.useModules,
		l.declareConstants,
		l.declareTypeParams,
		l.defineTypes,
		l.declareObjects,
		l.declareFinals,
		l.declareInterfaces,
	}
	for _, me := range l.modules {
		for _, phase := range phases {
			if err := phase(me); err != nil {
				return err
			}
		}
	}
	for _, te := range l.types {
		semantics.ResolveBindings(te.sym)
	}
	return nil
}

func (l *loader) pos(line uint32) source.Pos {
	if line == 0 {
		return source.NoPos
	}
	return source.NewPos(l.file, line, 1)
}

func lower(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func parseAttrs(list []string) (semantics.Attrs, error) {
	var attrs semantics.Attrs
	for _, s := range list {
		a, ok := semantics.ParseAttr(strings.TrimSpace(s))
		if !ok {
			return 0, fmt.Errorf("unknown attribute %q", s)
		}
		attrs = attrs.With(a)
	}
	return attrs, nil
}

// ----------------------------------------------------------------------------
// Scopes

func (l *loader) declareModules(f *File) error {
	for _, m := range f.Modules {
		where := "module " + lower(m.Name)
		var scope *semantics.Scope
		var err error
		if m.Ancestor != "" {
			where = "submodule " + lower(m.Name)
			anc := l.ctx.FindModule(lower(m.Ancestor))
			if anc == nil {
				return fmt.Errorf("%s: ancestor module %s not declared", where, lower(m.Ancestor))
			}
			scope, err = l.ctx.NewSubmodule(l.pos(m.Line), anc, m.Name)
		} else {
			scope, err = l.ctx.NewModule(l.pos(m.Line), m.Name)
		}
		if err != nil {
			return fmt.Errorf("%s: %w", where, err)
		}
		scope.SetFromModFile(m.FromModFile)
		me := &moduleEntry{scope: scope, def: m, where: where}
		l.modules = append(l.modules, me)
		if err := l.declareUnit(me, scope, &m.Unit, where); err != nil {
			return err
		}
	}
	return nil
}

// declareUnit declares the derived types, subprograms and BLOCK
// constructs of u and of the units nested in it.
func (l *loader) declareUnit(me *moduleEntry, scope *semantics.Scope, u *Unit, where string) error {
	me.units = append(me.units, &unitEntry{scope: scope, unit: u, where: where})
	for _, t := range u.Types {
		tw := where + ": type " + lower(t.Name)
		attrs, err := parseAttrs(t.Attrs)
		if err != nil {
			return fmt.Errorf("%s: %w", tw, err)
		}
		ts, err := semantics.NewDerivedType(scope, l.pos(t.Line), t.Name, attrs)
		if err != nil {
			return fmt.Errorf("%s: %w", tw, err)
		}
		te := &typeEntry{sym: ts, def: t, host: scope, where: tw}
		l.types = append(l.types, te)
		l.byType[ts] = te
		me.types = append(me.types, te)
	}
	for _, s := range u.Subprograms {
		sw := where + ": procedure " + lower(s.Name)
		attrs, err := parseAttrs(s.Attrs)
		if err != nil {
			return fmt.Errorf("%s: %w", sw, err)
		}
		sym, err := semantics.NewSubprogram(scope, l.pos(s.Line), s.Name, s.Function, attrs)
		if err != nil {
			return fmt.Errorf("%s: %w", sw, err)
		}
		sym.Details().(*semantics.SubprogramDetails).BindName = s.BindName
		me.subs = append(me.subs, &subEntry{sym: sym, def: s, where: sw})
		if err := l.declareUnit(me, sym.Scope(), &s.Unit, sw); err != nil {
			return err
		}
	}
	for i, b := range u.Blocks {
		if err := l.declareUnit(me, semantics.NewBlock(scope), b, fmt.Sprintf("%s: block %d", where, i+1)); err != nil {
			return err
		}
	}
	return nil
}

// useModules makes the names used by me visible in it. Only names the
// used module declares or imports itself are visible, so a module must
// follow the modules it uses.
func (l *loader) useModules(me *moduleEntry) error {
	for _, u := range me.def.Uses {
		from := l.ctx.FindModule(lower(u.Module))
		if from == nil {
			return fmt.Errorf("%s: use %s: no such module", me.where, lower(u.Module))
		}
		var syms []*semantics.Symbol
		if len(u.Only) == 0 {
			for _, sym := range from.Symbols() {
				if !sym.Attrs().Has(semantics.Private) {
					syms = append(syms, sym)
				}
			}
		}
		for _, name := range u.Only {
			sym := from.Lookup(name)
			if sym == nil || sym.Attrs().Has(semantics.Private) {
				return fmt.Errorf("%s: use %s: no public name %s", me.where, from.Name(), lower(name))
			}
			syms = append(syms, sym)
		}
		for _, sym := range syms {
			if prev := me.scope.Lookup(sym.Name()); prev != nil && prev.GetUltimate() == sym.GetUltimate() {
				continue
			}
			if _, err := semantics.UseSymbol(me.scope, sym, ""); err != nil {
				return fmt.Errorf("%s: use %s: %w", me.where, from.Name(), err)
			}
		}
	}
	return nil
}

// ----------------------------------------------------------------------------
// Named constants

// declareConstants declares the named constants of the units of me,
// each after the constants of the same unit its type, shape and value
// refer to.
func (l *loader) declareConstants(me *moduleEntry) error {
	for _, ue := range me.units {
		byName := make(map[string]*Object)
		for _, o := range ue.unit.Parameters {
			byName[lower(o.Name)] = o
		}
		state := make(map[*Object]typeState)
		var declare func(o *Object) error
		declare = func(o *Object) error {
			switch state[o] {
			case typeDefined:
				return nil
			case typeDefining:
				return fmt.Errorf("%s: constant %s depends on itself", ue.where, lower(o.Name))
			}
			state[o] = typeDefining
			for _, name := range constantRefs(o) {
				if dep := byName[name]; dep != nil && dep != o {
					if err := declare(dep); err != nil {
						return err
					}
				}
			}
			if err := l.declareObject(ue.scope, o, semantics.Parameter); err != nil {
				return fmt.Errorf("%s: constant %s: %w", ue.where, lower(o.Name), err)
			}
			state[o] = typeDefined
			return nil
		}
		for _, o := range ue.unit.Parameters {
			if err := declare(o); err != nil {
				return err
			}
		}
	}
	return nil
}

// constantRefs returns the names the notation of o refers to. Notation
// that does not parse refers to nothing; declaring o reports the error.
func constantRefs(o *Object) []string {
	var names []string
	if s, err := syntax.ParseTypeSpec("", o.Type); err == nil {
		names = append(names, syntax.Names(s)...)
	}
	if strings.TrimSpace(o.Shape) != "" {
		if s, err := syntax.ParseShape("", o.Shape); err == nil {
			names = append(names, syntax.Names(s)...)
		}
	}
	if x, err := syntax.ParseExpr("", o.Init); err == nil {
		names = append(names, syntax.Names(x)...)
	}
	return names
}

// declareObject declares a variable, or a named constant when extra
// holds Parameter.
func (l *loader) declareObject(scope *semantics.Scope, o *Object, extra ...semantics.Attr) error {
	e := &env{ctx: l.ctx, scope: scope, pos: l.pos(o.Line)}
	typ, _, err := e.parseType(o.Type)
	if err != nil {
		return err
	}
	shape, err := e.parseShape(o.Shape)
	if err != nil {
		return err
	}
	attrs, err := parseAttrs(o.Attrs)
	if err != nil {
		return err
	}
	for _, a := range extra {
		attrs = attrs.With(a)
	}
	init, err := e.parseExpr(o.Init)
	if err != nil {
		return err
	}
	if attrs.Has(semantics.Parameter) && init == nil {
		return fmt.Errorf("named constant has no value")
	}
	_, err = semantics.NewObject(scope, e.pos, o.Name, typ, shape, attrs, semantics.Fold(init, nil))
	return err
}

// ----------------------------------------------------------------------------
// Derived types

func (l *loader) declareTypeParams(me *moduleEntry) error {
	for _, te := range me.types {
		for _, p := range te.def.Params {
			if err := l.declareTypeParam(te, p); err != nil {
				return fmt.Errorf("%s: parameter %s: %w", te.where, lower(p.Name), err)
			}
		}
	}
	return nil
}

func (l *loader) declareTypeParam(te *typeEntry, p *TypeParam) error {
	var attr semantics.TypeParamAttr
	switch lower(p.Attr) {
	case "kind":
		attr = semantics.KindParam
	case "len":
		attr = semantics.LenParam
	default:
		return fmt.Errorf("attr must be kind or len, not %q", p.Attr)
	}
	e := &env{ctx: l.ctx, scope: te.host, pos: l.pos(p.Line)}
	kind := 4
	if p.Type != "" {
		typ, _, err := e.parseType(p.Type)
		if err != nil {
			return err
		}
		if kind, err = constKind(typ); err != nil {
			return err
		}
	}
	sym, err := semantics.AddTypeParam(te.sym, e.pos, p.Name, attr, kind, nil)
	if err != nil {
		return err
	}
	// Defaults may refer to parameters declared before this one.
	e.typ = te.sym
	init, err := e.parseExpr(p.Default)
	if err != nil {
		return err
	}
	sym.Details().(*semantics.TypeParamDetails).Init = semantics.Fold(init, nil)
	return nil
}

func (l *loader) defineTypes(me *moduleEntry) error {
	for _, te := range me.types {
		if err := l.defineType(te); err != nil {
			return err
		}
	}
	return nil
}

// defineType declares the body of te after the bodies of the types it
// extends, embeds by value or instantiates. Instantiation copies the
// definition and lays it out, so those must be complete first. A cycle
// can only pass through pointer components and is cut there.
func (l *loader) defineType(te *typeEntry) error {
	if te.state != typeDeclared {
		return nil
	}
	te.state = typeDefining
	for _, dep := range l.typeDeps(te) {
		if err := l.defineType(dep); err != nil {
			return err
		}
	}
	if err := l.defineBody(te); err != nil {
		return fmt.Errorf("%s: %w", te.where, err)
	}
	te.state = typeDefined
	return nil
}

// typeDeps returns the types whose bodies must be defined before the
// body of te. Notation that does not parse yields no dependency;
// defining the body reports the error.
func (l *loader) typeDeps(te *typeEntry) []*typeEntry {
	var deps []*typeEntry
	add := func(name string, byValue bool) {
		sym, _ := te.host.LookupParent(name)
		if sym == nil {
			return
		}
		dep := l.byType[sym.GetUltimate()]
		if dep == nil || dep == te {
			return
		}
		if byValue || len(dep.def.Params) > 0 {
			deps = append(deps, dep)
		}
	}
	if te.def.Extends != "" {
		add(te.def.Extends, true)
	}
	for _, c := range te.def.Components {
		s, err := syntax.ParseTypeSpec("", c.Type)
		if err != nil || s.Derived == nil {
			continue
		}
		attrs, _ := parseAttrs(c.Attrs)
		add(s.Derived.Name.Value, !attrs.Has(semantics.Pointer) && !attrs.Has(semantics.Allocatable))
	}
	return deps
}

func (l *loader) defineBody(te *typeEntry) error {
	t := te.def
	if t.Extends != "" {
		e := &env{ctx: l.ctx, scope: te.host, pos: l.pos(t.Line)}
		parent, err := e.lookupType(lower(t.Extends))
		if err != nil {
			return fmt.Errorf("extends: %w", err)
		}
		// The extension inherits the parameters of its parent.
		if _, err := semantics.Extend(te.sym, e.pos, semantics.NewDerivedTypeSpec(parent)); err != nil {
			return err
		}
	}
	for _, c := range t.Components {
		if err := l.defineComponent(te, c); err != nil {
			return fmt.Errorf("component %s: %w", lower(c.Name), err)
		}
	}
	for _, pc := range t.ProcComponents {
		if err := l.defineProcComponent(te, pc); err != nil {
			return fmt.Errorf("procedure component %s: %w", lower(pc.Name), err)
		}
	}
	for _, b := range t.Bindings {
		attrs, err := parseAttrs(b.Attrs)
		if err != nil {
			return fmt.Errorf("binding %s: %w", lower(b.Name), err)
		}
		if _, err := semantics.AddBinding(te.sym, l.pos(b.Line), lower(b.Name), lower(b.Target), lower(b.Pass), attrs); err != nil {
			return fmt.Errorf("binding %s: %w", lower(b.Name), err)
		}
	}
	for _, g := range t.Generics {
		kind, name := genericName(g.Name)
		var specifics []*semantics.Symbol
		for _, s := range g.Specifics {
			b := semantics.FindBinding(te.sym.Scope(), lower(s))
			if b == nil {
				return fmt.Errorf("generic %s: no binding %s", name, lower(s))
			}
			if _, ok := b.Details().(*semantics.ProcBindingDetails); !ok {
				return fmt.Errorf("generic %s: %s is not a specific binding", name, lower(s))
			}
			specifics = append(specifics, b)
		}
		if _, err := semantics.AddGeneric(te.sym.Scope(), l.pos(g.Line), name, kind, specifics...); err != nil {
			return fmt.Errorf("generic %s: %w", name, err)
		}
	}
	return nil
}

func (l *loader) defineComponent(te *typeEntry, c *Object) error {
	e := &env{ctx: l.ctx, scope: te.host, typ: te.sym, pos: l.pos(c.Line)}
	typ, _, err := e.parseType(c.Type)
	if err != nil {
		return err
	}
	shape, err := e.parseShape(c.Shape)
	if err != nil {
		return err
	}
	attrs, err := parseAttrs(c.Attrs)
	if err != nil {
		return err
	}
	init, err := e.parseExpr(c.Init)
	if err != nil {
		return err
	}
	_, err = semantics.AddComponent(te.sym, e.pos, c.Name, typ, shape, attrs, semantics.Fold(init, nil))
	return err
}

func (l *loader) defineProcComponent(te *typeEntry, pc *ProcComponent) error {
	attrs, err := parseAttrs(pc.Attrs)
	if err != nil {
		return err
	}
	var iface, init *semantics.Symbol
	if pc.Interface != "" {
		if iface, err = l.procedure(te.host, pc.Interface); err != nil {
			return err
		}
	}
	nullInit := false
	switch target := lower(pc.Init); target {
	case "":
	case "null()":
		nullInit = true
	default:
		if init, err = l.procedure(te.host, target); err != nil {
			return err
		}
	}
	_, err = semantics.AddProcComponent(te.sym, l.pos(pc.Line), pc.Name, iface, attrs, init, nullInit)
	return err
}

// procedure returns the procedure visible as name in scope.
func (l *loader) procedure(scope *semantics.Scope, name string) (*semantics.Symbol, error) {
	sym, _ := scope.LookupParent(name)
	if sym == nil {
		return nil, fmt.Errorf("undefined procedure %s", lower(name))
	}
	if !sym.IsProcedure() {
		return nil, fmt.Errorf("%s is not a procedure", lower(name))
	}
	return sym.GetUltimate(), nil
}

// genericName maps a generic specification to its kind and the name it
// is declared under.
func genericName(spec string) (semantics.GenericKind, string) {
	name := strings.ReplaceAll(lower(spec), " ", "")
	for k := semantics.GenericAssignment; k <= semantics.GenericWriteUnformatted; k++ {
		if name == k.String() {
			return k, name
		}
	}
	if strings.HasPrefix(name, "operator(") {
		return semantics.GenericOperator, name
	}
	return semantics.GenericName, name
}

// ----------------------------------------------------------------------------
// Objects and procedures

func (l *loader) declareObjects(me *moduleEntry) error {
	for _, se := range me.subs {
		if err := l.declareArgs(se); err != nil {
			return fmt.Errorf("%s: %w", se.where, err)
		}
	}
	for _, ue := range me.units {
		for _, o := range ue.unit.Variables {
			if err := l.declareObject(ue.scope, o); err != nil {
				return fmt.Errorf("%s: variable %s: %w", ue.where, lower(o.Name), err)
			}
		}
	}
	return nil
}

func (l *loader) declareArgs(se *subEntry) error {
	scope := se.sym.Scope()
	for _, d := range se.def.Dummies {
		e := &env{ctx: l.ctx, scope: scope, pos: l.pos(d.Line)}
		typ, _, err := e.parseType(d.Type)
		if err != nil {
			return fmt.Errorf("dummy %s: %w", lower(d.Name), err)
		}
		shape, err := e.parseShape(d.Shape)
		if err != nil {
			return fmt.Errorf("dummy %s: %w", lower(d.Name), err)
		}
		attrs, err := parseAttrs(d.Attrs)
		if err != nil {
			return fmt.Errorf("dummy %s: %w", lower(d.Name), err)
		}
		if _, err := semantics.AddDummy(se.sym, e.pos, d.Name, typ, shape, attrs); err != nil {
			return fmt.Errorf("dummy %s: %w", lower(d.Name), err)
		}
	}
	if r := se.def.Result; r != nil {
		if !se.def.Function {
			return fmt.Errorf("subroutine has a result")
		}
		e := &env{ctx: l.ctx, scope: scope, pos: l.pos(r.Line)}
		typ, _, err := e.parseType(r.Type)
		if err != nil {
			return fmt.Errorf("result: %w", err)
		}
		name := r.Name
		if name == "" {
			name = se.sym.Name()
		}
		if _, err := semantics.SetResult(se.sym, e.pos, name, typ); err != nil {
			return fmt.Errorf("result: %w", err)
		}
	}
	return nil
}

func (l *loader) declareFinals(me *moduleEntry) error {
	for _, te := range me.types {
		for _, name := range te.def.Finals {
			sub, err := l.procedure(te.host, name)
			if err != nil {
				return fmt.Errorf("%s: final: %w", te.where, err)
			}
			if err := semantics.AddFinal(te.sym, sub); err != nil {
				return fmt.Errorf("%s: %w", te.where, err)
			}
		}
	}
	return nil
}

func (l *loader) declareInterfaces(me *moduleEntry) error {
	for _, ue := range me.units {
		for _, g := range ue.unit.Interfaces {
			kind, name := genericName(g.Name)
			var specifics []*semantics.Symbol
			for _, s := range g.Specifics {
				proc, err := l.procedure(ue.scope, s)
				if err != nil {
					return fmt.Errorf("%s: interface %s: %w", ue.where, name, err)
				}
				specifics = append(specifics, proc)
			}
			if _, err := semantics.AddGeneric(ue.scope, l.pos(g.Line), name, kind, specifics...); err != nil {
				return fmt.Errorf("%s: interface %s: %w", ue.where, name, err)
			}
		}
	}
	return nil
}
