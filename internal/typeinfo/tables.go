// Package typeinfo builds the runtime derived-type descriptors of a
// program. BuildRuntimeDerivedTypeTables translates the scope of every
// derived type and parameterized derived type instantiation into the
// records of the builtin module __fortran_type_info and emits them as
// static initializers of compiler-created objects in a reserved scope.
package typeinfo

import (
	"errors"
	"sort"
	"time"

	"github.com/you-not-fish/ftypeinfo/internal/rtabi"
	"github.com/you-not-fish/ftypeinfo/internal/semantics"
)

// SchemaModule is the name of the builtin module defining the
// descriptor records.
const SchemaModule = rtabi.TypeInfoModule

// Descriptor is the derivedtype object emitted for one derived type or
// instantiation.
type Descriptor struct {
	// Name is the canonical qualified name; the object is ".dt." + Name.
	Name string

	// Symbol is the derivedtype object.
	Symbol *semantics.Symbol

	// Scope is the derived-type scope described, nil for an external
	// descriptor.
	Scope *semantics.Scope

	// External marks a descriptor defined by another compilation; only
	// its declaration is emitted.
	External bool
}

// Init returns the initializer of the descriptor object, nil for an
// external descriptor or one not yet filled.
func (d *Descriptor) Init() *semantics.StructureCtor {
	od, ok := d.Symbol.Details().(*semantics.ObjectEntityDetails)
	if !ok {
		return nil
	}
	ctor, _ := od.Init.(*semantics.StructureCtor)
	return ctor
}

// RuntimeDerivedTypeTables is the result of the pass.
type RuntimeDerivedTypeTables struct {
	// Schemata is the reserved scope holding the emitted objects. It is
	// nil when the schema module is missing.
	Schemata *semantics.Scope

	// Names holds the canonical names of the descriptors emitted.
	Names map[string]struct{}

	// Externals holds the canonical names of descriptors referenced but
	// defined by another compilation.
	Externals map[string]struct{}

	// Descriptors lists the emitted and external descriptors in emission
	// order: a type follows its parent and its component types.
	Descriptors []*Descriptor

	// Errors lists the local failures diagnosed while building.
	Errors []*Error
}

// SortedNames returns Names in lexical order.
func (t *RuntimeDerivedTypeTables) SortedNames() []string {
	names := make([]string, 0, len(t.Names))
	for name := range t.Names {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup returns the descriptor with canonical name name, or nil.
func (t *RuntimeDerivedTypeTables) Lookup(name string) *Descriptor {
	for _, d := range t.Descriptors {
		if d.Name == name {
			return d
		}
	}
	return nil
}

// Object returns the emitted object named name in Schemata, or nil.
func (t *RuntimeDerivedTypeTables) Object(name string) *semantics.Symbol {
	if t.Schemata == nil {
		return nil
	}
	return t.Schemata.Lookup(name)
}

// Options configures a build.
type Options struct {
	// Schema names the module holding the descriptor records. The
	// default is SchemaModule.
	Schema string

	// Trace, if set, is called with the duration of each phase: "bind",
	// "walk", "allocate" and "fill".
	Trace func(phase string, elapsed time.Duration)
}

// BuildRuntimeDerivedTypeTables builds the descriptors of every derived
// type defined in the compilation of ctx and of every instantiation of a
// parameterized derived type.
//
// A missing schema module is fatal: the tables are returned with a nil
// Schemata and an *Error of kind MissingSchema. Local failures are
// reported through ctx and recorded in Errors. If an internal invariant
// is broken the tables are returned together with that error.
func BuildRuntimeDerivedTypeTables(ctx *semantics.Context) (*RuntimeDerivedTypeTables, error) {
	return Build(ctx, nil)
}

// Build is BuildRuntimeDerivedTypeTables with options.
func Build(ctx *semantics.Context, opts *Options) (*RuntimeDerivedTypeTables, error) {
	if opts == nil {
		opts = &Options{}
	}
	module := opts.Schema
	if module == "" {
		module = SchemaModule
	}
	tables := &RuntimeDerivedTypeTables{
		Names:     make(map[string]struct{}),
		Externals: make(map[string]struct{}),
	}

	phase := newTracer(opts.Trace)

	s, err := bindSchema(ctx, module)
	phase("bind")
	if err != nil {
		var e *Error
		if errors.As(err, &e) {
			ctx.Messages().Say(e.Pos, semantics.SeverityError, "%s", e.Msg)
		}
		return tables, err
	}

	b := newBuilder(ctx, s, tables)
	work := b.walk()
	phase("walk")
	b.allocate(work)
	phase("allocate")
	b.fill()
	phase("fill")

	tables.Errors = b.errors
	for _, e := range b.errors {
		if e.Kind == InternalInvariant {
			return tables, e
		}
	}
	return tables, nil
}

func newTracer(trace func(string, time.Duration)) func(string) {
	if trace == nil {
		return func(string) {}
	}
	start := time.Now()
	return func(phase string) {
		now := time.Now()
		trace(phase, now.Sub(start))
		start = now
	}
}
