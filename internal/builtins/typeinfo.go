// Package builtins installs the builtin modules the runtime type-info
// builder depends on: __fortran_builtins, defining the C address types,
// and __fortran_type_info, defining the descriptor records and the
// enumerators the runtime uses.
package builtins

import (
	"fmt"
	"sort"
	"strings"

	"github.com/you-not-fish/ftypeinfo/internal/rtabi"
	"github.com/you-not-fish/ftypeinfo/internal/semantics"
	"github.com/you-not-fish/ftypeinfo/internal/source"
)

type fieldKind int

const (
	fInt fieldKind = iota
	fString
	fRecord
	fCPtr
	fCFunPtr
)

// field is one component of a schema record.
type field struct {
	name    string
	kind    fieldKind
	intKind int    // fInt
	record  string // fRecord
	pointer bool
	rank    int // deferred-shape rank of pointer arrays
}

func i1(name string) field { return field{name: name, kind: fInt, intKind: 1} }
func i4(name string) field { return field{name: name, kind: fInt, intKind: 4} }
func i8(name string) field { return field{name: name, kind: fInt, intKind: 8} }

func str(name string) field { return field{name: name, kind: fString, pointer: true} }

func rec(name, record string) field { return field{name: name, kind: fRecord, record: record} }

func recPtr(name, record string, rank int) field {
	return field{name: name, kind: fRecord, record: record, pointer: true, rank: rank}
}

func intArr(name string, kind int) field {
	return field{name: name, kind: fInt, intKind: kind, pointer: true, rank: 1}
}

func cptr(name string) field   { return field{name: name, kind: fCPtr} }
func funptr(name string) field { return field{name: name, kind: fCFunPtr} }

type record struct {
	name   string
	fields []field
}

// Schema lists the descriptor records in declaration order.
var schema = []record{
	{rtabi.RecBinding, []field{
		funptr("proc"), str("name"), i1("passindex"), i1("isoverride"),
	}},
	{rtabi.RecValue, []field{
		i1("genre"), i8("value"),
	}},
	{rtabi.RecComponent, []field{
		str("name"), i1("genre"), i1("category"), i1("kind"), i1("rank"),
		i8("offset"), i8("elementsize"), rec("characterlen", rtabi.RecValue),
		recPtr("derived", rtabi.RecDerivedType, 0),
		recPtr("lenvalue", rtabi.RecValue, 1), recPtr("bounds", rtabi.RecValue, 2),
		cptr("initialization"),
	}},
	{rtabi.RecProcPtrComponent, []field{
		str("name"), i8("offset"), funptr("initialization"),
	}},
	{rtabi.RecSpecialBinding, []field{
		i1("which"), i1("isargdescriptorset"), i1("istypebound"), funptr("proc"),
	}},
	{rtabi.RecDerivedType, []field{
		recPtr("binding", rtabi.RecBinding, 1), str("name"),
		i8("sizeinbytes"), i8("alignment"), i1("category"),
		intArr("kindparameter", 8), intArr("lenparameterkind", 1),
		recPtr("lenparametervalue", rtabi.RecValue, 1),
		recPtr("component", rtabi.RecComponent, 1),
		recPtr("procptr", rtabi.RecProcPtrComponent, 1),
		recPtr("special", rtabi.RecSpecialBinding, 1),
		i4("specialbitset"),
		i1("hasparent"), i1("issequence"), i1("isbindc"), i1("isabstract"),
		i1("noinitializationneeded"), i1("nodestructionneeded"),
		i1("nofinalizationneeded"), i1("nodefinedassignment"),
		recPtr("parent", rtabi.RecDerivedType, 0),
	}},
}

// RecordFields returns the component names of a schema record in
// declaration order.
func RecordFields(name string) []string {
	for _, r := range schema {
		if r.name == name {
			names := make([]string, len(r.fields))
			for i, f := range r.fields {
				names[i] = f.name
			}
			return names
		}
	}
	return nil
}

// Config controls which builtin modules are installed.
type Config struct {
	// Omit lists schema members to leave out: a record name
	// ("component"), a record component ("component.offset"), or an
	// enumerator name ("scalarfinal").
	Omit []string

	// NoTypeInfo skips the __fortran_type_info module entirely.
	NoTypeInfo bool
}

// Install adds the builtin modules to ctx and returns the scope of
// __fortran_type_info, or nil when it was not installed.
func Install(ctx *semantics.Context, conf *Config) (*semantics.Scope, error) {
	if conf == nil {
		conf = &Config{}
	}
	omit := map[string]bool{}
	for _, name := range conf.Omit {
		omit[strings.ToLower(name)] = true
	}

	cPtr, cFunPtr, err := installBuiltins(ctx)
	if err != nil {
		return nil, err
	}
	if conf.NoTypeInfo {
		return nil, nil
	}

	mod, err := ctx.NewModule(source.NoPos, rtabi.TypeInfoModule)
	if err != nil {
		return nil, err
	}
	mod.SetIntrinsic(true)
	if _, err := semantics.UseSymbol(mod, cPtr, ""); err != nil {
		return nil, err
	}
	if _, err := semantics.UseSymbol(mod, cFunPtr, ""); err != nil {
		return nil, err
	}

	// Declare every record first; records refer to each other.
	types := map[string]*semantics.Symbol{}
	for _, r := range schema {
		if omit[r.name] {
			continue
		}
		sym, err := semantics.NewDerivedType(mod, source.NoPos, r.name, 0)
		if err != nil {
			return nil, err
		}
		types[r.name] = sym
	}
	for _, r := range schema {
		ts := types[r.name]
		if ts == nil {
			continue
		}
		for _, f := range r.fields {
			if omit[r.name+"."+f.name] {
				continue
			}
			if err := addField(ctx, ts, f, types, cPtr, cFunPtr); err != nil {
				return nil, fmt.Errorf("schema record %s: %w", r.name, err)
			}
		}
	}

	if err := installEnumerators(mod, omit); err != nil {
		return nil, err
	}
	for _, r := range schema {
		if ts := types[r.name]; ts != nil {
			ctx.ComputeLayout(ts.Scope())
		}
	}
	return mod, nil
}

func addField(ctx *semantics.Context, ts *semantics.Symbol, f field, types map[string]*semantics.Symbol, cPtr, cFunPtr *semantics.Symbol) error {
	var typ *semantics.DeclTypeSpec
	switch f.kind {
	case fInt:
		typ = semantics.IntrinsicType(semantics.Integer, semantics.Int(int64(f.intKind)))
	case fString:
		typ = semantics.CharacterType(semantics.DeferredParam(), semantics.Int(rtabi.DefaultCharacter))
	case fRecord:
		target := types[f.record]
		if target == nil {
			// The record it refers to was omitted; leave the field out too.
			return nil
		}
		typ = semantics.TypeOf(ctx.Spec(target, source.NoPos))
	case fCPtr:
		typ = semantics.TypeOf(ctx.Spec(cPtr, source.NoPos))
	case fCFunPtr:
		typ = semantics.TypeOf(ctx.Spec(cFunPtr, source.NoPos))
	}
	var attrs semantics.Attrs
	var shape semantics.ArraySpec
	if f.pointer {
		attrs = attrs.With(semantics.Pointer)
		if f.rank > 0 {
			attrs = attrs.With(semantics.Contiguous)
			shape = semantics.DeferredShape(f.rank)
		}
	}
	_, err := semantics.AddComponent(ts, source.NoPos, f.name, typ, shape, attrs, nil)
	return err
}

func installEnumerators(mod *semantics.Scope, omit map[string]bool) error {
	for _, group := range []map[int]string{
		rtabi.ValueGenreNames, rtabi.ComponentGenreNames,
		rtabi.CategoryNames, rtabi.SpecialNames,
	} {
		codes := make([]int, 0, len(group))
		for code := range group {
			codes = append(codes, code)
		}
		sort.Ints(codes)
		for _, code := range codes {
			name := group[code]
			if omit[name] {
				continue
			}
			_, err := semantics.NewObject(mod, source.NoPos, name,
				semantics.IntrinsicType(semantics.Integer, semantics.Int(4)),
				semantics.ArraySpec{}, semantics.MakeAttrs(semantics.Parameter),
				semantics.IntKind(int64(code), 0))
			if err != nil {
				return err
			}
		}
	}
	return nil
}

// installBuiltins defines __fortran_builtins with the C address types.
func installBuiltins(ctx *semantics.Context) (cPtr, cFunPtr *semantics.Symbol, err error) {
	mod, err := ctx.NewModule(source.NoPos, rtabi.BuiltinsModule)
	if err != nil {
		return nil, nil, err
	}
	mod.SetIntrinsic(true)
	addr := semantics.IntrinsicType(semantics.Integer, semantics.Int(8))
	for _, name := range []string{rtabi.CPtr, rtabi.CFunPtr} {
		ts, err := semantics.NewDerivedType(mod, source.NoPos, name, semantics.MakeAttrs(semantics.BindC))
		if err != nil {
			return nil, nil, err
		}
		if _, err := semantics.AddComponent(ts, source.NoPos, rtabi.AddressComponent, addr,
			semantics.ArraySpec{}, 0, nil); err != nil {
			return nil, nil, err
		}
		ctx.ComputeLayout(ts.Scope())
		if name == rtabi.CPtr {
			cPtr = ts
		} else {
			cFunPtr = ts
		}
	}
	return cPtr, cFunPtr, nil
}
