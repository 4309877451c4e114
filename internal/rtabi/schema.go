package rtabi

// TypeInfoModule is the builtin module defining the descriptor records.
const TypeInfoModule = "__fortran_type_info"

// BuiltinsModule defines __builtin_c_ptr and __builtin_c_funptr, the
// address holders used by descriptor records.
const BuiltinsModule = "__fortran_builtins"

// Builtin address types
const (
	CPtr    = "__builtin_c_ptr"
	CFunPtr = "__builtin_c_funptr"

	// AddressComponent is the sole component of CPtr and CFunPtr.
	AddressComponent = "__address"
)

// Schema record type names
const (
	RecDerivedType      = "derivedtype"
	RecBinding          = "binding"
	RecValue            = "value"
	RecComponent        = "component"
	RecProcPtrComponent = "procptrcomponent"
	RecSpecialBinding   = "specialbinding"
)

// Value::Genre
const (
	ValueDeferred     = 1
	ValueExplicit     = 2
	ValueLenParameter = 3
)

// Component::Genre
const (
	GenreData        = 1
	GenrePointer     = 2
	GenreAllocatable = 3
	GenreAutomatic   = 4
)

// TypeCategory codes as stored in Component::category.
const (
	CategoryInteger     = 0
	CategoryReal        = 1
	CategoryComplex     = 2
	CategoryCharacter   = 3
	CategoryLogical     = 4
	CategoryDerived     = 5
	CategoryProcPointer = 6
	CategoryUntyped     = 7
)

// SpecialBinding::Which. A final subroutine for rank r > 0 uses
// ScalarFinal + r.
const (
	ScalarAssignment    = 1
	ElementalAssignment = 2
	ReadFormatted       = 3
	ReadUnformatted     = 4
	WriteFormatted      = 5
	WriteUnformatted    = 6
	ElementalFinal      = 7
	AssumedRankFinal    = 8
	ScalarFinal         = 9
)

// MaxRank is the largest array rank the language allows.
const MaxRank = 15

// NoPassIndex is the Binding::passindex of a NOPASS binding.
const NoPassIndex = -1

// Enumerator names, keyed by the constant they stand for. The binder
// requires each of them in the schema module.
var (
	ValueGenreNames = map[int]string{
		ValueDeferred:     "deferred",
		ValueExplicit:     "explicit",
		ValueLenParameter: "lenparameter",
	}
	ComponentGenreNames = map[int]string{
		GenreData:        "data",
		GenrePointer:     "pointer",
		GenreAllocatable: "allocatable",
		GenreAutomatic:   "automatic",
	}
	CategoryNames = map[int]string{
		CategoryInteger:     "categoryinteger",
		CategoryReal:        "categoryreal",
		CategoryComplex:     "categorycomplex",
		CategoryCharacter:   "categorycharacter",
		CategoryLogical:     "categorylogical",
		CategoryDerived:     "categoryderived",
		CategoryProcPointer: "categoryprocpointer",
		CategoryUntyped:     "categoryuntyped",
	}
	SpecialNames = map[int]string{
		ScalarAssignment:    "scalarassignment",
		ElementalAssignment: "elementalassignment",
		ReadFormatted:       "readformatted",
		ReadUnformatted:     "readunformatted",
		WriteFormatted:      "writeformatted",
		WriteUnformatted:    "writeunformatted",
		ElementalFinal:      "elementalfinal",
		AssumedRankFinal:    "assumedrankfinal",
		ScalarFinal:         "scalarfinal",
	}
)

// Descriptor object name prefixes
const (
	PrefixDerivedType   = ".dt."
	PrefixComponents    = ".c."
	PrefixBindings      = ".v."
	PrefixSpecials      = ".s."
	PrefixProcPtrs      = ".p."
	PrefixKindParams    = ".kp."
	PrefixLenParamKinds = ".lpk."
	PrefixLenParamVals  = ".lpv."
	PrefixName          = ".n."
	PrefixDefaultInit   = ".di."
	PrefixBounds        = ".b."
	PrefixLenValues     = ".lv."
)

// TypeInfoScope is the name of the reserved scope holding emitted
// descriptor objects.
const TypeInfoScope = ".typeinfo"
