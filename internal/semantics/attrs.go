package semantics

import "strings"

// Attr is a declared attribute of a symbol.
type Attr uint32

const (
	Public Attr = 1 << iota
	Private
	Allocatable
	Pointer
	Parameter
	Target
	Save
	Contiguous
	Abstract
	Deferred
	NoPass
	Elemental
	BindC
	Sequence
	Optional
	External
)

var attrNames = []string{
	"public", "private", "allocatable", "pointer", "parameter", "target",
	"save", "contiguous", "abstract", "deferred", "nopass", "elemental",
	"bind(c)", "sequence", "optional", "external",
}

// Attrs is a set of Attr values.
type Attrs uint32

// MakeAttrs returns the set holding each of as.
func MakeAttrs(as ...Attr) Attrs {
	var s Attrs
	for _, a := range as {
		s |= Attrs(a)
	}
	return s
}

func (s Attrs) Has(a Attr) bool      { return s&Attrs(a) != 0 }
func (s Attrs) With(a Attr) Attrs    { return s | Attrs(a) }
func (s Attrs) Without(a Attr) Attrs { return s &^ Attrs(a) }

// String lists the attributes in declaration-keyword order, comma separated.
func (s Attrs) String() string {
	var parts []string
	for i, name := range attrNames {
		if s&(1<<i) != 0 {
			parts = append(parts, name)
		}
	}
	return strings.Join(parts, ",")
}

// ParseAttr maps a keyword such as "allocatable" to its Attr.
func ParseAttr(name string) (Attr, bool) {
	name = strings.ToLower(name)
	for i, n := range attrNames {
		if n == name || (n == "bind(c)" && name == "bindc") {
			return Attr(1 << i), true
		}
	}
	return 0, false
}

// Flag marks compiler knowledge about a symbol that has no source keyword.
type Flag uint8

const (
	// CompilerCreated marks symbols synthesized by the compiler.
	CompilerCreated Flag = 1 << iota

	// ParentComp marks the parent component of an extended type.
	ParentComp

	// ModFileDescriptor marks a descriptor defined by another compilation.
	ModFileDescriptor
)
