// Package rtabi defines the ABI shared between the compiler and the Fortran
// runtime library: storage sizes, descriptor layout and the codes used in
// derived-type descriptors. These values must be kept in sync with the
// runtime's type-info headers.
package rtabi

// Target configuration
const (
	TargetTriple = "x86_64-unknown-linux-gnu"

	// SizePtr is the size of a data or procedure address.
	SizePtr  = 8
	AlignPtr = 8
)

// Array descriptor layout (runtime Descriptor)
const (
	// DescriptorBaseSize covers base address, element length, version,
	// rank, type code, attribute and extra bytes.
	DescriptorBaseSize = 24

	// DescriptorDimSize is the size of one dimension triple
	// (lower bound, extent, byte stride).
	DescriptorDimSize = 24

	// DescriptorAddendumSize is the size of the type-info pointer appended
	// to descriptors of derived or polymorphic entities.
	DescriptorAddendumSize = 8

	AlignDescriptor = 8
)

// DescriptorSize returns the storage of a descriptor of the given rank.
func DescriptorSize(rank int, addendum bool) int64 {
	n := int64(DescriptorBaseSize + rank*DescriptorDimSize)
	if addendum {
		n += DescriptorAddendumSize
	}
	return n
}

// Kind codes
const (
	// DefaultInteger is the kind of default INTEGER, REAL and LOGICAL.
	DefaultInteger = 4
	DefaultReal    = 4
	DefaultLogical = 4

	// DefaultCharacter is the kind of default CHARACTER.
	DefaultCharacter = 1

	// SubscriptKind is the integer kind of descriptor bounds and of
	// length type parameter values.
	SubscriptKind = 8
)
