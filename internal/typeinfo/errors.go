package typeinfo

import (
	"fmt"

	"github.com/you-not-fish/ftypeinfo/internal/source"
)

// ErrorKind classifies the failures of the builder.
type ErrorKind int

const (
	// MissingSchema: the schema module or one of its members is absent.
	// The pass stops.
	MissingSchema ErrorKind = iota + 1

	// UnfoldableParameter: a kind parameter, or a value that must be
	// constant, does not fold. The descriptor or value is skipped.
	UnfoldableParameter

	// MissingBindingTarget: a type-bound procedure names no procedure.
	// Its slot gets a null target.
	MissingBindingTarget

	// InvalidOverride: an overriding binding is incompatible with the
	// binding it overrides. The parent's binding is kept.
	InvalidOverride

	// InternalInvariant: the builder or its inputs broke an invariant.
	InternalInvariant
)

var errorKindNames = [...]string{
	MissingSchema:        "missing schema",
	UnfoldableParameter:  "unfoldable parameter",
	MissingBindingTarget: "missing binding target",
	InvalidOverride:      "invalid override",
	InternalInvariant:    "internal invariant",
}

func (k ErrorKind) String() string {
	if k > 0 && int(k) < len(errorKindNames) {
		return errorKindNames[k]
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// Fatal reports whether an error of this kind ends the pass.
func (k ErrorKind) Fatal() bool { return k == MissingSchema }

// Error is a failure found while building the tables.
type Error struct {
	Kind ErrorKind
	Pos  source.Pos
	Msg  string
}

func (e *Error) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s: %s: %s", e.Pos, e.Kind, e.Msg)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

// Is matches a target *Error by Kind alone, so that
// errors.Is(err, &Error{Kind: MissingSchema}) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind && t.Msg == "" && !t.Pos.IsValid()
}

func errorf(kind ErrorKind, pos source.Pos, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Pos: pos, Msg: fmt.Sprintf(format, args...)}
}
