// Package program loads a program description, a JSON document listing
// the modules of a compilation with their derived types, procedures and
// objects, into a semantics.Context. Types, shapes and expressions are
// written in Fortran declaration notation and parsed by package syntax.
//
// A minimal description:
//
//	{"modules": [{
//	  "name": "m",
//	  "types": [{"name": "t", "components": [{"name": "i", "type": "integer(4)"}]}]
//	}]}
package program

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// File is a decoded program description.
type File struct {
	Modules []*Module `json:"modules"`

	// Schema names the module holding the descriptor records when it is
	// not __fortran_type_info.
	Schema string `json:"schema,omitempty"`

	// Expect holds the results the description is expected to
	// produce; the loader ignores it.
	Expect *Expect `json:"expect,omitempty"`
}

// Expect is the expected outcome of building the runtime type tables of
// a program.
type Expect struct {
	Names     []string          `json:"names,omitempty"`
	Externals []string          `json:"externals,omitempty"`
	Errors    []string          `json:"errors,omitempty"`
	Fatal     string            `json:"fatal,omitempty"`
	Fields    map[string]string `json:"fields,omitempty"` // "name%field" -> printed value
	Bindings  map[string]string `json:"bindings,omitempty"`
}

// Module is a module, or a submodule when Ancestor is set.
type Module struct {
	Name        string `json:"name"`
	Ancestor    string `json:"ancestor,omitempty"`
	FromModFile bool   `json:"fromModFile,omitempty"`
	Uses        []*Use `json:"uses,omitempty"`
	Line        uint32 `json:"line,omitempty"`
	Unit
}

// Unit is the specification part shared by modules, subprograms and
// BLOCK constructs.
type Unit struct {
	Parameters  []*Object     `json:"parameters,omitempty"`
	Variables   []*Object     `json:"variables,omitempty"`
	Types       []*Type       `json:"types,omitempty"`
	Subprograms []*Subprogram `json:"subprograms,omitempty"`
	Interfaces  []*Generic    `json:"interfaces,omitempty"`
	Blocks      []*Unit       `json:"blocks,omitempty"`
}

// Use makes the public names of Module, or only those listed, visible.
type Use struct {
	Module string   `json:"module"`
	Only   []string `json:"only,omitempty"`
}

// Object is a named constant, variable, dummy argument, function result
// or data component.
type Object struct {
	Name  string   `json:"name"`
	Type  string   `json:"type"`
	Shape string   `json:"shape,omitempty"`
	Attrs []string `json:"attrs,omitempty"`
	Init  string   `json:"init,omitempty"`
	Line  uint32   `json:"line,omitempty"`
}

// Type is a derived type definition.
type Type struct {
	Name           string           `json:"name"`
	Attrs          []string         `json:"attrs,omitempty"`
	Extends        string           `json:"extends,omitempty"` // parent type; its parameters are inherited
	Params         []*TypeParam     `json:"params,omitempty"`
	Components     []*Object        `json:"components,omitempty"`
	ProcComponents []*ProcComponent `json:"procComponents,omitempty"`
	Bindings       []*Binding       `json:"bindings,omitempty"`
	Generics       []*Generic       `json:"generics,omitempty"`
	Finals         []string         `json:"finals,omitempty"`
	Line           uint32           `json:"line,omitempty"`
}

// TypeParam is a kind or length type parameter.
type TypeParam struct {
	Name    string `json:"name"`
	Attr    string `json:"attr"`           // "kind" or "len"
	Type    string `json:"type,omitempty"` // integer type, default "integer"
	Default string `json:"default,omitempty"`
	Line    uint32 `json:"line,omitempty"`
}

// ProcComponent is a procedure pointer component. Init names the
// default target or is "null()".
type ProcComponent struct {
	Name      string   `json:"name"`
	Interface string   `json:"interface,omitempty"`
	Attrs     []string `json:"attrs,omitempty"`
	Init      string   `json:"init,omitempty"`
	Line      uint32   `json:"line,omitempty"`
}

// Binding is a specific type-bound procedure. Target defaults to Name;
// for a deferred binding it names the interface.
type Binding struct {
	Name   string   `json:"name"`
	Target string   `json:"target,omitempty"`
	Pass   string   `json:"pass,omitempty"`
	Attrs  []string `json:"attrs,omitempty"`
	Line   uint32   `json:"line,omitempty"`
}

// Generic is a generic interface, or a type-bound generic whose
// specifics are binding names. Name is a generic name or one of
// assignment(=), operator(op), read(formatted), read(unformatted),
// write(formatted), write(unformatted).
type Generic struct {
	Name      string   `json:"name"`
	Specifics []string `json:"specifics"`
	Line      uint32   `json:"line,omitempty"`
}

// Subprogram is a function or subroutine with its dummy arguments and
// local declarations.
type Subprogram struct {
	Name     string    `json:"name"`
	Function bool      `json:"function,omitempty"`
	Attrs    []string  `json:"attrs,omitempty"`
	BindName string    `json:"bindName,omitempty"`
	Dummies  []*Object `json:"dummies,omitempty"`
	Result   *Object   `json:"result,omitempty"`
	Line     uint32    `json:"line,omitempty"`
	Unit
}

// Decode reads a program description. Unknown fields are errors.
func Decode(r io.Reader) (*File, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	var f File
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decoding program: %w", err)
	}
	return &f, nil
}

// ReadFile decodes the program description in the named file.
func ReadFile(path string) (*File, error) {
	fd, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fd.Close()
	f, err := Decode(fd)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}
