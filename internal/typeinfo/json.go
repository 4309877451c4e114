package typeinfo

import (
	"encoding/json"
	"io"

	"github.com/you-not-fish/ftypeinfo/internal/semantics"
)

// FprintJSON writes a JSON representation of t to w: the descriptors
// with their record values, and every emitted object.
func FprintJSON(w io.Writer, t *RuntimeDerivedTypeTables) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(tablesJSON(t))
}

func tablesJSON(t *RuntimeDerivedTypeTables) interface{} {
	m := map[string]interface{}{
		"names":       t.SortedNames(),
		"externals":   sortedKeys(t.Externals),
		"descriptors": mapSlice(t.Descriptors, descriptorJSON),
		"errors":      mapSlice(t.Errors, errorJSON),
	}
	if t.Schemata != nil {
		m["schemata"] = t.Schemata.Name()
		m["objects"] = mapSlice(t.Schemata.Symbols(), objectJSON)
	}
	return m
}

func descriptorJSON(d *Descriptor) interface{} {
	m := map[string]interface{}{
		"name":     d.Name,
		"object":   d.Symbol.Name(),
		"external": d.External,
	}
	if d.Scope != nil {
		m["pos"] = d.Scope.Pos().String()
	}
	if init := d.Init(); init != nil {
		fields := make(map[string]interface{}, len(init.Values))
		for _, v := range init.Values {
			if elems, ok := arrayValues(v.Value); ok {
				fields[v.Name] = mapSlice(elems, exprJSON)
				continue
			}
			fields[v.Name] = exprJSON(v.Value)
		}
		m["record"] = fields
	}
	return m
}

func recordJSON(c *semantics.StructureCtor) interface{} {
	m := make(map[string]interface{}, len(c.Values))
	for _, v := range c.Values {
		m[v.Name] = exprJSON(v.Value)
	}
	return m
}

// exprJSON renders integers as numbers, references by name and the
// rest in source form.
func exprJSON(e semantics.Expr) interface{} {
	switch e := e.(type) {
	case *semantics.IntConst:
		return e.Value
	case *semantics.Null:
		return nil
	case *semantics.Designator:
		if s := stringValue(e); s != "" {
			return map[string]interface{}{"ref": e.Symbol.Name(), "text": s}
		}
		return map[string]interface{}{"ref": e.Symbol.Name()}
	case *semantics.StructureCtor:
		return recordJSON(e)
	}
	return e.String()
}

func objectJSON(sym *semantics.Symbol) interface{} {
	m := map[string]interface{}{
		"name": sym.Name(),
	}
	od, ok := sym.Details().(*semantics.ObjectEntityDetails)
	if !ok {
		return m
	}
	m["type"] = od.Type.String()
	if shape := od.Shape.String(); shape != "" {
		m["shape"] = shape
	}
	if sym.Attrs().Has(semantics.External) {
		m["external"] = true
	}
	if od.Init != nil {
		m["init"] = od.Init.String()
	}
	return m
}

func errorJSON(e *Error) interface{} {
	return map[string]interface{}{
		"kind": e.Kind.String(),
		"pos":  e.Pos.String(),
		"msg":  e.Msg,
	}
}

func mapSlice[T any](list []T, f func(T) interface{}) []interface{} {
	out := make([]interface{}, len(list))
	for i, x := range list {
		out[i] = f(x)
	}
	return out
}
