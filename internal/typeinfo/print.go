package typeinfo

import (
	"fmt"
	"io"
	"strings"

	"github.com/you-not-fish/ftypeinfo/internal/semantics"
)

// Fprint writes the objects emitted into the schemata scope of t to w, in
// emission order, followed by the descriptor names.
//
// Format:
//
//	typeinfo .typeinfo:
//	  .dt.m.t: type(derivedtype) = derivedtype(binding=NULL(),name=.n.t,...)
//	  .n.t: character(len=1,kind=1) = 't'
//	  .c.m.t(0:1): type(component) = [component::component(...),component(...)]
//	  .dt.other.u: type(derivedtype) external
//	names: m.t
//	externals: other.u
func Fprint(w io.Writer, t *RuntimeDerivedTypeTables) {
	if t.Schemata == nil {
		fmt.Fprintf(w, "typeinfo: no schemata\n")
		return
	}
	fmt.Fprintf(w, "typeinfo %s:\n", t.Schemata.Name())
	for _, sym := range t.Schemata.Symbols() {
		fmt.Fprintf(w, "  %s\n", FormatObject(sym))
	}
	fmt.Fprintf(w, "names: %s\n", strings.Join(t.SortedNames(), " "))
	if len(t.Externals) > 0 {
		fmt.Fprintf(w, "externals: %s\n", strings.Join(sortedKeys(t.Externals), " "))
	}
}

// FormatObject formats one emitted object as "name[shape]: type = init".
func FormatObject(sym *semantics.Symbol) string {
	od, ok := sym.Details().(*semantics.ObjectEntityDetails)
	if !ok {
		return sym.String()
	}
	var sb strings.Builder
	sb.WriteString(sym.Name())
	sb.WriteString(od.Shape.String())
	sb.WriteString(": ")
	sb.WriteString(od.Type.String())
	switch {
	case sym.Attrs().Has(semantics.External):
		sb.WriteString(" external")
	case od.Init != nil:
		sb.WriteString(" = ")
		sb.WriteString(od.Init.String())
	}
	return sb.String()
}

// FprintDescriptor writes the record of descriptor d one component value
// per line, with its component and binding tables expanded.
func FprintDescriptor(w io.Writer, d *Descriptor) {
	if d.External {
		fmt.Fprintf(w, "%s (external)\n", d.Symbol.Name())
		return
	}
	init := d.Init()
	if init == nil {
		fmt.Fprintf(w, "%s (unfilled)\n", d.Symbol.Name())
		return
	}
	fmt.Fprintf(w, "%s: %s at %s\n", d.Symbol.Name(), d.Name, d.Scope.Pos())
	for _, v := range init.Values {
		fmt.Fprintf(w, "  %s = %s\n", v.Name, v.Value)
		for _, elem := range tableElems(v.Value) {
			fmt.Fprintf(w, "    %s\n", elem)
		}
	}
}

func sortedKeys(set map[string]struct{}) []string {
	t := &RuntimeDerivedTypeTables{Names: set}
	return t.SortedNames()
}
