package syntax

import (
	"io"
	"strings"
)

// Fprint writes n to w in normalized notation: lower-case names, no
// blanks, parentheses only where written.
func Fprint(w io.Writer, n Node) {
	io.WriteString(w, String(n))
}

// String returns n in normalized notation.
func String(n Node) string {
	var b strings.Builder
	p := printer{&b}
	p.print(n)
	return b.String()
}

type printer struct {
	b *strings.Builder
}

func (p printer) print(n Node) {
	switch n := n.(type) {
	case nil:
	case *TypeSpec:
		p.b.WriteString(n.Keyword)
		switch {
		case n.Star:
			p.b.WriteString("(*)")
		case n.Derived != nil:
			p.b.WriteByte('(')
			p.print(n.Derived)
			p.b.WriteByte(')')
		case len(n.Params) > 0:
			p.params(n.Params)
		}
	case *DerivedSpec:
		p.print(n.Name)
		if len(n.Params) > 0 {
			p.params(n.Params)
		}
	case *Param:
		if n.Keyword != "" {
			p.b.WriteString(n.Keyword)
			p.b.WriteByte('=')
		}
		switch {
		case n.Star:
			p.b.WriteByte('*')
		case n.Colon:
			p.b.WriteByte(':')
		default:
			p.print(n.Value)
		}
	case *Shape:
		if n.AssumedRank {
			p.b.WriteString("(..)")
			return
		}
		p.b.WriteByte('(')
		for i, d := range n.Dims {
			if i > 0 {
				p.b.WriteByte(',')
			}
			p.print(d)
		}
		p.b.WriteByte(')')
	case *Dim:
		p.print(n.Lower)
		if n.Colon {
			p.b.WriteByte(':')
		}
		if n.Star {
			p.b.WriteByte('*')
		}
		p.print(n.Upper)
	case *Name:
		p.b.WriteString(n.Value)
	case *BasicLit:
		switch n.LitKind {
		case StringLit:
			p.b.WriteByte('\'')
			p.b.WriteString(strings.ReplaceAll(n.Value, "'", "''"))
			p.b.WriteByte('\'')
		case LogicalLit:
			p.b.WriteString("." + n.Value + ".")
		default:
			p.b.WriteString(n.Value)
		}
		if n.Kind != "" {
			p.b.WriteByte('_')
			p.b.WriteString(n.Kind)
		}
	case *Operation:
		if n.Y == nil {
			p.b.WriteString(n.Op.String())
			p.print(n.X)
			return
		}
		p.print(n.X)
		p.b.WriteString(n.Op.String())
		p.print(n.Y)
	case *ParenExpr:
		p.b.WriteByte('(')
		p.print(n.X)
		p.b.WriteByte(')')
	case *CallExpr:
		p.print(n.Fun)
		p.b.WriteByte('(')
		for i, a := range n.Args {
			if i > 0 {
				p.b.WriteByte(',')
			}
			p.print(a)
		}
		p.b.WriteByte(')')
	}
}

func (p printer) params(list []*Param) {
	p.b.WriteByte('(')
	for i, a := range list {
		if i > 0 {
			p.b.WriteByte(',')
		}
		p.print(a)
	}
	p.b.WriteByte(')')
}
