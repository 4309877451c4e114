package typeinfo

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/you-not-fish/ftypeinfo/internal/semantics"
)

// Transliterate maps an identifier to its form in descriptor names: it
// is lower-cased, and every character outside [a-z0-9_] becomes '$'
// followed by two lower-case hex digits of each of its bytes.
func Transliterate(id string) string {
	var sb strings.Builder
	for _, c := range []byte(strings.ToLower(id)) {
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9', c == '_':
			sb.WriteByte(c)
		default:
			fmt.Fprintf(&sb, "$%02x", c)
		}
	}
	return sb.String()
}

// paramText writes an integer parameter value, negatives as n<abs>.
func paramText(v int64) string {
	if v < 0 {
		return "n" + strconv.FormatUint(uint64(-(v+1))+1, 10)
	}
	return strconv.FormatInt(v, 10)
}

// QualifiedName returns the canonical name of the descriptor of a
// derived-type scope: the enclosing named scopes, the type name and, for
// an instantiation, "<param>_<value>" for each kind parameter and each
// constant length parameter, joined by '.'. It fails with
// UnfoldableParameter when a kind parameter of an instantiation has no
// constant value.
func QualifiedName(dt *semantics.Scope) (string, error) {
	var parts []string
	for s := dt.Parent(); s != nil && s.Kind() != semantics.ScopeGlobal; s = s.Parent() {
		parts = append(parts, scopeName(s))
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	parts = append(parts, Transliterate(dt.Name()))

	if dt.IsParameterizedInstance() {
		for _, p := range dt.TypeParameters() {
			d := p.Details().(*semantics.TypeParamDetails)
			v, ok := semantics.ToInt64(d.Init)
			if !ok {
				if d.Attr == semantics.KindParam {
					return "", errorf(UnfoldableParameter, dt.Pos(),
						"kind parameter %s of %s does not fold to a constant", p.Name(), dt.DerivedTypeSpec())
				}
				continue
			}
			parts = append(parts, Transliterate(p.Name())+"_"+paramText(v))
		}
	}
	return strings.Join(parts, "."), nil
}

// scopeName names a scope in a qualified name; an unnamed block is
// "$block<N>", N counting the unnamed blocks of its host from 1.
// Transliterated names only use "$" before two hex digits, so no named
// scope collides with it.
func scopeName(s *semantics.Scope) string {
	if name := s.Name(); name != "" {
		return Transliterate(name)
	}
	n := 0
	if host := s.Parent(); host != nil {
		for _, sib := range host.Children() {
			if sib.Kind() == semantics.ScopeBlockConstruct && sib.Name() == "" {
				n++
			}
			if sib == s {
				break
			}
		}
	}
	return "$block" + strconv.Itoa(n)
}
