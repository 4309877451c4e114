package typeinfo

import (
	"github.com/you-not-fish/ftypeinfo/internal/rtabi"
	"github.com/you-not-fish/ftypeinfo/internal/semantics"
)

// parameters returns the kind parameter values, the integer kinds of the
// length parameters and the length parameter values of d, each in the
// declaration order of the type parameters.
//
// In a definition a length parameter value is a reference to the
// parameter itself; in an instantiation it is the constant value, or
// the deferred sentinel for an assumed, deferred or nonconstant length.
func (b *builder) parameters(d *Descriptor) (kinds, lenKinds, lenValues []semantics.Expr) {
	instance := d.Scope.IsParameterizedInstance()
	lenIndex := 0
	for _, p := range d.Scope.TypeParameters() {
		pd := p.Details().(*semantics.TypeParamDetails)
		if pd.Attr == semantics.KindParam {
			v, ok := semantics.ToInt64(pd.Init)
			if !ok {
				// QualifiedName already rejected unfoldable kinds.
				b.report(InternalInvariant, d.Scope.Pos(), "kind parameter %s of %s is not constant", p.Name(), d.Name)
				continue
			}
			kinds = append(kinds, semantics.IntKind(v, rtabi.SubscriptKind))
			continue
		}
		k := int64(rtabi.SubscriptKind)
		if pd.Type != nil && pd.Type.Intrinsic != nil {
			if kv, ok := pd.Type.Intrinsic.KindValue(); ok {
				k = int64(kv)
			}
		}
		lenKinds = append(lenKinds, semantics.IntKind(k, 1))
		if !instance {
			lenValues = append(lenValues, b.value(rtabi.ValueLenParameter, int64(lenIndex)))
		} else if v, ok := semantics.ToInt64(pd.Init); ok {
			lenValues = append(lenValues, b.value(rtabi.ValueExplicit, v))
		} else {
			lenValues = append(lenValues, b.value(rtabi.ValueDeferred, 0))
		}
		lenIndex++
	}
	return kinds, lenKinds, lenValues
}

// lenParamIndex returns the position of the named length parameter among
// the length parameters of dt.
func lenParamIndex(dt *semantics.Scope, name string) (int, bool) {
	i := 0
	for _, p := range dt.TypeParameters() {
		if p.Details().(*semantics.TypeParamDetails).Attr != semantics.LenParam {
			continue
		}
		if p.Name() == name {
			return i, true
		}
		i++
	}
	return 0, false
}

// paramValue returns the value record of a character length, array bound
// or length parameter value as seen from the type described by d: an
// explicit constant, a reference to one of d's length parameters, or
// the deferred sentinel.
func (b *builder) paramValue(d *Descriptor, v semantics.ParamValue) semantics.Expr {
	if !v.IsExplicit() || v.Expr == nil {
		return b.value(rtabi.ValueDeferred, 0)
	}
	e := semantics.Fold(v.Expr, nil)
	if n, ok := semantics.ToInt64(e); ok {
		return b.value(rtabi.ValueExplicit, n)
	}
	if ref, ok := e.(*semantics.ParamRef); ok {
		if i, ok := lenParamIndex(d.Scope, ref.Name); ok {
			return b.value(rtabi.ValueLenParameter, int64(i))
		}
	}
	return b.value(rtabi.ValueDeferred, 0)
}
