package program

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/you-not-fish/ftypeinfo/internal/rtabi"
	"github.com/you-not-fish/ftypeinfo/internal/semantics"
	"github.com/you-not-fish/ftypeinfo/internal/source"
	"github.com/you-not-fish/ftypeinfo/internal/syntax"
)

// env converts notation into the semantic model. Names resolve in scope
// and its hosts; inside the body of a derived type, names of its type
// parameters become parameter references.
type env struct {
	ctx   *semantics.Context
	scope *semantics.Scope
	typ   *semantics.Symbol // derived type being defined, or nil
	pos   source.Pos        // instantiation site
}

func (e *env) parseType(src string) (*semantics.DeclTypeSpec, *syntax.TypeSpec, error) {
	s, err := syntax.ParseTypeSpec("", src)
	if err != nil {
		return nil, nil, fmt.Errorf("type %q: %w", src, err)
	}
	t, err := e.typeSpec(s)
	if err != nil {
		return nil, nil, fmt.Errorf("type %q: %w", src, err)
	}
	return t, s, nil
}

func (e *env) parseShape(src string) (semantics.ArraySpec, error) {
	if strings.TrimSpace(src) == "" {
		return semantics.ArraySpec{}, nil
	}
	s, err := syntax.ParseShape("", src)
	if err == nil {
		var a semantics.ArraySpec
		if a, err = e.shape(s); err == nil {
			return a, nil
		}
	}
	return semantics.ArraySpec{}, fmt.Errorf("shape %q: %w", src, err)
}

func (e *env) parseExpr(src string) (semantics.Expr, error) {
	if strings.TrimSpace(src) == "" {
		return nil, nil
	}
	x, err := syntax.ParseExpr("", src)
	if err == nil {
		var v semantics.Expr
		if v, err = e.expr(x); err == nil {
			return v, nil
		}
	}
	return nil, fmt.Errorf("expression %q: %w", src, err)
}

var intrinsicCategories = map[string]semantics.TypeCategory{
	"integer": semantics.Integer,
	"real":    semantics.Real,
	"complex": semantics.Complex,
	"logical": semantics.Logical,
}

var defaultKinds = map[semantics.TypeCategory]int64{
	semantics.Integer:   rtabi.DefaultInteger,
	semantics.Real:      rtabi.DefaultReal,
	semantics.Complex:   rtabi.DefaultReal,
	semantics.Logical:   rtabi.DefaultLogical,
	semantics.Character: rtabi.DefaultCharacter,
}

func (e *env) typeSpec(s *syntax.TypeSpec) (*semantics.DeclTypeSpec, error) {
	switch s.Keyword {
	case "doubleprecision":
		return semantics.IntrinsicType(semantics.Real, semantics.Int(8)), nil
	case "character":
		return e.characterType(s.Params)
	case "type", "class":
		if s.Star {
			if s.Keyword == "class" {
				return semantics.Unlimited(), nil
			}
			return semantics.AssumedType(), nil
		}
		spec, err := e.derivedSpec(s.Derived)
		if err != nil {
			return nil, err
		}
		if s.Keyword == "class" {
			return semantics.ClassOf(spec), nil
		}
		return semantics.TypeOf(spec), nil
	}
	cat, ok := intrinsicCategories[s.Keyword]
	if !ok {
		return nil, fmt.Errorf("unknown type %s", s.Keyword)
	}
	kind := semantics.Expr(semantics.Int(defaultKinds[cat]))
	switch len(s.Params) {
	case 0:
	case 1:
		p := s.Params[0]
		if p.Keyword != "" && p.Keyword != "kind" {
			return nil, fmt.Errorf("%s has no type parameter %s", s.Keyword, p.Keyword)
		}
		if p.Value == nil {
			return nil, fmt.Errorf("kind of %s must be an expression", s.Keyword)
		}
		k, err := e.expr(p.Value)
		if err != nil {
			return nil, err
		}
		kind = semantics.Fold(k, nil)
	default:
		return nil, fmt.Errorf("too many selectors for %s", s.Keyword)
	}
	return semantics.IntrinsicType(cat, kind), nil
}

// characterType converts the selector of character([len=]l[, [kind=]k]).
func (e *env) characterType(params []*syntax.Param) (*semantics.DeclTypeSpec, error) {
	length := semantics.ExplicitParam(semantics.Int(1))
	kind := semantics.Expr(semantics.Int(rtabi.DefaultCharacter))
	seen := map[string]bool{}
	keywords := false
	for i, p := range params {
		name := p.Keyword
		switch {
		case name != "":
			keywords = true
		case keywords || i > 1:
			return nil, fmt.Errorf("misplaced character selector")
		default:
			name = [...]string{"len", "kind"}[i]
		}
		if seen[name] {
			return nil, fmt.Errorf("character %s given twice", name)
		}
		seen[name] = true
		switch name {
		case "len":
			v, err := e.paramValue(p)
			if err != nil {
				return nil, err
			}
			length = v
		case "kind":
			if p.Value == nil {
				return nil, fmt.Errorf("kind of character must be an expression")
			}
			k, err := e.expr(p.Value)
			if err != nil {
				return nil, err
			}
			kind = semantics.Fold(k, nil)
		default:
			return nil, fmt.Errorf("character has no type parameter %s", name)
		}
	}
	return semantics.CharacterType(length, kind), nil
}

func (e *env) paramValue(p *syntax.Param) (semantics.ParamValue, error) {
	switch {
	case p.Star:
		return semantics.AssumedParam(), nil
	case p.Colon:
		return semantics.DeferredParam(), nil
	}
	x, err := e.expr(p.Value)
	if err != nil {
		return semantics.ParamValue{}, err
	}
	return semantics.ExplicitParam(semantics.Fold(x, nil)), nil
}

// lookupType returns the derived type symbol visible as name.
func (e *env) lookupType(name string) (*semantics.Symbol, error) {
	sym, _ := e.scope.LookupParent(name)
	if sym == nil {
		return nil, fmt.Errorf("undefined type %s", name)
	}
	if sym = sym.GetUltimate(); !sym.IsDerivedType() {
		return nil, fmt.Errorf("%s is not a derived type", name)
	}
	return sym, nil
}

func (e *env) derivedSpec(d *syntax.DerivedSpec) (*semantics.DerivedTypeSpec, error) {
	sym, err := e.lookupType(d.Name.Value)
	if err != nil {
		return nil, err
	}
	params := sym.Scope().TypeParameters()
	bindings := make([]semantics.ParamBinding, 0, len(d.Params))
	keywords := false
	for i, p := range d.Params {
		name := p.Keyword
		switch {
		case name != "":
			keywords = true
			if !hasSymbol(params, name) {
				return nil, fmt.Errorf("%s has no type parameter %s", sym.Name(), name)
			}
		case keywords:
			return nil, fmt.Errorf("positional type parameter after keyword in %s", sym.Name())
		case i >= len(params):
			return nil, fmt.Errorf("too many type parameters for %s", sym.Name())
		default:
			name = params[i].Name()
		}
		for _, b := range bindings {
			if b.Name == name {
				return nil, fmt.Errorf("type parameter %s of %s given twice", name, sym.Name())
			}
		}
		v, err := e.paramValue(p)
		if err != nil {
			return nil, err
		}
		bindings = append(bindings, semantics.ParamBinding{Name: name, Value: v})
	}
	return e.ctx.Spec(sym, e.pos, bindings...), nil
}

func hasSymbol(list []*semantics.Symbol, name string) bool {
	for _, s := range list {
		if s.Name() == name {
			return true
		}
	}
	return false
}

func (e *env) shape(s *syntax.Shape) (semantics.ArraySpec, error) {
	if s.AssumedRank {
		return semantics.ArraySpec{AssumedRank: true}, nil
	}
	var a semantics.ArraySpec
	deferred := semantics.Bound{Category: semantics.BoundDeferred}
	for _, d := range s.Dims {
		if d.IsDeferred() {
			a.Dims = append(a.Dims, semantics.ShapeSpec{Lower: deferred, Upper: deferred})
			continue
		}
		ss := semantics.ShapeSpec{Lower: semantics.ExplicitBound(semantics.Int(1))}
		if d.Lower != nil {
			lo, err := e.expr(d.Lower)
			if err != nil {
				return semantics.ArraySpec{}, err
			}
			ss.Lower = semantics.ExplicitBound(semantics.Fold(lo, nil))
		}
		switch {
		case d.Star:
			ss.Upper = semantics.Bound{Category: semantics.BoundAssumed}
		case d.Upper == nil:
			ss.Upper = deferred
		default:
			hi, err := e.expr(d.Upper)
			if err != nil {
				return semantics.ArraySpec{}, err
			}
			ss.Upper = semantics.ExplicitBound(semantics.Fold(hi, nil))
		}
		a.Dims = append(a.Dims, ss)
	}
	return a, nil
}

func (e *env) isTypeParam(name string) bool {
	return e.typ != nil && hasSymbol(e.typ.Scope().TypeParameters(), name)
}

func (e *env) expr(x syntax.Expr) (semantics.Expr, error) {
	switch x := x.(type) {
	case *syntax.Name:
		if e.isTypeParam(x.Value) {
			return &semantics.ParamRef{Name: x.Value}, nil
		}
		sym, _ := e.scope.LookupParent(x.Value)
		if sym == nil {
			return nil, fmt.Errorf("undefined name %s", x.Value)
		}
		return semantics.Ref(sym.GetUltimate()), nil

	case *syntax.BasicLit:
		return e.literal(x)

	case *syntax.ParenExpr:
		return e.expr(x.X)

	case *syntax.Operation:
		lhs, err := e.expr(x.X)
		if err != nil {
			return nil, err
		}
		if x.Y == nil {
			if x.Op == syntax.Sub {
				return &semantics.Negate{X: lhs}, nil
			}
			return lhs, nil
		}
		rhs, err := e.expr(x.Y)
		if err != nil {
			return nil, err
		}
		var op semantics.BinaryOp
		switch x.Op {
		case syntax.Add:
			op = semantics.Add
		case syntax.Sub:
			op = semantics.Sub
		case syntax.Mul:
			op = semantics.Mul
		case syntax.Div:
			op = semantics.Div
		default:
			return nil, fmt.Errorf("unsupported operator %s", x.Op)
		}
		return &semantics.Binary{Op: op, X: lhs, Y: rhs}, nil

	case *syntax.CallExpr:
		if x.Fun.Value == "null" && len(x.Args) == 0 {
			return &semantics.Null{}, nil
		}
		return nil, fmt.Errorf("unsupported function reference %s", syntax.String(x))
	}
	return nil, fmt.Errorf("unsupported expression %s", syntax.String(x))
}

func (e *env) literal(x *syntax.BasicLit) (semantics.Expr, error) {
	kind, err := e.kindSuffix(x.Kind)
	if err != nil {
		return nil, err
	}
	switch x.LitKind {
	case syntax.IntLit:
		v, err := strconv.ParseInt(x.Value, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("integer literal %s out of range", x.Value)
		}
		return semantics.IntKind(v, kind), nil
	case syntax.RealLit:
		text := x.Value
		if strings.Contains(text, "d") {
			text = strings.Replace(text, "d", "e", 1)
			if kind == 0 {
				kind = 8
			}
		}
		v, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid real literal %s", x.Value)
		}
		return &semantics.RealConst{Value: v, Kind: kind}, nil
	case syntax.LogicalLit:
		return &semantics.LogicalConst{Value: x.Value == "true", Kind: kind}, nil
	case syntax.StringLit:
		return &semantics.CharConst{Value: x.Value, Kind: kind}, nil
	}
	return nil, fmt.Errorf("unsupported literal %s", syntax.String(x))
}

// kindSuffix evaluates the kind parameter of a literal: digits or the
// name of an integer constant. "" is kind 0, the default.
func (e *env) kindSuffix(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	if k, err := strconv.Atoi(s); err == nil {
		return k, nil
	}
	sym, _ := e.scope.LookupParent(s)
	if sym == nil {
		return 0, fmt.Errorf("undefined kind %s", s)
	}
	k, ok := semantics.ToInt64(semantics.Fold(semantics.Ref(sym.GetUltimate()), nil))
	if !ok {
		return 0, fmt.Errorf("kind %s is not a constant", s)
	}
	return int(k), nil
}

// constKind folds the kind of an integer type such as integer(kind=8).
func constKind(t *semantics.DeclTypeSpec) (int, error) {
	if t.Kind != semantics.IntrinsicDecl || t.Intrinsic.Category != semantics.Integer {
		return 0, fmt.Errorf("type parameter must be of integer type, not %s", t)
	}
	k, ok := semantics.ToInt64(semantics.Fold(t.Intrinsic.Kind, nil))
	if !ok {
		return 0, fmt.Errorf("kind of %s is not a constant", t)
	}
	return int(k), nil
}
