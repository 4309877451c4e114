package semantics

// Bindings maps type parameter names to their values during folding.
type Bindings map[string]Expr

// Fold returns e with type parameter references replaced by their values
// in b, named constants replaced by their values, and constant
// arithmetic evaluated. Subexpressions that cannot be folded are kept.
func Fold(e Expr, b Bindings) Expr {
	switch e := e.(type) {
	case nil:
		return nil
	case *ParamRef:
		if v, ok := b[e.Name]; ok && v != nil {
			return Fold(v, nil)
		}
		return e
	case *Designator:
		if d, ok := e.Symbol.Details().(*ObjectEntityDetails); ok &&
			e.Symbol.Attrs().Has(Parameter) && d.Init != nil {
			if v := Fold(d.Init, nil); IsConstant(v) {
				return v
			}
		}
		return e
	case *Negate:
		x := Fold(e.X, b)
		switch x := x.(type) {
		case *IntConst:
			return &IntConst{Value: -x.Value, Kind: x.Kind}
		case *RealConst:
			return &RealConst{Value: -x.Value, Kind: x.Kind}
		}
		return &Negate{X: x}
	case *Binary:
		x, y := Fold(e.X, b), Fold(e.Y, b)
		if v := foldBinary(e.Op, x, y); v != nil {
			return v
		}
		return &Binary{Op: e.Op, X: x, Y: y}
	case *StructureCtor:
		values := make([]ComponentValue, len(e.Values))
		for i, v := range e.Values {
			values[i] = ComponentValue{Name: v.Name, Value: Fold(v.Value, b)}
		}
		return &StructureCtor{Spec: e.Spec, Values: values}
	case *ArrayCtor:
		values := make([]Expr, len(e.Values))
		for i, v := range e.Values {
			values[i] = Fold(v, b)
		}
		return &ArrayCtor{Type: e.Type, Values: values, Shape: e.Shape}
	}
	return e
}

func foldBinary(op BinaryOp, x, y Expr) Expr {
	xi, xIsInt := x.(*IntConst)
	yi, yIsInt := y.(*IntConst)
	if xIsInt && yIsInt {
		kind := xi.Kind
		if yi.Kind > kind {
			kind = yi.Kind
		}
		switch op {
		case Add:
			return &IntConst{Value: xi.Value + yi.Value, Kind: kind}
		case Sub:
			return &IntConst{Value: xi.Value - yi.Value, Kind: kind}
		case Mul:
			return &IntConst{Value: xi.Value * yi.Value, Kind: kind}
		case Div:
			if yi.Value == 0 {
				return nil
			}
			return &IntConst{Value: xi.Value / yi.Value, Kind: kind}
		}
		return nil
	}
	xr, xok := realValue(x)
	yr, yok := realValue(y)
	if !xok || !yok {
		return nil
	}
	kind := 0
	if r, ok := x.(*RealConst); ok {
		kind = r.Kind
	}
	if r, ok := y.(*RealConst); ok && r.Kind > kind {
		kind = r.Kind
	}
	switch op {
	case Add:
		return &RealConst{Value: xr + yr, Kind: kind}
	case Sub:
		return &RealConst{Value: xr - yr, Kind: kind}
	case Mul:
		return &RealConst{Value: xr * yr, Kind: kind}
	case Div:
		if yr == 0 {
			return nil
		}
		return &RealConst{Value: xr / yr, Kind: kind}
	}
	return nil
}

func realValue(e Expr) (float64, bool) {
	switch e := e.(type) {
	case *IntConst:
		return float64(e.Value), true
	case *RealConst:
		return e.Value, true
	}
	return 0, false
}

// ToInt64 returns the value of an integer constant expression.
func ToInt64(e Expr) (int64, bool) {
	if c, ok := Fold(e, nil).(*IntConst); ok {
		return c.Value, true
	}
	return 0, false
}

// IsConstant reports whether e is a constant: a literal, NULL(), or a
// constructor whose values are all constant.
func IsConstant(e Expr) bool {
	switch e := e.(type) {
	case *IntConst, *RealConst, *ComplexConst, *LogicalConst, *CharConst, *Null:
		return true
	case *StructureCtor:
		for _, v := range e.Values {
			if !IsConstant(v.Value) {
				return false
			}
		}
		return true
	case *ArrayCtor:
		for _, v := range e.Values {
			if !IsConstant(v) {
				return false
			}
		}
		return true
	}
	return false
}

// IsStaticInitializer reports whether e can initialize static storage:
// a constant, or a constructor that may also hold designators of
// procedures and of objects with the TARGET or SAVE attribute.
func IsStaticInitializer(e Expr) bool {
	switch e := e.(type) {
	case *Designator:
		sym := e.Symbol.GetUltimate()
		return sym.IsProcedure() || sym.Attrs().Has(Target) || sym.Attrs().Has(Save)
	case *StructureCtor:
		for _, v := range e.Values {
			if !IsStaticInitializer(v.Value) {
				return false
			}
		}
		return true
	case *ArrayCtor:
		for _, v := range e.Values {
			if !IsStaticInitializer(v) {
				return false
			}
		}
		return true
	}
	return IsConstant(e)
}

// ParamRefs returns the names of type parameters referenced by e, in
// order of first reference.
func ParamRefs(e Expr) []string {
	var names []string
	seen := map[string]bool{}
	var walk func(Expr)
	walk = func(e Expr) {
		switch e := e.(type) {
		case *ParamRef:
			if !seen[e.Name] {
				seen[e.Name] = true
				names = append(names, e.Name)
			}
		case *Negate:
			walk(e.X)
		case *Binary:
			walk(e.X)
			walk(e.Y)
		case *StructureCtor:
			for _, v := range e.Values {
				walk(v.Value)
			}
		case *ArrayCtor:
			for _, v := range e.Values {
				walk(v)
			}
		}
	}
	walk(e)
	return names
}
