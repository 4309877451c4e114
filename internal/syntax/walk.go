package syntax

// Visitor is called for each node during Walk.
// If it returns false, the children of the node are not visited.
type Visitor func(node Node) bool

// Walk traverses an AST in depth-first order.
func Walk(node Node, v Visitor) {
	if isNil(node) || !v(node) {
		return
	}

	switch n := node.(type) {
	case *TypeSpec:
		for _, a := range n.Params {
			Walk(a, v)
		}
		if n.Derived != nil {
			Walk(n.Derived, v)
		}

	case *DerivedSpec:
		Walk(n.Name, v)
		for _, a := range n.Params {
			Walk(a, v)
		}

	case *Param:
		if n.Value != nil {
			Walk(n.Value, v)
		}

	case *Shape:
		for _, d := range n.Dims {
			Walk(d, v)
		}

	case *Dim:
		if n.Lower != nil {
			Walk(n.Lower, v)
		}
		if n.Upper != nil {
			Walk(n.Upper, v)
		}

	case *Operation:
		Walk(n.X, v)
		if n.Y != nil {
			Walk(n.Y, v)
		}

	case *ParenExpr:
		Walk(n.X, v)

	case *CallExpr:
		Walk(n.Fun, v)
		for _, a := range n.Args {
			Walk(a, v)
		}
	}
}

// isNil reports whether node is nil or a typed nil pointer.
func isNil(node Node) bool {
	switch n := node.(type) {
	case nil:
		return true
	case *TypeSpec:
		return n == nil
	case *Shape:
		return n == nil
	case *DerivedSpec:
		return n == nil
	}
	return false
}

// Names returns the names referenced by expressions under node, in
// order of first appearance. Function names of calls and derived type
// names are excluded.
func Names(node Node) []string {
	var list []string
	seen := make(map[string]bool)
	var visit Visitor
	visit = func(n Node) bool {
		switch n := n.(type) {
		case *CallExpr:
			for _, a := range n.Args {
				Walk(a, visit)
			}
			return false
		case *DerivedSpec:
			for _, a := range n.Params {
				Walk(a, visit)
			}
			return false
		case *Name:
			if !seen[n.Value] {
				seen[n.Value] = true
				list = append(list, n.Value)
			}
		}
		return true
	}
	Walk(node, visit)
	return list
}
