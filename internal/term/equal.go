package term

import "github.com/meridian-lang/meridian/internal/types"

// Equal reports deep structural equality, including binder-name
// payloads. This matches field-by-field equality on the original
// representation: two alpha-equivalent terms that differ only in
// binder spelling compare unequal. Use AlphaEqual when spelling must
// not matter.
func (e Expr[Name]) Equal(other Expr[Name]) bool {
	return e.freeVars == other.freeVars &&
		e.freeTypes == other.freeTypes &&
		nodeEqual[Name](e.node, other.node, false)
}

// AlphaEqual reports structural equality up to binder-name spelling:
// binder names on abstractions, lets, and existential forms are
// ignored, as are type-parameter names. Usage tags, indices, counts,
// and type structure are still compared.
func (e Expr[Name]) AlphaEqual(other Expr[Name]) bool {
	return e.freeVars == other.freeVars &&
		e.freeTypes == other.freeTypes &&
		nodeEqual[Name](e.node, other.node, true)
}

func nodeEqual[Name comparable](a, b exprNode[Name], ignoreNames bool) bool {
	// Shared subtrees compare equal without descent.
	if a == b {
		return true
	}

	switch x := a.(type) {
	case unitNode[Name]:
		_, ok := b.(unitNode[Name])

		return ok

	case varNode[Name]:
		y, ok := b.(varNode[Name])

		return ok && x == y

	case *absNode[Name]:
		y, ok := b.(*absNode[Name])
		if !ok || !typeParamsEqual(x.typeParams, y.typeParams, ignoreNames) {
			return false
		}

		if !ignoreNames && x.argName != y.argName {
			return false
		}

		return typeEq(x.argType, y.argType, ignoreNames) &&
			nodeEqual[Name](x.body, y.body, ignoreNames)

	case *appNode[Name]:
		y, ok := b.(*appNode[Name])
		if !ok || len(x.typeArgs) != len(y.typeArgs) {
			return false
		}

		for i := range x.typeArgs {
			if !typeEq(x.typeArgs[i], y.typeArgs[i], ignoreNames) {
				return false
			}
		}

		return nodeEqual[Name](x.callee, y.callee, ignoreNames) &&
			nodeEqual[Name](x.arg, y.arg, ignoreNames)

	case *pairNode[Name]:
		y, ok := b.(*pairNode[Name])
		if !ok {
			return false
		}

		return nodeEqual[Name](x.left, y.left, ignoreNames) &&
			nodeEqual[Name](x.right, y.right, ignoreNames)

	case *letNode[Name]:
		y, ok := b.(*letNode[Name])
		if !ok || len(x.names) != len(y.names) {
			return false
		}

		if !ignoreNames {
			for i := range x.names {
				if x.names[i] != y.names[i] {
					return false
				}
			}
		}

		return nodeEqual[Name](x.val, y.val, ignoreNames) &&
			nodeEqual[Name](x.body, y.body, ignoreNames)

	case *letExistsNode[Name]:
		y, ok := b.(*letExistsNode[Name])
		if !ok || len(x.typeNames) != len(y.typeNames) {
			return false
		}

		if !ignoreNames {
			if x.valName != y.valName {
				return false
			}

			for i := range x.typeNames {
				if x.typeNames[i] != y.typeNames[i] {
					return false
				}
			}
		}

		return nodeEqual[Name](x.val, y.val, ignoreNames) &&
			nodeEqual[Name](x.body, y.body, ignoreNames)

	case *makeExistsNode[Name]:
		y, ok := b.(*makeExistsNode[Name])
		if !ok || len(x.params) != len(y.params) {
			return false
		}

		for i := range x.params {
			if !ignoreNames && x.params[i].Name != y.params[i].Name {
				return false
			}

			if !typeEq(x.params[i].Type, y.params[i].Type, ignoreNames) {
				return false
			}
		}

		return typeEq(x.typeBody, y.typeBody, ignoreNames) &&
			nodeEqual[Name](x.body, y.body, ignoreNames)

	default:
		return false
	}
}

func typeEq[Name comparable](a, b types.Type[Name], ignoreNames bool) bool {
	if ignoreNames {
		return a.AlphaEqual(b)
	}

	return a.Equal(b)
}

func typeParamsEqual[Name comparable](a, b []types.TypeParam[Name], ignoreNames bool) bool {
	if len(a) != len(b) {
		return false
	}

	for i := range a {
		if a[i].Bound != b[i].Bound {
			return false
		}

		if !ignoreNames && a[i].Name != b[i].Name {
			return false
		}
	}

	return true
}
