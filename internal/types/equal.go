package types

// Equal reports deep structural equality, including binder-name
// payloads. Two alpha-equivalent types that differ only in binder
// spelling compare unequal; use AlphaEqual for spelling-insensitive
// comparison.
func (t Type[Name]) Equal(other Type[Name]) bool {
	return t.free == other.free && typeNodeEqual[Name](t.node, other.node, false)
}

// AlphaEqual reports structural equality up to binder-name spelling.
// Constraint tags on type parameters are still compared; only the
// diagnostic name payload is ignored.
func (t Type[Name]) AlphaEqual(other Type[Name]) bool {
	return t.free == other.free && typeNodeEqual[Name](t.node, other.node, true)
}

func typeNodeEqual[Name comparable](a, b typeNode[Name], ignoreNames bool) bool {
	// Shared subtrees compare equal without descent.
	if a == b {
		return true
	}

	switch x := a.(type) {
	case unitTypeNode[Name]:
		_, ok := b.(unitTypeNode[Name])

		return ok

	case varTypeNode[Name]:
		y, ok := b.(varTypeNode[Name])

		return ok && x.index == y.index

	case *funcTypeNode[Name]:
		y, ok := b.(*funcTypeNode[Name])
		if !ok || !paramsEqual(x.params, y.params, ignoreNames) {
			return false
		}

		return typeNodeEqual[Name](x.arg, y.arg, ignoreNames) &&
			typeNodeEqual[Name](x.result, y.result, ignoreNames)

	case *pairTypeNode[Name]:
		y, ok := b.(*pairTypeNode[Name])
		if !ok {
			return false
		}

		return typeNodeEqual[Name](x.left, y.left, ignoreNames) &&
			typeNodeEqual[Name](x.right, y.right, ignoreNames)

	case *existsTypeNode[Name]:
		y, ok := b.(*existsTypeNode[Name])
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

		return typeNodeEqual[Name](x.body, y.body, ignoreNames)

	default:
		return false
	}
}

func paramsEqual[Name comparable](a, b []TypeParam[Name], ignoreNames bool) bool {
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
