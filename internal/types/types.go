// Package types implements the Meridian type-expression calculus.
// Type variables are de Bruijn indices; every Type value caches the
// number of free type variables its tree may reference, and the cache
// is kept consistent by validating all construction through
// FromContent. The package provides the contract the term layer
// consumes: Free(), structural equality, and O(1) sharing on copy.
package types

import "fmt"

// ParamBound is the constraint a type-parameter declaration places on
// its instantiations. In an affine calculus the one constraint a
// binder can state is whether instantiating types must admit copying.
type ParamBound int

const (
	// BoundNone places no constraint on instantiations.
	BoundNone ParamBound = iota
	// BoundCopy requires instantiating types to admit unrestricted use.
	BoundCopy
)

// String returns the constraint's surface spelling.
func (b ParamBound) String() string {
	switch b {
	case BoundNone:
		return "none"
	case BoundCopy:
		return "copy"
	default:
		return "unknown"
	}
}

// ParseParamBound parses a constraint from its surface spelling.
func ParseParamBound(s string) (ParamBound, error) {
	switch s {
	case "none", "":
		return BoundNone, nil
	case "copy":
		return BoundCopy, nil
	default:
		return 0, fmt.Errorf("types: unknown parameter bound %q", s)
	}
}

// TypeParam declares one universally bound type variable: a display
// name plus its constraint. The name is diagnostic payload only;
// binding is positional.
type TypeParam[Name comparable] struct {
	Name  Name
	Bound ParamBound
}

// typeNode is the raw, count-free tree behind a Type. Nodes are
// immutable once built and shared freely between handles; all counts
// live on the Type wrapper.
type typeNode[Name comparable] interface {
	typeNode()
}

type unitTypeNode[Name comparable] struct{}

type varTypeNode[Name comparable] struct {
	index int
}

type funcTypeNode[Name comparable] struct {
	params []TypeParam[Name]
	arg    typeNode[Name]
	result typeNode[Name]
}

type pairTypeNode[Name comparable] struct {
	left  typeNode[Name]
	right typeNode[Name]
}

type existsTypeNode[Name comparable] struct {
	names []Name
	body  typeNode[Name]
}

func (unitTypeNode[Name]) typeNode()    {}
func (varTypeNode[Name]) typeNode()     {}
func (*funcTypeNode[Name]) typeNode()   {}
func (*pairTypeNode[Name]) typeNode()   {}
func (*existsTypeNode[Name]) typeNode() {}

// Type is a validated type expression: a cached free-variable count
// over a shared immutable node tree. Copying a Type is O(1) and
// shares the tree. The zero Type is not a valid type; obtain one
// through FromContent.
type Type[Name comparable] struct {
	free int
	node typeNode[Name]
}

// Free returns the number of free type variables the type may
// reference at its own scope boundary.
func (t Type[Name]) Free() int {
	return t.free
}

// TypeContent is the one-level exposed view of a Type. Each variant
// embeds fully formed child Type values whose free counts are already
// shifted for the child's scope. Views are transient: they exist only
// as the argument of FromContent and the result of ToContent.
type TypeContent[Name comparable] interface {
	typeContent()
}

// UnitType is the unit type.
type UnitType[Name comparable] struct {
	Free int
}

// VarType is a type-variable occurrence, Index counted from the
// innermost enclosing binder outward.
type VarType[Name comparable] struct {
	Free  int
	Index int
}

// FuncType is a polymorphic function type. TypeParams are bound
// jointly over Arg and Result, so both children are expressed in the
// extended scope.
type FuncType[Name comparable] struct {
	TypeParams []TypeParam[Name]
	Arg        Type[Name]
	Result     Type[Name]
}

// PairType is the product of two types in the same scope.
type PairType[Name comparable] struct {
	Left  Type[Name]
	Right Type[Name]
}

// ExistsType hides len(Names) type components; Body is expressed in
// the extended scope that has the hidden variables in view.
type ExistsType[Name comparable] struct {
	Names []Name
	Body  Type[Name]
}

func (UnitType[Name]) typeContent()   {}
func (VarType[Name]) typeContent()    {}
func (FuncType[Name]) typeContent()   {}
func (PairType[Name]) typeContent()   {}
func (ExistsType[Name]) typeContent() {}

// FromContent validates a one-level view and folds it into a Type.
// The resulting free count is derived from the children's counts; any
// inconsistency in the scope arithmetic fails with a *ScopeError and
// no Type is produced.
func FromContent[Name comparable](content TypeContent[Name]) (Type[Name], error) {
	switch c := content.(type) {
	case UnitType[Name]:
		return Type[Name]{
			free: c.Free,
			node: unitTypeNode[Name]{},
		}, nil

	case VarType[Name]:
		if c.Index < 0 || c.Index >= c.Free {
			return Type[Name]{}, &ScopeError{
				Kind:  ErrIndexOutOfRange,
				Form:  "type variable",
				Field: "index",
				Got:   c.Index,
				Want:  c.Free,
			}
		}

		return Type[Name]{
			free: c.Free,
			node: varTypeNode[Name]{index: c.Index},
		}, nil

	case FuncType[Name]:
		if c.Arg.Free() != c.Result.Free() {
			return Type[Name]{}, &ScopeError{
				Kind:  ErrScopeMismatch,
				Form:  "function type",
				Field: "free type variables",
				Got:   c.Result.Free(),
				Want:  c.Arg.Free(),
			}
		}

		if len(c.TypeParams) > c.Arg.Free() {
			return Type[Name]{}, &ScopeError{
				Kind:  ErrBinderArityMismatch,
				Form:  "function type",
				Field: "type parameters",
				Got:   len(c.TypeParams),
				Want:  c.Arg.Free(),
			}
		}

		return Type[Name]{
			free: c.Arg.Free() - len(c.TypeParams),
			node: &funcTypeNode[Name]{
				params: cloneSlice(c.TypeParams),
				arg:    c.Arg.node,
				result: c.Result.node,
			},
		}, nil

	case PairType[Name]:
		if c.Left.Free() != c.Right.Free() {
			return Type[Name]{}, &ScopeError{
				Kind:  ErrScopeMismatch,
				Form:  "pair type",
				Field: "free type variables",
				Got:   c.Right.Free(),
				Want:  c.Left.Free(),
			}
		}

		return Type[Name]{
			free: c.Left.Free(),
			node: &pairTypeNode[Name]{left: c.Left.node, right: c.Right.node},
		}, nil

	case ExistsType[Name]:
		if len(c.Names) == 0 {
			return Type[Name]{}, &ScopeError{
				Kind: ErrEmptyBinderList,
				Form: "existential type",
			}
		}

		if len(c.Names) > c.Body.Free() {
			return Type[Name]{}, &ScopeError{
				Kind:  ErrBinderArityMismatch,
				Form:  "existential type",
				Field: "hidden type names",
				Got:   len(c.Names),
				Want:  c.Body.Free(),
			}
		}

		return Type[Name]{
			free: c.Body.Free() - len(c.Names),
			node: &existsTypeNode[Name]{
				names: cloneSlice(c.Names),
				body:  c.Body.node,
			},
		}, nil

	default:
		panic("types: unknown TypeContent variant")
	}
}

// MustFromContent is FromContent for call sites where the view is
// known consistent; it panics on a scope error.
func MustFromContent[Name comparable](content TypeContent[Name]) Type[Name] {
	t, err := FromContent[Name](content)
	if err != nil {
		panic("types: " + err.Error())
	}

	return t
}

// ToContent unfolds a Type one level, re-deriving each child's free
// count by adding back the binder arity the fold subtracted. It never
// fails: the counts were proven consistent when the Type was built.
// Slices in the view share the handle's backing arrays; treat them as
// read-only.
func (t Type[Name]) ToContent() TypeContent[Name] {
	switch n := t.node.(type) {
	case unitTypeNode[Name]:
		return UnitType[Name]{Free: t.free}

	case varTypeNode[Name]:
		return VarType[Name]{Free: t.free, Index: n.index}

	case *funcTypeNode[Name]:
		inner := t.free + len(n.params)

		return FuncType[Name]{
			TypeParams: n.params,
			Arg:        Type[Name]{free: inner, node: n.arg},
			Result:     Type[Name]{free: inner, node: n.result},
		}

	case *pairTypeNode[Name]:
		return PairType[Name]{
			Left:  Type[Name]{free: t.free, node: n.left},
			Right: Type[Name]{free: t.free, node: n.right},
		}

	case *existsTypeNode[Name]:
		return ExistsType[Name]{
			Names: n.names,
			Body:  Type[Name]{free: t.free + len(n.names), node: n.body},
		}

	case nil:
		panic("types: ToContent on zero Type")

	default:
		panic("types: unknown node variant")
	}
}

// cloneSlice snapshots a caller-supplied slice so later mutation of
// the argument cannot reach into a validated tree.
func cloneSlice[E any](s []E) []E {
	if len(s) == 0 {
		return nil
	}

	out := make([]E, len(s))
	copy(out, s)

	return out
}
