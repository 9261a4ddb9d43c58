// Package term implements Meridian's core expression representation.
// Terms are intrinsically scoped: variable binding is positional (de
// Bruijn indices), and every Expr caches the number of free term and
// type variables its tree may reference. The caches are kept honest by
// funnelling all construction through FromContent, which validates the
// scope arithmetic at each binder, and all inspection through
// ToContent, which re-derives child counts by inverting that
// arithmetic. A well-formed Expr therefore cannot exist with an
// out-of-range variable or a miscounted binder, and every downstream
// pass (checker, evaluator, printer) may rely on the counts without
// re-traversing the tree.
package term

import (
	"fmt"

	"github.com/meridian-lang/meridian/internal/types"
)

// VarUsage tags a variable occurrence with its usage discipline:
// UsageMove consumes the binding (affine, single use), UsageCopy
// merely reads it. The tag is carried and compared; it has no
// behavior at this layer.
type VarUsage int

const (
	// UsageMove marks an affine occurrence that consumes its binding.
	UsageMove VarUsage = iota
	// UsageCopy marks an unrestricted occurrence.
	UsageCopy
)

// String returns the usage's surface spelling.
func (u VarUsage) String() string {
	switch u {
	case UsageMove:
		return "move"
	case UsageCopy:
		return "copy"
	default:
		return "unknown"
	}
}

// ParseVarUsage parses a usage tag from its surface spelling.
func ParseVarUsage(s string) (VarUsage, error) {
	switch s {
	case "move", "":
		return UsageMove, nil
	case "copy":
		return UsageCopy, nil
	default:
		return 0, fmt.Errorf("term: unknown variable usage %q", s)
	}
}

// ExistsParam instantiates one hidden type slot of an existential
// package: a diagnostic name for the slot and the concrete type
// filling it, expressed in the ambient scope.
type ExistsParam[Name comparable] struct {
	Name Name
	Type types.Type[Name]
}

// exprNode is the raw, count-free tree behind an Expr. Nodes are
// immutable once built and shared freely between handles; the cached
// counts live on the Expr wrapper, never on nodes, so one node can
// back handles at different scopes.
type exprNode[Name comparable] interface {
	exprNode()
}

type unitNode[Name comparable] struct{}

type varNode[Name comparable] struct {
	usage VarUsage
	index int
}

// absNode binds one block of type parameters and exactly one term
// variable jointly; argType is expressed in the inner scope that has
// the new type parameters in view.
type absNode[Name comparable] struct {
	typeParams []types.TypeParam[Name]
	argName    Name
	argType    types.Type[Name]
	body       exprNode[Name]
}

type appNode[Name comparable] struct {
	callee   exprNode[Name]
	typeArgs []types.Type[Name]
	arg      exprNode[Name]
}

type pairNode[Name comparable] struct {
	left  exprNode[Name]
	right exprNode[Name]
}

type letNode[Name comparable] struct {
	names []Name
	val   exprNode[Name]
	body  exprNode[Name]
}

type letExistsNode[Name comparable] struct {
	typeNames []Name
	valName   Name
	val       exprNode[Name]
	body      exprNode[Name]
}

type makeExistsNode[Name comparable] struct {
	params   []ExistsParam[Name]
	typeBody types.Type[Name]
	body     exprNode[Name]
}

func (unitNode[Name]) exprNode()        {}
func (varNode[Name]) exprNode()         {}
func (*absNode[Name]) exprNode()        {}
func (*appNode[Name]) exprNode()        {}
func (*pairNode[Name]) exprNode()       {}
func (*letNode[Name]) exprNode()        {}
func (*letExistsNode[Name]) exprNode()  {}
func (*makeExistsNode[Name]) exprNode() {}

// Expr is a validated expression: cached free term- and type-variable
// counts over a shared immutable node tree. Copying an Expr is O(1)
// and shares the tree; an "edit" is a fresh bottom-up build that
// reuses unaffected subtrees. The zero Expr is not a valid term;
// obtain one through FromContent.
type Expr[Name comparable] struct {
	freeVars  int
	freeTypes int
	node      exprNode[Name]
}

// FreeVars returns the number of free term variables the expression
// may reference at its own scope boundary.
func (e Expr[Name]) FreeVars() int {
	return e.freeVars
}

// FreeTypes returns the number of free type variables the expression
// may reference at its own scope boundary.
func (e Expr[Name]) FreeTypes() int {
	return e.freeTypes
}

// ExprContent is the one-level exposed view of an Expr. Each variant
// embeds fully formed child Expr values whose free counts are already
// shifted for the child's scope. Views are transient: they exist only
// as the argument of FromContent and the result of ToContent, and are
// never stored.
type ExprContent[Name comparable] interface {
	exprContent()
}

// UnitExpr is the unit value.
type UnitExpr[Name comparable] struct {
	FreeVars  int
	FreeTypes int
}

// VarExpr is a term-variable occurrence, Index counted from the
// innermost enclosing binder outward.
type VarExpr[Name comparable] struct {
	Usage     VarUsage
	FreeVars  int
	FreeTypes int
	Index     int
}

// AbsExpr is a polymorphic abstraction. TypeParams and the one term
// binder are introduced jointly, so Body is expressed in a scope with
// len(TypeParams) extra type variables and one extra term variable,
// and ArgType is checked in that inner scope: a function may be
// polymorphic over type parameters its own argument type mentions.
// ArgName is diagnostic payload only.
type AbsExpr[Name comparable] struct {
	TypeParams []types.TypeParam[Name]
	ArgName    Name
	ArgType    types.Type[Name]
	Body       Expr[Name]
}

// AppExpr applies Callee, instantiated at TypeArgs, to Arg. Both
// children live in the same ambient scope.
type AppExpr[Name comparable] struct {
	Callee   Expr[Name]
	TypeArgs []types.Type[Name]
	Arg      Expr[Name]
}

// PairExpr pairs two expressions in the same scope.
type PairExpr[Name comparable] struct {
	Left  Expr[Name]
	Right Expr[Name]
}

// LetExpr binds one block of term names simultaneously: Body is
// expressed in a scope with len(Names) extra term variables.
type LetExpr[Name comparable] struct {
	Names []Name
	Val   Expr[Name]
	Body  Expr[Name]
}

// LetExistsExpr unpacks an existential value: Body sees len(TypeNames)
// extra type variables (the hidden components) plus one extra term
// variable (the underlying value, named ValName for diagnostics).
type LetExistsExpr[Name comparable] struct {
	TypeNames []Name
	ValName   Name
	Val       Expr[Name]
	Body      Expr[Name]
}

// MakeExistsExpr packs Body into an existential. Each param supplies
// the concrete type instantiating one hidden slot, expressed in the
// ambient scope; TypeBody is the abstract scheme with len(Params)
// additional bound type variables and is carried opaquely.
type MakeExistsExpr[Name comparable] struct {
	Params   []ExistsParam[Name]
	TypeBody types.Type[Name]
	Body     Expr[Name]
}

func (UnitExpr[Name]) exprContent()       {}
func (VarExpr[Name]) exprContent()        {}
func (AbsExpr[Name]) exprContent()        {}
func (AppExpr[Name]) exprContent()        {}
func (PairExpr[Name]) exprContent()       {}
func (LetExpr[Name]) exprContent()        {}
func (LetExistsExpr[Name]) exprContent()  {}
func (MakeExistsExpr[Name]) exprContent() {}

// FromContent validates a one-level view and folds it into an Expr.
// The resulting counts are derived from the children's counts by
// subtracting each binder's arity on the axis it binds; any
// inconsistency fails with a *ScopeError and no Expr is produced.
func FromContent[Name comparable](content ExprContent[Name]) (Expr[Name], error) {
	switch c := content.(type) {
	case UnitExpr[Name]:
		return Expr[Name]{
			freeVars:  c.FreeVars,
			freeTypes: c.FreeTypes,
			node:      unitNode[Name]{},
		}, nil

	case VarExpr[Name]:
		if c.Index < 0 || c.Index >= c.FreeVars {
			return Expr[Name]{}, &ScopeError{
				Kind:  ErrIndexOutOfRange,
				Form:  "variable",
				Field: "index",
				Got:   c.Index,
				Want:  c.FreeVars,
			}
		}

		return Expr[Name]{
			freeVars:  c.FreeVars,
			freeTypes: c.FreeTypes,
			node:      varNode[Name]{usage: c.Usage, index: c.Index},
		}, nil

	case AbsExpr[Name]:
		if c.ArgType.Free() != c.Body.freeTypes {
			return Expr[Name]{}, &ScopeError{
				Kind:  ErrTypeArityMismatch,
				Form:  "abstraction",
				Field: "argument type free type variables",
				Got:   c.ArgType.Free(),
				Want:  c.Body.freeTypes,
			}
		}

		if len(c.TypeParams) > c.Body.freeTypes {
			return Expr[Name]{}, &ScopeError{
				Kind:  ErrBinderArityMismatch,
				Form:  "abstraction",
				Field: "type parameters",
				Got:   len(c.TypeParams),
				Want:  c.Body.freeTypes,
			}
		}

		if c.Body.freeVars < 1 {
			return Expr[Name]{}, &ScopeError{
				Kind:  ErrBinderArityMismatch,
				Form:  "abstraction",
				Field: "body free term variables",
				Got:   c.Body.freeVars,
				Want:  1,
			}
		}

		return Expr[Name]{
			freeVars:  c.Body.freeVars - 1,
			freeTypes: c.Body.freeTypes - len(c.TypeParams),
			node: &absNode[Name]{
				typeParams: cloneSlice(c.TypeParams),
				argName:    c.ArgName,
				argType:    c.ArgType,
				body:       c.Body.node,
			},
		}, nil

	case AppExpr[Name]:
		// Callee and arg must agree on both counts. The original
		// form took arg's counts on trust; a silent disagreement
		// here is exactly the bug class this layer exists to stop,
		// and ToContent can never produce a mismatched pair, so the
		// check costs nothing on the round-trip laws.
		if c.Callee.freeVars != c.Arg.freeVars {
			return Expr[Name]{}, &ScopeError{
				Kind:  ErrScopeMismatch,
				Form:  "application",
				Field: "free term variables",
				Got:   c.Callee.freeVars,
				Want:  c.Arg.freeVars,
			}
		}

		if c.Callee.freeTypes != c.Arg.freeTypes {
			return Expr[Name]{}, &ScopeError{
				Kind:  ErrScopeMismatch,
				Form:  "application",
				Field: "free type variables",
				Got:   c.Callee.freeTypes,
				Want:  c.Arg.freeTypes,
			}
		}

		return Expr[Name]{
			freeVars:  c.Arg.freeVars,
			freeTypes: c.Arg.freeTypes,
			node: &appNode[Name]{
				callee:   c.Callee.node,
				typeArgs: cloneSlice(c.TypeArgs),
				arg:      c.Arg.node,
			},
		}, nil

	case PairExpr[Name]:
		if c.Left.freeVars != c.Right.freeVars {
			return Expr[Name]{}, &ScopeError{
				Kind:  ErrScopeMismatch,
				Form:  "pair",
				Field: "free term variables",
				Got:   c.Right.freeVars,
				Want:  c.Left.freeVars,
			}
		}

		if c.Left.freeTypes != c.Right.freeTypes {
			return Expr[Name]{}, &ScopeError{
				Kind:  ErrScopeMismatch,
				Form:  "pair",
				Field: "free type variables",
				Got:   c.Right.freeTypes,
				Want:  c.Left.freeTypes,
			}
		}

		return Expr[Name]{
			freeVars:  c.Left.freeVars,
			freeTypes: c.Left.freeTypes,
			node:      &pairNode[Name]{left: c.Left.node, right: c.Right.node},
		}, nil

	case LetExpr[Name]:
		if len(c.Names) == 0 {
			return Expr[Name]{}, &ScopeError{
				Kind: ErrEmptyBinderList,
				Form: "let",
			}
		}

		if c.Val.freeTypes != c.Body.freeTypes {
			return Expr[Name]{}, &ScopeError{
				Kind:  ErrScopeMismatch,
				Form:  "let",
				Field: "free type variables",
				Got:   c.Body.freeTypes,
				Want:  c.Val.freeTypes,
			}
		}

		if c.Val.freeVars+len(c.Names) != c.Body.freeVars {
			return Expr[Name]{}, &ScopeError{
				Kind:  ErrBinderArityMismatch,
				Form:  "let",
				Field: "body free term variables",
				Got:   c.Body.freeVars,
				Want:  c.Val.freeVars + len(c.Names),
			}
		}

		return Expr[Name]{
			freeVars:  c.Val.freeVars,
			freeTypes: c.Val.freeTypes,
			node: &letNode[Name]{
				names: cloneSlice(c.Names),
				val:   c.Val.node,
				body:  c.Body.node,
			},
		}, nil

	case LetExistsExpr[Name]:
		if len(c.TypeNames) == 0 {
			return Expr[Name]{}, &ScopeError{
				Kind: ErrEmptyBinderList,
				Form: "existential let",
			}
		}

		if c.Val.freeTypes+len(c.TypeNames) != c.Body.freeTypes {
			return Expr[Name]{}, &ScopeError{
				Kind:  ErrBinderArityMismatch,
				Form:  "existential let",
				Field: "body free type variables",
				Got:   c.Body.freeTypes,
				Want:  c.Val.freeTypes + len(c.TypeNames),
			}
		}

		if c.Val.freeVars+1 != c.Body.freeVars {
			return Expr[Name]{}, &ScopeError{
				Kind:  ErrBinderArityMismatch,
				Form:  "existential let",
				Field: "body free term variables",
				Got:   c.Body.freeVars,
				Want:  c.Val.freeVars + 1,
			}
		}

		return Expr[Name]{
			freeVars:  c.Val.freeVars,
			freeTypes: c.Val.freeTypes,
			node: &letExistsNode[Name]{
				typeNames: cloneSlice(c.TypeNames),
				valName:   c.ValName,
				val:       c.Val.node,
				body:      c.Body.node,
			},
		}, nil

	case MakeExistsExpr[Name]:
		if len(c.Params) == 0 {
			return Expr[Name]{}, &ScopeError{
				Kind: ErrEmptyBinderList,
				Form: "existential pack",
			}
		}

		if c.Body.freeTypes+len(c.Params) != c.TypeBody.Free() {
			return Expr[Name]{}, &ScopeError{
				Kind:  ErrTypeArityMismatch,
				Form:  "existential pack",
				Field: "type body free type variables",
				Got:   c.TypeBody.Free(),
				Want:  c.Body.freeTypes + len(c.Params),
			}
		}

		// Instantiating types live in the ambient scope, not the
		// extended one.
		for _, p := range c.Params {
			if p.Type.Free() != c.Body.freeTypes {
				return Expr[Name]{}, &ScopeError{
					Kind:  ErrTypeArityMismatch,
					Form:  "existential pack",
					Field: "parameter type free type variables",
					Got:   p.Type.Free(),
					Want:  c.Body.freeTypes,
				}
			}
		}

		return Expr[Name]{
			freeVars:  c.Body.freeVars,
			freeTypes: c.Body.freeTypes,
			node: &makeExistsNode[Name]{
				params:   cloneSlice(c.Params),
				typeBody: c.TypeBody,
				body:     c.Body.node,
			},
		}, nil

	default:
		panic("term: unknown ExprContent variant")
	}
}

// MustFromContent is FromContent for call sites where the view is
// known consistent; it panics on a scope error.
func MustFromContent[Name comparable](content ExprContent[Name]) Expr[Name] {
	e, err := FromContent[Name](content)
	if err != nil {
		panic("term: " + err.Error())
	}

	return e
}

// ToContent unfolds an Expr one level, re-deriving each child's counts
// by adding back the binder arity the fold subtracted on the axis the
// binder affects. It never fails: the counts were proven consistent
// when the Expr was built. Slices in the view share the handle's
// backing arrays; treat them as read-only.
func (e Expr[Name]) ToContent() ExprContent[Name] {
	switch n := e.node.(type) {
	case unitNode[Name]:
		return UnitExpr[Name]{FreeVars: e.freeVars, FreeTypes: e.freeTypes}

	case varNode[Name]:
		return VarExpr[Name]{
			Usage:     n.usage,
			FreeVars:  e.freeVars,
			FreeTypes: e.freeTypes,
			Index:     n.index,
		}

	case *absNode[Name]:
		return AbsExpr[Name]{
			TypeParams: n.typeParams,
			ArgName:    n.argName,
			ArgType:    n.argType,
			Body: Expr[Name]{
				freeVars:  e.freeVars + 1,
				freeTypes: e.freeTypes + len(n.typeParams),
				node:      n.body,
			},
		}

	case *appNode[Name]:
		return AppExpr[Name]{
			Callee:   Expr[Name]{freeVars: e.freeVars, freeTypes: e.freeTypes, node: n.callee},
			TypeArgs: n.typeArgs,
			Arg:      Expr[Name]{freeVars: e.freeVars, freeTypes: e.freeTypes, node: n.arg},
		}

	case *pairNode[Name]:
		return PairExpr[Name]{
			Left:  Expr[Name]{freeVars: e.freeVars, freeTypes: e.freeTypes, node: n.left},
			Right: Expr[Name]{freeVars: e.freeVars, freeTypes: e.freeTypes, node: n.right},
		}

	case *letNode[Name]:
		return LetExpr[Name]{
			Names: n.names,
			Val:   Expr[Name]{freeVars: e.freeVars, freeTypes: e.freeTypes, node: n.val},
			Body: Expr[Name]{
				freeVars:  e.freeVars + len(n.names),
				freeTypes: e.freeTypes,
				node:      n.body,
			},
		}

	case *letExistsNode[Name]:
		return LetExistsExpr[Name]{
			TypeNames: n.typeNames,
			ValName:   n.valName,
			Val:       Expr[Name]{freeVars: e.freeVars, freeTypes: e.freeTypes, node: n.val},
			Body: Expr[Name]{
				freeVars:  e.freeVars + 1,
				freeTypes: e.freeTypes + len(n.typeNames),
				node:      n.body,
			},
		}

	case *makeExistsNode[Name]:
		// The binder arity is absorbed entirely by typeBody, which
		// is carried opaquely; the body keeps the ambient counts.
		return MakeExistsExpr[Name]{
			Params:   n.params,
			TypeBody: n.typeBody,
			Body:     Expr[Name]{freeVars: e.freeVars, freeTypes: e.freeTypes, node: n.body},
		}

	case nil:
		panic("term: ToContent on zero Expr")

	default:
		panic("term: unknown node variant")
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
