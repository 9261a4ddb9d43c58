package term

import (
	"fmt"

	"github.com/hashicorp/go-set/v3"
)

// visitKey identifies one verification obligation: a raw node together
// with the counts claimed for it. A shared subtree reappearing at the
// same scope is checked once; the same subtree reached with different
// claimed counts is a distinct obligation.
type visitKey[Name comparable] struct {
	node      exprNode[Name]
	freeVars  int
	freeTypes int
}

// verifier re-checks the scope invariants of an already-built tree.
// Construction through FromContent makes violations unreachable; the
// verifier exists for decoders, fuzz harnesses, and the CLI's check
// mode, where confirming the invariants is cheaper than trusting them.
type verifier[Name comparable] struct {
	visited *set.Set[visitKey[Name]]
}

// Verify walks an Expr top-down and re-validates every level: each
// node's one-level view must fold back through FromContent to the
// counts the handle claims. Shared subtrees are verified once per
// scope via a visited set. A nil result means every reachable variable
// index is in range and every binder's arithmetic is consistent.
func Verify[Name comparable](e Expr[Name]) error {
	v := &verifier[Name]{visited: set.New[visitKey[Name]](0)}

	return v.verify(e)
}

func (v *verifier[Name]) verify(e Expr[Name]) error {
	if e.node == nil {
		return fmt.Errorf("term: verify: zero Expr")
	}

	key := visitKey[Name]{node: e.node, freeVars: e.freeVars, freeTypes: e.freeTypes}
	if !v.visited.Insert(key) {
		return nil
	}

	content := e.ToContent()

	rebuilt, err := FromContent[Name](content)
	if err != nil {
		return fmt.Errorf("term: verify: %w", err)
	}

	if rebuilt.freeVars != e.freeVars || rebuilt.freeTypes != e.freeTypes {
		return fmt.Errorf("term: verify: cached counts (%d, %d) disagree with derived (%d, %d)",
			e.freeVars, e.freeTypes, rebuilt.freeVars, rebuilt.freeTypes)
	}

	for _, child := range children[Name](content) {
		if err := v.verify(child); err != nil {
			return err
		}
	}

	return nil
}

// children extracts the child handles a view exposes, in
// left-to-right order.
func children[Name comparable](content ExprContent[Name]) []Expr[Name] {
	switch c := content.(type) {
	case UnitExpr[Name], VarExpr[Name]:
		return nil
	case AbsExpr[Name]:
		return []Expr[Name]{c.Body}
	case AppExpr[Name]:
		return []Expr[Name]{c.Callee, c.Arg}
	case PairExpr[Name]:
		return []Expr[Name]{c.Left, c.Right}
	case LetExpr[Name]:
		return []Expr[Name]{c.Val, c.Body}
	case LetExistsExpr[Name]:
		return []Expr[Name]{c.Val, c.Body}
	case MakeExistsExpr[Name]:
		return []Expr[Name]{c.Body}
	default:
		return nil
	}
}
