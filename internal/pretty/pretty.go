// Package pretty renders Meridian terms and types for diagnostics.
// It consumes expressions exclusively through the one-level ToContent
// view, threading a context of in-scope binder names so de Bruijn
// occurrences print under their declared names. Colliding binder
// names are freshened by priming.
package pretty

import (
	"fmt"
	"slices"
	"strings"

	"github.com/samber/lo"

	"github.com/meridian-lang/meridian/internal/term"
	"github.com/meridian-lang/meridian/internal/types"
)

// Printer renders terms and types. The zero Printer renders
// occurrences under their binder names; DeBruijn switches to raw
// index form, where every occurrence prints as #index.
type Printer struct {
	DeBruijn bool
}

// Term renders a term expression.
func (p *Printer) Term(e term.Expr[string]) string {
	return p.renderTerm(e, nil, nil)
}

// TypeString renders a type expression.
func (p *Printer) TypeString(t types.Type[string]) string {
	return p.renderType(t, nil)
}

// pickFresh appends a name to the context, priming it until it is
// unique among the names already in scope.
func pickFresh(ctx []string, name string) ([]string, string) {
	if name == "" {
		name = "_"
	}

	for slices.Contains(ctx, name) {
		name += "'"
	}

	return append(ctx, name), name
}

// occurrence renders a variable occurrence: the binder's name when
// the index is bound in ctx, #index for free slots. Indices count
// binders innermost-first; ctx grows outermost-first.
func (p *Printer) occurrence(ctx []string, index int) string {
	if !p.DeBruijn && index < len(ctx) {
		return ctx[len(ctx)-1-index]
	}

	return fmt.Sprintf("#%d", index)
}

func (p *Printer) renderTerm(e term.Expr[string], varCtx, typeCtx []string) string {
	switch c := e.ToContent().(type) {
	case term.UnitExpr[string]:
		return "()"

	case term.VarExpr[string]:
		occ := p.occurrence(varCtx, c.Index)
		if c.Usage == term.UsageCopy {
			return "!" + occ
		}

		return occ

	case term.AbsExpr[string]:
		innerTypes := typeCtx

		var params string
		if len(c.TypeParams) > 0 {
			rendered := lo.Map(c.TypeParams, func(tp types.TypeParam[string], _ int) string {
				var name string
				innerTypes, name = pickFresh(innerTypes, tp.Name)
				if tp.Bound == types.BoundCopy {
					return name + ": copy"
				}

				return name
			})
			params = "[" + strings.Join(rendered, ", ") + "]"
		}

		innerVars, arg := pickFresh(varCtx, c.ArgName)

		return "fn" + params + "(" + arg + ": " + p.renderType(c.ArgType, innerTypes) + ") => " +
			p.renderTerm(c.Body, innerVars, innerTypes)

	case term.AppExpr[string]:
		callee := p.renderTerm(c.Callee, varCtx, typeCtx)
		if _, isVar := c.Callee.ToContent().(term.VarExpr[string]); !isVar {
			callee = "(" + callee + ")"
		}

		var args string
		if len(c.TypeArgs) > 0 {
			rendered := lo.Map(c.TypeArgs, func(t types.Type[string], _ int) string {
				return p.renderType(t, typeCtx)
			})
			args = "[" + strings.Join(rendered, ", ") + "]"
		}

		return callee + args + "(" + p.renderTerm(c.Arg, varCtx, typeCtx) + ")"

	case term.PairExpr[string]:
		return "(" + p.renderTerm(c.Left, varCtx, typeCtx) + ", " +
			p.renderTerm(c.Right, varCtx, typeCtx) + ")"

	case term.LetExpr[string]:
		inner := varCtx
		names := lo.Map(c.Names, func(n string, _ int) string {
			var fresh string
			inner, fresh = pickFresh(inner, n)

			return fresh
		})

		return "let " + strings.Join(names, ", ") + " = " +
			p.renderTerm(c.Val, varCtx, typeCtx) + " in " +
			p.renderTerm(c.Body, inner, typeCtx)

	case term.LetExistsExpr[string]:
		innerTypes := typeCtx
		typeNames := lo.Map(c.TypeNames, func(n string, _ int) string {
			var fresh string
			innerTypes, fresh = pickFresh(innerTypes, n)

			return fresh
		})

		innerVars, valName := pickFresh(varCtx, c.ValName)

		return "let <" + strings.Join(typeNames, ", ") + "; " + valName + "> = " +
			p.renderTerm(c.Val, varCtx, typeCtx) + " in " +
			p.renderTerm(c.Body, innerVars, innerTypes)

	case term.MakeExistsExpr[string]:
		params := lo.Map(c.Params, func(ep term.ExistsParam[string], _ int) string {
			return ep.Name + " := " + p.renderType(ep.Type, typeCtx)
		})

		// The type body lives in the extended scope that has the
		// hidden names in view.
		innerTypes := typeCtx
		for _, ep := range c.Params {
			innerTypes, _ = pickFresh(innerTypes, ep.Name)
		}

		return "pack <" + strings.Join(params, ", ") + "> " +
			p.renderTerm(c.Body, varCtx, typeCtx) + " as " +
			p.renderType(c.TypeBody, innerTypes)

	default:
		return fmt.Sprintf("<unknown %T>", c)
	}
}

func (p *Printer) renderType(t types.Type[string], ctx []string) string {
	switch c := t.ToContent().(type) {
	case types.UnitType[string]:
		return "Unit"

	case types.VarType[string]:
		return p.occurrence(ctx, c.Index)

	case types.FuncType[string]:
		inner := ctx

		var params string
		if len(c.TypeParams) > 0 {
			rendered := lo.Map(c.TypeParams, func(tp types.TypeParam[string], _ int) string {
				var name string
				inner, name = pickFresh(inner, tp.Name)
				if tp.Bound == types.BoundCopy {
					return name + ": copy"
				}

				return name
			})
			params = "[" + strings.Join(rendered, ", ") + "]"
		}

		return "fn" + params + "(" + p.renderType(c.Arg, inner) + ") -> " +
			p.renderType(c.Result, inner)

	case types.PairType[string]:
		return "(" + p.renderType(c.Left, ctx) + ", " + p.renderType(c.Right, ctx) + ")"

	case types.ExistsType[string]:
		inner := ctx
		names := lo.Map(c.Names, func(n string, _ int) string {
			var fresh string
			inner, fresh = pickFresh(inner, n)

			return fresh
		})

		return "exists " + strings.Join(names, ", ") + ". " + p.renderType(c.Body, inner)

	default:
		return fmt.Sprintf("<unknown %T>", c)
	}
}
