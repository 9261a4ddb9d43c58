package codec

import (
	"fmt"

	"github.com/meridian-lang/meridian/internal/term"
	"github.com/meridian-lang/meridian/internal/types"
)

// Wire shape tags. These are format constants; changing one breaks
// every stored term.
const (
	shapeUnit       = "unit"
	shapeVar        = "var"
	shapeAbs        = "abs"
	shapeApp        = "app"
	shapePair       = "pair"
	shapeLet        = "let"
	shapeLetExists  = "let_exists"
	shapeMakeExists = "make_exists"

	shapeTypeUnit   = "unit"
	shapeTypeVar    = "var"
	shapeTypeFunc   = "func"
	shapeTypePair   = "pair"
	shapeTypeExists = "exists"
)

// wireTerm is the serialized form of one term node. Exactly the
// fields for its shape are populated; everything else stays at the
// zero value and is omitted from the encoding.
type wireTerm struct {
	Shape     string          `cbor:"shape" json:"shape"`
	FreeVars  int             `cbor:"free_vars,omitempty" json:"free_vars,omitempty"`
	FreeTypes int             `cbor:"free_types,omitempty" json:"free_types,omitempty"`
	Usage     string          `cbor:"usage,omitempty" json:"usage,omitempty"`
	Index     int             `cbor:"index,omitempty" json:"index,omitempty"`
	Params    []wireTypeParam `cbor:"params,omitempty" json:"params,omitempty"`
	ArgName   string          `cbor:"arg_name,omitempty" json:"arg_name,omitempty"`
	ArgType   *wireType       `cbor:"arg_type,omitempty" json:"arg_type,omitempty"`
	Callee    *wireTerm       `cbor:"callee,omitempty" json:"callee,omitempty"`
	TypeArgs  []wireType      `cbor:"type_args,omitempty" json:"type_args,omitempty"`
	Arg       *wireTerm       `cbor:"arg,omitempty" json:"arg,omitempty"`
	Left      *wireTerm       `cbor:"left,omitempty" json:"left,omitempty"`
	Right     *wireTerm       `cbor:"right,omitempty" json:"right,omitempty"`
	Names     []string        `cbor:"names,omitempty" json:"names,omitempty"`
	ValName   string          `cbor:"val_name,omitempty" json:"val_name,omitempty"`
	Val       *wireTerm       `cbor:"val,omitempty" json:"val,omitempty"`
	Body      *wireTerm       `cbor:"body,omitempty" json:"body,omitempty"`
	Exists    []wireExists    `cbor:"exists,omitempty" json:"exists,omitempty"`
	TypeBody  *wireType       `cbor:"type_body,omitempty" json:"type_body,omitempty"`
}

// wireType is the serialized form of one type node.
type wireType struct {
	Shape  string          `cbor:"shape" json:"shape"`
	Free   int             `cbor:"free,omitempty" json:"free,omitempty"`
	Index  int             `cbor:"index,omitempty" json:"index,omitempty"`
	Params []wireTypeParam `cbor:"params,omitempty" json:"params,omitempty"`
	Arg    *wireType       `cbor:"arg,omitempty" json:"arg,omitempty"`
	Result *wireType       `cbor:"result,omitempty" json:"result,omitempty"`
	Left   *wireType       `cbor:"left,omitempty" json:"left,omitempty"`
	Right  *wireType       `cbor:"right,omitempty" json:"right,omitempty"`
	Names  []string        `cbor:"names,omitempty" json:"names,omitempty"`
	Body   *wireType       `cbor:"body,omitempty" json:"body,omitempty"`
}

// wireTypeParam carries one type-parameter declaration.
type wireTypeParam struct {
	Name  string `cbor:"name" json:"name"`
	Bound string `cbor:"bound,omitempty" json:"bound,omitempty"`
}

// wireExists carries one existential instantiation: a hidden slot's
// name and the concrete type filling it.
type wireExists struct {
	Name string   `cbor:"name" json:"name"`
	Type wireType `cbor:"type" json:"type"`
}

// EncodeTerm serializes a term to canonical CBOR bytes.
func EncodeTerm(e term.Expr[string]) ([]byte, error) {
	data, err := encMode.Marshal(flattenTerm(e))
	if err != nil {
		return nil, fmt.Errorf("codec: encode term: %w", err)
	}

	return data, nil
}

// DecodeTerm deserializes canonical CBOR bytes into a term. The tree
// is rebuilt bottom-up through term.FromContent, so tampered counts
// surface as the same *term.ScopeError construction would raise.
func DecodeTerm(data []byte) (term.Expr[string], error) {
	var w wireTerm
	if err := decMode.Unmarshal(data, &w); err != nil {
		return term.Expr[string]{}, fmt.Errorf("codec: decode term: %w", err)
	}

	return buildTerm(&w)
}

// EncodeType serializes a type to canonical CBOR bytes.
func EncodeType(t types.Type[string]) ([]byte, error) {
	data, err := encMode.Marshal(flattenType(t))
	if err != nil {
		return nil, fmt.Errorf("codec: encode type: %w", err)
	}

	return data, nil
}

// DecodeType deserializes canonical CBOR bytes into a type,
// rebuilding through types.FromContent.
func DecodeType(data []byte) (types.Type[string], error) {
	var w wireType
	if err := decMode.Unmarshal(data, &w); err != nil {
		return types.Type[string]{}, fmt.Errorf("codec: decode type: %w", err)
	}

	return buildType(&w)
}

func flattenTerm(e term.Expr[string]) *wireTerm {
	switch c := e.ToContent().(type) {
	case term.UnitExpr[string]:
		return &wireTerm{Shape: shapeUnit, FreeVars: c.FreeVars, FreeTypes: c.FreeTypes}

	case term.VarExpr[string]:
		return &wireTerm{
			Shape:     shapeVar,
			FreeVars:  c.FreeVars,
			FreeTypes: c.FreeTypes,
			Usage:     c.Usage.String(),
			Index:     c.Index,
		}

	case term.AbsExpr[string]:
		return &wireTerm{
			Shape:   shapeAbs,
			Params:  flattenParams(c.TypeParams),
			ArgName: c.ArgName,
			ArgType: flattenType(c.ArgType),
			Body:    flattenTerm(c.Body),
		}

	case term.AppExpr[string]:
		args := make([]wireType, len(c.TypeArgs))
		for i, t := range c.TypeArgs {
			args[i] = *flattenType(t)
		}

		return &wireTerm{
			Shape:    shapeApp,
			Callee:   flattenTerm(c.Callee),
			TypeArgs: args,
			Arg:      flattenTerm(c.Arg),
		}

	case term.PairExpr[string]:
		return &wireTerm{
			Shape: shapePair,
			Left:  flattenTerm(c.Left),
			Right: flattenTerm(c.Right),
		}

	case term.LetExpr[string]:
		return &wireTerm{
			Shape: shapeLet,
			Names: c.Names,
			Val:   flattenTerm(c.Val),
			Body:  flattenTerm(c.Body),
		}

	case term.LetExistsExpr[string]:
		return &wireTerm{
			Shape:   shapeLetExists,
			Names:   c.TypeNames,
			ValName: c.ValName,
			Val:     flattenTerm(c.Val),
			Body:    flattenTerm(c.Body),
		}

	case term.MakeExistsExpr[string]:
		params := make([]wireExists, len(c.Params))
		for i, p := range c.Params {
			params[i] = wireExists{Name: p.Name, Type: *flattenType(p.Type)}
		}

		return &wireTerm{
			Shape:    shapeMakeExists,
			Exists:   params,
			TypeBody: flattenType(c.TypeBody),
			Body:     flattenTerm(c.Body),
		}

	default:
		panic(fmt.Sprintf("codec: unknown term content %T", c))
	}
}

func buildTerm(w *wireTerm) (term.Expr[string], error) {
	if w == nil {
		return term.Expr[string]{}, fmt.Errorf("codec: missing term node")
	}

	switch w.Shape {
	case shapeUnit:
		return term.FromContent[string](term.UnitExpr[string]{
			FreeVars:  w.FreeVars,
			FreeTypes: w.FreeTypes,
		})

	case shapeVar:
		usage, err := term.ParseVarUsage(w.Usage)
		if err != nil {
			return term.Expr[string]{}, fmt.Errorf("codec: %w", err)
		}

		return term.FromContent[string](term.VarExpr[string]{
			Usage:     usage,
			FreeVars:  w.FreeVars,
			FreeTypes: w.FreeTypes,
			Index:     w.Index,
		})

	case shapeAbs:
		params, err := buildParams(w.Params)
		if err != nil {
			return term.Expr[string]{}, err
		}

		argType, err := buildType(w.ArgType)
		if err != nil {
			return term.Expr[string]{}, err
		}

		body, err := buildTerm(w.Body)
		if err != nil {
			return term.Expr[string]{}, err
		}

		return term.FromContent[string](term.AbsExpr[string]{
			TypeParams: params,
			ArgName:    w.ArgName,
			ArgType:    argType,
			Body:       body,
		})

	case shapeApp:
		callee, err := buildTerm(w.Callee)
		if err != nil {
			return term.Expr[string]{}, err
		}

		args := make([]types.Type[string], len(w.TypeArgs))
		for i := range w.TypeArgs {
			if args[i], err = buildType(&w.TypeArgs[i]); err != nil {
				return term.Expr[string]{}, err
			}
		}

		arg, err := buildTerm(w.Arg)
		if err != nil {
			return term.Expr[string]{}, err
		}

		return term.FromContent[string](term.AppExpr[string]{
			Callee:   callee,
			TypeArgs: args,
			Arg:      arg,
		})

	case shapePair:
		left, err := buildTerm(w.Left)
		if err != nil {
			return term.Expr[string]{}, err
		}

		right, err := buildTerm(w.Right)
		if err != nil {
			return term.Expr[string]{}, err
		}

		return term.FromContent[string](term.PairExpr[string]{Left: left, Right: right})

	case shapeLet:
		val, err := buildTerm(w.Val)
		if err != nil {
			return term.Expr[string]{}, err
		}

		body, err := buildTerm(w.Body)
		if err != nil {
			return term.Expr[string]{}, err
		}

		return term.FromContent[string](term.LetExpr[string]{Names: w.Names, Val: val, Body: body})

	case shapeLetExists:
		val, err := buildTerm(w.Val)
		if err != nil {
			return term.Expr[string]{}, err
		}

		body, err := buildTerm(w.Body)
		if err != nil {
			return term.Expr[string]{}, err
		}

		return term.FromContent[string](term.LetExistsExpr[string]{
			TypeNames: w.Names,
			ValName:   w.ValName,
			Val:       val,
			Body:      body,
		})

	case shapeMakeExists:
		params := make([]term.ExistsParam[string], len(w.Exists))
		for i, p := range w.Exists {
			t, err := buildType(&p.Type)
			if err != nil {
				return term.Expr[string]{}, err
			}

			params[i] = term.ExistsParam[string]{Name: p.Name, Type: t}
		}

		typeBody, err := buildType(w.TypeBody)
		if err != nil {
			return term.Expr[string]{}, err
		}

		body, err := buildTerm(w.Body)
		if err != nil {
			return term.Expr[string]{}, err
		}

		return term.FromContent[string](term.MakeExistsExpr[string]{
			Params:   params,
			TypeBody: typeBody,
			Body:     body,
		})

	default:
		return term.Expr[string]{}, fmt.Errorf("codec: unknown term shape %q", w.Shape)
	}
}

func flattenType(t types.Type[string]) *wireType {
	switch c := t.ToContent().(type) {
	case types.UnitType[string]:
		return &wireType{Shape: shapeTypeUnit, Free: c.Free}

	case types.VarType[string]:
		return &wireType{Shape: shapeTypeVar, Free: c.Free, Index: c.Index}

	case types.FuncType[string]:
		return &wireType{
			Shape:  shapeTypeFunc,
			Params: flattenParams(c.TypeParams),
			Arg:    flattenType(c.Arg),
			Result: flattenType(c.Result),
		}

	case types.PairType[string]:
		return &wireType{
			Shape: shapeTypePair,
			Left:  flattenType(c.Left),
			Right: flattenType(c.Right),
		}

	case types.ExistsType[string]:
		return &wireType{
			Shape: shapeTypeExists,
			Names: c.Names,
			Body:  flattenType(c.Body),
		}

	default:
		panic(fmt.Sprintf("codec: unknown type content %T", c))
	}
}

func buildType(w *wireType) (types.Type[string], error) {
	if w == nil {
		return types.Type[string]{}, fmt.Errorf("codec: missing type node")
	}

	switch w.Shape {
	case shapeTypeUnit:
		return types.FromContent[string](types.UnitType[string]{Free: w.Free})

	case shapeTypeVar:
		return types.FromContent[string](types.VarType[string]{Free: w.Free, Index: w.Index})

	case shapeTypeFunc:
		params, err := buildParams(w.Params)
		if err != nil {
			return types.Type[string]{}, err
		}

		arg, err := buildType(w.Arg)
		if err != nil {
			return types.Type[string]{}, err
		}

		result, err := buildType(w.Result)
		if err != nil {
			return types.Type[string]{}, err
		}

		return types.FromContent[string](types.FuncType[string]{
			TypeParams: params,
			Arg:        arg,
			Result:     result,
		})

	case shapeTypePair:
		left, err := buildType(w.Left)
		if err != nil {
			return types.Type[string]{}, err
		}

		right, err := buildType(w.Right)
		if err != nil {
			return types.Type[string]{}, err
		}

		return types.FromContent[string](types.PairType[string]{Left: left, Right: right})

	case shapeTypeExists:
		body, err := buildType(w.Body)
		if err != nil {
			return types.Type[string]{}, err
		}

		return types.FromContent[string](types.ExistsType[string]{Names: w.Names, Body: body})

	default:
		return types.Type[string]{}, fmt.Errorf("codec: unknown type shape %q", w.Shape)
	}
}

func flattenParams(params []types.TypeParam[string]) []wireTypeParam {
	out := make([]wireTypeParam, len(params))
	for i, p := range params {
		out[i] = wireTypeParam{Name: p.Name, Bound: p.Bound.String()}
	}

	return out
}

func buildParams(params []wireTypeParam) ([]types.TypeParam[string], error) {
	out := make([]types.TypeParam[string], len(params))
	for i, p := range params {
		bound, err := types.ParseParamBound(p.Bound)
		if err != nil {
			return nil, fmt.Errorf("codec: %w", err)
		}

		out[i] = types.TypeParam[string]{Name: p.Name, Bound: bound}
	}

	return out, nil
}
