package term

import (
	"errors"
	"testing"

	"github.com/meridian-lang/meridian/internal/types"
)

func unitExpr(fv, ft int) Expr[string] {
	return MustFromContent[string](UnitExpr[string]{FreeVars: fv, FreeTypes: ft})
}

func varExpr(u VarUsage, fv, ft, index int) Expr[string] {
	return MustFromContent[string](VarExpr[string]{Usage: u, FreeVars: fv, FreeTypes: ft, Index: index})
}

func unitType(free int) types.Type[string] {
	return types.MustFromContent[string](types.UnitType[string]{Free: free})
}

func varType(free, index int) types.Type[string] {
	return types.MustFromContent[string](types.VarType[string]{Free: free, Index: index})
}

func wantKind(t *testing.T, err error, kind ScopeErrorKind) {
	t.Helper()

	if err == nil {
		t.Fatalf("expected %v, got nil error", kind)
	}

	var se *ScopeError
	if !errors.As(err, &se) {
		t.Fatalf("expected *ScopeError, got %T: %v", err, err)
	}

	if se.Kind != kind {
		t.Fatalf("expected kind %v, got %v (%v)", kind, se.Kind, se)
	}
}

func TestUnitRoundTrip(t *testing.T) {
	e, err := FromContent[string](UnitExpr[string]{FreeVars: 0, FreeTypes: 0})
	if err != nil {
		t.Fatalf("FromContent: %v", err)
	}

	if e.FreeVars() != 0 || e.FreeTypes() != 0 {
		t.Fatalf("counts = (%d, %d), want (0, 0)", e.FreeVars(), e.FreeTypes())
	}

	got, ok := e.ToContent().(UnitExpr[string])
	if !ok {
		t.Fatalf("ToContent: wrong variant %T", e.ToContent())
	}

	if got.FreeVars != 0 || got.FreeTypes != 0 {
		t.Fatalf("view = %+v, want zero counts", got)
	}
}

func TestVarChecks(t *testing.T) {
	e, err := FromContent[string](VarExpr[string]{Usage: UsageCopy, FreeVars: 3, FreeTypes: 1, Index: 2})
	if err != nil {
		t.Fatalf("FromContent: %v", err)
	}

	view := e.ToContent().(VarExpr[string])
	if view.Usage != UsageCopy || view.Index != 2 || view.FreeVars != 3 || view.FreeTypes != 1 {
		t.Fatalf("view = %+v", view)
	}

	_, err = FromContent[string](VarExpr[string]{FreeVars: 3, Index: 3})
	wantKind(t, err, ErrIndexOutOfRange)

	_, err = FromContent[string](VarExpr[string]{FreeVars: 0, Index: 0})
	wantKind(t, err, ErrIndexOutOfRange)

	_, err = FromContent[string](VarExpr[string]{FreeVars: 3, Index: -1})
	wantKind(t, err, ErrIndexOutOfRange)
}

func TestAbsArithmetic(t *testing.T) {
	// Body with two free term variables, no free type variables.
	body := MustFromContent[string](PairExpr[string]{
		Left:  varExpr(UsageMove, 2, 0, 0),
		Right: varExpr(UsageMove, 2, 0, 1),
	})

	e, err := FromContent[string](AbsExpr[string]{
		ArgName: "x",
		ArgType: unitType(0),
		Body:    body,
	})
	if err != nil {
		t.Fatalf("FromContent: %v", err)
	}

	if e.FreeVars() != 1 || e.FreeTypes() != 0 {
		t.Fatalf("counts = (%d, %d), want (1, 0)", e.FreeVars(), e.FreeTypes())
	}

	view := e.ToContent().(AbsExpr[string])
	if view.Body.FreeVars() != 2 || view.Body.FreeTypes() != 0 {
		t.Fatalf("body counts = (%d, %d), want (2, 0)", view.Body.FreeVars(), view.Body.FreeTypes())
	}
}

func TestAbsPolymorphic(t *testing.T) {
	// fn[A](x: A) => x. The argument type is checked in the inner
	// scope where A is in view.
	body := varExpr(UsageMove, 1, 1, 0)

	e, err := FromContent[string](AbsExpr[string]{
		TypeParams: []types.TypeParam[string]{{Name: "A"}},
		ArgName:    "x",
		ArgType:    varType(1, 0),
		Body:       body,
	})
	if err != nil {
		t.Fatalf("FromContent: %v", err)
	}

	if e.FreeVars() != 0 || e.FreeTypes() != 0 {
		t.Fatalf("counts = (%d, %d), want (0, 0)", e.FreeVars(), e.FreeTypes())
	}

	view := e.ToContent().(AbsExpr[string])
	if view.Body.FreeVars() != 1 || view.Body.FreeTypes() != 1 {
		t.Fatalf("body counts = (%d, %d), want (1, 1)", view.Body.FreeVars(), view.Body.FreeTypes())
	}
}

func TestAbsRejections(t *testing.T) {
	body := varExpr(UsageMove, 1, 0, 0)

	t.Run("arg type arity", func(t *testing.T) {
		_, err := FromContent[string](AbsExpr[string]{
			ArgName: "x",
			ArgType: varType(1, 0), // one free type variable, body has none
			Body:    body,
		})
		wantKind(t, err, ErrTypeArityMismatch)
	})

	t.Run("too many type params", func(t *testing.T) {
		_, err := FromContent[string](AbsExpr[string]{
			TypeParams: []types.TypeParam[string]{{Name: "A"}},
			ArgName:    "x",
			ArgType:    unitType(0),
			Body:       body,
		})
		wantKind(t, err, ErrBinderArityMismatch)
	})

	t.Run("no term variable to bind", func(t *testing.T) {
		_, err := FromContent[string](AbsExpr[string]{
			ArgName: "x",
			ArgType: unitType(0),
			Body:    unitExpr(0, 0),
		})
		wantKind(t, err, ErrBinderArityMismatch)
	})
}

func TestAppScopeCheck(t *testing.T) {
	callee := MustFromContent[string](AbsExpr[string]{
		ArgName: "x",
		ArgType: unitType(0),
		Body:    varExpr(UsageMove, 1, 0, 0),
	})

	e, err := FromContent[string](AppExpr[string]{Callee: callee, Arg: unitExpr(0, 0)})
	if err != nil {
		t.Fatalf("FromContent: %v", err)
	}

	if e.FreeVars() != 0 || e.FreeTypes() != 0 {
		t.Fatalf("counts = (%d, %d), want (0, 0)", e.FreeVars(), e.FreeTypes())
	}

	// Regression: callee and arg disagreeing on counts is rejected,
	// not silently resolved in arg's favor.
	t.Run("term count mismatch", func(t *testing.T) {
		_, err := FromContent[string](AppExpr[string]{
			Callee: varExpr(UsageMove, 1, 0, 0),
			Arg:    unitExpr(0, 0),
		})
		wantKind(t, err, ErrScopeMismatch)
	})

	t.Run("type count mismatch", func(t *testing.T) {
		_, err := FromContent[string](AppExpr[string]{
			Callee: unitExpr(0, 1),
			Arg:    unitExpr(0, 0),
		})
		wantKind(t, err, ErrScopeMismatch)
	})
}

func TestPairChecks(t *testing.T) {
	_, err := FromContent[string](PairExpr[string]{Left: unitExpr(1, 0), Right: unitExpr(0, 0)})
	wantKind(t, err, ErrScopeMismatch)

	_, err = FromContent[string](PairExpr[string]{Left: unitExpr(0, 0), Right: unitExpr(0, 2)})
	wantKind(t, err, ErrScopeMismatch)

	e := MustFromContent[string](PairExpr[string]{Left: unitExpr(2, 1), Right: unitExpr(2, 1)})
	if e.FreeVars() != 2 || e.FreeTypes() != 1 {
		t.Fatalf("counts = (%d, %d), want (2, 1)", e.FreeVars(), e.FreeTypes())
	}
}

func TestLetArithmetic(t *testing.T) {
	val := unitExpr(2, 0)

	e, err := FromContent[string](LetExpr[string]{
		Names: []string{"x", "y"},
		Val:   val,
		Body:  varExpr(UsageMove, 4, 0, 3),
	})
	if err != nil {
		t.Fatalf("FromContent: %v", err)
	}

	if e.FreeVars() != 2 {
		t.Fatalf("FreeVars = %d, want 2", e.FreeVars())
	}

	view := e.ToContent().(LetExpr[string])
	if view.Body.FreeVars() != 4 || view.Val.FreeVars() != 2 {
		t.Fatalf("body/val counts = %d/%d, want 4/2", view.Body.FreeVars(), view.Val.FreeVars())
	}

	t.Run("binder arity", func(t *testing.T) {
		_, err := FromContent[string](LetExpr[string]{
			Names: []string{"x", "y"},
			Val:   val,
			Body:  varExpr(UsageMove, 3, 0, 0),
		})
		wantKind(t, err, ErrBinderArityMismatch)
	})

	t.Run("empty names", func(t *testing.T) {
		_, err := FromContent[string](LetExpr[string]{Val: val, Body: varExpr(UsageMove, 2, 0, 0)})
		wantKind(t, err, ErrEmptyBinderList)
	})

	t.Run("type count mismatch", func(t *testing.T) {
		_, err := FromContent[string](LetExpr[string]{
			Names: []string{"x"},
			Val:   unitExpr(0, 1),
			Body:  varExpr(UsageMove, 1, 0, 0),
		})
		wantKind(t, err, ErrScopeMismatch)
	})
}

func TestLetExistsArithmetic(t *testing.T) {
	e, err := FromContent[string](LetExistsExpr[string]{
		TypeNames: []string{"a", "b"},
		ValName:   "x",
		Val:       unitExpr(0, 0),
		Body:      varExpr(UsageMove, 1, 2, 0),
	})
	if err != nil {
		t.Fatalf("FromContent: %v", err)
	}

	if e.FreeVars() != 0 || e.FreeTypes() != 0 {
		t.Fatalf("counts = (%d, %d), want (0, 0)", e.FreeVars(), e.FreeTypes())
	}

	view := e.ToContent().(LetExistsExpr[string])
	if view.Body.FreeVars() != 1 || view.Body.FreeTypes() != 2 {
		t.Fatalf("body counts = (%d, %d), want (1, 2)", view.Body.FreeVars(), view.Body.FreeTypes())
	}

	t.Run("empty type names", func(t *testing.T) {
		_, err := FromContent[string](LetExistsExpr[string]{
			ValName: "x",
			Val:     unitExpr(0, 0),
			Body:    varExpr(UsageMove, 1, 0, 0),
		})
		wantKind(t, err, ErrEmptyBinderList)
	})

	t.Run("type binder arity", func(t *testing.T) {
		_, err := FromContent[string](LetExistsExpr[string]{
			TypeNames: []string{"a", "b"},
			ValName:   "x",
			Val:       unitExpr(0, 0),
			Body:      varExpr(UsageMove, 1, 1, 0),
		})
		wantKind(t, err, ErrBinderArityMismatch)
	})

	t.Run("term binder arity", func(t *testing.T) {
		_, err := FromContent[string](LetExistsExpr[string]{
			TypeNames: []string{"a"},
			ValName:   "x",
			Val:       unitExpr(0, 0),
			Body:      unitExpr(2, 1),
		})
		wantKind(t, err, ErrBinderArityMismatch)
	})
}

func TestMakeExistsArithmetic(t *testing.T) {
	e, err := FromContent[string](MakeExistsExpr[string]{
		Params:   []ExistsParam[string]{{Name: "a", Type: unitType(0)}},
		TypeBody: varType(1, 0),
		Body:     unitExpr(0, 0),
	})
	if err != nil {
		t.Fatalf("FromContent: %v", err)
	}

	if e.FreeVars() != 0 || e.FreeTypes() != 0 {
		t.Fatalf("counts = (%d, %d), want (0, 0)", e.FreeVars(), e.FreeTypes())
	}

	t.Run("type body arity", func(t *testing.T) {
		_, err := FromContent[string](MakeExistsExpr[string]{
			Params:   []ExistsParam[string]{{Name: "a", Type: unitType(0)}},
			TypeBody: varType(2, 0),
			Body:     unitExpr(0, 0),
		})
		wantKind(t, err, ErrTypeArityMismatch)
	})

	t.Run("param type scope", func(t *testing.T) {
		_, err := FromContent[string](MakeExistsExpr[string]{
			Params:   []ExistsParam[string]{{Name: "a", Type: varType(1, 0)}},
			TypeBody: varType(1, 0),
			Body:     unitExpr(0, 0),
		})
		wantKind(t, err, ErrTypeArityMismatch)
	})

	t.Run("empty params", func(t *testing.T) {
		_, err := FromContent[string](MakeExistsExpr[string]{
			TypeBody: unitType(0),
			Body:     unitExpr(0, 0),
		})
		wantKind(t, err, ErrEmptyBinderList)
	})
}

// sampleExprs builds one closed expression per shape, nesting the
// earlier ones into the later.
func sampleExprs() map[string]Expr[string] {
	identity := MustFromContent[string](AbsExpr[string]{
		TypeParams: []types.TypeParam[string]{{Name: "A", Bound: types.BoundCopy}},
		ArgName:    "x",
		ArgType:    varType(1, 0),
		Body:       varExpr(UsageMove, 1, 1, 0),
	})

	applied := MustFromContent[string](AppExpr[string]{
		Callee:   identity,
		TypeArgs: []types.Type[string]{unitType(0)},
		Arg:      unitExpr(0, 0),
	})

	pair := MustFromContent[string](PairExpr[string]{Left: applied, Right: identity})

	let := MustFromContent[string](LetExpr[string]{
		Names: []string{"p"},
		Val:   pair,
		Body:  varExpr(UsageCopy, 1, 0, 0),
	})

	packed := MustFromContent[string](MakeExistsExpr[string]{
		Params:   []ExistsParam[string]{{Name: "rep", Type: unitType(0)}},
		TypeBody: varType(1, 0),
		Body:     let,
	})

	unpacked := MustFromContent[string](LetExistsExpr[string]{
		TypeNames: []string{"rep"},
		ValName:   "v",
		Val:       packed,
		Body:      varExpr(UsageMove, 1, 1, 0),
	})

	return map[string]Expr[string]{
		"unit":       unitExpr(0, 0),
		"abs":        identity,
		"app":        applied,
		"pair":       pair,
		"let":        let,
		"makeExists": packed,
		"letExists":  unpacked,
	}
}

func TestRoundTrip(t *testing.T) {
	for name, e := range sampleExprs() {
		t.Run(name, func(t *testing.T) {
			rebuilt, err := FromContent[string](e.ToContent())
			if err != nil {
				t.Fatalf("FromContent[string](ToContent): %v", err)
			}

			if !rebuilt.Equal(e) {
				t.Fatalf("round trip not structurally equal")
			}

			if rebuilt.FreeVars() != e.FreeVars() || rebuilt.FreeTypes() != e.FreeTypes() {
				t.Fatalf("round trip counts (%d, %d) != (%d, %d)",
					rebuilt.FreeVars(), rebuilt.FreeTypes(), e.FreeVars(), e.FreeTypes())
			}
		})
	}
}

func TestSharing(t *testing.T) {
	e := sampleExprs()["pair"]

	// Clone is a value copy sharing the underlying node.
	clone := e
	if clone.node != e.node {
		t.Fatal("clone does not share the underlying node")
	}

	// Separately built equal views yield structurally equal handles
	// over distinct allocations.
	a := MustFromContent[string](PairExpr[string]{Left: unitExpr(0, 0), Right: unitExpr(0, 0)})
	b := MustFromContent[string](PairExpr[string]{Left: unitExpr(0, 0), Right: unitExpr(0, 0)})

	if a.node == b.node {
		t.Fatal("separate builds unexpectedly share a node")
	}

	if !a.Equal(b) {
		t.Fatal("separately built identical views are not Equal")
	}
}

func TestEqualVersusAlpha(t *testing.T) {
	mk := func(argName string) Expr[string] {
		return MustFromContent[string](AbsExpr[string]{
			ArgName: argName,
			ArgType: unitType(0),
			Body:    varExpr(UsageMove, 1, 0, 0),
		})
	}

	x, y := mk("x"), mk("y")

	if x.Equal(y) {
		t.Fatal("Equal ignored binder names")
	}

	if !x.AlphaEqual(y) {
		t.Fatal("AlphaEqual distinguished binder names")
	}

	if !x.Equal(mk("x")) {
		t.Fatal("Equal rejected identical terms")
	}

	moved := MustFromContent[string](VarExpr[string]{Usage: UsageMove, FreeVars: 1, Index: 0})
	copied := MustFromContent[string](VarExpr[string]{Usage: UsageCopy, FreeVars: 1, Index: 0})

	if moved.AlphaEqual(copied) {
		t.Fatal("AlphaEqual ignored usage tags")
	}
}

func TestParseVarUsage(t *testing.T) {
	cases := []struct {
		in      string
		want    VarUsage
		wantErr bool
	}{
		{"move", UsageMove, false},
		{"copy", UsageCopy, false},
		{"", UsageMove, false},
		{"borrow", 0, true},
	}

	for _, tc := range cases {
		got, err := ParseVarUsage(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseVarUsage(%q): expected error", tc.in)
			}

			continue
		}

		if err != nil || got != tc.want {
			t.Errorf("ParseVarUsage(%q) = %v, %v; want %v", tc.in, got, err, tc.want)
		}
	}
}
