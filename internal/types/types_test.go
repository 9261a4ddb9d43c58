package types

import (
	"errors"
	"testing"
)

func unit(free int) Type[string] {
	return MustFromContent[string](UnitType[string]{Free: free})
}

func tvar(free, index int) Type[string] {
	return MustFromContent[string](VarType[string]{Free: free, Index: index})
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

func TestVarBounds(t *testing.T) {
	v := tvar(2, 1)
	if v.Free() != 2 {
		t.Fatalf("Free = %d, want 2", v.Free())
	}

	_, err := FromContent[string](VarType[string]{Free: 2, Index: 2})
	wantKind(t, err, ErrIndexOutOfRange)

	_, err = FromContent[string](VarType[string]{Free: 0, Index: 0})
	wantKind(t, err, ErrIndexOutOfRange)
}

func TestFuncArithmetic(t *testing.T) {
	// [A](A) -> A
	f, err := FromContent[string](FuncType[string]{
		TypeParams: []TypeParam[string]{{Name: "A"}},
		Arg:        tvar(1, 0),
		Result:     tvar(1, 0),
	})
	if err != nil {
		t.Fatalf("FromContent: %v", err)
	}

	if f.Free() != 0 {
		t.Fatalf("Free = %d, want 0", f.Free())
	}

	view := f.ToContent().(FuncType[string])
	if view.Arg.Free() != 1 || view.Result.Free() != 1 {
		t.Fatalf("child frees = %d/%d, want 1/1", view.Arg.Free(), view.Result.Free())
	}

	t.Run("scope mismatch", func(t *testing.T) {
		_, err := FromContent[string](FuncType[string]{Arg: unit(1), Result: unit(0)})
		wantKind(t, err, ErrScopeMismatch)
	})

	t.Run("too many params", func(t *testing.T) {
		_, err := FromContent[string](FuncType[string]{
			TypeParams: []TypeParam[string]{{Name: "A"}, {Name: "B"}},
			Arg:        tvar(1, 0),
			Result:     tvar(1, 0),
		})
		wantKind(t, err, ErrBinderArityMismatch)
	})
}

func TestPairChecks(t *testing.T) {
	p := MustFromContent[string](PairType[string]{Left: unit(1), Right: tvar(1, 0)})
	if p.Free() != 1 {
		t.Fatalf("Free = %d, want 1", p.Free())
	}

	_, err := FromContent[string](PairType[string]{Left: unit(1), Right: unit(2)})
	wantKind(t, err, ErrScopeMismatch)
}

func TestExistsArithmetic(t *testing.T) {
	e, err := FromContent[string](ExistsType[string]{Names: []string{"a"}, Body: tvar(1, 0)})
	if err != nil {
		t.Fatalf("FromContent: %v", err)
	}

	if e.Free() != 0 {
		t.Fatalf("Free = %d, want 0", e.Free())
	}

	view := e.ToContent().(ExistsType[string])
	if view.Body.Free() != 1 {
		t.Fatalf("body free = %d, want 1", view.Body.Free())
	}

	t.Run("empty names", func(t *testing.T) {
		_, err := FromContent[string](ExistsType[string]{Body: tvar(1, 0)})
		wantKind(t, err, ErrEmptyBinderList)
	})

	t.Run("arity exceeds body", func(t *testing.T) {
		_, err := FromContent[string](ExistsType[string]{Names: []string{"a", "b"}, Body: tvar(1, 0)})
		wantKind(t, err, ErrBinderArityMismatch)
	})
}

func sampleTypes() map[string]Type[string] {
	poly := MustFromContent[string](FuncType[string]{
		TypeParams: []TypeParam[string]{{Name: "A", Bound: BoundCopy}},
		Arg:        tvar(1, 0),
		Result:     tvar(1, 0),
	})

	pair := MustFromContent[string](PairType[string]{Left: poly, Right: unit(0)})

	exists := MustFromContent[string](ExistsType[string]{
		Names: []string{"rep"},
		Body:  MustFromContent[string](PairType[string]{Left: tvar(1, 0), Right: unit(1)}),
	})

	return map[string]Type[string]{
		"unit":   unit(0),
		"func":   poly,
		"pair":   pair,
		"exists": exists,
	}
}

func TestRoundTrip(t *testing.T) {
	for name, ty := range sampleTypes() {
		t.Run(name, func(t *testing.T) {
			rebuilt, err := FromContent[string](ty.ToContent())
			if err != nil {
				t.Fatalf("FromContent(ToContent): %v", err)
			}

			if !rebuilt.Equal(ty) {
				t.Fatal("round trip not structurally equal")
			}
		})
	}
}

func TestEqualVersusAlpha(t *testing.T) {
	mk := func(name string) Type[string] {
		return MustFromContent[string](ExistsType[string]{Names: []string{name}, Body: tvar(1, 0)})
	}

	a, b := mk("a"), mk("b")

	if a.Equal(b) {
		t.Fatal("Equal ignored hidden type names")
	}

	if !a.AlphaEqual(b) {
		t.Fatal("AlphaEqual distinguished hidden type names")
	}

	// Constraint tags are compared even under AlphaEqual.
	bounded := MustFromContent[string](FuncType[string]{
		TypeParams: []TypeParam[string]{{Name: "A", Bound: BoundCopy}},
		Arg:        tvar(1, 0),
		Result:     tvar(1, 0),
	})
	unbounded := MustFromContent[string](FuncType[string]{
		TypeParams: []TypeParam[string]{{Name: "A", Bound: BoundNone}},
		Arg:        tvar(1, 0),
		Result:     tvar(1, 0),
	})

	if bounded.AlphaEqual(unbounded) {
		t.Fatal("AlphaEqual ignored parameter bounds")
	}
}

func TestParseParamBound(t *testing.T) {
	cases := []struct {
		in      string
		want    ParamBound
		wantErr bool
	}{
		{"none", BoundNone, false},
		{"", BoundNone, false},
		{"copy", BoundCopy, false},
		{"linear", 0, true},
	}

	for _, tc := range cases {
		got, err := ParseParamBound(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseParamBound(%q): expected error", tc.in)
			}

			continue
		}

		if err != nil || got != tc.want {
			t.Errorf("ParseParamBound(%q) = %v, %v; want %v", tc.in, got, err, tc.want)
		}
	}
}
