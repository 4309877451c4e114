package program

import (
	"strings"
	"testing"

	"github.com/you-not-fish/ftypeinfo/internal/semantics"
	"github.com/you-not-fish/ftypeinfo/internal/source"
)

// testEnv returns an env over module m holding the integer constant
// n = 3, the variable v and the types plain and p(k, l), with k a kind
// parameter defaulting to 4.
func testEnv(t *testing.T) *env {
	t.Helper()
	ctx := semantics.NewContext(nil)
	m, err := ctx.NewModule(source.NoPos, "m")
	check(t, err)
	intT := semantics.IntrinsicType(semantics.Integer, semantics.Int(4))
	_, err = semantics.NewObject(m, source.NoPos, "n", intT, semantics.ArraySpec{}, semantics.MakeAttrs(semantics.Parameter), semantics.Int(3))
	check(t, err)
	_, err = semantics.NewObject(m, source.NoPos, "v", intT, semantics.ArraySpec{}, 0, nil)
	check(t, err)
	plain, err := semantics.NewDerivedType(m, source.NoPos, "plain", 0)
	check(t, err)
	_, err = semantics.AddComponent(plain, source.NoPos, "i", intT, semantics.ArraySpec{}, 0, nil)
	check(t, err)
	p, err := semantics.NewDerivedType(m, source.NoPos, "p", 0)
	check(t, err)
	_, err = semantics.AddTypeParam(p, source.NoPos, "k", semantics.KindParam, 4, semantics.Int(4))
	check(t, err)
	_, err = semantics.AddTypeParam(p, source.NoPos, "l", semantics.LenParam, 4, nil)
	check(t, err)
	return &env{ctx: ctx, scope: m}
}

func check(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatal(err)
	}
}

func TestConvertType(t *testing.T) {
	tests := []struct {
		src, want string
	}{
		{"integer", "integer(kind=4)"},
		{"integer(8)", "integer(kind=8)"},
		{"integer(kind=n+5)", "integer(kind=8)"},
		{"real", "real(kind=4)"},
		{"double precision", "real(kind=8)"},
		{"complex(8)", "complex(kind=8)"},
		{"logical(1)", "logical(kind=1)"},
		{"character", "character(len=1,kind=1)"},
		{"character(10)", "character(len=10,kind=1)"},
		{"character(n*2)", "character(len=6,kind=1)"},
		{"character(len=*)", "character(len=*,kind=1)"},
		{"character(:, 4)", "character(len=:,kind=4)"},
		{"character(kind=4, len=2)", "character(len=2,kind=4)"},
		{"type(plain)", "type(plain)"},
		{"class(plain)", "class(plain)"},
		{"type(*)", "type(*)"},
		{"class(*)", "class(*)"},
		{"type(p(8, 3))", "type(p(k=8,l=3))"},
		{"type(p(l=:))", "type(p(k=4,l=:))"},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			e := testEnv(t)
			got, _, err := e.parseType(tt.src)
			if err != nil {
				t.Fatal(err)
			}
			if got.String() != tt.want {
				t.Errorf("parseType(%q) = %s, want %s", tt.src, got, tt.want)
			}
		})
	}
}

func TestConvertTypeInstances(t *testing.T) {
	e := testEnv(t)
	a, _, err := e.parseType("type(p(k=2*4, l=3))")
	check(t, err)
	b, _, err := e.parseType("type(p(8, l=n))")
	check(t, err)
	if a.Derived.Scope() == nil || a.Derived.Scope() != b.Derived.Scope() {
		t.Errorf("equal parameters give scopes %p and %p", a.Derived.Scope(), b.Derived.Scope())
	}
	if !a.Derived.Scope().IsParameterizedInstance() {
		t.Errorf("scope of %s is not an instantiation", a)
	}
}

func TestConvertTypeErrors(t *testing.T) {
	tests := []struct {
		src, want string
	}{
		{"integer(", "expected operand"},
		{"widget", "unknown type widget"},
		{"integer(len=3)", "integer has no type parameter len"},
		{"integer(4, 8)", "too many selectors"},
		{"integer(*)", "kind of integer must be an expression"},
		{"character(len=1, 2)", "misplaced character selector"},
		{"character(len=1, len=2)", "character len given twice"},
		{"character(width=1)", "character has no type parameter width"},
		{"type(nosuch)", "undefined type nosuch"},
		{"type(v)", "v is not a derived type"},
		{"type(p(1, 2, 3))", "too many type parameters for p"},
		{"type(p(q=1))", "p has no type parameter q"},
		{"type(p(k=1, 2))", "positional type parameter after keyword"},
		{"type(p(8, k=4))", "type parameter k of p given twice"},
		{"integer(w)", "undefined name w"},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			e := testEnv(t)
			_, _, err := e.parseType(tt.src)
			if err == nil {
				t.Fatalf("parseType(%q) succeeded", tt.src)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
			if !strings.HasPrefix(err.Error(), "type ") {
				t.Errorf("error %q lacks the notation", err)
			}
		})
	}
}

func TestConvertShape(t *testing.T) {
	tests := []struct {
		src, want string
		rank      int
	}{
		{"", "", 0},
		{"(10)", "(10)", 1},
		{"(0:n)", "(0:3)", 1},
		{"(-1:1, 2)", "(-1:1,2)", 2},
		{"(:)", "(:)", 1},
		{"(:, :)", "(:,:)", 2},
		{"(*)", "(1:*)", 1},
		{"(3:*)", "(3:*)", 1},
		{"(..)", "(..)", 0},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			e := testEnv(t)
			got, err := e.parseShape(tt.src)
			if err != nil {
				t.Fatal(err)
			}
			if got.Rank() != tt.rank {
				t.Errorf("rank = %d, want %d", got.Rank(), tt.rank)
			}
			if s := got.String(); tt.want != "" && s != tt.want {
				t.Errorf("parseShape(%q) = %s, want %s", tt.src, s, tt.want)
			}
		})
	}
}

func TestConvertShapeErrors(t *testing.T) {
	for _, src := range []string{"10", "(", "(1:w)", "(,)"} {
		e := testEnv(t)
		if _, err := e.parseShape(src); err == nil || !strings.HasPrefix(err.Error(), "shape ") {
			t.Errorf("parseShape(%q) = %v, want a shape error", src, err)
		}
	}
}

func TestConvertExpr(t *testing.T) {
	tests := []struct {
		src, want string
	}{
		{"", "<nil>"},
		{"42", "42"},
		{"7_8", "7_8"},
		{"1_n", "1_3"},
		{"n", "n"},
		{"-n", "(-n)"},
		{"(n)", "n"},
		{"1.5", "1.5"},
		{"2.5d0", "2.5_8"},
		{".true.", ".true."},
		{"'it''s'", "'it''s'"},
		{"null()", "NULL()"},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			e := testEnv(t)
			got, err := e.parseExpr(tt.src)
			if err != nil {
				t.Fatal(err)
			}
			s := "<nil>"
			if got != nil {
				s = got.String()
			}
			if s != tt.want {
				t.Errorf("parseExpr(%q) = %s, want %s", tt.src, s, tt.want)
			}
		})
	}
}

func TestConvertExprFolds(t *testing.T) {
	tests := []struct {
		src  string
		want int64
	}{
		{"n*2+1", 7},
		{"(n+1)*2", 8},
		{"-n", -3},
		{"10/n", 3},
	}
	for _, tt := range tests {
		e := testEnv(t)
		x, err := e.parseExpr(tt.src)
		check(t, err)
		if v, ok := semantics.ToInt64(x); !ok || v != tt.want {
			t.Errorf("%s = %d, %v, want %d", tt.src, v, ok, tt.want)
		}
	}
}

func TestConvertParamRef(t *testing.T) {
	e := testEnv(t)
	e.typ = e.scope.Lookup("p")
	x, err := e.parseExpr("k*2")
	check(t, err)
	refs := semantics.ParamRefs(x)
	if len(refs) != 1 || refs[0] != "k" {
		t.Errorf("ParamRefs(%s) = %v, want [k]", x, refs)
	}
	typ, _, err := e.parseType("real(k)")
	check(t, err)
	if _, ok := typ.Intrinsic.KindValue(); ok {
		t.Errorf("kind of %s folded inside the type", typ)
	}
}

func TestConvertExprErrors(t *testing.T) {
	tests := []struct {
		src, want string
	}{
		{"w", "undefined name w"},
		{"f(1)", "unsupported function reference f(1)"},
		{"1_w", "undefined kind w"},
		{"1_v", "kind v is not a constant"},
		{"99999999999999999999", "out of range"},
		{"1 +", "expected operand"},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			e := testEnv(t)
			_, err := e.parseExpr(tt.src)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("parseExpr(%q) = %v, want error mentioning %q", tt.src, err, tt.want)
			}
		})
	}
}

func TestConstKind(t *testing.T) {
	e := testEnv(t)
	for _, tt := range []struct {
		src  string
		want int
		ok   bool
	}{
		{"integer", 4, true},
		{"integer(8)", 8, true},
		{"integer(kind=n-1)", 2, true},
		{"real", 0, false},
	} {
		typ, _, err := e.parseType(tt.src)
		check(t, err)
		k, err := constKind(typ)
		if (err == nil) != tt.ok || k != tt.want {
			t.Errorf("constKind(%s) = %d, %v", tt.src, k, err)
		}
	}
}
