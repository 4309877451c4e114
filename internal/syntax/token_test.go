package syntax

import "testing"

func TestTokenString(t *testing.T) {
	tests := []struct {
		tok  Token
		want string
	}{
		{_EOF, "EOF"},
		{_Error, "ERROR"},
		{_Name, "NAME"},
		{_Literal, "LITERAL"},
		{_Assign, "="},
		{_Add, "+"},
		{_Sub, "-"},
		{_Mul, "*"},
		{_Div, "/"},
		{_Lparen, "("},
		{_Rparen, ")"},
		{_Comma, ","},
		{_Colon, ":"},
		{_DotDot, ".."},
		{tokenCount + 3, "token(17)"},
	}
	for _, tt := range tests {
		if got := tt.tok.String(); got != tt.want {
			t.Errorf("Token(%d).String() = %q, want %q", tt.tok, got, tt.want)
		}
	}
}

func TestTokenPrecedence(t *testing.T) {
	tests := []struct {
		tok  Token
		want int
	}{
		{_Add, 1},
		{_Sub, 1},
		{_Mul, 2},
		{_Div, 2},
		{_Assign, 0},
		{_Colon, 0},
		{_Name, 0},
	}
	for _, tt := range tests {
		if got := tt.tok.Precedence(); got != tt.want {
			t.Errorf("%s.Precedence() = %d, want %d", tt.tok, got, tt.want)
		}
		if got := tt.tok.IsOperator(); got != (tt.want > 0) {
			t.Errorf("%s.IsOperator() = %v", tt.tok, got)
		}
	}
}

func TestLitKindString(t *testing.T) {
	tests := []struct {
		kind LitKind
		want string
	}{
		{IntLit, "int"},
		{RealLit, "real"},
		{StringLit, "string"},
		{LogicalLit, "logical"},
		{LitKind(9), "LitKind(9)"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("LitKind(%d).String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}
