package lexer

import "testing"

func TestLexer_LangKeywordsAndFatArrow(t *testing.T) {
	source := "let fn enum match println =>"
	l := New(source, "test.src")

	expected := []TokenType{
		TokenLet,
		TokenFn,
		TokenEnum,
		TokenMatch,
		TokenPrintln,
		TokenFatArrow,
		TokenEOF,
	}

	for i, want := range expected {
		token, err := l.NextToken()
		if err != nil {
			t.Fatalf("token %d: unexpected error: %v", i, err)
		}
		if token.Type != want {
			t.Errorf("token %d: expected %v, got %v", i, want, token.Type)
		}
	}
}

func TestLexer_FatArrowDoesNotShadowAssignOrEqual(t *testing.T) {
	source := "= == =>"
	l := New(source, "test.src")

	expected := []TokenType{TokenAssign, TokenEqual, TokenFatArrow, TokenEOF}
	for i, want := range expected {
		token, err := l.NextToken()
		if err != nil {
			t.Fatalf("token %d: unexpected error: %v", i, err)
		}
		if token.Type != want {
			t.Errorf("token %d: expected %v, got %v", i, want, token.Type)
		}
	}
}

func TestTokenType_IsKeyword_CoversLangKeywords(t *testing.T) {
	for _, tt := range []TokenType{TokenLet, TokenFn, TokenEnum, TokenMatch, TokenPrintln} {
		if !tt.IsKeyword() {
			t.Errorf("%v: expected IsKeyword() to be true", tt)
		}
	}
}
