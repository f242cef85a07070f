package lexer

import (
	"testing"

	"github.com/aoki-yuta/javac8/internal/token"
)

func TestLexerBasicTokens(t *testing.T) {
	input := `+ - * / % = == != < <= > >= && || ! ( ) { } [ ] , . ; : ? -> :: @ ...`

	expected := []token.TokenType{
		token.PLUS, token.MINUS, token.STAR, token.SLASH, token.PERCENT,
		token.ASSIGN, token.EQ, token.NE,
		token.LT, token.LE, token.GT, token.GE,
		token.LOGICAL_AND, token.LOGICAL_OR, token.NOT,
		token.LPAREN, token.RPAREN, token.LBRACE, token.RBRACE,
		token.LBRACKET, token.RBRACKET,
		token.COMMA, token.DOT, token.SEMICOLON, token.COLON, token.QUESTION,
		token.ARROW, token.DOUBLE_COLON, token.AT, token.ELLIPSIS,
	}

	toks := New(input, "test.java").ScanTokens()
	if len(toks)-1 != len(expected) { // drop trailing EOF
		t.Fatalf("got %d tokens, want %d", len(toks)-1, len(expected))
	}
	for i, want := range expected {
		if toks[i].Type != want {
			t.Errorf("token %d: got %s, want %s", i, toks[i].Type, want)
		}
	}
}

func TestLexerKeywords(t *testing.T) {
	toks := New("class public static final void", "t.java").ScanTokens()
	want := []token.TokenType{token.CLASS, token.PUBLIC, token.STATIC, token.FINAL, token.VOID}
	for i, w := range want {
		if toks[i].Type != w {
			t.Errorf("token %d: got %s, want %s", i, toks[i].Type, w)
		}
	}
}

func TestLexerStringLiteral(t *testing.T) {
	toks := New(`"hello\nworld"`, "t.java").ScanTokens()
	if toks[0].Type != token.STRING_LIT {
		t.Fatalf("got %s", toks[0].Type)
	}
	if toks[0].Value.(string) != "hello\nworld" {
		t.Errorf("Value = %q", toks[0].Value)
	}
}

func TestLexerNumericLiterals(t *testing.T) {
	toks := New("42 42L 3.14 3.14f 3.14d", "t.java").ScanTokens()
	wantTypes := []token.TokenType{token.INT_LIT, token.LONG_LIT, token.DOUBLE_LIT, token.FLOAT_LIT, token.DOUBLE_LIT}
	for i, w := range wantTypes {
		if toks[i].Type != w {
			t.Errorf("token %d: got %s, want %s", i, toks[i].Type, w)
		}
	}
	if toks[0].Value.(int32) != 42 {
		t.Errorf("int value = %v", toks[0].Value)
	}
	if toks[1].Value.(int64) != 42 {
		t.Errorf("long value = %v", toks[1].Value)
	}
}

func TestLexerLineComment(t *testing.T) {
	toks := New("int x; // trailing comment\nint y;", "t.java").ScanTokens()
	var kinds []token.TokenType
	for _, tk := range toks {
		kinds = append(kinds, tk.Type)
	}
	if kinds[0] != token.INT || kinds[1] != token.IDENT {
		t.Errorf("unexpected leading tokens: %v", kinds[:2])
	}
}

func TestLexerCharLiteral(t *testing.T) {
	toks := New(`'a' '\n'`, "t.java").ScanTokens()
	if toks[0].Type != token.CHAR_LIT || toks[0].Value.(uint16) != 'a' {
		t.Errorf("token 0 = %+v", toks[0])
	}
	if toks[1].Type != token.CHAR_LIT || toks[1].Value.(uint16) != '\n' {
		t.Errorf("token 1 = %+v", toks[1])
	}
}
