package pddl

import "testing"

func TestLexerBasicTokens(t *testing.T) {
	toks := NewLexer(`(on ?x a) ; a comment
  (not (clear ?y))`).Tokens()

	want := []TokenType{
		LPAREN, SYMBOL, VARIABLE, SYMBOL, RPAREN,
		LPAREN, SYMBOL, LPAREN, SYMBOL, VARIABLE, RPAREN, RPAREN,
		EOF,
	}
	if len(toks) != len(want) {
		t.Fatalf("got %d tokens, want %d: %+v", len(toks), len(want), toks)
	}
	for i, tt := range want {
		if toks[i].Type != tt {
			t.Errorf("token %d: got type %v, want %v (lexeme %q)", i, toks[i].Type, tt, toks[i].Lexeme)
		}
	}
	if toks[2].Lexeme != "x" {
		t.Errorf("variable lexeme = %q, want %q", toks[2].Lexeme, "x")
	}
}

func TestLexerPreservesCase(t *testing.T) {
	toks := NewLexer(`(On Block-A)`).Tokens()
	if toks[1].Lexeme != "On" {
		t.Errorf("predicate lexeme = %q, want %q", toks[1].Lexeme, "On")
	}
	if toks[2].Lexeme != "Block-A" {
		t.Errorf("constant lexeme = %q, want %q", toks[2].Lexeme, "Block-A")
	}
}

func TestLexerTracksPosition(t *testing.T) {
	toks := NewLexer("(a)\n(b)").Tokens()
	// second '(' is on line 2, column 1
	var second Token
	count := 0
	for _, tok := range toks {
		if tok.Type == LPAREN {
			count++
			if count == 2 {
				second = tok
			}
		}
	}
	if second.Pos.Line != 2 || second.Pos.Col != 1 {
		t.Errorf("second LPAREN pos = %+v, want {2 1}", second.Pos)
	}
}
