package lexer

import (
	"testing"

	"github.com/halsted/corpusql/internal/query/token"
)

func TestNextTokenBasics(t *testing.T) {
	input := `FROM c SELECT ?x WHERE CONTAINS("cat", ?x) GRANULARITY SENTENCE LIMIT 10`
	want := []token.Type{
		token.FROM, token.IDENT, token.SELECT, token.VARIABLE, token.WHERE,
		token.CONTAINS, token.LPAREN, token.STRING, token.COMMA, token.VARIABLE, token.RPAREN,
		token.GRANULARITY, token.SENTENCE, token.LIMIT, token.INT, token.EOF,
	}
	l := New(input)
	for i, tt := range want {
		tok := l.NextToken()
		if tok.Type != tt {
			t.Fatalf("token %d: want %s got %s (%q)", i, tt, tok.Type, tok.Literal)
		}
	}
}

func TestNextTokenDateLiteral(t *testing.T) {
	l := New(`[2023-05-01, 2023-12-31T00:00:00]`)
	tok := l.NextToken()
	if tok.Type != token.LBRACKET {
		t.Fatalf("expected LBRACKET, got %s", tok.Type)
	}
	tok = l.NextToken()
	if tok.Type != token.DATE || tok.Literal != "2023-05-01" {
		t.Fatalf("expected DATE 2023-05-01, got %s %q", tok.Type, tok.Literal)
	}
	tok = l.NextToken()
	if tok.Type != token.COMMA {
		t.Fatalf("expected COMMA, got %s", tok.Type)
	}
	tok = l.NextToken()
	if tok.Type != token.DATE || tok.Literal != "2023-12-31T00:00:00" {
		t.Fatalf("expected DATE with time, got %s %q", tok.Type, tok.Literal)
	}
}

func TestNextTokenUnterminatedString(t *testing.T) {
	l := New(`"unterminated`)
	tok := l.NextToken()
	if tok.Type != token.ILLEGAL {
		t.Fatalf("expected ILLEGAL for unterminated string, got %s", tok.Type)
	}
}

func TestNextTokenEscapedQuote(t *testing.T) {
	l := New(`"say \"hi\""`)
	tok := l.NextToken()
	if tok.Type != token.STRING || tok.Literal != `say "hi"` {
		t.Fatalf("want STRING %q, got %s %q", `say "hi"`, tok.Type, tok.Literal)
	}
}
