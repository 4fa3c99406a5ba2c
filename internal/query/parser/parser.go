// Package parser implements a recursive-descent parser for the corpus
// query language of spec.md §4.7.
package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/halsted/corpusql/internal/query/ast"
	"github.com/halsted/corpusql/internal/query/lexer"
	"github.com/halsted/corpusql/internal/query/token"
)

// QueryParseError is the error type spec.md §4.7/§7 requires: a
// message paired with the byte offset the parser had reached.
type QueryParseError struct {
	Message string
	Offset  int
}

func (e *QueryParseError) Error() string {
	return fmt.Sprintf("%s (offset %d)", e.Message, e.Offset)
}

// Parser consumes a lexer's token stream and produces a *ast.Query.
type Parser struct {
	l *lexer.Lexer

	curToken  token.Token
	peekToken token.Token
}

// New creates a Parser over l.
func New(l *lexer.Lexer) *Parser {
	p := &Parser{l: l}
	p.nextToken()
	p.nextToken()
	return p
}

// ParseString is a convenience entry point: lex and parse input in one
// call.
func ParseString(input string) (*ast.Query, error) {
	return New(lexer.New(input)).ParseQuery()
}

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.l.NextToken()
}

func (p *Parser) errorf(format string, args ...interface{}) error {
	return &QueryParseError{Message: fmt.Sprintf(format, args...), Offset: p.curToken.Offset}
}

func (p *Parser) expect(t token.Type) error {
	if p.curToken.Type != t {
		return p.errorf("expected %s, got %s %q", t, p.curToken.Type, p.curToken.Literal)
	}
	return nil
}

func (p *Parser) expectAndAdvance(t token.Type) error {
	if err := p.expect(t); err != nil {
		return err
	}
	p.nextToken()
	return nil
}

// ParseQuery parses one Query per spec.md §4.7's top-level grammar.
func (p *Parser) ParseQuery() (*ast.Query, error) {
	q, err := p.parseQueryBody()
	if err != nil {
		return nil, err
	}
	if p.curToken.Type != token.EOF {
		return nil, p.errorf("unexpected trailing token %s %q", p.curToken.Type, p.curToken.Literal)
	}
	return q, nil
}

func (p *Parser) parseQueryBody() (*ast.Query, error) {
	if err := p.expectAndAdvance(token.FROM); err != nil {
		return nil, err
	}
	if err := p.expect(token.IDENT); err != nil {
		return nil, err
	}
	q := &ast.Query{From: p.curToken.Literal}
	p.nextToken()

	if p.curToken.Type == token.AS {
		p.nextToken()
		if err := p.expect(token.IDENT); err != nil {
			return nil, err
		}
		q.FromAlias = p.curToken.Literal
		p.nextToken()
	}

	if p.curToken.Type == token.SELECT {
		p.nextToken()
		cols, err := p.parseSelectList()
		if err != nil {
			return nil, err
		}
		q.Select = cols
	}

	if p.curToken.Type == token.WHERE {
		p.nextToken()
		cond, err := p.parseOrCond()
		if err != nil {
			return nil, err
		}
		q.Where = cond
	}

	for p.curToken.Type == token.JOIN {
		j, err := p.parseJoin()
		if err != nil {
			return nil, err
		}
		q.Joins = append(q.Joins, j)
	}

	if p.curToken.Type == token.ORDER {
		p.nextToken()
		if err := p.expectAndAdvance(token.BY); err != nil {
			return nil, err
		}
		terms, err := p.parseOrderList()
		if err != nil {
			return nil, err
		}
		q.OrderBy = terms
	}

	if p.curToken.Type == token.LIMIT {
		p.nextToken()
		n, err := p.parseInt()
		if err != nil {
			return nil, err
		}
		q.Limit = &n
	}

	if p.curToken.Type == token.GRANULARITY {
		p.nextToken()
		switch p.curToken.Type {
		case token.DOCUMENT:
			q.Granularity = ast.GranularityDocument
		case token.SENTENCE:
			q.Granularity = ast.GranularitySentence
		default:
			return nil, p.errorf("expected DOCUMENT or SENTENCE, got %s", p.curToken.Type)
		}
		p.nextToken()
		if p.curToken.Type == token.INT {
			n, err := p.parseInt()
			if err != nil {
				return nil, err
			}
			q.Window = &n
		}
	}

	return q, nil
}

func (p *Parser) parseInt() (int, error) {
	if err := p.expect(token.INT); err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(p.curToken.Literal)
	if err != nil {
		return 0, p.errorf("invalid integer %q", p.curToken.Literal)
	}
	p.nextToken()
	return n, nil
}

func (p *Parser) parseString() (string, error) {
	if err := p.expect(token.STRING); err != nil {
		return "", err
	}
	s := p.curToken.Literal
	p.nextToken()
	return s, nil
}

func (p *Parser) parseVariable() (string, error) {
	if err := p.expect(token.VARIABLE); err != nil {
		return "", err
	}
	v := p.curToken.Literal
	p.nextToken()
	return v, nil
}

// parseSelectList parses `SelList := Col {"," Col}`.
func (p *Parser) parseSelectList() ([]ast.SelectColumn, error) {
	var cols []ast.SelectColumn
	for {
		col, err := p.parseSelectColumn()
		if err != nil {
			return nil, err
		}
		cols = append(cols, col)
		if p.curToken.Type != token.COMMA {
			break
		}
		p.nextToken()
	}
	return cols, nil
}

func (p *Parser) parseSelectColumn() (ast.SelectColumn, error) {
	switch p.curToken.Type {
	case token.VARIABLE:
		v, err := p.parseVariable()
		if err != nil {
			return ast.SelectColumn{}, err
		}
		return ast.SelectColumn{Kind: ast.SelectVariable, Variable: v}, nil

	case token.IDENT:
		alias := p.curToken.Literal
		p.nextToken()
		if err := p.expectAndAdvance(token.DOT); err != nil {
			return ast.SelectColumn{}, err
		}
		v, err := p.parseVariable()
		if err != nil {
			return ast.SelectColumn{}, err
		}
		return ast.SelectColumn{Kind: ast.SelectQualifiedVariable, Alias: alias, Variable: v}, nil

	case token.COUNT:
		p.nextToken()
		if err := p.expectAndAdvance(token.LPAREN); err != nil {
			return ast.SelectColumn{}, err
		}
		var col ast.SelectColumn
		switch p.curToken.Type {
		case token.STAR:
			p.nextToken()
			col = ast.SelectColumn{Kind: ast.SelectCountStar}
		case token.UNIQUE:
			p.nextToken()
			v, err := p.parseVariable()
			if err != nil {
				return ast.SelectColumn{}, err
			}
			col = ast.SelectColumn{Kind: ast.SelectCountUniqueVariable, Variable: v}
		case token.DOCUMENTS:
			p.nextToken()
			col = ast.SelectColumn{Kind: ast.SelectCountDocuments}
		default:
			return ast.SelectColumn{}, p.errorf("expected *, UNIQUE ?v, or DOCUMENTS inside COUNT(), got %s", p.curToken.Type)
		}
		if err := p.expectAndAdvance(token.RPAREN); err != nil {
			return ast.SelectColumn{}, err
		}
		return col, nil

	case token.SNIPPET:
		p.nextToken()
		if err := p.expectAndAdvance(token.LPAREN); err != nil {
			return ast.SelectColumn{}, err
		}
		v, err := p.parseVariable()
		if err != nil {
			return ast.SelectColumn{}, err
		}
		window := 5
		if p.curToken.Type == token.COMMA {
			p.nextToken()
			n, err := p.parseInt()
			if err != nil {
				return ast.SelectColumn{}, err
			}
			window = n
		}
		if err := p.expectAndAdvance(token.RPAREN); err != nil {
			return ast.SelectColumn{}, err
		}
		return ast.SelectColumn{Kind: ast.SelectSnippet, Variable: v, Window: window}, nil

	case token.TITLE:
		p.nextToken()
		return ast.SelectColumn{Kind: ast.SelectTitle}, nil

	case token.TIMESTAMP:
		p.nextToken()
		return ast.SelectColumn{Kind: ast.SelectTimestamp}, nil

	case token.METADATA:
		p.nextToken()
		field := ""
		if p.curToken.Type == token.LPAREN {
			p.nextToken()
			s, err := p.parseString()
			if err != nil {
				return ast.SelectColumn{}, err
			}
			field = s
			if err := p.expectAndAdvance(token.RPAREN); err != nil {
				return ast.SelectColumn{}, err
			}
		}
		return ast.SelectColumn{Kind: ast.SelectMetadata, Field: field}, nil

	default:
		return ast.SelectColumn{}, p.errorf("unexpected token %s %q in select list", p.curToken.Type, p.curToken.Literal)
	}
}

func (p *Parser) parseOrderList() ([]ast.OrderTerm, error) {
	var terms []ast.OrderTerm
	for {
		desc := false
		if p.curToken.Type == token.MINUS {
			desc = true
			p.nextToken()
		}
		var name string
		switch p.curToken.Type {
		case token.VARIABLE:
			v, err := p.parseVariable()
			if err != nil {
				return nil, err
			}
			name = "?" + v
		case token.IDENT:
			name = p.curToken.Literal
			p.nextToken()
		case token.TITLE, token.TIMESTAMP, token.COUNT:
			name = strings.ToLower(p.curToken.Literal)
			p.nextToken()
		default:
			return nil, p.errorf("expected order-by column, got %s", p.curToken.Type)
		}
		terms = append(terms, ast.OrderTerm{Column: name, Descending: desc})
		if p.curToken.Type != token.COMMA {
			break
		}
		p.nextToken()
	}
	return terms, nil
}
