package parser

import (
	"github.com/halsted/corpusql/internal/query/ast"
	"github.com/halsted/corpusql/internal/query/token"
)

// parseJoin parses one `"JOIN" "(" Query ")" "AS" Ident ["(" ColList
// ")"] [ "ON" JoinCond ]` clause.
func (p *Parser) parseJoin() (*ast.Join, error) {
	p.nextToken() // consume JOIN
	if err := p.expectAndAdvance(token.LPAREN); err != nil {
		return nil, err
	}
	sub, err := p.parseQueryBody()
	if err != nil {
		return nil, err
	}
	if err := p.expectAndAdvance(token.RPAREN); err != nil {
		return nil, err
	}
	if err := p.expectAndAdvance(token.AS); err != nil {
		return nil, err
	}
	if err := p.expect(token.IDENT); err != nil {
		return nil, err
	}
	j := &ast.Join{Sub: sub, Alias: p.curToken.Literal}
	p.nextToken()

	if p.curToken.Type == token.LPAREN {
		p.nextToken()
		for {
			if err := p.expect(token.IDENT); err != nil {
				return nil, err
			}
			j.Columns = append(j.Columns, p.curToken.Literal)
			p.nextToken()
			if p.curToken.Type != token.COMMA {
				break
			}
			p.nextToken()
		}
		if err := p.expectAndAdvance(token.RPAREN); err != nil {
			return nil, err
		}
	}

	switch p.curToken.Type {
	case token.LEFT:
		j.Type = ast.JoinLeft
		p.nextToken()
	case token.RIGHT:
		j.Type = ast.JoinRight
		p.nextToken()
	case token.INNER:
		j.Type = ast.JoinInner
		p.nextToken()
	}

	if p.curToken.Type == token.ON {
		p.nextToken()
		on, err := p.parseJoinCond()
		if err != nil {
			return nil, err
		}
		j.On = on
	}

	return j, nil
}

// parseJoinCond parses `Ref TempPred Ref [ "WINDOW" Int ]`.
func (p *Parser) parseJoinCond() (*ast.JoinCond, error) {
	left, err := p.parseRef()
	if err != nil {
		return nil, err
	}
	pred, err := p.parseTemporalPredicate()
	if err != nil {
		return nil, err
	}
	right, err := p.parseRef()
	if err != nil {
		return nil, err
	}
	cond := &ast.JoinCond{Left: left, Predicate: pred, Right: right}
	if p.curToken.Type == token.WINDOW {
		p.nextToken()
		n, err := p.parseInt()
		if err != nil {
			return nil, err
		}
		cond.Window = &n
	}
	return cond, nil
}

// parseRef parses `Ident "." "?" Ident`.
func (p *Parser) parseRef() (ast.Ref, error) {
	if err := p.expect(token.IDENT); err != nil {
		return ast.Ref{}, err
	}
	alias := p.curToken.Literal
	p.nextToken()
	if err := p.expectAndAdvance(token.DOT); err != nil {
		return ast.Ref{}, err
	}
	v, err := p.parseVariable()
	if err != nil {
		return ast.Ref{}, err
	}
	return ast.Ref{Alias: alias, Variable: v}, nil
}
