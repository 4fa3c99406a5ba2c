package parser

import (
	"strings"
	"time"

	"github.com/halsted/corpusql/internal/query/ast"
	"github.com/halsted/corpusql/internal/query/token"
)

// parseOrCond parses `OrCond := AndCond { "OR" AndCond }`.
func (p *Parser) parseOrCond() (ast.Condition, error) {
	first, err := p.parseAndCond()
	if err != nil {
		return nil, err
	}
	operands := []ast.Condition{first}
	for p.curToken.Type == token.OR {
		p.nextToken()
		next, err := p.parseAndCond()
		if err != nil {
			return nil, err
		}
		operands = append(operands, next)
	}
	if len(operands) == 1 {
		return operands[0], nil
	}
	return ast.OrCond{Operands: operands}, nil
}

// parseAndCond parses `AndCond := NotCond { "AND" NotCond }`.
func (p *Parser) parseAndCond() (ast.Condition, error) {
	first, err := p.parseNotCond()
	if err != nil {
		return nil, err
	}
	operands := []ast.Condition{first}
	for p.curToken.Type == token.AND {
		p.nextToken()
		next, err := p.parseNotCond()
		if err != nil {
			return nil, err
		}
		operands = append(operands, next)
	}
	if len(operands) == 1 {
		return operands[0], nil
	}
	return ast.AndCond{Operands: operands}, nil
}

// parseNotCond parses `NotCond := ["NOT"] Atom`.
func (p *Parser) parseNotCond() (ast.Condition, error) {
	if p.curToken.Type == token.NOT {
		p.nextToken()
		inner, err := p.parseAtom()
		if err != nil {
			return nil, err
		}
		return ast.NotCond{Inner: inner}, nil
	}
	return p.parseAtom()
}

// parseAtom parses one `Atom` production of spec.md §4.7.
func (p *Parser) parseAtom() (ast.Condition, error) {
	switch p.curToken.Type {
	case token.LPAREN:
		p.nextToken()
		cond, err := p.parseOrCond()
		if err != nil {
			return nil, err
		}
		if err := p.expectAndAdvance(token.RPAREN); err != nil {
			return nil, err
		}
		return cond, nil

	case token.CONTAINS:
		return p.parseContains()

	case token.NER:
		return p.parseNER()

	case token.POS:
		return p.parsePOS()

	case token.DEP:
		return p.parseDep()

	case token.HYPERNYM:
		return p.parseHypernym()

	case token.DATE_KW:
		return p.parseDate()

	default:
		return nil, p.errorf("unexpected token %s %q, expected a condition", p.curToken.Type, p.curToken.Literal)
	}
}

// parseContains parses `CONTAINS("s" {"," "s"} | "?" Ident "," String |
// String "," "?" Ident)`; the last two forms both bind ?v to one term.
func (p *Parser) parseContains() (ast.Condition, error) {
	p.nextToken()
	if err := p.expectAndAdvance(token.LPAREN); err != nil {
		return nil, err
	}

	if p.curToken.Type == token.VARIABLE {
		v, err := p.parseVariable()
		if err != nil {
			return nil, err
		}
		if err := p.expectAndAdvance(token.COMMA); err != nil {
			return nil, err
		}
		lit, err := p.parseString()
		if err != nil {
			return nil, err
		}
		if err := p.expectAndAdvance(token.RPAREN); err != nil {
			return nil, err
		}
		return ast.ContainsCond{Variable: v, Literal: lit}, nil
	}

	var terms []string
	for {
		s, err := p.parseString()
		if err != nil {
			return nil, err
		}
		terms = append(terms, s)
		if p.curToken.Type != token.COMMA {
			break
		}
		p.nextToken()
		if p.curToken.Type == token.VARIABLE && len(terms) == 1 {
			v, err := p.parseVariable()
			if err != nil {
				return nil, err
			}
			if err := p.expectAndAdvance(token.RPAREN); err != nil {
				return nil, err
			}
			return ast.ContainsCond{Variable: v, Literal: terms[0]}, nil
		}
	}
	if len(terms) > 3 {
		return nil, p.errorf("CONTAINS accepts at most 3 literal terms, got %d", len(terms))
	}
	if err := p.expectAndAdvance(token.RPAREN); err != nil {
		return nil, err
	}
	return ast.ContainsCond{Terms: terms}, nil
}

// parseNER parses `NER(NerType, ?Ident | String)`.
func (p *Parser) parseNER() (ast.Condition, error) {
	p.nextToken()
	if err := p.expectAndAdvance(token.LPAREN); err != nil {
		return nil, err
	}
	typ, err := p.parseTypeOrIdent()
	if err != nil {
		return nil, err
	}
	if err := p.expectAndAdvance(token.COMMA); err != nil {
		return nil, err
	}
	cond := ast.NERCond{EntityType: typ}
	if p.curToken.Type == token.VARIABLE {
		v, err := p.parseVariable()
		if err != nil {
			return nil, err
		}
		cond.Variable = v
	} else {
		lit, err := p.parseString()
		if err != nil {
			return nil, err
		}
		cond.Literal = lit
	}
	if err := p.expectAndAdvance(token.RPAREN); err != nil {
		return nil, err
	}
	return cond, nil
}

// parsePOS parses `POS(PosTag, ?Ident | String)`.
func (p *Parser) parsePOS() (ast.Condition, error) {
	p.nextToken()
	if err := p.expectAndAdvance(token.LPAREN); err != nil {
		return nil, err
	}
	tag, err := p.parseTypeOrIdent()
	if err != nil {
		return nil, err
	}
	if err := p.expectAndAdvance(token.COMMA); err != nil {
		return nil, err
	}
	cond := ast.POSCond{Tag: tag}
	if p.curToken.Type == token.VARIABLE {
		v, err := p.parseVariable()
		if err != nil {
			return nil, err
		}
		cond.Variable = v
	} else {
		lit, err := p.parseString()
		if err != nil {
			return nil, err
		}
		cond.Literal = lit
	}
	if err := p.expectAndAdvance(token.RPAREN); err != nil {
		return nil, err
	}
	return cond, nil
}

// parseTypeOrIdent accepts either a bare identifier (e.g. PERSON, NNP)
// or a quoted string for NerType/PosTag, since both read as identifiers
// in practice but the grammar leaves the lexical class unspecified.
func (p *Parser) parseTypeOrIdent() (string, error) {
	switch p.curToken.Type {
	case token.STRING:
		return p.parseString()
	default:
		if isWordLike(p.curToken.Type) {
			lit := p.curToken.Literal
			p.nextToken()
			return lit, nil
		}
		return "", p.errorf("expected a type/tag name, got %s %q", p.curToken.Type, p.curToken.Literal)
	}
}

func isWordLike(t token.Type) bool {
	return t == token.IDENT || t >= token.FROM
}

// parseDep parses `DEP(Str, Str, Str)`.
func (p *Parser) parseDep() (ast.Condition, error) {
	p.nextToken()
	if err := p.expectAndAdvance(token.LPAREN); err != nil {
		return nil, err
	}
	head, err := p.parseStr()
	if err != nil {
		return nil, err
	}
	if err := p.expectAndAdvance(token.COMMA); err != nil {
		return nil, err
	}
	rel, err := p.parseStr()
	if err != nil {
		return nil, err
	}
	if err := p.expectAndAdvance(token.COMMA); err != nil {
		return nil, err
	}
	dep, err := p.parseStr()
	if err != nil {
		return nil, err
	}
	if err := p.expectAndAdvance(token.RPAREN); err != nil {
		return nil, err
	}
	return ast.DepCond{Head: head, Relation: rel, Dependent: dep}, nil
}

// parseStr accepts a quoted string or a bare `*` wildcard token for
// DEP's prefix-scan wildcard fields.
func (p *Parser) parseStr() (string, error) {
	if p.curToken.Type == token.STAR {
		p.nextToken()
		return "*", nil
	}
	return p.parseString()
}

// parseHypernym parses `HYPERNYM(Str, Str)`.
func (p *Parser) parseHypernym() (ast.Condition, error) {
	p.nextToken()
	if err := p.expectAndAdvance(token.LPAREN); err != nil {
		return nil, err
	}
	cat, err := p.parseStr()
	if err != nil {
		return nil, err
	}
	if err := p.expectAndAdvance(token.COMMA); err != nil {
		return nil, err
	}
	inst, err := p.parseStr()
	if err != nil {
		return nil, err
	}
	if err := p.expectAndAdvance(token.RPAREN); err != nil {
		return nil, err
	}
	return ast.HypernymCond{Category: cat, Instance: inst}, nil
}

// parseDate parses `DATE(TempPred "[" DateRange "]" ["," "?" Ident] )`.
func (p *Parser) parseDate() (ast.Condition, error) {
	p.nextToken()
	if err := p.expectAndAdvance(token.LPAREN); err != nil {
		return nil, err
	}
	pred, err := p.parseTemporalPredicate()
	if err != nil {
		return nil, err
	}
	var window *int
	if pred == ast.PredProximity && p.curToken.Type == token.WINDOW {
		p.nextToken()
		n, err := p.parseInt()
		if err != nil {
			return nil, err
		}
		window = &n
	}
	if err := p.expectAndAdvance(token.LBRACKET); err != nil {
		return nil, err
	}
	rng, err := p.parseDateRange()
	if err != nil {
		return nil, err
	}
	if err := p.expectAndAdvance(token.RBRACKET); err != nil {
		return nil, err
	}
	cond := ast.DateCond{Predicate: pred, Range: rng, Window: window}
	if p.curToken.Type == token.COMMA {
		p.nextToken()
		v, err := p.parseVariable()
		if err != nil {
			return nil, err
		}
		cond.Variable = v
	}
	if err := p.expectAndAdvance(token.RPAREN); err != nil {
		return nil, err
	}
	return cond, nil
}

func (p *Parser) parseTemporalPredicate() (ast.TemporalPredicate, error) {
	switch p.curToken.Type {
	case token.CONTAINS:
		p.nextToken()
		return ast.PredContains, nil
	case token.CONTAINED_BY:
		p.nextToken()
		return ast.PredContainedBy, nil
	case token.INTERSECT:
		p.nextToken()
		return ast.PredIntersect, nil
	case token.PROXIMITY:
		p.nextToken()
		return ast.PredProximity, nil
	case token.BEFORE:
		p.nextToken()
		return p.parseEqualSuffix(ast.PredBefore, ast.PredBeforeEqual)
	case token.AFTER:
		p.nextToken()
		return p.parseEqualSuffix(ast.PredAfter, ast.PredAfterEqual)
	case token.EQUAL:
		p.nextToken()
		return ast.PredEqual, nil
	case token.IDENT:
		switch strings.ToUpper(p.curToken.Literal) {
		case "BEFORE_EQUAL":
			p.nextToken()
			return ast.PredBeforeEqual, nil
		case "AFTER_EQUAL":
			p.nextToken()
			return ast.PredAfterEqual, nil
		}
		return 0, p.errorf("expected a temporal predicate, got %s %q", p.curToken.Type, p.curToken.Literal)
	default:
		return 0, p.errorf("expected a temporal predicate, got %s %q", p.curToken.Type, p.curToken.Literal)
	}
}

// parseEqualSuffix handles the two-word spelling `BEFORE EQUAL` /
// `AFTER EQUAL`. The one-word BEFORE_EQUAL/AFTER_EQUAL lexes as a single
// identifier token, since `_` is an identifier character, and is matched
// in parseTemporalPredicate.
func (p *Parser) parseEqualSuffix(plain, withEqual ast.TemporalPredicate) (ast.TemporalPredicate, error) {
	if p.curToken.Type == token.EQUAL {
		p.nextToken()
		return withEqual, nil
	}
	return plain, nil
}

func (p *Parser) parseDateRange() (ast.DateRange, error) {
	start, err := p.parseDateLiteral()
	if err != nil {
		return ast.DateRange{}, err
	}
	if err := p.expectAndAdvance(token.COMMA); err != nil {
		return ast.DateRange{}, err
	}
	end, err := p.parseDateLiteral()
	if err != nil {
		return ast.DateRange{}, err
	}
	return ast.DateRange{Start: start, End: end}, nil
}

func (p *Parser) parseDateLiteral() (time.Time, error) {
	if err := p.expect(token.DATE); err != nil {
		return time.Time{}, err
	}
	lit := p.curToken.Literal
	var t time.Time
	var err error
	if len(lit) > len("2006-01-02") {
		t, err = time.Parse("2006-01-02T15:04:05", lit)
	} else {
		t, err = time.Parse("2006-01-02", lit)
	}
	if err != nil {
		return time.Time{}, p.errorf("invalid date literal %q", lit)
	}
	p.nextToken()
	return t, nil
}
