package exec

import (
	"github.com/halsted/corpusql/internal/position"
	"github.com/halsted/corpusql/internal/query/ast"
)

// evalAnd implements the `AND` row: intersect match-sets, merging
// variable bindings by match key. At sentence granularity every
// operand's match must additionally share sentence_id, which falls
// out naturally since matches are already keyed by (document_id,
// sentence_id) at that granularity.
func evalAnd(c *Context, cond ast.AndCond) (*QueryResult, error) {
	if len(cond.Operands) == 0 {
		return &QueryResult{Granularity: c.Granularity}, nil
	}
	acc, err := Eval(c, cond.Operands[0])
	if err != nil {
		return nil, err
	}
	for _, operand := range cond.Operands[1:] {
		next, err := Eval(c, operand)
		if err != nil {
			return nil, err
		}
		acc = intersectResults(acc, next)
	}
	return acc, nil
}

func intersectResults(a, b *QueryResult) *QueryResult {
	bByKey := map[uint64]*Match{}
	for i := range b.Matches {
		bByKey[matchKey(b.Matches[i].DocumentID, b.Matches[i].SentenceID)] = &b.Matches[i]
	}
	out := &QueryResult{Granularity: a.Granularity}
	for _, am := range a.Matches {
		bm, ok := bByKey[matchKey(am.DocumentID, am.SentenceID)]
		if !ok {
			continue
		}
		merged := Match{DocumentID: am.DocumentID, SentenceID: am.SentenceID}
		merged.Details = append(merged.Details, am.Details...)
		merged.Details = append(merged.Details, bm.Details...)
		out.Matches = append(out.Matches, merged)
	}
	return out
}

// evalOr implements the `OR` row: union match-sets, preserving each
// branch's bindings under the winning match.
func evalOr(c *Context, cond ast.OrCond) (*QueryResult, error) {
	m := newMatchMap()
	var gran ast.Granularity = c.Granularity
	for _, operand := range cond.Operands {
		res, err := Eval(c, operand)
		if err != nil {
			return nil, err
		}
		gran = res.Granularity
		for _, match := range res.Matches {
			dst := m.getOrCreate(match.DocumentID, match.SentenceID)
			dst.Details = append(dst.Details, match.Details...)
		}
	}
	return m.result(gran), nil
}

// evalNot implements the `NOT(c)` row: complement the inner match-set
// against the source universe. At document granularity the universe is
// every document id the document store knows about. At sentence
// granularity the universe is every (document_id, sentence_id) the
// annotation store has observed — the Open Question this module
// resolved by scoping "observed" to the whole corpus, since a NOT
// condition has no surrounding conjunction context to narrow it
// further once evaluated in isolation (see DESIGN.md).
func evalNot(c *Context, cond ast.NotCond) (*QueryResult, error) {
	inner, err := Eval(c, cond.Inner)
	if err != nil {
		return nil, err
	}
	excluded := map[uint64]bool{}
	for _, match := range inner.Matches {
		excluded[matchKey(match.DocumentID, match.SentenceID)] = true
	}

	universe, err := universeMatches(c)
	if err != nil {
		return nil, err
	}
	out := &QueryResult{Granularity: c.Granularity}
	for _, u := range universe {
		if !excluded[matchKey(u.DocumentID, u.SentenceID)] {
			out.Matches = append(out.Matches, u)
		}
	}
	return out, nil
}

func universeMatches(c *Context) ([]Match, error) {
	if c.Docs == nil {
		return nil, nil
	}
	ids, err := c.Docs.ListIDs(c.Ctx)
	if err != nil {
		return nil, err
	}
	var out []Match
	if c.Granularity != ast.GranularitySentence || c.Ann == nil {
		for _, id := range ids {
			out = append(out, Match{DocumentID: id, SentenceID: position.DocumentSentinel})
		}
		return out, nil
	}
	for _, id := range ids {
		sentences, err := c.Ann.Sentences(c.Ctx, id)
		if err != nil {
			return nil, err
		}
		for _, s := range sentences {
			out = append(out, Match{DocumentID: id, SentenceID: s.SentenceID})
		}
	}
	return out, nil
}
