package parser

import (
	"testing"

	"github.com/halsted/corpusql/internal/query/ast"
)

func TestParseSimpleContainsQuery(t *testing.T) {
	q, err := ParseString(`FROM c SELECT ?x WHERE CONTAINS("cat", ?x) GRANULARITY SENTENCE`)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if q.From != "c" {
		t.Fatalf("want From=c, got %q", q.From)
	}
	if len(q.Select) != 1 || q.Select[0].Kind != ast.SelectVariable || q.Select[0].Variable != "x" {
		t.Fatalf("unexpected select list: %+v", q.Select)
	}
	cond, ok := q.Where.(ast.ContainsCond)
	if !ok {
		t.Fatalf("want ContainsCond, got %T", q.Where)
	}
	if cond.Variable != "x" || cond.Literal != "cat" {
		t.Fatalf("unexpected contains condition: %+v", cond)
	}
	if q.Granularity != ast.GranularitySentence {
		t.Fatalf("want sentence granularity, got %v", q.Granularity)
	}
}

func TestParseAndOrNotPrecedence(t *testing.T) {
	q, err := ParseString(`FROM c WHERE NER(PERSON, "Alice") AND POS(NN, "dog") OR NOT CONTAINS("fox")`)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	or, ok := q.Where.(ast.OrCond)
	if !ok {
		t.Fatalf("want top-level OrCond, got %T", q.Where)
	}
	if len(or.Operands) != 2 {
		t.Fatalf("want 2 OR operands, got %d", len(or.Operands))
	}
	and, ok := or.Operands[0].(ast.AndCond)
	if !ok || len(and.Operands) != 2 {
		t.Fatalf("want AndCond with 2 operands as first OR operand, got %#v", or.Operands[0])
	}
	if _, ok := or.Operands[1].(ast.NotCond); !ok {
		t.Fatalf("want NotCond as second OR operand, got %T", or.Operands[1])
	}
}

func TestParseDateCondition(t *testing.T) {
	q, err := ParseString(`FROM c WHERE DATE(INTERSECT [2023-05-01, 2023-12-31])`)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	cond, ok := q.Where.(ast.DateCond)
	if !ok {
		t.Fatalf("want DateCond, got %T", q.Where)
	}
	if cond.Predicate != ast.PredIntersect {
		t.Fatalf("want INTERSECT predicate, got %v", cond.Predicate)
	}
	if cond.Range.Start.Format("2006-01-02") != "2023-05-01" || cond.Range.End.Format("2006-01-02") != "2023-12-31" {
		t.Fatalf("unexpected date range: %+v", cond.Range)
	}
}

func TestParseCountAggregate(t *testing.T) {
	q, err := ParseString(`FROM c SELECT COUNT(*) WHERE CONTAINS("x")`)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if len(q.Select) != 1 || q.Select[0].Kind != ast.SelectCountStar {
		t.Fatalf("want COUNT(*), got %+v", q.Select)
	}
}

func TestParseJoinWithProximityWindow(t *testing.T) {
	query := `FROM main SELECT ?p WHERE NER(PERSON, ?p) ` +
		`JOIN (FROM sub WHERE DATE(INTERSECT [2020-01-01, 2020-12-31], ?d)) AS q2 ` +
		`ON main.?p PROXIMITY WINDOW 30 [2020-01-01, 2020-12-31] q2.?d`
	_, err := ParseString(query)
	if err == nil {
		t.Fatalf("expected a parse error for malformed join condition")
	}

	query2 := `FROM main SELECT ?p WHERE NER(PERSON, ?p) ` +
		`JOIN (FROM sub WHERE DATE(INTERSECT [2020-01-01, 2020-12-31], ?d)) AS q2 ` +
		`ON main.?p PROXIMITY q2.?d WINDOW 30`
	q, err := ParseString(query2)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if len(q.Joins) != 1 {
		t.Fatalf("expected one join, got %d", len(q.Joins))
	}
	j := q.Joins[0]
	if j.Alias != "q2" {
		t.Fatalf("want alias q2, got %q", j.Alias)
	}
	if j.On == nil || j.On.Predicate != ast.PredProximity || j.On.Window == nil || *j.On.Window != 30 {
		t.Fatalf("unexpected join condition: %+v", j.On)
	}
	if j.On.Left.Alias != "main" || j.On.Left.Variable != "p" || j.On.Right.Alias != "q2" || j.On.Right.Variable != "d" {
		t.Fatalf("unexpected join refs: %+v", j.On)
	}
}

func TestParseUnterminatedContainsReportsOffset(t *testing.T) {
	_, err := ParseString(`FROM c SELECT ?x WHERE CONTAINS(`)
	if err == nil {
		t.Fatalf("expected a parse error")
	}
	perr, ok := err.(*QueryParseError)
	if !ok {
		t.Fatalf("want *QueryParseError, got %T", err)
	}
	if perr.Offset == 0 {
		t.Fatalf("expected a non-zero offset for end-of-input failure")
	}
}

func TestParseOrderByDescendingAndLimit(t *testing.T) {
	q, err := ParseString(`FROM c SELECT ?x WHERE CONTAINS("x", ?x) ORDER BY -?x, TITLE LIMIT 5`)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if len(q.OrderBy) != 2 {
		t.Fatalf("want 2 order terms, got %d", len(q.OrderBy))
	}
	if !q.OrderBy[0].Descending || q.OrderBy[0].Column != "?x" {
		t.Fatalf("unexpected first order term: %+v", q.OrderBy[0])
	}
	if q.Limit == nil || *q.Limit != 5 {
		t.Fatalf("unexpected limit: %v", q.Limit)
	}
}

func TestParseDepWildcard(t *testing.T) {
	q, err := ParseString(`FROM c WHERE DEP(*, "nsubj", "dog")`)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	cond, ok := q.Where.(ast.DepCond)
	if !ok {
		t.Fatalf("want DepCond, got %T", q.Where)
	}
	if cond.Head != "*" || cond.Relation != "nsubj" || cond.Dependent != "dog" {
		t.Fatalf("unexpected dep condition: %+v", cond)
	}
}
