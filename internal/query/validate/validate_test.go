package validate

import (
	"testing"

	"github.com/halsted/corpusql/internal/query/parser"
)

func TestValidateUnproducedVariableFails(t *testing.T) {
	q, err := parser.ParseString(`FROM c SELECT ?y WHERE CONTAINS("cat", ?x)`)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	res := Query(q)
	if len(res.Diagnostics) == 0 {
		t.Fatalf("expected a diagnostic for unproduced ?y")
	}
}

func TestValidateProducedVariablePasses(t *testing.T) {
	q, err := parser.ParseString(`FROM c SELECT ?x WHERE CONTAINS("cat", ?x)`)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	res := Query(q)
	if len(res.Diagnostics) != 0 {
		t.Fatalf("unexpected diagnostics: %+v", res.Diagnostics)
	}
}

func TestValidateUnknownSubqueryAliasFails(t *testing.T) {
	q, err := parser.ParseString(`FROM c SELECT other.?z WHERE CONTAINS("cat")`)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	res := Query(q)
	if len(res.Diagnostics) == 0 {
		t.Fatalf("expected a diagnostic for unknown alias 'other'")
	}
}

func TestValidateJoinRefMustBeProduced(t *testing.T) {
	query := `FROM main SELECT ?p WHERE NER(PERSON, ?p) ` +
		`JOIN (FROM sub WHERE CONTAINS("x")) AS q2 ` +
		`ON main.?p PROXIMITY q2.?d WINDOW 30`
	q, err := parser.ParseString(query)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	res := Query(q)
	if len(res.Diagnostics) == 0 {
		t.Fatalf("expected a diagnostic: q2 never produces ?d")
	}
}

func TestValidateJoinRefAgainstMainScopePasses(t *testing.T) {
	query := `FROM main SELECT ?p WHERE NER(PERSON, ?p) ` +
		`JOIN (FROM sub WHERE DATE(INTERSECT [2020-01-01, 2020-12-31], ?d)) AS q2 ` +
		`ON main.?p PROXIMITY q2.?d WINDOW 30`
	q, err := parser.ParseString(query)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	res := Query(q)
	if len(res.Diagnostics) != 0 {
		t.Fatalf("unexpected diagnostics for a join whose ON references both produced vars: %+v", res.Diagnostics)
	}
}

func TestValidateOrderByUnknownColumnFails(t *testing.T) {
	q, err := parser.ParseString(`FROM c SELECT ?x WHERE CONTAINS("cat", ?x) ORDER BY ?y`)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	res := Query(q)
	if len(res.Diagnostics) == 0 {
		t.Fatalf("expected a diagnostic for unknown ORDER BY column ?y")
	}
}
