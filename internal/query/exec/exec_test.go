package exec

import (
	"testing"
	"time"

	"github.com/halsted/corpusql/internal/query/ast"
	"github.com/halsted/corpusql/internal/temporal"
)

func TestIntersectResultsKeepsOnlySharedMatches(t *testing.T) {
	a := &QueryResult{Granularity: ast.GranularityDocument, Matches: []Match{
		{DocumentID: 1, SentenceID: -1, Details: []MatchDetail{{VariableName: "x", Value: "a"}}},
		{DocumentID: 2, SentenceID: -1},
	}}
	b := &QueryResult{Granularity: ast.GranularityDocument, Matches: []Match{
		{DocumentID: 1, SentenceID: -1, Details: []MatchDetail{{VariableName: "y", Value: "b"}}},
		{DocumentID: 3, SentenceID: -1},
	}}
	out := intersectResults(a, b)
	if len(out.Matches) != 1 {
		t.Fatalf("want 1 surviving match, got %d", len(out.Matches))
	}
	if out.Matches[0].DocumentID != 1 {
		t.Fatalf("want document 1, got %d", out.Matches[0].DocumentID)
	}
	if len(out.Matches[0].Details) != 2 {
		t.Fatalf("want bindings merged from both sides, got %d details", len(out.Matches[0].Details))
	}
}

func TestDepPrefixAndMatch(t *testing.T) {
	cond := ast.DepCond{Head: "dog", Relation: "*", Dependent: "*"}
	prefix := depPrefix(cond)
	if string(prefix) != "dog" {
		t.Fatalf("want prefix %q, got %q", "dog", prefix)
	}
	key := []byte("dog\x00nsubj\x00bark")
	if !depKeyMatches(key, cond) {
		t.Fatalf("expected key to match wildcard dep condition")
	}
	mismatch := []byte("cat\x00nsubj\x00bark")
	if depKeyMatches(mismatch, cond) {
		t.Fatalf("expected mismatched head to fail")
	}
}

func TestFinerGranularity(t *testing.T) {
	if finerGranularity(ast.GranularityDocument, ast.GranularitySentence) != ast.GranularitySentence {
		t.Fatalf("sentence should be finer than document")
	}
	if finerGranularity(ast.GranularityDocument, ast.GranularityDocument) != ast.GranularityDocument {
		t.Fatalf("document+document should stay document")
	}
}

func TestExtractRefValuesAndProximityMatch(t *testing.T) {
	t1 := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	t2 := time.Date(2020, 1, 20, 0, 0, 0, 0, time.UTC)

	left := &QueryResult{Matches: []Match{
		{DocumentID: 1, SentenceID: -1, Details: []MatchDetail{{VariableName: "p", Timestamp: t1}}},
	}}
	right := &QueryResult{Matches: []Match{
		{DocumentID: 1, SentenceID: -1, Details: []MatchDetail{{VariableName: "d", Timestamp: t2}}},
	}}

	lvals := extractRefValues(left, "p")
	rvals := extractRefValues(right, "d")
	k := matchKey(1, -1)
	if !anyPredicateMatch(lvals[k], rvals[k], temporal.Proximity, 30) {
		t.Fatalf("expected a proximity match within 30 days")
	}
	if anyPredicateMatch(lvals[k], rvals[k], temporal.Proximity, 5) {
		t.Fatalf("expected no proximity match within 5 days")
	}
}

func TestApplyJoinLeftKeepsUnmatchedRows(t *testing.T) {
	left := &QueryResult{Matches: []Match{
		{DocumentID: 1, SentenceID: -1, Details: []MatchDetail{{VariableName: "p", Timestamp: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)}}},
		{DocumentID: 2, SentenceID: -1, Details: []MatchDetail{{VariableName: "p", Timestamp: time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)}}},
	}}
	right := &QueryResult{Matches: []Match{
		{DocumentID: 1, SentenceID: -1, Details: []MatchDetail{{VariableName: "d", Timestamp: time.Date(2020, 1, 10, 0, 0, 0, 0, time.UTC)}}},
	}}
	jc := &ast.JoinCond{
		Left:      ast.Ref{Alias: "main", Variable: "p"},
		Predicate: ast.PredProximity,
		Right:     ast.Ref{Alias: "q2", Variable: "d"},
		Window:    intPtr(30),
	}
	pairs := applyJoin(left, right, ast.JoinLeft, jc)
	if len(pairs) != 2 {
		t.Fatalf("want 2 pairs (1 matched + 1 unmatched left), got %d", len(pairs))
	}
	var sawUnmatched bool
	for _, pr := range pairs {
		if pr.HasLeft && !pr.HasRight {
			sawUnmatched = true
		}
	}
	if !sawUnmatched {
		t.Fatalf("expected an unmatched left row to survive a LEFT join")
	}
}

func intPtr(n int) *int { return &n }
