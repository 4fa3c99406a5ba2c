package temporal

import (
	"testing"
	"time"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestContainsContainedBySymmetry(t *testing.T) {
	a := Range{Start: day("2023-01-01"), End: day("2023-12-31")}
	b := Range{Start: day("2023-06-01"), End: day("2023-06-02")}

	if !Evaluate(a, b, Contains, 0) {
		t.Fatal("expected CONTAINS(a,b)")
	}
	if !Evaluate(b, a, ContainedBy, 0) {
		t.Fatal("expected CONTAINED_BY(b,a) to mirror CONTAINS(a,b)")
	}
}

func TestIntersectSymmetry(t *testing.T) {
	a := Range{Start: day("2023-01-01"), End: day("2023-06-30")}
	b := Range{Start: day("2023-06-01"), End: day("2023-12-31")}
	if Evaluate(a, b, Intersect, 0) != Evaluate(b, a, Intersect, 0) {
		t.Fatal("INTERSECT must be symmetric")
	}
}

func TestProximitySymmetry(t *testing.T) {
	a := Range{Start: day("2020-01-01"), End: day("2020-01-01")}
	b := Range{Start: day("2020-01-20"), End: day("2020-01-20")}
	if Evaluate(a, b, Proximity, 30) != Evaluate(b, a, Proximity, 30) {
		t.Fatal("PROXIMITY must be symmetric")
	}
	if !Evaluate(a, b, Proximity, 30) {
		t.Fatal("expected within-window proximity match")
	}
	if Evaluate(a, b, Proximity, 10) {
		t.Fatal("expected out-of-window proximity to fail")
	}
}

func TestIndexQueryIntersect(t *testing.T) {
	idx := NewIndex([]Entry{
		{DocumentID: 1, SentenceID: 0, Range: Range{Start: day("2023-01-15"), End: day("2023-01-15")}},
		{DocumentID: 2, SentenceID: 0, Range: Range{Start: day("2023-06-01"), End: day("2023-06-01")}},
		{DocumentID: 3, SentenceID: 0, Range: Range{Start: day("2024-02-20"), End: day("2024-02-20")}},
	})
	got := idx.Query(Range{Start: day("2023-05-01"), End: day("2023-12-31")}, Intersect, 0)
	if len(got) != 1 || got[0].DocumentID != 2 {
		t.Fatalf("expected single match for document 2, got %+v", got)
	}
}
