package position

import (
	"testing"
	"time"
)

func sampleList() *List {
	ts := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)
	return NewList(
		Position{DocumentID: 2, SentenceID: 0, BeginChar: 4, EndChar: 7, Timestamp: ts},
		Position{DocumentID: 1, SentenceID: -1, BeginChar: 0, EndChar: 3, Timestamp: ts},
		Position{DocumentID: 1, SentenceID: 0, BeginChar: 0, EndChar: 3, Timestamp: ts, Stitch: true, AnnotationType: 2, SynonymID: 42},
	)
}

func TestSerializeDeserializeRoundTrip(t *testing.T) {
	want := sampleList()
	got, err := Deserialize(Serialize(want))
	if err != nil {
		t.Fatalf("Deserialize: %v", err)
	}
	if got.Len() != want.Len() {
		t.Fatalf("length mismatch: got %d, want %d", got.Len(), want.Len())
	}
	for i, p := range got.All() {
		if !p.Equal(want.All()[i]) {
			t.Errorf("record %d mismatch: got %+v, want %+v", i, p, want.All()[i])
		}
	}
}

func TestListIsSortedByDocSentenceBegin(t *testing.T) {
	l := sampleList()
	all := l.All()
	for i := 1; i < len(all); i++ {
		if all[i].Less(all[i-1]) {
			t.Fatalf("list not sorted at index %d: %+v before %+v", i, all[i-1], all[i])
		}
	}
}

func TestAddIsIdempotent(t *testing.T) {
	l := sampleList()
	before := l.Len()
	for _, p := range l.All() {
		l.Add(p)
	}
	if l.Len() != before {
		t.Fatalf("re-adding existing positions changed length: %d -> %d", before, l.Len())
	}
}

func TestMergeCommutativeAndIdempotent(t *testing.T) {
	ts := time.Now().UTC().Truncate(time.Second)
	a := NewList(Position{DocumentID: 1, SentenceID: 0, BeginChar: 0, EndChar: 1, Timestamp: ts})
	b := NewList(Position{DocumentID: 1, SentenceID: 0, BeginChar: 2, EndChar: 3, Timestamp: ts})

	ab := Merge(a, b)
	ba := Merge(b, a)
	if ab.Len() != ba.Len() {
		t.Fatalf("merge not commutative by length: %d vs %d", ab.Len(), ba.Len())
	}
	for i, p := range ab.All() {
		if !p.Equal(ba.All()[i]) {
			t.Fatalf("merge(a,b) != merge(b,a) at %d", i)
		}
	}

	aa := Merge(a, a)
	if aa.Len() != a.Len() {
		t.Fatalf("merge(a,a) not idempotent: got %d, want %d", aa.Len(), a.Len())
	}
}

func TestDeserializeTruncatedErrors(t *testing.T) {
	full := Serialize(sampleList())
	if _, err := Deserialize(full[:5]); err == nil {
		t.Fatal("expected error on truncated input")
	}
}
