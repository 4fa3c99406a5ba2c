// Package docstore defines the external collaborators spec.md §1 keeps
// out of the query core's scope — the document store, the annotation
// store, and the stopword set — plus a concrete Postgres-backed
// implementation of the first two, since the core still needs a real
// collaborator to dial for TITLE/TIMESTAMP/METADATA/SNIPPET columns
// and to feed the index generators.
package docstore

import (
	"context"

	"github.com/halsted/corpusql/pkg/models"
)

// DocumentStore is keyed by integer document id and returns
// (title, text, timestamp) plus arbitrary metadata fields, per
// spec.md §1.
type DocumentStore interface {
	Get(ctx context.Context, id uint32) (models.Document, error)
	Metadata(ctx context.Context, id uint32, field string) (string, bool, error)

	// ListIDs returns every document id, in ascending order, so the
	// index generators can walk the corpus in bounded batches
	// (spec.md §4.3, §5).
	ListIDs(ctx context.Context) ([]uint32, error)
}

// AnnotationStore is keyed by (document_id, sentence_id) and returns
// token records and dependency edges, per spec.md §1.
type AnnotationStore interface {
	SentenceTokens(ctx context.Context, documentID uint32, sentenceID int32) ([]models.TokenAnnotation, error)
	SentenceDependencies(ctx context.Context, documentID uint32, sentenceID int32) ([]models.DependencyEdge, error)
	Sentences(ctx context.Context, documentID uint32) ([]models.Sentence, error)
}

// StopwordSet reports whether a lowercased token is a stopword.
type StopwordSet interface {
	Contains(token string) bool
}

// MapStopwordSet is the simplest StopwordSet: an in-memory set.
type MapStopwordSet map[string]struct{}

// NewStopwordSet builds a MapStopwordSet from a word list.
func NewStopwordSet(words []string) MapStopwordSet {
	s := make(MapStopwordSet, len(words))
	for _, w := range words {
		s[w] = struct{}{}
	}
	return s
}

// Contains implements StopwordSet.
func (s MapStopwordSet) Contains(token string) bool {
	_, ok := s[token]
	return ok
}
