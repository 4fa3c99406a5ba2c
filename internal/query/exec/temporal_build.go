package exec

import (
	"context"
	"time"

	"github.com/halsted/corpusql/internal/docstore"
	"github.com/halsted/corpusql/internal/position"
	"github.com/halsted/corpusql/internal/temporal"
)

// BuildTemporalIndex builds the Nash temporal index (C6) over every
// document's own timestamp — spec.md §3: the per-position timestamp is
// "copied from the owning document; enables temporal filtering without
// a join" — not over entity-level ner_date mentions. A standalone
// `DATE` predicate therefore filters documents (or sentences) by their
// own publication timestamp, per spec.md §4.9's "positions whose
// timestamp satisfies pred" and §8 scenario 2. The ner_date index and
// its stitch-table entity dates record a different fact (the date an
// NER tagger normalized out of a token) and are not inputs to this
// index; they remain available for entity-scoped lookups (e.g.
// `NER(DATE, ?v)` via the stitch scan) independent of this one.
// Index-set callers pass this as the one-shot temporalInit closure for
// indexset.Open.
//
// ann may be nil, in which case every entry is document-level; a
// sentence-granularity DATE query then degenerates to one entry per
// document at the DocumentSentinel sentence id.
func BuildTemporalIndex(ctx context.Context, docs docstore.DocumentStore, ann docstore.AnnotationStore) (*temporal.Index, error) {
	ids, err := docs.ListIDs(ctx)
	if err != nil {
		return nil, err
	}

	var entries []temporal.Entry
	for _, id := range ids {
		doc, err := docs.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		rng := temporal.Range{Start: doc.Timestamp, End: doc.Timestamp}

		sentences, err := documentSentences(ctx, ann, id)
		if err != nil {
			return nil, err
		}
		if len(sentences) == 0 {
			entries = append(entries, documentEntry(id, position.DocumentSentinel, doc.Timestamp, rng))
			continue
		}
		for _, sentenceID := range sentences {
			entries = append(entries, documentEntry(id, sentenceID, doc.Timestamp, rng))
		}
	}
	return temporal.NewIndex(entries), nil
}

func documentSentences(ctx context.Context, ann docstore.AnnotationStore, id uint32) ([]int32, error) {
	if ann == nil {
		return nil, nil
	}
	sentences, err := ann.Sentences(ctx, id)
	if err != nil {
		return nil, err
	}
	ids := make([]int32, len(sentences))
	for i, s := range sentences {
		ids[i] = s.SentenceID
	}
	return ids, nil
}

func documentEntry(id uint32, sentenceID int32, ts time.Time, rng temporal.Range) temporal.Entry {
	return temporal.Entry{
		DocumentID: id,
		SentenceID: sentenceID,
		Range:      rng,
		Pos: position.Position{
			DocumentID: id,
			SentenceID: sentenceID,
			Timestamp:  ts,
		},
	}
}
