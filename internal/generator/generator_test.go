package generator

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/halsted/corpusql/internal/docstore"
	"github.com/halsted/corpusql/internal/indexset"
	"github.com/halsted/corpusql/internal/position"
	"github.com/halsted/corpusql/pkg/models"
)

func init() {
	zerolog.SetGlobalLevel(zerolog.Disabled)
}

// memAnnotationStore and memDocumentStore are hand-rolled in-memory
// fakes for docstore.AnnotationStore/DocumentStore, following the
// teacher's preference for small struct fakes over a mocking library.
type memDocumentStore struct {
	docs map[uint32]models.Document
	ids  []uint32
}

func (m *memDocumentStore) Get(ctx context.Context, id uint32) (models.Document, error) {
	d, ok := m.docs[id]
	if !ok {
		return models.Document{}, os.ErrNotExist
	}
	return d, nil
}

func (m *memDocumentStore) Metadata(ctx context.Context, id uint32, field string) (string, bool, error) {
	return "", false, nil
}

func (m *memDocumentStore) ListIDs(ctx context.Context) ([]uint32, error) {
	return m.ids, nil
}

type memAnnotationStore struct {
	sentences map[uint32][]models.Sentence
	tokens    map[string][]models.TokenAnnotation
	deps      map[string][]models.DependencyEdge
}

func sentKey(docID uint32, sentenceID int32) string {
	return string(rune(docID)) + "\x00" + string(rune(sentenceID))
}

func (m *memAnnotationStore) Sentences(ctx context.Context, documentID uint32) ([]models.Sentence, error) {
	return m.sentences[documentID], nil
}

func (m *memAnnotationStore) SentenceTokens(ctx context.Context, documentID uint32, sentenceID int32) ([]models.TokenAnnotation, error) {
	return m.tokens[sentKey(documentID, sentenceID)], nil
}

func (m *memAnnotationStore) SentenceDependencies(ctx context.Context, documentID uint32, sentenceID int32) ([]models.DependencyEdge, error) {
	return m.deps[sentKey(documentID, sentenceID)], nil
}

var _ docstore.AnnotationStore = (*memAnnotationStore)(nil)
var _ docstore.DocumentStore = (*memDocumentStore)(nil)

func tok(token, lemma, pos, ner, normNER string, begin, end uint32) models.TokenAnnotation {
	return models.TokenAnnotation{
		BeginChar: begin, EndChar: end,
		Token: token, Lemma: lemma, POS: pos, NER: ner, NormalizedNER: normNER,
	}
}

func TestProcessSentenceUnigramBigramTrigram(t *testing.T) {
	acc := newAccumulator()
	cfg := Config{Stopwords: docstore.NewStopwordSet([]string{"the"})}
	doc := models.Document{ID: 1, Timestamp: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)}

	tokens := []models.TokenAnnotation{
		tok("The", "the", "DT", "O", "", 0, 3),
		tok("quick", "quick", "JJ", "O", "", 4, 9),
		tok("fox", "fox", "NN", "O", "", 10, 13),
	}
	processSentence(acc, cfg, doc, 0, tokens, nil)

	snap := acc.snapshot(indexset.Unigram)
	if _, ok := snap[string(UnigramKey("the"))]; ok {
		t.Fatalf("stopword %q should not be indexed as unigram", "the")
	}
	if _, ok := snap[string(UnigramKey("quick"))]; !ok {
		t.Fatalf("expected unigram entry for %q", "quick")
	}

	bigrams := acc.snapshot(indexset.Bigram)
	if _, ok := bigrams[string(BigramKey("quick", "fox"))]; !ok {
		t.Fatalf("expected bigram quick-fox")
	}
	if _, ok := bigrams[string(BigramKey("the", "quick"))]; ok {
		t.Fatalf("bigram spanning a stopword should be dropped")
	}

	trigrams := acc.snapshot(indexset.Trigram)
	if _, ok := trigrams[string(TrigramKey("the", "quick", "fox"))]; ok {
		t.Fatalf("trigram spanning a stopword should be dropped")
	}
}

func TestProcessSentencePOSAndStitch(t *testing.T) {
	acc := newAccumulator()
	cfg := Config{}
	doc := models.Document{ID: 1, Timestamp: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)}

	tokens := []models.TokenAnnotation{
		tok("Paris", "Paris", "NNP", "LOCATION", "", 0, 5),
	}
	processSentence(acc, cfg, doc, 0, tokens, nil)

	pos := acc.snapshot(indexset.POS)
	if _, ok := pos[string(POSKey("NNP"))]; !ok {
		t.Fatalf("expected pos entry for NNP")
	}

	stitch := acc.snapshot(indexset.Stitch)
	list, ok := stitch[string(StitchKey("Paris"))]
	if !ok {
		t.Fatalf("expected stitch entry for Paris")
	}
	var sawNER, sawPOS bool
	for _, p := range list.All() {
		if !p.Stitch {
			t.Fatalf("stitch index position should have Stitch=true")
		}
		switch p.AnnotationType {
		case position.AnnotNER:
			sawNER = true
		case position.AnnotPOS:
			sawPOS = true
		}
	}
	if !sawNER || !sawPOS {
		t.Fatalf("expected both NER and POS stitch records, got ner=%v pos=%v", sawNER, sawPOS)
	}
}

func TestProcessSentenceNERDate(t *testing.T) {
	acc := newAccumulator()
	cfg := Config{}
	doc := models.Document{ID: 1, Timestamp: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)}

	tokens := []models.TokenAnnotation{
		tok("2020", "2020", "CD", "DATE", "2020-05-01", 0, 4),
	}
	processSentence(acc, cfg, doc, 0, tokens, nil)

	nerDate := acc.snapshot(indexset.NERDate)
	if _, ok := nerDate[string(NERDateKey("20200501"))]; !ok {
		t.Fatalf("expected ner_date entry for 20200501")
	}

	stitch := acc.snapshot(indexset.Stitch)
	list := stitch[string(StitchKey("2020"))]
	var sawDate bool
	for _, p := range list.All() {
		if p.AnnotationType == position.AnnotDate {
			sawDate = true
		}
	}
	if !sawDate {
		t.Fatalf("expected a date stitch record")
	}
}

func TestProcessSentenceDependencyAndHypernym(t *testing.T) {
	acc := newAccumulator()
	cfg := Config{HypernymRelations: []string{"nsubj"}}
	doc := models.Document{ID: 1, Timestamp: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)}

	tokens := []models.TokenAnnotation{
		tok("dog", "dog", "NN", "O", "", 0, 3),
		tok("barks", "bark", "VBZ", "O", "", 4, 9),
	}
	deps := []models.DependencyEdge{
		{HeadToken: 1, DependentToken: 0, Relation: "nsubj", BeginChar: 0, EndChar: 9},
	}
	processSentence(acc, cfg, doc, 0, tokens, deps)

	depIdx := acc.snapshot(indexset.Dependency)
	if _, ok := depIdx[string(DependencyKey("bark", "nsubj", "dog"))]; !ok {
		t.Fatalf("expected dependency entry for bark-nsubj-dog")
	}

	hyper := acc.snapshot(indexset.Hypernym)
	if _, ok := hyper[string(HypernymKey("dog", "bark"))]; !ok {
		t.Fatalf("expected hypernym entry category=dog instance=bark")
	}

	stitch := acc.snapshot(indexset.Stitch)
	for _, k := range []string{"dog", "barks"} {
		list, ok := stitch[string(StitchKey(k))]
		if !ok {
			t.Fatalf("expected stitch entry for %q", k)
		}
		var sawDep bool
		for _, p := range list.All() {
			if p.AnnotationType == position.AnnotDependency {
				sawDep = true
			}
		}
		if !sawDep {
			t.Fatalf("expected a dependency stitch record for %q", k)
		}
	}
}

func TestProcessSentenceOutOfRangeDependencyIgnored(t *testing.T) {
	acc := newAccumulator()
	cfg := Config{}
	doc := models.Document{ID: 1}
	tokens := []models.TokenAnnotation{tok("a", "a", "DT", "O", "", 0, 1)}
	deps := []models.DependencyEdge{{HeadToken: 5, DependentToken: 0, Relation: "nsubj"}}

	processSentence(acc, cfg, doc, 0, tokens, deps)

	if len(acc.snapshot(indexset.Dependency)) != 0 {
		t.Fatalf("out-of-range dependency edge should be ignored, not indexed")
	}
}
