// Package generator implements the index generators (C3): one
// generator per index type, each scanning the annotation store,
// emitting position records, grouping by key, and writing
// PositionLists, following the normalization rules of spec.md §4.3.
package generator

import (
	"context"
	"runtime"
	"sort"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/halsted/corpusql/internal/corpuserr"
	"github.com/halsted/corpusql/internal/docstore"
	"github.com/halsted/corpusql/internal/indexset"
	"github.com/halsted/corpusql/internal/kv"
	"github.com/halsted/corpusql/internal/position"
	"github.com/halsted/corpusql/internal/synonym"
)

// Config parameterizes generation.
type Config struct {
	Stopwords docstore.StopwordSet
	// HypernymRelations names the dependency relations the hypernym
	// generator treats as "is-a" edges, documented in the index-set
	// manifest per spec.md §4.3.
	HypernymRelations []string
	// BatchSize bounds the batched write commit size (spec.md §5's
	// default 1000); the worker queue holds twice the worker count.
	BatchSize int
	// Workers bounds generator concurrency; defaults to NumCPU capped
	// at 8, mirroring the teacher's indexer worker pool.
	Workers int
}

func (c Config) isHypernymRelation(rel string) bool {
	for _, r := range c.HypernymRelations {
		if lowerToken(r) == lowerToken(rel) {
			return true
		}
	}
	return false
}

func (c Config) workers() int {
	if c.Workers > 0 {
		return c.Workers
	}
	n := runtime.NumCPU()
	if n > 8 {
		n = 8
	}
	return n
}

func (c Config) batchSize() int {
	if c.BatchSize > 0 {
		return c.BatchSize
	}
	return 1000
}

// Stats summarizes one generation run.
type Stats struct {
	Documents int
	Sentences int
	Keys      map[indexset.Type]int
}

// Run builds every index type under <root>/<setName>/ from ann, and
// persists the stitch synonym tables alongside them. It honors
// preserveExisting by refusing to overwrite any non-empty index
// directory (spec.md §4.3).
func Run(ctx context.Context, ann docstore.AnnotationStore, docs docstore.DocumentStore, root, setName string, cfg Config, preserveExisting bool) (Stats, error) {
	dir := indexset.Dir(root, setName)

	stores := map[indexset.Type]*kv.Store{}
	defer func() {
		for _, s := range stores {
			_ = s.Close()
		}
	}()
	for _, t := range indexset.AllTypes {
		store, err := kv.Open(dir+"/"+string(t), false)
		if err != nil {
			return Stats{}, err
		}
		if preserveExisting {
			empty, err := store.IsEmpty()
			if err != nil {
				return Stats{}, err
			}
			if !empty {
				return Stats{}, corpuserr.New(corpuserr.StorageError, "refusing to overwrite non-empty index %s/%s (preserve_existing set)", setName, t)
			}
		}
		stores[t] = store
	}

	ids, err := docs.ListIDs(ctx)
	if err != nil {
		return Stats{}, corpuserr.Wrap(corpuserr.DocStoreError, err, "list document ids")
	}

	acc := newAccumulator()
	stats, err := processDocuments(ctx, ann, docs, ids, cfg, acc)
	if err != nil {
		return Stats{}, err
	}
	acc.renumberSynonyms()

	keyCounts := map[indexset.Type]int{}
	for _, t := range indexset.AllTypes {
		snap := acc.snapshot(t)
		keyCounts[t] = len(snap)
		if err := writeIndex(stores[t], snap, cfg.batchSize()); err != nil {
			return Stats{}, err
		}
	}
	stats.Keys = keyCounts

	for kind, builder := range map[synonym.Kind]*synonym.Builder{
		synonym.KindDate:       acc.dateSyn,
		synonym.KindNER:        acc.nerSyn,
		synonym.KindPOS:        acc.posSyn,
		synonym.KindDependency: acc.depSyn,
	} {
		path := dir + "/" + string(indexset.Stitch) + "/" + kind.FileName()
		if err := synonym.Save(builder.Build(), path); err != nil {
			return Stats{}, err
		}
	}

	manifest := newManifest(setName, stats, cfg)
	if err := writeManifest(dir, manifest); err != nil {
		return Stats{}, err
	}

	log.Info().Str("generation_id", manifest.GenerationID).Int("documents", stats.Documents).Int("sentences", stats.Sentences).Msg("index generation complete")
	return stats, nil
}

// processDocuments fans documents out to a worker pool, mirroring the
// teacher's indexer.Run channel-based worker pool.
func processDocuments(ctx context.Context, ann docstore.AnnotationStore, docs docstore.DocumentStore, ids []uint32, cfg Config, acc *accumulator) (Stats, error) {
	workCh := make(chan uint32, cfg.workers()*2)
	errCh := make(chan error, 1)
	var sentenceCount int64
	var mu sync.Mutex

	var wg sync.WaitGroup
	for i := 0; i < cfg.workers(); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for docID := range workCh {
				n, err := processDocument(ctx, ann, docs, docID, cfg, acc)
				if err != nil {
					select {
					case errCh <- err:
					default:
						log.Error().Err(err).Uint32("document_id", docID).Msg("generator worker error")
					}
					continue
				}
				mu.Lock()
				sentenceCount += int64(n)
				mu.Unlock()
			}
		}()
	}

	go func() {
		defer close(workCh)
		for _, id := range ids {
			select {
			case workCh <- id:
			case <-ctx.Done():
				return
			}
		}
	}()

	wg.Wait()
	close(errCh)
	if err := <-errCh; err != nil {
		return Stats{}, err
	}
	if err := ctx.Err(); err != nil {
		return Stats{}, corpuserr.Wrap(corpuserr.Cancelled, err, "generation cancelled")
	}
	return Stats{Documents: len(ids), Sentences: int(sentenceCount)}, nil
}

func processDocument(ctx context.Context, ann docstore.AnnotationStore, docs docstore.DocumentStore, docID uint32, cfg Config, acc *accumulator) (int, error) {
	doc, err := docs.Get(ctx, docID)
	if err != nil {
		return 0, err
	}
	sentences, err := ann.Sentences(ctx, docID)
	if err != nil {
		return 0, err
	}
	for _, sent := range sentences {
		tokens, err := ann.SentenceTokens(ctx, docID, sent.SentenceID)
		if err != nil {
			return 0, err
		}
		deps, err := ann.SentenceDependencies(ctx, docID, sent.SentenceID)
		if err != nil {
			return 0, err
		}
		processSentence(acc, cfg, doc, sent.SentenceID, tokens, deps)
	}
	return len(sentences), nil
}

// writeIndex batch-writes a snapshot's entries in deterministic
// (sorted-key) order, so regenerating from identical inputs produces
// byte-identical key/value pairs (spec.md §4.3's idempotence guarantee).
func writeIndex(store *kv.Store, snapshot map[string]*position.List, batchSize int) error {
	keys := make([]string, 0, len(snapshot))
	for k := range snapshot {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	entries := make([]kv.KV, 0, len(keys))
	for _, k := range keys {
		entries = append(entries, kv.KV{Key: []byte(k), Value: position.Serialize(snapshot[k])})
	}
	return store.BatchPut(entries, batchSize)
}
