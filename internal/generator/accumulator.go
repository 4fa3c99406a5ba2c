package generator

import (
	"sync"

	"github.com/halsted/corpusql/internal/indexset"
	"github.com/halsted/corpusql/internal/position"
	"github.com/halsted/corpusql/internal/synonym"
)

// accumulator collects the in-memory PositionLists each generator
// builds before they are written once per key (spec.md §4.1 lifecycle).
// A single accumulator is shared across worker goroutines, guarded by
// one mutex.
type accumulator struct {
	mu    sync.Mutex
	lists map[indexset.Type]map[string]*position.List

	dateSyn *synonym.Builder
	nerSyn  *synonym.Builder
	posSyn  *synonym.Builder
	depSyn  *synonym.Builder
}

func newAccumulator() *accumulator {
	a := &accumulator{
		lists:   map[indexset.Type]map[string]*position.List{},
		dateSyn: synonym.NewBuilder(),
		nerSyn:  synonym.NewBuilder(),
		posSyn:  synonym.NewBuilder(),
		depSyn:  synonym.NewBuilder(),
	}
	for _, t := range indexset.AllTypes {
		a.lists[t] = map[string]*position.List{}
	}
	return a
}

// add performs the set-insertion add(list, position) operation of
// spec.md §4.1 against the accumulator's in-memory list for (t, key).
func (a *accumulator) add(t indexset.Type, key []byte, p position.Position) {
	a.mu.Lock()
	defer a.mu.Unlock()
	k := string(key)
	list, ok := a.lists[t][k]
	if !ok {
		list = position.NewList()
		a.lists[t][k] = list
	}
	list.Add(p)
}

// renumberSynonyms reassigns every synonym builder's ids in
// sorted-value order (undoing whatever order concurrent document
// processing interned them in) and rewrites the SynonymID already
// baked into every accumulated stitch position, so the stitch index
// and the synonym files are both a pure function of the input corpus
// (spec.md §4.3's idempotence guarantee, independent of worker
// scheduling).
func (a *accumulator) renumberSynonyms() {
	a.mu.Lock()
	defer a.mu.Unlock()

	remaps := map[uint8]map[uint32]uint32{
		position.AnnotNER:        a.nerSyn.Renumber(),
		position.AnnotPOS:        a.posSyn.Renumber(),
		position.AnnotDate:       a.dateSyn.Renumber(),
		position.AnnotDependency: a.depSyn.Renumber(),
	}
	for annType, remap := range remaps {
		for _, list := range a.lists[indexset.Stitch] {
			list.RemapSynonymIDs(annType, remap)
		}
	}
}

// snapshot returns, for one index type, every (key, list) pair
// accumulated so far. Keys are returned in the caller-visible form for
// deterministic batch-write ordering.
func (a *accumulator) snapshot(t indexset.Type) map[string]*position.List {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make(map[string]*position.List, len(a.lists[t]))
	for k, v := range a.lists[t] {
		out[k] = v
	}
	return out
}
