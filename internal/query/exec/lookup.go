package exec

import (
	"strings"

	"github.com/halsted/corpusql/internal/corpuserr"
	"github.com/halsted/corpusql/internal/generator"
	"github.com/halsted/corpusql/internal/indexset"
	"github.com/halsted/corpusql/internal/kv"
	"github.com/halsted/corpusql/internal/position"
	"github.com/halsted/corpusql/internal/query/ast"
	"github.com/halsted/corpusql/internal/synonym"
)

// groupPositions folds a PositionList into the running matchMap,
// attaching one MatchDetail per position. Document-granularity groups
// every position by document_id alone; sentence granularity groups by
// (document_id, sentence_id), per spec.md §4.9.
func groupPositions(m *matchMap, gran ast.Granularity, positions []position.Position, variable, value string) {
	for _, p := range positions {
		sentenceID := p.SentenceID
		if gran == ast.GranularityDocument {
			sentenceID = position.DocumentSentinel
		}
		match := m.getOrCreate(p.DocumentID, sentenceID)
		match.Details = append(match.Details, MatchDetail{
			DocumentID:   p.DocumentID,
			SentenceID:   p.SentenceID,
			VariableName: variable,
			Value:        value,
			BeginChar:    p.BeginChar,
			EndChar:      p.EndChar,
			HasPosition:  true,
			Timestamp:    p.Timestamp,
		})
	}
}

func getList(store *kv.Store, key []byte) (*position.List, error) {
	raw, ok, err := store.Get(key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return position.NewList(), nil
	}
	list, err := position.Deserialize(raw)
	if err != nil {
		return nil, corpuserr.Wrap(corpuserr.StorageError, err, "deserialize position list for key %x", key)
	}
	return list, nil
}

// evalContains implements the `CONTAINS` row: unigram/bigram/trigram
// depending on term count, or a single-term unigram lookup when the
// match is bound to a variable.
func evalContains(c *Context, cond ast.ContainsCond) (*QueryResult, error) {
	m := newMatchMap()

	if cond.Variable != "" {
		store, err := c.Set.Get(indexset.Unigram)
		if err != nil {
			return nil, err
		}
		list, err := getList(store, generator.UnigramKey(cond.Literal))
		if err != nil {
			return nil, err
		}
		groupPositions(m, c.Granularity, list.All(), cond.Variable, strings.ToLower(cond.Literal))
		return m.result(c.Granularity), nil
	}

	var indexType indexset.Type
	var key []byte
	switch len(cond.Terms) {
	case 1:
		indexType, key = indexset.Unigram, generator.UnigramKey(cond.Terms[0])
	case 2:
		indexType, key = indexset.Bigram, generator.BigramKey(cond.Terms[0], cond.Terms[1])
	case 3:
		indexType, key = indexset.Trigram, generator.TrigramKey(cond.Terms[0], cond.Terms[1], cond.Terms[2])
	default:
		return nil, corpuserr.New(corpuserr.ValidationError, "CONTAINS accepts 1-3 terms, got %d", len(cond.Terms))
	}
	store, err := c.Set.Get(indexType)
	if err != nil {
		return nil, err
	}
	list, err := getList(store, key)
	if err != nil {
		return nil, err
	}
	groupPositions(m, c.Granularity, list.All(), "", "")
	return m.result(c.Granularity), nil
}

// evalNER implements the `NER(type, ?v)` row: the stitch index has no
// per-type key, so every entry is scanned and filtered to
// annotation_type=ner with a matching synonym id (spec.md §4.9).
func evalNER(c *Context, cond ast.NERCond) (*QueryResult, error) {
	return evalStitchScan(c, synonym.KindNER, position.AnnotNER, cond.EntityType, cond.Variable, cond.Literal)
}

// evalStitchScan is shared by every stitch-backed executor: it scans
// the whole stitch store, decodes each PositionList, and keeps the
// positions whose annotation type and synonym id match. The scan key
// itself is the lowercased surface form the generator interned
// (internal/generator.StitchKey), which doubles as the bound value. A
// non-empty literal keeps only the entry whose key is StitchKey(literal).
func evalStitchScan(c *Context, kind synonym.Kind, annotType uint8, typeLiteral, variable, literal string) (*QueryResult, error) {
	syn, err := c.Set.Synonyms(kind)
	if err != nil {
		return nil, err
	}
	targetID := syn.ID(strings.ToUpper(typeLiteral))
	if targetID == synonym.UnknownID {
		// Some kinds intern values case-sensitively (e.g. POS tags);
		// fall back to the literal as given.
		targetID = syn.ID(typeLiteral)
	}

	store, err := c.Set.Get(indexset.Stitch)
	if err != nil {
		return nil, err
	}

	m := newMatchMap()
	err = store.ScanPrefix(nil, func(e kv.Entry) (bool, error) {
		surfaceForm := string(e.Key)
		if literal != "" && surfaceForm != string(generator.StitchKey(literal)) {
			return true, nil
		}
		list, derr := position.Deserialize(e.Value)
		if derr != nil {
			return false, corpuserr.Wrap(corpuserr.StorageError, derr, "deserialize stitch entry")
		}
		var matched []position.Position
		for _, p := range list.All() {
			if p.Stitch && p.AnnotationType == annotType && p.SynonymID == targetID {
				matched = append(matched, p)
			}
		}
		if len(matched) > 0 {
			groupPositions(m, c.Granularity, matched, variable, surfaceForm)
		}
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return m.result(c.Granularity), nil
}

// evalPOS implements the `POS(tag, ?v)` row: pos is keyed directly by
// tag, so this is a single point lookup rather than a full scan (the
// asymmetry spec.md §4.9 describes relative to NER).
func evalPOS(c *Context, cond ast.POSCond) (*QueryResult, error) {
	store, err := c.Set.Get(indexset.POS)
	if err != nil {
		return nil, err
	}
	list, err := getList(store, generator.POSKey(cond.Tag))
	if err != nil {
		return nil, err
	}

	variable := cond.Variable
	value := strings.ToLower(cond.Literal)
	m := newMatchMap()
	if variable == "" {
		groupPositions(m, c.Granularity, list.All(), "", "")
		return m.result(c.Granularity), nil
	}

	// Binding ?v to the token's surface form requires the document
	// text, since the pos index carries no token text of its own.
	for _, p := range list.All() {
		surface := value
		if c.Docs != nil {
			if doc, derr := c.Docs.Get(c.Ctx, p.DocumentID); derr == nil {
				if int(p.EndChar) <= len(doc.Text) && p.BeginChar < p.EndChar {
					surface = doc.Text[p.BeginChar:p.EndChar]
				}
			}
		}
		groupPositions(m, c.Granularity, []position.Position{p}, variable, surface)
	}
	return m.result(c.Granularity), nil
}

// evalDep implements `DEP(h,r,d)`: an exact key lookup, or a prefix
// scan + filter when any field is the "*" wildcard.
func evalDep(c *Context, cond ast.DepCond) (*QueryResult, error) {
	store, err := c.Set.Get(indexset.Dependency)
	if err != nil {
		return nil, err
	}
	m := newMatchMap()

	if cond.Head != "*" && cond.Relation != "*" && cond.Dependent != "*" {
		list, err := getList(store, generator.DependencyKey(cond.Head, cond.Relation, cond.Dependent))
		if err != nil {
			return nil, err
		}
		groupPositions(m, c.Granularity, list.All(), "", "")
		return m.result(c.Granularity), nil
	}

	prefix := depPrefix(cond)
	err = store.ScanPrefix(prefix, func(e kv.Entry) (bool, error) {
		if !depKeyMatches(e.Key, cond) {
			return true, nil
		}
		list, derr := position.Deserialize(e.Value)
		if derr != nil {
			return false, corpuserr.Wrap(corpuserr.StorageError, derr, "deserialize dependency entry")
		}
		groupPositions(m, c.Granularity, list.All(), "", "")
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return m.result(c.Granularity), nil
}

// depPrefix returns the longest fixed prefix of the (head, relation,
// dependent) key that precedes the first wildcard field.
func depPrefix(cond ast.DepCond) []byte {
	if cond.Head == "*" {
		return nil
	}
	if cond.Relation == "*" {
		return kv.EncodeKey(strings.ToLower(cond.Head))
	}
	if cond.Dependent == "*" {
		return kv.EncodeKey(strings.ToLower(cond.Head), strings.ToLower(cond.Relation))
	}
	return generator.DependencyKey(cond.Head, cond.Relation, cond.Dependent)
}

func depKeyMatches(key []byte, cond ast.DepCond) bool {
	parts := strings.Split(string(key), "\x00")
	if len(parts) != 3 {
		return false
	}
	match := func(field, want string) bool {
		return want == "*" || field == strings.ToLower(want)
	}
	return match(parts[0], cond.Head) && match(parts[1], cond.Relation) && match(parts[2], cond.Dependent)
}

// evalHypernym implements `HYPERNYM(category, instance)`.
func evalHypernym(c *Context, cond ast.HypernymCond) (*QueryResult, error) {
	store, err := c.Set.Get(indexset.Hypernym)
	if err != nil {
		return nil, err
	}
	list, err := getList(store, generator.HypernymKey(cond.Category, cond.Instance))
	if err != nil {
		return nil, err
	}
	m := newMatchMap()
	groupPositions(m, c.Granularity, list.All(), "", "")
	return m.result(c.Granularity), nil
}
