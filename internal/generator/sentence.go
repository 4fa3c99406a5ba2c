package generator

import (
	"github.com/halsted/corpusql/internal/indexset"
	"github.com/halsted/corpusql/internal/position"
	"github.com/halsted/corpusql/pkg/models"
)

// processSentence runs every index generator's per-sentence logic over
// one sentence's tokens and dependency edges, emitting positions into
// acc. This is the shared core all eight generators described in
// spec.md §4.3 draw from, since they all scan the same annotation
// stream.
func processSentence(acc *accumulator, cfg Config, doc models.Document, sentenceID int32, tokens []models.TokenAnnotation, deps []models.DependencyEdge) {
	isStopword := func(tok string) bool {
		return cfg.Stopwords != nil && cfg.Stopwords.Contains(lowerToken(tok))
	}

	for i, tok := range tokens {
		base := position.Position{
			DocumentID: doc.ID,
			SentenceID: sentenceID,
			BeginChar:  tok.BeginChar,
			EndChar:    tok.EndChar,
			Timestamp:  doc.Timestamp,
		}

		// Unigram.
		if !isStopword(tok.Token) {
			acc.add(indexset.Unigram, UnigramKey(tok.Token), base)
		}

		// Bigram: tokens i, i+1 are contiguous within the sentence by
		// construction, since SentenceTokens returns them ordered and
		// unbroken by begin_char (spec.md §4.3).
		if i+1 < len(tokens) {
			next := tokens[i+1]
			if !isStopword(tok.Token) && !isStopword(next.Token) {
				p := base
				p.EndChar = next.EndChar
				acc.add(indexset.Bigram, BigramKey(tok.Token, next.Token), p)
			}
		}

		// Trigram.
		if i+2 < len(tokens) {
			t2, t3 := tokens[i+1], tokens[i+2]
			if !isStopword(tok.Token) && !isStopword(t2.Token) && !isStopword(t3.Token) {
				p := base
				p.EndChar = t3.EndChar
				acc.add(indexset.Trigram, TrigramKey(tok.Token, t2.Token, t3.Token), p)
			}
		}

		// POS.
		if tok.POS != "" {
			acc.add(indexset.POS, POSKey(tok.POS), base)
		}

		// ner_date: only DATE-tagged tokens whose normalized value
		// parses; the key is the entity's normalized date, not the
		// document's publication date (spec.md §9 Open Question).
		var dateKey string
		var dateOK bool
		if tok.NER == "DATE" && tok.NormalizedNER != "" {
			if _, key, ok := normalizeDate(tok.NormalizedNER); ok {
				acc.add(indexset.NERDate, NERDateKey(key), base)
				dateKey, dateOK = key, true
			}
		}

		// Stitch: co-locate the token's surface form with the synonym
		// id of every coexisting annotation kind applicable to it
		// (spec.md §4.3): its NER tag, its POS tag and its normalized
		// date here, and each dependency edge it is an endpoint of below.
		if tok.NER != "" && tok.NER != "O" {
			sp := base
			sp.Stitch = true
			sp.AnnotationType = position.AnnotNER
			sp.SynonymID = acc.nerSyn.Intern(tok.NER)
			acc.add(indexset.Stitch, StitchKey(tok.Token), sp)
		}
		if tok.POS != "" {
			sp := base
			sp.Stitch = true
			sp.AnnotationType = position.AnnotPOS
			sp.SynonymID = acc.posSyn.Intern(tok.POS)
			acc.add(indexset.Stitch, StitchKey(tok.Token), sp)
		}
		if dateOK {
			sp := base
			sp.Stitch = true
			sp.AnnotationType = position.AnnotDate
			sp.SynonymID = acc.dateSyn.Intern(dateKey)
			acc.add(indexset.Stitch, StitchKey(tok.Token), sp)
		}
	}

	for _, dep := range deps {
		if dep.HeadToken < 0 || dep.HeadToken >= len(tokens) || dep.DependentToken < 0 || dep.DependentToken >= len(tokens) {
			continue
		}
		head := tokens[dep.HeadToken]
		dependent := tokens[dep.DependentToken]

		dp := position.Position{
			DocumentID: doc.ID,
			SentenceID: sentenceID,
			BeginChar:  dep.BeginChar,
			EndChar:    dep.EndChar,
			Timestamp:  doc.Timestamp,
		}
		acc.add(indexset.Dependency, DependencyKey(head.Lemma, dep.Relation, dependent.Lemma), dp)

		triple := DependencyTriple(head.Lemma, dep.Relation, dependent.Lemma)
		synID := acc.depSyn.Intern(triple)
		for _, tok := range []models.TokenAnnotation{head, dependent} {
			sp := position.Position{
				DocumentID:     doc.ID,
				SentenceID:     sentenceID,
				BeginChar:      tok.BeginChar,
				EndChar:        tok.EndChar,
				Timestamp:      doc.Timestamp,
				Stitch:         true,
				AnnotationType: position.AnnotDependency,
				SynonymID:      synID,
			}
			acc.add(indexset.Stitch, StitchKey(tok.Token), sp)
		}

		// Hypernym: category is the broader class named by the
		// dependent of an is-a-like edge, instance is the head being
		// classified (see DESIGN.md for this choice among the spec's
		// ambiguous drafts).
		if cfg.isHypernymRelation(dep.Relation) {
			acc.add(indexset.Hypernym, HypernymKey(dependent.Lemma, head.Lemma), dp)
		}
	}
}
