package generator

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/halsted/corpusql/internal/kv"
)

// lowerCaser folds ASCII and Unicode tokens the same way regardless of
// script, so multi-byte tokens are not corrupted by a naive byte-wise
// ToLower (spec.md §4.3's "lowercased ASCII" requirement, applied
// Unicode-safely per SPEC_FULL.md's domain-stack note).
var lowerCaser = cases.Lower(language.Und)

func lowerToken(s string) string { return lowerCaser.String(s) }

// UnigramKey, BigramKey, TrigramKey build the n-gram key shapes of
// spec.md §3.
func UnigramKey(tok string) []byte { return kv.EncodeKey(lowerToken(tok)) }

func BigramKey(t1, t2 string) []byte { return kv.EncodeKey(lowerToken(t1), lowerToken(t2)) }

func TrigramKey(t1, t2, t3 string) []byte {
	return kv.EncodeKey(lowerToken(t1), lowerToken(t2), lowerToken(t3))
}

// DependencyKey builds the (head, relation, dependent) key shape.
func DependencyKey(head, relation, dependent string) []byte {
	return kv.EncodeKey(lowerToken(head), lowerToken(relation), lowerToken(dependent))
}

// DependencyTriple renders the same triple as a plain string, used to
// intern dependency synonym values.
func DependencyTriple(head, relation, dependent string) string {
	return strings.Join([]string{lowerToken(head), lowerToken(relation), lowerToken(dependent)}, "\x00")
}

// NERDateKey builds the ner_date key: an 8-digit YYYYMMDD string, kept
// in digit form per spec.md §4.3 (ner_date keys are case-sensitive
// digits, never lowercased like the other index types).
func NERDateKey(yyyymmdd string) []byte { return []byte(yyyymmdd) }

// POSKey builds the pos key.
func POSKey(tag string) []byte { return kv.EncodeKey(lowerToken(tag)) }

// HypernymKey builds the (category, instance) key shape.
func HypernymKey(category, instance string) []byte {
	return kv.EncodeKey(lowerToken(category), lowerToken(instance))
}

// StitchKey builds the token key shape used by the stitch index.
func StitchKey(tok string) []byte { return kv.EncodeKey(lowerToken(tok)) }
