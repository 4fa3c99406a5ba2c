package table

import (
	"strings"

	"github.com/halsted/corpusql/internal/query/ast"
	"github.com/halsted/corpusql/internal/query/exec"
)

// noPositionSnippet is the sentinel spec.md §4.11.1 requires when no
// matching detail carries a valid Position.
const noPositionSnippet = "<no snippet available>"

// snippetCell implements `SNIPPET(?v[, window])`: locate the first
// detail bound to c.Variable with a usable position, fetch the
// document text, and trim to word boundaries window words on either
// side of the match.
func (b *builder) snippetCell(r row, c ast.SelectColumn) Cell {
	docID, ok := r.primaryDocID()
	if !ok || b.docs == nil {
		return valueCell(noPositionSnippet)
	}

	details := append(append([]exec.MatchDetail{}, r.leftDetails...), r.rightDetails...)
	var begin, end uint32
	found := false
	for _, d := range details {
		if d.VariableName == c.Variable && d.HasPosition {
			begin, end = d.BeginChar, d.EndChar
			found = true
			break
		}
	}
	if !found {
		return valueCell(noPositionSnippet)
	}

	doc, err := b.docs.Get(b.ctx, docID)
	if err != nil || int(end) > len(doc.Text) || begin >= end {
		return valueCell(noPositionSnippet)
	}

	window := c.Window
	if window <= 0 {
		window = 5
	}
	return valueCell(wordBoundarySnippet(doc.Text, int(begin), int(end), window))
}

// wordBoundarySnippet trims text to window words before begin and
// window words after end, prepending/appending an ellipsis.
func wordBoundarySnippet(text string, begin, end, window int) string {
	start := wordsBack(text, begin, window)
	stop := wordsForward(text, end, window)

	var b strings.Builder
	if start > 0 {
		b.WriteString("...")
	}
	b.WriteString(strings.TrimSpace(text[start:stop]))
	if stop < len(text) {
		b.WriteString("...")
	}
	return b.String()
}

// wordsBack walks left from pos, skipping window word boundaries, and
// returns the byte offset where the trimmed snippet should start.
func wordsBack(text string, pos, window int) int {
	i := pos
	for w := 0; w < window && i > 0; w++ {
		for i > 0 && isSpace(text[i-1]) {
			i--
		}
		for i > 0 && !isSpace(text[i-1]) {
			i--
		}
	}
	return i
}

// wordsForward walks right from pos, skipping window word boundaries,
// and returns the byte offset where the trimmed snippet should end.
func wordsForward(text string, pos, window int) int {
	i := pos
	n := len(text)
	for w := 0; w < window && i < n; w++ {
		for i < n && isSpace(text[i]) {
			i++
		}
		for i < n && !isSpace(text[i]) {
			i++
		}
	}
	return i
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
