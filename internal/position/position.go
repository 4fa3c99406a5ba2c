// Package position implements the core occurrence record (C1):
// Position, the ordered PositionList it lives in, and the
// self-delimiting binary codec of spec.md §6.
package position

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sort"
	"time"
)

// tag byte values for PositionRecord encoding.
const (
	tagPlain  byte = 0
	tagStitch byte = 1
)

// DocumentSentinel marks a document-level (as opposed to sentence-level)
// position.
const DocumentSentinel int32 = -1

// AnnotationType values identify which synonym table a StitchPosition's
// SynonymID was interned from.
const (
	AnnotNER        uint8 = 0
	AnnotPOS        uint8 = 1
	AnnotDate       uint8 = 2
	AnnotDependency uint8 = 3
)

// Position is one occurrence record: the span of an index key's match
// inside one document (and, optionally, one sentence of it).
type Position struct {
	DocumentID uint32
	SentenceID int32 // DocumentSentinel for document-level positions
	BeginChar  uint32
	EndChar    uint32
	Timestamp  time.Time

	// Stitch fields, set only when Stitch is true.
	Stitch        bool
	AnnotationType uint8
	SynonymID      uint32
}

// Less orders positions by (DocumentID, SentenceID, BeginChar), the
// PositionList sort order required by spec.md §3. Ties are broken by
// the remaining identifying fields, so positions sharing a start have
// one fixed order and Add/Merge find an equal position next to p.
func (p Position) Less(o Position) bool {
	if p.DocumentID != o.DocumentID {
		return p.DocumentID < o.DocumentID
	}
	if p.SentenceID != o.SentenceID {
		return p.SentenceID < o.SentenceID
	}
	if p.BeginChar != o.BeginChar {
		return p.BeginChar < o.BeginChar
	}
	if p.EndChar != o.EndChar {
		return p.EndChar < o.EndChar
	}
	if !p.Timestamp.Equal(o.Timestamp) {
		return p.Timestamp.Before(o.Timestamp)
	}
	if p.Stitch != o.Stitch {
		return !p.Stitch
	}
	if p.AnnotationType != o.AnnotationType {
		return p.AnnotationType < o.AnnotationType
	}
	return p.SynonymID < o.SynonymID
}

// Equal implements the identifying-field equality spec.md §3 requires
// for PositionList set semantics.
func (p Position) Equal(o Position) bool {
	return p.DocumentID == o.DocumentID &&
		p.SentenceID == o.SentenceID &&
		p.BeginChar == o.BeginChar &&
		p.EndChar == o.EndChar &&
		p.Timestamp.Equal(o.Timestamp) &&
		p.Stitch == o.Stitch &&
		p.AnnotationType == o.AnnotationType &&
		p.SynonymID == o.SynonymID
}

// IsDocumentLevel reports whether this position has no sentence scope.
func (p Position) IsDocumentLevel() bool { return p.SentenceID == DocumentSentinel }

// List is an ordered, deduplicated sequence of Position records
// belonging to one index key.
type List struct {
	positions []Position
}

// NewList builds a List from positions, sorting and deduplicating them.
func NewList(positions ...Position) *List {
	l := &List{}
	for _, p := range positions {
		l.Add(p)
	}
	return l
}

// Len returns the number of positions.
func (l *List) Len() int {
	if l == nil {
		return 0
	}
	return len(l.positions)
}

// All returns the positions in stored sort order. Callers must not
// mutate the returned slice.
func (l *List) All() []Position {
	if l == nil {
		return nil
	}
	return l.positions
}

// Add performs set-insertion of p, preserving sort order. O(n).
func (l *List) Add(p Position) {
	i := sort.Search(len(l.positions), func(i int) bool { return !l.positions[i].Less(p) })
	if i < len(l.positions) && l.positions[i].Equal(p) {
		return
	}
	l.positions = append(l.positions, Position{})
	copy(l.positions[i+1:], l.positions[i:])
	l.positions[i] = p
}

// RemapSynonymIDs rewrites the SynonymID of every stitch position
// tagged with annType, applying remap. The sort order is unaffected
// since SynonymID is not part of the ordering key.
func (l *List) RemapSynonymIDs(annType uint8, remap map[uint32]uint32) {
	if l == nil {
		return
	}
	for i := range l.positions {
		p := &l.positions[i]
		if !p.Stitch || p.AnnotationType != annType {
			continue
		}
		if newID, ok := remap[p.SynonymID]; ok {
			p.SynonymID = newID
		}
	}
}

// Merge returns the sorted set union of a and b. O(n+m).
func Merge(a, b *List) *List {
	out := &List{positions: make([]Position, 0, a.Len()+b.Len())}
	ap, bp := a.All(), b.All()
	i, j := 0, 0
	for i < len(ap) && j < len(bp) {
		switch {
		case ap[i].Equal(bp[j]):
			out.positions = append(out.positions, ap[i])
			i++
			j++
		case ap[i].Less(bp[j]):
			out.positions = append(out.positions, ap[i])
			i++
		default:
			out.positions = append(out.positions, bp[j])
			j++
		}
	}
	out.positions = append(out.positions, ap[i:]...)
	out.positions = append(out.positions, bp[j:]...)
	return out
}

// Serialize encodes the list per spec.md §6: a u32 count followed by
// that many fixed-width, big-endian PositionRecords.
func Serialize(l *List) []byte {
	positions := l.All()
	buf := bytes.NewBuffer(make([]byte, 0, 4+len(positions)*21))
	var countBuf [4]byte
	binary.BigEndian.PutUint32(countBuf[:], uint32(len(positions)))
	buf.Write(countBuf[:])

	var scratch [4]byte
	for _, p := range positions {
		if p.Stitch {
			buf.WriteByte(tagStitch)
		} else {
			buf.WriteByte(tagPlain)
		}
		binary.BigEndian.PutUint32(scratch[:], p.DocumentID)
		buf.Write(scratch[:])
		binary.BigEndian.PutUint32(scratch[:], uint32(p.SentenceID))
		buf.Write(scratch[:])
		binary.BigEndian.PutUint32(scratch[:], p.BeginChar)
		buf.Write(scratch[:])
		binary.BigEndian.PutUint32(scratch[:], p.EndChar)
		buf.Write(scratch[:])
		var tsBuf [8]byte
		binary.BigEndian.PutUint64(tsBuf[:], uint64(p.Timestamp.Unix()))
		buf.Write(tsBuf[:])
		if p.Stitch {
			buf.WriteByte(p.AnnotationType)
			binary.BigEndian.PutUint32(scratch[:], p.SynonymID)
			buf.Write(scratch[:])
		}
	}
	return buf.Bytes()
}

// Deserialize is the exact inverse of Serialize.
func Deserialize(data []byte) (*List, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("position: truncated list header: %d bytes", len(data))
	}
	count := binary.BigEndian.Uint32(data[:4])
	data = data[4:]
	positions := make([]Position, 0, count)
	for i := uint32(0); i < count; i++ {
		const fixedLen = 1 + 4 + 4 + 4 + 4 + 8
		if len(data) < fixedLen {
			return nil, fmt.Errorf("position: truncated record %d: need %d bytes, have %d", i, fixedLen, len(data))
		}
		tag := data[0]
		rest := data[1:]
		p := Position{
			DocumentID: binary.BigEndian.Uint32(rest[0:4]),
			SentenceID: int32(binary.BigEndian.Uint32(rest[4:8])),
			BeginChar:  binary.BigEndian.Uint32(rest[8:12]),
			EndChar:    binary.BigEndian.Uint32(rest[12:16]),
			Timestamp:  time.Unix(int64(binary.BigEndian.Uint64(rest[16:24])), 0).UTC(),
		}
		data = data[fixedLen:]
		switch tag {
		case tagPlain:
		case tagStitch:
			if len(data) < 5 {
				return nil, fmt.Errorf("position: truncated stitch payload on record %d", i)
			}
			p.Stitch = true
			p.AnnotationType = data[0]
			p.SynonymID = binary.BigEndian.Uint32(data[1:5])
			data = data[5:]
		default:
			return nil, fmt.Errorf("position: unknown record tag %d at record %d", tag, i)
		}
		positions = append(positions, p)
	}
	return &List{positions: positions}, nil
}
