// Package synonym implements the interning bijections (C5) used to
// keep PositionList payloads small: date, ner, pos and dependency
// values each get a stable, dense integer id, interned in first-seen
// order at build time, renumbered into sorted-value order (Renumber)
// before the table is saved, and resolved read-only at query time.
package synonym

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/halsted/corpusql/internal/corpuserr"
)

// UnknownID is the sentinel id returned for a value with no entry; a
// missing id never crashes a lookup (spec.md §4.5).
const UnknownID uint32 = 0

// Kind names the four synonym table types spec.md §3/§6 persists.
type Kind string

const (
	KindDate       Kind = "date"
	KindNER        Kind = "ner"
	KindPOS        Kind = "pos"
	KindDependency Kind = "dependency"
)

// FileName returns the synonym file's name under the stitch/ directory.
func (k Kind) FileName() string { return string(k) + "_synonyms.ser" }

// Table is a string<->id bijection. The zero value, or a Table loaded
// with Load, is immutable after load; only a Table built with NewBuilder
// and finalized with Build supports interning new values.
type Table struct {
	mu        sync.RWMutex
	valueToID map[string]uint32
	idToValue []string // index 0 is the UnknownID sentinel "\x00unknown"
}

const unknownValue = "\x00unknown"

func newTable() *Table {
	return &Table{
		valueToID: map[string]uint32{},
		idToValue: []string{unknownValue},
	}
}

// ID returns the stable id for value, or UnknownID if it was never
// interned.
func (t *Table) ID(value string) uint32 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if id, ok := t.valueToID[value]; ok {
		return id
	}
	return UnknownID
}

// Value returns the string for id, or the sentinel "unknown" string if
// id is UnknownID or out of range.
func (t *Table) Value(id uint32) string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if int(id) >= len(t.idToValue) {
		return unknownValue
	}
	return t.idToValue[id]
}

// Len returns the number of interned values (excluding the sentinel).
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.idToValue) - 1
}

// Builder interns values in first-seen order while a generator scans
// the annotation store.
type Builder struct {
	t *Table
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder { return &Builder{t: newTable()} }

// Intern returns value's id, assigning the next dense id on first sight.
// First-seen order depends on caller scheduling; a generator run that
// scans documents concurrently must call Renumber before these ids are
// written anywhere durable, or the assignment varies run to run.
func (b *Builder) Intern(value string) uint32 {
	b.t.mu.Lock()
	defer b.t.mu.Unlock()
	if id, ok := b.t.valueToID[value]; ok {
		return id
	}
	id := uint32(len(b.t.idToValue))
	b.t.valueToID[value] = id
	b.t.idToValue = append(b.t.idToValue, value)
	return id
}

// Renumber reassigns every interned value a dense id in sorted-value
// order, replacing whatever order Intern assigned them in, and returns
// the old-id -> new-id mapping so callers can remap ids already baked
// into other records (spec.md §4.3's idempotence guarantee requires the
// synonym table's on-disk ids be a pure function of the interned value
// set, not of interning order, since a concurrent generator run visits
// documents in a nondeterministic order).
func (b *Builder) Renumber() map[uint32]uint32 {
	b.t.mu.Lock()
	defer b.t.mu.Unlock()

	values := make([]string, 0, len(b.t.idToValue)-1)
	for id := 1; id < len(b.t.idToValue); id++ {
		values = append(values, b.t.idToValue[id])
	}
	sort.Strings(values)

	remap := make(map[uint32]uint32, len(values))
	idToValue := make([]string, 1, len(values)+1)
	idToValue[0] = unknownValue
	valueToID := make(map[string]uint32, len(values))
	for i, v := range values {
		newID := uint32(i + 1)
		remap[b.t.valueToID[v]] = newID
		idToValue = append(idToValue, v)
		valueToID[v] = newID
	}
	b.t.idToValue = idToValue
	b.t.valueToID = valueToID
	return remap
}

// Build finalizes the Builder into a read-only Table.
func (b *Builder) Build() *Table { return b.t }

// Save persists the table to path as a stable, sorted-by-id
// newline-delimited list: "id\tvalue" for every interned value (the
// sentinel at id 0 is never written). Stable byte output makes
// regeneration with identical inputs byte-identical (spec.md §4.3).
func Save(t *Table, path string) error {
	t.mu.RLock()
	defer t.mu.RUnlock()
	f, err := os.Create(path)
	if err != nil {
		return corpuserr.Wrap(corpuserr.StorageError, err, "create synonym file %s", path)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	ids := make([]uint32, 0, len(t.idToValue)-1)
	for id := 1; id < len(t.idToValue); id++ {
		ids = append(ids, uint32(id))
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		if _, err := fmt.Fprintf(w, "%d\t%s\n", id, t.idToValue[id]); err != nil {
			return corpuserr.Wrap(corpuserr.StorageError, err, "write synonym file %s", path)
		}
	}
	return w.Flush()
}

// Load reads a synonym file written by Save. A missing file yields an
// empty Table rather than an error, since a freshly initialized index
// set has no synonyms yet.
func Load(path string) (*Table, error) {
	t := newTable()
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return t, nil
	}
	if err != nil {
		return nil, corpuserr.Wrap(corpuserr.StorageError, err, "open synonym file %s", path)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for sc.Scan() {
		line := sc.Text()
		var id uint32
		var rest string
		n, err := fmt.Sscanf(line, "%d\t%s", &id, &rest)
		if err != nil || n != 2 {
			return nil, corpuserr.New(corpuserr.StorageError, "malformed synonym file %s: %q", path, line)
		}
		// Sscanf with %s stops at whitespace; re-extract the full value
		// (which may itself contain spaces) after the first tab.
		tab := indexByte(line, '\t')
		value := line
		if tab >= 0 {
			value = line[tab+1:]
		}
		for uint32(len(t.idToValue)) <= id {
			t.idToValue = append(t.idToValue, unknownValue)
		}
		t.idToValue[id] = value
		t.valueToID[value] = id
	}
	if err := sc.Err(); err != nil {
		return nil, corpuserr.Wrap(corpuserr.StorageError, err, "read synonym file %s", path)
	}
	return t, nil
}

func indexByte(s string, b byte) int {
	for i := 0; i < len(s); i++ {
		if s[i] == b {
			return i
		}
	}
	return -1
}
