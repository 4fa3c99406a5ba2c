package generator

import (
	"encoding/json"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/halsted/corpusql/internal/corpuserr"
	"github.com/halsted/corpusql/internal/indexset"
)

// Manifest records one generation run's identity and shape, written
// alongside the index directories so a reader can tell which build
// produced them and what the hypernym relation set was (spec.md §4.3's
// "documented in the index-set manifest").
type Manifest struct {
	GenerationID      string         `json:"generation_id"`
	SetName           string         `json:"set_name"`
	GeneratedAt       time.Time      `json:"generated_at"`
	Documents         int            `json:"documents"`
	Sentences         int            `json:"sentences"`
	Keys              map[string]int `json:"keys"`
	HypernymRelations []string       `json:"hypernym_relations"`
}

func newManifest(setName string, stats Stats, cfg Config) Manifest {
	keys := make(map[string]int, len(stats.Keys))
	for t, n := range stats.Keys {
		keys[string(t)] = n
	}
	return Manifest{
		GenerationID:      uuid.NewString(),
		SetName:           setName,
		GeneratedAt:       time.Now().UTC(),
		Documents:         stats.Documents,
		Sentences:         stats.Sentences,
		Keys:              keys,
		HypernymRelations: cfg.HypernymRelations,
	}
}

func writeManifest(dir string, m Manifest) error {
	f, err := os.Create(dir + "/manifest.json")
	if err != nil {
		return corpuserr.Wrap(corpuserr.StorageError, err, "create manifest for %s", m.SetName)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(m); err != nil {
		return corpuserr.Wrap(corpuserr.StorageError, err, "write manifest for %s", m.SetName)
	}
	return nil
}

// ReadManifest loads the manifest written by the last generation run
// for the named index set.
func ReadManifest(root, setName string) (Manifest, error) {
	path := indexset.Dir(root, setName) + "/manifest.json"
	b, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, corpuserr.Wrap(corpuserr.StorageError, err, "read manifest %s", path)
	}
	var m Manifest
	if err := json.Unmarshal(b, &m); err != nil {
		return Manifest{}, corpuserr.Wrap(corpuserr.StorageError, err, "parse manifest %s", path)
	}
	return m, nil
}
