package indexset

import (
	"os"
	"path/filepath"

	"github.com/karrick/godirwalk"

	"github.com/halsted/corpusql/internal/corpuserr"
	"github.com/halsted/corpusql/internal/synonym"
)

// CheckLayout validates that <root>/<name>/ has every directory and
// synonym file the on-disk layout of spec.md §6 requires, before Open
// attempts to open each Badger store in turn. It walks the set
// directory with godirwalk rather than os.ReadDir, following the
// teacher's indexer preference for a single-allocation directory
// scanner over repeated stat calls, and turns a missing/misnamed entry
// into one readable SchemaError instead of eight separate Badger
// open failures.
func CheckLayout(root, name string) error {
	dir := Dir(root, name)

	seen := map[string]bool{}
	err := godirwalk.Walk(dir, &godirwalk.Options{
		Callback: func(path string, de *godirwalk.Dirent) error {
			if path == dir {
				return nil
			}
			rel, relErr := filepath.Rel(dir, path)
			if relErr != nil {
				return relErr
			}
			if filepath.Dir(rel) == "." && de.IsDir() {
				seen[rel] = true
			}
			return nil
		},
		Unsorted: true,
	})
	if err != nil {
		return corpuserr.Wrap(corpuserr.StorageError, err, "scan index set directory %s", dir)
	}

	var missing []string
	for _, t := range AllTypes {
		if !seen[string(t)] {
			missing = append(missing, string(t))
		}
	}
	if len(missing) > 0 {
		return corpuserr.New(corpuserr.SchemaError, "index set %q is missing directories: %v", name, missing)
	}

	for _, k := range []synonym.Kind{synonym.KindDate, synonym.KindNER, synonym.KindPOS, synonym.KindDependency} {
		path := filepath.Join(dir, string(Stitch), k.FileName())
		if !fileExists(path) {
			return corpuserr.New(corpuserr.SchemaError, "index set %q is missing synonym file %s", name, path)
		}
	}
	return nil
}

func fileExists(p string) bool {
	fi, err := os.Stat(p)
	return err == nil && !fi.IsDir()
}
