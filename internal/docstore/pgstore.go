package docstore

import (
	"bufio"
	"context"
	"errors"
	"os"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/halsted/corpusql/internal/corpuserr"
	"github.com/halsted/corpusql/pkg/models"
)

// PGStore implements DocumentStore and AnnotationStore against the
// schema of spec.md §6: documents(document_id, title, text, timestamp),
// annotations(...), dependencies(...). It mirrors the connection
// lifecycle of the teacher's internal/store.Store: a pooled pgx
// connection opened once per process and closed on shutdown.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore connects to the document/annotation database at dsn.
func NewPGStore(ctx context.Context, dsn string) (*PGStore, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, corpuserr.Wrap(corpuserr.DocStoreError, err, "parse document store DSN")
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, corpuserr.Wrap(corpuserr.DocStoreError, err, "connect to document store")
	}
	return &PGStore{pool: pool}, nil
}

// Close releases the pool.
func (s *PGStore) Close() { s.pool.Close() }

// Migrate creates the schema of spec.md §6 if absent. This lives on the
// ingestion side of the boundary in spec.md's own terms, but the core
// still owns schema creation the way the teacher's store.Migrate does,
// since tests and the CLI need a runnable, self-contained database.
func (s *PGStore) Migrate(ctx context.Context) error {
	const q = `
CREATE TABLE IF NOT EXISTS documents (
  document_id INT PRIMARY KEY,
  title       TEXT NOT NULL,
  text        TEXT NOT NULL,
  timestamp   TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS annotations (
  annotation_id  BIGSERIAL PRIMARY KEY,
  document_id    INT NOT NULL,
  sentence_id    INT NOT NULL,
  begin_char     INT NOT NULL,
  end_char       INT NOT NULL,
  token          TEXT NOT NULL,
  lemma          TEXT NOT NULL,
  pos            TEXT NOT NULL,
  ner            TEXT NOT NULL DEFAULT '',
  normalized_ner TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS annotations_doc_sentence_idx
  ON annotations (document_id, sentence_id, begin_char);

CREATE TABLE IF NOT EXISTS dependencies (
  dependency_id   BIGSERIAL PRIMARY KEY,
  document_id     INT NOT NULL,
  sentence_id     INT NOT NULL,
  begin_char      INT NOT NULL,
  end_char        INT NOT NULL,
  head_token      INT NOT NULL,
  dependent_token INT NOT NULL,
  relation        TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS dependencies_doc_sentence_idx
  ON dependencies (document_id, sentence_id);
`
	_, err := s.pool.Exec(ctx, q)
	if err != nil {
		return corpuserr.Wrap(corpuserr.StorageError, err, "migrate document store schema")
	}
	return nil
}

// Get implements DocumentStore.
func (s *PGStore) Get(ctx context.Context, id uint32) (models.Document, error) {
	const q = `SELECT document_id, title, text, timestamp FROM documents WHERE document_id = $1`
	var d models.Document
	err := s.pool.QueryRow(ctx, q, id).Scan(&d.ID, &d.Title, &d.Text, &d.Timestamp)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Document{}, corpuserr.New(corpuserr.DocStoreError, "document %d not found", id)
	}
	if err != nil {
		return models.Document{}, corpuserr.Wrap(corpuserr.DocStoreError, err, "fetch document %d", id)
	}
	return d, nil
}

// Metadata implements DocumentStore. Only the base Document fields
// "title" and "timestamp" are addressable; unknown
// fields report found=false rather than erroring, matching the never-
// fails posture of the table assembler's optional columns (spec.md
// §4.11).
func (s *PGStore) Metadata(ctx context.Context, id uint32, field string) (string, bool, error) {
	doc, err := s.Get(ctx, id)
	if err != nil {
		return "", false, err
	}
	switch strings.ToLower(field) {
	case "title":
		return doc.Title, true, nil
	case "timestamp":
		return doc.Timestamp.Format("2006-01-02T15:04:05Z07:00"), true, nil
	default:
		return "", false, nil
	}
}

// SentenceTokens implements AnnotationStore.
func (s *PGStore) SentenceTokens(ctx context.Context, documentID uint32, sentenceID int32) ([]models.TokenAnnotation, error) {
	const q = `
SELECT document_id, sentence_id, begin_char, end_char, token, lemma, pos, ner, normalized_ner
FROM annotations
WHERE document_id = $1 AND sentence_id = $2
ORDER BY begin_char`
	rows, err := s.pool.Query(ctx, q, documentID, sentenceID)
	if err != nil {
		return nil, corpuserr.Wrap(corpuserr.DocStoreError, err, "fetch tokens for %d/%d", documentID, sentenceID)
	}
	defer rows.Close()
	return scanTokens(rows)
}

// SentenceDependencies implements AnnotationStore.
func (s *PGStore) SentenceDependencies(ctx context.Context, documentID uint32, sentenceID int32) ([]models.DependencyEdge, error) {
	const q = `
SELECT document_id, sentence_id, head_token, dependent_token, relation, begin_char, end_char
FROM dependencies
WHERE document_id = $1 AND sentence_id = $2`
	rows, err := s.pool.Query(ctx, q, documentID, sentenceID)
	if err != nil {
		return nil, corpuserr.Wrap(corpuserr.DocStoreError, err, "fetch dependencies for %d/%d", documentID, sentenceID)
	}
	defer rows.Close()
	return scanDependencies(rows)
}

// Sentences implements AnnotationStore by deriving sentence boundaries
// from the min/max token position observed per sentence_id.
func (s *PGStore) Sentences(ctx context.Context, documentID uint32) ([]models.Sentence, error) {
	const q = `
SELECT sentence_id, MIN(begin_char), MAX(end_char)
FROM annotations
WHERE document_id = $1
GROUP BY sentence_id
ORDER BY sentence_id`
	rows, err := s.pool.Query(ctx, q, documentID)
	if err != nil {
		return nil, corpuserr.Wrap(corpuserr.DocStoreError, err, "fetch sentences for %d", documentID)
	}
	defer rows.Close()

	var out []models.Sentence
	for rows.Next() {
		var sent models.Sentence
		sent.DocumentID = documentID
		if err := rows.Scan(&sent.SentenceID, &sent.TokenStart, &sent.TokenEnd); err != nil {
			return nil, corpuserr.Wrap(corpuserr.DocStoreError, err, "scan sentence row")
		}
		out = append(out, sent)
	}
	return out, rows.Err()
}

// ListIDs implements DocumentStore by paging through documents with
// keyset pagination on document_id, the bounded-batch idiom the index
// generators rely on (spec.md §4.3, §5).
func (s *PGStore) ListIDs(ctx context.Context) ([]uint32, error) {
	const batchSize = 1000
	var out []uint32
	var last int64 = -1
	for {
		const q = `SELECT document_id FROM documents WHERE document_id > $1 ORDER BY document_id LIMIT $2`
		rows, err := s.pool.Query(ctx, q, last, batchSize)
		if err != nil {
			return nil, corpuserr.Wrap(corpuserr.StorageError, err, "list document ids")
		}
		n := 0
		for rows.Next() {
			var id int64
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return nil, corpuserr.Wrap(corpuserr.StorageError, err, "scan document id")
			}
			out = append(out, uint32(id))
			last = id
			n++
		}
		rows.Close()
		if n < batchSize {
			return out, nil
		}
	}
}

func scanTokens(rows pgx.Rows) ([]models.TokenAnnotation, error) {
	var out []models.TokenAnnotation
	for rows.Next() {
		var t models.TokenAnnotation
		if err := rows.Scan(&t.DocumentID, &t.SentenceID, &t.BeginChar, &t.EndChar, &t.Token, &t.Lemma, &t.POS, &t.NER, &t.NormalizedNER); err != nil {
			return nil, corpuserr.Wrap(corpuserr.DocStoreError, err, "scan token row")
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func scanDependencies(rows pgx.Rows) ([]models.DependencyEdge, error) {
	var out []models.DependencyEdge
	for rows.Next() {
		var d models.DependencyEdge
		if err := rows.Scan(&d.DocumentID, &d.SentenceID, &d.HeadToken, &d.DependentToken, &d.Relation, &d.BeginChar, &d.EndChar); err != nil {
			return nil, corpuserr.Wrap(corpuserr.DocStoreError, err, "scan dependency row")
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// LoadStopwords reads one lowercased word per line from path.
func LoadStopwords(path string) (MapStopwordSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, corpuserr.Wrap(corpuserr.StorageError, err, "open stopword file %s", path)
	}
	defer f.Close()

	var words []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		w := strings.ToLower(strings.TrimSpace(sc.Text()))
		if w == "" || strings.HasPrefix(w, "#") {
			continue
		}
		words = append(words, w)
	}
	if err := sc.Err(); err != nil {
		return nil, corpuserr.Wrap(corpuserr.StorageError, err, "read stopword file %s", path)
	}
	return NewStopwordSet(words), nil
}
