// Command corpusindex builds one named index set from the document
// and annotation store, writing the eight on-disk indexes plus the
// stitch synonym tables and generation manifest under --index-dir
// (spec.md §4.3, §5, §6).
package main

import (
	"context"
	"log"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"github.com/halsted/corpusql/internal/config"
	"github.com/halsted/corpusql/internal/docstore"
	"github.com/halsted/corpusql/internal/generator"
)

func main() {
	fs := pflag.NewFlagSet("corpusindex", pflag.ContinueOnError)

	setName := fs.String("set-name", "default", "Name of the index set to (re)build")
	preserveExisting := fs.Bool("preserve-existing", false, "Refuse to overwrite a non-empty index directory")

	cfg, err := config.Load("", fs)
	if err != nil {
		log.Fatalf("load configuration: %v", err)
	}
	fs.Usage = cfg.Usage

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Fatalf("invalid log level %q: %v", cfg.LogLevel, err)
	}
	zerolog.SetGlobalLevel(level)
	logger := zerolog.New(log.Writer()).Level(level).With().Timestamp().Logger()
	logger.Info().Str("index_dir", cfg.IndexDir).Str("set_name", *setName).Msg("starting index generation")

	ctx := context.Background()
	store, err := docstore.NewPGStore(ctx, cfg.DocStoreDSN)
	if err != nil {
		log.Fatalf("connect document store: %v", err)
	}
	defer store.Close()

	if err := store.Migrate(ctx); err != nil {
		log.Fatalf("migrate document store: %v", err)
	}

	stopwords, err := docstore.LoadStopwords(cfg.StopwordsPath)
	if err != nil {
		log.Fatalf("load stopwords %s: %v", cfg.StopwordsPath, err)
	}

	genCfg := generator.Config{
		Stopwords:         stopwords,
		HypernymRelations: cfg.Relations(),
		BatchSize:         cfg.BatchSize,
	}

	stats, err := generator.Run(ctx, store, store, cfg.IndexDir, *setName, genCfg, *preserveExisting)
	if err != nil {
		log.Fatalf("generate index set %s: %v", *setName, err)
	}

	logger.Info().Int("documents", stats.Documents).Int("sentences", stats.Sentences).Msg("index generation finished")
}
