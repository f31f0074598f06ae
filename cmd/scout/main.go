package main

import (
	"bufio"
	"context"
	"flag"
	"log"
	"os"
	"time"

	"mangascout/internal/ai"
	"mangascout/internal/assets"
	"mangascout/internal/catalog"
	"mangascout/internal/extract"
	"mangascout/internal/fetch"
	"mangascout/internal/pipeline"
	"mangascout/internal/reconcile"
	"mangascout/internal/resolve"
	"mangascout/internal/translate"
	"mangascout/pkg/database"
	"mangascout/pkg/utils"
)

const smokeLimit = 3

func main() {
	var (
		input       = flag.String("input", "", "file with one title or URL per line")
		limit       = flag.Int("limit", 0, "process at most N inputs (0 = all)")
		smoke       = flag.Bool("smoke", false, "smoke run: cap the batch at 3 inputs")
		doTranslate = flag.Bool("translate", false, "translate extracted fields")
		lang        = flag.String("lang", "English", "target language for -translate")
		discover    = flag.Bool("discover", false, "seed inputs from the ranking listing sweep")
		discoverMax = flag.Int("discover-pages", 4, "max listing pages for -discover")
	)
	flag.Parse()

	cfg := utils.LoadPipelineConfig()

	db := database.MustOpen(database.DefaultConfig())
	defer db.Close()
	if err := database.Migrate(db); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	fetcher := fetch.NewClient(cfg.FetchTimeout)
	aiClient := ai.NewClient(cfg.AIBaseURL, cfg.AIModel, cfg.AIKey)
	store := catalog.NewSQLStore(db)

	p := &pipeline.Pipeline{
		Resolver:   resolve.NewResolver(fetcher, cfg.SearchAPIKey, cfg.SearchEngineID),
		Extractor:  extract.NewExtractor(fetcher, aiClient),
		Reconciler: reconcile.NewReconciler(store),
		Assets:     assets.NewAcquirer(fetcher, store, cfg.AssetDir),
		ItemDelay:  cfg.ItemDelay,
	}
	if *doTranslate {
		p.Translator = translate.NewTranslator(aiClient, *lang)
	}

	ctx := context.Background()

	inputs, err := gatherInputs(ctx, fetcher, cfg, *input, *discover, *discoverMax, flag.Args())
	if err != nil {
		log.Fatalf("gather inputs: %v", err)
	}
	if len(inputs) == 0 {
		log.Fatal("nothing to do: pass titles/URLs as args, -input FILE, or -discover")
	}

	if *smoke && len(inputs) > smokeLimit {
		inputs = inputs[:smokeLimit]
	}
	if *limit > 0 && len(inputs) > *limit {
		inputs = inputs[:*limit]
	}

	log.Printf("[scout] starting batch of %d input(s)", len(inputs))
	start := time.Now()
	stats := p.Run(ctx, inputs)
	elapsed := time.Since(start).Round(time.Second)

	log.Printf("[scout] done in %s: %d attempted, %d created, %d updated, %d unchanged, %d skipped, %d errored, %d covers stored",
		elapsed, stats.Attempted, stats.Created, stats.Updated, stats.Unchanged, stats.Skipped, stats.Errored, stats.Assets)
	if stats.Errored > 0 {
		os.Exit(1)
	}
}

func gatherInputs(ctx context.Context, fetcher *fetch.Client, cfg utils.PipelineConfig, inputPath string, discover bool, discoverMax int, args []string) ([]string, error) {
	var inputs []string
	inputs = append(inputs, args...)

	if inputPath != "" {
		fromFile, err := readLines(inputPath)
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, fromFile...)
	}

	if discover {
		d := &pipeline.Discoverer{
			Fetcher:   fetcher,
			MaxPages:  discoverMax,
			PageDelay: cfg.PageDelay,
		}
		found, err := d.Discover(ctx)
		if err != nil {
			return nil, err
		}
		log.Printf("[scout] discovery found %d entries", len(found))
		inputs = append(inputs, found...)
	}
	return inputs, nil
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines, sc.Err()
}
