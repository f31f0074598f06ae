package pipeline

import (
	"context"
	"log"
	"strings"
	"time"

	"mangascout/internal/reconcile"
	"mangascout/pkg/models"
)

// The orchestrator drives each input through these collaborators. They are
// interfaces so tests can stand in fakes for the network-facing pieces.
type Resolver interface {
	Resolve(ctx context.Context, title string) ([]string, error)
}

type Extractor interface {
	Extract(ctx context.Context, url string) (*models.ExtractionResult, error)
}

type Translator interface {
	Translate(ctx context.Context, in *models.ExtractionResult) *models.ExtractionResult
}

type Reconciler interface {
	Reconcile(ctx context.Context, in *models.ExtractionResult) (*reconcile.Result, error)
}

type AssetAcquirer interface {
	AcquireIfMissing(ctx context.Context, itemID string, hasCover bool, imageURL string) (string, error)
}

// Stats is the batch outcome summary. Skipped counts inputs whose pages
// yielded no title (nothing viable to reconcile); Errored counts genuine
// per-item failures.
type Stats struct {
	Attempted int
	Created   int
	Updated   int
	Unchanged int
	Skipped   int
	Errored   int
	Assets    int
}

// Pipeline sequences resolve -> extract -> (translate) -> reconcile ->
// acquire-asset over a batch of inputs, strictly one item at a time.
// A failure in any stage is logged, counted, and never aborts the batch.
type Pipeline struct {
	Resolver   Resolver
	Extractor  Extractor
	Translator Translator // nil disables the translating stage
	Reconciler Reconciler
	Assets     AssetAcquirer

	// ItemDelay is the politeness pause between items.
	ItemDelay time.Duration
}

// Run processes inputs in order. An input starting with http:// or
// https:// skips resolution and goes straight to extraction.
func (p *Pipeline) Run(ctx context.Context, inputs []string) *Stats {
	stats := &Stats{}

	for i, input := range inputs {
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		if i > 0 && p.ItemDelay > 0 {
			select {
			case <-time.After(p.ItemDelay):
			case <-ctx.Done():
				log.Printf("[pipeline] stopped between items: %v", ctx.Err())
				return stats
			}
		}

		stats.Attempted++
		p.processOne(ctx, input, stats)
	}
	return stats
}

func (p *Pipeline) processOne(ctx context.Context, input string, stats *Stats) {
	candidates := []string{input}
	if !isURL(input) {
		log.Printf("[pipeline] resolving %q", input)
		urls, err := p.Resolver.Resolve(ctx, input)
		if err != nil || len(urls) == 0 {
			log.Printf("[pipeline] resolution failed for %q: %v", input, err)
			stats.Errored++
			return
		}
		candidates = urls
	}

	result := p.extractFirst(ctx, input, candidates)
	if result == nil {
		stats.Errored++
		return
	}
	if result.Title == "" {
		log.Printf("[pipeline] no title on any candidate for %q, skipping", input)
		stats.Skipped++
		return
	}

	if p.Translator != nil {
		log.Printf("[pipeline] translating %q", result.Title)
		result = p.Translator.Translate(ctx, result)
	}

	log.Printf("[pipeline] reconciling %q", result.Title)
	rec, err := p.Reconciler.Reconcile(ctx, result)
	if err != nil {
		// a failure here means the store's atomic unit broke or the
		// store itself is down; worth alerting on, but the batch goes on
		log.Printf("[pipeline] RECONCILE FAILED for %q (%s): %v", result.Title, result.SourceURL, err)
		stats.Errored++
		return
	}
	switch rec.Outcome {
	case reconcile.OutcomeCreated:
		stats.Created++
	case reconcile.OutcomeUpdated:
		stats.Updated++
	default:
		stats.Unchanged++
	}

	if filename, err := p.Assets.AcquireIfMissing(ctx, rec.ItemID, rec.HasCover, rec.CoverURL); err != nil {
		log.Printf("[pipeline] cover acquisition failed for %q: %v", rec.Title, err)
	} else if filename != "" {
		stats.Assets++
	}
}

// extractFirst walks the candidate URLs in confidence order and returns
// the first extraction that worked at all. nil means every candidate
// failed hard (fetch/parse), which is an item-level error.
func (p *Pipeline) extractFirst(ctx context.Context, input string, candidates []string) *models.ExtractionResult {
	var last *models.ExtractionResult
	for _, url := range candidates {
		log.Printf("[pipeline] extracting %s", url)
		res, err := p.Extractor.Extract(ctx, url)
		if err != nil {
			log.Printf("[pipeline] extraction failed for %s: %v", url, err)
			continue
		}
		if res.Title != "" {
			return res
		}
		last = res
	}
	if last != nil {
		// pages fetched fine but none named the work
		return last
	}
	log.Printf("[pipeline] all %d candidate(s) failed for %q", len(candidates), input)
	return nil
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
