package extract

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"mangascout/internal/ai"
	"mangascout/internal/fetch"
	"mangascout/pkg/models"
)

// Page is one fetched document handed to a site profile.
type Page struct {
	URL string
	Doc *goquery.Document
	Raw string
}

// Profile is the rule set for one known site's page shape. Detect decides
// from the URL alone; Extract pulls whatever fields the page offers.
// Missing fields are zero values, never errors.
type Profile interface {
	Name() string
	Detect(url string) bool
	Extract(ctx context.Context, ex *Extractor, page *Page) (*models.ExtractionResult, error)
}

// Extractor fetches a page and routes it to the first matching profile,
// with the AI-assisted generic profile as the catch-all.
type Extractor struct {
	Fetcher  *fetch.Client
	AI       *ai.Client
	Profiles []Profile
}

func NewExtractor(fetcher *fetch.Client, aiClient *ai.Client) *Extractor {
	return &Extractor{
		Fetcher: fetcher,
		AI:      aiClient,
		Profiles: []Profile{
			&MyAnimeList{},
			&MangaUpdates{},
			&Kitsu{},
		},
	}
}

// Extract fetches url and returns the structured facts found on it.
// A fetch failure is the only hard error; an unrecognized or sparse page
// still yields a (possibly near-empty) result.
func (e *Extractor) Extract(ctx context.Context, url string) (*models.ExtractionResult, error) {
	body, err := e.Fetcher.Get(ctx, url)
	if err != nil {
		return nil, err
	}
	page, err := parsePage(url, body)
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", url, err)
	}

	for _, p := range e.Profiles {
		if p.Detect(url) {
			log.Printf("[extract] %s matched profile %s", url, p.Name())
			return p.Extract(ctx, e, page)
		}
	}

	log.Printf("[extract] %s unrecognized, using generic profile", url)
	return e.genericExtract(ctx, page)
}

func parsePage(url, body string) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return &Page{URL: url, Doc: doc, Raw: body}, nil
}

// clampRating converts source rating scales to the canonical 0-10 scale.
// Percentage-based sources (0-100) are divided down; anything that still
// falls outside the scale is dropped.
func clampRating(v float64) float64 {
	if v > 10 {
		v = v / 10
	}
	if v < 0 || v > 10 {
		return 0
	}
	return v
}

// normalizeStatus maps a source's publication phrasing to the catalog's
// status enumeration. Unknown phrasing maps to "" so the fill-only merge
// leaves any existing value alone.
func normalizeStatus(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "publishing", "ongoing", "releasing", "current":
		return models.StatusTracked
	case "finished", "completed", "complete":
		return models.StatusComplete
	case "on hiatus", "hiatus", "paused":
		return models.StatusPaused
	case "discontinued", "cancelled", "canceled", "dropped":
		return models.StatusAbandoned
	default:
		return ""
	}
}

var numberRe = regexp.MustCompile(`\d+`)

// parseCount pulls the first integer out of strings like "Chapters: 139"
// or "139 chapters (complete)".
func parseCount(s string) int {
	m := numberRe.FindString(s)
	if m == "" {
		return 0
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0
	}
	return n
}

var ratingRe = regexp.MustCompile(`\d+(?:\.\d+)?`)

// parseRating pulls the first decimal out of strings like
// "Bayesian Average: 8.21 / 10.0" or "84% approved".
func parseRating(s string) float64 {
	m := ratingRe.FindString(s)
	if m == "" {
		return 0
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0
	}
	return v
}

func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func appendIfMissing(slice []string, v string) []string {
	for _, x := range slice {
		if x == v {
			return slice
		}
	}
	return append(slice, v)
}
