package resolve

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"mangascout/internal/extract"
	"mangascout/internal/fetch"
)

// ErrExhausted reports that every strategy came back empty.
var ErrExhausted = errors.New("resolve: all strategies exhausted")

// AllowList is the fixed set of trusted domains search results are
// filtered against.
var AllowList = []string{
	"myanimelist.net",
	"mangaupdates.com",
	"kitsu.app",
	"anilist.co",
}

// qualifier terms appended to every search-engine query.
const searchQualifier = "manga"

const maxRawResults = 5

// Resolver turns a human-entered title into candidate page URLs, trying
// strategies in order and short-circuiting on the first one that yields a
// usable candidate:
//
//  1. direct search on the primary site (MyAnimeList)
//  2. curated search API (Google Custom Search) scoped to AllowList
//  3. raw DuckDuckGo results scrape filtered to AllowList
//  4. a synthesized primary-site search URL, returned unscraped
//
// The base URLs are fields so tests can point them at local servers.
type Resolver struct {
	Fetcher *fetch.Client

	SearchAPIKey   string
	SearchEngineID string

	MALBase       string
	SearchAPIBase string
	DDGBase       string
}

func NewResolver(fetcher *fetch.Client, apiKey, engineID string) *Resolver {
	return &Resolver{
		Fetcher:        fetcher,
		SearchAPIKey:   apiKey,
		SearchEngineID: engineID,
		MALBase:        "https://myanimelist.net",
		SearchAPIBase:  "https://www.googleapis.com",
		DDGBase:        "https://html.duckduckgo.com",
	}
}

type strategy struct {
	name string
	fn   func(ctx context.Context, title string) ([]string, bool)
}

// Resolve returns candidate URLs ordered by confidence.
func (r *Resolver) Resolve(ctx context.Context, title string) ([]string, error) {
	strategies := []strategy{
		{"direct-search", r.directSearch},
		{"curated-api", r.curatedAPI},
		{"raw-scrape", r.rawScrape},
		{"last-resort", r.lastResort},
	}

	for _, st := range strategies {
		urls, ok := st.fn(ctx, title)
		if ok && len(urls) > 0 {
			log.Printf("[resolve] %q: strategy %s yielded %d candidate(s)", title, st.name, len(urls))
			return urls, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrExhausted, title)
}

// directSearch fetches the primary site's own search listing and tries
// three heuristics in order: the results-table row link, any entry-pattern
// link, and an anchor whose title attribute matches the query.
func (r *Resolver) directSearch(ctx context.Context, title string) ([]string, bool) {
	searchURL := r.searchURL(title)
	body, err := r.Fetcher.Get(ctx, searchURL)
	if err != nil {
		log.Printf("[resolve] direct search failed: %v", err)
		return nil, false
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, false
	}

	if link := extract.FirstMALEntryLink(doc); link != "" {
		return []string{link}, true
	}

	// title-attribute match, last-ditch on oddly rendered listings
	hit := ""
	doc.Find("a[title]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		t, _ := s.Attr("title")
		href, _ := s.Attr("href")
		if strings.EqualFold(strings.TrimSpace(t), title) && href != "" {
			hit = href
			return false
		}
		return true
	})
	if hit != "" {
		return []string{hit}, true
	}
	return nil, false
}

type customSearchResponse struct {
	Items []struct {
		Link string `json:"link"`
	} `json:"items"`
}

// curatedAPI queries Google Custom Search constrained to AllowList.
// Without an engine id there is nothing to call; degrade to handing back
// the trusted sites' own search URLs instead.
func (r *Resolver) curatedAPI(ctx context.Context, title string) ([]string, bool) {
	if r.SearchEngineID == "" {
		urls := directSearchURLs(title)
		log.Printf("[resolve] curated api unconfigured, degrading to %d direct-search URLs", len(urls))
		return urls, true
	}

	q := url.Values{}
	q.Set("key", r.SearchAPIKey)
	q.Set("cx", r.SearchEngineID)
	q.Set("q", title+" "+searchQualifier)
	apiURL := r.SearchAPIBase + "/customsearch/v1?" + q.Encode()

	body, err := r.Fetcher.Get(ctx, apiURL)
	if err != nil {
		log.Printf("[resolve] curated api failed: %v", err)
		return nil, false
	}

	var cs customSearchResponse
	if err := json.Unmarshal([]byte(body), &cs); err != nil {
		log.Printf("[resolve] curated api: decode: %v", err)
		return nil, false
	}

	var out []string
	for _, item := range cs.Items {
		if allowListed(item.Link) {
			out = appendUnique(out, item.Link)
		}
	}
	return out, len(out) > 0
}

// rawScrape pulls a public DuckDuckGo results page and decodes the uddg
// redirect-wrapper parameter on each outbound link.
func (r *Resolver) rawScrape(ctx context.Context, title string) ([]string, bool) {
	q := url.Values{}
	q.Set("q", title+" "+searchQualifier)
	body, err := r.Fetcher.Get(ctx, r.DDGBase+"/html/?"+q.Encode())
	if err != nil {
		log.Printf("[resolve] raw scrape failed: %v", err)
		return nil, false
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, false
	}

	var out []string
	doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, _ := s.Attr("href")
		target := decodeRedirect(href)
		if target != "" && allowListed(target) {
			out = appendUnique(out, target)
		}
		return len(out) < maxRawResults
	})
	return out, len(out) > 0
}

// lastResort synthesizes the primary site's search URL from the raw title
// and returns it unscraped; extraction's listing handling takes it from
// there.
func (r *Resolver) lastResort(_ context.Context, title string) ([]string, bool) {
	return []string{r.searchURL(title)}, true
}

func (r *Resolver) searchURL(title string) string {
	return r.MALBase + "/manga.php?q=" + url.QueryEscape(title)
}

// directSearchURLs builds each trusted site's own search endpoint for the
// title, used when the curated API cannot be called.
func directSearchURLs(title string) []string {
	esc := url.QueryEscape(title)
	return []string{
		"https://myanimelist.net/manga.php?q=" + esc,
		"https://www.mangaupdates.com/series.html?search=" + esc,
		"https://kitsu.app/manga?text=" + esc,
		"https://anilist.co/search/manga?search=" + esc,
	}
}

// decodeRedirect unwraps DuckDuckGo's /l/?uddg=<encoded> result links.
func decodeRedirect(href string) string {
	if !strings.Contains(href, "uddg=") {
		return ""
	}
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	target := u.Query().Get("uddg")
	if target == "" {
		return ""
	}
	return target
}

func allowListed(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	for _, domain := range AllowList {
		if host == domain || strings.HasSuffix(host, "."+domain) {
			return true
		}
	}
	return false
}

func appendUnique(slice []string, v string) []string {
	for _, x := range slice {
		if x == v {
			return slice
		}
	}
	return append(slice, v)
}
