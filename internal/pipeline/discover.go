package pipeline

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"mangascout/internal/fetch"
)

const (
	defaultListingURL = "https://myanimelist.net/topmanga.php?limit=%d"
	listingPageSize   = 50

	// after this many pages in a row contribute nothing new, the
	// listing has looped or run dry and the sweep stops early
	staleSweepPages = 3
)

var entryLinkRe = regexp.MustCompile(`/manga/\d+`)

// Discoverer walks a paginated ranking listing and collects entry URLs
// to feed the pipeline, for catalog seeding runs where no explicit
// inputs exist.
type Discoverer struct {
	Fetcher *fetch.Client

	// ListingURL must contain one %d verb for the page offset.
	// Empty selects the default top-ranked listing.
	ListingURL string
	MaxPages   int
	PageDelay  time.Duration
}

// Discover returns the entry URLs found across the sweep, deduplicated
// and in first-seen order. A page that fails to fetch ends the sweep
// with whatever was already collected; an error is returned only when
// the very first page fails.
func (d *Discoverer) Discover(ctx context.Context) ([]string, error) {
	listing := d.ListingURL
	if listing == "" {
		listing = defaultListingURL
	}
	maxPages := d.MaxPages
	if maxPages <= 0 {
		maxPages = 1
	}

	seen := make(map[string]bool)
	var urls []string
	stale := 0

	for page := 0; page < maxPages; page++ {
		if page > 0 && d.PageDelay > 0 {
			select {
			case <-time.After(d.PageDelay):
			case <-ctx.Done():
				return urls, ctx.Err()
			}
		}

		pageURL := fmt.Sprintf(listing, page*listingPageSize)
		body, err := d.Fetcher.Get(ctx, pageURL)
		if err != nil {
			if page == 0 {
				return nil, fmt.Errorf("discovery sweep: %w", err)
			}
			log.Printf("[discover] page %d failed, stopping sweep: %v", page, err)
			break
		}

		added := 0
		for _, link := range entryLinks(body) {
			if seen[link] {
				continue
			}
			seen[link] = true
			urls = append(urls, link)
			added++
		}
		log.Printf("[discover] page %d: %d new entries (total %d)", page, added, len(urls))

		if added == 0 {
			stale++
			if stale >= staleSweepPages {
				log.Printf("[discover] %d stale pages in a row, stopping sweep", stale)
				break
			}
		} else {
			stale = 0
		}
	}
	return urls, nil
}

func entryLinks(body string) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil
	}
	var links []string
	doc.Find(`a[href]`).Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if !entryLinkRe.MatchString(href) {
			return
		}
		// anchors inside an entry row repeat the same href with
		// fragments or query noise attached
		if i := strings.IndexAny(href, "?#"); i >= 0 {
			href = href[:i]
		}
		links = append(links, href)
	})
	return links
}
