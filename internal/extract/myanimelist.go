package extract

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"mangascout/pkg/models"
)

// MyAnimeList is the primary trusted site. It renders two shapes we care
// about: the search listing (manga.php?q=...) and the entry detail page
// (/manga/<id>/<slug>). A listing resolves to its first entry link and the
// detail rules run once on that.
type MyAnimeList struct{}

const malBase = "https://myanimelist.net"

var malEntryRe = regexp.MustCompile(`myanimelist\.net/manga/(\d+)`)

func (p *MyAnimeList) Name() string { return "myanimelist" }

func (p *MyAnimeList) Detect(url string) bool {
	return strings.Contains(url, "myanimelist.net")
}

func (p *MyAnimeList) Extract(ctx context.Context, ex *Extractor, page *Page) (*models.ExtractionResult, error) {
	if isMALListing(page) {
		entry := FirstMALEntryLink(page.Doc)
		if entry == "" {
			return &models.ExtractionResult{SourceURL: page.URL}, nil
		}
		log.Printf("[extract] myanimelist listing -> %s", entry)
		body, err := ex.Fetcher.Get(ctx, entry)
		if err != nil {
			return nil, err
		}
		detail, err := parsePage(entry, body)
		if err != nil {
			return nil, fmt.Errorf("extract %s: %w", entry, err)
		}
		return p.extractDetail(detail), nil
	}
	return p.extractDetail(page), nil
}

func isMALListing(page *Page) bool {
	if strings.Contains(page.URL, "manga.php") {
		return true
	}
	// a detail page always carries the itemprop name node
	return page.Doc.Find(`span[itemprop="name"]`).Length() == 0 &&
		page.Doc.Find(`a.hoverinfo_trigger`).Length() > 0
}

// FirstMALEntryLink finds the top entry link on a MAL search listing,
// trying the result-table rows first and any /manga/<id> anchor second.
// Shared with the resolver's direct-search strategy.
func FirstMALEntryLink(doc *goquery.Document) string {
	link := ""
	doc.Find(`table a.hoverinfo_trigger`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if href, ok := s.Attr("href"); ok && malEntryRe.MatchString(href) {
			link = href
			return false
		}
		return true
	})
	if link != "" {
		return absMAL(link)
	}
	doc.Find(`a[href]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, _ := s.Attr("href")
		if malEntryRe.MatchString(href) {
			link = href
			return false
		}
		return true
	})
	return absMAL(link)
}

func absMAL(href string) string {
	if href == "" || strings.HasPrefix(href, "http") {
		return href
	}
	return malBase + strings.TrimPrefix(href, "/")
}

func (p *MyAnimeList) extractDetail(page *Page) *models.ExtractionResult {
	doc := page.Doc
	res := &models.ExtractionResult{SourceURL: page.URL}

	res.Title = cleanText(doc.Find(`span[itemprop="name"]`).First().Contents().Not("span").Text())
	if res.Title == "" {
		res.Title = cleanText(doc.Find("h1.title-name").First().Text())
	}

	if en := cleanText(doc.Find("span.title-english").First().Text()); en != "" && en != res.Title {
		res.AltTitles = appendIfMissing(res.AltTitles, en)
	}

	res.Synopsis = cleanText(doc.Find(`span[itemprop="description"]`).First().Text())

	doc.Find(`span[itemprop="genre"]`).Each(func(_ int, s *goquery.Selection) {
		if g := cleanText(s.Text()); g != "" {
			res.Genres = appendIfMissing(res.Genres, g)
		}
	})

	// MAL scores are already on the canonical 0-10 scale.
	res.Rating = clampRating(parseRating(doc.Find("div.score-label").First().Text()))

	// sidebar rows: "Status: Finished", "Chapters: 139", "Japanese: ...",
	// "Synonyms: a, b", "Authors: Name (Story & Art)"
	doc.Find("div.spaceit_pad").Each(func(_ int, s *goquery.Selection) {
		label := cleanText(s.Find("span.dark_text").Text())
		value := cleanText(strings.TrimPrefix(cleanText(s.Text()), label))
		switch strings.TrimSuffix(label, ":") {
		case "Status":
			res.Status = normalizeStatus(value)
		case "Chapters":
			res.TotalChapters = parseCount(value)
		case "Japanese":
			if value != "" && value != res.Title {
				res.AltTitles = appendIfMissing(res.AltTitles, value)
			}
		case "Synonyms":
			for _, syn := range strings.Split(value, ",") {
				if syn = cleanText(syn); syn != "" && syn != res.Title {
					res.AltTitles = appendIfMissing(res.AltTitles, syn)
				}
			}
		case "Authors":
			parseMALAuthors(s, res)
		}
	})

	if img, ok := doc.Find(`img[itemprop="image"]`).First().Attr("data-src"); ok {
		res.CoverURL = img
	} else if img, ok := doc.Find(`img[itemprop="image"]`).First().Attr("src"); ok {
		res.CoverURL = img
	}

	return res
}

// parseMALAuthors splits "Name (Story), Other (Art)" into author/artist.
// A bare "(Story & Art)" credit fills both.
func parseMALAuthors(s *goquery.Selection, res *models.ExtractionResult) {
	s.Find("a").Each(func(_ int, a *goquery.Selection) {
		name := cleanText(a.Text())
		if name == "" {
			return
		}
		role := ""
		if next := a.Nodes[0].NextSibling; next != nil {
			role = strings.ToLower(next.Data)
		}
		hasStory := strings.Contains(role, "story")
		hasArt := strings.Contains(role, "art")
		switch {
		case hasStory && hasArt:
			if res.Author == "" {
				res.Author = name
			}
			if res.Artist == "" {
				res.Artist = name
			}
		case hasArt:
			if res.Artist == "" {
				res.Artist = name
			}
		default:
			if res.Author == "" {
				res.Author = name
			}
		}
	})
}
