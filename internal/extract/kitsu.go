package extract

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"mangascout/pkg/models"
)

// Kitsu extracts from kitsu.app manga pages. Most structured data is in
// the OpenGraph meta tags; the community rating is an approval percentage
// (0-100), normalized here to the canonical 0-10 scale.
type Kitsu struct{}

func (p *Kitsu) Name() string { return "kitsu" }

func (p *Kitsu) Detect(url string) bool {
	return strings.Contains(url, "kitsu.app") || strings.Contains(url, "kitsu.io")
}

func (p *Kitsu) Extract(_ context.Context, _ *Extractor, page *Page) (*models.ExtractionResult, error) {
	doc := page.Doc
	res := &models.ExtractionResult{SourceURL: page.URL}

	res.Title = strings.TrimSuffix(metaContent(doc, "og:title"), " | Kitsu")
	if res.Title == "" {
		res.Title = cleanText(doc.Find("h3.media-title").First().Text())
	}

	res.Synopsis = metaContent(doc, "og:description")
	if res.Synopsis == "" {
		res.Synopsis = cleanText(doc.Find("div.media-summary p").First().Text())
	}

	if og := metaContent(doc, "og:image"); og != "" {
		res.CoverURL = og
	}

	// "84% approved" community approval, a 0-100 scale
	res.Rating = clampRating(parseRating(doc.Find("span.percentage").First().Text()))

	doc.Find("div.media-genres a, ul.media-genres a").Each(func(_ int, s *goquery.Selection) {
		if g := cleanText(s.Text()); g != "" {
			res.Genres = appendIfMissing(res.Genres, g)
		}
	})

	doc.Find("ul.media-info li, div.media-info li").Each(func(_ int, s *goquery.Selection) {
		label := cleanText(s.Find("strong, span.info-label").First().Text())
		value := cleanText(strings.TrimPrefix(cleanText(s.Text()), label))
		switch strings.TrimSuffix(label, ":") {
		case "Status":
			res.Status = normalizeStatus(value)
		case "Chapters":
			res.TotalChapters = parseCount(value)
		case "Japanese", "English", "Romaji":
			if value != "" && value != res.Title {
				res.AltTitles = appendIfMissing(res.AltTitles, value)
			}
		}
	})

	return res, nil
}
