package extract

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"mangascout/pkg/models"
)

// MangaUpdates extracts from mangaupdates.com series pages. The layout is
// a label/content column pair ("Description", "Genre", "Status in Country
// of Origin", ...), so extraction walks the labels instead of using fixed
// ids.
type MangaUpdates struct{}

func (p *MangaUpdates) Name() string { return "mangaupdates" }

func (p *MangaUpdates) Detect(url string) bool {
	return strings.Contains(url, "mangaupdates.com")
}

func (p *MangaUpdates) Extract(_ context.Context, _ *Extractor, page *Page) (*models.ExtractionResult, error) {
	doc := page.Doc
	res := &models.ExtractionResult{SourceURL: page.URL}

	res.Title = cleanText(doc.Find("span.releasestitle").First().Text())
	if res.Title == "" {
		res.Title = metaContent(doc, "og:title")
	}

	labels := map[string]string{}
	doc.Find("div.sCat").Each(func(_ int, s *goquery.Selection) {
		label := strings.TrimSpace(s.Text())
		content := s.NextFiltered("div.sContent")
		if content.Length() > 0 {
			labels[label] = content.Text()
		}
	})

	if v, ok := labels["Description"]; ok {
		res.Synopsis = cleanText(v)
	}
	if v, ok := labels["Status in Country of Origin"]; ok {
		// "139 Chapters (Complete)"
		res.TotalChapters = parseCount(v)
		switch {
		case strings.Contains(strings.ToLower(v), "complete"):
			res.Status = models.StatusComplete
		case strings.Contains(strings.ToLower(v), "ongoing"):
			res.Status = models.StatusTracked
		case strings.Contains(strings.ToLower(v), "hiatus"):
			res.Status = models.StatusPaused
		}
	}
	if v, ok := labels["Bayesian Average"]; ok {
		// already a 0-10 average
		res.Rating = clampRating(parseRating(v))
	}
	if v, ok := labels["Associated Names"]; ok {
		for _, line := range strings.Split(v, "\n") {
			if name := cleanText(line); name != "" && name != res.Title {
				res.AltTitles = appendIfMissing(res.AltTitles, name)
			}
		}
	}
	if v, ok := labels["Author(s)"]; ok {
		res.Author = firstLine(v)
	}
	if v, ok := labels["Artist(s)"]; ok {
		res.Artist = firstLine(v)
	}

	doc.Find(`a[href*="genre="]`).Each(func(_ int, s *goquery.Selection) {
		if g := cleanText(s.Text()); g != "" && g != "Search for series of same genre(s)" {
			res.Genres = appendIfMissing(res.Genres, g)
		}
	})

	if img, ok := doc.Find("div.sContent img").First().Attr("src"); ok {
		res.CoverURL = img
	} else if og := metaContent(doc, "og:image"); og != "" {
		res.CoverURL = og
	}

	return res, nil
}

func metaContent(doc *goquery.Document, property string) string {
	v, _ := doc.Find(`meta[property="` + property + `"]`).First().Attr("content")
	return cleanText(v)
}

func firstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if v := cleanText(line); v != "" {
			return v
		}
	}
	return ""
}
