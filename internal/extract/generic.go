package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"golang.org/x/net/html"

	"mangascout/internal/ai"
	"mangascout/pkg/models"
)

// maxExcerptChars bounds how much page text goes into the AI prompt.
const maxExcerptChars = 5000

const genericPrompt = `The following is the visible text of a web page that may describe a manga.
Extract what you can and reply with ONLY a JSON object of this exact shape,
omitting any field you cannot determine:

{"title": "", "alt_titles": [""], "synopsis": "", "genres": [""], "author": "", "artist": "", "status": "", "total_chapters": 0, "rating": 0, "cover_url": ""}

"status" is one of: ongoing, completed, hiatus, cancelled.
"rating" is a number on whatever scale the page uses.

Page text:
%s`

type genericReply struct {
	Title         string   `json:"title"`
	AltTitles     []string `json:"alt_titles"`
	Synopsis      string   `json:"synopsis"`
	Genres        []string `json:"genres"`
	Author        string   `json:"author"`
	Artist        string   `json:"artist"`
	Status        string   `json:"status"`
	TotalChapters int      `json:"total_chapters"`
	Rating        float64  `json:"rating"`
	CoverURL      string   `json:"cover_url"`
}

// genericExtract is the catch-all for unrecognized sites: reduce the page
// to a bounded text excerpt, ask the AI service for a fixed-shape JSON
// description, and tolerate anything it gets wrong. A failure here still
// returns a usable (URL-only) result.
func (e *Extractor) genericExtract(ctx context.Context, page *Page) (*models.ExtractionResult, error) {
	res := &models.ExtractionResult{SourceURL: page.URL}

	excerpt := visibleText(page.Raw)
	if len(excerpt) > maxExcerptChars {
		excerpt = excerpt[:maxExcerptChars]
	}
	if excerpt == "" {
		return res, nil
	}

	reply, err := e.AI.Complete(ctx, fmt.Sprintf(genericPrompt, excerpt))
	if err != nil {
		log.Printf("[extract] generic: ai call failed for %s: %v", page.URL, err)
		return res, nil
	}

	obj, err := ai.FirstJSONObject(reply)
	if err != nil {
		log.Printf("[extract] generic: no JSON in reply for %s", page.URL)
		return res, nil
	}

	var gr genericReply
	if err := json.Unmarshal([]byte(obj), &gr); err != nil {
		log.Printf("[extract] generic: bad JSON for %s: %v", page.URL, err)
		return res, nil
	}

	res.Title = cleanText(gr.Title)
	res.Synopsis = cleanText(gr.Synopsis)
	res.Author = cleanText(gr.Author)
	res.Artist = cleanText(gr.Artist)
	res.Status = normalizeStatus(gr.Status)
	res.TotalChapters = gr.TotalChapters
	res.Rating = clampRating(gr.Rating)
	res.CoverURL = strings.TrimSpace(gr.CoverURL)
	for _, t := range gr.AltTitles {
		if t = cleanText(t); t != "" && t != res.Title {
			res.AltTitles = appendIfMissing(res.AltTitles, t)
		}
	}
	for _, g := range gr.Genres {
		if g = cleanText(g); g != "" {
			res.Genres = appendIfMissing(res.Genres, g)
		}
	}
	return res, nil
}

// visibleText strips markup, scripts and styles, returning the page's
// human-readable text with collapsed whitespace.
func visibleText(rawHTML string) string {
	node, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return ""
	}

	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "iframe", "head":
				return
			}
		}
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(node)

	return cleanText(b.String())
}
