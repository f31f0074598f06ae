package models

// ExtractionResult is the transient, normalized form of the facts pulled
// from one fetched page.
//
// All site profiles map their page shape into this structure first, then
// reconciliation merges it into the catalog. It is never persisted as-is.
// Absent data is represented as zero values, not as an error.
type ExtractionResult struct {
	SourceURL     string   `json:"source_url"`
	Title         string   `json:"title"`
	AltTitles     []string `json:"alt_titles,omitempty"`
	Synopsis      string   `json:"synopsis,omitempty"`
	Genres        []string `json:"genres,omitempty"`
	Author        string   `json:"author,omitempty"`
	Artist        string   `json:"artist,omitempty"`
	Status        string   `json:"status,omitempty"`  // already normalized to catalog statuses, or ""
	TotalChapters int      `json:"total_chapters,omitempty"`
	Rating        float64  `json:"rating,omitempty"` // canonical 0-10 scale
	CoverURL      string   `json:"cover_url,omitempty"`
}
