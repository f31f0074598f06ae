package models

import "time"

// Item statuses. New items created by the pipeline default to StatusPlanned;
// everything else is user-driven through the normal CRUD surface.
const (
	StatusTracked   = "tracked"
	StatusComplete  = "complete"
	StatusPlanned   = "planned"
	StatusPaused    = "paused"
	StatusAbandoned = "abandoned"
)

// CatalogItem is the persisted entity representing one tracked work.
//
// The acquisition pipeline only reads it and fills currently-empty fields;
// deletes and full rewrites belong to the CRUD layer.
type CatalogItem struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Status        string    `json:"status"`
	Rating        float64   `json:"rating,omitempty"` // canonical 0-10 scale
	Synopsis      string    `json:"synopsis,omitempty"`
	Author        string    `json:"author,omitempty"`
	Artist        string    `json:"artist,omitempty"`
	CoverFile     string    `json:"cover_file,omitempty"`
	SourceURL     string    `json:"source_url,omitempty"`
	TotalChapters int       `json:"total_chapters,omitempty"`
	ReadChapters  int       `json:"read_chapters,omitempty"`
	Deleted       bool      `json:"deleted,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// AlternateName is one alternative title for an item. Uniqueness is per
// (item, name); inserting a duplicate is a no-op.
type AlternateName struct {
	ItemID string `json:"item_id"`
	Name   string `json:"name"`
	Lang   string `json:"lang,omitempty"`
}

// Tag is a global (name, category) dictionary entry. Attaching a tag to an
// item is a many-to-many link, idempotent on duplicate attach.
type Tag struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
}
