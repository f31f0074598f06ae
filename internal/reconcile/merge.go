package reconcile

import (
	"strings"

	"mangascout/pkg/models"
)

// FieldUpdates computes the partial update an extraction result implies
// for an existing item. The merge is fill-only: a scalar is included only
// when the stored value is empty and the new value is present. Running the
// same result twice therefore yields an empty map the second time, and
// merging results in any order converges to the same record.
//
// Two deliberate asymmetries, kept as documented behavior:
//   - total_chapters may also grow past a non-empty stored value (known
//     progress never regresses),
//   - rating is frozen once set, even by a later, better source.
func FieldUpdates(existing *models.CatalogItem, in *models.ExtractionResult) map[string]any {
	out := map[string]any{}

	if existing.Synopsis == "" && in.Synopsis != "" {
		out["synopsis"] = in.Synopsis
	}
	if existing.Author == "" && in.Author != "" {
		out["author"] = in.Author
	}
	if existing.Artist == "" && in.Artist != "" {
		out["artist"] = in.Artist
	}
	if existing.SourceURL == "" && in.SourceURL != "" {
		out["source_url"] = in.SourceURL
	}
	if existing.Rating == 0 && in.Rating > 0 {
		out["rating"] = in.Rating
	}
	if in.TotalChapters > 0 && (existing.TotalChapters == 0 || in.TotalChapters > existing.TotalChapters) {
		out["total_chapters"] = in.TotalChapters
	}
	return out
}

// NewAlternateNames returns the incoming alt titles not already attached
// to the item, comparing case-insensitively and excluding the primary
// title itself.
func NewAlternateNames(existing []models.AlternateName, primaryTitle string, incoming []string) []string {
	seen := map[string]bool{strings.ToLower(strings.TrimSpace(primaryTitle)): true}
	for _, a := range existing {
		seen[strings.ToLower(strings.TrimSpace(a.Name))] = true
	}

	var out []string
	for _, name := range incoming {
		name = strings.TrimSpace(name)
		key := strings.ToLower(name)
		if name == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, name)
	}
	return out
}

// NewTags returns the incoming genre names not already linked to the item.
func NewTags(existing []models.Tag, incoming []string) []string {
	seen := map[string]bool{}
	for _, t := range existing {
		seen[strings.ToLower(t.Name)] = true
	}

	var out []string
	for _, name := range incoming {
		name = strings.TrimSpace(name)
		key := strings.ToLower(name)
		if name == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, name)
	}
	return out
}
