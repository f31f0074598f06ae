package assets

import (
	"context"
	"fmt"
	"io"
	"log"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"

	"mangascout/internal/catalog"
	"mangascout/internal/fetch"
)

// Acquirer downloads cover images into a single flat directory, one file
// per item, and records the reference on the catalog item. It only ever
// runs for items that have no cover yet.
type Acquirer struct {
	Fetcher *fetch.Client
	Store   catalog.Store
	Dir     string
}

func NewAcquirer(fetcher *fetch.Client, store catalog.Store, dir string) *Acquirer {
	return &Acquirer{Fetcher: fetcher, Store: store, Dir: dir}
}

// AcquireIfMissing downloads imageURL for the item unless it already has
// a cover. Returns the stored filename, or "" when skipped. Failures are
// the caller's to log-and-continue; the item's reconciliation has already
// committed independently.
func (a *Acquirer) AcquireIfMissing(ctx context.Context, itemID string, hasCover bool, imageURL string) (string, error) {
	if hasCover || strings.TrimSpace(imageURL) == "" {
		return "", nil
	}

	body, contentType, err := a.Fetcher.GetStream(ctx, imageURL)
	if err != nil {
		return "", fmt.Errorf("download cover: %w", err)
	}
	defer body.Close()

	filename := itemID + sniffExtension(contentType, imageURL)
	fullPath := filepath.Join(a.Dir, filename)

	if err := os.MkdirAll(a.Dir, 0o755); err != nil {
		return "", fmt.Errorf("ensure asset dir: %w", err)
	}

	f, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", fullPath, err)
	}
	if _, err := io.Copy(f, body); err != nil {
		f.Close()
		os.Remove(fullPath)
		return "", fmt.Errorf("write %s: %w", fullPath, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(fullPath)
		return "", fmt.Errorf("close %s: %w", fullPath, err)
	}

	if err := a.Store.SetAssetReference(ctx, itemID, filename); err != nil {
		return "", err
	}

	log.Printf("[assets] stored cover %s for item %s", filename, itemID)
	return filename, nil
}

// sniffExtension picks the file extension from the response content-type
// first, the URL's path extension second, and falls back to .jpg.
func sniffExtension(contentType, imageURL string) string {
	mt, _, err := mime.ParseMediaType(contentType)
	if err == nil {
		switch mt {
		case "image/jpeg":
			return ".jpg"
		case "image/png":
			return ".png"
		case "image/gif":
			return ".gif"
		case "image/webp":
			return ".webp"
		}
	}

	ext := strings.ToLower(path.Ext(urlPath(imageURL)))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp":
		if ext == ".jpeg" {
			return ".jpg"
		}
		return ext
	}
	return ".jpg"
}

func urlPath(rawURL string) string {
	if i := strings.IndexAny(rawURL, "?#"); i >= 0 {
		return rawURL[:i]
	}
	return rawURL
}
