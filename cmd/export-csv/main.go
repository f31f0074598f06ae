package main

import (
	"context"
	"database/sql"
	"encoding/csv"
	"flag"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"mangascout/pkg/database"
)

func main() {
	var (
		itemsOut = flag.String("items", "data/items.csv", "output CSV path for catalog items")
		namesOut = flag.String("names", "data/alt_names.csv", "output CSV path for alternate names")
	)
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db := database.MustOpen(database.DefaultConfig())
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	if err := exportItems(ctx, db, *itemsOut); err != nil {
		log.Fatalf("export items failed: %v", err)
	}
	if err := exportAltNames(ctx, db, *namesOut); err != nil {
		log.Fatalf("export alt names failed: %v", err)
	}

	log.Printf("✅ exported items to %s and alternate names to %s", *itemsOut, *namesOut)
}

func exportItems(ctx context.Context, db *sql.DB, outPath string) error {
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return err
	}

	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"id", "title", "status", "rating", "author", "artist", "total_chapters", "source_url", "cover_file", "updated_at"}); err != nil {
		return err
	}

	rows, err := db.QueryContext(ctx, `
        SELECT id, title, status, rating, author, artist, total_chapters, source_url, cover_file, updated_at
        FROM items
        WHERE deleted = 0
        ORDER BY title
    `)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id            string
			title         string
			status        sql.NullString
			rating        sql.NullFloat64
			author        sql.NullString
			artist        sql.NullString
			totalChapters sql.NullInt64
			sourceURL     sql.NullString
			coverFile     sql.NullString
			updatedAt     sql.NullTime
		)

		if err := rows.Scan(&id, &title, &status, &rating, &author, &artist, &totalChapters, &sourceURL, &coverFile, &updatedAt); err != nil {
			return err
		}

		score := ""
		if rating.Valid {
			score = strconv.FormatFloat(rating.Float64, 'f', 2, 64)
		}
		total := ""
		if totalChapters.Valid {
			total = strconv.FormatInt(totalChapters.Int64, 10)
		}
		updated := ""
		if updatedAt.Valid {
			updated = updatedAt.Time.Format(time.RFC3339)
		}

		if err := w.Write([]string{
			id,
			title,
			status.String,
			score,
			author.String,
			artist.String,
			total,
			sourceURL.String,
			coverFile.String,
			updated,
		}); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	w.Flush()
	return w.Error()
}

func exportAltNames(ctx context.Context, db *sql.DB, outPath string) error {
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return err
	}

	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"item_id", "name", "lang"}); err != nil {
		return err
	}

	rows, err := db.QueryContext(ctx, `
        SELECT item_id, name, lang
        FROM alt_names
        ORDER BY item_id, name
    `)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			itemID string
			name   string
			lang   sql.NullString
		)

		if err := rows.Scan(&itemID, &name, &lang); err != nil {
			return err
		}

		if err := w.Write([]string{itemID, name, lang.String}); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	w.Flush()
	return w.Error()
}
