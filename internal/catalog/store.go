package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"mangascout/pkg/models"
)

// Store is the narrow catalog surface the pipeline consumes. Lookups
// return (nil, nil) when nothing matches; all insert-if-absent operations
// are safe to call redundantly.
type Store interface {
	FindByURL(ctx context.Context, url string) (*models.CatalogItem, error)
	FindByTitleExact(ctx context.Context, title string) (*models.CatalogItem, error)
	FindByAlternateName(ctx context.Context, name string) (*models.CatalogItem, error)
	CreateItem(ctx context.Context, item *models.CatalogItem) error
	UpdateItemFields(ctx context.Context, id string, fields map[string]any) error
	InsertAlternateNameIfAbsent(ctx context.Context, id, name, lang string) error
	InsertTagIfAbsent(ctx context.Context, id, tagName, category string) error
	SetAssetReference(ctx context.Context, id, filename string) error
	AlternateNames(ctx context.Context, id string) ([]models.AlternateName, error)
	Tags(ctx context.Context, id string) ([]models.Tag, error)
}

// TxStore adds transaction scoping: everything inside fn commits or rolls
// back as one unit. The reconciler's per-item atomicity rides on this.
type TxStore interface {
	Store
	WithTx(ctx context.Context, fn func(Store) error) error
}

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// SQLStore is the sqlite-backed catalog store.
type SQLStore struct {
	db *sql.DB
	q  queryer
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db, q: db}
}

// WithTx runs fn against a transaction-scoped view of the store.
func (s *SQLStore) WithTx(ctx context.Context, fn func(Store) error) error {
	if _, ok := s.q.(*sql.Tx); ok {
		// already inside a transaction, just reuse it
		return fn(s)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&SQLStore{db: s.db, q: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

const itemColumns = `id, title, status, rating, synopsis, author, artist,
	cover_file, source_url, total_chapters, read_chapters, deleted, created_at, updated_at`

func (s *SQLStore) GetByID(ctx context.Context, id string) (*models.CatalogItem, error) {
	row := s.q.QueryRowContext(ctx, `
		SELECT `+itemColumns+`
		FROM items
		WHERE id = ? AND deleted = 0
	`, id)
	return scanItem(row)
}

func (s *SQLStore) FindByURL(ctx context.Context, url string) (*models.CatalogItem, error) {
	if strings.TrimSpace(url) == "" {
		return nil, nil
	}
	row := s.q.QueryRowContext(ctx, `
		SELECT `+itemColumns+`
		FROM items
		WHERE source_url = ? AND deleted = 0
	`, url)
	return scanItem(row)
}

func (s *SQLStore) FindByTitleExact(ctx context.Context, title string) (*models.CatalogItem, error) {
	if strings.TrimSpace(title) == "" {
		return nil, nil
	}
	row := s.q.QueryRowContext(ctx, `
		SELECT `+itemColumns+`
		FROM items
		WHERE title = ? COLLATE NOCASE AND deleted = 0
	`, title)
	return scanItem(row)
}

func (s *SQLStore) FindByAlternateName(ctx context.Context, name string) (*models.CatalogItem, error) {
	if strings.TrimSpace(name) == "" {
		return nil, nil
	}
	row := s.q.QueryRowContext(ctx, `
		SELECT `+itemColumnsPrefixed("i")+`
		FROM items i
		JOIN alt_names a ON a.item_id = i.id
		WHERE a.name = ? COLLATE NOCASE AND i.deleted = 0
		LIMIT 1
	`, name)
	return scanItem(row)
}

func (s *SQLStore) CreateItem(ctx context.Context, item *models.CatalogItem) error {
	now := time.Now().UTC()
	if item.CreatedAt.IsZero() {
		item.CreatedAt = now
	}
	item.UpdatedAt = now
	if item.Status == "" {
		item.Status = models.StatusPlanned
	}

	_, err := s.q.ExecContext(ctx, `
		INSERT INTO items (id, title, status, rating, synopsis, author, artist,
			cover_file, source_url, total_chapters, read_chapters, deleted, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?)
	`,
		item.ID, item.Title, item.Status,
		nullFloat(item.Rating), nullString(item.Synopsis),
		nullString(item.Author), nullString(item.Artist),
		nullString(item.CoverFile), nullString(item.SourceURL),
		nullInt(item.TotalChapters), item.ReadChapters,
		item.CreatedAt, item.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert item %s: %w", item.ID, err)
	}
	return nil
}

// updatableColumns whitelists what partial updates may touch.
var updatableColumns = map[string]bool{
	"title":          true,
	"status":         true,
	"rating":         true,
	"synopsis":       true,
	"author":         true,
	"artist":         true,
	"source_url":     true,
	"total_chapters": true,
}

func (s *SQLStore) UpdateItemFields(ctx context.Context, id string, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}

	set := make([]string, 0, len(fields)+1)
	args := make([]any, 0, len(fields)+2)
	for col, v := range fields {
		if !updatableColumns[col] {
			return fmt.Errorf("update item %s: column %q not updatable", id, col)
		}
		set = append(set, col+" = ?")
		args = append(args, v)
	}
	set = append(set, "updated_at = ?")
	args = append(args, time.Now().UTC(), id)

	res, err := s.q.ExecContext(ctx,
		"UPDATE items SET "+strings.Join(set, ", ")+" WHERE id = ? AND deleted = 0",
		args...,
	)
	if err != nil {
		return fmt.Errorf("update item %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("update item %s: not found", id)
	}
	return nil
}

func (s *SQLStore) InsertAlternateNameIfAbsent(ctx context.Context, id, name, lang string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO alt_names (item_id, name, lang) VALUES (?, ?, ?)
		ON CONFLICT(item_id, name) DO NOTHING
	`, id, name, lang)
	if err != nil {
		return fmt.Errorf("insert alt name %q for %s: %w", name, id, err)
	}
	return nil
}

func (s *SQLStore) InsertTagIfAbsent(ctx context.Context, id, tagName, category string) error {
	tagName = strings.TrimSpace(tagName)
	if tagName == "" {
		return nil
	}
	if category == "" {
		category = "genre"
	}

	if _, err := s.q.ExecContext(ctx, `
		INSERT INTO tags (name, category) VALUES (?, ?)
		ON CONFLICT(name, category) DO NOTHING
	`, tagName, category); err != nil {
		return fmt.Errorf("insert tag %q: %w", tagName, err)
	}

	if _, err := s.q.ExecContext(ctx, `
		INSERT INTO item_tags (item_id, tag_id)
		SELECT ?, id FROM tags WHERE name = ? AND category = ?
		ON CONFLICT(item_id, tag_id) DO NOTHING
	`, id, tagName, category); err != nil {
		return fmt.Errorf("link tag %q to %s: %w", tagName, id, err)
	}
	return nil
}

func (s *SQLStore) SetAssetReference(ctx context.Context, id, filename string) error {
	res, err := s.q.ExecContext(ctx, `
		UPDATE items SET cover_file = ?, updated_at = ? WHERE id = ? AND deleted = 0
	`, filename, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("set asset for %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("set asset for %s: not found", id)
	}
	return nil
}

func (s *SQLStore) AlternateNames(ctx context.Context, id string) ([]models.AlternateName, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT item_id, name, lang FROM alt_names WHERE item_id = ? ORDER BY name
	`, id)
	if err != nil {
		return nil, fmt.Errorf("alt names for %s: %w", id, err)
	}
	defer rows.Close()

	var out []models.AlternateName
	for rows.Next() {
		var a models.AlternateName
		if err := rows.Scan(&a.ItemID, &a.Name, &a.Lang); err != nil {
			return nil, fmt.Errorf("scan alt name: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *SQLStore) Tags(ctx context.Context, id string) ([]models.Tag, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT t.id, t.name, t.category
		FROM tags t JOIN item_tags it ON it.tag_id = t.id
		WHERE it.item_id = ? ORDER BY t.name
	`, id)
	if err != nil {
		return nil, fmt.Errorf("tags for %s: %w", id, err)
	}
	defer rows.Close()

	var out []models.Tag
	for rows.Next() {
		var t models.Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Category); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*models.CatalogItem, error) {
	var (
		m         models.CatalogItem
		rating    sql.NullFloat64
		synopsis  sql.NullString
		author    sql.NullString
		artist    sql.NullString
		coverFile sql.NullString
		sourceURL sql.NullString
		chapters  sql.NullInt64
	)
	err := row.Scan(
		&m.ID, &m.Title, &m.Status, &rating, &synopsis, &author, &artist,
		&coverFile, &sourceURL, &chapters, &m.ReadChapters, &m.Deleted,
		&m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan item: %w", err)
	}
	m.Rating = rating.Float64
	m.Synopsis = synopsis.String
	m.Author = author.String
	m.Artist = artist.String
	m.CoverFile = coverFile.String
	m.SourceURL = sourceURL.String
	if chapters.Valid {
		m.TotalChapters = int(chapters.Int64)
	}
	return &m, nil
}

func itemColumnsPrefixed(alias string) string {
	cols := strings.Split(itemColumns, ",")
	for i, c := range cols {
		cols[i] = alias + "." + strings.TrimSpace(c)
	}
	return strings.Join(cols, ", ")
}

func nullString(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}

func nullFloat(f float64) any {
	if f == 0 {
		return nil
	}
	return f
}

func nullInt(n int) any {
	if n == 0 {
		return nil
	}
	return n
}
