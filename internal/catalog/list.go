package catalog

import (
	"context"
	"fmt"
	"strings"

	"mangascout/pkg/models"
)

// ListQuery filters the read-only item listing behind the API.
type ListQuery struct {
	Q      string // keyword search in title/author
	Status string
	Limit  int
	Offset int
}

func (s *SQLStore) Count(ctx context.Context, q ListQuery) (int, error) {
	sqlStr, args := buildListSQL(q, true)
	row := s.q.QueryRowContext(ctx, sqlStr, args...)
	var total int
	if err := row.Scan(&total); err != nil {
		return 0, fmt.Errorf("count scan: %w", err)
	}
	return total, nil
}

func (s *SQLStore) List(ctx context.Context, q ListQuery) ([]models.CatalogItem, error) {
	sqlStr, args := buildListSQL(q, false)

	rows, err := s.q.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("list query: %w", err)
	}
	defer rows.Close()

	out := make([]models.CatalogItem, 0, q.Limit)
	for rows.Next() {
		m, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("list scan: %w", err)
		}
		out = append(out, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}

func buildListSQL(q ListQuery, count bool) (string, []any) {
	var (
		where []string
		args  []any
	)

	where = append(where, "deleted = 0")
	if s := strings.TrimSpace(q.Q); s != "" {
		where = append(where, "(title LIKE ? OR author LIKE ?)")
		pat := "%" + s + "%"
		args = append(args, pat, pat)
	}
	if q.Status != "" {
		where = append(where, "status = ?")
		args = append(args, q.Status)
	}

	var b strings.Builder
	if count {
		b.WriteString("SELECT COUNT(*) FROM items")
	} else {
		b.WriteString("SELECT " + itemColumns + " FROM items")
	}
	b.WriteString(" WHERE " + strings.Join(where, " AND "))

	if !count {
		b.WriteString(" ORDER BY title COLLATE NOCASE")
		limit := q.Limit
		if limit <= 0 || limit > 100 {
			limit = 20
		}
		b.WriteString(" LIMIT ? OFFSET ?")
		args = append(args, limit, q.Offset)
	}
	return b.String(), args
}
