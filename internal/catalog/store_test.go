package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"mangascout/pkg/database"
	"mangascout/pkg/models"
)

func newTestStore(t *testing.T) *SQLStore {
	t.Helper()
	db, err := database.OpenMemory()
	if err != nil {
		t.Fatalf("open memory db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewSQLStore(db)
}

func seedItem(t *testing.T, s *SQLStore, item models.CatalogItem) string {
	t.Helper()
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	if item.Status == "" {
		item.Status = models.StatusPlanned
	}
	if err := s.CreateItem(context.Background(), &item); err != nil {
		t.Fatalf("seed item: %v", err)
	}
	return item.ID
}

func TestFindByTitleExact_CaseInsensitive(t *testing.T) {
	s := newTestStore(t)
	id := seedItem(t, s, models.CatalogItem{Title: "Alpha Saga"})

	got, err := s.FindByTitleExact(context.Background(), "alpha saga")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got == nil || got.ID != id {
		t.Fatalf("expected item %s, got %+v", id, got)
	}

	got, err = s.FindByTitleExact(context.Background(), "Alpha Saga II")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got != nil {
		t.Fatalf("expected no match, got %+v", got)
	}
}

func TestFindByURL(t *testing.T) {
	s := newTestStore(t)
	id := seedItem(t, s, models.CatalogItem{Title: "Alpha Saga", SourceURL: "https://myanimelist.net/manga/13"})

	got, err := s.FindByURL(context.Background(), "https://myanimelist.net/manga/13")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got == nil || got.ID != id {
		t.Fatalf("expected item %s, got %+v", id, got)
	}

	if got, _ := s.FindByURL(context.Background(), ""); got != nil {
		t.Fatalf("empty URL must not match, got %+v", got)
	}
}

func TestFindByAlternateName(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	id := seedItem(t, s, models.CatalogItem{Title: "Alpha Saga"})
	if err := s.InsertAlternateNameIfAbsent(ctx, id, "Foo", "en"); err != nil {
		t.Fatalf("insert alt: %v", err)
	}

	got, err := s.FindByAlternateName(ctx, "foo")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got == nil || got.ID != id {
		t.Fatalf("expected item %s, got %+v", id, got)
	}
}

func TestInsertAlternateNameIfAbsent_Idempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	id := seedItem(t, s, models.CatalogItem{Title: "Alpha Saga"})

	for i := 0; i < 3; i++ {
		if err := s.InsertAlternateNameIfAbsent(ctx, id, "Beta", ""); err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
	}
	names, err := s.AlternateNames(ctx, id)
	if err != nil {
		t.Fatalf("alt names: %v", err)
	}
	if len(names) != 1 {
		t.Fatalf("expected exactly one alt name, got %v", names)
	}
}

func TestInsertTagIfAbsent_Idempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	a := seedItem(t, s, models.CatalogItem{Title: "Alpha"})
	b := seedItem(t, s, models.CatalogItem{Title: "Beta"})

	for i := 0; i < 2; i++ {
		if err := s.InsertTagIfAbsent(ctx, a, "Action", "genre"); err != nil {
			t.Fatalf("tag insert: %v", err)
		}
	}
	if err := s.InsertTagIfAbsent(ctx, b, "Action", "genre"); err != nil {
		t.Fatalf("tag insert: %v", err)
	}

	tagsA, err := s.Tags(ctx, a)
	if err != nil {
		t.Fatalf("tags: %v", err)
	}
	if len(tagsA) != 1 {
		t.Fatalf("expected one tag link, got %v", tagsA)
	}

	// the tag dictionary itself stays global: both items share one row
	tagsB, _ := s.Tags(ctx, b)
	if len(tagsB) != 1 || tagsB[0].ID != tagsA[0].ID {
		t.Fatalf("expected shared tag id, got %v vs %v", tagsA, tagsB)
	}
}

func TestUpdateItemFields(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	id := seedItem(t, s, models.CatalogItem{Title: "Alpha Saga"})

	if err := s.UpdateItemFields(ctx, id, map[string]any{"synopsis": "story", "rating": 7.5}); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, _ := s.FindByTitleExact(ctx, "Alpha Saga")
	if got.Synopsis != "story" || got.Rating != 7.5 {
		t.Fatalf("update not applied: %+v", got)
	}

	if err := s.UpdateItemFields(ctx, id, map[string]any{"deleted": 1}); err == nil {
		t.Fatal("expected non-updatable column to be rejected")
	}
	if err := s.UpdateItemFields(ctx, "no-such-id", map[string]any{"synopsis": "x"}); err == nil {
		t.Fatal("expected error for unknown id")
	}
}

func TestWithTx_RollsBackOnError(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	sentinel := errors.New("boom")
	err := s.WithTx(ctx, func(tx Store) error {
		if err := tx.CreateItem(ctx, &models.CatalogItem{ID: uuid.NewString(), Title: "Ghost"}); err != nil {
			return err
		}
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected sentinel error, got %v", err)
	}

	got, _ := s.FindByTitleExact(ctx, "Ghost")
	if got != nil {
		t.Fatalf("transaction leaked a row: %+v", got)
	}
}

func TestListAndCount(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedItem(t, s, models.CatalogItem{Title: "Alpha Saga", Author: "Yamada", Status: models.StatusPlanned})
	seedItem(t, s, models.CatalogItem{Title: "Beta Chronicle", Status: models.StatusTracked})

	total, err := s.Count(ctx, ListQuery{})
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if total != 2 {
		t.Fatalf("expected 2, got %d", total)
	}

	items, err := s.List(ctx, ListQuery{Q: "yamada", Limit: 10})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 1 || items[0].Title != "Alpha Saga" {
		t.Fatalf("keyword filter failed: %v", items)
	}

	items, err = s.List(ctx, ListQuery{Status: models.StatusTracked, Limit: 10})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 1 || items[0].Title != "Beta Chronicle" {
		t.Fatalf("status filter failed: %v", items)
	}
}
