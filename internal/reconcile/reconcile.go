package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"

	"mangascout/internal/catalog"
	"mangascout/pkg/models"
)

// ErrNoTitle rejects extraction results that carry no title; a title is
// the minimum viable fact for a catalog identity.
var ErrNoTitle = errors.New("reconcile: extraction result has no title")

// Outcome reports what a reconciliation did.
type Outcome int

const (
	OutcomeUnchanged Outcome = iota
	OutcomeCreated
	OutcomeUpdated
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCreated:
		return "created"
	case OutcomeUpdated:
		return "updated"
	default:
		return "unchanged"
	}
}

// Result is what the orchestrator needs after one reconciliation: the
// catalog identity, whether anything changed, and whether the item still
// lacks a cover (the asset acquirer's cue).
type Result struct {
	ItemID   string
	Title    string
	Outcome  Outcome
	HasCover bool
	CoverURL string
}

// Reconciler merges extraction results into the catalog: match-or-create,
// fill-only scalar updates, deduplicated append of alt names and tags.
// Each call runs in one transaction; partial writes cannot be observed.
type Reconciler struct {
	Store catalog.TxStore
}

func NewReconciler(store catalog.TxStore) *Reconciler {
	return &Reconciler{Store: store}
}

func (r *Reconciler) Reconcile(ctx context.Context, in *models.ExtractionResult) (*Result, error) {
	if in == nil || in.Title == "" {
		return nil, ErrNoTitle
	}

	var out *Result
	err := r.Store.WithTx(ctx, func(s catalog.Store) error {
		existing, err := match(ctx, s, in)
		if err != nil {
			return err
		}
		if existing == nil {
			out, err = create(ctx, s, in)
			return err
		}
		out, err = update(ctx, s, existing, in)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("reconcile %q: %w", in.Title, err)
	}
	return out, nil
}

// match resolves the catalog identity for an extraction result. Precedence
// is fixed: source URL, then exact primary title, then any alternate name
// (both case-insensitive). Only a full miss means a new item.
func match(ctx context.Context, s catalog.Store, in *models.ExtractionResult) (*models.CatalogItem, error) {
	if item, err := s.FindByURL(ctx, in.SourceURL); err != nil || item != nil {
		return item, err
	}
	if item, err := s.FindByTitleExact(ctx, in.Title); err != nil || item != nil {
		return item, err
	}
	return s.FindByAlternateName(ctx, in.Title)
}

func create(ctx context.Context, s catalog.Store, in *models.ExtractionResult) (*Result, error) {
	item := &models.CatalogItem{
		ID:            uuid.NewString(),
		Title:         in.Title,
		Status:        in.Status, // CreateItem defaults empty to planned
		Rating:        in.Rating,
		Synopsis:      in.Synopsis,
		Author:        in.Author,
		Artist:        in.Artist,
		SourceURL:     in.SourceURL,
		TotalChapters: in.TotalChapters,
	}
	if err := s.CreateItem(ctx, item); err != nil {
		return nil, err
	}

	for _, name := range NewAlternateNames(nil, in.Title, in.AltTitles) {
		if err := s.InsertAlternateNameIfAbsent(ctx, item.ID, name, ""); err != nil {
			return nil, err
		}
	}
	for _, tag := range NewTags(nil, in.Genres) {
		if err := s.InsertTagIfAbsent(ctx, item.ID, tag, "genre"); err != nil {
			return nil, err
		}
	}

	log.Printf("[reconcile] created %q (%s)", in.Title, item.ID)
	return &Result{
		ItemID:   item.ID,
		Title:    item.Title,
		Outcome:  OutcomeCreated,
		HasCover: false,
		CoverURL: in.CoverURL,
	}, nil
}

func update(ctx context.Context, s catalog.Store, existing *models.CatalogItem, in *models.ExtractionResult) (*Result, error) {
	mutated := false

	if fields := FieldUpdates(existing, in); len(fields) > 0 {
		if err := s.UpdateItemFields(ctx, existing.ID, fields); err != nil {
			return nil, err
		}
		mutated = true
	}

	altNames, err := s.AlternateNames(ctx, existing.ID)
	if err != nil {
		return nil, err
	}
	incoming := in.AltTitles
	if in.Title != "" && in.Title != existing.Title {
		// a differing primary title from this source is still a name
		// worth knowing the item by
		incoming = append([]string{in.Title}, incoming...)
	}
	for _, name := range NewAlternateNames(altNames, existing.Title, incoming) {
		if err := s.InsertAlternateNameIfAbsent(ctx, existing.ID, name, ""); err != nil {
			return nil, err
		}
		mutated = true
	}

	tags, err := s.Tags(ctx, existing.ID)
	if err != nil {
		return nil, err
	}
	for _, tag := range NewTags(tags, in.Genres) {
		if err := s.InsertTagIfAbsent(ctx, existing.ID, tag, "genre"); err != nil {
			return nil, err
		}
		mutated = true
	}

	outcome := OutcomeUnchanged
	if mutated {
		outcome = OutcomeUpdated
	}
	log.Printf("[reconcile] matched %q -> %s (%s)", in.Title, existing.ID, outcome)
	return &Result{
		ItemID:   existing.ID,
		Title:    existing.Title,
		Outcome:  outcome,
		HasCover: existing.CoverFile != "",
		CoverURL: in.CoverURL,
	}, nil
}
