package translate

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"mangascout/internal/ai"
	"mangascout/pkg/models"
)

func newAIServer(t *testing.T, reply string) *ai.Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]any{
			"choices": []any{map[string]any{"message": map[string]any{"content": reply}}},
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			t.Errorf("write reply: %v", err)
		}
	}))
	t.Cleanup(srv.Close)
	return ai.NewClient(srv.URL, "m", "")
}

func TestTranslate(t *testing.T) {
	cl := newAIServer(t, `{"synopsis":"Una larga historia","genres":["Acción"],"author":"Yamada"}`)
	tr := NewTranslator(cl, "Spanish")

	in := &models.ExtractionResult{
		Title:    "Alpha Saga",
		Synopsis: "A long tale",
		Genres:   []string{"Action"},
		Author:   "Yamada",
	}
	out := tr.Translate(context.Background(), in)

	if out.Title != "Alpha Saga" {
		t.Fatalf("primary title must pass through untouched, got %q", out.Title)
	}
	if out.Synopsis != "Una larga historia" {
		t.Fatalf("synopsis: got %q", out.Synopsis)
	}
	if len(out.Genres) != 1 || out.Genres[0] != "Acción" {
		t.Fatalf("genres: got %v", out.Genres)
	}
	// input must not be mutated
	if in.Synopsis != "A long tale" {
		t.Fatalf("input mutated: %q", in.Synopsis)
	}
}

func TestTranslate_MissingFieldsFallBack(t *testing.T) {
	cl := newAIServer(t, `{"synopsis":"Una larga historia"}`)
	tr := NewTranslator(cl, "Spanish")

	in := &models.ExtractionResult{Title: "Alpha Saga", Synopsis: "A long tale", Author: "Yamada"}
	out := tr.Translate(context.Background(), in)

	if out.Synopsis != "Una larga historia" {
		t.Fatalf("synopsis: got %q", out.Synopsis)
	}
	if out.Author != "Yamada" {
		t.Fatalf("missing field must keep original, got %q", out.Author)
	}
}

// Prose instead of JSON must yield the untouched input and no error.
func TestTranslate_ProseReplyReturnsInputUnchanged(t *testing.T) {
	cl := newAIServer(t, "Sure! The synopsis says that a hero goes on a long journey...")
	tr := NewTranslator(cl, "Spanish")

	in := &models.ExtractionResult{Title: "Alpha Saga", Synopsis: "A long tale"}
	out := tr.Translate(context.Background(), in)

	if out.Synopsis != "A long tale" {
		t.Fatalf("expected original synopsis, got %q", out.Synopsis)
	}
}

func TestTranslate_ServiceDownReturnsInputUnchanged(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer srv.Close()
	tr := NewTranslator(ai.NewClient(srv.URL, "m", ""), "Spanish")

	in := &models.ExtractionResult{Title: "Alpha Saga", Synopsis: "A long tale"}
	out := tr.Translate(context.Background(), in)
	if out.Synopsis != "A long tale" {
		t.Fatalf("expected original synopsis, got %q", out.Synopsis)
	}
}

func TestTranslate_NothingToTranslateSkipsCall(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("AI must not be called for an empty result")
	}))
	defer srv.Close()
	tr := NewTranslator(ai.NewClient(srv.URL, "m", ""), "Spanish")

	in := &models.ExtractionResult{Title: "Alpha Saga"}
	out := tr.Translate(context.Background(), in)
	if out.Title != "Alpha Saga" {
		t.Fatalf("unexpected result: %+v", out)
	}
}
