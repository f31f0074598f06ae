package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"mangascout/internal/ai"
	"mangascout/pkg/models"
)

// Translator rewrites the text fields of an extraction result into a
// target language via the AI text service. It is explicitly non-fatal:
// any failure, from network errors to unparsable replies, returns the
// input unchanged.
type Translator struct {
	AI         *ai.Client
	TargetLang string
}

func NewTranslator(aiClient *ai.Client, targetLang string) *Translator {
	if targetLang == "" {
		targetLang = "English"
	}
	return &Translator{AI: aiClient, TargetLang: targetLang}
}

const translatePrompt = `Translate the string values in the JSON object below into %s.
Keep proper nouns (character and place names, the work's own titles) as they are.
Reply with ONLY a JSON object of the same shape. Do not add fields or commentary.

%s`

type translatable struct {
	AltTitles []string `json:"alt_titles,omitempty"`
	Synopsis  string   `json:"synopsis,omitempty"`
	Genres    []string `json:"genres,omitempty"`
	Author    string   `json:"author,omitempty"`
	Artist    string   `json:"artist,omitempty"`
}

// Translate returns a copy of in with translated text fields. The primary
// title is passed through untouched (proper-noun policy); any field the
// model drops falls back to the original value.
func (t *Translator) Translate(ctx context.Context, in *models.ExtractionResult) *models.ExtractionResult {
	out := *in
	if !hasTranslatableText(in) {
		return &out
	}

	payload, err := json.Marshal(translatable{
		AltTitles: in.AltTitles,
		Synopsis:  in.Synopsis,
		Genres:    in.Genres,
		Author:    in.Author,
		Artist:    in.Artist,
	})
	if err != nil {
		return &out
	}

	reply, err := t.AI.Complete(ctx, fmt.Sprintf(translatePrompt, t.TargetLang, payload))
	if err != nil {
		log.Printf("[translate] ai call failed for %q, keeping original: %v", in.Title, err)
		return &out
	}

	obj, err := ai.FirstJSONObject(reply)
	if err != nil {
		log.Printf("[translate] no JSON in reply for %q, keeping original", in.Title)
		return &out
	}

	var tr translatable
	if err := json.Unmarshal([]byte(obj), &tr); err != nil {
		log.Printf("[translate] bad JSON for %q, keeping original: %v", in.Title, err)
		return &out
	}

	if len(tr.AltTitles) > 0 {
		out.AltTitles = cleanAll(tr.AltTitles)
	}
	if strings.TrimSpace(tr.Synopsis) != "" {
		out.Synopsis = strings.TrimSpace(tr.Synopsis)
	}
	if len(tr.Genres) > 0 {
		out.Genres = cleanAll(tr.Genres)
	}
	if strings.TrimSpace(tr.Author) != "" {
		out.Author = strings.TrimSpace(tr.Author)
	}
	if strings.TrimSpace(tr.Artist) != "" {
		out.Artist = strings.TrimSpace(tr.Artist)
	}
	return &out
}

func hasTranslatableText(in *models.ExtractionResult) bool {
	return len(in.AltTitles) > 0 || in.Synopsis != "" || len(in.Genres) > 0 ||
		in.Author != "" || in.Artist != ""
}

func cleanAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
