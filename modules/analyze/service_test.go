package analyze

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

type fakeVision struct {
	response string
	err      error
	calls    int
}

func (f *fakeVision) GenerateVisionText(ctx context.Context, imageData []byte, mimeType string, instruction string, temperature float32) (string, error) {
	f.calls++
	return f.response, f.err
}

func TestAnalyzeFallsBackOnError(t *testing.T) {
	svc := NewService(&fakeVision{err: errors.New("upstream 500")}, "French")

	got := svc.Analyze(context.Background(), []byte("img"), "image/png")

	if !reflect.DeepEqual(got, DefaultAnalysis()) {
		t.Errorf("expected default analysis on call error, got %+v", got)
	}
}

func TestAnalyzeFallsBackOnNonJSON(t *testing.T) {
	svc := NewService(&fakeVision{response: "Je ne peux pas analyser cette image."}, "French")

	got := svc.Analyze(context.Background(), []byte("img"), "image/png")

	if got.Category != "Autre" {
		t.Errorf("expected default category Autre, got %q", got.Category)
	}
	if len(got.SuggestedPlacements) != 1 || got.SuggestedPlacements[0] != "table" {
		t.Errorf("expected default placement table, got %v", got.SuggestedPlacements)
	}
}

func TestAnalyzeFallsBackOnMalformedJSON(t *testing.T) {
	svc := NewService(&fakeVision{response: `{"category": "Sac", "colors": "pas une liste"}`}, "French")

	got := svc.Analyze(context.Background(), []byte("img"), "image/png")

	if !reflect.DeepEqual(got, DefaultAnalysis()) {
		t.Errorf("expected default analysis on malformed JSON, got %+v", got)
	}
}

func TestAnalyzeParsesFencedJSON(t *testing.T) {
	response := "Voici l'analyse :\n```json\n" +
		`{"category":"Maroquinerie","subcategory":"Sac à main","name":"Sac cuir orange",` +
		`"colors":["orange"],"materials":["cuir"],"style":"luxe",` +
		`"suggested_contexts":["terrasse parisienne"],"suggested_placements":["table"],` +
		`"description":"Un sac élégant.","keywords":["sac","cuir"]}` +
		"\n```\nBonne journée !"

	svc := NewService(&fakeVision{response: response}, "French")
	got := svc.Analyze(context.Background(), []byte("img"), "image/jpeg")

	if got.Category != "Maroquinerie" {
		t.Errorf("expected category Maroquinerie, got %q", got.Category)
	}
	if got.Name != "Sac cuir orange" {
		t.Errorf("expected name parsed, got %q", got.Name)
	}
}

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
		ok   bool
	}{
		{"bare object", `{"a":1}`, `{"a":1}`, true},
		{"wrapped in prose", `Sure! {"a":{"b":2}} hope this helps`, `{"a":{"b":2}}`, true},
		{"brace inside string", `{"a":"}"}`, `{"a":"}"}`, true},
		{"escaped quote", `{"a":"\""} trailing`, `{"a":"\""}`, true},
		{"no object", "nothing here", "", false},
		{"unbalanced", `{"a":1`, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractJSONObject(tt.in)
			if ok != tt.ok || got != tt.want {
				t.Errorf("ExtractJSONObject(%q) = %q,%v; want %q,%v", tt.in, got, ok, tt.want, tt.ok)
			}
		})
	}
}
