package caption

import (
	"context"
	"errors"
	"strings"
	"testing"

	"vitrine-studio-server/modules/analyze"
	"vitrine-studio-server/modules/brand"
)

type fakeText struct {
	response string
	err      error
	prompt   string
}

func (f *fakeText) GenerateText(ctx context.Context, instruction string, temperature float32) (string, error) {
	f.prompt = instruction
	return f.response, f.err
}

func TestGenerateTrimsQuotes(t *testing.T) {
	fake := &fakeText{response: "\"Un sac qui illumine vos journées. #maroquinerie #cuir #style\"\n"}
	svc := NewService(fake, "French")

	got, err := svc.Generate(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if strings.HasPrefix(got, `"`) || strings.HasSuffix(got, `"`) {
		t.Errorf("quotes not trimmed: %q", got)
	}
}

func TestGenerateReturnsErrorOnFailure(t *testing.T) {
	svc := NewService(&fakeText{err: errors.New("quota exceeded")}, "French")

	if _, err := svc.Generate(context.Background(), nil, nil); err == nil {
		t.Fatal("expected error on upstream failure")
	}
}

func TestGenerateIncludesBrandVoice(t *testing.T) {
	fake := &fakeText{response: "Caption."}
	svc := NewService(fake, "French")

	analysis := &analyze.ProductAnalysis{Name: "Sac cuir orange", Category: "Maroquinerie"}
	dna := &brand.BrandDNA{
		Tone:        "tutoiement chaleureux",
		EmojiPolicy: "none",
		AvoidTerms:  []string{"pas cher"},
	}

	if _, err := svc.Generate(context.Background(), analysis, dna); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	for _, want := range []string{"Sac cuir orange", "tutoiement chaleureux", "Do not use any emoji", "pas cher"} {
		if !strings.Contains(fake.prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestGenerateWithoutBrandOmitsVoiceSection(t *testing.T) {
	fake := &fakeText{response: "Caption."}
	svc := NewService(fake, "French")

	if _, err := svc.Generate(context.Background(), nil, nil); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if strings.Contains(fake.prompt, "Brand voice") {
		t.Error("nil brand DNA must not add a voice section")
	}
}
