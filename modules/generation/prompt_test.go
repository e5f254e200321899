package generation

import (
	"strings"
	"testing"

	"vitrine-studio-server/modules/analyze"
	"vitrine-studio-server/modules/brand"
)

func baseBrief() *GenerationBrief {
	return &GenerationBrief{
		Product: ProductInput{
			ReferenceImageURL: "https://cdn.example.com/product.png",
			Analysis:          &analyze.ProductAnalysis{Name: "Sac cuir orange", Category: "Maroquinerie"},
		},
		Presentation: PresentationInput{Type: PresentationProductOnly},
		Scene:        SceneInput{Type: SceneStudio},
	}
}

func TestBuildPromptFirstGeneration(t *testing.T) {
	prompt, _ := BuildPrompt(baseBrief(), nil)

	if !strings.Contains(prompt, "EXACTLY as shown") {
		t.Error("first-generation prompt must carry the product identity clause")
	}
	if !strings.Contains(prompt, "French market") {
		t.Error("first-generation prompt must carry the editorial closing")
	}
	if !strings.Contains(prompt, "Sac cuir orange") {
		t.Error("product analysis must be reflected in the prompt")
	}
	if strings.Contains(prompt, "previous generation") {
		t.Error("first-generation prompt must not mention a previous image")
	}
}

func TestBuildPromptIterationBranch(t *testing.T) {
	brief := baseBrief()
	brief.IterationFeedback = "rends l'éclairage plus chaud et rapproche la caméra"
	brief.PreviousImageURL = "https://cdn.example.com/prev.webp"

	prompt, _ := BuildPrompt(brief, nil)

	if !strings.Contains(prompt, "previous generation that must be improved") {
		t.Error("iteration prompt must frame the previous image as the base")
	}
	// 피드백은 원문 그대로 들어가야 한다
	if !strings.Contains(prompt, "rends l'éclairage plus chaud et rapproche la caméra") {
		t.Error("iteration prompt must contain the literal user feedback")
	}
	if !strings.Contains(prompt, "EXACTLY as shown") {
		t.Error("identity clause must survive in iteration mode")
	}
	if strings.Contains(prompt, "French market") {
		t.Error("iteration prompt must omit the first-generation closing")
	}
}

func TestBuildPromptIterationRequiresBothFields(t *testing.T) {
	brief := baseBrief()
	brief.IterationFeedback = "plus chaud"
	// PreviousImageURL 없음 → 첫 생성 모드

	prompt, _ := BuildPrompt(brief, nil)
	if strings.Contains(prompt, "previous generation") {
		t.Error("feedback without a previous image must not trigger iteration mode")
	}

	brief.IterationFeedback = ""
	brief.PreviousImageURL = "https://cdn.example.com/prev.webp"
	prompt, _ = BuildPrompt(brief, nil)
	if strings.Contains(prompt, "previous generation") {
		t.Error("previous image without feedback must not trigger iteration mode")
	}
}

func TestBuildPromptIncludesBrandIdentity(t *testing.T) {
	dna := &brand.BrandDNA{
		Vibe:         "minimalisme chaleureux",
		VisualTokens: []string{"tons terracotta", "lumière dorée de fin de journée"},
	}

	prompt, _ := BuildPrompt(baseBrief(), dna)

	for _, want := range []string{"minimalisme chaleureux", "tons terracotta", "lumière dorée de fin de journée"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing brand token %q", want)
		}
	}
}

func TestNegativePromptPerPresentation(t *testing.T) {
	brief := baseBrief()

	brief.Presentation.Type = PresentationProductOnly
	_, neg := BuildPrompt(brief, nil)
	if !strings.Contains(neg, "people") || !strings.Contains(neg, "mannequin") {
		t.Errorf("product_only negative prompt = %q, want people/mannequin terms", neg)
	}

	brief.Presentation.Type = PresentationGhost
	_, neg = BuildPrompt(brief, nil)
	if !strings.Contains(neg, "visible person") {
		t.Errorf("ghost negative prompt = %q, want visible person", neg)
	}

	brief.Presentation.Type = PresentationOnModel
	brief.AvoidTerms = []string{"logo flou"}
	_, neg = BuildPrompt(brief, nil)
	if !strings.Contains(neg, "distorted anatomy") || !strings.Contains(neg, "logo flou") {
		t.Errorf("on_model negative prompt = %q, want anatomy defaults plus brief avoid terms", neg)
	}
}

func TestNegativePromptMayBeEmpty(t *testing.T) {
	brief := baseBrief()
	brief.Presentation.Type = ""

	_, neg := BuildPrompt(brief, nil)
	if neg != "" {
		t.Errorf("expected empty negative prompt for untyped presentation, got %q", neg)
	}
}
