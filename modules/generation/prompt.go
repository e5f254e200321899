package generation

import (
	"fmt"
	"strings"

	"vitrine-studio-server/modules/brand"
)

// BuildPrompt - brief와 브랜드 DNA로 생성 프롬프트/네거티브 프롬프트 구성
// IterationFeedback + PreviousImageURL이 모두 있으면 반복 개선 프롬프트로 분기.
func BuildPrompt(brief *GenerationBrief, dna *brand.BrandDNA) (string, string) {
	if brief.IsIteration() {
		return buildIterationPrompt(brief, dna), buildNegativePrompt(brief)
	}
	return buildFirstPrompt(brief, dna), buildNegativePrompt(brief)
}

func buildFirstPrompt(brief *GenerationBrief, dna *brand.BrandDNA) string {
	var sb strings.Builder

	sb.WriteString("Create a professional product photograph.\n\n")
	sb.WriteString(identityClause())
	sb.WriteString(productClause(brief))
	sb.WriteString(presentationClause(brief))
	sb.WriteString(sceneClause(brief))
	sb.WriteString(moodboardClause(brief))
	sb.WriteString(brandClause(dna))

	sb.WriteString("\nRequirements:\n")
	sb.WriteString("- Natural, physically plausible lighting consistent with the scene.\n")
	sb.WriteString("- Realistic contact shadows and reflections where the product meets surfaces.\n")
	sb.WriteString("- The product is the hero of the image, sharp and well framed.\n")
	sb.WriteString("- High-end commercial photography quality, photorealistic, no illustration style.\n")
	sb.WriteString("\nThe final image should feel like an editorial shot for the French market: elegant, warm, effortless.\n")

	return sb.String()
}

func buildIterationPrompt(brief *GenerationBrief, dna *brand.BrandDNA) string {
	var sb strings.Builder

	sb.WriteString("The second image provided is a previous generation that must be improved.\n\n")
	// 사용자 피드백은 문장 맨 앞에, 원문 그대로
	fmt.Fprintf(&sb, "Apply this feedback exactly as stated: \"%s\"\n\n", brief.IterationFeedback)
	sb.WriteString("Keep everything else from the previous image unchanged unless the feedback requires it.\n\n")

	sb.WriteString(identityClause())
	sb.WriteString(productClause(brief))
	sb.WriteString(presentationClause(brief))
	sb.WriteString(sceneClause(brief))
	sb.WriteString(moodboardClause(brief))
	sb.WriteString(brandClause(dna))

	return sb.String()
}

// identityClause - 상품 원형 보존 제약. 모든 프롬프트에 공통.
func identityClause() string {
	return "The product in the first reference image must appear EXACTLY as shown: " +
		"same shape, same proportions, same colors, same materials, same logos and labels. " +
		"Never redesign, restyle or replace the product.\n\n"
}

func productClause(brief *GenerationBrief) string {
	var sb strings.Builder

	if a := brief.Product.Analysis; a != nil {
		fmt.Fprintf(&sb, "Product: %s", a.Name)
		if a.Category != "" {
			fmt.Fprintf(&sb, " (%s)", a.Category)
		}
		sb.WriteString(".")
		if len(a.Materials) > 0 {
			fmt.Fprintf(&sb, " Materials: %s.", strings.Join(a.Materials, ", "))
		}
		if a.Style != "" {
			fmt.Fprintf(&sb, " Style: %s.", a.Style)
		}
		sb.WriteString("\n")
	}
	if brief.Product.Note != "" {
		fmt.Fprintf(&sb, "About the product: %s\n", brief.Product.Note)
	}
	if sb.Len() > 0 {
		sb.WriteString("\n")
	}
	return sb.String()
}

func presentationClause(brief *GenerationBrief) string {
	var sb strings.Builder

	switch brief.Presentation.Type {
	case PresentationOnModel:
		sb.WriteString("Show the product worn or used by a model. ")
		if brief.Presentation.ModelAsset != "" {
			sb.WriteString("Use the person from the provided model reference image, preserving their appearance. ")
		} else {
			sb.WriteString("Use a natural-looking model that fits the product's target audience. ")
		}
		sb.WriteString("The model complements the product without stealing attention.\n")
	case PresentationGhost:
		sb.WriteString("Ghost mannequin presentation: the garment keeps its worn three-dimensional shape with no visible person or mannequin.\n")
	default:
		sb.WriteString("Show the product on its own, carefully staged.\n")
	}

	if brief.Presentation.Note != "" {
		fmt.Fprintf(&sb, "Presentation details: %s\n", brief.Presentation.Note)
	}
	sb.WriteString("\n")
	return sb.String()
}

func sceneClause(brief *GenerationBrief) string {
	var sb strings.Builder

	switch brief.Scene.Type {
	case SceneRealPlace:
		sb.WriteString("Place the product in the provided background photograph. ")
		sb.WriteString("Preserve the background's perspective, lighting direction and atmosphere; the product must look naturally present in that place.\n")
	case SceneStudio:
		sb.WriteString("Clean studio background with a seamless backdrop and soft, even lighting.\n")
	case SceneAIGenerated:
		sb.WriteString("Create a fitting background scene for the product.\n")
	}

	if brief.Scene.Note != "" {
		fmt.Fprintf(&sb, "Scene details: %s\n", brief.Scene.Note)
	}
	if sb.Len() > 0 {
		sb.WriteString("\n")
	}
	return sb.String()
}

func moodboardClause(brief *GenerationBrief) string {
	if brief.Moodboard.URL == "" && brief.Moodboard.Note == "" {
		return ""
	}

	var sb strings.Builder
	if brief.Moodboard.URL != "" {
		sb.WriteString("A moodboard image is provided: borrow its color palette, lighting mood and overall aesthetic, not its content.\n")
	}
	if brief.Moodboard.Note != "" {
		fmt.Fprintf(&sb, "Desired mood: %s\n", brief.Moodboard.Note)
	}
	sb.WriteString("\n")
	return sb.String()
}

func brandClause(dna *brand.BrandDNA) string {
	if !dna.HasVisualIdentity() {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("Brand visual identity:\n")
	if dna.Vibe != "" {
		fmt.Fprintf(&sb, "- Overall vibe: %s\n", dna.Vibe)
	}
	for _, token := range dna.VisualTokens {
		fmt.Fprintf(&sb, "- %s\n", token)
	}
	sb.WriteString("\n")
	return sb.String()
}

// buildNegativePrompt - 프레젠테이션별 기본 금지어 + brief의 avoid 목록
// 빈 문자열도 유효한 결과다.
func buildNegativePrompt(brief *GenerationBrief) string {
	var terms []string

	switch brief.Presentation.Type {
	case PresentationProductOnly:
		terms = append(terms, "people", "hands", "mannequin")
	case PresentationGhost:
		terms = append(terms, "visible person", "visible mannequin", "floating fabric artifacts")
	case PresentationOnModel:
		terms = append(terms, "distorted anatomy", "extra fingers")
	}

	terms = append(terms, brief.AvoidTerms...)

	return strings.Join(terms, ", ")
}
