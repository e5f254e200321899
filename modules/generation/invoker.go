package generation

import (
	"context"
	"fmt"
	"log"

	"google.golang.org/genai"

	"vitrine-studio-server/modules/common/utils"
)

// ImageGenerator - 멀티파트 이미지 생성 호출
type ImageGenerator interface {
	GenerateImage(ctx context.Context, parts []*genai.Part) ([]byte, error)
}

// AssetStore - 참조 이미지 해석 + 결과 업로드
type AssetStore interface {
	FetchImage(ctx context.Context, ref string) ([]byte, string, error)
	Upload(ctx context.Context, imageData []byte, userID string) (string, int64, error)
}

// Invoker - 생성 모델 호출 + 결과 저장
type Invoker struct {
	generator ImageGenerator
	store     AssetStore
}

func NewInvoker(generator ImageGenerator, store AssetStore) *Invoker {
	return &Invoker{generator: generator, store: store}
}

// Invoke assembles the multi-part request and runs one generation. Part order
// is fixed: the product reference always comes first and the previous output
// (iteration mode) always second, so the prompt's "first image" / "second
// image" clauses resolve correctly; then model asset, background, moodboard,
// and the text prompt last. The generated image is always uploaded to
// storage; the raw bytes never go back to the caller.
func (inv *Invoker) Invoke(ctx context.Context, brief *GenerationBrief, cleanRef []byte, prompt string, negativePrompt string, userID string) (string, error) {
	parts, err := inv.assembleParts(ctx, brief, cleanRef, prompt, negativePrompt)
	if err != nil {
		return "", err
	}

	imageData, err := inv.generator.GenerateImage(ctx, parts)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	if len(imageData) == 0 {
		return "", fmt.Errorf("%w: empty image in response", ErrGenerationFailed)
	}

	outputURL, size, err := inv.store.Upload(ctx, imageData, userID)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}

	log.Printf("✅ [Generation] Output stored: %s (%d bytes)", outputURL, size)
	return outputURL, nil
}

func (inv *Invoker) assembleParts(ctx context.Context, brief *GenerationBrief, cleanRef []byte, prompt string, negativePrompt string) ([]*genai.Part, error) {
	var parts []*genai.Part

	// 1. 상품 참조 (필수, 항상 첫 번째)
	if len(cleanRef) > 0 {
		parts = append(parts, genai.NewPartFromBytes(cleanRef, utils.SniffMime(cleanRef)))
	} else {
		data, mimeType, err := inv.store.FetchImage(ctx, brief.Product.ReferenceImageURL)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve product reference: %w", err)
		}
		parts = append(parts, genai.NewPartFromBytes(data, mimeType))
	}

	// 2. 이전 결과물 (반복 개선 모드). 프롬프트가 "두 번째 이미지"로
	// 지칭하므로 선택 참조들보다 반드시 먼저 온다.
	if brief.IsIteration() {
		data, mimeType, err := inv.store.FetchImage(ctx, brief.PreviousImageURL)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve previous output: %w", err)
		}
		parts = append(parts, genai.NewPartFromBytes(data, mimeType))
	}

	// 3~5. 선택 참조 이미지 (실패 시 스킵, 생성은 계속)
	if brief.Presentation.Type == PresentationOnModel && brief.Presentation.ModelAsset != "" {
		inv.appendOptional(ctx, &parts, brief.Presentation.ModelAsset, "model asset")
	}
	if brief.Scene.Type == SceneRealPlace {
		backgroundRef := brief.Scene.BackgroundURL
		if backgroundRef == "" {
			backgroundRef = brief.Scene.LocationAsset
		}
		if backgroundRef != "" {
			inv.appendOptional(ctx, &parts, backgroundRef, "background")
		}
	}
	if brief.Moodboard.URL != "" {
		inv.appendOptional(ctx, &parts, brief.Moodboard.URL, "moodboard")
	}

	// 6. 텍스트 프롬프트 (항상 마지막)
	text := prompt
	if negativePrompt != "" {
		text += "\nAvoid: " + negativePrompt + "."
	}
	parts = append(parts, genai.NewPartFromText(text))

	return parts, nil
}

func (inv *Invoker) appendOptional(ctx context.Context, parts *[]*genai.Part, ref string, label string) {
	data, mimeType, err := inv.store.FetchImage(ctx, ref)
	if err != nil {
		log.Printf("⚠️  [Generation] Skipping unusable %s reference: %v", label, err)
		return
	}
	*parts = append(*parts, genai.NewPartFromBytes(data, mimeType))
}
