package generation

import (
	"errors"
	"fmt"

	"vitrine-studio-server/modules/analyze"
)

// 프레젠테이션 방식
const (
	PresentationProductOnly = "product_only" // 상품 단독
	PresentationOnModel     = "on_model"     // 모델 착용/사용
	PresentationGhost       = "ghost"        // 고스트 마네킹 (의류)
)

// 배경 종류
const (
	SceneRealPlace   = "real_place"   // 사용자가 올린 실제 장소 사진
	SceneStudio      = "studio"       // 무지 스튜디오 배경
	SceneAIGenerated = "ai_generated" // 설명 기반 AI 생성 배경
)

var (
	ErrGenerationFailed = errors.New("image generation failed")
	ErrMissingProduct   = errors.New("product reference image is required")
	ErrInvalidBrief     = errors.New("invalid generation brief")
	ErrUploadFailed     = errors.New("failed to store generated image")
	ErrDebitRace        = errors.New("credits were consumed by a concurrent request")
)

// ProductInput - 생성 대상 상품
type ProductInput struct {
	ProductID         string                   `json:"product_id,omitempty"`
	ReferenceImageURL string                   `json:"reference_image_url"`
	Analysis          *analyze.ProductAnalysis `json:"analysis,omitempty"`
	Note              string                   `json:"note,omitempty"`
}

// PresentationInput - 상품을 어떻게 보여줄지
type PresentationInput struct {
	Type       string `json:"type"` // product_only | on_model | ghost
	Note       string `json:"note,omitempty"`
	ModelAsset string `json:"model_asset,omitempty"` // on_model일 때 모델 참조 이미지
}

// SceneInput - 배경/장소
type SceneInput struct {
	Type          string `json:"type"` // real_place | studio | ai_generated
	BackgroundID  string `json:"background_id,omitempty"`
	BackgroundURL string `json:"background_url,omitempty"`
	Note          string `json:"note,omitempty"`
	LocationAsset string `json:"location_asset,omitempty"`
}

// MoodboardInput - 스타일 참조
type MoodboardInput struct {
	URL  string `json:"url,omitempty"`
	Note string `json:"note,omitempty"`
}

// GenerationBrief - 생성 요청 전체. IterationFeedback과 PreviousImageURL이
// 모두 채워지면 반복 개선 모드로 동작한다.
type GenerationBrief struct {
	Product           ProductInput      `json:"product"`
	Presentation      PresentationInput `json:"presentation"`
	Scene             SceneInput        `json:"scene"`
	Moodboard         MoodboardInput    `json:"moodboard"`
	AvoidTerms        []string          `json:"avoid_terms,omitempty"`
	IterationFeedback string            `json:"iteration_feedback,omitempty"`
	PreviousImageURL  string            `json:"previous_image_url,omitempty"`
	BrandID           string            `json:"brand_id,omitempty"`
}

// IsIteration - 반복 개선 모드 여부 (피드백과 이전 결과가 둘 다 있어야 함)
func (b *GenerationBrief) IsIteration() bool {
	return b.IterationFeedback != "" && b.PreviousImageURL != ""
}

// Validate - 필수 입력 검증
func (b *GenerationBrief) Validate() error {
	if b.Product.ReferenceImageURL == "" {
		return ErrMissingProduct
	}
	switch b.Presentation.Type {
	case "", PresentationProductOnly, PresentationOnModel, PresentationGhost:
	default:
		return fmt.Errorf("%w: unknown presentation type %q", ErrInvalidBrief, b.Presentation.Type)
	}
	switch b.Scene.Type {
	case "", SceneRealPlace, SceneStudio, SceneAIGenerated:
	default:
		return fmt.Errorf("%w: unknown scene type %q", ErrInvalidBrief, b.Scene.Type)
	}
	return nil
}

// GenerationResult - 성공한 생성 1건의 결과
type GenerationResult struct {
	SessionID        string `json:"session_id,omitempty"`
	OutputImageURL   string `json:"output_image_url"`
	CleanRefURL      string `json:"clean_ref_url,omitempty"`
	Prompt           string `json:"prompt"`
	NegativePrompt   string `json:"negative_prompt"`
	Caption          string `json:"caption,omitempty"`
	CreditsCost      int    `json:"credits_cost"`
	CreditsRemaining int    `json:"credits_remaining"`
}
