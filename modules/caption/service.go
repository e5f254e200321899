package caption

import (
	"context"
	"fmt"
	"log"
	"strings"

	"vitrine-studio-server/modules/analyze"
	"vitrine-studio-server/modules/brand"
)

// TextClient - 텍스트 전용 생성 호출
type TextClient interface {
	GenerateText(ctx context.Context, instruction string, temperature float32) (string, error)
}

type Service struct {
	text     TextClient
	language string
}

// NewService - 소셜 캡션 생성기
func NewService(text TextClient, language string) *Service {
	return &Service{text: text, language: language}
}

// Generate - 상품 분석 + 브랜드 언어 DNA 기반 소셜 캡션 생성
// 캡션은 부가 기능이라 실패 시 빈 문자열을 반환한다 (호출부는 fire-and-log).
func (s *Service) Generate(ctx context.Context, analysis *analyze.ProductAnalysis, dna *brand.BrandDNA) (string, error) {
	result, err := s.text.GenerateText(ctx, s.buildInstruction(analysis, dna), 0.8)
	if err != nil {
		return "", fmt.Errorf("caption generation failed: %w", err)
	}

	caption := strings.TrimSpace(strings.Trim(strings.TrimSpace(result), `"`))
	if caption == "" {
		return "", fmt.Errorf("empty caption in response")
	}

	log.Printf("✅ [Caption] Generated (%d chars)", len(caption))
	return caption, nil
}

func (s *Service) buildInstruction(analysis *analyze.ProductAnalysis, dna *brand.BrandDNA) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Write a short social media caption in %s for a product photo.\n", s.language)
	sb.WriteString("Maximum 2 sentences plus 3-5 hashtags. Respond with the caption only.\n\n")

	if analysis != nil {
		fmt.Fprintf(&sb, "Product: %s (%s", analysis.Name, analysis.Category)
		if analysis.Subcategory != "" {
			fmt.Fprintf(&sb, " / %s", analysis.Subcategory)
		}
		sb.WriteString(")\n")
		if analysis.Description != "" {
			fmt.Fprintf(&sb, "Description: %s\n", analysis.Description)
		}
		if len(analysis.Keywords) > 0 {
			fmt.Fprintf(&sb, "Keywords: %s\n", strings.Join(analysis.Keywords, ", "))
		}
	}

	if dna.HasVerbalIdentity() {
		sb.WriteString("\nBrand voice:\n")
		if dna.Tone != "" {
			fmt.Fprintf(&sb, "- Tone: %s\n", dna.Tone)
		}
		switch dna.EmojiPolicy {
		case "none":
			sb.WriteString("- Do not use any emoji.\n")
		case "expressive":
			sb.WriteString("- Use emoji freely where they fit the tone.\n")
		case "light":
			sb.WriteString("- Use at most one or two emoji.\n")
		}
		if len(dna.AvoidTerms) > 0 {
			fmt.Fprintf(&sb, "- Never use these words: %s\n", strings.Join(dna.AvoidTerms, ", "))
		}
	}

	return sb.String()
}
