package analyze

import (
	"context"
	"encoding/json"
	"log"
	"strings"

	"vitrine-studio-server/modules/common/fallback"
)

// VisionClient - 이미지 + 지시문으로 텍스트 응답을 받는 호출
type VisionClient interface {
	GenerateVisionText(ctx context.Context, imageData []byte, mimeType string, instruction string, temperature float32) (string, error)
}

type Service struct {
	vision   VisionClient
	language string
}

// NewService - Vision Analyzer 생성
func NewService(vision VisionClient, language string) *Service {
	return &Service{
		vision:   vision,
		language: language,
	}
}

// Analyze classifies a product image into structured attributes. The result is
// advisory: any failure (call error, no JSON, malformed JSON) yields the fixed
// default analysis, never an error.
func (s *Service) Analyze(ctx context.Context, imageData []byte, mimeType string) ProductAnalysis {
	text, err := s.vision.GenerateVisionText(ctx, imageData, mimeType, buildInstruction(s.language), 0.2)
	if err != nil {
		log.Printf("⚠️  [Analyze] Vision call failed, using default analysis: %v", err)
		return DefaultAnalysis()
	}

	jsonStr, ok := ExtractJSONObject(text)
	if !ok {
		log.Printf("⚠️  [Analyze] No JSON object in vision response (%d chars), using default", len(text))
		return DefaultAnalysis()
	}

	var analysis ProductAnalysis
	if err := json.Unmarshal([]byte(jsonStr), &analysis); err != nil {
		log.Printf("⚠️  [Analyze] Malformed analysis JSON, using default: %v", err)
		return DefaultAnalysis()
	}

	// 빈 응답 보정
	analysis.Category = fallback.SafeString(analysis.Category, "Autre")
	analysis.Name = fallback.SafeString(analysis.Name, "Produit")
	if len(analysis.SuggestedPlacements) == 0 {
		analysis.SuggestedPlacements = []string{"table"}
	}

	log.Printf("✅ [Analyze] Product classified: %s / %s (%d keywords)",
		analysis.Category, analysis.Subcategory, len(analysis.Keywords))
	return analysis
}

// ExtractJSONObject returns the first balanced {...} block in a text, so JSON
// survives being wrapped in prose or markdown fences by the model. String
// literals are skipped during brace counting.
func ExtractJSONObject(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(text); i++ {
		ch := text[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}

		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}

	return "", false
}
