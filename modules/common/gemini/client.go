package gemini

import (
	"context"
	"fmt"
	"log"
	"strings"

	"google.golang.org/genai"

	"vitrine-studio-server/modules/common/config"
)

// Client wraps the genai SDK behind the two call shapes the pipeline needs:
// a text response from a vision prompt, and an inline image from a
// multi-part generation request. Constructed once at startup and injected.
type Client struct {
	apiKeys     []string
	imageModel  string
	visionModel string
}

func NewClient(cfg *config.Config) *Client {
	return &Client{
		apiKeys:     cfg.GeminiAPIKeys,
		imageModel:  cfg.GeminiImageModel,
		visionModel: cfg.GeminiVisionModel,
	}
}

// GenerateVisionText - 이미지 + 지시문으로 텍스트 응답 생성
func (c *Client) GenerateVisionText(ctx context.Context, imageData []byte, mimeType string, instruction string, temperature float32) (string, error) {
	if mimeType == "" {
		mimeType = "image/png"
	}

	content := &genai.Content{
		Parts: []*genai.Part{
			genai.NewPartFromBytes(imageData, mimeType),
			genai.NewPartFromText(instruction),
		},
	}

	result, err := GenerateContentWithRetry(ctx, c.apiKeys, c.visionModel, []*genai.Content{content},
		&genai.GenerateContentConfig{
			Temperature: &temperature,
		})
	if err != nil {
		return "", fmt.Errorf("vision call failed: %w", err)
	}

	text := extractText(result)
	if text == "" {
		return "", fmt.Errorf("no text in vision response")
	}
	return text, nil
}

// GenerateText - 텍스트 전용 호출 (캡션 등)
func (c *Client) GenerateText(ctx context.Context, instruction string, temperature float32) (string, error) {
	content := &genai.Content{
		Parts: []*genai.Part{genai.NewPartFromText(instruction)},
	}

	result, err := GenerateContentWithRetry(ctx, c.apiKeys, c.visionModel, []*genai.Content{content},
		&genai.GenerateContentConfig{
			Temperature: &temperature,
		})
	if err != nil {
		return "", fmt.Errorf("text call failed: %w", err)
	}

	text := extractText(result)
	if text == "" {
		return "", fmt.Errorf("no text in response")
	}
	return text, nil
}

// GenerateImage - 멀티파트 요청으로 이미지 생성, 첫 번째 inline 이미지 반환
func (c *Client) GenerateImage(ctx context.Context, parts []*genai.Part) ([]byte, error) {
	log.Printf("🎨 Calling Gemini image model %s with %d parts", c.imageModel, len(parts))

	content := &genai.Content{Parts: parts}

	result, err := GenerateContentWithRetry(ctx, c.apiKeys, c.imageModel, []*genai.Content{content},
		&genai.GenerateContentConfig{
			Temperature: floatPtr(0.45),
		})
	if err != nil {
		return nil, fmt.Errorf("Gemini API call failed: %w", err)
	}

	if len(result.Candidates) == 0 {
		return nil, fmt.Errorf("no candidates in response")
	}

	// 이미지는 InlineData로 반환됨 - 첫 번째 것을 사용
	for _, candidate := range result.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				log.Printf("✅ Received image from Gemini: %d bytes", len(part.InlineData.Data))
				return part.InlineData.Data, nil
			}
		}
	}

	return nil, fmt.Errorf("no image data in response")
}

func extractText(result *genai.GenerateContentResponse) string {
	var sb strings.Builder
	for _, candidate := range result.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part.Text != "" {
				sb.WriteString(part.Text)
			}
		}
		if sb.Len() > 0 {
			break
		}
	}
	return sb.String()
}

// floatPtr - float64를 *float32로 변환
func floatPtr(f float64) *float32 {
	f32 := float32(f)
	return &f32
}
