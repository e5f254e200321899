package detect

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"
	"unicode/utf8"

	"vitrine-studio-server/modules/analyze"
	"vitrine-studio-server/modules/common/model"
)

const maxProducts = 8

// VisionClient - 이미지 + 지시문으로 텍스트 응답을 받는 호출
type VisionClient interface {
	GenerateVisionText(ctx context.Context, imageData []byte, mimeType string, instruction string, temperature float32) (string, error)
}

// Segmenter - 상품별 outline 세그먼트와 coarse 박스 검출
type Segmenter interface {
	Segment(ctx context.Context, imageData []byte, mimeType string, objectName string, hint *model.Point) (model.SegmentationResult, error)
	DetectBox(ctx context.Context, imageData []byte, mimeType string, objectName string) (*model.BoundingBox, error)
}

type Service struct {
	vision    VisionClient
	segmenter Segmenter
	language  string
	pacing    PacingPolicy
	sleep     func(time.Duration)
}

// NewService - Multi-Product Detector 생성
func NewService(vision VisionClient, segmenter Segmenter, language string, pacing PacingPolicy) *Service {
	if pacing.MaxAttempts < 1 {
		pacing.MaxAttempts = 1
	}
	return &Service{
		vision:    vision,
		segmenter: segmenter,
		language:  language,
		pacing:    pacing,
		sleep:     time.Sleep,
	}
}

// Detect finds every sellable product in the image. The result always carries
// at least one product: when identification fails or returns nothing usable, a
// single full-frame product is synthesized so downstream compositing still has
// a region to work with. No item is ever dropped for segmentation failure;
// failures degrade to a coarse detected box, then to a generous default box.
func (s *Service) Detect(ctx context.Context, imageData []byte, mimeType string) DetectResult {
	items := s.identify(ctx, imageData, mimeType)
	if len(items) == 0 {
		log.Printf("⚠️  [Detect] No usable products identified, using full-frame fallback")
		return DetectResult{
			Products: []DetectedProduct{{
				ID:          "product_1",
				Description: "produit",
				BoundingBox: model.FullFrame(),
				Provenance:  ProvenanceFullFrame,
			}},
			TotalCount: 1,
		}
	}

	products := make([]DetectedProduct, 0, len(items))
	for i, item := range items {
		// 세그먼트 백엔드 과부하 방지: 순차 + 간격
		if i > 0 && s.pacing.Delay > 0 {
			s.sleep(s.pacing.Delay)
		}

		product := s.segmentItem(ctx, imageData, mimeType, item)
		product.ID = fmt.Sprintf("product_%d", i+1)
		products = append(products, product)
	}

	log.Printf("✅ [Detect] %d product(s) detected", len(products))
	return DetectResult{Products: products, TotalCount: len(products)}
}

// identify - vision 호출로 상품 목록 식별 후 이름 검증/상한 적용
func (s *Service) identify(ctx context.Context, imageData []byte, mimeType string) []DetectedItem {
	text, err := s.vision.GenerateVisionText(ctx, imageData, mimeType, buildIdentifyInstruction(s.language), 0.1)
	if err != nil {
		log.Printf("⚠️  [Detect] Identification call failed: %v", err)
		return nil
	}

	jsonStr, ok := analyze.ExtractJSONObject(text)
	if !ok {
		log.Printf("⚠️  [Detect] No JSON object in identification response (%d chars)", len(text))
		return nil
	}

	var resp struct {
		DetectedCount int            `json:"detected_count"`
		Items         []DetectedItem `json:"items"`
	}
	if err := json.Unmarshal([]byte(jsonStr), &resp); err != nil {
		log.Printf("⚠️  [Detect] Malformed identification JSON: %v", err)
		return nil
	}

	var valid []DetectedItem
	for _, item := range resp.Items {
		name := strings.TrimSpace(item.Name)
		length := utf8.RuneCountInString(name)
		if length < 3 || length > 60 {
			log.Printf("⚠️  [Detect] Dropping item with invalid name length (%d): %q", length, name)
			continue
		}
		valid = append(valid, DetectedItem{Name: name, Location: item.Location})
		if len(valid) == maxProducts {
			log.Printf("⚠️  [Detect] Capping detection at %d products (%d reported)", maxProducts, resp.DetectedCount)
			break
		}
	}
	return valid
}

// segmentItem - outline 세그먼트 → coarse 박스 → 기본 박스 순 fallback
func (s *Service) segmentItem(ctx context.Context, imageData []byte, mimeType string, item DetectedItem) DetectedProduct {
	hint := anchorFor(item.Location)

	for attempt := 1; attempt <= s.pacing.MaxAttempts; attempt++ {
		if attempt > 1 && s.pacing.Delay > 0 {
			s.sleep(s.pacing.Delay)
		}
		seg, err := s.segmenter.Segment(ctx, imageData, mimeType, item.Name, hint)
		if err != nil {
			log.Printf("⚠️  [Detect] Segmentation attempt %d/%d failed for %q: %v",
				attempt, s.pacing.MaxAttempts, item.Name, err)
			continue
		}
		if seg.HasOutline() {
			return DetectedProduct{
				Description: item.Name,
				BoundingBox: *seg.BoundingBox,
				OutlinePath: seg.OutlinePath,
				Provenance:  ProvenanceOutline,
			}
		}
		// mask-only 응답은 outline으로 쓸 수 없다
		log.Printf("⚠️  [Detect] Segmentation returned no outline for %q", item.Name)
		break
	}

	if box, err := s.segmenter.DetectBox(ctx, imageData, mimeType, item.Name); err == nil {
		return DetectedProduct{
			Description: item.Name,
			BoundingBox: *box,
			Provenance:  ProvenanceDetectedBox,
		}
	} else {
		log.Printf("⚠️  [Detect] Box detection failed for %q: %v", item.Name, err)
	}

	log.Printf("⚠️  [Detect] All localization failed for %q, using generous default box", item.Name)
	return DetectedProduct{
		Description: item.Name,
		BoundingBox: model.GenerousBox(),
		Provenance:  ProvenanceDefaultBox,
	}
}
