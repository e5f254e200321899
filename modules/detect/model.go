package detect

import (
	"time"

	"vitrine-studio-server/modules/common/model"
)

// Provenance - 각 상품의 bbox/outline이 어느 단계에서 나왔는지
const (
	ProvenanceOutline     = "outline"      // 세그먼트 outline 성공
	ProvenanceDetectedBox = "detected_box" // outline 실패, coarse 검출 박스
	ProvenanceDefaultBox  = "default_box"  // 둘 다 실패, 넉넉한 기본 박스
	ProvenanceFullFrame   = "full_frame"   // 아무것도 못 찾아 화면 전체로 합성
)

// DetectedItem - 식별 단계의 원시 응답 항목
type DetectedItem struct {
	Name     string `json:"short_name"`
	Location string `json:"location"`
}

// DetectedProduct - 세그먼트까지 마친 최종 상품 항목
type DetectedProduct struct {
	ID          string            `json:"id"`
	Description string            `json:"description"`
	BoundingBox model.BoundingBox `json:"bounding_box"`
	OutlinePath string            `json:"outline_path,omitempty"`
	Provenance  string            `json:"provenance"`
}

// DetectResult - 멀티 상품 검출 결과. TotalCount는 항상 1 이상.
type DetectResult struct {
	Products   []DetectedProduct `json:"products"`
	TotalCount int               `json:"total_count"`
}

// PacingPolicy - 세그먼트 백엔드 과부하 방지용 순차 호출 간격
type PacingPolicy struct {
	Delay       time.Duration
	MaxAttempts int
}

// 3×3 그리드 location 토큰 → 정규화 중심점
var locationAnchors = map[string]model.Point{
	"top-left":      {X: 0.17, Y: 0.17},
	"top-center":    {X: 0.50, Y: 0.17},
	"top-right":     {X: 0.83, Y: 0.17},
	"middle-left":   {X: 0.17, Y: 0.50},
	"center":        {X: 0.50, Y: 0.50},
	"middle-right":  {X: 0.83, Y: 0.50},
	"bottom-left":   {X: 0.17, Y: 0.83},
	"bottom-center": {X: 0.50, Y: 0.83},
	"bottom-right":  {X: 0.83, Y: 0.83},
}

// anchorFor - location 토큰을 중심점 힌트로 변환
// 모르는 토큰은 힌트 없음: 엉뚱한 중심점은 세그먼트를 오도한다.
func anchorFor(location string) *model.Point {
	if p, ok := locationAnchors[location]; ok {
		return &p
	}
	return nil
}
