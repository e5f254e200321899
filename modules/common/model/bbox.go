package model

import (
	"fmt"
	"image"
	"math"
)

// BoundingBox - 정규화 좌표 (0~1) 사각형. x_min < x_max, y_min < y_max.
type BoundingBox struct {
	XMin float64 `json:"x_min"`
	YMin float64 `json:"y_min"`
	XMax float64 `json:"x_max"`
	YMax float64 `json:"y_max"`
}

// FullFrame - 화면 전체를 덮는 bbox
func FullFrame() BoundingBox {
	return BoundingBox{XMin: 0, YMin: 0, XMax: 1, YMax: 1}
}

// GenerousBox - 세그먼트/검출이 모두 실패한 아이템에 부여하는 넉넉한 기본 박스
func GenerousBox() BoundingBox {
	return BoundingBox{XMin: 0.05, YMin: 0.05, XMax: 0.95, YMax: 0.95}
}

// Valid - 0 ≤ x_min < x_max ≤ 1, 0 ≤ y_min < y_max ≤ 1 확인
func (b BoundingBox) Valid() bool {
	return b.XMin >= 0 && b.YMin >= 0 &&
		b.XMax <= 1 && b.YMax <= 1 &&
		b.XMin < b.XMax && b.YMin < b.YMax
}

// Validate - 좌표 규칙 위반 시 에러 반환
func (b BoundingBox) Validate() error {
	if !b.Valid() {
		return fmt.Errorf("invalid bounding box: [%.3f,%.3f,%.3f,%.3f]", b.XMin, b.YMin, b.XMax, b.YMax)
	}
	return nil
}

// PixelRect converts the normalized box into pixel offsets for a width×height
// image. Offsets are floored and clamped so the rect always lies inside the
// source image.
func (b BoundingBox) PixelRect(width, height int) image.Rectangle {
	x0 := int(math.Floor(b.XMin * float64(width)))
	y0 := int(math.Floor(b.YMin * float64(height)))
	x1 := int(math.Floor(b.XMax * float64(width)))
	y1 := int(math.Floor(b.YMax * float64(height)))

	if x0 < 0 {
		x0 = 0
	}
	if y0 < 0 {
		y0 = 0
	}
	if x1 > width {
		x1 = width
	}
	if y1 > height {
		y1 = height
	}
	// 최소 1픽셀 보장
	if x1 <= x0 {
		x1 = x0 + 1
	}
	if y1 <= y0 {
		y1 = y0 + 1
	}
	return image.Rect(x0, y0, x1, y1)
}

// Point - 정규화 좌표 위치 힌트
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// SegmentationResult - 세그먼트 응답의 canonical 형태
// outline 기반 또는 mask 기반 중 정확히 하나만 채워진다.
type SegmentationResult struct {
	OutlinePath string       `json:"outline_path,omitempty"`
	BoundingBox *BoundingBox `json:"bounding_box,omitempty"`
	MaskURL     string       `json:"mask_url,omitempty"`
}

// HasOutline - outline 기반 결과인지
func (r SegmentationResult) HasOutline() bool {
	return r.OutlinePath != "" && r.BoundingBox != nil
}

// HasMask - mask 기반 결과인지
func (r SegmentationResult) HasMask() bool {
	return r.MaskURL != ""
}
