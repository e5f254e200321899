package composite

import (
	"context"
	"fmt"
	"image"
	"image/draw"
	"log"

	"github.com/disintegration/imaging"

	"vitrine-studio-server/modules/common/model"
	"vitrine-studio-server/modules/common/utils"
	"vitrine-studio-server/modules/segment"
)

// ImageFetcher - 이미지 참조(URL/data URL/로컬 경로)를 바이너리로 해석
type ImageFetcher interface {
	FetchImage(ctx context.Context, ref string) ([]byte, string, error)
}

// BackgroundRemover - outline이 없을 때 쓰는 배경 제거 fallback
type BackgroundRemover interface {
	RemoveBackground(ctx context.Context, imageRef string, alternate bool) segment.Result
}

// Compositor - 원본 사진에서 상품만 오려낸 clean reference 생성기
type Compositor struct {
	fetcher ImageFetcher
	remover BackgroundRemover
}

func NewCompositor(fetcher ImageFetcher, remover BackgroundRemover) *Compositor {
	return &Compositor{fetcher: fetcher, remover: remover}
}

// BuildCleanReference extracts the product region as a transparent-background
// PNG. When an outline is available the mask is applied to the FULL image
// before cropping, so outline coordinates (normalized against the original)
// stay aligned; cropping first would shift the mask off the product.
func (c *Compositor) BuildCleanReference(ctx context.Context, originalRef string, bbox model.BoundingBox, outlinePath string) ([]byte, error) {
	if err := bbox.Validate(); err != nil {
		return nil, err
	}

	data, _, err := c.fetcher.FetchImage(ctx, originalRef)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch original image: %w", err)
	}

	img, _, err := utils.DecodeImage(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode original image: %w", err)
	}

	if outlinePath != "" {
		result, err := c.buildFromOutline(img, bbox, outlinePath)
		if err == nil {
			return result, nil
		}
		log.Printf("⚠️  [Composite] Outline masking failed, falling back to crop: %v", err)
	}

	return c.buildFromCrop(ctx, img, bbox)
}

// buildFromOutline - 마스크 적용 → crop → 투명 여백 trim
func (c *Compositor) buildFromOutline(img image.Image, bbox model.BoundingBox, outlinePath string) ([]byte, error) {
	paths, err := parseOutlinePath(outlinePath)
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	mask := rasterizeOutline(paths, width, height)

	masked := image.NewNRGBA(image.Rect(0, 0, width, height))
	draw.DrawMask(masked, masked.Bounds(), img, bounds.Min, mask, image.Point{}, draw.Src)

	cropped := imaging.Crop(masked, bbox.PixelRect(width, height))
	trimmed := trimTransparent(cropped)

	log.Printf("🎨 [Composite] Clean reference built from outline: %dx%d → %dx%d",
		width, height, trimmed.Bounds().Dx(), trimmed.Bounds().Dy())
	return utils.EncodePNG(trimmed)
}

// buildFromCrop - outline이 없으면 crop 후 배경 제거를 시도하고,
// 그마저 실패하면 단순 crop을 그대로 쓴다.
func (c *Compositor) buildFromCrop(ctx context.Context, img image.Image, bbox model.BoundingBox) ([]byte, error) {
	bounds := img.Bounds()
	cropped := imaging.Crop(img, bbox.PixelRect(bounds.Dx(), bounds.Dy()))

	cropPNG, err := utils.EncodePNG(cropped)
	if err != nil {
		return nil, err
	}

	if c.remover != nil {
		res := c.remover.RemoveBackground(ctx, utils.EncodeDataURL(cropPNG, "image/png"), false)
		if res.Success {
			if cutout, err := c.fetchCutout(ctx, res.MaskURL); err == nil {
				log.Printf("🎨 [Composite] Clean reference built via background removal")
				return utils.EncodePNG(cutout)
			} else {
				log.Printf("⚠️  [Composite] Background removal result unusable: %v", err)
			}
		}
	}

	log.Printf("🎨 [Composite] Clean reference built from plain crop: %dx%d",
		cropped.Bounds().Dx(), cropped.Bounds().Dy())
	return cropPNG, nil
}

func (c *Compositor) fetchCutout(ctx context.Context, maskURL string) (*image.NRGBA, error) {
	maskData, _, err := c.fetcher.FetchImage(ctx, maskURL)
	if err != nil {
		return nil, err
	}
	cutout, _, err := utils.DecodeImage(maskData)
	if err != nil {
		return nil, err
	}
	return imaging.Clone(cutout), nil
}

// trimTransparent - 완전 투명한 가장자리 행/열 제거
// 전부 투명하면 원본을 그대로 반환한다.
func trimTransparent(img *image.NRGBA) *image.NRGBA {
	bounds := img.Bounds()
	minX, minY := bounds.Max.X, bounds.Max.Y
	maxX, maxY := bounds.Min.X-1, bounds.Min.Y-1

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if img.NRGBAAt(x, y).A == 0 {
				continue
			}
			if x < minX {
				minX = x
			}
			if y < minY {
				minY = y
			}
			if x > maxX {
				maxX = x
			}
			if y > maxY {
				maxY = y
			}
		}
	}

	if maxX < minX || maxY < minY {
		return img
	}
	return imaging.Crop(img, image.Rect(minX, minY, maxX+1, maxY+1))
}
