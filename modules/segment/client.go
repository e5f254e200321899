package segment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"vitrine-studio-server/modules/common/config"
	"vitrine-studio-server/modules/common/model"
	"vitrine-studio-server/modules/common/utils"
)

// Result - 배경 제거 결과. 백엔드 실패 시에도 error 대신 Success=false로 반환해
// 호출부가 fallback 정책을 적용하게 한다.
type Result struct {
	MaskURL string `json:"mask_url,omitempty"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Client - 외부 세그먼트/배경 제거 서비스 REST 클라이언트
type Client struct {
	apiURL   string
	apiKey   string
	model    string
	altModel string
	detect   string
	http     *http.Client
}

// NewClient - Segment 클라이언트 생성
func NewClient(cfg *config.Config) *Client {
	return &Client{
		apiURL:   strings.TrimRight(cfg.SegmentAPIURL, "/"),
		apiKey:   cfg.SegmentAPIKey,
		model:    cfg.SegmentModel,
		altModel: cfg.SegmentAltModel,
		detect:   cfg.DetectAPIURL,
		http:     &http.Client{Timeout: 120 * time.Second},
	}
}

// RemoveBackground - 이미지 전체 배경 제거
// imageRef는 원격 URL 또는 data URL. alternate=true면 보조 모델 사용
// (패션 아이템 등 기본 모델이 약한 경우, 선택은 호출부 몫).
func (c *Client) RemoveBackground(ctx context.Context, imageRef string, alternate bool) Result {
	modelName := c.model
	if alternate {
		modelName = c.altModel
	}

	payload := map[string]interface{}{
		"model": modelName,
		"image": imageRef,
	}

	body, contentType, err := c.post(ctx, c.apiURL+"/remove-background", payload)
	if err != nil {
		log.Printf("⚠️  [Segment] Background removal failed: %v", err)
		return Result{Success: false, Error: err.Error()}
	}

	maskURL, err := normalizeMaskResponse(body, contentType)
	if err != nil {
		log.Printf("⚠️  [Segment] Unusable background removal response: %v", err)
		return Result{Success: false, Error: err.Error()}
	}

	return Result{MaskURL: maskURL, Success: true}
}

// SegmentWithBox - bounding box 힌트를 준 배경 제거
func (c *Client) SegmentWithBox(ctx context.Context, imageData []byte, bbox model.BoundingBox, mimeType string) Result {
	if err := bbox.Validate(); err != nil {
		return Result{Success: false, Error: err.Error()}
	}

	payload := map[string]interface{}{
		"model": c.model,
		"image": utils.EncodeDataURL(imageData, mimeType),
		"box":   bbox,
	}

	body, contentType, err := c.post(ctx, c.apiURL+"/remove-background", payload)
	if err != nil {
		log.Printf("⚠️  [Segment] Box-guided removal failed: %v", err)
		return Result{Success: false, Error: err.Error()}
	}

	maskURL, err := normalizeMaskResponse(body, contentType)
	if err != nil {
		log.Printf("⚠️  [Segment] Unusable box-guided response: %v", err)
		return Result{Success: false, Error: err.Error()}
	}

	return Result{MaskURL: maskURL, Success: true}
}

// Segment - 객체 이름(+위치 힌트)으로 outline/bbox 세그먼트 요청
func (c *Client) Segment(ctx context.Context, imageData []byte, mimeType string, objectName string, hint *model.Point) (model.SegmentationResult, error) {
	payload := map[string]interface{}{
		"image":  utils.EncodeDataURL(imageData, mimeType),
		"prompt": objectName,
	}
	if hint != nil {
		payload["point"] = hint
	}

	body, contentType, err := c.post(ctx, c.apiURL+"/segment", payload)
	if err != nil {
		return model.SegmentationResult{}, fmt.Errorf("segmentation call failed: %w", err)
	}

	return normalizeSegmentResponse(body, contentType)
}

// DetectBox - 객체 이름으로 coarse bounding box 검출 (세그먼트 fallback용)
func (c *Client) DetectBox(ctx context.Context, imageData []byte, mimeType string, objectName string) (*model.BoundingBox, error) {
	if c.detect == "" {
		return nil, fmt.Errorf("detection service not configured")
	}

	payload := map[string]interface{}{
		"image": utils.EncodeDataURL(imageData, mimeType),
		"query": objectName,
	}

	body, _, err := c.post(ctx, c.detect, payload)
	if err != nil {
		return nil, fmt.Errorf("detection call failed: %w", err)
	}

	var resp struct {
		Boxes []model.BoundingBox `json:"boxes"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse detection response: %w", err)
	}
	if len(resp.Boxes) == 0 {
		return nil, fmt.Errorf("no box detected for %q", objectName)
	}

	box := resp.Boxes[0]
	if err := box.Validate(); err != nil {
		return nil, err
	}
	return &box, nil
}

func (c *Client) post(ctx context.Context, url string, payload map[string]interface{}) ([]byte, string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, "", fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, "", fmt.Errorf("backend returned status %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	return body, resp.Header.Get("Content-Type"), nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
