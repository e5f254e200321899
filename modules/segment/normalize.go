package segment

import (
	"encoding/json"
	"fmt"
	"strings"

	"vitrine-studio-server/modules/common/model"
	"vitrine-studio-server/modules/common/utils"
)

// 세그먼트 백엔드는 배포 버전에 따라 응답 형태가 제각각이다:
//   - 순수 URL 문자열 (JSON 문자열 또는 raw text)
//   - {"url": ...} / {"image": ...} / {"output": ...} / {"mask_url": ...} 객체
//   - 위 객체들의 배열 (첫 요소 사용)
//   - 이미지 바이너리 스트림 (Content-Type: image/*)
// 형태 흡수는 전부 여기서 처리하고 호출부는 canonical 형태만 본다.

// normalizeMaskResponse - 배경 제거 응답을 mask URL 하나로 정규화
func normalizeMaskResponse(body []byte, contentType string) (string, error) {
	// 바이너리 스트림은 data URL로 감싸서 반환
	if strings.HasPrefix(contentType, "image/") {
		if len(body) == 0 {
			return "", fmt.Errorf("empty image stream")
		}
		return utils.EncodeDataURL(body, utils.SniffMime(body)), nil
	}

	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return "", fmt.Errorf("empty response body")
	}

	// JSON 문자열 리터럴 ("https://...")
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal([]byte(trimmed), &s); err == nil && looksLikeImageRef(s) {
			return s, nil
		}
	}

	// JSON 객체 또는 배열
	if trimmed[0] == '{' || trimmed[0] == '[' {
		if url, ok := extractURLFromJSON([]byte(trimmed)); ok {
			return url, nil
		}
		return "", fmt.Errorf("no image URL found in JSON response")
	}

	// raw text URL
	if looksLikeImageRef(trimmed) {
		return trimmed, nil
	}

	return "", fmt.Errorf("unrecognized response shape (content-type %q)", contentType)
}

// normalizeSegmentResponse - 세그먼트 응답을 SegmentationResult로 정규화
// outline(+bbox)이 있으면 outline 기반, 아니면 mask 기반으로 해석한다.
func normalizeSegmentResponse(body []byte, contentType string) (model.SegmentationResult, error) {
	if strings.HasPrefix(contentType, "image/") {
		if len(body) == 0 {
			return model.SegmentationResult{}, fmt.Errorf("empty image stream")
		}
		return model.SegmentationResult{
			MaskURL: utils.EncodeDataURL(body, utils.SniffMime(body)),
		}, nil
	}

	trimmed := strings.TrimSpace(string(body))
	if len(trimmed) == 0 {
		return model.SegmentationResult{}, fmt.Errorf("empty response body")
	}

	// 배열이면 첫 요소 사용
	if trimmed[0] == '[' {
		var arr []json.RawMessage
		if err := json.Unmarshal([]byte(trimmed), &arr); err != nil || len(arr) == 0 {
			return model.SegmentationResult{}, fmt.Errorf("empty or invalid array response")
		}
		trimmed = strings.TrimSpace(string(arr[0]))
	}

	if trimmed[0] == '{' {
		var resp struct {
			OutlinePath string             `json:"outline_path"`
			Path        string             `json:"path"`
			BoundingBox *model.BoundingBox `json:"bounding_box"`
			Box         *model.BoundingBox `json:"box"`
			MaskURL     string             `json:"mask_url"`
			URL         string             `json:"url"`
			Image       string             `json:"image"`
			Output      string             `json:"output"`
		}
		if err := json.Unmarshal([]byte(trimmed), &resp); err != nil {
			return model.SegmentationResult{}, fmt.Errorf("failed to parse segment response: %w", err)
		}

		outline := resp.OutlinePath
		if outline == "" {
			outline = resp.Path
		}
		box := resp.BoundingBox
		if box == nil {
			box = resp.Box
		}
		if outline != "" && box != nil {
			if err := box.Validate(); err != nil {
				return model.SegmentationResult{}, err
			}
			return model.SegmentationResult{OutlinePath: outline, BoundingBox: box}, nil
		}

		for _, candidate := range []string{resp.MaskURL, resp.URL, resp.Image, resp.Output} {
			if looksLikeImageRef(candidate) {
				return model.SegmentationResult{MaskURL: candidate}, nil
			}
		}
		return model.SegmentationResult{}, fmt.Errorf("segment response has neither outline nor mask")
	}

	// JSON 문자열 또는 raw URL → mask 기반
	url, err := normalizeMaskResponse(body, contentType)
	if err != nil {
		return model.SegmentationResult{}, err
	}
	return model.SegmentationResult{MaskURL: url}, nil
}

// extractURLFromJSON - 객체/배열에서 이미지 참조로 보이는 첫 값을 찾는다
func extractURLFromJSON(data []byte) (string, bool) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err == nil {
		// 알려진 키 우선, 없으면 아무 문자열 값이나
		for _, key := range []string{"mask_url", "url", "image", "output", "result", "data"} {
			raw, ok := obj[key]
			if !ok {
				continue
			}
			var s string
			if err := json.Unmarshal(raw, &s); err == nil && looksLikeImageRef(s) {
				return s, true
			}
			// 중첩 객체 ({"data": {"url": ...}})
			if url, ok := extractURLFromJSON(raw); ok {
				return url, true
			}
		}
		return "", false
	}

	var arr []json.RawMessage
	if err := json.Unmarshal(data, &arr); err == nil && len(arr) > 0 {
		first := strings.TrimSpace(string(arr[0]))
		var s string
		if err := json.Unmarshal([]byte(first), &s); err == nil && looksLikeImageRef(s) {
			return s, true
		}
		return extractURLFromJSON(arr[0])
	}

	return "", false
}

func looksLikeImageRef(s string) bool {
	return strings.HasPrefix(s, "http://") ||
		strings.HasPrefix(s, "https://") ||
		strings.HasPrefix(s, "data:image/")
}
