package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"os"
	"strings"
	"time"

	"vitrine-studio-server/modules/common/config"
	"vitrine-studio-server/modules/common/utils"
)

const bucket = "attachments"

type Client struct {
	cfg  *config.Config
	http *http.Client
}

// NewClient - Storage 클라이언트 생성
func NewClient(cfg *config.Config) *Client {
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: 60 * time.Second},
	}
}

// FetchImage resolves an image reference to raw bytes. Accepts a local file
// path, a data URL, or a remote URL. Remote responses must carry an image/*
// Content-Type; anything else is rejected so non-image payloads never reach
// the generation backend.
func (c *Client) FetchImage(ctx context.Context, ref string) ([]byte, string, error) {
	switch {
	case utils.IsDataURL(ref):
		data, mimeType, err := utils.DecodeDataURL(ref)
		if err != nil {
			return nil, "", fmt.Errorf("failed to decode data URL: %w", err)
		}
		return data, mimeType, nil

	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		req, err := http.NewRequestWithContext(ctx, "GET", ref, nil)
		if err != nil {
			return nil, "", fmt.Errorf("failed to create request: %w", err)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			log.Printf("❌ HTTP GET failed: %v", err)
			return nil, "", fmt.Errorf("failed to download image: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			log.Printf("❌ Download failed - Status: %d, URL: %s", resp.StatusCode, ref)
			return nil, "", fmt.Errorf("failed to download image: status %d, body: %s", resp.StatusCode, string(body))
		}

		contentType := resp.Header.Get("Content-Type")
		if !strings.HasPrefix(contentType, "image/") {
			log.Printf("⚠️  Rejected non-image payload from %s (Content-Type: %s)", ref, contentType)
			return nil, "", fmt.Errorf("remote resource is not an image: %s", contentType)
		}

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, "", fmt.Errorf("failed to read image data: %w", err)
		}

		log.Printf("📥 Image downloaded: %s (%d bytes)", ref, len(data))
		return data, contentType, nil

	default:
		// 로컬 파일 경로
		data, err := os.ReadFile(ref)
		if err != nil {
			return nil, "", fmt.Errorf("failed to read local image: %w", err)
		}
		return data, utils.SniffMime(data), nil
	}
}

// Upload - 생성 이미지를 WebP로 변환 후 Supabase Storage에 업로드
// 반환값은 public URL (SupabaseStorageBaseURL + 경로)
func (c *Client) Upload(ctx context.Context, imageData []byte, userID string) (string, int64, error) {
	// PNG를 WebP로 변환 (quality: 90)
	webpData, err := utils.ConvertPNGToWebP(imageData, 90.0)
	if err != nil {
		return "", 0, fmt.Errorf("failed to convert PNG to WebP: %w", err)
	}

	timestamp := time.Now().UnixNano() / int64(time.Millisecond)
	randomID := rand.Intn(999999)
	fileName := fmt.Sprintf("generated_%d_%d.webp", timestamp, randomID)
	filePath := fmt.Sprintf("generated/user-%s/%s", userID, fileName)

	log.Printf("📤 Uploading WebP image to storage: %s", filePath)

	uploadURL := fmt.Sprintf("%s/storage/v1/object/%s/%s", c.cfg.SupabaseURL, bucket, filePath)

	req, err := http.NewRequestWithContext(ctx, "POST", uploadURL, bytes.NewReader(webpData))
	if err != nil {
		return "", 0, fmt.Errorf("failed to create upload request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.cfg.SupabaseServiceKey)
	req.Header.Set("Content-Type", "image/webp")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("failed to upload image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		return "", 0, fmt.Errorf("upload failed with status %d: %s", resp.StatusCode, string(body))
	}

	webpSize := int64(len(webpData))
	log.Printf("✅ WebP image uploaded: %s (%d bytes)", filePath, webpSize)
	return c.cfg.SupabaseStorageBaseURL + filePath, webpSize, nil
}

// SignedURL - private 오브젝트의 서명 URL 발급
func (c *Client) SignedURL(ctx context.Context, filePath string, ttl time.Duration) (string, error) {
	signURL := fmt.Sprintf("%s/storage/v1/object/sign/%s/%s", c.cfg.SupabaseURL, bucket, filePath)

	payload, _ := json.Marshal(map[string]interface{}{
		"expiresIn": int(ttl.Seconds()),
	})

	req, err := http.NewRequestWithContext(ctx, "POST", signURL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create sign request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.SupabaseServiceKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to sign URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("sign failed with status %d: %s", resp.StatusCode, string(body))
	}

	var signed struct {
		SignedURL string `json:"signedURL"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&signed); err != nil {
		return "", fmt.Errorf("failed to parse sign response: %w", err)
	}

	return c.cfg.SupabaseURL + "/storage/v1" + signed.SignedURL, nil
}
