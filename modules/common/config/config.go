package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config - 모든 환경변수를 담음
type Config struct {
	// Redis
	RedisHost     string
	RedisPort     string
	RedisUsername string
	RedisPassword string
	RedisUseTLS   bool

	// Supabase
	SupabaseURL            string
	SupabaseServiceKey     string
	SupabaseStorageBaseURL string

	// Gemini API
	GeminiAPIKeys     []string
	GeminiImageModel  string
	GeminiVisionModel string

	// Segmentation / detection services (REST, SDK 없음)
	SegmentAPIURL   string
	SegmentAPIKey   string
	SegmentModel    string
	SegmentAltModel string
	DetectAPIURL    string

	// Server
	Port string

	// Credit
	CreditPerImage int

	// Market
	MarketLanguage string

	// Detector pacing between per-item segmentation calls
	SegmentPacing time.Duration
}

// LoadConfig - 환경변수 로드
func LoadConfig() (*Config, error) {
	// .env 파일 로드 (있으면)
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  .env file not found, using environment variables")
	}

	useTLS := true // 기본값
	if tlsStr := os.Getenv("REDIS_USE_TLS"); tlsStr != "" {
		if parsed, err := strconv.ParseBool(tlsStr); err == nil {
			useTLS = parsed
		}
	}

	creditPerImage := 100 // 기본값 (1장 = 100 크레딧)
	if priceStr := os.Getenv("CREDIT_PER_IMAGE"); priceStr != "" {
		if parsed, err := strconv.Atoi(priceStr); err == nil {
			creditPerImage = parsed
		}
	}

	pacing := 500 * time.Millisecond
	if pacingStr := os.Getenv("SEGMENT_PACING_MS"); pacingStr != "" {
		if parsed, err := strconv.Atoi(pacingStr); err == nil && parsed >= 0 {
			pacing = time.Duration(parsed) * time.Millisecond
		}
	}

	// GEMINI_API_KEYS는 콤마 구분, 없으면 GEMINI_API_KEY 단일 키
	var apiKeys []string
	if keys := os.Getenv("GEMINI_API_KEYS"); keys != "" {
		for _, k := range strings.Split(keys, ",") {
			if k = strings.TrimSpace(k); k != "" {
				apiKeys = append(apiKeys, k)
			}
		}
	} else if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		apiKeys = append(apiKeys, key)
	}

	cfg := &Config{
		// Redis
		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisUsername: getEnv("REDIS_USERNAME", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisUseTLS:   useTLS,

		// Supabase
		SupabaseURL:            getEnv("SUPABASE_URL", ""),
		SupabaseServiceKey:     getEnv("SUPABASE_SERVICE_KEY", ""),
		SupabaseStorageBaseURL: getEnv("SUPABASE_STORAGE_BASE_URL", ""),

		// Gemini API
		GeminiAPIKeys:     apiKeys,
		GeminiImageModel:  getEnv("GEMINI_IMAGE_MODEL", "gemini-2.5-flash-image"),
		GeminiVisionModel: getEnv("GEMINI_VISION_MODEL", "gemini-2.5-flash"),

		// Segmentation / detection
		SegmentAPIURL:   getEnv("SEGMENT_API_URL", ""),
		SegmentAPIKey:   getEnv("SEGMENT_API_KEY", ""),
		SegmentModel:    getEnv("SEGMENT_MODEL", "birefnet-general"),
		SegmentAltModel: getEnv("SEGMENT_ALT_MODEL", "birefnet-portrait"),
		DetectAPIURL:    getEnv("DETECT_API_URL", ""),

		// Server
		Port: getEnv("PORT", "8080"),

		// Credit
		CreditPerImage: creditPerImage,

		// Market
		MarketLanguage: getEnv("MARKET_LANGUAGE", "French"),

		SegmentPacing: pacing,
	}

	// 필수 환경변수 검증
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	log.Println("✅ Configuration loaded successfully")
	log.Printf("   Redis: %s:%s (TLS: %v)", cfg.RedisHost, cfg.RedisPort, cfg.RedisUseTLS)
	log.Printf("   Supabase: %s", cfg.SupabaseURL)
	log.Printf("   Gemini: %s / %s (%d keys)", cfg.GeminiImageModel, cfg.GeminiVisionModel, len(cfg.GeminiAPIKeys))
	log.Printf("   Credit: %d per image", cfg.CreditPerImage)
	log.Printf("   Market language: %s", cfg.MarketLanguage)

	return cfg, nil
}

// validate - 필수 환경변수 검증
func (c *Config) validate() error {
	if c.RedisHost == "" {
		return fmt.Errorf("REDIS_HOST is required")
	}
	if c.SupabaseURL == "" {
		return fmt.Errorf("SUPABASE_URL is required")
	}
	if c.SupabaseServiceKey == "" {
		return fmt.Errorf("SUPABASE_SERVICE_KEY is required")
	}
	if len(c.GeminiAPIKeys) == 0 {
		return fmt.Errorf("GEMINI_API_KEY is required")
	}
	if c.SegmentAPIURL == "" {
		return fmt.Errorf("SEGMENT_API_URL is required")
	}
	return nil
}

// getEnv - 환경변수 가져오기 (기본값 지원)
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// GetRedisAddr - Redis 연결 문자열 생성
func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", c.RedisHost, c.RedisPort)
}
