package model

import (
	"encoding/json"
	"time"
)

// GenerationJob - vitrine_generation_jobs 테이블 구조
type GenerationJob struct {
	JobID        string                 `json:"job_id"`
	UserID       string                 `json:"user_id"`
	JobStatus    string                 `json:"job_status"`
	JobInputData map[string]interface{} `json:"job_input_data"`
	SessionID    *string                `json:"session_id"`
	ErrorMessage *string                `json:"error_message"`
	CreatedAt    time.Time              `json:"created_at"`
	StartedAt    *time.Time             `json:"started_at"`
	CompletedAt  *time.Time             `json:"completed_at"`
	UpdatedAt    time.Time              `json:"updated_at"`
}

// SessionRecord - vitrine_generation_session 테이블 구조 (생성 1건당 1 row, 불변)
type SessionRecord struct {
	SessionID        string     `json:"session_id,omitempty"`
	UserID           string     `json:"user_id"`
	ProductID        *string    `json:"product_id,omitempty"`
	BrandID          *string    `json:"brand_id,omitempty"`
	OutputImageURL   string     `json:"output_image_url"`
	CleanRefURL      string     `json:"clean_ref_url,omitempty"`
	Prompt           string     `json:"prompt"`
	NegativePrompt   string     `json:"negative_prompt"`
	Caption          string     `json:"caption,omitempty"`
	CreditsCost      int        `json:"credits_cost"`
	CreditsRemaining int        `json:"credits_remaining"`
	CreatedAt        *time.Time `json:"created_at,omitempty"`
}

// ProductAnalysisRecord - vitrine_product_analysis 테이블 구조 (append-only)
type ProductAnalysisRecord struct {
	AnalysisID string          `json:"analysis_id,omitempty"`
	ProductID  string          `json:"product_id"`
	Analysis   json.RawMessage `json:"analysis"`
	CreatedAt  *time.Time      `json:"created_at,omitempty"`
}

const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)
