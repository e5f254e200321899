package database

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/supabase-community/postgrest-go"
	"github.com/supabase-community/supabase-go"
	"vitrine-studio-server/modules/common/config"
	"vitrine-studio-server/modules/common/model"
)

type Client struct {
	supabase *supabase.Client
}

// NewClient - Database 클라이언트 생성
func NewClient(cfg *config.Config) *Client {
	supabaseClient, err := supabase.NewClient(cfg.SupabaseURL, cfg.SupabaseServiceKey, &supabase.ClientOptions{})
	if err != nil {
		log.Printf("❌ Failed to create Supabase client: %v", err)
		return nil
	}

	return &Client{
		supabase: supabaseClient,
	}
}

// Supabase - raw 클라이언트 접근 (brand 등 테이블 단위 헬퍼용)
func (c *Client) Supabase() *supabase.Client {
	return c.supabase
}

// CreateJob - pending 상태의 생성 Job insert, job_id 반환
func (c *Client) CreateJob(ctx context.Context, userID string, input map[string]interface{}) (string, error) {
	record := map[string]interface{}{
		"user_id":        userID,
		"job_status":     model.StatusPending,
		"job_input_data": input,
	}

	data, _, err := c.supabase.From("vitrine_generation_jobs").
		Insert(record, false, "", "", "").
		Execute()
	if err != nil {
		return "", fmt.Errorf("failed to insert job: %w", err)
	}

	var jobs []model.GenerationJob
	if err := json.Unmarshal(data, &jobs); err != nil {
		return "", fmt.Errorf("failed to parse job response: %w", err)
	}
	if len(jobs) == 0 {
		return "", fmt.Errorf("no job record returned")
	}

	log.Printf("✅ Job created: %s (user %s)", jobs[0].JobID, userID)
	return jobs[0].JobID, nil
}

// FetchJob - 생성 Job 조회
func (c *Client) FetchJob(jobID string) (*model.GenerationJob, error) {
	log.Printf("🔍 Fetching job from Supabase: %s", jobID)

	var jobs []model.GenerationJob

	data, _, err := c.supabase.From("vitrine_generation_jobs").
		Select("*", "exact", false).
		Eq("job_id", jobID).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to query Supabase: %w", err)
	}

	if err := json.Unmarshal(data, &jobs); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if len(jobs) == 0 {
		return nil, fmt.Errorf("job not found: %s", jobID)
	}

	job := &jobs[0]
	log.Printf("✅ Job fetched: %s (status: %s)", job.JobID, job.JobStatus)

	return job, nil
}

// UpdateJobStatus - Job 상태 업데이트
func (c *Client) UpdateJobStatus(ctx context.Context, jobID string, status string) error {
	log.Printf("📝 Updating job %s status to: %s", jobID, status)

	updateData := map[string]interface{}{
		"job_status": status,
		"updated_at": "now()",
	}

	if status == model.StatusProcessing {
		updateData["started_at"] = "now()"
	} else if status == model.StatusCompleted || status == model.StatusFailed {
		updateData["completed_at"] = "now()"
	}

	_, _, err := c.supabase.From("vitrine_generation_jobs").
		Update(updateData, "", "").
		Eq("job_id", jobID).
		Execute()
	if err != nil {
		return fmt.Errorf("failed to update job status: %w", err)
	}

	return nil
}

// MarkJobFailed - 실패 상태 + 에러 메시지 기록
func (c *Client) MarkJobFailed(ctx context.Context, jobID string, message string) error {
	updateData := map[string]interface{}{
		"job_status":    model.StatusFailed,
		"error_message": message,
		"completed_at":  "now()",
		"updated_at":    "now()",
	}

	_, _, err := c.supabase.From("vitrine_generation_jobs").
		Update(updateData, "", "").
		Eq("job_id", jobID).
		Execute()
	if err != nil {
		return fmt.Errorf("failed to mark job failed: %w", err)
	}
	return nil
}

// AttachJobSession - 완료된 Job에 세션 ID 연결
func (c *Client) AttachJobSession(ctx context.Context, jobID string, sessionID string) error {
	_, _, err := c.supabase.From("vitrine_generation_jobs").
		Update(map[string]interface{}{
			"session_id": sessionID,
			"updated_at": "now()",
		}, "", "").
		Eq("job_id", jobID).
		Execute()
	if err != nil {
		return fmt.Errorf("failed to attach session to job: %w", err)
	}
	return nil
}

// CreateSession - 생성 세션 레코드 insert (감사 기록, best-effort 호출 전제)
func (c *Client) CreateSession(ctx context.Context, record *model.SessionRecord) (string, error) {
	log.Printf("💾 Creating generation session for user %s", record.UserID)

	data, _, err := c.supabase.From("vitrine_generation_session").
		Insert(record, false, "", "", "").
		Execute()
	if err != nil {
		return "", fmt.Errorf("failed to insert session record: %w", err)
	}

	var sessions []model.SessionRecord
	if err := json.Unmarshal(data, &sessions); err != nil {
		return "", fmt.Errorf("failed to parse session response: %w", err)
	}
	if len(sessions) == 0 {
		return "", fmt.Errorf("no session record returned")
	}

	log.Printf("✅ Session created: %s", sessions[0].SessionID)
	return sessions[0].SessionID, nil
}

// InsertProductAnalysis - 분석 결과 append (기존 값은 불변, 재분석은 새 row)
func (c *Client) InsertProductAnalysis(ctx context.Context, productID string, analysis json.RawMessage) error {
	record := model.ProductAnalysisRecord{
		ProductID: productID,
		Analysis:  analysis,
	}

	_, _, err := c.supabase.From("vitrine_product_analysis").
		Insert(record, false, "", "", "").
		Execute()
	if err != nil {
		return fmt.Errorf("failed to insert product analysis: %w", err)
	}

	log.Printf("✅ Product analysis cached for product %s", productID)
	return nil
}

// FetchLatestProductAnalysis - 가장 최근 분석 결과 조회 (없으면 nil)
func (c *Client) FetchLatestProductAnalysis(ctx context.Context, productID string) (json.RawMessage, error) {
	var records []model.ProductAnalysisRecord

	data, _, err := c.supabase.From("vitrine_product_analysis").
		Select("*", "", false).
		Eq("product_id", productID).
		Order("created_at", &postgrest.OrderOpts{Ascending: false}).
		Limit(1, "").
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to query product analysis: %w", err)
	}

	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse analysis response: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}
	return records[0].Analysis, nil
}
