package credit

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/supabase-community/supabase-go"
	"vitrine-studio-server/modules/common/config"
)

// InsufficientCreditsError - 잔액 부족 (필요/보유 금액 포함)
type InsufficientCreditsError struct {
	Required  int
	Available int
}

func (e *InsufficientCreditsError) Error() string {
	return fmt.Sprintf("insufficient credits: required %d, available %d", e.Required, e.Available)
}

type Client struct {
	supabase *supabase.Client
}

// NewClient - Credit 클라이언트 생성
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

// Balance - 현재 크레딧 잔액 조회 (pre-flight 체크용, 비원자적)
func (c *Client) Balance(ctx context.Context, userID string) (int, error) {
	var members []struct {
		Credit int `json:"member_credit"`
	}

	data, _, err := c.supabase.From("vitrine_member").
		Select("member_credit", "", false).
		Eq("member_id", userID).
		Execute()
	if err != nil {
		return 0, fmt.Errorf("failed to fetch user credits: %w", err)
	}

	if err := json.Unmarshal(data, &members); err != nil {
		return 0, fmt.Errorf("failed to parse member data: %w", err)
	}

	if len(members) == 0 {
		return 0, fmt.Errorf("user not found: %s", userID)
	}

	return members[0].Credit, nil
}

// CheckBalance - 잔액이 필요 크레딧 이상인지 확인
// 부족하면 *InsufficientCreditsError 반환
func (c *Client) CheckBalance(ctx context.Context, userID string, required int) (int, error) {
	balance, err := c.Balance(ctx, userID)
	if err != nil {
		return 0, err
	}
	if balance < required {
		return balance, &InsufficientCreditsError{Required: required, Available: balance}
	}
	return balance, nil
}

// Debit - 원자적 크레딧 차감 (DB 함수 compare-and-decrement)
// 동시 요청이 잔액을 먼저 소진한 경우 *InsufficientCreditsError 반환
// 성공 시 트랜잭션 기록을 append (기록 실패는 차감을 되돌리지 않음)
func (c *Client) Debit(ctx context.Context, userID string, units int, reason string, refType string, refID string) (int, error) {
	log.Printf("💰 Debiting credits: User=%s, Units=%d, Reason=%s", userID, units, reason)

	// debit_member_credits: UPDATE ... SET member_credit = member_credit - p_units
	// WHERE member_id = p_user_id AND member_credit >= p_units RETURNING ...
	raw := c.supabase.Rpc("debit_member_credits", "", map[string]interface{}{
		"p_user_id": userID,
		"p_units":   units,
	})

	if c.supabase.Postgrest.ClientError != nil {
		return 0, fmt.Errorf("debit RPC failed: %w", c.supabase.Postgrest.ClientError)
	}

	var result struct {
		Success    bool `json:"success"`
		NewBalance int  `json:"new_balance"`
		Balance    int  `json:"balance"`
	}
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return 0, fmt.Errorf("failed to parse debit response: %w", err)
	}

	if !result.Success {
		log.Printf("⚠️  Atomic debit refused: User=%s has %d, needs %d", userID, result.Balance, units)
		return result.Balance, &InsufficientCreditsError{Required: units, Available: result.Balance}
	}

	log.Printf("💰 Credit balance: → %d (-%d)", result.NewBalance, units)

	// 트랜잭션 기록 (append-only 원장)
	transactionData := map[string]interface{}{
		"user_id":          userID,
		"transaction_type": "DEDUCT",
		"amount":           -units,
		"balance_after":    result.NewBalance,
		"description":      reason,
		"ref_type":         refType,
		"ref_id":           refID,
	}

	_, _, err := c.supabase.From("vitrine_credits").
		Insert(transactionData, false, "", "", "").
		Execute()
	if err != nil {
		log.Printf("⚠️  Failed to record credit transaction for %s: %v", refID, err)
	}

	log.Printf("✅ Credits deducted: %d credits from user %s", units, userID)
	return result.NewBalance, nil
}
