package brand

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"vitrine-studio-server/modules/common/database"
)

type Service struct {
	db *database.Client
}

// NewService - Brand DNA 조회 서비스 생성
func NewService(db *database.Client) *Service {
	return &Service{db: db}
}

// Fetch - brand_id로 브랜드 DNA 조회. 브랜드가 없으면 (nil, nil):
// 브랜드 연결은 선택 사항이라 미존재는 에러가 아니다.
func (s *Service) Fetch(ctx context.Context, brandID string) (*BrandDNA, error) {
	if brandID == "" {
		return nil, nil
	}

	data, _, err := s.db.Supabase().From("vitrine_brand").
		Select("*", "", false).
		Eq("brand_id", brandID).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to query brand: %w", err)
	}

	var brands []BrandDNA
	if err := json.Unmarshal(data, &brands); err != nil {
		return nil, fmt.Errorf("failed to parse brand response: %w", err)
	}
	if len(brands) == 0 {
		log.Printf("⚠️  [Brand] Brand not found: %s", brandID)
		return nil, nil
	}

	log.Printf("✅ [Brand] DNA loaded: %s (%d visual tokens)", brands[0].Name, len(brands[0].VisualTokens))
	return &brands[0], nil
}
