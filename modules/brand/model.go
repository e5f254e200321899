package brand

// BrandDNA - 브랜드의 시각/언어 아이덴티티
// vitrine_brand 테이블의 JSON 컬럼에서 읽는다.
type BrandDNA struct {
	BrandID      string   `json:"brand_id"`
	Name         string   `json:"brand_name"`
	VisualTokens []string `json:"visual_tokens"` // "lumière chaude", "tons terracotta" 등
	Vibe         string   `json:"vibe"`          // 전체 무드 한 줄
	Tone         string   `json:"tone"`          // 캡션 어조 (tutoiement/vouvoiement 포함)
	EmojiPolicy  string   `json:"emoji_policy"`  // "none", "light", "expressive"
	AvoidTerms   []string `json:"avoid_terms"`
}

// HasVisualIdentity - 프롬프트에 반영할 시각 아이덴티티가 있는지
func (d *BrandDNA) HasVisualIdentity() bool {
	return d != nil && (len(d.VisualTokens) > 0 || d.Vibe != "")
}

// HasVerbalIdentity - 캡션에 반영할 언어 아이덴티티가 있는지
func (d *BrandDNA) HasVerbalIdentity() bool {
	return d != nil && (d.Tone != "" || d.EmojiPolicy != "")
}
