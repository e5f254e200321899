package analyze

// ProductAnalysis - 비전 모델이 추출한 상품 속성 (시장 언어: 프랑스어)
// 한 번 생성되면 불변. 재분석은 새 값을 만든다.
type ProductAnalysis struct {
	Category            string   `json:"category"`
	Subcategory         string   `json:"subcategory"`
	Name                string   `json:"name"`
	Colors              []string `json:"colors"`
	Materials           []string `json:"materials"`
	Style               string   `json:"style"`
	SuggestedContexts   []string `json:"suggested_contexts"`
	SuggestedPlacements []string `json:"suggested_placements"`
	Description         string   `json:"description"`
	Keywords            []string `json:"keywords"`
}

// DefaultAnalysis - 분석 실패 시 사용하는 고정 기본값
// 분석은 참고용일 뿐이므로 파이프라인을 멈추지 않는다.
func DefaultAnalysis() ProductAnalysis {
	return ProductAnalysis{
		Category:            "Autre",
		Subcategory:         "",
		Name:                "Produit",
		Colors:              []string{},
		Materials:           []string{},
		Style:               "",
		SuggestedContexts:   []string{},
		SuggestedPlacements: []string{"table"},
		Description:         "",
		Keywords:            []string{},
	}
}
