package detect

import "fmt"

// buildIdentifyInstruction - 이미지 내 판매 상품 식별 지시문 생성
func buildIdentifyInstruction(language string) string {
	return fmt.Sprintf(`You are a product photography assistant for an e-commerce studio.
List every distinct sellable product visible in this image and respond with a single JSON object, nothing else.

Rules:
- Include products that are partially cut off at the image edges.
- Each product gets a short name (3-60 characters) written in %s.
- When two products are the same type, disambiguate them by color or material ("sac en cuir orange", "sac en cuir noir").
- Ignore backgrounds, furniture and props that are clearly not for sale.
- "location" must be exactly one of: top-left, top-center, top-right, middle-left, center, middle-right, bottom-left, bottom-center, bottom-right.

Required JSON structure:
{
  "detected_count": 2,
  "items": [
    {"short_name": "product name", "location": "center"},
    {"short_name": "other product name", "location": "bottom-right"}
  ]
}

Respond with the JSON object only. Do not wrap it in markdown fences or add commentary.`, language)
}
