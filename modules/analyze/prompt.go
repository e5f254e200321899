package analyze

import "fmt"

// buildInstruction - 상품 속성 추출 지시문 생성
func buildInstruction(language string) string {
	return fmt.Sprintf(`You are a product photography assistant for an e-commerce studio.
Analyze the product in this image and respond with a single JSON object, nothing else.

All text values must be written in %s.

Required JSON structure:
{
  "category": "main product category",
  "subcategory": "more specific type",
  "name": "short commercial name for the product",
  "colors": ["dominant colors, most prominent first"],
  "materials": ["visible materials"],
  "style": "overall aesthetic (e.g. minimalist, vintage, luxury)",
  "suggested_contexts": ["2-4 scene ideas where this product would look good"],
  "suggested_placements": ["surfaces or supports suited to this product, e.g. table, shelf, worn"],
  "description": "one marketing sentence describing the product",
  "keywords": ["5-8 search keywords"]
}

Respond with the JSON object only. Do not wrap it in markdown fences or add commentary.`, language)
}
