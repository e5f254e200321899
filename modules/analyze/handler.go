package analyze

import (
	"encoding/base64"
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/mux"
	"vitrine-studio-server/modules/common/database"
	"vitrine-studio-server/modules/common/fallback"
)

type Handler struct {
	service *Service
	db      *database.Client
}

type analyzeRequest struct {
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
	ProductID   string `json:"product_id,omitempty"`
}

type analyzeResponse struct {
	Success  bool             `json:"success"`
	Analysis *ProductAnalysis `json:"analysis,omitempty"`
	Error    string           `json:"error,omitempty"`
}

func NewHandler(service *Service, db *database.Client) *Handler {
	return &Handler{service: service, db: db}
}

// RegisterRoutes - 라우트 등록
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/api/analyze", h.HandleAnalyze).Methods("POST", "OPTIONS")
	log.Println("✅ Analyze routes registered: /api/analyze")
}

// HandleAnalyze - POST /api/analyze
func (h *Handler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}

	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		json.NewEncoder(w).Encode(analyzeResponse{Success: false, Error: "Invalid request body"})
		return
	}

	imageData, err := base64.StdEncoding.DecodeString(req.ImageBase64)
	if err != nil || len(imageData) == 0 {
		json.NewEncoder(w).Encode(analyzeResponse{Success: false, Error: "image_base64 is required"})
		return
	}

	analysis := h.service.Analyze(r.Context(), imageData, req.MimeType)

	// 상품 레코드에 캐시 (감사 기록, 실패해도 응답은 유지)
	if req.ProductID != "" && h.db != nil {
		payload, _ := json.Marshal(analysis)
		fallback.BestEffort("cache product analysis", func() error {
			return h.db.InsertProductAnalysis(r.Context(), req.ProductID, payload)
		})
	}

	json.NewEncoder(w).Encode(analyzeResponse{Success: true, Analysis: &analysis})
}
