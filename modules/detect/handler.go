package detect

import (
	"encoding/base64"
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/mux"
)

type Handler struct {
	service *Service
}

type detectRequest struct {
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

type detectResponse struct {
	Success bool          `json:"success"`
	Result  *DetectResult `json:"result,omitempty"`
	Error   string        `json:"error,omitempty"`
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes - 라우트 등록
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/api/detect", h.HandleDetect).Methods("POST", "OPTIONS")
	log.Println("✅ Detect routes registered: /api/detect")
}

// HandleDetect - POST /api/detect
func (h *Handler) HandleDetect(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}

	var req detectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		json.NewEncoder(w).Encode(detectResponse{Success: false, Error: "Invalid request body"})
		return
	}

	imageData, err := base64.StdEncoding.DecodeString(req.ImageBase64)
	if err != nil || len(imageData) == 0 {
		json.NewEncoder(w).Encode(detectResponse{Success: false, Error: "image_base64 is required"})
		return
	}

	result := h.service.Detect(r.Context(), imageData, req.MimeType)
	json.NewEncoder(w).Encode(detectResponse{Success: true, Result: &result})
}
