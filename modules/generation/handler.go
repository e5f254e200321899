package generation

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"

	"vitrine-studio-server/modules/common/credit"
	"vitrine-studio-server/modules/common/database"
)

type Handler struct {
	coord *Coordinator
	db    *database.Client
	rdb   *redis.Client
}

type generateRequest struct {
	UserID string          `json:"user_id"`
	Brief  GenerationBrief `json:"brief"`
}

type generateResponse struct {
	Success bool              `json:"success"`
	Result  *GenerationResult `json:"result,omitempty"`
	Error   string            `json:"error,omitempty"`
}

type enqueueResponse struct {
	Success bool   `json:"success"`
	JobID   string `json:"job_id,omitempty"`
	Error   string `json:"error,omitempty"`
}

func NewHandler(coord *Coordinator, db *database.Client, rdb *redis.Client) *Handler {
	return &Handler{coord: coord, db: db, rdb: rdb}
}

// RegisterRoutes - 라우트 등록
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/api/generate", h.HandleGenerate).Methods("POST", "OPTIONS")
	r.HandleFunc("/api/generate/async", h.HandleEnqueue).Methods("POST", "OPTIONS")
	log.Println("✅ Generation routes registered: /api/generate, /api/generate/async")
}

// HandleGenerate - POST /api/generate (동기 생성)
func (h *Handler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}

	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeGenerateError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.UserID == "" {
		writeGenerateError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	result, err := h.coord.RunGeneration(r.Context(), req.UserID, &req.Brief, nil)
	if err != nil {
		writeGenerateError(w, statusForError(err), err.Error())
		return
	}

	json.NewEncoder(w).Encode(generateResponse{Success: true, Result: result})
}

// HandleEnqueue - POST /api/generate/async (Job 생성 + 큐 투입)
func (h *Handler) HandleEnqueue(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}

	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(enqueueResponse{Success: false, Error: "Invalid request body"})
		return
	}
	if req.UserID == "" {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(enqueueResponse{Success: false, Error: "user_id is required"})
		return
	}
	if err := req.Brief.Validate(); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(enqueueResponse{Success: false, Error: err.Error()})
		return
	}

	input := map[string]interface{}{}
	briefJSON, _ := json.Marshal(req.Brief)
	json.Unmarshal(briefJSON, &input)

	jobID, err := h.db.CreateJob(r.Context(), req.UserID, input)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(enqueueResponse{Success: false, Error: "failed to create job"})
		return
	}

	if err := h.rdb.LPush(r.Context(), queueKey, jobID).Err(); err != nil {
		log.Printf("❌ Failed to enqueue job %s: %v", jobID, err)
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(enqueueResponse{Success: false, Error: "failed to enqueue job"})
		return
	}

	log.Printf("📤 Job enqueued: %s", jobID)
	json.NewEncoder(w).Encode(enqueueResponse{Success: true, JobID: jobID})
}

func statusForError(err error) int {
	var insufficient *credit.InsufficientCreditsError
	switch {
	case errors.As(err, &insufficient), errors.Is(err, ErrDebitRace):
		return http.StatusPaymentRequired
	case errors.Is(err, ErrMissingProduct), errors.Is(err, ErrInvalidBrief):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeGenerateError(w http.ResponseWriter, status int, message string) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(generateResponse{Success: false, Error: message})
}
