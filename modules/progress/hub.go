package progress

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

// Event - 파이프라인 단계 전환 이벤트
type Event struct {
	JobID     string    `json:"job_id"`
	Stage     string    `json:"stage"`
	Message   string    `json:"message,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Hub - job별 websocket 구독 관리
// 구독자가 없는 job의 이벤트는 그냥 버려진다 (이벤트는 관찰용, 상태의 원본은 DB).
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]map[*websocket.Conn]bool
	upgrader    websocket.Upgrader
}

func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[string]map[*websocket.Conn]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// RegisterRoutes - 라우트 등록
func (h *Hub) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/ws/progress/{job_id}", h.HandleWS)
	log.Println("✅ Progress routes registered: /ws/progress/{job_id}")
}

// HandleWS - GET /ws/progress/{job_id} 업그레이드 + 구독
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	jobID := mux.Vars(r)["job_id"]
	if jobID == "" {
		http.Error(w, "job_id is required", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("❌ WebSocket upgrade failed: %v", err)
		return
	}

	h.subscribe(jobID, conn)
	log.Printf("🔌 Progress subscriber connected: job=%s", jobID)

	// 클라이언트는 보내지 않는다 - read loop은 종료 감지용
	go func() {
		defer h.unsubscribe(jobID, conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// Publish - job 구독자 전원에게 단계 이벤트 전송
func (h *Hub) Publish(jobID string, stage string, message string) {
	event := Event{
		JobID:     jobID,
		Stage:     stage,
		Message:   message,
		Timestamp: time.Now(),
	}

	h.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(h.subscribers[jobID]))
	for conn := range h.subscribers[jobID] {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	for _, conn := range conns {
		if err := conn.WriteJSON(event); err != nil {
			log.Printf("⚠️  Dropping progress subscriber for job %s: %v", jobID, err)
			h.unsubscribe(jobID, conn)
		}
	}
}

// SubscriberCount - job의 현재 구독자 수
func (h *Hub) SubscriberCount(jobID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[jobID])
}

func (h *Hub) subscribe(jobID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subscribers[jobID] == nil {
		h.subscribers[jobID] = make(map[*websocket.Conn]bool)
	}
	h.subscribers[jobID][conn] = true
}

func (h *Hub) unsubscribe(jobID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conns, ok := h.subscribers[jobID]; ok {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(h.subscribers, jobID)
		}
	}
	conn.Close()
}
