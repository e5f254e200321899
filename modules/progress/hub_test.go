package progress

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

func newTestServer(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	hub := NewHub()
	r := mux.NewRouter()
	hub.RegisterRoutes(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server, jobID string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/progress/" + jobID
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitForSubscriber(t *testing.T, hub *Hub, jobID string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if hub.SubscriberCount(jobID) > 0 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("subscriber never registered")
}

func TestPublishReachesSubscriber(t *testing.T) {
	hub, srv := newTestServer(t)
	conn := dial(t, srv, "job-1")
	waitForSubscriber(t, hub, "job-1")

	hub.Publish("job-1", "generating", "")

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var event Event
	if err := conn.ReadJSON(&event); err != nil {
		t.Fatalf("failed to read event: %v", err)
	}
	if event.JobID != "job-1" || event.Stage != "generating" {
		t.Errorf("event = %+v, want job-1/generating", event)
	}
}

func TestPublishIsScopedToJob(t *testing.T) {
	hub, srv := newTestServer(t)
	conn := dial(t, srv, "job-a")
	waitForSubscriber(t, hub, "job-a")

	hub.Publish("job-b", "done", "")
	hub.Publish("job-a", "detecting", "")

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var event Event
	if err := conn.ReadJSON(&event); err != nil {
		t.Fatalf("failed to read event: %v", err)
	}
	// job-b 이벤트는 건너뛰고 job-a 이벤트가 첫 수신이어야 한다
	if event.JobID != "job-a" {
		t.Errorf("received foreign event: %+v", event)
	}
}

func TestPublishWithoutSubscribersIsNoop(t *testing.T) {
	hub := NewHub()
	hub.Publish("ghost-job", "done", "")

	if hub.SubscriberCount("ghost-job") != 0 {
		t.Error("publish must not create subscriptions")
	}
}

func TestDisconnectRemovesSubscriber(t *testing.T) {
	hub, srv := newTestServer(t)
	conn := dial(t, srv, "job-1")
	waitForSubscriber(t, hub, "job-1")

	conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if hub.SubscriberCount("job-1") == 0 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Error("closed connection was never unsubscribed")
}
