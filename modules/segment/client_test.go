package segment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"vitrine-studio-server/modules/common/model"
)

func newTestClient(url string) *Client {
	return &Client{
		apiURL:   strings.TrimRight(url, "/"),
		model:    "birefnet-general",
		altModel: "birefnet-portrait",
		detect:   url + "/detect",
		http:     &http.Client{Timeout: 5 * time.Second},
	}
}

func TestRemoveBackgroundNeverErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantOK  bool
		wantURL string
	}{
		{"plain url string", 200, `"https://cdn.example.com/mask.png"`, true, "https://cdn.example.com/mask.png"},
		{"raw text url", 200, "https://cdn.example.com/mask.png", true, "https://cdn.example.com/mask.png"},
		{"object with url", 200, `{"url":"https://cdn.example.com/mask.png"}`, true, "https://cdn.example.com/mask.png"},
		{"object with output", 200, `{"output":"https://cdn.example.com/out.webp"}`, true, "https://cdn.example.com/out.webp"},
		{"nested data object", 200, `{"data":{"url":"https://cdn.example.com/mask.png"}}`, true, "https://cdn.example.com/mask.png"},
		{"array of objects", 200, `[{"url":"https://cdn.example.com/first.png"},{"url":"https://x/second.png"}]`, true, "https://cdn.example.com/first.png"},
		{"backend 500", 500, `{"error":"gpu unavailable"}`, false, ""},
		{"garbage body", 200, "un texte sans rapport", false, ""},
		{"empty body", 200, "", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/remove-background" {
					t.Errorf("unexpected path %s", r.URL.Path)
				}
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			res := newTestClient(srv.URL).RemoveBackground(context.Background(), "https://img.example.com/p.jpg", false)

			if res.Success != tt.wantOK {
				t.Fatalf("Success = %v, want %v (error: %s)", res.Success, tt.wantOK, res.Error)
			}
			if tt.wantOK && res.MaskURL != tt.wantURL {
				t.Errorf("MaskURL = %q, want %q", res.MaskURL, tt.wantURL)
			}
			if !tt.wantOK && res.Error == "" {
				t.Error("failed result must carry an error message")
			}
		})
	}
}

func TestRemoveBackgroundBinaryStream(t *testing.T) {
	// PNG 매직 바이트가 붙은 바이너리 스트림 응답
	pngBytes := append([]byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}, []byte("fakepixels")...)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write(pngBytes)
	}))
	defer srv.Close()

	res := newTestClient(srv.URL).RemoveBackground(context.Background(), "https://img.example.com/p.jpg", false)

	if !res.Success {
		t.Fatalf("expected success, got error: %s", res.Error)
	}
	if !strings.HasPrefix(res.MaskURL, "data:image/png;base64,") {
		t.Errorf("binary stream should become data URL, got %q", res.MaskURL[:min(len(res.MaskURL), 40)])
	}
}

func TestRemoveBackgroundAlternateModel(t *testing.T) {
	var gotModel string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Model string `json:"model"`
		}
		decodeJSONBody(t, r, &payload)
		gotModel = payload.Model
		w.Write([]byte(`{"url":"https://cdn.example.com/mask.png"}`))
	}))
	defer srv.Close()

	newTestClient(srv.URL).RemoveBackground(context.Background(), "https://img.example.com/p.jpg", true)

	if gotModel != "birefnet-portrait" {
		t.Errorf("alternate=true should select alt model, got %q", gotModel)
	}
}

func TestSegmentWithBox(t *testing.T) {
	var gotBody map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		decodeJSONBody(t, r, &gotBody)
		w.Write([]byte(`{"url":"https://cdn.example.com/mask.png"}`))
	}))
	defer srv.Close()

	bbox := model.BoundingBox{XMin: 0.2, YMin: 0.2, XMax: 0.8, YMax: 0.8}
	res := newTestClient(srv.URL).SegmentWithBox(context.Background(), []byte("img"), bbox, "image/png")

	if !res.Success {
		t.Fatalf("expected success, got error: %s", res.Error)
	}
	if _, ok := gotBody["box"]; !ok {
		t.Error("request payload must carry the bounding box")
	}

	// invalid box는 호출 없이 실패
	bad := model.BoundingBox{XMin: 0.8, YMin: 0.2, XMax: 0.2, YMax: 0.8}
	if res := newTestClient(srv.URL).SegmentWithBox(context.Background(), []byte("img"), bad, "image/png"); res.Success {
		t.Error("inverted box must fail without calling the backend")
	}
}

func TestSegmentOutlineResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"outline_path":"M 0.1 0.1 L 0.9 0.1 L 0.9 0.9 Z","bounding_box":{"x_min":0.1,"y_min":0.1,"x_max":0.9,"y_max":0.9}}`))
	}))
	defer srv.Close()

	hint := &model.Point{X: 0.5, Y: 0.5}
	res, err := newTestClient(srv.URL).Segment(context.Background(), []byte("img"), "image/jpeg", "sac à main orange", hint)
	if err != nil {
		t.Fatalf("Segment returned error: %v", err)
	}
	if !res.HasOutline() {
		t.Fatalf("expected outline result, got %+v", res)
	}
	if res.BoundingBox.XMin != 0.1 || res.BoundingBox.YMax != 0.9 {
		t.Errorf("bounding box mismatch: %+v", res.BoundingBox)
	}
}

func TestSegmentMaskOnlyResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"mask_url":"https://cdn.example.com/mask.png"}`))
	}))
	defer srv.Close()

	res, err := newTestClient(srv.URL).Segment(context.Background(), []byte("img"), "image/jpeg", "chaussure", nil)
	if err != nil {
		t.Fatalf("Segment returned error: %v", err)
	}
	if res.HasOutline() || !res.HasMask() {
		t.Errorf("expected mask-only result, got %+v", res)
	}
}

func TestSegmentRejectsInvalidBox(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"outline_path":"M 0 0 Z","bounding_box":{"x_min":0.9,"y_min":0.1,"x_max":0.1,"y_max":0.9}}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Segment(context.Background(), []byte("img"), "image/jpeg", "vase", nil)
	if err == nil {
		t.Fatal("expected error for inverted bounding box")
	}
}

func TestDetectBoxReturnsFirstBox(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"boxes":[{"x_min":0.2,"y_min":0.3,"x_max":0.6,"y_max":0.8},{"x_min":0,"y_min":0,"x_max":1,"y_max":1}]}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	c.detect = srv.URL + "/detect"

	box, err := c.DetectBox(context.Background(), []byte("img"), "image/png", "bougie parfumée")
	if err != nil {
		t.Fatalf("DetectBox returned error: %v", err)
	}
	if box.XMin != 0.2 || box.XMax != 0.6 {
		t.Errorf("expected first box, got %+v", box)
	}
}

func TestDetectBoxNoResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"boxes":[]}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	c.detect = srv.URL + "/detect"

	if _, err := c.DetectBox(context.Background(), []byte("img"), "image/png", "objet introuvable"); err == nil {
		t.Fatal("expected error when no box detected")
	}
}

func decodeJSONBody(t *testing.T, r *http.Request, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		t.Fatalf("failed to decode request body: %v", err)
	}
}
