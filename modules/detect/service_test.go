package detect

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"vitrine-studio-server/modules/common/model"
)

type fakeVision struct {
	response string
	err      error
}

func (f *fakeVision) GenerateVisionText(ctx context.Context, imageData []byte, mimeType string, instruction string, temperature float32) (string, error) {
	return f.response, f.err
}

type fakeSegmenter struct {
	segments    map[string]model.SegmentationResult
	boxes       map[string]model.BoundingBox
	segmentLog  []string
	detectLog   []string
	segmentHint []model.Point
}

func (f *fakeSegmenter) Segment(ctx context.Context, imageData []byte, mimeType string, objectName string, hint *model.Point) (model.SegmentationResult, error) {
	f.segmentLog = append(f.segmentLog, objectName)
	if hint != nil {
		f.segmentHint = append(f.segmentHint, *hint)
	}
	if res, ok := f.segments[objectName]; ok {
		return res, nil
	}
	return model.SegmentationResult{}, errors.New("segmentation miss")
}

func (f *fakeSegmenter) DetectBox(ctx context.Context, imageData []byte, mimeType string, objectName string) (*model.BoundingBox, error) {
	f.detectLog = append(f.detectLog, objectName)
	if box, ok := f.boxes[objectName]; ok {
		return &box, nil
	}
	return nil, errors.New("no box detected")
}

func outlineResult(path string) model.SegmentationResult {
	box := model.BoundingBox{XMin: 0.2, YMin: 0.2, XMax: 0.8, YMax: 0.8}
	return model.SegmentationResult{OutlinePath: path, BoundingBox: &box}
}

func identifyJSON(names ...string) string {
	out := fmt.Sprintf(`{"detected_count": %d, "items": [`, len(names))
	for i, n := range names {
		if i > 0 {
			out += ","
		}
		out += fmt.Sprintf(`{"short_name": %q, "location": "center"}`, n)
	}
	return out + "]}"
}

func newTestService(vision *fakeVision, seg *fakeSegmenter) *Service {
	svc := NewService(vision, seg, "French", PacingPolicy{Delay: 500 * time.Millisecond, MaxAttempts: 1})
	svc.sleep = func(time.Duration) {}
	return svc
}

func TestDetectSynthesizesFullFrameOnVisionError(t *testing.T) {
	svc := newTestService(&fakeVision{err: errors.New("upstream 500")}, &fakeSegmenter{})

	got := svc.Detect(context.Background(), []byte("img"), "image/png")

	if got.TotalCount != 1 || len(got.Products) != 1 {
		t.Fatalf("expected exactly one synthetic product, got %+v", got)
	}
	p := got.Products[0]
	if p.Provenance != ProvenanceFullFrame {
		t.Errorf("provenance = %q, want %q", p.Provenance, ProvenanceFullFrame)
	}
	if p.BoundingBox != model.FullFrame() {
		t.Errorf("expected full-frame box, got %+v", p.BoundingBox)
	}
}

func TestDetectSynthesizesFullFrameOnEmptyList(t *testing.T) {
	svc := newTestService(&fakeVision{response: `{"detected_count": 0, "items": []}`}, &fakeSegmenter{})

	got := svc.Detect(context.Background(), []byte("img"), "image/png")

	if got.TotalCount != 1 {
		t.Fatalf("TotalCount = %d, want 1", got.TotalCount)
	}
}

func TestDetectSequentialSegmentationWithPacing(t *testing.T) {
	names := []string{"sac en cuir orange", "bougie parfumée", "vase en céramique"}
	seg := &fakeSegmenter{segments: map[string]model.SegmentationResult{
		names[0]: outlineResult("M 0.1 0.1 L 0.9 0.1 L 0.5 0.9 Z"),
		names[1]: outlineResult("M 0.2 0.2 L 0.8 0.2 L 0.5 0.8 Z"),
		names[2]: outlineResult("M 0.3 0.3 L 0.7 0.3 L 0.5 0.7 Z"),
	}}

	var sleeps []time.Duration
	svc := NewService(&fakeVision{response: identifyJSON(names...)}, seg, "French",
		PacingPolicy{Delay: 500 * time.Millisecond, MaxAttempts: 1})
	svc.sleep = func(d time.Duration) { sleeps = append(sleeps, d) }

	got := svc.Detect(context.Background(), []byte("img"), "image/png")

	if got.TotalCount != 3 {
		t.Fatalf("TotalCount = %d, want 3", got.TotalCount)
	}
	if len(seg.segmentLog) != 3 {
		t.Fatalf("expected exactly 3 segmentation calls, got %d", len(seg.segmentLog))
	}
	for i, name := range names {
		if seg.segmentLog[i] != name {
			t.Errorf("segmentation call %d = %q, want %q (input order)", i, seg.segmentLog[i], name)
		}
	}
	// 첫 호출 전에는 대기 없음, 이후 호출마다 한 번씩
	if len(sleeps) != 2 {
		t.Fatalf("expected 2 pacing sleeps for 3 items, got %d", len(sleeps))
	}
	for _, d := range sleeps {
		if d != 500*time.Millisecond {
			t.Errorf("pacing delay = %v, want 500ms", d)
		}
	}
	for _, p := range got.Products {
		if p.Provenance != ProvenanceOutline {
			t.Errorf("product %s provenance = %q, want outline", p.ID, p.Provenance)
		}
	}
}

func TestDetectFallbackChainNeverDrops(t *testing.T) {
	names := []string{"sac en cuir orange", "bougie parfumée", "objet mystérieux"}
	seg := &fakeSegmenter{
		segments: map[string]model.SegmentationResult{
			names[0]: outlineResult("M 0.1 0.1 L 0.9 0.1 L 0.5 0.9 Z"),
		},
		boxes: map[string]model.BoundingBox{
			names[1]: {XMin: 0.3, YMin: 0.3, XMax: 0.7, YMax: 0.7},
		},
	}
	svc := newTestService(&fakeVision{response: identifyJSON(names...)}, seg)

	got := svc.Detect(context.Background(), []byte("img"), "image/png")

	if got.TotalCount != 3 {
		t.Fatalf("no item may be dropped: TotalCount = %d, want 3", got.TotalCount)
	}
	if got.Products[0].Provenance != ProvenanceOutline {
		t.Errorf("product 1 provenance = %q, want outline", got.Products[0].Provenance)
	}
	if got.Products[1].Provenance != ProvenanceDetectedBox {
		t.Errorf("product 2 provenance = %q, want detected_box", got.Products[1].Provenance)
	}
	if got.Products[2].Provenance != ProvenanceDefaultBox {
		t.Errorf("product 3 provenance = %q, want default_box", got.Products[2].Provenance)
	}
	if got.Products[2].BoundingBox != model.GenerousBox() {
		t.Errorf("product 3 box = %+v, want generous default", got.Products[2].BoundingBox)
	}
}

func TestDetectFiltersNamesAndCapsCount(t *testing.T) {
	names := []string{"ab"} // 2자: 탈락
	for i := 0; i < 10; i++ {
		names = append(names, fmt.Sprintf("produit numéro %d", i))
	}
	tooLong := ""
	for i := 0; i < 61; i++ {
		tooLong += "x"
	}
	names = append(names, tooLong)

	seg := &fakeSegmenter{}
	svc := newTestService(&fakeVision{response: identifyJSON(names...)}, seg)

	got := svc.Detect(context.Background(), []byte("img"), "image/png")

	if got.TotalCount != maxProducts {
		t.Fatalf("TotalCount = %d, want cap of %d", got.TotalCount, maxProducts)
	}
	for _, p := range got.Products {
		if p.Description == "ab" || p.Description == tooLong {
			t.Errorf("invalid name %q survived filtering", p.Description)
		}
	}
}

func TestDetectKeepsColorDistinctDuplicates(t *testing.T) {
	names := []string{"sac en cuir orange", "sac en cuir noir"}
	svc := newTestService(&fakeVision{response: identifyJSON(names...)}, &fakeSegmenter{})

	got := svc.Detect(context.Background(), []byte("img"), "image/png")

	if got.TotalCount != 2 {
		t.Fatalf("color-distinct duplicates must both survive, got %d", got.TotalCount)
	}
	if got.Products[0].Description == got.Products[1].Description {
		t.Error("expected distinct descriptions")
	}
}

func TestDetectUnknownLocationYieldsNoHint(t *testing.T) {
	response := `{"detected_count": 1, "items": [{"short_name": "bougie parfumée", "location": "quelque part"}]}`
	seg := &fakeSegmenter{segments: map[string]model.SegmentationResult{
		"bougie parfumée": outlineResult("M 0.1 0.1 L 0.9 0.1 L 0.5 0.9 Z"),
	}}
	svc := newTestService(&fakeVision{response: response}, seg)

	svc.Detect(context.Background(), []byte("img"), "image/png")

	if len(seg.segmentLog) != 1 {
		t.Fatalf("expected one segmentation call, got %d", len(seg.segmentLog))
	}
	// 알 수 없는 location은 힌트 없이 호출되어야 한다
	if len(seg.segmentHint) != 0 {
		t.Errorf("unrecognized label must yield no hint, got %+v", seg.segmentHint[0])
	}
}

func TestDetectPassesLocationAnchorHint(t *testing.T) {
	response := `{"detected_count": 1, "items": [{"short_name": "bougie parfumée", "location": "bottom-right"}]}`
	seg := &fakeSegmenter{segments: map[string]model.SegmentationResult{
		"bougie parfumée": outlineResult("M 0.1 0.1 L 0.9 0.1 L 0.5 0.9 Z"),
	}}
	svc := newTestService(&fakeVision{response: response}, seg)

	svc.Detect(context.Background(), []byte("img"), "image/png")

	if len(seg.segmentHint) != 1 {
		t.Fatalf("expected one hint, got %d", len(seg.segmentHint))
	}
	want := model.Point{X: 0.83, Y: 0.83}
	if seg.segmentHint[0] != want {
		t.Errorf("hint = %+v, want %+v", seg.segmentHint[0], want)
	}
}
