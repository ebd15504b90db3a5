package scanner

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/andresmejia3/spotter/internal/inference"
)

// fakeLister serves a fixed object list, or fails.
type fakeLister struct {
	objects []string
	err     error
}

func (f *fakeLister) ListObjects(ctx context.Context, bucket string) ([]string, error) {
	return f.objects, f.err
}

// fakeDetector maps storage URIs to canned payloads. Unknown URIs fail.
type fakeDetector struct {
	mu        sync.Mutex
	responses map[string]string
	errs      map[string]error
	calls     []string
}

func (f *fakeDetector) DetectObjects(ctx context.Context, uri string) ([]byte, error) {
	f.mu.Lock()
	f.calls = append(f.calls, uri)
	f.mu.Unlock()
	if err, ok := f.errs[uri]; ok {
		return nil, err
	}
	if body, ok := f.responses[uri]; ok {
		return []byte(body), nil
	}
	return nil, fmt.Errorf("unexpected URI %q", uri)
}

func TestProcessOne(t *testing.T) {
	det := &fakeDetector{responses: map[string]string{
		"gs://b/f.jpg": `{"car":[{"x":1,"y":2,"w":3,"h":4,"score":0.9}]}`,
	}}
	s := New(nil, det, []string{"car", "pedestrian"}, 1, 0)

	out := s.ProcessOne(context.Background(), "b", "f.jpg")
	if out.Err != nil {
		t.Fatalf("ProcessOne failed: %v", out.Err)
	}
	if out.URI != "gs://b/f.jpg" {
		t.Errorf("Wrong storage URI: %s", out.URI)
	}
	if !out.Found["car"] {
		t.Error(`Expected "car" to be found`)
	}
	if out.Found["pedestrian"] {
		t.Error(`Did not expect "pedestrian" to be found`)
	}
	if out.Boxes != 1 {
		t.Errorf("Expected 1 box, got %d", out.Boxes)
	}
}

func TestProcessOneDetectorFailure(t *testing.T) {
	upstream := &inference.UpstreamError{StatusCode: 500}
	det := &fakeDetector{errs: map[string]error{
		"gs://b/broken.jpg": upstream,
	}}
	s := New(nil, det, []string{"car"}, 1, 0)

	out := s.ProcessOne(context.Background(), "b", "broken.jpg")

	// The failure is tagged, not swallowed: zero boxes, all labels false,
	// but the error kind stays inspectable.
	var uerr *inference.UpstreamError
	if !errors.As(out.Err, &uerr) {
		t.Fatalf("Expected *UpstreamError on the outcome, got %v", out.Err)
	}
	if out.Boxes != 0 || out.Found["car"] {
		t.Errorf("Failed object should report zero detections, got %+v", out)
	}
}

func TestProcessOneMalformedPayload(t *testing.T) {
	det := &fakeDetector{responses: map[string]string{
		"gs://b/garbage.jpg": `not json at all`,
	}}
	s := New(nil, det, []string{"car"}, 1, 0)

	out := s.ProcessOne(context.Background(), "b", "garbage.jpg")
	if out.Err == nil {
		t.Fatal("Expected a parse error on the outcome")
	}
	if out.Boxes != 0 {
		t.Errorf("Expected zero boxes, got %d", out.Boxes)
	}
}

func TestScan(t *testing.T) {
	lister := &fakeLister{objects: []string{"a.jpg", "b.jpg", "c.jpg"}}
	det := &fakeDetector{
		responses: map[string]string{
			"gs://pics/a.jpg": `{"car":[{"x":0,"y":0,"w":1,"h":1,"score":0.8}]}`,
			"gs://pics/b.jpg": `{}`,
		},
		errs: map[string]error{
			"gs://pics/c.jpg": &inference.NetworkError{Cause: errors.New("refused")},
		},
	}
	s := New(lister, det, []string{"car"}, 2, 0)

	sum, err := s.Scan(context.Background(), "pics")
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	if sum.Listed != 3 || sum.Processed != 3 || sum.Skipped != 0 {
		t.Errorf("Counts wrong: %+v", sum)
	}
	if sum.Failed != 1 {
		t.Errorf("Expected 1 failed object, got %d", sum.Failed)
	}
	if sum.PerLabel["car"] != 1 {
		t.Errorf(`Expected "car" in exactly 1 object, got %d`, sum.PerLabel["car"])
	}
	if sum.ScanID == "" {
		t.Error("Expected a scan ID")
	}
	if len(sum.Outcomes) != 3 {
		t.Errorf("Expected 3 outcomes, got %d", len(sum.Outcomes))
	}
}

func TestScanMaxObjectsCap(t *testing.T) {
	lister := &fakeLister{objects: []string{"1.jpg", "2.jpg", "3.jpg", "4.jpg", "5.jpg"}}
	det := &fakeDetector{responses: map[string]string{
		"gs://b/1.jpg": `{}`,
		"gs://b/2.jpg": `{}`,
	}}
	s := New(lister, det, []string{"car"}, 1, 2)

	var onListedTotal int
	s.OnListed = func(total int) { onListedTotal = total }

	sum, err := s.Scan(context.Background(), "b")
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if sum.Listed != 5 || sum.Processed != 2 || sum.Skipped != 3 {
		t.Errorf("Cap not applied: %+v", sum)
	}
	if onListedTotal != 2 {
		t.Errorf("OnListed should see the capped total, got %d", onListedTotal)
	}
	// Listing order is preserved: only the first two objects were called
	if len(det.calls) != 2 {
		t.Errorf("Expected 2 detector calls, got %d", len(det.calls))
	}
}

func TestScanListingFailureIsFatal(t *testing.T) {
	lister := &fakeLister{err: errors.New("bucket does not exist")}
	s := New(lister, &fakeDetector{}, []string{"car"}, 1, 0)

	if _, err := s.Scan(context.Background(), "nope"); err == nil {
		t.Fatal("Expected listing failure to abort the scan")
	}
}

func TestScanOnResultCalledPerObject(t *testing.T) {
	lister := &fakeLister{objects: []string{"a.jpg", "b.jpg"}}
	det := &fakeDetector{responses: map[string]string{
		"gs://b/a.jpg": `{}`,
		"gs://b/b.jpg": `{}`,
	}}
	s := New(lister, det, []string{"car"}, 2, 0)

	var mu sync.Mutex
	seen := 0
	s.OnResult = func(Outcome) {
		mu.Lock()
		seen++
		mu.Unlock()
	}

	if _, err := s.Scan(context.Background(), "b"); err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if seen != 2 {
		t.Errorf("OnResult called %d times, want 2", seen)
	}
}

// End-to-end over a real HTTP boundary: mocked inference endpoint, real
// client, full pipeline.
func TestScanEndToEnd(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("gcs_uri") {
		case "gs://b/f.jpg":
			w.Write([]byte(`{"car":[{"x":1,"y":2,"w":3,"h":4,"score":0.9}]}`))
		case "gs://b/broken.jpg":
			http.Error(w, "boom", http.StatusInternalServerError)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	client := inference.NewClient(inference.Options{BaseURL: srv.URL})
	lister := &fakeLister{objects: []string{"f.jpg", "broken.jpg"}}
	s := New(lister, client, []string{"car", "pedestrian"}, 2, 0)

	sum, err := s.Scan(context.Background(), "b")
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if sum.Processed != 2 || sum.Failed != 1 {
		t.Fatalf("Counts wrong: %+v", sum)
	}

	for _, out := range sum.Outcomes {
		switch out.Object {
		case "f.jpg":
			if out.Err != nil || !out.Found["car"] || out.Found["pedestrian"] {
				t.Errorf("f.jpg outcome wrong: %+v", out)
			}
		case "broken.jpg":
			var uerr *inference.UpstreamError
			if !errors.As(out.Err, &uerr) || out.Boxes != 0 {
				t.Errorf("broken.jpg should fail upstream with zero boxes: %+v", out)
			}
		}
	}
}
