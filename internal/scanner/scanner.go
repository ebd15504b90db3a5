package scanner

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/andresmejia3/spotter/internal/detection"
	"github.com/andresmejia3/spotter/internal/inference"
	"github.com/andresmejia3/spotter/internal/logging"
	"github.com/andresmejia3/spotter/internal/metrics"
	"github.com/andresmejia3/spotter/internal/storage"
)

// Detector is the single call the pipeline needs from the inference client.
type Detector interface {
	DetectObjects(ctx context.Context, storageURI string) ([]byte, error)
}

// Outcome is the tagged per-object result. A non-nil Err is distinguishable
// from "processed fine, nothing found": failed objects report zero boxes
// and all labels false, but keep the error that caused it.
type Outcome struct {
	Object  string
	URI     string
	Err     error
	Found   map[string]bool
	Boxes   int
	Elapsed time.Duration
}

// Summary aggregates a completed scan. PerLabel counts objects (not boxes)
// in which each label was found.
type Summary struct {
	ScanID    string
	Listed    int
	Processed int
	Skipped   int
	Failed    int
	PerLabel  map[string]int
	Outcomes  []Outcome
}

// Scanner runs the per-object detection pipeline over a bucket with a fixed
// pool of workers. Objects are independent; nothing is shared between
// in-flight pipelines except the read-only configuration.
type Scanner struct {
	lister     storage.Lister
	detector   Detector
	labels     []string
	workers    int
	maxObjects int

	// OnListed, when set, is called once with the number of objects that
	// will actually be processed (after the MaxObjects cap).
	OnListed func(total int)
	// OnResult, when set, is called from the aggregator for every finished
	// object, in completion order.
	OnResult func(Outcome)
}

// New builds a Scanner. workers below 1 is clamped to 1; maxObjects 0 means
// no cap.
func New(lister storage.Lister, detector Detector, labels []string, workers, maxObjects int) *Scanner {
	if workers < 1 {
		workers = 1
	}
	return &Scanner{
		lister:     lister,
		detector:   detector,
		labels:     labels,
		workers:    workers,
		maxObjects: maxObjects,
	}
}

// ProcessOne runs the full pipeline for a single object: build the storage
// URI, call the detector, parse the payload, match every configured label.
// Errors from any stage land on the Outcome instead of propagating; the
// object then counts as zero detections, logged at Warn.
func (s *Scanner) ProcessOne(ctx context.Context, bucket, object string) Outcome {
	out := Outcome{
		Object: object,
		URI:    inference.URIScheme + bucket + "/" + object,
		Found:  make(map[string]bool, len(s.labels)),
	}
	for _, label := range s.labels {
		out.Found[label] = false
	}
	start := time.Now()

	raw, err := s.detector.DetectObjects(ctx, out.URI)
	if err != nil {
		out.Err = err
		out.Elapsed = time.Since(start)
		logging.S().Warnw("inference failed, recording zero detections",
			"object", object, "error", err)
		return out
	}

	resp, err := detection.Parse(raw)
	if err != nil {
		out.Err = err
		out.Elapsed = time.Since(start)
		logging.S().Warnw("malformed detection payload, recording zero detections",
			"object", object, "error", err)
		return out
	}

	out.Boxes = len(resp.Boxes)
	for _, label := range s.labels {
		out.Found[label] = detection.Matches(label, resp)
	}
	out.Elapsed = time.Since(start)
	metrics.ObjectsProcessed.Inc()
	return out
}

// Scan lists the bucket and fans the objects out to the worker pool. The
// task channel doubles as backpressure; the aggregator owns every counter,
// so workers never touch shared state. Scan returns only after the pool
// and the aggregator have fully drained — the summary can never race the
// last in-flight object. A listing failure aborts the scan; per-object
// failures do not.
func (s *Scanner) Scan(ctx context.Context, bucket string) (*Summary, error) {
	objects, err := s.lister.ListObjects(ctx, bucket)
	if err != nil {
		return nil, err
	}

	sum := &Summary{
		ScanID:   uuid.NewString(),
		Listed:   len(objects),
		PerLabel: make(map[string]int, len(s.labels)),
	}
	for _, label := range s.labels {
		sum.PerLabel[label] = 0
	}

	work := objects
	if s.maxObjects > 0 && len(work) > s.maxObjects {
		sum.Skipped = len(work) - s.maxObjects
		work = work[:s.maxObjects]
	}
	if s.OnListed != nil {
		s.OnListed(len(work))
	}

	logging.S().Infow("scan started",
		"scan_id", sum.ScanID,
		"bucket", bucket,
		"listed", sum.Listed,
		"processing", len(work),
		"skipped", sum.Skipped,
		"workers", s.workers,
	)

	tasks := make(chan string, s.workers)
	results := make(chan Outcome, s.workers*2)
	var wg sync.WaitGroup

	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for object := range tasks {
				results <- s.ProcessOne(ctx, bucket, object)
			}
		}()
	}

	aggDone := make(chan struct{})
	go func() {
		defer close(aggDone)
		for out := range results {
			sum.Processed++
			if out.Err != nil {
				sum.Failed++
			}
			for label, found := range out.Found {
				if found {
					sum.PerLabel[label]++
				}
			}
			sum.Outcomes = append(sum.Outcomes, out)
			if s.OnResult != nil {
				s.OnResult(out)
			}
		}
	}()

feed:
	for _, object := range work {
		select {
		case <-ctx.Done():
			break feed
		case tasks <- object:
		}
	}
	close(tasks)
	wg.Wait()
	close(results)
	<-aggDone

	if ctx.Err() != nil {
		logging.S().Warnw("scan interrupted", "scan_id", sum.ScanID, "processed", sum.Processed)
		return sum, ctx.Err()
	}

	logging.S().Infow("scan finished",
		"scan_id", sum.ScanID,
		"processed", sum.Processed,
		"failed", sum.Failed,
	)
	return sum, nil
}
