package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/andresmejia3/spotter/internal/logging"
)

var (
	registry = prometheus.NewRegistry()

	// InferenceDuration tracks the wall-clock time of each detection call.
	// Advisory only; the scan result does not depend on it.
	InferenceDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "spotter_inference_duration_seconds",
		Help:    "Wall-clock duration of one inference request",
		Buckets: prometheus.DefBuckets,
	})

	// InferenceErrors counts failed detection calls by error kind.
	InferenceErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "spotter_inference_errors_total",
		Help: "Failed inference requests by kind",
	}, []string{"kind"})

	// ObjectsProcessed counts bucket objects that completed the pipeline.
	ObjectsProcessed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "spotter_objects_processed_total",
		Help: "Bucket objects run through the detection pipeline",
	})
)

func init() {
	registry.MustRegister(InferenceDuration, InferenceErrors, ObjectsProcessed)
}

// Serve exposes /metrics on the given port until ctx is cancelled. Meant to
// run in its own goroutine for the duration of a scan.
func Serve(ctx context.Context, port int) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}))
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.S().Errorw("metrics server failed", "error", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.S().Errorw("metrics server shutdown failed", "error", err)
	}
}
