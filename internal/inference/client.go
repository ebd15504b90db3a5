package inference

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/andresmejia3/spotter/internal/logging"
	"github.com/andresmejia3/spotter/internal/metrics"
)

// URIScheme is the only storage scheme the inference service accepts.
const URIScheme = "gs://"

// InvalidInputError rejects a storage URI before any network I/O happens.
type InvalidInputError struct {
	URI string
}

func (e *InvalidInputError) Error() string {
	if e.URI == "" {
		return "storage URI is empty"
	}
	return fmt.Sprintf("storage URI %q does not start with %q", e.URI, URIScheme)
}

// NetworkError wraps a transport failure reaching the inference service.
type NetworkError struct {
	Cause error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("inference service unreachable: %v", e.Cause)
}

func (e *NetworkError) Unwrap() error { return e.Cause }

// UpstreamError is a non-200 answer from the inference service.
type UpstreamError struct {
	StatusCode int
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("inference service returned status %d", e.StatusCode)
}

// Options configures a Client. Base URL, port and path are kept separate
// because they arrive as separate configuration fields.
type Options struct {
	BaseURL  string
	Port     int
	Path     string
	Username string
	Password string
	Timeout  time.Duration
}

// Client issues one authenticated detection request per storage object.
// It performs no retries; a failed call is failed.
type Client struct {
	http     *resty.Client
	endpoint string
}

// NewClient builds the endpoint URL and the underlying resty client with
// basic auth. Timeout 0 means no client-side timeout.
func NewClient(opts Options) *Client {
	httpClient := resty.New().SetBasicAuth(opts.Username, opts.Password)
	if opts.Timeout > 0 {
		httpClient.SetTimeout(opts.Timeout)
	}

	endpoint := opts.BaseURL
	if opts.Port > 0 {
		endpoint = fmt.Sprintf("%s:%d", endpoint, opts.Port)
	}
	endpoint += opts.Path

	return &Client{http: httpClient, endpoint: endpoint}
}

// DetectObjects submits the storage URI to the detection endpoint and
// returns the raw JSON body. The URI travels URL-encoded in the gcs_uri
// query parameter. The three failure modes are typed: *InvalidInputError
// (bad URI, no call attempted), *NetworkError (transport), *UpstreamError
// (non-200).
func (c *Client) DetectObjects(ctx context.Context, storageURI string) ([]byte, error) {
	if storageURI == "" || !strings.HasPrefix(storageURI, URIScheme) {
		return nil, &InvalidInputError{URI: storageURI}
	}

	start := time.Now()
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("gcs_uri", storageURI).
		Get(c.endpoint)
	elapsed := time.Since(start)
	metrics.InferenceDuration.Observe(elapsed.Seconds())

	if err != nil {
		metrics.InferenceErrors.WithLabelValues("network").Inc()
		return nil, &NetworkError{Cause: err}
	}

	logging.S().Debugw("inference call finished",
		"uri", storageURI,
		"status", resp.StatusCode(),
		"elapsed", elapsed,
	)

	if resp.StatusCode() != http.StatusOK {
		metrics.InferenceErrors.WithLabelValues("upstream").Inc()
		return nil, &UpstreamError{StatusCode: resp.StatusCode()}
	}
	return resp.Body(), nil
}
