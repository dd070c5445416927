package gtfs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"telemetrix.dev/internal/logging"
)

// MaxBodySize caps the decompressed size of one feed payload.
const MaxBodySize = 25 * 1024 * 1024

var (
	ErrNoURL            = errors.New("vehicle positions URL is not configured")
	ErrUnexpectedStatus = errors.New("unexpected HTTP status")
	ErrBodyTooLarge     = fmt.Errorf("GTFS-RT response exceeds size limit of %d bytes", MaxBodySize)
)

// newRealtimeHTTPClient returns a dedicated client for feed fetching. The
// transport is cloned from http.DefaultTransport so proxy, dial and HTTP/2
// defaults carry over.
func newRealtimeHTTPClient() *http.Client {
	var transport *http.Transport
	if t, ok := http.DefaultTransport.(*http.Transport); ok {
		transport = t.Clone()
	} else {
		transport = &http.Transport{}
	}
	transport.MaxIdleConns = 10
	transport.MaxIdleConnsPerHost = 2
	transport.IdleConnTimeout = 90 * time.Second
	transport.TLSHandshakeTimeout = 10 * time.Second
	transport.ExpectContinueTimeout = 1 * time.Second

	return &http.Client{
		Timeout:   10 * time.Second,
		Transport: transport,
	}
}

// Fetcher downloads raw GTFS-RT vehicle position payloads.
type Fetcher struct {
	config Config
	client *http.Client
}

// NewFetcher returns a Fetcher for config. A nil client selects the
// package's dedicated realtime client.
func NewFetcher(config Config, client *http.Client) *Fetcher {
	if client == nil {
		client = newRealtimeHTTPClient()
	}
	return &Fetcher{config: config, client: client}
}

// URL returns the feed location this fetcher polls.
func (f *Fetcher) URL() string {
	return f.config.VehiclePositionsURL
}

// Fetch retrieves the latest payload. Any non-200 response is an error.
func (f *Fetcher) Fetch(ctx context.Context) ([]byte, error) {
	source := f.config.VehiclePositionsURL
	if source == "" {
		return nil, ErrNoURL
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, err
	}
	for key, value := range f.config.headers() {
		req.Header.Add(key, value)
	}
	req.Header.Set("User-Agent", f.config.userAgent())
	req.Header.Set("Accept", "application/x-protobuf, application/octet-stream")
	req.Header.Set("Accept-Encoding", "gzip, zstd")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute GTFS-RT request: %w", err)
	}

	logger := logging.FromContext(ctx).With(slog.String("component", "gtfs_realtime_downloader"))
	defer logging.SafeCloseWithLogging(resp.Body, logger, "http_response_body")

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s returned %s", ErrUnexpectedStatus, source, resp.Status)
	}

	body, err := decodedBody(resp)
	if err != nil {
		return nil, err
	}
	defer logging.SafeCloseWithLogging(body, logger, "decompressed_body")

	data, err := io.ReadAll(io.LimitReader(body, MaxBodySize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if len(data) > MaxBodySize {
		return nil, ErrBodyTooLarge
	}
	return data, nil
}

// decodedBody unwraps the response according to its Content-Encoding. The
// returned closer does not close resp.Body.
func decodedBody(resp *http.Response) (io.ReadCloser, error) {
	switch strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding"))) {
	case "", "identity":
		return io.NopCloser(resp.Body), nil
	case "gzip", "x-gzip":
		zr, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to open gzip body: %w", err)
		}
		return zr, nil
	case "zstd":
		zr, err := zstd.NewReader(resp.Body, zstd.WithDecoderConcurrency(1))
		if err != nil {
			return nil, fmt.Errorf("failed to open zstd body: %w", err)
		}
		return zr.IOReadCloser(), nil
	default:
		return nil, fmt.Errorf("unsupported content encoding %q", resp.Header.Get("Content-Encoding"))
	}
}
