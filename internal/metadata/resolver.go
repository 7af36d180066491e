// Package metadata resolves token URIs and fetches off-chain NFT metadata documents.
package metadata

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/AlexZinkM/belpy-mint/internal/logging"
)

const (
	ipfsScheme     = "ipfs://"
	DefaultGateway = "https://ipfs.io/ipfs/"

	defaultTimeout = 10 * time.Second
	maxBodyBytes   = 1 << 20
)

// Failure reasons, logged on every path that yields no metadata.
const (
	ReasonFetchFailed   = "fetch_failed"
	ReasonEmptyResponse = "empty_response"
	ReasonParseError    = "parse_error"
)

// Metadata is an arbitrary JSON metadata document.
type Metadata map[string]any

// String returns the string value of key, or "" when absent or not a string.
func (m Metadata) String(key string) string {
	v, _ := m[key].(string)
	return v
}

// Name returns the "name" field.
func (m Metadata) Name() string { return m.String("name") }

// Image returns the "image" field.
func (m Metadata) Image() string { return m.String("image") }

// Resolver normalizes token URIs and fetches metadata over HTTP.
type Resolver struct {
	gateway string
	client  *http.Client
	limiter *rate.Limiter
	logger  *zap.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithHTTPClient sets the HTTP client used for metadata requests.
func WithHTTPClient(c *http.Client) Option {
	return func(r *Resolver) { r.client = c }
}

// WithRateLimit limits metadata requests to rps per second.
func WithRateLimit(rps float64, burst int) Option {
	return func(r *Resolver) {
		if rps > 0 {
			r.limiter = rate.NewLimiter(rate.Limit(rps), max(burst, 1))
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Resolver) { r.logger = logging.OrNop(l) }
}

// NewResolver creates a resolver rewriting ipfs:// URIs onto gateway.
func NewResolver(gateway string, opts ...Option) *Resolver {
	if gateway == "" {
		gateway = DefaultGateway
	}
	if !strings.HasSuffix(gateway, "/") {
		gateway += "/"
	}
	r := &Resolver{
		gateway: gateway,
		client:  &http.Client{Timeout: defaultTimeout},
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ResolveURI returns a fetchable URL for uri. ipfs:// URIs are rewritten onto
// the gateway, everything else is returned unchanged.
func (r *Resolver) ResolveURI(uri string) string {
	if strings.HasPrefix(uri, ipfsScheme) {
		path := strings.TrimPrefix(uri, ipfsScheme)
		path = strings.TrimPrefix(path, "ipfs/")
		return r.gateway + strings.TrimLeft(path, "/")
	}
	return uri
}

// FetchMetadata fetches and parses the JSON document behind uri.
// It returns false, never an error, when the document cannot be obtained.
func (r *Resolver) FetchMetadata(ctx context.Context, uri string) (Metadata, bool) {
	url := r.ResolveURI(strings.TrimSpace(uri))
	if url == "" {
		r.fail(ReasonFetchFailed, uri, url, fmt.Errorf("empty uri"))
		return nil, false
	}

	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			r.fail(ReasonFetchFailed, uri, url, fmt.Errorf("rate limiter: %w", err))
			return nil, false
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		r.fail(ReasonFetchFailed, uri, url, fmt.Errorf("failed to build request: %w", err))
		return nil, false
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		r.fail(ReasonFetchFailed, uri, url, err)
		return nil, false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		r.fail(ReasonFetchFailed, uri, url, fmt.Errorf("status %d", resp.StatusCode))
		return nil, false
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		r.fail(ReasonFetchFailed, uri, url, fmt.Errorf("failed to read body: %w", err))
		return nil, false
	}

	if len(bytes.TrimSpace(body)) == 0 {
		r.fail(ReasonEmptyResponse, uri, url, nil)
		return nil, false
	}

	var md Metadata
	if err := json.Unmarshal(body, &md); err != nil {
		r.fail(ReasonParseError, uri, url, err)
		return nil, false
	}
	if md == nil {
		// a literal "null" document
		r.fail(ReasonParseError, uri, url, fmt.Errorf("not a JSON object"))
		return nil, false
	}

	return md, true
}

func (r *Resolver) fail(reason, uri, url string, err error) {
	fields := []zap.Field{
		zap.String("reason", reason),
		zap.String("uri", uri),
		zap.String("url", url),
	}
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	r.logger.Warn("metadata unavailable", fields...)
}
