package metadata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestResolveURI(t *testing.T) {
	t.Parallel()

	r := NewResolver("https://gateway.example/ipfs")

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"ipfs scheme", "ipfs://abc123", "https://gateway.example/ipfs/abc123"},
		{"ipfs scheme with path", "ipfs://abc123/7.json", "https://gateway.example/ipfs/abc123/7.json"},
		{"ipfs scheme with ipfs prefix", "ipfs://ipfs/abc123", "https://gateway.example/ipfs/abc123"},
		{"https passthrough", "https://x/y", "https://x/y"},
		{"http passthrough", "http://x/y.json", "http://x/y.json"},
		{"relative passthrough", "/local.png", "/local.png"},
		{"bare name passthrough", "local.png", "local.png"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.ResolveURI(tt.in))
		})
	}
}

func TestResolveURIDefaultGateway(t *testing.T) {
	t.Parallel()

	got := NewResolver("").ResolveURI("ipfs://abc123")
	assert.Equal(t, DefaultGateway+"abc123", got)
	assert.Contains(t, got, "abc123")
}

func newObservedResolver(opts ...Option) (*Resolver, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	opts = append(opts, WithLogger(zap.New(core)))
	return NewResolver("", opts...), logs
}

func TestFetchMetadata(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok.json":
			_, _ = w.Write([]byte(`{"name":"BELPY #0001","image":"ipfs://img1"}`))
		case "/empty.json":
		case "/blank.json":
			_, _ = w.Write([]byte("  \n\t "))
		case "/broken.json":
			_, _ = w.Write([]byte(`{"name":`))
		case "/null.json":
			_, _ = w.Write([]byte(`null`))
		case "/error.json":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)

	tests := []struct {
		path   string
		ok     bool
		reason string
	}{
		{"/ok.json", true, ""},
		{"/missing.json", false, ReasonFetchFailed},
		{"/error.json", false, ReasonFetchFailed},
		{"/empty.json", false, ReasonEmptyResponse},
		{"/blank.json", false, ReasonEmptyResponse},
		{"/broken.json", false, ReasonParseError},
		{"/null.json", false, ReasonParseError},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()

			r, logs := newObservedResolver()
			md, ok := r.FetchMetadata(context.Background(), srv.URL+tt.path)
			require.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, "BELPY #0001", md.Name())
				assert.Equal(t, "ipfs://img1", md.Image())
				assert.Equal(t, 0, logs.Len())
				return
			}
			assert.Nil(t, md)
			require.Equal(t, 1, logs.Len())
			assert.Equal(t, tt.reason, logs.All()[0].ContextMap()["reason"])
		})
	}
}

func TestFetchMetadataNetworkFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	r, logs := newObservedResolver()
	md, ok := r.FetchMetadata(context.Background(), url+"/gone.json")
	assert.False(t, ok)
	assert.Nil(t, md)
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, ReasonFetchFailed, logs.All()[0].ContextMap()["reason"])
}

func TestFetchMetadataCanceledContext(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r, _ := newObservedResolver(WithRateLimit(1, 1))
	_, ok := r.FetchMetadata(ctx, srv.URL)
	assert.False(t, ok)
}

func TestMetadataAccessors(t *testing.T) {
	t.Parallel()

	md := Metadata{"name": "x", "image": 7}
	assert.Equal(t, "x", md.Name())
	assert.Empty(t, md.Image())
	assert.Empty(t, Metadata(nil).Name())
}
