package upscale

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/phambaophuc/imgres/internal/config"
	"github.com/phambaophuc/imgres/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// fakeProvider serves the predictions API. polls[i] answers the i-th GET on
// the status URL; the last entry repeats.
type fakeProvider struct {
	t *testing.T

	mu             sync.Mutex
	createStatus   int
	createResponse map[string]any
	pollStatus     int
	polls          []map[string]any
	downloadStatus int

	created   *models.PredictionRequest
	headers   http.Header
	pollCount int
	downloads int
}

func newFakeProvider(t *testing.T) (*fakeProvider, *httptest.Server) {
	p := &fakeProvider{
		t:              t,
		createStatus:   http.StatusCreated,
		pollStatus:     http.StatusOK,
		downloadStatus: http.StatusOK,
	}
	srv := httptest.NewServer(p)
	t.Cleanup(srv.Close)
	return p, srv
}

func (p *fakeProvider) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/v1/predictions":
		var req models.PredictionRequest
		assert.NoError(p.t, json.NewDecoder(r.Body).Decode(&req))
		p.created = &req
		p.headers = r.Header.Clone()
		w.WriteHeader(p.createStatus)
		_ = json.NewEncoder(w).Encode(p.createResponse)

	case r.Method == http.MethodGet && r.URL.Path == "/v1/predictions/job-1":
		resp := p.polls[min(p.pollCount, len(p.polls)-1)]
		p.pollCount++
		w.WriteHeader(p.pollStatus)
		_ = json.NewEncoder(w).Encode(resp)

	case r.Method == http.MethodGet && r.URL.Path == "/output.png":
		p.downloads++
		w.WriteHeader(p.downloadStatus)
		_, _ = w.Write([]byte("upscaled-bytes"))

	default:
		http.NotFound(w, r)
	}
}

func pending(srv *httptest.Server) map[string]any {
	return map[string]any{
		"id":     "job-1",
		"status": models.PredictionProcessing,
		"output": nil,
		"urls":   map[string]any{"get": srv.URL + "/v1/predictions/job-1"},
	}
}

func succeeded(srv *httptest.Server) map[string]any {
	return map[string]any{
		"id":     "job-1",
		"status": models.PredictionSucceeded,
		"output": srv.URL + "/output.png",
		"urls":   map[string]any{"get": srv.URL + "/v1/predictions/job-1"},
	}
}

func failed(srv *httptest.Server) map[string]any {
	return map[string]any{
		"id":     "job-1",
		"status": models.PredictionFailed,
		"output": nil,
		"error":  "CUDA out of memory",
		"urls":   map[string]any{"get": srv.URL + "/v1/predictions/job-1"},
	}
}

type sleepRecorder struct {
	mu    sync.Mutex
	calls []time.Duration
}

func (s *sleepRecorder) sleep(_ context.Context, d time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, d)
	return nil
}

func newTestClient(t *testing.T, srv *httptest.Server, sleeper *sleepRecorder) *Client {
	cfg := config.ReplicateConfig{
		APIURL:          srv.URL,
		APIToken:        "r8_test",
		ModelVersion:    config.DefaultModelVersion,
		PollInterval:    2 * time.Second,
		MaxPollAttempts: 20,
		HTTPTimeout:     5 * time.Second,
	}
	return NewClient(cfg, zaptest.NewLogger(t), WithSleeper(sleeper.sleep))
}

func TestUpscale_OutputOnCreation(t *testing.T) {
	provider, srv := newFakeProvider(t)
	provider.createResponse = succeeded(srv)
	sleeper := &sleepRecorder{}

	data, err := newTestClient(t, srv, sleeper).Upscale(context.Background(), "https://cdn.example/temp/a.png", 2.5)
	require.NoError(t, err)

	assert.Equal(t, []byte("upscaled-bytes"), data)
	assert.Empty(t, sleeper.calls)
	assert.Equal(t, 0, provider.pollCount)

	require.NotNil(t, provider.created)
	assert.Equal(t, config.DefaultModelVersion, provider.created.Version)
	assert.Equal(t, "https://cdn.example/temp/a.png", provider.created.Input.Image)
	assert.Equal(t, float32(2.5), provider.created.Input.Scale)
	assert.False(t, provider.created.Input.FaceEnhance)
	assert.Equal(t, "Bearer r8_test", provider.headers.Get("Authorization"))
	assert.Equal(t, "wait", provider.headers.Get("Prefer"))
	assert.Equal(t, "application/json", provider.headers.Get("Content-Type"))
}

func TestUpscale_PollsUntilOutput(t *testing.T) {
	provider, srv := newFakeProvider(t)
	provider.createResponse = pending(srv)
	provider.polls = []map[string]any{pending(srv), pending(srv), succeeded(srv)}
	sleeper := &sleepRecorder{}

	data, err := newTestClient(t, srv, sleeper).Upscale(context.Background(), "https://cdn.example/a.png", 2)
	require.NoError(t, err)

	assert.Equal(t, []byte("upscaled-bytes"), data)
	assert.Equal(t, 3, provider.pollCount)
	assert.Equal(t, []time.Duration{2 * time.Second, 2 * time.Second, 2 * time.Second}, sleeper.calls)
	assert.Equal(t, 1, provider.downloads)
}

func TestUpscale_Errors(t *testing.T) {
	tests := []struct {
		name      string
		setup     func(p *fakeProvider, srv *httptest.Server)
		wantErr   error
		wantPolls int
	}{
		{
			name: "creation rejected",
			setup: func(p *fakeProvider, srv *httptest.Server) {
				p.createStatus = http.StatusUnprocessableEntity
				p.createResponse = map[string]any{"detail": "invalid version"}
			},
			wantErr: models.ErrUpstreamRequest,
		},
		{
			name: "failed on third poll",
			setup: func(p *fakeProvider, srv *httptest.Server) {
				p.createResponse = pending(srv)
				p.polls = []map[string]any{pending(srv), pending(srv), failed(srv)}
			},
			wantErr:   models.ErrUpstreamJobFailed,
			wantPolls: 3,
		},
		{
			name: "failed on creation",
			setup: func(p *fakeProvider, srv *httptest.Server) {
				p.createResponse = failed(srv)
			},
			wantErr: models.ErrUpstreamJobFailed,
		},
		{
			name: "poll rejected",
			setup: func(p *fakeProvider, srv *httptest.Server) {
				p.createResponse = pending(srv)
				p.polls = []map[string]any{pending(srv)}
				p.pollStatus = http.StatusInternalServerError
			},
			wantErr:   models.ErrUpstreamRequest,
			wantPolls: 1,
		},
		{
			name: "never finishes",
			setup: func(p *fakeProvider, srv *httptest.Server) {
				p.createResponse = pending(srv)
				p.polls = []map[string]any{pending(srv)}
			},
			wantErr:   models.ErrUpstreamTimeout,
			wantPolls: 20,
		},
		{
			name: "download rejected",
			setup: func(p *fakeProvider, srv *httptest.Server) {
				p.createResponse = succeeded(srv)
				p.downloadStatus = http.StatusNotFound
			},
			wantErr: models.ErrUpstreamDownload,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider, srv := newFakeProvider(t)
			tt.setup(provider, srv)
			sleeper := &sleepRecorder{}

			data, err := newTestClient(t, srv, sleeper).Upscale(context.Background(), "https://cdn.example/a.png", 2)
			require.Error(t, err)
			assert.Nil(t, data)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
			assert.Equal(t, tt.wantPolls, provider.pollCount)
			assert.Len(t, sleeper.calls, tt.wantPolls)
		})
	}
}

func TestUpscale_UpstreamErrorCarriesStatus(t *testing.T) {
	provider, srv := newFakeProvider(t)
	provider.createStatus = http.StatusPaymentRequired
	provider.createResponse = map[string]any{"detail": "billing"}

	_, err := newTestClient(t, srv, &sleepRecorder{}).Upscale(context.Background(), "https://cdn.example/a.png", 2)

	var upstream *models.UpstreamError
	require.True(t, errors.As(err, &upstream))
	assert.Equal(t, http.StatusPaymentRequired, upstream.StatusCode)
	assert.Contains(t, upstream.Body, "billing")
}

func TestContextSleepHonorsCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := ContextSleep(ctx, time.Hour)
	assert.ErrorIs(t, err, context.Canceled)
}
