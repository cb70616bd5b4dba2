package upscale

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/phambaophuc/imgres/internal/config"
	"github.com/phambaophuc/imgres/internal/models"
	"go.uber.org/zap"
)

const predictionsPath = "/v1/predictions"

// Client submits upscale jobs to a Replicate-compatible predictions API and
// waits for their output. One Client is shared by all requests; it keeps no
// per-job state between calls.
type Client struct {
	httpClient   *http.Client
	apiURL       string
	apiToken     string
	modelVersion string
	pollInterval time.Duration
	maxAttempts  int
	sleep        Sleeper
	logger       *zap.Logger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithSleeper replaces the wait between polls.
func WithSleeper(s Sleeper) Option {
	return func(c *Client) {
		c.sleep = s
	}
}

func NewClient(cfg config.ReplicateConfig, logger *zap.Logger, opts ...Option) *Client {
	c := &Client{
		httpClient:   &http.Client{Timeout: cfg.HTTPTimeout},
		apiURL:       strings.TrimRight(cfg.APIURL, "/"),
		apiToken:     cfg.APIToken,
		modelVersion: cfg.ModelVersion,
		pollInterval: cfg.PollInterval,
		maxAttempts:  cfg.MaxPollAttempts,
		sleep:        ContextSleep,
		logger:       logger,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Upscale runs one job for an already staged, publicly fetchable image and
// returns the bytes of the upscaled result.
func (c *Client) Upscale(ctx context.Context, imageURL string, scale float32) ([]byte, error) {
	prediction, err := c.createPrediction(ctx, imageURL, scale)
	if err != nil {
		return nil, err
	}

	outputURL, err := c.wait(ctx, prediction)
	if err != nil {
		return nil, err
	}

	return c.download(ctx, outputURL)
}

func (c *Client) createPrediction(ctx context.Context, imageURL string, scale float32) (*models.PredictionResponse, error) {
	body, err := json.Marshal(models.PredictionRequest{
		Version: c.modelVersion,
		Input: models.PredictionInput{
			Image:       imageURL,
			Scale:       scale,
			FaceEnhance: false,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal prediction request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+predictionsPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req)
	req.Header.Set("Prefer", "wait")

	return c.doPrediction(req)
}

func (c *Client) getPrediction(ctx context.Context, statusURL string) (*models.PredictionResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, statusURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req)

	return c.doPrediction(req)
}

func (c *Client) doPrediction(req *http.Request) (*models.PredictionResponse, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %v", models.ErrUpstreamRequest, req.Method, req.URL, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %v", models.ErrUpstreamRequest, err)
	}

	if !isSuccess(resp.StatusCode) {
		c.logger.Error("Upscale provider returned an error",
			zap.String("method", req.Method),
			zap.String("url", req.URL.String()),
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(respBody)),
		)
		return nil, &models.UpstreamError{
			Kind:       models.ErrUpstreamRequest,
			StatusCode: resp.StatusCode,
			Body:       string(respBody),
		}
	}

	var prediction models.PredictionResponse
	if err := json.Unmarshal(respBody, &prediction); err != nil {
		return nil, &models.UpstreamError{
			Kind: models.ErrUpstreamRequest,
			Body: fmt.Sprintf("failed to decode prediction: %v, body: %s", err, respBody),
		}
	}

	return &prediction, nil
}

func (c *Client) download(ctx context.Context, outputURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, outputURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrUpstreamDownload, err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrUpstreamDownload, err)
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		c.logger.Error("Failed to download upscale output",
			zap.String("url", outputURL),
			zap.Int("status", resp.StatusCode),
		)
		return nil, &models.UpstreamError{
			Kind:       models.ErrUpstreamDownload,
			StatusCode: resp.StatusCode,
			Body:       string(body),
		}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read output: %v", models.ErrUpstreamDownload, err)
	}

	return data, nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.apiToken)
	req.Header.Set("Content-Type", "application/json")
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}
