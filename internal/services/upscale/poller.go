package upscale

import (
	"context"
	"fmt"
	"time"

	"github.com/phambaophuc/imgres/internal/models"
	"go.uber.org/zap"
)

// Sleeper blocks for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

func ContextSleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

type jobState int

const (
	stateSubmitted jobState = iota
	statePolling
	stateSucceeded
	stateFailed
	stateTimedOut
)

func (s jobState) String() string {
	switch s {
	case stateSubmitted:
		return "submitted"
	case statePolling:
		return "polling"
	case stateSucceeded:
		return "succeeded"
	case stateFailed:
		return "failed"
	case stateTimedOut:
		return "timed_out"
	default:
		return "unknown"
	}
}

type job struct {
	state      jobState
	attempt    int
	prediction *models.PredictionResponse
}

// wait drives a created prediction to a terminal state and returns its
// output URL. Every poll is preceded by one interval of sleep.
func (c *Client) wait(ctx context.Context, created *models.PredictionResponse) (string, error) {
	j := &job{state: stateSubmitted, prediction: created}

	for {
		c.logger.Debug("Upscale job state",
			zap.String("prediction_id", j.prediction.ID),
			zap.Stringer("state", j.state),
			zap.Int("attempt", j.attempt),
		)

		switch j.state {
		case stateSubmitted:
			j.state = classify(j.prediction, statePolling)

		case statePolling:
			if j.attempt >= c.maxAttempts {
				j.state = stateTimedOut
				continue
			}

			if err := c.sleep(ctx, c.pollInterval); err != nil {
				return "", fmt.Errorf("%w: %v", models.ErrUpstreamRequest, err)
			}
			j.attempt++

			p, err := c.getPrediction(ctx, j.prediction.URLs.Get)
			if err != nil {
				return "", err
			}
			if p.URLs.Get == "" {
				p.URLs.Get = j.prediction.URLs.Get
			}
			j.prediction = p
			j.state = classify(p, statePolling)

		case stateSucceeded:
			return *j.prediction.Output, nil

		case stateFailed:
			return "", &models.UpstreamError{
				Kind: models.ErrUpstreamJobFailed,
				Body: fmt.Sprintf("prediction %s ended with status %s: %v", j.prediction.ID, j.prediction.Status, j.prediction.Error),
			}

		case stateTimedOut:
			return "", fmt.Errorf("%w: prediction %s has no output after %d polls",
				models.ErrUpstreamTimeout, j.prediction.ID, j.attempt)
		}
	}
}

func classify(p *models.PredictionResponse, pending jobState) jobState {
	switch {
	case p.Failed(), p.Status == models.PredictionCanceled:
		return stateFailed
	case p.HasOutput():
		return stateSucceeded
	default:
		return pending
	}
}
