package models

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrPayloadTooLarge    = errors.New("payload too large")
	ErrUnsupportedFormat  = errors.New("unsupported image format")
	ErrInsufficientCredit = errors.New("insufficient credit")
	ErrAccountNotFound    = errors.New("credit account not found")

	ErrUpstreamRequest   = errors.New("upscale provider request failed")
	ErrUpstreamJobFailed = errors.New("upscale job failed")
	ErrUpstreamTimeout   = errors.New("upscale job timed out")
	ErrUpstreamDownload  = errors.New("upscale output download failed")

	ErrStorage = errors.New("storage error")
)

// UpstreamError carries the provider response that caused a failure.
// It matches its Kind with errors.Is.
type UpstreamError struct {
	Kind       error
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%v: %s", e.Kind, e.Body)
	}
	return fmt.Sprintf("%v: status %d, body: %s", e.Kind, e.StatusCode, e.Body)
}

func (e *UpstreamError) Unwrap() error {
	return e.Kind
}
