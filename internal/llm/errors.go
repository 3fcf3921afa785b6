package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// ErrorKind classifies a generation failure.
type ErrorKind string

const (
	KindTimeout   ErrorKind = "timeout"
	KindCanceled  ErrorKind = "canceled"
	KindAuth      ErrorKind = "auth"
	KindRateLimit ErrorKind = "rate_limit"
	KindProvider  ErrorKind = "provider"
	KindEmpty     ErrorKind = "empty"
)

// ErrEmptyResponse is returned when a provider answers without any text.
var ErrEmptyResponse = errors.New("empty response from model")

// GenerationError is a classified provider failure.
type GenerationError struct {
	Kind       ErrorKind
	Provider   string
	Message    string
	StatusCode int
	Cause      error
}

func (e *GenerationError) Error() string {
	parts := []string{string(e.Kind)}
	if e.Provider != "" {
		parts = append(parts, "provider="+e.Provider)
	}
	if e.StatusCode > 0 {
		parts = append(parts, fmt.Sprintf("HTTP %d", e.StatusCode))
	}
	parts = append(parts, e.Message)
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", strings.Join(parts, " "), e.Cause)
	}
	return strings.Join(parts, " ")
}

// Unwrap returns the underlying cause for errors.Is/As.
func (e *GenerationError) Unwrap() error {
	return e.Cause
}

// Retryable reports whether the same request may succeed later.
func (e *GenerationError) Retryable() bool {
	switch e.Kind {
	case KindTimeout, KindRateLimit:
		return true
	case KindProvider:
		return e.StatusCode >= 500
	}
	return false
}

// ClassifyError wraps err as a *GenerationError. Errors that are already classified are returned as is.
func ClassifyError(provider string, err error) *GenerationError {
	if err == nil {
		return nil
	}
	var genErr *GenerationError
	if errors.As(err, &genErr) {
		return genErr
	}

	classified := &GenerationError{Provider: provider, Cause: err}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		classified.StatusCode = apiErr.HTTPStatusCode
	}

	errStr := err.Error()
	lower := strings.ToLower(errStr)
	switch {
	case errors.Is(err, context.DeadlineExceeded) || strings.Contains(lower, "deadline exceeded"):
		classified.Kind, classified.Message = KindTimeout, "request timed out"
	case errors.Is(err, context.Canceled) || strings.Contains(lower, "context canceled"):
		classified.Kind, classified.Message = KindCanceled, "request canceled"
	case errors.Is(err, ErrEmptyResponse):
		classified.Kind, classified.Message = KindEmpty, "model returned no text"
	case classified.StatusCode == 401 || classified.StatusCode == 403 ||
		strings.Contains(errStr, "401") || strings.Contains(lower, "unauthorized") ||
		strings.Contains(lower, "api key") || strings.Contains(lower, "permission denied"):
		classified.Kind, classified.Message = KindAuth, "authentication failed"
	case classified.StatusCode == 429 || strings.Contains(errStr, "429") ||
		strings.Contains(lower, "rate limit") || strings.Contains(lower, "quota") ||
		strings.Contains(lower, "resource exhausted") || strings.Contains(lower, "overloaded"):
		classified.Kind, classified.Message = KindRateLimit, "rate limited"
	default:
		classified.Kind, classified.Message = KindProvider, "generation failed"
		if classified.StatusCode == 0 {
			for _, code := range []int{500, 502, 503, 504} {
				if strings.Contains(errStr, fmt.Sprintf("%d", code)) {
					classified.StatusCode = code
					break
				}
			}
		}
	}
	return classified
}

// KindOf returns the classification of err, or "" when err is not a *GenerationError.
func KindOf(err error) ErrorKind {
	var genErr *GenerationError
	if errors.As(err, &genErr) {
		return genErr.Kind
	}
	return ""
}
