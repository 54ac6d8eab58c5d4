package relay

import (
	"context"
	"errors"
	"net/http"

	"github.com/sashabaranov/go-openai"
)

// Coarse upstream error codes exposed to clients. Raw provider errors only
// go to the logs.
const (
	CodeRateLimited     = "rate_limited"
	CodeQuotaExceeded   = "quota_exceeded"
	CodeUpstreamTimeout = "upstream_timeout"
	CodeUpstreamError   = "upstream_error"
)

func classifyUpstream(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return CodeUpstreamTimeout
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusTooManyRequests:
			if apiErr.Type == "insufficient_quota" {
				return CodeQuotaExceeded
			}
			return CodeRateLimited
		case http.StatusRequestTimeout, http.StatusGatewayTimeout:
			return CodeUpstreamTimeout
		}
	}
	return CodeUpstreamError
}

// retryable reports whether opening the stream is worth another attempt.
// Mid-stream failures are never retried, the partial output already left.
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == http.StatusTooManyRequests || apiErr.HTTPStatusCode >= 500
	}
	// Transport-level failure (connection refused, reset).
	return true
}
