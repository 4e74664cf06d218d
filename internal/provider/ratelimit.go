package provider

import (
	"time"

	"github.com/harrison/scengine/internal/budget"
)

// inferRetryAfter prefers the HTTP Retry-After header (RFC 7231) when
// the caller has one; otherwise it reuses the rate-limit message parser
// to recover a wait duration from the error body, falling back to the
// same 5-hour billing-window inference when no explicit value is
// present anywhere.
func inferRetryAfter(retryAfterHeader, body string) time.Duration {
	if wait, ok := budget.ParseRetryAfterHeader(retryAfterHeader); ok {
		return wait
	}
	info := budget.ParseRateLimitFromError(body)
	if info == nil || info.WaitSeconds <= 0 {
		return time.Until(budget.InferResetTime())
	}
	return time.Duration(info.WaitSeconds) * time.Second
}
