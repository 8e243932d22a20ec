package api

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jdziat/simple-asset-sync/pkg/core"
)

// RetryPolicy configures retries around every catalog call.
type RetryPolicy struct {
	// MaxAttempts is the maximum number of attempts (including initial).
	// Default: 5
	MaxAttempts int

	// BaseDelay is multiplied by 2^attempt between attempts.
	// Default: 1s
	BaseDelay time.Duration

	// MaxDelay caps a single delay. Zero means no cap.
	MaxDelay time.Duration
}

// DefaultRetryPolicy returns the default retry policy.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 5,
		BaseDelay:   time.Second,
	}
}

// Delay returns the wait after the given failed attempt (1-based).
func (p RetryPolicy) Delay(attempt int) time.Duration {
	d := p.BaseDelay << uint(attempt)
	if d <= 0 || (p.MaxDelay > 0 && d > p.MaxDelay) {
		d = p.MaxDelay
	}
	return d
}

// PermanentError marks an error that must not be retried.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string {
	return fmt.Sprintf("permanent: %v", e.Err)
}

func (e *PermanentError) Unwrap() error {
	return e.Err
}

// Permanent wraps err so that the retry loop gives up immediately.
func Permanent(err error) error {
	return &PermanentError{Err: err}
}

// retry runs op under the policy.
//
// 401/403 responses trigger one token refresh per failed attempt, 429,
// 5xx and transport errors back off, and any other API error is returned
// at once. Exhausted attempts surface as a transport PipelineError.
func (c *Client) retry(ctx context.Context, name string, op func(ctx context.Context) error) error {
	policy := c.config.Retry
	attempts := max(policy.MaxAttempts, 1)

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}

		// Don't retry on context cancellation
		if errors.Is(lastErr, context.Canceled) || errors.Is(lastErr, context.DeadlineExceeded) {
			return lastErr
		}

		var permanent *PermanentError
		if errors.As(lastErr, &permanent) {
			return fmt.Errorf("%s: %w", name, permanent.Err)
		}

		var authErr *core.AuthenticationError
		if errors.As(lastErr, &authErr) {
			return lastErr
		}

		reason := "transport"
		var apiErr *core.APIError
		if errors.As(lastErr, &apiErr) {
			switch {
			case apiErr.IsAuthFailure():
				reason = "auth"
			case apiErr.IsRateLimited():
				reason = "rate_limited"
			case apiErr.IsServerError():
				reason = "server"
			default:
				return fmt.Errorf("%s: %w", name, lastErr)
			}
		}

		if attempt >= attempts {
			break
		}

		if reason == "auth" {
			c.logger.Warn("catalog rejected access token, refreshing", "op", name, "status", apiErr.StatusCode)
			c.recorder.TokenRefreshed()
			if err := c.auth.RefreshAccessToken(ctx); err != nil {
				return &core.AuthenticationError{Err: fmt.Errorf("refresh access token: %w", err)}
			}
		}

		delay := policy.Delay(attempt)
		c.logger.Error("error communicating with catalog",
			"op", name,
			"attempt", attempt,
			"reason", reason,
			"retry_in", delay,
			"error", lastErr)
		c.recorder.Retried(name, reason)

		// Wait for backoff or context cancellation
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	return core.NewPipelineError(core.KindTransport,
		fmt.Errorf("%s: %w after %d attempts: %w", name, core.ErrRetriesExhausted, attempts, lastErr))
}
