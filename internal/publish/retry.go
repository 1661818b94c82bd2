package publish

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// retryPolicy controls retryWithBackoff: attempts in total, first delay doubling after each failure
type retryPolicy struct {
	attempts int
	backoff  time.Duration
}

var defaultRetryPolicy = retryPolicy{attempts: 3, backoff: 1 * time.Second}

func (p retryPolicy) newBackOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.backoff
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0

	retries := uint64(0)
	if p.attempts > 1 {
		retries = uint64(p.attempts - 1)
	}
	return backoff.WithContext(backoff.WithMaxRetries(b, retries), ctx)
}

// retryWithBackoff runs fn until it succeeds, fails with a permanent error,
// runs out of attempts, or ctx ends while waiting.
func retryWithBackoff(ctx context.Context, policy retryPolicy, fn func() error) error {
	err := backoff.Retry(func() error {
		err := fn()
		if err != nil && !isRetryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}, policy.newBackOff(ctx))

	switch {
	case err == nil:
		return nil
	case ctx.Err() != nil && errors.Is(err, ctx.Err()):
		return err
	case !isRetryable(err):
		return err
	}
	return fmt.Errorf("max retries (%d) exceeded, last error: %w", policy.attempts, err)
}

// isRetryable reports whether a publish error is transient.
//
// Retryable: gRPC UNAVAILABLE, RESOURCE_EXHAUSTED, DEADLINE_EXCEEDED, HTTP 429/502/503/504,
// and messages mentioning timeouts or dropped connections.
// Not retryable: context cancellation, permission/auth/not-found/invalid-argument errors,
// and anything unrecognised.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	if st, ok := status.FromError(err); ok {
		switch st.Code() {
		case codes.Unavailable, codes.ResourceExhausted, codes.DeadlineExceeded:
			return true
		case codes.PermissionDenied, codes.Unauthenticated, codes.NotFound, codes.InvalidArgument:
			return false
		}
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case 429, 502, 503, 504:
			return true
		case 400, 401, 403, 404:
			return false
		}
	}

	errMsg := strings.ToLower(err.Error())
	transientIndicators := []string{
		"timeout",
		"timed out",
		"deadline",
		"temporary",
		"connection reset",
		"connection refused",
		"broken pipe",
	}
	for _, indicator := range transientIndicators {
		if strings.Contains(errMsg, indicator) {
			return true
		}
	}

	return false
}
