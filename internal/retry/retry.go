// Package retry applies the upstream retry policy: one retry after a short
// constant delay, only for transient failures.
package retry

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/mattn/go-sqlite3"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"urbanlex/internal/contextutil"
)

// ErrUpstreamUnavailable wraps a transient failure that survived the retry.
var ErrUpstreamUnavailable = errors.New("upstream unavailable")

// StatusError is a non-2xx response from an HTTP upstream.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("upstream returned status %d", e.Code)
	}
	return fmt.Sprintf("upstream returned status %d: %s", e.Code, e.Body)
}

// Policy configures the delay before the single retry.
type Policy struct {
	Delay time.Duration
}

// Default is the policy used by Once.
var Default = Policy{Delay: 250 * time.Millisecond}

// Once runs op under the Default policy.
func Once(ctx context.Context, op func(ctx context.Context) error) error {
	return Default.Do(ctx, op)
}

// Permanent marks err as not retryable.
func Permanent(err error) error {
	return backoff.Permanent(err)
}

// Do runs op, retrying it once if it fails transiently. A transient failure on
// the retry is wrapped with ErrUpstreamUnavailable.
func (p Policy) Do(ctx context.Context, op func(ctx context.Context) error) error {
	logger := contextutil.LoggerFromContext(ctx)

	b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewConstantBackOff(p.Delay), 1), ctx)
	retryable := false
	err := backoff.RetryNotify(func() error {
		err := op(ctx)
		retryable = false
		if err == nil {
			return nil
		}
		if ctx.Err() != nil || !Transient(err) {
			var perm *backoff.PermanentError
			if errors.As(err, &perm) {
				return err
			}
			return backoff.Permanent(err)
		}
		retryable = true
		return err
	}, b, func(err error, d time.Duration) {
		logger.Warn("retrying upstream call", "error", err, "delay", d)
	})
	if err != nil && retryable && Transient(err) {
		return fmt.Errorf("%w: %w", ErrUpstreamUnavailable, err)
	}
	return err
}

// Transient reports whether err is worth retrying: network errors, HTTP 5xx
// and 429, SQLite busy/locked, and gRPC Unavailable/DeadlineExceeded/ResourceExhausted.
// Context cancellation is never transient.
func Transient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var perm *backoff.PermanentError
	if errors.As(err, &perm) {
		return false
	}

	var se *StatusError
	if errors.As(err, &se) {
		return se.Code >= 500 || se.Code == 429
	}

	var sqlErr sqlite3.Error
	if errors.As(err, &sqlErr) {
		return sqlErr.Code == sqlite3.ErrBusy || sqlErr.Code == sqlite3.ErrLocked
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	if s, ok := status.FromError(err); ok {
		switch s.Code() {
		case codes.Unavailable, codes.DeadlineExceeded, codes.ResourceExhausted:
			return true
		}
	}
	return false
}
