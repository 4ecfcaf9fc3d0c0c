// Package retry wraps fallible operations in classified exponential
// backoff. Terminal errors are propagated verbatim; only errors the
// classifier accepts are retried.
package retry

import (
	"context"
	"errors"
	"net"
	"syscall"
	"time"

	"github.com/custodia-labs/harvest-cli/internal/logger"
)

// Default policy parameters.
const (
	DefaultMaxAttempts   = 3
	DefaultInitialDelay  = time.Second
	DefaultMaxDelay      = 30 * time.Second
	DefaultBackoffFactor = 2.0
)

// Classifier decides whether an error is worth retrying.
// attempt is the 1-based number of the attempt that just failed.
type Classifier func(err error, attempt int) bool

// Observer is notified before each inter-attempt wait.
// A panicking observer never aborts the retry loop.
type Observer func(err error, attempt int, delay time.Duration)

// Policy configures the retry loop. The zero value is not usable;
// construct with NewPolicy and adjust fields as needed.
type Policy struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int

	// InitialDelay is the wait before the second attempt.
	InitialDelay time.Duration

	// MaxDelay caps the backoff growth.
	MaxDelay time.Duration

	// BackoffFactor multiplies the delay after each failed attempt.
	BackoffFactor float64

	// Classify decides retryability. Defaults to IsRetryable.
	Classify Classifier

	// OnRetry observes each wait, for logging and metrics.
	OnRetry Observer
}

// NewPolicy returns a policy with the default backoff parameters and
// the default transient-error classifier.
func NewPolicy() Policy {
	return Policy{
		MaxAttempts:   DefaultMaxAttempts,
		InitialDelay:  DefaultInitialDelay,
		MaxDelay:      DefaultMaxDelay,
		BackoffFactor: DefaultBackoffFactor,
		Classify:      IsRetryable,
	}
}

// Do runs op up to MaxAttempts times. Between attempts it waits the
// current delay, then multiplies it by BackoffFactor up to MaxDelay.
// When the classifier rejects an error, or attempts are exhausted, the
// most recent error is returned unchanged.
func (p Policy) Do(ctx context.Context, op func(ctx context.Context) error) error {
	maxAttempts := p.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	classify := p.Classify
	if classify == nil {
		classify = IsRetryable
	}
	delay := p.InitialDelay
	if delay <= 0 {
		delay = DefaultInitialDelay
	}
	maxDelay := p.MaxDelay
	if maxDelay <= 0 {
		maxDelay = DefaultMaxDelay
	}
	factor := p.BackoffFactor
	if factor <= 1 {
		factor = DefaultBackoffFactor
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}

		if attempt == maxAttempts || !classify(lastErr, attempt) {
			return lastErr
		}

		logger.Warn("retrying after attempt %d/%d in %s: %v", attempt, maxAttempts, delay, lastErr)
		p.notify(lastErr, attempt, delay)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}

		delay = time.Duration(float64(delay) * factor)
		if delay > maxDelay {
			delay = maxDelay
		}
	}
	return lastErr
}

// notify invokes the observer, swallowing panics so an observability
// hook can never abort the retry loop.
func (p Policy) notify(err error, attempt int, delay time.Duration) {
	if p.OnRetry == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			logger.Warn("retry observer panicked: %v", r)
		}
	}()
	p.OnRetry(err, attempt, delay)
}

// StatusCoder is implemented by errors carrying an HTTP status code.
type StatusCoder interface {
	StatusCode() int
}

// StatusError is a minimal StatusCoder for upstream HTTP failures.
type StatusError struct {
	Code    int
	Message string
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return e.Message
}

// StatusCode returns the HTTP status code.
func (e *StatusError) StatusCode() int {
	return e.Code
}

// retryableStatusCodes are upstream responses worth retrying:
// request timeout, rate limiting, and transient server failures.
var retryableStatusCodes = map[int]bool{
	408: true,
	429: true,
	500: true,
	502: true,
	503: true,
	504: true,
}

// IsRetryable is the default classifier. Network-transient conditions
// (timeouts, DNS failures, connection reset/refused, unreachable network)
// and retryable HTTP status codes are transient; everything else is
// terminal on first failure.
func IsRetryable(err error, _ int) bool {
	if err == nil {
		return false
	}

	var sc StatusCoder
	if errors.As(err, &sc) {
		return retryableStatusCodes[sc.StatusCode()]
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}

	return errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ETIMEDOUT) ||
		errors.Is(err, syscall.ENETUNREACH) ||
		errors.Is(err, syscall.EHOSTUNREACH)
}
