package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net"
	"net/http"
	"time"

	loggerpkg "github.com/aritlhq/gaianet-chat-bot/pkg/logger"
	"github.com/openai/openai-go"
)

// Result is the outcome of one Send. Exactly one of Response and Err is set.
type Result struct {
	Response *ChatResponse
	Err      error
	// Attempts is the number of HTTP requests issued, retries included.
	Attempts int
}

// OK reports whether the send produced a response body.
func (r Result) OK() bool {
	return r.Err == nil && r.Response != nil
}

// Content returns the reply text when the response carries one.
func (r Result) Content() (string, bool) {
	if !r.OK() {
		return "", false
	}
	return r.Response.Content()
}

// maxBackoffShift bounds the exponent so base<<attempt stays a valid shift.
const maxBackoffShift = 62

// Backoff returns base * 2^attempt, saturating at the largest Duration.
func Backoff(base time.Duration, attempt int) time.Duration {
	if base <= 0 {
		return base
	}
	if attempt < 0 {
		attempt = 0
	}
	if attempt > maxBackoffShift {
		attempt = maxBackoffShift
	}
	if base > time.Duration(math.MaxInt64)>>uint(attempt) {
		return time.Duration(math.MaxInt64)
	}
	return base << uint(attempt)
}

// IsTimeout reports whether err came from a request deadline.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// StatusCode extracts the HTTP status behind err, or 0.
func StatusCode(err error) int {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode
	}
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// Retryable reports whether a failed attempt is worth repeating: timeouts and
// 404, 502 or 504 responses.
func Retryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	if IsTimeout(err) {
		return true
	}
	switch StatusCode(err) {
	case http.StatusNotFound, http.StatusBadGateway, http.StatusGatewayTimeout:
		return true
	}
	return false
}

// Send delivers prompt. Transient failures are retried with exponential
// backoff by the client middleware; the outcome is logged and returned inside
// the Result, never as a panic.
func (d *Dispatcher) Send(ctx context.Context, prompt string) Result {
	d.attempts = 0
	resp, err := d.complete(ctx, prompt)
	if err == nil {
		return Result{Response: resp, Attempts: d.attempts}
	}

	if errors.Is(err, context.Canceled) {
		d.debugf("send abandoned: %v", err)
	} else {
		loggerpkg.Error(d.logger, fmt.Sprintf("Error with message %q", prompt), map[string]any{
			"error":    err.Error(),
			"attempts": d.attempts,
		})
	}
	return Result{Err: err, Attempts: d.attempts}
}
