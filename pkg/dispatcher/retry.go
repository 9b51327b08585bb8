package dispatcher

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	httpretry "github.com/appleboy/go-httpretry"
	loggerpkg "github.com/aritlhq/gaianet-chat-bot/pkg/logger"
	"github.com/openai/openai-go/option"
)

// Headers openai-go fills from OPENAI_ORG_ID and OPENAI_PROJECT_ID. They mean
// nothing to a GaiaNet node and are stripped.
var ambientHeaders = []string{"OpenAI-Organization", "OpenAI-Project"}

// retryableResponse is the httpretry checker: timeouts and 404, 502 or 504.
func retryableResponse(err error, resp *http.Response) bool {
	if err != nil {
		return Retryable(err)
	}
	if resp == nil {
		return false
	}
	return Retryable(&StatusError{StatusCode: resp.StatusCode})
}

// retryOptions maps the config onto httpretry. Jitter and Retry-After are off
// so the delays are exactly base * 2^attempt.
func (d *Dispatcher) retryOptions(transport http.RoundTripper) []httpretry.Option {
	return []httpretry.Option{
		httpretry.WithHTTPClient(&http.Client{Transport: transport}),
		httpretry.WithMaxRetries(d.cfg.MaxAttempts - 1),
		httpretry.WithInitialRetryDelay(d.cfg.BaseBackoff),
		httpretry.WithRetryDelayMultiple(2),
		httpretry.WithMaxRetryDelay(Backoff(d.cfg.BaseBackoff, d.cfg.MaxAttempts-1)),
		httpretry.WithJitter(false),
		httpretry.WithRespectRetryAfter(false),
		httpretry.WithPerAttemptTimeout(d.cfg.RequestTimeout),
		httpretry.WithRetryableChecker(retryableResponse),
		httpretry.WithOnRetry(func(info httpretry.RetryInfo) {
			reason := fmt.Sprintf("HTTP %d", info.StatusCode)
			if info.Err != nil {
				reason = info.Err.Error()
			}
			loggerpkg.Warn(d.logger, fmt.Sprintf("Request failed. Retrying in %s...", info.Delay), map[string]any{
				"error": reason,
			})
		}),
	}
}

// deliver is the openai-go middleware that sends every request to endpoint
// exactly as configured, retrying through httpretry. Non-2xx responses that
// survive the retry policy come back as *StatusError.
func (d *Dispatcher) deliver(endpoint *url.URL) option.Middleware {
	return func(req *http.Request, next option.MiddlewareNext) (*http.Response, error) {
		u := *endpoint
		req.URL = &u
		req.Host = u.Host
		for _, h := range ambientHeaders {
			req.Header.Del(h)
		}

		var payload []byte
		if req.Body != nil {
			var err error
			payload, err = io.ReadAll(req.Body)
			_ = req.Body.Close()
			if err != nil {
				return nil, fmt.Errorf("read request body: %w", err)
			}
		}
		req.Body = http.NoBody

		// httpretry clones the request per attempt but shares the body, so
		// every attempt gets a fresh reader.
		transport := httpretry.RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
			d.attempts++
			loggerpkg.Infof(d.logger, "Sending request (attempt %d/%d)...", d.attempts, d.cfg.MaxAttempts)
			r.Body = io.NopCloser(bytes.NewReader(payload))
			r.ContentLength = int64(len(payload))
			r.GetBody = func() (io.ReadCloser, error) {
				return io.NopCloser(bytes.NewReader(payload)), nil
			}
			return next(r)
		})

		client, err := httpretry.NewClient(d.retryOptions(transport)...)
		if err != nil {
			return nil, err
		}

		resp, err := client.DoWithContext(req.Context(), req)
		var exhausted *httpretry.RetryError
		if errors.As(err, &exhausted) && resp != nil {
			exhausted.LastErr = statusError(resp)
			return nil, exhausted
		}
		if err != nil {
			return nil, err
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, statusError(resp)
		}
		return resp, nil
	}
}
