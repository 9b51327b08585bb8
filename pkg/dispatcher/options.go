package dispatcher

import (
	"context"
	"time"

	loggerpkg "github.com/aritlhq/gaianet-chat-bot/pkg/logger"
	"github.com/openai/openai-go/option"
)

// Sleeper pauses for d or until ctx is done, whichever comes first.
type Sleeper func(ctx context.Context, d time.Duration) error

// Option configures optional runtime dependencies for Dispatcher.
type Option func(*dispatcherDeps)

type dispatcherDeps struct {
	logger         loggerpkg.Logger
	sleep          Sleeper
	requestOptions []option.RequestOption
}

// WithLogger injects a logger dependency.
func WithLogger(l loggerpkg.Logger) Option {
	return func(d *dispatcherDeps) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithSleeper replaces the clock used for the request and cycle delays.
func WithSleeper(s Sleeper) Option {
	return func(d *dispatcherDeps) {
		if s != nil {
			d.sleep = s
		}
	}
}

// WithRequestOptions appends extra openai-go request options, e.g. a custom
// HTTP client.
func WithRequestOptions(opts ...option.RequestOption) Option {
	return func(d *dispatcherDeps) {
		d.requestOptions = append(d.requestOptions, opts...)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
