// Package dispatcher sends a fixed list of prompts to a chat-completion
// endpoint, one at a time, forever.
package dispatcher

import (
	"context"
	"fmt"
	"net/url"

	configpkg "github.com/aritlhq/gaianet-chat-bot/pkg/config"
	loggerpkg "github.com/aritlhq/gaianet-chat-bot/pkg/logger"
	"github.com/aritlhq/gaianet-chat-bot/pkg/prompts"
	"github.com/openai/openai-go"
)

// Dispatcher holds the prompt list, the cursor into it and the client used to
// deliver prompts. It is not safe for concurrent use.
type Dispatcher struct {
	cfg     configpkg.Config
	client  openai.Client
	prompts []string
	cursor  int

	// attempts counts HTTP requests issued by the current Send.
	attempts int

	logger  loggerpkg.Logger
	sleep   Sleeper
	verbose bool
}

// New validates cfg, loads the prompt file and returns a ready Dispatcher.
func New(cfg configpkg.Config, opts ...Option) (*Dispatcher, error) {
	cfg = configpkg.Normalize(cfg)
	deps := dispatcherDeps{logger: loggerpkg.NopLogger{}, sleep: sleepContext}
	for _, opt := range opts {
		if opt != nil {
			opt(&deps)
		}
	}

	loggerpkg.Debug(cfg.Verbose, deps.logger, "dispatcher init", map[string]any{
		"messages_file":   cfg.MessagesFile,
		"base_url":        cfg.BaseURL,
		"model":           cfg.Model,
		"max_attempts":    cfg.MaxAttempts,
		"request_timeout": cfg.RequestTimeout.String(),
	})
	if err := configpkg.Validate(cfg); err != nil {
		return nil, err
	}
	endpoint, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", configpkg.EnvBaseURL, err)
	}

	list, err := prompts.LoadFile(cfg.MessagesFile)
	if err != nil {
		return nil, fmt.Errorf("load messages: %w", err)
	}
	loggerpkg.Infof(deps.logger, "Loaded %d messages successfully.", len(list))

	d := &Dispatcher{
		cfg:     cfg,
		prompts: list,

		logger:  deps.logger,
		sleep:   deps.sleep,
		verbose: cfg.Verbose,
	}
	d.client = newOpenAIClient(cfg, d.deliver(endpoint), deps.requestOptions)
	return d, nil
}

// Prompts returns a copy of the loaded prompt list.
func (d *Dispatcher) Prompts() []string {
	out := make([]string, len(d.prompts))
	copy(out, d.prompts)
	return out
}

// Cursor returns the index of the next prompt to send.
func (d *Dispatcher) Cursor() int {
	return d.cursor
}

// ProcessNext sends the prompt under the cursor, logs the reply, advances the
// cursor and waits the request delay. After the last prompt it wraps to the
// first one, pausing for the cycle delay. The only error it returns is the
// context's.
func (d *Dispatcher) ProcessNext(ctx context.Context) error {
	if d.cursor >= len(d.prompts) {
		loggerpkg.Info(d.logger, "All messages processed. Starting over...", nil)
		d.cursor = 0
		if err := d.sleep(ctx, d.cfg.CycleDelay); err != nil {
			return err
		}
	}

	prompt := d.prompts[d.cursor]
	loggerpkg.Infof(d.logger, "[%d/%d] Processing: %s", d.cursor+1, len(d.prompts), prompt)

	result := d.Send(ctx, prompt)
	if content, ok := result.Content(); ok {
		loggerpkg.Info(d.logger, "Response: "+content, nil)
	} else if result.OK() {
		d.debugf("response carried no message content")
	}

	d.cursor++

	loggerpkg.Infof(d.logger, "Waiting %s before next request...", d.cfg.RequestDelay)
	return d.sleep(ctx, d.cfg.RequestDelay)
}

// Run processes prompts until ctx is cancelled and then returns ctx.Err().
func (d *Dispatcher) Run(ctx context.Context) error {
	loggerpkg.Info(d.logger, "Starting AI interaction...", nil)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := d.ProcessNext(ctx); err != nil {
			return err
		}
	}
}

func (d *Dispatcher) debugf(format string, args ...any) {
	loggerpkg.Debugf(d.verbose, d.logger, format, args...)
}
