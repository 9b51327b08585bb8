package dispatcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	configpkg "github.com/aritlhq/gaianet-chat-bot/pkg/config"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// maxErrorBody bounds how much of a failed response is kept for logging.
const maxErrorBody = 4 << 10

// ChatMessage is one message of a chat completion choice.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Choice is one completion alternative.
type Choice struct {
	Message      *ChatMessage `json:"message"`
	FinishReason string       `json:"finish_reason"`
}

// ChatResponse is the subset of an OpenAI-compatible completion the bot reads.
type ChatResponse struct {
	Choices []Choice `json:"choices"`
}

// Content returns the first choice's message content, if there is one.
func (r *ChatResponse) Content() (string, bool) {
	if r == nil || len(r.Choices) == 0 || r.Choices[0].Message == nil {
		return "", false
	}
	return r.Choices[0].Message.Content, true
}

// StatusError reports a non-2xx response from the endpoint.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if msg := errorMessage(e.Body); msg != "" {
		return fmt.Sprintf("HTTP %d: %s", e.StatusCode, msg)
	}
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

// errorMessage pulls a readable message out of an error body. OpenAI-style
// bodies carry it under "error" (string or {"message": ...}).
func errorMessage(body string) string {
	body = strings.TrimSpace(body)
	if body == "" {
		return ""
	}
	var payload struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal([]byte(body), &payload); err == nil && len(payload.Error) > 0 {
		var s string
		if json.Unmarshal(payload.Error, &s) == nil && s != "" {
			return s
		}
		var obj struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(payload.Error, &obj) == nil && obj.Message != "" {
			return obj.Message
		}
	}
	if len(body) > 200 {
		body = body[:200] + "..."
	}
	return body
}

// chatRequest is the POST body. Model is only sent when configured.
type chatRequest struct {
	Model    string                                   `json:"model,omitempty"`
	Messages []openai.ChatCompletionMessageParamUnion `json:"messages"`
}

func (r chatRequest) MarshalJSON() ([]byte, error) {
	type alias chatRequest
	return json.Marshal(alias(r))
}

func newChatRequest(cfg configpkg.Config, prompt string) chatRequest {
	return chatRequest{
		Model: cfg.Model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(cfg.SystemPrompt),
			openai.UserMessage(prompt),
		},
	}
}

// newOpenAIClient builds a client whose requests all pass through mw.
// SDK-level retries are disabled; mw owns the retry policy.
func newOpenAIClient(cfg configpkg.Config, mw option.Middleware, extra []option.RequestOption) openai.Client {
	opts := []option.RequestOption{
		option.WithBaseURL(cfg.BaseURL),
		option.WithAPIKey(cfg.APIKey),
		option.WithHeader("Accept", "application/json"),
		option.WithMaxRetries(0),
		option.WithMiddleware(mw),
	}
	opts = append(opts, extra...)
	return openai.NewClient(opts...)
}

// statusError drains resp into a *StatusError.
func statusError(resp *http.Response) *StatusError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	_ = resp.Body.Close()
	return &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
}

// complete performs one POST, retries included, and decodes the reply. A body
// that is valid JSON but not a completion object decodes to an empty response.
func (d *Dispatcher) complete(ctx context.Context, prompt string) (*ChatResponse, error) {
	var raw []byte
	if err := d.client.Post(ctx, "chat/completions", newChatRequest(d.cfg, prompt), &raw); err != nil {
		return nil, err
	}
	if !json.Valid(raw) {
		return nil, errors.New("decode response: invalid JSON")
	}

	var resp ChatResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		d.debugf("response has unexpected shape: %v", err)
		return &ChatResponse{}, nil
	}
	return &resp, nil
}
