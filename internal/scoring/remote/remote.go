// Package remote implements the scoring.Scorer backed by a hosted chat
// completion API, adapted from the teacher's pkg/provider/llm/openai
// provider: the same functional-options construction and oai.Client usage,
// narrowed to the single system+user-prompt round trip the Scoring Engine
// needs.
package remote

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/shared"

	"github.com/clipforge/engine/internal/scoring"
)

// Scorer implements scoring.Scorer against a hosted chat completion model.
type Scorer struct {
	client oai.Client
	model  string
}

type config struct {
	baseURL      string
	organization string
	timeout      time.Duration
}

// Option is a functional option for New.
type Option func(*config)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) Option {
	return func(c *config) { c.baseURL = url }
}

// WithOrganization sets the organization ID on all requests.
func WithOrganization(org string) Option {
	return func(c *config) { c.organization = org }
}

// WithTimeout sets a per-request HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *config) { c.timeout = d }
}

// New constructs a remote Scorer. apiKey corresponds to Config.Credential
// and model to the chat model used for batch scoring requests.
func New(apiKey, model string, opts ...Option) (*Scorer, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("remote: %w", scoring.ErrCredentialMissing)
	}
	if model == "" {
		return nil, fmt.Errorf("remote: model must not be empty")
	}

	cfg := &config{}
	for _, o := range opts {
		o(cfg)
	}

	reqOpts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if cfg.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.baseURL))
	}
	if cfg.organization != "" {
		reqOpts = append(reqOpts, option.WithOrganization(cfg.organization))
	}
	if cfg.timeout > 0 {
		reqOpts = append(reqOpts, option.WithHTTPClient(&http.Client{Timeout: cfg.timeout}))
	}

	return &Scorer{client: oai.NewClient(reqOpts...), model: model}, nil
}

// ScoreBatch implements scoring.Scorer.
func (s *Scorer) ScoreBatch(ctx context.Context, systemPrompt, userPrompt string, temperature float64) (string, error) {
	params := oai.ChatCompletionNewParams{
		Model: shared.ChatModel(s.model),
		Messages: []oai.ChatCompletionMessageParamUnion{
			oai.SystemMessage(systemPrompt),
			oai.UserMessage(userPrompt),
		},
		Temperature: param.NewOpt(temperature),
	}

	resp, err := s.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", translateError(err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("remote: empty choices in response")
	}
	return resp.Choices[0].Message.Content, nil
}

// translateError recognises a 429 response and wraps it as a
// scoring.RateLimitError carrying the server's Retry-After hint, per §4.4's
// documented contract (HTTP 429 with a retry-after header, or an
// SDK-exposed rate-limit attribute).
func translateError(err error) error {
	var apiErr *oai.Error
	if !errors.As(err, &apiErr) {
		return fmt.Errorf("remote: chat completion: %w", err)
	}

	if apiErr.StatusCode != http.StatusTooManyRequests {
		return fmt.Errorf("remote: chat completion: %w", apiErr)
	}

	rle := &scoring.RateLimitError{Err: apiErr}
	if apiErr.Response != nil {
		if d, ok := parseRetryAfter(apiErr.Response.Header.Get("Retry-After")); ok {
			rle.RetryAfter = d
			rle.HasRetryAfter = true
		}
	}
	return rle
}

// parseRetryAfter accepts the delta-seconds form of the Retry-After header
// (the only form hosted chat APIs are documented to send for rate limits).
func parseRetryAfter(v string) (time.Duration, bool) {
	if v == "" {
		return 0, false
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs < 0 {
		return 0, false
	}
	return time.Duration(secs) * time.Second, true
}
