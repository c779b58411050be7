package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"vidpipe/internal/config"
	"vidpipe/internal/services"
)

const (
	defaultBaseURL     = "https://api.openai.com/v1/chat/completions"
	defaultHTTPTimeout = 60 * time.Second
)

// Config captures the runtime settings required to talk to the LLM.
type Config struct {
	APIKey         string
	BaseURL        string
	Model          string
	TimeoutSeconds int
}

// Client wraps an OpenAI-compatible chat completion API.
type Client struct {
	cfg        Config
	httpClient *http.Client
	retry      backoff
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithRetryMaxAttempts sets how many requests a single completion may issue.
func WithRetryMaxAttempts(attempts int) Option {
	return func(c *Client) { c.retry.attempts = attempts }
}

// WithRetryBackoff sets the first retry delay and the ceiling for later ones.
func WithRetryBackoff(first, ceiling time.Duration) Option {
	return func(c *Client) {
		c.retry.first = first
		c.retry.ceiling = ceiling
	}
}

// WithSleeper replaces the timer used between attempts.
func WithSleeper(sleeper func(time.Duration)) Option {
	return func(c *Client) { c.retry.sleep = sleeper }
}

// NewClient constructs an LLM client using the supplied configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.Model = strings.TrimSpace(cfg.Model)
	cfg.BaseURL = strings.TrimSpace(cfg.BaseURL)
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	client := &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
		retry:      defaultBackoff(),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// NewFromConfig builds a client from the [translation] section.
func NewFromConfig(cfg *config.Config, opts ...Option) *Client {
	if cfg == nil {
		return NewClient(Config{}, opts...)
	}
	t := cfg.Translation
	return NewClient(Config{
		APIKey:         t.APIKey,
		BaseURL:        t.BaseURL,
		Model:          t.Model,
		TimeoutSeconds: t.TimeoutSeconds,
	}, append([]Option{WithRetryMaxAttempts(t.RetryAttempts)}, opts...)...)
}

// Configured reports whether credentials are present.
func (c *Client) Configured() bool {
	return c != nil && c.cfg.APIKey != ""
}

// Model returns the configured model name.
func (c *Client) Model() string {
	if c == nil {
		return ""
	}
	return c.cfg.Model
}

// CompleteText issues a plain-text chat completion and returns the trimmed
// content of the first non-empty choice.
func (c *Client) CompleteText(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	req, err := c.newRequest("llm complete", systemPrompt, userPrompt)
	if err != nil {
		return "", err
	}
	return c.complete(ctx, req, "llm complete")
}

// CompleteJSON is CompleteText with the response constrained to a JSON object.
// The raw payload is returned; use DecodeJSON to unmarshal it.
func (c *Client) CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	req, err := c.newRequest("llm complete", systemPrompt, userPrompt)
	if err != nil {
		return "", err
	}
	req.ResponseFormat = map[string]string{"type": "json_object"}
	return c.complete(ctx, req, "llm complete")
}

// HealthCheck issues a fast ping to verify the API key and model are usable.
func (c *Client) HealthCheck(ctx context.Context) error {
	if !c.Configured() {
		return missingKey("llm health")
	}
	content, err := c.CompleteJSON(ctx, "You must respond with JSON only.", `Respond with {"ok":true}`)
	if err != nil {
		return err
	}
	var reply struct {
		OK bool `json:"ok"`
	}
	if err := DecodeJSON(content, &reply); err != nil {
		return fmt.Errorf("llm health: parse payload: %w", err)
	}
	if !reply.OK {
		return errors.New("llm health: unexpected response")
	}
	return nil
}

func (c *Client) newRequest(op, systemPrompt, userPrompt string) (completionRequest, error) {
	systemPrompt = strings.TrimSpace(systemPrompt)
	if systemPrompt == "" {
		return completionRequest{}, fmt.Errorf("%s: system prompt required", op)
	}
	if strings.TrimSpace(userPrompt) == "" {
		return completionRequest{}, fmt.Errorf("%s: user prompt required", op)
	}
	if !c.Configured() {
		return completionRequest{}, missingKey(op)
	}
	return completionRequest{
		Model: c.cfg.Model,
		Messages: []message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
	}, nil
}

// complete sends req until a choice carries content, the error is not
// retryable, or the attempt budget runs out.
func (c *Client) complete(ctx context.Context, req completionRequest, op string) (string, error) {
	limit := c.retry.maxAttempts()
	var err error
	for attempt := 1; ; attempt++ {
		var content string
		content, err = c.attempt(ctx, req, op)
		if err == nil {
			return content, nil
		}
		hint, retry := retryable(ctx, err)
		if !retry || attempt >= limit {
			if attempt > 1 {
				return "", fmt.Errorf("%s: failed after %d attempts: %w", op, attempt, err)
			}
			return "", err
		}
		delay := c.retry.delay(attempt)
		if hint > 0 {
			delay = c.retry.clamp(hint)
		}
		if werr := c.retry.wait(ctx, delay); werr != nil {
			return "", werr
		}
	}
}

func (c *Client) attempt(ctx context.Context, req completionRequest, op string) (string, error) {
	resp, raw, err := c.post(ctx, req)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", &emptyContentError{Op: op, Snippet: snippet(string(raw))}
	}
	content, finish := resp.content()
	if content == "" {
		return "", &emptyContentError{
			Op:           op,
			FinishReason: finish,
			Refusal:      resp.refusal(),
			Snippet:      snippet(string(raw)),
		}
	}
	return content, nil
}

func missingKey(op string) error {
	return services.Wrap(services.ErrUpstreamUnavailable, "translate", op, "api key required", nil)
}
