// Package vision asks a multimodal language model to read chess boards from
// screenshots and to explain moves in a sentence or two.
package vision

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.uber.org/zap"
)

const (
	// DefaultBoardModel reads boards from images.
	DefaultBoardModel = "claude-opus-4-20250514"

	// DefaultExplainModel writes move explanations.
	DefaultExplainModel = "claude-sonnet-4-20250514"

	// DefaultTimeout bounds a single API call.
	DefaultTimeout = 90 * time.Second

	// DefaultMaxRetries is how often a failed call is retried.
	DefaultMaxRetries = 2
)

// ErrNoAPIKey is returned when the client was built without a key.
var ErrNoAPIKey = errors.New("vision: missing API key")

// APIError is a non-2xx response from the API.
type APIError struct {
	StatusCode int
	Type       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Type == "" {
		return fmt.Sprintf("vision: API returned status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("vision: API returned status %d (%s): %s", e.StatusCode, e.Type, e.Message)
}

// Client calls the Messages API.
type Client struct {
	apiKey       string
	baseURL      string
	boardModel   string
	explainModel string
	httpClient   *http.Client
	timeout      time.Duration
	maxRetries   int
	logger       *zap.Logger

	api anthropic.Client
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API endpoint.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(u, "/") + "/"
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the timeout for each API call.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithMaxRetries sets how often a failed call is retried. Zero disables
// retries.
func WithMaxRetries(n int) Option {
	return func(c *Client) {
		c.maxRetries = max(n, 0)
	}
}

// WithBoardModel sets the model used by ReadBoard.
func WithBoardModel(model string) Option {
	return func(c *Client) {
		c.boardModel = model
	}
}

// WithExplainModel sets the model used by Explain.
func WithExplainModel(model string) Option {
	return func(c *Client) {
		c.explainModel = model
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l.Named("vision")
		}
	}
}

// New creates a Client authenticating with apiKey.
func New(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:       apiKey,
		boardModel:   DefaultBoardModel,
		explainModel: DefaultExplainModel,
		timeout:      DefaultTimeout,
		maxRetries:   DefaultMaxRetries,
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(c.maxRetries),
		option.WithRequestTimeout(c.timeout),
	}
	if c.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(c.baseURL))
	}
	if c.httpClient != nil {
		reqOpts = append(reqOpts, option.WithHTTPClient(c.httpClient))
	}
	c.api = anthropic.NewClient(reqOpts...)
	return c
}

type errorResponse struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// complete sends one user turn and returns the concatenated text reply.
func (c *Client) complete(ctx context.Context, model string, maxTokens int64, content ...anthropic.ContentBlockParamUnion) (string, error) {
	if c.apiKey == "" {
		return "", ErrNoAPIKey
	}

	start := time.Now()
	msg, err := c.api.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: maxTokens,
		Messages:  []anthropic.MessageParam{anthropic.NewUserMessage(content...)},
	})
	if err != nil {
		var sdkErr *anthropic.Error
		if errors.As(err, &sdkErr) {
			return "", apiError(sdkErr)
		}
		return "", fmt.Errorf("vision: calling API: %w", err)
	}
	c.logger.Debug("api call",
		zap.String("model", model),
		zap.Int64("input_tokens", msg.Usage.InputTokens),
		zap.Int64("output_tokens", msg.Usage.OutputTokens),
		zap.Duration("elapsed", time.Since(start)),
	)

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return strings.TrimSpace(sb.String()), nil
}

func apiError(err *anthropic.Error) *APIError {
	raw := err.RawJSON()
	out := &APIError{StatusCode: err.StatusCode, Message: strings.TrimSpace(raw)}
	var er errorResponse
	if json.Unmarshal([]byte(raw), &er) == nil && er.Error.Message != "" {
		out.Type = er.Error.Type
		out.Message = er.Error.Message
	}
	return out
}
