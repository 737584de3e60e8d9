package openai

import (
	"context"
	"errors"
	"io"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/campusqa/askd/internal/domain"
	"github.com/campusqa/askd/internal/metrics"
)

// Completer is a chat completion provider using the OpenAI-compatible API.
type Completer struct {
	client  *openai.Client
	model   string
	timeout time.Duration
	logger  *zap.Logger
}

// CompleterConfig holds the completion provider settings.
type CompleterConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration // per-request deadline, covers a whole stream; 0 disables
	Logger  *zap.Logger
}

// NewCompleter creates an OpenAI-compatible chat completion provider.
func NewCompleter(cfg *CompleterConfig) *Completer {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &Completer{
		client:  openai.NewClientWithConfig(clientCfg),
		model:   cfg.Model,
		timeout: cfg.Timeout,
		logger:  cfg.Logger,
	}
}

// withTimeout bounds provider calls with the configured deadline.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d)
}

var _ domain.Completer = (*Completer)(nil)

// Complete implements domain.Completer. Returns the full answer text.
// An empty choice list yields an empty string with no error; the caller
// decides the fallback wording.
func (c *Completer) Complete(
	ctx context.Context, messages []domain.Message, maxTokens int, temperature float32,
) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    toChatMessages(messages),
		MaxTokens:   maxTokens,
		Temperature: temperature,
	}

	ctx, cancel := withTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()

	resp, err := c.client.CreateChatCompletion(ctx, req)

	duration := time.Since(start)

	if err != nil {
		metrics.CompletionRequestsTotal.WithLabelValues(c.model, "buffered", "error").Inc()
		return "", parseAPIError("completion", err, domain.ErrCompletionProvider)
	}

	metrics.CompletionRequestsTotal.WithLabelValues(c.model, "buffered", "success").Inc()
	metrics.CompletionRequestDuration.WithLabelValues(c.model, "buffered").Observe(duration.Seconds())

	if resp.Usage.TotalTokens > 0 {
		metrics.CompletionTokensTotal.WithLabelValues(c.model, "prompt").Add(float64(resp.Usage.PromptTokens))
		metrics.CompletionTokensTotal.WithLabelValues(c.model, "completion").Add(float64(resp.Usage.CompletionTokens))
	}

	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}

// CompleteStream implements domain.Completer. The returned stream yields
// text increments in provider order and reports io.EOF at end-of-stream.
func (c *Completer) CompleteStream(
	ctx context.Context, messages []domain.Message, maxTokens int, temperature float32,
) (domain.CompletionStream, error) {
	req := openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    toChatMessages(messages),
		MaxTokens:   maxTokens,
		Temperature: temperature,
		Stream:      true,
	}

	// The deadline spans the whole stream; cancel is released in Close.
	ctx, cancel := withTimeout(ctx, c.timeout)

	stream, err := c.client.CreateChatCompletionStream(ctx, req)
	if err != nil {
		cancel()
		metrics.CompletionRequestsTotal.WithLabelValues(c.model, "streaming", "error").Inc()
		return nil, parseAPIError("completion", err, domain.ErrCompletionProvider)
	}

	metrics.CompletionRequestsTotal.WithLabelValues(c.model, "streaming", "success").Inc()

	return &chatStream{inner: stream, cancel: cancel, start: time.Now(), model: c.model}, nil
}

// chatStream adapts the go-openai stream to domain.CompletionStream.
type chatStream struct {
	inner  *openai.ChatCompletionStream
	cancel context.CancelFunc
	start  time.Time
	model  string
	done   bool
}

// Recv returns the next text increment. Empty deltas (role-only chunks)
// are returned as empty strings; the caller skips them.
func (s *chatStream) Recv() (string, error) {
	resp, err := s.inner.Recv()
	if err != nil {
		if errors.Is(err, io.EOF) {
			if !s.done {
				s.done = true
				metrics.CompletionRequestDuration.
					WithLabelValues(s.model, "streaming").
					Observe(time.Since(s.start).Seconds())
			}
			return "", io.EOF
		}
		return "", parseAPIError("completion stream", err, domain.ErrCompletionProvider)
	}

	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Delta.Content, nil
}

// Close releases the underlying HTTP stream and its deadline.
func (s *chatStream) Close() error {
	s.inner.Close()
	s.cancel()
	return nil
}

func toChatMessages(messages []domain.Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, len(messages))
	for i, m := range messages {
		out[i] = openai.ChatCompletionMessage{
			Role:    string(m.Role),
			Content: m.Content,
		}
	}
	return out
}
