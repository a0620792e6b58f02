// Package anthropicextractor is the concrete Extractor implementation
// behind the extraction pipeline's external-LLM boundary, calling the
// Anthropic Messages API.
package anthropicextractor

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net"
	"os"
	"sync"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"

	"github.com/cortexmemory/cortex/internal/cortexerr"
	"github.com/cortexmemory/cortex/internal/obs"
)

const (
	defaultModel   = "claude-3-5-haiku-20241022"
	maxRetries     = 3
	initialBackoff = 1 * time.Second
	maxTokens      = 4096
)

// ErrAPIKeyRequired is returned by New when no key is available.
var ErrAPIKeyRequired = errors.New("API key required")

// Client wraps the Anthropic API for memory extraction.
type Client struct {
	client         anthropic.Client
	model          anthropic.Model
	maxRetries     int
	initialBackoff time.Duration
}

// New creates an extraction client. The ANTHROPIC_API_KEY env var takes
// precedence over the explicit apiKey argument.
func New(apiKey, model string) (*Client, error) {
	if envKey := os.Getenv("ANTHROPIC_API_KEY"); envKey != "" {
		apiKey = envKey
	}
	if apiKey == "" {
		return nil, fmt.Errorf("%w: set ANTHROPIC_API_KEY", ErrAPIKeyRequired)
	}
	if model == "" {
		model = defaultModel
	}

	aiMetricsOnce.Do(initAIMetrics)

	return &Client{
		client:         anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:          anthropic.Model(model),
		maxRetries:     maxRetries,
		initialBackoff: initialBackoff,
	}, nil
}

// aiMetrics holds lazily-initialized OTel instruments for Anthropic API calls.
var aiMetrics struct {
	inputTokens  metric.Int64Counter
	outputTokens metric.Int64Counter
	duration     metric.Float64Histogram
}

var aiMetricsOnce sync.Once

func initAIMetrics() {
	m := obs.Meter("github.com/cortexmemory/cortex/ai")
	aiMetrics.inputTokens, _ = m.Int64Counter("cortex.ai.input_tokens",
		metric.WithDescription("Anthropic API input tokens consumed"),
		metric.WithUnit("{token}"),
	)
	aiMetrics.outputTokens, _ = m.Int64Counter("cortex.ai.output_tokens",
		metric.WithDescription("Anthropic API output tokens generated"),
		metric.WithUnit("{token}"),
	)
	aiMetrics.duration, _ = m.Float64Histogram("cortex.ai.request.duration",
		metric.WithDescription("Anthropic API request duration in milliseconds"),
		metric.WithUnit("ms"),
	)
}

// Extract sends prompt and returns the model's text response, retrying
// transient failures with exponential backoff.
func (c *Client) Extract(ctx context.Context, prompt string) (string, error) {
	tracer := obs.Tracer("github.com/cortexmemory/cortex/ai")
	ctx, span := tracer.Start(ctx, "anthropic.messages.new")
	defer span.End()
	span.SetAttributes(
		attribute.String("cortex.ai.model", string(c.model)),
		attribute.String("cortex.ai.operation", "extract"),
	)

	params := anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := c.initialBackoff * time.Duration(math.Pow(2, float64(attempt-1)))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}

		start := time.Now()
		msg, err := c.client.Messages.New(ctx, params)
		if aiMetrics.duration != nil {
			aiMetrics.duration.Record(ctx, float64(time.Since(start).Milliseconds()))
		}

		if err == nil {
			if aiMetrics.inputTokens != nil {
				aiMetrics.inputTokens.Add(ctx, msg.Usage.InputTokens)
				aiMetrics.outputTokens.Add(ctx, msg.Usage.OutputTokens)
			}
			var text string
			for _, block := range msg.Content {
				if block.Type == "text" {
					text += block.Text
				}
			}
			if text == "" {
				return "", fmt.Errorf("anthropicextractor: response has no text content: %w", cortexerr.ErrMalformedResponse)
			}
			span.SetAttributes(attribute.Int("cortex.ai.attempts", attempt+1))
			return text, nil
		}

		lastErr = err
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if !isRetryable(err) {
			break
		}
	}

	span.RecordError(lastErr)
	span.SetStatus(codes.Error, "extraction call failed")
	return "", fmt.Errorf("anthropicextractor: %w: %v", classify(lastErr), lastErr)
}

// isRetryable reports whether err is worth another attempt: rate limits,
// server-side errors, and network timeouts are; auth failures and bad
// requests are not.
func isRetryable(err error) bool {
	var apierr *anthropic.Error
	if errors.As(err, &apierr) {
		return apierr.StatusCode == 429 || apierr.StatusCode >= 500
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	return false
}

// classify maps an Anthropic API error to the engine's error taxonomy.
func classify(err error) error {
	var apierr *anthropic.Error
	if errors.As(err, &apierr) {
		switch {
		case apierr.StatusCode == 401 || apierr.StatusCode == 403:
			return cortexerr.ErrAuthFailed
		case apierr.StatusCode == 429:
			return cortexerr.ErrRateLimited
		}
	}
	return cortexerr.ErrTransport
}
