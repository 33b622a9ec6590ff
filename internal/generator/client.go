// Package generator calls an OpenAI-compatible chat-completions endpoint to
// produce the three summary tiers for a catalog item.
//
// Each Generate call issues exactly one HTTP request under an explicit
// timeout. Retrying is the caller's concern; this package only classifies
// failures so the caller can decide.
package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/daily-tiers/internal/config"
	"github.com/tbourn/daily-tiers/internal/domain"
	"github.com/tbourn/daily-tiers/internal/observability"
	"github.com/tbourn/daily-tiers/internal/utils"
)

var (
	// ErrExternalService indicates a transport failure or non-2xx answer.
	ErrExternalService = errors.New("generation service error")

	// ErrGenerationTimeout indicates the per-call timeout expired.
	ErrGenerationTimeout = errors.New("generation timed out")

	// ErrParse indicates the model output is not an object with three tiers.
	ErrParse = errors.New("unparseable generation response")

	// ErrIncomplete indicates the model collapsed two tiers into one text.
	ErrIncomplete = errors.New("generation returned identical tiers")

	// ErrMissingAPIKey is returned before any request when no key is set.
	ErrMissingAPIKey = errors.New("generation API key is not configured")
)

const maxResponseBytes = 4 << 20

// Client generates tiered content over HTTP.
type Client struct {
	apiKey      string
	model       string
	endpoint    string
	language    string
	temperature float64
	maxTokens   int
	timeout     time.Duration
	client      *http.Client
	now         func() time.Time
}

// New creates a Client from configuration.
func New(cfg config.GenerationConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 180 * time.Second
	}
	return &Client{
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		endpoint:    cfg.BaseURL + "/v1/chat/completions",
		language:    cfg.Language,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		timeout:     timeout,
		// per-call deadline comes from the context
		client: &http.Client{},
		now:    time.Now,
	}
}

// Available reports whether an API key is configured.
func (c *Client) Available() bool { return c.apiKey != "" }

// Name returns the source tag recorded with generated content.
func (c *Client) Name() string { return c.model }

// Generate produces one candidate triple for item.
func (c *Client) Generate(ctx context.Context, item domain.Item) (domain.Content, error) {
	tr := observability.Tracer("generator/Client")
	ctx, span := tr.Start(ctx, "Generate", trace.WithAttributes(
		attribute.Int("item.id", item.ID),
		attribute.String("gen.model", c.model),
	))
	defer span.End()

	out, err := c.generate(ctx, item)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return out, err
}

func (c *Client) generate(ctx context.Context, item domain.Item) (domain.Content, error) {
	if !c.Available() {
		return domain.Content{}, ErrMissingAPIKey
	}

	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemInstruction},
			{Role: "user", Content: BuildPrompt(item, c.language)},
		},
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	})
	if err != nil {
		return domain.Content{}, fmt.Errorf("marshal request: %w", err)
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(callCtx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return domain.Content{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	start := c.now()
	resp, err := c.client.Do(req)
	if err != nil {
		return domain.Content{}, classify(ctx, callCtx, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return domain.Content{}, classify(ctx, callCtx, err)
	}

	log.Debug().
		Int("item_id", item.ID).
		Int("status", resp.StatusCode).
		Dur("latency", c.now().Sub(start)).
		Msg("generation response")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return domain.Content{}, fmt.Errorf("%w: status %s: %s", ErrExternalService, strconv.Itoa(resp.StatusCode), utils.TruncateRunes(string(raw), 200, "…"))
	}

	var cr chatResponse
	if err := json.Unmarshal(raw, &cr); err != nil {
		return domain.Content{}, fmt.Errorf("%w: decode envelope: %v", ErrParse, err)
	}
	if len(cr.Choices) == 0 || cr.Choices[0].Message.Content == "" {
		return domain.Content{}, fmt.Errorf("%w: empty completion", ErrParse)
	}

	tiers, err := ParseTiers(cr.Choices[0].Message.Content)
	if err != nil {
		return domain.Content{}, err
	}
	return domain.Content{
		TierShort:  tiers.Short,
		TierMedium: tiers.Medium,
		TierLong:   tiers.Long,
		CreatedAt:  c.now().UTC(),
		SourceTag:  c.model,
	}, nil
}

// classify maps a transport error to a timeout or an external-service error.
// A cancelled parent context is reported as-is.
func classify(parent, call context.Context, err error) error {
	if parent.Err() != nil {
		return fmt.Errorf("generation cancelled: %w", parent.Err())
	}
	if errors.Is(call.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrGenerationTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrExternalService, err)
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
}
