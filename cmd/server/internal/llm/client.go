// Package llm is the text generation capability: an OpenAI-compatible chat
// completions client used for language detection and enrichment.
package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/sync/semaphore"

	"github.com/houzhh15/audioscribe/pkg/metrics"
	"github.com/houzhh15/audioscribe/pkg/retry"
)

const capabilityName = "llm"

// ErrEmptyCompletion is returned when the model answers with no choices.
var ErrEmptyCompletion = errors.New("completion contained no choices")

// Generator produces text for a prompt under a system instruction.
type Generator interface {
	Generate(ctx context.Context, prompt, systemInstruction string) (string, error)
}

// Config contains chat client configuration.
type Config struct {
	BaseURL       string
	APIKey        string
	Model         string
	Timeout       time.Duration
	MaxRetries    int
	RetryDelay    time.Duration
	MaxConcurrent int
	Logger        *slog.Logger
}

// Client calls {BaseURL}/chat/completions at temperature 0. In-flight calls
// are bounded by MaxConcurrent across all runs sharing the client.
type Client struct {
	config Config
	api    *openai.Client
	sem    *semaphore.Weighted
	policy retry.Policy
	logger *slog.Logger
}

// zeroTemperature 是 go-openai 中可发送的最小温度；字段带 omitempty，0 会被省略，
// 服务端随即按默认温度 1 采样
const zeroTemperature = math.SmallestNonzeroFloat32

// NewClient validates config and creates a client.
func NewClient(config Config) (*Client, error) {
	if strings.TrimSpace(config.BaseURL) == "" {
		return nil, errors.New("llm base URL is required")
	}
	if strings.TrimSpace(config.Model) == "" {
		return nil, errors.New("llm model is required")
	}
	if config.Timeout <= 0 {
		config.Timeout = 60 * time.Second
	}
	if config.MaxConcurrent <= 0 {
		config.MaxConcurrent = 4
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	apiConfig := openai.DefaultConfig(config.APIKey)
	apiConfig.BaseURL = config.BaseURL
	apiConfig.HTTPClient = &http.Client{
		Timeout: config.Timeout,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}

	c := &Client{
		config: config,
		api:    openai.NewClientWithConfig(apiConfig),
		sem:    semaphore.NewWeighted(int64(config.MaxConcurrent)),
		logger: logger,
	}
	c.policy = retry.Policy{
		MaxRetries: config.MaxRetries,
		BaseDelay:  config.RetryDelay,
		OnRetry: func(attempt int, err error) {
			metrics.RecordCapabilityRetry(capabilityName)
			c.logger.Warn("retrying llm request", "attempt", attempt, "error", err)
		},
	}
	return c, nil
}

// Generate implements Generator.
func (c *Client) Generate(ctx context.Context, prompt, systemInstruction string) (string, error) {
	if err := c.sem.Acquire(ctx, 1); err != nil {
		return "", fmt.Errorf("failed to acquire llm slot: %w", err)
	}
	defer c.sem.Release(1)

	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if systemInstruction != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: systemInstruction})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: prompt})

	req := openai.ChatCompletionRequest{
		Model:       c.config.Model,
		Messages:    messages,
		Temperature: zeroTemperature,
	}

	start := time.Now()
	var out string
	err := retry.Do(ctx, c.policy, func(ctx context.Context) error {
		resp, err := c.api.CreateChatCompletion(ctx, req)
		if err != nil {
			return statusError(err)
		}
		if len(resp.Choices) == 0 {
			return ErrEmptyCompletion
		}
		out = resp.Choices[0].Message.Content
		return nil
	})
	metrics.RecordCapabilityDuration(capabilityName, time.Since(start).Seconds())
	metrics.RecordCapabilityCall(capabilityName, metrics.CallStatus(err, errors.Is(err, context.DeadlineExceeded)))
	if err != nil {
		return "", fmt.Errorf("llm generation failed: %w", err)
	}
	return out, nil
}

// statusError maps go-openai HTTP failures onto retry.StatusError so the
// retry policy can classify them; transport errors pass through unchanged.
func statusError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &retry.StatusError{StatusCode: apiErr.HTTPStatusCode, Body: truncate(apiErr.Message, 512)}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &retry.StatusError{StatusCode: reqErr.HTTPStatusCode, Body: truncate(reqErr.Error(), 512)}
	}
	return err
}

// HealthCheck lists models; any successful answer counts as healthy.
func (c *Client) HealthCheck(ctx context.Context) (bool, error) {
	if _, err := c.api.ListModels(ctx); err != nil {
		return false, fmt.Errorf("health check failed: %w", statusError(err))
	}
	return true, nil
}

// Name returns the capability identifier.
func (c *Client) Name() string {
	return "llm:" + c.config.Model
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
