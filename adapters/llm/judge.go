package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/sashabaranov/go-openai"

	"arbiter/internal"
	"arbiter/internal/config"
	"arbiter/internal/errors"
	"arbiter/ports"
)

// Config holds judge backend settings
type Config struct {
	APIKey      string
	BaseURL     string // empty means the OpenAI default
	Model       string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
}

// ConfigFrom maps application config onto judge settings
func ConfigFrom(cfg config.JudgeConfig) Config {
	return Config{
		APIKey:      cfg.APIKey,
		BaseURL:     cfg.BaseURL,
		Model:       cfg.Model,
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
		Timeout:     cfg.Timeout,
	}
}

// Usage is the token count accumulated by a judge
type Usage struct {
	Calls            int64 `json:"calls"`
	PromptTokens     int64 `json:"prompt_tokens"`
	CompletionTokens int64 `json:"completion_tokens"`
}

// OpenAIJudge sends evaluation prompts to any endpoint speaking the OpenAI
// chat completions API, one user message per call
type OpenAIJudge struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
	logger      *internal.Logger

	calls            atomic.Int64
	promptTokens     atomic.Int64
	completionTokens atomic.Int64
}

var _ ports.Judge = (*OpenAIJudge)(nil)

// NewOpenAIJudge creates a judge client
func NewOpenAIJudge(cfg Config, logger *internal.Logger) (*OpenAIJudge, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.ConfigInvalid("missing judge API key")
	}
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, errors.ConfigInvalid("missing judge model")
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 4096
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if baseURL := strings.TrimSpace(cfg.BaseURL); baseURL != "" {
		clientConfig.BaseURL = strings.TrimRight(baseURL, "/")
	}
	if cfg.Timeout > 0 {
		clientConfig.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}

	logger.With("OpenAIJudge").Info("judge backend %s (model %s)", clientConfig.BaseURL, cfg.Model)
	return &OpenAIJudge{
		client:      openai.NewClientWithConfig(clientConfig),
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: float32(cfg.Temperature),
		logger:      logger.With("OpenAIJudge"),
	}, nil
}

// Complete sends the prompt and returns the first choice's content
func (j *OpenAIJudge) Complete(ctx context.Context, prompt string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:       j.model,
		MaxTokens:   j.maxTokens,
		Temperature: j.temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	}

	resp, err := j.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", errors.ExternalServiceError("judge", err)
	}
	j.calls.Add(1)
	j.promptTokens.Add(int64(resp.Usage.PromptTokens))
	j.completionTokens.Add(int64(resp.Usage.CompletionTokens))

	if len(resp.Choices) == 0 {
		return "", errors.ExternalServiceError("judge", fmt.Errorf("no choices returned"))
	}
	j.logger.Trace("finish_reason=%s tokens=%d/%d", resp.Choices[0].FinishReason,
		resp.Usage.PromptTokens, resp.Usage.CompletionTokens)
	return resp.Choices[0].Message.Content, nil
}

// Usage returns the tokens consumed so far
func (j *OpenAIJudge) Usage() Usage {
	return Usage{
		Calls:            j.calls.Load(),
		PromptTokens:     j.promptTokens.Load(),
		CompletionTokens: j.completionTokens.Load(),
	}
}
