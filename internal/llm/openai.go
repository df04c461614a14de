package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/scrypster/ephemera/pkg/types"
)

// OpenAIConfig holds configuration for the OpenAI thinker.
type OpenAIConfig struct {
	APIKey  string
	Model   string        // default: gpt-4o-mini
	BaseURL string        // default: the go-openai default
	Timeout time.Duration // default: 30s
	Breaker CircuitBreakerConfig
}

// ErrEmptyCompletion is returned when the model answers with no text.
var ErrEmptyCompletion = errors.New("llm: empty completion")

// OpenAIThinker asks an OpenAI chat model for questions and reflections.
// Any failure, including an open circuit, falls back to StubThinker.
type OpenAIThinker struct {
	client   *openai.Client
	model    string
	breaker  *CircuitBreaker
	fallback StubThinker
	logger   *slog.Logger
}

var _ Thinker = (*OpenAIThinker)(nil)

// NewOpenAIThinker creates a thinker for the given configuration.
func NewOpenAIThinker(cfg OpenAIConfig, logger *slog.Logger) *OpenAIThinker {
	if cfg.Model == "" {
		cfg.Model = openai.GPT4oMini
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}
	config.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	if cfg.Breaker.Name == "" {
		cfg.Breaker.Name = "openai"
	}
	if cfg.Breaker.Logger == nil {
		cfg.Breaker.Logger = logger
	}

	return &OpenAIThinker{
		client:  openai.NewClientWithConfig(config),
		model:   cfg.Model,
		breaker: NewCircuitBreaker(cfg.Breaker),
		logger:  logger,
	}
}

// Model returns the chat model name.
func (t *OpenAIThinker) Model() string { return t.model }

// Breaker exposes the circuit breaker for health reporting.
func (t *OpenAIThinker) Breaker() *CircuitBreaker { return t.breaker }

// ProposeQuestion asks the model for a question.
func (t *OpenAIThinker) ProposeQuestion(ctx context.Context, state types.LifeformState, lastReflection *types.Reflection) (string, error) {
	text, err := t.complete(ctx, QuestionPrompt(state, lastReflection), 0.9)
	if err != nil {
		t.logger.Warn("llm.fallback", "op", "question", "error", err)
		return t.fallback.ProposeQuestion(ctx, state, lastReflection)
	}
	return text, nil
}

// GenerateReflection asks the model to reflect on a memory.
func (t *OpenAIThinker) GenerateReflection(ctx context.Context, question types.Question, memory types.Memory, state types.LifeformState) (string, error) {
	text, err := t.complete(ctx, ReflectionPrompt(question, memory, state), 0.7)
	if err != nil {
		t.logger.Warn("llm.fallback", "op", "reflection", "question_id", question.ID, "error", err)
		return t.fallback.GenerateReflection(ctx, question, memory, state)
	}
	return text, nil
}

func (t *OpenAIThinker) complete(ctx context.Context, prompt string, temperature float32) (string, error) {
	return t.breaker.Execute(ctx, func(ctx context.Context) (string, error) {
		resp, err := t.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model: t.model,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
				{Role: openai.ChatMessageRoleUser, Content: prompt},
			},
			Temperature: temperature,
			MaxTokens:   120,
		})
		if err != nil {
			return "", fmt.Errorf("llm: openai chat completion: %w", err)
		}
		if len(resp.Choices) == 0 {
			return "", ErrEmptyCompletion
		}
		text := cleanResponse(resp.Choices[0].Message.Content)
		if text == "" {
			return "", ErrEmptyCompletion
		}
		return text, nil
	})
}
