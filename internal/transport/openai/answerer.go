package openai

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/pivotlog/pivotlog/internal/domain"
)

const answerSystemPrompt = `You are a strategic advisor answering questions about an organization's archived decisions. Be precise and data-driven, cite the provided decisions, acknowledge when the context is insufficient, and keep the answer concise.`

// Answerer synthesizes natural-language answers over retrieved decisions via
// an OpenAI-compatible chat completions API.
type Answerer struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

// AnswerConfig holds the answer provider settings.
type AnswerConfig struct {
	APIKey     string
	BaseURL    string
	Model      string
	TimeoutSec int
	Logger     *zap.Logger
}

// DefaultAnswerTimeout bounds a single answer synthesis call.
const DefaultAnswerTimeout = 60 * time.Second

// NewAnswerer creates an OpenAI-compatible answer provider.
func NewAnswerer(cfg *AnswerConfig) *Answerer {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	timeout := DefaultAnswerTimeout
	if cfg.TimeoutSec > 0 {
		timeout = time.Duration(cfg.TimeoutSec) * time.Second
	}
	clientCfg.HTTPClient = &http.Client{Timeout: timeout}
	return &Answerer{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.Model,
		logger: cfg.Logger,
	}
}

// AnswererFactory returns a factory deriving answerers bound to a
// caller-supplied API key, sharing every other setting with cfg.
func AnswererFactory(cfg *AnswerConfig) domain.AnswererFactory {
	return func(apiKey string) domain.Answerer {
		derived := *cfg
		derived.APIKey = apiKey
		return NewAnswerer(&derived)
	}
}

// Answer implements domain.Answerer.
func (a *Answerer) Answer(
	ctx context.Context, query string, decisions []domain.DecisionContext,
) (string, error) {
	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: a.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: answerSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildAnswerPrompt(query, decisions)},
		},
	})
	if err != nil {
		return "", parseAPIError("answer", err, domain.ErrAnswerProviderError)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty answer response: %w", domain.ErrAnswerProviderError)
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func buildAnswerPrompt(query string, decisions []domain.DecisionContext) string {
	var b strings.Builder
	b.WriteString("CONTEXT - archived decisions:\n\n")
	for i, d := range decisions {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "Decision: %s\nRationale: %s\nCategory: %s", d.Decision, d.Rationale, d.Category)
	}
	b.WriteString("\n\nQUESTION:\n")
	b.WriteString(query)
	return b.String()
}
