// Package genai wraps the external generative model behind a narrow text
// interface and turns its output into persisted flowchart documents.
package genai

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/schema"
)

// TextModel is the opaque external model: one completion per intent, raw
// text in and out. The gateway's parsing and fallback behavior is testable
// against a stub implementation.
type TextModel interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// ModelConfig holds connection settings for the OpenAI-compatible model.
type ModelConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float32
}

// OpenAIModel implements TextModel over an eino ChatModel.
type OpenAIModel struct {
	model *openai.ChatModel
}

func NewOpenAIModel(ctx context.Context, cfg ModelConfig) (*OpenAIModel, error) {
	modelConfig := &openai.ChatModelConfig{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
		Model:   cfg.Model,
	}
	if cfg.MaxTokens > 0 {
		maxTokens := cfg.MaxTokens
		modelConfig.MaxTokens = &maxTokens
	}
	if cfg.Temperature > 0 {
		temperature := cfg.Temperature
		modelConfig.Temperature = &temperature
	}

	model, err := openai.NewChatModel(ctx, modelConfig)
	if err != nil {
		return nil, fmt.Errorf("create chat model: %w", err)
	}
	return &OpenAIModel{model: model}, nil
}

func (m *OpenAIModel) Complete(ctx context.Context, system, user string) (string, error) {
	messages := []*schema.Message{
		schema.SystemMessage(system),
		schema.UserMessage(user),
	}
	out, err := m.model.Generate(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("model generate: %w", err)
	}
	return out.Content, nil
}
