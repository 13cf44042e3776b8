package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"
)

const (
	chatTemperature     = 0.7
	chatMaxTokens       = 1500
	classifyTemperature = 0
)

var errEmptyCompletion = errors.New("model returned no choices")

// OpenAIClient implements Client against an OpenAI-compatible endpoint.
type OpenAIClient struct {
	api    *openai.Client
	model  string
	logger *slog.Logger
}

// OpenAIConfig holds settings for the OpenAI-backed client.
type OpenAIConfig struct {
	APIKey  string
	BaseURL string // optional; set for Azure or other compatible gateways
	Model   string
}

// NewOpenAIClient creates a client for the configured deployment.
func NewOpenAIClient(cfg OpenAIConfig, logger *slog.Logger) (*OpenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("api key is required")
	}
	if cfg.Model == "" {
		return nil, errors.New("model is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	apiCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		apiCfg.BaseURL = cfg.BaseURL
	}

	return &OpenAIClient{
		api:    openai.NewClientWithConfig(apiCfg),
		model:  cfg.Model,
		logger: logger,
	}, nil
}

// Complete returns one assistant reply for the system prompt and history.
func (c *OpenAIClient) Complete(ctx context.Context, systemPrompt string, messages []Message) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    buildMessages(systemPrompt, messages),
		Temperature: chatTemperature,
		MaxTokens:   chatMaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errEmptyCompletion
	}
	return resp.Choices[0].Message.Content, nil
}

// CompleteStream yields the assistant reply chunk by chunk. The iterator
// stops after yielding an error; partial output before the error has already
// been delivered.
func (c *OpenAIClient) CompleteStream(ctx context.Context, systemPrompt string, messages []Message) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		stream, err := c.api.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
			Model:       c.model,
			Messages:    buildMessages(systemPrompt, messages),
			Temperature: chatTemperature,
			MaxTokens:   chatMaxTokens,
			Stream:      true,
		})
		if err != nil {
			yield("", fmt.Errorf("open chat stream: %w", err))
			return
		}
		defer func() {
			if closeErr := stream.Close(); closeErr != nil {
				c.logger.Warn("failed to close chat stream", "error", closeErr)
			}
		}()

		for {
			resp, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield("", fmt.Errorf("receive chat chunk: %w", err))
				return
			}
			if len(resp.Choices) == 0 {
				continue
			}
			chunk := resp.Choices[0].Delta.Content
			if chunk == "" {
				continue
			}
			if !yield(chunk, nil) {
				return
			}
		}
	}
}

// Classify runs a schema-constrained completion and unmarshals the output
// into result.
func (c *OpenAIClient) Classify(ctx context.Context, systemPrompt, userText, schemaName string, result any) error {
	schema, err := jsonschema.GenerateSchemaForType(result)
	if err != nil {
		return fmt.Errorf("build schema %s: %w", schemaName, err)
	}

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userText},
		},
		Temperature: classifyTemperature,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   schemaName,
				Schema: schema,
				Strict: true,
			},
		},
	})
	if err != nil {
		return fmt.Errorf("classify %s: %w", schemaName, err)
	}
	if len(resp.Choices) == 0 {
		return errEmptyCompletion
	}
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), result); err != nil {
		return fmt.Errorf("parse %s result: %w", schemaName, err)
	}
	return nil
}

func buildMessages(systemPrompt string, messages []Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages)+1)
	if systemPrompt != "" {
		out = append(out, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: systemPrompt})
	}
	for _, m := range messages {
		role := m.Role
		if role == "" {
			role = openai.ChatMessageRoleUser
		}
		out = append(out, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}
	return out
}

// Ensure OpenAIClient implements Client.
var _ Client = (*OpenAIClient)(nil)
