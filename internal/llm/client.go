// Package llm wraps the OpenAI-compatible API behind the four narrow
// operations the pipeline needs: claim parsing, candidate reranking, answer
// synthesis, and text embedding.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/nroshak/marketcheck/internal/model"
)

// Client is the shared handle to the chat endpoint
type Client struct {
	api *openai.Client
	cfg model.LLMConfig
}

// NewClient builds a Client from configuration
func NewClient(cfg model.LLMConfig) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("LLM API key is required")
	}
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	return &Client{api: openai.NewClientWithConfig(clientConfig), cfg: cfg}, nil
}

// chatJSON sends one system+user exchange in JSON mode and decodes the reply
// into out.
func (c *Client) chatJSON(ctx context.Context, system, user string, temperature float32, out any) error {
	req := openai.ChatCompletionRequest{
		Model: c.cfg.ChatModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Temperature: temperature,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}

	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		return fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return fmt.Errorf("no choices in chat response")
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if err := json.Unmarshal([]byte(content), out); err != nil {
		return fmt.Errorf("decode chat reply: %w", err)
	}
	return nil
}
