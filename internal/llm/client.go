// Package llm runs the three model roles behind a request: planning
// search queries, outlining the answer, and generating the answer
// itself. Model and parse failures degrade to empty output so a bad
// completion never fails the whole request.
package llm

import (
	"context"

	jsoniter "github.com/json-iterator/go"
	openai "github.com/sashabaranov/go-openai"

	"web-search-answer-api/internal/config"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Client is the minimal interface the role generators need from a chat
// model. It mirrors the go-openai methods so any OpenAI-compatible
// gateway can stand in, and so tests can script completions.
type Client interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
	CreateChatCompletionStream(ctx context.Context, request openai.ChatCompletionRequest) (ChatStream, error)
}

// ChatStream yields one completion chunk per Recv call until io.EOF.
// *openai.ChatCompletionStream satisfies it.
type ChatStream interface {
	Recv() (openai.ChatCompletionStreamResponse, error)
	Close() error
}

// openaiClient adapts *openai.Client to the Client interface.
type openaiClient struct {
	inner *openai.Client
}

// NewClient builds a client for the configured endpoint. A base URL
// override points it at any OpenAI-compatible gateway.
func NewClient(cfg *config.AppConfig) Client {
	transportCfg := openai.DefaultConfig(cfg.OpenAIAPIKey)
	if cfg.OpenAIBaseURL != "" {
		transportCfg.BaseURL = cfg.OpenAIBaseURL
	}
	return &openaiClient{inner: openai.NewClientWithConfig(transportCfg)}
}

func (c *openaiClient) CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	return c.inner.CreateChatCompletion(ctx, request)
}

func (c *openaiClient) CreateChatCompletionStream(ctx context.Context, request openai.ChatCompletionRequest) (ChatStream, error) {
	return c.inner.CreateChatCompletionStream(ctx, request)
}
