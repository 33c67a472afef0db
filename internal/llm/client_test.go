package llm

import (
	"context"
	"io"

	openai "github.com/sashabaranov/go-openai"
)

// scriptedClient returns canned responses and records every request.
type scriptedClient struct {
	response openai.ChatCompletionResponse
	stream   *scriptedStream
	err      error
	requests []openai.ChatCompletionRequest
}

func (c *scriptedClient) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	c.requests = append(c.requests, req)
	if c.err != nil {
		return openai.ChatCompletionResponse{}, c.err
	}
	return c.response, nil
}

func (c *scriptedClient) CreateChatCompletionStream(_ context.Context, req openai.ChatCompletionRequest) (ChatStream, error) {
	c.requests = append(c.requests, req)
	if c.err != nil {
		return nil, c.err
	}
	return c.stream, nil
}

// scriptedStream replays chunks and tracks how far it was read.
type scriptedStream struct {
	chunks []openai.ChatCompletionStreamResponse
	next   int
	closed bool
}

func (s *scriptedStream) Recv() (openai.ChatCompletionStreamResponse, error) {
	if s.next >= len(s.chunks) {
		return openai.ChatCompletionStreamResponse{}, io.EOF
	}
	chunk := s.chunks[s.next]
	s.next++
	return chunk, nil
}

func (s *scriptedStream) Close() error {
	s.closed = true
	return nil
}

func completionResponse(content string, promptTokens, completionTokens int) openai.ChatCompletionResponse {
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{
			Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: content},
		}},
		Usage: openai.Usage{
			PromptTokens:     promptTokens,
			CompletionTokens: completionTokens,
			TotalTokens:      promptTokens + completionTokens,
		},
	}
}

func deltaChunk(content string) openai.ChatCompletionStreamResponse {
	return openai.ChatCompletionStreamResponse{
		Choices: []openai.ChatCompletionStreamChoice{{
			Delta: openai.ChatCompletionStreamChoiceDelta{Content: content},
		}},
	}
}

func usageChunk(promptTokens, completionTokens int) openai.ChatCompletionStreamResponse {
	return openai.ChatCompletionStreamResponse{
		Usage: &openai.Usage{
			PromptTokens:     promptTokens,
			CompletionTokens: completionTokens,
			TotalTokens:      promptTokens + completionTokens,
		},
	}
}
