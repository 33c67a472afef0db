package llm

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"
)

const (
	answerTimeout   = 120 * time.Second
	answerMaxTokens = 8000
)

// AnswerGenerator writes the final answer from the crawled documents.
type AnswerGenerator struct {
	Client Client
	Model  string
}

// Generate asks for the complete answer in one call. Failures return an
// empty answer; the request still completes.
func (g *AnswerGenerator) Generate(ctx context.Context, messages []openai.ChatCompletionMessage) (string, openai.Usage) {
	ctx, cancel := context.WithTimeout(ctx, answerTimeout)
	defer cancel()

	resp, err := g.Client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       g.Model,
		Messages:    messages,
		MaxTokens:   answerMaxTokens,
		Temperature: 1,
	})
	if err != nil {
		log.Error().Err(err).Str("model", g.Model).Msg("answer generation failed")
		return "", openai.Usage{}
	}
	if len(resp.Choices) == 0 {
		return "", resp.Usage
	}
	return resp.Choices[0].Message.Content, resp.Usage
}

// Stream generates the answer incrementally, calling onDelta once per
// content chunk in arrival order. The returned string is the answer
// assembled so far. The trailing usage chunk ends the stream; model
// failures end it early with whatever arrived. An onDelta error aborts
// the stream and propagates, so a dead client stops the generation.
func (g *AnswerGenerator) Stream(ctx context.Context, messages []openai.ChatCompletionMessage, onDelta func(delta string) error) (string, openai.Usage, error) {
	ctx, cancel := context.WithTimeout(ctx, answerTimeout)
	defer cancel()

	stream, err := g.Client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model:         g.Model,
		Messages:      messages,
		MaxTokens:     answerMaxTokens,
		Temperature:   1,
		Stream:        true,
		StreamOptions: &openai.StreamOptions{IncludeUsage: true},
	})
	if err != nil {
		log.Error().Err(err).Str("model", g.Model).Msg("answer stream failed")
		return "", openai.Usage{}, nil
	}
	defer stream.Close()

	var answer strings.Builder
	var usage openai.Usage
	for {
		chunk, err := stream.Recv()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				log.Error().Err(err).Str("model", g.Model).Msg("answer stream interrupted")
			}
			break
		}
		if chunk.Usage != nil {
			usage = *chunk.Usage
			break
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		delta := chunk.Choices[0].Delta.Content
		if delta == "" {
			continue
		}
		answer.WriteString(delta)
		if onDelta != nil {
			if err := onDelta(delta); err != nil {
				return answer.String(), usage, err
			}
		}
	}
	return answer.String(), usage, nil
}
