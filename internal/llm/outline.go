package llm

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"
)

const (
	outlineTimeout   = 10 * time.Second
	outlineMaxTokens = 8000
)

// OutlineGenerator proposes section titles for the answer.
type OutlineGenerator struct {
	Client Client
	Model  string
}

// Generate returns sub-titles for an answer about query, grounded in
// content. Failures return an empty list; outlines are a hint, not a
// requirement.
func (g *OutlineGenerator) Generate(ctx context.Context, query, content, targetLanguage string) ([]string, openai.Usage) {
	ctx, cancel := context.WithTimeout(ctx, outlineTimeout)
	defer cancel()

	resp, err := g.Client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       g.Model,
		Messages:    []openai.ChatCompletionMessage{{Role: openai.ChatMessageRoleUser, Content: outlinePrompt(query, content, targetLanguage)}},
		MaxTokens:   outlineMaxTokens,
		Temperature: 1,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		log.Warn().Err(err).Str("model", g.Model).Msg("outline generation failed")
		return nil, openai.Usage{}
	}
	if len(resp.Choices) == 0 {
		return nil, resp.Usage
	}

	var parsed struct {
		SubTitles []string `json:"sub_titles"`
	}
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &parsed); err != nil {
		log.Warn().Err(err).Str("model", g.Model).Msg("outline parse failed")
		return nil, resp.Usage
	}
	return parsed.SubTitles, resp.Usage
}
