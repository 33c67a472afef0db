package api

import (
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"web-search-answer-api/internal/search"
)

// historyWindow caps how many prior chat turns ride along with a
// question.
const historyWindow = 4

// searchTypeByAlias maps the payload search_type to a provider vertical.
// "auto" stays unresolved: the planner seeds a plain web search and the
// rewrite model picks per-query verticals.
var searchTypeByAlias = map[string]string{
	"auto":    "auto",
	"general": string(search.TypeSearch),
	"scholar": string(search.TypeScholar),
	"news":    string(search.TypeNews),
	"youtube": string(search.TypeVideos),
}

// TopK is the merged result cap of one request: a number, or "auto" for
// no cap.
type TopK struct {
	Value *int
}

func (t *TopK) UnmarshalJSON(data []byte) error {
	switch strings.TrimSpace(string(data)) {
	case `"auto"`, "null":
		t.Value = nil
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return errors.New(`top_k must be a number or "auto"`)
	}
	t.Value = &n
	return nil
}

// ChatTurn is one prior message of the conversation.
type ChatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// WebSearchRequest is the /websearch payload.
type WebSearchRequest struct {
	Query                string     `json:"query"`
	Language             string     `json:"language"`
	SearchType           string     `json:"search_type"`
	Messages             []ChatTurn `json:"messages"`
	PersonaPrompt        string     `json:"persona_prompt"`
	CustomPrompt         string     `json:"custom_prompt"`
	TargetNuance         string     `json:"target_nuance"`
	ReturnProcess        *bool      `json:"return_process"`
	Stream               bool       `json:"stream"`
	UseYouTubeTranscript bool       `json:"use_youtube_transcript"`
	TopK                 TopK       `json:"top_k"`
}

// querySanitizer folds the line breaks a chat client may leave in a
// question.
var querySanitizer = strings.NewReplacer("\n", " ", "\t", " ")

// Normalize applies the documented defaults, folds the query into a
// single line, and trims the history window. Call before Validate.
func (r *WebSearchRequest) Normalize() {
	r.Query = strings.TrimSpace(querySanitizer.Replace(r.Query))
	if r.SearchType == "" {
		r.SearchType = "auto"
	}
	if r.PersonaPrompt == "" {
		r.PersonaPrompt = "N/A"
	}
	if r.CustomPrompt == "" {
		r.CustomPrompt = "N/A"
	}
	if r.TargetNuance == "" {
		r.TargetNuance = "Natural"
	}
	// Video answers come from transcripts; there is nothing else on a
	// youtube result page worth crawling.
	if r.SearchType == "youtube" {
		r.UseYouTubeTranscript = true
	}
	if len(r.Messages) > historyWindow {
		r.Messages = r.Messages[len(r.Messages)-historyWindow:]
	}
}

// Validate rejects payloads the pipeline cannot run. Normalize first.
func (r *WebSearchRequest) Validate() error {
	if r.Query == "" {
		return errors.New("Query parameter is required")
	}
	if _, ok := searchTypeByAlias[r.SearchType]; !ok {
		return fmt.Errorf("Invalid search_type: %s (must be 'auto', 'general', 'scholar', 'news', or 'youtube')", r.SearchType)
	}
	return nil
}

// WantsProcess reports whether processing events should be streamed.
// Absent means yes.
func (r *WebSearchRequest) WantsProcess() bool {
	return r.ReturnProcess == nil || *r.ReturnProcess
}

// PlanSearchType is the provider vertical handed to the planner.
func (r *WebSearchRequest) PlanSearchType() string {
	return searchTypeByAlias[r.SearchType]
}

// History converts the trimmed prior turns into chat messages.
func (r *WebSearchRequest) History() []openai.ChatCompletionMessage {
	if len(r.Messages) == 0 {
		return nil
	}
	history := make([]openai.ChatCompletionMessage, 0, len(r.Messages))
	for _, m := range r.Messages {
		history = append(history, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}
	return history
}
