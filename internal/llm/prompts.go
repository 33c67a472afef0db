package llm

import (
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// DateLayout renders the request timestamp inside prompts.
const DateLayout = "2006-01-02 15:04:05"

// planPrompt asks the model for numSamples rewritten queries as a JSON
// object of numbered 4-element rows, the shape planRows parses.
func planPrompt(req PlanRequest, numSamples int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "You are the query planner of a web search service. Today is %s.\n\n", req.Date)
	if len(req.History) > 0 {
		sb.WriteString("Conversation so far:\n")
		sb.WriteString(historyTranscript(req.History))
		sb.WriteString("\n\n")
		fmt.Fprintf(&sb, "Rewrite the latest question below into exactly %d web search queries, resolving any references to the conversation. ", numSamples)
	} else {
		fmt.Fprintf(&sb, "Rewrite the question below into exactly %d web search queries. ", numSamples)
	}
	sb.WriteString("Together the queries must cover everything needed to answer the question. Split multi-part questions, resolve relative dates against today, and vary the wording so the queries do not overlap.\n\n")
	fmt.Fprintf(&sb, "Question: %s\n\n", req.Query)
	sb.WriteString("Rules:\n")
	fmt.Fprintf(&sb, "- The answer will be written in %s, but write each query in whichever language will find the best sources.\n", req.Language.Name)
	fmt.Fprintf(&sb, "- The requested vertical is %q. If it is \"auto\", pick the best vertical for each query; otherwise use the requested one.\n", req.SearchType)
	sb.WriteString("- type must be one of: Search, News, Videos, Scholar.\n")
	sb.WriteString("- period must be one of: \"Any time\", \"Past hour\", \"Past 24 hours\", \"Past week\", \"Past month\", \"Past year\". Use \"Any time\" unless the question is about recent events.\n\n")
	sb.WriteString("Answer with a JSON object only. Key each entry by its number and make the value a 4-element array of [query, type, language code, period]:\n")
	sb.WriteString(`{"1": ["query text", "Search", "en", "Any time"]}`)
	return sb.String()
}

// outlinePrompt asks for answer section titles grounded in the search
// result snippets.
func outlinePrompt(query, content, targetLanguage string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "You are outlining an answer that will be written in %s.\n\n", targetLanguage)
	fmt.Fprintf(&sb, "Question: %s\n\n", query)
	sb.WriteString("Search results:\n")
	sb.WriteString(content)
	fmt.Fprintf(&sb, "\nChoose three to six section titles that organize an answer to the question around these results. Keep each title a short phrase in %s and skip sections the results cannot fill.\n\n", targetLanguage)
	sb.WriteString("Answer with a JSON object only:\n")
	sb.WriteString(`{"sub_titles": ["first section title", "second section title"]}`)
	return sb.String()
}

// AnswerPromptInput carries every slot of the answer prompt.
type AnswerPromptInput struct {
	PersonaPrompt  string
	CustomPrompt   string
	TargetLanguage string
	TargetNuance   string
	ReferenceLabel string
	Date           string
	SubTitles      []string
	// Documents is the crawled rows serialized as a JSON array.
	Documents string
}

// AnswerPrompt renders the user message the answer model sees.
func AnswerPrompt(in AnswerPromptInput) string {
	subTitles := "[]"
	if len(in.SubTitles) > 0 {
		if b, err := json.Marshal(in.SubTitles); err == nil {
			subTitles = string(b)
		}
	}

	var sb strings.Builder
	sb.WriteString("You are a web search assistant. Answer the user's question using only the documents below.\n\n")
	fmt.Fprintf(&sb, "Persona: %s\n", in.PersonaPrompt)
	fmt.Fprintf(&sb, "Extra instructions: %s\n", in.CustomPrompt)
	fmt.Fprintf(&sb, "Today is %s.\n\n", in.Date)
	fmt.Fprintf(&sb, "Write the answer in %s with a %s nuance, formatted as Markdown. ", in.TargetLanguage, in.TargetNuance)
	fmt.Fprintf(&sb, "When the section titles below fit the question, organize the answer under them:\n%s\n\n", subTitles)
	fmt.Fprintf(&sb, "Cite the documents you actually used inline as [%s N](url), numbering the documents from 1 in the given order. ", in.ReferenceLabel)
	sb.WriteString("Never cite a document that is not in the list, and say clearly when the documents cannot answer the question.\n\n")
	sb.WriteString("Documents (JSON array):\n")
	sb.WriteString(in.Documents)
	return sb.String()
}

// historyTranscript flattens prior turns into role-prefixed lines.
func historyTranscript(history []openai.ChatCompletionMessage) string {
	var sb strings.Builder
	for i, m := range history {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(m.Role)
		sb.WriteString(": ")
		sb.WriteString(m.Content)
	}
	return sb.String()
}
