package llm

import (
	"strings"
	"sync"

	openai "github.com/sashabaranov/go-openai"
)

// ModelInfo identifies the vendor and wire type of a configured model.
type ModelInfo struct {
	Name      string
	Vendor    string
	ModelType string
}

// modelCatalog lists the known model families, longest name first so the
// most specific family wins the substring match: "gpt-4.1-nano" must not
// resolve to "gpt-4.1", nor "o3-mini" to "o3".
var modelCatalog = []ModelInfo{
	{Name: "claude-3-7-sonnet", Vendor: "anthropic", ModelType: "claude-3-7-sonnet-thinking"},
	{Name: "claude-3-5-sonnet", Vendor: "anthropic", ModelType: "claude-3-5-sonnet"},
	{Name: "gemini-2.0-flash", Vendor: "google", ModelType: "gemini-2.0-flash"},
	{Name: "gemini-2.5-flash", Vendor: "google", ModelType: "gemini-2.5-flash"},
	{Name: "gpt-4.1-nano", Vendor: "openai", ModelType: "gpt-4.1-nano"},
	{Name: "gpt-4.1-mini", Vendor: "openai", ModelType: "gpt-4.1-mini"},
	{Name: "o3-mini", Vendor: "openai", ModelType: "o3-mini"},
	{Name: "o4-mini", Vendor: "openai", ModelType: "o4-mini"},
	{Name: "gpt-4.1", Vendor: "openai", ModelType: "gpt-4.1"},
	{Name: "gpt-4o", Vendor: "openai", ModelType: "gpt-4o"},
	{Name: "o1", Vendor: "openai", ModelType: "o1"},
	{Name: "o3", Vendor: "openai", ModelType: "o3"},
}

// LookupModel resolves a configured model name, dated releases included,
// to its catalog entry by substring match. Unknown names are reported as
// openai models so custom gateway aliases still show up in usage.
func LookupModel(name string) ModelInfo {
	for _, m := range modelCatalog {
		if strings.Contains(name, m.Name) {
			return ModelInfo{Name: name, Vendor: m.Vendor, ModelType: m.ModelType}
		}
	}
	return ModelInfo{Name: name, Vendor: "openai", ModelType: name}
}

// ModelUsage is one entry of the models array in the complete event.
type ModelUsage struct {
	Model ModelIdentity `json:"model"`
	Usage TokenCount    `json:"usage"`
}

// ModelIdentity names a model the way clients bill and display it.
type ModelIdentity struct {
	Vendor string `json:"model_vendor"`
	Type   string `json:"model_type"`
	Name   string `json:"model_name"`
}

// TokenCount accumulates the tokens a model consumed over one request.
type TokenCount struct {
	Input  int `json:"input_token_count"`
	Output int `json:"output_token_count"`
}

// UsageBook tracks per-model token usage for a single request. Entries
// keep their seeding order so the models array stays stable even when a
// role never runs.
type UsageBook struct {
	mu      sync.Mutex
	order   []string
	entries map[string]*ModelUsage
}

// NewUsageBook seeds a zeroed entry per model, in argument order. Models
// shared between roles collapse into one entry.
func NewUsageBook(models ...string) *UsageBook {
	b := &UsageBook{entries: make(map[string]*ModelUsage, len(models))}
	for _, name := range models {
		b.entry(name)
	}
	return b
}

func (b *UsageBook) entry(name string) *ModelUsage {
	e, ok := b.entries[name]
	if !ok {
		info := LookupModel(name)
		e = &ModelUsage{Model: ModelIdentity{Vendor: info.Vendor, Type: info.ModelType, Name: name}}
		b.entries[name] = e
		b.order = append(b.order, name)
	}
	return e
}

// Add records the tokens one call consumed.
func (b *UsageBook) Add(model string, usage openai.Usage) {
	b.mu.Lock()
	defer b.mu.Unlock()
	e := b.entry(model)
	e.Usage.Input += usage.PromptTokens
	e.Usage.Output += usage.CompletionTokens
}

// Snapshot returns the entries in seeding order.
func (b *UsageBook) Snapshot() []ModelUsage {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]ModelUsage, 0, len(b.order))
	for _, name := range b.order {
		out = append(out, *b.entries[name])
	}
	return out
}
