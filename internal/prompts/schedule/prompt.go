package schedule

import (
	_ "embed"
	"strings"

	"github.com/jackzampolin/timetable/internal/prompts"
)

//go:embed system.tmpl
var systemPrompt string

//go:embed user.tmpl
var userPromptTmpl string

// Prompt keys
const (
	SystemPromptKey = "timetable.parse.system"
	UserPromptKey   = "timetable.parse.user"
)

// UserPromptData is the data rendered into the user prompt template.
type UserPromptData struct {
	Text    string
	Days    string
	Periods string
}

// NewUserPromptData builds template data from raw text and default labels.
func NewUserPromptData(text string, days, periods []string) UserPromptData {
	return UserPromptData{
		Text:    text,
		Days:    strings.Join(days, ", "),
		Periods: strings.Join(periods, ", "),
	}
}

// SystemPrompt returns the embedded system prompt for timetable extraction.
func SystemPrompt() string {
	return systemPrompt
}

// RegisterPrompts registers the timetable extraction prompts with the resolver.
func RegisterPrompts(r *prompts.Resolver) {
	r.Register(prompts.EmbeddedPrompt{
		Key:         SystemPromptKey,
		Text:        systemPrompt,
		Description: "Timetable extraction system prompt - describes the JSON shape and placeholder rules",
	})
	r.Register(prompts.EmbeddedPrompt{
		Key:         UserPromptKey,
		Text:        userPromptTmpl,
		Description: "Timetable extraction user prompt template",
	})
}
