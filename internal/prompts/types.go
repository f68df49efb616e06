// Package prompts provides prompt management with embedded defaults and
// configuration overrides.
//
// Embedded .tmpl files in code are the source of truth for defaults.
// Resolution order for a key:
//  1. Override from the `prompts` section of the configuration
//  2. Embedded default (from .tmpl files in code)
package prompts

// EmbeddedPrompt represents a prompt loaded from an embedded .tmpl file.
type EmbeddedPrompt struct {
	Key         string   `json:"key"`                 // Hierarchical key: timetable.parse.system
	Text        string   `json:"text"`                // The prompt text (Go template)
	Description string   `json:"description,omitempty"`
	Variables   []string `json:"variables,omitempty"` // Extracted template variables
	Hash        string   `json:"hash"`                // SHA256 hash of the text for change detection
}

// ResolvedPrompt is the result of resolving a prompt key.
type ResolvedPrompt struct {
	Key        string   `json:"key"`
	Text       string   `json:"text"`
	Variables  []string `json:"variables,omitempty"`
	IsOverride bool     `json:"is_override"` // true if from configuration
	Hash       string   `json:"hash"`
}
