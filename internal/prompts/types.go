// Package prompts provides the default system and user prompts for each
// asset type, with session-level overrides.
//
// Embedded .tmpl files are the source of truth for defaults. Each asset type
// has two keys, assets.<type>.system and assets.<type>.user. An override
// replaces the text for one key until it is cleared.
package prompts

import (
	"time"

	"github.com/jackzampolin/ebookstudio/internal/ebook"
)

// EmbeddedPrompt represents a prompt loaded from an embedded .tmpl file.
type EmbeddedPrompt struct {
	Key         string   `json:"key"`                 // Hierarchical key: assets.coverImage.system
	Text        string   `json:"text"`                // The prompt text (Go template)
	Description string   `json:"description"`         // Human-readable description
	Variables   []string `json:"variables,omitempty"` // Extracted template variables
	Hash        string   `json:"hash"`                // SHA256 hash of the text for change detection
}

// Override is a session-level replacement for one prompt key.
type Override struct {
	Key       string    `json:"key"`
	Text      string    `json:"text"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ResolvedPrompt is the text in effect for a key.
type ResolvedPrompt struct {
	Key        string   `json:"key"`
	Text       string   `json:"text"`
	Variables  []string `json:"variables,omitempty"`
	IsOverride bool     `json:"is_override"`
	Hash       string   `json:"hash"`
}

// Vars are the values available to prompt templates.
type Vars struct {
	Title   string
	Summary string
}

// Pair is a rendered system and user prompt for one asset type.
type Pair struct {
	Type   ebook.AssetType `json:"type"`
	System string          `json:"system"`
	User   string          `json:"user"`

	// Hash identifies the exact pair of templates used.
	Hash string `json:"hash"`
}

// SystemKey returns the system prompt key for t.
func SystemKey(t ebook.AssetType) string {
	return "assets." + string(t) + ".system"
}

// UserKey returns the user prompt key for t.
func UserKey(t ebook.AssetType) string {
	return "assets." + string(t) + ".user"
}
