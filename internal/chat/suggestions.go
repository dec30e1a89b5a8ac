// ABOUTME: Predefined suggestion prompts, optionally loaded from a TOML file.
// ABOUTME: Suggestions feed Suggest; they are shortcuts, not a separate pipeline.

package chat

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// Suggestion is a labelled shortcut prompt.
type Suggestion struct {
	Label  string `toml:"label"`
	Prompt string `toml:"prompt"`
}

type suggestionFile struct {
	Suggestions []Suggestion `toml:"suggestion"`
}

// LoadSuggestions reads suggestion shortcuts from a TOML file of
// [[suggestion]] tables with label and prompt keys.
func LoadSuggestions(path string) ([]Suggestion, error) {
	var f suggestionFile
	if _, err := toml.DecodeFile(path, &f); err != nil {
		return nil, fmt.Errorf("loading suggestions: %w", err)
	}
	for i, s := range f.Suggestions {
		if s.Prompt == "" {
			return nil, fmt.Errorf("suggestion %d has no prompt", i+1)
		}
	}
	return f.Suggestions, nil
}

// DefaultSuggestions returns the built-in shortcuts used when no
// suggestions file is configured.
func DefaultSuggestions() []Suggestion {
	return []Suggestion{
		{Label: "Outlook", Prompt: "What is the current market outlook?"},
		{Label: "Buy signal", Prompt: "Is this a good entry point right now?"},
		{Label: "Risks", Prompt: "What are the main risks I should watch?"},
		{Label: "Compare", Prompt: "How does this asset compare to the broader market?"},
	}
}
