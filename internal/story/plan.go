package story

import (
	"encoding/json"
	"fmt"

	"github.com/storysign/storysign-backend/internal/story/bank"
)

// StoryPlan is the structured generation result. Level, UsedWords and
// StoryText come from the model; Sentences is derived during validation
// when the model leaves it out.
type StoryPlan struct {
	Level     bank.Level `json:"level"`
	UsedWords []string   `json:"used_words"`
	StoryText string     `json:"story_text"`
	Sentences []string   `json:"sentences,omitempty"`
}

// ParsePlan decodes a model candidate into a StoryPlan. Malformed JSON or a
// missing required field is a parse failure; the caller treats it as one
// failed attempt, never as a fatal error.
func ParsePlan(raw []byte) (*StoryPlan, error) {
	var p StoryPlan
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("decode story plan: %w", err)
	}
	if p.Level == "" {
		return nil, fmt.Errorf("story plan missing required field: level")
	}
	if p.UsedWords == nil {
		return nil, fmt.Errorf("story plan missing required field: used_words")
	}
	if p.StoryText == "" {
		return nil, fmt.Errorf("story plan missing required field: story_text")
	}
	return &p, nil
}
