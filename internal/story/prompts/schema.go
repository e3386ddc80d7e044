package prompts

// Response schema sent with every model call. Shapes follow the Gemini
// structured-output subset of OpenAPI types.

func ObjectSchema(properties map[string]any, required []string) map[string]any {
	return map[string]any{
		"type":       "OBJECT",
		"properties": properties,
		"required":   required,
	}
}

func StringSchema(description string) map[string]any {
	s := map[string]any{"type": "STRING"}
	if description != "" {
		s["description"] = description
	}
	return s
}

func StringArraySchema(description string) map[string]any {
	s := map[string]any{
		"type":  "ARRAY",
		"items": map[string]any{"type": "STRING"},
	}
	if description != "" {
		s["description"] = description
	}
	return s
}

func EnumSchema(description string, values ...string) map[string]any {
	arr := make([]any, 0, len(values))
	for _, v := range values {
		arr = append(arr, v)
	}
	s := map[string]any{"type": "STRING", "enum": arr}
	if description != "" {
		s["description"] = description
	}
	return s
}

// StoryPlanSchema constrains the model response to the three required
// StoryPlan fields. Sentences is derived server-side, never requested.
func StoryPlanSchema(levels ...string) map[string]any {
	return ObjectSchema(map[string]any{
		"level":      EnumSchema("Difficulty level", levels...),
		"used_words": StringArraySchema("Unique lowercase words used in order of first appearance"),
		"story_text": StringSchema("Short story text in ASL style using only words from the allowed bank"),
	}, []string{"level", "used_words", "story_text"})
}
