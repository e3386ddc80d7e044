package prompts

import (
	"bytes"
	"strings"
	"text/template"
)

const SystemRules = `You generate short stories in ASL-style grammar.
Constraints:
- Only use words from the allowed word bank for the selected level.
- Keep ASL style: topic/comment ordering, early time markers, minimal function words.
- Do not use words outside the bank. Avoid punctuation-heavy English phrasing.
- Keep it simple and concise appropriate for the level.
Output JSON only, matching the schema.`

const ASLHints = `ASL style: TOPIC first if present; TIME marker early; minimal function words; simple clauses.`

type taskInput struct {
	Topic string
	Level string
	Words string
}

var taskTmpl = template.Must(template.New("task").Option("missingkey=zero").Parse(`
Task: Write a short ASL-style story about: "{{.Topic}}".
Difficulty level: {{.Level}}
Allowed word bank (lowercase only; use ONLY these words):
{{.Words}}

Return valid JSON with fields:
- level (the difficulty level)
- used_words (unique lowercase words in the story, in first-appearance order)
- story_text (the story text, ASL style, only bank words)

Keep within difficulty caps and keep it engaging and clear.`))

// BuildUserInstructions renders the task block. allowedWords is expected
// sorted; the stable listing keeps retry prompts diffable in traces.
func BuildUserInstructions(topic, level string, allowedWords []string) string {
	var b bytes.Buffer
	_ = taskTmpl.Execute(&b, taskInput{
		Topic: topic,
		Level: level,
		Words: strings.Join(allowedWords, "\n"),
	})
	return strings.TrimSpace(b.String())
}

// Base assembles the first attempt's full prompt.
func Base(topic, level string, allowedWords []string) string {
	return SystemRules + "\n" + ASLHints + "\n\n" + BuildUserInstructions(topic, level, allowedWords)
}
