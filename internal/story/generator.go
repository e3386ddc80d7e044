package story

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/storysign/storysign-backend/internal/platform/gemini"
	"github.com/storysign/storysign-backend/internal/platform/logger"
	"github.com/storysign/storysign-backend/internal/story/bank"
	"github.com/storysign/storysign-backend/internal/story/prompts"
)

// ErrInvalidLevel is returned before any model call when the requested
// level is not in the bank.
var ErrInvalidLevel = errors.New("invalid level")

// ExhaustedError is the terminal failure after every attempt in the budget
// came back invalid. Last carries the final attempt's violations so a
// caller can see why generation never converged.
type ExhaustedError struct {
	Attempts int
	Last     []Violation
}

func (e *ExhaustedError) Error() string {
	details := make([]string, 0, len(e.Last))
	for _, v := range e.Last {
		details = append(details, v.Detail)
	}
	return fmt.Sprintf("failed to generate a valid story after %d attempts: %s", e.Attempts, strings.Join(details, "; "))
}

const DefaultMaxRetries = 3

type Generator struct {
	log        *logger.Logger
	client     gemini.Client
	bank       *bank.Bank
	model      string
	maxRetries int
}

func NewGenerator(log *logger.Logger, client gemini.Client, b *bank.Bank, model string, maxRetries int) *Generator {
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	return &Generator{
		log:        log.With("service", "StoryGenerator"),
		client:     client,
		bank:       b,
		model:      model,
		maxRetries: maxRetries,
	}
}

func (g *Generator) Bank() *bank.Bank { return g.bank }

// GenerateStory runs the attempt loop: prompt, model call, parse, validate.
// Each failed attempt's violations are appended to the next prompt as
// corrective feedback; feedback accumulates for the whole call and is never
// reset. maxRetries counts model invocations (<=0 uses the configured
// default). Returns the validated plan and the number of attempts used.
func (g *Generator) GenerateStory(ctx context.Context, topic string, level bank.Level, maxRetries int) (*StoryPlan, int, error) {
	if !g.bank.Valid(level) {
		return nil, 0, fmt.Errorf("%w: %s (known: %v)", ErrInvalidLevel, level, g.bank.Levels())
	}
	if maxRetries <= 0 {
		maxRetries = g.maxRetries
	}

	basePrompt := prompts.Base(topic, string(level), g.bank.Words(level))
	levels := g.bank.Levels()
	levelNames := make([]string, len(levels))
	for i, l := range levels {
		levelNames[i] = string(l)
	}
	schema := prompts.StoryPlanSchema(levelNames...)

	log := g.log.With("topic", topic, "level", string(level), "model", g.model)

	var history [][]Violation
	var lastErrors []Violation

	for attempt := 1; attempt <= maxRetries; attempt++ {
		prompt := basePrompt
		if len(history) > 0 {
			prompt = basePrompt + "\n\n" + renderFeedback(history)
		}

		raw, err := g.client.GenerateJSON(ctx, g.model, prompt, schema)
		if err != nil {
			// Transport-level failure, not a bad candidate. Nothing to feed
			// back to the model, so it ends the call.
			return nil, attempt, fmt.Errorf("model call failed on attempt %d: %w", attempt, err)
		}

		plan, parseErr := ParsePlan(raw)
		if parseErr != nil {
			log.Warn("story candidate failed schema parse", "attempt", attempt, "error", parseErr)
			lastErrors = []Violation{{
				Kind:   ViolationSchema,
				Detail: "Schema parse error: returned output was not valid JSON per schema",
			}}
			history = append(history, lastErrors)
			continue
		}

		report := Validate(plan, g.bank)
		if report.Passed {
			log.Info("story generated", "attempts", attempt, "tokens", len(plan.UsedWords), "sentences", len(plan.Sentences))
			return plan, attempt, nil
		}

		log.Warn("story candidate failed validation", "attempt", attempt, "violations", len(report.Violations))
		lastErrors = report.Violations
		history = append(history, report.Violations)
	}

	return nil, maxRetries, &ExhaustedError{Attempts: maxRetries, Last: lastErrors}
}

// renderFeedback turns the accumulated violation history into tightening
// instructions. History stays structured until this point; text is produced
// only when a prompt is actually sent.
func renderFeedback(history [][]Violation) string {
	blocks := make([]string, 0, len(history))
	for _, violations := range history {
		if len(violations) == 1 && violations[0].Kind == ViolationSchema {
			blocks = append(blocks, "Previous output violated the JSON schema. Return strict JSON only matching fields: level, used_words, story_text.")
			continue
		}
		details := make([]string, 0, len(violations))
		for _, v := range violations {
			details = append(details, v.Detail)
		}
		blocks = append(blocks, "Previous output violated constraints:\n- "+
			strings.Join(details, "\n- ")+
			"\nRegenerate strictly: use ONLY allowed words; stay under token/sentence caps; keep ASL style.")
	}
	return strings.Join(blocks, "\n")
}
