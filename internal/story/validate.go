package story

import (
	"fmt"

	"github.com/storysign/storysign-backend/internal/story/bank"
	"github.com/storysign/storysign-backend/internal/story/token"
)

type ViolationKind string

const (
	ViolationUsedWordOOV ViolationKind = "used_word_oov"
	ViolationTokenOOV    ViolationKind = "token_oov"
	ViolationTokenCap    ViolationKind = "token_cap"
	ViolationSentenceCap ViolationKind = "sentence_cap"
	ViolationWordOrder   ViolationKind = "word_order"
	ViolationLevel       ViolationKind = "level"
	ViolationSchema      ViolationKind = "schema"
)

// Violation is one structured check failure. Detail is the human-readable
// form used both in retry feedback and terminal diagnostics.
type Violation struct {
	Kind   ViolationKind `json:"kind"`
	Detail string        `json:"detail"`
}

func (v Violation) String() string { return v.Detail }

type Report struct {
	Passed     bool
	Violations []Violation
}

// Validate runs every check against the plan's declared level and collects
// all violations; no check short-circuits, so retry feedback names every
// problem at once. Sentences is backfilled when empty whether or not the
// plan passed; only the success path's plan ever reaches a caller.
func Validate(plan *StoryPlan, b *bank.Bank) Report {
	violations := []Violation{}

	if !b.Valid(plan.Level) {
		// Nothing else is checkable without a vocabulary to check against.
		violations = append(violations, Violation{
			Kind:   ViolationLevel,
			Detail: fmt.Sprintf("Unknown declared level: %s", plan.Level),
		})
		return Report{Passed: false, Violations: violations}
	}

	for _, w := range plan.UsedWords {
		if !b.Contains(plan.Level, token.Normalize(w)) {
			violations = append(violations, Violation{
				Kind:   ViolationUsedWordOOV,
				Detail: fmt.Sprintf("Out-of-bank used_words item: %s", w),
			})
		}
	}

	toks := token.Tokenize(plan.StoryText)
	for _, t := range toks {
		if !b.Contains(plan.Level, t) {
			violations = append(violations, Violation{
				Kind:   ViolationTokenOOV,
				Detail: fmt.Sprintf("OOV token in story_text: %s", t),
			})
		}
	}

	policy, _ := b.PolicyFor(plan.Level)
	if len(toks) > policy.MaxTokens {
		violations = append(violations, Violation{
			Kind:   ViolationTokenCap,
			Detail: fmt.Sprintf("Too many tokens: %d > %d", len(toks), policy.MaxTokens),
		})
	}

	sents := token.SplitSentences(plan.StoryText)
	if len(sents) > policy.MaxSentences {
		violations = append(violations, Violation{
			Kind:   ViolationSentenceCap,
			Detail: fmt.Sprintf("Too many sentences: %d > %d", len(sents), policy.MaxSentences),
		})
	}

	// Strict element-for-element equality, order included. Same word set in
	// a different order still fails.
	uniq := token.UniqueFirstAppearance(toks)
	normalized := make([]string, len(plan.UsedWords))
	for i, w := range plan.UsedWords {
		normalized[i] = token.Normalize(w)
	}
	if !equalStrings(normalized, uniq) {
		violations = append(violations, Violation{
			Kind:   ViolationWordOrder,
			Detail: "used_words does not match unique token order from story_text",
		})
	}

	if len(plan.Sentences) == 0 {
		plan.Sentences = sents
	}

	return Report{Passed: len(violations) == 0, Violations: violations}
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
