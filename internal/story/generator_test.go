package story

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/storysign/storysign-backend/internal/platform/logger"
	"github.com/storysign/storysign-backend/internal/story/bank"
)

type fakeClient struct {
	responses [][]byte
	errs      []error
	calls     int
	prompts   []string
}

func (f *fakeClient) GenerateJSON(ctx context.Context, model string, prompt string, schema map[string]any) ([]byte, error) {
	i := f.calls
	f.calls++
	f.prompts = append(f.prompts, prompt)
	if i >= len(f.responses) {
		return nil, fmt.Errorf("unexpected call %d", i+1)
	}
	if f.errs != nil && f.errs[i] != nil {
		return nil, f.errs[i]
	}
	return f.responses[i], nil
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("dev")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

func validPlanJSON(t *testing.T) []byte {
	t.Helper()
	raw, err := json.Marshal(StoryPlan{
		Level:     "A",
		UsedWords: []string{"today", "boy", "run", "happy"},
		StoryText: "Today boy run. Boy happy.",
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return raw
}

func TestGenerateStoryFirstAttempt(t *testing.T) {
	client := &fakeClient{responses: [][]byte{validPlanJSON(t)}}
	gen := NewGenerator(testLogger(t), client, bank.Default(), "test-model", 3)

	plan, attempts, err := gen.GenerateStory(context.Background(), "boy runs", "A", 0)
	if err != nil {
		t.Fatalf("GenerateStory: %v", err)
	}
	if attempts != 1 || client.calls != 1 {
		t.Fatalf("attempts=%d calls=%d, want 1/1", attempts, client.calls)
	}
	if len(plan.Sentences) != 2 {
		t.Fatalf("sentences not backfilled: %v", plan.Sentences)
	}
	if strings.Contains(client.prompts[0], "Previous output") {
		t.Fatalf("first prompt must carry no feedback")
	}
	if !strings.Contains(client.prompts[0], `about: "boy runs"`) {
		t.Fatalf("prompt missing topic: %s", client.prompts[0])
	}
}

func TestGenerateStoryInvalidLevelNoModelCall(t *testing.T) {
	client := &fakeClient{}
	gen := NewGenerator(testLogger(t), client, bank.Default(), "test-model", 3)

	_, attempts, err := gen.GenerateStory(context.Background(), "topic", "Z", 0)
	if !errors.Is(err, ErrInvalidLevel) {
		t.Fatalf("want ErrInvalidLevel, got %v", err)
	}
	if attempts != 0 || client.calls != 0 {
		t.Fatalf("invalid level must not invoke the model (attempts=%d calls=%d)", attempts, client.calls)
	}
}

func TestGenerateStoryRetriesWithFeedback(t *testing.T) {
	bad, _ := json.Marshal(StoryPlan{
		Level:     "A",
		UsedWords: []string{"boy", "park"},
		StoryText: "Boy park.",
	})
	client := &fakeClient{responses: [][]byte{bad, validPlanJSON(t)}}
	gen := NewGenerator(testLogger(t), client, bank.Default(), "test-model", 3)

	_, attempts, err := gen.GenerateStory(context.Background(), "topic", "A", 0)
	if err != nil {
		t.Fatalf("GenerateStory: %v", err)
	}
	if attempts != 2 || client.calls != 2 {
		t.Fatalf("attempts=%d calls=%d, want 2/2", attempts, client.calls)
	}
	second := client.prompts[1]
	if !strings.Contains(second, "Previous output violated constraints") {
		t.Fatalf("second prompt missing tightening block: %s", second)
	}
	if !strings.Contains(second, "OOV token in story_text: park") {
		t.Fatalf("feedback must enumerate violations verbatim: %s", second)
	}
}

func TestGenerateStorySchemaParseFailureFeedback(t *testing.T) {
	client := &fakeClient{responses: [][]byte{[]byte("not json"), validPlanJSON(t)}}
	gen := NewGenerator(testLogger(t), client, bank.Default(), "test-model", 3)

	_, attempts, err := gen.GenerateStory(context.Background(), "topic", "A", 0)
	if err != nil {
		t.Fatalf("GenerateStory: %v", err)
	}
	if attempts != 2 {
		t.Fatalf("attempts=%d, want 2", attempts)
	}
	if !strings.Contains(client.prompts[1], "Return strict JSON only matching fields: level, used_words, story_text") {
		t.Fatalf("second prompt missing schema tightening: %s", client.prompts[1])
	}
}

func TestGenerateStoryFeedbackAccumulates(t *testing.T) {
	bad, _ := json.Marshal(StoryPlan{
		Level:     "A",
		UsedWords: []string{"boy", "park"},
		StoryText: "Boy park.",
	})
	client := &fakeClient{responses: [][]byte{[]byte("{"), bad, validPlanJSON(t)}}
	gen := NewGenerator(testLogger(t), client, bank.Default(), "test-model", 3)

	_, attempts, err := gen.GenerateStory(context.Background(), "topic", "A", 0)
	if err != nil {
		t.Fatalf("GenerateStory: %v", err)
	}
	if attempts != 3 {
		t.Fatalf("attempts=%d, want 3", attempts)
	}
	third := client.prompts[2]
	if !strings.Contains(third, "violated the JSON schema") || !strings.Contains(third, "OOV token in story_text: park") {
		t.Fatalf("feedback is cumulative, never reset: %s", third)
	}
}

func TestGenerateStoryExhausted(t *testing.T) {
	bad, _ := json.Marshal(StoryPlan{
		Level:     "A",
		UsedWords: []string{"boy", "park"},
		StoryText: "Boy park.",
	})
	client := &fakeClient{responses: [][]byte{bad, bad, bad}}
	gen := NewGenerator(testLogger(t), client, bank.Default(), "test-model", 3)

	_, attempts, err := gen.GenerateStory(context.Background(), "topic", "A", 3)
	var exhausted *ExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("want ExhaustedError, got %v", err)
	}
	if attempts != 3 || client.calls != 3 {
		t.Fatalf("budget must be fully consumed: attempts=%d calls=%d", attempts, client.calls)
	}
	if exhausted.Attempts != 3 || len(exhausted.Last) == 0 {
		t.Fatalf("exhausted error must carry the last violation list: %+v", exhausted)
	}
	if !strings.Contains(exhausted.Error(), "park") {
		t.Fatalf("terminal error must surface violation details: %s", exhausted.Error())
	}
}

func TestGenerateStoryExhaustedAfterParseFailures(t *testing.T) {
	client := &fakeClient{responses: [][]byte{[]byte("x"), []byte("x")}}
	gen := NewGenerator(testLogger(t), client, bank.Default(), "test-model", 2)

	_, _, err := gen.GenerateStory(context.Background(), "topic", "A", 2)
	var exhausted *ExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("want ExhaustedError, got %v", err)
	}
	if len(exhausted.Last) != 1 || exhausted.Last[0].Kind != ViolationSchema {
		t.Fatalf("terminal failure reason should be the parse-failure marker: %+v", exhausted.Last)
	}
}

func TestGenerateStoryTransportErrorPropagates(t *testing.T) {
	client := &fakeClient{responses: [][]byte{nil}, errs: []error{fmt.Errorf("connection refused")}}
	gen := NewGenerator(testLogger(t), client, bank.Default(), "test-model", 3)

	_, attempts, err := gen.GenerateStory(context.Background(), "topic", "A", 0)
	if err == nil || errors.As(err, new(*ExhaustedError)) {
		t.Fatalf("transport failure should propagate directly, got %v", err)
	}
	if attempts != 1 {
		t.Fatalf("attempts=%d, want 1", attempts)
	}
}

func TestGenerateStoryPromptListsSortedBank(t *testing.T) {
	client := &fakeClient{responses: [][]byte{validPlanJSON(t)}}
	gen := NewGenerator(testLogger(t), client, bank.Default(), "test-model", 3)

	if _, _, err := gen.GenerateStory(context.Background(), "topic", "A", 0); err != nil {
		t.Fatalf("GenerateStory: %v", err)
	}
	prompt := client.prompts[0]
	boy := strings.Index(prompt, "\nboy\n")
	today := strings.Index(prompt, "\ntoday\n")
	if boy == -1 || today == -1 || boy > today {
		t.Fatalf("bank listing must be sorted in the prompt:\n%s", prompt)
	}
}
