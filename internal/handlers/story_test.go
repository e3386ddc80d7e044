package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/storysign/storysign-backend/internal/platform/logger"
	"github.com/storysign/storysign-backend/internal/story"
	"github.com/storysign/storysign-backend/internal/story/bank"
)

type stubGenerator struct {
	plan     *story.StoryPlan
	attempts int
	err      error
	bank     *bank.Bank
}

func (s *stubGenerator) GenerateStory(ctx context.Context, topic string, level bank.Level, maxRetries int) (*story.StoryPlan, int, error) {
	return s.plan, s.attempts, s.err
}

func (s *stubGenerator) Bank() *bank.Bank { return s.bank }

func newTestHandler(t *testing.T, gen StoryGenerator) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log, err := logger.New("dev")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	h := NewStoryHandler(log, gen)

	r := gin.New()
	r.GET("/healthcheck", HealthCheck)
	r.GET("/v1/levels", h.Levels)
	r.POST("/v1/stories", h.Generate)
	return r
}

func TestGenerateOK(t *testing.T) {
	gen := &stubGenerator{
		plan: &story.StoryPlan{
			Level:     "A",
			UsedWords: []string{"today", "boy", "run", "happy"},
			StoryText: "Today boy run. Boy happy.",
			Sentences: []string{"Today boy run", "Boy happy"},
		},
		attempts: 2,
		bank:     bank.Default(),
	}
	r := newTestHandler(t, gen)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/stories", strings.NewReader(`{"topic":"boy runs","level":"A"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var resp struct {
		Level     string   `json:"level"`
		UsedWords []string `json:"used_words"`
		StoryText string   `json:"story_text"`
		Sentences []string `json:"sentences"`
		Attempts  int      `json:"attempts"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Level != "A" || resp.Attempts != 2 || len(resp.Sentences) != 2 {
		t.Fatalf("unexpected body: %+v", resp)
	}
}

func TestGenerateMissingFields(t *testing.T) {
	r := newTestHandler(t, &stubGenerator{bank: bank.Default()})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/stories", strings.NewReader(`{"topic":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d, want 400", w.Code)
	}
}

func TestGenerateInvalidLevel(t *testing.T) {
	gen := &stubGenerator{err: story.ErrInvalidLevel, bank: bank.Default()}
	r := newTestHandler(t, gen)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/stories", strings.NewReader(`{"topic":"x","level":"Z"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d, want 400", w.Code)
	}
	if !strings.Contains(w.Body.String(), "known_levels") {
		t.Fatalf("body should list known levels: %s", w.Body.String())
	}
}

func TestGenerateExhausted(t *testing.T) {
	gen := &stubGenerator{
		err: &story.ExhaustedError{
			Attempts: 3,
			Last:     []story.Violation{{Kind: story.ViolationTokenOOV, Detail: "OOV token in story_text: park"}},
		},
		bank: bank.Default(),
	}
	r := newTestHandler(t, gen)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/stories", strings.NewReader(`{"topic":"x","level":"A"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status=%d, want 422", w.Code)
	}
	if !strings.Contains(w.Body.String(), "park") {
		t.Fatalf("terminal failure must surface violations: %s", w.Body.String())
	}
}

func TestGenerateModelFailure(t *testing.T) {
	gen := &stubGenerator{err: context.DeadlineExceeded, bank: bank.Default()}
	r := newTestHandler(t, gen)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/stories", strings.NewReader(`{"topic":"x","level":"A"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadGateway {
		t.Fatalf("status=%d, want 502", w.Code)
	}
}

func TestLevels(t *testing.T) {
	r := newTestHandler(t, &stubGenerator{bank: bank.Default()})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/levels", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	var resp struct {
		Levels []struct {
			Level        string `json:"level"`
			Words        int    `json:"words"`
			MaxTokens    int    `json:"max_tokens"`
			MaxSentences int    `json:"max_sentences"`
		} `json:"levels"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Levels) != 8 || resp.Levels[0].Level != "A" || resp.Levels[0].MaxTokens != 40 {
		t.Fatalf("unexpected levels payload: %+v", resp.Levels)
	}
}

func TestHealthCheck(t *testing.T) {
	r := newTestHandler(t, &stubGenerator{bank: bank.Default()})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthcheck", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
}
