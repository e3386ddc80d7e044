package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/storysign/storysign-backend/internal/platform/logger"
	"github.com/storysign/storysign-backend/internal/story"
	"github.com/storysign/storysign-backend/internal/story/bank"
)

// StoryGenerator is what the handler needs from the orchestrator; tests
// substitute a stub.
type StoryGenerator interface {
	GenerateStory(ctx context.Context, topic string, level bank.Level, maxRetries int) (*story.StoryPlan, int, error)
	Bank() *bank.Bank
}

type StoryHandler struct {
	log *logger.Logger
	gen StoryGenerator
}

func NewStoryHandler(log *logger.Logger, gen StoryGenerator) *StoryHandler {
	return &StoryHandler{
		log: log.With("handler", "StoryHandler"),
		gen: gen,
	}
}

func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type generateStoryRequest struct {
	Topic      string `json:"topic" binding:"required"`
	Level      string `json:"level" binding:"required"`
	MaxRetries int    `json:"max_retries"`
}

type generateStoryResponse struct {
	Level     bank.Level `json:"level"`
	UsedWords []string   `json:"used_words"`
	StoryText string     `json:"story_text"`
	Sentences []string   `json:"sentences"`
	Attempts  int        `json:"attempts"`
}

func (h *StoryHandler) Generate(c *gin.Context) {
	var req generateStoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "topic and level are required"})
		return
	}

	plan, attempts, err := h.gen.GenerateStory(c.Request.Context(), req.Topic, bank.Level(req.Level), req.MaxRetries)
	if err != nil {
		if errors.Is(err, story.ErrInvalidLevel) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":        err.Error(),
				"known_levels": h.gen.Bank().Levels(),
			})
			return
		}
		var exhausted *story.ExhaustedError
		if errors.As(err, &exhausted) {
			h.log.Warn("story generation exhausted retries", "topic", req.Topic, "level", req.Level, "attempts", exhausted.Attempts)
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":      "story generation did not converge",
				"attempts":   exhausted.Attempts,
				"violations": exhausted.Last,
			})
			return
		}
		h.log.Error("story generation failed", "topic", req.Topic, "level", req.Level, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "model call failed"})
		return
	}

	c.JSON(http.StatusOK, generateStoryResponse{
		Level:     plan.Level,
		UsedWords: plan.UsedWords,
		StoryText: plan.StoryText,
		Sentences: plan.Sentences,
		Attempts:  attempts,
	})
}

type levelInfo struct {
	Level        bank.Level `json:"level"`
	Words        int        `json:"words"`
	MaxTokens    int        `json:"max_tokens"`
	MaxSentences int        `json:"max_sentences"`
}

func (h *StoryHandler) Levels(c *gin.Context) {
	b := h.gen.Bank()
	out := []levelInfo{}
	for _, l := range b.Levels() {
		policy, _ := b.PolicyFor(l)
		out = append(out, levelInfo{
			Level:        l,
			Words:        len(b.Words(l)),
			MaxTokens:    policy.MaxTokens,
			MaxSentences: policy.MaxSentences,
		})
	}
	c.JSON(http.StatusOK, gin.H{"levels": out})
}
