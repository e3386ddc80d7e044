package app

import (
	"strings"

	"github.com/storysign/storysign-backend/internal/platform/logger"
	"github.com/storysign/storysign-backend/internal/utils"
)

type Config struct {
	Env          string
	Addr         string
	Model        string
	MaxRetries   int
	WordBankPath string
	AllowOrigins []string
}

func LoadConfig(log *logger.Logger) Config {
	env := utils.GetEnv("APP_ENV", "dev", log)
	addr := utils.GetEnv("HTTP_ADDR", ":8080", log)
	model := utils.GetEnv("GEMINI_MODEL", "gemini-2.0-flash", log)
	maxRetries := utils.GetEnvAsInt("STORY_MAX_RETRIES", 3, log)
	// Empty means the embedded default bank.
	bankPath := utils.GetEnv("WORD_BANK_PATH", "", log)
	origins := utils.GetEnv("CORS_ALLOW_ORIGINS", "http://localhost:3000", log)

	allowOrigins := []string{}
	for _, o := range strings.Split(origins, ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			allowOrigins = append(allowOrigins, o)
		}
	}

	return Config{
		Env:          env,
		Addr:         addr,
		Model:        model,
		MaxRetries:   maxRetries,
		WordBankPath: bankPath,
		AllowOrigins: allowOrigins,
	}
}
