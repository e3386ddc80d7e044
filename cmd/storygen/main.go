package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/storysign/storysign-backend/internal/platform/gemini"
	"github.com/storysign/storysign-backend/internal/platform/logger"
	"github.com/storysign/storysign-backend/internal/story"
	"github.com/storysign/storysign-backend/internal/story/bank"
	"github.com/storysign/storysign-backend/internal/utils"
)

func main() {
	topicFlag := flag.String("topic", "", "story topic (prompted on stdin when empty)")
	levelFlag := flag.String("level", "", "difficulty level (prompted on stdin when empty)")
	model := flag.String("model", "", "model identifier (defaults to GEMINI_MODEL or gemini-2.0-flash)")
	retries := flag.Int("retries", 0, "attempt budget (defaults to STORY_MAX_RETRIES or 3)")
	bankPath := flag.String("bank", "", "word bank YAML file (defaults to the embedded bank)")
	flag.Parse()

	log, err := logger.New(utils.GetEnv("APP_ENV", "prod", nil))
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	b := bank.Default()
	if *bankPath != "" {
		b, err = bank.LoadFile(*bankPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "load word bank: %v\n", err)
			os.Exit(1)
		}
	}

	reader := bufio.NewReader(os.Stdin)
	topic := strings.TrimSpace(*topicFlag)
	if topic == "" {
		fmt.Print("Enter your story Topic: ")
		topic = readLine(reader)
	}
	level := strings.TrimSpace(*levelFlag)
	if level == "" {
		fmt.Print("Enter text difficulty: ")
		level = readLine(reader)
	}

	if !b.Valid(bank.Level(level)) {
		fmt.Fprintf(os.Stderr, "Bad level %q (known: %v)\n", level, b.Levels())
		os.Exit(1)
	}

	client, err := gemini.NewClient(log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	modelID := *model
	if modelID == "" {
		modelID = utils.GetEnv("GEMINI_MODEL", "gemini-2.0-flash", nil)
	}
	maxRetries := *retries
	if maxRetries <= 0 {
		maxRetries = utils.GetEnvAsInt("STORY_MAX_RETRIES", story.DefaultMaxRetries, nil)
	}

	gen := story.NewGenerator(log, client, b, modelID, maxRetries)
	plan, attempts, err := gen.GenerateStory(context.Background(), topic, bank.Level(level), maxRetries)
	if err != nil {
		var exhausted *story.ExhaustedError
		if errors.As(err, &exhausted) {
			fmt.Fprintf(os.Stderr, "Could not generate a valid story in %d attempts. Last violations:\n", exhausted.Attempts)
			for _, v := range exhausted.Last {
				fmt.Fprintf(os.Stderr, "  - %s\n", v.Detail)
			}
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	out, err := json.MarshalIndent(plan, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "encode plan: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(out))
	fmt.Printf("Attempts: %d\n", attempts)
}

func readLine(r *bufio.Reader) string {
	line, _ := r.ReadString('\n')
	return strings.TrimSpace(line)
}
