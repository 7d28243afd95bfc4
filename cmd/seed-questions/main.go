package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/grupovial/drivetest-backend/internal/config"
	"github.com/grupovial/drivetest-backend/internal/database"
	"github.com/grupovial/drivetest-backend/internal/logger"
	"github.com/grupovial/drivetest-backend/internal/model"
	"github.com/grupovial/drivetest-backend/internal/repository"
)

// seedFile is the JSON layout the seeder consumes: an optional image bank
// plus the question bank, options inline.
type seedFile struct {
	Images    []seedImage    `json:"images"`
	Questions []seedQuestion `json:"questions"`
}

type seedImage struct {
	Code string `json:"code"`
	Path string `json:"path"`
}

type seedQuestion struct {
	Prompt    string       `json:"prompt"`
	ImageCode *string      `json:"image_code"`
	Topic     *string      `json:"topic"`
	Options   []seedOption `json:"options"`
}

type seedOption struct {
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct"`
}

func main() {
	var seedPath string
	flag.StringVar(&seedPath, "file", "seed/questions.json", "Path to the question seed file")
	flag.Parse()

	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	raw, err := os.ReadFile(seedPath)
	if err != nil {
		log.Fatal().Err(err).Str("file", seedPath).Msg("Failed to read seed file")
	}

	var seed seedFile
	if err := json.Unmarshal(raw, &seed); err != nil {
		log.Fatal().Err(err).Msg("Failed to parse seed file")
	}

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	questionRepo := repository.NewQuestionRepository(pool)

	fmt.Printf("=== Seeding %d images and %d questions ===\n", len(seed.Images), len(seed.Questions))

	for _, img := range seed.Images {
		if err := questionRepo.UpsertImage(ctx, img.Code, img.Path); err != nil {
			log.Fatal().Err(err).Str("code", img.Code).Msg("Failed to register image")
		}
	}

	successCount := 0
	for i, sq := range seed.Questions {
		correct := 0
		options := make([]model.AnswerOption, len(sq.Options))
		for j, o := range sq.Options {
			if o.IsCorrect {
				correct++
			}
			options[j] = model.AnswerOption{Text: o.Text, IsCorrect: o.IsCorrect}
		}
		if correct != 1 {
			fmt.Printf("Skipping question %d: needs exactly one correct option, has %d\n", i+1, correct)
			continue
		}

		question := &model.Question{
			Prompt:    sq.Prompt,
			ImageCode: sq.ImageCode,
			Topic:     sq.Topic,
		}
		if err := questionRepo.CreateWithOptions(ctx, question, options); err != nil {
			fmt.Printf("Error creating question %d: %v\n", i+1, err)
			continue
		}

		successCount++
		if successCount%25 == 0 {
			fmt.Printf("Created %d questions...\n", successCount)
		}
	}

	fmt.Printf("\nSeed completed! Successfully added %d/%d questions.\n", successCount, len(seed.Questions))
}
