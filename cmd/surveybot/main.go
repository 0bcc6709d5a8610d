package main

import (
	"log"

	"github.com/joho/godotenv"

	corecmd "github.com/arashpd/surveybot/core/cmd"
	"github.com/arashpd/surveybot/internal/bot"
)

func main() {
	// Local development convenience; missing .env is fine.
	_ = godotenv.Load()

	err := corecmd.Run(corecmd.Options{
		DefaultConfigPath: "config.yaml",
		LoadConfig:        bot.LoadConfig,
		Bootstrap:         bot.Bootstrap,
	})
	if err != nil {
		log.Fatalf("surveybot: %v", err)
	}
}
