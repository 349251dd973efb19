package main

import (
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"library-backend/pkg/logger"
)

func main() {
	// .env is optional; deployed environments set real variables.
	envFileErr := godotenv.Load()

	env := getEnv("APP_ENV", "development")
	if env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	logger.Init(env)

	if envFileErr != nil {
		logger.Debug("no .env file, using process environment")
	}

	if err := Serve(); err != nil {
		log.Fatal().Err(err).Msg("library api stopped")
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
