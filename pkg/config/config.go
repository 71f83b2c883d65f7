package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port           string
	Env            string
	MongoURI       string
	MongoDB        string
	JWTSecret      string
	OpenAIAPIKey   string
	FileUploadPath string
	MaxFileUpload  int64
}

func Load() *Config {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, assuming environment variables are set.")
	}

	return &Config{
		Port:           getEnv("PORT", "5000"),
		Env:            getEnv("ENV", "development"),
		MongoURI:       getEnv("MONGO_URI", ""),
		MongoDB:        getEnv("MONGO_DB", "meshvault"),
		JWTSecret:      getEnv("JWT_SECRET", ""),
		OpenAIAPIKey:   getEnv("OPENAI_API_KEY", ""),
		FileUploadPath: getEnv("FILE_UPLOAD_PATH", "./public/uploads"),
		MaxFileUpload:  getEnvInt64("MAX_FILE_UPLOAD", 10*1024*1024),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseInt(value, 10, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}
