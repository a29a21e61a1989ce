package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort        string
	TesseractDataPath string
	PaddleAPIURL      string
	HistoryDBPath     string
	TemplatePath      string
	MaxFileSize       int64
}

func LoadConfig() *Config {
	// Load .env if present; deployed environments set variables directly
	_ = godotenv.Load()

	return &Config{
		ServerPort:        getEnv("SERVER_PORT", "8080"),
		TesseractDataPath: getEnv("TESSDATA_PREFIX", "/usr/share/tesseract-ocr/4.00/tessdata"),
		PaddleAPIURL:      getEnv("PADDLEOCR_API_URL", "http://paddleocr:8866/predict/ocr_system"),
		HistoryDBPath:     getEnv("HISTORY_DB_PATH", "bills.db"),
		TemplatePath:      getEnv("BILL_TEMPLATE_PATH", ""),
		MaxFileSize:       getEnvInt64("MAX_FILE_SIZE", 10*1024*1024), // 10 MB
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		log.Printf("WARN: invalid value %q for %s, using default %d", raw, key, fallback)
		return fallback
	}
	return value
}
