package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Default export URL of the published CNTSCI distribution sheet. Overridable
// via SHEET_URL for staging copies.
const defaultSheetURL = "https://docs.google.com/spreadsheets/d/1iHaD6NfDQ0xKJP9lhhGdNn3eakmT1qUvu-YIL7kBXWg/export?format=csv"

type Config struct {
	Host         string
	Port         int
	AllowOrigins []string
	LogLevel     string
	LogFile      string
	MaxUploadMB  int
	SheetURL     string
	FetchTimeout time.Duration
	GeminiAPIKey string
	GeminiModel  string
	JWTSecret    string
}

func Load() Config {
	port, _ := strconv.Atoi(getenv("PORT", "8083"))
	mb, _ := strconv.Atoi(getenv("MAX_UPLOAD_MB", "64"))
	fetchSec, _ := strconv.Atoi(getenv("FETCH_TIMEOUT_SEC", "30"))
	origins := strings.Split(getenv("ALLOW_ORIGINS", "*"), ",")
	return Config{
		Host:         getenv("HOST", "127.0.0.1"),
		Port:         port,
		AllowOrigins: origins,
		LogLevel:     getenv("LOG_LEVEL", "info"),
		LogFile:      getenv("LOG_FILE", "logs/hemostats.log"),
		MaxUploadMB:  mb,
		SheetURL:     getenv("SHEET_URL", defaultSheetURL),
		FetchTimeout: time.Duration(fetchSec) * time.Second,
		GeminiAPIKey: getenv("GEMINI_API_KEY", ""),
		GeminiModel:  getenv("GEMINI_MODEL", "gemini-3-flash-preview"),
		JWTSecret:    getenv("JWT_SECRET", "hemostats-dev-secret"),
	}
}

func (c Config) Addr() string { return fmt.Sprintf("%s:%d", c.Host, c.Port) }

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
