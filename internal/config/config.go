// Package config loads carewatch settings from the environment.
package config

import (
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store backends.
const (
	StoreSurrealDB = "surrealdb"
	StoreMemory    = "memory"
)

// LLM providers for caretaker notifications.
const (
	ProviderNone      = "none"
	ProviderOllama    = "ollama"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderBedrock   = "bedrock"
)

// Config holds all configuration values.
type Config struct {
	// SurrealDB connection
	SurrealDBURL       string
	SurrealDBNamespace string
	SurrealDBDatabase  string
	SurrealDBUser      string
	SurrealDBPass      string
	SurrealDBAuthLevel string

	// Store selects "surrealdb" or "memory" (development only, data is lost on exit)
	Store string

	// HTTP server
	ServerPort  string
	CORSOrigins []string

	// Sessions
	JWTSecret string
	TokenTTL  time.Duration

	// Monitors
	ModelDir string
	TimeZone *time.Location

	// Caretaker notifications
	LLMProvider     string
	LLMModel        string
	OllamaHost      string
	OpenAIAPIKey    string
	AnthropicAPIKey string
	AWSRegion       string

	// Wearable ingest (disabled when broker is empty)
	MQTTBroker   string
	MQTTClientID string
	MQTTTopic    string

	// Device scan
	ScanTimeout time.Duration

	// Logging
	LogFile  string
	LogLevel slog.Level

	// CLI
	ServerURL string
	TokenFile string
}

// Load reads configuration from environment variables.
// A .env file in the working directory is read first; real environment
// variables take precedence over it.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		SurrealDBURL:       getEnv("SURREALDB_URL", "ws://localhost:8000/rpc"),
		SurrealDBNamespace: getEnv("SURREALDB_NAMESPACE", "carewatch"),
		SurrealDBDatabase:  getEnv("SURREALDB_DATABASE", "care"),
		SurrealDBUser:      getEnv("SURREALDB_USER", "root"),
		SurrealDBPass:      getEnv("SURREALDB_PASS", "root"),
		SurrealDBAuthLevel: getEnv("SURREALDB_AUTH_LEVEL", "root"),
		Store:              strings.ToLower(getEnv("CAREWATCH_STORE", StoreSurrealDB)),

		ServerPort:  getEnv("CAREWATCH_SERVER_PORT", "8585"),
		CORSOrigins: splitList(getEnv("CAREWATCH_CORS_ORIGINS", "http://localhost:5173")),

		JWTSecret: getEnv("CAREWATCH_JWT_SECRET", ""),
		TokenTTL:  parseDuration(getEnv("CAREWATCH_TOKEN_TTL", "24h"), 24*time.Hour),

		ModelDir: getEnv("CAREWATCH_MODEL_DIR", "models"),
		TimeZone: parseLocation(getEnv("CAREWATCH_TIMEZONE", "Local")),

		LLMProvider:     strings.ToLower(getEnv("CAREWATCH_LLM_PROVIDER", ProviderNone)),
		LLMModel:        getEnv("CAREWATCH_LLM_MODEL", "llama3.2"),
		OllamaHost:      getEnv("OLLAMA_HOST", "http://localhost:11434"),
		OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
		AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),
		AWSRegion:       getEnv("AWS_REGION", "us-east-1"),

		MQTTBroker:   getEnv("CAREWATCH_MQTT_BROKER", ""),
		MQTTClientID: getEnv("CAREWATCH_MQTT_CLIENT_ID", ""),
		MQTTTopic:    getEnv("CAREWATCH_MQTT_TOPIC", "carewatch/+/+"),

		ScanTimeout: parseDuration(getEnv("CAREWATCH_SCAN_TIMEOUT", "5s"), 5*time.Second),

		LogFile:  getEnv("CAREWATCH_LOG_FILE", "/tmp/carewatch.log"),
		LogLevel: parseLogLevel(getEnv("CAREWATCH_LOG_LEVEL", "INFO")),

		ServerURL: getEnv("CAREWATCH_SERVER_URL", "http://localhost:8585"),
		TokenFile: getEnv("CAREWATCH_TOKEN_FILE", defaultTokenFile()),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func parseLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		slog.Warn("unknown time zone, using local", "timezone", name, "error", err)
		return time.Local
	}
	return loc
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func defaultTokenFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".carewatch-token"
	}
	return dir + "/carewatch/token"
}
