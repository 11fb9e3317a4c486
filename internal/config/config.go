package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port      string
	Env       string
	LogLevel  string
	LogFormat string

	// Completion provider
	LLMProvider         string
	LLMFallbackProvider string
	BedrockModelID      string
	OpenAIAPIKey        string
	OpenAIModel         string
	OpenAIBaseURL       string
	AnthropicAPIKey     string
	AnthropicModel      string
	GeminiAPIKey        string
	GeminiModel         string
	LLMMaxTokens        int
	CollectTemperature  float64
	ExtractTemperature  float64
	GenerateTemperature float64

	// Session behaviour
	ScenarioParallel bool
	TestingMode      bool
	SessionTTL       time.Duration
	LockTTL          time.Duration
	CompletionCode   string
	PersonaFile      string

	// Storage
	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string
	PackageTable        string
	ArchiveBucket       string
	PackageQueueURL     string
	DatabaseURL         string
	RedisAddr           string
	RedisPassword       string
	RedisTLS            bool

	// HTTP
	CORSAllowedOrigins []string
	AdminJWTSecret     string
	RateLimitRPS       float64
	RateLimitBurst     int
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:      getEnv("PORT", "8080"),
		Env:       getEnv("ENV", "development"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		LLMProvider:         strings.ToLower(strings.TrimSpace(getEnv("LLM_PROVIDER", "bedrock"))),
		LLMFallbackProvider: strings.ToLower(strings.TrimSpace(getEnv("LLM_FALLBACK_PROVIDER", ""))),
		BedrockModelID:      getEnv("BEDROCK_MODEL_ID", ""),
		OpenAIAPIKey:        getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:         getEnv("OPENAI_MODEL", "gpt-4o"),
		OpenAIBaseURL:       getEnv("OPENAI_BASE_URL", ""),
		AnthropicAPIKey:     getEnv("ANTHROPIC_API_KEY", ""),
		AnthropicModel:      getEnv("ANTHROPIC_MODEL", "claude-sonnet-4-5"),
		GeminiAPIKey:        getEnv("GEMINI_API_KEY", ""),
		GeminiModel:         getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		LLMMaxTokens:        getEnvAsInt("LLM_MAX_TOKENS", 1024),
		CollectTemperature:  getEnvAsFloat("COLLECT_TEMPERATURE", 0.3),
		ExtractTemperature:  getEnvAsFloat("EXTRACT_TEMPERATURE", 0.1),
		GenerateTemperature: getEnvAsFloat("GENERATE_TEMPERATURE", 0.3),

		ScenarioParallel: getEnvAsBool("SCENARIO_PARALLEL", true),
		TestingMode:      getEnvAsBool("TESTING_MODE", false),
		SessionTTL:       getEnvAsDuration("SESSION_TTL", 24*time.Hour),
		LockTTL:          getEnvAsDuration("SESSION_LOCK_TTL", 2*time.Minute),
		CompletionCode:   getEnv("COMPLETION_CODE", ""),
		PersonaFile:      getEnv("PERSONA_FILE", ""),

		AWSRegion:           getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),
		PackageTable:        getEnv("PACKAGE_TABLE", ""),
		ArchiveBucket:       getEnv("ARCHIVE_BUCKET", ""),
		PackageQueueURL:     getEnv("PACKAGE_QUEUE_URL", ""),
		DatabaseURL:         getEnv("DATABASE_URL", ""),
		RedisAddr:           getEnv("REDIS_ADDR", ""),
		RedisPassword:       getEnv("REDIS_PASSWORD", ""),
		RedisTLS:            getEnvAsBool("REDIS_TLS", false),

		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS"),
		AdminJWTSecret:     getEnv("ADMIN_JWT_SECRET", ""),
		RateLimitRPS:       getEnvAsFloat("RATE_LIMIT_RPS", 5),
		RateLimitBurst:     getEnvAsInt("RATE_LIMIT_BURST", 20),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsList(key string) []string {
	raw := getEnv(key, "")
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
