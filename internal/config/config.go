package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig holds all configuration for the application
type AppConfig struct {
	Host           string
	Port           string
	SemaphoreLimit int

	LogDir   string
	LogLevel string

	// Search provider selection and credentials
	SearchEngine string
	SerperAPIKey string
	SerpAPIKey   string
	BraveAPIKey  string

	// Chat completion endpoint and per-stage model names
	OpenAIAPIKey      string
	OpenAIBaseURL     string
	QueryRewriteModel string
	OutlineModel      string
	AnswerModel       string

	NQueries          int
	NumOutputPerQuery int
	// Extra domains excluded from search results on top of the built-in list
	ExcludeDomains []string

	UseDBContent    bool
	SaveContentToDB bool
	DBPath          string

	CacheBackend   string
	SearchCacheTTL int
	RedisAddr      string
	RedisPassword  string
	RedisDB        int

	YouTubeAPIKey string

	WorkerPoolSize  int
	WorkerQueueSize int
}

// LoadConfig loads configuration from .env file and environment variables
func LoadConfig() (*AppConfig, error) {
	// Attempt to load .env file. If it doesn't exist, that's fine,
	// environment variables can still be used.
	if err := godotenv.Load(); err != nil {
		fmt.Printf("Info: Could not load .env file: %v (this is ok if using environment variables)\n", err)
	}

	config := &AppConfig{
		Host:           getEnv("APP_HOST", "0.0.0.0"),
		Port:           getEnv("APP_PORT", "9004"),
		SemaphoreLimit: getEnvAsInt("SEMAPHORE_LIMIT", 300),

		LogDir:   os.Getenv("LOG_DIR"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		SearchEngine: getEnv("SEARCH_ENGINE", "serper"),
		SerperAPIKey: os.Getenv("SERPER_API_KEY"),
		SerpAPIKey:   os.Getenv("SERP_API_KEY"),
		BraveAPIKey:  os.Getenv("BRAVE_API_KEY"),

		OpenAIAPIKey:      os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:     os.Getenv("OPENAI_BASE_URL"),
		QueryRewriteModel: getEnv("QUERY_REWRITE_MODEL", "gpt-4.1-nano"),
		OutlineModel:      getEnv("OUTLINE_MODEL", "gpt-4.1-nano"),
		AnswerModel:       getEnv("ANSWER_MODEL", "gemini-2.5-flash"),

		NQueries:          getEnvAsInt("N_QUERIES", 3),
		NumOutputPerQuery: getEnvAsInt("NUM_OUTPUT_PER_QUERY", 20),
		ExcludeDomains:    getEnvAsSlice("EXCLUDE_DOMAINS"),

		UseDBContent:    getEnvAsBool("USE_DB_CONTENT", false),
		SaveContentToDB: getEnvAsBool("SAVE_CONTENT_TO_DB", false),
		DBPath:          getEnv("DB_PATH", "data/webcrawl.db"),

		CacheBackend:   getEnv("CACHE_BACKEND", "memory"),
		SearchCacheTTL: getEnvAsInt("SEARCH_CACHE_TTL", 600),
		RedisAddr:      getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),
		RedisDB:        getEnvAsInt("REDIS_DB", 0),

		YouTubeAPIKey: os.Getenv("YOUTUBE_API_KEY"),

		WorkerPoolSize:  getEnvAsInt("WORKER_POOL_SIZE", 32),
		WorkerQueueSize: getEnvAsInt("WORKER_QUEUE_SIZE", 256),
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate checks that the configuration is valid
func (c *AppConfig) Validate() error {
	if _, err := strconv.Atoi(c.Port); err != nil {
		return fmt.Errorf("invalid port number: %s", c.Port)
	}

	validEngines := map[string]bool{
		"serper":     true,
		"serpapi":    true,
		"brave":      true,
		"duckduckgo": true,
	}
	if !validEngines[c.SearchEngine] {
		return fmt.Errorf("invalid search engine: %s (must be 'serper', 'serpapi', 'brave', or 'duckduckgo')", c.SearchEngine)
	}

	validBackends := map[string]bool{
		"memory":  true,
		"sharded": true,
		"redis":   true,
	}
	if !validBackends[c.CacheBackend] {
		return fmt.Errorf("invalid cache backend: %s (must be 'memory', 'sharded', or 'redis')", c.CacheBackend)
	}

	if c.NQueries < 1 {
		return fmt.Errorf("N_QUERIES must be at least 1, got %d", c.NQueries)
	}
	if c.SemaphoreLimit < 1 {
		return fmt.Errorf("SEMAPHORE_LIMIT must be at least 1, got %d", c.SemaphoreLimit)
	}

	// Warn about missing credentials for the selected providers. The server
	// still starts so local development against stubs stays possible.
	switch c.SearchEngine {
	case "serper":
		if c.SerperAPIKey == "" {
			fmt.Println("Warning: SERPER_API_KEY not set - serper searches will fail")
		}
	case "serpapi":
		if c.SerpAPIKey == "" {
			fmt.Println("Warning: SERP_API_KEY not set - serpapi searches will fail")
		}
	case "brave":
		if c.BraveAPIKey == "" {
			fmt.Println("Warning: BRAVE_API_KEY not set - brave searches will fail")
		}
	}

	if c.OpenAIAPIKey == "" {
		fmt.Println("Warning: OPENAI_API_KEY not set - model calls will fail")
	}

	if c.YouTubeAPIKey == "" {
		fmt.Println("Warning: YOUTUBE_API_KEY not set - YouTube titles will be omitted from transcripts")
	}

	return nil
}

// GetPort returns the port as an integer
func (c *AppConfig) GetPort() int {
	port, _ := strconv.Atoi(c.Port) // Already validated in Validate()
	return port
}

// Addr returns the host:port the server listens on
func (c *AppConfig) Addr() string {
	return c.Host + ":" + c.Port
}

// CacheTTL returns the search cache expiry as a duration
func (c *AppConfig) CacheTTL() time.Duration {
	return time.Duration(c.SearchCacheTTL) * time.Second
}

// HasYouTubeConfig returns true if YouTube Data API configuration is available
func (c *AppConfig) HasYouTubeConfig() bool {
	return c.YouTubeAPIKey != ""
}

// HasRedisConfig returns true if a Redis address is configured
func (c *AppConfig) HasRedisConfig() bool {
	return c.RedisAddr != ""
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvAsInt gets an environment variable as an integer or returns a default
func getEnvAsInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

// getEnvAsBool gets an environment variable as a boolean or returns a default
func getEnvAsBool(key string, fallback bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}

// getEnvAsSlice splits a comma-separated environment variable, dropping
// empty entries
func getEnvAsSlice(key string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
