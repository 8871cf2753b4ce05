package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/kapu/cinematch-kakao-bot-go/internal/constants"
	"github.com/kapu/cinematch-kakao-bot-go/internal/store"
)

type Config struct {
	Iris      IrisConfig
	Kakao     KakaoConfig
	OMDb      OMDbConfig
	Store     StoreConfig
	Redis     RedisConfig
	Postgres  PostgresConfig
	Discovery DiscoveryConfig
	Gemini    GeminiConfig
	OpenAI    OpenAIConfig
	YouTube   YouTubeConfig
	Logging   LoggingConfig
	Bot       BotConfig
}

type IrisConfig struct {
	BaseURL string
	WSURL   string
}

// KakaoConfig lists the rooms the bot answers in. An empty list allows every room.
type KakaoConfig struct {
	Rooms []string
}

type OMDbConfig struct {
	BaseURL           string
	APIKey            string
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
	IMDbTitleURL      string
}

type StoreConfig struct {
	Backend string
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
}

type DiscoveryConfig struct {
	PoolCap       int
	MaxNewDetails int
	PagesPerTerm  int
}

type GeminiConfig struct {
	APIKey string
	Model  string
}

type OpenAIConfig struct {
	APIKey         string
	Model          string
	EnableFallback bool
}

type YouTubeConfig struct {
	APIKey string
}

type LoggingConfig struct {
	Level string
	File  string
}

type BotConfig struct {
	Prefix         string
	Workers        int
	PageSize       int
	SessionTTL     time.Duration
	StatusInterval time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Iris: IrisConfig{
			BaseURL: getEnv("IRIS_BASE_URL", "http://localhost:3000"),
			WSURL:   getEnv("IRIS_WS_URL", "ws://localhost:3000/ws"),
		},
		Kakao: KakaoConfig{
			Rooms: parseCommaSeparated(getEnv("KAKAO_ROOMS", "")),
		},
		OMDb: OMDbConfig{
			BaseURL:           getEnv("OMDB_BASE_URL", constants.APIConfig.OMDbBaseURL),
			APIKey:            getEnv("OMDB_API_KEY", ""),
			Timeout:           getEnvDuration("OMDB_TIMEOUT", constants.APIConfig.OMDbTimeout),
			RequestsPerSecond: getEnvFloat("OMDB_REQUESTS_PER_SECOND", constants.APIConfig.RequestsPerSecond),
			Burst:             getEnvInt("OMDB_BURST", constants.APIConfig.Burst),
			IMDbTitleURL:      getEnv("IMDB_TITLE_URL", constants.APIConfig.IMDbTitleURL),
		},
		Store: StoreConfig{
			Backend: strings.ToLower(getEnv("STORE_BACKEND", store.BackendRedis)),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Postgres: PostgresConfig{
			Host:     getEnv("POSTGRES_HOST", "localhost"),
			Port:     getEnvInt("POSTGRES_PORT", 5432),
			User:     getEnv("POSTGRES_USER", "cinematch"),
			Password: getEnv("POSTGRES_PASSWORD", ""),
			Database: getEnv("POSTGRES_DB", "cinematch"),
		},
		Discovery: DiscoveryConfig{
			PoolCap:       getEnvInt("POOL_CAP", constants.DiscoveryConfig.PoolCap),
			MaxNewDetails: getEnvInt("MAX_NEW_DETAILS", constants.DiscoveryConfig.MaxNewDetails),
			PagesPerTerm:  getEnvInt("PAGES_PER_TERM", constants.DiscoveryConfig.PagesPerTerm),
		},
		Gemini: GeminiConfig{
			APIKey: getEnv("GEMINI_API_KEY", ""),
			Model:  getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		},
		OpenAI: OpenAIConfig{
			APIKey:         getEnv("OPENAI_API_KEY", ""),
			Model:          getEnv("OPENAI_MODEL", "gpt-5-mini"),
			EnableFallback: getEnvBool("OPENAI_ENABLE_FALLBACK", true),
		},
		YouTube: YouTubeConfig{
			APIKey: getEnv("YOUTUBE_API_KEY", ""),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
			File:  getEnv("LOG_FILE", "logs/bot.log"),
		},
		Bot: BotConfig{
			Prefix:         getEnv("BOT_PREFIX", "!"),
			Workers:        getEnvInt("BOT_WORKERS", 4),
			PageSize:       getEnvInt("SHOW_MORE_STEP", constants.PaginationConfig.ItemsPerPage),
			SessionTTL:     getEnvDuration("SESSION_TTL", constants.PaginationConfig.SessionTTL),
			StatusInterval: getEnvDuration("STATUS_INTERVAL", 10*time.Second),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Iris.BaseURL == "" {
		return fmt.Errorf("IRIS_BASE_URL is required")
	}
	if c.Iris.WSURL == "" {
		return fmt.Errorf("IRIS_WS_URL is required")
	}
	switch c.Store.Backend {
	case store.BackendRedis, store.BackendPostgres, store.BackendMemory:
	default:
		return fmt.Errorf("STORE_BACKEND must be one of redis, postgres, memory (got %q)", c.Store.Backend)
	}
	if c.Discovery.PoolCap <= 0 {
		return fmt.Errorf("POOL_CAP must be positive")
	}
	if c.Discovery.MaxNewDetails < 0 {
		return fmt.Errorf("MAX_NEW_DETAILS must not be negative")
	}
	if c.Discovery.PagesPerTerm <= 0 {
		return fmt.Errorf("PAGES_PER_TERM must be positive")
	}
	if c.Bot.PageSize <= 0 {
		return fmt.Errorf("SHOW_MORE_STEP must be positive")
	}
	if c.Bot.Workers <= 0 {
		return fmt.Errorf("BOT_WORKERS must be positive")
	}
	return nil
}

// StoreOptions converts the store sections into store.New options.
func (c *Config) StoreOptions() store.Options {
	return store.Options{
		Backend: c.Store.Backend,
		Redis: store.RedisConfig{
			Host:     c.Redis.Host,
			Port:     c.Redis.Port,
			Password: c.Redis.Password,
			DB:       c.Redis.DB,
		},
		Postgres: store.PostgresConfig{
			Host:     c.Postgres.Host,
			Port:     c.Postgres.Port,
			User:     c.Postgres.User,
			Password: c.Postgres.Password,
			Database: c.Postgres.Database,
		},
	}
}

// AIEnabled reports whether natural-language requests can be parsed.
func (c *Config) AIEnabled() bool {
	return c.Gemini.APIKey != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

// getEnvDuration accepts Go durations ("30s") or plain seconds.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}
	return defaultValue
}

func parseCommaSeparated(value string) []string {
	if value == "" {
		return []string{}
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
