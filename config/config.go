package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config holds every setting read from the environment at process start
type Config struct {
	APIPort   string
	RelayPort string
	GinMode   string
	LogLevel  string

	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string

	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration

	// SocketURL is the relay base URL the API pings after leaderboard writes
	SocketURL string
	// PublicSocketURL is the relay URL handed to browsers
	PublicSocketURL string
	NotifyTimeout   time.Duration

	AuthSecret   string
	SessionTTL   time.Duration
	AppURL       string
	AccountsFile string

	Storage StorageConfig

	RateLimitRate  int
	RateLimitBurst int
	SubmissionRate SubmissionRateLimitConfig
}

// StorageConfig describes the S3-compatible bucket holding question images
type StorageConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	PublicURL string
}

// Enabled reports whether object storage is configured
func (s StorageConfig) Enabled() bool {
	return s.Endpoint != "" && s.Bucket != ""
}

var ErrMissingAuthSecret = errors.New("AUTH_SECRET must be set")

// Load reads the optional .env file then the environment
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found, relying on environment variables")
	}

	return &Config{
		APIPort:   getEnv("API_PORT", "8080"),
		RelayPort: getEnv("RELAY_PORT", "4000"),
		GinMode:   getEnv("GIN_MODE", "release"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),

		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "postgres"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "postgres"),
		PostgresDB:       getEnv("POSTGRES_DB", "codewhisperer"),

		RedisHost:     getEnv("REDIS_HOST", ""),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),
		CacheTTL:      getEnvAsDuration("CACHE_TTL", 30*time.Second),

		SocketURL:       getEnv("SOCKET_URL", ""),
		PublicSocketURL: getEnv("NEXT_PUBLIC_SOCKET_URL", ""),
		NotifyTimeout:   getEnvAsDuration("NOTIFY_TIMEOUT", 3*time.Second),

		AuthSecret:   getEnv("AUTH_SECRET", ""),
		SessionTTL:   time.Duration(getEnvAsInt("AUTH_SESSION_HOURS", 24)) * time.Hour,
		AppURL:       getEnv("NEXTAUTH_URL", "http://localhost:3000"),
		AccountsFile: getEnv("ACCOUNTS_FILE", ""),

		Storage: StorageConfig{
			Endpoint:  getEnv("STORAGE_ENDPOINT", ""),
			AccessKey: getEnv("STORAGE_ACCESS_KEY", ""),
			SecretKey: getEnv("STORAGE_SECRET_KEY", ""),
			Bucket:    getEnv("STORAGE_BUCKET", "question-images"),
			UseSSL:    getEnvAsBool("STORAGE_USE_SSL", false),
			PublicURL: getEnv("STORAGE_PUBLIC_URL", ""),
		},

		RateLimitRate:  getEnvAsInt("RATE_LIMIT_RATE", 10000),
		RateLimitBurst: getEnvAsInt("RATE_LIMIT_BURST", 1500),
		SubmissionRate: SubmissionRateLimitConfig{
			AttemptsThreshold1: getEnvAsInt("SUBMISSION_RATE_LIMIT_THRESHOLD_1", DefaultSubmissionRateLimit.AttemptsThreshold1),
			CooldownDuration1:  getEnvAsDuration("SUBMISSION_RATE_LIMIT_COOLDOWN_1", DefaultSubmissionRateLimit.CooldownDuration1),
			AttemptsThreshold2: getEnvAsInt("SUBMISSION_RATE_LIMIT_THRESHOLD_2", DefaultSubmissionRateLimit.AttemptsThreshold2),
			CooldownDuration2:  getEnvAsDuration("SUBMISSION_RATE_LIMIT_COOLDOWN_2", DefaultSubmissionRateLimit.CooldownDuration2),
			Window:             getEnvAsDuration("SUBMISSION_RATE_LIMIT_WINDOW", DefaultSubmissionRateLimit.Window),
		},
	}
}

// Validate checks the settings the API server cannot run without
func (c *Config) Validate() error {
	if c.AuthSecret == "" {
		return ErrMissingAuthSecret
	}
	return nil
}

// PostgresDSN builds the gorm postgres connection string
func (c *Config) PostgresDSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" dbname=" + c.PostgresDB +
		" password=" + c.PostgresPassword +
		" sslmode=disable TimeZone=UTC"
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if value, err := strconv.ParseBool(getEnv(key, "")); err == nil {
		return value
	}
	return fallback
}

// getEnvAsDuration accepts Go durations ("30s") or a bare number of seconds
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}
