package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // REMINDER_TIMEZONE must resolve on minimal Lambda images too

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	DatabaseURL        string
	Port               string
	GoEnv              string
	JWTSecret          string
	JWTIssuer          string
	JWTAudience        string
	TokenTTL           time.Duration
	AWSRegion          string
	AWSS3Bucket        string
	AWSAccessKeyID     string
	AWSSecretAccessKey string
	UploadDir          string
	RedisURL           string
	KafkaBrokers       []string
	KafkaTopic         string
	ElasticsearchURL   string
	SentryDSN          string
	CORSAllowedOrigins []string
	LogLevel           string
	DBMaxOpenConns     int
	DBMaxIdleConns     int
	AdminEmail         string
	AdminPassword      string

	// Meetings scheduled in [now+ReminderWindowStart, now+ReminderWindowEnd) get a reminder
	ReminderWindowStart time.Duration
	ReminderWindowEnd   time.Duration
	ReminderTimezone    string
}

var appConfig *Config

// Load loads the configuration from environment variables
// It automatically determines which .env file to load based on GO_ENV
func Load() (*Config, error) {
	env := os.Getenv("GO_ENV")
	if env == "" {
		env = "development"
	}

	// Try to load environment-specific file first
	envFile := fmt.Sprintf(".env.%s", env)
	if err := godotenv.Load(envFile); err != nil {
		if err := godotenv.Load(); err != nil {
			// In production, environment variables are set directly
			// so it's okay if .env files don't exist
			log.Printf("No .env file found, using system environment variables")
		}
	} else {
		log.Printf("Loaded configuration from %s", envFile)
	}

	config := &Config{
		DatabaseURL:         getEnv("DATABASE_URL", ""),
		Port:                getEnv("PORT", "8080"),
		GoEnv:               getEnv("GO_ENV", "development"),
		JWTSecret:           getEnv("JWT_SECRET", ""),
		JWTIssuer:           getEnv("JWT_ISSUER", "legalconnect-api"),
		JWTAudience:         getEnv("JWT_AUDIENCE", "legalconnect-clients"),
		TokenTTL:            time.Duration(getEnvInt("TOKEN_TTL_HOURS", 24)) * time.Hour,
		AWSRegion:           getEnv("AWS_REGION", "us-east-1"),
		AWSS3Bucket:         getEnv("AWS_S3_BUCKET", ""),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		UploadDir:           getEnv("UPLOAD_DIR", "./uploads"),
		RedisURL:            getEnv("REDIS_URL", ""),
		KafkaBrokers:        getEnvList("KAFKA_BROKERS", nil),
		KafkaTopic:          getEnv("KAFKA_NOTIFICATIONS_TOPIC", "notifications"),
		ElasticsearchURL:    getEnv("ELASTICSEARCH_URL", ""),
		SentryDSN:           getEnv("SENTRY_DSN", ""),
		CORSAllowedOrigins:  getEnvList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		DBMaxOpenConns:      getEnvInt("DB_MAX_OPEN_CONNS", 10),
		DBMaxIdleConns:      getEnvInt("DB_MAX_IDLE_CONNS", 5),
		AdminEmail:          getEnv("ADMIN_EMAIL", ""),
		AdminPassword:       getEnv("ADMIN_PASSWORD", ""),
		ReminderWindowStart: time.Duration(getEnvInt("REMINDER_WINDOW_START_MINUTES", 10)) * time.Minute,
		ReminderWindowEnd:   time.Duration(getEnvInt("REMINDER_WINDOW_END_MINUTES", 50)) * time.Minute,
		ReminderTimezone:    getEnv("REMINDER_TIMEZONE", "UTC"),
	}

	// Validate required configuration
	if err := config.Validate(); err != nil {
		return nil, err
	}

	appConfig = config
	return config, nil
}

// Validate checks that all required configuration values are set
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.JWTSecret == "" && !c.IsTest() {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.ReminderWindowEnd <= c.ReminderWindowStart {
		return fmt.Errorf("reminder window end (%s) must be after its start (%s)", c.ReminderWindowEnd, c.ReminderWindowStart)
	}
	if _, err := time.LoadLocation(c.ReminderTimezone); err != nil {
		return fmt.Errorf("invalid REMINDER_TIMEZONE %q: %w", c.ReminderTimezone, err)
	}
	return nil
}

// IsProduction returns true if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.GoEnv == "production"
}

// IsTest returns true if the application is running in test mode
func (c *Config) IsTest() bool {
	return c.GoEnv == "test"
}

// IsDevelopment returns true if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.GoEnv == "development"
}

// GetDatabaseURL returns the database URL
func (c *Config) GetDatabaseURL() string {
	return c.DatabaseURL
}

// ReminderLocation returns the location reminder times are rendered in
func (c *Config) ReminderLocation() *time.Location {
	loc, err := time.LoadLocation(c.ReminderTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// GetConfig returns the configuration loaded by Load (or injected with SetConfig)
func GetConfig() *Config {
	return appConfig
}

// SetConfig sets the configuration instance (primarily for testing)
func SetConfig(cfg *Config) {
	appConfig = cfg
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
		log.Printf("Ignoring non-numeric %s=%q, using %d", key, value, defaultValue)
	}
	return defaultValue
}

// getEnvList splits a comma separated variable, dropping empty items
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	if len(items) == 0 {
		return defaultValue
	}
	return items
}
