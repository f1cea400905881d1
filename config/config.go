package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"venue-admin-backend/utils"
)

const (
	MinDispatchWindow     = 5 * time.Minute
	MaxDispatchWindow     = 15 * time.Minute
	DefaultDispatchWindow = 15 * time.Minute
)

// Config is read once at startup and handed to constructors.
type Config struct {
	Port string
	Env  string

	DBURL string

	JWTSecret         string
	JWTExpiry         time.Duration
	AdminPasswordHash string
	CronSecret        string

	DispatchWindow      time.Duration
	DispatchConcurrency int

	SMSProvider string
	SMSTimeout  time.Duration
	NCloud      NCloudConfig
	Twilio      TwilioConfig

	TelegramBotToken string
	TelegramChatID   string
	OpsSNSTopicARN   string

	RedisURL string

	CORSOrigins   []string
	SeedTemplates bool
}

type NCloudConfig struct {
	AccessKey     string
	SecretKey     string
	ServiceID     string
	CallingNumber string
	BaseURL       string
}

// Configured reports whether every credential needed to reach the gateway is present.
func (n NCloudConfig) Configured() bool {
	return n.AccessKey != "" && n.SecretKey != "" && n.ServiceID != "" && n.CallingNumber != ""
}

type TwilioConfig struct {
	AccountSID string
	AuthToken  string
	FromNumber string
}

func (t TwilioConfig) Configured() bool {
	return t.AccountSID != "" && t.AuthToken != "" && t.FromNumber != ""
}

// LoadEnvFile loads .env when present. It returns false if no file was found.
func LoadEnvFile() bool {
	return godotenv.Load() == nil
}

func Load() (*Config, error) {
	cfg := &Config{
		Port:                getEnv("PORT", "8080"),
		Env:                 getEnv("ENV", "development"),
		DBURL:               os.Getenv("DB_URL"),
		JWTSecret:           os.Getenv("JWT_SECRET"),
		JWTExpiry:           time.Duration(getEnvInt("JWT_EXPIRY_HOURS", 24)) * time.Hour,
		AdminPasswordHash:   os.Getenv("ADMIN_PASSWORD_HASH"),
		CronSecret:          os.Getenv("CRON_SECRET"),
		DispatchWindow:      ClampDispatchWindow(getEnvDuration("SMS_DISPATCH_WINDOW", DefaultDispatchWindow)),
		DispatchConcurrency: getEnvInt("SMS_DISPATCH_CONCURRENCY", 4),
		SMSProvider:         strings.ToLower(getEnv("SMS_PROVIDER", "ncloud")),
		SMSTimeout:          getEnvDuration("SMS_TIMEOUT", 10*time.Second),
		NCloud: NCloudConfig{
			AccessKey:     os.Getenv("NCLOUD_ACCESS_KEY"),
			SecretKey:     os.Getenv("NCLOUD_SECRET_KEY"),
			ServiceID:     os.Getenv("NCLOUD_SERVICE_ID"),
			CallingNumber: os.Getenv("NCLOUD_CALLING_NUMBER"),
			BaseURL:       getEnv("NCLOUD_BASE_URL", "https://sens.apigw.ntruss.com"),
		},
		Twilio: TwilioConfig{
			AccountSID: os.Getenv("TWILIO_ACCOUNT_SID"),
			AuthToken:  os.Getenv("TWILIO_AUTH_TOKEN"),
			FromNumber: os.Getenv("TWILIO_FROM_NUMBER"),
		},
		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramChatID:   os.Getenv("TELEGRAM_CHAT_ID"),
		OpsSNSTopicARN:   os.Getenv("OPS_SNS_TOPIC_ARN"),
		RedisURL:         os.Getenv("REDIS_URL"),
		CORSOrigins:      splitList(getEnv("CORS_ORIGINS", "http://localhost:3000")),
		SeedTemplates:    getEnvBool("SEED_TEMPLATES", true),
	}

	if cfg.DBURL == "" {
		return nil, fmt.Errorf("DB_URL not set")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET not set")
	}
	if cfg.AdminPasswordHash == "" {
		plain := os.Getenv("ADMIN_PASSWORD")
		if plain == "" {
			return nil, fmt.Errorf("ADMIN_PASSWORD_HASH or ADMIN_PASSWORD must be set")
		}
		hash, err := utils.HashPassword(plain)
		if err != nil {
			return nil, fmt.Errorf("hash admin password: %w", err)
		}
		cfg.AdminPasswordHash = hash
	}
	if cfg.SMSProvider != "ncloud" && cfg.SMSProvider != "twilio" {
		return nil, fmt.Errorf("unknown SMS_PROVIDER %q", cfg.SMSProvider)
	}
	if cfg.DispatchConcurrency < 1 {
		cfg.DispatchConcurrency = 1
	}
	return cfg, nil
}

// ClampDispatchWindow keeps the half-width of the dispatch window within [5m, 15m].
// A non-positive value selects the default.
func ClampDispatchWindow(d time.Duration) time.Duration {
	switch {
	case d <= 0:
		return DefaultDispatchWindow
	case d < MinDispatchWindow:
		return MinDispatchWindow
	case d > MaxDispatchWindow:
		return MaxDispatchWindow
	}
	return d
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
