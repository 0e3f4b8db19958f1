package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/medibook/backend/internal/models"
)

type DatabaseConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	Name     string `toml:"name"`
	SSLMode  string `toml:"sslMode"`
}

type RedisConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

type APIConfig struct {
	Port           int    `toml:"port"`
	JWTSecret      string `toml:"jwtSecret"`
	JWTExpireHours int    `toml:"jwtExpireHours"`
	RateLimit      int    `toml:"rateLimit"` // requests per minute per IP
}

type LogConfig struct {
	Level string `toml:"level"`
	Path  string `toml:"path"`
}

type PushConfig struct {
	CredentialsFile  string `toml:"credentialsFile"`
	CredentialsJSON  string `toml:"credentialsJSON"`
	ProjectID        string `toml:"projectID"`
	AndroidChannelID string `toml:"androidChannelID"`
}

type BusinessMessageConfig struct {
	BaseURL   string            `toml:"baseURL"`
	APIKey    string            `toml:"apiKey"`
	SenderKey string            `toml:"senderKey"`
	Templates map[string]string `toml:"templates"` // notification type -> provider template code
}

type SMSConfig struct {
	SenderPhone string `toml:"senderPhone"`
}

type ChannelsConfig struct {
	Push            PushConfig            `toml:"push"`
	BusinessMessage BusinessMessageConfig `toml:"businessMessage"`
	SMS             SMSConfig             `toml:"sms"`
	DeepLinkBaseURL string                `toml:"deepLinkBaseURL"`
	TimeoutSeconds  int                   `toml:"timeoutSeconds"`
	CountryCode     string                `toml:"countryCode"`
	TrunkPrefix     string                `toml:"trunkPrefix"`
}

type SchedulerConfig struct {
	Disabled           bool   `toml:"disabled"`
	Timezone           string `toml:"timezone"`
	ReminderSpec       string `toml:"reminderSpec"`
	ReviewRequestSpec  string `toml:"reviewRequestSpec"`
	UnansweredChatSpec string `toml:"unansweredChatSpec"`
	FanOutConcurrency  int    `toml:"fanOutConcurrency"`
}

type EventsConfig struct {
	AMQPURL  string `toml:"amqpURL"`
	Exchange string `toml:"exchange"`
}

type Config struct {
	Database  DatabaseConfig  `toml:"database"`
	Redis     RedisConfig     `toml:"redis"`
	API       APIConfig       `toml:"api"`
	Log       LogConfig       `toml:"log"`
	Channels  ChannelsConfig  `toml:"channels"`
	Scheduler SchedulerConfig `toml:"scheduler"`
	Events    EventsConfig    `toml:"events"`
}

const defaultConfigPath = "configs/config.toml"

// Load reads the optional TOML file named by CONFIG_FILE (default
// configs/config.toml) and then applies environment overrides and defaults.
func Load() (*Config, error) {
	cfg := &Config{}

	path := getEnv("CONFIG_FILE", defaultConfigPath)
	if _, err := toml.DecodeFile(path, cfg); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() {
	// Database
	c.Database.Host = getEnv("DB_HOST", c.Database.Host)
	c.Database.Port = getEnvInt("DB_PORT", c.Database.Port)
	c.Database.User = getEnv("DB_USER", c.Database.User)
	c.Database.Password = getEnv("DB_PASSWORD", c.Database.Password)
	c.Database.Name = getEnv("DB_NAME", c.Database.Name)
	c.Database.SSLMode = getEnv("DB_SSLMODE", c.Database.SSLMode)

	// Redis
	c.Redis.Host = getEnv("REDIS_HOST", c.Redis.Host)
	c.Redis.Port = getEnvInt("REDIS_PORT", c.Redis.Port)
	c.Redis.Password = getEnv("REDIS_PASSWORD", c.Redis.Password)
	c.Redis.DB = getEnvInt("REDIS_DB", c.Redis.DB)

	// API
	c.API.Port = getEnvInt("API_PORT", c.API.Port)
	c.API.JWTSecret = getEnv("JWT_SECRET", c.API.JWTSecret)
	c.API.JWTExpireHours = getEnvInt("JWT_EXPIRE_HOURS", c.API.JWTExpireHours)
	c.API.RateLimit = getEnvInt("API_RATE_LIMIT", c.API.RateLimit)

	// Log
	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Log.Path = getEnv("LOG_PATH", c.Log.Path)

	// Channels
	ch := &c.Channels
	ch.Push.CredentialsFile = getEnv("FCM_CREDENTIALS_FILE", ch.Push.CredentialsFile)
	ch.Push.CredentialsJSON = getEnv("FCM_CREDENTIALS_JSON", ch.Push.CredentialsJSON)
	ch.Push.ProjectID = getEnv("FCM_PROJECT_ID", ch.Push.ProjectID)
	ch.Push.AndroidChannelID = getEnv("FCM_ANDROID_CHANNEL_ID", ch.Push.AndroidChannelID)
	ch.BusinessMessage.BaseURL = getEnv("BIZMSG_BASE_URL", ch.BusinessMessage.BaseURL)
	ch.BusinessMessage.APIKey = getEnv("BIZMSG_API_KEY", ch.BusinessMessage.APIKey)
	ch.BusinessMessage.SenderKey = getEnv("BIZMSG_SENDER_KEY", ch.BusinessMessage.SenderKey)
	for _, t := range models.NotificationTypes {
		if v := os.Getenv("BIZMSG_TEMPLATE_" + string(t)); v != "" {
			if ch.BusinessMessage.Templates == nil {
				ch.BusinessMessage.Templates = make(map[string]string)
			}
			ch.BusinessMessage.Templates[string(t)] = v
		}
	}
	ch.SMS.SenderPhone = getEnv("SMS_SENDER_PHONE", ch.SMS.SenderPhone)
	ch.DeepLinkBaseURL = getEnv("DEEP_LINK_BASE_URL", ch.DeepLinkBaseURL)
	ch.TimeoutSeconds = getEnvInt("CHANNEL_TIMEOUT_SECONDS", ch.TimeoutSeconds)
	ch.CountryCode = getEnv("PHONE_COUNTRY_CODE", ch.CountryCode)
	ch.TrunkPrefix = getEnv("PHONE_TRUNK_PREFIX", ch.TrunkPrefix)

	// Scheduler
	c.Scheduler.Disabled = getEnvBool("SCHEDULER_DISABLED", c.Scheduler.Disabled)
	c.Scheduler.Timezone = getEnv("SCHEDULER_TIMEZONE", c.Scheduler.Timezone)
	c.Scheduler.ReminderSpec = getEnv("SCHEDULER_REMINDER_SPEC", c.Scheduler.ReminderSpec)
	c.Scheduler.ReviewRequestSpec = getEnv("SCHEDULER_REVIEW_SPEC", c.Scheduler.ReviewRequestSpec)
	c.Scheduler.UnansweredChatSpec = getEnv("SCHEDULER_UNANSWERED_CHAT_SPEC", c.Scheduler.UnansweredChatSpec)
	c.Scheduler.FanOutConcurrency = getEnvInt("FANOUT_CONCURRENCY", c.Scheduler.FanOutConcurrency)

	// Events
	c.Events.AMQPURL = getEnv("AMQP_URL", c.Events.AMQPURL)
	c.Events.Exchange = getEnv("AMQP_EXCHANGE", c.Events.Exchange)
}

func (c *Config) applyDefaults() {
	setString(&c.Database.Host, "localhost")
	setInt(&c.Database.Port, 5432)
	setString(&c.Database.User, "medibook")
	setString(&c.Database.Name, "medibook")
	setString(&c.Database.SSLMode, "disable")

	setInt(&c.Redis.Port, 6379)

	setInt(&c.API.Port, 8080)
	setInt(&c.API.JWTExpireHours, 24*30)
	setInt(&c.API.RateLimit, 300)

	setString(&c.Log.Level, "info")

	setInt(&c.Channels.TimeoutSeconds, 10)
	setString(&c.Channels.CountryCode, "82")
	setString(&c.Channels.TrunkPrefix, "0")
	setString(&c.Channels.Push.AndroidChannelID, "medibook_default")

	setString(&c.Scheduler.Timezone, "Asia/Seoul")
	setString(&c.Scheduler.ReminderSpec, "0 18 * * *")
	setString(&c.Scheduler.ReviewRequestSpec, "0 * * * *")
	setString(&c.Scheduler.UnansweredChatSpec, "0 * * * *")
	setInt(&c.Scheduler.FanOutConcurrency, 8)

	setString(&c.Events.Exchange, "medibook.notifications")
}

// Warnings lists insecure or degraded settings worth logging at startup
func (c *Config) Warnings() []string {
	var warnings []string
	if c.Database.Password == "" {
		warnings = append(warnings, "DB_PASSWORD not set - this is insecure for production!")
	}
	if c.API.JWTSecret == "" {
		warnings = append(warnings, "JWT_SECRET not set - a persisted secret from system_preferences will be used")
	}
	ch := c.ChannelConfig()
	if !ch.Push.Enabled() {
		warnings = append(warnings, "push channel disabled: no FCM credentials configured")
	}
	if !ch.BusinessMessage.Enabled() {
		warnings = append(warnings, "business message channel disabled: BIZMSG_API_KEY or BIZMSG_SENDER_KEY missing")
	}
	if !ch.SMS.Enabled() {
		warnings = append(warnings, "SMS channel disabled: BIZMSG_API_KEY or SMS_SENDER_PHONE missing")
	}
	return warnings
}

// Location returns the clinic time zone used for calendar-day campaign windows
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Scheduler.Timezone)
}

// DSN returns the PostgreSQL connection string
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
		c.Database.Host, c.Database.Port, c.Database.User, c.Database.Password, c.Database.Name, c.Database.SSLMode,
	)
}

// GenerateSecureSecret generates a cryptographically secure random hex secret
func GenerateSecureSecret(length int) string {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return hex.EncodeToString([]byte(os.Getenv("HOSTNAME") + strconv.Itoa(length)))
	}
	return hex.EncodeToString(bytes)
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

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		switch strings.ToLower(value) {
		case "1", "true", "yes", "on":
			return true
		case "0", "false", "no", "off":
			return false
		}
	}
	return defaultValue
}

func setString(dst *string, def string) {
	if *dst == "" {
		*dst = def
	}
}

func setInt(dst *int, def int) {
	if *dst == 0 {
		*dst = def
	}
}
