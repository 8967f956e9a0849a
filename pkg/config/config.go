package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database   DatabaseConfig
	Redis      RedisConfig
	JWT        JWTConfig
	CORS       CORSConfig
	Log        LogConfig
	Calendar   CalendarConfig
	Generation GenerationConfig
	Agenda     AgendaConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// CalendarConfig configures the external calendar provider mirror.
type CalendarConfig struct {
	SyncEnabled     bool
	CalendarID      string
	CredentialsFile string
	RequestTimeout  time.Duration
	ReminderMethod  string
}

// GenerationConfig tunes derived-event generation.
type GenerationConfig struct {
	DeliverableDueOffset    time.Duration
	ProjectStartReminder    time.Duration
	ProjectEndReminder      time.Duration
	TaskDeadlineReminder    time.Duration
	DeliverableDueReminder  time.Duration
	NotifyOnDeadlineEvents  bool
	NotifyWorkerConcurrency int
}

// AgendaConfig governs cached upcoming-agenda reads and exports.
type AgendaConfig struct {
	CacheTTL        time.Duration
	DefaultLimit    int
	ExportDir       string
	ExportLinkTTL   time.Duration
	ExportRetention time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Calendar = CalendarConfig{
		SyncEnabled:     v.GetBool("CALENDAR_SYNC_ENABLED"),
		CalendarID:      v.GetString("CALENDAR_ID"),
		CredentialsFile: v.GetString("CALENDAR_CREDENTIALS_FILE"),
		RequestTimeout:  parseDuration(v.GetString("CALENDAR_REQUEST_TIMEOUT"), 10*time.Second),
		ReminderMethod:  v.GetString("CALENDAR_REMINDER_METHOD"),
	}

	cfg.Generation = GenerationConfig{
		DeliverableDueOffset:    parseDuration(v.GetString("DELIVERABLE_DUE_OFFSET"), 7*24*time.Hour),
		ProjectStartReminder:    parseDuration(v.GetString("PROJECT_START_REMINDER"), 24*time.Hour),
		ProjectEndReminder:      parseDuration(v.GetString("PROJECT_END_REMINDER"), 3*24*time.Hour),
		TaskDeadlineReminder:    parseDuration(v.GetString("TASK_DEADLINE_REMINDER"), 24*time.Hour),
		DeliverableDueReminder:  parseDuration(v.GetString("DELIVERABLE_DUE_REMINDER"), time.Hour),
		NotifyOnDeadlineEvents:  v.GetBool("NOTIFY_ON_DEADLINE_EVENTS"),
		NotifyWorkerConcurrency: v.GetInt("NOTIFY_WORKER_CONCURRENCY"),
	}

	cfg.Agenda = AgendaConfig{
		CacheTTL:        parseDuration(v.GetString("AGENDA_CACHE_TTL"), 5*time.Minute),
		DefaultLimit:    v.GetInt("AGENDA_DEFAULT_LIMIT"),
		ExportDir:       v.GetString("AGENDA_EXPORT_DIR"),
		ExportLinkTTL:   parseDuration(v.GetString("AGENDA_EXPORT_LINK_TTL"), 24*time.Hour),
		ExportRetention: parseDuration(v.GetString("AGENDA_EXPORT_RETENTION"), 7*24*time.Hour),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "projecthub")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("CALENDAR_SYNC_ENABLED", false)
	v.SetDefault("CALENDAR_ID", "primary")
	v.SetDefault("CALENDAR_CREDENTIALS_FILE", "")
	v.SetDefault("CALENDAR_REQUEST_TIMEOUT", "10s")
	v.SetDefault("CALENDAR_REMINDER_METHOD", "popup")

	v.SetDefault("DELIVERABLE_DUE_OFFSET", "168h")
	v.SetDefault("PROJECT_START_REMINDER", "24h")
	v.SetDefault("PROJECT_END_REMINDER", "72h")
	v.SetDefault("TASK_DEADLINE_REMINDER", "24h")
	v.SetDefault("DELIVERABLE_DUE_REMINDER", "1h")
	v.SetDefault("NOTIFY_ON_DEADLINE_EVENTS", false)
	v.SetDefault("NOTIFY_WORKER_CONCURRENCY", 1)

	v.SetDefault("AGENDA_CACHE_TTL", "5m")
	v.SetDefault("AGENDA_DEFAULT_LIMIT", 10)
	v.SetDefault("AGENDA_EXPORT_DIR", "./exports")
	v.SetDefault("AGENDA_EXPORT_LINK_TTL", "24h")
	v.SetDefault("AGENDA_EXPORT_RETENTION", "168h")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
