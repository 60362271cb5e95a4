package config

import (
	"errors"
	"strconv"
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

	Database  DatabaseConfig
	Redis     RedisConfig
	CORS      CORSConfig
	Log       LogConfig
	Scheduler SchedulerConfig
	Snapshots SnapshotConfig
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
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// SchedulerConfig carries the planning defaults. Every value can be overridden
// per run through the PlanningRequest config block; nothing here is global state.
type SchedulerConfig struct {
	Mode             string
	TimeLimit        time.Duration
	Workers          int
	HoursPerSession  int
	SlotMinutes      int
	DayGridStart     string
	DayGridEnd       string
	LunchBreakStart  string
	LunchBreakEnd    string
	WorkingDays      []int
	MaxGreedyRetries int
}

// SnapshotConfig tunes cached conflict/availability snapshots.
type SnapshotConfig struct {
	TTL time.Duration
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
		Enabled:  v.GetBool("REDIS_ENABLED"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Scheduler = SchedulerConfig{
		Mode:             v.GetString("SCHEDULER_MODE"),
		TimeLimit:        parseDuration(v.GetString("SCHEDULER_TIME_LIMIT"), 300*time.Second),
		Workers:          v.GetInt("SCHEDULER_WORKERS"),
		HoursPerSession:  v.GetInt("SCHEDULER_HOURS_PER_SESSION"),
		SlotMinutes:      v.GetInt("SCHEDULER_SLOT_MINUTES"),
		DayGridStart:     v.GetString("SCHEDULER_DAY_GRID_START"),
		DayGridEnd:       v.GetString("SCHEDULER_DAY_GRID_END"),
		LunchBreakStart:  v.GetString("SCHEDULER_LUNCH_BREAK_START"),
		LunchBreakEnd:    v.GetString("SCHEDULER_LUNCH_BREAK_END"),
		WorkingDays:      intList(v.GetString("SCHEDULER_WORKING_DAYS")),
		MaxGreedyRetries: v.GetInt("SCHEDULER_MAX_GREEDY_RETRIES"),
	}

	cfg.Snapshots = SnapshotConfig{
		TTL: parseDuration(v.GetString("SNAPSHOT_TTL"), 5*time.Minute),
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
	v.SetDefault("DB_NAME", "timetable")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_ENABLED", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("SCHEDULER_MODE", "cp")
	v.SetDefault("SCHEDULER_TIME_LIMIT", "300s")
	v.SetDefault("SCHEDULER_WORKERS", 4)
	v.SetDefault("SCHEDULER_HOURS_PER_SESSION", 2)
	v.SetDefault("SCHEDULER_SLOT_MINUTES", 90)
	v.SetDefault("SCHEDULER_DAY_GRID_START", "08:00")
	v.SetDefault("SCHEDULER_DAY_GRID_END", "18:00")
	v.SetDefault("SCHEDULER_LUNCH_BREAK_START", "12:00")
	v.SetDefault("SCHEDULER_LUNCH_BREAK_END", "14:00")
	v.SetDefault("SCHEDULER_WORKING_DAYS", "0,1,2,3,4")
	v.SetDefault("SCHEDULER_MAX_GREEDY_RETRIES", 10)

	v.SetDefault("SNAPSHOT_TTL", "5m")
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

func intList(raw string) []int {
	var result []int
	for _, part := range splitAndTrim(raw) {
		n, err := strconv.Atoi(part)
		if err != nil {
			continue
		}
		result = append(result, n)
	}
	return result
}
