package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

type Config struct {
	Env           string
	Port          int
	APIPrefix     string
	StorageDriver string
	RunMigrations bool

	Database   DatabaseConfig
	Redis      RedisConfig
	JWT        JWTConfig
	CORS       CORSConfig
	Log        LogConfig
	Enrollment EnrollmentConfig
	Sessions   SessionConfig
	Search     SearchConfig
	Events     EventsConfig
	Uploads    UploadConfig
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

// JWTConfig describes how identity-provider tokens are verified.
type JWTConfig struct {
	Secret   string
	Issuer   string
	Audience string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// EnrollmentConfig holds the ledger policy switches.
type EnrollmentConfig struct {
	AllowReenroll      bool
	CapacityMaxRetries int
}

// SessionConfig controls session lifecycle behaviour.
type SessionConfig struct {
	StrictCancel bool
}

// SearchConfig tunes discovery queries and their cache.
type SearchConfig struct {
	CacheEnabled  bool
	CacheTTL      time.Duration
	DefaultRadius float64
	MaxRadius     float64
}

// EventsConfig configures the NATS publisher and its dispatch queue.
type EventsConfig struct {
	NATSURL       string
	SubjectPrefix string
	Workers       int
	Retries       int
}

// UploadConfig configures pre-signed profile image uploads.
type UploadConfig struct {
	Bucket       string
	Region       string
	Endpoint     string
	AccessKey    string
	SecretKey    string
	UsePathStyle bool
	URLTTL       time.Duration
	MaxImages    int
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
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")
	cfg.StorageDriver = strings.ToLower(v.GetString("STORAGE_DRIVER"))
	cfg.RunMigrations = v.GetBool("RUN_MIGRATIONS")

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
		Secret:   v.GetString("JWT_SECRET"),
		Issuer:   v.GetString("JWT_ISSUER"),
		Audience: v.GetString("JWT_AUDIENCE"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Enrollment = EnrollmentConfig{
		AllowReenroll:      v.GetBool("ENROLLMENT_ALLOW_REENROLL"),
		CapacityMaxRetries: v.GetInt("CAPACITY_MAX_RETRIES"),
	}

	cfg.Sessions = SessionConfig{
		StrictCancel: v.GetBool("SESSION_CANCEL_STRICT"),
	}

	cfg.Search = SearchConfig{
		CacheEnabled:  v.GetBool("ENABLE_SEARCH_CACHE"),
		CacheTTL:      parseDuration(v.GetString("SEARCH_CACHE_TTL"), time.Minute),
		DefaultRadius: v.GetFloat64("SEARCH_DEFAULT_RADIUS_MILES"),
		MaxRadius:     v.GetFloat64("SEARCH_MAX_RADIUS_MILES"),
	}

	cfg.Events = EventsConfig{
		NATSURL:       v.GetString("NATS_URL"),
		SubjectPrefix: v.GetString("EVENTS_SUBJECT_PREFIX"),
		Workers:       v.GetInt("EVENTS_WORKERS"),
		Retries:       v.GetInt("EVENTS_RETRIES"),
	}

	cfg.Uploads = UploadConfig{
		Bucket:       v.GetString("S3_BUCKET_NAME"),
		Region:       v.GetString("AWS_REGION"),
		Endpoint:     v.GetString("S3_ENDPOINT"),
		AccessKey:    v.GetString("AWS_ACCESS_KEY_ID"),
		SecretKey:    v.GetString("AWS_SECRET_ACCESS_KEY"),
		UsePathStyle: v.GetBool("S3_USE_PATH_STYLE"),
		URLTTL:       parseDuration(v.GetString("UPLOAD_URL_TTL"), 15*time.Minute),
		MaxImages:    v.GetInt("UPLOAD_MAX_IMAGES"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "")
	v.SetDefault("STORAGE_DRIVER", StorageDriverPostgres)
	v.SetDefault("RUN_MIGRATIONS", true)

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "class_booking")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 20)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_ISSUER", "")
	v.SetDefault("JWT_AUDIENCE", "")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ENROLLMENT_ALLOW_REENROLL", true)
	v.SetDefault("CAPACITY_MAX_RETRIES", 32)
	v.SetDefault("SESSION_CANCEL_STRICT", false)

	v.SetDefault("ENABLE_SEARCH_CACHE", false)
	v.SetDefault("SEARCH_CACHE_TTL", "1m")
	v.SetDefault("SEARCH_DEFAULT_RADIUS_MILES", 25)
	v.SetDefault("SEARCH_MAX_RADIUS_MILES", 0)

	v.SetDefault("NATS_URL", "")
	v.SetDefault("EVENTS_SUBJECT_PREFIX", "booking")
	v.SetDefault("EVENTS_WORKERS", 2)
	v.SetDefault("EVENTS_RETRIES", 3)

	v.SetDefault("S3_BUCKET_NAME", "")
	v.SetDefault("AWS_REGION", "us-east-1")
	v.SetDefault("S3_ENDPOINT", "")
	v.SetDefault("S3_USE_PATH_STYLE", false)
	v.SetDefault("UPLOAD_URL_TTL", "15m")
	v.SetDefault("UPLOAD_MAX_IMAGES", 6)
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
