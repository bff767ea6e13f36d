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

	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Google    GoogleConfig
	Recaptcha RecaptchaConfig
	CORS      CORSConfig
	Log       LogConfig
	Cache     CacheConfig
	Admin     AdminConfig
	Reviews   ReviewsConfig
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

	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
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
	Issuer     string
}

// GoogleConfig holds the OAuth client identity used to validate ID tokens.
type GoogleConfig struct {
	ClientID      string
	TokenInfoURL  string
	VerifyTimeout time.Duration
}

// RecaptchaConfig controls reCAPTCHA verification for review submissions.
type RecaptchaConfig struct {
	Secret        string
	VerifyURL     string
	MinScore      float64
	Action        string
	VerifyTimeout time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// CacheConfig tunes the Redis-backed listing caches.
type CacheConfig struct {
	Enabled        bool
	LectureListTTL time.Duration
	LatestFeedTTL  time.Duration
}

// AdminConfig whitelists the accounts allowed to manage review periods.
type AdminConfig struct {
	Emails []string
}

// ReviewsConfig tunes review listing behaviour.
type ReviewsConfig struct {
	LatestLimit int
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

		ConnMaxLifetime: parseDuration(v.GetString("DB_CONN_MAX_LIFETIME"), time.Hour),
		ConnMaxIdleTime: parseDuration(v.GetString("DB_CONN_MAX_IDLE_TIME"), 30*time.Minute),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 30*24*time.Hour),
		Issuer:     v.GetString("JWT_ISSUER"),
	}

	cfg.Google = GoogleConfig{
		ClientID:      v.GetString("GOOGLE_CLIENT_ID"),
		TokenInfoURL:  v.GetString("GOOGLE_TOKENINFO_URL"),
		VerifyTimeout: parseDuration(v.GetString("GOOGLE_VERIFY_TIMEOUT"), 10*time.Second),
	}

	cfg.Recaptcha = RecaptchaConfig{
		Secret:        v.GetString("RECAPTCHA_SECRET"),
		VerifyURL:     v.GetString("RECAPTCHA_VERIFY_URL"),
		MinScore:      v.GetFloat64("RECAPTCHA_MIN_SCORE"),
		Action:        v.GetString("RECAPTCHA_ACTION"),
		VerifyTimeout: parseDuration(v.GetString("RECAPTCHA_VERIFY_TIMEOUT"), 10*time.Second),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Cache = CacheConfig{
		Enabled:        v.GetBool("ENABLE_CACHE"),
		LectureListTTL: parseDuration(v.GetString("CACHE_LECTURE_LIST_TTL"), 5*time.Minute),
		LatestFeedTTL:  parseDuration(v.GetString("CACHE_LATEST_FEED_TTL"), time.Minute),
	}

	cfg.Admin = AdminConfig{Emails: splitAndTrim(v.GetString("ADMIN_EMAILS"))}

	cfg.Reviews = ReviewsConfig{LatestLimit: v.GetInt("REVIEWS_LATEST_LIMIT")}

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
	v.SetDefault("DB_NAME", "kougiview")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "720h")
	v.SetDefault("JWT_ISSUER", "kougiview-api")

	v.SetDefault("GOOGLE_CLIENT_ID", "")
	v.SetDefault("GOOGLE_TOKENINFO_URL", "https://oauth2.googleapis.com/tokeninfo")
	v.SetDefault("GOOGLE_VERIFY_TIMEOUT", "10s")

	v.SetDefault("RECAPTCHA_SECRET", "")
	v.SetDefault("RECAPTCHA_VERIFY_URL", "https://www.google.com/recaptcha/api/siteverify")
	v.SetDefault("RECAPTCHA_MIN_SCORE", 0.5)
	v.SetDefault("RECAPTCHA_ACTION", "submit")
	v.SetDefault("RECAPTCHA_VERIFY_TIMEOUT", "10s")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ENABLE_CACHE", false)
	v.SetDefault("CACHE_LECTURE_LIST_TTL", "5m")
	v.SetDefault("CACHE_LATEST_FEED_TTL", "1m")

	v.SetDefault("ADMIN_EMAILS", "")
	v.SetDefault("REVIEWS_LATEST_LIMIT", 3)
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
