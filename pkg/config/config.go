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

	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	CORS     CORSConfig
	Log      LogConfig
	Storage  StorageConfig
	Mail     MailConfig
	Portal   PortalConfig
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
	CookieName string
	Issuer     string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// StorageConfig points at the S3-compatible object store holding event
// images and result/timetable documents. PublicBaseURL is prepended to
// object keys to form publicly reachable URLs.
type StorageConfig struct {
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretKey       string
	EventsBucket    string
	ResultsBucket   string
	TimetableBucket string
	PublicBaseURL   string
	UsePathStyle    bool
}

// MailConfig configures the SMTP relay for contact-form submissions.
type MailConfig struct {
	Host        string
	Port        int
	Username    string
	Password    string
	FromAddress string
	SupportAddr string
}

// PortalConfig carries portal-wide policy values.
type PortalConfig struct {
	CurrentSession string
	MaxUploadBytes int64
	CacheTTL       time.Duration
	LoginPath      string
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
		CookieName: v.GetString("SESSION_COOKIE_NAME"),
		Issuer:     v.GetString("JWT_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Storage = StorageConfig{
		Endpoint:        v.GetString("STORAGE_ENDPOINT"),
		Region:          v.GetString("STORAGE_REGION"),
		AccessKeyID:     v.GetString("STORAGE_ACCESS_KEY_ID"),
		SecretKey:       v.GetString("STORAGE_SECRET_KEY"),
		EventsBucket:    v.GetString("STORAGE_EVENTS_BUCKET"),
		ResultsBucket:   v.GetString("STORAGE_RESULTS_BUCKET"),
		TimetableBucket: v.GetString("STORAGE_TIMETABLES_BUCKET"),
		PublicBaseURL:   v.GetString("STORAGE_PUBLIC_BASE_URL"),
		UsePathStyle:    v.GetBool("STORAGE_USE_PATH_STYLE"),
	}

	cfg.Mail = MailConfig{
		Host:        v.GetString("SMTP_HOST"),
		Port:        v.GetInt("SMTP_PORT"),
		Username:    v.GetString("SMTP_USER"),
		Password:    v.GetString("SMTP_PASSWORD"),
		FromAddress: v.GetString("MAIL_FROM"),
		SupportAddr: v.GetString("MAIL_SUPPORT_ADDRESS"),
	}

	maxUpload := v.GetInt64("PORTAL_MAX_UPLOAD_BYTES")
	if maxUpload <= 0 {
		maxUpload = 5 * 1024 * 1024
	}
	cfg.Portal = PortalConfig{
		CurrentSession: v.GetString("PORTAL_CURRENT_SESSION"),
		MaxUploadBytes: maxUpload,
		CacheTTL:       parseDuration(v.GetString("PORTAL_CACHE_TTL"), 5*time.Minute),
		LoginPath:      v.GetString("PORTAL_LOGIN_PATH"),
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
	v.SetDefault("DB_NAME", "dept_portal")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("SESSION_COOKIE_NAME", "portal_session")
	v.SetDefault("JWT_ISSUER", "portal-api")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("STORAGE_ENDPOINT", "")
	v.SetDefault("STORAGE_REGION", "auto")
	v.SetDefault("STORAGE_ACCESS_KEY_ID", "")
	v.SetDefault("STORAGE_SECRET_KEY", "")
	v.SetDefault("STORAGE_EVENTS_BUCKET", "events")
	v.SetDefault("STORAGE_RESULTS_BUCKET", "results")
	v.SetDefault("STORAGE_TIMETABLES_BUCKET", "timetables")
	v.SetDefault("STORAGE_PUBLIC_BASE_URL", "")
	v.SetDefault("STORAGE_USE_PATH_STYLE", true)

	v.SetDefault("SMTP_HOST", "localhost")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("SMTP_USER", "")
	v.SetDefault("SMTP_PASSWORD", "")
	v.SetDefault("MAIL_FROM", "no-reply@cscinfonest.edu")
	v.SetDefault("MAIL_SUPPORT_ADDRESS", "support@cscinfonest.edu")

	v.SetDefault("PORTAL_CURRENT_SESSION", "2024-2025")
	v.SetDefault("PORTAL_MAX_UPLOAD_BYTES", 5*1024*1024)
	v.SetDefault("PORTAL_CACHE_TTL", "5m")
	v.SetDefault("PORTAL_LOGIN_PATH", "/dpt-admin/auth/login")
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
