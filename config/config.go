package config

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is the typed view of the process environment.
type Config struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	APIPrefix    string
	Debug        bool

	LogLevel  string
	LogFormat string

	Database    Database
	AutoMigrate bool

	CORSOrigins []string

	Uploads Uploads
	Session Session
	Mail    Mail

	RedisURL       string
	MetricsEnabled bool
	BcryptCost     int
}

type Database struct {
	Driver   string // mysql, postgres or sqlite
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	SSLMode  string
	// DSN overrides the individual connection fields when set.
	DSN          string
	MaxOpenConns int
}

type Uploads struct {
	Disk           string // local or s3
	Dir            string
	BaseURL        string
	ProductDir     string
	ProductBaseURL string
	MaxBytes       int64
	S3             S3
}

type S3 struct {
	Bucket   string
	Region   string
	Key      string
	Secret   string
	Endpoint string
}

type Session struct {
	CookieName string
	Secure     bool
	SameSite   http.SameSite
	TTL        time.Duration
}

type Mail struct {
	Driver       string // smtp, resend or log
	To           string
	From         string
	FromName     string
	Host         string
	Port         int
	Username     string
	Password     string
	ResendAPIKey string
}

// Load reads .env when present and builds a Config from the environment.
func Load() *Config {
	_ = godotenv.Load()
	return FromMap(New())
}

// FromMap builds a Config from an environment map as returned by New.
func FromMap(env map[string]string) *Config {
	uploadDir := GetString(env, "UPLOAD_DIR", "/home/prevozko/public_html/uploads/projects")
	uploadURL := strings.TrimRight(GetString(env, "UPLOAD_BASE_URL", "https://prevozkop.rs/uploads/projects"), "/")

	return &Config{
		Port:         GetString(env, "PORT", "8080"),
		ReadTimeout:  time.Duration(GetInt(env, "READ_TIMEOUT_SECONDS", 60)) * time.Second,
		WriteTimeout: time.Duration(GetInt(env, "WRITE_TIMEOUT_SECONDS", 120)) * time.Second,
		IdleTimeout:  time.Duration(GetInt(env, "IDLE_TIMEOUT_SECONDS", 180)) * time.Second,
		APIPrefix:    normalizePrefix(GetString(env, "API_PREFIX", "/api")),
		Debug:        GetBool(env, "APP_DEBUG", false),

		LogLevel:  GetString(env, "LOG_LEVEL", "info"),
		LogFormat: GetString(env, "LOG_FORMAT", "pretty"),

		Database:    loadDatabase(env),
		AutoMigrate: GetBool(env, "AUTO_MIGRATE", false),

		CORSOrigins: splitList(GetString(env, "CORS_ORIGINS", "https://prevozkop.rs,https://www.prevozkop.rs")),

		Uploads: Uploads{
			Disk:           strings.ToLower(GetString(env, "UPLOAD_DISK", "local")),
			Dir:            uploadDir,
			BaseURL:        uploadURL,
			ProductDir:     GetString(env, "PRODUCT_UPLOAD_DIR", filepath.Join(filepath.Dir(filepath.Clean(uploadDir)), "products")),
			ProductBaseURL: strings.TrimRight(GetString(env, "PRODUCT_UPLOAD_BASE_URL", siblingURL(uploadURL, "products")), "/"),
			MaxBytes:       int64(GetInt(env, "UPLOAD_MAX_BYTES", 32*1024*1024)),
			S3: S3{
				Bucket:   GetString(env, "S3_BUCKET", ""),
				Region:   GetString(env, "S3_REGION", "us-east-1"),
				Key:      GetString(env, "S3_KEY", ""),
				Secret:   GetString(env, "S3_SECRET", ""),
				Endpoint: GetString(env, "S3_ENDPOINT", ""),
			},
		},

		Session: Session{
			CookieName: GetString(env, "SESSION_COOKIE_NAME", "prevozkop_session"),
			Secure:     GetBool(env, "SESSION_COOKIE_SECURE", true),
			SameSite:   parseSameSite(GetString(env, "SESSION_COOKIE_SAMESITE", "none")),
			TTL:        time.Duration(GetInt(env, "SESSION_TTL_SECONDS", 1440)) * time.Second,
		},

		Mail: Mail{
			Driver:       strings.ToLower(GetString(env, "MAIL_DRIVER", "smtp")),
			To:           GetString(env, "MAIL_TO", ""),
			From:         GetString(env, "MAIL_FROM", "no-reply@prevozkop.rs"),
			FromName:     GetString(env, "MAIL_FROM_NAME", "Prevozkop sajt"),
			Host:         GetString(env, "MAIL_HOST", "localhost"),
			Port:         GetInt(env, "MAIL_PORT", 587),
			Username:     GetString(env, "MAIL_USERNAME", ""),
			Password:     GetString(env, "MAIL_PASSWORD", ""),
			ResendAPIKey: GetString(env, "RESEND_API_KEY", ""),
		},

		RedisURL:       GetString(env, "REDIS_URL", ""),
		MetricsEnabled: GetBool(env, "METRICS_ENABLED", true),
		BcryptCost:     GetInt(env, "BCRYPT_COST", 12),
	}
}

func loadDatabase(env map[string]string) Database {
	driver := strings.ToLower(GetString(env, "DB_DRIVER", "mysql"))
	defaultPort := "3306"
	if driver == "postgres" {
		defaultPort = "5432"
	}
	return Database{
		Driver:       driver,
		Host:         GetString(env, "DB_HOST", "localhost"),
		Port:         GetString(env, "DB_PORT", defaultPort),
		Name:         GetString(env, "DB_NAME", "prevozko_prevozkop"),
		User:         GetString(env, "DB_USER", "prevozko_dj"),
		Password:     GetString(env, "DB_PASS", ""),
		SSLMode:      GetString(env, "DB_SSLMODE", "disable"),
		DSN:          GetString(env, "DATABASE_DSN", ""),
		MaxOpenConns: GetInt(env, "DB_MAX_OPEN_CONNS", 10),
	}
}

// ConnectionString returns the driver specific DSN.
func (d Database) ConnectionString() string {
	if d.DSN != "" {
		return d.DSN
	}
	switch d.Driver {
	case "postgres":
		return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
			d.Host, d.User, d.Password, d.Name, d.Port, d.SSLMode)
	case "sqlite":
		return d.Name
	default:
		return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
			d.User, d.Password, d.Host, d.Port, d.Name)
	}
}

func New() map[string]string {
	environ := os.Environ()
	envAsMap := make(map[string]string, len(environ))
	for _, entry := range environ {
		if entry != "" {
			key, value := split(entry)
			envAsMap[key] = value
		}
	}
	return envAsMap
}

// assumes entry is not the empty string
func split(entry string) (key, value string) {
	parts := strings.SplitN(entry, "=", 2)
	if len(parts) < 2 {
		return parts[0], ""
	}
	return parts[0], parts[1]
}

// GetString returns the value for key, or defaultValue when the key is unset or empty.
func GetString(config map[string]string, key string, defaultValue string) string {
	if config == nil {
		return defaultValue
	}

	if val, ok := config[key]; ok && strings.TrimSpace(val) != "" {
		return strings.TrimSpace(val)
	}
	return defaultValue
}

func GetInt(config map[string]string, key string, defaultValue int) int {
	s := GetString(config, key, "")
	if s == "" {
		return defaultValue
	}

	asInt, err := strconv.Atoi(s)
	if err != nil {
		return defaultValue
	}

	return asInt
}

// GetBool accepts 1/0, true/false, yes/no and on/off.
func GetBool(config map[string]string, key string, defaultValue bool) bool {
	switch strings.ToLower(GetString(config, key, "")) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return defaultValue
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizePrefix(prefix string) string {
	prefix = strings.Trim(strings.TrimSpace(prefix), "/")
	if prefix == "" {
		return ""
	}
	return "/" + prefix
}

// siblingURL swaps the last path segment of base for name.
func siblingURL(base, name string) string {
	if i := strings.LastIndex(base, "/"); i > len("https://") {
		return base[:i] + "/" + name
	}
	return base + "/" + name
}

func parseSameSite(raw string) http.SameSite {
	switch strings.ToLower(raw) {
	case "lax":
		return http.SameSiteLaxMode
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	}
	return http.SameSiteDefaultMode
}
