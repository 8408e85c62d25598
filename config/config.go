package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port          string
	SQLiteDB      string
	SessionSecret string
	GinMode       string
	DBLogLevel    string
	Domain        string

	// Emails that receive the admin role when they register.
	AdminEmails []string

	PageCacheDir string
	PageCacheTTL time.Duration

	CommentRateEvery time.Duration
	CommentRateBurst int
	MaxThreadDepth   int

	SMTP         SMTPConfig
	ContactInbox string
}

type SMTPConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	From     string
}

// Load reads .env files (when present) and then the process environment.
// Values already set in the environment win over .env entries.
func Load(files ...string) *Config {
	if err := godotenv.Load(files...); err != nil && !os.IsNotExist(err) {
		log.Printf("config: could not load env file: %v", err)
	}

	return &Config{
		Port:          getEnv("PORT", "8080"),
		SQLiteDB:      getEnv("SQLITE_DB", "folio.db"),
		SessionSecret: os.Getenv("SESSION_SECRET"),
		GinMode:       getEnv("GIN_MODE", "debug"),
		DBLogLevel:    getEnv("DB_LOG_LEVEL", "warn"),
		Domain:        strings.TrimSuffix(getEnv("DOMAIN", "http://localhost:8080"), "/"),
		AdminEmails:   splitList(os.Getenv("ADMIN_EMAILS")),

		PageCacheDir: getEnv("PAGE_CACHE_DIR", "cache"),
		PageCacheTTL: getDuration("PAGE_CACHE_TTL", 5*time.Minute),

		CommentRateEvery: getDuration("COMMENT_RATE_EVERY", 30*time.Second),
		CommentRateBurst: getInt("COMMENT_RATE_BURST", 3),
		MaxThreadDepth:   getInt("MAX_THREAD_DEPTH", 8),

		SMTP: SMTPConfig{
			Host:     os.Getenv("SMTP_HOST"),
			Port:     getEnv("SMTP_PORT", "587"),
			User:     os.Getenv("SMTP_USER"),
			Password: os.Getenv("SMTP_PASSWORD"),
			From:     os.Getenv("SMTP_FROM"),
		},
		ContactInbox: os.Getenv("CONTACT_INBOX"),
	}
}

// IsAdminEmail reports whether email is listed in ADMIN_EMAILS.
func (c *Config) IsAdminEmail(email string) bool {
	for _, e := range c.AdminEmails {
		if strings.EqualFold(e, email) {
			return true
		}
	}
	return false
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		log.Printf("config: invalid %s=%q, using %d", key, v, fallback)
		return fallback
	}
	return n
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		log.Printf("config: invalid %s=%q, using %s", key, v, fallback)
		return fallback
	}
	return d
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
