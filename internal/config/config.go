package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port string

	// Env is "dev" (default) or "prod". Several gateway defaults tighten when "prod".
	Env string

	// DBDriver selects the database/sql driver: postgres (lib/pq), pgx, mysql or sqlite3.
	DBDriver string

	DBHost    string
	DBPort    string
	DBName    string
	DBUser    string
	DBPass    string
	DBSSLMode string

	// DBPath is the database file used when DBDriver is sqlite3.
	DBPath string

	// DBMaxOpenConns is the maximum number of open connections to the database (default 25).
	DBMaxOpenConns int
	// DBMaxIdleConns is the maximum number of idle connections (default 5).
	DBMaxIdleConns int

	// DBMigrate applies the embedded migrations on startup (default true).
	DBMigrate bool

	// SQLGatewayEnabled turns the /sql endpoint on. Defaults to true in dev and false in prod.
	SQLGatewayEnabled bool
	// SQLGatewayAllow lists the leading keywords /sql accepts (e.g. select, insert).
	// Empty means every statement is accepted.
	SQLGatewayAllow []string
	// SQLGatewayExposeErrors includes the engine's error text in /sql error bodies.
	// Defaults to true in dev and false in prod.
	SQLGatewayExposeErrors bool
	// SQLStatementTimeout bounds a single /sql statement (default 30s).
	SQLStatementTimeout time.Duration
	// SQLRatePerMin and SQLRateBurst configure the per-IP limiter on /sql.
	SQLRatePerMin int
	SQLRateBurst  int

	// TLSCertFile and TLSKeyFile enable HTTPS when both are set.
	// When empty, the API listens with plain HTTP.
	TLSCertFile string
	TLSKeyFile  string

	// LogFormat is "text" (default) or "json" for structured logging.
	LogFormat string
	// LogLevel is debug, info (default), warn or error.
	LogLevel string
	// LogFile, when set, tees logs into a size-rotated file.
	LogFile       string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int

	// CORSAllowedOrigins is a list of origins allowed for CORS (e.g. https://app.example.com, http://localhost:3000).
	// Set via CORS_ALLOWED_ORIGINS (comma-separated). When empty, no CORS headers are sent (same-origin only).
	CORSAllowedOrigins []string
}

func Load() Config {
	env := getEnv("ENV", "dev")
	dev := env != "prod"

	return Config{
		Port: getEnv("PORT", "8080"),
		Env:  env,

		DBDriver:  getEnv("DB_DRIVER", "postgres"),
		DBHost:    getEnv("DB_HOST", "localhost"),
		DBPort:    getEnv("DB_PORT", "5432"),
		DBName:    getEnv("DB_NAME", "appdb"),
		DBUser:    getEnv("DB_USER", "appuser"),
		DBPass:    getEnv("DB_PASS", "apppass"),
		DBSSLMode: getEnv("DB_SSLMODE", "disable"),
		DBPath:    getEnv("DB_PATH", "sqlgate.db"),

		DBMaxOpenConns: getEnvInt("DB_MAX_OPEN_CONNS", 25),
		DBMaxIdleConns: getEnvInt("DB_MAX_IDLE_CONNS", 5),
		DBMigrate:      getEnvBool("DB_MIGRATE", true),

		SQLGatewayEnabled:      getEnvBool("SQL_GATEWAY_ENABLED", dev),
		SQLGatewayAllow:        parseList(strings.ToLower(getEnv("SQL_GATEWAY_ALLOW", ""))),
		SQLGatewayExposeErrors: getEnvBool("SQL_GATEWAY_EXPOSE_ERRORS", dev),
		SQLStatementTimeout:    getEnvDuration("SQL_STATEMENT_TIMEOUT", 30*time.Second),
		SQLRatePerMin:          getEnvInt("SQL_RATE_PER_MIN", 60),
		SQLRateBurst:           getEnvInt("SQL_RATE_BURST", 10),

		// Optional TLS configuration for HTTPS.
		TLSCertFile: getEnv("TLS_CERT_FILE", ""),
		TLSKeyFile:  getEnv("TLS_KEY_FILE", ""),

		LogFormat:     getEnv("LOG_FORMAT", "text"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogFile:       getEnv("LOG_FILE", ""),
		LogMaxSizeMB:  getEnvInt("LOG_MAX_SIZE_MB", 100),
		LogMaxBackups: getEnvInt("LOG_MAX_BACKUPS", 3),
		LogMaxAgeDays: getEnvInt("LOG_MAX_AGE_DAYS", 28),

		CORSAllowedOrigins: parseList(getEnv("CORS_ALLOWED_ORIGINS", "")),
	}
}

// IsProd reports whether the service runs with production defaults.
func (c Config) IsProd() bool {
	return c.Env == "prod"
}

// parseList splits a comma-separated list and trims spaces. Empty strings are omitted.
func parseList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if o := strings.TrimSpace(p); o != "" {
			out = append(out, o)
		}
	}
	return out
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
