package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Env struct {
	AppAddr string
	GinMode string

	DBDSN      string
	DBUser     string
	DBPassword string
	DBHost     string
	DBName     string

	CORSAllowedOrigins []string

	JWTSecret         string
	AdminPasswordHash string

	LogLevel  string
	LogFormat string

	DefaultCurrency   string
	SecurityLogBuffer int
}

var defaultOrigins = []string{
	"http://localhost:3000",
	"http://127.0.0.1:3000",
	"http://localhost:5173",
	"http://127.0.0.1:5173",
	"http://localhost:8080",
}

// LoadEnv reads .env when present, then the process environment.
func LoadEnv() Env {
	_ = godotenv.Load()

	return Env{
		AppAddr: getenv("APP_ADDR", ":8080"),
		GinMode: getenv("GIN_MODE", ""),

		DBDSN:      getenv("DB_DSN", ""),
		DBUser:     getenv("DB_USER", "root"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBHost:     getenv("DB_HOST", "127.0.0.1:3306"),
		DBName:     getenv("DB_NAME", "leadengine"),

		CORSAllowedOrigins: splitList(os.Getenv("CORS_ALLOWED_ORIGINS"), defaultOrigins),

		JWTSecret:         getenv("JWT_SECRET", ""),
		AdminPasswordHash: getenv("ADMIN_PASSWORD_HASH", ""),

		LogLevel:  strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogFormat: strings.ToLower(getenv("LOG_FORMAT", "json")),

		DefaultCurrency:   strings.ToUpper(getenv("DEFAULT_CURRENCY", "USD")),
		SecurityLogBuffer: getenvInt("SECURITY_LOG_BUFFER", 256),
	}
}

func getenv(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func getenvInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func splitList(raw string, def []string) []string {
	if strings.TrimSpace(raw) == "" {
		return def
	}
	out := []string{}
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
