package config

import (
	"strings"
	"testing"
)

func TestLoadEnvDefaults(t *testing.T) {
	for _, k := range []string{"APP_ADDR", "DB_DSN", "DB_HOST", "CORS_ALLOWED_ORIGINS", "DEFAULT_CURRENCY", "SECURITY_LOG_BUFFER", "LOG_FORMAT"} {
		t.Setenv(k, "")
	}
	env := LoadEnv()
	if env.AppAddr != ":8080" {
		t.Fatalf("AppAddr = %q", env.AppAddr)
	}
	if env.DefaultCurrency != "USD" || env.SecurityLogBuffer != 256 || env.LogFormat != "json" {
		t.Fatalf("unexpected defaults: %+v", env)
	}
	if len(env.CORSAllowedOrigins) == 0 {
		t.Fatalf("expected default origins")
	}
	if !strings.Contains(env.DSN(), "@tcp(127.0.0.1:3306)/") {
		t.Fatalf("DSN = %q", env.DSN())
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("DB_DSN", "u:p@tcp(db:3306)/x")
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.example , ,https://b.example")
	t.Setenv("SECURITY_LOG_BUFFER", "oops")
	t.Setenv("DEFAULT_CURRENCY", "ars")

	env := LoadEnv()
	if env.DSN() != "u:p@tcp(db:3306)/x" {
		t.Fatalf("DB_DSN should win, got %q", env.DSN())
	}
	if len(env.CORSAllowedOrigins) != 2 || env.CORSAllowedOrigins[1] != "https://b.example" {
		t.Fatalf("origins = %v", env.CORSAllowedOrigins)
	}
	if env.SecurityLogBuffer != 256 {
		t.Fatalf("bad buffer size should fall back, got %d", env.SecurityLogBuffer)
	}
	if env.DefaultCurrency != "ARS" {
		t.Fatalf("currency = %q", env.DefaultCurrency)
	}
}
