package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("REDIS_URL", "")
	t.Setenv("JWT_SECRET", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.AppPort != 8080 {
		t.Errorf("expected default AppPort 8080, got %d", cfg.AppPort)
	}
	if cfg.LogFormat != "json" || cfg.LogLevel != "info" {
		t.Errorf("unexpected log defaults %q/%q", cfg.LogFormat, cfg.LogLevel)
	}
	if cfg.WriteTimeout != 10*time.Minute {
		t.Errorf("expected WriteTimeout 10m, got %s", cfg.WriteTimeout)
	}
	if cfg.DefaultDailyLimit != 100 || !cfg.RateLimitEnabled {
		t.Errorf("unexpected quota defaults: limit=%d enabled=%v", cfg.DefaultDailyLimit, cfg.RateLimitEnabled)
	}
	if cfg.TokenTTL != time.Hour {
		t.Errorf("expected TokenTTL 1h, got %s", cfg.TokenTTL)
	}
	if cfg.DatabaseURL != "" || cfg.RedisURL != "" {
		t.Error("storage URLs should be optional")
	}
	if cfg.JWTSecret == "" {
		t.Error("development should fall back to a signing secret")
	}
}

func TestLoad_ProductionRequiresSecret(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	if err == nil || !strings.Contains(err.Error(), "JWT_SECRET") {
		t.Fatalf("expected JWT_SECRET error, got %v", err)
	}
}

func TestLoad_ParsesOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("DEFAULT_DAILY_LIMIT", "250")
	t.Setenv("OUTBOUND_TIMEOUT", "3s")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example,")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.DefaultDailyLimit != 250 {
		t.Errorf("DefaultDailyLimit = %d", cfg.DefaultDailyLimit)
	}
	if cfg.OutboundTimeout != 3*time.Second {
		t.Errorf("OutboundTimeout = %s", cfg.OutboundTimeout)
	}
	origins := cfg.GetCORSAllowedOrigins()
	if len(origins) != 2 || origins[1] != "https://b.example" {
		t.Errorf("origins = %v", origins)
	}
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	valid := func() Config {
		return Config{
			AppEnv:             "production",
			AppPort:            8080,
			LogFormat:          "json",
			JWTSecret:          "secret",
			TokenTTL:           time.Hour,
			DefaultDailyLimit:  100,
			RedirectRPS:        100,
			MaxRequestBodySize: 1 << 20,
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"bad port", func(c *Config) { c.AppPort = 0 }, "APP_PORT"},
		{"bad log format", func(c *Config) { c.LogFormat = "xml" }, "LOG_FORMAT"},
		{"zero ttl", func(c *Config) { c.TokenTTL = 0 }, "TOKEN_TTL"},
		{"zero daily limit", func(c *Config) { c.DefaultDailyLimit = 0 }, "DEFAULT_DAILY_LIMIT"},
		{"relative base url", func(c *Config) { c.BaseURL = "night.example" }, "BASE_URL"},
		{"absolute base url", func(c *Config) { c.BaseURL = "https://night.example" }, ""},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error mentioning %s, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestConfig_IsDevelopment(t *testing.T) {
	cfg := &Config{AppEnv: "development"}
	if !cfg.IsDevelopment() {
		t.Error("expected IsDevelopment to return true")
	}

	cfg.AppEnv = "production"
	if cfg.IsDevelopment() {
		t.Error("expected IsDevelopment to return false")
	}
}

func TestRedactURL(t *testing.T) {
	t.Parallel()

	got := RedactURL("postgres://night:hunter2@db:5432/nightapi")
	if strings.Contains(got, "hunter2") {
		t.Errorf("password leaked: %s", got)
	}
	if RedactURL("redis://localhost:6379") != "redis://localhost:6379" {
		t.Error("URL without credentials should be unchanged")
	}
}
