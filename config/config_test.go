package config

import (
	"os"
	"testing"
	"time"
)

func TestLoadEnv(t *testing.T) {
	// LoadEnv returns nil when no .env file exists
	err := LoadEnv()
	if err != nil {
		t.Errorf("expected nil, got %v", err)
	}
}

func TestValidateEnvAllSet(t *testing.T) {
	os.Setenv("JWT_SECRET", "test-secret")
	os.Setenv("DATABASE_URL", "test-db-url")
	defer os.Unsetenv("JWT_SECRET")
	defer os.Unsetenv("DATABASE_URL")

	err := ValidateEnv()
	if err != nil {
		t.Errorf("expected nil, got %v", err)
	}
}

func TestValidateEnvMissingJWTSecret(t *testing.T) {
	os.Unsetenv("JWT_SECRET")
	os.Setenv("DATABASE_URL", "test-db-url")
	defer os.Unsetenv("DATABASE_URL")

	err := ValidateEnv()
	if err == nil {
		t.Error("expected error for missing JWT_SECRET")
	}
}

func TestValidateEnvMissingDatabaseURL(t *testing.T) {
	os.Setenv("JWT_SECRET", "test-secret")
	os.Unsetenv("DATABASE_URL")
	defer os.Unsetenv("JWT_SECRET")

	err := ValidateEnv()
	if err == nil {
		t.Error("expected error for missing DATABASE_URL")
	}
}

func TestValidateEnvMissingBoth(t *testing.T) {
	os.Unsetenv("JWT_SECRET")
	os.Unsetenv("DATABASE_URL")

	err := ValidateEnv()
	if err == nil {
		t.Error("expected error for missing both")
	}
}

func TestGetEnvExisting(t *testing.T) {
	os.Setenv("TEST_GET_ENV_KEY", "test-value")
	defer os.Unsetenv("TEST_GET_ENV_KEY")

	result := GetEnv("TEST_GET_ENV_KEY", "default")
	if result != "test-value" {
		t.Errorf("expected 'test-value', got '%s'", result)
	}
}

func TestGetEnvMissing(t *testing.T) {
	os.Unsetenv("TEST_GET_ENV_MISSING")
	result := GetEnv("TEST_GET_ENV_MISSING", "fallback")
	if result != "fallback" {
		t.Errorf("expected 'fallback', got '%s'", result)
	}
}

func TestGetIntEnv(t *testing.T) {
	os.Setenv("TEST_INT_ENV", "25")
	defer os.Unsetenv("TEST_INT_ENV")

	if got := GetIntEnv("TEST_INT_ENV", 5); got != 25 {
		t.Errorf("expected 25, got %d", got)
	}

	os.Setenv("TEST_INT_ENV", "many")
	if got := GetIntEnv("TEST_INT_ENV", 5); got != 5 {
		t.Errorf("expected fallback 5 for invalid value, got %d", got)
	}
}

func TestGetDurationEnv(t *testing.T) {
	os.Setenv("TEST_DURATION_ENV", "90s")
	defer os.Unsetenv("TEST_DURATION_ENV")

	if got := GetDurationEnv("TEST_DURATION_ENV", time.Second); got != 90*time.Second {
		t.Errorf("expected 90s, got %s", got)
	}

	os.Setenv("TEST_DURATION_ENV", "soon")
	if got := GetDurationEnv("TEST_DURATION_ENV", time.Second); got != time.Second {
		t.Errorf("expected fallback 1s, got %s", got)
	}
}

func TestGetListEnv(t *testing.T) {
	os.Setenv("TEST_LIST_ENV", "kafka-1:9092, ,kafka-2:9092")
	defer os.Unsetenv("TEST_LIST_ENV")

	got := GetListEnv("TEST_LIST_ENV")
	if len(got) != 2 || got[0] != "kafka-1:9092" || got[1] != "kafka-2:9092" {
		t.Errorf("unexpected list %v", got)
	}

	os.Unsetenv("TEST_LIST_ENV")
	if got := GetListEnv("TEST_LIST_ENV"); got != nil {
		t.Errorf("expected nil for unset list, got %v", got)
	}
}

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "MAIL_DRIVER", "KAFKA_TOPIC", "TENANT_CACHE_TTL", "REGISTER_RATE_LIMIT", "APP_ENV"} {
		os.Unsetenv(key)
	}

	cfg := Load()
	if cfg.Port != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.Port)
	}
	if cfg.MailDriver != "log" {
		t.Errorf("expected log mail driver, got %s", cfg.MailDriver)
	}
	if cfg.KafkaTopic != "registration-events" {
		t.Errorf("expected default topic, got %s", cfg.KafkaTopic)
	}
	if cfg.TenantCacheTTL != 5*time.Minute {
		t.Errorf("expected 5m cache ttl, got %s", cfg.TenantCacheTTL)
	}
	if cfg.RegisterRateLimit != 10 {
		t.Errorf("expected rate limit 10, got %d", cfg.RegisterRateLimit)
	}
	if cfg.IsProduction() {
		t.Error("expected development environment by default")
	}
}
