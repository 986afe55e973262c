package config

import (
	"strings"
	"testing"
	"time"
)

func TestPasswordPolicy_Validate(t *testing.T) {
	policy := PasswordPolicy{
		MinLength:        8,
		RequireUppercase: true,
		RequireLowercase: true,
		RequireNumber:    true,
		RequireSpecial:   true,
	}

	if err := policy.Validate("Str0ng!Pass"); err != nil {
		t.Fatalf("expected valid password, got %v", err)
	}

	if err := policy.Validate("Sh0rt!"); err == nil {
		t.Fatalf("expected length error")
	}

	err := policy.Validate("alllowercase1!")
	if err == nil || !strings.Contains(err.Error(), "uppercase letter") {
		t.Fatalf("expected uppercase requirement, got %v", err)
	}

	err = policy.Validate("NoNumbers!Here")
	if err == nil || !strings.Contains(err.Error(), "number") {
		t.Fatalf("expected number requirement, got %v", err)
	}

	err = policy.Validate("NoSpecial1Here")
	if err == nil || !strings.Contains(err.Error(), "special character") {
		t.Fatalf("expected special character requirement, got %v", err)
	}

	// Several missing classes are reported together.
	err = policy.Validate("lowercase")
	if err == nil || !strings.Contains(err.Error(), "uppercase letter") || !strings.Contains(err.Error(), "number") {
		t.Fatalf("expected combined requirements, got %v", err)
	}

	relaxed := PasswordPolicy{MinLength: 4}
	if err := relaxed.Validate("abcd"); err != nil {
		t.Fatalf("relaxed policy should accept simple passwords, got %v", err)
	}
}

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("TEST_STRING", "value")
	t.Setenv("TEST_DURATION", "30s")
	t.Setenv("TEST_DURATION_MINUTES", "15")
	t.Setenv("TEST_BOOL", "true")
	t.Setenv("TEST_INT", "42")
	t.Setenv("TEST_BAD_INT", "not-a-number")

	if got := getEnv("TEST_STRING", "default"); got != "value" {
		t.Fatalf("getEnv = %q", got)
	}
	if got := getEnv("TEST_ABSENT", "default"); got != "default" {
		t.Fatalf("getEnv default = %q", got)
	}

	if got := getDurationEnv("TEST_DURATION", time.Minute); got != 30*time.Second {
		t.Fatalf("getDurationEnv = %v", got)
	}
	// Bare integers are read as minutes for compatibility with older configs.
	if got := getDurationEnv("TEST_DURATION_MINUTES", time.Minute); got != 15*time.Minute {
		t.Fatalf("getDurationEnv minutes = %v", got)
	}
	if got := getDurationEnv("TEST_ABSENT", time.Hour); got != time.Hour {
		t.Fatalf("getDurationEnv default = %v", got)
	}

	if got := getBoolEnv("TEST_BOOL", false); !got {
		t.Fatalf("getBoolEnv = %v", got)
	}
	if got := getBoolEnv("TEST_ABSENT", true); !got {
		t.Fatalf("getBoolEnv default = %v", got)
	}

	if got := getIntEnv("TEST_INT", 0); got != 42 {
		t.Fatalf("getIntEnv = %d", got)
	}
	if got := getIntEnv("TEST_BAD_INT", 7); got != 7 {
		t.Fatalf("getIntEnv fallback = %d", got)
	}
}

func TestLoad_RequiresSecrets(t *testing.T) {
	t.Setenv("JWT_ACCESS_SECRET", "")
	t.Setenv("JWT_REFRESH_SECRET", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when access secret is missing")
	}

	t.Setenv("JWT_ACCESS_SECRET", "same-secret")
	t.Setenv("JWT_REFRESH_SECRET", "same-secret")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error when secrets are identical")
	}
}

func TestLoad_DriverValidation(t *testing.T) {
	t.Setenv("JWT_ACCESS_SECRET", "access-secret")
	t.Setenv("JWT_REFRESH_SECRET", "refresh-secret")

	t.Setenv("DATABASE_DRIVER", "mysql")
	t.Setenv("MYSQL_DSN", "")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for mysql driver without DSN")
	}

	t.Setenv("DATABASE_DRIVER", "oracle")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for unsupported driver")
	}

	t.Setenv("DATABASE_DRIVER", "memory")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Database.Driver != "memory" {
		t.Fatalf("unexpected driver %q", cfg.Database.Driver)
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_ACCESS_SECRET", "access-secret")
	t.Setenv("JWT_REFRESH_SECRET", "refresh-secret")
	t.Setenv("DATABASE_DRIVER", "memory")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.HTTP.Port != "8080" {
		t.Fatalf("default port = %q", cfg.HTTP.Port)
	}
	if cfg.JWT.AccessTokenTTL != 15*time.Minute {
		t.Fatalf("default access TTL = %v", cfg.JWT.AccessTokenTTL)
	}
	if cfg.JWT.RefreshTokenTTL != 7*24*time.Hour {
		t.Fatalf("default refresh TTL = %v", cfg.JWT.RefreshTokenTTL)
	}
	if cfg.Password.BcryptCost != 12 {
		t.Fatalf("default bcrypt cost = %d", cfg.Password.BcryptCost)
	}
	if !cfg.Features.EmailVerification {
		t.Fatalf("email verification should default on")
	}
	if cfg.Password.Policy.MinLength != 8 || !cfg.Password.Policy.RequireSpecial {
		t.Fatalf("unexpected default policy: %+v", cfg.Password.Policy)
	}
	if cfg.RateLimit.Enabled() {
		t.Fatalf("rate limit should be disabled without a redis URL")
	}
	if cfg.SMTP.Configured() {
		t.Fatalf("smtp should be unconfigured without a host")
	}
}
