package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTP      HTTPConfig
	Log       LogConfig
	JWT       JWTConfig
	Password  PasswordConfig
	Features  FeatureConfig
	RateLimit RateLimitConfig
	Database  DatabaseConfig
	SMTP      SMTPConfig
}

type HTTPConfig struct {
	Host            string
	Port            string
	CORSOrigin      string
	FrontendBaseURL string
}

type LogConfig struct {
	Level  string
	Format string
}

type JWTConfig struct {
	AccessSecret         string
	RefreshSecret        string
	AccessTokenTTL       time.Duration
	RefreshTokenTTL      time.Duration
	VerificationTokenTTL time.Duration
	ResetTokenTTL        time.Duration
}

type PasswordConfig struct {
	BcryptCost int
	Policy     PasswordPolicy
}

// FeatureConfig toggles optional flows. OAuth, PhoneAuth and MagicLink are
// recognized for forward compatibility but have no wired flow yet.
type FeatureConfig struct {
	EmailVerification bool
	OAuth             bool
	PhoneAuth         bool
	MagicLink         bool
}

type RateLimitConfig struct {
	RedisURL string
	Window   time.Duration
	Max      int
}

func (r RateLimitConfig) Enabled() bool {
	return r.RedisURL != "" && r.Max > 0
}

type DatabaseConfig struct {
	Driver        string
	MySQLDSN      string
	MongoURI      string
	MongoDatabase string
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

func (s SMTPConfig) Configured() bool {
	return s.Host != ""
}

type PasswordPolicy struct {
	MinLength        int
	RequireUppercase bool
	RequireLowercase bool
	RequireNumber    bool
	RequireSpecial   bool
}

func (p PasswordPolicy) Validate(password string) error {
	if len(password) < p.MinLength {
		return fmt.Errorf("password must be at least %d characters long", p.MinLength)
	}

	var hasUpper, hasLower, hasNumber, hasSpecial bool
	for _, ch := range password {
		switch {
		case unicode.IsUpper(ch):
			hasUpper = true
		case unicode.IsLower(ch):
			hasLower = true
		case unicode.IsDigit(ch):
			hasNumber = true
		case unicode.IsPunct(ch) || unicode.IsSymbol(ch):
			hasSpecial = true
		}
	}

	var missing []string
	if p.RequireUppercase && !hasUpper {
		missing = append(missing, "uppercase letter")
	}
	if p.RequireLowercase && !hasLower {
		missing = append(missing, "lowercase letter")
	}
	if p.RequireNumber && !hasNumber {
		missing = append(missing, "number")
	}
	if p.RequireSpecial && !hasSpecial {
		missing = append(missing, "special character")
	}

	if len(missing) > 0 {
		return fmt.Errorf("password must contain at least one: %s", strings.Join(missing, ", "))
	}

	return nil
}

func Load() (*Config, error) {
	// Load .env file if it exists (ignores error if not found)
	_ = godotenv.Load()

	accessSecret := os.Getenv("JWT_ACCESS_SECRET")
	if accessSecret == "" {
		return nil, errors.New("JWT_ACCESS_SECRET environment variable is required")
	}
	refreshSecret := os.Getenv("JWT_REFRESH_SECRET")
	if refreshSecret == "" {
		return nil, errors.New("JWT_REFRESH_SECRET environment variable is required")
	}
	if accessSecret == refreshSecret {
		return nil, errors.New("JWT_ACCESS_SECRET and JWT_REFRESH_SECRET must differ")
	}

	cfg := &Config{
		HTTP: HTTPConfig{
			Host:            getEnv("HTTP_HOST", ""),
			Port:            getEnv("HTTP_PORT", "8080"),
			CORSOrigin:      getEnv("CORS_ORIGIN", "*"),
			FrontendBaseURL: getEnv("FRONTEND_BASE_URL", "http://localhost:3000"),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		JWT: JWTConfig{
			AccessSecret:         accessSecret,
			RefreshSecret:        refreshSecret,
			AccessTokenTTL:       getDurationEnv("JWT_ACCESS_TOKEN_TTL", 15*time.Minute),
			RefreshTokenTTL:      getDurationEnv("JWT_REFRESH_TOKEN_TTL", 7*24*time.Hour),
			VerificationTokenTTL: getDurationEnv("VERIFICATION_TOKEN_TTL", 24*time.Hour),
			ResetTokenTTL:        getDurationEnv("RESET_TOKEN_TTL", 1*time.Hour),
		},
		Password: PasswordConfig{
			BcryptCost: getIntEnv("BCRYPT_COST", 12),
			Policy:     loadPasswordPolicy(),
		},
		Features: FeatureConfig{
			EmailVerification: getBoolEnv("FEATURE_EMAIL_VERIFICATION", true),
			OAuth:             getBoolEnv("FEATURE_OAUTH", false),
			PhoneAuth:         getBoolEnv("FEATURE_PHONE_AUTH", false),
			MagicLink:         getBoolEnv("FEATURE_MAGIC_LINK", false),
		},
		RateLimit: RateLimitConfig{
			RedisURL: getEnv("RATE_LIMIT_REDIS_URL", ""),
			Window:   getDurationEnv("RATE_LIMIT_WINDOW", 15*time.Minute),
			Max:      getIntEnv("RATE_LIMIT_MAX", 100),
		},
		Database: DatabaseConfig{
			Driver:        getEnv("DATABASE_DRIVER", "mysql"),
			MySQLDSN:      getEnv("MYSQL_DSN", ""),
			MongoURI:      getEnv("MONGODB_URI", ""),
			MongoDatabase: getEnv("MONGODB_DATABASE", "authsvc"),
		},
		SMTP: SMTPConfig{
			Host:     getEnv("SMTP_HOST", ""),
			Port:     getIntEnv("SMTP_PORT", 587),
			Username: getEnv("SMTP_USER", ""),
			Password: getEnv("SMTP_PASS", ""),
			From:     getEnv("SMTP_FROM", "noreply@localhost"),
		},
	}

	switch cfg.Database.Driver {
	case "mysql":
		if cfg.Database.MySQLDSN == "" {
			return nil, errors.New("MYSQL_DSN environment variable is required for the mysql driver")
		}
	case "mongo":
		if cfg.Database.MongoURI == "" {
			return nil, errors.New("MONGODB_URI environment variable is required for the mongo driver")
		}
	case "memory":
	default:
		return nil, fmt.Errorf("unsupported DATABASE_DRIVER %q", cfg.Database.Driver)
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		if minutes, err := strconv.Atoi(value); err == nil {
			return time.Duration(minutes) * time.Minute
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func loadPasswordPolicy() PasswordPolicy {
	return PasswordPolicy{
		MinLength:        getIntEnv("PASSWORD_MIN_LENGTH", 8),
		RequireUppercase: getBoolEnv("PASSWORD_REQUIRE_UPPERCASE", true),
		RequireLowercase: getBoolEnv("PASSWORD_REQUIRE_LOWERCASE", true),
		RequireNumber:    getBoolEnv("PASSWORD_REQUIRE_NUMBER", true),
		RequireSpecial:   getBoolEnv("PASSWORD_REQUIRE_SPECIAL", true),
	}
}
