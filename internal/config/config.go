package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	minSecretKeyLength = 32
)

var insecureSecretKeys = map[string]struct{}{
	"change_me_in_production":                    {},
	"replace_with_at_least_32_random_characters": {},
}

type Config struct {
	AppEnv                   string
	Port                     string
	DBDriver                 string
	DBPath                   string
	DatabaseURL              string
	SecretKey                string
	DefaultLanguage          string
	CookieSecure             bool
	CORSOrigin               string
	SignupRateLimitPerMinute int
	RequireUniqueEmail       bool
	SocialProofInterval      time.Duration
	TemplateDir              string
	StaticDir                string
	LocalesDir               string
	ShutdownTimeout          time.Duration
}

// Load reads the optional .env file and then the process environment.
func Load(envFiles ...string) (*Config, error) {
	if err := loadDotEnv(envFiles...); err != nil {
		return nil, err
	}

	secretKey, err := ResolveSecretKey()
	if err != nil {
		return nil, err
	}
	port, err := ResolvePort()
	if err != nil {
		return nil, err
	}
	driver, err := resolveDriver()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		AppEnv:                   getEnv("APP_ENV", "production"),
		Port:                     port,
		DBDriver:                 driver,
		DBPath:                   getEnv("DB_PATH", filepath.Join("data", "detailsync.db")),
		DatabaseURL:              strings.TrimSpace(os.Getenv("DATABASE_URL")),
		SecretKey:                secretKey,
		DefaultLanguage:          getEnv("DEFAULT_LANGUAGE", "en"),
		CookieSecure:             getEnvBool("COOKIE_SECURE", false),
		CORSOrigin:               getEnv("CORS_ORIGIN", "*"),
		SignupRateLimitPerMinute: getEnvInt("SIGNUP_RATE_LIMIT_PER_MINUTE", 20),
		RequireUniqueEmail:       getEnvBool("SIGNUP_REQUIRE_UNIQUE_EMAIL", false),
		SocialProofInterval:      getEnvDuration("SOCIAL_PROOF_INTERVAL", 5*time.Second),
		TemplateDir:              getEnv("TEMPLATE_DIR", filepath.Join("internal", "templates")),
		StaticDir:                getEnv("STATIC_DIR", filepath.Join("web", "static")),
		LocalesDir:               getEnv("LOCALES_DIR", filepath.Join("internal", "i18n", "locales")),
		ShutdownTimeout:          getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
	}

	if cfg.DBDriver == DriverPostgres && cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required when DB_DRIVER=postgres")
	}
	return cfg, nil
}

func (cfg *Config) IsDevelopment() bool {
	return strings.EqualFold(cfg.AppEnv, "development")
}

func ResolveSecretKey() (string, error) {
	secret := strings.TrimSpace(os.Getenv("SECRET_KEY"))
	if secret == "" {
		return "", errors.New("SECRET_KEY is required")
	}
	if _, insecure := insecureSecretKeys[strings.ToLower(secret)]; insecure {
		return "", errors.New("SECRET_KEY uses an insecure placeholder value")
	}
	if len(secret) < minSecretKeyLength {
		return "", fmt.Errorf("SECRET_KEY must be at least %d characters", minSecretKeyLength)
	}
	return secret, nil
}

func ResolvePort() (string, error) {
	raw := getEnv("PORT", "8080")
	port, err := strconv.Atoi(raw)
	if err != nil || port < 1 || port > 65535 {
		return "", fmt.Errorf("invalid PORT %q", raw)
	}
	return strconv.Itoa(port), nil
}

func resolveDriver() (string, error) {
	driver := strings.ToLower(getEnv("DB_DRIVER", DriverSQLite))
	switch driver {
	case DriverSQLite, DriverPostgres:
		return driver, nil
	default:
		return "", fmt.Errorf("unsupported DB_DRIVER %q", driver)
	}
}

func loadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, file := range files {
		if err := godotenv.Load(file); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", file, err)
		}
	}
	return nil
}

func getEnv(key string, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func getEnvInt(key string, fallback int) int {
	value, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return value
}

func getEnvBool(key string, fallback bool) bool {
	value, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return value
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, err := time.ParseDuration(getEnv(key, ""))
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}
