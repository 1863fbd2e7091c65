package config

import (
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	Env  string `validate:"required"`
	Port string `validate:"required,numeric"`

	StateBackend string `validate:"oneof=memory mysql"`
	MySQLDSN     string `validate:"required_if=StateBackend mysql"`

	// Optional: run migrations at startup (dev convenience)
	RunMigrations bool
	MigrationsDir string `validate:"required_if=RunMigrations true"`

	// Fallback site identity for tenants with no stored site.
	SiteDomain string `validate:"omitempty,hostname_port|fqdn|hostname"`
	SiteScheme string `validate:"oneof=http https"`

	FeedSchemaPath string

	// PublicBaseURL is where this service is reachable; feeds advertise
	// their own URL from it.
	PublicBaseURL string `validate:"omitempty,url"`

	// Empty selects the in-process rendition index.
	RedisURL string `validate:"omitempty,url"`

	JWTPublicKeyPEM string
	LogLevel        string `validate:"omitempty,oneof=trace debug info warn warning error fatal panic"`
}

func Load() Config {
	_ = godotenv.Load()
	return Config{
		Env:             getenv("ENV", "dev"),
		Port:            getenv("PORT", "8080"),
		StateBackend:    strings.ToLower(getenv("STATE_BACKEND", "memory")),
		MySQLDSN:        getenv("DB_DSN", ""),
		RunMigrations:   getenv("RUN_MIGRATIONS", "false") == "true",
		MigrationsDir:   getenv("MIGRATIONS_DIR", "migrations"),
		SiteDomain:      getenv("SITE_DOMAIN", ""),
		SiteScheme:      getenv("SITE_SCHEME", "http"),
		FeedSchemaPath:  getenv("FEED_SCHEMA_PATH", ""),
		PublicBaseURL:   getenv("PUBLIC_BASE_URL", ""),
		RedisURL:        getenv("REDIS_URL", ""),
		JWTPublicKeyPEM: getenv("JWT_PUBLIC_KEY_PEM", ""),
		LogLevel:        getenv("LOG_LEVEL", "info"),
	}
}

func (c Config) Validate() error {
	return validator.New().Struct(c)
}

// IsDev reports whether dev-only conveniences (X-Tenant-ID, unauthenticated
// /v1) are allowed.
func (c Config) IsDev() bool {
	return c.Env == "dev" || c.Env == "local"
}

func getenv(key string, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}
