package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	AppEnv      string
	ServiceName string
	HTTPAddr    string
	LogLevel    string
	LogFile     string

	DBDriver       string
	DatabaseURL    string
	DBMaxOpenConns int
	DBMaxIdleConns int
	MigrateOnStart bool

	JWTAccessSecret  []byte
	JWTRefreshSecret []byte
	AccessTTL        time.Duration
	RefreshTTL       time.Duration
	SingleSession    bool

	KafkaBrokers []string

	ESURL      string
	ESUser     string
	ESPassword string
	ESIndex    string

	ProtectedPrefixes []string
	AuthOnlyPaths     []string
	LoginPath         string
	LandingPath       string

	CSRFEnabled     bool
	CORSOrigins     []string
	LoginRatePerSec float64
	LoginRateBurst  int

	CatalogSeedFile      string
	WebDir               string
	SessionPruneSchedule string
}

func (c *Config) Production() bool {
	return strings.EqualFold(c.AppEnv, "production")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("SERVICE_NAME", "storefront")
	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("LOG_LEVEL", "info")

	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_MAX_OPEN_CONNS", 20)
	v.SetDefault("DB_MAX_IDLE_CONNS", 10)
	v.SetDefault("MIGRATE_ON_START", true)

	v.SetDefault("ACCESS_TOKEN_TTL", 15*time.Minute)
	v.SetDefault("REFRESH_TOKEN_TTL", 7*24*time.Hour)
	v.SetDefault("AUTH_SINGLE_SESSION", true)

	v.SetDefault("ES_INDEX", "products")

	v.SetDefault("PROTECTED_PREFIXES", "/account,/checkout,/dashboard")
	v.SetDefault("AUTH_ONLY_PATHS", "/login,/register")
	v.SetDefault("LOGIN_PATH", "/login")
	v.SetDefault("LANDING_PATH", "/dashboard")

	v.SetDefault("CSRF_ENABLED", false)
	v.SetDefault("LOGIN_RATE_PER_SEC", 1.0)
	v.SetDefault("LOGIN_RATE_BURST", 5)

	v.SetDefault("SESSION_PRUNE_SCHEDULE", "@hourly")
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Notice: .env file not found: %v. Using system environment variables", err)
	}

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &Config{
		AppEnv:      v.GetString("APP_ENV"),
		ServiceName: v.GetString("SERVICE_NAME"),
		HTTPAddr:    v.GetString("HTTP_ADDR"),
		LogLevel:    v.GetString("LOG_LEVEL"),
		LogFile:     v.GetString("LOG_FILE"),

		DBDriver:       strings.ToLower(v.GetString("DB_DRIVER")),
		DatabaseURL:    databaseURL(v),
		DBMaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		DBMaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
		MigrateOnStart: v.GetBool("MIGRATE_ON_START"),

		JWTAccessSecret:  []byte(v.GetString("JWT_SECRET")),
		JWTRefreshSecret: []byte(v.GetString("JWT_REFRESH_SECRET")),
		AccessTTL:        v.GetDuration("ACCESS_TOKEN_TTL"),
		RefreshTTL:       v.GetDuration("REFRESH_TOKEN_TTL"),
		SingleSession:    v.GetBool("AUTH_SINGLE_SESSION"),

		KafkaBrokers: CSV(v.GetString("KAFKA_BROKERS")),

		ESURL:      v.GetString("ES_URL"),
		ESUser:     v.GetString("ES_USER"),
		ESPassword: v.GetString("ES_PASSWORD"),
		ESIndex:    v.GetString("ES_INDEX"),

		ProtectedPrefixes: CSV(v.GetString("PROTECTED_PREFIXES")),
		AuthOnlyPaths:     CSV(v.GetString("AUTH_ONLY_PATHS")),
		LoginPath:         v.GetString("LOGIN_PATH"),
		LandingPath:       v.GetString("LANDING_PATH"),

		CSRFEnabled:     v.GetBool("CSRF_ENABLED"),
		CORSOrigins:     CSV(v.GetString("CORS_ORIGINS")),
		LoginRatePerSec: v.GetFloat64("LOGIN_RATE_PER_SEC"),
		LoginRateBurst:  v.GetInt("LOGIN_RATE_BURST"),

		CatalogSeedFile:      v.GetString("CATALOG_SEED_FILE"),
		WebDir:               v.GetString("WEB_DIR"),
		SessionPruneSchedule: v.GetString("SESSION_PRUNE_SCHEDULE"),
	}

	// viper treats an empty variable as unset; these keys accept an explicit empty value
	if explicitlyEmpty("SESSION_PRUNE_SCHEDULE") {
		cfg.SessionPruneSchedule = ""
	}
	if explicitlyEmpty("PROTECTED_PREFIXES") {
		cfg.ProtectedPrefixes = nil
	}
	if explicitlyEmpty("AUTH_ONLY_PATHS") {
		cfg.AuthOnlyPaths = nil
	}

	if len(cfg.JWTRefreshSecret) == 0 {
		cfg.JWTRefreshSecret = cfg.JWTAccessSecret
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var errs []error
	if err := RequireNonEmpty(c.DatabaseURL, "DATABASE_URL"); err != nil {
		errs = append(errs, err)
	}
	if err := RequireNonEmpty(string(c.JWTAccessSecret), "JWT_SECRET"); err != nil {
		errs = append(errs, err)
	}
	if c.DBDriver != "postgres" && c.DBDriver != "sqlite" {
		errs = append(errs, fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver))
	}
	if c.AccessTTL <= 0 || c.RefreshTTL <= 0 {
		errs = append(errs, errors.New("token TTLs must be positive"))
	}
	return errors.Join(errs...)
}

// databaseURL prefers DATABASE_URL and falls back to the DB_* parts.
func databaseURL(v *viper.Viper) string {
	if dsn := v.GetString("DATABASE_URL"); dsn != "" {
		return dsn
	}
	user, name := v.GetString("DB_USER"), v.GetString("DB_NAME")
	if user == "" || name == "" {
		return ""
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		user, v.GetString("DB_PASSWORD"), v.GetString("DB_HOST"), v.GetString("DB_PORT"), name,
	)
}

func explicitlyEmpty(key string) bool {
	raw, ok := os.LookupEnv(key)
	return ok && strings.TrimSpace(raw) == ""
}

func CSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
