package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName           string
	AppEnv            string
	AppPort           string
	DatabaseDriver    string
	DatabaseURL       string
	RedisURL          string
	NATSURL           string
	NATSSubject       string
	JWTSecret         string
	DashboardCacheTTL time.Duration
	DraftTTL          time.Duration
	RequestTimeout    time.Duration
	CORSOrigins       string
	RateLimitMax      int
	BootstrapAdmin    string
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("SMS")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "Society Management API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("nats.subject", "sms.applications.decisions")
	v.SetDefault("dashboard.cache_ttl", "5m")
	v.SetDefault("draft.ttl", "72h")
	v.SetDefault("http.request_timeout", "15s")
	v.SetDefault("cors.origins", "*")
	v.SetDefault("rate_limit.max", 30)
	v.SetDefault("admin.bootstrap_email", "")

	durations := map[string]time.Duration{}
	for _, key := range []string{"dashboard.cache_ttl", "draft.ttl", "http.request_timeout"} {
		parsed, err := time.ParseDuration(v.GetString(key))
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", key, err)
		}
		if parsed <= 0 {
			return Config{}, fmt.Errorf("%s must be positive", key)
		}
		durations[key] = parsed
	}

	cfg := Config{
		AppName:           v.GetString("app.name"),
		AppEnv:            v.GetString("app.env"),
		AppPort:           v.GetString("app.port"),
		DatabaseDriver:    strings.ToLower(strings.TrimSpace(v.GetString("database.driver"))),
		DatabaseURL:       v.GetString("database.url"),
		RedisURL:          v.GetString("redis.url"),
		NATSURL:           v.GetString("nats.url"),
		NATSSubject:       v.GetString("nats.subject"),
		JWTSecret:         v.GetString("jwt.secret"),
		DashboardCacheTTL: durations["dashboard.cache_ttl"],
		DraftTTL:          durations["draft.ttl"],
		RequestTimeout:    durations["http.request_timeout"],
		CORSOrigins:       v.GetString("cors.origins"),
		RateLimitMax:      v.GetInt("rate_limit.max"),
		BootstrapAdmin:    strings.ToLower(strings.TrimSpace(v.GetString("admin.bootstrap_email"))),
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	switch cfg.DatabaseDriver {
	case "postgres", "sqlite":
	default:
		return Config{}, fmt.Errorf("unsupported database driver %q", cfg.DatabaseDriver)
	}

	if cfg.RateLimitMax <= 0 {
		cfg.RateLimitMax = 30
	}

	return cfg, nil
}
