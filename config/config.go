package config

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds everything main needs to wire the service.
type Config struct {
	Port           string   `mapstructure:"PORT"`
	DatabaseURL    string   `mapstructure:"DATABASE_URL"`
	ServiceToken   string   `mapstructure:"SERVICE_TOKEN"`
	AllowedOrigins []string `mapstructure:"-"`
	LogMode        string   `mapstructure:"LOG_MODE"`

	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`

	// Engine rules
	FirstLessonID                int    `mapstructure:"FIRST_LESSON_ID"`
	DefaultAvatarIcon            string `mapstructure:"DEFAULT_AVATAR_ICON"`
	HintAfterAttempts            int    `mapstructure:"HINT_AFTER_ATTEMPTS"`
	UnlockRequireLessonCompleted bool   `mapstructure:"UNLOCK_REQUIRE_LESSON_COMPLETED"`

	RankingLimit           int           `mapstructure:"RANKING_LIMIT"`
	RankingRefreshInterval time.Duration `mapstructure:"RANKING_REFRESH_INTERVAL"`
	ReconcileInterval      time.Duration `mapstructure:"RECONCILE_INTERVAL"`

	// Catalog sources
	CatalogPath         string        `mapstructure:"CATALOG_PATH"`
	CatalogSyncInterval time.Duration `mapstructure:"CATALOG_SYNC_INTERVAL"`
	R2                  R2Config      `mapstructure:",squash"`
}

// R2Config points at the Cloudflare R2 bucket holding the published catalog.
type R2Config struct {
	AccountID       string `mapstructure:"CLOUDFLARE_ACCOUNT_ID"`
	AccessKeyID     string `mapstructure:"R2_ACCESS_KEY_ID"`
	AccessKeySecret string `mapstructure:"R2_ACCESS_KEY_SECRET"`
	Bucket          string `mapstructure:"R2_BUCKET_NAME"`
	CatalogKey      string `mapstructure:"R2_CATALOG_KEY"`
}

// Enabled reports whether enough R2 settings are present to poll the catalog object.
func (c R2Config) Enabled() bool {
	return c.AccountID != "" && c.Bucket != "" && c.CatalogKey != ""
}

var keys = []string{
	"PORT", "DATABASE_URL", "SERVICE_TOKEN", "ALLOWED_ORIGINS", "LOG_MODE",
	"REDIS_ADDR", "REDIS_PASSWORD",
	"FIRST_LESSON_ID", "DEFAULT_AVATAR_ICON", "HINT_AFTER_ATTEMPTS", "UNLOCK_REQUIRE_LESSON_COMPLETED",
	"RANKING_LIMIT", "RANKING_REFRESH_INTERVAL", "RECONCILE_INTERVAL",
	"CATALOG_PATH", "CATALOG_SYNC_INTERVAL",
	"CLOUDFLARE_ACCOUNT_ID", "R2_ACCESS_KEY_ID", "R2_ACCESS_KEY_SECRET", "R2_BUCKET_NAME", "R2_CATALOG_KEY",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "5200")
	v.SetDefault("ALLOWED_ORIGINS", "http://localhost:3000")
	v.SetDefault("LOG_MODE", "development")
	v.SetDefault("FIRST_LESSON_ID", 1)
	v.SetDefault("DEFAULT_AVATAR_ICON", "default")
	v.SetDefault("HINT_AFTER_ATTEMPTS", 2)
	v.SetDefault("UNLOCK_REQUIRE_LESSON_COMPLETED", false)
	v.SetDefault("RANKING_LIMIT", 100)
	v.SetDefault("RANKING_REFRESH_INTERVAL", time.Minute)
	v.SetDefault("RECONCILE_INTERVAL", 15*time.Minute)
	v.SetDefault("CATALOG_SYNC_INTERVAL", 5*time.Minute)
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading environment variables directly")
	}

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()
	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	cfg.AllowedOrigins = splitOrigins(v.GetString("ALLOWED_ORIGINS"))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return errors.New("DATABASE_URL environment variable not set")
	}
	if c.ServiceToken == "" {
		return errors.New("SERVICE_TOKEN environment variable not set")
	}
	if c.FirstLessonID < 1 {
		return errors.New("FIRST_LESSON_ID must be positive")
	}
	if c.HintAfterAttempts < 1 {
		return errors.New("HINT_AFTER_ATTEMPTS must be positive")
	}
	return nil
}

func splitOrigins(raw string) []string {
	var out []string
	for _, origin := range strings.Split(raw, ",") {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			out = append(out, origin)
		}
	}
	return out
}
