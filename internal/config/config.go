// Package config loads server settings from defaults, an optional YAML file
// named by CONFIG_PATH, and environment variables, in that order of
// increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type HTTP struct {
	Port        int      `yaml:"port"`
	CORSOrigins []string `yaml:"corsOrigins"`
}

type Database struct {
	Path string `yaml:"path"`
}

type Auth struct {
	JWTSecret string        `yaml:"jwtSecret"`
	TokenTTL  time.Duration `yaml:"tokenTTL"`
}

type GitHub struct {
	ClientID     string `yaml:"clientId"`
	ClientSecret string `yaml:"clientSecret"`
	CallbackURL  string `yaml:"callbackURL"`
}

// Enabled reports whether GitHub sign-in should be offered.
func (g GitHub) Enabled() bool {
	return g.ClientID != "" && g.ClientSecret != ""
}

type Redis struct {
	URL        string        `yaml:"url"`
	ProfileTTL time.Duration `yaml:"profileTTL"`
}

type Realtime struct {
	SendBuffer   int           `yaml:"sendBuffer"`
	EventTimeout time.Duration `yaml:"eventTimeout"`
}

type Logging struct {
	Format    string `yaml:"format"` // text|json|zap
	Level     string `yaml:"level"`  // debug|info|warn|error
	AddSource bool   `yaml:"addSource"`
}

type Config struct {
	HTTP     HTTP     `yaml:"http"`
	Database Database `yaml:"database"`
	Auth     Auth     `yaml:"auth"`
	GitHub   GitHub   `yaml:"github"`
	Redis    Redis    `yaml:"redis"`
	Realtime Realtime `yaml:"realtime"`
	Logging  Logging  `yaml:"logging"`
}

// Default returns the settings used when nothing overrides them.
func Default() Config {
	return Config{
		HTTP: HTTP{
			Port:        3001,
			CORSOrigins: []string{"http://localhost:3000"},
		},
		Database: Database{Path: "data/social.db"},
		Auth:     Auth{TokenTTL: time.Hour},
		Redis:    Redis{ProfileTTL: 5 * time.Minute},
		Realtime: Realtime{SendBuffer: 64, EventTimeout: 5 * time.Second},
		Logging:  Logging{Format: "text", Level: "info"},
	}
}

// Load builds the configuration and validates it.
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: reading %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config: parsing %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	dur := func(key string, dst *time.Duration) error {
		v, ok := lookup(key)
		if !ok || v == "" {
			return nil
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("config: %s: %w", key, err)
		}
		*dst = d
		return nil
	}

	if v, ok := lookup("PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: PORT: %w", err)
		}
		c.HTTP.Port = port
	}
	if v, ok := lookup("CORS_ORIGINS"); ok && v != "" {
		c.HTTP.CORSOrigins = splitList(v)
	}
	str("DB_PATH", &c.Database.Path)
	str("JWT_SECRET", &c.Auth.JWTSecret)
	str("GITHUB_CLIENT_ID", &c.GitHub.ClientID)
	str("GITHUB_CLIENT_SECRET", &c.GitHub.ClientSecret)
	str("GITHUB_CALLBACK_URL", &c.GitHub.CallbackURL)
	str("REDIS_URL", &c.Redis.URL)
	str("LOG_FORMAT", &c.Logging.Format)
	str("LOG_LEVEL", &c.Logging.Level)

	if err := dur("TOKEN_TTL", &c.Auth.TokenTTL); err != nil {
		return err
	}
	if err := dur("PROFILE_CACHE_TTL", &c.Redis.ProfileTTL); err != nil {
		return err
	}
	return nil
}

func (c *Config) validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("config: port %d out of range", c.HTTP.Port)
	}
	if len(c.Auth.JWTSecret) < 16 {
		return errors.New("config: JWT_SECRET must be set and at least 16 characters")
	}
	if c.Database.Path == "" {
		return errors.New("config: database path is required")
	}
	switch c.Logging.Format {
	case "text", "json", "zap":
	default:
		return fmt.Errorf("config: unknown log format %q", c.Logging.Format)
	}
	if c.GitHub.Enabled() && c.GitHub.CallbackURL == "" {
		c.GitHub.CallbackURL = fmt.Sprintf("http://localhost:%d/api/auth/github/callback", c.HTTP.Port)
	}
	if c.Realtime.SendBuffer <= 0 {
		c.Realtime.SendBuffer = 64
	}
	if c.Realtime.EventTimeout <= 0 {
		c.Realtime.EventTimeout = 5 * time.Second
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
