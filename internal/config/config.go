package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port          int
	GinMode       string
	TLSCertFile   string
	TLSKeyFile    string
	SessionSecret string
	SessionExpiry time.Duration
	AdminUser     string
	AdminPassword string
	StateFile     string

	// Template hosting backend.
	GitHubOwner   string
	GitHubRepo    string
	GitHubDir     string
	GitHubToken   string
	GitHubAPIBase string
}

type Env interface {
	Getenv(key string) string
}

type osEnv struct{}

func (osEnv) Getenv(key string) string { return os.Getenv(key) }

func LoadConfig() (Config, error) {
	return LoadConfigFromEnv(osEnv{})
}

func LoadConfigFromEnv(env Env) (Config, error) {
	cfg := Config{
		Port:          3000,
		GinMode:       "release",
		SessionExpiry: 24 * time.Hour,
		GitHubDir:     "templates",
	}

	if raw := env.Getenv("PORT"); raw != "" {
		port, err := strconv.Atoi(raw)
		if err != nil || port <= 0 || port > 65535 {
			return Config{}, fmt.Errorf("invalid PORT")
		}
		cfg.Port = port
	}

	cfg.SessionSecret = env.Getenv("SESSION_SECRET")
	if cfg.SessionSecret == "" {
		return Config{}, fmt.Errorf("SESSION_SECRET is required")
	}

	cfg.AdminUser = env.Getenv("ADMIN_USER")
	cfg.AdminPassword = env.Getenv("ADMIN_PASSWORD")
	if cfg.AdminUser == "" || cfg.AdminPassword == "" {
		return Config{}, fmt.Errorf("ADMIN_USER and ADMIN_PASSWORD are required")
	}

	if raw := env.Getenv("GIN_MODE"); raw != "" {
		cfg.GinMode = raw
	}

	cfg.TLSCertFile = env.Getenv("TLS_CERT_FILE")
	cfg.TLSKeyFile = env.Getenv("TLS_KEY_FILE")
	cfg.StateFile = env.Getenv("STATE_FILE")

	if raw := env.Getenv("SESSION_EXPIRY_SECONDS"); raw != "" {
		seconds, err := strconv.Atoi(raw)
		if err != nil || seconds <= 0 {
			return Config{}, fmt.Errorf("invalid SESSION_EXPIRY_SECONDS")
		}
		cfg.SessionExpiry = time.Duration(seconds) * time.Second
	}

	cfg.GitHubOwner = env.Getenv("GITHUB_OWNER")
	cfg.GitHubRepo = env.Getenv("GITHUB_REPO")
	if raw := env.Getenv("GITHUB_DIR"); raw != "" {
		cfg.GitHubDir = raw
	}
	cfg.GitHubToken = env.Getenv("GITHUB_TOKEN")
	cfg.GitHubAPIBase = env.Getenv("GITHUB_API_BASE")

	return cfg, nil
}
