package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// applyEnv overlays environment variables on top of file values.
func (c *Config) applyEnv() error {
	if err := envInt("PORT", &c.Server.Port); err != nil {
		return err
	}
	if err := envInt("TOKEN_TTL", &c.Auth.TokenTTLMinutes); err != nil {
		return err
	}
	envString("DB_PATH", &c.Database.Path)
	envString("MEDIA_ROOT", &c.Server.MediaRoot)
	envString("JWT_SECRET", &c.Auth.JWTSecret)
	envString("GITHUB_CLIENT_ID", &c.GitHub.ClientID)
	envString("GITHUB_CLIENT_SECRET", &c.GitHub.ClientSecret)
	envString("GITHUB_CALLBACK_URL", &c.GitHub.CallbackURL)
	envString("LOG_LEVEL", &c.Logging.Level)
	envString("LOG_FORMAT", &c.Logging.Format)
	return nil
}

func envString(key string, dst *string) {
	if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
		*dst = strings.TrimSpace(value)
	}
}

func envInt(key string, dst *int) error {
	value, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(value) == "" {
		return nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fmt.Errorf("%s: invalid integer %q", key, value)
	}
	*dst = n
	return nil
}

func (c *Config) normalize() {
	c.Database.Path = strings.TrimSpace(c.Database.Path)
	if c.Database.Path == "" {
		c.Database.Path = defaultDBPath
	}

	c.Server.MediaRoot = strings.TrimSpace(c.Server.MediaRoot)
	if c.Server.MediaRoot == "" {
		c.Server.MediaRoot = defaultMediaRoot
	}
	c.Server.MediaURL = "/" + strings.Trim(strings.TrimSpace(c.Server.MediaURL), "/") + "/"
	if c.Server.MediaURL == "//" {
		c.Server.MediaURL = defaultMediaURL
	}

	if c.Auth.BcryptCost == 0 {
		c.Auth.BcryptCost = defaultBcryptCost
	}

	c.GitHub.ClientID = strings.TrimSpace(c.GitHub.ClientID)
	c.GitHub.ClientSecret = strings.TrimSpace(c.GitHub.ClientSecret)
	if c.GitHub.CallbackURL == "" {
		c.GitHub.CallbackURL = fmt.Sprintf("http://localhost:%d/auth/github/callback", c.Server.Port)
	}

	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
