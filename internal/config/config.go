package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds the credentials and options of the command-line tool.
type Config struct {
	ConsumerKey       string `toml:"consumer_key"`
	ConsumerSecret    string `toml:"consumer_secret"`
	AccessToken       string `toml:"access_token,omitempty"`
	AccessTokenSecret string `toml:"access_token_secret,omitempty"`
	ScreenName        string `toml:"screen_name,omitempty"`

	// APIURL overrides the REST base URL, mostly for local testing.
	APIURL    string `toml:"api_url,omitempty"`
	UserAgent string `toml:"user_agent,omitempty"`
	// RequestsPerMinute enables client-side pacing when positive.
	RequestsPerMinute float64 `toml:"requests_per_minute,omitempty"`

	// Path is the file the configuration was loaded from.
	Path string `toml:"-"`
}

const (
	DefaultConfigPath = "~/.config/twitter-cli/config.toml"

	EnvConsumerKey    = "TWITTER_CONSUMER_KEY"
	EnvConsumerSecret = "TWITTER_CONSUMER_SECRET"
	EnvAccessToken    = "TWITTER_ACCESS_TOKEN"
	EnvAccessSecret   = "TWITTER_ACCESS_TOKEN_SECRET"
)

// Load reads the config file at path, or DefaultConfigPath when path is
// empty. A missing file is not an error. Environment variables override the
// credentials found in the file.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{Path: resolved}

	file, err := os.Open(resolved)
	switch {
	case errors.Is(err, os.ErrNotExist):
		// Defaults plus environment.
	case err != nil:
		return Config{}, fmt.Errorf("open config: %w", err)
	default:
		defer file.Close()

		bytes, err := io.ReadAll(file)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := toml.Unmarshal(bytes, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
		cfg.Path = resolved
	}

	cfg.trim()
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) trim() {
	c.ConsumerKey = strings.TrimSpace(c.ConsumerKey)
	c.ConsumerSecret = strings.TrimSpace(c.ConsumerSecret)
	c.AccessToken = strings.TrimSpace(c.AccessToken)
	c.AccessTokenSecret = strings.TrimSpace(c.AccessTokenSecret)
	c.ScreenName = strings.TrimSpace(c.ScreenName)
	c.APIURL = strings.TrimSpace(c.APIURL)
	c.UserAgent = strings.TrimSpace(c.UserAgent)
}

func (c *Config) applyEnv() {
	overrides := []struct {
		name  string
		field *string
	}{
		{EnvConsumerKey, &c.ConsumerKey},
		{EnvConsumerSecret, &c.ConsumerSecret},
		{EnvAccessToken, &c.AccessToken},
		{EnvAccessSecret, &c.AccessTokenSecret},
	}
	for _, o := range overrides {
		if v := strings.TrimSpace(os.Getenv(o.name)); v != "" {
			*o.field = v
		}
	}
}

// HasAccessToken reports whether a complete user token is configured.
func (c Config) HasAccessToken() bool {
	return c.AccessToken != "" && c.AccessTokenSecret != ""
}

// Validate checks that the consumer credentials are present.
func (c Config) Validate() error {
	var missing []string
	if c.ConsumerKey == "" {
		missing = append(missing, "consumer_key")
	}
	if c.ConsumerSecret == "" {
		missing = append(missing, "consumer_secret")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing %s in %s (or set %s and %s)", strings.Join(missing, " and "), c.Path, EnvConsumerKey, EnvConsumerSecret)
	}
	return nil
}

// Save writes the configuration to c.Path, creating the directory if
// needed. The file is only readable by the owner since it holds secrets.
func (c Config) Save() error {
	if strings.TrimSpace(c.Path) == "" {
		return fmt.Errorf("save config: path is empty")
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(c.Path), 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(c.Path, data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(DefaultConfigPath)
	}
	return expandPath(path)
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
