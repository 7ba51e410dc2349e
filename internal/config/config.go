// Package config handles the configuration directory, settings file and
// credential file paths.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	// AppName is the application directory name.
	AppName = "taskboard"

	// SettingsFile holds user preferences (api url, backend, theme).
	SettingsFile = "settings.yaml"

	// SessionFile is the stored REST session (bearer token + user).
	SessionFile = "session.json"

	// EnvFile holds optional environment overrides.
	EnvFile = ".env"

	// OAuthClientFile is the Google OAuth client credentials filename.
	OAuthClientFile = "oauth_client.json"

	// GoogleTokenFile is the stored Google OAuth token filename.
	GoogleTokenFile = "google_token.json"

	// DefaultAPIURL is the REST task store used when none is configured.
	DefaultAPIURL = "http://localhost:5000"

	// DefaultTimeout bounds a single store request.
	DefaultTimeout = 10 * time.Second
)

// Backends.
const (
	BackendREST        = "rest"
	BackendGoogleTasks = "googletasks"
)

// Themes.
const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

// Environment overrides, read from the process environment or .env.
const (
	EnvAPIURL  = "TASKBOARD_API_URL"
	EnvBackend = "TASKBOARD_BACKEND"
	EnvTheme   = "TASKBOARD_THEME"
)

// Settings is the persisted preference file.
type Settings struct {
	APIURL  string        `yaml:"api_url,omitempty"`
	Backend string        `yaml:"backend,omitempty"`
	Theme   string        `yaml:"theme,omitempty"`
	Timeout time.Duration `yaml:"timeout,omitempty"`
}

// Config holds configuration paths and settings.
// It is loaded once at startup and passed explicitly to every command.
type Config struct {
	// Dir is the configuration directory path.
	Dir string

	// Debug enables debug logging.
	Debug bool

	// Quiet suppresses informational output.
	Quiet bool

	// Settings are the values from settings.yaml with env overrides applied.
	Settings Settings
}

// New creates a Config for the default or specified config directory and
// loads settings.yaml and .env from it when present.
// If configDir is empty, uses XDG_CONFIG_HOME/taskboard or $HOME/.config/taskboard.
func New(configDir string) (*Config, error) {
	dir := configDir
	if dir == "" {
		dir = DefaultConfigDir()
	}
	cfg := &Config{Dir: dir}

	if err := cfg.loadSettings(); err != nil {
		return nil, err
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DefaultConfigDir returns the default configuration directory.
// Uses XDG_CONFIG_HOME if set, otherwise $HOME/.config.
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return AppName
	}
	return filepath.Join(home, ".config", AppName)
}

func (c *Config) loadSettings() error {
	data, err := os.ReadFile(c.SettingsPath())
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", SettingsFile, err)
	}
	if err := yaml.Unmarshal(data, &c.Settings); err != nil {
		return fmt.Errorf("invalid %s: %w", SettingsFile, err)
	}
	return nil
}

// applyEnv overlays .env values, then the process environment.
func (c *Config) applyEnv() error {
	env := map[string]string{}
	envPath := filepath.Join(c.Dir, EnvFile)
	if _, err := os.Stat(envPath); err == nil {
		vals, err := godotenv.Read(envPath)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvFile, err)
		}
		env = vals
	}
	lookup := func(key string) string {
		if v, ok := os.LookupEnv(key); ok {
			return strings.TrimSpace(v)
		}
		return strings.TrimSpace(env[key])
	}

	if v := lookup(EnvAPIURL); v != "" {
		c.Settings.APIURL = v
	}
	if v := lookup(EnvBackend); v != "" {
		c.Settings.Backend = v
	}
	if v := lookup(EnvTheme); v != "" {
		c.Settings.Theme = v
	}
	return nil
}

// SaveSettings writes settings.yaml with mode 0600.
func (c *Config) SaveSettings() error {
	if err := c.EnsureDir(); err != nil {
		return err
	}
	data, err := yaml.Marshal(&c.Settings)
	if err != nil {
		return err
	}
	return os.WriteFile(c.SettingsPath(), data, 0600)
}

// APIURL returns the REST store base URL without a trailing slash.
func (c *Config) APIURL() string {
	u := strings.TrimSpace(c.Settings.APIURL)
	if u == "" {
		u = DefaultAPIURL
	}
	return strings.TrimRight(u, "/")
}

// Backend returns the configured backend name.
func (c *Config) Backend() string {
	switch strings.ToLower(strings.TrimSpace(c.Settings.Backend)) {
	case BackendGoogleTasks:
		return BackendGoogleTasks
	default:
		return BackendREST
	}
}

// Timeout returns the per-request timeout.
func (c *Config) Timeout() time.Duration {
	if c.Settings.Timeout <= 0 {
		return DefaultTimeout
	}
	return c.Settings.Timeout
}

// DarkMode reports whether the dark theme is selected.
func (c *Config) DarkMode() bool {
	return strings.EqualFold(strings.TrimSpace(c.Settings.Theme), ThemeDark)
}

// SettingsPath returns the path to settings.yaml.
func (c *Config) SettingsPath() string {
	return filepath.Join(c.Dir, SettingsFile)
}

// SessionPath returns the path to the stored REST session.
func (c *Config) SessionPath() string {
	return filepath.Join(c.Dir, SessionFile)
}

// OAuthClientPath returns the path to the Google OAuth client credentials file.
func (c *Config) OAuthClientPath() string {
	return filepath.Join(c.Dir, OAuthClientFile)
}

// GoogleTokenPath returns the path to the stored Google OAuth token file.
func (c *Config) GoogleTokenPath() string {
	return filepath.Join(c.Dir, GoogleTokenFile)
}

// EnsureDir creates the config directory if it doesn't exist.
// Directory is created with mode 0700.
func (c *Config) EnsureDir() error {
	return os.MkdirAll(c.Dir, 0700)
}

// HasSession checks if the session file exists.
func (c *Config) HasSession() bool {
	_, err := os.Stat(c.SessionPath())
	return err == nil
}

// RemoveSession deletes the session file.
func (c *Config) RemoveSession() error {
	return os.Remove(c.SessionPath())
}

// HasOAuthClient checks if the Google OAuth client credentials file exists.
func (c *Config) HasOAuthClient() bool {
	_, err := os.Stat(c.OAuthClientPath())
	return err == nil
}

// HasGoogleToken checks if the Google token file exists.
func (c *Config) HasGoogleToken() bool {
	_, err := os.Stat(c.GoogleTokenPath())
	return err == nil
}

// RemoveGoogleToken deletes the Google token file.
func (c *Config) RemoveGoogleToken() error {
	return os.Remove(c.GoogleTokenPath())
}
