package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// AppName is used for config, data and keyring locations
const AppName = "save-from-inst"

// EnvPrefix prefixes every environment variable the application reads
const EnvPrefix = "SAVEFROMINST_"

// Config holds all configuration options for save-from-inst
type Config struct {
	// Instagram session and request identity
	Instagram InstagramConfig `yaml:"instagram" json:"instagram"`

	// Page fetch behaviour
	Fetch FetchConfig `yaml:"fetch" json:"fetch"`

	// Rate limiting configuration
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Output settings
	Output OutputConfig `yaml:"output" json:"output"`

	// Download settings
	Download DownloadConfig `yaml:"download" json:"download"`

	// Terminal UI preferences
	UI UIConfig `yaml:"ui" json:"ui"`

	// Lookup history
	History HistoryConfig `yaml:"history" json:"history"`

	// Notification preferences
	Notifications NotificationConfig `yaml:"notifications" json:"notifications"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// InstagramConfig holds Instagram-specific configuration. Session cookies are
// optional: public post pages are fetched anonymously when they are empty.
type InstagramConfig struct {
	SessionID string `yaml:"session_id" json:"session_id"`
	CSRFToken string `yaml:"csrf_token" json:"csrf_token"`
	UserAgent string `yaml:"user_agent" json:"user_agent"`
	Account   string `yaml:"account" json:"account"`
}

// FetchConfig holds HTTP fetch configuration
type FetchConfig struct {
	Timeout     time.Duration `yaml:"timeout" json:"timeout"`
	MaxAttempts int           `yaml:"max_attempts" json:"max_attempts"`
	BaseDelay   time.Duration `yaml:"base_delay" json:"base_delay"`
	MaxDelay    time.Duration `yaml:"max_delay" json:"max_delay"`
	Multiplier  float64       `yaml:"multiplier" json:"multiplier"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RequestsPerMinute int    `yaml:"requests_per_minute" json:"requests_per_minute"`
	Strategy          string `yaml:"strategy" json:"strategy"`
}

// OutputConfig holds output directory configuration
type OutputConfig struct {
	BaseDirectory     string `yaml:"base_directory" json:"base_directory"`
	CreatePostFolders bool   `yaml:"create_post_folders" json:"create_post_folders"`
	OverwriteExisting bool   `yaml:"overwrite_existing" json:"overwrite_existing"`
	WriteMetadata     bool   `yaml:"write_metadata" json:"write_metadata"`
}

// DownloadConfig holds download-specific configuration
type DownloadConfig struct {
	ConcurrentDownloads int           `yaml:"concurrent_downloads" json:"concurrent_downloads"`
	DownloadTimeout     time.Duration `yaml:"download_timeout" json:"download_timeout"`
	SkipVideos          bool          `yaml:"skip_videos" json:"skip_videos"`
	SkipImages          bool          `yaml:"skip_images" json:"skip_images"`
}

// UIConfig holds terminal UI preferences
type UIConfig struct {
	Theme string `yaml:"theme" json:"theme"`
}

// HistoryConfig holds lookup history configuration
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Path    string `yaml:"path" json:"path"`
}

// NotificationConfig holds notification preferences
type NotificationConfig struct {
	Enabled    bool `yaml:"enabled" json:"enabled"`
	OnComplete bool `yaml:"on_complete" json:"on_complete"`
	OnError    bool `yaml:"on_error" json:"on_error"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Instagram: InstagramConfig{
			UserAgent: "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
		},
		Fetch: FetchConfig{
			Timeout:     30 * time.Second,
			MaxAttempts: 3,
			BaseDelay:   time.Second,
			MaxDelay:    15 * time.Second,
			Multiplier:  2.0,
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 30,
			Strategy:          "token_bucket",
		},
		Output: OutputConfig{
			BaseDirectory:     "./downloads",
			CreatePostFolders: true,
			OverwriteExisting: false,
			WriteMetadata:     true,
		},
		Download: DownloadConfig{
			ConcurrentDownloads: 3,
			DownloadTimeout:     60 * time.Second,
		},
		UI: UIConfig{
			Theme: "dark",
		},
		History: HistoryConfig{
			Enabled: true,
			Path:    "",
		},
		Notifications: NotificationConfig{
			Enabled:    false,
			OnComplete: true,
			OnError:    true,
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	var errs []error

	if v := getenv("SESSION_ID"); v != "" {
		c.Instagram.SessionID = v
	}
	if v := getenv("CSRF_TOKEN"); v != "" {
		c.Instagram.CSRFToken = v
	}
	if v := getenv("USER_AGENT"); v != "" {
		c.Instagram.UserAgent = v
	}
	if v := getenv("ACCOUNT"); v != "" {
		c.Instagram.Account = v
	}

	if v := getenv("FETCH_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sFETCH_TIMEOUT: %w", EnvPrefix, err))
		} else {
			c.Fetch.Timeout = d
		}
	}
	if v := getenv("MAX_ATTEMPTS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sMAX_ATTEMPTS: %w", EnvPrefix, err))
		} else {
			c.Fetch.MaxAttempts = n
		}
	}
	if v := getenv("REQUESTS_PER_MINUTE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sREQUESTS_PER_MINUTE: %w", EnvPrefix, err))
		} else {
			c.RateLimit.RequestsPerMinute = n
		}
	}

	if v := getenv("OUTPUT_DIR"); v != "" {
		c.Output.BaseDirectory = v
	}
	if v := getenv("CONCURRENT_DOWNLOADS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sCONCURRENT_DOWNLOADS: %w", EnvPrefix, err))
		} else {
			c.Download.ConcurrentDownloads = n
		}
	}

	if v := getenv("THEME"); v != "" {
		c.UI.Theme = strings.ToLower(v)
	}
	if v := getenv("HISTORY_ENABLED"); v != "" {
		c.History.Enabled = strings.ToLower(v) == "true"
	}
	if v := getenv("HISTORY_PATH"); v != "" {
		c.History.Path = v
	}
	if v := getenv("NOTIFICATIONS_ENABLED"); v != "" {
		c.Notifications.Enabled = strings.ToLower(v) == "true"
	}

	if v := getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := getenv("LOG_FILE"); v != "" {
		c.Logging.File = v
	}

	return errors.Join(errs...)
}

func getenv(name string) string {
	return os.Getenv(EnvPrefix + name)
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	home := os.Getenv("HOME")
	locations := []string{
		".savefrominst.yaml",
		".savefrominst.yml",
		filepath.Join(home, ".config", AppName, "config.yaml"),
		filepath.Join(home, ".config", AppName, "config.yml"),
		filepath.Join(home, ".savefrominst.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	// Session cookies go together or not at all
	if (c.Instagram.SessionID == "") != (c.Instagram.CSRFToken == "") {
		errs = append(errs, errors.New("session ID and CSRF token must be set together"))
	}

	if c.Fetch.Timeout <= 0 {
		errs = append(errs, errors.New("fetch timeout must be positive"))
	}
	if c.Fetch.MaxAttempts < 1 {
		errs = append(errs, errors.New("max attempts must be at least 1"))
	}
	if c.Fetch.BaseDelay < 0 || c.Fetch.MaxDelay < c.Fetch.BaseDelay {
		errs = append(errs, errors.New("retry delays must satisfy 0 <= base_delay <= max_delay"))
	}

	if c.RateLimit.RequestsPerMinute <= 0 {
		errs = append(errs, errors.New("requests per minute must be positive"))
	}
	switch c.RateLimit.Strategy {
	case "token_bucket", "sliding_window":
	default:
		errs = append(errs, fmt.Errorf("invalid rate limit strategy %q", c.RateLimit.Strategy))
	}

	if c.Download.ConcurrentDownloads <= 0 {
		errs = append(errs, errors.New("concurrent downloads must be positive"))
	}
	if c.Download.ConcurrentDownloads > 10 {
		errs = append(errs, errors.New("concurrent downloads should not exceed 10"))
	}
	if c.Download.DownloadTimeout <= 0 {
		errs = append(errs, errors.New("download timeout must be positive"))
	}
	if c.Download.SkipImages && c.Download.SkipVideos {
		errs = append(errs, errors.New("skip_images and skip_videos cannot both be set"))
	}

	if c.Output.BaseDirectory == "" {
		errs = append(errs, errors.New("output directory is required"))
	}

	switch strings.ToLower(c.UI.Theme) {
	case "dark", "light":
	default:
		errs = append(errs, fmt.Errorf("invalid theme %q", c.UI.Theme))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "disabled": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration.
// Only keys present in the map are applied.
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if v, ok := flags["session-id"].(string); ok && v != "" {
		c.Instagram.SessionID = v
	}
	if v, ok := flags["csrf-token"].(string); ok && v != "" {
		c.Instagram.CSRFToken = v
	}
	if v, ok := flags["account"].(string); ok && v != "" {
		c.Instagram.Account = v
	}
	if v, ok := flags["output"].(string); ok && v != "" {
		c.Output.BaseDirectory = v
	}
	if v, ok := flags["concurrent"].(int); ok && v > 0 {
		c.Download.ConcurrentDownloads = v
	}
	if v, ok := flags["rate-limit"].(int); ok && v > 0 {
		c.RateLimit.RequestsPerMinute = v
	}
	if v, ok := flags["max-attempts"].(int); ok && v > 0 {
		c.Fetch.MaxAttempts = v
	}
	if v, ok := flags["timeout"].(time.Duration); ok && v > 0 {
		c.Fetch.Timeout = v
	}
	if v, ok := flags["theme"].(string); ok && v != "" {
		c.UI.Theme = strings.ToLower(v)
	}
	if v, ok := flags["no-history"].(bool); ok && v {
		c.History.Enabled = false
	}
	if v, ok := flags["notifications"].(bool); ok {
		c.Notifications.Enabled = v
	}
	if v, ok := flags["log-level"].(string); ok && v != "" {
		c.Logging.Level = v
	}
	if v, ok := flags["log-file"].(string); ok && v != "" {
		c.Logging.File = v
	}
}

// HistoryPath returns the configured history database path, defaulting to
// the data directory
func (c *Config) HistoryPath() (string, error) {
	if c.History.Path != "" {
		return c.History.Path, nil
	}
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "history.db"), nil
}

// DataDir returns the per-user data directory, creating it if needed
func DataDir() (string, error) {
	var dataDir string

	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dataDir = filepath.Join(home, "Library", "Application Support", AppName)
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			return "", fmt.Errorf("APPDATA environment variable not set")
		}
		dataDir = filepath.Join(appData, AppName)
	default:
		if xdgDataHome := os.Getenv("XDG_DATA_HOME"); xdgDataHome != "" {
			dataDir = filepath.Join(xdgDataHome, AppName)
		} else {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			dataDir = filepath.Join(home, ".local", "share", AppName)
		}
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create data directory: %w", err)
	}
	return dataDir, nil
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// .env files are optional
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".savefrominst.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
