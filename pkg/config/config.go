package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for the booru downloader
type Config struct {
	// Board endpoint and credentials
	Booru BooruConfig `yaml:"booru" json:"booru"`

	// Output settings
	Output OutputConfig `yaml:"output" json:"output"`

	// Download settings
	Download DownloadConfig `yaml:"download" json:"download"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`

	// authSource records which layer supplied Booru.Auth. Stored accounts
	// outrank a config-file credential but never a flag or environment one,
	// so the caller needs to know where the value came from.
	authSource Source
}

// Source identifies which configuration layer supplied a value.
type Source int

const (
	SourceDefault Source = iota
	SourceFile
	SourceEnv
	SourceFlag
)

// AuthSource reports which layer supplied the Booru.Auth value.
func (c *Config) AuthSource() Source {
	return c.authSource
}

// BooruConfig holds board-specific configuration
type BooruConfig struct {
	// Host is the board's hostname, without scheme.
	Host string `yaml:"host" json:"host"`

	// Auth is the raw userinfo string ("login:api_key") embedded in request
	// URLs when present. No format validation is applied; a malformed value
	// surfaces as an HTTP failure.
	Auth string `yaml:"auth" json:"auth"`

	UserAgent string `yaml:"user_agent" json:"user_agent"`
}

// OutputConfig holds output directory configuration
type OutputConfig struct {
	Directory string `yaml:"directory" json:"directory"`
}

// DownloadConfig holds download-specific configuration
type DownloadConfig struct {
	Timeout time.Duration `yaml:"timeout" json:"timeout"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level      string `yaml:"level" json:"level"`
	File       string `yaml:"file" json:"file"`
	MaxSize    int    `yaml:"max_size" json:"max_size"`
	MaxBackups int    `yaml:"max_backups" json:"max_backups"`
	MaxAge     int    `yaml:"max_age" json:"max_age"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Booru: BooruConfig{
			Host:      "danbooru.donmai.us",
			UserAgent: "boorudl/1.0",
		},
		Output: OutputConfig{
			Directory: ".",
		},
		Download: DownloadConfig{
			Timeout: 30 * time.Second,
		},
		Logging: LoggingConfig{
			Level:      "warn",
			File:       "",
			MaxSize:    100,
			MaxBackups: 3,
			MaxAge:     7,
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if host := os.Getenv("BOORUDL_HOST"); host != "" {
		c.Booru.Host = host
	}
	if auth := os.Getenv("BOORUDL_AUTH"); auth != "" {
		c.Booru.Auth = auth
		c.authSource = SourceEnv
	}
	if userAgent := os.Getenv("BOORUDL_USER_AGENT"); userAgent != "" {
		c.Booru.UserAgent = userAgent
	}
	if outputDir := os.Getenv("BOORUDL_OUTPUT_DIR"); outputDir != "" {
		c.Output.Directory = outputDir
	}
	if timeout := os.Getenv("BOORUDL_DOWNLOAD_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil && d > 0 {
			c.Download.Timeout = d
		}
	}
	if logLevel := os.Getenv("BOORUDL_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}

	return nil
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

	prevAuth := c.Booru.Auth
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	if c.Booru.Auth != prevAuth {
		c.authSource = SourceFile
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	// Check in order of precedence
	locations := []string{
		".boorudl.yaml",
		".boorudl.yml",
		filepath.Join(os.Getenv("HOME"), ".config", "boorudl", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".config", "boorudl", "config.yml"),
		filepath.Join(os.Getenv("HOME"), ".boorudl.yaml"),
		filepath.Join(os.Getenv("HOME"), ".boorudl.yml"),
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

	if c.Booru.Host == "" {
		errs = append(errs, errors.New("booru host is required"))
	}
	if strings.Contains(c.Booru.Host, "://") {
		errs = append(errs, errors.New("booru host must not include a scheme"))
	}

	if c.Output.Directory == "" {
		errs = append(errs, errors.New("output directory is required"))
	}

	if c.Download.Timeout <= 0 {
		errs = append(errs, errors.New("download timeout must be positive"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
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

	// Create directory if it doesn't exist
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if host, ok := flags["host"].(string); ok && host != "" {
		c.Booru.Host = host
	}
	if auth, ok := flags["auth"].(string); ok && auth != "" {
		c.Booru.Auth = auth
		c.authSource = SourceFlag
	}
	if outputDir, ok := flags["output"].(string); ok && outputDir != "" {
		c.Output.Directory = outputDir
	}
	if timeout, ok := flags["download-timeout"].(time.Duration); ok && timeout > 0 {
		c.Download.Timeout = timeout
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Try to load .env files (don't fail if they don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".boorudl.env"))

	// Start with defaults
	config := DefaultConfig()

	// Load from config file
	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	// Override with environment variables (includes values from .env)
	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Override with command line flags
	config.MergeCommandLineFlags(flags)

	// Validate final configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
