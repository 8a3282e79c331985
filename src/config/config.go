package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

const (
	DefaultBucketName    = "images-robinbrick"
	DefaultBucketBaseURL = "https://images-robinbrick.s3.eu-west-1.amazonaws.com/"
	DefaultGrantRead     = "uri=http://acs.amazonaws.com/groups/global/AllUsers"
	DefaultColor         = "#fff"
	DefaultJPEGQuality   = 75
)

// Config represents the application configuration
type Config struct {
	Banner  BannerConfig  `yaml:"banner"`
	Storage StorageConfig `yaml:"storage"`
	Server  ServerConfig  `yaml:"server"`
	Watch   WatchConfig   `yaml:"watch"`
	Logging LoggingConfig `yaml:"logging"`
}

type BannerConfig struct {
	DefaultColor string `yaml:"default_color"`
	JPEGQuality  int    `yaml:"jpeg_quality"`
}

type StorageConfig struct {
	Bucket    string `yaml:"bucket"`
	BaseURL   string `yaml:"base_url"`
	GrantRead string `yaml:"grant_read"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// WatchConfig controls the inbox folder watcher
type WatchConfig struct {
	Enabled      bool   `yaml:"enabled"`
	InboxDir     string `yaml:"inbox_dir"`
	OutputDir    string `yaml:"output_dir"`
	ProcessedDir string `yaml:"processed_dir"`
	FailedDir    string `yaml:"failed_dir"`
	Color        string `yaml:"color"`
	Upload       bool   `yaml:"upload"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Default returns a config with every optional field filled in
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Banner.DefaultColor == "" {
		c.Banner.DefaultColor = DefaultColor
	}
	if c.Banner.JPEGQuality == 0 {
		c.Banner.JPEGQuality = DefaultJPEGQuality
	}
	if c.Storage.Bucket == "" {
		c.Storage.Bucket = DefaultBucketName
	}
	if c.Storage.BaseURL == "" {
		c.Storage.BaseURL = DefaultBucketBaseURL
	}
	if c.Storage.GrantRead == "" {
		c.Storage.GrantRead = DefaultGrantRead
	}
	if c.Server.Host == "" {
		c.Server.Host = "127.0.0.1"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Watch.Color == "" {
		c.Watch.Color = c.Banner.DefaultColor
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

// Validate checks if required configuration fields are set
func (c *Config) Validate() error {
	if c.Banner.JPEGQuality < 1 || c.Banner.JPEGQuality > 100 {
		return fmt.Errorf("banner.jpeg_quality must be between 1 and 100, got %d", c.Banner.JPEGQuality)
	}
	if _, err := logrus.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level %q is not a valid level", c.Logging.Level)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if !strings.HasSuffix(c.Storage.BaseURL, "/") {
		return fmt.Errorf("storage.base_url must end with '/'")
	}
	if c.Watch.Enabled {
		if c.Watch.InboxDir == "" {
			return fmt.Errorf("watch.inbox_dir is required when watch is enabled")
		}
		if c.Watch.OutputDir == "" {
			return fmt.Errorf("watch.output_dir is required when watch is enabled")
		}
		if c.Watch.InboxDir == c.Watch.OutputDir {
			return fmt.Errorf("watch.output_dir must differ from watch.inbox_dir")
		}
	}
	return nil
}

// Addr returns the listen address for the HTTP server
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
