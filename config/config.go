package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the dashboard configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Data    DataConfig    `yaml:"data"`
	Redis   RedisConfig   `yaml:"redis"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr    string `yaml:"addr"`
	GinMode string `yaml:"gin_mode"` // debug, release, test
}

// DataConfig locates the workbooks produced by the clustering pipeline.
type DataConfig struct {
	Dir            string `yaml:"dir"`
	StudentsFile   string `yaml:"students_file"`
	AggregateFile  string `yaml:"aggregate_file"`
	DetailFile     string `yaml:"detail_file"`
	DetailOptional bool   `yaml:"detail_optional"`
}

// RedisConfig configures the optional sheet cache.
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	TTL      string `yaml:"ttl"`
}

// LoggingConfig configures zap.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:    ":8080",
			GinMode: "release",
		},
		Data: DataConfig{
			Dir:            "results",
			StudentsFile:   "data_dengan_cluster.xlsx",
			AggregateFile:  "analisis_cluster.xlsx",
			DetailFile:     "detail_cluster.xlsx",
			DetailOptional: true,
		},
		Redis: RedisConfig{
			Enabled: false,
			Addr:    "127.0.0.1:6379",
			DB:      8,
			TTL:     "24h",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		case os.IsNotExist(err):
		default:
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if dir := os.Getenv("DASHBOARD_DATA_DIR"); dir != "" {
		c.Data.Dir = dir
	}
	if addr := os.Getenv("DASHBOARD_ADDR"); addr != "" {
		c.Server.Addr = addr
	}
	if level := os.Getenv("DASHBOARD_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		c.Redis.Addr = addr
		c.Redis.Enabled = true
	}
	if pw := os.Getenv("REDIS_PASSWORD"); pw != "" {
		c.Redis.Password = pw
	}
}

// StudentsPath returns the full path of the clustered student workbook.
func (d DataConfig) StudentsPath() string { return filepath.Join(d.Dir, d.StudentsFile) }

// AggregatePath returns the full path of the per-cluster means workbook.
func (d DataConfig) AggregatePath() string { return filepath.Join(d.Dir, d.AggregateFile) }

// DetailPath returns the full path of the extended statistics workbook.
func (d DataConfig) DetailPath() string { return filepath.Join(d.Dir, d.DetailFile) }

// CacheTTL returns the Redis entry lifetime.
func (r RedisConfig) CacheTTL() time.Duration {
	d, err := time.ParseDuration(r.TTL)
	if err != nil || d <= 0 {
		return 24 * time.Hour
	}
	return d
}
