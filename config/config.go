package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"

	"homeprice/logging"
	"homeprice/ml"
)

const (
	SourceJSON   = "json"
	SourceSQLite = "sqlite"
)

// Config holds all application-level configuration.
type Config struct {
	Server struct {
		Host           string        `yaml:"host"`
		Port           int           `yaml:"port"`
		Timeout        time.Duration `yaml:"timeout"`
		MaxBodyBytes   int64         `yaml:"max_body_bytes"`
		AllowedOrigins []string      `yaml:"allowed_origins"`
	} `yaml:"server"`
	Artifacts struct {
		Source      string `yaml:"source"`
		ColumnsPath string `yaml:"columns_path"`
		ModelPath   string `yaml:"model_path"`
		ModelType   string `yaml:"model_type"`
		BundlePath  string `yaml:"bundle_path"`
		Watch       bool   `yaml:"watch"`
	} `yaml:"artifacts"`
	Cache struct {
		Size int `yaml:"size"`
	} `yaml:"cache"`
	Log struct {
		Level      string `yaml:"level"`
		File       string `yaml:"file"`
		MaxSizeMB  int    `yaml:"max_size_mb"`
		MaxBackups int    `yaml:"max_backups"`
		MaxAgeDays int    `yaml:"max_age_days"`
	} `yaml:"log"`
}

// Default returns the configuration used when no file or override is given.
func Default() *Config {
	cfg := &Config{}
	cfg.Server.Host = "0.0.0.0"
	cfg.Server.Port = 5001
	cfg.Server.Timeout = 30 * time.Second
	cfg.Server.MaxBodyBytes = 1 << 20
	cfg.Server.AllowedOrigins = []string{"*"}
	cfg.Artifacts.Source = SourceJSON
	cfg.Artifacts.ColumnsPath = "./artifacts/columns.json"
	cfg.Artifacts.ModelPath = "./artifacts/model.json"
	cfg.Artifacts.ModelType = ml.ModelTypeLinearRegression
	cfg.Artifacts.BundlePath = "./artifacts/artifacts.db"
	cfg.Artifacts.Watch = true
	cfg.Cache.Size = 1024
	cfg.Log.Level = "info"
	cfg.Log.File = "server.log"
	cfg.Log.MaxSizeMB = 10
	cfg.Log.MaxBackups = 3
	cfg.Log.MaxAgeDays = 28
	return cfg
}

// Load builds the configuration from defaults, then the YAML file at path
// (skipped if it does not exist), then environment variables. Variables in
// envFile are loaded first without replacing ones already set.
func Load(path, envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	cfg := Default()
	if path != "" {
		payload, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(payload, cfg); err != nil {
				return nil, fmt.Errorf("decode config %s: %w", path, err)
			}
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	var err error
	setString := func(key string, dst *string) {
		if val := strings.TrimSpace(os.Getenv(key)); val != "" {
			*dst = val
		}
	}
	setInt := func(key string, dst *int) {
		val := strings.TrimSpace(os.Getenv(key))
		if val == "" || err != nil {
			return
		}
		n, convErr := strconv.Atoi(val)
		if convErr != nil {
			err = fmt.Errorf("%s: %w", key, convErr)
			return
		}
		*dst = n
	}
	setBool := func(key string, dst *bool) {
		val := strings.TrimSpace(os.Getenv(key))
		if val == "" || err != nil {
			return
		}
		b, convErr := strconv.ParseBool(val)
		if convErr != nil {
			err = fmt.Errorf("%s: %w", key, convErr)
			return
		}
		*dst = b
	}

	setString("SERVER_HOST", &c.Server.Host)
	setInt("SERVER_PORT", &c.Server.Port)
	setString("ARTIFACTS_SOURCE", &c.Artifacts.Source)
	setString("COLUMNS_PATH", &c.Artifacts.ColumnsPath)
	setString("MODEL_PATH", &c.Artifacts.ModelPath)
	setString("MODEL_TYPE", &c.Artifacts.ModelType)
	setString("ARTIFACTS_BUNDLE_PATH", &c.Artifacts.BundlePath)
	setBool("ARTIFACTS_WATCH", &c.Artifacts.Watch)
	setInt("CACHE_SIZE", &c.Cache.Size)
	setString("LOG_LEVEL", &c.Log.Level)
	setString("LOG_FILE", &c.Log.File)
	return err
}

func (c *Config) Validate() error {
	var problems []string
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		problems = append(problems, fmt.Sprintf("server.port %d out of range", c.Server.Port))
	}
	if c.Server.Timeout < 0 {
		problems = append(problems, "server.timeout must not be negative")
	}
	if c.Server.MaxBodyBytes <= 0 {
		problems = append(problems, "server.max_body_bytes must be positive")
	}
	switch c.Artifacts.Source {
	case SourceJSON:
		if c.Artifacts.ColumnsPath == "" || c.Artifacts.ModelPath == "" {
			problems = append(problems, "artifacts.columns_path and artifacts.model_path are required")
		}
	case SourceSQLite:
		if c.Artifacts.BundlePath == "" {
			problems = append(problems, "artifacts.bundle_path is required")
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown artifacts.source %q", c.Artifacts.Source))
	}
	if c.Cache.Size < 0 {
		problems = append(problems, "cache.size must not be negative")
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		problems = append(problems, err.Error())
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// ArtifactPaths lists the files the service loads at startup.
func (c *Config) ArtifactPaths() []string {
	if c.Artifacts.Source == SourceSQLite {
		return []string{c.Artifacts.BundlePath}
	}
	return []string{c.Artifacts.ColumnsPath, c.Artifacts.ModelPath}
}

func (c *Config) LogConfig() logging.Config {
	return logging.Config{
		Level:      c.Log.Level,
		File:       c.Log.File,
		MaxSizeMB:  c.Log.MaxSizeMB,
		MaxBackups: c.Log.MaxBackups,
		MaxAgeDays: c.Log.MaxAgeDays,
	}
}
