// internal/config/config.go
//
// This package handles configuration and the .kondate directory structure.
// Every directory kondate runs from gets a .kondate/ folder holding the
// config file and the session logs.

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	// KondateDir is the name of the directory we create in the working directory
	KondateDir = ".kondate"

	// DefaultBaseURL points at a plan API running on the local machine.
	DefaultBaseURL = "http://localhost:8080"
	// DefaultTimeout bounds every API call.
	DefaultTimeout = 10 * time.Second
	// DefaultDays is the width of the selection window.
	DefaultDays = 7
	// MaxDays caps planner.days.
	MaxDays = 14
	// EnvFile holds KONDATE_* values for the project. Process environment
	// variables take precedence over it.
	EnvFile = ".env"
)

const defaultProjectConfigYAML = `# kondate configuration
version: 1

api:
  # Base URL of the plan API. KONDATE_API_BASE_URL overrides this value.
  base_url: http://localhost:8080
  # Per-request timeout. KONDATE_API_TIMEOUT overrides this value.
  timeout: 10s

planner:
  # Number of days offered on the selection screen, starting today.
  days: 7
`

// APIConfig describes how to reach the plan API.
type APIConfig struct {
	BaseURL string `yaml:"base_url"`
	Timeout string `yaml:"timeout,omitempty"`
}

// PlannerConfig captures selection screen preferences.
type PlannerConfig struct {
	Days int `yaml:"days"`
}

// ProjectConfig models .kondate/config.yaml.
type ProjectConfig struct {
	Version int           `yaml:"version"`
	API     APIConfig     `yaml:"api"`
	Planner PlannerConfig `yaml:"planner"`
}

// Config holds the runtime configuration for kondate.
type Config struct {
	// ProjectDir is the directory where the user ran `kondate` from
	ProjectDir string

	// KondateProjectDir is ProjectDir/.kondate
	KondateProjectDir string

	Project ProjectConfig
}

// InitDir creates the .kondate directory structure in the given directory.
//
// Structure created:
// .kondate/
// ├── config.yaml
// └── logs/        <- journey.log and api.log
func InitDir(projectDir string) error {
	kondateDir := filepath.Join(projectDir, KondateDir)
	if err := os.MkdirAll(filepath.Join(kondateDir, "logs"), 0o755); err != nil {
		return err
	}
	return ensureProjectConfig(filepath.Join(kondateDir, "config.yaml"))
}

// NewConfig creates a new Config populated from .kondate/config.yaml and the
// KONDATE_* overrides from .kondate/.env and the environment.
func NewConfig(projectDir string) (*Config, error) {
	cfg := &Config{
		ProjectDir:        projectDir,
		KondateProjectDir: filepath.Join(projectDir, KondateDir),
		Project:           defaultProjectConfig(),
	}
	if err := cfg.loadProjectConfig(); err != nil {
		return nil, err
	}
	env, err := cfg.loadEnvFile()
	if err != nil {
		return nil, err
	}
	cfg.Project.applyEnvOverrides(func(key string) string {
		if value := strings.TrimSpace(os.Getenv(key)); value != "" {
			return value
		}
		return strings.TrimSpace(env[key])
	})
	cfg.Project.normalize()
	if err := cfg.Project.validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// LogsDir returns the path to the logs directory
func (c *Config) LogsDir() string {
	return filepath.Join(c.KondateProjectDir, "logs")
}

// JourneyLogPath returns the session journal location.
func (c *Config) JourneyLogPath() string {
	return filepath.Join(c.LogsDir(), "journey.log")
}

// EnvFilePath returns the location of the optional .env file.
func (c *Config) EnvFilePath() string {
	return filepath.Join(c.KondateProjectDir, EnvFile)
}

// loadEnvFile reads .kondate/.env without touching the process environment.
// A missing file yields no values.
func (c *Config) loadEnvFile() (map[string]string, error) {
	env, err := godotenv.Read(c.EnvFilePath())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("config: read %s: %w", c.EnvFilePath(), err)
	}
	return env, nil
}

// ProjectConfigPath returns the on-disk location for the config file.
func (c *Config) ProjectConfigPath() string {
	return filepath.Join(c.KondateProjectDir, "config.yaml")
}

// BaseURL returns the plan API base URL without a trailing slash.
func (c *Config) BaseURL() string {
	return c.Project.API.BaseURL
}

// Timeout returns the per-request API timeout.
func (c *Config) Timeout() time.Duration {
	d, err := time.ParseDuration(c.Project.API.Timeout)
	if err != nil || d <= 0 {
		return DefaultTimeout
	}
	return d
}

// Days returns the number of days shown on the selection screen.
func (c *Config) Days() int {
	return c.Project.Planner.Days
}

// SetBaseURL overrides the API base URL for this process only.
func (c *Config) SetBaseURL(raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fmt.Errorf("config: base url is required")
	}
	prev := c.Project.API.BaseURL
	c.Project.API.BaseURL = raw
	c.Project.normalize()
	if err := c.Project.validate(); err != nil {
		c.Project.API.BaseURL = prev
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

func (c *Config) loadProjectConfig() error {
	path := c.ProjectConfigPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	var parsed ProjectConfig
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}

	parsed.applyDefaults()
	parsed.normalize()
	if err := parsed.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	c.Project = parsed
	return nil
}

func defaultProjectConfig() ProjectConfig {
	return ProjectConfig{
		Version: 1,
		API: APIConfig{
			BaseURL: DefaultBaseURL,
			Timeout: DefaultTimeout.String(),
		},
		Planner: PlannerConfig{Days: DefaultDays},
	}
}

func (pc *ProjectConfig) applyDefaults() {
	if pc.Version == 0 {
		pc.Version = 1
	}
	if strings.TrimSpace(pc.API.BaseURL) == "" {
		pc.API.BaseURL = DefaultBaseURL
	}
	if strings.TrimSpace(pc.API.Timeout) == "" {
		pc.API.Timeout = DefaultTimeout.String()
	}
	if pc.Planner.Days == 0 {
		pc.Planner.Days = DefaultDays
	}
}

func (pc *ProjectConfig) applyEnvOverrides(lookup func(string) string) {
	if value := lookup("KONDATE_API_BASE_URL"); value != "" {
		pc.API.BaseURL = value
	}
	if value := lookup("KONDATE_API_TIMEOUT"); value != "" {
		if d, err := time.ParseDuration(value); err == nil && d > 0 {
			pc.API.Timeout = d.String()
		}
	}
	if value := lookup("KONDATE_DAYS"); value != "" {
		if days, err := strconv.Atoi(value); err == nil {
			pc.Planner.Days = days
		}
	}
}

func (pc *ProjectConfig) normalize() {
	pc.API.BaseURL = strings.TrimRight(strings.TrimSpace(pc.API.BaseURL), "/")
	pc.API.Timeout = strings.TrimSpace(pc.API.Timeout)
}

func (pc *ProjectConfig) validate() error {
	if pc.Version < 1 {
		return fmt.Errorf("config version must be >= 1")
	}
	if pc.API.BaseURL == "" {
		return fmt.Errorf("api.base_url is required")
	}
	parsed, err := url.Parse(pc.API.BaseURL)
	if err != nil {
		return fmt.Errorf("api.base_url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("api.base_url must use http or https")
	}
	if parsed.Host == "" {
		return fmt.Errorf("api.base_url must include a host")
	}
	if pc.API.Timeout != "" {
		d, err := time.ParseDuration(pc.API.Timeout)
		if err != nil {
			return fmt.Errorf("api.timeout: %w", err)
		}
		if d <= 0 {
			return fmt.Errorf("api.timeout must be positive")
		}
	}
	if pc.Planner.Days < 1 || pc.Planner.Days > MaxDays {
		return fmt.Errorf("planner.days must be between 1 and %d", MaxDays)
	}
	return nil
}

func ensureProjectConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return os.WriteFile(path, []byte(defaultProjectConfigYAML), 0o644)
}
