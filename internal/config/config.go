// Package config loads the taskforge process configuration: storage
// connection settings, process supervisor limits, and git driver behavior.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level taskforge configuration.
type Config struct {
	Storage    StorageConfig    `yaml:"storage"`
	Supervisor SupervisorConfig `yaml:"supervisor"`
	Git        GitConfig        `yaml:"git,omitempty"`
}

// StorageConfig configures the Storage Adapter's pooled connection.
// Fixed at load time — not overridable per request.
type StorageConfig struct {
	Path            string   `yaml:"path"`
	MaxOpenConns    int      `yaml:"max_open_conns"`
	ConnMaxIdleTime Duration `yaml:"conn_max_idle_time"`
}

// SupervisorConfig configures the Process Supervisor's on-disk state and
// spawn policy.
type SupervisorConfig struct {
	BaseDir          string   `yaml:"base_dir"`
	AllowedCwds      []string `yaml:"allowed_cwds"`
	BlockedEnv       []string `yaml:"blocked_env"`
	MaxLogSizeBytes  int64    `yaml:"max_log_size_bytes"`
	StopTimeout      Duration `yaml:"stop_timeout"`
}

// GitConfig configures the Git Driver. LC_ALL=C is always forced on every
// invocation and is not configurable.
type GitConfig struct {
	Binary string `yaml:"binary"`
}

// Duration wraps time.Duration for YAML unmarshaling from strings like "10s".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// defaultBlockedEnv lists environment variables stripped from every spawned
// child regardless of configuration — credentials the supervisor itself
// must never forward verbatim to an arbitrary shell command.
var defaultBlockedEnv = []string{"AWS_SECRET_ACCESS_KEY", "GITHUB_TOKEN", "ANTHROPIC_API_KEY"}

// Load reads and parses a YAML config file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return parse(data)
}

func parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing YAML: %w", err)
	}

	if cfg.Storage.Path == "" {
		cfg.Storage.Path = "taskforge.db"
	}
	if cfg.Storage.MaxOpenConns == 0 {
		cfg.Storage.MaxOpenConns = 10
	}
	if cfg.Storage.MaxOpenConns > 10 {
		cfg.Storage.MaxOpenConns = 10
	}
	if cfg.Storage.ConnMaxIdleTime == 0 {
		cfg.Storage.ConnMaxIdleTime = Duration(5 * time.Minute)
	}

	if cfg.Supervisor.BaseDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		cfg.Supervisor.BaseDir = home + "/.taskforge/supervisor"
	}
	if cfg.Supervisor.MaxLogSizeBytes == 0 {
		cfg.Supervisor.MaxLogSizeBytes = 10 << 20 // 10 MiB
	}
	if cfg.Supervisor.StopTimeout == 0 {
		cfg.Supervisor.StopTimeout = Duration(5 * time.Second)
	}
	cfg.Supervisor.BlockedEnv = append(append([]string{}, defaultBlockedEnv...), cfg.Supervisor.BlockedEnv...)

	if cfg.Git.Binary == "" {
		cfg.Git.Binary = "git"
	}

	return &cfg, nil
}

// Validate checks a loaded Config for obvious misconfiguration.
func Validate(cfg *Config) []error {
	var errs []error

	if cfg.Storage.MaxOpenConns <= 0 || cfg.Storage.MaxOpenConns > 10 {
		errs = append(errs, fmt.Errorf("storage.max_open_conns must be between 1 and 10"))
	}
	if cfg.Supervisor.MaxLogSizeBytes <= 0 {
		errs = append(errs, fmt.Errorf("supervisor.max_log_size_bytes must be positive"))
	}
	if len(cfg.Supervisor.AllowedCwds) == 0 {
		errs = append(errs, fmt.Errorf("supervisor.allowed_cwds must list at least one allowed prefix"))
	}

	return errs
}
