// Package config loads forensiq settings from an optional YAML file and
// FORENSIQ_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"

	"github.com/abhisek/forensiq/internal/assessment"
	"github.com/abhisek/forensiq/internal/llm"
	"github.com/abhisek/forensiq/internal/logging"
	"github.com/abhisek/forensiq/internal/session"
	"github.com/abhisek/forensiq/internal/task"
)

// EnvPrefix is the prefix of every environment override.
const EnvPrefix = "FORENSIQ_"

const maxConfigFileSize = 1024 * 1024

// Config is the full application configuration.
type Config struct {
	Log       logging.Config `koanf:"log"`
	DB        DBConfig       `koanf:"db"`
	Session   SessionConfig  `koanf:"session"`
	Penalties PenaltyConfig  `koanf:"penalties"`
	LLM       llm.Config     `koanf:"llm"`
	Metrics   MetricsConfig  `koanf:"metrics"`
}

// DBConfig locates the results database.
type DBConfig struct {
	// Path overrides the default location. Empty defers to FORENSIQ_DB
	// and then the XDG data directory.
	Path string `koanf:"path"`
}

// SessionConfig tunes training sessions.
type SessionConfig struct {
	Duration time.Duration `koanf:"duration"`
	// Scenario is a built-in scenario name or a path to a YAML file.
	Scenario string `koanf:"scenario"`
	// Tick is the frame interval the console drives the session with.
	Tick time.Duration `koanf:"tick"`
}

// PenaltyConfig overrides the standard deductions.
type PenaltyConfig struct {
	// Miss is deducted at the end from tasks that were never attempted.
	Miss int `koanf:"miss"`
	// Skip is deducted per skipped unit.
	Skip int `koanf:"skip"`
}

// MetricsConfig controls the Prometheus collectors.
type MetricsConfig struct {
	Enabled bool `koanf:"enabled"`
	// Textfile, when set, receives the registry in text exposition
	// format after every session.
	Textfile string `koanf:"textfile"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Log: logging.DefaultConfig(),
		Session: SessionConfig{
			Duration: session.DefaultSessionDuration,
			Scenario: "module1",
			Tick:     100 * time.Millisecond,
		},
		Penalties: PenaltyConfig{
			Miss: assessment.DefaultMissPenalty,
			Skip: task.DefaultSkipPenalty,
		},
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/forensiq/config.yaml, falling back
// to ~/.config/forensiq/config.yaml.
func DefaultPath() (string, error) {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "forensiq", "config.yaml"), nil
}

// Load reads configuration with this precedence (highest first):
//  1. FORENSIQ_* environment variables (FORENSIQ_SESSION_DURATION -> session.duration)
//  2. the YAML file at path, or at DefaultPath when path is empty
//  3. Default()
//
// A missing file is an error only when path was given explicitly.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	content, err := readConfigFile(path)
	switch {
	case err == nil:
	case errors.Is(err, fs.ErrNotExist) && !explicit:
		content = nil
	default:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return Parse(content)
}

// Parse builds a Config from YAML content and the environment.
func Parse(content []byte) (*Config, error) {
	k := koanf.New(".")

	if len(content) > 0 {
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// envKey maps FORENSIQ_SECTION_FIELD_NAME to section.field_name. Variables
// without a section (FORENSIQ_DB) are left to their own readers.
func envKey(s string) string {
	rest := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	section, field, ok := strings.Cut(rest, "_")
	if !ok || section == "" || field == "" {
		return ""
	}
	return section + "." + field
}

func readConfigFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	if info.Size() > maxConfigFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxConfigFileSize)
	}
	return io.ReadAll(f)
}

func applyDefaults(cfg *Config) {
	def := Default()
	if cfg.Log.Level == "" {
		cfg.Log.Level = def.Log.Level
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = def.Log.Format
	}
	if cfg.Session.Duration == 0 {
		cfg.Session.Duration = def.Session.Duration
	}
	if cfg.Session.Scenario == "" {
		cfg.Session.Scenario = def.Session.Scenario
	}
	if cfg.Session.Tick == 0 {
		cfg.Session.Tick = def.Session.Tick
	}
	if cfg.Penalties.Miss == 0 {
		cfg.Penalties.Miss = def.Penalties.Miss
	}
	if cfg.Penalties.Skip == 0 {
		cfg.Penalties.Skip = def.Penalties.Skip
	}
	if cfg.LLM.Enabled() {
		cfg.LLM = cfg.LLM.WithDefaults()
	}
}

// Validate checks value ranges and the LLM section.
func (c Config) Validate() error {
	var errs []error
	switch c.Log.Format {
	case "console", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format must be console or json, got %q", c.Log.Format))
	}
	if c.Session.Duration < 0 {
		errs = append(errs, fmt.Errorf("session.duration must be positive, got %s", c.Session.Duration))
	}
	if c.Session.Tick < 0 || c.Session.Tick > time.Second {
		errs = append(errs, fmt.Errorf("session.tick must be between 0 and 1s, got %s", c.Session.Tick))
	}
	if c.Penalties.Miss < 0 || c.Penalties.Miss > assessment.DefaultMaxScore {
		errs = append(errs, fmt.Errorf("penalties.miss must be in [0, %d], got %d", assessment.DefaultMaxScore, c.Penalties.Miss))
	}
	if c.Penalties.Skip < 0 || c.Penalties.Skip > assessment.DefaultMaxScore {
		errs = append(errs, fmt.Errorf("penalties.skip must be in [0, %d], got %d", assessment.DefaultMaxScore, c.Penalties.Skip))
	}
	if err := c.LLM.Validate(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
