// File: internal/config/config.go
package config

import (
	"fmt"
	"path/filepath"
	"time"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// Interface defines the contract for accessing application configuration.
// This allows for dependency injection and mocking in tests.
type Interface interface {
	Logger() LoggerConfig
	Journal() JournalConfig
	Engine() EngineConfig
	Oracle() OracleConfig
	Explorer() ExplorerConfig
	Archive() ArchiveConfig

	SetJournalDir(string)
	SetExplorerRuns(int)
	SetEngineTotalTurns(int)
}

// Config holds the entire application configuration. Private fields enforce
// access through the Interface getters.
type Config struct {
	logger   LoggerConfig   `mapstructure:"logger" yaml:"logger"`
	journal  JournalConfig  `mapstructure:"journal" yaml:"journal"`
	engine   EngineConfig   `mapstructure:"engine" yaml:"engine"`
	oracle   OracleConfig   `mapstructure:"oracle" yaml:"oracle"`
	explorer ExplorerConfig `mapstructure:"explorer" yaml:"explorer"`
	archive  ArchiveConfig  `mapstructure:"archive" yaml:"archive"`
}

// -- Interface Method Implementations --

func (c *Config) Logger() LoggerConfig     { return c.logger }
func (c *Config) Journal() JournalConfig   { return c.journal }
func (c *Config) Engine() EngineConfig     { return c.engine }
func (c *Config) Oracle() OracleConfig     { return c.oracle }
func (c *Config) Explorer() ExplorerConfig { return c.explorer }
func (c *Config) Archive() ArchiveConfig   { return c.archive }

func (c *Config) SetJournalDir(dir string)   { c.journal.Dir = dir }
func (c *Config) SetExplorerRuns(n int)      { c.explorer.DefaultRuns = n }
func (c *Config) SetEngineTotalTurns(n int)  { c.engine.TotalTurns = n }

// LoggerConfig holds settings for the zap logger.
type LoggerConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Format      string `mapstructure:"format" yaml:"format"` // "console" or "json"
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
	AddSource   bool   `mapstructure:"add_source" yaml:"add_source"`
	LogFile     string `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int    `mapstructure:"max_size" yaml:"max_size"` // megabytes
	MaxBackups  int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int    `mapstructure:"max_age" yaml:"max_age"` // days
	Compress    bool   `mapstructure:"compress" yaml:"compress"`
}

// JournalConfig locates and tunes the per-scenario journal files.
type JournalConfig struct {
	// Dir is the journal directory. "~" expands to the user home.
	Dir string `mapstructure:"dir" yaml:"dir"`
	// SnapshotCacheSize bounds the LRU of parsed snapshot blocks.
	SnapshotCacheSize int `mapstructure:"snapshot_cache_size" yaml:"snapshot_cache_size"`
	// AutoPruneAfter retires branches idle longer than this on resume.
	AutoPruneAfter time.Duration `mapstructure:"auto_prune_after" yaml:"auto_prune_after"`
}

// EngineConfig tunes the turn engine.
type EngineConfig struct {
	TotalTurns int `mapstructure:"total_turns" yaml:"total_turns"`
	// MenuSize is how many options the engine generates per turn, including
	// the explicit do-nothing option.
	MenuSize int `mapstructure:"menu_size" yaml:"menu_size"`
	// MaxRegenerations bounds post-adjudication checklist retries before
	// the failure is surfaced.
	MaxRegenerations int `mapstructure:"max_regenerations" yaml:"max_regenerations"`
}

// OracleConfig configures the judgment oracle client.
type OracleConfig struct {
	Provider string `mapstructure:"provider" yaml:"provider"` // "genai" or "fallback"
	Model    string `mapstructure:"model" yaml:"model"`
	APIKey   string `mapstructure:"api_key" yaml:"api_key"`
	// Timeout bounds every oracle call; on expiry the resolver degrades to
	// the deterministic fallback.
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
	// RequestsPerMinute feeds the rate limiter in front of the provider.
	RequestsPerMinute int     `mapstructure:"requests_per_minute" yaml:"requests_per_minute"`
	Temperature       float64 `mapstructure:"temperature" yaml:"temperature"`
}

// ExplorerConfig tunes Monte Carlo exploration.
type ExplorerConfig struct {
	DefaultRuns int `mapstructure:"default_runs" yaml:"default_runs"`
	// Concurrency bounds parallel iterations via a weighted semaphore.
	Concurrency int `mapstructure:"concurrency" yaml:"concurrency"`
	// IterationTimeout caps a single run so one slow iteration cannot
	// block the batch.
	IterationTimeout time.Duration `mapstructure:"iteration_timeout" yaml:"iteration_timeout"`
}

// ArchiveConfig configures the optional Postgres scenario index.
type ArchiveConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	DSN     string `mapstructure:"dsn" yaml:"dsn"`
}

// NewDefaultConfig returns a Config populated with working defaults.
func NewDefaultConfig() *Config {
	return &Config{
		logger: LoggerConfig{
			Level:       "info",
			Format:      "console",
			ServiceName: "stratagem",
			MaxSize:     20,
			MaxBackups:  3,
			MaxAge:      14,
		},
		journal: JournalConfig{
			Dir:               "~/.stratagem/journals",
			SnapshotCacheSize: 32,
			AutoPruneAfter:    30 * 24 * time.Hour,
		},
		engine: EngineConfig{
			TotalTurns:       8,
			MenuSize:         4,
			MaxRegenerations: 2,
		},
		oracle: OracleConfig{
			Provider:          "fallback",
			Model:             "gemini-2.0-flash",
			Timeout:           45 * time.Second,
			RequestsPerMinute: 30,
			Temperature:       0.4,
		},
		explorer: ExplorerConfig{
			DefaultRuns:      10,
			Concurrency:      4,
			IterationTimeout: 60 * time.Second,
		},
		archive: ArchiveConfig{},
	}
}

// Load unmarshals viper state into a validated Config. Defaults are applied
// first so a missing config file still yields a runnable configuration.
func Load(v *viper.Viper) (*Config, error) {
	cfg := NewDefaultConfig()

	raw := struct {
		Logger   LoggerConfig   `mapstructure:"logger"`
		Journal  JournalConfig  `mapstructure:"journal"`
		Engine   EngineConfig   `mapstructure:"engine"`
		Oracle   OracleConfig   `mapstructure:"oracle"`
		Explorer ExplorerConfig `mapstructure:"explorer"`
		Archive  ArchiveConfig  `mapstructure:"archive"`
	}{cfg.logger, cfg.journal, cfg.engine, cfg.oracle, cfg.explorer, cfg.archive}

	if err := v.Unmarshal(&raw); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.logger, cfg.journal, cfg.engine = raw.Logger, raw.Journal, raw.Engine
	cfg.oracle, cfg.explorer, cfg.archive = raw.Oracle, raw.Explorer, raw.Archive

	dir, err := homedir.Expand(cfg.journal.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to expand journal dir %q: %w", cfg.journal.Dir, err)
	}
	cfg.journal.Dir = filepath.Clean(dir)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the engine cannot run with.
func (c *Config) Validate() error {
	if c.engine.TotalTurns < 1 {
		return fmt.Errorf("engine.total_turns must be at least 1, got %d", c.engine.TotalTurns)
	}
	if c.engine.MenuSize < 2 {
		return fmt.Errorf("engine.menu_size must be at least 2 (an action and do-nothing), got %d", c.engine.MenuSize)
	}
	if c.explorer.DefaultRuns < 1 {
		return fmt.Errorf("explorer.default_runs must be at least 1, got %d", c.explorer.DefaultRuns)
	}
	if c.explorer.Concurrency < 1 {
		return fmt.Errorf("explorer.concurrency must be at least 1, got %d", c.explorer.Concurrency)
	}
	if c.oracle.Timeout <= 0 {
		return fmt.Errorf("oracle.timeout must be positive, got %s", c.oracle.Timeout)
	}
	if c.oracle.Provider == "genai" && c.oracle.APIKey == "" {
		return fmt.Errorf("oracle.api_key is required when oracle.provider is genai")
	}
	if c.archive.Enabled && c.archive.DSN == "" {
		return fmt.Errorf("archive.dsn is required when archive.enabled is true")
	}
	return nil
}

var _ Interface = (*Config)(nil)
