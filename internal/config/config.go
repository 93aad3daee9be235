package config

import (
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/mitchellh/mapstructure"

	"github.com/darmiel/verdict/internal/normalize"
	"github.com/darmiel/verdict/internal/validation"
)

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Engine     EngineConfig     `yaml:"engine"`
	Normalizer NormalizerConfig `yaml:"normalizer"`
	Store      StoreConfig      `yaml:"store"`
	Audit      AuditConfig      `yaml:"audit"`
	Retention  RetentionConfig  `yaml:"retention"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`

	// SigningKey is the HMAC key admin session tokens are verified with.
	// Destructive endpoints stay disabled when it is empty.
	SigningKey string `yaml:"signing_key"`
}

type EngineConfig struct {
	// Workers is how many goroutines a batch evaluation may fan out to.
	Workers int `yaml:"workers"`
}

type HeuristicConfig struct {
	// Enabled defaults to true; it needs a pointer to tell "absent" from
	// an explicit false.
	Enabled      *bool `yaml:"enabled"`
	MinArraySize int   `yaml:"min_array_size"`
	MaxDepth     int   `yaml:"max_depth"`
}

type NormalizerConfig struct {
	PolicyWrapperKeys []string        `yaml:"policy_wrapper_keys"`
	UserWrapperKeys   []string        `yaml:"user_wrapper_keys"`
	PolicyLabelKeys   []string        `yaml:"policy_label_keys"`
	UserLabelKeys     []string        `yaml:"user_label_keys"`
	Heuristic         HeuristicConfig `yaml:"heuristic"`
}

// StoreConfig selects the persistence backend. Backend-specific settings
// live inline and are decoded per type.
type StoreConfig struct {
	Type   string         `yaml:"type"` // "memory" or "sqlite"
	Config map[string]any `yaml:",inline"`
}

type SQLiteStoreConfig struct {
	Path string `mapstructure:"path"`
}

func (c StoreConfig) SQLite() (SQLiteStoreConfig, error) {
	var out SQLiteStoreConfig
	if err := mapstructure.Decode(c.Config, &out); err != nil {
		return out, fmt.Errorf("decoding sqlite store config: %w", err)
	}
	if out.Path == "" {
		out.Path = "verdict.db"
	}
	return out, nil
}

type AuditConfig struct {
	Enabled bool           `yaml:"enabled"`
	Type    string         `yaml:"type"` // "memory" or "file"
	Config  map[string]any `yaml:",inline"`
}

type FileAuditConfig struct {
	Path string `mapstructure:"path"`
}

func (c AuditConfig) File() (FileAuditConfig, error) {
	var out FileAuditConfig
	if err := mapstructure.Decode(c.Config, &out); err != nil {
		return out, fmt.Errorf("decoding file audit config: %w", err)
	}
	if out.Path == "" {
		out.Path = "verdict-audit.log"
	}
	return out, nil
}

type RetentionConfig struct {
	// MaxAge prunes stored results older than this; zero disables pruning.
	MaxAge        time.Duration `yaml:"max_age"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
}

// Default returns the configuration used when no config file is given.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads, parses and validates the configuration file at the given path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config file: %w", err)
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	def := normalize.DefaultOptions()

	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Engine.Workers == 0 {
		c.Engine.Workers = 1
	}
	if len(c.Normalizer.PolicyWrapperKeys) == 0 {
		c.Normalizer.PolicyWrapperKeys = def.PolicyWrapperKeys
	}
	if len(c.Normalizer.UserWrapperKeys) == 0 {
		c.Normalizer.UserWrapperKeys = def.UserWrapperKeys
	}
	if len(c.Normalizer.PolicyLabelKeys) == 0 {
		c.Normalizer.PolicyLabelKeys = def.PolicyLabelKeys
	}
	if len(c.Normalizer.UserLabelKeys) == 0 {
		c.Normalizer.UserLabelKeys = def.UserLabelKeys
	}
	if c.Normalizer.Heuristic.Enabled == nil {
		enabled := def.HeuristicEnabled
		c.Normalizer.Heuristic.Enabled = &enabled
	}
	if c.Normalizer.Heuristic.MinArraySize == 0 {
		c.Normalizer.Heuristic.MinArraySize = def.HeuristicMinSize
	}
	if c.Normalizer.Heuristic.MaxDepth == 0 {
		c.Normalizer.Heuristic.MaxDepth = def.HeuristicMaxDepth
	}
	if c.Store.Type == "" {
		c.Store.Type = "memory"
	}
	if c.Audit.Type == "" {
		c.Audit.Type = "memory"
	}
	if c.Retention.SweepInterval == 0 {
		c.Retention.SweepInterval = time.Hour
	}
}

func (c *Config) Validate() error {
	c.applyDefaults()

	for name, keys := range map[string][]string{
		"normalizer.policy_wrapper_keys": c.Normalizer.PolicyWrapperKeys,
		"normalizer.user_wrapper_keys":   c.Normalizer.UserWrapperKeys,
		"normalizer.policy_label_keys":   c.Normalizer.PolicyLabelKeys,
		"normalizer.user_label_keys":     c.Normalizer.UserLabelKeys,
	} {
		if err := validation.ValidateKeyList(name, keys); err != nil {
			return err
		}
	}

	if err := validation.ValidatePositive("engine.workers", c.Engine.Workers); err != nil {
		return err
	}
	if err := validation.ValidatePositive("normalizer.heuristic.min_array_size", c.Normalizer.Heuristic.MinArraySize); err != nil {
		return err
	}
	if err := validation.ValidatePositive("normalizer.heuristic.max_depth", c.Normalizer.Heuristic.MaxDepth); err != nil {
		return err
	}

	switch c.Store.Type {
	case "memory", "sqlite":
	default:
		return fmt.Errorf("unknown store type '%s' (expected memory or sqlite)", c.Store.Type)
	}
	switch c.Audit.Type {
	case "memory", "file":
	default:
		return fmt.Errorf("unknown audit type '%s' (expected memory or file)", c.Audit.Type)
	}
	if c.Retention.MaxAge < 0 {
		return fmt.Errorf("retention.max_age must not be negative")
	}

	return nil
}

// NormalizerOptions converts the config section into the options value the
// normalizer consumes.
func (c *Config) NormalizerOptions() normalize.Options {
	return normalize.Options{
		PolicyWrapperKeys: c.Normalizer.PolicyWrapperKeys,
		UserWrapperKeys:   c.Normalizer.UserWrapperKeys,
		PolicyLabelKeys:   c.Normalizer.PolicyLabelKeys,
		UserLabelKeys:     c.Normalizer.UserLabelKeys,
		HeuristicEnabled:  c.Normalizer.Heuristic.Enabled == nil || *c.Normalizer.Heuristic.Enabled,
		HeuristicMinSize:  c.Normalizer.Heuristic.MinArraySize,
		HeuristicMaxDepth: c.Normalizer.Heuristic.MaxDepth,
	}
}
