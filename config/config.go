package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/paperbot/internal/logger"
)

// Config represents the complete engine configuration
type Config struct {
	Account AccountConfig `json:"account" yaml:"account"`
	Engine  EngineConfig  `json:"engine" yaml:"engine"`
	Journal JournalConfig `json:"journal" yaml:"journal"`
	Store   StoreConfig   `json:"store" yaml:"store"`
	Log     logger.Config `json:"log" yaml:"log"`
}

// AccountConfig contains ledger initialization parameters
type AccountConfig struct {
	InitialBalance float64 `json:"initial_balance" yaml:"initial_balance"`
	FutureLeverage int     `json:"future_leverage" yaml:"future_leverage"`
}

// EngineConfig contains the run-loop parameters
type EngineConfig struct {
	MarkInterval string `json:"mark_interval" yaml:"mark_interval"` // e.g., "5s", "1m"
}

// ParseMarkInterval converts the interval string to time.Duration
func (e EngineConfig) ParseMarkInterval() (time.Duration, error) {
	if e.MarkInterval == "" {
		return 5 * time.Second, nil
	}
	return time.ParseDuration(e.MarkInterval)
}

// JournalConfig contains trade/equity journaling parameters
type JournalConfig struct {
	Type       string `json:"type" yaml:"type"` // "none", "csv" or "sqlite"
	TradesFile string `json:"trades_file,omitempty" yaml:"trades_file,omitempty"`
	EquityFile string `json:"equity_file,omitempty" yaml:"equity_file,omitempty"`
	DBPath     string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
}

// StoreConfig locates the durable key/value store
type StoreConfig struct {
	Path string `json:"path" yaml:"path"`
}

// LoadFromFile loads configuration from a file (JSON or YAML based on content)
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}

	// Try YAML first, fall back to JSON
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveToFile saves configuration to a file (JSON or YAML based on extension)
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Account.InitialBalance <= 0 {
		return fmt.Errorf("account.initial_balance must be positive")
	}
	if c.Account.FutureLeverage < 1 {
		return fmt.Errorf("account.future_leverage must be at least 1")
	}
	if d, err := c.Engine.ParseMarkInterval(); err != nil {
		return fmt.Errorf("engine.mark_interval: %w", err)
	} else if d <= 0 {
		return fmt.Errorf("engine.mark_interval must be positive")
	}
	switch c.Journal.Type {
	case "none":
	case "csv":
		if c.Journal.TradesFile == "" || c.Journal.EquityFile == "" {
			return fmt.Errorf("journal trades_file and equity_file required for CSV type")
		}
	case "sqlite":
		if c.Journal.DBPath == "" {
			return fmt.Errorf("journal db_path required for SQLite type")
		}
	default:
		return fmt.Errorf("journal.type must be 'none', 'csv' or 'sqlite'")
	}
	if c.Store.Path == "" {
		return fmt.Errorf("store.path is required")
	}
	return nil
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	return &Config{
		Account: AccountConfig{
			InitialBalance: 10000,
			FutureLeverage: 10,
		},
		Engine: EngineConfig{
			MarkInterval: "5s",
		},
		Journal: JournalConfig{
			Type:   "sqlite",
			DBPath: "./journal.sqlite",
		},
		Store: StoreConfig{
			Path: "./paperbot.db",
		},
		Log: logger.Config{
			Level:  "info",
			Output: "console",
		},
	}
}
