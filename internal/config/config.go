package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
	"pokertable-server/internal/util"
	"pokertable-server/pkg/table"
)

// EnvPrefix is the prefix for environment variable overrides, e.g. PTS_TABLE_MAX_PLAYERS
const EnvPrefix = "pts"

// Config provides configuration for the poker table server
type Config struct {
	loaded   bool
	Addr     string   `yaml:"addr" envconfig:"addr"`
	Table    Table    `yaml:"table" envconfig:"table"`
	Registry Registry `yaml:"registry" envconfig:"registry"`
	Log      Log      `yaml:"log" envconfig:"log"`
	CORS     CORS     `yaml:"cors" envconfig:"cors"`
}

// Table configures every table the server creates
type Table struct {
	MaxPlayers      int           `yaml:"maxPlayers" envconfig:"max_players"`
	StartingStack   int           `yaml:"startingStack" envconfig:"starting_stack"`
	DisconnectGrace time.Duration `yaml:"disconnectGrace" envconfig:"disconnect_grace"`
	ReassignHost    bool          `yaml:"reassignHost" envconfig:"reassign_host"`
}

// Registry configures how idle tables are reaped
type Registry struct {
	IdleTimeout   time.Duration `yaml:"idleTimeout" envconfig:"idle_timeout"`
	SweepInterval time.Duration `yaml:"sweepInterval" envconfig:"sweep_interval"`
}

// Log configures logging
type Log struct {
	Level             string `yaml:"level" envconfig:"level"`
	Format            string `yaml:"format" envconfig:"format"`
	DisableAccessLogs bool   `yaml:"disableAccessLogs" envconfig:"disable_access_logs"`
}

// CORS configures cross-origin requests
type CORS struct {
	AllowedOrigins []string `yaml:"allowedOrigins" envconfig:"allowed_origins"`
}

var config Config

// DefaultConfig returns the configuration used when nothing is overridden
func DefaultConfig() Config {
	return Config{
		Addr: ":5000",
		Table: Table{
			MaxPlayers:      table.DefaultMaxPlayers,
			StartingStack:   table.DefaultStartingStack,
			DisconnectGrace: table.DefaultDisconnectGrace,
		},
		Registry: Registry{
			IdleTimeout:   table.DefaultIdleTimeout,
			SweepInterval: table.DefaultSweepInterval,
		},
		Log: Log{
			Level:  "info",
			Format: "text",
		},
		CORS: CORS{
			AllowedOrigins: []string{"*"},
		},
	}
}

// Instance returns a singleton instance
// If the config hasn't been loaded, it will be loaded
func Instance() Config {
	if !config.loaded {
		if err := Load(); err != nil {
			panic(err)
		}
	}

	return config
}

// Load will load the configuration
// The file named by PTS_CONFIG_FILE (default config.yaml) is optional; environment variables win over it
func Load() error {
	cfg := DefaultConfig()

	configFile := util.Getenv("PTS_CONFIG_FILE", "config.yaml")
	file, err := os.Open(configFile)
	if err == nil {
		defer file.Close()

		if err := yaml.NewDecoder(file).Decode(&cfg); err != nil {
			return fmt.Errorf("could not decode %s: %w", configFile, err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	cfg.loaded = true
	config = cfg
	return nil
}

// Validate returns an error if the configuration cannot be used
func (c Config) Validate() error {
	if c.Table.MaxPlayers < 2 {
		return errors.New("table.maxPlayers must be at least 2")
	}

	if c.Table.StartingStack <= 0 {
		return errors.New("table.startingStack must be greater than 0")
	}

	if c.Table.DisconnectGrace <= 0 {
		return errors.New("table.disconnectGrace must be greater than 0")
	}

	if c.Registry.IdleTimeout <= 0 || c.Registry.SweepInterval <= 0 {
		return errors.New("registry.idleTimeout and registry.sweepInterval must be greater than 0")
	}

	switch c.Log.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("unknown log.format: %s", c.Log.Format)
	}

	return nil
}

// RegistryOptions converts the configuration into options for the table registry
func (c Config) RegistryOptions() table.RegistryOptions {
	opts := table.DefaultRegistryOptions()
	opts.Table.MaxPlayers = c.Table.MaxPlayers
	opts.Table.StartingStack = c.Table.StartingStack
	opts.Table.DisconnectGrace = c.Table.DisconnectGrace
	opts.Table.ReassignHost = c.Table.ReassignHost
	opts.IdleTimeout = c.Registry.IdleTimeout
	opts.SweepInterval = c.Registry.SweepInterval

	return opts
}
