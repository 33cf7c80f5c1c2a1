package config

// Package config loads conf.json (schema-versioned at DURS_CONF_VERSION)
// with DURS_*-prefixed environment overrides, mirroring the teacher's
// viper+godotenv pattern almost verbatim.
//
// Version: v0.1.0

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"duniter-go/core"
	"duniter-go/pkg/utils"
)

// Version is the semantic version of this configuration package.
const Version = "v0.1.0"

// ConfVersion is the schema version this package understands; conf.json
// files declaring a different DURS_CONF_VERSION are rejected (§7:
// ConfVersionParseErr/UnsupportedVersion).
const ConfVersion = 1

// Config is the unified node configuration loaded from conf.json / DURS_*
// env vars, per §6 EXTERNAL INTERFACES.
type Config struct {
	ConfVersion int `mapstructure:"conf_version" json:"conf_version"`

	Currency string `mapstructure:"currency" json:"currency"`
	Profile  string `mapstructure:"profile" json:"profile"`

	Network core.Config `mapstructure:"network" json:"network"`

	WS2P struct {
		SpamInterval   string `mapstructure:"spam_interval" json:"spam_interval"`
		SpamLimit      int    `mapstructure:"spam_limit" json:"spam_limit"`
		SpamSleep      string `mapstructure:"spam_sleep" json:"spam_sleep"`
		RequestTimeout string `mapstructure:"request_timeout" json:"request_timeout"`
	} `mapstructure:"ws2p" json:"ws2p"`

	Storage struct {
		DataDir        string `mapstructure:"data_dir" json:"data_dir"`
		ForkWindowSize uint32 `mapstructure:"fork_window_size" json:"fork_window_size"`
	} `mapstructure:"storage" json:"storage"`

	Logging struct {
		Level string `mapstructure:"level" json:"level"`
		File  string `mapstructure:"file" json:"file"`
	} `mapstructure:"logging" json:"logging"`

	Resources struct {
		CPUUsage     string `mapstructure:"cpu_usage" json:"cpu_usage"`
		MemoryUsage  string `mapstructure:"memory_usage" json:"memory_usage"`
		NetworkUsage string `mapstructure:"network_usage" json:"network_usage"`
		DiskUsage    string `mapstructure:"disk_space_usage" json:"disk_space_usage"`
	} `mapstructure:"resources" json:"resources"`

	Modules struct {
		Enabled  []string `mapstructure:"enabled" json:"enabled"`
		Disabled []string `mapstructure:"disabled" json:"disabled"`
	} `mapstructure:"modules" json:"modules"`
}

// AppConfig holds the configuration loaded via Load or LoadFromEnv.
var AppConfig Config

// DefaultConfig returns the node's out-of-the-box configuration, used by
// `duniter reset conf` and first-run bootstrapping.
func DefaultConfig() Config {
	var c Config
	c.ConfVersion = ConfVersion
	c.Currency = "g1"
	c.Profile = "duniter_default"
	c.Network = core.Config{ListenAddr: "/ip4/0.0.0.0/tcp/10901", DiscoveryTag: "duniter"}
	c.WS2P.SpamInterval = "1s"
	c.WS2P.SpamLimit = 10
	c.WS2P.SpamSleep = "5s"
	c.WS2P.RequestTimeout = "10s"
	c.Storage.DataDir = "."
	c.Storage.ForkWindowSize = 100
	c.Logging.Level = "info"
	return c
}

// Load reads <profileDir>/conf.json and merges DURS_*-prefixed environment
// overrides, per §6. A .env file in profileDir is loaded first if present,
// mirroring the teacher's AutomaticEnv + godotenv overlay.
func Load(profileDir string) (*Config, error) {
	_ = godotenv.Load(profileDir + "/.env")

	viper.SetConfigName("conf")
	viper.SetConfigType("json")
	viper.AddConfigPath(profileDir)

	def := DefaultConfig()
	viper.SetDefault("conf_version", def.ConfVersion)
	viper.SetDefault("currency", def.Currency)
	viper.SetDefault("profile", def.Profile)

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || os.IsNotExist(err) {
			AppConfig = def
			return &AppConfig, nil
		}
		return nil, utils.Wrap(err, "load conf.json")
	}

	viper.SetEnvPrefix("DURS")
	viper.AutomaticEnv()

	if err := viper.Unmarshal(&AppConfig); err != nil {
		return nil, utils.Wrap(err, "unmarshal conf.json")
	}
	if AppConfig.ConfVersion != ConfVersion {
		return nil, fmt.Errorf("config: %w: conf_version %d, expected %d", core.ErrUnsupportedVersion, AppConfig.ConfVersion, ConfVersion)
	}
	return &AppConfig, nil
}

// LoadFromEnv loads the profile directory named by DURS_PROFILE_DIR, or the
// current directory if unset.
func LoadFromEnv() (*Config, error) {
	return Load(utils.EnvOrDefault("DURS_PROFILE_DIR", "."))
}

// Save writes cfg back to <profileDir>/conf.json, used by `duniter enable`/
// `disable` to persist the modules list without round-tripping through viper.
func Save(profileDir string, cfg *Config) error {
	if err := os.MkdirAll(profileDir, 0o755); err != nil {
		return fmt.Errorf("config: save: %w", err)
	}
	raw, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("config: save: %w", err)
	}
	path := filepath.Join(profileDir, "conf.json")
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("config: save: %w", err)
	}
	return nil
}
