// Package config centralizes configuration loading: defaults, config.toml,
// environment variables and CLI flags, in ascending precedence.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Default values for configuration.
const (
	DefaultSavePath        = "downloads"
	DefaultBinDir          = "bin"
	DefaultDatabasePath    = "ytdl.db" // relative to SavePath when not absolute
	DefaultBleveIndexPath  = "ytdl.bleve"
	DefaultListenAddr      = ":3000"
	DefaultMaxDurationSec  = 3600
	DefaultProbeTimeoutSec = 30
	DefaultFetchTimeoutSec = 300
	DefaultInterJobPauseMs = 1000
	DefaultBatchLimit      = 10
	DefaultLogLevel        = "info"
	DefaultLogFormat       = "text"
	DefaultConfigFilePath  = "config.toml"
)

// Config is the resolved application configuration.
type Config struct {
	SavePath        string `mapstructure:"savepath" toml:"SavePath"`
	BinDir          string `mapstructure:"bindir" toml:"BinDir"`
	DatabasePath    string `mapstructure:"databasepath" toml:"DatabasePath"`
	BleveIndexPath  string `mapstructure:"bleveindexpath" toml:"BleveIndexPath"`
	ListenAddr      string `mapstructure:"listenaddr" toml:"ListenAddr"`
	MaxDurationSec  int    `mapstructure:"maxdurationsec" toml:"MaxDurationSec"`
	ProbeTimeoutSec int    `mapstructure:"probetimeoutsec" toml:"ProbeTimeoutSec"`
	FetchTimeoutSec int    `mapstructure:"fetchtimeoutsec" toml:"FetchTimeoutSec"`
	InterJobPauseMs int    `mapstructure:"interjobpausems" toml:"InterJobPauseMs"`
	BatchLimit      int    `mapstructure:"batchlimit" toml:"BatchLimit"`
	LogLevel        string `mapstructure:"loglevel" toml:"LogLevel"`
	LogFormat       string `mapstructure:"logformat" toml:"LogFormat"`
}

// setViperDefaults configures Viper with the application's default values.
func setViperDefaults(v *viper.Viper) {
	v.SetDefault("savepath", DefaultSavePath)
	v.SetDefault("bindir", DefaultBinDir)
	v.SetDefault("databasepath", DefaultDatabasePath)
	v.SetDefault("bleveindexpath", DefaultBleveIndexPath)
	v.SetDefault("listenaddr", DefaultListenAddr)
	v.SetDefault("maxdurationsec", DefaultMaxDurationSec)
	v.SetDefault("probetimeoutsec", DefaultProbeTimeoutSec)
	v.SetDefault("fetchtimeoutsec", DefaultFetchTimeoutSec)
	v.SetDefault("interjobpausems", DefaultInterJobPauseMs)
	v.SetDefault("batchlimit", DefaultBatchLimit)
	v.SetDefault("loglevel", DefaultLogLevel)
	v.SetDefault("logformat", DefaultLogFormat)
}

// Initialize loads configuration from defaults, an optional config.toml
// (cwd, then ~/.config/ytdl), and YTDL_* environment variables. cfgFile,
// when non-empty, names an explicit config file that must exist.
func Initialize(cfgFile string) (Config, error) {
	v := viper.GetViper()
	setViperDefaults(v)

	v.SetEnvPrefix("YTDL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "ytdl"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok && cfgFile == "" {
			log.Debug("No config file found, using defaults and environment")
		} else {
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		}
	} else {
		log.Debugf("Using config file: %s", v.ConfigFileUsed())
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	resolvePaths(&cfg)
	return cfg, nil
}

// resolvePaths anchors relative storage paths under SavePath so a bare
// config keeps everything in one place.
func resolvePaths(cfg *Config) {
	if cfg.SavePath == "" {
		cfg.SavePath = DefaultSavePath
	}
	if cfg.DatabasePath != "" && !filepath.IsAbs(cfg.DatabasePath) {
		cfg.DatabasePath = filepath.Join(cfg.SavePath, cfg.DatabasePath)
	}
	if cfg.BleveIndexPath != "" && !filepath.IsAbs(cfg.BleveIndexPath) {
		cfg.BleveIndexPath = filepath.Join(cfg.SavePath, cfg.BleveIndexPath)
	}
}
