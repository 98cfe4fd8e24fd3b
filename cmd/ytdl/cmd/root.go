package cmd

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jishanahmed-shaikh/yt-downloader-jars/internal/config"
)

// cfgFile holds the path to the config file specified by the user.
var cfgFile string

var (
	logLevel  string
	logFormat string
)

// savePathFlag overrides the configured download directory.
var savePathFlag string

// globalConfig holds the loaded configuration for all subcommands.
var globalConfig config.Config

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "ytdl",
	Short: "Download videos and audio through yt-dlp",
	Long: `ytdl queues, downloads and serves videos fetched through the
yt-dlp tool, with a durable history and an HTTP API.`,
	PersistentPreRunE: loadGlobalConfig,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Configuration file path (default is ./config.toml or ~/.config/ytdl/config.toml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Logging level (trace, debug, info, warn, error, fatal, panic)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Logging format (text, json)")
	rootCmd.PersistentFlags().StringVar(&savePathFlag, "save-path", "", "Directory to save downloads (overrides config)")

	_ = viper.BindPFlag("loglevel", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("logformat", rootCmd.PersistentFlags().Lookup("log-format"))
	_ = viper.BindPFlag("savepath", rootCmd.PersistentFlags().Lookup("save-path"))
}

// loadGlobalConfig loads configuration and configures logging before any
// command runs.
func loadGlobalConfig(cmd *cobra.Command, args []string) error {
	cfg, err := config.Initialize(cfgFile)
	if err != nil {
		return err
	}
	globalConfig = cfg
	initLogging(cfg)
	return nil
}

func initLogging(cfg config.Config) {
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Warnf("Unknown log level %q, using info", cfg.LogLevel)
		level = log.InfoLevel
	}
	log.SetLevel(level)

	if cfg.LogFormat == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
}
