package cmd

import (
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/jishanahmed-shaikh/yt-downloader-jars/internal/config"
)

var configInitPathFlag string

// configCmd groups configuration helpers.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage ytdl configuration",
}

// configInitCmd writes a default config.toml.
var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config.toml",
	RunE:  runConfigInit,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configInitCmd.Flags().StringVarP(&configInitPathFlag, "output", "o", config.DefaultConfigFilePath, "Where to write the config file")
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	if err := config.WriteDefault(configInitPathFlag); err != nil {
		return err
	}
	log.Infof("Wrote default configuration to %s", configInitPathFlag)
	return nil
}
