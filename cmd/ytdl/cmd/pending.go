package cmd

import (
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/jishanahmed-shaikh/yt-downloader-jars/internal/models"
)

// pendingCmd processes queued entries, typically expanded playlist items.
var pendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "Process all pending queue entries",
	RunE:  runPending,
}

func init() {
	rootCmd.AddCommand(pendingCmd)
}

func runPending(cmd *cobra.Command, args []string) error {
	a, err := newApp(true)
	if err != nil {
		return err
	}
	defer a.close()

	pending := 0
	for _, item := range a.store.Queue() {
		if item.Status == models.StatusPending {
			pending++
		}
	}
	if pending == 0 {
		log.Info("No pending downloads")
		return nil
	}
	log.Infof("Processing %d pending downloads", pending)

	renderer := newLiveRenderer(a.store)
	a.manager.ProcessPending(cmd.Context())
	renderer.stop()
	return nil
}
