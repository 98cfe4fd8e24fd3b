package cmd

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/jishanahmed-shaikh/yt-downloader-jars/internal/models"
)

var (
	batchFormatFlag  string
	batchQualityFlag string
)

// batchCmd downloads several URLs sequentially.
var batchCmd = &cobra.Command{
	Use:   "batch [URL]...",
	Short: "Download multiple URLs sequentially",
	Long: `Downloads up to the configured batch limit of URLs one after
another. Playlist URLs expand into individual pending entries.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)
	batchCmd.Flags().StringVarP(&batchFormatFlag, "format", "f", "video", "Download format (video or audio)")
	batchCmd.Flags().StringVarP(&batchQualityFlag, "quality", "q", "best", "Video quality (best, worst, or a height like 720)")
}

func runBatch(cmd *cobra.Command, args []string) error {
	format, err := parseFormat(batchFormatFlag)
	if err != nil {
		return err
	}

	a, err := newApp(true)
	if err != nil {
		return err
	}
	defer a.close()

	renderer := newLiveRenderer(a.store)
	ids, err := a.manager.DownloadBatch(cmd.Context(), args, format, batchQualityFlag)
	renderer.stop()
	if err != nil {
		return err
	}

	succeeded, failed := 0, 0
	for _, id := range ids {
		item, ok := a.store.Item(id)
		if !ok {
			continue
		}
		if item.Status == models.StatusError {
			failed++
		} else {
			succeeded++
		}
	}
	log.Infof("Batch finished: %d succeeded, %d failed", succeeded, failed)
	if failed > 0 {
		return fmt.Errorf("%d of %d downloads failed", failed, len(ids))
	}
	return nil
}
