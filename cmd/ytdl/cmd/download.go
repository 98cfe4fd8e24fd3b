package cmd

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/jishanahmed-shaikh/yt-downloader-jars/internal/models"
)

var (
	downloadFormatFlag  string
	downloadQualityFlag string
)

// downloadCmd downloads a single URL to completion.
var downloadCmd = &cobra.Command{
	Use:   "download [URL]",
	Short: "Download a single video or audio track",
	Long: `Downloads one URL through yt-dlp. Playlist URLs are expanded into
individual pending entries; run 'ytdl pending' to process them.`,
	Args: cobra.ExactArgs(1),
	RunE: runDownload,
}

func init() {
	rootCmd.AddCommand(downloadCmd)
	downloadCmd.Flags().StringVarP(&downloadFormatFlag, "format", "f", "video", "Download format (video or audio)")
	downloadCmd.Flags().StringVarP(&downloadQualityFlag, "quality", "q", "best", "Video quality (best, worst, or a height like 720)")
}

func parseFormat(raw string) (models.Format, error) {
	f := models.Format(raw)
	if !f.Valid() {
		return "", fmt.Errorf("invalid format %q: use video or audio", raw)
	}
	return f, nil
}

func runDownload(cmd *cobra.Command, args []string) error {
	format, err := parseFormat(downloadFormatFlag)
	if err != nil {
		return err
	}

	a, err := newApp(true)
	if err != nil {
		return err
	}
	defer a.close()

	renderer := newLiveRenderer(a.store)
	id, err := a.manager.DownloadSingle(cmd.Context(), args[0], format, downloadQualityFlag)
	renderer.stop()
	if err != nil {
		return err
	}

	item, ok := a.store.Item(id)
	if !ok {
		return fmt.Errorf("download record disappeared")
	}
	if item.Status == models.StatusError {
		return fmt.Errorf("download failed: %s", item.Error)
	}
	if item.Filename != "" {
		log.Infof("Saved %s", item.Filename)
	}
	return nil
}
