package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jishanahmed-shaikh/yt-downloader-jars/internal/helpers"
)

// statsCmd prints aggregate download statistics.
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show download statistics",
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	a, err := newApp(false)
	if err != nil {
		return err
	}
	defer a.close()

	stats := a.store.Stats()
	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintf(w, "Total downloads:\t%d\n", stats.TotalDownloads)
	fmt.Fprintf(w, "Downloaded today:\t%d\n", stats.TodayCount)
	fmt.Fprintf(w, "Total size:\t%s\n", helpers.BytesToSize(stats.TotalBytes))
	fmt.Fprintf(w, "Average size:\t%s\n", helpers.BytesToSize(stats.AverageSize))
	fmt.Fprintf(w, "Dominant format:\t%s\n", stats.DominantFormat)
	fmt.Fprintf(w, "Success rate:\t%.0f%%\n", stats.SuccessRate)
	return w.Flush()
}
