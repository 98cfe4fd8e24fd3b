package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/jishanahmed-shaikh/yt-downloader-jars/internal/helpers"
	"github.com/jishanahmed-shaikh/yt-downloader-jars/internal/models"
)

var historyLimitFlag int

// historyCmd lists recent downloads.
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List the download history",
	RunE:  runHistoryList,
}

// historySearchCmd searches the history full-text index.
var historySearchCmd = &cobra.Command{
	Use:   "search [QUERY]",
	Short: "Search the download history by title or filename",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistorySearch,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historySearchCmd)
	historySearchCmd.Flags().IntVar(&historyLimitFlag, "limit", 10, "Maximum number of results")
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	a, err := newApp(false)
	if err != nil {
		return err
	}
	defer a.close()

	history := a.store.History()
	if len(history) == 0 {
		log.Info("History is empty")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintln(w, "DOWNLOADED\tFORMAT\tSIZE\tDURATION\tTITLE")
	for _, rec := range history {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			rec.DownloadedAt.Local().Format("2006-01-02 15:04"),
			rec.Format,
			helpers.BytesToSize(rec.Size),
			helpers.DurationString(rec.Duration),
			rec.Title)
	}
	return w.Flush()
}

func runHistorySearch(cmd *cobra.Command, args []string) error {
	a, err := newApp(true)
	if err != nil {
		return err
	}
	defer a.close()

	if a.index == nil {
		return fmt.Errorf("search index is unavailable")
	}

	hits, err := a.index.Search(args[0], historyLimitFlag)
	if err != nil {
		return err
	}
	if len(hits) == 0 {
		log.Infof("No history entries match %q", args[0])
		return nil
	}

	byID := make(map[string]models.HistoryRecord)
	for _, rec := range a.store.History() {
		byID[rec.ID] = rec
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintln(w, "SCORE\tTITLE\tFILENAME")
	for _, hit := range hits {
		title := hit.Title
		filename := ""
		if rec, ok := byID[hit.ID]; ok {
			title = rec.Title
			filename = rec.Filename
		}
		fmt.Fprintf(w, "%.2f\t%s\t%s\n", hit.Score, title, filename)
	}
	return w.Flush()
}
