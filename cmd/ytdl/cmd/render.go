package cmd

import (
	"fmt"

	"github.com/gosuri/uilive"

	"github.com/jishanahmed-shaikh/yt-downloader-jars/internal/helpers"
	"github.com/jishanahmed-shaikh/yt-downloader-jars/internal/models"
	"github.com/jishanahmed-shaikh/yt-downloader-jars/internal/store"
)

// liveRenderer repaints the queue in place while jobs run.
type liveRenderer struct {
	writer      *uilive.Writer
	store       *store.Store
	unsubscribe func()
}

// newLiveRenderer starts repainting on every store change. Call stop when
// the jobs are done to flush the final frame.
func newLiveRenderer(s *store.Store) *liveRenderer {
	r := &liveRenderer{writer: uilive.New(), store: s}
	r.writer.Start()
	r.unsubscribe = s.Subscribe(r.render)
	r.render()
	return r
}

func (r *liveRenderer) render() {
	queue := r.store.Queue()
	if len(queue) == 0 {
		fmt.Fprintln(r.writer, "Queue is empty")
		r.writer.Flush()
		return
	}
	for i, item := range queue {
		w := r.writer.Newline()
		if i == 0 {
			w = r.writer
		}
		fmt.Fprintln(w, renderItem(item))
	}
	r.writer.Flush()
}

func renderItem(item models.DownloadItem) string {
	title := item.Title
	if title == "" {
		title = item.URL
	}
	switch item.Status {
	case models.StatusDownloading:
		return fmt.Sprintf("%s %3d%% %-9s %s  %s",
			helpers.ProgressBar(item.Progress, 20), item.Progress, item.Status, helpers.SpeedString(item.DownloadSpeed), title)
	case models.StatusCompleted:
		size := ""
		if item.Size > 0 {
			size = " (" + helpers.BytesToSize(item.Size) + ")"
		}
		return fmt.Sprintf("%s %3d%% %-9s %s%s",
			helpers.ProgressBar(100, 20), 100, item.Status, title, size)
	case models.StatusError:
		return fmt.Sprintf("%s %3d%% %-9s %s: %s",
			helpers.ProgressBar(item.Progress, 20), item.Progress, item.Status, title, item.Error)
	default:
		return fmt.Sprintf("%s %3d%% %-9s %s",
			helpers.ProgressBar(item.Progress, 20), item.Progress, item.Status, title)
	}
}

func (r *liveRenderer) stop() {
	r.unsubscribe()
	r.render()
	r.writer.Stop()
}
