// Package manager orchestrates downloads end to end: it classifies incoming
// URLs, drives queue records through the store's state machine, runs the
// external tool pipeline one job at a time, and expands playlists into
// individually trackable jobs.
package manager

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/jishanahmed-shaikh/yt-downloader-jars/internal/models"
	"github.com/jishanahmed-shaikh/yt-downloader-jars/internal/search"
	"github.com/jishanahmed-shaikh/yt-downloader-jars/internal/store"
	"github.com/jishanahmed-shaikh/yt-downloader-jars/internal/validator"
	"github.com/jishanahmed-shaikh/yt-downloader-jars/internal/ytdlp"
)

const (
	// DefaultBatchLimit caps the number of URLs accepted in one batch call.
	DefaultBatchLimit = 10
	// DefaultInterJobPause is the breather between sequential jobs.
	DefaultInterJobPause = time.Second
	defaultProgressTick  = 500 * time.Millisecond
	syntheticCeiling     = 90
)

// ErrBatchTooLarge is returned before any tool invocation when a batch
// exceeds the limit.
var ErrBatchTooLarge = errors.New("too many URLs in batch")

// ErrNoURLs is returned for an empty batch.
var ErrNoURLs = errors.New("at least one URL is required")

// Pipeline is the external tool boundary the manager drives. *ytdlp.Client
// satisfies it.
type Pipeline interface {
	Probe(ctx context.Context, url string) (*models.VideoMetadata, *ytdlp.Error)
	Fetch(ctx context.Context, url, videoID string, format models.Format, quality string, opts ytdlp.FetchOptions) (*models.FileResult, *ytdlp.Error)
	Playlist(ctx context.Context, url string) (*models.PlaylistInfo, *ytdlp.Error)
}

// Deliverer is notified after a successful download when auto-download is
// enabled in settings.
type Deliverer func(result *models.FileResult)

// Manager runs downloads sequentially against a single Pipeline.
type Manager struct {
	Store    *store.Store
	Pipeline Pipeline

	// Search receives completed history records when non-nil.
	Search *search.Index
	// Deliver is invoked for each success while settings allow auto-download.
	Deliver Deliverer

	BatchLimit    int           // 0 means DefaultBatchLimit
	InterJobPause time.Duration // <0 disables, 0 means DefaultInterJobPause
	ProgressTick  time.Duration // 0 means the default tick

	// runMu keeps at most one transfer in flight.
	runMu sync.Mutex
}

// New returns a Manager with default limits.
func New(s *store.Store, p Pipeline) *Manager {
	return &Manager{Store: s, Pipeline: p}
}

func (m *Manager) batchLimit() int {
	if m.BatchLimit > 0 {
		return m.BatchLimit
	}
	return DefaultBatchLimit
}

func (m *Manager) interJobPause() time.Duration {
	if m.InterJobPause < 0 {
		return 0
	}
	if m.InterJobPause == 0 {
		return DefaultInterJobPause
	}
	return m.InterJobPause
}

func (m *Manager) progressTick() time.Duration {
	if m.ProgressTick > 0 {
		return m.ProgressTick
	}
	return defaultProgressTick
}

// DownloadSingle classifies one URL and runs it to a terminal state. The
// returned id always refers to an inspectable queue record, including for
// invalid URLs, which become immediate error records. A playlist URL is
// expanded instead of transferred.
func (m *Manager) DownloadSingle(ctx context.Context, url string, format models.Format, quality string) (string, error) {
	if !format.Valid() {
		format = models.FormatVideo
	}
	cls := validator.Classify(url)
	switch cls.Kind {
	case validator.KindPlaylist:
		return m.expandPlaylist(ctx, url, format, quality), nil
	case validator.KindInvalid:
		id := m.Store.Enqueue(url, format, quality)
		m.failJob(id, cls.Reason)
		return id, nil
	}

	id := m.Store.Enqueue(url, format, quality)
	m.runJob(ctx, id)
	return id, nil
}

// DownloadBatch accepts up to the batch limit of URLs, expands playlists
// into per-video jobs and runs everything sequentially. The limit is
// enforced before any tool invocation. When the primary path fails the
// original list is retried one URL at a time so a single bad entry cannot
// sink the batch.
func (m *Manager) DownloadBatch(ctx context.Context, urls []string, format models.Format, quality string) ([]string, error) {
	if len(urls) == 0 {
		return nil, ErrNoURLs
	}
	if len(urls) > m.batchLimit() {
		return nil, fmt.Errorf("%w: got %d, limit is %d", ErrBatchTooLarge, len(urls), m.batchLimit())
	}
	if !format.Valid() {
		format = models.FormatVideo
	}

	ids, err := m.enqueueBatch(ctx, urls, format, quality)
	if err != nil {
		log.WithError(err).Warn("Batch expansion aborted, falling back to one-by-one processing")
		return m.fallbackOneByOne(ctx, urls, format, quality)
	}

	m.runPending(ctx, ids)
	return ids, nil
}

// enqueueBatch turns every URL into queue records without transferring
// anything yet. Per-URL problems become error records; only a dead context
// aborts the whole expansion.
func (m *Manager) enqueueBatch(ctx context.Context, urls []string, format models.Format, quality string) ([]string, error) {
	var ids []string
	for _, url := range urls {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		cls := validator.Classify(url)
		switch cls.Kind {
		case validator.KindPlaylist:
			ids = append(ids, m.expandPlaylist(ctx, url, format, quality))
		case validator.KindInvalid:
			id := m.Store.Enqueue(url, format, quality)
			m.failJob(id, cls.Reason)
			ids = append(ids, id)
		default:
			ids = append(ids, m.Store.Enqueue(url, format, quality))
		}
	}
	return ids, nil
}

// fallbackOneByOne processes the raw URL list through the single-job path.
// Failures are isolated per URL.
func (m *Manager) fallbackOneByOne(ctx context.Context, urls []string, format models.Format, quality string) ([]string, error) {
	var ids []string
	for i, url := range urls {
		id, err := m.DownloadSingle(ctx, url, format, quality)
		if err != nil {
			log.WithError(err).Warnf("Fallback processing failed for %s", url)
			continue
		}
		ids = append(ids, id)
		if i < len(urls)-1 {
			m.pause(ctx)
		}
	}
	return ids, nil
}

// ProcessPending runs every currently pending queue record sequentially.
func (m *Manager) ProcessPending(ctx context.Context) {
	var ids []string
	for _, item := range m.Store.Queue() {
		if item.Status == models.StatusPending {
			ids = append(ids, item.ID)
		}
	}
	m.runPending(ctx, ids)
}

func (m *Manager) runPending(ctx context.Context, ids []string) {
	ran := 0
	for _, id := range ids {
		item, ok := m.Store.Item(id)
		if !ok || item.Status != models.StatusPending {
			continue
		}
		if ran > 0 {
			m.pause(ctx)
		}
		m.runJob(ctx, id)
		ran++
	}
}

func (m *Manager) pause(ctx context.Context) {
	d := m.interJobPause()
	if d <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}

// expandPlaylist enqueues a manifest record for the playlist itself plus one
// pending record per entry. The manifest completes immediately; it never
// references a transferable file. Children are numbered so queue order reads
// like the playlist.
func (m *Manager) expandPlaylist(ctx context.Context, url string, format models.Format, quality string) string {
	manifestID := m.Store.Enqueue(url, format, quality)
	item, ok := m.Store.Item(manifestID)
	if !ok || item.Status != models.StatusPending {
		return manifestID
	}

	info, perr := m.Pipeline.Playlist(ctx, url)
	if perr != nil {
		m.failJob(manifestID, perr.Message)
		return manifestID
	}

	title := fmt.Sprintf("%s (%d videos)", info.Title, info.VideoCount)
	m.Store.UpdateStatus(manifestID, models.StatusCompleted, &models.ItemPatch{Title: &title})

	for i, video := range info.Videos {
		childID := m.Store.Enqueue(video.URL, format, quality)
		childTitle := fmt.Sprintf("%d. %s", i+1, video.Title)
		patch := &models.ItemPatch{Title: &childTitle}
		if video.Thumbnail != "" {
			thumb := video.Thumbnail
			patch.Thumbnail = &thumb
		}
		m.Store.UpdateStatus(childID, models.StatusPending, patch)
	}
	log.Infof("Expanded playlist %q into %d jobs", info.Title, info.VideoCount)
	return manifestID
}

// runJob drives one pending record to a terminal state. The record may have
// been removed or started elsewhere; then this is a no-op.
func (m *Manager) runJob(ctx context.Context, id string) {
	m.runMu.Lock()
	defer m.runMu.Unlock()

	item, ok := m.Store.Item(id)
	if !ok || item.Status != models.StatusPending {
		return
	}

	cls := validator.Classify(item.URL)
	if cls.Kind != validator.KindSingle {
		m.failJob(id, "could not extract video ID from URL")
		return
	}

	m.Store.UpdateStatus(id, models.StatusDownloading, nil)
	stopTicker := m.startSyntheticProgress(id)

	opts := ytdlp.FetchOptions{LimitRateKBps: m.Store.Settings().BandwidthLimitKBps}
	result, ferr := m.Pipeline.Fetch(ctx, item.URL, cls.VideoID, item.Format, item.Quality, opts)
	stopTicker()

	// The outcome is the final progress update; the synthetic ticker never
	// reaches here.
	m.Store.UpdateProgress(id, 100)

	if ferr != nil {
		m.failJob(id, ferr.Message)
		return
	}

	patch := &models.ItemPatch{
		Title:    &result.Title,
		Filename: &result.Filename,
		Size:     &result.Size,
		Duration: &result.Duration,
	}
	if result.Thumbnail != "" {
		thumb := result.Thumbnail
		patch.Thumbnail = &thumb
	}
	m.Store.UpdateStatus(id, models.StatusCompleted, patch)
	m.Store.CompleteDownload(id, result)

	if m.Search != nil {
		if hist := m.Store.History(); len(hist) > 0 {
			m.Search.Add(hist[0])
		}
	}
	if m.Deliver != nil && m.Store.Settings().AutoDownload {
		m.Deliver(result)
	}
}

func (m *Manager) failJob(id, message string) {
	m.Store.UpdateStatus(id, models.StatusError, &models.ItemPatch{Error: &message})
}

// startSyntheticProgress animates progress for a job whose transfer reports
// nothing incremental. It advances in random steps, never past the ceiling,
// and stops the instant the returned func is called.
func (m *Manager) startSyntheticProgress(id string) (stop func()) {
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(m.progressTick())
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				item, ok := m.Store.Item(id)
				if !ok || item.Status != models.StatusDownloading {
					continue
				}
				if item.Progress >= syntheticCeiling {
					continue
				}
				next := item.Progress + rand.Intn(15) + 1
				if next > syntheticCeiling {
					next = syntheticCeiling
				}
				m.Store.UpdateProgress(id, next)
			}
		}
	}()
	var once sync.Once
	return func() { once.Do(func() { close(done) }) }
}
