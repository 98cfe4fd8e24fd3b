// Package store owns all mutable queue state: download records, the capped
// history log, user presets, and settings. Every mutation goes through a
// command method on Store; readers take snapshots and subscribe for change
// notifications. A single mutex serializes all writers.
package store

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/jishanahmed-shaikh/yt-downloader-jars/internal/database"
	"github.com/jishanahmed-shaikh/yt-downloader-jars/internal/models"
)

const (
	historyLimit = 50
	// Completions newer than this raise an advisory duplicate notice.
	duplicateWindow = 24 * time.Hour
	// Idle-check interval when auto refresh is armed.
	autoRefreshInterval = 30 * time.Second
)

// Persistence keys. Each collection is replaced wholesale on mutation.
const (
	keyHistory  = "history"
	keyPresets  = "presets"
	keySettings = "settings"
)

// Blobs is the keyed blob storage the store persists through.
type Blobs interface {
	Get(key string) ([]byte, error)
	Put(key string, value []byte) error
}

// Listener observes store changes. Listeners run synchronously after each
// mutation, in subscription order.
type Listener func()

// DuplicateListener receives advisory recently-downloaded notices.
type DuplicateListener func(models.DuplicateNotice)

// Store is the single source of truth for queue, history, presets and
// settings.
type Store struct {
	mu sync.Mutex

	db       Blobs
	queue    []*models.DownloadItem
	history  []models.HistoryRecord
	presets  []models.Preset
	settings models.Settings

	listeners    map[int]Listener
	listenerIDs  []int
	dupListeners []DuplicateListener
	nextListener int

	refreshStop chan struct{}

	now func() time.Time
}

// New builds a Store backed by db. A nil db yields a purely in-memory
// store. Previously persisted history, presets and settings are loaded.
func New(db Blobs) *Store {
	s := &Store{
		db:        db,
		listeners: make(map[int]Listener),
		settings:  models.DefaultSettings(),
		now:       time.Now,
	}
	s.load()
	return s
}

func (s *Store) load() {
	if s.db == nil {
		return
	}
	if raw, err := s.db.Get(keyHistory); err == nil {
		if err := json.Unmarshal(raw, &s.history); err != nil {
			log.WithError(err).Warn("Could not decode persisted history")
		}
	} else if !errors.Is(err, database.ErrNotFound) {
		log.WithError(err).Warn("Could not load history")
	}
	if raw, err := s.db.Get(keyPresets); err == nil {
		if err := json.Unmarshal(raw, &s.presets); err != nil {
			log.WithError(err).Warn("Could not decode persisted presets")
		}
	} else if !errors.Is(err, database.ErrNotFound) {
		log.WithError(err).Warn("Could not load presets")
	}
	if raw, err := s.db.Get(keySettings); err == nil {
		if err := json.Unmarshal(raw, &s.settings); err != nil {
			log.WithError(err).Warn("Could not decode persisted settings")
			s.settings = models.DefaultSettings()
		}
	} else if !errors.Is(err, database.ErrNotFound) {
		log.WithError(err).Warn("Could not load settings")
	}
}

// Close disarms the auto-refresh timer if armed.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disarmAutoRefreshLocked()
}

// Subscribe registers a change listener and returns its unsubscribe func.
func (s *Store) Subscribe(fn Listener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextListener
	s.nextListener++
	s.listeners[id] = fn
	s.listenerIDs = append(s.listenerIDs, id)
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

// OnDuplicate registers an advisory duplicate-notice listener.
func (s *Store) OnDuplicate(fn DuplicateListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dupListeners = append(s.dupListeners, fn)
}

// notify runs listeners in subscription order, outside the store lock. A
// panicking listener must not stop the others or corrupt state.
func (s *Store) notify() {
	s.mu.Lock()
	fns := make([]Listener, 0, len(s.listeners))
	for _, id := range s.listenerIDs {
		if fn, ok := s.listeners[id]; ok {
			fns = append(fns, fn)
		}
	}
	s.mu.Unlock()
	for _, fn := range fns {
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Errorf("Store listener panicked: %v", r)
				}
			}()
			fn()
		}()
	}
}

func (s *Store) notifyDuplicate(notice models.DuplicateNotice) {
	s.mu.Lock()
	fns := make([]DuplicateListener, len(s.dupListeners))
	copy(fns, s.dupListeners)
	s.mu.Unlock()
	for _, fn := range fns {
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Errorf("Duplicate listener panicked: %v", r)
				}
			}()
			fn(notice)
		}()
	}
}

// Enqueue adds a new pending record and returns its id. A live record with
// the identical (url, format, quality) tuple is returned as-is instead of
// creating a duplicate. A matching history entry completed within the last
// 24 hours raises an advisory notice but never blocks the enqueue.
func (s *Store) Enqueue(url string, format models.Format, quality string) string {
	s.mu.Lock()
	for _, item := range s.queue {
		if item.URL == url && item.Format == format && item.Quality == quality && !item.Status.IsTerminal() {
			id := item.ID
			s.mu.Unlock()
			return id
		}
	}

	var dup *models.DuplicateNotice
	cutoff := s.now().Add(-duplicateWindow)
	for _, rec := range s.history {
		if rec.URL == url && rec.Format == format && rec.DownloadedAt.After(cutoff) {
			dup = &models.DuplicateNotice{
				URL:          url,
				Format:       format,
				Title:        rec.Title,
				DownloadedAt: rec.DownloadedAt,
			}
			break
		}
	}

	item := &models.DownloadItem{
		ID:        uuid.NewString(),
		URL:       url,
		Format:    format,
		Quality:   quality,
		Status:    models.StatusPending,
		Progress:  0,
		CreatedAt: s.now(),
	}
	s.queue = append(s.queue, item)
	id := item.ID
	s.mu.Unlock()

	if dup != nil {
		s.notifyDuplicate(*dup)
	}
	s.notify()
	return id
}

func (s *Store) findLocked(id string) *models.DownloadItem {
	for _, item := range s.queue {
		if item.ID == id {
			return item
		}
	}
	return nil
}

// UpdateProgress records progress (clamped to 0-100, never decreasing) and
// recomputes speed and ETA when the start time and total size are known.
// A no-op for unknown ids.
func (s *Store) UpdateProgress(id string, progress int) {
	s.mu.Lock()
	item := s.findLocked(id)
	if item == nil {
		s.mu.Unlock()
		return
	}
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}
	if progress < item.Progress {
		progress = item.Progress
	}
	item.Progress = progress

	item.DownloadSpeed = 0
	item.ETASeconds = 0
	if !item.StartedAt.IsZero() && item.Size > 0 {
		elapsed := s.now().Sub(item.StartedAt).Seconds()
		if elapsed > 0 {
			done := float64(progress) / 100 * float64(item.Size)
			speed := done / elapsed
			item.DownloadSpeed = int64(speed)
			if progress > 0 && progress < 100 && speed > 0 {
				remaining := float64(item.Size) - done
				item.ETASeconds = int64(remaining / speed)
			}
		}
	}
	s.mu.Unlock()
	s.notify()
}

// validTransition encodes the per-record state machine. error -> pending is
// reserved for Retry.
func validTransition(from, to models.Status) bool {
	if from == to {
		return from == models.StatusDownloading || from == models.StatusPending
	}
	switch from {
	case models.StatusPending:
		return to == models.StatusDownloading || to == models.StatusCompleted || to == models.StatusError
	case models.StatusDownloading:
		return to == models.StatusCompleted || to == models.StatusError
	}
	return false
}

// UpdateStatus applies a status change plus an optional field patch. The
// first transition into downloading stamps StartedAt exactly once.
func (s *Store) UpdateStatus(id string, status models.Status, patch *models.ItemPatch) {
	s.mu.Lock()
	item := s.findLocked(id)
	if item == nil {
		s.mu.Unlock()
		return
	}
	if !validTransition(item.Status, status) {
		log.Warnf("Ignoring invalid status transition %s -> %s for %s", item.Status, status, id)
		s.mu.Unlock()
		return
	}
	if status == models.StatusDownloading && item.StartedAt.IsZero() {
		item.StartedAt = s.now()
	}
	item.Status = status
	if status == models.StatusCompleted {
		item.Progress = 100
	}
	if patch != nil {
		if patch.Title != nil {
			item.Title = *patch.Title
		}
		if patch.Thumbnail != nil {
			item.Thumbnail = *patch.Thumbnail
		}
		if patch.Filename != nil {
			item.Filename = *patch.Filename
		}
		if patch.Size != nil {
			item.Size = *patch.Size
		}
		if patch.Duration != nil {
			item.Duration = *patch.Duration
		}
		if patch.Error != nil {
			item.Error = *patch.Error
		}
	}
	s.mu.Unlock()
	s.notify()
}

// CompleteDownload appends a durable history receipt for a successful
// download, caps history at the 50 most recent entries and persists the
// full collection. Queue status is handled separately by UpdateStatus.
func (s *Store) CompleteDownload(id string, result *models.FileResult) {
	if result == nil {
		return
	}
	s.mu.Lock()
	item := s.findLocked(id)
	if item == nil {
		s.mu.Unlock()
		return
	}
	rec := models.HistoryRecord{
		ID:           uuid.NewString(),
		Title:        result.Title,
		URL:          item.URL,
		Format:       item.Format,
		Filename:     result.Filename,
		Size:         result.Size,
		Duration:     result.Duration,
		Checksum:     result.Checksum,
		DownloadedAt: s.now(),
	}
	s.history = append([]models.HistoryRecord{rec}, s.history...)
	if len(s.history) > historyLimit {
		s.history = s.history[:historyLimit]
	}
	s.persistHistoryLocked()
	s.mu.Unlock()
	s.notify()
}

// Retry resets an errored record back to pending. No other state may be
// retried.
func (s *Store) Retry(id string) {
	s.mu.Lock()
	item := s.findLocked(id)
	if item == nil || item.Status != models.StatusError {
		s.mu.Unlock()
		return
	}
	item.Status = models.StatusPending
	item.Progress = 0
	item.Error = ""
	item.StartedAt = time.Time{}
	item.DownloadSpeed = 0
	item.ETASeconds = 0
	s.mu.Unlock()
	s.notify()
}

// RemoveFromQueue drops a record. An in-flight external process for that
// record is not aborted; the runner simply finds the record gone.
func (s *Store) RemoveFromQueue(id string) {
	s.mu.Lock()
	out := s.queue[:0]
	for _, item := range s.queue {
		if item.ID != id {
			out = append(out, item)
		}
	}
	s.queue = out
	s.mu.Unlock()
	s.notify()
}

// ClearCompleted drops all completed records.
func (s *Store) ClearCompleted() {
	s.mu.Lock()
	out := s.queue[:0]
	for _, item := range s.queue {
		if item.Status != models.StatusCompleted {
			out = append(out, item)
		}
	}
	s.queue = out
	s.mu.Unlock()
	s.notify()
}

// ClearAll empties the queue.
func (s *Store) ClearAll() {
	s.mu.Lock()
	s.queue = nil
	s.mu.Unlock()
	s.notify()
}

// Queue returns a snapshot of the current queue.
func (s *Store) Queue() []models.DownloadItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.DownloadItem, 0, len(s.queue))
	for _, item := range s.queue {
		out = append(out, *item)
	}
	return out
}

// Item returns a snapshot of one record.
func (s *Store) Item(id string) (models.DownloadItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if item := s.findLocked(id); item != nil {
		return *item, true
	}
	return models.DownloadItem{}, false
}

// History returns a snapshot of the history log, newest first.
func (s *Store) History() []models.HistoryRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.HistoryRecord, len(s.history))
	copy(out, s.history)
	return out
}
