package store

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/jishanahmed-shaikh/yt-downloader-jars/internal/models"
)

// Presets returns a snapshot of the saved presets.
func (s *Store) Presets() []models.Preset {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Preset, len(s.presets))
	copy(out, s.presets)
	return out
}

// SavePreset creates a named preset, persists the full collection and
// returns the new preset.
func (s *Store) SavePreset(name string, format models.Format, quality string, autoDownload bool) models.Preset {
	s.mu.Lock()
	preset := models.Preset{
		ID:           uuid.NewString(),
		Name:         name,
		Format:       format,
		Quality:      quality,
		AutoDownload: autoDownload,
		CreatedAt:    s.now(),
	}
	s.presets = append(s.presets, preset)
	s.persistPresetsLocked()
	s.mu.Unlock()
	s.notify()
	return preset
}

// DeletePreset removes a preset by id and re-persists the collection.
// Returns false when no preset carried that id.
func (s *Store) DeletePreset(id string) bool {
	s.mu.Lock()
	found := false
	out := s.presets[:0]
	for _, p := range s.presets {
		if p.ID == id {
			found = true
			continue
		}
		out = append(out, p)
	}
	s.presets = out
	if found {
		s.persistPresetsLocked()
	}
	s.mu.Unlock()
	if found {
		s.notify()
	}
	return found
}

// Settings returns the current settings.
func (s *Store) Settings() models.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

// SetAutoDownload flips the auto-download flag and persists immediately.
func (s *Store) SetAutoDownload(enabled bool) {
	s.mu.Lock()
	s.settings.AutoDownload = enabled
	s.persistSettingsLocked()
	s.mu.Unlock()
	s.notify()
}

// SetBandwidthLimit sets the transfer rate cap in KB/s (0 = unlimited) and
// persists immediately.
func (s *Store) SetBandwidthLimit(kbps int) {
	if kbps < 0 {
		kbps = 0
	}
	s.mu.Lock()
	s.settings.BandwidthLimitKBps = kbps
	s.persistSettingsLocked()
	s.mu.Unlock()
	s.notify()
}

// SetAutoRefresh flips the auto-refresh flag, persisting it, and arms or
// disarms the periodic idle check. The check only re-notifies subscribers;
// it never drives network calls.
func (s *Store) SetAutoRefresh(enabled bool) {
	s.mu.Lock()
	s.settings.AutoRefresh = enabled
	s.persistSettingsLocked()
	if enabled {
		s.armAutoRefreshLocked()
	} else {
		s.disarmAutoRefreshLocked()
	}
	s.mu.Unlock()
	s.notify()
}

func (s *Store) armAutoRefreshLocked() {
	if s.refreshStop != nil {
		return
	}
	stop := make(chan struct{})
	s.refreshStop = stop
	go func() {
		ticker := time.NewTicker(autoRefreshInterval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				s.notify()
			}
		}
	}()
}

func (s *Store) disarmAutoRefreshLocked() {
	if s.refreshStop != nil {
		close(s.refreshStop)
		s.refreshStop = nil
	}
}

// Stats aggregates the download history. Only successes ever enter history,
// so the reported success rate is structurally 100; that one-sidedness is
// kept to match observable behavior.
func (s *Store) Stats() models.Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := models.Stats{DominantFormat: models.FormatVideo, SuccessRate: 100}
	if len(s.history) == 0 {
		return stats
	}

	today := s.now()
	videos := 0
	for _, rec := range s.history {
		stats.TotalDownloads++
		stats.TotalBytes += rec.Size
		if rec.Format == models.FormatVideo {
			videos++
		}
		y1, m1, d1 := rec.DownloadedAt.Local().Date()
		y2, m2, d2 := today.Local().Date()
		if y1 == y2 && m1 == m2 && d1 == d2 {
			stats.TodayCount++
		}
	}
	stats.AverageSize = stats.TotalBytes / int64(stats.TotalDownloads)
	// Video wins ties.
	if videos*2 < stats.TotalDownloads {
		stats.DominantFormat = models.FormatAudio
	}
	return stats
}

func (s *Store) persistHistoryLocked() {
	s.persistLocked(keyHistory, s.history)
}

func (s *Store) persistPresetsLocked() {
	s.persistLocked(keyPresets, s.presets)
}

func (s *Store) persistSettingsLocked() {
	s.persistLocked(keySettings, s.settings)
}

// persistLocked writes one collection as a full replace. Persistence
// failures are logged, never surfaced to the mutating caller.
func (s *Store) persistLocked(key string, v any) {
	if s.db == nil {
		return
	}
	raw, err := json.Marshal(v)
	if err != nil {
		log.WithError(err).Errorf("Could not encode %s for persistence", key)
		return
	}
	if err := s.db.Put(key, raw); err != nil {
		log.WithError(err).Errorf("Could not persist %s", key)
	}
}
