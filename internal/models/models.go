package models

import (
	"time"
)

// Format selects the kind of media a job materializes.
type Format string

const (
	FormatVideo Format = "video"
	FormatAudio Format = "audio"
)

// Valid reports whether f is one of the two supported formats.
func (f Format) Valid() bool {
	return f == FormatVideo || f == FormatAudio
}

// Status is the lifecycle state of a queued download.
// Transitions: pending -> downloading -> {completed | error},
// plus error -> pending via an explicit retry.
type Status string

const (
	StatusPending     Status = "pending"
	StatusDownloading Status = "downloading"
	StatusCompleted   Status = "completed"
	StatusError       Status = "error"
)

// IsTerminal reports whether s is a final state.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusError
}

// DownloadItem is one requested download tracked through the queue.
type DownloadItem struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	Format    Format    `json:"format"`
	Quality   string    `json:"quality,omitempty"`
	Status    Status    `json:"status"`
	Progress  int       `json:"progress"`
	Title     string    `json:"title,omitempty"`
	Thumbnail string    `json:"thumbnail,omitempty"`
	Filename  string    `json:"filename,omitempty"`
	Size      int64     `json:"size,omitempty"`
	Duration  int       `json:"duration,omitempty"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	StartedAt time.Time `json:"started_at"`

	// Derived on each progress update while downloading; only meaningful
	// when StartedAt and Size are known.
	DownloadSpeed int64 `json:"download_speed,omitempty"` // bytes per second
	ETASeconds    int64 `json:"eta_seconds,omitempty"`
}

// ItemPatch carries optional field updates merged into a DownloadItem
// alongside a status change. Nil pointers leave the field untouched.
type ItemPatch struct {
	Title     *string
	Thumbnail *string
	Filename  *string
	Size      *int64
	Duration  *int
	Error     *string
}

// HistoryRecord is a durable receipt of one successful download.
// Records are never mutated after creation.
type HistoryRecord struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	URL          string    `json:"url"`
	Format       Format    `json:"format"`
	Filename     string    `json:"filename"`
	Size         int64     `json:"size"`
	Duration     int       `json:"duration"`
	Checksum     string    `json:"checksum,omitempty"` // blake3 hex of the materialized file
	DownloadedAt time.Time `json:"downloaded_at"`
}

// Preset is a named, reusable bundle of download options.
type Preset struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Format       Format    `json:"format"`
	Quality      string    `json:"quality"`
	AutoDownload bool      `json:"auto_download"`
	CreatedAt    time.Time `json:"created_at"`
}

// Settings is the process-wide user configuration. Loaded at start,
// mutated on demand, persisted on every mutation.
type Settings struct {
	AutoDownload       bool `json:"auto_download"`
	BandwidthLimitKBps int  `json:"bandwidth_limit_kbps"` // 0 = unlimited
	AutoRefresh        bool `json:"auto_refresh"`
}

// Stats is a read-only aggregate over the download history.
type Stats struct {
	TotalDownloads int     `json:"total_downloads"`
	TotalBytes     int64   `json:"total_bytes"`
	TodayCount     int     `json:"today_count"`
	AverageSize    int64   `json:"average_size"`
	DominantFormat Format  `json:"dominant_format"`
	SuccessRate    float64 `json:"success_rate"`
}

// VideoMetadata is the result of a metadata probe against the external tool.
type VideoMetadata struct {
	VideoID   string `json:"video_id"`
	Title     string `json:"title"`
	Duration  int    `json:"duration"` // seconds
	Thumbnail string `json:"thumbnail,omitempty"`
}

// FileResult bundles everything known about a materialized download.
type FileResult struct {
	Title     string `json:"title"`
	Duration  int    `json:"duration"`
	Filename  string `json:"filename"`
	Filepath  string `json:"filepath"`
	Size      int64  `json:"size"`
	VideoID   string `json:"video_id"`
	Thumbnail string `json:"thumbnail,omitempty"`
	Checksum  string `json:"checksum,omitempty"`
}

// PlaylistVideo is one entry of an expanded playlist manifest.
type PlaylistVideo struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	URL       string `json:"url"`
	Thumbnail string `json:"thumbnail,omitempty"`
	Duration  int    `json:"duration,omitempty"`
}

// PlaylistInfo describes a playlist without materializing anything.
type PlaylistInfo struct {
	ID         string          `json:"id"`
	Title      string          `json:"title"`
	VideoCount int             `json:"video_count"`
	Videos     []PlaylistVideo `json:"videos"`
}

// DuplicateNotice is the advisory signal raised when an enqueued URL was
// already downloaded recently. It never blocks or alters enqueue semantics.
type DuplicateNotice struct {
	URL          string    `json:"url"`
	Format       Format    `json:"format"`
	Title        string    `json:"title"`
	DownloadedAt time.Time `json:"downloaded_at"`
}

// DefaultSettings returns the settings used before any are persisted.
func DefaultSettings() Settings {
	return Settings{
		AutoDownload:       true,
		BandwidthLimitKBps: 0,
		AutoRefresh:        false,
	}
}
