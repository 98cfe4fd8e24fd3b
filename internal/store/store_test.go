package store

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jishanahmed-shaikh/yt-downloader-jars/internal/database"
	"github.com/jishanahmed-shaikh/yt-downloader-jars/internal/models"
)

func testResult(i int) *models.FileResult {
	return &models.FileResult{
		Title:    fmt.Sprintf("Video %d", i),
		Duration: 120,
		Filename: fmt.Sprintf("Video_%d_id.mp4", i),
		Size:     1000,
		VideoID:  fmt.Sprintf("id%08d", i),
	}
}

func TestEnqueueDeduplicatesLiveRecords(t *testing.T) {
	s := New(nil)
	first := s.Enqueue("https://youtu.be/dQw4w9WgXcQ", models.FormatVideo, "best")
	second := s.Enqueue("https://youtu.be/dQw4w9WgXcQ", models.FormatVideo, "best")

	assert.Equal(t, first, second, "identical live tuple must return the existing id")
	assert.Len(t, s.Queue(), 1, "queue must grow by exactly one")

	// A different quality is a different tuple.
	third := s.Enqueue("https://youtu.be/dQw4w9WgXcQ", models.FormatVideo, "720")
	assert.NotEqual(t, first, third)
	assert.Len(t, s.Queue(), 2)
}

func TestEnqueueAfterTerminalCreatesNewRecord(t *testing.T) {
	s := New(nil)
	first := s.Enqueue("https://youtu.be/dQw4w9WgXcQ", models.FormatVideo, "best")
	s.UpdateStatus(first, models.StatusDownloading, nil)
	s.UpdateStatus(first, models.StatusError, nil)

	second := s.Enqueue("https://youtu.be/dQw4w9WgXcQ", models.FormatVideo, "best")
	assert.NotEqual(t, first, second, "terminal records do not deduplicate")
}

func TestDuplicateNoticeIsAdvisory(t *testing.T) {
	s := New(nil)
	id := s.Enqueue("https://youtu.be/dQw4w9WgXcQ", models.FormatVideo, "best")
	s.CompleteDownload(id, testResult(1))
	s.RemoveFromQueue(id)

	var notices []models.DuplicateNotice
	s.OnDuplicate(func(n models.DuplicateNotice) {
		notices = append(notices, n)
	})

	again := s.Enqueue("https://youtu.be/dQw4w9WgXcQ", models.FormatVideo, "best")
	require.NotEmpty(t, again, "duplicate notice must never block the enqueue")
	assert.Len(t, s.Queue(), 1)
	require.Len(t, notices, 1)
	assert.Equal(t, "https://youtu.be/dQw4w9WgXcQ", notices[0].URL)
	assert.Equal(t, "Video 1", notices[0].Title)
}

func TestDuplicateNoticeRespectsWindow(t *testing.T) {
	s := New(nil)
	id := s.Enqueue("https://youtu.be/dQw4w9WgXcQ", models.FormatVideo, "best")
	s.CompleteDownload(id, testResult(1))
	s.RemoveFromQueue(id)

	// Move the clock two days forward; the completion is now stale.
	s.now = func() time.Time { return time.Now().Add(48 * time.Hour) }

	fired := false
	s.OnDuplicate(func(models.DuplicateNotice) { fired = true })
	s.Enqueue("https://youtu.be/dQw4w9WgXcQ", models.FormatVideo, "best")
	assert.False(t, fired, "completions older than 24h must not raise a notice")
}

func TestHistoryCap(t *testing.T) {
	s := New(nil)
	for i := 0; i < 51; i++ {
		id := s.Enqueue(fmt.Sprintf("https://youtu.be/video%05d", i), models.FormatVideo, "best")
		s.CompleteDownload(id, testResult(i))
	}
	history := s.History()
	require.Len(t, history, 50)
	// Newest first; the very first completion has been evicted.
	assert.Equal(t, "Video 50", history[0].Title)
	assert.Equal(t, "Video 1", history[49].Title)
	for _, rec := range history {
		assert.NotEqual(t, "Video 0", rec.Title)
	}
}

func TestUpdateProgressUnknownIDIsNoop(t *testing.T) {
	s := New(nil)
	assert.NotPanics(t, func() { s.UpdateProgress("no-such-id", 50) })
}

func TestUpdateProgressWithoutStartOrSize(t *testing.T) {
	s := New(nil)
	id := s.Enqueue("https://youtu.be/dQw4w9WgXcQ", models.FormatVideo, "best")
	s.UpdateProgress(id, 40)
	item, ok := s.Item(id)
	require.True(t, ok)
	assert.Equal(t, 40, item.Progress)
	assert.Zero(t, item.DownloadSpeed, "speed needs StartedAt and Size")
	assert.Zero(t, item.ETASeconds)
}

func TestUpdateProgressComputesSpeedAndETA(t *testing.T) {
	s := New(nil)
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return start }

	id := s.Enqueue("https://youtu.be/dQw4w9WgXcQ", models.FormatVideo, "best")
	size := int64(100_000_000)
	s.UpdateStatus(id, models.StatusDownloading, &models.ItemPatch{Size: &size})

	// Ten seconds later, half done: 50 MB over 10s = 5 MB/s, 10s remaining.
	s.now = func() time.Time { return start.Add(10 * time.Second) }
	s.UpdateProgress(id, 50)

	item, ok := s.Item(id)
	require.True(t, ok)
	assert.Equal(t, int64(5_000_000), item.DownloadSpeed)
	assert.Equal(t, int64(10), item.ETASeconds)
}

func TestUpdateProgressMonotonic(t *testing.T) {
	s := New(nil)
	id := s.Enqueue("https://youtu.be/dQw4w9WgXcQ", models.FormatVideo, "best")
	s.UpdateStatus(id, models.StatusDownloading, nil)
	s.UpdateProgress(id, 60)
	s.UpdateProgress(id, 40)
	item, _ := s.Item(id)
	assert.Equal(t, 60, item.Progress, "progress never decreases")

	s.UpdateProgress(id, 150)
	item, _ = s.Item(id)
	assert.Equal(t, 100, item.Progress, "progress clamps at 100")
}

func TestStatusStateMachine(t *testing.T) {
	s := New(nil)
	id := s.Enqueue("https://youtu.be/dQw4w9WgXcQ", models.FormatVideo, "best")

	s.UpdateStatus(id, models.StatusDownloading, nil)
	item, _ := s.Item(id)
	require.Equal(t, models.StatusDownloading, item.Status)
	started := item.StartedAt
	require.False(t, started.IsZero(), "first downloading transition stamps StartedAt")

	s.UpdateStatus(id, models.StatusCompleted, nil)
	item, _ = s.Item(id)
	assert.Equal(t, models.StatusCompleted, item.Status)
	assert.Equal(t, 100, item.Progress)

	// Terminal records never revert outside Retry.
	s.UpdateStatus(id, models.StatusDownloading, nil)
	item, _ = s.Item(id)
	assert.Equal(t, models.StatusCompleted, item.Status)
}

func TestRetryResetsErroredRecord(t *testing.T) {
	s := New(nil)
	id := s.Enqueue("https://youtu.be/dQw4w9WgXcQ", models.FormatVideo, "best")
	s.UpdateStatus(id, models.StatusDownloading, nil)
	errMsg := "boom"
	s.UpdateStatus(id, models.StatusError, &models.ItemPatch{Error: &errMsg})

	s.Retry(id)
	item, _ := s.Item(id)
	assert.Equal(t, models.StatusPending, item.Status)
	assert.Zero(t, item.Progress)
	assert.Empty(t, item.Error)
	assert.True(t, item.StartedAt.IsZero())
}

func TestRetryOnlyAppliesToErrors(t *testing.T) {
	s := New(nil)
	id := s.Enqueue("https://youtu.be/dQw4w9WgXcQ", models.FormatVideo, "best")
	s.UpdateStatus(id, models.StatusDownloading, nil)
	s.UpdateStatus(id, models.StatusCompleted, nil)
	s.Retry(id)
	item, _ := s.Item(id)
	assert.Equal(t, models.StatusCompleted, item.Status)
}

func TestListenersRunInOrderAndSurvivePanics(t *testing.T) {
	s := New(nil)
	var order []int
	s.Subscribe(func() { order = append(order, 1) })
	s.Subscribe(func() { order = append(order, 2); panic("listener bug") })
	s.Subscribe(func() { order = append(order, 3) })

	s.Enqueue("https://youtu.be/dQw4w9WgXcQ", models.FormatVideo, "best")
	assert.Equal(t, []int{1, 2, 3}, order)

	// Store state stays intact after the panic.
	assert.Len(t, s.Queue(), 1)
}

func TestUnsubscribeStopsNotifications(t *testing.T) {
	s := New(nil)
	calls := 0
	unsubscribe := s.Subscribe(func() { calls++ })
	s.Enqueue("https://youtu.be/a00000000aa", models.FormatVideo, "best")
	unsubscribe()
	s.Enqueue("https://youtu.be/b00000000bb", models.FormatVideo, "best")
	assert.Equal(t, 1, calls)
}

func TestClearOperations(t *testing.T) {
	s := New(nil)
	done := s.Enqueue("https://youtu.be/a00000000aa", models.FormatVideo, "best")
	s.UpdateStatus(done, models.StatusDownloading, nil)
	s.UpdateStatus(done, models.StatusCompleted, nil)
	s.Enqueue("https://youtu.be/b00000000bb", models.FormatVideo, "best")

	s.ClearCompleted()
	require.Len(t, s.Queue(), 1)
	assert.Equal(t, models.StatusPending, s.Queue()[0].Status)

	s.ClearAll()
	assert.Empty(t, s.Queue())
}

func TestPersistenceRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	db, err := database.Open(path)
	require.NoError(t, err)

	s := New(db)
	id := s.Enqueue("https://youtu.be/dQw4w9WgXcQ", models.FormatVideo, "best")
	s.CompleteDownload(id, testResult(1))
	s.SavePreset("music", models.FormatAudio, "best", true)
	s.SetBandwidthLimit(256)
	require.NoError(t, db.Close())

	db2, err := database.Open(path)
	require.NoError(t, err)
	defer db2.Close()

	reloaded := New(db2)
	require.Len(t, reloaded.History(), 1)
	assert.Equal(t, "Video 1", reloaded.History()[0].Title)
	require.Len(t, reloaded.Presets(), 1)
	assert.Equal(t, "music", reloaded.Presets()[0].Name)
	assert.Equal(t, 256, reloaded.Settings().BandwidthLimitKBps)
}

func TestStats(t *testing.T) {
	s := New(nil)
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.Local)
	s.now = func() time.Time { return fixed }

	for i := 0; i < 2; i++ {
		id := s.Enqueue(fmt.Sprintf("https://youtu.be/video%05d", i), models.FormatVideo, "best")
		res := testResult(i)
		res.Size = 2000
		s.CompleteDownload(id, res)
	}
	audioID := s.Enqueue("https://youtu.be/audio000000", models.FormatAudio, "best")
	s.CompleteDownload(audioID, testResult(9))

	// One record from yesterday.
	s.now = func() time.Time { return fixed.Add(-24 * time.Hour) }
	oldID := s.Enqueue("https://youtu.be/old00000000", models.FormatAudio, "best")
	s.CompleteDownload(oldID, testResult(8))
	s.now = func() time.Time { return fixed }

	stats := s.Stats()
	assert.Equal(t, 4, stats.TotalDownloads)
	assert.Equal(t, int64(2000+2000+1000+1000), stats.TotalBytes)
	assert.Equal(t, 3, stats.TodayCount)
	assert.Equal(t, int64(1500), stats.AverageSize)
	assert.Equal(t, models.FormatVideo, stats.DominantFormat, "video wins ties")
	assert.Equal(t, float64(100), stats.SuccessRate)
}

func TestStatsEmptyHistory(t *testing.T) {
	s := New(nil)
	stats := s.Stats()
	assert.Zero(t, stats.TotalDownloads)
	assert.Equal(t, models.FormatVideo, stats.DominantFormat)
	assert.Equal(t, float64(100), stats.SuccessRate)
}
