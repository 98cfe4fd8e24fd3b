package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jishanahmed-shaikh/yt-downloader-jars/internal/models"
)

func TestParseFormat(t *testing.T) {
	f, err := parseFormat("video")
	require.NoError(t, err)
	assert.Equal(t, models.FormatVideo, f)

	f, err = parseFormat("audio")
	require.NoError(t, err)
	assert.Equal(t, models.FormatAudio, f)

	_, err = parseFormat("flac")
	assert.Error(t, err)
}

func TestRenderItemDownloading(t *testing.T) {
	line := renderItem(models.DownloadItem{
		URL:           "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		Status:        models.StatusDownloading,
		Progress:      40,
		Title:         "Some Video",
		DownloadSpeed: 2 * 1024 * 1024,
	})
	assert.Contains(t, line, "40%")
	assert.Contains(t, line, "downloading")
	assert.Contains(t, line, "2.0 MB/s")
	assert.Contains(t, line, "Some Video")
}

func TestRenderItemFallsBackToURL(t *testing.T) {
	line := renderItem(models.DownloadItem{
		URL:    "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		Status: models.StatusPending,
	})
	assert.Contains(t, line, "watch?v=dQw4w9WgXcQ")
}

func TestRenderItemError(t *testing.T) {
	line := renderItem(models.DownloadItem{
		Title:  "Blocked",
		Status: models.StatusError,
		Error:  "This video is private and cannot be downloaded",
	})
	assert.Contains(t, line, "error")
	assert.Contains(t, line, "This video is private")
}
