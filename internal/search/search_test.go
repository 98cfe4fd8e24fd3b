package search

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/jishanahmed-shaikh/yt-downloader-jars/internal/models"
)

func openTestIndex(t *testing.T) *Index {
	t.Helper()
	idx, err := Open(filepath.Join(t.TempDir(), "history.bleve"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { idx.Close() })
	return idx
}

func TestSearchFindsIndexedRecord(t *testing.T) {
	idx := openTestIndex(t)

	idx.Add(models.HistoryRecord{
		ID:           "rec-1",
		Title:        "Go Concurrency Patterns",
		URL:          "https://www.youtube.com/watch?v=f6kdp27TYZs",
		Format:       models.FormatVideo,
		Filename:     "Go_Concurrency_Patterns_f6kdp27TYZs.mp4",
		DownloadedAt: time.Now(),
	})
	idx.Add(models.HistoryRecord{
		ID:           "rec-2",
		Title:        "Lo-fi Study Mix",
		URL:          "https://www.youtube.com/watch?v=jfKfPfyJRdk",
		Format:       models.FormatAudio,
		Filename:     "Lo-fi_Study_Mix_jfKfPfyJRdk.mp3",
		DownloadedAt: time.Now(),
	})

	hits, err := idx.Search("concurrency", 10)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("Search returned %d hits, want 1", len(hits))
	}
	if hits[0].ID != "rec-1" {
		t.Errorf("hit id = %q, want rec-1", hits[0].ID)
	}
	if hits[0].Title != "Go Concurrency Patterns" {
		t.Errorf("hit title = %q", hits[0].Title)
	}
}

func TestSearchNoMatches(t *testing.T) {
	idx := openTestIndex(t)
	idx.Add(models.HistoryRecord{ID: "rec-1", Title: "Cooking basics"})

	hits, err := idx.Search("astrophysics", 10)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(hits) != 0 {
		t.Errorf("Search returned %d hits, want 0", len(hits))
	}
}

func TestOpenReopensExistingIndex(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.bleve")
	idx, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	idx.Add(models.HistoryRecord{ID: "rec-1", Title: "Persistent entry"})
	if err := idx.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()

	hits, err := reopened.Search("persistent", 10)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(hits) != 1 {
		t.Errorf("Search after reopen returned %d hits, want 1", len(hits))
	}
}
