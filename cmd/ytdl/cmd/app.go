package cmd

import (
	"fmt"
	"os"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/jishanahmed-shaikh/yt-downloader-jars/internal/config"
	"github.com/jishanahmed-shaikh/yt-downloader-jars/internal/database"
	"github.com/jishanahmed-shaikh/yt-downloader-jars/internal/manager"
	"github.com/jishanahmed-shaikh/yt-downloader-jars/internal/search"
	"github.com/jishanahmed-shaikh/yt-downloader-jars/internal/store"
	"github.com/jishanahmed-shaikh/yt-downloader-jars/internal/ytdlp"
)

// app bundles the wired components every download-driving command needs.
type app struct {
	cfg     config.Config
	db      *database.DB
	store   *store.Store
	client  *ytdlp.Client
	manager *manager.Manager
	index   *search.Index
}

// newApp builds the full component stack from the loaded configuration.
// withIndex controls whether the search index is opened; commands that never
// touch it skip the open to avoid lock contention with a running server.
func newApp(withIndex bool) (*app, error) {
	cfg := globalConfig

	if err := os.MkdirAll(cfg.SavePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create save path %s: %w", cfg.SavePath, err)
	}

	db, err := database.Open(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := store.New(db)

	client := ytdlp.New(cfg.BinDir, cfg.SavePath)
	client.MaxDuration = cfg.MaxDurationSec
	client.ProbeTimeout = time.Duration(cfg.ProbeTimeoutSec) * time.Second
	client.FetchTimeout = time.Duration(cfg.FetchTimeoutSec) * time.Second

	m := manager.New(s, client)
	m.BatchLimit = cfg.BatchLimit
	m.InterJobPause = time.Duration(cfg.InterJobPauseMs) * time.Millisecond

	a := &app{cfg: cfg, db: db, store: s, client: client, manager: m}

	if withIndex {
		idx, err := search.Open(cfg.BleveIndexPath)
		if err != nil {
			log.WithError(err).Warn("Search index unavailable, continuing without it")
		} else {
			a.index = idx
			m.Search = idx
		}
	}
	return a, nil
}

func (a *app) close() {
	a.store.Close()
	if a.index != nil {
		if err := a.index.Close(); err != nil {
			log.WithError(err).Debug("Could not close search index")
		}
	}
	if err := a.db.Close(); err != nil {
		log.WithError(err).Debug("Could not close database")
	}
}
