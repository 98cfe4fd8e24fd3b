// Package api exposes the download orchestrator over HTTP. Handlers decode,
// validate, delegate to the manager and store, and encode; no download
// semantics live here.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/jishanahmed-shaikh/yt-downloader-jars/internal/manager"
	"github.com/jishanahmed-shaikh/yt-downloader-jars/internal/models"
	"github.com/jishanahmed-shaikh/yt-downloader-jars/internal/store"
	"github.com/jishanahmed-shaikh/yt-downloader-jars/internal/validator"
	"github.com/jishanahmed-shaikh/yt-downloader-jars/internal/ytdlp"
)

// Terminal progress entries linger this long so late pollers still see the
// outcome, then disappear.
const progressExpiry = 5 * time.Minute

// Server wires HTTP routes to the store and manager.
type Server struct {
	store   *store.Store
	manager *manager.Manager
	// outputDir is the only directory files are ever served from.
	outputDir string

	mu       sync.Mutex
	terminal map[string]time.Time // job id -> first time seen terminal

	now func() time.Time
}

// New builds a Server. outputDir must be the directory the pipeline
// materializes files into.
func New(s *store.Store, m *manager.Manager, outputDir string) *Server {
	return &Server{
		store:     s,
		manager:   m,
		outputDir: outputDir,
		terminal:  make(map[string]time.Time),
		now:       time.Now,
	}
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/download", s.handleDownload)
	mux.HandleFunc("POST /api/batch-download", s.handleBatchDownload)
	mux.HandleFunc("GET /api/progress/{id}", s.handleProgress)
	mux.HandleFunc("POST /api/progress/{id}", s.handleProgressUpdate)
	mux.HandleFunc("GET /api/serve/{filename}", s.handleServeFile)

	mux.HandleFunc("GET /api/queue", s.handleQueue)
	mux.HandleFunc("DELETE /api/queue/{id}", s.handleQueueRemove)
	mux.HandleFunc("POST /api/queue/{id}/retry", s.handleQueueRetry)
	mux.HandleFunc("POST /api/queue/clear-completed", s.handleClearCompleted)
	mux.HandleFunc("POST /api/queue/clear", s.handleClearAll)
	mux.HandleFunc("POST /api/queue/process", s.handleProcessPending)

	mux.HandleFunc("GET /api/history", s.handleHistory)
	mux.HandleFunc("GET /api/stats", s.handleStats)

	mux.HandleFunc("GET /api/presets", s.handlePresetsList)
	mux.HandleFunc("POST /api/presets", s.handlePresetsCreate)
	mux.HandleFunc("DELETE /api/presets/{id}", s.handlePresetsDelete)

	mux.HandleFunc("GET /api/settings", s.handleSettingsGet)
	mux.HandleFunc("PUT /api/settings", s.handleSettingsPut)

	return mux
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Debug("Could not encode response body")
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]errorBody{"error": {Code: code, Message: message}})
}

type downloadRequest struct {
	URL     string        `json:"url"`
	Format  models.Format `json:"format"`
	Quality string        `json:"quality"`
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	var req downloadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, string(ytdlp.CodeInvalidURL), "invalid request body")
		return
	}
	if req.URL == "" {
		writeError(w, http.StatusBadRequest, string(ytdlp.CodeInvalidURL), "URL is required")
		return
	}
	if cls := validator.Classify(req.URL); cls.Kind == validator.KindInvalid {
		writeError(w, http.StatusBadRequest, string(ytdlp.CodeInvalidURL), cls.Reason)
		return
	}

	id, err := s.manager.DownloadSingle(r.Context(), req.URL, req.Format, req.Quality)
	if err != nil {
		writeError(w, http.StatusInternalServerError, string(ytdlp.CodeUnknown), err.Error())
		return
	}
	item, ok := s.store.Item(id)
	if !ok {
		writeError(w, http.StatusInternalServerError, string(ytdlp.CodeUnknown), "download record disappeared")
		return
	}
	if item.Status == models.StatusError {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"success": false, "item": item})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "item": item})
}

type batchRequest struct {
	URLs    []string      `json:"urls"`
	Format  models.Format `json:"format"`
	Quality string        `json:"quality"`
}

type batchResponse struct {
	Processed  int                   `json:"processed"`
	Successful int                   `json:"successful"`
	Failed     int                   `json:"failed"`
	Results    []models.DownloadItem `json:"results"`
}

func (s *Server) handleBatchDownload(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, string(ytdlp.CodeInvalidURL), "invalid request body")
		return
	}

	ids, err := s.manager.DownloadBatch(r.Context(), req.URLs, req.Format, req.Quality)
	if err != nil {
		if errors.Is(err, manager.ErrNoURLs) || errors.Is(err, manager.ErrBatchTooLarge) {
			writeError(w, http.StatusBadRequest, string(ytdlp.CodeInvalidURL), err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, string(ytdlp.CodeUnknown), err.Error())
		return
	}

	resp := batchResponse{Processed: len(ids)}
	for _, id := range ids {
		item, ok := s.store.Item(id)
		if !ok {
			continue
		}
		resp.Results = append(resp.Results, item)
		if item.Status == models.StatusError {
			resp.Failed++
		} else {
			resp.Successful++
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

type progressResponse struct {
	ID       string        `json:"id"`
	Status   models.Status `json:"status"`
	Progress int           `json:"progress"`
	Error    string        `json:"error,omitempty"`
	Filename string        `json:"filename,omitempty"`
}

// handleProgress reports job progress. Terminal outcomes stay visible for a
// grace window, then polling returns 404 and the tracking entry is dropped.
func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	item, ok := s.store.Item(id)
	if !ok {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "no such download")
		return
	}

	if item.Status.IsTerminal() && s.expireTerminal(id) {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "progress entry expired")
		return
	}

	writeJSON(w, http.StatusOK, progressResponse{
		ID:       item.ID,
		Status:   item.Status,
		Progress: item.Progress,
		Error:    item.Error,
		Filename: item.Filename,
	})
}

// expireTerminal records when a job was first seen terminal and reports
// whether its grace window has elapsed. Stale entries are swept on the way.
func (s *Server) expireTerminal(id string) bool {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, seen := range s.terminal {
		if k != id && now.Sub(seen) > progressExpiry {
			delete(s.terminal, k)
		}
	}
	seen, ok := s.terminal[id]
	if !ok {
		s.terminal[id] = now
		return false
	}
	if now.Sub(seen) > progressExpiry {
		delete(s.terminal, id)
		return true
	}
	return false
}

type progressUpdateRequest struct {
	Progress int `json:"progress"`
}

func (s *Server) handleProgressUpdate(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var req progressUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request body")
		return
	}
	if _, ok := s.store.Item(id); !ok {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "no such download")
		return
	}
	s.store.UpdateProgress(id, req.Progress)
	item, _ := s.store.Item(id)
	writeJSON(w, http.StatusOK, progressResponse{
		ID:       item.ID,
		Status:   item.Status,
		Progress: item.Progress,
	})
}

// handleServeFile streams a materialized download as an attachment. The
// filename is a bare name inside the output directory; anything resembling a
// path is rejected before touching the filesystem.
func (s *Server) handleServeFile(w http.ResponseWriter, r *http.Request) {
	filename := r.PathValue("filename")
	if filename == "" || ytdlp.ContainsTraversal(filename) {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid filename")
		return
	}

	path := filepath.Join(s.outputDir, filename)
	f, err := os.Open(path)
	if err != nil {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "file not found")
		return
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil || fi.IsDir() {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "file not found")
		return
	}

	contentType := "application/octet-stream"
	switch filepath.Ext(filename) {
	case ".mp4":
		contentType = "video/mp4"
	case ".mp3":
		contentType = "audio/mpeg"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", fmt.Sprintf("%d", fi.Size()))
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", ytdlp.SafeAttachmentName(filename)))
	if _, err := io.Copy(w, f); err != nil {
		log.WithError(err).Debugf("Streaming %s aborted", filename)
	}
}

func (s *Server) handleQueue(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"queue": s.store.Queue()})
}

func (s *Server) handleQueueRemove(w http.ResponseWriter, r *http.Request) {
	s.store.RemoveFromQueue(r.PathValue("id"))
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleQueueRetry(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	item, ok := s.store.Item(id)
	if !ok {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "no such download")
		return
	}
	if item.Status != models.StatusError {
		writeError(w, http.StatusConflict, "BAD_STATE", "only failed downloads can be retried")
		return
	}
	s.store.Retry(id)
	item, _ = s.store.Item(id)
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "item": item})
}

func (s *Server) handleClearCompleted(w http.ResponseWriter, r *http.Request) {
	s.store.ClearCompleted()
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleClearAll(w http.ResponseWriter, r *http.Request) {
	s.store.ClearAll()
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// handleProcessPending kicks off pending-queue processing in the background;
// clients follow along via the queue and progress endpoints. Processing is
// detached from the request lifetime so a disconnecting client does not kill
// in-flight downloads.
func (s *Server) handleProcessPending(w http.ResponseWriter, r *http.Request) {
	go s.manager.ProcessPending(context.WithoutCancel(r.Context()))
	writeJSON(w, http.StatusAccepted, map[string]bool{"started": true})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"history": s.store.History()})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Stats())
}

func (s *Server) handlePresetsList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"presets": s.store.Presets()})
}

type presetRequest struct {
	Name         string        `json:"name"`
	Format       models.Format `json:"format"`
	Quality      string        `json:"quality"`
	AutoDownload bool          `json:"auto_download"`
}

func (s *Server) handlePresetsCreate(w http.ResponseWriter, r *http.Request) {
	var req presetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "preset name is required")
		return
	}
	if !req.Format.Valid() {
		req.Format = models.FormatVideo
	}
	preset := s.store.SavePreset(req.Name, req.Format, req.Quality, req.AutoDownload)
	writeJSON(w, http.StatusCreated, preset)
}

func (s *Server) handlePresetsDelete(w http.ResponseWriter, r *http.Request) {
	if !s.store.DeletePreset(r.PathValue("id")) {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "no such preset")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleSettingsGet(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Settings())
}

type settingsRequest struct {
	AutoDownload       *bool `json:"auto_download"`
	BandwidthLimitKBps *int  `json:"bandwidth_limit_kbps"`
	AutoRefresh        *bool `json:"auto_refresh"`
}

func (s *Server) handleSettingsPut(w http.ResponseWriter, r *http.Request) {
	var req settingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request body")
		return
	}
	if req.AutoDownload != nil {
		s.store.SetAutoDownload(*req.AutoDownload)
	}
	if req.BandwidthLimitKBps != nil {
		s.store.SetBandwidthLimit(*req.BandwidthLimitKBps)
	}
	if req.AutoRefresh != nil {
		s.store.SetAutoRefresh(*req.AutoRefresh)
	}
	writeJSON(w, http.StatusOK, s.store.Settings())
}
