// Package ytdlp drives the external yt-dlp binary as a black-box
// subprocess: a metadata probe, a fetch-and-materialize step, and a flat
// playlist listing. Every operation returns either a payload or a typed
// *Error; raw exec errors never cross this boundary.
package ytdlp

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/zeebo/blake3"

	"github.com/jishanahmed-shaikh/yt-downloader-jars/internal/models"
)

// Defaults for the subprocess boundary.
const (
	DefaultMaxDuration  = 3600 // seconds of content
	DefaultProbeTimeout = 30 * time.Second
	DefaultFetchTimeout = 5 * time.Minute
)

// Client invokes yt-dlp. A bundled binary under BinDir is preferred over a
// system-installed one.
type Client struct {
	BinDir       string
	OutputDir    string
	MaxDuration  int // seconds; 0 means DefaultMaxDuration
	ProbeTimeout time.Duration
	FetchTimeout time.Duration
}

// FetchOptions carries per-invocation tuning for Fetch.
type FetchOptions struct {
	LimitRateKBps int // 0 = unlimited
}

// New returns a Client with the given directories and default timeouts.
func New(binDir, outputDir string) *Client {
	return &Client{
		BinDir:       binDir,
		OutputDir:    outputDir,
		MaxDuration:  DefaultMaxDuration,
		ProbeTimeout: DefaultProbeTimeout,
		FetchTimeout: DefaultFetchTimeout,
	}
}

func (c *Client) maxDuration() int {
	if c.MaxDuration > 0 {
		return c.MaxDuration
	}
	return DefaultMaxDuration
}

func (c *Client) probeTimeout() time.Duration {
	if c.ProbeTimeout > 0 {
		return c.ProbeTimeout
	}
	return DefaultProbeTimeout
}

func (c *Client) fetchTimeout() time.Duration {
	if c.FetchTimeout > 0 {
		return c.FetchTimeout
	}
	return DefaultFetchTimeout
}

func exeSuffix() string {
	if runtime.GOOS == "windows" {
		return ".exe"
	}
	return ""
}

// binaryPath resolves the yt-dlp binary, preferring a bundled copy.
func (c *Client) binaryPath() (string, error) {
	if c.BinDir != "" {
		local := filepath.Join(c.BinDir, "yt-dlp"+exeSuffix())
		if _, err := os.Stat(local); err == nil {
			return local, nil
		}
		if noExt := filepath.Join(c.BinDir, "yt-dlp"); noExt != local {
			if _, err := os.Stat(noExt); err == nil {
				return noExt, nil
			}
		}
	}
	return exec.LookPath("yt-dlp")
}

// ffmpegLocation returns BinDir when a bundled ffmpeg lives there, else "".
func (c *Client) ffmpegLocation() string {
	if c.BinDir == "" {
		return ""
	}
	if _, err := os.Stat(filepath.Join(c.BinDir, "ffmpeg"+exeSuffix())); err == nil {
		return c.BinDir
	}
	return ""
}

// CheckTool verifies the tool binary is resolvable and runnable. Its
// absence is a distinct failure, never conflated with a download failure.
func (c *Client) CheckTool(ctx context.Context) (string, *Error) {
	bin, err := c.binaryPath()
	if err != nil {
		return "", NewError(CodeToolNotInstalled, "yt-dlp is not installed on the server", err.Error())
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := exec.CommandContext(ctx, bin, "--version").Run(); err != nil {
		return "", NewError(CodeToolNotInstalled, "yt-dlp is not installed on the server", err.Error())
	}
	return bin, nil
}

// run executes the tool with the given timeout, returning stdout and stderr.
func run(ctx context.Context, timeout time.Duration, bin string, args ...string) (string, string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	cmd := exec.CommandContext(ctx, bin, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	if ctxErr := ctx.Err(); errors.Is(ctxErr, context.DeadlineExceeded) {
		err = ctxErr
	}
	return stdout.String(), stderr.String(), err
}

// ytdlpInfo mirrors the JSON metadata document emitted by --dump-json.
type ytdlpInfo struct {
	ID        string  `json:"id"`
	Title     string  `json:"title"`
	Duration  float64 `json:"duration"`
	Thumbnail string  `json:"thumbnail"`
}

// Probe invokes the tool in metadata-only mode and enforces the maximum
// duration policy before any transfer can start.
func (c *Client) Probe(ctx context.Context, url string) (*models.VideoMetadata, *Error) {
	bin, terr := c.CheckTool(ctx)
	if terr != nil {
		return nil, terr
	}

	stdout, stderr, err := run(ctx, c.probeTimeout(), bin,
		"--dump-json", "--no-download", "--no-warnings", url)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, NewError(CodeProbeFailed, "Could not retrieve video information", "probe timed out")
		}
		if stderr != "" {
			return nil, ClassifyOutput(stderr)
		}
		return nil, NewError(CodeProbeFailed, "Could not retrieve video information", err.Error())
	}
	if stdout == "" {
		if stderr != "" {
			return nil, ClassifyOutput(stderr)
		}
		return nil, NewError(CodeProbeFailed, "Could not retrieve video information", "empty tool output")
	}

	var info ytdlpInfo
	if err := json.Unmarshal([]byte(stdout), &info); err != nil {
		return nil, NewError(CodeProbeFailed, "Could not retrieve video information", err.Error())
	}

	duration := int(info.Duration)
	if max := c.maxDuration(); duration > max {
		msg := fmt.Sprintf("Video is too long (%d minutes). Maximum allowed is %d minutes.",
			int(math.Round(info.Duration/60)), max/60)
		return nil, NewError(CodeDownloadFailed, msg, "")
	}

	return &models.VideoMetadata{
		VideoID:   info.ID,
		Title:     info.Title,
		Duration:  duration,
		Thumbnail: info.Thumbnail,
	}, nil
}

// videoFormatChain builds the -f selector for a video fetch: best available
// video+audio merged into MP4, degrading to best-effort combinations. A
// numeric quality token bounds the stream height.
func videoFormatChain(quality string) string {
	q := strings.TrimSuffix(strings.TrimSpace(quality), "p")
	switch q {
	case "", "best":
		return "bestvideo[ext=mp4]+bestaudio[ext=m4a]/bestvideo+bestaudio/best"
	case "worst":
		return "worstvideo+worstaudio/worst"
	}
	for _, r := range q {
		if r < '0' || r > '9' {
			return "bestvideo[ext=mp4]+bestaudio[ext=m4a]/bestvideo+bestaudio/best"
		}
	}
	return fmt.Sprintf("bestvideo[height<=%s][ext=mp4]+bestaudio[ext=m4a]/bestvideo[height<=%s]+bestaudio/best[height<=%s]", q, q, q)
}

// Fetch is probe-then-materialize: the duration ceiling always applies
// before a transfer starts. On success exactly one file exists in the
// output directory; on failure no filename is ever returned.
func (c *Client) Fetch(ctx context.Context, url, videoID string, format models.Format, quality string, opts FetchOptions) (*models.FileResult, *Error) {
	bin, terr := c.CheckTool(ctx)
	if terr != nil {
		return nil, terr
	}

	meta, perr := c.Probe(ctx, url)
	if perr != nil {
		return nil, perr
	}

	audio := format == models.FormatAudio
	filename := BuildFilename(meta.Title, videoID, audio)
	target := filepath.Join(c.OutputDir, filename)

	args := []string{}
	if ffmpegDir := c.ffmpegLocation(); ffmpegDir != "" {
		args = append(args, "--ffmpeg-location", ffmpegDir)
	}
	if opts.LimitRateKBps > 0 {
		args = append(args, "--limit-rate", fmt.Sprintf("%dK", opts.LimitRateKBps))
	}
	if audio {
		// Audio-only extraction re-encoded to MP3 at best quality. The
		// output template lets the tool pick the intermediate extension.
		outTemplate := strings.Replace(target, ".mp3", ".%(ext)s", 1)
		args = append(args, "-x", "--audio-format", "mp3", "--audio-quality", "0", "-o", outTemplate)
	} else {
		args = append(args, "-f", videoFormatChain(quality), "--merge-output-format", "mp4", "-o", target)
	}
	args = append(args, "--no-warnings", url)

	log.WithFields(log.Fields{"url": url, "format": format, "target": target}).Debug("Invoking yt-dlp fetch")

	_, stderr, err := run(ctx, c.fetchTimeout(), bin, args...)
	if err != nil {
		c.removePartial(target)
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, NewError(CodeDownloadFailed, "Failed to download video", "download timed out")
		}
		if stderr != "" {
			return nil, ClassifyOutput(stderr)
		}
		return nil, NewError(CodeDownloadFailed, "Failed to download video", err.Error())
	}

	fi, err := os.Stat(target)
	if err != nil {
		return nil, NewError(CodeDownloadFailed, "Failed to download video", "output file missing after download")
	}

	checksum, err := hashFile(target)
	if err != nil {
		log.WithError(err).Warnf("Could not checksum %s", target)
	}

	return &models.FileResult{
		Title:     meta.Title,
		Duration:  meta.Duration,
		Filename:  filename,
		Filepath:  target,
		Size:      fi.Size(),
		VideoID:   videoID,
		Thumbnail: meta.Thumbnail,
		Checksum:  checksum,
	}, nil
}

// removePartial drops a half-written file so no returned record ever
// references it. Best effort.
func (c *Client) removePartial(target string) {
	if _, err := os.Stat(target); err == nil {
		if rmErr := os.Remove(target); rmErr != nil {
			log.WithError(rmErr).Debugf("Could not remove partial file %s", target)
		}
	}
}

// hashFile returns the blake3 hex digest of the file at path.
func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := blake3.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// ytdlpPlaylist mirrors the --flat-playlist --dump-single-json document.
type ytdlpPlaylist struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Entries []struct {
		ID         string  `json:"id"`
		Title      string  `json:"title"`
		URL        string  `json:"url"`
		Duration   float64 `json:"duration"`
		Thumbnails []struct {
			URL string `json:"url"`
		} `json:"thumbnails"`
	} `json:"entries"`
}

// Playlist lists a playlist without materializing anything.
func (c *Client) Playlist(ctx context.Context, url string) (*models.PlaylistInfo, *Error) {
	bin, terr := c.CheckTool(ctx)
	if terr != nil {
		return nil, terr
	}

	stdout, stderr, err := run(ctx, c.probeTimeout(), bin,
		"--flat-playlist", "--dump-single-json", "--no-warnings", url)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, NewError(CodeProbeFailed, "Could not retrieve playlist information", "playlist listing timed out")
		}
		if stderr != "" {
			return nil, ClassifyOutput(stderr)
		}
		return nil, NewError(CodeProbeFailed, "Could not retrieve playlist information", err.Error())
	}

	var pl ytdlpPlaylist
	if err := json.Unmarshal([]byte(stdout), &pl); err != nil {
		return nil, NewError(CodeProbeFailed, "Could not retrieve playlist information", err.Error())
	}

	info := &models.PlaylistInfo{
		ID:         pl.ID,
		Title:      pl.Title,
		VideoCount: len(pl.Entries),
	}
	for _, e := range pl.Entries {
		videoURL := e.URL
		if videoURL == "" {
			videoURL = "https://www.youtube.com/watch?v=" + e.ID
		}
		thumbnail := ""
		if len(e.Thumbnails) > 0 {
			thumbnail = e.Thumbnails[len(e.Thumbnails)-1].URL
		}
		info.Videos = append(info.Videos, models.PlaylistVideo{
			ID:        e.ID,
			Title:     e.Title,
			URL:       videoURL,
			Thumbnail: thumbnail,
			Duration:  int(e.Duration),
		})
	}
	return info, nil
}
