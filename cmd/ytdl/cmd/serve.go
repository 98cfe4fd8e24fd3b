package cmd

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jishanahmed-shaikh/yt-downloader-jars/internal/api"
)

var listenAddrFlag string

// serveCmd runs the HTTP API server.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP download API",
	Long: `Starts an HTTP server exposing the download queue, history, presets
and settings under /api, plus completed files under /api/serve.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVarP(&listenAddrFlag, "listen", "l", "", "Listen address (overrides config)")
	_ = viper.BindPFlag("listenaddr", serveCmd.Flags().Lookup("listen"))
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := newApp(true)
	if err != nil {
		return err
	}
	defer a.close()

	addr := viper.GetString("listenaddr")
	if addr == "" {
		addr = a.cfg.ListenAddr
	}

	server := &http.Server{
		Addr:              addr,
		Handler:           api.New(a.store, a.manager, a.cfg.SavePath).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Infof("Listening on %s, serving downloads from %s", addr, a.cfg.SavePath)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}
