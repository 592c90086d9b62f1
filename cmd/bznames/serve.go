package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/CTAG07/bznames/pkg/ngram"
	"github.com/spf13/cobra"
)

// newServer builds the HTTP server for the name API.
func newServer(app *App) *http.Server {
	api := NewNameAPI(app.Store, NewMetrics(), app.Logger, app.Config.Server.MaxSampleCount,
		ngram.WithMaxSampleLength(app.Config.Model.MaxSampleLength),
		ngram.WithLogger(app.Logger),
	)
	mux := http.NewServeMux()
	api.RegisterRoutes(mux)

	return &http.Server{
		Addr:              app.Config.Server.ApiAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long:  `Serves stored models over a JSON API for scoring and generating names, with Prometheus metrics on /metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			app.Config.Server.ApiAddr = addr
		}
		srv := newServer(app)

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)
		go func() {
			app.Logger.Info("Starting api server", "address", srv.Addr)
			serverErrors <- srv.ListenAndServe()
		}()

		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-serverErrors:
			if !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil

		case sig := <-shutdown:
			app.Logger.Info("Stopping api server", "signal", sig.String())

			timeout := time.Duration(app.Config.Server.ShutdownTimeout) * time.Second
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				app.Logger.Error("Graceful shutdown did not complete", "timeout", timeout, "error", err)
				if err := srv.Close(); err != nil {
					app.Logger.Error("Error killing server", "error", err)
				}
			}
			app.Logger.Info("Api server stopped")
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "Address to listen on (default from config)")
}
