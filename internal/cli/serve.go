package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dshills/acra/internal/pipeline"
	"github.com/dshills/acra/internal/server"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

var (
	flagAddr    string
	flagWorkers int
)

const shutdownGrace = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the live review channel",
	Long: "Serve the submission API and the websocket live review channel. With --workers, " +
		"queue consumers run in the same process.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := loadConfig()
		if err != nil {
			return err
		}
		if flagAddr != "" {
			cfg.Server.Addr = flagAddr
		}
		if cmd.Flags().Changed("workers") {
			if flagWorkers < 0 {
				return fmt.Errorf("--workers must not be negative")
			}
			cfg.Server.Workers = flagWorkers
		}

		gin.SetMode(ginMode(cfg.Log.Level))

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := buildApp(ctx, cfg, log)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = ExitRuntimeError
			return nil
		}
		defer a.Close()

		api := server.NewAPI(a.store, a.dispatcher, a.runner,
			server.WithAPILogger(log),
			server.WithListLimit(cfg.Server.ListLimit),
			server.WithAllowedOrigins(cfg.Server.CORSOrigins))
		srv, err := server.New(cfg.Server, api, server.WithLogger(log))
		if err != nil {
			return err
		}
		if err := srv.Start(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = ExitRuntimeError
			return nil
		}

		workerDone := make(chan error, 1)
		switch {
		case cfg.Server.Workers > 0 && a.hasQueue():
			w := pipeline.NewWorker(a.queue, a.runner, cfg.Server.Workers, pipeline.WithLogger(log))
			go func() { workerDone <- w.Run(ctx) }()
		case cfg.Server.Workers > 0:
			log.Warn("in-process workers need a queue; submissions are reviewed inline")
			close(workerDone)
		default:
			close(workerDone)
		}

		<-ctx.Done()
		log.Info("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			log.Error("server shutdown", "error", err)
		}
		if err := <-workerDone; err != nil && !errors.Is(err, context.Canceled) {
			log.Error("worker stopped", "error", err)
		}
		return nil
	},
}

// ginMode keeps gin's route dump and warnings for debug logging only.
func ginMode(level string) string {
	if strings.EqualFold(strings.TrimSpace(level), "debug") {
		return gin.DebugMode
	}
	return gin.ReleaseMode
}

func init() {
	serveCmd.Flags().StringVar(&flagAddr, "addr", "", "Listen address (default from config, :8000)")
	serveCmd.Flags().IntVar(&flagWorkers, "workers", 0, "Queue consumers to run in this process")
}
