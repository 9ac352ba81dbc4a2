package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dshills/acra/internal/pipeline"
	"github.com/spf13/cobra"
)

var flagConcurrency int

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Consume review jobs from the queue",
	Long:  "Run a pool of queue consumers. Requires queue.address (or REDIS_URL).",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := loadConfig()
		if err != nil {
			return err
		}
		if flagConcurrency > 0 {
			cfg.Worker.Concurrency = flagConcurrency
		}
		if cfg.Queue.Address == "" {
			return fmt.Errorf("worker needs a queue: set queue.address or REDIS_URL")
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := buildApp(ctx, cfg, log)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = ExitRuntimeError
			return nil
		}
		defer a.Close()

		w := pipeline.NewWorker(a.queue, a.runner, cfg.Worker.Concurrency, pipeline.WithLogger(log))
		if err := w.Run(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = ExitRuntimeError
		}
		return nil
	},
}

var reprocessCmd = &cobra.Command{
	Use:   "reprocess",
	Short: "Review every pending submission once and print a summary",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := loadConfig()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := buildApp(ctx, cfg, log)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = ExitRuntimeError
			return nil
		}
		defer a.Close()

		summary, err := a.runner.ReprocessPending(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = ExitRuntimeError
			return nil
		}
		return writeSummary(cmd, summary)
	},
}

func writeSummary(cmd *cobra.Command, summary pipeline.Summary) error {
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}

func init() {
	workerCmd.Flags().IntVar(&flagConcurrency, "concurrency", 0, "Concurrent jobs (default from config, 4)")
}
