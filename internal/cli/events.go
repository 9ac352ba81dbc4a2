package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/dshills/acra/internal/events"
	"github.com/dshills/acra/internal/queue"
	"github.com/spf13/cobra"
)

var flagGroup string

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Inspect the review event stream",
}

var eventsTailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Print review events as they are published",
	Long: "Join a consumer group on the event stream and print one JSON line per event. " +
		"Members of the same group share the stream; use distinct groups to see every event.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.Queue.Address == "" {
			return fmt.Errorf("events tail needs the Redis address: set queue.address or REDIS_URL")
		}
		rdb, err := queue.NewClient(cfg.Queue.Address)
		if err != nil {
			return err
		}
		defer rdb.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		consumer := events.NewConsumer(rdb, cfg.Events.Stream, flagGroup, events.WithConsumerLogger(log))
		log.Info("tailing review events", "stream", cfg.Events.Stream, "group", flagGroup, "consumer", consumer.Name())

		if err := consumer.Run(ctx, printEvent(cmd.OutOrStdout())); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = ExitRuntimeError
		}
		return nil
	},
}

func printEvent(w io.Writer) func(context.Context, events.Event) error {
	enc := json.NewEncoder(w)
	return func(_ context.Context, ev events.Event) error {
		return enc.Encode(ev)
	}
}

func init() {
	eventsCmd.AddCommand(eventsTailCmd)
	eventsTailCmd.Flags().StringVar(&flagGroup, "group", "acra-tail", "Consumer group name")
}
