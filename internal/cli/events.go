package cli

import (
	"encoding/json"
	"fmt"
	"os/signal"
	"sync"
	"syscall"

	"lsablog/internal/cache"
	"lsablog/internal/featureflags"
	"lsablog/internal/notifications"

	"github.com/spf13/cobra"
)

// NewEventsCommand creates the events command group.
func NewEventsCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Inspect realtime blog events",
	}
	cmd.AddCommand(newEventsTailCommand(opts))
	return cmd
}

func newEventsTailCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tail",
		Short: "Print events from Redis pub/sub as JSON lines until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.resolveConfig(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if cfg.RedisURL == "" {
				return fmt.Errorf("REDIS_URL is not set")
			}

			ctx, stop := signal.NotifyContext(commandContext(cmd), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			rdb, err := cache.NewClient(ctx, cfg.RedisURL)
			if err != nil {
				return err
			}
			defer rdb.Close()

			out := cmd.OutOrStdout()
			var mu sync.Mutex
			notifier := notifications.NewNotifier(rdb, featureflags.NewManager(cfg.FeatureFlags))
			err = notifier.Subscribe(ctx, func(channel string, e notifications.Event) {
				line, err := json.Marshal(struct {
					Channel string `json:"channel"`
					notifications.Event
				}{channel, e})
				if err != nil {
					return
				}
				mu.Lock()
				defer mu.Unlock()
				fmt.Fprintln(out, string(line))
			})
			if err != nil {
				return err
			}

			<-ctx.Done()
			return nil
		},
	}
}
