package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceCircuit/internal/config"
	"github.com/OpenTraceLab/OpenTraceCircuit/internal/events"
)

var watchNATS string

var watchCmd = &cobra.Command{
	Use:   "watch [session]",
	Short: "Print editing events published by the server",
	Long: `Subscribe to the events "otc serve" publishes on NATS and print one
line per edit. Without a session id every session is watched.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().StringVar(&watchNATS, "nats", "", "NATS server URL (default: config)")
}

func runWatch(cmd *cobra.Command, args []string) error {
	url := watchNATS
	if url == "" {
		cfg, err := config.LoadConfig()
		if err != nil {
			return err
		}
		url = cfg.NATSURL
	}
	if url == "" {
		return fmt.Errorf("no NATS URL: use --nats or set nats_url")
	}

	nc, err := nats.Connect(url, nats.Name("otc-watch"))
	if err != nil {
		return fmt.Errorf("connecting to %s: %w", url, err)
	}
	defer nc.Drain()

	var session string
	if len(args) == 1 {
		session = args[0]
	}
	out := cmd.OutOrStdout()
	sub, err := events.Subscribe(nc, events.WatchSubject(session), func(_ context.Context, ev events.Event) {
		fmt.Fprintln(out, formatEvent(ev))
	})
	if err != nil {
		return err
	}
	defer sub.Unsubscribe()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
	return nil
}

func formatEvent(ev events.Event) string {
	line := fmt.Sprintf("%s %s %-6s", ev.At.UTC().Format(time.TimeOnly), ev.Session, ev.Op)
	if ev.Target != "" {
		line += " " + ev.Target
	}
	if ev.Data != nil {
		line += fmt.Sprintf(" %v", ev.Data)
	}
	return line
}
