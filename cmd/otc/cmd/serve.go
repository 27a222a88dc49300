package cmd

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceCircuit/internal/config"
	"github.com/OpenTraceLab/OpenTraceCircuit/internal/events"
	"github.com/OpenTraceLab/OpenTraceCircuit/internal/server"
	"github.com/OpenTraceLab/OpenTraceCircuit/internal/store"
)

var (
	serveAddr        string
	serveDatabase    string
	serveNATS        string
	serveMaxSessions int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the circuit editing API",
	Long: `Run the HTTP API. Each session holds one circuit being edited.

With a database path the circuit library routes are enabled. With a NATS
URL every edit is published on circuit.<session>.<op>.

Flags override the config file, which is overridden by OTC_* variables.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address")
	serveCmd.Flags().StringVar(&serveDatabase, "db", "", "SQLite library path")
	serveCmd.Flags().StringVar(&serveNATS, "nats", "", "NATS server URL")
	serveCmd.Flags().IntVar(&serveMaxSessions, "max-sessions", 256, "maximum open sessions")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.ListenAddr = serveAddr
	}
	if serveDatabase != "" {
		cfg.DatabasePath = serveDatabase
	}
	if serveNATS != "" {
		cfg.NATSURL = serveNATS
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var lib *store.Store
	if cfg.DatabasePath != "" {
		if lib, err = store.Open(ctx, cfg.DatabasePath); err != nil {
			return err
		}
		defer lib.Close()
		log.Printf("Circuit library at %s", cfg.DatabasePath)
	}

	pub, err := events.Connect(cfg.NATSURL)
	if err != nil {
		return err
	}
	defer pub.Close()

	srv := server.New(server.Options{
		Config:      cfg,
		Store:       lib,
		Events:      pub,
		Logging:     verbose,
		MaxSessions: serveMaxSessions,
	})

	errc := make(chan error, 1)
	go func() { errc <- srv.Listen(cfg.ListenAddr) }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	log.Printf("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return nil
}
