package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lazypower/reprise/internal/server"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	db, dbPath, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	eng := newEngine(db)
	if cfg.Maintenance.Enabled {
		interval, err := cfg.MaintenanceInterval()
		if err != nil {
			return err
		}
		if err := eng.StartMaintenance(interval); err != nil {
			return fmt.Errorf("start maintenance: %w", err)
		}
		defer eng.Stop()
		fmt.Fprintf(os.Stderr, "  maintenance: every %s\n", interval)
	}

	srv := server.New(eng, VersionString(),
		server.WithLogger(logger),
		server.WithCORSOrigins(cfg.Server.CORSOrigins),
	)
	addr := cfg.ListenAddr()

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	errc := make(chan error, 1)
	go func() {
		fmt.Fprintf(os.Stderr, "reprise serving on %s\n", addr)
		fmt.Fprintf(os.Stderr, "  db: %s\n", dbPath)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errc <- err
		}
	}()

	select {
	case <-done:
	case err := <-errc:
		return fmt.Errorf("server error: %w", err)
	}
	fmt.Fprintln(os.Stderr, "\nshutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return httpServer.Shutdown(ctx)
}
