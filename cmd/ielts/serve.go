package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ieltsmaster/studyplan/internal/api"
	"github.com/ieltsmaster/studyplan/internal/chat"
	"github.com/ieltsmaster/studyplan/internal/config"
	"github.com/ieltsmaster/studyplan/internal/logging"
	"github.com/ieltsmaster/studyplan/internal/syncstore"
	"github.com/ieltsmaster/studyplan/internal/ui"
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	GroupID: "server",
	Short:   "Start the sync API server",
	Long: `Start the HTTP server the dashboard syncs with.

Routes:
  GET/POST /api/sync          load the state or save a partial update
  WS       /api/sync/events   state_saved notifications for open tabs
  POST     /api/gemini        AI tutor chat proxy (alias /api/chat)
  GET      /health            liveness

Expired state is purged every storage.purge_interval. When a config file is
in use, changes to cors.allow_origin apply without a restart. SIGHUP rotates
the log file.

Example usage:
  ielts serve                   # Start on the configured port (default 8080)
  ielts serve --port 9000       # Start on a custom port`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("port") {
			cfg.Server.Port, _ = cmd.Flags().GetInt("port")
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runServe(ctx, cfg, cmd.OutOrStdout())
	},
}

func init() {
	serveCmd.Flags().IntP("port", "p", 8080, "Port to listen on")
	rootCmd.AddCommand(serveCmd)
}

// runServe runs the server until ctx is cancelled. Status lines go to out.
func runServe(ctx context.Context, c *config.Config, out io.Writer) error {
	sink := logging.Open(c.Log, nil)
	defer sink.Close()
	logger := sink.Logger("[serve] ")

	kv, err := openKV(c)
	if err != nil {
		return err
	}
	defer kv.Close()

	hub := api.NewHub(sink.Logger("[events] "))
	opts := syncOptions(c)
	opts.OnSave = hub.NotifySaved
	syncer := syncstore.New(kv, opts, sink.Logger("[sync] "))

	var provider chat.Provider
	if p, err := chat.New(ctx, c.Chat.Provider, chat.FromConfig(c.Chat)); err != nil {
		logger.Printf("WARNING: chat proxy disabled: %v", err)
	} else {
		provider = p
		logger.Printf("Chat proxy using %s", p.Name())
	}

	srv := api.NewServer(&api.Config{
		Port:         c.Server.Port,
		ReadTimeout:  c.Server.ReadTimeout,
		WriteTimeout: c.Server.WriteTimeout,
		MaxBodyBytes: c.Server.MaxBodyBytes,
		AllowOrigin:  c.CORS.AllowOrigin,
		ChatTimeout:  c.Chat.Timeout,
		Logger:       sink.Logger("[api] "),
	}, syncer, provider, hub)

	if err := srv.Start(); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	fmt.Fprintf(out, "%s Sync server started on http://%s\n", ui.RenderAccent(ui.IconServer), srv.GetAddr())
	fmt.Fprintf(out, "Storage: %s (%s)\n", c.Storage.Driver, storageLocation(c))
	fmt.Fprintln(out, "\nPress Ctrl+C to stop...")

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		purgeLoop(gctx, syncer, c.Storage.PurgeInterval, logger)
		return nil
	})

	g.Go(func() error {
		rotateOnHangup(gctx, sink, logger)
		return nil
	})

	if c.File != "" {
		watcher, err := config.NewWatcher(c.File, func(next *config.Config) {
			srv.SetAllowOrigin(next.CORS.AllowOrigin)
		}, sink.Logger("[config] "))
		if err != nil {
			logger.Printf("WARNING: config watch disabled: %v", err)
		} else if err := watcher.Start(); err != nil {
			logger.Printf("WARNING: config watch disabled: %v", err)
			_ = watcher.Stop()
		} else {
			g.Go(func() error {
				<-gctx.Done()
				return watcher.Stop()
			})
		}
	}

	g.Go(func() error {
		<-gctx.Done()
		fmt.Fprintln(out, "\nShutting down sync server...")
		return srv.Stop()
	})

	if err := g.Wait(); err != nil {
		return err
	}
	fmt.Fprintln(out, "Sync server stopped")
	return nil
}

// purgeLoop removes expired state every interval until ctx is done.
func purgeLoop(ctx context.Context, s syncstore.Syncer, interval time.Duration, logger *log.Logger) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.PurgeExpired(ctx); err != nil {
				logger.Printf("WARNING: purge failed: %v", err)
			}
		}
	}
}

func rotateOnHangup(ctx context.Context, sink *logging.Sink, logger *log.Logger) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			if err := sink.Rotate(); err != nil {
				logger.Printf("WARNING: log rotation failed: %v", err)
			}
		}
	}
}

func storageLocation(c *config.Config) string {
	if c.Storage.Driver == config.DriverMemory {
		return "in-process, lost on exit"
	}
	return c.Storage.Path
}
