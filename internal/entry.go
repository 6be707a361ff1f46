// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/starford/cardsmith/internal/ankiconnect"
	"github.com/starford/cardsmith/internal/assemble"
	"github.com/starford/cardsmith/internal/mcpserver"
	"github.com/starford/cardsmith/internal/media"
	"github.com/starford/cardsmith/internal/storage"
	"github.com/starford/cardsmith/internal/watch"
)

// DeckInfo describes one deck source and the remote deck it fills.
type DeckInfo struct {
	ID     string
	Source string
	Deck   string
}

// Run performs one assembly pass with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return app.withMediaServer(ctx, func(ctx context.Context) error {
		_, err := app.pipeline.Run(ctx, app.exportPath)
		return err
	})
}

// Watch performs an assembly pass, then repeats it whenever deck sources
// or card assets change, until interrupted.
func Watch(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runOnce := func(ctx context.Context) {
		if _, err := app.pipeline.Run(ctx, app.exportPath); err != nil {
			app.logger.Warn("Assembly pass failed, waiting for changes", slog.String("error", err.Error()))
		}
	}

	return app.withMediaServer(ctx, func(ctx context.Context) error {
		runOnce(ctx)
		dirs := []string{app.config.App.DecksDir(), app.config.App.CardDir()}
		return watch.Watch(ctx, dirs, watch.DefaultDebounce, app.logger, func(ctx context.Context, _ []string) {
			runOnce(ctx)
		})
	})
}

// ServeMCP serves the deck tools over stdio. Logs go to stderr unless
// another output was configured, since stdout carries the protocol.
func ServeMCP(ctx context.Context, opts ...Option) error {
	app, err := newApplication(append([]Option{WithLogOutput(os.Stderr)}, opts...))
	if err != nil {
		return err
	}

	srv := mcpserver.New(app.pipeline, app.config.Deck, app.exportPath)
	return app.withMediaServer(ctx, func(context.Context) error {
		app.logger.Info("MCP server starting on stdio")
		return srv.ServeStdio()
	})
}

// ListDecks returns the deck sources under the configured base directory.
// It does not contact the application.
func ListDecks(opts ...Option) ([]DeckInfo, error) {
	app, err := newApplication(opts)
	if err != nil {
		return nil, err
	}
	sources, err := app.pipeline.ListDecks()
	if err != nil {
		return nil, err
	}
	out := make([]DeckInfo, 0, len(sources))
	for _, src := range sources {
		id := storage.DeckID(src)
		out = append(out, DeckInfo{ID: id, Source: src, Deck: app.config.Deck.QualifiedDeckName(id)})
	}
	return out, nil
}

type assembly struct {
	application
	logger   *slog.Logger
	pipeline *assemble.Pipeline
}

func newApplication(opts []Option) (*assembly, error) {
	app := application{
		host:       DefaultAnkiHost,
		exportPath: DefaultExportPath,
		logOutput:  os.Stdout,
	}

	for _, opt := range opts {
		opt(&app)
	}

	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}

	cfg := app.config

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(app.logOutput, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("anki_host", app.host),
		slog.String("export_path", app.exportPath),
		slog.String("base_path", cfg.App.BasePath),
		slog.String("master_deck", cfg.Deck.MasterDeckName),
		slog.Bool("url_check", cfg.Deck.URLCheck.Enabled),
		slog.Bool("webserver", cfg.MediaServer.Enabled),
		slog.String("log_level", cfg.App.LogLevel.String()))

	store, err := storage.NewFS(cfg.App.BasePath)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	client := ankiconnect.New(app.host)
	prober := media.NewProber(cfg.Deck.URLCheck.TimeoutDuration())

	pipeline := assemble.New(client, store, cfg.Deck, prober,
		assemble.WithStrict(app.strict),
		assemble.WithLogger(logger))

	return &assembly{application: app, logger: logger, pipeline: pipeline}, nil
}

// withMediaServer runs fn, with the media server listening for its whole
// duration when it is enabled. The listener is bound before fn starts.
func (r *assembly) withMediaServer(ctx context.Context, fn func(context.Context) error) error {
	if !r.config.MediaServer.Enabled {
		return fn(ctx)
	}

	srv := media.NewServer(r.config.App.AssetsDir(), r.config.MediaServer.Address(), r.logger)
	if err := srv.Listen(); err != nil {
		return fmt.Errorf("media server: %w", err)
	}
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(srv.Serve)

	g.Go(func() error {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				r.logger.Error("Media server shutdown error", slog.String("error", err.Error()))
			}
		}()
		return fn(gCtx)
	})

	return g.Wait()
}
