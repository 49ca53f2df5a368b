package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"netgraph/internal/handler"
	"netgraph/internal/hub"
	"netgraph/internal/loader"
	"netgraph/internal/metrics"
	"netgraph/internal/repository/sqlite"
	"netgraph/internal/service"
	"netgraph/internal/watcher"

	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
)

func serveCommand(rt *runtime) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve stored levels over HTTP and reload the levels directory on change",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "addr",
				Usage:   "HTTP listen address (overrides server.addr)",
				EnvVars: []string{"NETGRAPH_ADDR"},
			},
			&cli.BoolFlag{
				Name:  "no-watch",
				Usage: "Do not watch the levels directory",
			},
		},
		Action: func(c *cli.Context) error {
			if addr := c.String("addr"); addr != "" {
				rt.cfg.Server.Addr = addr
			}
			if c.Bool("no-watch") {
				rt.cfg.Watch.Enabled = false
			}

			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, rt, nil)
		},
	}
}

// serve runs the server until ctx is done. When ready is non-nil it receives
// the bound listener address once requests are accepted and, with watching
// enabled, the levels directory is watched. ready must be buffered.
func serve(ctx context.Context, rt *runtime, ready chan<- string) error {
	logger := rt.logger
	cfg := rt.cfg

	logger.Info().Str("version", version).Msg("Starting netgraph server")
	if rt.configPath != "" {
		logger.Info().Str("path", rt.configPath).Msg("Config loaded")
	}

	repo, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer repo.Close()
	logger.Info().Str("path", cfg.Database.Path).Msg("Database opened")

	reg := metrics.NewRegistry()
	eventBus := service.NewEventBus()
	sseHub := hub.New(logger, reg)

	eventChan := make(chan service.Event, 100)
	eventBus.Subscribe(eventChan)
	defer eventBus.Unsubscribe(eventChan)

	svc := service.NewLevelService(repo, eventBus, reg, logger, rt.parserOptions()...)

	if err := os.MkdirAll(cfg.LevelsDir, 0755); err != nil {
		return err
	}
	results, err := svc.LoadDir(ctx, cfg.LevelsDir)
	if err != nil {
		return err
	}
	for _, res := range results {
		if res.Err != nil {
			logger.Warn().Err(res.Err).Str("path", res.Path).Msg("Level not loaded")
		}
	}

	router := handler.NewRouter(handler.NewLevelHandler(svc, logger), sseHub, reg, logger)
	server := &http.Server{
		Handler:     router,
		ReadTimeout: 10 * time.Second,
		// no WriteTimeout: /events streams indefinitely
		IdleTimeout: 60 * time.Second,
	}

	ln, err := net.Listen("tcp", cfg.Server.Addr)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		sseHub.Run(ctx)
		return nil
	})
	g.Go(func() error {
		sseHub.Relay(ctx, eventChan)
		return nil
	})

	var watching <-chan struct{}
	if cfg.Watch.Enabled {
		w := watcher.New(cfg.LevelsDir, logger).
			WithDebounce(cfg.Watch.Debounce.Duration()).
			WithFilter(loader.IsDescriptor).
			WithMetrics(reg).
			OnChange(func(path string) {
				if _, err := svc.LoadFile(ctx, path); err != nil {
					logger.Warn().Err(err).Str("path", path).Msg("Reload failed")
				}
			}).
			OnRemove(func(path string) {
				if err := svc.DeleteFile(ctx, path); err != nil && !errors.Is(err, service.ErrLevelNotFound) {
					logger.Warn().Err(err).Str("path", path).Msg("Remove failed")
				}
			})
		watching = w.Ready()
		g.Go(func() error {
			if err := w.Watch(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	g.Go(func() error {
		logger.Info().Str("addr", ln.Addr().String()).Msg("Server listening")
		if ready != nil {
			go func() {
				if watching != nil {
					select {
					case <-watching:
					case <-ctx.Done():
						return
					}
				}
				ready <- ln.Addr().String()
			}()
		}
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		logger.Info().Msg("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info().Msg("Server stopped")
	return nil
}
