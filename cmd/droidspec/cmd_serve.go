package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	_ "github.com/HerbHall/droidspec/api/swagger"
	"github.com/HerbHall/droidspec/internal/catalog"
	"github.com/HerbHall/droidspec/internal/config"
	"github.com/HerbHall/droidspec/internal/event"
	"github.com/HerbHall/droidspec/internal/server"
	"github.com/HerbHall/droidspec/internal/state"
	"github.com/HerbHall/droidspec/internal/store"
	"github.com/HerbHall/droidspec/internal/version"
	"github.com/HerbHall/droidspec/internal/ws"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx)
		},
	}
}

func runServe(ctx context.Context) error {
	// Configuration comes first so log level and format can be configured.
	viperCfg, err := server.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	cfg := config.New(viperCfg)

	logger, err := config.NewLogger(viperCfg)
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("droidspec server starting", zap.String("version", version.Short()))
	if f := viperCfg.ConfigFileUsed(); f != "" {
		logger.Info("configuration loaded",
			zap.String("component", "config"),
			zap.String("source", f),
		)
	} else {
		logger.Warn("no configuration file found, using defaults",
			zap.String("component", "config"),
		)
	}

	db, err := openDatabase(ctx, cfg.GetString("database.path"), logger)
	if err != nil {
		return err
	}
	defer db.Close()

	bus := event.NewBus(logger.Named("event"))

	states, err := state.NewStore(ctx, db, bus, logger.Named("state"))
	if err != nil {
		return fmt.Errorf("initialize state store: %w", err)
	}

	svc := catalog.NewService(bus, logger.Named("catalog"))
	loader := catalog.Loader{Path: cfg.GetString("catalog.path")}
	fetcher := catalog.NewFetcher(
		cfg.GetDuration("catalog.fetch_timeout"),
		cfg.GetInt("catalog.fetch_retries"),
		logger.Named("fetch"),
	)

	restored, err := loadInitialCatalog(ctx, svc, loader, states, logger)
	if err != nil {
		return err
	}

	// Subscribed only now so the startup load keeps the saved selection.
	itemsPerPage := cfg.GetInt("pagination.items_per_page")
	unfollow := states.Follow(bus, itemsPerPage)
	defer unfollow()

	srvCfg := server.ServerConfig(viperCfg)
	catalogHandler := catalog.NewHandler(svc, loader, fetcher, states, catalog.HandlerOptions{
		ItemsPerPage: itemsPerPage,
		PrettyExport: cfg.GetBool("export.pretty"),
		DefaultURL:   cfg.GetString("catalog.url"),
	}, logger.Named("catalog"))
	stateHandler := state.NewHandler(states, svc, logger.Named("state"))
	wsHandler := ws.NewHandler(bus, srvCfg.AllowedOrigins, logger.Named("ws"))

	ready := server.ReadinessChecker(func(ctx context.Context) error {
		if svc.Info().Generation == 0 {
			return errors.New("no catalog loaded")
		}
		return db.Ping(ctx)
	})
	srv := server.New(srvCfg.Addr(), logger, ready, srvCfg.Options(),
		catalogHandler, stateHandler, wsHandler)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.Start)
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutdown requested")
		wsHandler.Hub().CloseAll("server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if url := cfg.GetString("catalog.url"); url != "" && !restored {
		g.Go(func() error {
			fetchStartupCatalog(gctx, svc, fetcher, loader, url, logger)
			return nil
		})
	}
	if cfg.GetBool("catalog.watch") {
		if loader.Path == "" {
			logger.Warn("catalog.watch is set without catalog.path; watcher disabled")
		} else {
			w := catalog.NewWatcher(svc, loader, logger.Named("watch"))
			g.Go(func() error { return w.Run(gctx) })
		}
	}

	fmt.Fprintf(os.Stderr, "\n  droidspec %s is ready!\n  Open http://%s in your browser.\n\n",
		version.Short(), srvCfg.Addr())

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("droidspec server stopped")
	return nil
}

// openDatabase opens the state database, creating its directory, and
// refuses databases written by a newer release.
func openDatabase(ctx context.Context, path string, logger *zap.Logger) (*store.SQLiteStore, error) {
	if path == "" {
		path = "droidspec.db"
	}
	db, err := store.Open(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.CheckVersion(ctx, version.Short()); err != nil {
		db.Close()
		return nil, err
	}
	logger.Info("database initialized",
		zap.String("component", "database"),
		zap.String("path", path),
	)
	return db, nil
}

// loadInitialCatalog installs the default catalog and then any saved user
// catalog on top of it. It reports whether a user catalog was restored.
func loadInitialCatalog(ctx context.Context, svc *catalog.Service, loader catalog.Loader, states *state.Store, logger *zap.Logger) (bool, error) {
	info, err := catalog.Reload(ctx, svc, loader)
	if err != nil {
		if loader.Path == "" {
			return false, fmt.Errorf("load default catalog: %w", err)
		}
		logger.Error("catalog file unusable, falling back to bundled sample",
			zap.String("path", loader.Path), zap.Error(err))
		info, err = catalog.Reload(ctx, svc, catalog.Loader{})
		if err != nil {
			return false, fmt.Errorf("load bundled catalog: %w", err)
		}
	}
	logger.Info("catalog loaded",
		zap.String("source", string(info.Source)),
		zap.Int("devices", info.Count),
	)

	restored, err := states.Restore(ctx, svc)
	if err != nil {
		logger.Warn("saved user catalog could not be restored", zap.Error(err))
		return false, nil
	}
	if restored {
		info = svc.Info()
		logger.Info("restored saved user catalog",
			zap.String("source", string(info.Source)),
			zap.Int("devices", info.Count),
		)
	}
	return restored, nil
}

func fetchStartupCatalog(ctx context.Context, svc *catalog.Service, fetcher *catalog.Fetcher, loader catalog.Loader, url string, logger *zap.Logger) {
	info, err := catalog.FetchInto(ctx, svc, fetcher, loader, url)
	switch {
	case err == nil:
		logger.Info("remote catalog loaded", zap.String("url", url), zap.Int("devices", info.Count))
	case info.Fallback:
		logger.Warn("remote catalog unavailable, using default catalog",
			zap.String("url", url), zap.String("source", string(info.Source)), zap.Error(err))
	case ctx.Err() != nil:
	default:
		logger.Error("remote catalog rejected", zap.String("url", url), zap.Error(err))
	}
}

// loadViper returns the configuration for offline commands, falling back
// to defaults when the file cannot be read.
func loadViper() *viper.Viper {
	v, err := server.LoadConfig(configPath)
	if err != nil {
		v = viper.New()
		server.SetDefaults(v)
	}
	return v
}
