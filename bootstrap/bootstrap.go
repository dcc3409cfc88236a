// Package bootstrap wires all dependencies and starts the application.
// Configuration comes from a YAML file when one is given, otherwise from
// BRUSHKIT_* environment variables.
package bootstrap

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/artpar/brushkit/adapters/clock"
	apihttp "github.com/artpar/brushkit/adapters/http"
	"github.com/artpar/brushkit/adapters/idgen"
	"github.com/artpar/brushkit/adapters/metrics"
	"github.com/artpar/brushkit/adapters/sqlite"
	"github.com/artpar/brushkit/app"
	"github.com/artpar/brushkit/config"
	"github.com/artpar/brushkit/core/curvecache"
	"github.com/artpar/brushkit/core/events"
	"github.com/artpar/brushkit/domain/curve"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// App represents the running application.
type App struct {
	Logger     zerolog.Logger
	Config     *config.Holder
	DB         *sqlite.DB
	Cache      *curvecache.Cache
	Events     *events.Bus
	Brush      *app.BrushService
	Metrics    *metrics.Collector
	Registry   *prometheus.Registry
	HTTPServer *http.Server
}

// Options controls application initialization.
type Options struct {
	// ConfigPath is the YAML config file. Empty means environment only.
	ConfigPath string

	// Version is reported by /version.
	Version string

	// LogOutput receives log lines. Defaults to stdout.
	LogOutput io.Writer
}

// New creates and initializes the application.
func New(opts Options) (*App, error) {
	if opts.LogOutput == nil {
		opts.LogOutput = os.Stdout
	}

	holder, err := loadConfig(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	cfg := holder.Get()

	logger := setupLogger(cfg.Logging, opts.LogOutput)
	holder.SetLogger(logger)
	logger.Info().Str("config", opts.ConfigPath).Msg("initializing brushkit")

	a := &App{Logger: logger, Config: holder}

	if err := a.initDatabase(cfg.Database); err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}

	if cfg.Metrics.Enabled {
		a.Registry = prometheus.NewRegistry()
		a.Registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		a.Metrics = metrics.NewWithRegistry(a.Registry)
		logger.Info().Msg("prometheus metrics enabled")
	}

	if err := a.initService(cfg); err != nil {
		a.DB.Close()
		return nil, fmt.Errorf("init service: %w", err)
	}

	a.watchConfig()
	a.initHTTPServer(cfg, opts.Version)

	return a, nil
}

func loadConfig(path string) (*config.Holder, error) {
	if path == "" {
		cfg, err := config.LoadFromEnv()
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		return config.NewStaticHolder(cfg, zerolog.Nop()), nil
	}
	return config.NewHolder(path, zerolog.Nop())
}

func (a *App) initDatabase(cfg config.DatabaseConfig) error {
	db, err := sqlite.Open(cfg.DSN)
	if err != nil {
		return err
	}

	if err := db.Migrate(); err != nil {
		db.Close()
		return fmt.Errorf("migrate: %w", err)
	}

	a.DB = db
	a.Logger.Info().Str("dsn", cfg.DSN).Msg("database connected")
	return nil
}

func (a *App) initService(cfg *config.Config) error {
	cacheCfg := curvecache.Config{Logger: a.Logger.With().Str("component", "curvecache").Logger()}
	if a.Metrics != nil {
		cacheCfg.Observer = a.Metrics
	}
	a.Cache = curvecache.New(cacheCfg)

	if cfg.Cache.Preload {
		// Preset curves are pinned, so releasing the warm-up references
		// leaves them cached.
		for _, p := range curve.Presets() {
			a.Cache.Release(a.Cache.Preset(p))
		}
		a.Logger.Info().Int("curves", a.Cache.Len()).Msg("curve presets preloaded")
	}

	a.Events = events.NewBus(a.Logger.With().Str("component", "events").Logger())
	a.Events.Subscribe("preset.*", func(ctx context.Context, e events.Event) error {
		a.Logger.Info().
			Str("event", e.Name).
			Str("preset_id", e.PresetID).
			Str("tool", e.Tool).
			Msg("preset changed")
		return nil
	})

	deps := app.BrushDeps{
		Presets: sqlite.NewPresetStore(a.DB),
		Cache:   a.Cache,
		IDGen:   idgen.NewUUID(),
		Clock:   clock.Real{},
		Events:  a.Events,
		Logger:  a.Logger,
	}
	if a.Metrics != nil {
		deps.Metrics = a.Metrics
	}
	a.Brush = app.NewBrushService(deps)

	return a.Brush.ApplyToolConfig(cfg.Tool.Overrides)
}

// watchConfig registers the hot-reload hooks. Only tool overrides and the
// log level take effect without a restart.
func (a *App) watchConfig() {
	a.Config.OnChange(func(old, new *config.Config) {
		if err := a.Brush.ApplyToolConfig(new.Tool.Overrides); err != nil {
			a.Logger.Error().Err(err).Msg("tool overrides rejected, keeping previous values")
		}
		if old.Logging.Level != new.Logging.Level {
			if level, err := zerolog.ParseLevel(new.Logging.Level); err == nil {
				zerolog.SetGlobalLevel(level)
			}
		}
		if a.Metrics != nil {
			a.Metrics.ConfigReloads.Inc()
			a.Metrics.ConfigLastReload.SetToCurrentTime()
		}
	})
	a.Config.OnError(func(err error) {
		if a.Metrics != nil {
			a.Metrics.ConfigReloadErrors.Inc()
		}
	})
}

func (a *App) initHTTPServer(cfg *config.Config, version string) {
	routerCfg := apihttp.RouterConfig{
		MetricsPath:    cfg.Metrics.Path,
		RequestTimeout: cfg.Server.RequestTimeout,
		Version:        version,
	}
	if a.Metrics != nil {
		routerCfg.Metrics = a.Metrics
		routerCfg.MetricsHandler = promhttp.HandlerFor(a.Registry, promhttp.HandlerOpts{})
	}

	router := apihttp.NewRouter(a.Brush, a.Logger, routerCfg)

	a.HTTPServer = &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
}

// Run starts the HTTP server and blocks until shutdown.
func (a *App) Run() error {
	if a.Config.Path() != "" {
		if err := a.Config.WatchFile(); err != nil {
			a.Logger.Warn().Err(err).Msg("config file watch disabled")
		}
		a.Config.WatchSignals()
	}

	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info().
			Str("addr", a.HTTPServer.Addr).
			Msg("starting http server")
		if err := a.HTTPServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		a.Shutdown()
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		a.Logger.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	return a.Shutdown()
}

// Shutdown gracefully stops the application.
func (a *App) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	a.Config.Stop()

	if a.HTTPServer != nil {
		if err := a.HTTPServer.Shutdown(ctx); err != nil {
			a.Logger.Error().Err(err).Msg("http server shutdown error")
		}
	}

	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			a.Logger.Error().Err(err).Msg("database close error")
		}
	}

	a.Logger.Info().Msg("shutdown complete")
	return nil
}

func setupLogger(cfg config.LoggingConfig, out io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Format == "console" {
		output := zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
		return zerolog.New(output).With().Timestamp().Logger()
	}

	return zerolog.New(out).With().Timestamp().Logger()
}
