package serverrun

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	cfgpkg "github.com/rzbill/commlog/internal/config"
	"github.com/rzbill/commlog/internal/provider"
	"github.com/rzbill/commlog/internal/runtime"
	httpserver "github.com/rzbill/commlog/internal/server/http"
	pebblestore "github.com/rzbill/commlog/internal/storage/pebble"
	logpkg "github.com/rzbill/commlog/pkg/log"
	"golang.org/x/sync/errgroup"
)

func getenvDefault(key, def string) string {
	if v := func() string { return getenv(key) }(); v != "" {
		return v
	}
	return def
}

// small wrapper to allow testing; replaced by os.Getenv at build time
var getenv = func(key string) string { return os.Getenv(key) }

type Options struct {
	// HTTPAddr overrides Config.HTTPAddr when set.
	HTTPAddr string
	Fsync    pebblestore.FsyncMode
	Config   cfgpkg.Config
	// Client replaces the configured provider. Used by tests.
	Client provider.Client
}

// Run starts the HTTP server and blocks until ctx is cancelled.
func Run(ctx context.Context, opts Options) error {
	sctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Build process-wide logger using env/ApplyConfig; defaults: level=info, format=text
	cfg := &logpkg.Config{
		Level:  getenvDefault("COMMLOG_LOG_LEVEL", "info"),
		Format: getenvDefault("COMMLOG_LOG_FORMAT", "text"),
	}
	procLogger, err := logpkg.ApplyConfig(cfg)
	if err != nil {
		lvl := logpkg.InfoLevel
		if l, e := logpkg.ParseLevel(cfg.Level); e == nil {
			lvl = l
		}
		procLogger = logpkg.NewLogger(logpkg.WithLevel(lvl), logpkg.WithFormatter(&logpkg.TextFormatter{}))
	}

	// Redirect stdlib logs (e.g., Pebble) to our logger
	logpkg.RedirectStdLog(procLogger)

	addr := opts.HTTPAddr
	if addr == "" {
		addr = opts.Config.HTTPAddr
	}

	rt, err := runtime.Open(runtime.Options{
		Config: opts.Config,
		Fsync:  opts.Fsync,
		Logger: procLogger.With(logpkg.Component("runtime")),
		Client: opts.Client,
	})
	if err != nil {
		return err
	}
	defer rt.Close()

	procLogger.Info("Starting commlog server",
		logpkg.Str("http", addr),
		logpkg.Str("provider_mode", opts.Config.Provider.Mode),
		logpkg.Str("level", cfg.Level),
		logpkg.Str("format", cfg.Format),
		logpkg.Int("walk_page_size", opts.Config.Walk.PageSize),
		logpkg.Int("walk_max_records", opts.Config.Walk.MaxRecords),
	)

	hsrv := httpserver.New(rt, procLogger)

	g, gctx := errgroup.WithContext(sctx)
	g.Go(func() error {
		return hsrv.ListenAndServe(gctx, addr)
	})
	g.Go(func() error {
		// Misconfigured credentials are reported but do not stop the server;
		// /v1/healthz keeps answering 503 until they are fixed.
		if err := rt.CheckHealth(gctx); err != nil && gctx.Err() == nil {
			procLogger.Warn("provider not ready", logpkg.Err(err))
		}
		return nil
	})

	err = g.Wait()
	hsrv.Close()
	if err != nil && sctx.Err() == nil {
		return err
	}
	return nil
}
