package runtime

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/rzbill/commlog/internal/commlog"
	cfgpkg "github.com/rzbill/commlog/internal/config"
	"github.com/rzbill/commlog/internal/localstore"
	"github.com/rzbill/commlog/internal/metrics"
	"github.com/rzbill/commlog/internal/provider"
	"github.com/rzbill/commlog/internal/provider/twilio"
	"github.com/rzbill/commlog/internal/provider/vapi"
	pebblestore "github.com/rzbill/commlog/internal/storage/pebble"
	"github.com/rzbill/commlog/internal/walker"
	logpkg "github.com/rzbill/commlog/pkg/log"
)

// Options for building the Runtime.
type Options struct {
	Config cfgpkg.Config
	Fsync  pebblestore.FsyncMode
	Logger logpkg.Logger
	// Metrics is optional; nil creates a fresh registry.
	Metrics *metrics.Metrics
	// Client overrides the provider selected by Config.Provider.Mode.
	Client provider.Client
	// HTTPClient is used by remote provider clients. Optional.
	HTTPClient *http.Client
}

// Runtime wires config, provider clients, the sandbox store and the walker
// for a single process.
type Runtime struct {
	config  cfgpkg.Config
	logger  logpkg.Logger
	metrics *metrics.Metrics
	db      *pebblestore.DB
	store   *localstore.Store
	client  provider.Client
	remote  bool
	walker  *walker.Walker
}

// Open validates the config and builds the provider for its mode. Sandbox
// mode opens the Pebble store under Config.SandboxDir.
func Open(opts Options) (*Runtime, error) {
	cfg := opts.Config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = logpkg.NewLogger()
	}
	m := opts.Metrics
	if m == nil {
		m = metrics.New()
	}
	rt := &Runtime{config: cfg, logger: logger, metrics: m}

	switch {
	case opts.Client != nil:
		rt.client = opts.Client
	case cfg.Provider.Mode == cfgpkg.ProviderModeSandbox:
		if err := rt.openStore(opts.Fsync, false); err != nil {
			return nil, err
		}
		rt.client = rt.store
	default:
		rt.client = remoteClient(cfg.Provider, opts.HTTPClient)
		rt.remote = true
	}

	rt.walker = walker.New(walker.Config{
		PageSize:     cfg.Walk.PageSize,
		MaxRecords:   cfg.Walk.MaxRecords,
		MaxPages:     cfg.Walk.MaxPages,
		RetryBackoff: cfg.Walk.RetryBackoff.D(),
		FetchTimeout: cfg.Provider.FetchTimeout.D(),
	},
		walker.WithLogger(logger.With(logpkg.Component("walker"))),
		walker.WithObserver(m),
	)
	logger.Info("runtime ready", logpkg.Str("provider_mode", cfg.Provider.Mode))
	return rt, nil
}

// OpenStore opens only the sandbox store, for import and inspection tools.
func OpenStore(cfg cfgpkg.Config, logger logpkg.Logger, readOnly bool) (*Runtime, error) {
	if logger == nil {
		logger = logpkg.NewLogger()
	}
	rt := &Runtime{config: cfg, logger: logger, metrics: metrics.New()}
	if err := rt.openStore(pebblestore.FsyncModeAlways, readOnly); err != nil {
		return nil, err
	}
	rt.client = rt.store
	return rt, nil
}

func (r *Runtime) openStore(fsync pebblestore.FsyncMode, readOnly bool) error {
	dir := r.config.SandboxDir()
	db, err := pebblestore.Open(pebblestore.Options{DataDir: dir, Fsync: fsync, ReadOnly: readOnly, Metrics: r.metrics})
	if err != nil {
		return fmt.Errorf("open sandbox store %s: %w", dir, err)
	}
	store, err := localstore.New(db, r.logger.With(logpkg.Component("localstore")))
	if err != nil {
		_ = db.Close()
		return err
	}
	r.db, r.store = db, store
	return nil
}

func remoteClient(pc cfgpkg.ProviderConfig, hc *http.Client) provider.Client {
	httpOpts := func(base string) provider.HTTPOptions {
		return provider.HTTPOptions{BaseURL: base, HTTPClient: hc, RequestsPerSecond: pc.RequestsPerSecond, Burst: pc.Burst}
	}
	return provider.Pair{
		Calls:    vapi.New(vapi.Options{HTTPOptions: httpOpts(pc.VAPIBaseURL), APIKey: pc.VAPIKey}),
		Messages: twilio.New(twilio.Options{HTTPOptions: httpOpts(pc.TwilioBaseURL), AccountSID: pc.TwilioAccountSID, AuthToken: pc.TwilioAuthToken}),
	}
}

// Close releases the sandbox store when open.
func (r *Runtime) Close() error {
	if r.store != nil {
		_ = r.store.Close()
	}
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}

// CheckHealth verifies the configured provider can be used.
func (r *Runtime) CheckHealth(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if r.client == nil {
		return errors.New("provider not configured")
	}
	if r.db != nil {
		it, err := r.db.NewIter(nil)
		if err != nil {
			return err
		}
		return it.Close()
	}
	if r.remote {
		pc := r.config.Provider
		if pc.VAPIKey == "" && pc.TwilioAccountSID == "" {
			return errors.New("no provider credentials configured")
		}
	}
	return nil
}

// Source builds a walker source for kind over the configured provider.
func (r *Runtime) Source(kind commlog.Kind, f commlog.Filters) (walker.Source, error) {
	return walker.NewSource(kind, r.client, f)
}

// Client returns the provider in use.
func (r *Runtime) Client() provider.Client { return r.client }

// Store returns the sandbox store, or nil in remote mode.
func (r *Runtime) Store() *localstore.Store { return r.store }

// Walker returns the shared walker.
func (r *Runtime) Walker() *walker.Walker { return r.walker }

// Metrics returns the process metrics.
func (r *Runtime) Metrics() *metrics.Metrics { return r.metrics }

// Logger returns the root logger.
func (r *Runtime) Logger() logpkg.Logger { return r.logger }

// Config returns the runtime configuration.
func (r *Runtime) Config() cfgpkg.Config { return r.config }
