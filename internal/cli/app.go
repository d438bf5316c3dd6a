// Package cli implements the notifier command tree.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"notifier/internal/client"
	"notifier/internal/config"
	"notifier/internal/logger"
	"notifier/internal/models"
	"notifier/internal/notify"
	"notifier/internal/observability"
	"notifier/internal/present"
	"notifier/internal/storage"
	"notifier/internal/version"
	"time"
)

// Options are the global flags shared by every command.
type Options struct {
	ConfigPath string
	Headless   bool
	Policy     string
	Accessible bool

	// MetricsSummary collects metrics even when the configuration leaves
	// them disabled, so the counters can be printed on exit.
	MetricsSummary bool

	In  io.Reader
	Out io.Writer
}

// App is the wired notifier for one command invocation.
type App struct {
	Config   *models.Config
	Logger   *slog.Logger
	Store    storage.Storage
	Client   *client.Client
	Service  *notify.Service
	Arbiter  *notify.Arbiter
	Provider *observability.Provider

	closers []func(context.Context) error
}

// policies maps --policy values onto headless answer policies.
var policies = map[string]present.Policy{
	"accept":  present.AcceptFirst,
	"dismiss": present.DismissLast,
}

// Bootstrap loads configuration and builds the service graph.
func Bootstrap(ctx context.Context, opts Options) (_ *App, err error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	app := &App{Config: cfg}
	defer func() {
		if err != nil {
			app.Close(context.Background())
		}
	}()

	ver := version.GetInfo()
	log, closer, err := logger.Setup(cfg.Logging, ver)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	if closer != nil {
		app.closers = append(app.closers, func(context.Context) error { return closer.Close() })
	}
	app.Logger = log

	// The metrics port is only opened when the configuration asks for it.
	serve := cfg.Metrics.Enabled
	obsCfg := *cfg
	obsCfg.Metrics.Enabled = serve || opts.MetricsSummary
	provider, err := observability.Setup(&obsCfg, ver)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize observability: %w", err)
	}
	app.Provider = provider
	app.closers = append(app.closers, provider.Shutdown)
	if serve {
		app.closers = append(app.closers, provider.Serve(logger.Component(log, "metrics")))
	}

	raw, err := storage.NewFactory().Create(cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	app.closers = append(app.closers, func(context.Context) error { return raw.Close() })

	store, err := provider.Instrument(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to instrument storage: %w", err)
	}
	app.Store = store

	guid, err := notify.DeviceID(ctx, store)
	if err != nil {
		return nil, err
	}

	app.Client, err = client.New(cfg.Client, guid, client.WithLogger(logger.Component(log, "client")))
	if err != nil {
		return nil, err
	}

	meters, err := provider.ArbiterMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to register arbiter metrics: %w", err)
	}

	app.Arbiter = notify.NewArbiter(store,
		notify.WithRecorder(meters),
		notify.WithArbiterLogger(logger.Component(log, "arbiter")),
	)

	presenter, opener, err := presentation(opts, log)
	if err != nil {
		return nil, err
	}

	app.Service = notify.NewService(app.Arbiter, presenter,
		notify.WithLinkOpener(opener),
		notify.WithViewReporter(app.Client),
		notify.WithLogger(logger.Component(log, "service")),
		notify.WithVersions(cfg.Versions()),
		notify.WithSettings(store),
	)
	return app, nil
}

func presentation(opts Options, log *slog.Logger) (notify.Presenter, notify.LinkOpener, error) {
	if opts.Headless {
		policy, ok := policies[opts.Policy]
		if !ok {
			return nil, nil, fmt.Errorf("unknown policy %q (want accept or dismiss)", opts.Policy)
		}
		return present.NewHeadless(logger.Component(log, "presenter"), policy), present.PrintOpener{Out: opts.Out}, nil
	}

	termOpts := []present.TerminalOption{present.WithAccessible(opts.Accessible)}
	if opts.In != nil && opts.Out != nil {
		termOpts = append(termOpts, present.WithIO(opts.In, opts.Out))
	}
	return present.NewTerminal(termOpts...), present.BrowserOpener{}, nil
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var firstErr error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	a.closers = nil
	return firstErr
}
