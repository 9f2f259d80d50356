package microrest

import (
	"context"
	"errors"
	"io"
	"iter"
	"log/slog"

	"github.com/indigo-web/microrest/config"
	"github.com/indigo-web/microrest/http"
	"github.com/indigo-web/microrest/http/method"
	"github.com/indigo-web/microrest/internal/server"
	"github.com/indigo-web/microrest/internal/telemetry"
	"github.com/indigo-web/microrest/router"
	"github.com/indigo-web/microrest/transport"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// ErrNoListener is returned by Tick and Serve if the app was created without a listener.
var ErrNoListener = errors.New("microrest: no listener")

// App binds the route table to a listener. Connections are served strictly one at a time,
// in the caller's goroutine.
type App struct {
	cfg      *config.Config
	table    *router.Table
	listener transport.Listener
	logger   *slog.Logger
	tel      *telemetry.Telemetry
	server   *server.Server
}

// New returns a new App instance. Nothing is logged by default.
func New(listener transport.Listener) *App {
	return &App{
		cfg:      config.Default(),
		table:    router.NewTable(),
		listener: listener,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		tel:      telemetry.Global(),
	}
}

// Tune replaces the default config. Must be called before the first Tick.
func (a *App) Tune(cfg *config.Config) *App {
	a.cfg = cfg
	a.server = nil
	return a
}

// Logger sets the logger every served connection is reported to.
func (a *App) Logger(logger *slog.Logger) *App {
	a.logger = logger
	a.server = nil
	return a
}

// Instrument replaces the global OpenTelemetry providers with the passed ones.
func (a *App) Instrument(mp metric.MeterProvider, tp trace.TracerProvider) error {
	tel, err := telemetry.New(mp, tp)
	if err != nil {
		return err
	}

	a.tel = tel
	a.server = nil

	return nil
}

// Route registers a handler. The path gets the leading slash if it lacks one. Registering
// the same path and method twice is allowed, but only the first registration is ever matched.
func (a *App) Route(path string, m method.Method, handler http.Handler) *App {
	a.table.Register(path, m, handler)
	return a
}

// Get is a shortcut for Route(path, method.GET, handler).
func (a *App) Get(path string, handler http.Handler) *App {
	return a.Route(path, method.GET, handler)
}

// Post is a shortcut for Route(path, method.POST, handler).
func (a *App) Post(path string, handler http.Handler) *App {
	return a.Route(path, method.POST, handler)
}

// Routes iterates over registered routes in the order of registration.
func (a *App) Routes() iter.Seq[router.Route] {
	return a.table.Routes()
}

// Tick serves at most one pending connection. served is false if no connection was
// pending. Failures of a served connection aren't returned, they're logged instead: the
// only errors are those of the listener and the ctx.
//
// How long an idle tick takes is up to the listener: transport.TCP waits at most
// config.NET.AcceptPollPeriod, but the seqs listener has no non-blocking accept, so a tick
// over it blocks until a peer connects and never returns served == false.
func (a *App) Tick(ctx context.Context) (served bool, err error) {
	if err = ctx.Err(); err != nil {
		return false, err
	}

	if a.listener == nil {
		return false, ErrNoListener
	}

	client, ok, err := a.listener.Accept()
	if err != nil || !ok {
		return false, err
	}

	if a.server == nil {
		a.server = server.New(a.cfg, a.table, a.logger, a.tel)
	}

	a.server.Serve(ctx, client)

	return true, nil
}

// Serve ticks until the ctx is done or the listener fails. The listener is closed on return.
// Cancellation is reported as nil error.
func (a *App) Serve(ctx context.Context) error {
	if a.listener == nil {
		return ErrNoListener
	}

	defer func() {
		_ = a.listener.Close()
	}()

	a.logger.Info("serving", slog.Int("routes", a.table.Len()))

	for {
		if _, err := a.Tick(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}

			return err
		}
	}
}
