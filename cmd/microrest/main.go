package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/indigo-web/microrest"
	"github.com/indigo-web/microrest/config"
	"github.com/indigo-web/microrest/http"
	"github.com/indigo-web/microrest/transport"
	"go.opentelemetry.io/contrib/bridges/otelslog"
)

const name = "github.com/indigo-web/microrest/cmd/microrest"

var (
	addr    = flag.String("addr", "0.0.0.0:80", "address to listen on")
	timeout = flag.Duration("timeout", 5*time.Second, "per-read timeout of a connection")
	strict  = flag.Bool("strict", false, "send real status lines in not-found and error replies")
	logs    = flag.String("log", "text", "logger to use: text, or otel to export logs, metrics and traces to stdout")
)

const (
	exportInterval  = 10 * time.Second
	shutdownTimeout = 5 * time.Second
)

// board mimics the state of the peripherals a device would expose.
type board struct {
	mu     sync.Mutex
	LED    bool   `json:"led"`
	Uptime string `json:"uptime"`
	booted time.Time
}

type ledRequest struct {
	On bool `json:"on"`
}

func (b *board) Status(resp *http.Response, _ http.Payload) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.Uptime = time.Since(b.booted).Truncate(time.Second).String()
	_ = resp.JSON(b)
}

func (b *board) SetLED(resp *http.Response, payload http.Payload) {
	var req ledRequest
	if err := payload.JSON(&req); err != nil {
		_ = resp.WriteLine(`{"ok":false}`)
		return
	}

	b.mu.Lock()
	b.LED = req.On
	b.mu.Unlock()

	_ = resp.WriteLine(`{"ok":true}`)
}

// Echo writes the received payload back, with whitespace already stripped.
func Echo(resp *http.Response, payload http.Payload) {
	_ = resp.WriteLine(payload.String())
}

func main() {
	flag.Parse()

	if err := run(); err != nil {
		slog.Error("stopped", slog.Any("err", err))
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Default()
	cfg.NET.ReadTimeout = *timeout
	cfg.Reply.StrictStatus = *strict

	b := &board{booted: time.Now()}
	listener := transport.NewTCP(cfg.NET)
	app := microrest.New(listener).
		Tune(cfg).
		Get("status", b.Status).
		Post("led", b.SetLED).
		Post("data", Echo)

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	if *logs == "otel" {
		p, err := newProviders(os.Stdout, exportInterval)
		if err != nil {
			return err
		}

		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			if err := p.Shutdown(ctx); err != nil {
				slog.Error("telemetry shutdown", slog.Any("err", err))
			}
		}()

		p.Install()
		logger = otelslog.NewLogger(name)
		if err = app.Instrument(p.metrics, p.traces); err != nil {
			return err
		}
	}

	app.Logger(logger)
	slog.SetDefault(logger)

	if err := listener.Bind(*addr); err != nil {
		return err
	}

	for route := range app.Routes() {
		logger.Debug("route", slog.String("method", route.Method.String()), slog.String("path", route.Path))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("listening", slog.String("addr", listener.Addr().String()))

	return app.Serve(ctx)
}
