package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/dchest/uniuri"
	"github.com/indigo-web/microrest/config"
	"github.com/indigo-web/microrest/http"
	"github.com/indigo-web/microrest/http/status"
	"github.com/indigo-web/microrest/internal/protocol/http1"
	"github.com/indigo-web/microrest/internal/telemetry"
	"github.com/indigo-web/microrest/router"
	"github.com/indigo-web/microrest/transport"
)

const connIDLength = 8

// Server processes connections one at a time. Its buffers are allocated once and reused by
// every connection, so it must never be used concurrently.
type Server struct {
	cfg     *config.Config
	table   *router.Table
	logger  *slog.Logger
	tel     *telemetry.Telemetry
	request *http.Request
	parser  *http1.Parser
	body    *http1.BodyReader
}

func New(cfg *config.Config, table *router.Table, logger *slog.Logger, tel *telemetry.Telemetry) *Server {
	request := new(http.Request)

	return &Server{
		cfg:     cfg,
		table:   table,
		logger:  logger,
		tel:     tel,
		request: request,
		parser:  http1.NewParser(cfg, request),
		body:    http1.NewBodyReader(cfg, request),
	}
}

// Serve runs a single request-response exchange over the client and closes it, whatever
// happens. Cancelling the ctx interrupts a read the server is blocked on.
func (s *Server) Serve(ctx context.Context, client transport.Client) {
	began := time.Now()
	s.reset()
	s.request.ID = uniuri.NewLen(connIDLength)
	s.request.Remote = client.Remote()

	ctx, span := s.tel.Start(ctx, s.request.ID, s.request.Remote)
	stop := context.AfterFunc(ctx, client.Interrupt)
	defer func() {
		stop()
		_ = client.Close()
	}()

	logger := s.logger.With(slog.String("conn", s.request.ID))
	logger.Debug("accepted", slog.String("remote", s.request.Remote))

	outcome, err := s.handle(client)
	s.tel.Finish(ctx, span, s.request.Method, s.request.Path, outcome, err, began)

	attrs := []slog.Attr{
		slog.String("method", s.request.Method.String()),
		// handlers may retain records, while the path buffer is reused by the next connection
		slog.String("path", strings.Clone(s.request.Path)),
		slog.String("outcome", string(outcome)),
		slog.Duration("duration", time.Since(began)),
	}

	if err != nil {
		attrs = append(attrs, slog.String("err", err.Error()))
		logger.LogAttrs(ctx, slog.LevelWarn, "request failed", attrs...)
		return
	}

	logger.LogAttrs(ctx, slog.LevelInfo, "request", attrs...)
}

func (s *Server) reset() {
	s.request.Reset()
	s.parser.Reset()
	s.body.Reset()
}

func (s *Server) handle(client transport.Client) (telemetry.Outcome, error) {
	if err := s.readRequestLine(client); err != nil {
		if !errors.Is(err, status.ErrMalformedRequest) {
			return telemetry.Aborted, err
		}

		if werr := http.NewResponse(client, s.cfg.Reply.StrictStatus).Error(err); werr != nil {
			return telemetry.Aborted, werr
		}

		return telemetry.Rejected, err
	}

	if s.request.Method.HasBody() {
		if err := s.readBody(client); err != nil {
			return telemetry.Aborted, err
		}
	}

	return s.dispatch(client)
}

func (s *Server) readRequestLine(client transport.Client) error {
	for {
		char, err := client.ReadByte()
		if err != nil {
			if errors.Is(err, os.ErrDeadlineExceeded) {
				return fmt.Errorf("%w: %w", status.ErrRequestTimeout, err)
			}

			return fmt.Errorf("%w: %w", status.ErrConnectionLost, err)
		}

		done, err := s.parser.Feed(char)
		if err != nil || done {
			return err
		}
	}
}

func (s *Server) readBody(client transport.Client) error {
	for {
		char, err := client.ReadByte()
		if err != nil {
			// whether the peer is gone or silent, the body is never going to balance
			return fmt.Errorf("%w: %w", status.ErrMalformedBody, err)
		}

		done, err := s.body.Feed(char)
		if err != nil || done {
			return err
		}
	}
}

func (s *Server) dispatch(client transport.Client) (outcome telemetry.Outcome, err error) {
	resp := http.NewResponse(client, s.cfg.Reply.StrictStatus)

	defer func() {
		if r := recover(); r != nil {
			outcome, err = telemetry.Aborted, fmt.Errorf("%w: %v", status.ErrHandlerPanic, r)
		}
	}()

	found, err := Dispatch(s.table, s.request, resp)
	switch {
	case err != nil:
		return telemetry.Aborted, err
	case !found:
		return telemetry.NotFound, nil
	default:
		return telemetry.Served, nil
	}
}
