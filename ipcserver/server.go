/*
 * MIT License
 *
 * Copyright (c) 2025 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 */

// Package ipcserver assembles the transport endpoint, the SecurityManager,
// the router and the middleware pipeline into the daemon's top-level
// component, the one piece the CLI entrypoint constructs directly.
package ipcserver

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/linch-mind/daemon/internal/ipcctx"
	"github.com/linch-mind/daemon/internal/ipclog"
	"github.com/linch-mind/daemon/middleware"
	"github.com/linch-mind/daemon/router"
	"github.com/linch-mind/daemon/security"
	"github.com/linch-mind/daemon/transport"
)

// DefaultMaxConnections bounds concurrent open connections when
// Options.MaxConnections is zero.
const DefaultMaxConnections = 100

// DefaultShutdownGrace bounds how long Shutdown waits for in-flight
// connections to finish on their own before returning anyway.
const DefaultShutdownGrace = 5 * time.Second

// DefaultIdleTimeout closes a connection that has not delivered a frame
// for this long when Options.IdleTimeout is zero.
const DefaultIdleTimeout = 30 * time.Second

// Options configures a Server.
type Options struct {
	Endpoint        transport.Options
	AppDataDir      string
	MaxConnections  int
	MaxPayloadBytes uint32
	ShutdownGrace   time.Duration
	Debug           bool

	// IdleTimeout closes a connection that stays silent between frames for
	// longer than this. Zero selects DefaultIdleTimeout; negative disables
	// the idle check entirely.
	IdleTimeout time.Duration
	// RequestTimeout bounds a single request's dispatch. Zero leaves
	// handlers unbounded; the Windows pipe path defaults it to 3s at the
	// configuration layer, where forced cancellation is the only way to
	// recycle a wedged pipe instance.
	RequestTimeout time.Duration

	RequireAuthentication bool
	Verifier              security.PeerVerifier
	RateLimit             security.RateLimitConfig
	Firewall              security.FirewallConfig
	RingCapacity          int
}

func (o *Options) setDefaults() {
	if o.MaxConnections == 0 {
		o.MaxConnections = DefaultMaxConnections
	}
	if o.ShutdownGrace == 0 {
		o.ShutdownGrace = DefaultShutdownGrace
	}
	if o.IdleTimeout == 0 {
		o.IdleTimeout = DefaultIdleTimeout
	}
}

// Server is the daemon's top-level component: it owns the listening
// endpoint, the SecurityManager, the route table and the middleware chain,
// and runs the per-connection accept/serve loop.
type Server struct {
	opts     Options
	log      ipclog.Logger
	router   *router.Router
	pipeline *middleware.Pipeline
	security *security.Manager
	metrics  *Metrics
	endpoint transport.Endpoint
	conns    ipcctx.Registry[string]

	sem     chan struct{}
	wg      sync.WaitGroup
	cancel  context.CancelFunc
	stopped chan struct{}
}

// New builds a Server. Routes may still be registered on Router() before
// Start is called; Start freezes the table.
func New(opts Options, log ipclog.Logger) *Server {
	opts.setDefaults()

	metrics := NewMetrics()
	s := &Server{
		opts:    opts,
		log:     log,
		router:  router.New(),
		metrics: metrics,
		conns:   ipcctx.New[string](nil),
		security: security.NewManager(security.ManagerOptions{
			RequireAuthentication: opts.RequireAuthentication,
			Verifier:              opts.Verifier,
			RateLimit:             opts.RateLimit,
			Firewall:              opts.Firewall,
			RingCapacity:          opts.RingCapacity,
			OnEvent: func(e security.Event) {
				metrics.observeSecurityEvent(string(e.Kind))
			},
		}),
	}
	s.registerRoutes()
	return s
}

// Router exposes the route table so an embedder can register domain
// handlers before Start.
func (s *Server) Router() *router.Router {
	return s.router
}

// Security exposes the SecurityManager, e.g. for a status endpoint defined
// outside this package.
func (s *Server) Security() *security.Manager {
	return s.security
}

// Start freezes the route table, builds the middleware pipeline, acquires
// the platform endpoint, and begins accepting connections in the
// background. It returns once the endpoint is listening and the descriptor
// file has been written - the readiness signal clients wait for.
func (s *Server) Start(ctx context.Context) error {
	s.router.Freeze()
	s.pipeline = middleware.Build(
		s.router.Dispatch,
		middleware.NewErrorTranslator(s.log, s.opts.Debug),
		middleware.NewRequestValidator(s.opts.MaxPayloadBytes),
		middleware.NewAuthEnforcer(s.security),
		middleware.NewFirewall(s.security),
		middleware.NewRateLimiter(s.security),
		middleware.NewAccessLogger(s.log),
	)

	endpoint, err := transport.Listen(s.opts.Endpoint)
	if err != nil {
		return fmt.Errorf("ipcserver: listen: %w", err)
	}
	s.endpoint = endpoint
	s.sem = make(chan struct{}, s.opts.MaxConnections)
	s.stopped = make(chan struct{})

	acceptCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go s.acceptLoop(acceptCtx)

	if err := transport.WriteDescriptor(s.opts.AppDataDir, endpoint.Descriptor()); err != nil {
		s.log.Error("write descriptor", ipclog.Fields{"error": err.Error()})
		return err
	}
	s.log.Info("server listening", ipclog.Fields{
		"type": endpoint.Descriptor().Type,
		"path": endpoint.Descriptor().Path,
		"pid":  endpoint.Descriptor().PID,
	})
	return nil
}

func (s *Server) acceptLoop(ctx context.Context) {
	defer s.wg.Done()
	defer close(s.stopped)

	backoff := 10 * time.Millisecond
	const maxBackoff = time.Second

	for {
		select {
		case s.sem <- struct{}{}:
		case <-ctx.Done():
			return
		}

		conn, err := s.endpoint.Accept(ctx)
		if err != nil {
			<-s.sem
			if ctx.Err() != nil {
				return
			}
			s.log.Warn("accept failed", ipclog.Fields{"error": err.Error()})
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return
			}
			if backoff < maxBackoff {
				backoff *= 2
			}
			continue
		}
		backoff = 10 * time.Millisecond

		s.wg.Add(1)
		go s.handleConnection(ctx, conn)
	}
}

// Shutdown stops accepting new connections, closes the endpoint, wakes
// every blocked reader so each connection can write its best-effort
// shutdown response and drain, waits up to Options.ShutdownGrace, then
// force-closes whatever is left and removes the descriptor files last.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.cancel != nil {
		s.cancel()
	}
	if s.endpoint != nil {
		_ = s.endpoint.Close()
	}

	// Blocked readers only observe cancellation between frames; expiring
	// their read deadlines gets them there without waiting on the peer.
	now := time.Now()
	s.conns.Walk(func(_ string, val any) bool {
		if conn, ok := val.(transport.ConnectionStream); ok {
			_ = conn.SetReadDeadline(now)
		}
		return true
	})

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	grace := s.opts.ShutdownGrace
	timer := time.NewTimer(grace)
	defer timer.Stop()

	select {
	case <-done:
	case <-timer.C:
		s.log.Warn("shutdown grace period elapsed with connections still open", nil)
		s.conns.Walk(func(_ string, val any) bool {
			if conn, ok := val.(transport.ConnectionStream); ok {
				_ = conn.Close()
			}
			return true
		})
	case <-ctx.Done():
	}

	return transport.RemoveDescriptor(s.opts.AppDataDir)
}
