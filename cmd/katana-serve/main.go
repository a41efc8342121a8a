// Command katana-serve is a minimal embedder wiring katana/reactor and
// katana/server around a hand-written router: a listener accepts
// connections, a reactor pool runs each one, and each request is
// dispatched through a single /health route. It is deliberately not a
// demo of generated API handlers (those are out of scope per §1) —
// its only job is exercising the runtime half of the framework end to
// end, matching Testable Properties scenario 1 (§8).
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"

	"github.com/katana-http/katana/katana/config"
	"github.com/katana-http/katana/katana/problem"
	"github.com/katana-http/katana/katana/reactor"
	"github.com/katana-http/katana/katana/router"
	"github.com/katana-http/katana/katana/server"
)

func main() {
	configPath := flag.String("config", "", "path to a katana.yaml config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	configureLogging(cfg.Log)

	if err := run(cfg); err != nil {
		slog.Error("katana-serve: exiting", "error", err)
		os.Exit(1)
	}
}

// configureLogging installs a slog handler the same way nova/serve.go
// selects one from log_format/log_level flags, here driven by the
// embedder's config file instead of CLI flags.
func configureLogging(cfg config.LogConfig) {
	opts := &slog.HandlerOptions{}
	switch strings.ToLower(cfg.Level) {
	case "debug":
		opts.Level = slog.LevelDebug
	case "warn", "warning":
		opts.Level = slog.LevelWarn
	case "error":
		opts.Level = slog.LevelError
	default:
		opts.Level = slog.LevelInfo
	}

	var handler slog.Handler
	if strings.ToLower(cfg.Format) == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}

func run(cfg config.Config) error {
	workers := cfg.Reactor.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	policy := reactor.LeastLoaded
	if strings.EqualFold(cfg.Reactor.Policy, "round_robin") {
		policy = reactor.RoundRobin
	}

	pool, err := reactor.NewPool(reactor.Config{
		Workers:   workers,
		Policy:    policy,
		QueueSize: cfg.Reactor.QueueSize,
		Timeouts: reactor.Timeouts{
			ReadIdle:      cfg.Reactor.ReadIdleTimeout,
			WriteIdle:     cfg.Reactor.WriteIdleTimeout,
			TotalLifetime: cfg.Reactor.TotalLifetime,
		},
	})
	if err != nil {
		return fmt.Errorf("starting reactor pool: %w", err)
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	ln, err := listen(addr, cfg.Server.Backlog, cfg.Server.ReusePort)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	defer ln.Close()

	slog.Info("katana-serve: listening", "addr", addr, "workers", workers)

	acceptCtx, cancelAccept := context.WithCancel(context.Background())
	go acceptLoop(acceptCtx, ln, pool, cfg.Server)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	slog.Info("katana-serve: received termination signal, shutting down", "signal", sig)

	cancelAccept()
	_ = ln.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Reactor.ShutdownDeadline)
	defer cancel()
	if err := pool.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down reactor pool: %w", err)
	}
	return nil
}

// listen opens a TCP listener. reusePort is recorded as intent only:
// SO_REUSEPORT requires a raw syscall.Control hook per platform, which
// the core's narrow readiness-notification boundary (§6's "consumes
// them through a narrow interface") pushes to whatever embeds it
// rather than to katana itself; a single katana-serve process doesn't
// need the option it flags.
func listen(addr string, backlog int, reusePort bool) (net.Listener, error) {
	if reusePort {
		slog.Warn("katana-serve: reuse_port requested but not implemented by this embedder")
	}
	lc := net.ListenConfig{}
	return lc.Listen(context.Background(), "tcp", addr)
}

func acceptLoop(ctx context.Context, ln net.Listener, pool *reactor.Pool, cfg config.ServerConfig) {
	for {
		nc, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			slog.Warn("katana-serve: accept error", "error", err)
			continue
		}
		conn := server.NewConn(nc, rootDispatcher{}, server.Config{
			MaxRequestsPerConn: cfg.MaxRequestsPerConn,
		})
		pool.Assign(conn)
	}
}

// rootDispatcher wraps the package-level router so acceptLoop doesn't
// need a closure captured per connection.
type rootDispatcher struct{}

func (rootDispatcher) Dispatch(ctx *router.Context) (problem.Details, bool, error) {
	return healthRouter.Dispatch(ctx)
}

var healthRouter = func() *router.Router {
	rt := &router.Router{}
	rt.Add("GET", "/health", healthHandler)
	return rt
}()

// healthHandler answers Testable Properties scenario 1 (§8): a bare
// liveness check with no generated-API surface behind it.
func healthHandler(ctx *router.Context) error {
	body := []byte(`{"status":"ok"}`)
	ctx.Writer.WriteStatus(200, "OK")
	ctx.Writer.WriteHeader("Content-Type", "application/json")
	ctx.Writer.WriteHeader("Content-Length", fmt.Sprintf("%d", len(body)))
	ctx.Writer.EndHeaders()
	ctx.Writer.WriteBody(body)
	return nil
}
