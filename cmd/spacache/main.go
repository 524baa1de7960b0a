// Command spacache serves a single-page application bundle from memory.
//
// The asset directory is loaded, precompressed and frozen before the
// listener is opened, so no request ever observes a partially built cache.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/meigma/spacache"
	spahttp "github.com/meigma/spacache/http"
	"github.com/meigma/spacache/internal/config"
	"github.com/meigma/spacache/metrics"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stderr, nil)
	stop()
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, "spacache:", err)
		os.Exit(1)
	}
}

// run loads the configuration and the asset cache, then serves until ctx is
// done. When listening is non-nil it receives the asset listener address
// once the server accepts connections.
func run(ctx context.Context, args []string, logOut io.Writer, listening chan<- net.Addr) error {
	configPath, overrides, err := parseFlags(args, logOut)
	if err != nil {
		return err
	}
	cfg, err := config.Load(configPath, overrides)
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg.Log, logOut)
	if err != nil {
		return err
	}
	enc, err := cfg.ParseEncoding()
	if err != nil {
		return err
	}

	cache, report, err := spacache.Load(ctx, cfg.Root,
		spacache.WithLogger(logger),
		spacache.WithEncoding(enc),
		spacache.WithWorkers(cfg.Workers),
		spacache.WithMaxFiles(cfg.MaxFiles),
	)
	if err != nil {
		return fmt.Errorf("load assets: %w", err)
	}
	report.Log(logger)

	handlerOpts := []spahttp.Option{spahttp.WithLogger(logger)}
	if cfg.CacheControl != "" {
		handlerOpts = append(handlerOpts, spahttp.WithHeader("Cache-Control", cfg.CacheControl))
	}

	var metricsHandler nethttp.Handler
	if cfg.MetricsAddr != "" {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		col, err := metrics.New(reg, cache)
		if err != nil {
			return err
		}
		handlerOpts = append(handlerOpts, spahttp.WithObserver(col))
		metricsHandler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	}

	srv := &server{logger: logger, shutdownTimeout: cfg.ShutdownTimeout}
	if err := srv.listen("assets", cfg.Addr, spahttp.NewHandler(cache, handlerOpts...)); err != nil {
		return err
	}
	if metricsHandler != nil {
		mux := nethttp.NewServeMux()
		mux.Handle("/metrics", metricsHandler)
		if err := srv.listen("metrics", cfg.MetricsAddr, mux); err != nil {
			srv.closeAll()
			return err
		}
	}
	if listening != nil {
		listening <- srv.listeners[0].Addr()
	}
	return srv.serve(ctx)
}

// flagKeys maps command line flags to config keys.
var flagKeys = map[string]string{
	"root":             "root",
	"addr":             "addr",
	"metrics-addr":     "metricsAddr",
	"encoding":         "encoding",
	"workers":          "workers",
	"max-files":        "maxFiles",
	"cache-control":    "cacheControl",
	"log-level":        "log.level",
	"log-format":       "log.format",
	"shutdown-timeout": "shutdownTimeout",
}

// parseFlags returns the config file path and the flags set explicitly on
// the command line, keyed by config key.
func parseFlags(args []string, out io.Writer) (string, map[string]any, error) {
	fs := pflag.NewFlagSet("spacache", pflag.ContinueOnError)
	fs.SetOutput(out)

	configPath := fs.String("config", "", "path to a YAML or JSON config file")
	fs.String("root", "", "asset directory to serve")
	fs.String("addr", "", "listen address for assets")
	fs.String("metrics-addr", "", "listen address for /metrics")
	fs.String("encoding", "", "precompression encoding: br, gzip or zstd")
	fs.Int("workers", 0, "concurrent file loads (0 uses GOMAXPROCS)")
	fs.Int("max-files", 0, "maximum number of assets (negative disables)")
	fs.String("cache-control", "", "Cache-Control header sent with assets")
	fs.String("log-level", "", "log level: debug, info, warn, error")
	fs.String("log-format", "", "log format: text or json")
	fs.Duration("shutdown-timeout", 0, "graceful shutdown timeout")

	if err := fs.Parse(args); err != nil {
		return "", nil, err
	}
	if fs.NArg() > 0 {
		return "", nil, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	// Values are passed as strings; config decoding converts them.
	overrides := make(map[string]any)
	fs.Visit(func(f *pflag.Flag) {
		if key, ok := flagKeys[f.Name]; ok {
			overrides[key] = f.Value.String()
		}
	})
	return *configPath, overrides, nil
}

// newLogger builds the process logger from its configuration.
func newLogger(cfg config.LogConfig, out io.Writer) (*slog.Logger, error) {
	level, err := cfg.ParseLevel()
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	switch cfg.Format {
	case "json":
		return slog.New(slog.NewJSONHandler(out, opts)), nil
	case "text":
		return slog.New(slog.NewTextHandler(out, opts)), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}
}

// server runs a set of HTTP servers that share a lifetime.
type server struct {
	logger          *slog.Logger
	shutdownTimeout time.Duration
	names           []string
	listeners       []net.Listener
	servers         []*nethttp.Server
}

// listen binds addr so bind errors surface before serving starts.
func (s *server) listen(name, addr string, h nethttp.Handler) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s on %s: %w", name, addr, err)
	}
	s.names = append(s.names, name)
	s.listeners = append(s.listeners, ln)
	s.servers = append(s.servers, &nethttp.Server{
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          slog.NewLogLogger(s.logger.Handler(), slog.LevelWarn),
	})
	return nil
}

func (s *server) closeAll() {
	for _, ln := range s.listeners {
		_ = ln.Close()
	}
}

// serve blocks until ctx is done or a server fails, then shuts every
// server down gracefully.
func (s *server) serve(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for i, srv := range s.servers {
		ln := s.listeners[i]
		name := s.names[i]
		g.Go(func() error {
			s.logger.Info("listening", "server", name, "addr", ln.Addr().String())
			if err := srv.Serve(ln); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
				return fmt.Errorf("serve %s: %w", name, err)
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.shutdownTimeout)
		defer cancel()
		s.logger.Info("shutting down")
		var errs []error
		for _, srv := range s.servers {
			if err := srv.Shutdown(shutdownCtx); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	})
	return g.Wait()
}
