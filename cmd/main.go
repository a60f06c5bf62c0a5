package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/absensi/internal/adapters/backend"
	"github.com/okian/absensi/internal/adapters/http/api"
	"github.com/okian/absensi/internal/adapters/http/swagger"
	"github.com/okian/absensi/internal/adapters/mq/bus"
	"github.com/okian/absensi/internal/adapters/repository"
	"github.com/okian/absensi/internal/app"
	"github.com/okian/absensi/internal/config"
	"github.com/okian/absensi/internal/domain/dedupe"
	"github.com/okian/absensi/pkg/logger"
	"github.com/okian/absensi/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 30 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	systemMetricsInterval     = 10 * time.Second
	serviceMetricsInterval    = 5 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (dotenv -> defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		_, _ = os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}

	if err := logger.Init(logger.WithFormat(cfg.LogFormat), logger.WithLevel(cfg.LogLevel)); err != nil {
		_, _ = os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	defer func() { _ = logger.Sync() }()

	if err := configureMetrics(cfg); err != nil {
		logger.Get().Error(ctx, "invalid metrics config", logger.Error(err))
		return
	}

	if err := run(ctx, cfg, logger.Get()); err != nil {
		logger.Get().Error(ctx, "service failed", logger.Error(err))
	}
}

// run wires the service and blocks until ctx is cancelled.
func run(ctx context.Context, cfg *config.Config, log logger.Logger) error {
	svc, err := build(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.session.Stop(context.WithoutCancel(ctx)); err != nil {
			log.Warn(ctx, "session stop failed", logger.Error(err))
		}
	}()

	go startSystemMetricsUpdater(ctx)
	go startServiceMetricsUpdater(ctx, svc.session)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           svc.mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr), logger.String("backend", svc.backendName))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
	return nil
}

// service is the wired object graph.
type service struct {
	session     *app.Session
	scanner     *app.Scanner
	memory      *repository.Memory // nil with a remote backend
	backendName string
	mux         *http.ServeMux
}

// build wires backend, bus, session, scanner and routes, and starts the
// session loop.
func build(ctx context.Context, cfg *config.Config, log logger.Logger) (*service, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	svc := &service{}
	var be app.Backend
	if cfg.UseMemoryBackend() {
		secret := cfg.DemoSecret
		if secret == "" {
			secret = repository.DefaultSecret
		}
		svc.memory = repository.NewMemory(
			repository.WithSecret([]byte(secret)),
			repository.WithLocation(loc),
			repository.WithLogger(log.Named("memory")),
		)
		if cfg.Demo {
			if err := repository.Seed(svc.memory); err != nil {
				return nil, err
			}
			log.Info(ctx, "demo school seeded", logger.Int("students", repository.SeedStudentCount()))
		}
		be, svc.backendName = svc.memory, "memory"
	} else {
		client, err := backend.New(cfg.BackendURL,
			backend.WithTimeout(cfg.BackendTimeout()),
			backend.WithCredentials(cfg.BackendUsername, cfg.BackendPassword),
			backend.WithToken(cfg.BackendToken),
			backend.WithLocation(loc),
			backend.WithLogger(log.Named("backend")),
		)
		if err != nil {
			return nil, err
		}
		be, svc.backendName = client, cfg.BackendURL
	}

	events := bus.New()
	svc.session = app.New(be, events,
		app.WithLogger(log.Named("session")),
		app.WithLocation(loc),
		app.WithDefaultThreshold(cfg.Threshold()),
		app.WithInboxSize(cfg.InboxSize),
	)
	svc.scanner = app.NewScanner(be, events,
		app.WithScannerLogger(log.Named("scanner")),
		app.WithScannerLocation(loc),
		app.WithGuard(dedupe.NewCooldown(
			dedupe.WithMinInterval(cfg.ScanCooldown()),
			dedupe.WithTokenWindow(cfg.ScanTokenWindow()),
		)),
	)
	if err := svc.session.Start(ctx); err != nil {
		return nil, err
	}

	svc.mux = http.NewServeMux()
	swagger.Register(ctx, svc.mux)
	api.NewServer(svc.session, svc.scanner, api.WithLogger(log.Named("api"))).Register(ctx, svc.mux)
	return svc, nil
}

// configureMetrics applies the metrics naming and labels from cfg.
func configureMetrics(cfg *config.Config) error {
	labels, err := cfg.MetricLabels()
	if err != nil {
		return err
	}
	buckets, err := cfg.MetricBuckets()
	if err != nil {
		return err
	}
	metrics.Configure(
		metrics.WithNamespace(cfg.MetricsNamespace),
		metrics.WithSubsystem(cfg.MetricsSubsystem),
		metrics.WithConstLabels(labels),
		metrics.WithHistogramBuckets(buckets),
	)
	return nil
}

// startSystemMetricsUpdater starts a background goroutine that updates system metrics.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// startServiceMetricsUpdater refreshes gauges that are only sampled.
func startServiceMetricsUpdater(ctx context.Context, session *app.Session) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			st := session.Stats(ctx)
			metrics.UpdateInboxSize(st.InboxLen)
			metrics.UpdateSessionActive(st.Running)
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}
