package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	bbhttp "github.com/Strob0t/blackboard/internal/adapter/http"
	"github.com/Strob0t/blackboard/internal/adapter/mcp"
	bbnats "github.com/Strob0t/blackboard/internal/adapter/nats"
	bbotel "github.com/Strob0t/blackboard/internal/adapter/otel"
	"github.com/Strob0t/blackboard/internal/adapter/postgres"
	"github.com/Strob0t/blackboard/internal/adapter/ws"
	"github.com/Strob0t/blackboard/internal/config"
	"github.com/Strob0t/blackboard/internal/logger"
	"github.com/Strob0t/blackboard/internal/port/a2a"
	"github.com/Strob0t/blackboard/internal/port/assignment"
	"github.com/Strob0t/blackboard/internal/port/broadcast"
	"github.com/Strob0t/blackboard/internal/resilience"
	"github.com/Strob0t/blackboard/internal/service"
)

const (
	shutdownTimeout = 10 * time.Second
	// observerBuffer is the event backlog kept for each I/O-bound observer.
	observerBuffer = 1024
)

func main() {
	var err error
	if len(os.Args) > 1 && os.Args[1] == "admin" {
		err = runAdmin(os.Args[2:])
	} else {
		err = run()
	}
	if err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log, closeLog := logger.New(cfg.Logging)
	defer closeLog.Close()
	slog.SetDefault(log)

	slog.Info("config loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Logging.Level,
		"notifiers", cfg.Dispatch.Notifiers,
		"planner", cfg.Planner.Kind,
		"nats", cfg.NATS.URL != "",
		"postgres", cfg.Postgres.DSN != "",
	)

	ctx := context.Background()

	// --- Observability ---

	shutdownOTEL := bbotel.Noop()
	if cfg.OTEL.Enabled {
		shutdownOTEL, err = bbotel.Init(ctx, bbotel.Options{
			ServiceName: cfg.OTEL.ServiceName,
			Endpoint:    cfg.OTEL.Endpoint,
			Insecure:    cfg.OTEL.Insecure,
		})
		if err != nil {
			return fmt.Errorf("otel: %w", err)
		}
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownOTEL(sctx); err != nil {
			slog.Warn("otel shutdown", "error", err)
		}
	}()

	metrics, err := bbotel.NewMetrics()
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	// --- Core state ---

	events := service.NewEventNotifier(metrics)
	store := service.NewEntityStore(events)

	hub := ws.NewHub(cfg.Server.CORSOrigin, store)
	hub.SetSnapshot(func() any { return snapshot(store) })
	defer hub.Close()
	events.Subscribe(hub)

	// --- Infrastructure ---

	var queue *bbnats.Queue
	if cfg.NATS.URL != "" {
		queue, err = bbnats.Connect(ctx, cfg.NATS.URL)
		if err != nil {
			return fmt.Errorf("nats: %w", err)
		}
		defer func() { _ = queue.Drain() }()
		mirror := broadcast.NewAsync("nats", bbnats.NewEventPublisher(queue), observerBuffer)
		defer mirror.Close()
		events.Subscribe(mirror)
	}

	if cfg.Postgres.DSN != "" {
		if err := postgres.RunMigrations(ctx, cfg.Postgres.DSN); err != nil {
			return fmt.Errorf("migrations: %w", err)
		}
		pool, err := postgres.NewPool(ctx, cfg.Postgres)
		if err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
		defer pool.Close()
		journal := broadcast.NewAsync("journal", postgres.NewEventStore(pool), observerBuffer)
		defer journal.Close()
		events.Subscribe(journal)
		slog.Info("event journal enabled")
	}

	idemCache, closeCache, err := buildCache(ctx, cfg, queue)
	if err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	defer closeCache()

	// --- Services ---

	n, err := buildNotifier(cfg, store, queue)
	if err != nil {
		return fmt.Errorf("notifier: %w", err)
	}
	var channel assignment.Channel = assignment.Discard{}
	if queue != nil {
		channel = bbnats.NewAssignmentChannel(queue)
	}
	dispatch := service.NewDispatchService(store, n, channel)
	dispatch.SetBreaker(resilience.NewBreaker(cfg.Dispatch.Breaker.MaxFailures, cfg.Dispatch.Breaker.Timeout))
	dispatch.SetMetrics(metrics)

	plannerCtx, stopPlanner := context.WithCancel(ctx)
	defer stopPlanner()
	p, err := buildPlanner(plannerCtx, cfg)
	if err != nil {
		return fmt.Errorf("planner: %w", err)
	}
	gateway := service.NewGatewayService(store)
	plans := service.NewPlanService(store, p)
	scheduler := service.NewScheduler(store, dispatch, cfg.Scheduler.TickInterval, cfg.Scheduler.MaxParallel)

	if queue != nil {
		cancelCompletions, err := bbnats.NewCompletionSubscriber(queue, gateway).Start(ctx)
		if err != nil {
			return fmt.Errorf("completion subscriber: %w", err)
		}
		defer cancelCompletions()
	}

	// --- MCP ---

	if cfg.MCP.Enabled {
		mcpSrv := mcp.NewServer(mcp.ServerConfig{
			Addr:    cfg.MCP.Addr,
			Name:    cfg.MCP.Name,
			Version: cfg.MCP.Version,
		}, mcp.ServerDeps{Gateway: gateway, State: store})
		if err := mcpSrv.Start(); err != nil {
			return err
		}
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := mcpSrv.Stop(sctx); err != nil {
				slog.Warn("mcp stop", "error", err)
			}
		}()
	}

	// --- HTTP ---

	handlers := bbhttp.NewHandlers(store, gateway, plans, cfg.MCP.Version)
	a2aHandler := a2a.NewHandler(cfg.Server.BaseURL, cfg.MCP.Version, gateway)

	serviceName := ""
	if cfg.OTEL.Enabled {
		serviceName = cfg.OTEL.ServiceName
	}
	router := bbhttp.NewRouter(handlers, bbhttp.RouterOptions{
		CORSOrigin:     cfg.Server.CORSOrigin,
		ServiceName:    serviceName,
		Idempotency:    idemCache,
		IdempotencyTTL: cfg.Idempotency.TTL,
		WebSocket:      hub.HandleWS,
		Mounts:         []func(chi.Router){a2aHandler.MountRoutes},
	})

	addr := ":" + cfg.Server.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	scheduler.Start(ctx)

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("starting server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case <-done:
	case err := <-serveErr:
		scheduler.Stop(ctx)
		return fmt.Errorf("http: %w", err)
	}
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	scheduler.Stop(shutdownCtx)
	err = srv.Shutdown(shutdownCtx)
	handlers.Wait()
	return err
}

// snapshot is the state a websocket client receives on connect.
func snapshot(store *service.EntityStore) any {
	return map[string]any{
		"tasks":        store.Tasks(),
		"agents":       store.Agents(),
		"logs":         store.AllLogs(),
		"auto_trigger": store.AutoTrigger(),
	}
}
