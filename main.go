package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Zhima-Mochi/vending-machine/internal/application/persistence"
	"github.com/Zhima-Mochi/vending-machine/internal/application/vending"
	"github.com/Zhima-Mochi/vending-machine/internal/config"
	"github.com/Zhima-Mochi/vending-machine/internal/domain/payment"
	"github.com/Zhima-Mochi/vending-machine/internal/domain/snapshot"
	"github.com/Zhima-Mochi/vending-machine/internal/infrastructure/id"
	"github.com/Zhima-Mochi/vending-machine/internal/infrastructure/memory"
	"github.com/Zhima-Mochi/vending-machine/internal/infrastructure/observability/oteltrace"
	"github.com/Zhima-Mochi/vending-machine/internal/infrastructure/observability/prometrics"
	"github.com/Zhima-Mochi/vending-machine/internal/infrastructure/observability/telemetry"
	"github.com/Zhima-Mochi/vending-machine/internal/infrastructure/observability/zaplogger"
	"github.com/Zhima-Mochi/vending-machine/internal/infrastructure/outbox"
	"github.com/Zhima-Mochi/vending-machine/internal/infrastructure/statestore"
	"github.com/Zhima-Mochi/vending-machine/internal/observability"
	httppresentation "github.com/Zhima-Mochi/vending-machine/internal/presentation/http"
	workerpresentation "github.com/Zhima-Mochi/vending-machine/internal/presentation/worker"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	serviceVersion  = "1.0.0"
	systemTraceID   = "system"
	systemSpanID    = "system"
	shutdownTimeout = 10 * time.Second
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(getenvDefault("CONFIG_DIR", "configs"), getenvDefault("ENV", "dev"))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	baseLogger, err := zaplogger.New(zaplogger.Options{
		Level: cfg.App.LogLevel,
		File:  cfg.App.LogFile,
	},
		observability.F("service", cfg.App.Name),
		observability.F("env", cfg.App.Env),
	)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer func() { _ = baseLogger.Sync() }()
	zap.ReplaceGlobals(baseLogger.Zap())

	systemLogger := baseLogger.With(
		observability.F("trace_id", systemTraceID),
		observability.F("span_id", systemSpanID),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := oteltrace.Setup(ctx, oteltrace.SDKOptions{
		ServiceName:    cfg.App.Name,
		ServiceVersion: serviceVersion,
		Environment:    cfg.App.Env,
		Endpoint:       cfg.Tracing.OTLPEndpoint,
		URLPath:        cfg.Tracing.URLPath,
		Insecure:       cfg.Tracing.Insecure,
		SampleRatio:    cfg.Tracing.SampleRatio,
	})
	if err != nil {
		systemLogger.Warn("tracing_setup_failed", observability.F("error", err))
	}

	counters, histograms := prometrics.New(prometheus.DefaultRegisterer, "").Instruments()
	tel := telemetry.New(oteltrace.New(cfg.App.Name), baseLogger, counters, histograms)

	// In-memory event bus; the persistence worker is its only subscriber.
	bus := outbox.NewBus(baseLogger)
	bus.Start(ctx)

	machine := vending.NewMachine(
		memory.NewInventoryRepository(),
		payment.NewCash(),
		memory.NewTransactionLog(id.NewUUIDGenerator()),
		bus,
		tel,
	)

	store, closeStore, err := openStateStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open state store: %w", err)
	}
	defer closeStore()

	restored, err := persistence.Restore(ctx, store, machine)
	if err != nil {
		return fmt.Errorf("restore state: %w", err)
	}
	switch {
	case restored:
		systemLogger.Info("state_restored", observability.F("driver", cfg.Store.Driver))
	case cfg.Seed.Enabled:
		if err := machine.Seed(ctx); err != nil {
			return fmt.Errorf("seed catalog: %w", err)
		}
		systemLogger.Info("catalog_seeded", observability.F("items", len(vending.DefaultCatalog())))
	}

	// Subscribed after restore so the replay does not trigger one save per item.
	worker := persistence.NewWorker(machine, store, tel)
	worker.Start(bus, workerpresentation.EventMiddleware(baseLogger, "persistence"))
	if store != nil {
		if err := worker.Save(ctx); err != nil {
			systemLogger.Warn("initial_state_save_failed", observability.F("error", err))
		}
	}

	handler := httppresentation.NewHandler(machine, tel, httppresentation.Options{
		CORSOrigin: cfg.HTTP.CORSOrigin,
	})
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", handler.Router())

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      mux,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		systemLogger.Info("http_server_start",
			observability.F("addr", server.Addr),
		)
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serverErr:
		if err != nil {
			systemLogger.Error("http_server_error", observability.F("error", err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		systemLogger.Error("http_server_shutdown_error", observability.F("error", err))
	} else {
		systemLogger.Info("http_server_stopped")
	}
	if err := bus.Stop(shutdownCtx); err != nil {
		systemLogger.Warn("event_bus_stop_error", observability.F("error", err))
	}
	if store != nil {
		if err := worker.Save(shutdownCtx); err != nil {
			systemLogger.Error("final_state_save_failed", observability.F("error", err))
		}
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		systemLogger.Warn("tracing_shutdown_error", observability.F("error", err))
	}
	return nil
}

// openStateStore returns a nil repository for the "none" driver.
func openStateStore(ctx context.Context, cfg config.Config) (snapshot.Repository, func(), error) {
	noop := func() {}
	switch cfg.Store.Driver {
	case config.DriverFile:
		return statestore.NewFileStore(cfg.Store.FilePath), noop, nil

	case config.DriverRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, noop, fmt.Errorf("ping redis: %w", err)
		}
		return statestore.NewRedisStore(client, cfg.Redis.Key), func() { _ = client.Close() }, nil

	case config.DriverMySQL:
		db, err := statestore.OpenMySQL(ctx, cfg.MySQL.DSN, statestore.MySQLOptions{
			MaxOpenConns:    cfg.MySQL.MaxOpenConns,
			MaxIdleConns:    cfg.MySQL.MaxIdleConns,
			ConnMaxLifetime: cfg.MySQL.ConnMaxLifetime,
		})
		if err != nil {
			return nil, noop, err
		}
		store := statestore.NewMySQLStore(db)
		if err := store.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, noop, err
		}
		return store, func() { _ = db.Close() }, nil

	default:
		return nil, noop, nil
	}
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
