package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"connectrpc.com/connect"
	"github.com/spf13/pflag"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"golang.org/x/sync/errgroup"

	"github.com/phobhub/phobhub/internal/auth"
	"github.com/phobhub/phobhub/internal/config"
	"github.com/phobhub/phobhub/internal/events"
	"github.com/phobhub/phobhub/internal/groups"
	"github.com/phobhub/phobhub/internal/ledger"
	"github.com/phobhub/phobhub/internal/middleware"
	"github.com/phobhub/phobhub/internal/notifications"
	"github.com/phobhub/phobhub/internal/service"
	"github.com/phobhub/phobhub/internal/storage/sqlite"
	"github.com/phobhub/phobhub/internal/telemetry"
	"github.com/phobhub/phobhub/pkg/api"
	"github.com/phobhub/phobhub/pkg/logging"
)

func main() {
	envFile := pflag.String("env-file", ".env", "dotenv file to load before reading the environment")
	pflag.Parse()

	if err := run(*envFile); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func run(envFile string) error {
	cfg, err := config.Load(envFile)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := logging.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.SetupTracing(ctx, "phobhub", cfg.OTelEndpoint)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Warn("Failed to flush traces", "error", err)
		}
	}()

	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()
	logger.Info("Storage initialized", "database", cfg.DBPath)

	metrics := telemetry.NewMetrics()

	sinks := []events.Sink{events.NewLogSink(logger)}
	if cfg.AMQPURL != "" {
		amqpSink, err := events.NewAMQPSink(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			return err
		}
		defer amqpSink.Close()
		sinks = append(sinks, amqpSink)
		logger.Info("Publishing change events", "exchange", cfg.AMQPExchange)
	}
	broadcaster := events.NewBroadcaster(sinks,
		events.WithBuffer(cfg.EventBuffer),
		events.WithMaxAttempts(cfg.EventMaxAttempts),
		events.WithLogger(logger),
		events.WithObserver(func(ev events.Event, sink string, err error) {
			result := "ok"
			if err != nil {
				result = "error"
			}
			metrics.EventsDelivered.WithLabelValues(string(ev.Name), result).Inc()
		}),
	)

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.TokenTTL)
	authenticator := auth.NewPasswordAuthenticator(store)
	notifier := notifications.NewService(store, logger)
	groupSvc := groups.NewService(store, notifier, groups.WithLogger(logger))
	ledgerSvc := ledger.NewService(store, ledger.WithLogger(logger))

	opts := []connect.HandlerOption{
		connect.WithInterceptors(
			middleware.MetricsInterceptor(metrics),
			middleware.RequireAuth(jwtManager, api.PublicProcedures...),
			middleware.LoggingInterceptor(logger),
		),
	}

	mux := http.NewServeMux()
	mux.Handle(service.NewAuthServiceHandler(service.NewAuthService(authenticator, jwtManager, store, logger), opts...))
	mux.Handle(service.NewGroupServiceHandler(service.NewGroupService(groupSvc, broadcaster, metrics, logger), opts...))
	mux.Handle(service.NewTransactionServiceHandler(service.NewTransactionService(ledgerSvc, broadcaster, logger), opts...))
	mux.Handle(service.NewCategoryServiceHandler(service.NewCategoryService(ledgerSvc, logger), opts...))
	mux.Handle(service.NewNotificationServiceHandler(service.NewNotificationService(notifier, logger), opts...))
	mux.Handle("GET /metrics", metrics.Handler())
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	handler := middleware.RequestLogging(logger, middleware.CORS(cfg.CORSOrigin, mux))

	// h2c serves HTTP/2 without TLS, which gRPC-style Connect clients need.
	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           h2c.NewHandler(handler, &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Connect server starting", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return broadcaster.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down", "timeout", cfg.ShutdownTimeout)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("Server stopped")
	return nil
}
