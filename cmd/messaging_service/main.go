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

	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/pharmalink/golang_services/internal/messaging_service/app"
	"github.com/pharmalink/golang_services/internal/messaging_service/domain"
	"github.com/pharmalink/golang_services/internal/messaging_service/provider"
	pgrepo "github.com/pharmalink/golang_services/internal/messaging_service/repository/postgres"
	redisrepo "github.com/pharmalink/golang_services/internal/messaging_service/repository/redis"
	httptransport "github.com/pharmalink/golang_services/internal/messaging_service/transport/http"
	"github.com/pharmalink/golang_services/internal/platform/cache"
	"github.com/pharmalink/golang_services/internal/platform/config"
	"github.com/pharmalink/golang_services/internal/platform/database"
	"github.com/pharmalink/golang_services/internal/platform/logger"
	"github.com/pharmalink/golang_services/internal/platform/messagebroker"
)

const serviceName = "messaging-service"

func main() {
	cfg, err := config.Load(serviceName)
	if err != nil {
		slog.Error("Failed to load configuration", "service", serviceName, "error", err)
		os.Exit(1)
	}
	appLogger := logger.New(cfg.LogLevel).With("service", serviceName)
	if err := cfg.Validate(); err != nil {
		appLogger.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}
	appLogger.Info("Messaging service starting...", "port", cfg.ServerPort, "carrier", cfg.CarrierProvider)

	mainCtx, mainCancel := context.WithCancel(context.Background())
	defer mainCancel()

	dbPool, err := database.NewDBPool(mainCtx, cfg.PostgresDSN)
	if err != nil {
		appLogger.Error("Failed to connect to PostgreSQL", "error", err)
		os.Exit(1)
	}
	defer dbPool.Close()
	appLogger.Info("Connected to PostgreSQL")

	if cfg.AutoMigrate {
		if err := pgrepo.InitSchema(mainCtx, dbPool); err != nil {
			appLogger.Error("Failed to initialize database schema", "error", err)
			os.Exit(1)
		}
	}

	var (
		publisher  messagebroker.Publisher = messagebroker.NoopPublisher{}
		natsClient *messagebroker.NATSClient
	)
	if cfg.NATSUrl != "" {
		natsClient, err = messagebroker.NewNATSClient(cfg.NATSUrl, serviceName, appLogger)
		if err != nil {
			appLogger.Error("Failed to connect to NATS", "error", err)
			os.Exit(1)
		}
		defer natsClient.Close()
		publisher = natsClient
	} else {
		appLogger.Warn("NATS_URL not set; domain events and auto-responses are disabled")
	}

	// Interface values stay untyped nil when a feature is disabled.
	var replayGuard domain.ReplayGuard
	if cfg.RedisURL != "" {
		redisClient, err := cache.NewRedisClient(mainCtx, cfg.RedisURL)
		if err != nil {
			appLogger.Error("Failed to connect to Redis", "error", err)
			os.Exit(1)
		}
		defer redisClient.Close()
		replayGuard = redisrepo.NewReplayGuard(redisClient, cfg.ReplayGuardTTL, appLogger)
	}

	sender, err := newSender(cfg, appLogger)
	if err != nil {
		appLogger.Error("Failed to initialize carrier client", "error", err)
		os.Exit(1)
	}

	patients := pgrepo.NewPgPatientRepository(dbPool, appLogger)
	messages := pgrepo.NewPgMessageRepository(dbPool, appLogger)
	numbers := pgrepo.NewPgPhoneNumberRepository(dbPool, appLogger)

	dispatcher := app.NewDispatcher(
		app.NewNumberSelector(numbers, appLogger),
		patients,
		messages,
		sender,
		publisher,
		app.CarrierCredentials{AccountSID: cfg.CarrierAccountSID, AuthToken: cfg.CarrierAuthToken},
		cfg.StatusCallbackURL(),
		appLogger,
	)
	tracker := app.NewStatusTracker(messages, numbers, publisher, appLogger)

	var autoReplies app.AutoResponseScheduler
	if natsClient != nil {
		autoReplies = app.NewNATSAutoResponseScheduler(natsClient)
	}
	inbound := app.NewInboundProcessor(
		messages,
		numbers,
		app.NewPatientResolver(patients, appLogger),
		replayGuard,
		autoReplies,
		publisher,
		appLogger,
	)

	validate := validator.New()
	routerCfg := httptransport.RouterConfig{
		Messages: httptransport.NewMessageHandler(dispatcher, validate, appLogger),
		Webhooks: httptransport.NewWebhookHandler(inbound, tracker, validate, appLogger),
		Health:   dbPool,
		Logger:   appLogger,
	}
	if cfg.ValidateWebhookSigs {
		routerCfg.WebhookMiddleware = append(routerCfg.WebhookMiddleware,
			httptransport.SignatureMiddleware(cfg.CarrierAuthToken, cfg.PublicBaseURL, appLogger))
	} else {
		appLogger.Warn("Webhook signature validation is disabled")
	}

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           httptransport.NewRouter(routerCfg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	metricsServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.MetricsPort),
		Handler:           metricsMux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, groupCtx := errgroup.WithContext(mainCtx)

	g.Go(func() error {
		appLogger.Info("HTTP server starting", "address", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		appLogger.Info("Metrics HTTP server starting", "address", metricsServer.Addr)
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("metrics server: %w", err)
		}
		return nil
	})

	if natsClient != nil {
		responder := app.NewAutoResponder(natsClient, dispatcher, cfg.AutoResponseQueue, appLogger)
		g.Go(func() error {
			return responder.Run(groupCtx)
		})
	}

	stopSignal := make(chan os.Signal, 1)
	signal.Notify(stopSignal, syscall.SIGINT, syscall.SIGTERM)

	g.Go(func() error {
		select {
		case sig := <-stopSignal:
			appLogger.Info("Received termination signal", "signal", sig.String())
			mainCancel()
		case <-groupCtx.Done():
		}
		return nil
	})

	g.Go(func() error {
		<-groupCtx.Done()
		appLogger.Info("Initiating graceful shutdown...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownGracePeriod)
		defer cancel()

		var shutdownErrors error
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			shutdownErrors = errors.Join(shutdownErrors, fmt.Errorf("http shutdown: %w", err))
		}
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			shutdownErrors = errors.Join(shutdownErrors, fmt.Errorf("metrics shutdown: %w", err))
		}
		return shutdownErrors
	})

	if err := g.Wait(); err != nil {
		appLogger.Error("Messaging service stopped with error", "error", err)
		os.Exit(1)
	}
	appLogger.Info("Messaging service shut down gracefully")
}

func newSender(cfg *config.Config, logger *slog.Logger) (provider.Sender, error) {
	switch cfg.CarrierProvider {
	case "", "twilio":
		return provider.NewTwilioSMSProvider(logger, cfg.CarrierAPIBaseURL, cfg.CarrierTimeout), nil
	case "mock":
		logger.Warn("Using mock carrier; no messages will leave this process")
		return provider.NewMockSMSProvider(logger, false, 0), nil
	default:
		return nil, fmt.Errorf("unknown carrier provider %q", cfg.CarrierProvider)
	}
}
