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

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/logistics-dashboard/internal/auth"
	"github.com/ukydev/logistics-dashboard/internal/config"
	"github.com/ukydev/logistics-dashboard/internal/db"
	"github.com/ukydev/logistics-dashboard/internal/handlers"
	"github.com/ukydev/logistics-dashboard/internal/middleware"
	"github.com/ukydev/logistics-dashboard/internal/notify"
	"github.com/ukydev/logistics-dashboard/internal/services"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load("")
	if err != nil {
		log.WithError(err).Fatal("Failed to load configuration")
	}
	logger := config.NewLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.WithError(err).Fatal("Server stopped")
	}
}

// openStore returns the configured store and a func releasing it.
func openStore(ctx context.Context, cfg config.Config, logger log.FieldLogger) (db.Store, func(), error) {
	switch cfg.Store {
	case config.StoreMemory:
		logger.Warn("Using in-memory store, data is lost on restart")
		return db.NewMemoryStore(db.DefaultSchema), func() {}, nil
	case config.StoreMongo:
		client, err := db.ConnectMongo(ctx, cfg.Mongo.URI)
		if err != nil {
			return nil, nil, err
		}
		store := db.NewMongoStore(client.Database(cfg.Mongo.Database), db.DefaultSchema)
		if err := store.EnsureIndexes(ctx); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, nil, err
		}
		logger.WithField("database", cfg.Mongo.Database).Info("Connected to MongoDB")
		return store, func() { _ = client.Disconnect(context.Background()) }, nil
	default:
		return nil, nil, fmt.Errorf("unknown store %q", cfg.Store)
	}
}

// openPublisher connects the stock alert publisher. Without a broker alerts are dropped.
func openPublisher(cfg config.Config, logger log.FieldLogger) (notify.Publisher, func(), error) {
	if cfg.MQTT.Broker == "" {
		return notify.NopPublisher{}, func() {}, nil
	}
	client, err := notify.ConnectMQTT(cfg.MQTT.Broker, cfg.MQTT.ClientID)
	if err != nil {
		return nil, nil, err
	}
	logger.WithFields(log.Fields{
		"broker": cfg.MQTT.Broker,
		"topic":  notify.StockAlertTopic(cfg.MQTT.TopicPrefix),
	}).Info("Publishing stock alerts")
	return notify.NewMQTTPublisher(client, cfg.MQTT.TopicPrefix), func() { client.Disconnect(250) }, nil
}

func newHandler(cfg config.Config, store db.Store, publisher notify.Publisher, logger log.FieldLogger) (http.Handler, error) {
	authService, err := auth.NewService(cfg.Auth.JWTSecret, cfg.Auth.JWTExpiry)
	if err != nil {
		return nil, err
	}
	limiter := middleware.NewRateLimiter(cfg.RateLimit.Requests, time.Duration(cfg.RateLimit.WindowSeconds)*time.Second)
	limiter.TrustProxy = cfg.RateLimit.TrustProxy
	router := handlers.NewRouter(handlers.Deps{
		Auth:        authService,
		Users:       &db.StoreUserCollection{Store: store},
		Routes:      services.NewRouteService(store, logger),
		Inventory:   services.NewInventoryService(store, publisher, logger),
		Analytics:   services.NewAnalyticsService(store, logger),
		RateLimiter: limiter,
		Logger:      logger,
	})
	if cfg.Timeout <= 0 {
		return router, nil
	}
	return http.TimeoutHandler(router, cfg.Timeout, `{"error":{"code":"INTERNAL_ERROR","message":"Request timed out"}}`), nil
}

// run serves the API until ctx is cancelled, then shuts down gracefully.
func run(ctx context.Context, cfg config.Config, logger log.FieldLogger) error {
	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer closeStore()

	publisher, closePublisher, err := openPublisher(cfg, logger)
	if err != nil {
		return fmt.Errorf("connect mqtt: %w", err)
	}
	defer closePublisher()

	handler, err := newHandler(cfg, store, publisher, logger)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		logger.WithField("addr", srv.Addr).Info("HTTP server listening")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
