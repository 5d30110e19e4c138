package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/fjod/cart-sync/internal/commerce"
	"github.com/fjod/cart-sync/internal/events"
	"github.com/fjod/cart-sync/internal/service"
	"github.com/fjod/cart-sync/internal/store"
	"github.com/fjod/cart-sync/internal/syncer"
	transporthttp "github.com/fjod/cart-sync/internal/transport/http"
	"github.com/fjod/cart-sync/pkg/config"
	"github.com/fjod/cart-sync/pkg/logger"
	"github.com/fjod/cart-sync/pkg/shutdown"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg := config.Load()
	log := logger.New(logger.Options{
		Service: "cart-sync",
		Env:     cfg.AppEnv,
		Level:   cfg.LogLevel,
	}).With("session_id", uuid.NewString())

	ctx, cancel := shutdown.WithSignals(context.Background())
	defer cancel()

	st, closeStore, err := buildStore(ctx, cfg)
	if err != nil {
		log.Error("failed to set up store", "backend", cfg.StoreBackend, "error", err)
		os.Exit(1)
	}
	defer closeStore()
	log.Info("store ready", "backend", cfg.StoreBackend, "key", cfg.StorageKey)

	var adapter any
	if cfg.CommerceBaseURL != "" {
		adapter = commerce.NewHTTPAdapter(cfg.CommerceBaseURL, cfg.CommerceTimeout)
		log.Info("commerce adapter configured", "base_url", cfg.CommerceBaseURL)
	} else {
		log.Info("no commerce backend configured, running local-only")
	}

	ctrl := syncer.New(syncer.Config{
		Store:            st,
		StorageKey:       cfg.StorageKey,
		Adapter:          adapter,
		CustomerID:       cfg.CustomerID,
		Authenticated:    cfg.Authenticated,
		DebounceInterval: time.Duration(cfg.DebounceMS) * time.Millisecond,
		Logger:           log,
	})
	ctrl.Start(ctx)
	log.Info("cart engine started",
		"state", ctrl.State().String(),
		"holds_supported", ctrl.Capabilities().HoldsSupported(),
	)

	cartService := service.NewCartService(ctrl)
	router := transporthttp.NewRouter(transporthttp.NewCartHandler(cartService))

	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler: router,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("cart façade listening", "port", cfg.HTTPPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if len(cfg.KafkaBrokers) > 0 && cfg.CustomerID != "" {
		listener := events.NewCheckoutListener(cartClearer{cartService}, cfg.CustomerID, log, cfg.KafkaCheckoutTopic, cfg.KafkaBrokers...)
		defer listener.Close()
		g.Go(func() error {
			log.Info("checkout listener running", "topic", cfg.KafkaCheckoutTopic)
			listener.Run(gctx)
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down cart engine")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		return server.Shutdown(shutdownCtx)
	})

	err = g.Wait()

	// Close the controller last so no debounced write-back fires into
	// a torn-down process.
	ctrl.Close()

	if err != nil {
		log.Error("cart engine stopped with error", "error", err)
		os.Exit(1)
	}
	log.Info("cart engine stopped")
}

// cartClearer narrows the façade to the one method the checkout
// listener needs.
type cartClearer struct {
	svc *service.CartService
}

func (c cartClearer) Clear() { c.svc.Clear() }

func buildStore(ctx context.Context, cfg config.Config) (store.Store, func(), error) {
	switch cfg.StoreBackend {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPass,
			DB:       0,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("redis ping failed: %w", err)
		}
		return store.NewRedisStore(client), func() { client.Close() }, nil

	case "mongo":
		db, err := store.ConnectMongo(ctx, cfg.MongoURI, cfg.MongoDBName)
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() {
			disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			db.Client().Disconnect(disconnectCtx)
		}
		return store.NewMongoStore(db), closeFn, nil

	case "file":
		return store.NewFileStore(cfg.StoreDir), func() {}, nil

	case "memory":
		return store.NewMemoryStore(), func() {}, nil

	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}
