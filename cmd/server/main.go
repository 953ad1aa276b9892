package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dapurpos/backend/internal/cache"
	"dapurpos/backend/internal/config"
	"dapurpos/backend/internal/httpapi"
	"dapurpos/backend/internal/notify"
	"dapurpos/backend/internal/service"
	"dapurpos/backend/internal/store"
	"dapurpos/backend/internal/store/memory"
	"dapurpos/backend/internal/store/postgres"
	"dapurpos/backend/internal/sweep"
)

func main() {
	cfg := config.Load()
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var closers []func() error

	var repo store.Repository
	if cfg.DatabaseURL != "" {
		pg, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("[main] postgres: %v", err)
		}
		closers = append(closers, pg.Close)
		repo = pg
		log.Println("[main] using postgres store")
	} else {
		repo = memory.NewSeeded()
		log.Println("[main] DATABASE_URL not set, using seeded in-memory store")
	}

	var summaryCache cache.SummaryCache = cache.NewNoop()
	if cfg.RedisAddr != "" {
		redisCache, err := cache.NewRedis(ctx, cfg.RedisAddr)
		if err != nil {
			log.Printf("[main] redis unavailable, summaries uncached: %v", err)
		} else {
			closers = append(closers, redisCache.Close)
			summaryCache = redisCache
			log.Println("[main] summary cache on redis", cfg.RedisAddr)
		}
	}

	var events notify.Publisher = notify.NewNoop()
	if cfg.AMQPURL != "" {
		amqpPublisher, err := notify.NewAMQP(cfg.AMQPURL)
		if err != nil {
			log.Printf("[main] amqp unavailable, status events disabled: %v", err)
		} else {
			closers = append(closers, amqpPublisher.Close)
			events = amqpPublisher
			log.Println("[main] publishing order status events to amqp")
		}
	}

	svc := service.New(repo, summaryCache, events)
	auth := httpapi.NewAuthManager(repo, cfg.JWTSecret, cfg.TokenTTL)
	api := httpapi.New(svc, auth, cfg.AllowedOrigin)

	sweeper := sweep.New(svc)
	go sweeper.Run(ctx)

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("[main] listening on %s", cfg.Addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Println("[main] shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("[main] server error: %v", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("[main] shutdown: %v", err)
	}
	for _, closeFn := range closers {
		if err := closeFn(); err != nil {
			log.Printf("[main] close: %v", err)
		}
	}
	log.Println("[main] bye")
	os.Exit(0)
}
