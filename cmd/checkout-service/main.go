package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	"github.com/jpgomezm1/zeendr-checkout-service/internal/backend"
	"github.com/jpgomezm1/zeendr-checkout-service/internal/cache"
	"github.com/jpgomezm1/zeendr-checkout-service/internal/cart"
	"github.com/jpgomezm1/zeendr-checkout-service/internal/checkout"
	"github.com/jpgomezm1/zeendr-checkout-service/internal/config"
	"github.com/jpgomezm1/zeendr-checkout-service/internal/events"
	"github.com/jpgomezm1/zeendr-checkout-service/internal/httpapi"
	"github.com/jpgomezm1/zeendr-checkout-service/internal/journal"
	"github.com/jpgomezm1/zeendr-checkout-service/internal/tenant"
)

func main() {
	cfg := config.Load()

	logger := log.New(os.Stdout, "[checkout-service] ", log.LstdFlags|log.Lshortfile)

	// Backend client
	client, err := backend.NewClient(cfg.BackendURL, cfg.BackendTimeout)
	if err != nil {
		logger.Fatalf("backend client: %v", err)
	}

	var svc backend.Service = client
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		svc = backend.NewCachedClient(client, cache.NewRedisCache(redisClient, cfg.CacheTTL), logger)
		logger.Printf("caching tenant reads in redis at %s", cfg.RedisAddr)
	}

	// Submission journal
	var recorder checkout.Recorder
	if cfg.JournalDSN != "" {
		if err := journal.RunMigrations(cfg.JournalDSN, logger); err != nil {
			logger.Fatalf("journal migrations: %v", err)
		}
		db, err := journal.Open(cfg.JournalDSN)
		if err != nil {
			logger.Fatalf("journal db: %v", err)
		}
		defer db.Close()
		recorder = journal.NewRepository(db)
	} else {
		logger.Println("JOURNAL_DB_DSN not set, idempotent resubmit disabled")
	}

	// Event publishing
	var publisher checkout.Publisher
	if cfg.RabbitURL != "" {
		conn, err := amqp.Dial(cfg.RabbitURL)
		if err != nil {
			logger.Fatalf("connect to RabbitMQ: %v", err)
		}
		defer conn.Close()

		pub, err := events.NewPublisher(conn)
		if err != nil {
			logger.Fatalf("event publisher: %v", err)
		}
		defer pub.Close()
		publisher = pub
	} else {
		logger.Println("RABBITMQ_URL not set, event publishing disabled")
	}

	registry := checkout.NewRegistry()
	provider := tenant.NewProvider(svc)

	newSession := func(tc tenant.Context, c *cart.Cart) (*checkout.Session, error) {
		return checkout.NewSession(checkout.SessionConfig{
			Tenant:      tc,
			Cart:        c,
			Backend:     svc,
			PricingMode: checkout.PricingMode(cfg.PricingMode),
			Journal:     recorder,
			Publisher:   publisher,
			Logger:      logger,
		})
	}

	handler := httpapi.NewCheckoutHandler(registry, provider, newSession, logger)
	mux := httpapi.NewRouter(handler)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      httpapi.CORS(cfg.CORSAllowOrigins)(mux),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	// Sweep abandoned sessions so they don't pile up.
	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-sweepCtx.Done():
				return
			case <-ticker.C:
				if n := registry.SweepIdle(cfg.SessionIdleTimeout); n > 0 {
					logger.Printf("swept %d idle checkout sessions", n)
				}
			}
		}
	}()

	go func() {
		logger.Printf("checkout-service listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	logger.Println("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)
	stopSweep()
}
