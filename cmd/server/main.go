package main

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"airline-booking-system/internal/cache"
	"airline-booking-system/internal/config"
	"airline-booking-system/internal/domain"
	"airline-booking-system/internal/handlers"
	"airline-booking-system/internal/inventory"
	"airline-booking-system/internal/metrics"
	"airline-booking-system/internal/outbox"
	"airline-booking-system/internal/outboxtx"
	"airline-booking-system/internal/ports"
	"airline-booking-system/internal/repositories"
	"airline-booking-system/internal/saga"
	"airline-booking-system/internal/sweeper"
	"airline-booking-system/pkg/database"
	"airline-booking-system/pkg/kafka"
	"airline-booking-system/pkg/redis"
	"airline-booking-system/pkg/tracing"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

func main() {
	cfg := config.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	log := logger.Sugar()

	log.Infow("starting airline booking service",
		"database", cfg.Database.Redacted(),
		"redis", cfg.Redis.Redacted(),
		"payment", cfg.Payment.Redacted(),
		"notification", cfg.Notification.Redacted(),
	)

	shutdownTracing, err := tracing.InitTracer(context.Background(), &cfg.Tracing, log)
	if err != nil {
		log.Fatalw("failed to init tracing", "error", err)
	}
	defer shutdownTracing(context.Background())

	db, err := database.NewPostgresConnection(&cfg.Database)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer db.Close()

	redisClient := redis.NewClient(&cfg.Redis)
	defer redisClient.Close()
	if err := redisClient.Ping(context.Background()); err != nil {
		log.Fatalw("failed to connect to redis", "error", err)
	}

	kafkaProducer := kafka.NewProducer(&cfg.Kafka)
	defer kafkaProducer.Close()

	registry := prometheus.NewRegistry()
	inventoryMetrics := metrics.NewInventoryMetrics(registry)
	outboxMetrics := metrics.NewOutboxMetrics(registry)

	// Repositories
	inventoryRepo := repositories.NewFlightInventoryRepository(db)
	bookingRepo := repositories.NewBookingRepository(db)
	ticketRepo := repositories.NewTicketRepository(db)
	outboxRepo := repositories.NewOutboxRepository(db)

	uow := outboxtx.New(db.DB)

	// C9 — availability cache in front of the inventory repository.
	availabilityCache := cache.NewAvailabilityCache(redisClient, cfg.App.CacheTTL)
	cachedInventoryRepo := cache.NewCachedRepository(inventoryRepo, availabilityCache, log)

	// C2 — coalescing inventory engine.
	inventoryEngine := inventory.NewEngine(cachedInventoryRepo, inventory.Config{
		QueueCapacity: cfg.App.InventoryQueueDepth,
		MaxBatchSize:  inventory.DefaultConfig().MaxBatchSize,
		HoldDuration:  cfg.Saga.HoldDuration,
		MaxOCCRetries: inventory.DefaultConfig().MaxOCCRetries,
		BaseBackoff:   inventory.DefaultConfig().BaseBackoff,
		MaxBackoff:    inventory.DefaultConfig().MaxBackoff,
	}, log, inventoryMetrics)
	inventoryEngine.Start()
	defer inventoryEngine.Stop()

	// C8 — payment/notification ports. Dev-mocks stand in until a real
	// gateway client is wired (spec §1 — out of scope beyond the
	// interfaces they expose).
	paymentGateway := ports.NewDevMockPaymentGateway(cfg.Payment.SettleAfter)
	notificationGateway := ports.NewDevMockNotificationGateway()

	// C3 — booking saga.
	sagaCfg := saga.Config{
		HoldDuration:            cfg.Saga.HoldDuration,
		CheckoutPollInterval:    cfg.Saga.CheckoutPollInterval,
		CheckoutPollMaxDuration: cfg.Saga.CheckoutPollMaxDuration,
		PaymentAttemptTimeout:   cfg.Saga.PaymentAttemptTimeout,
		PaymentMaxAttempts:      cfg.Saga.PaymentMaxAttempts,
		NotificationTimeout:     cfg.Saga.NotificationTimeout,
		NotificationMaxAttempts: cfg.Saga.NotificationMaxAttempts,
		ConfirmOCCMaxRetries:    cfg.Saga.ConfirmOCCMaxRetries,
	}
	bookingSaga := saga.New(
		saga.NewEngineAdapter(inventoryEngine),
		bookingRepo,
		ticketRepo,
		uow,
		paymentGateway,
		notificationGateway,
		sagaCfg,
		log,
	)

	// C6 — expiration sweeper, running on its own goroutine.
	sweeperSvc := sweeper.New(
		sweeper.NewEngineAdapter(inventoryEngine),
		bookingRepo,
		uow,
		sweeper.Config{Interval: cfg.Sweeper.Interval, PageSize: cfg.Sweeper.PageSize},
		log,
	)
	sweeperCtx, stopSweeper := context.WithCancel(context.Background())
	defer stopSweeper()
	go sweeperSvc.Run(sweeperCtx)

	// C7 — outbox publisher, running on its own goroutine.
	kafkaDispatcher := outbox.NewKafkaDispatcher(kafkaProducer, map[string]string{
		domain.EventSeatsHeld:        cfg.Kafka.TopicInventory,
		domain.EventSeatsReleased:    cfg.Kafka.TopicInventory,
		domain.EventBookingCreated:   cfg.Kafka.TopicBooking,
		domain.EventBookingConfirmed: cfg.Kafka.TopicBooking,
		domain.EventBookingCancelled: cfg.Kafka.TopicBooking,
		domain.EventBookingExpired:   cfg.Kafka.TopicBooking,
		domain.EventTicketIssued:     cfg.Kafka.TopicTicketing,
	})
	publisher := outbox.New(
		outbox.NewRepositoryAdapter(outboxRepo),
		kafkaDispatcher,
		outbox.Config{PollInterval: cfg.Outbox.PollInterval, BatchSize: cfg.Outbox.BatchSize, MaxRetries: cfg.Outbox.MaxRetries},
		outboxMetrics,
		log,
	)
	publisherCtx, stopPublisher := context.WithCancel(context.Background())
	defer stopPublisher()
	go publisher.Run(publisherCtx)

	// Handlers
	flightHandler := handlers.NewFlightHandler(inventoryEngine)
	bookingHandler := handlers.NewBookingHandler(bookingSaga, bookingRepo)

	router := setupRoutes(flightHandler, bookingHandler, registry, log)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Infow("starting server", "port", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed to start", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalw("server forced to shutdown", "error", err)
	}

	log.Info("server exited")
}

func setupRoutes(fh *handlers.FlightHandler, bh *handlers.BookingHandler, registry *prometheus.Registry, log *zap.SugaredLogger) *mux.Router {
	router := mux.NewRouter()
	router.Use(otelhttp.NewMiddleware("airline-booking-system"))

	api := router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/flights/{id}/availability", fh.GetAvailability).Methods("GET")

	api.HandleFunc("/bookings", bh.BookFlight).Methods("POST")
	api.HandleFunc("/bookings/{id}", bh.GetBooking).Methods("GET")
	api.HandleFunc("/bookings/{id}/confirm", bh.ConfirmBooking).Methods("POST")
	api.HandleFunc("/bookings/pnr/{pnr}", bh.GetBookingByPnr).Methods("GET")

	api.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET")

	router.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{})).Methods("GET")

	router.Use(loggingMiddleware(log))
	router.Use(corsMiddleware)
	router.Use(rateLimitMiddleware)
	router.Use(throttleMiddleware)

	return router
}

func loggingMiddleware(log *zap.SugaredLogger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			log.Infow("request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
		})
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Simple per-IP rate limiter using golang.org/x/time/rate.
// Defaults: 10 requests/second with a burst of 20 per IP.
var (
	ipLimiters   = make(map[string]*rate.Limiter)
	ipLimitersMu sync.Mutex

	requestsPerSecond = rate.Limit(10)
	burstSize         = 20
)

func getIPLimiter(ip string) *rate.Limiter {
	ipLimitersMu.Lock()
	defer ipLimitersMu.Unlock()

	limiter, exists := ipLimiters[ip]
	if !exists {
		limiter = rate.NewLimiter(requestsPerSecond, burstSize)
		ipLimiters[ip] = limiter
	}
	return limiter
}

func rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			ip = r.RemoteAddr
		}

		if limiter := getIPLimiter(ip); !limiter.Allow() {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte("Too Many Requests"))
			return
		}

		next.ServeHTTP(w, r)
	})
}

// throttleMiddleware limits the total number of in-flight requests.
// Defaults: at most 100 concurrent requests across the server.
var (
	maxInFlight     = 100
	inFlightSem     = make(chan struct{}, maxInFlight)
	throttleTimeout = 0 * time.Second // can be made >0 to wait before rejecting
)

func throttleMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if throttleTimeout <= 0 {
			select {
			case inFlightSem <- struct{}{}:
				defer func() { <-inFlightSem }()
				next.ServeHTTP(w, r)
			default:
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte("Server is busy, please try again later"))
			}
			return
		}

		select {
		case inFlightSem <- struct{}{}:
			defer func() { <-inFlightSem }()
			next.ServeHTTP(w, r)
		case <-time.After(throttleTimeout):
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte("Server is busy, please try again later"))
		}
	})
}
