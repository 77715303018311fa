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
	_ "time/tzdata"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/m04kA/SMC-ReservationEngine/internal/api"
	acquireLockHandler "github.com/m04kA/SMC-ReservationEngine/internal/api/handlers/acquire_lock"
	cancelBookingHandler "github.com/m04kA/SMC-ReservationEngine/internal/api/handlers/cancel_booking"
	createBookingHandler "github.com/m04kA/SMC-ReservationEngine/internal/api/handlers/create_booking"
	getAvailableSlotsHandler "github.com/m04kA/SMC-ReservationEngine/internal/api/handlers/get_available_slots"
	getBookingHandler "github.com/m04kA/SMC-ReservationEngine/internal/api/handlers/get_booking"
	getCustomerBookingsHandler "github.com/m04kA/SMC-ReservationEngine/internal/api/handlers/get_customer_bookings"
	getCustomerPackagesHandler "github.com/m04kA/SMC-ReservationEngine/internal/api/handlers/get_customer_packages"
	releaseLockHandler "github.com/m04kA/SMC-ReservationEngine/internal/api/handlers/release_lock"
	rescheduleBookingHandler "github.com/m04kA/SMC-ReservationEngine/internal/api/handlers/reschedule_booking"
	updateBookingStatusHandler "github.com/m04kA/SMC-ReservationEngine/internal/api/handlers/update_booking_status"
	"github.com/m04kA/SMC-ReservationEngine/internal/api/middleware"
	"github.com/m04kA/SMC-ReservationEngine/internal/config"
	"github.com/m04kA/SMC-ReservationEngine/internal/integrations/notifier"
	"github.com/m04kA/SMC-ReservationEngine/internal/service/assignment"
	bookingsService "github.com/m04kA/SMC-ReservationEngine/internal/service/bookings"
	"github.com/m04kA/SMC-ReservationEngine/internal/service/catalog"
	"github.com/m04kA/SMC-ReservationEngine/internal/service/locks"
	"github.com/m04kA/SMC-ReservationEngine/internal/service/packages"
	createBookingUC "github.com/m04kA/SMC-ReservationEngine/internal/usecase/create_booking"
	getAvailableSlotsUC "github.com/m04kA/SMC-ReservationEngine/internal/usecase/get_available_slots"
	rescheduleBookingUC "github.com/m04kA/SMC-ReservationEngine/internal/usecase/reschedule_booking"
	"github.com/m04kA/SMC-ReservationEngine/internal/worker/locksweeper"
	"github.com/m04kA/SMC-ReservationEngine/pkg/logger"
	"github.com/m04kA/SMC-ReservationEngine/pkg/metrics"
)

func main() {
	// Загружаем конфигурацию
	cfg, err := config.Load("config.toml")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Инициализируем логгер
	log, err := logger.New(cfg.Logs.File, cfg.Logs.Level)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()

	log.Info("Starting SMC-ReservationEngine (storage=%s)...", cfg.Storage.Driver)

	// Инициализируем метрики (если включены)
	var metricsCollector *metrics.Metrics
	if cfg.Metrics.Enabled {
		metricsCollector = metrics.New(cfg.Metrics.ServiceName)
		log.Info("Metrics enabled at %s", cfg.Metrics.Path)
	}

	// Хранилище
	var repos *repositories
	switch cfg.Storage.Driver {
	case config.StorageDriverMemory:
		repos, err = openMemory(cfg, log)
	default:
		repos, err = openPostgres(cfg, metricsCollector, log)
	}
	if err != nil {
		log.Fatal("Failed to initialize storage: %v", err)
	}
	defer repos.close()

	// Доставка событий после фиксации
	var sink notifier.Sink = notifier.NewLogSink(log)
	if cfg.Redis.Enabled {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()

		pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			log.Warn("Redis is not reachable at %s, event publishing will fail until it recovers: %v", cfg.Redis.Addr, err)
		}
		cancel()

		sink = notifier.NewRedisSink(redisClient, cfg.Redis.ListKey, cfg.Redis.Channel)
		log.Info("Events are published to redis list=%s channel=%s", cfg.Redis.ListKey, cfg.Redis.Channel)
	}
	dispatcher := notifier.NewDispatcher(sink, metricsCollector, log, cfg.Booking.EventQueueSize)

	// Инициализируем сервисы
	slotCatalog := catalog.NewService(repos.slots, repos.schedules, repos.catalog, log)
	assigner := assignment.NewService(repos.bookings, repos.catalog, repos.rotation, log)
	packageLedger := packages.NewService(repos.packages, log)
	lockManager := locks.NewService(
		repos.catalog,
		repos.slots,
		repos.locks,
		slotCatalog,
		assigner,
		repos.tx,
		metricsCollector,
		log,
		cfg.Booking.LockTTL(),
	)
	bookingSvc := bookingsService.NewService(
		repos.bookings,
		repos.slots,
		repos.catalog,
		packageLedger,
		dispatcher,
		repos.tx,
		metricsCollector,
		log,
	)

	// Инициализируем use cases
	getAvailableSlotsUseCase := getAvailableSlotsUC.NewUseCase(
		repos.catalog,
		slotCatalog,
		repos.locks,
		assigner,
		log,
	)
	createBookingUseCase := createBookingUC.NewUseCase(
		repos.catalog,
		repos.slots,
		repos.bookings,
		lockManager,
		assigner,
		packageLedger,
		dispatcher,
		repos.tx,
		metricsCollector,
		log,
	)
	rescheduleBookingUseCase := rescheduleBookingUC.NewUseCase(
		repos.catalog,
		repos.slots,
		repos.bookings,
		lockManager,
		assigner,
		dispatcher,
		repos.tx,
		metricsCollector,
		log,
	)

	// Настраиваем роутер
	r := mux.NewRouter()
	r.Use(middleware.SessionMiddleware())

	if cfg.Metrics.Enabled {
		r.Use(middleware.MetricsMiddleware(metricsCollector))
		r.Handle(cfg.Metrics.Path, promhttp.Handler()).Methods(http.MethodGet)
		log.Info("Prometheus metrics endpoint exposed at %s", cfg.Metrics.Path)
	}

	var checkoutMiddlewares []mux.MiddlewareFunc
	var rateLimiter *middleware.SessionRateLimiter
	if cfg.RateLimit.Enabled {
		rateLimiter = middleware.NewSessionRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst, log)
		checkoutMiddlewares = append(checkoutMiddlewares, rateLimiter.Middleware())
		log.Info("Checkout rate limit enabled: rps=%.2f burst=%d", cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	}

	api.RegisterRoutes(r, api.Handlers{
		GetAvailableSlots:   getAvailableSlotsHandler.NewHandler(getAvailableSlotsUseCase, log),
		AcquireLock:         acquireLockHandler.NewHandler(lockManager, log),
		ReleaseLock:         releaseLockHandler.NewHandler(lockManager, log),
		CreateBooking:       createBookingHandler.NewHandler(createBookingUseCase, log),
		GetBooking:          getBookingHandler.NewHandler(bookingSvc, log),
		RescheduleBooking:   rescheduleBookingHandler.NewHandler(rescheduleBookingUseCase, log),
		CancelBooking:       cancelBookingHandler.NewHandler(bookingSvc, log),
		UpdateBookingStatus: updateBookingStatusHandler.NewHandler(bookingSvc, log),
		GetCustomerBookings: getCustomerBookingsHandler.NewHandler(bookingSvc, log),
		GetCustomerPackages: getCustomerPackagesHandler.NewHandler(packageLedger, log),
	}, checkoutMiddlewares...)

	// Создаем HTTP сервер
	addr := fmt.Sprintf(":%d", cfg.Server.HTTPPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("Starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return locksweeper.New(lockManager, cfg.Booking.SweepInterval(), log).Run(gctx)
	})

	if rateLimiter != nil {
		g.Go(func() error {
			return rateLimiter.Run(gctx)
		})
	}

	// Graceful shutdown
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(
			context.Background(),
			time.Duration(cfg.Server.ShutdownTimeout)*time.Second,
		)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("Server forced to shutdown: %v", err)
		}
		if err := dispatcher.Close(shutdownCtx); err != nil {
			log.Error("Event dispatcher did not drain: %v", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error("Service stopped with error: %v", err)
		return
	}

	log.Info("Server stopped gracefully")
}
