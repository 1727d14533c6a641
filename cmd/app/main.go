package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/BurakkYuce/rental-backend/config"
	"github.com/BurakkYuce/rental-backend/internal/bootstrap"
	"github.com/BurakkYuce/rental-backend/internal/cache"
	"github.com/BurakkYuce/rental-backend/internal/kafka"
	"github.com/BurakkYuce/rental-backend/internal/logging"
	"github.com/BurakkYuce/rental-backend/internal/migrate"
	"github.com/BurakkYuce/rental-backend/internal/pricing"
	"github.com/BurakkYuce/rental-backend/internal/repository"
	"github.com/BurakkYuce/rental-backend/internal/service/booking"
	"github.com/BurakkYuce/rental-backend/internal/service/cars"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	log := logging.New(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Error("connect postgres", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if cfg.Database.MigrateOnBoot {
		if err := migrate.Up(ctx, pool); err != nil {
			log.Error("apply migrations", "error", err)
			os.Exit(1)
		}
	}

	redisCache := cache.NewRedisCache(cfg.Redis, cfg.Booking.CarsCacheTTL())
	defer redisCache.Close()
	idempotency := cache.NewIdempotencyStore(redisCache.Client(), cfg.Booking.IdempotencyTTL())

	producer := kafka.NewProducer(cfg.Kafka.Brokers, log)
	defer producer.Close()
	if err := producer.CheckConnection(ctx); err != nil {
		log.Warn("kafka unavailable, booking events will be dropped until it recovers", "error", err)
	}

	resolver := pricing.NewResolver(pricing.WithMultipliers(pricing.Multipliers{
		Weekly:  decimal.NewFromInt(int64(cfg.Pricing.WeeklyMultiplier)),
		Monthly: decimal.NewFromInt(int64(cfg.Pricing.MonthlyMultiplier)),
	}))

	carService := cars.NewCarService(repository.NewCarRepository(pool), redisCache, resolver, log)
	bookingService := booking.NewBookingService(
		repository.NewBookingRepository(pool),
		carService,
		producer,
		cfg.Kafka.BookingEventsTopic,
		booking.WithNotificationsTopic(cfg.Kafka.NotificationsTopic),
		booking.WithLogger(log),
	)

	if err := bootstrap.Run(ctx, cfg, bootstrap.Deps{
		Cars:        carService,
		Bookings:    bookingService,
		Idempotency: idempotency,
		Log:         log,
	}); err != nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
