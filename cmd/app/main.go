package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Hanafy91/buddytour/api"
	"github.com/Hanafy91/buddytour/config"
	"github.com/Hanafy91/buddytour/internal/bootstrap"
	"github.com/Hanafy91/buddytour/internal/cache"
	"github.com/Hanafy91/buddytour/internal/kafka"
	"github.com/Hanafy91/buddytour/internal/paymob"
	"github.com/Hanafy91/buddytour/internal/repository"
	"github.com/Hanafy91/buddytour/internal/service/booking"
	"github.com/Hanafy91/buddytour/internal/service/payment"
	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	redisCache := cache.NewRedisCache(cfg.Redis, time.Duration(cfg.Booking.AvailabilityCacheTTL)*time.Second)
	producer := kafka.NewProducer(cfg.Kafka.Brokers)
	defer producer.Close()

	bookingRepo := repository.NewBookingRepository(pool, cfg.Booking.MaxGroupSize)
	sessionRepo := repository.NewSessionRepository(pool)
	gateway := paymob.NewClient(cfg.Paymob)
	sink := kafka.NewNotificationSink(producer, cfg.Kafka.NotificationsTopic)

	bookingService := booking.NewBookingService(
		bookingRepo,
		sessionRepo,
		redisCache,
		producer,
		cfg.Kafka.BookingTopic,
		cfg.Booking.MaxGroupSize,
		time.Duration(cfg.Booking.PendingTTLMinutes)*time.Minute,
	)
	paymentService := payment.NewPaymentService(
		bookingRepo,
		sessionRepo,
		gateway,
		sink,
		redisCache,
		redisCache,
		producer,
		cfg.Kafka.BookingTopic,
		cfg.Booking.AdultPriceCents,
		cfg.Booking.ChildPriceCents,
	)

	bookingHandler := api.NewBookingHandler(bookingService)
	paymentHandler := api.NewPaymentHandler(paymentService, cfg.Paymob.HMACSecret)

	if err := bootstrap.Run(ctx, cfg, bookingHandler, paymentHandler); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
