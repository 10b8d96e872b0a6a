package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Hanafy91/buddytour/config"
	"github.com/Hanafy91/buddytour/internal/cache"
	"github.com/Hanafy91/buddytour/internal/email"
	"github.com/Hanafy91/buddytour/internal/kafka"
	"github.com/Hanafy91/buddytour/internal/repository"
	"github.com/Hanafy91/buddytour/internal/service/booking"
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

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	producer := kafka.NewProducer(cfg.Kafka.Brokers)
	defer producer.Close()
	redisCache := cache.NewRedisCache(cfg.Redis, time.Duration(cfg.Booking.AvailabilityCacheTTL)*time.Second)

	bookingRepo := repository.NewBookingRepository(pool, cfg.Booking.MaxGroupSize)
	sessionRepo := repository.NewSessionRepository(pool)
	bookingService := booking.NewBookingService(
		bookingRepo,
		sessionRepo,
		redisCache,
		producer,
		cfg.Kafka.BookingTopic,
		cfg.Booking.MaxGroupSize,
		time.Duration(cfg.Booking.PendingTTLMinutes)*time.Minute,
	)

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.NotificationsTopic)
	defer consumer.Close()

	emailSender := email.NewSender(cfg.Email)

	go func() {
		if err := consumer.Consume(ctx, "send_confirmation", func(ctx context.Context, event kafka.BookingEvent) error {
			if err := emailSender.SendConfirmation(ctx, event.Email, event.FullName, event.BookingRef, event.AmountCents); err != nil {
				log.Printf("send confirmation for booking %s: %v", event.BookingRef, err)
			}
			return nil
		}); err != nil {
			log.Printf("consumer stopped: %v", err)
		}
	}()

	expireTicker := time.NewTicker(time.Duration(cfg.Worker.ExpirationSweepMinutes) * time.Minute)
	defer expireTicker.Stop()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-expireTicker.C:
			expired, err := bookingService.ExpirePendingBookings(ctx)
			if err != nil {
				log.Printf("expire bookings error: %v", err)
				continue
			}
			if len(expired) > 0 {
				log.Printf("expired %d bookings", len(expired))
			}
		case s := <-sig:
			log.Printf("received signal %v, shutting down", s)
			return
		}
	}
}
