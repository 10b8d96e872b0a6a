package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Hanafy91/buddytour/api"
	"github.com/Hanafy91/buddytour/config"
	"github.com/gin-gonic/gin"
)

// Run starts the HTTP server and blocks until the context is canceled or the
// server fails.
func Run(ctx context.Context, cfg *config.Config, bookings *api.BookingHandler, payments *api.PaymentHandler) error {
	router := gin.Default()

	bookings.Register(router.Group("/api/bookings"))
	bookings.RegisterAvailability(router.Group("/api/availability"))
	payments.Register(router.Group("/api/payments"))

	httpSrv := &http.Server{
		Addr:    cfg.HTTP.Address,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- httpSrv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	}
}
