package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/BurakkYuce/rental-backend/api"
	"github.com/BurakkYuce/rental-backend/config"
	"github.com/BurakkYuce/rental-backend/internal/metrics"
	"github.com/BurakkYuce/rental-backend/internal/middleware"
	"github.com/BurakkYuce/rental-backend/internal/service/booking"
	"github.com/BurakkYuce/rental-backend/internal/service/cars"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	httpSwagger "github.com/swaggo/http-swagger"
)

// Deps are the collaborators the HTTP surface is built from. Idempotency may
// be nil, in which case Idempotency-Key headers are ignored.
type Deps struct {
	Cars        cars.CarUseCase
	Bookings    booking.BookingUseCase
	Idempotency middleware.IdempotencyStore
	Log         *slog.Logger
}

// Run serves the REST API and blocks until ctx is canceled or the server
// fails.
func Run(ctx context.Context, cfg *config.Config, deps Deps) error {
	srv := &http.Server{
		Addr:              cfg.HTTP.Address,
		Handler:           NewRouter(cfg.HTTP, deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		deps.Log.Info("http server listening", "address", cfg.HTTP.Address)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	}
}

func NewRouter(cfg config.HTTPConfig, deps Deps) *gin.Engine {
	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}
	router := gin.New()
	router.Use(middleware.RequestID(), middleware.Logger(deps.Log), middleware.Recovery(deps.Log))
	router.Use(cors.New(corsConfig(cfg.AllowedOrigins)))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	if cfg.SwaggerDir != "" {
		router.StaticFS("/swagger", http.Dir(cfg.SwaggerDir))
		router.GET("/docs/*any", gin.WrapH(httpSwagger.Handler(httpSwagger.URL("/swagger/openapi.json"))))
	}

	v1 := router.Group("/api/v1")
	api.NewCarHandler(deps.Cars).Register(v1.Group("/cars"))

	var idempotent []gin.HandlerFunc
	if deps.Idempotency != nil {
		idempotent = append(idempotent, middleware.Idempotency(deps.Idempotency, deps.Log))
	}
	api.NewBookingHandler(deps.Bookings).Register(v1.Group("/bookings"), idempotent...)

	return router
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	cfg.AllowMethods = []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions}
	cfg.AllowHeaders = append(cfg.AllowHeaders, "Authorization", "Idempotency-Key", "X-Request-ID")
	cfg.ExposeHeaders = []string{"X-Request-ID", "X-Idempotency-Hit", "Content-Disposition"}
	return cfg
}
