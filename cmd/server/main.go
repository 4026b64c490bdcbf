// Command server is the application entry point. It wires the repositories,
// services, and HTTP layer together and runs until interrupted.
package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"eventreserve/config"
	_ "eventreserve/docs"
	"eventreserve/internal/adapters/auth"
	delivery "eventreserve/internal/delivery/http"
	"eventreserve/internal/delivery/http/controllers"
	"eventreserve/internal/delivery/http/middleware"
	"eventreserve/internal/jobs"
	"eventreserve/internal/repository/postgres"
	"eventreserve/internal/services"
)

const bcryptCost = 10

// @title Event Reservation API
// @version 1.0
// @description Capacity-bounded event reservations.
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Exit(1)
	}
	logger := config.NewLogger()

	db, err := sql.Open("postgres", cfg.DBUrl)
	if err != nil {
		logger.Error("open database", "err", err)
		os.Exit(1)
	}
	defer db.Close()
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		logger.Error("ping database", "err", err)
		os.Exit(1)
	}
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		logger.Error("ensure schema", "err", err)
		os.Exit(1)
	}

	// Repositories
	eventRepo := postgres.NewEventRepository(db)
	reservationRepo := postgres.NewReservationRepository(db)
	userRepo := postgres.NewUserRepository(db)

	// Adapters
	tokens := auth.NewJWTTokens(cfg.JWTSecret)
	hasher := auth.NewBcryptHasher(bcryptCost)

	// Services
	reservationService := services.NewReservationService(eventRepo, reservationRepo, logger, cfg.ServiceTimeout)
	eventService := services.NewEventService(eventRepo, logger, cfg.ServiceTimeout)
	authService := services.NewAuthService(userRepo, hasher, tokens)
	userService := services.NewUserService(userRepo, reservationRepo, eventRepo, logger, cfg.ServiceTimeout)

	// Controllers
	authController := controllers.NewAuthController(logger, authService)
	eventController := controllers.NewEventController(logger, eventService)
	reservationController := controllers.NewReservationController(logger, reservationService)
	userController := controllers.NewUserController(logger, userService)

	mux := delivery.NewRouter(authController, eventController, reservationController, userController, tokens)
	handler := middleware.CORS(cfg.CORSAllowedOrigins, middleware.LoggingMiddleware(logger, mux))

	reconciler := jobs.NewReconciler(eventRepo, logger, cfg.ReconcileInterval, cfg.ReconcileGrace)
	reconciler.Start()
	defer reconciler.Stop()

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "port", cfg.Port, "env", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "err", err)
	}
}
