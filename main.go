// File: carvia/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"carvia/config"
	"carvia/cron"
	"carvia/database"
	bookingRepo "carvia/database/repository/booking"
	"carvia/handlers"
	"carvia/middleware"
	"carvia/routes"
	"carvia/services/access"
	"carvia/services/booking"
	"carvia/services/payment"
	"carvia/services/tasks"
	"carvia/services/tracking"
	"carvia/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	database.InitDB()
	utils.InitPaymentCache()

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	router.Use(cors.Default())
	router.Use(middleware.RateLimitMiddleware())

	// repositories.
	bookings := bookingRepo.NewMongoBookingRepo()

	// services.
	guard := access.NewGuard(bookings, logger)

	hub := tracking.NewHub(guard, bookings, bookings, logger)

	bookingService := &booking.DefaultBookingService{
		Repo:   bookings,
		Relay:  hub,
		Logger: logger,
	}

	asynqClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisTaskDB,
	})
	defer asynqClient.Close()

	paymentAdapter := &payment.Adapter{
		Sessions: payment.NewSessionStore(utils.GetPaymentCacheClient()),
		Safepay: payment.NewSafepayGateway(
			config.AppConfig.SafepayBaseURL,
			config.AppConfig.SafepayAPIKey,
			config.AppConfig.SafepayReturnURL,
			config.AppConfig.SafepayCancelURL,
			!config.IsProduction(),
		),
		Easypay: payment.NewEasypayGateway(
			config.AppConfig.EasypayStoreID,
			config.AppConfig.EasypayCallbackURL,
			config.AppConfig.EasypaySandbox,
		),
		Bookings: bookingService,
		Expiry:   tasks.NewScheduler(asynqClient),
		Logger:   logger,
	}

	cron.InitPaymentExpiryWorker(paymentAdapter)

	bookingHandler := handlers.NewBookingHandler(bookingService, guard, logger)
	paymentHandler := handlers.NewPaymentHandler(paymentAdapter, logger)
	trackingHandler := handlers.NewTrackingHandler(hub, guard, logger)

	routes.RegisterRoutes(router, bookingHandler, paymentHandler, trackingHandler)

	// Start the HTTP server.
	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Fatalf("main: server forced to shutdown: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
