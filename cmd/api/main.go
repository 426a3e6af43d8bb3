package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"grocery-dispatch/internal/api"
	"grocery-dispatch/internal/config"
	"grocery-dispatch/internal/modules/orders"
	"grocery-dispatch/internal/modules/quotes"
	"grocery-dispatch/internal/modules/tracking"
	"grocery-dispatch/internal/modules/users"
	"grocery-dispatch/pkg/notify"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

func main() {
	// 1. --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	e := echo.New()

	// 2. --- Middleware ---
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"http://localhost:5173", cfg.ClientOrigin},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	// 3. --- Database Connection ---
	dbConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Unable to parse database configuration: %v", err)
	}

	dbPool, err := pgxpool.NewWithConfig(context.Background(), dbConfig)
	if err != nil {
		log.Fatalf("Unable to create connection pool: %v", err)
	}
	defer dbPool.Close()

	if err := dbPool.Ping(context.Background()); err != nil {
		log.Fatalf("Unable to ping database: %v", err)
	}

	// 4. --- Dependency Injection ---
	// --- Users Module ---
	userRepo := users.NewRepository(dbPool)
	userService := users.NewService(userRepo, cfg.JWTSecret, cfg.AuthTokenTTL())
	userHandler := users.NewHandler(userService)

	// --- Quotes Module ---
	branchRepo := quotes.NewBranchRepository(dbPool)
	quoteService := quotes.NewService(branchRepo, userRepo, cfg.BranchCacheTTL(), cfg.AverageSpeedKmh)
	quoteHandler := quotes.NewHandler(quoteService)

	// --- Notifications ---
	var notifier orders.NotifierInterface
	if cfg.EmailsEnabled {
		sender, err := notify.NewSESV2Sender(context.Background(), cfg.AWSRegion, cfg.EmailFrom)
		if err != nil {
			log.Fatalf("Unable to initialize SES sender: %v", err)
		}
		templates, err := notify.NewTemplateManager()
		if err != nil {
			log.Fatalf("Unable to parse email templates: %v", err)
		}
		notifier = notify.NewOrderNotifier(sender, templates, userRepo)
	}

	// --- Orders Module ---
	orderRepo := orders.NewRepository(dbPool)
	orderService := orders.NewService(orderRepo, quoteService, notifier)
	orderHandler := orders.NewHandler(orderService)

	// --- Live Tracking ---
	trackingHub := tracking.NewHub()
	trackingService := tracking.NewService(orderService, trackingHub)
	trackingHandler := tracking.NewHandler(trackingService)

	// 5. --- Initialize Router ---
	api.SetupRoutes(e,
		userHandler,
		quoteHandler,
		orderHandler,
		trackingHandler,
		cfg.JWTSecret,
	)

	// 6. --- Start Server with graceful shutdown ---
	go func() {
		if err := e.Start(":" + cfg.ServerPort); err != nil && err != http.ErrServerClosed {
			e.Logger.Fatal("shutting down the server, an error occurred:", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		e.Logger.Fatal("Server forced to shutdown:", err)
	}
	log.Println("Server exiting")
}
