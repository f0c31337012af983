package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"event-escrow/internal/auth"
	"event-escrow/internal/blockchain"
	"event-escrow/internal/config"
	"event-escrow/internal/database"
	"event-escrow/internal/handlers"
	"event-escrow/internal/jobs"
	"event-escrow/internal/lock"
	"event-escrow/internal/metrics"
	"event-escrow/internal/models"
	"event-escrow/internal/repository"
	"event-escrow/internal/services"
	"event-escrow/internal/wallet"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize JWT
	auth.InitJWT(cfg.App.JWTSecret)

	// Connect to database
	switch cfg.Database.Driver {
	case "sqlite":
		err = database.ConnectSQLite(cfg.Database.Path)
	default:
		err = database.Connect(cfg.GetDSN())
	}
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Run migrations
	if err := database.AutoMigrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	admin, err := models.ParseIdentity(cfg.App.AdminWallet)
	if err != nil {
		log.Fatalf("Invalid ADMIN_WALLET: %v", err)
	}
	custodian, err := models.ParseIdentity(cfg.App.CustodianWallet)
	if err != nil {
		log.Fatalf("Invalid CUSTODIAN_WALLET: %v", err)
	}
	operator, err := models.ParseIdentity(cfg.App.OperatorWallet)
	if err != nil {
		log.Fatalf("Invalid OPERATOR_WALLET: %v", err)
	}

	// Height source
	var (
		clock        services.Clock
		solanaClient *blockchain.SolanaClient
	)
	switch cfg.Clock.Source {
	case "local":
		clock = blockchain.NewIntervalClock(cfg.Clock.Genesis, cfg.Clock.Interval)
		log.Printf("Using local height clock (genesis %s, interval %v)", cfg.Clock.Genesis.Format(time.RFC3339), cfg.Clock.Interval)
	default:
		solanaClient = blockchain.NewSolanaClient(cfg.Solana.Network, cfg.Solana.RPCURL)
		clock = blockchain.NewSlotClock(solanaClient)
	}

	// Initialize repository and custody ledger
	repo := repository.NewRepository(database.GetDB())
	ledger := wallet.NewLedger(database.GetDB())

	escrowService, err := services.NewEscrowService(repo, clock, ledger, services.EscrowConfig{
		Custodian:        custodian,
		Admin:            admin,
		DefaultFeeRate:   cfg.App.DefaultFeeRate,
		BetIndexCapacity: cfg.App.BetIndexCapacity,
	})
	if err != nil {
		log.Fatalf("Failed to initialize escrow service: %v", err)
	}

	// Shared writer lock across replicas
	if cfg.Redis.Addr != "" {
		rdb, err := lock.NewRedisClient(context.Background(), lock.RedisConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			log.Fatalf("Failed to connect to redis: %v", err)
		}
		defer rdb.Close()
		escrowService.SetLocker(lock.NewRedis(rdb, "escrow-writer", cfg.Redis.LockTTL))
		log.Printf("Using redis writer lock at %s", cfg.Redis.Addr)
	}

	escrowMetrics := metrics.NewEscrowMetrics()
	escrowService.SetMetrics(escrowMetrics)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler()
	escrowHandler := handlers.NewEscrowHandler(escrowService, ledger)
	adminHandler := handlers.NewAdminHandler(escrowService, ledger, admin)
	healthHandler := handlers.NewHealthHandler(database.GetDB(), clock, solanaClient)

	// Start event closer job
	var eventCloser *jobs.EventCloser
	if cfg.App.EventCloserInterval > 0 {
		eventCloser = jobs.NewEventCloser(escrowService, operator, cfg.App.EventCloserInterval)
		go eventCloser.Start()
		log.Println("Event closer job started")
	}

	// Set up Gin router
	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Health check endpoints
	router.GET("/health", healthHandler.Health)
	router.GET("/health/solana", healthHandler.Solana)
	router.GET("/metrics", gin.WrapH(escrowMetrics.Handler()))

	handlers.RegisterRoutes(router, authHandler, escrowHandler, adminHandler)

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Server starting on port %s", cfg.Server.Port)
		log.Printf("Health check: http://localhost:%s/health", cfg.Server.Port)
		log.Printf("Wallet auth: POST http://localhost:%s/auth/wallet", cfg.Server.Port)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	if eventCloser != nil {
		eventCloser.Stop()
	}

	// Graceful shutdown with 5 second timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}
