package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"time"

	"trade-backend/internal/archive"
	"trade-backend/internal/auth"
	"trade-backend/internal/cache"
	"trade-backend/internal/config"
	"trade-backend/internal/database"
	"trade-backend/internal/db"
	"trade-backend/internal/handlers"
	"trade-backend/internal/health"
	internalhttp "trade-backend/internal/http"
	"trade-backend/internal/middleware"
	"trade-backend/internal/realtime"
	"trade-backend/internal/repositories"
	"trade-backend/internal/services"
)

func main() {
	port := flag.Int("port", 0, "Server port (overrides config)")
	flag.Parse()

	// Load configuration
	cfg := config.Load()
	if *port != 0 {
		cfg.Server.Port = *port
	}

	// Connect to PostgreSQL
	pool := db.Connect(cfg)
	defer pool.Close()

	// Initialize Redis cache (optional - graceful fallback if unavailable)
	if err := cache.Init(); err != nil {
		log.Printf("[Redis] Cache unavailable: %v (stock lists served from database)", err)
	} else {
		log.Println("[Redis] Cache connected successfully")
	}

	// Run database migrations on startup from the embedded files
	migrator := database.NewMigrator(pool)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := migrator.RunMigrations(ctx); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Initialize health checker
	healthChecker := health.NewHealthChecker(pool)

	// Initialize JWT manager
	jwtManager := auth.NewJWTManager(cfg)

	// Initialize repositories
	userRepo := repositories.NewUserRepository(pool)
	mappingRepo := repositories.NewProductMappingRepository(pool)
	stockRepo := repositories.NewProductStockRepository(pool)
	movementRepo := repositories.NewStockMovementRepository(pool)
	challanRepo := repositories.NewDeliveryChallanRepository(pool)

	// Start the real-time stock update hub
	hub := realtime.NewHub()
	go hub.Run()

	// Initialize services. The challan and stock services share one lock set
	// so issuance and receipt for the same product never interleave.
	locks := services.NewProductLocks()

	userService := services.NewUserService(userRepo, jwtManager)
	mappingService := services.NewMappingService(mappingRepo)
	challanService := services.NewChallanService(challanRepo, stockRepo, mappingRepo, locks)
	challanService.SetNotifier(hub)
	stockService := services.NewStockService(stockRepo, mappingRepo, movementRepo, locks)
	stockService.SetNotifier(hub)

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(jwtManager, userRepo)
	corsMiddleware := middleware.NewCORS(cfg)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(userService)
	challanHandler := handlers.NewDeliveryChallanHandler(challanService)
	stockHandler := handlers.NewStockHandler(stockService)
	mappingHandler := handlers.NewProductMappingHandler(mappingService)
	healthHandler := handlers.NewHealthHandler(healthChecker)
	statsHandler := handlers.NewStatsHandler(pool, hub)

	router := internalhttp.NewRouter(
		authHandler,
		challanHandler,
		stockHandler,
		mappingHandler,
		healthHandler,
		statsHandler,
		hub,
		authMiddleware,
	)

	// Start the off-site challan archive scheduler
	archiver := archive.NewScheduler(cfg, challanRepo)
	archiver.Start()
	defer archiver.Stop()

	handler := middleware.PanicRecovery(
		middleware.MetricsMiddleware(
			corsMiddleware(router),
		),
	)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Printf("Server listening on %s", addr)
	log.Fatal(http.ListenAndServe(addr, handler))
}
