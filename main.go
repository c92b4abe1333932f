package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"game-arena-system/handlers"
	"game-arena-system/middleware"
	"game-arena-system/models"
	"game-arena-system/services"
	"game-arena-system/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	cfg := services.LoadArenaConfig()

	app := fiber.New(fiber.Config{
		BodyLimit: 1 * 1024 * 1024, // 1MB — moves and digests are tiny
	})

	// 🔐 GLOBAL: only Gateway requests allowed (skipped in dev without token)
	app.Use(middleware.GatewayAuthMiddleware())

	allowedOriginsEnv := os.Getenv("ALLOWED_ORIGINS")
	if allowedOriginsEnv == "" {
		log.Println("⚠️  ALLOWED_ORIGINS environment variable not set, using default: http://localhost:3000")
		allowedOriginsEnv = "http://localhost:3000"
	}
	allowedOriginsList := strings.Split(allowedOriginsEnv, ",")
	for i, origin := range allowedOriginsList {
		allowedOriginsList[i] = strings.TrimSpace(origin)
	}
	allowedOriginsString := strings.Join(allowedOriginsList, ",")

	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOriginsString,
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, X-Player-Address",
		ExposeHeaders:    "Content-Length, Content-Type, X-Request-ID",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&models.Wallet{},
		&models.LedgerEntry{},
		&models.Match{},
		&models.PlayerStats{},
		&models.Tournament{},
		&models.TournamentRegistration{},
		&models.BracketMatch{},
	); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	ledgerService := services.NewLedgerService(db)
	matchService := services.NewMatchService(db, ledgerService, cfg)
	tournamentService := services.NewTournamentService(db, ledgerService, cfg)
	statsService := services.NewStatsService(db)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	auditor := workers.NewEscrowAuditor(db)
	go workers.PollEscrow(ctx, auditor, 30*time.Second)

	staleScheduler, err := matchService.StartStaleEscrowReporter()
	if err != nil {
		log.Fatal("failed to start stale escrow reporter:", err)
	}
	defer func() { _ = staleScheduler.Shutdown() }()

	handlers.SetupMatchRoutes(app, matchService, ledgerService, cfg)
	handlers.SetupTournamentRoutes(app, tournamentService, cfg)
	handlers.SetupStatsRoutes(app, statsService, matchService)

	port := os.Getenv("PORT")
	if port == "" {
		port = "5300"
	}

	go func() {
		if err := app.Listen(":" + port); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Printf("✅ Server running on http://localhost:%s", port)
	log.Println("✅ Escrow audit worker running (every 30s)")
	log.Printf("✅ Platform fee: %d bps → %s", cfg.PlatformFeeBps, cfg.TreasuryAddress)
	log.Printf("✅ CORS configured for origins: %s", allowedOriginsString)

	<-ctx.Done()
	log.Println("Shutting down server...")
}
