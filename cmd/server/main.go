package main // Entry point package

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/geosense/yard-service/internal/config"
	"github.com/geosense/yard-service/internal/database"
	"github.com/geosense/yard-service/internal/handler"
	"github.com/geosense/yard-service/internal/queue"
	"github.com/geosense/yard-service/internal/repository"
	"github.com/geosense/yard-service/internal/router"
	"github.com/geosense/yard-service/internal/service"
	"github.com/geosense/yard-service/internal/validation"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	// Redis is optional; rate limiting and caching disable themselves
	// when nil.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis: unavailable, rate limit and cache disabled")
	}

	yardRepo := repository.NewYardRepo(db)
	slotRepo := repository.NewSlotRepo(db)
	vehicleRepo := repository.NewVehicleRepo(db)
	userRepo := repository.NewUserRepo(db)
	tokenRepo := repository.NewTokenRepo(db)
	allocationRepo := repository.NewAllocationRepo(db)

	yardSvc := service.NewYardService(db, yardRepo, slotRepo, vehicleRepo)
	vehicleSvc := service.NewVehicleService(db, yardRepo, slotRepo, vehicleRepo, allocationRepo)
	userSvc := service.NewUserService(db, userRepo, tokenRepo, allocationRepo,
		validation.NewStoredFunctionValidator(db), cfg.BcryptCost)
	allocationSvc := service.NewAllocationService(allocationRepo, vehicleRepo, userRepo)

	if cfg.AdminPassword != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := userSvc.SeedAdmin(ctx, cfg.AdminName, cfg.AdminEmail, cfg.AdminPassword); err != nil {
			log.Fatalf("admin seed: %v", err)
		}
		cancel()
	}

	// Consumer reconnects on its own; a dead broker only costs the
	// audit log.
	go func() {
		if err := queue.StartAllocationConsumer(); err != nil {
			log.Printf("queue consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	router.Register(e, router.Handlers{
		Auth:        handler.NewAuthHandler(cfg, userSvc, userRepo, tokenRepo),
		Yards:       handler.NewYardHandler(yardSvc),
		Vehicles:    handler.NewVehicleHandler(vehicleSvc),
		Users:       handler.NewUserHandler(userSvc),
		Allocations: handler.NewAllocationHandler(allocationSvc),
	}, cfg.JWTSecret, rdb)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
