package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/geosense/yard-service/internal/config"
	"github.com/geosense/yard-service/internal/handler"
	"github.com/geosense/yard-service/internal/middleware"
	"github.com/geosense/yard-service/internal/model"
)

// Handlers groups everything the router mounts.
type Handlers struct {
	Auth        *handler.AuthHandler
	Yards       *handler.YardHandler
	Vehicles    *handler.VehicleHandler
	Users       *handler.UserHandler
	Allocations *handler.AllocationHandler
}

// Register mounts all routes on the Echo instance.  Rate limiting and
// response caching are applied globally when a Redis client is
// available; with rdb == nil both middlewares pass requests through.
//
// Role layout: yard and user administration is ADMIN only; vehicles and
// allocations are day-to-day mechanic work and accept both roles.
func Register(e *echo.Echo, h Handlers, jwtSecret string, rdb *redis.Client) {
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
	e.Use(middleware.NewRedisCache(config.LoadCacheConfig(), rdb))

	e.GET("/healthz", handler.Health)

	// Session endpoints; no JWT required.
	auth := e.Group("/v1/auth")
	auth.POST("/register", h.Auth.Register)
	auth.POST("/login", h.Auth.Login)
	auth.POST("/refresh", h.Auth.Refresh)
	auth.POST("/logout", h.Auth.Logout)

	// Everything below requires a valid access token.
	v1 := e.Group("/v1", middleware.JWTAuth(jwtSecret))

	both := v1.Group("", middleware.RequireRole(model.RoleAdmin, model.RoleMechanic))
	both.GET("/me", h.Auth.Me)
	both.POST("/logout", h.Auth.Logout) // revoke all sessions

	both.GET("/yards", h.Yards.ListYards)
	both.GET("/yards/:id", h.Yards.GetYard)
	both.GET("/yards/:id/slots", h.Yards.ListSlots)

	both.GET("/vehicles", h.Vehicles.ListVehicles)
	both.GET("/vehicles/:id", h.Vehicles.GetVehicle)
	both.POST("/vehicles", h.Vehicles.CreateVehicle)
	both.PUT("/vehicles/:id", h.Vehicles.UpdateVehicle)
	both.DELETE("/vehicles/:id", h.Vehicles.DeleteVehicle)
	both.POST("/vehicles/:id/assign", h.Vehicles.Assign)
	both.POST("/vehicles/:id/release", h.Vehicles.Release)

	both.GET("/allocations", h.Allocations.ListAllocations)
	both.GET("/allocations/:id", h.Allocations.GetAllocation)
	both.POST("/allocations", h.Allocations.CreateAllocation)
	both.POST("/allocations/:id/finalize", h.Allocations.FinalizeAllocation)

	admin := v1.Group("", middleware.RequireRole(model.RoleAdmin))
	admin.POST("/yards", h.Yards.CreateYard)
	admin.PUT("/yards/:id", h.Yards.UpdateYard)
	admin.DELETE("/yards/:id", h.Yards.DeleteYard)
	admin.DELETE("/yards/:id/force", h.Yards.ForceDeleteYard)

	admin.GET("/users", h.Users.ListUsers)
	admin.GET("/users/:id", h.Users.GetUser)
	admin.PUT("/users/:id", h.Users.UpdateUser)
	admin.DELETE("/users/:id", h.Users.DeleteUser)
	admin.DELETE("/users/:id/dependencies", h.Users.DeleteUserDependencies)
}
