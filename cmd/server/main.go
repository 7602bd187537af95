// Package main is the entry point for the application.
// It initializes all dependencies, sets up the HTTP server,
// and starts the application.
package main

import (
	"log"
	"time"

	"safarpay/internal/config"
	"safarpay/internal/events"
	"safarpay/internal/repositories"
	"safarpay/internal/routes"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
)

// main initializes and starts the HTTP server.
// It performs the following setup:
// - Loads configuration
// - Initializes database and cache connections
// - Connects the event publisher
// - Configures routes
// - Starts the HTTP server
func main() {
	config.LoadEnv()

	if err := repositories.InitDB(); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if repositories.DB != nil {
			if sqlDB, err := repositories.DB.DB(); err == nil {
				if err := sqlDB.Close(); err != nil {
					log.Printf("Failed to close database connection: %v", err)
				}
			}
		}
		if repositories.WalletCache != nil {
			if err := repositories.WalletCache.Close(); err != nil {
				log.Printf("Failed to close Redis connection: %v", err)
			}
		}
	}()

	// Events degrade to a logging no-op when the broker is unreachable;
	// wallet commands must not depend on RabbitMQ being up.
	var publisher events.Publisher = events.NoopPublisher{}
	if amqpURL := config.GetEnv("RABBITMQ_URL", ""); amqpURL != "" {
		p, err := events.NewRabbitMQPublisher(amqpURL)
		if err != nil {
			log.Printf("RabbitMQ unavailable, events will be dropped: %v", err)
		} else {
			publisher = p
		}
	}
	defer publisher.Close()

	app := fiber.New()

	app.Use(cors.New(cors.Config{
		AllowOrigins:     config.GetEnv("CORS_ORIGINS", "http://localhost:5173"),
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET,POST,HEAD,PUT,DELETE,PATCH",
		AllowCredentials: true,
	}))

	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	app.Use("/api/wallet", limiter.New(limiter.Config{
		Max:        config.GetIntEnv("RATE_LIMIT_MAX", 60),
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(429).JSON(fiber.Map{
				"error": "Too many requests. Please try again later.",
			})
		},
	}))

	routes.SetupRoutes(app, publisher)

	log.Fatal(app.Listen(":" + config.GetEnv("PORT", "3000")))
}
