package main

import (
	"context"
	"fmt"
	"os"

	"spendsight/internal/config"
	"spendsight/internal/database"
	"spendsight/internal/logger"
	"spendsight/internal/models"
	"spendsight/internal/router"
	"spendsight/internal/validator"
)

// @title           SpendSight API
// @version         1.0
// @description     SpendSight tracks card expenses: CSV import, rule-based categorization and spending statistics.
// @termsOfService  http://swagger.io/terms/

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Initialize logger (use ENV var if available, default to development)
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	// Load configuration
	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize database configuration
	dbConfig, err := database.NewConfig(appConfig)
	if err != nil {
		return fmt.Errorf("failed to load database configuration: %w", err)
	}

	// Create database manager
	dbManager, err := database.NewManager(dbConfig)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}
	defer func() {
		if err := dbManager.Close(); err != nil {
			log.Warnf("database close error: %v", err)
		}
	}()

	// Run migrations
	if err := dbManager.Migrate(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	validator.Register()

	app := router.NewApp(appConfig, dbManager.DB())

	if _, err := app.Users.EnsureUser(context.Background(), appConfig.DemoUserEmail, appConfig.DemoUserPassword, "Demo Owner", models.RoleOwner); err != nil {
		return fmt.Errorf("failed to seed owner account: %w", err)
	}

	if appConfig.SeedDefaultCategories && app.Categories.SeedDefaults() {
		log.Infof("Seeded %d default categories", app.Categories.Count())
	}

	log.Infof("Starting SpendSight server on port %s", appConfig.Port)
	log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
	return app.Engine.Run(":" + appConfig.Port)
}
