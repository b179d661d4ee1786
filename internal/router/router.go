// Package router wires services and handlers into the HTTP API.
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	"spendsight/internal/auth"
	"spendsight/internal/config"
	"spendsight/internal/csvimport"
	_ "spendsight/internal/docs" // swagger docs
	"spendsight/internal/handlers"
	"spendsight/internal/middleware"
	"spendsight/internal/models"
	"spendsight/internal/services"
)

// App is the assembled application: its stores and the gin engine serving them.
type App struct {
	Users      services.UserServicer
	Audit      services.AuditServicer
	Ledger     services.LedgerServicer
	Categories services.CategoryServicer
	Importer   *csvimport.Importer
	Tokens     *auth.TokenIssuer
	Engine     *gin.Engine
}

// NewApp builds every service on db and registers the routes.
func NewApp(cfg *config.Config, db *gorm.DB) *App {
	categories := services.NewCategoryService(nil, nil)
	ledger := services.NewLedger(nil)

	app := &App{
		Users:      services.NewUserService(db),
		Audit:      services.NewAuditService(db),
		Ledger:     ledger,
		Categories: categories,
		Importer: csvimport.NewImporter(ledger,
			csvimport.WithCategorizer(categories),
			csvimport.WithMaxBytes(cfg.ImportMaxBytes),
			csvimport.WithDuplicateWindow(cfg.DuplicateWindow),
		),
		Tokens: auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTExpirationDur),
	}
	app.Engine = app.routes(cfg)
	return app
}

func (a *App) routes(cfg *config.Config) *gin.Engine {
	authHandler := handlers.NewAuthHandler(a.Users, a.Tokens, a.Audit)
	transactionHandler := handlers.NewTransactionHandler(a.Ledger, a.Categories, a.Importer, a.Audit, handlers.TransactionHandlerConfig{
		BaseCurrency:    cfg.BaseCurrency,
		DuplicateWindow: cfg.DuplicateWindow,
	})
	categoryHandler := handlers.NewCategoryHandler(a.Categories, a.Audit)
	currencyHandler := handlers.NewCurrencyHandler(cfg.BaseCurrency)
	auditHandler := handlers.NewAuditHandler(a.Audit)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())
	router.Use(cors())

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "transactions": a.Ledger.Count(), "categories": a.Categories.Count()})
	})

	v1 := router.Group("/api/v1")
	v1.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Public routes
	authRoutes := v1.Group("/auth")
	authRoutes.POST("/register", authHandler.Register)
	authRoutes.POST("/login", authHandler.Login)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware(a.Tokens))

	protected.POST("/auth/logout", authHandler.Logout)
	protected.GET("/profile", authHandler.GetProfile)
	protected.GET("/users", middleware.RequirePermission(models.PermManageUsers), authHandler.ListUsers)

	view := middleware.RequirePermission(models.PermViewTransactions)
	edit := middleware.RequirePermission(models.PermEditTransactions)
	del := middleware.RequirePermission(models.PermDeleteTransactions)
	analytics := middleware.RequirePermission(models.PermViewAnalytics)
	manage := middleware.RequirePermission(models.PermManageCategories)

	transactions := protected.Group("/transactions")
	transactions.GET("", view, transactionHandler.ListTransactions)
	transactions.POST("", edit, transactionHandler.CreateTransaction)
	transactions.DELETE("", del, transactionHandler.ClearTransactions)
	transactions.GET("/stats", analytics, transactionHandler.GetStats)
	transactions.GET("/stats/categories", analytics, transactionHandler.GetCategoryStats)
	transactions.POST("/duplicates", view, transactionHandler.CheckDuplicates)
	transactions.POST("/import", edit, transactionHandler.ImportTransactions)
	transactions.GET("/import", view, transactionHandler.GetImportState)
	transactions.GET("/:id", view, transactionHandler.GetTransaction)
	transactions.PATCH("/:id", edit, transactionHandler.UpdateTransaction)
	transactions.DELETE("/:id", del, transactionHandler.DeleteTransaction)

	categories := protected.Group("/categories")
	categories.GET("", view, categoryHandler.ListCategories)
	categories.POST("", manage, categoryHandler.CreateCategory)
	categories.GET("/hierarchy", view, categoryHandler.GetHierarchy)
	categories.POST("/seed", manage, categoryHandler.SeedDefaults)
	categories.GET("/:id", view, categoryHandler.GetCategory)
	categories.PATCH("/:id", manage, categoryHandler.UpdateCategory)
	categories.DELETE("/:id", manage, categoryHandler.DeleteCategory)
	categories.GET("/:id/subcategories", view, categoryHandler.GetSubcategories)
	categories.GET("/:id/rules", view, categoryHandler.ListRules)
	categories.POST("/:id/rules", manage, categoryHandler.CreateRule)

	rules := protected.Group("/rules")
	rules.PATCH("/:id", manage, categoryHandler.UpdateRule)
	rules.DELETE("/:id", manage, categoryHandler.DeleteRule)

	currencies := protected.Group("/currencies")
	currencies.GET("", currencyHandler.ListCurrencies)
	currencies.GET("/convert", currencyHandler.Convert)

	auditLogs := protected.Group("/audit-logs", middleware.RequirePermission(models.PermViewAuditLogs))
	auditLogs.GET("", auditHandler.ListAuditLogs)
	auditLogs.GET("/stats", auditHandler.GetAuditStats)

	return router
}

func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
