package main

import (
	"time"

	"retail-service/internal/handler"
	"retail-service/internal/middleware"
	"retail-service/internal/model"
	"retail-service/pkg/config"
	"retail-service/pkg/database"
	"retail-service/pkg/jwtutil"
	"retail-service/pkg/logger"
	"retail-service/prometheus"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

func main() {
	// Load configuration from .env file and environment variables
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger with config
	logger.InitLogger(cfg)
	log := logger.GetLogger()
	log.Info("Starting retail chain service...", zap.String("environment", cfg.Server.Env))

	// Initialize JWT utilities
	jwtutil.Initialize(&cfg.JWT)
	log.Info("JWT utilities initialized")

	// Initialize Prometheus metrics
	prometheus.InitMetrics(cfg)
	log.Info("Prometheus metrics initialized")

	// Initialize database and run migrations
	if err := database.InitDB(cfg); err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	if err := database.MigrateModels(
		&model.User{},
		&model.Contact{},
		&model.Product{},
		&model.ChainLink{},
		&model.ChainLinkContact{},
		&model.ChainLinkProduct{},
	); err != nil {
		log.Fatal("Failed to run migrations", zap.Error(err))
	}
	log.Info("Database connection established and migrations completed",
		zap.String("db_host", cfg.DB.Host), zap.String("db_name", cfg.DB.DBName))

	// Create Echo instance
	e := echo.New()

	// Middleware
	e.Pre(echomiddleware.RemoveTrailingSlash())
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(middleware.RequestIDMiddleware)
	e.Use(prometheus.HTTPMiddleware())

	// Request logging middleware
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			duration := time.Since(start).Seconds()
			status := c.Response().Status

			log := logger.FromContext(c)
			log.Info("HTTP Request",
				zap.String("method", c.Request().Method),
				zap.String("path", c.Request().URL.Path),
				zap.Int("status", status),
				zap.Float64("duration_s", duration),
				zap.String("ip", c.RealIP()),
			)

			return err
		}
	})

	// Public routes that don't require authentication
	e.GET("/", handler.Hello)
	e.GET("/health", handler.Hello)
	e.GET("/metrics", echo.WrapHandler(prometheus.GetPrometheusHandler()))

	// Open registration and login
	e.POST("/users", handler.RegisterUser)
	e.POST("/token", handler.Login)
	e.POST("/token/refresh", handler.RefreshToken)

	// Contact endpoints
	contacts := e.Group("/contacts", middleware.AuthMiddleware)
	contacts.POST("", handler.CreateContact)
	contacts.GET("", handler.ListContacts)
	contacts.GET("/:id", handler.GetContact)
	contacts.PUT("/:id", handler.UpdateContact)
	contacts.PATCH("/:id", handler.UpdateContact)
	contacts.DELETE("/:id", handler.DeleteContact)

	// Product endpoints
	products := e.Group("/products", middleware.AuthMiddleware)
	products.POST("", handler.CreateProduct)
	products.GET("", handler.ListProducts)
	products.GET("/:id", handler.GetProduct)
	products.PUT("/:id", handler.UpdateProduct)
	products.PATCH("/:id", handler.UpdateProduct)
	products.DELETE("/:id", handler.DeleteProduct)

	// Chain link endpoints
	chain := e.Group("/chain", middleware.AuthMiddleware)
	chain.POST("/create", handler.CreateChainLink)
	chain.GET("/list", handler.ListChainLinks)
	chain.GET("/:id", handler.GetChainLink)
	chain.PUT("/update/:id", handler.UpdateChainLink)
	chain.PATCH("/update/:id", handler.UpdateChainLink)
	chain.DELETE("/delete/:id", handler.DeleteChainLink)
	chain.POST("/reset-dept", handler.ResetDept)

	// User endpoints other than open registration
	users := e.Group("/users", middleware.AuthMiddleware)
	users.GET("", handler.ListUsers)
	users.GET("/:id", handler.GetUser)
	users.PUT("/:id", handler.UpdateUser)
	users.PATCH("/:id", handler.UpdateUser)
	users.DELETE("/:id", handler.DeleteUser)

	// Start server
	port := cfg.Server.Port
	log.Info("Starting server", zap.String("port", port))
	if err := e.Start(":" + port); err != nil {
		log.Fatal("Failed to start server", zap.Error(err))
	}
}
