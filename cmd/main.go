package main

import (
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"Printly/internal/customization"
	"Printly/internal/database"
	"Printly/internal/escrow"
	"Printly/internal/finance"
	"Printly/internal/handlers"
	"Printly/internal/logger"
	"Printly/internal/repository"
	"Printly/internal/routes"
	"Printly/internal/services"
)

func main() {
	// Load .env file; the deployment may provide the environment instead
	_ = godotenv.Load()

	if err := logger.Init(os.Getenv("APP_ENV")); err != nil {
		panic(err)
	}
	defer logger.Sync()
	log := logger.Get()

	// Connect to database
	if err := database.Connect(); err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer database.Close()

	// Run migrations
	if err := database.Migrate(); err != nil {
		log.Fatal("failed to migrate database", zap.Error(err))
	}

	// Repositories
	customizations := repository.NewCustomizationRepository(database.DB)
	orders := repository.NewOrderRepository(database.DB)
	earnings := repository.NewEarningsRepository(database.DB)
	profiles := repository.NewProfileRepository(database.DB)
	products := repository.NewProductRepository(database.DB)

	// Services
	notifications := services.NewNotificationService()
	paystack := services.NewPaystackService()
	uploads, err := services.NewCloudinaryService()
	if err != nil {
		log.Fatal("failed to initialize Cloudinary service", zap.Error(err))
	}

	settlement := escrow.NewService(database.DB, escrow.Config{}, log)
	lifecycle := customization.NewService(database.DB, notifications, log)

	currency := os.Getenv("PAYMENT_CURRENCY")
	if currency == "" {
		currency = "NGN"
	}
	financeSvc := finance.NewService(
		customizations, orders, earnings, profiles, products,
		settlement, currency, log,
	)

	// Handlers
	customizationHandler := handlers.NewCustomizationHandler(lifecycle, customizations, profiles, uploads)
	paymentHandler := handlers.NewPaymentHandler(lifecycle, customizations, paystack)
	financeHandler := handlers.NewFinanceHandler(financeSvc)
	orderHandler := handlers.NewOrderHandler(orders)

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:   "Printly API v1.0",
		BodyLimit: 10 * 1024 * 1024,
	})

	// Middleware
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "[${time}] ${status} - ${method} ${path} (${latency})\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))

	// Health check routes
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "Welcome to Printly API",
			"status":  "running",
			"version": "1.0",
		})
	})

	// Setup application routes
	routes.SetupRoutes(app)
	routes.SetupCustomizationRoutes(app, customizationHandler, paymentHandler)
	routes.SetupFinanceRoutes(app, financeHandler)
	routes.SetupOrderRoutes(app, orderHandler)
	routes.SetupNotificationRoutes(app)

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Info("Printly server starting", zap.String("port", port))
	if err := app.Listen(":" + port); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}
