package routes

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/AbdRaqeeb/fastfood-api/internal/cache"
	"github.com/AbdRaqeeb/fastfood-api/internal/config"
	"github.com/AbdRaqeeb/fastfood-api/internal/handlers"
	"github.com/AbdRaqeeb/fastfood-api/internal/middleware"
	"github.com/AbdRaqeeb/fastfood-api/internal/models"
	"github.com/AbdRaqeeb/fastfood-api/internal/services"
)

// Dependencies are the external collaborators built in main.
type Dependencies struct {
	Cache    cache.Store
	Uploader services.ImageUploader
	Notifier services.OrderNotifier
}

// Register wires up all HTTP routes.
func Register(app *fiber.App, db *gorm.DB, cfg *config.Config, deps Dependencies) {
	if deps.Uploader == nil {
		deps.Uploader = services.DisabledUploader{}
	}

	rc := handlers.NewResponseCache(deps.Cache, cfg.CacheTTL)
	orderService := services.NewOrderService(db, services.OrderServiceOptions{
		Timeout:           cfg.OrderTxTimeout,
		ReferenceLength:   cfg.ReferenceLength,
		ReferenceAttempts: cfg.ReferenceAttempts,
		Notifier:          deps.Notifier,
	})

	authHandler := handlers.NewAuthHandler(db, cfg, rc)
	profileHandler := handlers.NewProfileHandler(db, deps.Uploader, rc)
	adminHandler := handlers.NewAdminHandler(db, rc)
	catalogHandler := handlers.NewCatalogHandler(db, deps.Uploader, rc)
	foodHandler := handlers.NewFoodHandler(db, deps.Uploader, rc)
	orderHandler := handlers.NewOrderHandler(orderService)

	authRequired := middleware.AuthMiddleware(cfg)
	adminOnly := middleware.Authorize(models.RoleAdmin)
	staffOnly := middleware.Authorize(models.RoleAdmin, models.RoleCook)
	customerOnly := middleware.Authorize(models.RoleUser)

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"success": true, "status": "ok"})
	})

	api := app.Group("/api")

	// Registration
	users := api.Group("/users")
	users.Post("/", authHandler.Register(models.RoleUser))
	users.Post("/cook", authHandler.Register(models.RoleCook))
	users.Post("/admin", authHandler.Register(models.RoleAdmin))

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/", authHandler.Login(models.RoleUser))
	auth.Post("/cook", authHandler.Login(models.RoleCook))
	auth.Post("/admin", authHandler.Login(models.RoleAdmin))
	auth.Get("/", authRequired, authHandler.LoggedAccount)

	// Profile
	profile := api.Group("/profile", authRequired)
	profile.Put("/", profileHandler.UpdateProfile)
	profile.Put("/password", profileHandler.ChangePassword)
	profile.Put("/upload", profileHandler.UploadPhoto)

	// Admin
	admin := api.Group("/admin", authRequired, adminOnly)
	admin.Get("/customers", adminHandler.ListCustomers)
	admin.Get("/cooks", adminHandler.ListCooks)
	admin.Get("/stats", adminHandler.DashboardStats)

	// Catalog
	categories := api.Group("/categories")
	categories.Get("/", catalogHandler.ListCategories)
	categories.Get("/:id", catalogHandler.GetCategory)
	categories.Post("/", authRequired, adminOnly, catalogHandler.CreateCategory)
	categories.Put("/:id", authRequired, adminOnly, catalogHandler.UpdateCategory)
	categories.Delete("/:id", authRequired, adminOnly, catalogHandler.DeleteCategory)

	foodHandler.RegisterFoodRoutes(api.Group("/foods"), authRequired, adminOnly)

	// Orders
	orders := api.Group("/orders", authRequired)
	orders.Post("/", customerOnly, orderHandler.CreateOrder)
	orders.Get("/user", customerOnly, orderHandler.ListMyOrders)
	orders.Put("/user/:id", customerOnly, orderHandler.RateOrder)
	orders.Get("/", staffOnly, orderHandler.ListOrders)
	orders.Get("/:id", orderHandler.GetOrder)
	orders.Put("/:id", staffOnly, orderHandler.UpdateOrder)
	orders.Delete("/:id", adminOnly, orderHandler.DeleteOrder)
}
