package routes

import (
	"github.com/go-redis/redis/v8"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/lowilleq/exterra/internal/config"
	"github.com/lowilleq/exterra/internal/handlers"
	"github.com/lowilleq/exterra/internal/i18n"
	"github.com/lowilleq/exterra/internal/middleware"
	"github.com/lowilleq/exterra/internal/repository"
	"github.com/lowilleq/exterra/internal/services"
)

// Services are the long-lived collaborators main builds and shuts down.
type Services struct {
	Redis    *redis.Client
	Recorder *services.ScanRecorder
	Storage  services.ObjectStorage
	Notifier services.CustomerNotifier
}

// Register wires up all HTTP routes.
func Register(app *fiber.App, db *gorm.DB, cfg *config.Config, svc Services) {
	defaultLocale, ok := i18n.Normalize(cfg.DefaultLocale)
	if !ok {
		defaultLocale = i18n.Default
	}

	productRepo := repository.NewProductRepository(db)
	customerRepo := repository.NewCustomerRepository(db)
	scanRepo := repository.NewScanRepository(db)
	adminRepo := repository.NewAdminRepository(db)

	var productCache services.ProductCache = services.NoopProductCache{}
	if svc.Redis != nil {
		productCache = services.NewRedisProductCache(svc.Redis, cfg.ProductCacheTTL)
	}

	resolverOpts := []services.ResolverOption{}
	if svc.Notifier != nil {
		resolverOpts = append(resolverOpts, services.WithCustomerNotifier(svc.Notifier))
	}
	resolver := services.NewIdentityResolver(customerRepo, cfg.IdentityTTL, resolverOpts...)

	recorder := svc.Recorder
	if recorder == nil {
		recorder = services.NewScanRecorder(scanRepo, nil, cfg.ScanTimeout)
	}

	pageHandler := handlers.NewPageHandler(defaultLocale)
	productHandler := handlers.NewProductHandler(productRepo, productCache, resolver, recorder, cfg)
	authHandler := handlers.NewAuthHandler(adminRepo, cfg)
	catalogHandler := handlers.NewCatalogHandler(productRepo, productCache, svc.Storage, cfg)
	adminHandler := handlers.NewAdminHandler(productRepo, customerRepo, scanRepo, cfg)

	app.Static(services.UploadsPrefix, cfg.UploadDir)

	api := app.Group("/api")

	// Admin auth
	adminAPI := api.Group("/admin")
	adminAPI.Post("/login", authHandler.Login)
	adminAPI.Post("/logout", authHandler.Logout)

	// Protected admin routes
	protected := adminAPI.Group("", middleware.AuthMiddleware(cfg))
	protected.Get("/me", authHandler.Me)
	protected.Get("/stats", adminHandler.DashboardStats)
	protected.Get("/scans", adminHandler.ListScans)
	protected.Get("/customers", adminHandler.ListCustomers)
	protected.Get("/customers/:email", adminHandler.GetCustomer)

	products := protected.Group("/products")
	products.Get("/", catalogHandler.ListProducts)
	products.Post("/", catalogHandler.CreateProduct)
	products.Post("/import", catalogHandler.ImportProducts)
	products.Get("/:id", catalogHandler.GetProduct)
	products.Put("/:id", catalogHandler.UpdateProduct)
	products.Delete("/:id", catalogHandler.DeleteProduct)
	products.Post("/:id/image", catalogHandler.UploadImage)
	products.Get("/:id/qr", catalogHandler.ProductQR)

	api.Use(func(c *fiber.Ctx) error {
		return fiber.ErrNotFound
	})

	// Pages
	app.Get("/", pageHandler.Root)

	localized := app.Group("/:locale", middleware.Locale(defaultLocale), middleware.IdentityCache(cfg, svc.Redis))
	localized.Get("/", pageHandler.Home)

	product := localized.Group("/product/:id")
	product.Get("/", productHandler.Show)
	product.Post("/register", productHandler.Register)
	product.Post("/forget", productHandler.Forget)

	localized.Get("/admin/login", authHandler.LoginPage)
	localized.Get("/admin", middleware.AdminPageGuard(cfg), adminHandler.Dashboard)
}
