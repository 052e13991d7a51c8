package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"catering-backend/internal/audit"
	"catering-backend/internal/auth"
	"catering-backend/internal/config"
	"catering-backend/internal/dailyprep"
	"catering-backend/internal/database"
	"catering-backend/internal/httpx"
	"catering-backend/internal/insumo"
	"catering-backend/internal/locking"
	"catering-backend/internal/logging"
	"catering-backend/internal/menu"
	"catering-backend/internal/models"
	"catering-backend/internal/planning"
	"catering-backend/internal/purchasing"
	"catering-backend/internal/urgent"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

func main() {
	cfg := config.Load()
	log := logging.GetLogger()
	if err := logging.SetLevel(cfg.LogLevel); err != nil {
		log.Fatalf("log level: %v", err)
	}

	database.Init(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := locking.Init(ctx, cfg.RedisAddress); err != nil {
		log.Fatalf("redis: %v", err)
	}
	cancel()
	defer locking.Close()

	app := fiber.New(fiber.Config{ErrorHandler: httpx.ErrorHandler})

	app.Use(recover.New())
	app.Use(logging.RequestLogger())

	corsOrigins := strings.Split(cfg.CORSOrigins, ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(corsOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))

	registerRoutes(app, cfg)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Info("shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Errorf("shutdown: %v", err)
		}
	}()

	log.Infof("listening on :%s", cfg.HTTPPort)
	if err := app.Listen(":" + cfg.HTTPPort); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}

func registerRoutes(app *fiber.App, cfg *config.Config) {
	api := app.Group("/api")

	// Public auth
	api.Post("/auth/register-admin", auth.RegisterAdminHandler())
	api.Post("/auth/login", auth.LoginHandler(cfg.JWTSecret))

	protected := api.Group("")
	protected.Use(auth.JWTMiddleware(cfg.JWTSecret))

	protected.Get("/auth/me", auth.MeHandler())

	adminOnly := auth.RequireRole(models.RoleAdmin)
	buyers := auth.RequireRole(models.RoleAdmin, models.RolePurchasing)
	kitchen := auth.RequireRole(models.RoleAdmin, models.RoleKitchen)

	protected.Post("/users", adminOnly, auth.CreateUserHandler())
	protected.Get("/audit-logs", adminOnly, audit.ListAuditLogsHandler())

	// Insumo catalog
	protected.Get("/insumos", insumo.ListInsumosHandler())
	protected.Get("/insumos/:id", insumo.GetInsumoHandler())
	protected.Get("/insumos/:id/movements", insumo.ListMovementsHandler())
	protected.Post("/insumos", buyers, insumo.CreateInsumoHandler())
	protected.Put("/insumos/:id", buyers, insumo.UpdateInsumoHandler())
	protected.Delete("/insumos/:id", adminOnly, insumo.DeleteInsumoHandler())
	protected.Post("/insumos/:id/count", insumo.CountInsumoHandler())
	protected.Post("/insumos/:id/waste", kitchen, insumo.RecordWasteHandler())
	protected.Get("/waste", insumo.ListWasteHandler())

	// Recipes and menus
	protected.Get("/platos", menu.ListPlatosHandler())
	protected.Get("/platos/:id", menu.GetPlatoHandler())
	protected.Post("/platos", kitchen, menu.CreatePlatoHandler())
	protected.Delete("/platos/:id", kitchen, menu.DeletePlatoHandler())
	protected.Get("/menus", menu.ListMenusHandler())
	protected.Get("/menus/:id", menu.GetMenuHandler())
	protected.Post("/menus", kitchen, menu.CreateMenuHandler())
	protected.Delete("/menus/:id", kitchen, menu.DeleteMenuHandler())

	// Purchases
	purchases := protected.Group("/purchases", buyers)
	purchases.Post("/", purchasing.CreatePurchaseHandler())
	purchases.Get("/", purchasing.ListPurchasesHandler())
	purchases.Get("/:id", purchasing.GetPurchaseHandler())
	purchases.Post("/:id/receive", purchasing.ReceivePurchaseHandler())
	purchases.Post("/:id/cancel", purchasing.CancelPurchaseHandler())
	purchases.Delete("/:id", purchasing.DeletePurchaseHandler())

	// Purchase planning
	needsGroup := protected.Group("/purchase-needs", buyers)
	needsGroup.Get("/", planning.GetPurchaseNeedsHandler())
	needsGroup.Get("/export", planning.ExportPurchaseNeedsHandler())
	needsGroup.Post("/purchase", planning.CreateFromSuggestionHandler())
	needsGroup.Post("/batch", planning.BatchPurchaseHandler())
	needsGroup.Post("/batch/import", planning.ImportBatchHandler())

	// Daily prep
	protected.Get("/daily-prep", dailyprep.GetDailyPrepHandler())
	protected.Post("/daily-prep/deduct", kitchen, dailyprep.DeductHandler())
	protected.Post("/daily-prep/urgent-request", kitchen, dailyprep.UrgentFromPrepHandler())

	// Urgent purchase requests
	protected.Get("/urgent-requests", urgent.ListUrgentRequestsHandler())
	protected.Get("/urgent-requests/:id", urgent.GetUrgentRequestHandler())
	protected.Post("/urgent-requests", urgent.CreateUrgentRequestHandler())
	protected.Post("/urgent-requests/:id/approve", buyers, urgent.ApproveUrgentRequestHandler())
	protected.Post("/urgent-requests/:id/reject", buyers, urgent.RejectUrgentRequestHandler())
	protected.Post("/urgent-requests/:id/fulfill", buyers, urgent.FulfillUrgentRequestHandler())
}
