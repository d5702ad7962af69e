package main

import (
	"log"
	"strings"

	"permini-backend/internal/admin"
	"permini-backend/internal/analytics"
	"permini-backend/internal/audit"
	"permini-backend/internal/auth"
	"permini-backend/internal/checkout"
	"permini-backend/internal/config"
	"permini-backend/internal/coupon"
	"permini-backend/internal/database"
	"permini-backend/internal/ledger"
	"permini-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

func main() {
	cfg := config.Load()
	database.Init(cfg)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if e, ok := err.(*fiber.Error); ok {
				return c.Status(e.Code).JSON(fiber.Map{
					"error": e.Message,
				})
			}
			log.Println("Unexpected error:", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Unexpected server error",
			})
		},
	})

	corsOrigins := strings.Split(cfg.CORSOrigins, ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(corsOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))

	gateway := checkout.NewHTTPGateway(cfg.GatewayURL, cfg.GatewayAPIKey, cfg.GatewayTimeout)
	coupons := coupon.NewEngine(coupon.NewGormStore(database.DB))
	engine := checkout.NewEngine(
		checkout.NewGormSchoolStore(database.DB),
		checkout.NewGormRequestStore(database.DB),
		checkout.NewGormLedgerWriter(database.DB),
		coupons,
		gateway,
	)

	api := app.Group("/api")

	// Public auth
	api.Post("/auth/register-school", auth.RegisterSchoolHandler(cfg))
	api.Post("/auth/register-super-admin", auth.RegisterSuperAdminHandler(cfg))
	api.Post("/auth/login", auth.LoginHandler(cfg))

	// Protected
	protected := api.Group("")
	protected.Use(auth.JWTMiddleware(cfg))

	protected.Get("/auth/me", auth.MeHandler())

	// Accounting ledger
	protected.Post("/accounting/entries", ledger.CreateEntryHandler())
	protected.Get("/accounting/entries", ledger.ListEntriesHandler())
	protected.Get("/accounting/summary", analytics.SummaryHandler())

	// Checkout (school admins)
	protected.Post("/checkout/quote", checkout.QuoteHandler(engine))
	protected.Post("/checkout/submit", checkout.SubmitHandler(engine))
	protected.Get("/payment-requests", checkout.ListMyRequestsHandler())

	// Coupon preview, usable while the checkout is still a draft
	protected.Post("/coupons/validate", coupon.ValidateCouponHandler())

	// Super admin routes
	adminRoutes := protected.Group("/admin")
	adminRoutes.Use(auth.RequireRole(models.RoleSuperAdmin))

	// School management
	adminRoutes.Get("/schools", admin.ListSchoolsHandler())
	adminRoutes.Get("/schools/:id", admin.GetSchoolHandler())
	adminRoutes.Post("/schools/bulk-suspend", admin.BulkStatusHandler(models.SchoolStatusSuspended, models.ActionSuspend))
	adminRoutes.Post("/schools/bulk-reactivate", admin.BulkStatusHandler(models.SchoolStatusApproved, models.ActionReactivate))
	adminRoutes.Post("/schools/:id/suspend", admin.SuspendSchoolHandler())
	adminRoutes.Post("/schools/:id/reactivate", admin.ReactivateSchoolHandler())

	// Coupon management
	adminRoutes.Get("/coupons", coupon.ListCouponsHandler())
	adminRoutes.Post("/coupons", coupon.CreateCouponHandler())
	adminRoutes.Put("/coupons/:id", coupon.UpdateCouponHandler())
	adminRoutes.Delete("/coupons/:id", coupon.DeleteCouponHandler())

	// Deferred settlement queue
	adminRoutes.Get("/payment-requests", checkout.ListRequestsHandler())
	adminRoutes.Post("/payment-requests/bulk-decide", checkout.BulkDecideHandler(engine))
	adminRoutes.Post("/payment-requests/:id/decide", checkout.DecideHandler(engine))

	// Audit trail
	adminRoutes.Get("/action-logs", audit.ListActionLogsHandler())

	log.Println("Server listening on port:", cfg.HTTPPort)
	if err := app.Listen(":" + cfg.HTTPPort); err != nil {
		log.Fatal(err)
	}
}
