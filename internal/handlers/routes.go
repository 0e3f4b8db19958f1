package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/medibook/backend/internal/middleware"
)

// Routes holds the handlers mounted under /api
type Routes struct {
	Notifications *NotificationHandler
	DeviceTokens  *DeviceTokenHandler
	Campaigns     *CampaignHandler
	JWTSecret     string
	RateLimit     int // requests per minute per IP
}

// NewApp builds the fiber app with middleware and every route
func NewApp(r Routes) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:   "MediBook Notifications",
		BodyLimit: 1 * 1024 * 1024,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"success": false,
				"message": err.Error(),
			})
		},
	})

	app.Use(middleware.Recovery())
	app.Use(middleware.Logger())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"service": "medibook-notifications",
		})
	})

	api := app.Group("/api")
	api.Use(middleware.RateLimiter(r.RateLimit, time.Minute))
	api.Use(middleware.AuthRequired(r.JWTSecret))

	api.Post("/notifications", r.Notifications.Send)
	api.Post("/notifications/bulk", r.Notifications.SendBulk)
	api.Post("/hospitals/:id/notify", r.Notifications.NotifyHospital)
	api.Get("/delivery-attempts", r.Notifications.ListAttempts)

	api.Put("/users/:id/push-token", r.DeviceTokens.Register)
	api.Delete("/users/:id/push-token", r.DeviceTokens.Remove)

	api.Post("/campaigns/:job/run", r.Campaigns.Run)

	return app
}
