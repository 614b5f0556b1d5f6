package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/caram-platform/caram-ledger/internal/subscription"
)

// RegisterSubscriptionRoutes wires the subscription endpoint.
func RegisterSubscriptionRoutes(r fiber.Router, h *subscription.Handler) {
	r.Post("/create_subscription", h.Create)
}
