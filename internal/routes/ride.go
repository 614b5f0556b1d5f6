package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/caram-platform/caram-ledger/internal/ride"
)

// RegisterRideRoutes wires the ride settlement endpoint.
func RegisterRideRoutes(r fiber.Router, h *ride.Handler) {
	r.Post("/ride/pay", h.Pay)
}
