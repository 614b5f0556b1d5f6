package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/caram-platform/caram-ledger/internal/contact"
)

// RegisterContactRoutes wires contact registration endpoints.
func RegisterContactRoutes(r fiber.Router, h *contact.Handler) {
	r.Post("/register_contact", h.Register)
	r.Put("/update_contact", h.Update)
	r.Get("/contact/:contactId", h.Get)
}
