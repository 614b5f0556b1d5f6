package httpx

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

// Envelope is the uniform success body of every API endpoint:
// {status, message, data}. Failures render as {error} instead, with the
// HTTP status code carrying the primary error signal.
type Envelope struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

// Success writes the success envelope with the given HTTP status.
func Success(c *fiber.Ctx, code int, message string, data any) error {
	return c.Status(code).JSON(Envelope{Status: "success", Message: message, Data: data})
}

// ErrorHandler renders every unhandled error as {"error": message}.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}
