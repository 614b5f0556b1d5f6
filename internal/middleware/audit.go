package middleware

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/caram-platform/caram-ledger/internal/auth"
)

// Audit emits one structured log line per request. Runs outside the auth
// middleware but logs after the handler chain returns, so the company and
// API-key label resolved during authentication are included on every
// authenticated call. Money amounts never appear here; only the routing
// facts needed to trace a settlement or top-up.
func Audit(logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		duration := time.Since(start)
		requestID, _ := c.Locals(requestIDHeader).(string)

		attrs := []any{
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.Int("status", status),
			slog.Duration("duration", duration),
		}
		if requestID != "" {
			attrs = append(attrs, slog.String("request_id", requestID))
		}
		if principal, ok := auth.PrincipalFrom(c.UserContext()); ok {
			attrs = append(attrs,
				slog.String("company_id", principal.CompanyID),
				slog.String("api_key", principal.Label),
			)
		}
		if err != nil {
			attrs = append(attrs, slog.Any("error", err))
			logger.Error("request completed", attrs...)
			return err
		}

		logger.Info("request completed", attrs...)
		return nil
	}
}
