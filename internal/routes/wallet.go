package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/caram-platform/caram-ledger/internal/wallet"
)

// RegisterWalletRoutes wires wallet-related endpoints.
func RegisterWalletRoutes(r fiber.Router, h *wallet.Handler) {
	r.Post("/add_wallet_transaction", h.AddTransaction)
	r.Post("/wallet_withdraw", h.Withdraw)
	r.Post("/confirm_transaction", h.ConfirmTransaction)
	r.Post("/decline_transaction", h.DeclineTransaction)
	r.Post("/wallet_entry", h.ManualEntry)
	r.Get("/wallet/:contactId/balance", h.Balance)
	r.Get("/wallet/:contactId/entries", h.Entries)
}
