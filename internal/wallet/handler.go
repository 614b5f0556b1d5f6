package wallet

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/caram-platform/caram-ledger/internal/accounting"
	"github.com/caram-platform/caram-ledger/internal/auth"
	"github.com/caram-platform/caram-ledger/internal/httpx"
)

var validate = validator.New()

// Handler exposes the wallet HTTP endpoints.
type Handler struct {
	service *Service
}

// NewHandler builds a wallet HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type transactionRequest struct {
	PartnerID       string  `json:"odoo_partner_id" validate:"required"`
	Amount          float64 `json:"amount" validate:"required,gt=0"`
	TransactionType string  `json:"transaction_type" validate:"omitempty,oneof=direct bank_transfer"`
	MethodType      string  `json:"payment_method_type" validate:"omitempty,oneof=cash bank fund tele points"`
	TransactionID   string  `json:"transaction_id"`
	Reference       string  `json:"reference"`
	Bank            string  `json:"bank"`
	AccountNumber   string  `json:"account_number"`
	ImageURL        string  `json:"image_url"`
	Note            string  `json:"note"`
}

type transactionResponse struct {
	EntryID      string          `json:"entry_id"`
	WalletID     string          `json:"wallet_id"`
	DocumentID   string          `json:"document_id,omitempty"`
	Status       string          `json:"status"`
	BalanceAfter decimal.Decimal `json:"balance_after"`
}

// AddTransaction credits a contact's wallet.
func (h *Handler) AddTransaction(c *fiber.Ctx) error {
	var req transactionRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if err := validate.Struct(req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	principal, ok := auth.PrincipalFrom(c.UserContext())
	if !ok {
		return fiber.ErrUnauthorized
	}

	kind := KindDirect
	if req.TransactionType == string(KindBankTransfer) {
		kind = KindBankTransfer
	}
	if req.MethodType == "points" {
		kind = KindPoints
	}
	res, err := h.service.AddTransaction(c.UserContext(), AddTransactionInput{
		CompanyID:     principal.CompanyID,
		ContactID:     req.PartnerID,
		Amount:        decimal.NewFromFloat(req.Amount),
		Kind:          kind,
		MethodType:    req.MethodType,
		TransactionID: req.TransactionID,
		Reference:     req.Reference,
		Bank:          req.Bank,
		AccountNumber: req.AccountNumber,
		ImageURL:      req.ImageURL,
		Description:   req.Note,
	})
	if err != nil {
		return mapError(err)
	}
	return httpx.Success(c, http.StatusCreated, "wallet transaction recorded", toTransactionResponse(res))
}

type withdrawRequest struct {
	PartnerID     string  `json:"odoo_partner_id" validate:"required"`
	Amount        float64 `json:"amount" validate:"required,gt=0"`
	TransactionID string  `json:"transaction_id"`
	Bank          string  `json:"bank"`
	AccountNumber string  `json:"account_number"`
	Note          string  `json:"note"`
}

// Withdraw debits a contact's wallet for a bank cash-out.
func (h *Handler) Withdraw(c *fiber.Ctx) error {
	var req withdrawRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if err := validate.Struct(req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	principal, ok := auth.PrincipalFrom(c.UserContext())
	if !ok {
		return fiber.ErrUnauthorized
	}

	res, err := h.service.Withdraw(c.UserContext(), WalletWithdrawInput{
		CompanyID:     principal.CompanyID,
		ContactID:     req.PartnerID,
		Amount:        decimal.NewFromFloat(req.Amount),
		TransactionID: req.TransactionID,
		Bank:          req.Bank,
		AccountNumber: req.AccountNumber,
		Description:   req.Note,
	})
	if err != nil {
		return mapError(err)
	}
	return httpx.Success(c, http.StatusCreated, "withdrawal request recorded", toTransactionResponse(res))
}

type statusRequest struct {
	TransactionID string `json:"transaction_id" validate:"required"`
	Reason        string `json:"reason"`
}

// ConfirmTransaction posts a pending bank transfer.
func (h *Handler) ConfirmTransaction(c *fiber.Ctx) error {
	var req statusRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if err := validate.Struct(req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	principal, ok := auth.PrincipalFrom(c.UserContext())
	if !ok {
		return fiber.ErrUnauthorized
	}

	res, err := h.service.ConfirmTransaction(c.UserContext(), principal.CompanyID, req.TransactionID)
	if err != nil {
		return mapError(err)
	}
	return httpx.Success(c, http.StatusOK, "transaction confirmed", toTransactionResponse(res))
}

// DeclineTransaction cancels a pending bank transfer.
func (h *Handler) DeclineTransaction(c *fiber.Ctx) error {
	var req statusRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if err := validate.Struct(req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	principal, ok := auth.PrincipalFrom(c.UserContext())
	if !ok {
		return fiber.ErrUnauthorized
	}

	if err := h.service.DeclineTransaction(c.UserContext(), principal.CompanyID, req.TransactionID, req.Reason); err != nil {
		return mapError(err)
	}
	return httpx.Success(c, http.StatusOK, "transaction declined",
		fiber.Map{"transaction_id": req.TransactionID})
}

// Balance returns a contact's wallet balance.
func (h *Handler) Balance(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFrom(c.UserContext())
	if !ok {
		return fiber.ErrUnauthorized
	}
	w, err := h.service.Balance(c.UserContext(), principal.CompanyID, c.Params("contactId"))
	if err != nil {
		return mapError(err)
	}
	return httpx.Success(c, http.StatusOK, "wallet balance", fiber.Map{
		"wallet_id":       w.ID,
		"odoo_partner_id": w.ContactID,
		"balance":         w.Balance,
	})
}

type entryResponse struct {
	ID          string          `json:"id"`
	Description string          `json:"description"`
	Issued      decimal.Decimal `json:"issued"`
	Used        decimal.Decimal `json:"used"`
	Status      string          `json:"status"`
	RefKind     string          `json:"ref_kind,omitempty"`
	RefID       string          `json:"ref_id,omitempty"`
	CreatedAt   string          `json:"created_at"`
}

// Entries lists a contact's wallet ledger, oldest first.
func (h *Handler) Entries(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFrom(c.UserContext())
	if !ok {
		return fiber.ErrUnauthorized
	}
	entries, err := h.service.Entries(c.UserContext(), principal.CompanyID, c.Params("contactId"))
	if err != nil {
		return mapError(err)
	}
	out := make([]entryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, entryResponse{
			ID:          e.ID,
			Description: e.Description,
			Issued:      e.Issued,
			Used:        e.Used,
			Status:      string(e.Status),
			RefKind:     string(e.Ref.Kind),
			RefID:       e.Ref.ID,
			CreatedAt:   e.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		})
	}
	return httpx.Success(c, http.StatusOK, "wallet entries", out)
}

type manualEntryRequest struct {
	PartnerID   string  `json:"odoo_partner_id" validate:"required"`
	Issued      float64 `json:"issued"`
	Used        float64 `json:"used" validate:"gte=0"`
	Description string  `json:"description" validate:"required"`
}

// ManualEntry appends a back-office ledger adjustment.
func (h *Handler) ManualEntry(c *fiber.Ctx) error {
	var req manualEntryRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if err := validate.Struct(req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	principal, ok := auth.PrincipalFrom(c.UserContext())
	if !ok {
		return fiber.ErrUnauthorized
	}

	res, err := h.service.ManualEntry(c.UserContext(), ManualEntryInput{
		CompanyID:   principal.CompanyID,
		ContactID:   req.PartnerID,
		Issued:      decimal.NewFromFloat(req.Issued),
		Used:        decimal.NewFromFloat(req.Used),
		Description: req.Description,
	})
	if err != nil {
		return mapError(err)
	}
	return httpx.Success(c, http.StatusCreated, "ledger entry recorded", toTransactionResponse(res))
}

func toTransactionResponse(res TransactionResult) transactionResponse {
	return transactionResponse{
		EntryID:      res.EntryID,
		WalletID:     res.WalletID,
		DocumentID:   res.DocumentID,
		Status:       string(res.Status),
		BalanceAfter: res.BalanceAfter,
	}
}

func mapError(err error) error {
	switch {
	case errors.Is(err, ErrInvalidAmount):
		return fiber.NewError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrInsufficientBalance):
		return fiber.NewError(http.StatusConflict, "insufficient wallet balance")
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrEntryNotFound),
		errors.Is(err, ErrContactNotFound), errors.Is(err, ErrTransactionNotFound):
		return fiber.NewError(http.StatusNotFound, err.Error())
	case errors.Is(err, accounting.ErrNotConfigured):
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	default:
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
}
