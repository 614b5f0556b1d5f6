package subscription

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/caram-platform/caram-ledger/internal/accounting"
	"github.com/caram-platform/caram-ledger/internal/auth"
	"github.com/caram-platform/caram-ledger/internal/httpx"
	"github.com/caram-platform/caram-ledger/internal/wallet"
)

var validate = validator.New()

// Handler exposes the subscription endpoint.
type Handler struct {
	service *Service
}

// NewHandler builds a subscription HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type createRequest struct {
	PartnerID  string  `json:"odoo_partner_id" validate:"required"`
	PlatformID string  `json:"caram_subscription_id" validate:"required"`
	Type       string  `json:"subscription_type" validate:"required,oneof=private pinky vip van taxi other"`
	Price      float64 `json:"price" validate:"required,gt=0"`
	StartDate  string  `json:"start_date" validate:"required"`
	EndDate    string  `json:"end_date" validate:"required"`
}

// Create sells a subscription paid from the contact's wallet.
func (h *Handler) Create(c *fiber.Ctx) error {
	var req createRequest
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

	start, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid start_date")
	}
	end, err := time.Parse("2006-01-02", req.EndDate)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid end_date")
	}

	res, err := h.service.Create(c.UserContext(), CreateInput{
		CompanyID:  principal.CompanyID,
		ContactID:  req.PartnerID,
		PlatformID: req.PlatformID,
		Type:       Type(req.Type),
		Price:      decimal.NewFromFloat(req.Price),
		StartDate:  start,
		EndDate:    end,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidType):
			return fiber.NewError(http.StatusBadRequest, err.Error())
		case errors.Is(err, wallet.ErrInsufficientBalance):
			return fiber.NewError(http.StatusPaymentRequired, "insufficient wallet balance")
		case errors.Is(err, wallet.ErrContactNotFound), errors.Is(err, wallet.ErrNotFound):
			return fiber.NewError(http.StatusNotFound, err.Error())
		case errors.Is(err, accounting.ErrNotConfigured):
			return fiber.NewError(http.StatusInternalServerError, err.Error())
		default:
			return fiber.NewError(http.StatusInternalServerError, err.Error())
		}
	}
	return httpx.Success(c, http.StatusCreated, "subscription created", fiber.Map{
		"subscription_id":       res.Subscription.ID,
		"caram_subscription_id": res.Subscription.PlatformID,
		"invoice_id":            res.InvoiceID,
		"type":                  string(res.Subscription.Type),
		"balance_after":         res.BalanceAfter,
	})
}
