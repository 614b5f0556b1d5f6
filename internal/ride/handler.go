package ride

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/caram-platform/caram-ledger/internal/accounting"
	"github.com/caram-platform/caram-ledger/internal/auth"
	"github.com/caram-platform/caram-ledger/internal/httpx"
	"github.com/caram-platform/caram-ledger/internal/wallet"
)

var validate = validator.New()

// Handler exposes the ride settlement endpoint.
type Handler struct {
	service *Service
}

// NewHandler builds a ride HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type penaltyRequest struct {
	Party  string  `json:"party"`
	Amount float64 `json:"amount"`
}

type payRequest struct {
	RideID      string           `json:"ride_id" validate:"required"`
	RiderID     string           `json:"rider_id" validate:"required"`
	DriverID    string           `json:"driver_id" validate:"required"`
	FareAmount  float64          `json:"fare_amount" validate:"required,gt=0"`
	WalletPaid  float64          `json:"wallet_paid" validate:"gte=0"`
	CashPaid    float64          `json:"cash_paid"`
	Commission  float64          `json:"commission_amount" validate:"gte=0"`
	Penalties   []penaltyRequest `json:"penalties"`
	PaymentMode string           `json:"payment_mode" validate:"required,oneof=cash_only cash_exceed wallet_paid wallet_cash"`
}

type payResponse struct {
	RideID             string          `json:"ride_id"`
	Case               string          `json:"case"`
	RiderWalletDelta   decimal.Decimal `json:"rider_wallet_delta"`
	DriverWalletDelta  decimal.Decimal `json:"driver_wallet_delta"`
	CommissionInvoiced bool            `json:"commission_invoiced"`
	PenaltiesApplied   bool            `json:"penalties_applied"`
}

// Pay settles a ride.
func (h *Handler) Pay(c *fiber.Ctx) error {
	var req payRequest
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

	penalties := make([]Penalty, 0, len(req.Penalties))
	for _, p := range req.Penalties {
		penalties = append(penalties, Penalty{Party: p.Party, Amount: decimal.NewFromFloat(p.Amount)})
	}

	res, err := h.service.Pay(c.UserContext(), PayInput{
		CompanyID:  principal.CompanyID,
		RideID:     req.RideID,
		RiderID:    req.RiderID,
		DriverID:   req.DriverID,
		Fare:       decimal.NewFromFloat(req.FareAmount),
		WalletPaid: decimal.NewFromFloat(req.WalletPaid),
		CashPaid:   decimal.NewFromFloat(req.CashPaid),
		Commission: decimal.NewFromFloat(req.Commission),
		Penalties:  penalties,
		Mode:       req.PaymentMode,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrInvalidMode):
			return fiber.NewError(http.StatusBadRequest, err.Error())
		case errors.Is(err, wallet.ErrContactNotFound), errors.Is(err, wallet.ErrNotFound):
			return fiber.NewError(http.StatusNotFound, err.Error())
		case errors.Is(err, ErrAlreadyPaid):
			return fiber.NewError(http.StatusConflict, err.Error())
		case errors.Is(err, wallet.ErrInsufficientBalance):
			return fiber.NewError(http.StatusConflict, "INSUFFICIENT_WALLET_BALANCE")
		case errors.Is(err, accounting.ErrNotConfigured):
			return fiber.NewError(http.StatusInternalServerError, err.Error())
		default:
			return fiber.NewError(http.StatusInternalServerError, err.Error())
		}
	}
	return httpx.Success(c, http.StatusOK, "ride settled", payResponse{
		RideID:             res.RideID,
		Case:               res.Outcome.Case,
		RiderWalletDelta:   res.Outcome.RiderDelta,
		DriverWalletDelta:  res.Outcome.DriverDelta,
		CommissionInvoiced: res.Outcome.CommissionInvoiced,
		PenaltiesApplied:   res.Outcome.PenaltiesApplied,
	})
}
