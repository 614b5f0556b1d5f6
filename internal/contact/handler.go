package contact

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

// Handler exposes the contact registration endpoints.
type Handler struct {
	service *Service
}

// NewHandler builds a contact HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type registerRequest struct {
	SubID       string  `json:"sub_id" validate:"required"`
	Name        string  `json:"name" validate:"required"`
	Mobile      string  `json:"mobile" validate:"required"`
	Email       string  `json:"email" validate:"omitempty,email"`
	City        string  `json:"city"`
	Gender      string  `json:"gender" validate:"omitempty,oneof=male female"`
	ContactType string  `json:"contact_type" validate:"required,oneof=rider driver"`
	CouponValue float64 `json:"coupon_value" validate:"gte=0"`
}

type contactResponse struct {
	ID       string          `json:"id"`
	SubID    string          `json:"sub_id"`
	Name     string          `json:"name"`
	Mobile   string          `json:"mobile"`
	Email    string          `json:"email,omitempty"`
	City     string          `json:"city,omitempty"`
	Gender   string          `json:"gender"`
	Type     string          `json:"contact_type"`
	WalletID string          `json:"wallet_id,omitempty"`
	Balance  decimal.Decimal `json:"wallet_balance"`
}

// Register creates a contact with its wallet and welcome coupon.
func (h *Handler) Register(c *fiber.Ctx) error {
	var req registerRequest
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

	res, err := h.service.Register(c.UserContext(), RegisterInput{
		CompanyID:   principal.CompanyID,
		SubID:       req.SubID,
		Name:        req.Name,
		Mobile:      req.Mobile,
		Email:       req.Email,
		City:        req.City,
		Gender:      req.Gender,
		Type:        Type(req.ContactType),
		CouponValue: decimal.NewFromFloat(req.CouponValue),
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrDuplicate):
			return fiber.NewError(http.StatusConflict, err.Error())
		case errors.Is(err, accounting.ErrNotConfigured):
			return fiber.NewError(http.StatusInternalServerError, err.Error())
		default:
			return fiber.NewError(http.StatusInternalServerError, err.Error())
		}
	}
	return httpx.Success(c, http.StatusCreated, "contact registered",
		toContactResponse(res.Contact, res.WalletID, res.Balance))
}

type updateRequest struct {
	PartnerID string `json:"odoo_partner_id"`

	Name        string `json:"name"`
	Mobile      string `json:"mobile"`
	Email       string `json:"email" validate:"omitempty,email"`
	City        string `json:"city"`
	Gender      string `json:"gender" validate:"omitempty,oneof=male female"`
	ContactType string `json:"contact_type" validate:"omitempty,oneof=rider driver"`
}

// Update applies a partial update to a contact. The contact is located by
// odoo_partner_id, else email, else mobile.
func (h *Handler) Update(c *fiber.Ctx) error {
	var req updateRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if err := validate.Struct(req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if req.PartnerID == "" && req.Email == "" && req.Mobile == "" {
		return fiber.NewError(http.StatusBadRequest, "one of odoo_partner_id, email or mobile is required")
	}
	principal, ok := auth.PrincipalFrom(c.UserContext())
	if !ok {
		return fiber.ErrUnauthorized
	}

	byEmail, byMobile := "", ""
	if req.PartnerID == "" {
		if req.Email != "" {
			byEmail = req.Email
		} else {
			byMobile = req.Mobile
		}
	}
	updated, err := h.service.Update(c.UserContext(), UpdateInput{
		CompanyID: principal.CompanyID,
		ContactID: req.PartnerID,
		ByEmail:   byEmail,
		ByMobile:  byMobile,
		Name:      req.Name,
		Mobile:    req.Mobile,
		Email:     req.Email,
		City:      req.City,
		Gender:    req.Gender,
		Type:      req.ContactType,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			return fiber.NewError(http.StatusNotFound, err.Error())
		case errors.Is(err, ErrDuplicate):
			return fiber.NewError(http.StatusConflict, err.Error())
		default:
			return fiber.NewError(http.StatusInternalServerError, err.Error())
		}
	}
	return httpx.Success(c, http.StatusOK, "contact updated", toContactResponse(updated, "", decimal.Zero))
}

// Get returns a contact by id.
func (h *Handler) Get(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFrom(c.UserContext())
	if !ok {
		return fiber.ErrUnauthorized
	}
	found, err := h.service.Get(c.UserContext(), principal.CompanyID, c.Params("contactId"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return fiber.NewError(http.StatusNotFound, err.Error())
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return httpx.Success(c, http.StatusOK, "contact", toContactResponse(found, "", decimal.Zero))
}

func toContactResponse(c Contact, walletID string, balance decimal.Decimal) contactResponse {
	return contactResponse{
		ID:       c.ID,
		SubID:    c.SubID,
		Name:     c.Name,
		Mobile:   c.Mobile,
		Email:    c.Email,
		City:     c.City,
		Gender:   string(c.Gender),
		Type:     string(c.Type),
		WalletID: walletID,
		Balance:  balance,
	}
}
