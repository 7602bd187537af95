package handlers

import (
	"errors"
	"time"

	"safarpay/internal/models"
	"safarpay/internal/services/payment"
	"safarpay/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type PaymentHandler struct {
	paymentService payment.Service
}

func NewPaymentHandler(paymentService payment.Service) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
	}
}

func (h *PaymentHandler) Deposit(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	var input struct {
		Amount      decimal.Decimal `json:"amount"`
		Currency    string          `json:"currency"`
		Gateway     string          `json:"gateway"`
		Description string          `json:"description"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Invalid request format")
	}
	if input.Currency == "" {
		input.Currency = models.DefaultCurrency
	}
	if input.Gateway == "" {
		input.Gateway = "sandbox"
	}

	result, err := h.paymentService.Deposit(c.Context(), claims.UserID, input.Amount, input.Currency, input.Gateway, input.Description)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrInvalidAmount):
			return utils.BadRequest(c, "Amount must be greater than 0")
		case errors.Is(err, payment.ErrUnknownGateway):
			return utils.BadRequest(c, err.Error())
		case errors.Is(err, payment.ErrWalletNotFound):
			return utils.NotFound(c, "Wallet not found")
		case errors.Is(err, payment.ErrGatewayRejected):
			return utils.UnprocessableEntity(c, err.Error())
		default:
			return utils.InternalError(c, "Failed to initiate deposit")
		}
	}

	return utils.Success(c, result)
}

func (h *PaymentHandler) ConfirmDeposit(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	var input struct {
		Reference string          `json:"reference"`
		Amount    decimal.Decimal `json:"amount"`
		Currency  string          `json:"currency"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Invalid request format")
	}
	if input.Reference == "" {
		return utils.BadRequest(c, "Reference is required")
	}
	if input.Currency == "" {
		input.Currency = models.DefaultCurrency
	}

	result, err := h.paymentService.ConfirmDeposit(c.Context(), claims.UserID, input.Reference, input.Amount, input.Currency)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrInvalidAmount), errors.Is(err, models.ErrInvalidTransaction):
			return utils.BadRequest(c, err.Error())
		case errors.Is(err, payment.ErrReferenceOwner):
			return utils.Forbidden(c, "Reference belongs to another user")
		case errors.Is(err, payment.ErrWalletNotFound):
			return utils.NotFound(c, "Wallet not found")
		default:
			return utils.InternalError(c, "Failed to confirm deposit")
		}
	}

	return utils.Success(c, result)
}

// GrantCredit credits a user's wallet with a repayable amount. Admin only.
func (h *PaymentHandler) GrantCredit(c *fiber.Ctx) error {
	var input struct {
		UserID      uint            `json:"user_id"`
		Amount      decimal.Decimal `json:"amount"`
		Currency    string          `json:"currency"`
		DueDate     time.Time       `json:"due_date"`
		Description string          `json:"description"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Invalid request format")
	}
	if input.UserID == 0 {
		return utils.BadRequest(c, "User id is required")
	}
	if input.DueDate.IsZero() || input.DueDate.Before(time.Now()) {
		return utils.BadRequest(c, "Due date must be in the future")
	}
	if input.Currency == "" {
		input.Currency = models.DefaultCurrency
	}

	result, err := h.paymentService.GrantCredit(c.Context(), input.UserID, input.Amount, input.Currency, input.DueDate, input.Description)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrInvalidAmount):
			return utils.BadRequest(c, "Amount must be greater than 0")
		case errors.Is(err, payment.ErrWalletNotFound):
			return utils.NotFound(c, "Wallet not found")
		default:
			return utils.InternalError(c, "Failed to grant credit")
		}
	}

	return utils.Success(c, result)
}

func (h *PaymentHandler) Purchase(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	var input struct {
		Amount      decimal.Decimal `json:"amount"`
		Currency    string          `json:"currency"`
		OrderID     string          `json:"order_id"`
		Description string          `json:"description"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Invalid request format")
	}
	if input.OrderID == "" {
		return utils.BadRequest(c, "Order id is required")
	}
	if input.Currency == "" {
		input.Currency = models.DefaultCurrency
	}

	result, err := h.paymentService.Purchase(c.Context(), claims.UserID, input.Amount, input.Currency, input.OrderID, input.Description)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrInvalidAmount):
			return utils.BadRequest(c, "Amount must be greater than 0")
		case errors.Is(err, models.ErrInsufficientBalance):
			return utils.UnprocessableEntity(c, err.Error())
		case errors.Is(err, models.ErrCurrencyAccountNotFound):
			return utils.BadRequest(c, "No account for that currency")
		case errors.Is(err, payment.ErrWalletNotFound):
			return utils.NotFound(c, "Wallet not found")
		default:
			return utils.InternalError(c, "Failed to process purchase")
		}
	}

	return utils.Success(c, result)
}
