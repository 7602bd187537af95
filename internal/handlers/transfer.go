package handlers

import (
	"errors"

	"safarpay/internal/models"
	"safarpay/internal/services/transfer"
	"safarpay/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type TransferHandler struct {
	transferService transfer.Service
}

func NewTransferHandler(transferService transfer.Service) *TransferHandler {
	return &TransferHandler{
		transferService: transferService,
	}
}

func (h *TransferHandler) Transfer(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	var input struct {
		ToUserID    uint            `json:"to_user_id"`
		Amount      decimal.Decimal `json:"amount"`
		Currency    string          `json:"currency"`
		Description string          `json:"description"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Invalid request format")
	}
	if input.ToUserID == 0 {
		return utils.BadRequest(c, "Recipient is required")
	}
	if input.Currency == "" {
		input.Currency = models.DefaultCurrency
	}

	result, err := h.transferService.Transfer(c.Context(), claims.UserID, input.ToUserID, input.Amount, input.Currency, input.Description)
	if err != nil {
		switch {
		case errors.Is(err, transfer.ErrSameUser):
			return utils.BadRequest(c, "Cannot transfer to yourself")
		case errors.Is(err, models.ErrInvalidAmount), errors.Is(err, transfer.ErrInvalidTransferData):
			return utils.BadRequest(c, err.Error())
		case errors.Is(err, transfer.ErrSenderNotFound):
			return utils.NotFound(c, "Wallet not found")
		case errors.Is(err, transfer.ErrReceiverNotFound):
			return utils.NotFound(c, "Recipient wallet not found")
		case errors.Is(err, transfer.ErrReceiverInactive):
			return utils.UnprocessableEntity(c, "Recipient wallet is inactive")
		case errors.Is(err, transfer.ErrNoCurrencyAccount):
			return utils.BadRequest(c, "No account for that currency")
		case errors.Is(err, models.ErrInsufficientBalance):
			return utils.UnprocessableEntity(c, err.Error())
		default:
			return utils.InternalError(c, "Failed to process transfer")
		}
	}

	return utils.Success(c, result)
}
