package handlers

import (
	"errors"
	"time"

	"safarpay/internal/models"
	"safarpay/internal/repositories"
	"safarpay/internal/services/refund"
	"safarpay/internal/services/transaction"
	"safarpay/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type TransactionHandler struct {
	transactionService transaction.Service
	refundService      refund.Service
}

func NewTransactionHandler(transactionService transaction.Service, refundService refund.Service) *TransactionHandler {
	return &TransactionHandler{
		transactionService: transactionService,
		refundService:      refundService,
	}
}

func (h *TransactionHandler) GetHistory(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	limit := c.QueryInt("limit", 20)
	offset := c.QueryInt("offset", 0)

	page, err := h.transactionService.GetHistory(c.Context(), claims.UserID, limit, offset)
	if err != nil {
		if errors.Is(err, repositories.ErrWalletNotFound) {
			return utils.NotFound(c, "Wallet not found")
		}
		return utils.InternalError(c, "Failed to get transaction history")
	}

	return utils.Success(c, page)
}

func (h *TransactionHandler) GetStatistics(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	var start, end time.Time
	if s := c.Query("start"); s != "" {
		start, err = time.Parse(time.RFC3339, s)
		if err != nil {
			return utils.BadRequest(c, "Invalid start time")
		}
	}
	if e := c.Query("end"); e != "" {
		end, err = time.Parse(time.RFC3339, e)
		if err != nil {
			return utils.BadRequest(c, "Invalid end time")
		}
	}

	stats, err := h.transactionService.GetStatistics(c.Context(), claims.UserID, start, end)
	if err != nil {
		if errors.Is(err, repositories.ErrWalletNotFound) {
			return utils.NotFound(c, "Wallet not found")
		}
		return utils.InternalError(c, "Failed to get transaction statistics")
	}

	return utils.Success(c, stats)
}

func (h *TransactionHandler) Refund(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	var input struct {
		TransactionID uint             `json:"transaction_id"`
		Amount        *decimal.Decimal `json:"amount"`
		Reason        string           `json:"reason"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Invalid request format")
	}
	if input.TransactionID == 0 {
		return utils.BadRequest(c, "Transaction id is required")
	}

	result, err := h.refundService.Refund(c.Context(), claims.UserID, input.TransactionID, input.Amount, input.Reason)
	if err != nil {
		switch {
		case errors.Is(err, refund.ErrTransactionNotFound):
			return utils.NotFound(c, "Transaction not found")
		case errors.Is(err, refund.ErrForbidden):
			return utils.Forbidden(c, "Transaction belongs to another user")
		case errors.Is(err, refund.ErrWalletNotFound):
			return utils.NotFound(c, "Wallet not found")
		case errors.Is(err, models.ErrInvalidTransaction), errors.Is(err, models.ErrInvalidAmount):
			return utils.UnprocessableEntity(c, err.Error())
		default:
			return utils.InternalError(c, "Failed to process refund")
		}
	}

	return utils.Success(c, result)
}
