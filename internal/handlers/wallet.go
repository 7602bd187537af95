package handlers

import (
	"errors"

	"safarpay/internal/models"
	"safarpay/internal/services/wallet"
	"safarpay/internal/utils"

	"github.com/gofiber/fiber/v2"
)

type WalletHandler struct {
	walletService wallet.Service
}

func NewWalletHandler(walletService wallet.Service) *WalletHandler {
	return &WalletHandler{
		walletService: walletService,
	}
}

// extractUserClaims is a helper function to reduce duplication
func extractUserClaims(c *fiber.Ctx) (*models.UserClaims, error) {
	claims, ok := c.Locals("claims").(*models.UserClaims)
	if !ok || claims == nil {
		return nil, fiber.ErrUnauthorized
	}
	return claims, nil
}

func (h *WalletHandler) CreateWallet(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	result, err := h.walletService.CreateWallet(c.Context(), claims.UserID)
	if err != nil {
		return utils.InternalError(c, "Failed to create wallet")
	}

	if result.Created {
		return utils.Created(c, fiber.Map{"wallet": result})
	}
	return utils.Success(c, fiber.Map{"wallet": result})
}

func (h *WalletHandler) GetWallet(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	w, err := h.walletService.GetWallet(c.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, wallet.ErrWalletNotFound) {
			return utils.NotFound(c, "Wallet not found")
		}
		return utils.InternalError(c, "Failed to get wallet")
	}

	return utils.Success(c, fiber.Map{
		"wallet": w,
	})
}

func (h *WalletHandler) GetBalance(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	summary, err := h.walletService.GetBalance(c.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, wallet.ErrWalletNotFound) {
			return utils.NotFound(c, "Wallet not found")
		}
		return utils.InternalError(c, "Failed to get balance")
	}

	return utils.Success(c, summary)
}

func (h *WalletHandler) CreateCurrencyAccount(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	var input struct {
		Currency string `json:"currency"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Invalid request format")
	}
	if input.Currency == "" {
		return utils.BadRequest(c, "Currency is required")
	}

	account, err := h.walletService.CreateCurrencyAccount(c.Context(), claims.UserID, input.Currency)
	if err != nil {
		switch {
		case errors.Is(err, wallet.ErrWalletNotFound):
			return utils.NotFound(c, "Wallet not found")
		case errors.Is(err, models.ErrDuplicateCurrencyAccount):
			return utils.Conflict(c, "Currency account already exists")
		case errors.Is(err, wallet.ErrInvalidCurrency):
			return utils.BadRequest(c, err.Error())
		default:
			return utils.InternalError(c, "Failed to create currency account")
		}
	}

	return utils.Created(c, fiber.Map{"account": account})
}

func (h *WalletHandler) AddBankAccount(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	var input struct {
		BankName      string `json:"bank_name"`
		AccountNumber string `json:"account_number"`
		CardNumber    string `json:"card_number"`
		TransferCode  string `json:"transfer_code"`
		HolderName    string `json:"holder_name"`
		MakeDefault   bool   `json:"make_default"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Invalid request format")
	}

	view, err := h.walletService.AddBankAccount(c.Context(), claims.UserID, models.AddBankAccountInput{
		BankName:      input.BankName,
		AccountNumber: input.AccountNumber,
		CardNumber:    input.CardNumber,
		TransferCode:  input.TransferCode,
		HolderName:    input.HolderName,
		MakeDefault:   input.MakeDefault,
	})
	if err != nil {
		switch {
		case errors.Is(err, wallet.ErrWalletNotFound):
			return utils.NotFound(c, "Wallet not found")
		case errors.Is(err, models.ErrInvalidBankAccount):
			return utils.BadRequest(c, err.Error())
		default:
			return utils.InternalError(c, "Failed to add bank account")
		}
	}

	return utils.Created(c, fiber.Map{"bank_account": view})
}

func (h *WalletHandler) RemoveBankAccount(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return utils.BadRequest(c, "Invalid bank account id")
	}

	if err := h.walletService.RemoveBankAccount(c.Context(), claims.UserID, uint(id)); err != nil {
		switch {
		case errors.Is(err, wallet.ErrWalletNotFound):
			return utils.NotFound(c, "Wallet not found")
		case errors.Is(err, models.ErrBankAccountNotFound):
			return utils.NotFound(c, "Bank account not found")
		default:
			return utils.InternalError(c, "Failed to remove bank account")
		}
	}

	return utils.Success(c, fiber.Map{"message": "Bank account removed"})
}
