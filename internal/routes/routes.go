// Package routes defines the API routing configuration.
// It sets up all HTTP routes and their corresponding handlers,
// including middleware and authentication requirements.
package routes

import (
	"log"
	"strings"
	"time"

	"safarpay/internal/config"
	"safarpay/internal/events"
	"safarpay/internal/handlers"
	"safarpay/internal/middleware"
	"safarpay/internal/models"
	"safarpay/internal/repositories"
	"safarpay/internal/services/payment"
	"safarpay/internal/services/refund"
	"safarpay/internal/services/transaction"
	"safarpay/internal/services/transfer"
	"safarpay/internal/services/wallet"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

// SetupRoutes configures all application routes.
// It groups routes by functionality and applies appropriate middleware.
func SetupRoutes(app *fiber.App, publisher events.Publisher) {
	walletRepo := repositories.NewWalletRepository(repositories.DB)

	var walletCache wallet.CacheOperator = wallet.NoopCache{}
	if repositories.WalletCache != nil {
		walletCache = repositories.WalletCache
	}

	walletService := wallet.NewService(walletRepo, walletCache, publisher, wallet.Config{
		DefaultCurrency: config.GetEnv("DEFAULT_CURRENCY", models.DefaultCurrency),
		BaseCurrency:    config.GetEnv("BASE_CURRENCY", models.DefaultCurrency),
		Rates:           loadExchangeRates(),
	})

	transferService := transfer.NewService(walletRepo, walletCache, publisher, transfer.Config{
		FeeRate: decimal.NewFromFloat(config.GetFloatEnv("TRANSFER_FEE_RATE", 0.005)),
		MinFee:  decimal.NewFromFloat(config.GetFloatEnv("TRANSFER_FEE_MIN", 1000)),
		MaxFee:  decimal.NewFromFloat(config.GetFloatEnv("TRANSFER_FEE_MAX", 50000)),
	})

	gateways := map[string]payment.Gateway{
		"sandbox": &payment.SandboxGateway{},
	}
	if stripeKey := config.GetEnv("STRIPE_SECRET_KEY", ""); stripeKey != "" {
		gateways["stripe"] = payment.NewStripeGateway(
			stripeKey,
			config.GetEnv("STRIPE_SUCCESS_URL", "http://localhost:3000/payment/success"),
			config.GetEnv("STRIPE_CANCEL_URL", "http://localhost:3000/payment/cancel"),
		)
	}
	paymentService := payment.NewService(walletRepo, gateways, walletCache, publisher)

	refundService := refund.NewService(walletRepo, refund.Config{
		Window: time.Duration(config.GetIntEnv("REFUND_WINDOW_DAYS", 30)) * 24 * time.Hour,
	}, walletCache, publisher)

	transactionService := transaction.NewService(walletRepo)

	walletHandler := handlers.NewWalletHandler(walletService)
	paymentHandler := handlers.NewPaymentHandler(paymentService)
	transferHandler := handlers.NewTransferHandler(transferService)
	transactionHandler := handlers.NewTransactionHandler(transactionService, refundService)

	app.Get("/health", handlers.HealthCheck)

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "Welcome to SafarPay API",
			"version": "1.0.0",
			"docs":    "/api",
		})
	})

	api := app.Group("/api")
	protected := api.Use(middleware.Auth)

	w := protected.Group("/wallet")
	w.Post("/", walletHandler.CreateWallet)
	w.Get("/", walletHandler.GetWallet)
	w.Get("/balance", walletHandler.GetBalance)
	w.Post("/accounts", walletHandler.CreateCurrencyAccount)
	w.Post("/deposit", paymentHandler.Deposit)
	w.Post("/deposit/confirm", paymentHandler.ConfirmDeposit)
	w.Post("/purchase", paymentHandler.Purchase)
	w.Post("/transfer", transferHandler.Transfer)
	w.Post("/refund", transactionHandler.Refund)
	w.Get("/transactions", transactionHandler.GetHistory)
	w.Get("/transactions/stats", transactionHandler.GetStatistics)
	w.Post("/bank-accounts", walletHandler.AddBankAccount)
	w.Delete("/bank-accounts/:id", walletHandler.RemoveBankAccount)

	admin := app.Group("/api/admin", middleware.Auth, middleware.AdminOnly)
	admin.Post("/wallet/credit", paymentHandler.GrantCredit)
}

// loadExchangeRates parses EXCHANGE_RATES, a comma-separated list of
// CURRENCY=RATE pairs expressed in the base currency, e.g.
// "USD=980000,EUR=1050000".
func loadExchangeRates() map[string]decimal.Decimal {
	raw := config.GetEnv("EXCHANGE_RATES", "")
	rates := make(map[string]decimal.Decimal)
	if raw == "" {
		return rates
	}
	for _, pair := range strings.Split(raw, ",") {
		parts := strings.SplitN(strings.TrimSpace(pair), "=", 2)
		if len(parts) != 2 {
			log.Printf("Skipping malformed exchange rate %q", pair)
			continue
		}
		rate, err := decimal.NewFromString(parts[1])
		if err != nil {
			log.Printf("Skipping invalid exchange rate for %s: %v", parts[0], err)
			continue
		}
		rates[strings.ToUpper(parts[0])] = rate
	}
	return rates
}
