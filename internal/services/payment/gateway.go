package payment

import (
	"context"
	"fmt"

	"safarpay/internal/models"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v72"
	"github.com/stripe/stripe-go/v72/checkout/session"
)

// Gateway is the boundary to an external payment provider. The wallet core
// never talks to a provider beyond this contract.
type Gateway interface {
	CreatePayment(ctx context.Context, req CreatePaymentRequest) (*CreatePaymentResult, error)
}

// CreatePaymentRequest asks a gateway to start a payment.
type CreatePaymentRequest struct {
	Amount      models.Money
	Description string
	OrderID     string
	CallbackURL string
}

// CreatePaymentResult is the gateway's answer: a redirect URL plus the
// authority used later as the confirmation reference.
type CreatePaymentResult struct {
	IsSuccessful bool
	PaymentURL   string
	Authority    string
	ErrorMessage string
}

// StripeGateway starts payments through Stripe hosted checkout.
type StripeGateway struct {
	successURL string
	cancelURL  string
}

// NewStripeGateway configures the Stripe gateway. The API key is the global
// stripe.Key, set once at startup.
func NewStripeGateway(apiKey, successURL, cancelURL string) *StripeGateway {
	stripe.Key = apiKey
	return &StripeGateway{successURL: successURL, cancelURL: cancelURL}
}

func (g *StripeGateway) CreatePayment(ctx context.Context, req CreatePaymentRequest) (*CreatePaymentResult, error) {
	// Stripe wants the smallest currency unit.
	unitAmount := req.Amount.Value().Shift(models.DecimalPlaces(req.Amount.Currency())).IntPart()
	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(g.successURL),
		CancelURL:  stripe.String(g.cancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(req.Amount.Currency()),
					UnitAmount: stripe.Int64(unitAmount),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(req.Description),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
		ClientReferenceID: stripe.String(req.OrderID),
	}
	params.Context = ctx

	sess, err := session.New(params)
	if err != nil {
		return &CreatePaymentResult{IsSuccessful: false, ErrorMessage: err.Error()}, nil
	}
	return &CreatePaymentResult{
		IsSuccessful: true,
		PaymentURL:   sess.URL,
		Authority:    sess.ID,
	}, nil
}

// SandboxGateway approves every payment without leaving the process. Used
// for local runs and tests.
type SandboxGateway struct {
	BaseURL string
}

func (g *SandboxGateway) CreatePayment(ctx context.Context, req CreatePaymentRequest) (*CreatePaymentResult, error) {
	authority := "SBX-" + uuid.NewString()
	return &CreatePaymentResult{
		IsSuccessful: true,
		PaymentURL:   fmt.Sprintf("%s/pay/%s", g.BaseURL, authority),
		Authority:    authority,
	}, nil
}
