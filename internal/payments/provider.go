package payments

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/famto/api/internal/services"
)

// Status enumerates the normalised payment states shared across providers.
type Status string

const (
	// StatusPending indicates the payment is awaiting customer action or PSP confirmation.
	StatusPending Status = "pending"
	// StatusSucceeded indicates the PSP reports the payment as successfully captured.
	StatusSucceeded Status = "succeeded"
	// StatusFailed indicates the PSP reports a failure and no further action is possible.
	StatusFailed Status = "failed"
	// StatusRefunded indicates the payment has been refunded (partially or fully).
	StatusRefunded Status = "refunded"
)

// ErrNoProvider is returned when the gateway has no provider configured.
var ErrNoProvider = errors.New("payments: no provider configured")

// IntentRequest captures the payload required to open a payment intent.
type IntentRequest struct {
	Amount         int64
	Currency       string
	Metadata       map[string]string
	IdempotencyKey string
}

// RefundRequest defines a PSP refund attempt against a captured payment.
type RefundRequest struct {
	IntentID       string
	Amount         *int64
	Reason         string
	IdempotencyKey string
	Metadata       map[string]string
}

// PaymentDetails normalises PSP specific fields for storage.
type PaymentDetails struct {
	Provider   string
	IntentID   string
	Status     Status
	Amount     int64
	Currency   string
	Captured   bool
	CapturedAt *time.Time
	RefundedAt *time.Time
	RefundID   string
	Raw        map[string]any
}

// Provider defines the contract for PSP adapters to implement.
type Provider interface {
	CreateIntent(ctx context.Context, req IntentRequest) (PaymentDetails, error)
	LookupPayment(ctx context.Context, intentID string) (PaymentDetails, error)
	Refund(ctx context.Context, req RefundRequest) (PaymentDetails, error)
}

// Gateway adapts a Provider to the order flow's payment contract, converting
// rupee amounts to the PSP's minor currency unit.
type Gateway struct {
	provider Provider
	currency string
}

// NewGateway constructs a Gateway over the supplied provider.
func NewGateway(provider Provider, currency string) (*Gateway, error) {
	if provider == nil {
		return nil, ErrNoProvider
	}
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		currency = "INR"
	}
	return &Gateway{
		provider: provider,
		currency: currency,
	}, nil
}

// CreatePaymentIntent opens an intent for the given rupee amount and returns
// its identifier for client-side capture.
func (g *Gateway) CreatePaymentIntent(ctx context.Context, amount float64, metadata map[string]string) (string, error) {
	if g == nil || g.provider == nil {
		return "", ErrNoProvider
	}
	if amount <= 0 {
		return "", errors.New("payments: amount must be positive")
	}
	details, err := g.provider.CreateIntent(ctx, IntentRequest{
		Amount:   minorUnits(amount),
		Currency: g.currency,
		Metadata: metadata,
	})
	if err != nil {
		return "", err
	}
	return details.IntentID, nil
}

// VerifyPayment checks that the intent named in the callback was captured.
func (g *Gateway) VerifyPayment(ctx context.Context, details services.PaymentVerification) (bool, error) {
	if g == nil || g.provider == nil {
		return false, ErrNoProvider
	}
	intentID := strings.TrimSpace(details.IntentID)
	if intentID == "" {
		return false, errors.New("payments: intent id is required")
	}
	payment, err := g.provider.LookupPayment(ctx, intentID)
	if err != nil {
		return false, err
	}
	return payment.Captured && payment.Status == StatusSucceeded, nil
}

// Refund returns the given rupee amount against a captured payment.
func (g *Gateway) Refund(ctx context.Context, paymentID string, amount float64) (services.RefundResult, error) {
	if g == nil || g.provider == nil {
		return services.RefundResult{}, ErrNoProvider
	}
	paymentID = strings.TrimSpace(paymentID)
	if paymentID == "" {
		return services.RefundResult{}, errors.New("payments: payment id is required")
	}
	if amount <= 0 {
		return services.RefundResult{}, errors.New("payments: refund amount must be positive")
	}
	units := minorUnits(amount)
	details, err := g.provider.Refund(ctx, RefundRequest{
		IntentID: paymentID,
		Amount:   &units,
	})
	if err != nil {
		return services.RefundResult{}, err
	}
	return services.RefundResult{
		Success:  details.RefundID != "" || details.Status == StatusRefunded,
		RefundID: details.RefundID,
	}, nil
}

// minorUnits converts rupees to paise, rounding half away from zero.
func minorUnits(amount float64) int64 {
	return int64(math.Trunc(amount*100 + math.Copysign(0.5, amount)))
}

var _ services.PaymentGateway = (*Gateway)(nil)
