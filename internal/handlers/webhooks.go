package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/webhook"

	"github.com/famto/api/internal/platform/httpx"
	"github.com/famto/api/internal/services"
)

const maxWebhookBodySize = 64 << 10

// WebhookLogger records webhook processing outcomes for observability sinks.
type WebhookLogger func(r *http.Request, event string, fields map[string]any)

type eventVerifier func(payload []byte, signature string) (stripe.Event, error)

// WebhookHandlers receives payment provider callbacks. Requests are
// authenticated by signature, not by Firebase identity.
type WebhookHandlers struct {
	orders services.OrderService
	verify eventVerifier
	log    WebhookLogger
}

// WebhookOption customises webhook handler construction.
type WebhookOption func(*WebhookHandlers)

// WithWebhookLogger overrides the logger used for webhook outcomes.
func WithWebhookLogger(log WebhookLogger) WebhookOption {
	return func(h *WebhookHandlers) {
		if log != nil {
			h.log = log
		}
	}
}

// WithWebhookVerifier overrides signature verification, primarily for tests.
func WithWebhookVerifier(verify func(payload []byte, signature string) (stripe.Event, error)) WebhookOption {
	return func(h *WebhookHandlers) {
		if verify != nil {
			h.verify = verify
		}
	}
}

// NewWebhookHandlers constructs handlers verifying Stripe signatures with the
// given signing secret.
func NewWebhookHandlers(orders services.OrderService, signingSecret string, opts ...WebhookOption) *WebhookHandlers {
	h := &WebhookHandlers{
		orders: orders,
		verify: func(payload []byte, signature string) (stripe.Event, error) {
			return webhook.ConstructEvent(payload, signature, signingSecret)
		},
		log: func(*http.Request, string, map[string]any) {},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Routes registers webhook endpoints on the provided router.
func (h *WebhookHandlers) Routes(r chi.Router) {
	r.Post("/stripe", h.stripeEvents)
}

func (h *WebhookHandlers) stripeEvents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBodySize+1))
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_body", "unable to read request body", http.StatusBadRequest))
		return
	}
	if len(payload) > maxWebhookBodySize {
		httpx.WriteError(ctx, w, httpx.NewError("payload_too_large", "webhook payload exceeds limit", http.StatusRequestEntityTooLarge))
		return
	}

	event, err := h.verify(payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		h.log(r, "webhook.stripe.signature_rejected", map[string]any{"error": err.Error()})
		httpx.WriteError(ctx, w, httpx.NewError("invalid_signature", "webhook signature verification failed", http.StatusBadRequest))
		return
	}

	switch event.Type {
	case "payment_intent.payment_failed":
		h.handlePaymentFailed(w, r, event)
		return
	case "payment_intent.succeeded":
		h.log(r, "webhook.stripe.payment_succeeded", map[string]any{"event_id": event.ID})
	default:
		h.log(r, "webhook.stripe.ignored", map[string]any{"event_id": event.ID, "type": string(event.Type)})
	}

	writeJSONResponse(w, http.StatusOK, map[string]bool{"received": true})
}

// handlePaymentFailed cancels the staged order tied to a failed payment so the
// customer is not promoted into a paid order they never completed payment for.
func (h *WebhookHandlers) handlePaymentFailed(w http.ResponseWriter, r *http.Request, event stripe.Event) {
	ctx := r.Context()

	if event.Data == nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_payload", "event carries no payload", http.StatusBadRequest))
		return
	}

	var intent stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_payload", "unable to parse payment intent", http.StatusBadRequest))
		return
	}

	temporaryOrderID := intent.Metadata["temporary_order_id"]
	if temporaryOrderID == "" {
		h.log(r, "webhook.stripe.payment_failed.unlinked", map[string]any{"event_id": event.ID, "intent_id": intent.ID})
		writeJSONResponse(w, http.StatusOK, map[string]bool{"received": true})
		return
	}

	err := h.orders.CancelBeforeCreation(ctx, temporaryOrderID)
	switch {
	case err == nil:
		h.log(r, "webhook.stripe.payment_failed.cancelled", map[string]any{"temporary_order_id": temporaryOrderID, "intent_id": intent.ID})
	case errors.Is(err, services.ErrOrderNotFound), errors.Is(err, services.ErrOrderAlreadyProcessed):
		// The staged order already expired or was promoted; nothing to undo.
		h.log(r, "webhook.stripe.payment_failed.stale", map[string]any{"temporary_order_id": temporaryOrderID})
	default:
		httpx.WriteError(ctx, w, httpx.NewError("webhook_processing_failed", "unable to process payment failure", http.StatusInternalServerError))
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]bool{"received": true})
}
