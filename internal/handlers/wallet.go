package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	domain "github.com/famto/api/internal/domain"
	"github.com/famto/api/internal/platform/auth"
	"github.com/famto/api/internal/platform/httpx"
	"github.com/famto/api/internal/services"
)

const maxWalletBodySize = 4 * 1024

// WalletHandlers exposes the customer wallet balance plus the administrative
// adjustment endpoints.
type WalletHandlers struct {
	authn   *auth.Authenticator
	wallets services.WalletService
}

// NewWalletHandlers constructs wallet handlers.
func NewWalletHandlers(authn *auth.Authenticator, wallets services.WalletService) *WalletHandlers {
	return &WalletHandlers{
		authn:   authn,
		wallets: wallets,
	}
}

// Routes wires the customer-facing /wallet endpoints.
func (h *WalletHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	if h.authn != nil {
		r.Use(h.authn.RequireFirebaseAuth(auth.RoleCustomer))
	}
	r.Get("/balance", h.getBalance)
}

// AdminRoutes wires the manual credit and debit endpoints.
func (h *WalletHandlers) AdminRoutes(r chi.Router) {
	if r == nil {
		return
	}
	if h.authn != nil {
		r.Use(h.authn.RequireFirebaseAuth(auth.RoleAdmin))
	}
	r.Post("/{customerID}/credit", h.credit)
	r.Post("/{customerID}/debit", h.debit)
}

func (h *WalletHandlers) getBalance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.wallets == nil {
		httpx.WriteError(ctx, w, httpx.NewError("wallet_service_unavailable", "wallet service is unavailable", http.StatusServiceUnavailable))
		return
	}
	identity, ok := auth.IdentityFromContext(ctx)
	if !ok || identity == nil || strings.TrimSpace(identity.UID) == "" {
		httpx.WriteError(ctx, w, httpx.NewError("unauthenticated", "authentication required", http.StatusUnauthorized))
		return
	}

	balance, err := h.wallets.Balance(ctx, strings.TrimSpace(identity.UID))
	if err != nil {
		writeWalletError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"balance": balance})
}

type walletMovementRequest struct {
	Amount      float64 `json:"amount"`
	OrderID     *string `json:"order_id"`
	Description string  `json:"description"`
}

func (h *WalletHandlers) credit(w http.ResponseWriter, r *http.Request) {
	h.move(w, r, h.wallets.Credit)
}

func (h *WalletHandlers) debit(w http.ResponseWriter, r *http.Request) {
	h.move(w, r, h.wallets.Debit)
}

func (h *WalletHandlers) move(w http.ResponseWriter, r *http.Request, apply func(context.Context, services.WalletMovementCommand) (services.Customer, error)) {
	ctx := r.Context()
	if h.wallets == nil {
		httpx.WriteError(ctx, w, httpx.NewError("wallet_service_unavailable", "wallet service is unavailable", http.StatusServiceUnavailable))
		return
	}

	customerID := strings.TrimSpace(chi.URLParam(r, "customerID"))
	if customerID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "customer id is required", http.StatusBadRequest))
		return
	}

	body, err := readLimitedBody(r, maxWalletBodySize)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}
	var req walletMovementRequest
	if !unmarshalBody(ctx, w, body, &req) {
		return
	}

	customer, err := apply(ctx, services.WalletMovementCommand{
		CustomerID:  customerID,
		Amount:      req.Amount,
		Category:    domain.TransactionTypeRefund,
		OrderID:     cloneStringPointer(req.OrderID),
		Description: strings.TrimSpace(req.Description),
	})
	if err != nil {
		writeWalletError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, walletResponse{
		CustomerID:   customer.ID,
		Balance:      customer.WalletBalance,
		Transactions: buildWalletTransactions(customer.WalletTransactions),
	})
}

func writeWalletError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, services.ErrWalletInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrWalletCustomerNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("customer_not_found", "customer not found", http.StatusNotFound))
	case errors.Is(err, services.ErrWalletInsufficientBalance):
		httpx.WriteError(ctx, w, httpx.NewError("insufficient_balance", "wallet balance is too low", http.StatusConflict))
	case errors.Is(err, services.ErrWalletUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("wallet_service_unavailable", "wallet service is unavailable", http.StatusServiceUnavailable))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("wallet_error", "failed to process wallet request", http.StatusInternalServerError))
	}
}

type walletResponse struct {
	CustomerID   string                     `json:"customer_id"`
	Balance      float64                    `json:"balance"`
	Transactions []walletTransactionPayload `json:"transactions"`
}

type walletTransactionPayload struct {
	ID             string  `json:"id"`
	Amount         float64 `json:"amount"`
	Type           string  `json:"type"`
	ClosingBalance float64 `json:"closing_balance"`
	OrderID        *string `json:"order_id,omitempty"`
	Description    string  `json:"description,omitempty"`
	OccurredAt     string  `json:"occurred_at"`
}

func buildWalletTransactions(transactions []domain.WalletTransaction) []walletTransactionPayload {
	if len(transactions) == 0 {
		return []walletTransactionPayload{}
	}
	payload := make([]walletTransactionPayload, 0, len(transactions))
	for _, tx := range transactions {
		payload = append(payload, walletTransactionPayload{
			ID:             tx.ID,
			Amount:         tx.Amount,
			Type:           string(tx.Type),
			ClosingBalance: tx.ClosingBalance,
			OrderID:        cloneStringPointer(tx.OrderID),
			Description:    tx.Description,
			OccurredAt:     formatTime(tx.OccurredAt),
		})
	}
	return payload
}
