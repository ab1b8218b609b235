package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	domain "github.com/famto/api/internal/domain"
	"github.com/famto/api/internal/platform/auth"
	"github.com/famto/api/internal/platform/httpx"
	"github.com/famto/api/internal/services"
)

const (
	maxProofMemory    = 8 << 20
	maxProofImages    = 5
	maxProofImageSize = 4 << 20
)

// AgentHandlers exposes the delivery-side endpoints: order completion with
// earnings settlement and delivery proof uploads.
type AgentHandlers struct {
	authn       *auth.Authenticator
	settlements services.SettlementService
}

// NewAgentHandlers constructs agent handlers.
func NewAgentHandlers(authn *auth.Authenticator, settlements services.SettlementService) *AgentHandlers {
	return &AgentHandlers{
		authn:       authn,
		settlements: settlements,
	}
}

// Routes wires the /agent endpoints.
func (h *AgentHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	if h.authn != nil {
		r.Use(h.authn.RequireFirebaseAuth(auth.RoleAgent))
	}
	r.Post("/orders/{orderID}/complete", h.completeOrder)
	r.Post("/orders/{orderID}/proof", h.attachProof)
}

type settlementResponse struct {
	Order         orderPayload `json:"order"`
	AgentEarning  float64      `json:"agent_earning"`
	LoyaltyPoints int          `json:"loyalty_points"`
	ReferralPaid  bool         `json:"referral_paid"`
	TimeTakenMin  float64      `json:"time_taken_minutes"`
	DelayedByMin  float64      `json:"delayed_by_minutes"`
}

func (h *AgentHandlers) completeOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	agentID, orderID, ok := h.requireAgentAndOrder(ctx, w, r)
	if !ok {
		return
	}

	result, err := h.settlements.CompleteOrder(ctx, services.CompleteOrderCommand{
		OrderID: orderID,
		AgentID: agentID,
	})
	if err != nil {
		writeSettlementError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, settlementResponse{
		Order:         buildOrderPayload(result.Order),
		AgentEarning:  result.AgentEarning,
		LoyaltyPoints: result.LoyaltyPoints,
		ReferralPaid:  result.ReferralPaid,
		TimeTakenMin:  result.TimeTakenMin,
		DelayedByMin:  result.DelayedByMin,
	})
}

type shopUpdateRequest struct {
	Location locationPayload `json:"location"`
	Address  string          `json:"address"`
}

func (h *AgentHandlers) attachProof(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	agentID, orderID, ok := h.requireAgentAndOrder(ctx, w, r)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(maxProofMemory); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "request must be multipart form data", http.StatusBadRequest))
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	cmd := services.AttachDeliveryProofCommand{
		OrderID: orderID,
		AgentID: agentID,
		Notes:   strings.TrimSpace(r.FormValue("notes")),
	}

	if raw := strings.TrimSpace(r.FormValue("shop_update")); raw != "" {
		var update shopUpdateRequest
		if err := json.Unmarshal([]byte(raw), &update); err != nil {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "shop_update must be a JSON object", http.StatusBadRequest))
			return
		}
		cmd.ShopUpdate = &domain.ShopUpdate{
			Location: domain.Location{Latitude: update.Location.Latitude, Longitude: update.Location.Longitude},
			Address:  strings.TrimSpace(update.Address),
		}
	}

	files := r.MultipartForm.File["images"]
	if len(files) > maxProofImages {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "too many proof images", http.StatusBadRequest))
		return
	}
	for _, header := range files {
		if header.Size > maxProofImageSize {
			httpx.WriteError(ctx, w, httpx.NewError("payload_too_large", "proof image exceeds allowed size", http.StatusRequestEntityTooLarge))
			return
		}
		file, err := header.Open()
		if err != nil {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "failed to read proof image", http.StatusBadRequest))
			return
		}
		defer file.Close()
		cmd.Images = append(cmd.Images, services.DeliveryProofImage{
			Content:     file,
			FileName:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
		})
	}

	order, err := h.settlements.AttachDeliveryProof(ctx, cmd)
	if err != nil {
		writeSettlementError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, orderResponse{Order: buildOrderPayload(order)})
}

func (h *AgentHandlers) requireAgentAndOrder(ctx context.Context, w http.ResponseWriter, r *http.Request) (string, string, bool) {
	if h.settlements == nil {
		httpx.WriteError(ctx, w, httpx.NewError("settlement_service_unavailable", "settlement service is unavailable", http.StatusServiceUnavailable))
		return "", "", false
	}
	identity, ok := auth.IdentityFromContext(ctx)
	if !ok || identity == nil || strings.TrimSpace(identity.UID) == "" {
		httpx.WriteError(ctx, w, httpx.NewError("unauthenticated", "authentication required", http.StatusUnauthorized))
		return "", "", false
	}
	orderID := strings.TrimSpace(chi.URLParam(r, "orderID"))
	if orderID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "order id is required", http.StatusBadRequest))
		return "", "", false
	}
	return strings.TrimSpace(identity.UID), orderID, true
}

func writeSettlementError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, services.ErrSettlementInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrSettlementNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("order_not_found", "order not found", http.StatusNotFound))
	case errors.Is(err, services.ErrSettlementAlreadyCompleted):
		httpx.WriteError(ctx, w, httpx.NewError("order_already_completed", err.Error(), http.StatusConflict))
	case errors.Is(err, services.ErrSettlementInvalidState):
		httpx.WriteError(ctx, w, httpx.NewError("order_invalid_state", err.Error(), http.StatusConflict))
	case errors.Is(err, services.ErrSettlementUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("settlement_service_unavailable", "settlement service is unavailable", http.StatusServiceUnavailable))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("settlement_error", "failed to process settlement request", http.StatusInternalServerError))
	}
}
