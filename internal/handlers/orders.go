package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	domain "github.com/famto/api/internal/domain"
	"github.com/famto/api/internal/platform/auth"
	"github.com/famto/api/internal/platform/httpx"
	"github.com/famto/api/internal/services"
)

const (
	defaultOrderPageSize   = 20
	maxOrderPageSize       = 100
	maxOrderBodySize       = 8 * 1024
	confirmRateLimitPerMin = 6
	confirmRateLimitWindow = time.Minute
)

var validOrderStatuses = map[domain.OrderStatus]struct{}{
	domain.OrderStatusPending:   {},
	domain.OrderStatusOnGoing:   {},
	domain.OrderStatusCompleted: {},
	domain.OrderStatusCancelled: {},
}

// OrderHandlers exposes the customer-facing order lifecycle endpoints plus the
// merchant and admin decision surfaces.
type OrderHandlers struct {
	authn   *auth.Authenticator
	orders  services.OrderService
	limiter rateLimiter
}

// NewOrderHandlers constructs order handlers. Confirmation calls are rate
// limited per customer to absorb double-tap retries.
func NewOrderHandlers(authn *auth.Authenticator, orders services.OrderService) *OrderHandlers {
	return &OrderHandlers{
		authn:   authn,
		orders:  orders,
		limiter: newSimpleRateLimiter(confirmRateLimitPerMin, confirmRateLimitWindow, nil),
	}
}

// Routes wires the customer-facing /orders endpoints.
func (h *OrderHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	if h.authn != nil {
		r.Use(h.authn.RequireFirebaseAuth(auth.RoleCustomer))
	}
	r.Post("/confirm", h.confirmCart)
	r.Post("/temporary/{temporaryOrderID}/cancel", h.cancelBeforeCreation)
	r.Get("/", h.listOrders)
	r.Get("/{orderID}", h.getOrder)
}

// MerchantRoutes wires the merchant decision endpoints.
func (h *OrderHandlers) MerchantRoutes(r chi.Router) {
	if r == nil {
		return
	}
	if h.authn != nil {
		r.Use(h.authn.RequireFirebaseAuth(auth.RoleMerchant))
	}
	r.Post("/{orderID}/confirm", h.merchantConfirm)
	r.Post("/{orderID}/reject", h.merchantReject)
	r.Get("/", h.listOrders)
	r.Get("/{orderID}", h.getOrder)
}

// AdminRoutes wires the administrative order endpoints.
func (h *OrderHandlers) AdminRoutes(r chi.Router) {
	if r == nil {
		return
	}
	if h.authn != nil {
		r.Use(h.authn.RequireFirebaseAuth(auth.RoleAdmin))
	}
	r.Post("/{orderID}/reject", h.adminReject)
	r.Get("/", h.listOrders)
	r.Get("/{orderID}", h.getOrder)
}

// InternalRoutes wires the worker callbacks driving the staged-order countdown.
func (h *OrderHandlers) InternalRoutes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/orders/temporary/{temporaryOrderID}/promote", h.promote)
	r.Post("/orders/recover-expired", h.recoverExpired)
}

type confirmCartRequest struct {
	PaymentMode string `json:"payment_mode"`
	Payment     *struct {
		IntentID  string `json:"intent_id"`
		PaymentID string `json:"payment_id"`
		Signature string `json:"signature"`
	} `json:"payment"`
}

type confirmCartResponse struct {
	TemporaryOrderID string  `json:"temporary_order_id"`
	OrderID          string  `json:"order_id"`
	CountdownSeconds int     `json:"countdown_seconds"`
	PaymentIntentID  *string `json:"payment_intent_id,omitempty"`
}

func (h *OrderHandlers) confirmCart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := h.requireIdentity(ctx, w)
	if !ok {
		return
	}

	if h.limiter != nil && !h.limiter.Allow(identity.UID) {
		httpx.WriteError(ctx, w, httpx.NewError("rate_limited", "too many confirmation attempts; slow down", http.StatusTooManyRequests))
		return
	}

	var req confirmCartRequest
	if !decodeJSONBody(ctx, w, r, &req) {
		return
	}

	cmd := services.ConfirmCartCommand{
		CustomerID:  strings.TrimSpace(identity.UID),
		PaymentMode: services.PaymentMode(strings.TrimSpace(req.PaymentMode)),
	}
	if req.Payment != nil {
		cmd.Payment = &services.PaymentVerification{
			IntentID:  strings.TrimSpace(req.Payment.IntentID),
			PaymentID: strings.TrimSpace(req.Payment.PaymentID),
			Signature: strings.TrimSpace(req.Payment.Signature),
		}
	}

	result, err := h.orders.ConfirmCartAndStage(ctx, cmd)
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusAccepted, confirmCartResponse{
		TemporaryOrderID: result.TemporaryOrderID,
		OrderID:          result.OrderID,
		CountdownSeconds: result.CountdownSeconds,
		PaymentIntentID:  result.PaymentIntentID,
	})
}

func (h *OrderHandlers) cancelBeforeCreation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if _, ok := h.requireIdentity(ctx, w); !ok {
		return
	}

	temporaryOrderID := strings.TrimSpace(chi.URLParam(r, "temporaryOrderID"))
	if temporaryOrderID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "temporary order id is required", http.StatusBadRequest))
		return
	}

	if err := h.orders.CancelBeforeCreation(ctx, temporaryOrderID); err != nil {
		writeOrderError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *OrderHandlers) listOrders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := h.requireIdentity(ctx, w)
	if !ok {
		return
	}

	query := r.URL.Query()

	var statuses []domain.OrderStatus
	for _, raw := range parseFilterValues(query["status"]) {
		status := domain.OrderStatus(raw)
		if _, valid := validOrderStatuses[status]; !valid {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "status filter contains an unknown order status", http.StatusBadRequest))
			return
		}
		statuses = append(statuses, status)
	}

	var dateRange domain.RangeQuery[time.Time]
	if raw := strings.TrimSpace(query.Get("created_after")); raw != "" {
		ts, err := parseRFC3339(raw)
		if err != nil {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "created_after must be a valid RFC3339 timestamp", http.StatusBadRequest))
			return
		}
		dateRange.From = &ts
	}
	if raw := strings.TrimSpace(query.Get("created_before")); raw != "" {
		ts, err := parseRFC3339(raw)
		if err != nil {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "created_before must be a valid RFC3339 timestamp", http.StatusBadRequest))
			return
		}
		dateRange.To = &ts
	}

	pageSize := defaultOrderPageSize
	if sizeRaw := strings.TrimSpace(query.Get("page_size")); sizeRaw != "" {
		size, err := strconv.Atoi(sizeRaw)
		if err != nil {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "page_size must be an integer", http.StatusBadRequest))
			return
		}
		switch {
		case size <= 0:
			pageSize = defaultOrderPageSize
		case size > maxOrderPageSize:
			pageSize = maxOrderPageSize
		default:
			pageSize = size
		}
	}

	filter := services.OrderListFilter{
		Status:    statuses,
		DateRange: dateRange,
		Pagination: services.Pagination{
			PageSize:  pageSize,
			PageToken: strings.TrimSpace(query.Get("page_token")),
		},
	}
	// Non-admin callers only ever see their own orders.
	switch {
	case identity.HasRole(auth.RoleAdmin):
		filter.CustomerID = strings.TrimSpace(query.Get("customer_id"))
		filter.MerchantID = strings.TrimSpace(query.Get("merchant_id"))
		filter.AgentID = strings.TrimSpace(query.Get("agent_id"))
	case identity.HasRole(auth.RoleMerchant):
		filter.MerchantID = strings.TrimSpace(identity.UID)
	default:
		filter.CustomerID = strings.TrimSpace(identity.UID)
	}

	page, err := h.orders.ListOrders(ctx, filter)
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}

	items := make([]orderSummaryPayload, 0, len(page.Items))
	for _, order := range page.Items {
		items = append(items, buildOrderSummary(order))
	}
	writeJSONResponse(w, http.StatusOK, orderListResponse{
		Items:         items,
		NextPageToken: strings.TrimSpace(page.NextPageToken),
	})
}

func (h *OrderHandlers) getOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := h.requireIdentity(ctx, w)
	if !ok {
		return
	}

	orderID := strings.TrimSpace(chi.URLParam(r, "orderID"))
	if orderID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "order id is required", http.StatusBadRequest))
		return
	}

	order, err := h.orders.GetOrder(ctx, orderID)
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}

	if !canViewOrder(identity, order) {
		httpx.WriteError(ctx, w, httpx.NewError("order_not_found", "order not found", http.StatusNotFound))
		return
	}

	writeJSONResponse(w, http.StatusOK, orderResponse{Order: buildOrderPayload(order)})
}

type decisionRequest struct {
	Reason string `json:"reason"`
}

func (h *OrderHandlers) merchantConfirm(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, func(ctx context.Context, cmd services.MerchantDecisionCommand) (services.Order, error) {
		return h.orders.MerchantConfirm(ctx, cmd)
	}, false)
}

func (h *OrderHandlers) merchantReject(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, func(ctx context.Context, cmd services.MerchantDecisionCommand) (services.Order, error) {
		return h.orders.MerchantReject(ctx, cmd)
	}, true)
}

func (h *OrderHandlers) adminReject(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, func(ctx context.Context, cmd services.MerchantDecisionCommand) (services.Order, error) {
		return h.orders.AdminReject(ctx, cmd)
	}, true)
}

func (h *OrderHandlers) decide(w http.ResponseWriter, r *http.Request, apply func(context.Context, services.MerchantDecisionCommand) (services.Order, error), wantBody bool) {
	ctx := r.Context()
	identity, ok := h.requireIdentity(ctx, w)
	if !ok {
		return
	}

	orderID := strings.TrimSpace(chi.URLParam(r, "orderID"))
	if orderID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "order id is required", http.StatusBadRequest))
		return
	}

	var req decisionRequest
	if wantBody {
		body, err := readLimitedBody(r, maxOrderBodySize)
		if err != nil && !errors.Is(err, errEmptyBody) {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
			return
		}
		if len(body) > 0 {
			if !unmarshalBody(ctx, w, body, &req) {
				return
			}
		}
	}

	order, err := apply(ctx, services.MerchantDecisionCommand{
		OrderID: orderID,
		ActorID: strings.TrimSpace(identity.UID),
		Reason:  strings.TrimSpace(req.Reason),
	})
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, orderResponse{Order: buildOrderPayload(order)})
}

func (h *OrderHandlers) promote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.orders == nil {
		httpx.WriteError(ctx, w, httpx.NewError("order_service_unavailable", "order service unavailable", http.StatusServiceUnavailable))
		return
	}

	temporaryOrderID := strings.TrimSpace(chi.URLParam(r, "temporaryOrderID"))
	if temporaryOrderID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "temporary order id is required", http.StatusBadRequest))
		return
	}

	order, err := h.orders.Promote(ctx, temporaryOrderID)
	if err != nil {
		// The customer cancelled inside the window; the worker treats this as done.
		if errors.Is(err, services.ErrOrderAlreadyProcessed) {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		writeOrderError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, orderResponse{Order: buildOrderPayload(order)})
}

func (h *OrderHandlers) recoverExpired(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.orders == nil {
		httpx.WriteError(ctx, w, httpx.NewError("order_service_unavailable", "order service unavailable", http.StatusServiceUnavailable))
		return
	}

	limit := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "limit must be a non-negative integer", http.StatusBadRequest))
			return
		}
		limit = parsed
	}

	promoted, err := h.orders.RecoverExpired(ctx, limit)
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"promoted": promoted})
}

func (h *OrderHandlers) requireIdentity(ctx context.Context, w http.ResponseWriter) (*auth.Identity, bool) {
	if h.orders == nil {
		httpx.WriteError(ctx, w, httpx.NewError("order_service_unavailable", "order service unavailable", http.StatusServiceUnavailable))
		return nil, false
	}
	identity, ok := auth.IdentityFromContext(ctx)
	if !ok || identity == nil || strings.TrimSpace(identity.UID) == "" {
		httpx.WriteError(ctx, w, httpx.NewError("unauthenticated", "authentication required", http.StatusUnauthorized))
		return nil, false
	}
	return identity, true
}

func unmarshalBody(ctx context.Context, w http.ResponseWriter, body []byte, target any) bool {
	if err := json.Unmarshal(body, target); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "invalid JSON body", http.StatusBadRequest))
		return false
	}
	return true
}

func canViewOrder(identity *auth.Identity, order services.Order) bool {
	if identity.HasRole(auth.RoleAdmin) {
		return true
	}
	uid := strings.TrimSpace(identity.UID)
	if identity.HasRole(auth.RoleMerchant) {
		return order.MerchantID != nil && strings.EqualFold(strings.TrimSpace(*order.MerchantID), uid)
	}
	if identity.HasRole(auth.RoleAgent) {
		return order.AgentID != nil && strings.EqualFold(strings.TrimSpace(*order.AgentID), uid)
	}
	return strings.EqualFold(strings.TrimSpace(order.CustomerID), uid)
}

func writeOrderError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, services.ErrOrderInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrOrderNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("order_not_found", "order not found", http.StatusNotFound))
	case errors.Is(err, services.ErrOrderAlreadyProcessed):
		httpx.WriteError(ctx, w, httpx.NewError("order_already_processed", err.Error(), http.StatusConflict))
	case errors.Is(err, services.ErrOrderInvalidState):
		httpx.WriteError(ctx, w, httpx.NewError("order_invalid_state", err.Error(), http.StatusConflict))
	case errors.Is(err, services.ErrOrderConflict):
		httpx.WriteError(ctx, w, httpx.NewError("order_conflict", err.Error(), http.StatusConflict))
	case errors.Is(err, services.ErrOrderPaymentFailed):
		httpx.WriteError(ctx, w, httpx.NewError("payment_failed", err.Error(), http.StatusPaymentRequired))
	case errors.Is(err, services.ErrWalletInsufficientBalance):
		httpx.WriteError(ctx, w, httpx.NewError("insufficient_balance", "wallet balance is too low", http.StatusPaymentRequired))
	case errors.Is(err, services.ErrCartNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("cart_not_found", "cart not found", http.StatusNotFound))
	case errors.Is(err, services.ErrOrderUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("order_service_unavailable", "order service unavailable", http.StatusServiceUnavailable))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("order_error", "failed to process order request", http.StatusInternalServerError))
	}
}

type orderListResponse struct {
	Items         []orderSummaryPayload `json:"items"`
	NextPageToken string                `json:"next_page_token,omitempty"`
}

type orderSummaryPayload struct {
	ID           string  `json:"id"`
	Status       string  `json:"status"`
	DeliveryMode string  `json:"delivery_mode"`
	PaymentMode  string  `json:"payment_mode"`
	TotalAmount  float64 `json:"total_amount"`
	CreatedAt    string  `json:"created_at"`
}

type orderResponse struct {
	Order orderPayload `json:"order"`
}

type orderPayload struct {
	ID               string             `json:"id"`
	CustomerID       string             `json:"customer_id"`
	MerchantID       *string            `json:"merchant_id,omitempty"`
	AgentID          *string            `json:"agent_id,omitempty"`
	Items            []cartItemPayload  `json:"items"`
	Detail           orderDetailPayload `json:"detail"`
	Bill             billDetailPayload  `json:"bill"`
	TotalAmount      float64            `json:"total_amount"`
	Status           string             `json:"status"`
	PaymentMode      string             `json:"payment_mode"`
	PaymentStatus    string             `json:"payment_status"`
	PaymentID        *string            `json:"payment_id,omitempty"`
	RefundID         *string            `json:"refund_id,omitempty"`
	Commission       *commissionPayload `json:"commission,omitempty"`
	AgentDetail      *agentProofPayload `json:"agent_detail,omitempty"`
	Stepper          orderStepperData   `json:"stepper"`
	CancelReason     *string            `json:"cancel_reason,omitempty"`
	TimeTakenMinutes *float64           `json:"time_taken_minutes,omitempty"`
	DelayedByMinutes *float64           `json:"delayed_by_minutes,omitempty"`
	CreatedAt        string             `json:"created_at"`
	UpdatedAt        string             `json:"updated_at,omitempty"`
}

type orderDetailPayload struct {
	PickupLocation   *locationPayload `json:"pickup_location,omitempty"`
	PickupAddress    *addressPayload  `json:"pickup_address,omitempty"`
	DeliveryLocation *locationPayload `json:"delivery_location,omitempty"`
	DeliveryAddress  *addressPayload  `json:"delivery_address,omitempty"`
	DeliveryMode     string           `json:"delivery_mode"`
	DeliveryOption   string           `json:"delivery_option"`
	Schedule         *schedulePayload `json:"schedule,omitempty"`
	Instructions     string           `json:"instructions,omitempty"`
	VehicleType      *string          `json:"vehicle_type,omitempty"`
	GeofenceID       string           `json:"geofence_id,omitempty"`
	DistanceKm       float64          `json:"distance_km,omitempty"`
	DurationMinutes  float64          `json:"duration_minutes,omitempty"`
	DeliveryTime     string           `json:"delivery_time,omitempty"`
}

type commissionPayload struct {
	MerchantEarnings float64 `json:"merchant_earnings"`
	FamtoEarnings    float64 `json:"famto_earnings"`
}

type agentProofPayload struct {
	Notes       string              `json:"notes,omitempty"`
	Images      []string            `json:"images,omitempty"`
	ShopUpdates []shopUpdatePayload `json:"shop_updates,omitempty"`
}

type shopUpdatePayload struct {
	Location  locationPayload `json:"location"`
	Address   string          `json:"address"`
	UpdatedAt string          `json:"updated_at"`
}

type orderStepperData struct {
	Created   string `json:"created,omitempty"`
	Accepted  string `json:"accepted,omitempty"`
	Assigned  string `json:"assigned,omitempty"`
	PickedUp  string `json:"picked_up,omitempty"`
	Completed string `json:"completed,omitempty"`
	Cancelled string `json:"cancelled,omitempty"`
}

func buildOrderSummary(order services.Order) orderSummaryPayload {
	return orderSummaryPayload{
		ID:           strings.TrimSpace(order.ID),
		Status:       string(order.Status),
		DeliveryMode: string(order.OrderDetail.DeliveryMode),
		PaymentMode:  string(order.PaymentMode),
		TotalAmount:  order.TotalAmount,
		CreatedAt:    formatTime(order.CreatedAt),
	}
}

func buildOrderPayload(order services.Order) orderPayload {
	payload := orderPayload{
		ID:               strings.TrimSpace(order.ID),
		CustomerID:       strings.TrimSpace(order.CustomerID),
		MerchantID:       cloneStringPointer(order.MerchantID),
		AgentID:          cloneStringPointer(order.AgentID),
		Items:            buildCartItemPayloads(order.Items),
		Detail:           buildOrderDetailPayload(order.OrderDetail),
		Bill:             buildBillDetailPayload(order.BillDetail),
		TotalAmount:      order.TotalAmount,
		Status:           string(order.Status),
		PaymentMode:      string(order.PaymentMode),
		PaymentStatus:    string(order.PaymentStatus),
		PaymentID:        cloneStringPointer(order.PaymentID),
		RefundID:         cloneStringPointer(order.RefundID),
		CancelReason:     cloneStringPointer(order.CancelReason),
		TimeTakenMinutes: order.TimeTakenMinutes,
		DelayedByMinutes: order.DelayedByMinutes,
		CreatedAt:        formatTime(order.CreatedAt),
		UpdatedAt:        formatTime(order.UpdatedAt),
		Stepper: orderStepperData{
			Created:   formatTimePtr(order.Stepper.Created),
			Accepted:  formatTimePtr(order.Stepper.Accepted),
			Assigned:  formatTimePtr(order.Stepper.Assigned),
			PickedUp:  formatTimePtr(order.Stepper.PickedUp),
			Completed: formatTimePtr(order.Stepper.Completed),
			Cancelled: formatTimePtr(order.Stepper.Cancelled),
		},
	}

	if order.CommissionDetail != nil {
		payload.Commission = &commissionPayload{
			MerchantEarnings: order.CommissionDetail.MerchantEarnings,
			FamtoEarnings:    order.CommissionDetail.FamtoEarnings,
		}
	}
	if order.DetailAddedByAgent != nil {
		payload.AgentDetail = buildAgentProofPayload(order.DetailAddedByAgent)
	}
	return payload
}

func buildOrderDetailPayload(detail domain.OrderDetail) orderDetailPayload {
	return orderDetailPayload{
		PickupLocation:   buildLocationPayload(detail.PickupLocation),
		PickupAddress:    buildAddressPayload(detail.PickupAddress),
		DeliveryLocation: buildLocationPayload(detail.DeliveryLocation),
		DeliveryAddress:  buildAddressPayload(detail.DeliveryAddress),
		DeliveryMode:     string(detail.DeliveryMode),
		DeliveryOption:   string(detail.DeliveryOption),
		Schedule:         buildSchedulePayload(detail.Schedule),
		Instructions:     strings.TrimSpace(detail.Instructions),
		VehicleType:      cloneStringPointer(detail.VehicleType),
		GeofenceID:       strings.TrimSpace(detail.GeofenceID),
		DistanceKm:       detail.DistanceKm,
		DurationMinutes:  detail.DurationMinutes,
		DeliveryTime:     formatTimePtr(detail.DeliveryTime),
	}
}

func buildAgentProofPayload(detail *domain.AgentAddedDetail) *agentProofPayload {
	if detail == nil {
		return nil
	}
	payload := &agentProofPayload{
		Notes:  strings.TrimSpace(detail.Notes),
		Images: append([]string(nil), detail.Images...),
	}
	for _, update := range detail.ShopUpdates {
		payload.ShopUpdates = append(payload.ShopUpdates, shopUpdatePayload{
			Location:  locationPayload{Latitude: update.Location.Latitude, Longitude: update.Location.Longitude},
			Address:   strings.TrimSpace(update.Address),
			UpdatedAt: formatTime(update.UpdatedAt),
		})
	}
	return payload
}
