package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	domain "github.com/famto/api/internal/domain"
	"github.com/famto/api/internal/platform/auth"
	"github.com/famto/api/internal/platform/httpx"
	"github.com/famto/api/internal/services"
)

const maxCartBodySize = 16 * 1024

// CartHandlers exposes the authenticated cart endpoints for the current customer.
type CartHandlers struct {
	authn *auth.Authenticator
	carts services.CartService
}

// NewCartHandlers constructs handlers enforcing Firebase authentication before
// invoking the cart service.
func NewCartHandlers(authn *auth.Authenticator, carts services.CartService) *CartHandlers {
	return &CartHandlers{
		authn: authn,
		carts: carts,
	}
}

// Routes wires the /cart endpoints onto the provided router.
func (h *CartHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	if h.authn != nil {
		r.Use(h.authn.RequireFirebaseAuth(auth.RoleCustomer))
	}
	r.Get("/", h.getCart)
	r.Delete("/", h.clearCart)
	r.Get("/bill", h.getBill)
	r.Put("/delivery", h.setDeliveryTarget)
	r.Post("/items", h.upsertItem)
	r.Put("/items", h.replaceItems)
	r.Delete("/items/{itemID}", h.removeItem)
	r.Post("/tip-promo", h.applyTipAndPromo)
}

func (h *CartHandlers) getCart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	customerID, ok := h.requireCustomer(ctx, w)
	if !ok {
		return
	}

	cart, err := h.carts.GetCart(ctx, customerID)
	if err != nil {
		writeCartError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, cartResponse{Cart: buildCartPayload(cart)})
}

func (h *CartHandlers) getBill(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	customerID, ok := h.requireCustomer(ctx, w)
	if !ok {
		return
	}

	bill, err := h.carts.GetBill(ctx, customerID)
	if err != nil {
		writeCartError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, billResponse{Bill: buildBillDetailPayload(bill)})
}

func (h *CartHandlers) clearCart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	customerID, ok := h.requireCustomer(ctx, w)
	if !ok {
		return
	}

	if err := h.carts.Clear(ctx, customerID); err != nil {
		writeCartError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type setDeliveryTargetRequest struct {
	MerchantID       *string          `json:"merchant_id"`
	DeliveryMode     string           `json:"delivery_mode"`
	DeliveryOption   string           `json:"delivery_option"`
	Schedule         *schedulePayload `json:"schedule"`
	PickupLocation   *locationPayload `json:"pickup_location"`
	PickupAddress    *addressPayload  `json:"pickup_address"`
	DeliveryLocation *locationPayload `json:"delivery_location"`
	DeliveryAddress  *addressPayload  `json:"delivery_address"`
	Instructions     string           `json:"instructions"`
	VehicleType      *string          `json:"vehicle_type"`
}

func (h *CartHandlers) setDeliveryTarget(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	customerID, ok := h.requireCustomer(ctx, w)
	if !ok {
		return
	}

	var req setDeliveryTargetRequest
	if !decodeJSONBody(ctx, w, r, &req) {
		return
	}

	schedule, err := parseSchedule(req.Schedule)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	cmd := services.SetDeliveryTargetCommand{
		CustomerID:       customerID,
		MerchantID:       cloneStringPointer(req.MerchantID),
		DeliveryMode:     services.DeliveryMode(strings.TrimSpace(req.DeliveryMode)),
		DeliveryOption:   services.DeliveryOption(strings.TrimSpace(req.DeliveryOption)),
		Schedule:         schedule,
		PickupLocation:   parseLocation(req.PickupLocation),
		PickupAddress:    parseAddress(req.PickupAddress),
		DeliveryLocation: parseLocation(req.DeliveryLocation),
		DeliveryAddress:  parseAddress(req.DeliveryAddress),
		Instructions:     strings.TrimSpace(req.Instructions),
		VehicleType:      cloneStringPointer(req.VehicleType),
	}

	cart, err := h.carts.SetDeliveryTarget(ctx, cmd)
	if err != nil {
		writeCartError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, cartResponse{Cart: buildCartPayload(cart)})
}

type upsertCartItemRequest struct {
	MerchantID *string         `json:"merchant_id"`
	Item       cartItemPayload `json:"item"`
	UpdatedAt  *string         `json:"updated_at"`
}

func (h *CartHandlers) upsertItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	customerID, ok := h.requireCustomer(ctx, w)
	if !ok {
		return
	}

	var req upsertCartItemRequest
	if !decodeJSONBody(ctx, w, r, &req) {
		return
	}

	expected, ok := parseExpectedUpdatedAt(ctx, w, req.UpdatedAt)
	if !ok {
		return
	}

	cart, err := h.carts.UpsertItem(ctx, services.UpsertCartItemCommand{
		CustomerID:        customerID,
		MerchantID:        cloneStringPointer(req.MerchantID),
		Item:              parseCartItem(req.Item),
		ExpectedUpdatedAt: expected,
	})
	if err != nil {
		writeCartError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, cartResponse{Cart: buildCartPayload(cart)})
}

type replaceCartItemsRequest struct {
	MerchantID *string           `json:"merchant_id"`
	Items      []cartItemPayload `json:"items"`
	UpdatedAt  *string           `json:"updated_at"`
}

func (h *CartHandlers) replaceItems(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	customerID, ok := h.requireCustomer(ctx, w)
	if !ok {
		return
	}

	var req replaceCartItemsRequest
	if !decodeJSONBody(ctx, w, r, &req) {
		return
	}

	expected, ok := parseExpectedUpdatedAt(ctx, w, req.UpdatedAt)
	if !ok {
		return
	}

	items := make([]services.CartItem, 0, len(req.Items))
	for _, raw := range req.Items {
		items = append(items, parseCartItem(raw))
	}

	cart, err := h.carts.ReplaceItems(ctx, services.ReplaceCartItemsCommand{
		CustomerID:        customerID,
		MerchantID:        cloneStringPointer(req.MerchantID),
		Items:             items,
		ExpectedUpdatedAt: expected,
	})
	if err != nil {
		writeCartError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, cartResponse{Cart: buildCartPayload(cart)})
}

func (h *CartHandlers) removeItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	customerID, ok := h.requireCustomer(ctx, w)
	if !ok {
		return
	}

	itemID := strings.TrimSpace(chi.URLParam(r, "itemID"))
	if itemID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "item id is required", http.StatusBadRequest))
		return
	}

	cart, err := h.carts.RemoveItem(ctx, services.RemoveCartItemCommand{
		CustomerID: customerID,
		ItemID:     itemID,
	})
	if err != nil {
		writeCartError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, cartResponse{Cart: buildCartPayload(cart)})
}

type applyTipAndPromoRequest struct {
	Tip       float64 `json:"tip"`
	PromoCode *string `json:"promo_code"`
	UpdatedAt *string `json:"updated_at"`
}

func (h *CartHandlers) applyTipAndPromo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	customerID, ok := h.requireCustomer(ctx, w)
	if !ok {
		return
	}

	var req applyTipAndPromoRequest
	if !decodeJSONBody(ctx, w, r, &req) {
		return
	}

	expected, ok := parseExpectedUpdatedAt(ctx, w, req.UpdatedAt)
	if !ok {
		return
	}

	cart, err := h.carts.ApplyTipAndPromo(ctx, services.ApplyTipAndPromoCommand{
		CustomerID:        customerID,
		Tip:               req.Tip,
		PromoCode:         cloneStringPointer(req.PromoCode),
		ExpectedUpdatedAt: expected,
	})
	if err != nil {
		writeCartError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, cartResponse{Cart: buildCartPayload(cart)})
}

func (h *CartHandlers) requireCustomer(ctx context.Context, w http.ResponseWriter) (string, bool) {
	if h.carts == nil {
		httpx.WriteError(ctx, w, httpx.NewError("cart_service_unavailable", "cart service is unavailable", http.StatusServiceUnavailable))
		return "", false
	}
	identity, ok := auth.IdentityFromContext(ctx)
	if !ok || identity == nil || strings.TrimSpace(identity.UID) == "" {
		httpx.WriteError(ctx, w, httpx.NewError("unauthenticated", "authentication required", http.StatusUnauthorized))
		return "", false
	}
	return strings.TrimSpace(identity.UID), true
}

func decodeJSONBody(ctx context.Context, w http.ResponseWriter, r *http.Request, target any) bool {
	body, err := readLimitedBody(r, maxCartBodySize)
	if err != nil {
		switch {
		case errors.Is(err, errBodyTooLarge):
			httpx.WriteError(ctx, w, httpx.NewError("payload_too_large", "request body exceeds allowed size", http.StatusRequestEntityTooLarge))
		default:
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		}
		return false
	}
	if err := json.Unmarshal(body, target); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "invalid JSON body", http.StatusBadRequest))
		return false
	}
	return true
}

func parseExpectedUpdatedAt(ctx context.Context, w http.ResponseWriter, raw *string) (*time.Time, bool) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, true
	}
	parsed, err := parseRFC3339(strings.TrimSpace(*raw))
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "updated_at must be RFC3339 timestamp", http.StatusBadRequest))
		return nil, false
	}
	return &parsed, true
}

func writeCartError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, services.ErrCartInvalidInput), errors.Is(err, services.ErrPricingInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrCartNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("cart_not_found", "cart not found", http.StatusNotFound))
	case errors.Is(err, services.ErrCartConflict):
		httpx.WriteError(ctx, w, httpx.NewError("cart_conflict", "cart has been modified; refresh and retry", http.StatusConflict))
	case errors.Is(err, services.ErrCartModeUnsupported):
		httpx.WriteError(ctx, w, httpx.NewError("delivery_mode_unsupported", err.Error(), http.StatusConflict))
	case errors.Is(err, services.ErrCartPromoAlreadyApplied):
		httpx.WriteError(ctx, w, httpx.NewError("promo_already_applied", err.Error(), http.StatusConflict))
	case errors.Is(err, services.ErrPromotionInvalidCode), errors.Is(err, services.ErrPromotionNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("promo_invalid", "promo code is not valid", http.StatusNotFound))
	case errors.Is(err, services.ErrPromotionInactive),
		errors.Is(err, services.ErrPromotionOutOfDateRange),
		errors.Is(err, services.ErrPromotionMerchantMismatch),
		errors.Is(err, services.ErrPromotionMinOrderAmount):
		httpx.WriteError(ctx, w, httpx.NewError("promo_not_applicable", err.Error(), http.StatusUnprocessableEntity))
	case errors.Is(err, services.ErrPromotionUsageLimitReached):
		httpx.WriteError(ctx, w, httpx.NewError("promo_exhausted", err.Error(), http.StatusConflict))
	case errors.Is(err, services.ErrCartUnavailable), errors.Is(err, services.ErrPromotionUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("cart_service_unavailable", "cart service is unavailable", http.StatusServiceUnavailable))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("cart_error", "failed to process cart request", http.StatusInternalServerError))
	}
}

type cartResponse struct {
	Cart cartPayload `json:"cart"`
}

type billResponse struct {
	Bill billDetailPayload `json:"bill"`
}

type cartPayload struct {
	ID           string             `json:"id"`
	CustomerID   string             `json:"customer_id"`
	MerchantID   *string            `json:"merchant_id,omitempty"`
	Items        []cartItemPayload  `json:"items"`
	Detail       cartDetailPayload  `json:"detail"`
	Bill         *billDetailPayload `json:"bill,omitempty"`
	PromoCode    *string            `json:"promo_code,omitempty"`
	CreatedAt    string             `json:"created_at,omitempty"`
	UpdatedAt    string             `json:"updated_at,omitempty"`
	ItemsCount   int                `json:"items_count"`
	GrandTotal   float64            `json:"grand_total"`
	DeliveryMode string             `json:"delivery_mode,omitempty"`
}

type cartDetailPayload struct {
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
}

type cartItemPayload struct {
	ItemID     string  `json:"item_id,omitempty"`
	ProductID  *string `json:"product_id,omitempty"`
	ItemName   string  `json:"item_name"`
	Quantity   int     `json:"quantity"`
	Price      float64 `json:"price"`
	VariantID  *string `json:"variant_id,omitempty"`
	WeightKg   float64 `json:"weight_kg,omitempty"`
	TotalPrice float64 `json:"total_price"`
}

func buildCartPayload(cart services.Cart) cartPayload {
	payload := cartPayload{
		ID:           strings.TrimSpace(cart.ID),
		CustomerID:   strings.TrimSpace(cart.CustomerID),
		MerchantID:   cloneStringPointer(cart.MerchantID),
		Items:        buildCartItemPayloads(cart.Items),
		Detail:       buildCartDetailPayload(cart.CartDetail),
		PromoCode:    cloneStringPointer(cart.PromoCode),
		CreatedAt:    formatTime(cart.CreatedAt),
		UpdatedAt:    formatTime(cart.UpdatedAt),
		ItemsCount:   len(cart.Items),
		GrandTotal:   cart.BillDetail.GrandTotal(),
		DeliveryMode: string(cart.CartDetail.DeliveryMode),
	}
	if cart.BillDetail != (domain.BillDetail{}) {
		bill := buildBillDetailPayload(cart.BillDetail)
		payload.Bill = &bill
	}
	return payload
}

func buildCartDetailPayload(detail services.CartDetail) cartDetailPayload {
	return cartDetailPayload{
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
	}
}

func buildCartItemPayloads(items []services.CartItem) []cartItemPayload {
	if len(items) == 0 {
		return []cartItemPayload{}
	}
	payload := make([]cartItemPayload, 0, len(items))
	for _, item := range items {
		payload = append(payload, cartItemPayload{
			ItemID:     strings.TrimSpace(item.ItemID),
			ProductID:  cloneStringPointer(item.ProductID),
			ItemName:   strings.TrimSpace(item.ItemName),
			Quantity:   item.Quantity,
			Price:      item.Price,
			VariantID:  cloneStringPointer(item.VariantID),
			WeightKg:   item.WeightKg,
			TotalPrice: item.TotalPrice,
		})
	}
	return payload
}

func parseCartItem(raw cartItemPayload) services.CartItem {
	return services.CartItem{
		ItemID:     strings.TrimSpace(raw.ItemID),
		ProductID:  cloneStringPointer(raw.ProductID),
		ItemName:   strings.TrimSpace(raw.ItemName),
		Quantity:   raw.Quantity,
		Price:      raw.Price,
		VariantID:  cloneStringPointer(raw.VariantID),
		WeightKg:   raw.WeightKg,
		TotalPrice: raw.TotalPrice,
	}
}
