package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	domain "github.com/famto/api/internal/domain"
	"github.com/famto/api/internal/platform/auth"
	"github.com/famto/api/internal/services"
)

type stubCartService struct {
	setDeliveryTargetFunc func(ctx context.Context, cmd services.SetDeliveryTargetCommand) (services.Cart, error)
	upsertItemFunc        func(ctx context.Context, cmd services.UpsertCartItemCommand) (services.Cart, error)
	removeItemFunc        func(ctx context.Context, cmd services.RemoveCartItemCommand) (services.Cart, error)
	replaceItemsFunc      func(ctx context.Context, cmd services.ReplaceCartItemsCommand) (services.Cart, error)
	applyTipAndPromoFunc  func(ctx context.Context, cmd services.ApplyTipAndPromoCommand) (services.Cart, error)
	getCartFunc           func(ctx context.Context, customerID string) (services.Cart, error)
	getBillFunc           func(ctx context.Context, customerID string) (services.BillDetail, error)
	clearFunc             func(ctx context.Context, customerID string) error
}

func (s *stubCartService) SetDeliveryTarget(ctx context.Context, cmd services.SetDeliveryTargetCommand) (services.Cart, error) {
	if s.setDeliveryTargetFunc == nil {
		return services.Cart{}, nil
	}
	return s.setDeliveryTargetFunc(ctx, cmd)
}

func (s *stubCartService) UpsertItem(ctx context.Context, cmd services.UpsertCartItemCommand) (services.Cart, error) {
	if s.upsertItemFunc == nil {
		return services.Cart{}, nil
	}
	return s.upsertItemFunc(ctx, cmd)
}

func (s *stubCartService) RemoveItem(ctx context.Context, cmd services.RemoveCartItemCommand) (services.Cart, error) {
	if s.removeItemFunc == nil {
		return services.Cart{}, nil
	}
	return s.removeItemFunc(ctx, cmd)
}

func (s *stubCartService) ReplaceItems(ctx context.Context, cmd services.ReplaceCartItemsCommand) (services.Cart, error) {
	if s.replaceItemsFunc == nil {
		return services.Cart{}, nil
	}
	return s.replaceItemsFunc(ctx, cmd)
}

func (s *stubCartService) ApplyTipAndPromo(ctx context.Context, cmd services.ApplyTipAndPromoCommand) (services.Cart, error) {
	if s.applyTipAndPromoFunc == nil {
		return services.Cart{}, nil
	}
	return s.applyTipAndPromoFunc(ctx, cmd)
}

func (s *stubCartService) GetCart(ctx context.Context, customerID string) (services.Cart, error) {
	if s.getCartFunc == nil {
		return services.Cart{}, nil
	}
	return s.getCartFunc(ctx, customerID)
}

func (s *stubCartService) GetBill(ctx context.Context, customerID string) (services.BillDetail, error) {
	if s.getBillFunc == nil {
		return services.BillDetail{}, nil
	}
	return s.getBillFunc(ctx, customerID)
}

func (s *stubCartService) Clear(ctx context.Context, customerID string) error {
	if s.clearFunc == nil {
		return nil
	}
	return s.clearFunc(ctx, customerID)
}

var _ services.CartService = (*stubCartService)(nil)

func authedRequest(method, target, body string, identity *auth.Identity) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if identity != nil {
		req = req.WithContext(auth.WithIdentity(req.Context(), identity))
	}
	return req
}

func floatPtr(v float64) *float64 { return &v }

func strPtr(v string) *string { return &v }

func TestCartHandlersGetCartSuccess(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	updated := now.Add(2 * time.Minute)

	service := &stubCartService{
		getCartFunc: func(ctx context.Context, customerID string) (services.Cart, error) {
			if customerID != "cust-7" {
				t.Fatalf("unexpected customer id %q", customerID)
			}
			return services.Cart{
				ID:         "cart-cust-7",
				CustomerID: "cust-7",
				MerchantID: strPtr("merch-1"),
				Items: []domain.CartItem{
					{
						ItemID:     "item-1",
						ProductID:  strPtr("prod-1"),
						ItemName:   "Veg Thali",
						Quantity:   2,
						Price:      120,
						TotalPrice: 240,
					},
				},
				CartDetail: domain.CartDetail{
					DeliveryMode:     domain.DeliveryModeHomeDelivery,
					DeliveryOption:   domain.DeliveryOptionOnDemand,
					DeliveryLocation: &domain.Location{Latitude: 8.52, Longitude: 76.93},
					GeofenceID:       "geo-tvm",
					DistanceKm:       4.2,
				},
				BillDetail: domain.BillDetail{
					ItemTotal:              240,
					OriginalDeliveryCharge: 35,
					TaxAmount:              12,
					SubTotal:               275,
					OriginalGrandTotal:     287,
					DiscountedGrandTotal:   floatPtr(267),
					DiscountedAmount:       floatPtr(20),
				},
				PromoCode: strPtr("WELCOME20"),
				CreatedAt: now,
				UpdatedAt: updated,
			}, nil
		},
	}

	handler := NewCartHandlers(nil, service)
	req := authedRequest(http.MethodGet, "/cart", "", &auth.Identity{UID: "cust-7", Roles: []string{auth.RoleCustomer}})
	rr := httptest.NewRecorder()
	handler.getCart(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	var resp cartResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Cart.ID != "cart-cust-7" {
		t.Fatalf("expected cart id cart-cust-7, got %q", resp.Cart.ID)
	}
	if resp.Cart.ItemsCount != 1 || len(resp.Cart.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", resp.Cart.ItemsCount)
	}
	if resp.Cart.GrandTotal != 267 {
		t.Fatalf("expected grand total 267, got %v", resp.Cart.GrandTotal)
	}
	if resp.Cart.Bill == nil || resp.Cart.Bill.ItemTotal != 240 {
		t.Fatalf("expected bill with item total 240, got %#v", resp.Cart.Bill)
	}
	if resp.Cart.DeliveryMode != string(domain.DeliveryModeHomeDelivery) {
		t.Fatalf("expected delivery mode Home Delivery, got %q", resp.Cart.DeliveryMode)
	}
	if resp.Cart.PromoCode == nil || *resp.Cart.PromoCode != "WELCOME20" {
		t.Fatalf("expected promo code WELCOME20, got %v", resp.Cart.PromoCode)
	}
}

func TestCartHandlersGetCartServiceUnavailable(t *testing.T) {
	handler := NewCartHandlers(nil, nil)
	req := authedRequest(http.MethodGet, "/cart", "", &auth.Identity{UID: "cust-1"})
	rr := httptest.NewRecorder()
	handler.getCart(rr, req)

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d", rr.Code)
	}
}

func TestCartHandlersGetCartUnauthenticated(t *testing.T) {
	handler := NewCartHandlers(nil, &stubCartService{})
	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	rr := httptest.NewRecorder()
	handler.getCart(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rr.Code)
	}
}

func TestCartHandlersGetBill(t *testing.T) {
	service := &stubCartService{
		getBillFunc: func(ctx context.Context, customerID string) (services.BillDetail, error) {
			return services.BillDetail{
				ItemTotal:              500,
				OriginalDeliveryCharge: 40,
				TaxAmount:              25,
				SubTotal:               540,
				OriginalGrandTotal:     565,
			}, nil
		},
	}
	handler := NewCartHandlers(nil, service)
	req := authedRequest(http.MethodGet, "/cart/bill", "", &auth.Identity{UID: "cust-1"})
	rr := httptest.NewRecorder()
	handler.getBill(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	var resp billResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Bill.OriginalGrandTotal != 565 {
		t.Fatalf("expected grand total 565, got %v", resp.Bill.OriginalGrandTotal)
	}
}

func TestCartHandlersSetDeliveryTargetSuccess(t *testing.T) {
	service := &stubCartService{
		setDeliveryTargetFunc: func(ctx context.Context, cmd services.SetDeliveryTargetCommand) (services.Cart, error) {
			if cmd.CustomerID != "cust-3" {
				t.Fatalf("unexpected customer id %q", cmd.CustomerID)
			}
			if cmd.DeliveryMode != domain.DeliveryModePickAndDrop {
				t.Fatalf("unexpected delivery mode %q", cmd.DeliveryMode)
			}
			if cmd.PickupLocation == nil || cmd.PickupLocation.Latitude != 8.5 {
				t.Fatalf("expected pickup location, got %#v", cmd.PickupLocation)
			}
			if cmd.DeliveryAddress == nil || cmd.DeliveryAddress.FullName != "Asha" {
				t.Fatalf("expected delivery address, got %#v", cmd.DeliveryAddress)
			}
			return services.Cart{ID: "cart-cust-3", CustomerID: cmd.CustomerID}, nil
		},
	}

	body := `{
		"delivery_mode": "Pick and Drop",
		"delivery_option": "On-demand",
		"pickup_location": {"latitude": 8.5, "longitude": 76.9},
		"delivery_location": {"latitude": 8.6, "longitude": 76.95},
		"delivery_address": {"full_name": "Asha", "phone": "9876501234"},
		"vehicle_type": "Scooter"
	}`

	handler := NewCartHandlers(nil, service)
	req := authedRequest(http.MethodPut, "/cart/delivery", body, &auth.Identity{UID: "cust-3"})
	rr := httptest.NewRecorder()
	handler.setDeliveryTarget(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestCartHandlersSetDeliveryTargetBadSchedule(t *testing.T) {
	handler := NewCartHandlers(nil, &stubCartService{})
	body := `{"delivery_mode": "Home Delivery", "schedule": {"start_date": "not-a-time"}}`
	req := authedRequest(http.MethodPut, "/cart/delivery", body, &auth.Identity{UID: "cust-3"})
	rr := httptest.NewRecorder()
	handler.setDeliveryTarget(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}

func TestCartHandlersUpsertItemSuccess(t *testing.T) {
	expected := time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)
	service := &stubCartService{
		upsertItemFunc: func(ctx context.Context, cmd services.UpsertCartItemCommand) (services.Cart, error) {
			if cmd.Item.ItemName != "Chicken Biryani" || cmd.Item.Quantity != 1 {
				t.Fatalf("unexpected item %#v", cmd.Item)
			}
			if cmd.ExpectedUpdatedAt == nil || !cmd.ExpectedUpdatedAt.Equal(expected) {
				t.Fatalf("expected updated_at %v, got %v", expected, cmd.ExpectedUpdatedAt)
			}
			return services.Cart{
				ID:         "cart-cust-5",
				CustomerID: cmd.CustomerID,
				Items:      []domain.CartItem{cmd.Item},
			}, nil
		},
	}

	body := `{
		"merchant_id": "merch-2",
		"item": {"product_id": "prod-9", "item_name": "Chicken Biryani", "quantity": 1, "price": 180, "total_price": 180},
		"updated_at": "2025-03-10T09:30:00Z"
	}`

	handler := NewCartHandlers(nil, service)
	req := authedRequest(http.MethodPost, "/cart/items", body, &auth.Identity{UID: "cust-5"})
	rr := httptest.NewRecorder()
	handler.upsertItem(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestCartHandlersUpsertItemConflict(t *testing.T) {
	service := &stubCartService{
		upsertItemFunc: func(ctx context.Context, cmd services.UpsertCartItemCommand) (services.Cart, error) {
			return services.Cart{}, services.ErrCartConflict
		},
	}
	handler := NewCartHandlers(nil, service)
	body := `{"item": {"item_name": "Dosa", "quantity": 1, "price": 60, "total_price": 60}}`
	req := authedRequest(http.MethodPost, "/cart/items", body, &auth.Identity{UID: "cust-5"})
	rr := httptest.NewRecorder()
	handler.upsertItem(rr, req)

	if rr.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d", rr.Code)
	}
	var resp map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp["error"] != "cart_conflict" {
		t.Fatalf("expected cart_conflict, got %v", resp["error"])
	}
}

func TestCartHandlersUpsertItemInvalidBody(t *testing.T) {
	handler := NewCartHandlers(nil, &stubCartService{})
	req := authedRequest(http.MethodPost, "/cart/items", "{not json", &auth.Identity{UID: "cust-5"})
	rr := httptest.NewRecorder()
	handler.upsertItem(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}

func TestCartHandlersUpsertItemBadTimestamp(t *testing.T) {
	handler := NewCartHandlers(nil, &stubCartService{})
	body := `{"item": {"item_name": "Dosa", "quantity": 1}, "updated_at": "yesterday"}`
	req := authedRequest(http.MethodPost, "/cart/items", body, &auth.Identity{UID: "cust-5"})
	rr := httptest.NewRecorder()
	handler.upsertItem(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}

func TestCartHandlersReplaceItemsSuccess(t *testing.T) {
	service := &stubCartService{
		replaceItemsFunc: func(ctx context.Context, cmd services.ReplaceCartItemsCommand) (services.Cart, error) {
			if len(cmd.Items) != 2 {
				t.Fatalf("expected 2 items, got %d", len(cmd.Items))
			}
			return services.Cart{ID: "cart-cust-6", CustomerID: cmd.CustomerID, Items: cmd.Items}, nil
		},
	}
	body := `{"items": [
		{"item_name": "Idli", "quantity": 4, "price": 15, "total_price": 60},
		{"item_name": "Vada", "quantity": 2, "price": 20, "total_price": 40}
	]}`

	handler := NewCartHandlers(nil, service)
	req := authedRequest(http.MethodPut, "/cart/items", body, &auth.Identity{UID: "cust-6"})
	rr := httptest.NewRecorder()
	handler.replaceItems(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	var resp cartResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Cart.Items) != 2 {
		t.Fatalf("expected 2 items in response, got %d", len(resp.Cart.Items))
	}
}

func TestCartHandlersRemoveItemSuccess(t *testing.T) {
	service := &stubCartService{
		removeItemFunc: func(ctx context.Context, cmd services.RemoveCartItemCommand) (services.Cart, error) {
			if cmd.ItemID != "item-4" {
				t.Fatalf("unexpected item id %q", cmd.ItemID)
			}
			return services.Cart{ID: "cart-cust-8", CustomerID: cmd.CustomerID}, nil
		},
	}
	handler := NewCartHandlers(nil, service)

	router := chi.NewRouter()
	router.Delete("/cart/items/{itemID}", handler.removeItem)

	req := authedRequest(http.MethodDelete, "/cart/items/item-4", "", &auth.Identity{UID: "cust-8"})
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
}

func TestCartHandlersRemoveItemNotFound(t *testing.T) {
	service := &stubCartService{
		removeItemFunc: func(ctx context.Context, cmd services.RemoveCartItemCommand) (services.Cart, error) {
			return services.Cart{}, services.ErrCartNotFound
		},
	}
	handler := NewCartHandlers(nil, service)

	router := chi.NewRouter()
	router.Delete("/cart/items/{itemID}", handler.removeItem)

	req := authedRequest(http.MethodDelete, "/cart/items/item-404", "", &auth.Identity{UID: "cust-8"})
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rr.Code)
	}
}

func TestCartHandlersApplyTipAndPromoSuccess(t *testing.T) {
	service := &stubCartService{
		applyTipAndPromoFunc: func(ctx context.Context, cmd services.ApplyTipAndPromoCommand) (services.Cart, error) {
			if cmd.Tip != 25 {
				t.Fatalf("expected tip 25, got %v", cmd.Tip)
			}
			if cmd.PromoCode == nil || *cmd.PromoCode != "FESTIVE10" {
				t.Fatalf("expected promo FESTIVE10, got %v", cmd.PromoCode)
			}
			return services.Cart{
				ID:         "cart-cust-9",
				CustomerID: cmd.CustomerID,
				PromoCode:  cmd.PromoCode,
				BillDetail: domain.BillDetail{
					ItemTotal:          300,
					AddedTip:           25,
					OriginalGrandTotal: 360,
				},
			}, nil
		},
	}
	handler := NewCartHandlers(nil, service)
	body := `{"tip": 25, "promo_code": "FESTIVE10"}`
	req := authedRequest(http.MethodPost, "/cart/tip-promo", body, &auth.Identity{UID: "cust-9"})
	rr := httptest.NewRecorder()
	handler.applyTipAndPromo(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	var resp cartResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Cart.Bill == nil || resp.Cart.Bill.AddedTip != 25 {
		t.Fatalf("expected tip in bill, got %#v", resp.Cart.Bill)
	}
}

func TestCartHandlersApplyTipAndPromoRejections(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"invalid code", services.ErrPromotionInvalidCode, http.StatusNotFound, "promo_invalid"},
		{"inactive", services.ErrPromotionInactive, http.StatusUnprocessableEntity, "promo_not_applicable"},
		{"below minimum", services.ErrPromotionMinOrderAmount, http.StatusUnprocessableEntity, "promo_not_applicable"},
		{"exhausted", services.ErrPromotionUsageLimitReached, http.StatusConflict, "promo_exhausted"},
		{"already applied", services.ErrCartPromoAlreadyApplied, http.StatusConflict, "promo_already_applied"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			service := &stubCartService{
				applyTipAndPromoFunc: func(ctx context.Context, cmd services.ApplyTipAndPromoCommand) (services.Cart, error) {
					return services.Cart{}, tc.err
				},
			}
			handler := NewCartHandlers(nil, service)
			body := `{"tip": 0, "promo_code": "ANY"}`
			req := authedRequest(http.MethodPost, "/cart/tip-promo", body, &auth.Identity{UID: "cust-9"})
			rr := httptest.NewRecorder()
			handler.applyTipAndPromo(rr, req)

			if rr.Code != tc.wantStatus {
				t.Fatalf("expected status %d, got %d", tc.wantStatus, rr.Code)
			}
			var resp map[string]any
			if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if resp["error"] != tc.wantCode {
				t.Fatalf("expected error %q, got %v", tc.wantCode, resp["error"])
			}
		})
	}
}

func TestCartHandlersClearCart(t *testing.T) {
	cleared := false
	service := &stubCartService{
		clearFunc: func(ctx context.Context, customerID string) error {
			cleared = true
			return nil
		},
	}
	handler := NewCartHandlers(nil, service)
	req := authedRequest(http.MethodDelete, "/cart", "", &auth.Identity{UID: "cust-2"})
	rr := httptest.NewRecorder()
	handler.clearCart(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d", rr.Code)
	}
	if !cleared {
		t.Fatalf("expected clear to be invoked")
	}
}

func TestCartHandlersModeUnsupported(t *testing.T) {
	service := &stubCartService{
		setDeliveryTargetFunc: func(ctx context.Context, cmd services.SetDeliveryTargetCommand) (services.Cart, error) {
			return services.Cart{}, services.ErrCartModeUnsupported
		},
	}
	handler := NewCartHandlers(nil, service)
	body := `{"delivery_mode": "Teleport"}`
	req := authedRequest(http.MethodPut, "/cart/delivery", body, &auth.Identity{UID: "cust-2"})
	rr := httptest.NewRecorder()
	handler.setDeliveryTarget(rr, req)

	if rr.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d", rr.Code)
	}
	var resp map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp["error"] != "delivery_mode_unsupported" {
		t.Fatalf("expected delivery_mode_unsupported, got %v", resp["error"])
	}
}
