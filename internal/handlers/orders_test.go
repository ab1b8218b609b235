package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	domain "github.com/famto/api/internal/domain"
	"github.com/famto/api/internal/platform/auth"
	"github.com/famto/api/internal/services"
)

type stubOrderService struct {
	confirmFunc         func(ctx context.Context, cmd services.ConfirmCartCommand) (services.StageResult, error)
	promoteFunc         func(ctx context.Context, temporaryOrderID string) (services.Order, error)
	cancelFunc          func(ctx context.Context, temporaryOrderID string) error
	merchantConfirmFunc func(ctx context.Context, cmd services.MerchantDecisionCommand) (services.Order, error)
	merchantRejectFunc  func(ctx context.Context, cmd services.MerchantDecisionCommand) (services.Order, error)
	adminRejectFunc     func(ctx context.Context, cmd services.MerchantDecisionCommand) (services.Order, error)
	getOrderFunc        func(ctx context.Context, orderID string) (services.Order, error)
	listOrdersFunc      func(ctx context.Context, filter services.OrderListFilter) (domain.CursorPage[services.Order], error)
	recoverExpiredFunc  func(ctx context.Context, limit int) (int, error)
}

func (s *stubOrderService) ConfirmCartAndStage(ctx context.Context, cmd services.ConfirmCartCommand) (services.StageResult, error) {
	if s.confirmFunc == nil {
		return services.StageResult{}, nil
	}
	return s.confirmFunc(ctx, cmd)
}

func (s *stubOrderService) Promote(ctx context.Context, temporaryOrderID string) (services.Order, error) {
	if s.promoteFunc == nil {
		return services.Order{}, nil
	}
	return s.promoteFunc(ctx, temporaryOrderID)
}

func (s *stubOrderService) CancelBeforeCreation(ctx context.Context, temporaryOrderID string) error {
	if s.cancelFunc == nil {
		return nil
	}
	return s.cancelFunc(ctx, temporaryOrderID)
}

func (s *stubOrderService) MerchantConfirm(ctx context.Context, cmd services.MerchantDecisionCommand) (services.Order, error) {
	if s.merchantConfirmFunc == nil {
		return services.Order{}, nil
	}
	return s.merchantConfirmFunc(ctx, cmd)
}

func (s *stubOrderService) MerchantReject(ctx context.Context, cmd services.MerchantDecisionCommand) (services.Order, error) {
	if s.merchantRejectFunc == nil {
		return services.Order{}, nil
	}
	return s.merchantRejectFunc(ctx, cmd)
}

func (s *stubOrderService) AdminReject(ctx context.Context, cmd services.MerchantDecisionCommand) (services.Order, error) {
	if s.adminRejectFunc == nil {
		return services.Order{}, nil
	}
	return s.adminRejectFunc(ctx, cmd)
}

func (s *stubOrderService) GetOrder(ctx context.Context, orderID string) (services.Order, error) {
	if s.getOrderFunc == nil {
		return services.Order{}, nil
	}
	return s.getOrderFunc(ctx, orderID)
}

func (s *stubOrderService) ListOrders(ctx context.Context, filter services.OrderListFilter) (domain.CursorPage[services.Order], error) {
	if s.listOrdersFunc == nil {
		return domain.CursorPage[services.Order]{}, nil
	}
	return s.listOrdersFunc(ctx, filter)
}

func (s *stubOrderService) RecoverExpired(ctx context.Context, limit int) (int, error) {
	if s.recoverExpiredFunc == nil {
		return 0, nil
	}
	return s.recoverExpiredFunc(ctx, limit)
}

var _ services.OrderService = (*stubOrderService)(nil)

func customerIdentity(uid string) *auth.Identity {
	return &auth.Identity{UID: uid, Roles: []string{auth.RoleCustomer}}
}

func TestOrderHandlersConfirmCartSuccess(t *testing.T) {
	service := &stubOrderService{
		confirmFunc: func(ctx context.Context, cmd services.ConfirmCartCommand) (services.StageResult, error) {
			if cmd.CustomerID != "cust-1" {
				t.Fatalf("unexpected customer id %q", cmd.CustomerID)
			}
			if cmd.PaymentMode != domain.PaymentModeFamtoCash {
				t.Fatalf("unexpected payment mode %q", cmd.PaymentMode)
			}
			return services.StageResult{
				TemporaryOrderID: "tmp-1",
				OrderID:          "ord-1",
				CountdownSeconds: 60,
			}, nil
		},
	}

	handler := NewOrderHandlers(nil, service)
	body := `{"payment_mode": "Famto-cash"}`
	req := authedRequest(http.MethodPost, "/orders/confirm", body, customerIdentity("cust-1"))
	rr := httptest.NewRecorder()
	handler.confirmCart(rr, req)

	if rr.Code != http.StatusAccepted {
		t.Fatalf("expected status 202, got %d: %s", rr.Code, rr.Body.String())
	}
	var resp confirmCartResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.TemporaryOrderID != "tmp-1" || resp.OrderID != "ord-1" {
		t.Fatalf("unexpected stage result %#v", resp)
	}
	if resp.CountdownSeconds != 60 {
		t.Fatalf("expected countdown 60, got %d", resp.CountdownSeconds)
	}
}

func TestOrderHandlersConfirmCartOnlinePayment(t *testing.T) {
	service := &stubOrderService{
		confirmFunc: func(ctx context.Context, cmd services.ConfirmCartCommand) (services.StageResult, error) {
			if cmd.Payment == nil || cmd.Payment.IntentID != "pi_123" {
				t.Fatalf("expected payment verification, got %#v", cmd.Payment)
			}
			intent := "pi_123"
			return services.StageResult{
				TemporaryOrderID: "tmp-2",
				OrderID:          "ord-2",
				CountdownSeconds: 60,
				PaymentIntentID:  &intent,
			}, nil
		},
	}

	handler := NewOrderHandlers(nil, service)
	body := `{"payment_mode": "Online-payment", "payment": {"intent_id": "pi_123", "payment_id": "pay_9", "signature": "sig"}}`
	req := authedRequest(http.MethodPost, "/orders/confirm", body, customerIdentity("cust-2"))
	rr := httptest.NewRecorder()
	handler.confirmCart(rr, req)

	if rr.Code != http.StatusAccepted {
		t.Fatalf("expected status 202, got %d", rr.Code)
	}
	var resp confirmCartResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.PaymentIntentID == nil || *resp.PaymentIntentID != "pi_123" {
		t.Fatalf("expected payment intent in response, got %v", resp.PaymentIntentID)
	}
}

func TestOrderHandlersConfirmCartRateLimited(t *testing.T) {
	service := &stubOrderService{
		confirmFunc: func(ctx context.Context, cmd services.ConfirmCartCommand) (services.StageResult, error) {
			return services.StageResult{TemporaryOrderID: "tmp", OrderID: "ord", CountdownSeconds: 60}, nil
		},
	}
	handler := NewOrderHandlers(nil, service)

	var last *httptest.ResponseRecorder
	for i := 0; i < confirmRateLimitPerMin+1; i++ {
		req := authedRequest(http.MethodPost, "/orders/confirm", `{"payment_mode": "Famto-cash"}`, customerIdentity("cust-burst"))
		last = httptest.NewRecorder()
		handler.confirmCart(last, req)
	}

	if last.Code != http.StatusTooManyRequests {
		t.Fatalf("expected status 429 after burst, got %d", last.Code)
	}
	var resp map[string]any
	if err := json.Unmarshal(last.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp["error"] != "rate_limited" {
		t.Fatalf("expected rate_limited, got %v", resp["error"])
	}
}

func TestOrderHandlersConfirmCartPaymentFailed(t *testing.T) {
	service := &stubOrderService{
		confirmFunc: func(ctx context.Context, cmd services.ConfirmCartCommand) (services.StageResult, error) {
			return services.StageResult{}, services.ErrOrderPaymentFailed
		},
	}
	handler := NewOrderHandlers(nil, service)
	req := authedRequest(http.MethodPost, "/orders/confirm", `{"payment_mode": "Online-payment"}`, customerIdentity("cust-3"))
	rr := httptest.NewRecorder()
	handler.confirmCart(rr, req)

	if rr.Code != http.StatusPaymentRequired {
		t.Fatalf("expected status 402, got %d", rr.Code)
	}
}

func TestOrderHandlersConfirmCartInsufficientWallet(t *testing.T) {
	service := &stubOrderService{
		confirmFunc: func(ctx context.Context, cmd services.ConfirmCartCommand) (services.StageResult, error) {
			return services.StageResult{}, services.ErrWalletInsufficientBalance
		},
	}
	handler := NewOrderHandlers(nil, service)
	req := authedRequest(http.MethodPost, "/orders/confirm", `{"payment_mode": "Famto-cash"}`, customerIdentity("cust-4"))
	rr := httptest.NewRecorder()
	handler.confirmCart(rr, req)

	if rr.Code != http.StatusPaymentRequired {
		t.Fatalf("expected status 402, got %d", rr.Code)
	}
	var resp map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp["error"] != "insufficient_balance" {
		t.Fatalf("expected insufficient_balance, got %v", resp["error"])
	}
}

func TestOrderHandlersCancelBeforeCreation(t *testing.T) {
	cancelled := ""
	service := &stubOrderService{
		cancelFunc: func(ctx context.Context, temporaryOrderID string) error {
			cancelled = temporaryOrderID
			return nil
		},
	}
	handler := NewOrderHandlers(nil, service)

	router := chi.NewRouter()
	router.Post("/orders/temporary/{temporaryOrderID}/cancel", handler.cancelBeforeCreation)

	req := authedRequest(http.MethodPost, "/orders/temporary/tmp-9/cancel", "", customerIdentity("cust-9"))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d", rr.Code)
	}
	if cancelled != "tmp-9" {
		t.Fatalf("expected cancel of tmp-9, got %q", cancelled)
	}
}

func TestOrderHandlersCancelAfterWindowClosed(t *testing.T) {
	service := &stubOrderService{
		cancelFunc: func(ctx context.Context, temporaryOrderID string) error {
			return services.ErrOrderAlreadyProcessed
		},
	}
	handler := NewOrderHandlers(nil, service)

	router := chi.NewRouter()
	router.Post("/orders/temporary/{temporaryOrderID}/cancel", handler.cancelBeforeCreation)

	req := authedRequest(http.MethodPost, "/orders/temporary/tmp-late/cancel", "", customerIdentity("cust-9"))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d", rr.Code)
	}
}

func TestOrderHandlersListOrdersScopesToCustomer(t *testing.T) {
	now := time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)
	service := &stubOrderService{
		listOrdersFunc: func(ctx context.Context, filter services.OrderListFilter) (domain.CursorPage[services.Order], error) {
			if filter.CustomerID != "cust-5" {
				t.Fatalf("expected filter scoped to cust-5, got %q", filter.CustomerID)
			}
			if filter.MerchantID != "" || filter.AgentID != "" {
				t.Fatalf("expected no merchant/agent scope, got %#v", filter)
			}
			if filter.Pagination.PageSize != defaultOrderPageSize {
				t.Fatalf("expected default page size, got %d", filter.Pagination.PageSize)
			}
			return domain.CursorPage[services.Order]{
				Items: []services.Order{
					{
						ID:          "ord-10",
						CustomerID:  "cust-5",
						Status:      domain.OrderStatusPending,
						PaymentMode: domain.PaymentModeCashOnDelivery,
						TotalAmount: 412.5,
						OrderDetail: domain.OrderDetail{DeliveryMode: domain.DeliveryModeHomeDelivery},
						CreatedAt:   now,
					},
				},
				NextPageToken: "tok-1",
			}, nil
		},
	}

	handler := NewOrderHandlers(nil, service)
	req := authedRequest(http.MethodGet, "/orders", "", customerIdentity("cust-5"))
	rr := httptest.NewRecorder()
	handler.listOrders(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	var resp orderListResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Items) != 1 || resp.Items[0].ID != "ord-10" {
		t.Fatalf("unexpected items %#v", resp.Items)
	}
	if resp.NextPageToken != "tok-1" {
		t.Fatalf("expected next page token tok-1, got %q", resp.NextPageToken)
	}
}

func TestOrderHandlersListOrdersScopesToMerchant(t *testing.T) {
	service := &stubOrderService{
		listOrdersFunc: func(ctx context.Context, filter services.OrderListFilter) (domain.CursorPage[services.Order], error) {
			if filter.MerchantID != "merch-5" {
				t.Fatalf("expected merchant scope merch-5, got %q", filter.MerchantID)
			}
			if filter.CustomerID != "" {
				t.Fatalf("expected no customer scope, got %q", filter.CustomerID)
			}
			return domain.CursorPage[services.Order]{}, nil
		},
	}

	handler := NewOrderHandlers(nil, service)
	identity := &auth.Identity{UID: "merch-5", Roles: []string{auth.RoleMerchant}}
	req := authedRequest(http.MethodGet, "/merchant/orders", "", identity)
	rr := httptest.NewRecorder()
	handler.listOrders(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
}

func TestOrderHandlersListOrdersAdminFilters(t *testing.T) {
	service := &stubOrderService{
		listOrdersFunc: func(ctx context.Context, filter services.OrderListFilter) (domain.CursorPage[services.Order], error) {
			if filter.CustomerID != "cust-x" || filter.MerchantID != "merch-y" || filter.AgentID != "agent-z" {
				t.Fatalf("expected admin filters to pass through, got %#v", filter)
			}
			if len(filter.Status) != 2 {
				t.Fatalf("expected 2 status filters, got %v", filter.Status)
			}
			return domain.CursorPage[services.Order]{}, nil
		},
	}

	handler := NewOrderHandlers(nil, service)
	identity := &auth.Identity{UID: "admin-1", Roles: []string{auth.RoleAdmin}}
	req := authedRequest(http.MethodGet, "/admin/orders?customer_id=cust-x&merchant_id=merch-y&agent_id=agent-z&status=Pending,Completed", "", identity)
	rr := httptest.NewRecorder()
	handler.listOrders(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
}

func TestOrderHandlersListOrdersUnknownStatus(t *testing.T) {
	handler := NewOrderHandlers(nil, &stubOrderService{})
	req := authedRequest(http.MethodGet, "/orders?status=Lost", "", customerIdentity("cust-5"))
	rr := httptest.NewRecorder()
	handler.listOrders(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}

func TestOrderHandlersListOrdersInvalidDate(t *testing.T) {
	handler := NewOrderHandlers(nil, &stubOrderService{})
	req := authedRequest(http.MethodGet, "/orders?created_after=yesterday", "", customerIdentity("cust-5"))
	rr := httptest.NewRecorder()
	handler.listOrders(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}

func TestOrderHandlersListOrdersPageSizeClamped(t *testing.T) {
	service := &stubOrderService{
		listOrdersFunc: func(ctx context.Context, filter services.OrderListFilter) (domain.CursorPage[services.Order], error) {
			if filter.Pagination.PageSize != maxOrderPageSize {
				t.Fatalf("expected page size clamped to %d, got %d", maxOrderPageSize, filter.Pagination.PageSize)
			}
			return domain.CursorPage[services.Order]{}, nil
		},
	}
	handler := NewOrderHandlers(nil, service)
	req := authedRequest(http.MethodGet, "/orders?page_size=500", "", customerIdentity("cust-5"))
	rr := httptest.NewRecorder()
	handler.listOrders(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
}

func TestOrderHandlersGetOrderEnforcesOwnership(t *testing.T) {
	service := &stubOrderService{
		getOrderFunc: func(ctx context.Context, orderID string) (services.Order, error) {
			return services.Order{ID: orderID, CustomerID: "cust-owner"}, nil
		},
	}
	handler := NewOrderHandlers(nil, service)

	router := chi.NewRouter()
	router.Get("/orders/{orderID}", handler.getOrder)

	req := authedRequest(http.MethodGet, "/orders/ord-44", "", customerIdentity("cust-intruder"))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status 404 for non-owner, got %d", rr.Code)
	}
}

func TestOrderHandlersGetOrderAgentVisibility(t *testing.T) {
	agentID := "agent-3"
	service := &stubOrderService{
		getOrderFunc: func(ctx context.Context, orderID string) (services.Order, error) {
			return services.Order{ID: orderID, CustomerID: "cust-1", AgentID: &agentID}, nil
		},
	}
	handler := NewOrderHandlers(nil, service)

	router := chi.NewRouter()
	router.Get("/orders/{orderID}", handler.getOrder)

	identity := &auth.Identity{UID: "agent-3", Roles: []string{auth.RoleAgent}}
	req := authedRequest(http.MethodGet, "/orders/ord-45", "", identity)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected assigned agent to view order, got %d", rr.Code)
	}
}

func TestOrderHandlersGetOrderNotFound(t *testing.T) {
	service := &stubOrderService{
		getOrderFunc: func(ctx context.Context, orderID string) (services.Order, error) {
			return services.Order{}, services.ErrOrderNotFound
		},
	}
	handler := NewOrderHandlers(nil, service)

	router := chi.NewRouter()
	router.Get("/orders/{orderID}", handler.getOrder)

	req := authedRequest(http.MethodGet, "/orders/ord-404", "", customerIdentity("cust-1"))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rr.Code)
	}
}

func TestOrderHandlersMerchantConfirm(t *testing.T) {
	service := &stubOrderService{
		merchantConfirmFunc: func(ctx context.Context, cmd services.MerchantDecisionCommand) (services.Order, error) {
			if cmd.OrderID != "ord-7" || cmd.ActorID != "merch-7" {
				t.Fatalf("unexpected command %#v", cmd)
			}
			accepted := time.Date(2025, 4, 2, 10, 0, 0, 0, time.UTC)
			return services.Order{
				ID:         "ord-7",
				CustomerID: "cust-7",
				Status:     domain.OrderStatusOnGoing,
				Stepper:    domain.OrderStepper{Accepted: &accepted},
			}, nil
		},
	}
	handler := NewOrderHandlers(nil, service)

	router := chi.NewRouter()
	router.Post("/merchant/orders/{orderID}/confirm", handler.merchantConfirm)

	identity := &auth.Identity{UID: "merch-7", Roles: []string{auth.RoleMerchant}}
	req := authedRequest(http.MethodPost, "/merchant/orders/ord-7/confirm", "", identity)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var resp orderResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Order.Status != string(domain.OrderStatusOnGoing) {
		t.Fatalf("expected On-going status, got %q", resp.Order.Status)
	}
	if resp.Order.Stepper.Accepted == "" {
		t.Fatalf("expected accepted milestone to be set")
	}
}

func TestOrderHandlersMerchantRejectWithReason(t *testing.T) {
	service := &stubOrderService{
		merchantRejectFunc: func(ctx context.Context, cmd services.MerchantDecisionCommand) (services.Order, error) {
			if cmd.Reason != "out of stock" {
				t.Fatalf("expected reason to pass through, got %q", cmd.Reason)
			}
			reason := cmd.Reason
			return services.Order{
				ID:           cmd.OrderID,
				Status:       domain.OrderStatusCancelled,
				CancelReason: &reason,
			}, nil
		},
	}
	handler := NewOrderHandlers(nil, service)

	router := chi.NewRouter()
	router.Post("/merchant/orders/{orderID}/reject", handler.merchantReject)

	identity := &auth.Identity{UID: "merch-7", Roles: []string{auth.RoleMerchant}}
	req := authedRequest(http.MethodPost, "/merchant/orders/ord-8/reject", `{"reason": "out of stock"}`, identity)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
}

func TestOrderHandlersMerchantRejectEmptyBody(t *testing.T) {
	service := &stubOrderService{
		merchantRejectFunc: func(ctx context.Context, cmd services.MerchantDecisionCommand) (services.Order, error) {
			if cmd.Reason != "" {
				t.Fatalf("expected empty reason, got %q", cmd.Reason)
			}
			return services.Order{ID: cmd.OrderID, Status: domain.OrderStatusCancelled}, nil
		},
	}
	handler := NewOrderHandlers(nil, service)

	router := chi.NewRouter()
	router.Post("/merchant/orders/{orderID}/reject", handler.merchantReject)

	identity := &auth.Identity{UID: "merch-7", Roles: []string{auth.RoleMerchant}}
	req := authedRequest(http.MethodPost, "/merchant/orders/ord-8/reject", "", identity)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200 with empty body, got %d", rr.Code)
	}
}

func TestOrderHandlersDecisionInvalidState(t *testing.T) {
	service := &stubOrderService{
		merchantConfirmFunc: func(ctx context.Context, cmd services.MerchantDecisionCommand) (services.Order, error) {
			return services.Order{}, services.ErrOrderInvalidState
		},
	}
	handler := NewOrderHandlers(nil, service)

	router := chi.NewRouter()
	router.Post("/merchant/orders/{orderID}/confirm", handler.merchantConfirm)

	identity := &auth.Identity{UID: "merch-7", Roles: []string{auth.RoleMerchant}}
	req := authedRequest(http.MethodPost, "/merchant/orders/ord-9/confirm", "", identity)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d", rr.Code)
	}
}

func TestOrderHandlersPromoteSuccess(t *testing.T) {
	service := &stubOrderService{
		promoteFunc: func(ctx context.Context, temporaryOrderID string) (services.Order, error) {
			if temporaryOrderID != "tmp-20" {
				t.Fatalf("unexpected temporary order id %q", temporaryOrderID)
			}
			return services.Order{ID: "ord-20", Status: domain.OrderStatusPending}, nil
		},
	}
	handler := NewOrderHandlers(nil, service)

	router := chi.NewRouter()
	router.Post("/internal/orders/temporary/{temporaryOrderID}/promote", handler.promote)

	req := httptest.NewRequest(http.MethodPost, "/internal/orders/temporary/tmp-20/promote", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", rr.Code)
	}
}

func TestOrderHandlersPromoteAlreadyCancelled(t *testing.T) {
	service := &stubOrderService{
		promoteFunc: func(ctx context.Context, temporaryOrderID string) (services.Order, error) {
			return services.Order{}, services.ErrOrderAlreadyProcessed
		},
	}
	handler := NewOrderHandlers(nil, service)

	router := chi.NewRouter()
	router.Post("/internal/orders/temporary/{temporaryOrderID}/promote", handler.promote)

	req := httptest.NewRequest(http.MethodPost, "/internal/orders/temporary/tmp-21/promote", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected status 204 for cancelled staging, got %d", rr.Code)
	}
}

func TestOrderHandlersRecoverExpired(t *testing.T) {
	service := &stubOrderService{
		recoverExpiredFunc: func(ctx context.Context, limit int) (int, error) {
			if limit != 25 {
				t.Fatalf("expected limit 25, got %d", limit)
			}
			return 3, nil
		},
	}
	handler := NewOrderHandlers(nil, service)

	req := httptest.NewRequest(http.MethodPost, "/internal/orders/recover-expired?limit=25", nil)
	rr := httptest.NewRecorder()
	handler.recoverExpired(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	var resp map[string]int
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp["promoted"] != 3 {
		t.Fatalf("expected 3 promoted, got %d", resp["promoted"])
	}
}

func TestOrderHandlersRecoverExpiredBadLimit(t *testing.T) {
	handler := NewOrderHandlers(nil, &stubOrderService{})

	req := httptest.NewRequest(http.MethodPost, "/internal/orders/recover-expired?limit=-2", nil)
	rr := httptest.NewRecorder()
	handler.recoverExpired(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}

func TestOrderHandlersServiceFailure(t *testing.T) {
	service := &stubOrderService{
		getOrderFunc: func(ctx context.Context, orderID string) (services.Order, error) {
			return services.Order{}, errors.New("boom")
		},
	}
	handler := NewOrderHandlers(nil, service)

	router := chi.NewRouter()
	router.Get("/orders/{orderID}", handler.getOrder)

	req := authedRequest(http.MethodGet, "/orders/ord-1", "", customerIdentity("cust-1"))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", rr.Code)
	}
}
