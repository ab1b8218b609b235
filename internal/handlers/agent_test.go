package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	domain "github.com/famto/api/internal/domain"
	"github.com/famto/api/internal/platform/auth"
	"github.com/famto/api/internal/services"
)

type stubSettlementService struct {
	completeFunc func(ctx context.Context, cmd services.CompleteOrderCommand) (services.SettlementResult, error)
	proofFunc    func(ctx context.Context, cmd services.AttachDeliveryProofCommand) (services.Order, error)
}

func (s *stubSettlementService) CompleteOrder(ctx context.Context, cmd services.CompleteOrderCommand) (services.SettlementResult, error) {
	if s.completeFunc == nil {
		return services.SettlementResult{}, nil
	}
	return s.completeFunc(ctx, cmd)
}

func (s *stubSettlementService) AttachDeliveryProof(ctx context.Context, cmd services.AttachDeliveryProofCommand) (services.Order, error) {
	if s.proofFunc == nil {
		return services.Order{}, nil
	}
	return s.proofFunc(ctx, cmd)
}

var _ services.SettlementService = (*stubSettlementService)(nil)

func agentIdentity(uid string) *auth.Identity {
	return &auth.Identity{UID: uid, Roles: []string{auth.RoleAgent}}
}

func TestAgentHandlersCompleteOrderSuccess(t *testing.T) {
	completed := time.Date(2025, 6, 1, 14, 30, 0, 0, time.UTC)
	service := &stubSettlementService{
		completeFunc: func(ctx context.Context, cmd services.CompleteOrderCommand) (services.SettlementResult, error) {
			if cmd.OrderID != "ord-30" || cmd.AgentID != "agent-5" {
				t.Fatalf("unexpected command %#v", cmd)
			}
			return services.SettlementResult{
				Order: services.Order{
					ID:         "ord-30",
					CustomerID: "cust-30",
					Status:     domain.OrderStatusCompleted,
					Stepper:    domain.OrderStepper{Completed: &completed},
				},
				AgentEarning:  85.5,
				LoyaltyPoints: 12,
				ReferralPaid:  true,
				TimeTakenMin:  34,
				DelayedByMin:  4,
			}, nil
		},
	}
	handler := NewAgentHandlers(nil, service)

	router := chi.NewRouter()
	router.Post("/agent/orders/{orderID}/complete", handler.completeOrder)

	req := authedRequest(http.MethodPost, "/agent/orders/ord-30/complete", "", agentIdentity("agent-5"))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var resp settlementResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Order.Status != string(domain.OrderStatusCompleted) {
		t.Fatalf("expected Completed status, got %q", resp.Order.Status)
	}
	if resp.AgentEarning != 85.5 || resp.LoyaltyPoints != 12 || !resp.ReferralPaid {
		t.Fatalf("unexpected settlement result %#v", resp)
	}
}

func TestAgentHandlersCompleteOrderAlreadyCompleted(t *testing.T) {
	service := &stubSettlementService{
		completeFunc: func(ctx context.Context, cmd services.CompleteOrderCommand) (services.SettlementResult, error) {
			return services.SettlementResult{}, services.ErrSettlementAlreadyCompleted
		},
	}
	handler := NewAgentHandlers(nil, service)

	router := chi.NewRouter()
	router.Post("/agent/orders/{orderID}/complete", handler.completeOrder)

	req := authedRequest(http.MethodPost, "/agent/orders/ord-31/complete", "", agentIdentity("agent-5"))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d", rr.Code)
	}
	var resp map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp["error"] != "order_already_completed" {
		t.Fatalf("expected order_already_completed, got %v", resp["error"])
	}
}

func TestAgentHandlersCompleteOrderUnauthenticated(t *testing.T) {
	handler := NewAgentHandlers(nil, &stubSettlementService{})

	router := chi.NewRouter()
	router.Post("/agent/orders/{orderID}/complete", handler.completeOrder)

	req := httptest.NewRequest(http.MethodPost, "/agent/orders/ord-31/complete", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rr.Code)
	}
}

func multipartProofRequest(t *testing.T, target string, notes string, shopUpdate string, images map[string][]byte) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	if notes != "" {
		if err := writer.WriteField("notes", notes); err != nil {
			t.Fatalf("failed to write notes field: %v", err)
		}
	}
	if shopUpdate != "" {
		if err := writer.WriteField("shop_update", shopUpdate); err != nil {
			t.Fatalf("failed to write shop_update field: %v", err)
		}
	}
	for name, content := range images {
		part, err := writer.CreateFormFile("images", name)
		if err != nil {
			t.Fatalf("failed to create form file: %v", err)
		}
		if _, err := part.Write(content); err != nil {
			t.Fatalf("failed to write image content: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("failed to close multipart writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, target, &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestAgentHandlersAttachProofSuccess(t *testing.T) {
	service := &stubSettlementService{
		proofFunc: func(ctx context.Context, cmd services.AttachDeliveryProofCommand) (services.Order, error) {
			if cmd.OrderID != "ord-40" || cmd.AgentID != "agent-7" {
				t.Fatalf("unexpected command %#v", cmd)
			}
			if cmd.Notes != "left at door" {
				t.Fatalf("expected notes, got %q", cmd.Notes)
			}
			if cmd.ShopUpdate == nil || cmd.ShopUpdate.Address != "MG Road" {
				t.Fatalf("expected shop update, got %#v", cmd.ShopUpdate)
			}
			if len(cmd.Images) != 1 {
				t.Fatalf("expected 1 image, got %d", len(cmd.Images))
			}
			content, err := io.ReadAll(cmd.Images[0].Content)
			if err != nil || string(content) != "jpegbytes" {
				t.Fatalf("unexpected image content %q err %v", content, err)
			}
			return services.Order{
				ID:     cmd.OrderID,
				Status: domain.OrderStatusOnGoing,
				DetailAddedByAgent: &domain.AgentAddedDetail{
					Notes:  cmd.Notes,
					Images: []string{"https://storage.example/proof-1.jpg"},
				},
			}, nil
		},
	}
	handler := NewAgentHandlers(nil, service)

	router := chi.NewRouter()
	router.Post("/agent/orders/{orderID}/proof", handler.attachProof)

	req := multipartProofRequest(t, "/agent/orders/ord-40/proof",
		"left at door",
		`{"location": {"latitude": 8.51, "longitude": 76.94}, "address": "MG Road"}`,
		map[string][]byte{"proof.jpg": []byte("jpegbytes")},
	)
	req = req.WithContext(auth.WithIdentity(req.Context(), agentIdentity("agent-7")))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var resp orderResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Order.AgentDetail == nil || len(resp.Order.AgentDetail.Images) != 1 {
		t.Fatalf("expected agent detail with image url, got %#v", resp.Order.AgentDetail)
	}
}

func TestAgentHandlersAttachProofBadShopUpdate(t *testing.T) {
	handler := NewAgentHandlers(nil, &stubSettlementService{})

	router := chi.NewRouter()
	router.Post("/agent/orders/{orderID}/proof", handler.attachProof)

	req := multipartProofRequest(t, "/agent/orders/ord-41/proof", "", "{not json", nil)
	req = req.WithContext(auth.WithIdentity(req.Context(), agentIdentity("agent-7")))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}

func TestAgentHandlersAttachProofTooManyImages(t *testing.T) {
	handler := NewAgentHandlers(nil, &stubSettlementService{})

	router := chi.NewRouter()
	router.Post("/agent/orders/{orderID}/proof", handler.attachProof)

	images := make(map[string][]byte, maxProofImages+1)
	for i := 0; i <= maxProofImages; i++ {
		images[string(rune('a'+i))+".jpg"] = []byte("x")
	}
	req := multipartProofRequest(t, "/agent/orders/ord-42/proof", "", "", images)
	req = req.WithContext(auth.WithIdentity(req.Context(), agentIdentity("agent-7")))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}

func TestAgentHandlersAttachProofNotMultipart(t *testing.T) {
	handler := NewAgentHandlers(nil, &stubSettlementService{})

	router := chi.NewRouter()
	router.Post("/agent/orders/{orderID}/proof", handler.attachProof)

	req := authedRequest(http.MethodPost, "/agent/orders/ord-43/proof", `{"notes": "plain json"}`, agentIdentity("agent-7"))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}

func TestAgentHandlersAttachProofInvalidState(t *testing.T) {
	service := &stubSettlementService{
		proofFunc: func(ctx context.Context, cmd services.AttachDeliveryProofCommand) (services.Order, error) {
			return services.Order{}, services.ErrSettlementInvalidState
		},
	}
	handler := NewAgentHandlers(nil, service)

	router := chi.NewRouter()
	router.Post("/agent/orders/{orderID}/proof", handler.attachProof)

	req := multipartProofRequest(t, "/agent/orders/ord-44/proof", "note", "", nil)
	req = req.WithContext(auth.WithIdentity(req.Context(), agentIdentity("agent-7")))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d", rr.Code)
	}
}
