package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/julienschmidt/httprouter"
	"github.com/shopspring/decimal"

	paymentserrors "travelpay/internal/payments/errors"
	"travelpay/pkg/logger"
	"travelpay/pkg/middleware"
	"travelpay/pkg/model"
)

// Mock service for testing
type mockPaymentService struct {
	handleWebhookFunc func(ctx context.Context, req *model.WebhookRequest, rawBody []byte, header http.Header) (*model.WebhookResult, error)
	verifyFunc        func(ctx context.Context, id string) (*model.VerificationResult, error)
	confirmFunc       func(ctx context.Context, req *model.ConfirmRequest) (*model.WebhookResult, error)
	getByIDFunc       func(ctx context.Context, id string) (*model.Payment, error)
}

func (m *mockPaymentService) HandleWebhook(ctx context.Context, req *model.WebhookRequest, rawBody []byte, header http.Header) (*model.WebhookResult, error) {
	if m.handleWebhookFunc != nil {
		return m.handleWebhookFunc(ctx, req, rawBody, header)
	}
	return &model.WebhookResult{}, nil
}

func (m *mockPaymentService) VerifyPayment(ctx context.Context, id string) (*model.VerificationResult, error) {
	if m.verifyFunc != nil {
		return m.verifyFunc(ctx, id)
	}
	return &model.VerificationResult{}, nil
}

func (m *mockPaymentService) ConfirmToss(ctx context.Context, req *model.ConfirmRequest) (*model.WebhookResult, error) {
	if m.confirmFunc != nil {
		return m.confirmFunc(ctx, req)
	}
	return &model.WebhookResult{}, nil
}

func (m *mockPaymentService) GetByID(ctx context.Context, id string) (*model.Payment, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return &model.Payment{ID: id}, nil
}

func (m *mockPaymentService) GetByOrderID(ctx context.Context, orderID string) (*model.Payment, error) {
	return &model.Payment{OrderID: orderID}, nil
}

func newTestRouter(svc *mockPaymentService) *httprouter.Router {
	router := httprouter.New()
	NewPaymentHandler(svc, logger.Discard()).RegisterRoutes(router)
	return router
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) model.WebhookResponse {
	t.Helper()
	var resp model.WebhookResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return resp
}

func TestWebhook_Success(t *testing.T) {
	body := `{"provider":"toss","orderId":"order-1","paymentKey":"pk_1","status":"DONE"}`

	var gotRaw []byte
	var gotHeader string
	svc := &mockPaymentService{
		handleWebhookFunc: func(_ context.Context, req *model.WebhookRequest, rawBody []byte, header http.Header) (*model.WebhookResult, error) {
			gotRaw = rawBody
			gotHeader = header.Get("Toss-Signature")
			if req.OrderID != "order-1" || req.Status != "DONE" {
				t.Errorf("unexpected request %+v", req)
			}
			return &model.WebhookResult{PaymentID: "pay-1", OrderID: "order-1", Status: model.PaymentCompleted}, nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/api/payments/webhook", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Toss-Signature", "abc")
	rec := httptest.NewRecorder()

	newTestRouter(svc).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	resp := decodeResponse(t, rec)
	if !resp.Success || resp.Message != MessageWebhookProcessed || resp.Status != model.PaymentCompleted || resp.PaymentID != "pay-1" {
		t.Errorf("unexpected response %+v", resp)
	}
	if string(gotRaw) != body {
		t.Errorf("raw body not passed through: %q", gotRaw)
	}
	if gotHeader != "abc" {
		t.Errorf("headers not passed through")
	}
}

func TestWebhook_Duplicate(t *testing.T) {
	svc := &mockPaymentService{
		handleWebhookFunc: func(context.Context, *model.WebhookRequest, []byte, http.Header) (*model.WebhookResult, error) {
			return &model.WebhookResult{PaymentID: "pay-1", OrderID: "order-1", Status: model.PaymentCompleted, Duplicate: true}, nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/api/payments/webhook", strings.NewReader(`{"provider":"toss","orderId":"order-1"}`))
	rec := httptest.NewRecorder()
	newTestRouter(svc).ServeHTTP(rec, req)

	resp := decodeResponse(t, rec)
	if rec.Code != http.StatusOK || !resp.Success || resp.Message != MessageWebhookDuplicate {
		t.Errorf("unexpected duplicate response %d %+v", rec.Code, resp)
	}
}

func TestWebhook_Errors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "malformed json",
			body:       `{"provider":`,
			wantStatus: http.StatusBadRequest,
			wantCode:   paymentserrors.CodeInvalidRequest,
		},
		{
			name:       "invalid signature",
			body:       `{"provider":"toss","orderId":"o"}`,
			err:        paymentserrors.InvalidSignature("toss"),
			wantStatus: http.StatusUnauthorized,
			wantCode:   paymentserrors.CodeInvalidSignature,
		},
		{
			name:       "unsupported provider",
			body:       `{"provider":"paypal","orderId":"o"}`,
			err:        paymentserrors.UnsupportedProvider("paypal"),
			wantStatus: http.StatusBadRequest,
			wantCode:   paymentserrors.CodeUnsupportedProvider,
		},
		{
			name:       "order missing",
			body:       `{"provider":"toss","orderId":"o"}`,
			err:        paymentserrors.OrderNotFound("o"),
			wantStatus: http.StatusNotFound,
			wantCode:   paymentserrors.CodeOrderNotFound,
		},
		{
			name:       "untyped database failure",
			body:       `{"provider":"toss","orderId":"o"}`,
			err:        errors.New("database: transaction failed"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   paymentserrors.CodeDatabaseError,
		},
		{
			name:       "deadline exceeded",
			body:       `{"provider":"toss","orderId":"o"}`,
			err:        context.DeadlineExceeded,
			wantStatus: http.StatusGatewayTimeout,
			wantCode:   paymentserrors.CodeTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockPaymentService{
				handleWebhookFunc: func(context.Context, *model.WebhookRequest, []byte, http.Header) (*model.WebhookResult, error) {
					if tt.err == nil {
						t.Error("service should not be called")
					}
					return nil, tt.err
				},
			}

			req := httptest.NewRequest(http.MethodPost, "/api/payments/webhook", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			newTestRouter(svc).ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("expected %d, got %d", tt.wantStatus, rec.Code)
			}
			resp := decodeResponse(t, rec)
			if resp.Success || resp.Code != tt.wantCode || resp.Error == "" {
				t.Errorf("unexpected response %+v", resp)
			}
		})
	}
}

func TestWebhook_BodyTooLarge(t *testing.T) {
	svc := &mockPaymentService{
		handleWebhookFunc: func(context.Context, *model.WebhookRequest, []byte, http.Header) (*model.WebhookResult, error) {
			t.Error("service should not be called")
			return nil, nil
		},
	}
	handler := middleware.MaxRequestSize(16)(newTestRouter(svc))

	req := httptest.NewRequest(http.MethodPost, "/api/payments/webhook", strings.NewReader(`{"provider":"toss","orderId":"order-1"}`))
	req.ContentLength = -1
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if resp := decodeResponse(t, rec); resp.Code != paymentserrors.CodeInvalidRequest {
		t.Errorf("unexpected code %s", resp.Code)
	}
}

func TestConfirmToss_PassesAmount(t *testing.T) {
	svc := &mockPaymentService{
		confirmFunc: func(_ context.Context, req *model.ConfirmRequest) (*model.WebhookResult, error) {
			if !req.Amount.Equal(decimal.NewFromInt(50000)) || req.PaymentKey != "pk_1" {
				t.Errorf("unexpected request %+v", req)
			}
			return &model.WebhookResult{PaymentID: "pay-1", OrderID: "order-1", Status: model.PaymentCompleted}, nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/api/payments/toss/confirm", strings.NewReader(`{"paymentKey":"pk_1","orderId":"order-1","amount":50000}`))
	rec := httptest.NewRecorder()
	newTestRouter(svc).ServeHTTP(rec, req)

	resp := decodeResponse(t, rec)
	if rec.Code != http.StatusOK || resp.Message != MessagePaymentConfirmed {
		t.Errorf("unexpected response %d %+v", rec.Code, resp)
	}
}

func TestVerify(t *testing.T) {
	svc := &mockPaymentService{
		verifyFunc: func(_ context.Context, id string) (*model.VerificationResult, error) {
			if id != "pay-1" {
				t.Errorf("unexpected id %s", id)
			}
			return &model.VerificationResult{IsValid: false, Reason: model.ReasonAmountMismatch, PaymentID: id}, nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/api/payments/id/pay-1/verify", nil)
	rec := httptest.NewRecorder()
	newTestRouter(svc).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp struct {
		Success bool                     `json:"success"`
		Data    model.VerificationResult `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if !resp.Success || resp.Data.IsValid || resp.Data.Reason != model.ReasonAmountMismatch {
		t.Errorf("unexpected response %+v", resp)
	}
}

func TestGetByID_NotFound(t *testing.T) {
	svc := &mockPaymentService{
		getByIDFunc: func(_ context.Context, id string) (*model.Payment, error) {
			return nil, paymentserrors.PaymentNotFoundByID(id)
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/payments/id/missing", nil)
	rec := httptest.NewRecorder()
	newTestRouter(svc).ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	resp := decodeResponse(t, rec)
	if resp.Code != paymentserrors.CodePaymentNotFound || resp.Details["paymentId"] != "missing" {
		t.Errorf("unexpected response %+v", resp)
	}
}

func TestReady(t *testing.T) {
	tests := []struct {
		name       string
		mongoErr   error
		withRedis  bool
		redisErr   error
		wantStatus int
		wantRedis  string
	}{
		{name: "all healthy", withRedis: true, wantStatus: http.StatusOK, wantRedis: "ok"},
		{name: "no redis configured", wantStatus: http.StatusOK},
		{name: "mongo down", mongoErr: errors.New("no reachable servers"), wantStatus: http.StatusServiceUnavailable},
		{name: "redis down", withRedis: true, redisErr: errors.New("connection refused"), wantStatus: http.StatusServiceUnavailable, wantRedis: "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &HealthHandler{
				pingMongo: func(context.Context) error { return tt.mongoErr },
				log:       logger.Discard(),
			}
			if tt.withRedis {
				h.pingRedis = func(context.Context) error { return tt.redisErr }
			}

			router := httprouter.New()
			h.RegisterRoutes(router)

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

			if rec.Code != tt.wantStatus {
				t.Errorf("expected %d, got %d", tt.wantStatus, rec.Code)
			}
			var resp HealthResponse
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatalf("failed to decode: %v", err)
			}
			if resp.Redis != tt.wantRedis {
				t.Errorf("expected redis %q, got %q", tt.wantRedis, resp.Redis)
			}
		})
	}
}
