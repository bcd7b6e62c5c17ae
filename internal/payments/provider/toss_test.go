package provider

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	paymentserrors "travelpay/internal/payments/errors"
	"travelpay/pkg/model"

	"github.com/shopspring/decimal"
)

const testTossSecret = "test_sk_secret"

func signToss(body []byte, secret string) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return mac.Sum(nil)
}

func TestTossVerifySignature(t *testing.T) {
	body := []byte(`{"provider":"toss","orderId":"order-1","status":"DONE"}`)
	digest := signToss(body, testTossSecret)

	tests := []struct {
		name   string
		secret string
		header string
		want   bool
	}{
		{name: "hex digest", secret: testTossSecret, header: hex.EncodeToString(digest), want: true},
		{name: "base64 digest", secret: testTossSecret, header: base64.StdEncoding.EncodeToString(digest), want: true},
		{name: "v1 prefix", secret: testTossSecret, header: "v1:" + hex.EncodeToString(digest), want: true},
		{name: "wrong secret", secret: testTossSecret, header: hex.EncodeToString(signToss(body, "other")), want: false},
		{name: "garbage header", secret: testTossSecret, header: "not-a-signature", want: false},
		{name: "missing header", secret: testTossSecret, header: "", want: false},
		{name: "no secret configured", secret: "", header: hex.EncodeToString(digest), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewTossGateway(TossConfig{SecretKey: tt.secret, BaseURL: "http://unused"})
			header := http.Header{}
			if tt.header != "" {
				header.Set(TossSignatureHeader, tt.header)
			}
			if got := g.VerifySignature(body, header); got != tt.want {
				t.Errorf("VerifySignature() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTossVerifySignature_TamperedBody(t *testing.T) {
	g := NewTossGateway(TossConfig{SecretKey: testTossSecret})
	body := []byte(`{"orderId":"order-1","status":"DONE"}`)

	header := http.Header{}
	header.Set(TossSignatureHeader, hex.EncodeToString(signToss(body, testTossSecret)))

	if g.VerifySignature([]byte(`{"orderId":"order-1","status":"CANCELED"}`), header) {
		t.Error("signature must not validate a different body")
	}
}

func TestTossMapStatus(t *testing.T) {
	g := NewTossGateway(TossConfig{})

	tests := []struct {
		in   string
		want model.PaymentStatus
	}{
		{"DONE", model.PaymentCompleted},
		{"CANCELED", model.PaymentCanceled},
		{"READY", model.PaymentReady},
		{"IN_PROGRESS", model.PaymentInProgress},
		{"WAITING_FOR_DEPOSIT", model.PaymentVirtualAccountIssued},
		{"EXPIRED", model.PaymentVirtualAccountExpired},
		{"done", model.PaymentCompleted},
		{"ABORTED", model.PaymentFailed},
		{"", model.PaymentFailed},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := g.MapStatus(tt.in); got != tt.want {
				t.Errorf("MapStatus(%q) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}

func TestTossResolveStatus_QueriesPayment(t *testing.T) {
	wantAuth := "Basic " + base64.StdEncoding.EncodeToString([]byte(testTossSecret+":"))

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/v1/payments/pk_123" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("Authorization") != wantAuth {
			t.Errorf("unexpected Authorization header %q", r.Header.Get("Authorization"))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"paymentKey":"pk_123","orderId":"order-1","status":"DONE","totalAmount":50000,"method":"카드","approvedAt":"2024-03-01T10:00:00+09:00"}`)
	}))
	defer server.Close()

	g := NewTossGateway(TossConfig{SecretKey: testTossSecret, BaseURL: server.URL, Timeout: time.Second})

	got, err := g.ResolveStatus(context.Background(), &model.WebhookRequest{OrderID: "order-1", PaymentKey: "pk_123"}, nil)
	if err != nil {
		t.Fatalf("ResolveStatus() error = %v", err)
	}
	if got.Status != TossStatusDone {
		t.Errorf("expected DONE, got %s", got.Status)
	}
	if !got.TotalAmount.Equal(decimal.NewFromInt(50000)) {
		t.Errorf("expected amount 50000, got %s", got.TotalAmount)
	}
	if got.ApprovedAt == nil {
		t.Error("expected approvedAt to be parsed")
	}
}

func TestTossResolveStatus_FallsBackToStoredKey(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = io.WriteString(w, `{"status":"CANCELED","totalAmount":1000}`)
	}))
	defer server.Close()

	g := NewTossGateway(TossConfig{SecretKey: testTossSecret, BaseURL: server.URL, Timeout: time.Second})

	_, err := g.ResolveStatus(context.Background(), &model.WebhookRequest{OrderID: "order-1"}, &model.Payment{PaymentKey: "stored_pk"})
	if err != nil {
		t.Fatalf("ResolveStatus() error = %v", err)
	}
	if gotPath != "/v1/payments/stored_pk" {
		t.Errorf("expected stored key to be queried, got %s", gotPath)
	}
}

func TestTossResolveStatus_NoPaymentKey(t *testing.T) {
	g := NewTossGateway(TossConfig{SecretKey: testTossSecret})

	_, err := g.ResolveStatus(context.Background(), &model.WebhookRequest{OrderID: "order-1"}, &model.Payment{})
	if !errors.Is(err, paymentserrors.ErrStatusUnresolved) {
		t.Errorf("expected ErrStatusUnresolved, got %v", err)
	}
}

func TestTossResolveStatus_ProviderRejects(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"code":"NOT_FOUND_PAYMENT","message":"존재하지 않는 결제 정보 입니다."}`)
	}))
	defer server.Close()

	g := NewTossGateway(TossConfig{SecretKey: testTossSecret, BaseURL: server.URL, Timeout: time.Second})

	_, err := g.Lookup(context.Background(), &model.Payment{PaymentKey: "pk_missing"})
	if !errors.Is(err, paymentserrors.ErrProviderRejected) {
		t.Fatalf("expected ErrProviderRejected, got %v", err)
	}
	if got := paymentserrors.Classify(err); got.Code != paymentserrors.CodeProviderError {
		t.Errorf("expected PROVIDER_ERROR, got %s", got.Code)
	}
}

func TestTossConfirm_SendsIntegerAmount(t *testing.T) {
	var received map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/payments/confirm" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("failed to decode body: %v", err)
		}
		_, _ = io.WriteString(w, `{"paymentKey":"pk_1","orderId":"order-1","status":"DONE","totalAmount":50000}`)
	}))
	defer server.Close()

	g := NewTossGateway(TossConfig{SecretKey: testTossSecret, BaseURL: server.URL, Timeout: time.Second})

	got, err := g.Confirm(context.Background(), "pk_1", "order-1", decimal.NewFromInt(50000))
	if err != nil {
		t.Fatalf("Confirm() error = %v", err)
	}
	if got.Status != TossStatusDone {
		t.Errorf("expected DONE, got %s", got.Status)
	}
	if amount, ok := received["amount"].(float64); !ok || amount != 50000 {
		t.Errorf("expected numeric amount 50000, got %v", received["amount"])
	}
	if received["orderId"] != "order-1" || received["paymentKey"] != "pk_1" {
		t.Errorf("unexpected body %v", received)
	}
}

func TestRegistryGet(t *testing.T) {
	r := NewRegistry(NewTossGateway(TossConfig{}), NewKakaoGateway(KakaoConfig{}))

	tests := []struct {
		name   string
		input  string
		wantOK bool
	}{
		{"toss", "toss", true},
		{"kakao upper case", "KAKAO", true},
		{"padded", " toss ", true},
		{"unknown", "paypal", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := r.Get(tt.input)
			if ok != tt.wantOK {
				t.Errorf("Get(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
		})
	}
}
