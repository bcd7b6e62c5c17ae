package provider

import (
	"context"
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

const testKakaoAdminKey = "kakao-admin-key"

func TestKakaoVerifySignature(t *testing.T) {
	tests := []struct {
		name     string
		adminKey string
		header   string
		want     bool
	}{
		{name: "exact match", adminKey: testKakaoAdminKey, header: "KakaoAK " + testKakaoAdminKey, want: true},
		{name: "wrong key", adminKey: testKakaoAdminKey, header: "KakaoAK other", want: false},
		{name: "wrong scheme", adminKey: testKakaoAdminKey, header: "Bearer " + testKakaoAdminKey, want: false},
		{name: "key without scheme", adminKey: testKakaoAdminKey, header: testKakaoAdminKey, want: false},
		{name: "missing header", adminKey: testKakaoAdminKey, header: "", want: false},
		{name: "no key configured", adminKey: "", header: "KakaoAK ", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewKakaoGateway(KakaoConfig{AdminKey: tt.adminKey})
			header := http.Header{}
			if tt.header != "" {
				header.Set("Authorization", tt.header)
			}
			if got := g.VerifySignature(nil, header); got != tt.want {
				t.Errorf("VerifySignature() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestKakaoMapStatus(t *testing.T) {
	g := NewKakaoGateway(KakaoConfig{})

	tests := []struct {
		in   string
		want model.PaymentStatus
	}{
		{"QUIT_PAYMENT", model.PaymentCanceled},
		{"CANCEL_PAYMENT", model.PaymentCanceled},
		{"PART_CANCEL_PAYMENT", model.PaymentCompleted},
		{"SUCCESS_PAYMENT", model.PaymentCompleted},
		{"READY_TO_PAYMENT", model.PaymentReady},
		{"FAIL_PAYMENT", model.PaymentFailed},
		{"VBANK_ISSUED", model.PaymentVirtualAccountIssued},
		{"VBANK_EXPIRED", model.PaymentVirtualAccountExpired},
		{"SEND_TMS", model.PaymentFailed},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := g.MapStatus(tt.in); got != tt.want {
				t.Errorf("MapStatus(%q) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}

func TestKakaoResolveStatus_Approves(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/payment/approve" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("Authorization") != "KakaoAK "+testKakaoAdminKey {
			t.Errorf("unexpected Authorization header %q", r.Header.Get("Authorization"))
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("failed to parse form: %v", err)
		}
		want := map[string]string{
			"cid":              "TC0ONETIME",
			"tid":              "T1234",
			"partner_order_id": "order-1",
			"partner_user_id":  "user-7",
			"pg_token":         "pgtok",
		}
		for k, v := range want {
			if got := r.PostForm.Get(k); got != v {
				t.Errorf("form %s = %q, want %q", k, got, v)
			}
		}
		_, _ = io.WriteString(w, `{"tid":"T1234","partner_order_id":"order-1","payment_method_type":"MONEY","amount":{"total":50000},"approved_at":"2024-03-01T10:00:00"}`)
	}))
	defer server.Close()

	g := NewKakaoGateway(KakaoConfig{AdminKey: testKakaoAdminKey, CID: "TC0ONETIME", BaseURL: server.URL, Timeout: time.Second})

	got, err := g.ResolveStatus(context.Background(),
		&model.WebhookRequest{OrderID: "order-1", PgToken: "pgtok"},
		&model.Payment{TID: "T1234", UserID: "user-7"})
	if err != nil {
		t.Fatalf("ResolveStatus() error = %v", err)
	}
	if got.Status != KakaoStatusSuccess {
		t.Errorf("expected SUCCESS_PAYMENT, got %s", got.Status)
	}
	if !got.TotalAmount.Equal(decimal.NewFromInt(50000)) {
		t.Errorf("expected amount 50000, got %s", got.TotalAmount)
	}
	if got.ApprovedAt == nil || got.ApprovedAt.Hour() != 10 {
		t.Errorf("expected approved_at parsed in KST, got %v", got.ApprovedAt)
	}
}

func TestKakaoResolveStatus_Unresolved(t *testing.T) {
	g := NewKakaoGateway(KakaoConfig{AdminKey: testKakaoAdminKey})

	tests := []struct {
		name    string
		req     *model.WebhookRequest
		payment *model.Payment
	}{
		{"no pg_token", &model.WebhookRequest{OrderID: "order-1", TID: "T1"}, &model.Payment{}},
		{"no tid anywhere", &model.WebhookRequest{OrderID: "order-1", PgToken: "tok"}, &model.Payment{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := g.ResolveStatus(context.Background(), tt.req, tt.payment)
			if !errors.Is(err, paymentserrors.ErrStatusUnresolved) {
				t.Errorf("expected ErrStatusUnresolved, got %v", err)
			}
		})
	}
}

func TestKakaoLookup(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/payment/order" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_ = r.ParseForm()
		if r.PostForm.Get("tid") != "T1234" {
			t.Errorf("unexpected tid %q", r.PostForm.Get("tid"))
		}
		_, _ = io.WriteString(w, `{"tid":"T1234","status":"SUCCESS_PAYMENT","amount":{"total":49000}}`)
	}))
	defer server.Close()

	g := NewKakaoGateway(KakaoConfig{AdminKey: testKakaoAdminKey, CID: "TC0ONETIME", BaseURL: server.URL, Timeout: time.Second})

	got, err := g.Lookup(context.Background(), &model.Payment{TID: "T1234"})
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if got.Status != KakaoStatusSuccess {
		t.Errorf("expected SUCCESS_PAYMENT, got %s", got.Status)
	}
	if !got.TotalAmount.Equal(decimal.NewFromInt(49000)) {
		t.Errorf("expected 49000, got %s", got.TotalAmount)
	}
}

func TestKakaoLookup_Rejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"code":-780,"msg":"approval failure!"}`)
	}))
	defer server.Close()

	g := NewKakaoGateway(KakaoConfig{AdminKey: testKakaoAdminKey, BaseURL: server.URL, Timeout: time.Second})

	_, err := g.Lookup(context.Background(), &model.Payment{TID: "T1"})
	if !errors.Is(err, paymentserrors.ErrProviderRejected) {
		t.Errorf("expected ErrProviderRejected, got %v", err)
	}
}
