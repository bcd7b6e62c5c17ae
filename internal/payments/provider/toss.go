package provider

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	paymentserrors "travelpay/internal/payments/errors"
	"travelpay/pkg/client"
	"travelpay/pkg/model"

	"github.com/shopspring/decimal"
)

const (
	TossSignatureHeader = "Toss-Signature"

	tossPaymentPath = "/v1/payments/%s"
	tossConfirmPath = "/v1/payments/confirm"
)

const (
	TossStatusDone              = "DONE"
	TossStatusCanceled          = "CANCELED"
	TossStatusReady             = "READY"
	TossStatusInProgress        = "IN_PROGRESS"
	TossStatusWaitingForDeposit = "WAITING_FOR_DEPOSIT"
	TossStatusExpired           = "EXPIRED"
)

type TossConfig struct {
	SecretKey string
	BaseURL   string
	Timeout   time.Duration
}

type TossGateway struct {
	secretKey string
	http      *client.HttpClient
}

func NewTossGateway(cfg TossConfig) *TossGateway {
	auth := base64.StdEncoding.EncodeToString([]byte(cfg.SecretKey + ":"))
	return &TossGateway{
		secretKey: cfg.SecretKey,
		http: client.NewHttpClient(strings.TrimRight(cfg.BaseURL, "/"), cfg.Timeout, map[string]string{
			"Authorization": "Basic " + auth,
		}),
	}
}

func (g *TossGateway) Name() model.Provider {
	return model.ProviderToss
}

// VerifySignature checks Toss-Signature against HMAC-SHA256(rawBody, secretKey).
// The digest is accepted hex or base64 encoded, with or without a "v1:" prefix.
func (g *TossGateway) VerifySignature(rawBody []byte, header http.Header) bool {
	if g.secretKey == "" {
		return false
	}

	received := strings.TrimSpace(header.Get(TossSignatureHeader))
	received = strings.TrimPrefix(received, "v1:")
	if received == "" {
		return false
	}

	mac := hmac.New(sha256.New, []byte(g.secretKey))
	mac.Write(rawBody)
	expected := mac.Sum(nil)

	if decoded, err := hex.DecodeString(received); err == nil && hmac.Equal(decoded, expected) {
		return true
	}
	if decoded, err := base64.StdEncoding.DecodeString(received); err == nil && hmac.Equal(decoded, expected) {
		return true
	}
	return false
}

func (g *TossGateway) MapStatus(providerStatus string) model.PaymentStatus {
	switch strings.ToUpper(providerStatus) {
	case TossStatusDone:
		return model.PaymentCompleted
	case TossStatusCanceled:
		return model.PaymentCanceled
	case TossStatusReady:
		return model.PaymentReady
	case TossStatusInProgress:
		return model.PaymentInProgress
	case TossStatusWaitingForDeposit:
		return model.PaymentVirtualAccountIssued
	case TossStatusExpired:
		return model.PaymentVirtualAccountExpired
	default:
		return model.PaymentFailed
	}
}

// ResolveStatus queries Toss by paymentKey, taken from the request or the stored payment.
func (g *TossGateway) ResolveStatus(ctx context.Context, req *model.WebhookRequest, payment *model.Payment) (*Payment, error) {
	paymentKey := req.PaymentKey
	if paymentKey == "" && payment != nil {
		paymentKey = payment.PaymentKey
	}
	if paymentKey == "" {
		return nil, paymentserrors.StatusUnresolved()
	}
	return g.fetch(ctx, paymentKey)
}

func (g *TossGateway) Lookup(ctx context.Context, payment *model.Payment) (*Payment, error) {
	if payment.PaymentKey == "" {
		return nil, paymentserrors.StatusUnresolved()
	}
	return g.fetch(ctx, payment.PaymentKey)
}

// Confirm approves a payment the buyer authorised in the Toss widget.
func (g *TossGateway) Confirm(ctx context.Context, paymentKey, orderID string, amount decimal.Decimal) (*Payment, error) {
	resp, err := g.http.POSTJSON(ctx, tossConfirmPath, tossConfirmRequest{
		PaymentKey: paymentKey,
		OrderID:    orderID,
		Amount:     amount.IntPart(),
	})
	if err != nil {
		return nil, fmt.Errorf("toss: confirm: %w", err)
	}
	return decodeTossPayment(resp)
}

func (g *TossGateway) fetch(ctx context.Context, paymentKey string) (*Payment, error) {
	resp, err := g.http.GET(ctx, fmt.Sprintf(tossPaymentPath, url.PathEscape(paymentKey)))
	if err != nil {
		return nil, fmt.Errorf("toss: query payment: %w", err)
	}
	return decodeTossPayment(resp)
}

func decodeTossPayment(resp *client.Response) (*Payment, error) {
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("%w: toss HTTP %d: %s", paymentserrors.ErrProviderRejected, resp.StatusCode, client.GetErrorMessage(resp))
	}

	var body tossPaymentResponse
	if err := resp.DecodeJSON(&body); err != nil {
		return nil, fmt.Errorf("toss: failed to parse response: %w", err)
	}

	p := &Payment{
		Status:      body.Status,
		TotalAmount: body.TotalAmount,
		PaymentKey:  body.PaymentKey,
		Method:      body.Method,
	}
	if body.ApprovedAt != "" {
		if t, err := time.Parse(time.RFC3339, body.ApprovedAt); err == nil {
			p.ApprovedAt = &t
		}
	}
	return p, nil
}

// Amounts are sent as integers: Toss only settles KRW.
type tossConfirmRequest struct {
	PaymentKey string `json:"paymentKey"`
	OrderID    string `json:"orderId"`
	Amount     int64  `json:"amount"`
}

type tossPaymentResponse struct {
	PaymentKey  string          `json:"paymentKey"`
	OrderID     string          `json:"orderId"`
	Status      string          `json:"status"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	Method      string          `json:"method"`
	ApprovedAt  string          `json:"approvedAt"`
}
