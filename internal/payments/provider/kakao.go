package provider

import (
	"context"
	"crypto/subtle"
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
	KakaoAuthScheme = "KakaoAK "

	kakaoApprovePath = "/v1/payment/approve"
	kakaoOrderPath   = "/v1/payment/order"

	// Kakao timestamps carry no zone and are KST.
	kakaoTimeLayout = "2006-01-02T15:04:05"
)

const (
	KakaoStatusReady       = "READY_TO_PAYMENT"
	KakaoStatusSuccess     = "SUCCESS_PAYMENT"
	KakaoStatusPartCancel  = "PART_CANCEL_PAYMENT"
	KakaoStatusCancel      = "CANCEL_PAYMENT"
	KakaoStatusQuit        = "QUIT_PAYMENT"
	KakaoStatusFail        = "FAIL_PAYMENT"
	KakaoStatusVBankIssued = "VBANK_ISSUED"
	KakaoStatusVBankExpire = "VBANK_EXPIRED"
)

var kst = time.FixedZone("KST", 9*60*60)

type KakaoConfig struct {
	AdminKey string
	CID      string
	BaseURL  string
	Timeout  time.Duration
}

type KakaoGateway struct {
	adminKey string
	cid      string
	http     *client.HttpClient
}

func NewKakaoGateway(cfg KakaoConfig) *KakaoGateway {
	return &KakaoGateway{
		adminKey: cfg.AdminKey,
		cid:      cfg.CID,
		http: client.NewHttpClient(strings.TrimRight(cfg.BaseURL, "/"), cfg.Timeout, map[string]string{
			"Authorization": KakaoAuthScheme + cfg.AdminKey,
		}),
	}
}

func (g *KakaoGateway) Name() model.Provider {
	return model.ProviderKakao
}

// VerifySignature requires the Authorization header to equal "KakaoAK {adminKey}" exactly.
func (g *KakaoGateway) VerifySignature(_ []byte, header http.Header) bool {
	if g.adminKey == "" {
		return false
	}
	expected := KakaoAuthScheme + g.adminKey
	received := header.Get("Authorization")
	return subtle.ConstantTimeCompare([]byte(received), []byte(expected)) == 1
}

func (g *KakaoGateway) MapStatus(providerStatus string) model.PaymentStatus {
	switch strings.ToUpper(providerStatus) {
	case KakaoStatusQuit, KakaoStatusCancel:
		return model.PaymentCanceled
	case KakaoStatusPartCancel, KakaoStatusSuccess:
		return model.PaymentCompleted
	case KakaoStatusReady:
		return model.PaymentReady
	case KakaoStatusFail:
		return model.PaymentFailed
	case KakaoStatusVBankIssued:
		return model.PaymentVirtualAccountIssued
	case KakaoStatusVBankExpire:
		return model.PaymentVirtualAccountExpired
	default:
		return model.PaymentFailed
	}
}

// ResolveStatus approves the payment with the pg_token the buyer was redirected with.
// A successful approval is reported as SUCCESS_PAYMENT.
func (g *KakaoGateway) ResolveStatus(ctx context.Context, req *model.WebhookRequest, payment *model.Payment) (*Payment, error) {
	if req.PgToken == "" {
		return nil, paymentserrors.StatusUnresolved()
	}

	tid := req.TID
	if tid == "" && payment != nil {
		tid = payment.TID
	}
	if tid == "" {
		return nil, paymentserrors.StatusUnresolved()
	}

	userID := ""
	if payment != nil {
		userID = payment.UserID
	}

	form := url.Values{}
	form.Set("cid", g.cid)
	form.Set("tid", tid)
	form.Set("partner_order_id", req.OrderID)
	form.Set("partner_user_id", userID)
	form.Set("pg_token", req.PgToken)

	resp, err := g.http.POSTForm(ctx, kakaoApprovePath, form.Encode())
	if err != nil {
		return nil, fmt.Errorf("kakao: approve: %w", err)
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("%w: kakao HTTP %d: %s", paymentserrors.ErrProviderRejected, resp.StatusCode, client.GetErrorMessage(resp))
	}

	var body kakaoApproveResponse
	if err := resp.DecodeJSON(&body); err != nil {
		return nil, fmt.Errorf("kakao: failed to parse approve response: %w", err)
	}

	return &Payment{
		Status:      KakaoStatusSuccess,
		TotalAmount: body.Amount.Total,
		TID:         body.TID,
		Method:      body.PaymentMethodType,
		ApprovedAt:  parseKakaoTime(body.ApprovedAt),
	}, nil
}

func (g *KakaoGateway) Lookup(ctx context.Context, payment *model.Payment) (*Payment, error) {
	if payment.TID == "" {
		return nil, paymentserrors.StatusUnresolved()
	}

	form := url.Values{}
	form.Set("cid", g.cid)
	form.Set("tid", payment.TID)

	resp, err := g.http.POSTForm(ctx, kakaoOrderPath, form.Encode())
	if err != nil {
		return nil, fmt.Errorf("kakao: order lookup: %w", err)
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("%w: kakao HTTP %d: %s", paymentserrors.ErrProviderRejected, resp.StatusCode, client.GetErrorMessage(resp))
	}

	var body kakaoOrderResponse
	if err := resp.DecodeJSON(&body); err != nil {
		return nil, fmt.Errorf("kakao: failed to parse order response: %w", err)
	}

	return &Payment{
		Status:      body.Status,
		TotalAmount: body.Amount.Total,
		TID:         body.TID,
		Method:      body.PaymentMethodType,
		ApprovedAt:  parseKakaoTime(body.ApprovedAt),
	}, nil
}

func parseKakaoTime(value string) *time.Time {
	if value == "" {
		return nil
	}
	t, err := time.ParseInLocation(kakaoTimeLayout, value, kst)
	if err != nil {
		return nil
	}
	return &t
}

type kakaoAmount struct {
	Total decimal.Decimal `json:"total"`
}

type kakaoApproveResponse struct {
	TID               string      `json:"tid"`
	PartnerOrderID    string      `json:"partner_order_id"`
	PaymentMethodType string      `json:"payment_method_type"`
	Amount            kakaoAmount `json:"amount"`
	ApprovedAt        string      `json:"approved_at"`
}

type kakaoOrderResponse struct {
	TID               string      `json:"tid"`
	Status            string      `json:"status"`
	PartnerOrderID    string      `json:"partner_order_id"`
	PaymentMethodType string      `json:"payment_method_type"`
	Amount            kakaoAmount `json:"amount"`
	ApprovedAt        string      `json:"approved_at"`
}
