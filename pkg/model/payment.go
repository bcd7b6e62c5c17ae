package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type Provider string

const (
	ProviderToss  Provider = "toss"
	ProviderKakao Provider = "kakao"
)

type PaymentStatus string

const (
	PaymentReady                 PaymentStatus = "READY"
	PaymentInProgress            PaymentStatus = "IN_PROGRESS"
	PaymentCompleted             PaymentStatus = "COMPLETED"
	PaymentCanceled              PaymentStatus = "CANCELED"
	PaymentFailed                PaymentStatus = "FAILED"
	PaymentVirtualAccountIssued  PaymentStatus = "VIRTUAL_ACCOUNT_ISSUED"
	PaymentVirtualAccountExpired PaymentStatus = "VIRTUAL_ACCOUNT_EXPIRED"
)

// Sources recorded in a payment's status history.
const (
	SourceWebhook = "webhook"
	SourceConfirm = "confirm"
)

type Payment struct {
	ID            string          `json:"id" bson:"_id"`
	OrderID       string          `json:"order_id" bson:"order_id"`
	UserID        string          `json:"user_id" bson:"user_id"`
	Provider      Provider        `json:"provider" bson:"provider"`
	Amount        decimal.Decimal `json:"amount" bson:"amount"`
	Currency      string          `json:"currency" bson:"currency"`
	Status        PaymentStatus   `json:"status" bson:"status"`
	PaymentKey    string          `json:"payment_key,omitempty" bson:"payment_key,omitempty"`
	TID           string          `json:"tid,omitempty" bson:"tid,omitempty"`
	Method        string          `json:"method,omitempty" bson:"method,omitempty"`
	ApprovedAt    *time.Time      `json:"approved_at,omitempty" bson:"approved_at,omitempty"`
	StatusHistory []StatusChange  `json:"status_history,omitempty" bson:"status_history,omitempty"`
	LastWebhookAt *time.Time      `json:"last_webhook_at,omitempty" bson:"last_webhook_at,omitempty"`
	CreatedAt     time.Time       `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at" bson:"updated_at"`
}

type StatusChange struct {
	Status         PaymentStatus `json:"status" bson:"status"`
	ProviderStatus string        `json:"provider_status" bson:"provider_status"`
	Source         string        `json:"source" bson:"source"`
	At             time.Time     `json:"at" bson:"at"`
}

// PaymentUpdate carries the fields a status transition writes back to storage.
type PaymentUpdate struct {
	Status     PaymentStatus
	PaymentKey string
	TID        string
	Method     string
	ApprovedAt *time.Time
	Change     StatusChange
	FromHook   bool
}
