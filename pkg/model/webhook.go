package model

import "github.com/shopspring/decimal"

// WebhookRequest is the body providers (or the storefront relay) post to the webhook.
type WebhookRequest struct {
	Provider   string `json:"provider" validate:"required"`
	OrderID    string `json:"orderId" validate:"required,max=128"`
	PaymentKey string `json:"paymentKey,omitempty" validate:"omitempty,max=200"`
	TID        string `json:"tid,omitempty" validate:"omitempty,max=100"`
	Status     string `json:"status,omitempty" validate:"omitempty,max=64"`
	PgToken    string `json:"pg_token,omitempty" validate:"omitempty,max=200"`
}

// WebhookResponse is the envelope returned by every payment endpoint.
type WebhookResponse struct {
	Success   bool           `json:"success"`
	Message   string         `json:"message,omitempty"`
	PaymentID string         `json:"paymentId,omitempty"`
	OrderID   string         `json:"orderId,omitempty"`
	Status    PaymentStatus  `json:"status,omitempty"`
	Error     string         `json:"error,omitempty"`
	Code      string         `json:"code,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
}

type WebhookResult struct {
	PaymentID string
	OrderID   string
	Status    PaymentStatus
	Duplicate bool
}

type ConfirmRequest struct {
	PaymentKey string          `json:"paymentKey" validate:"required,max=200"`
	OrderID    string          `json:"orderId" validate:"required,max=128"`
	Amount     decimal.Decimal `json:"amount"`
}

const (
	ReasonAmountMismatch   = "AMOUNT_MISMATCH"
	ReasonStatusMismatch   = "STATUS_MISMATCH"
	ReasonMissingReference = "MISSING_PROVIDER_REFERENCE"
)

type VerificationResult struct {
	IsValid        bool            `json:"isValid"`
	Reason         string          `json:"reason,omitempty"`
	PaymentID      string          `json:"paymentId"`
	OrderID        string          `json:"orderId"`
	ExpectedAmount decimal.Decimal `json:"expectedAmount"`
	ActualAmount   decimal.Decimal `json:"actualAmount"`
	ProviderStatus string          `json:"providerStatus,omitempty"`
	Status         PaymentStatus   `json:"status,omitempty"`
}
