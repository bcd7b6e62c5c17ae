package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderPaymentPending   OrderStatus = "PAYMENT_PENDING"
	OrderPaymentCompleted OrderStatus = "PAYMENT_COMPLETED"
	OrderPaymentCanceled  OrderStatus = "PAYMENT_CANCELED"
	OrderPaymentFailed    OrderStatus = "PAYMENT_FAILED"
	OrderAwaitingDeposit  OrderStatus = "AWAITING_DEPOSIT"
	OrderPaymentExpired   OrderStatus = "PAYMENT_EXPIRED"
)

type Order struct {
	ID          string          `json:"id" bson:"_id"`
	UserID      string          `json:"user_id" bson:"user_id"`
	TotalAmount decimal.Decimal `json:"total_amount" bson:"total_amount"`
	Status      OrderStatus     `json:"status" bson:"status"`
	PaymentID   string          `json:"payment_id,omitempty" bson:"payment_id,omitempty"`
	CreatedAt   time.Time       `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at" bson:"updated_at"`
}

// OrderStatusFor returns the order status a payment status propagates to.
func OrderStatusFor(status PaymentStatus) OrderStatus {
	switch status {
	case PaymentCompleted:
		return OrderPaymentCompleted
	case PaymentCanceled:
		return OrderPaymentCanceled
	case PaymentFailed:
		return OrderPaymentFailed
	case PaymentVirtualAccountIssued:
		return OrderAwaitingDeposit
	case PaymentVirtualAccountExpired:
		return OrderPaymentExpired
	default:
		return OrderPaymentPending
	}
}
