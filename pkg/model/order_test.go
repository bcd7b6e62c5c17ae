package model

import "testing"

func TestOrderStatusFor(t *testing.T) {
	tests := []struct {
		name    string
		payment PaymentStatus
		want    OrderStatus
	}{
		{name: "completed", payment: PaymentCompleted, want: OrderPaymentCompleted},
		{name: "canceled", payment: PaymentCanceled, want: OrderPaymentCanceled},
		{name: "failed", payment: PaymentFailed, want: OrderPaymentFailed},
		{name: "virtual account issued", payment: PaymentVirtualAccountIssued, want: OrderAwaitingDeposit},
		{name: "virtual account expired", payment: PaymentVirtualAccountExpired, want: OrderPaymentExpired},
		{name: "ready stays pending", payment: PaymentReady, want: OrderPaymentPending},
		{name: "in progress stays pending", payment: PaymentInProgress, want: OrderPaymentPending},
		{name: "unknown stays pending", payment: PaymentStatus("SOMETHING"), want: OrderPaymentPending},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := OrderStatusFor(tt.payment); got != tt.want {
				t.Errorf("OrderStatusFor(%s) = %s, want %s", tt.payment, got, tt.want)
			}
		})
	}
}
