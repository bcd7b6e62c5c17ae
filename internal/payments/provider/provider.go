package provider

import (
	"context"
	"net/http"
	"strings"
	"time"

	"travelpay/pkg/model"

	"github.com/shopspring/decimal"
)

// Gateway is implemented once per payment provider. It owns everything that
// differs between providers: callback authentication, the status vocabulary and
// the REST calls used to settle or inspect a payment.
type Gateway interface {
	Name() model.Provider

	// VerifySignature authenticates a webhook call from its raw body and headers.
	VerifySignature(rawBody []byte, header http.Header) bool

	// MapStatus translates a provider status string into the canonical status.
	MapStatus(providerStatus string) model.PaymentStatus

	// ResolveStatus determines the provider status for a webhook that did not carry one.
	ResolveStatus(ctx context.Context, req *model.WebhookRequest, payment *model.Payment) (*Payment, error)

	// Lookup fetches the provider's current view of a stored payment.
	Lookup(ctx context.Context, payment *model.Payment) (*Payment, error)
}

// Confirmer is implemented by gateways that settle a payment through an
// explicit server-side approval call.
type Confirmer interface {
	Confirm(ctx context.Context, paymentKey, orderID string, amount decimal.Decimal) (*Payment, error)
}

// Payment is the provider-reported state of a payment.
type Payment struct {
	Status      string
	TotalAmount decimal.Decimal
	PaymentKey  string
	TID         string
	Method      string
	ApprovedAt  *time.Time
}

type Registry struct {
	gateways map[model.Provider]Gateway
}

func NewRegistry(gateways ...Gateway) *Registry {
	r := &Registry{gateways: make(map[model.Provider]Gateway, len(gateways))}
	for _, g := range gateways {
		r.gateways[g.Name()] = g
	}
	return r
}

// Get resolves a provider name as sent by clients; matching is case-insensitive.
func (r *Registry) Get(name string) (Gateway, bool) {
	g, ok := r.gateways[model.Provider(strings.ToLower(strings.TrimSpace(name)))]
	return g, ok
}
