package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	paymentserrors "travelpay/internal/payments/errors"
	"travelpay/internal/payments/events"
	"travelpay/internal/payments/provider"
	"travelpay/internal/payments/repository"
	"travelpay/internal/payments/validator"
	"travelpay/pkg/dedupe"
	"travelpay/pkg/logger"
	"travelpay/pkg/middleware"
	"travelpay/pkg/model"

	"go.mongodb.org/mongo-driver/mongo"
)

type PaymentService interface {
	HandleWebhook(ctx context.Context, req *model.WebhookRequest, rawBody []byte, header http.Header) (*model.WebhookResult, error)
	VerifyPayment(ctx context.Context, paymentID string) (*model.VerificationResult, error)
	ConfirmToss(ctx context.Context, req *model.ConfirmRequest) (*model.WebhookResult, error)

	GetByID(ctx context.Context, id string) (*model.Payment, error)
	GetByOrderID(ctx context.Context, orderID string) (*model.Payment, error)
}

const defaultPublishTimeout = 3 * time.Second

type Options struct {
	// AllowUnsignedWebhooks logs signature failures instead of rejecting them.
	// Only enabled in development.
	AllowUnsignedWebhooks bool

	// PublishTimeout bounds the status event publish after commit.
	PublishTimeout time.Duration
}

type paymentService struct {
	payments  repository.PaymentRepository
	orders    repository.OrderRepository
	gateways  *provider.Registry
	guard     dedupe.Guard
	publisher events.Publisher
	validator *validator.PaymentValidator
	log       *logger.Logger
	opts      Options
	now       func() time.Time
}

func NewPaymentService(
	payments repository.PaymentRepository,
	orders repository.OrderRepository,
	gateways *provider.Registry,
	guard dedupe.Guard,
	publisher events.Publisher,
	validator *validator.PaymentValidator,
	log *logger.Logger,
	opts Options,
) PaymentService {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	if opts.PublishTimeout <= 0 {
		opts.PublishTimeout = defaultPublishTimeout
	}
	return &paymentService{
		payments:  payments,
		orders:    orders,
		gateways:  gateways,
		guard:     guard,
		publisher: publisher,
		validator: validator,
		log:       log,
		opts:      opts,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// transition is a status change ready to be persisted and published.
type transition struct {
	payment        *model.Payment
	status         model.PaymentStatus
	providerStatus string
	source         string
	reported       *provider.Payment
	paymentKey     string
	tid            string
}

func (s *paymentService) HandleWebhook(ctx context.Context, req *model.WebhookRequest, rawBody []byte, header http.Header) (*model.WebhookResult, error) {
	requestID := middleware.RequestIDFromContext(ctx)

	if err := s.validateWebhook(req); err != nil {
		return nil, err
	}

	gateway, ok := s.gateways.Get(req.Provider)
	if !ok {
		s.log.Warn("Webhook for unsupported provider", "request_id", requestID, "provider", req.Provider)
		return nil, paymentserrors.UnsupportedProvider(req.Provider)
	}

	if !gateway.VerifySignature(rawBody, header) {
		if !s.opts.AllowUnsignedWebhooks {
			s.log.Warn("Webhook signature verification failed",
				"request_id", requestID,
				"provider", gateway.Name(),
				"order_id", req.OrderID,
			)
			return nil, paymentserrors.InvalidSignature(string(gateway.Name()))
		}
		s.log.Warn("Webhook signature verification failed, continuing in development",
			"request_id", requestID,
			"provider", gateway.Name(),
			"order_id", req.OrderID,
		)
	}

	payment, err := s.loadByOrderID(ctx, req.OrderID)
	if err != nil {
		return nil, err
	}
	if payment.Provider != gateway.Name() {
		return nil, paymentserrors.ProviderMismatch(string(gateway.Name()), string(payment.Provider))
	}

	providerStatus := req.Status
	var reported *provider.Payment
	var claimedKeys []string
	release := func() {
		for _, k := range claimedKeys {
			if releaseErr := s.guard.Release(context.WithoutCancel(ctx), k); releaseErr != nil {
				s.log.Error("Failed to release duplicate guard", "request_id", requestID, "key", k, "error", releaseErr)
			}
		}
	}

	if providerStatus == "" {
		if req.PgToken != "" {
			// Approval is single use at the provider: a replayed or concurrent
			// callback must not reach it again.
			if !awaitingApproval(payment.Status) {
				s.log.Info("Approval callback for a settled payment, skipping",
					"request_id", requestID,
					"payment_id", payment.ID,
					"status", payment.Status,
				)
				return duplicateResult(payment), nil
			}
			approval := approvalKey(gateway.Name(), req.OrderID, req.PgToken)
			claimed, err := s.claim(ctx, approval)
			if !claimed {
				return duplicateResult(payment), nil
			}
			if err == nil {
				claimedKeys = append(claimedKeys, approval)
			}
		}

		reported, err = gateway.ResolveStatus(ctx, req, payment)
		if err != nil {
			release()
			s.log.Warn("Failed to resolve payment status",
				"request_id", requestID,
				"provider", gateway.Name(),
				"order_id", req.OrderID,
				"error", err,
			)
			return nil, err
		}
		providerStatus = reported.Status

		if err := s.checkReportedAmount(payment, reported); err != nil {
			s.log.Error("Provider reported a different amount",
				"request_id", requestID,
				"order_id", req.OrderID,
				"expected", payment.Amount.String(),
				"actual", reported.TotalAmount.String(),
			)
			release()
			return nil, err
		}
	}

	status := gateway.MapStatus(providerStatus)

	if payment.Status == status {
		s.log.Info("Webhook carries the stored status, skipping",
			"request_id", requestID,
			"payment_id", payment.ID,
			"status", status,
		)
		return duplicateResult(payment), nil
	}

	key := dedupeKey(gateway.Name(), req, payment, providerStatus)
	claimed, err := s.claim(ctx, key)
	if !claimed {
		return duplicateResult(payment), nil
	}
	if err == nil {
		claimedKeys = append(claimedKeys, key)
	}

	t := &transition{
		payment:        payment,
		status:         status,
		providerStatus: providerStatus,
		source:         model.SourceWebhook,
		reported:       reported,
		paymentKey:     req.PaymentKey,
		tid:            req.TID,
	}
	if err := s.apply(ctx, t); err != nil {
		release()
		s.log.Error("Failed to apply webhook",
			"request_id", requestID,
			"payment_id", payment.ID,
			"order_id", payment.OrderID,
			"status", status,
			"error", err,
		)
		return nil, err
	}

	s.log.Info("Webhook processed",
		"request_id", requestID,
		"payment_id", payment.ID,
		"order_id", payment.OrderID,
		"provider", gateway.Name(),
		"provider_status", providerStatus,
		"status", status,
	)

	return &model.WebhookResult{
		PaymentID: payment.ID,
		OrderID:   payment.OrderID,
		Status:    status,
	}, nil
}

// claim reports whether the caller may proceed. A guard error fails open
// because the transaction is safe to repeat; the error is returned so the
// caller knows there is nothing to release.
func (s *paymentService) claim(ctx context.Context, key string) (bool, error) {
	requestID := middleware.RequestIDFromContext(ctx)
	claimed, err := s.guard.Claim(ctx, key)
	if err != nil {
		s.log.Error("Duplicate guard unavailable", "request_id", requestID, "key", key, "error", err)
		return true, err
	}
	if !claimed {
		s.log.Info("Duplicate webhook ignored", "request_id", requestID, "key", key)
	}
	return claimed, nil
}

func (s *paymentService) validateWebhook(req *model.WebhookRequest) error {
	if err := s.validator.ValidateWebhook(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return paymentserrors.InvalidRequest("필수 항목이 누락되었거나 올바르지 않습니다").WithDetails(verrs.Details())
		}
		return paymentserrors.InvalidRequest(err.Error())
	}
	return nil
}

// apply persists the transition on the payment and its order in one transaction,
// then publishes the change. Publishing never fails the call.
func (s *paymentService) apply(ctx context.Context, t *transition) error {
	now := s.now()
	update := &model.PaymentUpdate{
		Status:     t.status,
		PaymentKey: t.paymentKey,
		TID:        t.tid,
		Change: model.StatusChange{
			Status:         t.status,
			ProviderStatus: t.providerStatus,
			Source:         t.source,
			At:             now,
		},
		FromHook: t.source == model.SourceWebhook,
	}
	if t.reported != nil {
		if update.PaymentKey == "" {
			update.PaymentKey = t.reported.PaymentKey
		}
		if update.TID == "" {
			update.TID = t.reported.TID
		}
		update.Method = t.reported.Method
		update.ApprovedAt = t.reported.ApprovedAt
	}

	orderStatus := model.OrderStatusFor(t.status)
	payment := t.payment

	err := s.payments.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if err := s.payments.ApplyUpdate(sessCtx, payment.ID, update); err != nil {
			return err
		}
		if err := s.orders.UpdatePaymentStatus(sessCtx, payment.OrderID, orderStatus, payment.ID); err != nil {
			if errors.Is(err, paymentserrors.ErrOrderNotFound) {
				return paymentserrors.OrderNotFound(payment.OrderID)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}

	event := events.StatusChanged{
		PaymentID:      payment.ID,
		OrderID:        payment.OrderID,
		Provider:       payment.Provider,
		Status:         t.status,
		PreviousStatus: payment.Status,
		OrderStatus:    orderStatus,
		ProviderStatus: t.providerStatus,
		Source:         t.source,
		Amount:         payment.Amount.String(),
		OccurredAt:     now,
	}
	requestID := middleware.RequestIDFromContext(ctx)
	publishCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.PublishTimeout)
	defer cancel()
	if err := s.publisher.PublishStatusChanged(publishCtx, event, requestID); err != nil {
		s.log.Error("Failed to publish payment status event",
			"request_id", requestID,
			"payment_id", payment.ID,
			"status", t.status,
			"error", err,
		)
	}

	return nil
}

// checkReportedAmount treats a missing provider total as a mismatch.
func (s *paymentService) checkReportedAmount(payment *model.Payment, reported *provider.Payment) error {
	if reported.TotalAmount.Equal(payment.Amount) {
		return nil
	}
	return paymentserrors.AmountMismatch(payment.Amount.String(), reported.TotalAmount.String())
}

func (s *paymentService) VerifyPayment(ctx context.Context, paymentID string) (*model.VerificationResult, error) {
	payment, err := s.GetByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}

	gateway, ok := s.gateways.Get(string(payment.Provider))
	if !ok {
		return nil, paymentserrors.UnsupportedProvider(string(payment.Provider))
	}

	result := &model.VerificationResult{
		PaymentID:      payment.ID,
		OrderID:        payment.OrderID,
		ExpectedAmount: payment.Amount,
	}

	reported, err := gateway.Lookup(ctx, payment)
	if err != nil {
		if errors.Is(err, paymentserrors.ErrStatusUnresolved) {
			result.Reason = model.ReasonMissingReference
			return result, nil
		}
		s.log.Error("Failed to query provider for verification",
			"request_id", middleware.RequestIDFromContext(ctx),
			"payment_id", payment.ID,
			"provider", payment.Provider,
			"error", err,
		)
		return nil, err
	}

	result.ActualAmount = reported.TotalAmount
	result.ProviderStatus = reported.Status
	result.Status = gateway.MapStatus(reported.Status)

	switch {
	case !reported.TotalAmount.Equal(payment.Amount):
		result.Reason = model.ReasonAmountMismatch
	case result.Status != model.PaymentCompleted:
		result.Reason = model.ReasonStatusMismatch
	default:
		result.IsValid = true
	}

	if !result.IsValid {
		s.log.Warn("Payment verification failed",
			"payment_id", payment.ID,
			"order_id", payment.OrderID,
			"reason", result.Reason,
			"expected", payment.Amount.String(),
			"actual", reported.TotalAmount.String(),
			"provider_status", reported.Status,
		)
	}

	return result, nil
}

func (s *paymentService) ConfirmToss(ctx context.Context, req *model.ConfirmRequest) (*model.WebhookResult, error) {
	requestID := middleware.RequestIDFromContext(ctx)

	if err := s.validator.ValidateConfirm(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return nil, paymentserrors.InvalidRequest("필수 항목이 누락되었거나 올바르지 않습니다").WithDetails(verrs.Details())
		}
		return nil, paymentserrors.InvalidRequest(err.Error())
	}

	gateway, ok := s.gateways.Get(string(model.ProviderToss))
	if !ok {
		return nil, paymentserrors.UnsupportedProvider(string(model.ProviderToss))
	}
	confirmer, ok := gateway.(provider.Confirmer)
	if !ok {
		return nil, paymentserrors.UnsupportedProvider(string(model.ProviderToss))
	}

	payment, err := s.loadByOrderID(ctx, req.OrderID)
	if err != nil {
		return nil, err
	}
	if payment.Provider != model.ProviderToss {
		return nil, paymentserrors.ProviderMismatch(string(model.ProviderToss), string(payment.Provider))
	}
	if !req.Amount.Equal(payment.Amount) {
		s.log.Warn("Confirm amount does not match stored payment",
			"request_id", requestID,
			"order_id", req.OrderID,
			"expected", payment.Amount.String(),
			"actual", req.Amount.String(),
		)
		return nil, paymentserrors.AmountMismatch(payment.Amount.String(), req.Amount.String())
	}
	if payment.Status == model.PaymentCompleted && payment.PaymentKey == req.PaymentKey {
		return duplicateResult(payment), nil
	}

	reported, err := confirmer.Confirm(ctx, req.PaymentKey, req.OrderID, req.Amount)
	if err != nil {
		s.log.Error("Toss confirm failed", "request_id", requestID, "order_id", req.OrderID, "error", err)
		return nil, err
	}
	if err := s.checkReportedAmount(payment, reported); err != nil {
		return nil, err
	}

	status := gateway.MapStatus(reported.Status)
	t := &transition{
		payment:        payment,
		status:         status,
		providerStatus: reported.Status,
		source:         model.SourceConfirm,
		reported:       reported,
		paymentKey:     req.PaymentKey,
	}
	if err := s.apply(ctx, t); err != nil {
		s.log.Error("Failed to record confirmed payment",
			"request_id", requestID,
			"payment_id", payment.ID,
			"error", err,
		)
		return nil, err
	}

	s.log.Info("Toss payment confirmed",
		"request_id", requestID,
		"payment_id", payment.ID,
		"order_id", payment.OrderID,
		"status", status,
	)

	return &model.WebhookResult{
		PaymentID: payment.ID,
		OrderID:   payment.OrderID,
		Status:    status,
	}, nil
}

func (s *paymentService) GetByID(ctx context.Context, id string) (*model.Payment, error) {
	if id == "" {
		return nil, paymentserrors.InvalidRequest("결제 ID가 필요합니다")
	}

	payment, err := s.payments.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, paymentserrors.ErrPaymentNotFound) {
			return nil, paymentserrors.PaymentNotFoundByID(id)
		}
		s.log.Error("Failed to get payment by ID", "id", id, "error", err)
		return nil, err
	}
	return payment, nil
}

func (s *paymentService) GetByOrderID(ctx context.Context, orderID string) (*model.Payment, error) {
	if orderID == "" {
		return nil, paymentserrors.InvalidRequest("주문 ID가 필요합니다")
	}
	return s.loadByOrderID(ctx, orderID)
}

func (s *paymentService) loadByOrderID(ctx context.Context, orderID string) (*model.Payment, error) {
	payment, err := s.payments.FindByOrderID(ctx, orderID)
	if err != nil {
		if errors.Is(err, paymentserrors.ErrPaymentNotFound) {
			return nil, paymentserrors.PaymentNotFound(orderID)
		}
		s.log.Error("Failed to get payment by order ID", "order_id", orderID, "error", err)
		return nil, err
	}
	return payment, nil
}

// dedupeKey identifies one provider notification:
// webhook:{provider}:{orderId}:{paymentKey|tid}:{providerStatus}.
func dedupeKey(p model.Provider, req *model.WebhookRequest, payment *model.Payment, providerStatus string) string {
	ref := req.PaymentKey
	if ref == "" {
		ref = req.TID
	}
	if ref == "" {
		ref = payment.PaymentKey
	}
	if ref == "" {
		ref = payment.TID
	}
	return fmt.Sprintf("webhook:%s:%s:%s:%s", p, req.OrderID, ref, providerStatus)
}

func approvalKey(p model.Provider, orderID, pgToken string) string {
	return fmt.Sprintf("webhook:%s:%s:approve:%s", p, orderID, pgToken)
}

// awaitingApproval reports whether a provider approval can still follow.
func awaitingApproval(status model.PaymentStatus) bool {
	return status == model.PaymentReady || status == model.PaymentInProgress
}

func duplicateResult(payment *model.Payment) *model.WebhookResult {
	return &model.WebhookResult{
		PaymentID: payment.ID,
		OrderID:   payment.OrderID,
		Status:    payment.Status,
		Duplicate: true,
	}
}
