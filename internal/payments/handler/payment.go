package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/julienschmidt/httprouter"

	paymentserrors "travelpay/internal/payments/errors"
	"travelpay/internal/payments/service"
	httputil "travelpay/pkg/http"
	"travelpay/pkg/logger"
	"travelpay/pkg/middleware"
	"travelpay/pkg/model"
)

const (
	MessageWebhookProcessed = "웹훅 처리 완료"
	MessageWebhookDuplicate = "이미 처리된 웹훅입니다"
	MessagePaymentConfirmed = "결제 승인 완료"
)

type PaymentHandler struct {
	service service.PaymentService
	log     *logger.Logger
}

func NewPaymentHandler(service service.PaymentService, log *logger.Logger) *PaymentHandler {
	return &PaymentHandler{
		service: service,
		log:     log,
	}
}

func (h *PaymentHandler) Webhook(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	rawBody, ok := h.readBody(w, r, "Webhook")
	if !ok {
		return
	}

	var req model.WebhookRequest
	if err := json.Unmarshal(rawBody, &req); err != nil {
		h.writeError(w, r, "Webhook", paymentserrors.InvalidRequest("잘못된 요청 형식입니다"))
		return
	}

	result, err := h.service.HandleWebhook(r.Context(), &req, rawBody, r.Header)
	if err != nil {
		h.writeError(w, r, "Webhook", err)
		return
	}

	h.writeResult(w, "Webhook", result, MessageWebhookProcessed)
}

func (h *PaymentHandler) ConfirmToss(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	rawBody, ok := h.readBody(w, r, "ConfirmToss")
	if !ok {
		return
	}

	var req model.ConfirmRequest
	if err := json.Unmarshal(rawBody, &req); err != nil {
		h.writeError(w, r, "ConfirmToss", paymentserrors.InvalidRequest("잘못된 요청 형식입니다"))
		return
	}

	result, err := h.service.ConfirmToss(r.Context(), &req)
	if err != nil {
		h.writeError(w, r, "ConfirmToss", err)
		return
	}

	h.writeResult(w, "ConfirmToss", result, MessagePaymentConfirmed)
}

func (h *PaymentHandler) Verify(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	result, err := h.service.VerifyPayment(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, r, "Verify", err)
		return
	}

	if err := httputil.WriteSuccess(w, result); err != nil {
		h.log.Error("failed to write success response", "handler", "Verify", "operation", "WriteSuccess", "error", err)
	}
}

func (h *PaymentHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	payment, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, r, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, payment); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *PaymentHandler) GetByOrderID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	payment, err := h.service.GetByOrderID(r.Context(), ps.ByName("orderId"))
	if err != nil {
		h.writeError(w, r, "GetByOrderID", err)
		return
	}

	if err := httputil.WriteSuccess(w, payment); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByOrderID", "operation", "WriteSuccess", "error", err)
	}
}

// readBody keeps the raw bytes because the Toss signature is computed over them.
func (h *PaymentHandler) readBody(w http.ResponseWriter, r *http.Request, handler string) ([]byte, bool) {
	rawBody, err := io.ReadAll(r.Body)
	if err == nil {
		return rawBody, true
	}

	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		h.writeError(w, r, handler, paymentserrors.InvalidRequest("요청 본문이 너무 큽니다").
			WithDetail("limit", maxErr.Limit))
		return nil, false
	}

	h.writeError(w, r, handler, paymentserrors.InvalidRequest("요청 본문을 읽을 수 없습니다"))
	return nil, false
}

func (h *PaymentHandler) writeResult(w http.ResponseWriter, handler string, result *model.WebhookResult, message string) {
	if result.Duplicate {
		message = MessageWebhookDuplicate
	}

	if err := httputil.WriteJSON(w, http.StatusOK, model.WebhookResponse{
		Success:   true,
		Message:   message,
		PaymentID: result.PaymentID,
		OrderID:   result.OrderID,
		Status:    result.Status,
	}); err != nil {
		h.log.Error("failed to write JSON response", "handler", handler, "operation", "WriteJSON", "error", err)
	}
}

func (h *PaymentHandler) writeError(w http.ResponseWriter, r *http.Request, handler string, err error) {
	appErr := paymentserrors.Classify(err)
	if appErr.StatusCode() >= http.StatusInternalServerError {
		h.log.Error("Payment request failed",
			"handler", handler,
			"request_id", middleware.RequestIDFromContext(r.Context()),
			"code", appErr.Code,
			"error", err,
		)
	}

	if writeErr := httputil.WriteError(w, appErr); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}
