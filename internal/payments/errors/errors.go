package errors

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	apperrors "travelpay/pkg/errors"

	"go.mongodb.org/mongo-driver/mongo"
)

var (
	ErrPaymentNotFound = errors.New("payment not found")

	ErrOrderNotFound = errors.New("order not found")

	ErrInvalidSignature = errors.New("invalid webhook signature")

	ErrUnsupportedProvider = errors.New("unsupported payment provider")

	ErrAmountMismatch = errors.New("payment amount mismatch")

	ErrStatusUnresolved = errors.New("payment status could not be determined")

	ErrProviderRejected = errors.New("payment provider rejected request")
)

// PaymentErrorCode values are part of the response contract consumed by the storefront.
const (
	CodeInvalidRequest      = "INVALID_REQUEST"
	CodeUnsupportedProvider = "UNSUPPORTED_PROVIDER"
	CodeInvalidSignature    = "INVALID_SIGNATURE"
	CodePaymentNotFound     = "PAYMENT_NOT_FOUND"
	CodeOrderNotFound       = "ORDER_NOT_FOUND"
	CodeAmountMismatch      = "AMOUNT_MISMATCH"
	CodeProviderError       = "PROVIDER_ERROR"
	CodeNetworkError        = "NETWORK_ERROR"
	CodeTimeout             = apperrors.CodeTimeout
	CodeDatabaseError       = "DATABASE_ERROR"
	CodeInternalError       = apperrors.CodeInternal
)

func InvalidRequest(message string) *apperrors.AppError {
	return apperrors.New(CodeInvalidRequest, message, http.StatusBadRequest)
}

func UnsupportedProvider(provider string) *apperrors.AppError {
	return apperrors.Wrap(ErrUnsupportedProvider, CodeUnsupportedProvider,
		fmt.Sprintf("지원하지 않는 결제 제공자입니다: %s", provider), http.StatusBadRequest).
		WithDetail("provider", provider)
}

func InvalidSignature(provider string) *apperrors.AppError {
	return apperrors.Wrap(ErrInvalidSignature, CodeInvalidSignature,
		"웹훅 서명 검증에 실패했습니다", http.StatusUnauthorized).
		WithDetail("provider", provider)
}

func PaymentNotFound(orderID string) *apperrors.AppError {
	return apperrors.Wrap(ErrPaymentNotFound, CodePaymentNotFound,
		"결제 정보를 찾을 수 없습니다", http.StatusNotFound).
		WithDetail("orderId", orderID)
}

func PaymentNotFoundByID(id string) *apperrors.AppError {
	return apperrors.Wrap(ErrPaymentNotFound, CodePaymentNotFound,
		"결제 정보를 찾을 수 없습니다", http.StatusNotFound).
		WithDetail("paymentId", id)
}

func OrderNotFound(orderID string) *apperrors.AppError {
	return apperrors.Wrap(ErrOrderNotFound, CodeOrderNotFound,
		"주문 정보를 찾을 수 없습니다", http.StatusNotFound).
		WithDetail("orderId", orderID)
}

func AmountMismatch(expected, actual string) *apperrors.AppError {
	return apperrors.Wrap(ErrAmountMismatch, CodeAmountMismatch,
		"결제 금액이 일치하지 않습니다", http.StatusBadRequest).
		WithDetails(map[string]any{"expected": expected, "actual": actual})
}

func ProviderMismatch(requested, stored string) *apperrors.AppError {
	return apperrors.New(CodeInvalidRequest, "결제 제공자가 일치하지 않습니다", http.StatusBadRequest).
		WithDetails(map[string]any{"provider": requested, "paymentProvider": stored})
}

func StatusUnresolved() *apperrors.AppError {
	return apperrors.Wrap(ErrStatusUnresolved, CodeInvalidRequest,
		"결제 상태를 확인할 수 없습니다", http.StatusBadRequest)
}

// Classify maps any error produced while handling a payment request to an AppError
// carrying a PaymentErrorCode. Typed checks run first; message matching is the
// fallback for errors that arrive without a recognisable type.
func Classify(err error) *apperrors.AppError {
	if err == nil {
		return nil
	}

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return withPaymentCode(appErr)
	}

	switch {
	case errors.Is(err, ErrPaymentNotFound):
		return apperrors.Wrap(err, CodePaymentNotFound, "결제 정보를 찾을 수 없습니다", http.StatusNotFound)
	case errors.Is(err, ErrOrderNotFound):
		return apperrors.Wrap(err, CodeOrderNotFound, "주문 정보를 찾을 수 없습니다", http.StatusNotFound)
	case errors.Is(err, ErrInvalidSignature):
		return apperrors.Wrap(err, CodeInvalidSignature, "웹훅 서명 검증에 실패했습니다", http.StatusUnauthorized)
	case errors.Is(err, ErrUnsupportedProvider):
		return apperrors.Wrap(err, CodeUnsupportedProvider, "지원하지 않는 결제 제공자입니다", http.StatusBadRequest)
	case errors.Is(err, ErrAmountMismatch):
		return apperrors.Wrap(err, CodeAmountMismatch, "결제 금액이 일치하지 않습니다", http.StatusBadRequest)
	case errors.Is(err, ErrProviderRejected):
		return withPaymentCode(apperrors.BadGateway("결제 제공자 요청이 거절되었습니다", err))
	case errors.Is(err, context.DeadlineExceeded):
		return timeoutError(err)
	case isNetTimeout(err):
		return timeoutError(err)
	case isNetError(err):
		return networkError(err)
	case isMongoError(err):
		return databaseError(err)
	}

	return classifyByMessage(err)
}

func classifyByMessage(err error) *apperrors.AppError {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline exceeded"):
		return timeoutError(err)
	case strings.Contains(msg, "network") || strings.Contains(msg, "connection refused"):
		return networkError(err)
	case strings.Contains(msg, "database"):
		return databaseError(err)
	case strings.Contains(msg, "signature"):
		return apperrors.Wrap(err, CodeInvalidSignature, "웹훅 서명 검증에 실패했습니다", http.StatusUnauthorized)
	default:
		return apperrors.Internal("결제 처리 중 오류가 발생했습니다", err)
	}
}

// withPaymentCode rewrites generic AppError codes from shared packages into the
// payment vocabulary while keeping message and details.
func withPaymentCode(appErr *apperrors.AppError) *apperrors.AppError {
	var code string
	switch appErr.Code {
	case apperrors.CodeUnavailable:
		code = CodeNetworkError
	case apperrors.CodeBadGateway:
		code = CodeProviderError
	default:
		return appErr
	}
	return &apperrors.AppError{
		Code:       code,
		Message:    appErr.Message,
		HTTPStatus: appErr.HTTPStatus,
		Details:    appErr.Details,
		Err:        appErr.Err,
	}
}

func timeoutError(err error) *apperrors.AppError {
	return apperrors.Timeout("요청 시간이 초과되었습니다", err)
}

func networkError(err error) *apperrors.AppError {
	return withPaymentCode(apperrors.Unavailable("결제 제공자와 통신할 수 없습니다", err))
}

func databaseError(err error) *apperrors.AppError {
	return apperrors.Wrap(err, CodeDatabaseError, "데이터베이스 오류가 발생했습니다", http.StatusInternalServerError)
}

func isNetTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func isNetError(err error) bool {
	var netErr net.Error
	var opErr *net.OpError
	return errors.As(err, &netErr) || errors.As(err, &opErr)
}

func isMongoError(err error) bool {
	var serverErr mongo.ServerError
	var cmdErr mongo.CommandError
	var writeErr mongo.WriteException
	return errors.As(err, &serverErr) ||
		errors.As(err, &cmdErr) ||
		errors.As(err, &writeErr) ||
		mongo.IsNetworkError(err)
}
