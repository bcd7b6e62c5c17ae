package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"travelpay/pkg/model"
	"travelpay/pkg/sanitizer"

	"github.com/go-playground/validator/v10"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	return fmt.Sprintf("validation failed: %d error(s)", len(v))
}

// Details returns the errors keyed by field, as rendered in error responses.
func (v ValidationErrors) Details() map[string]any {
	details := make(map[string]any, len(v))
	for _, e := range v {
		details[e.Field] = e.Message
	}
	return details
}

type PaymentValidator struct {
	validate *validator.Validate
}

func NewPaymentValidator() *PaymentValidator {
	v := validator.New()

	// Report fields by their JSON names so details match the request body.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &PaymentValidator{
		validate: v,
	}
}

func (v *PaymentValidator) ValidateWebhook(req *model.WebhookRequest) error {
	req.Provider = sanitizer.SanitizeProvider(req.Provider)
	req.OrderID = sanitizer.SanitizeIdentifier(req.OrderID)
	req.PaymentKey = sanitizer.SanitizeIdentifier(req.PaymentKey)
	req.TID = sanitizer.SanitizeIdentifier(req.TID)
	req.PgToken = sanitizer.SanitizeIdentifier(req.PgToken)
	req.Status = sanitizer.SanitizeProviderStatus(req.Status)
	return v.validateStruct(req)
}

func (v *PaymentValidator) ValidateConfirm(req *model.ConfirmRequest) error {
	req.PaymentKey = sanitizer.SanitizeIdentifier(req.PaymentKey)
	req.OrderID = sanitizer.SanitizeIdentifier(req.OrderID)

	if err := v.validateStruct(req); err != nil {
		return err
	}

	// decimal.Decimal is a struct, so the amount rule lives here rather than in a tag.
	if !req.Amount.IsPositive() {
		return ValidationErrors{{Field: "amount", Message: "must be greater than 0"}}
	}
	return nil
}

func (v *PaymentValidator) validateStruct(s any) error {
	if err := v.validate.Struct(s); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return translateValidationErrors(validationErrs)
		}
		return err
	}
	return nil
}

func translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: messageFor(err),
		})
	}

	return validationErrors
}

func messageFor(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return "is required"
	case "max":
		return fmt.Sprintf("must be at most %s characters", err.Param())
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", err.Param())
	default:
		return fmt.Sprintf("failed on %s", err.Tag())
	}
}
