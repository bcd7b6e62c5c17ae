package middleware

import (
	"net/http"

	apperrors "travelpay/pkg/errors"
	httputil "travelpay/pkg/http"
)

// writeRejection renders middleware failures in the same envelope as handler errors.
func writeRejection(w http.ResponseWriter, status int, code, message string) {
	_ = httputil.WriteError(w, apperrors.New(code, message, status))
}
