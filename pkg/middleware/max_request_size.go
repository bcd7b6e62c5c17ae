package middleware

import "net/http"

// MaxRequestSize caps request bodies; reads beyond the limit fail with
// *http.MaxBytesError.
func MaxRequestSize(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > limit {
				writeRejection(w, http.StatusRequestEntityTooLarge, "INVALID_REQUEST", "Request body too large")
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, limit)
			next.ServeHTTP(w, r)
		})
	}
}
