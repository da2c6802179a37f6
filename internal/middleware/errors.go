package middleware

import (
	"encoding/json"
	"net/http"
)

// Error codes of rejections made before a request reaches a handler.
const (
	CodeValidation  = "validation"
	CodeCSRF        = "csrf_rejected"
	CodeRateLimited = "rate_limited"
	CodeInternal    = "internal"
)

func writeJSONError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message, "code": code})
}
