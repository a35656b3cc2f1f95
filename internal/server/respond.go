package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	vererrors "github.com/mkviewer/mkviewer/internal/errors"
)

// errorBody is the JSON error envelope.
type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Key     string `json:"key,omitempty"`
}

// writeJSON writes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("response_encode_failed", slog.String("error", err.Error()))
	}
}

// writeError maps a typed error to an HTTP status and envelope.
func writeError(w http.ResponseWriter, err error) {
	code := vererrors.CodeOf(err)
	detail := errorDetail{Code: code, Message: err.Error()}

	var verr *vererrors.ViewerError
	if vererrors.As(err, &verr) {
		detail.Message = verr.Message
		detail.Key = verr.Key
	}
	if detail.Code == "" {
		detail.Code = "ERR_INTERNAL"
	}

	writeJSON(w, statusFor(code), errorBody{Error: detail})
}

// statusFor maps error codes to HTTP statuses. Unavailable backends are
// 503 so load balancers treat them as transient.
func statusFor(code string) int {
	switch code {
	case vererrors.ErrCodeUnknownKey, vererrors.ErrCodeObjectNotFound:
		return http.StatusNotFound
	case vererrors.ErrCodeInvalidInput, vererrors.ErrCodeUnsupportedType:
		return http.StatusUnprocessableEntity
	case vererrors.ErrCodeSyncInProgress:
		return http.StatusConflict
	case vererrors.ErrCodeStoreUnavailable, vererrors.ErrCodeStoreTimeout,
		vererrors.ErrCodeCatalogUnavailable,
		vererrors.ErrCodeIndexUnavailable, vererrors.ErrCodeIndexTimeout,
		vererrors.ErrCodeSearchUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
