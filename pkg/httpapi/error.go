package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/atrium-hq/atrium/pkg/serrors"
)

// ErrorEnvelope standardizes JSON error responses for API namespaces.
type ErrorEnvelope struct {
	Message string            `json:"message"`
	Code    string            `json:"code"`
	Meta    map[string]string `json:"meta,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, payload any) error {
	if w == nil {
		return nil
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return nil
	}
	return json.NewEncoder(w).Encode(payload)
}

func WriteError(w http.ResponseWriter, status int, code, message string, meta map[string]string) error {
	return WriteJSON(w, status, &ErrorEnvelope{
		Code:    code,
		Message: message,
		Meta:    meta,
	})
}

// WriteDomainError maps the core error taxonomy onto HTTP statuses. Unknown
// errors become opaque 500s so repository internals never leak.
func WriteDomainError(w http.ResponseWriter, err error) error {
	code, ok := serrors.CodeOf(err)
	if !ok {
		return WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error", nil)
	}
	switch code {
	case serrors.CodeValidation:
		return WriteError(w, http.StatusBadRequest, string(code), err.Error(), nil)
	case serrors.CodeNotFound:
		return WriteError(w, http.StatusNotFound, string(code), err.Error(), nil)
	case serrors.CodeConflict:
		return WriteError(w, http.StatusConflict, string(code), err.Error(), nil)
	case serrors.CodeConsistency:
		return WriteError(w, http.StatusConflict, string(code), err.Error(), nil)
	default:
		return WriteError(w, http.StatusInternalServerError, string(code), err.Error(), nil)
	}
}
