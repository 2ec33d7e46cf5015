package server

import (
	"encoding/json"
	"net/http"

	"github.com/koustreak/dbagent/internal/errs"
)

// envelope is the body of every failed action.
type envelope struct {
	Error  string `json:"error"`
	Kind   string `json:"kind"`
	Action string `json:"action"`
}

// statusFor maps an error kind to an HTTP status.
func statusFor(kind errs.ErrKind) int {
	switch kind {
	case errs.ErrKindInvalidInput, errs.ErrKindUnknownAction,
		errs.ErrKindUnsafeIdentifier, errs.ErrKindMissingColumn:
		return http.StatusBadRequest
	case errs.ErrKindUnsupportedBackend, errs.ErrKindUnsupported:
		return http.StatusUnprocessableEntity
	case errs.ErrKindPermissionDenied:
		return http.StatusForbidden
	case errs.ErrKindNotFound:
		return http.StatusNotFound
	case errs.ErrKindTimeout:
		return http.StatusGatewayTimeout
	case errs.ErrKindQueryFailed, errs.ErrKindConnectionFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, action string, err error) {
	kind := errs.KindOf(err)
	writeEnvelope(w, statusFor(kind), action, kind.String(), err.Error())
}

func writeEnvelope(w http.ResponseWriter, status int, action, kind, msg string) {
	body, _ := json.Marshal(envelope{Error: msg, Kind: kind, Action: action})
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_, _ = w.Write(body)
	_, _ = w.Write([]byte("\n"))
}
