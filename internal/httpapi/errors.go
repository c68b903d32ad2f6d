// Package httpapi implements the boot-dispatch HTTP surface (spec §6):
// GET /boot, GET /boot/pi, and GET /files/<path>, plus the JSON error
// envelope shared by all three.
package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-logr/logr"
)

// errorBody is the JSON shape every failed request returns, per spec §6's
// exit/error codes table and §7's "never leak internal stack traces or
// file paths" rule.
type errorBody struct {
	Detail string `json:"detail"`
}

// writeError writes status and a {"detail": msg} body. Validation and
// not-found errors are expected traffic and are not logged; anything that
// reaches a 500 is logged with the underlying error for operators, while
// the client only ever sees msg.
func writeError(w http.ResponseWriter, log logr.Logger, status int, msg string, cause error) {
	if status >= http.StatusInternalServerError && cause != nil {
		log.Error(cause, "boot dispatch request failed", "status", status, "detail", msg)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorBody{Detail: msg})
}
