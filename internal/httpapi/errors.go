package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/taskbay/taskbay/internal/auth"
	"github.com/taskbay/taskbay/internal/market"
)

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// mapping translates a taxonomy error into an HTTP status and stable code.
type mapping struct {
	err    error
	status int
	code   string
}

var errorMappings = []mapping{
	{market.ErrInvalidInput, http.StatusBadRequest, "invalid_input"},
	{market.ErrEscrowMismatch, http.StatusBadRequest, "escrow_mismatch"},
	{market.ErrUnauthorized, http.StatusForbidden, "unauthorized"},
	{market.ErrNotFound, http.StatusNotFound, "not_found"},
	{market.ErrNotRegistered, http.StatusNotFound, "not_registered"},
	{market.ErrAlreadyRegistered, http.StatusConflict, "already_registered"},
	{market.ErrAlreadyAssigned, http.StatusConflict, "already_assigned"},
	{market.ErrAlreadyCompleted, http.StatusConflict, "already_completed"},
	{market.ErrAlreadyRated, http.StatusConflict, "already_rated"},
	{market.ErrAlreadyPaid, http.StatusConflict, "already_paid"},
	{market.ErrDisputed, http.StatusConflict, "disputed"},
	{market.ErrSelfApplication, http.StatusConflict, "self_application"},
	{market.ErrDuplicateApplication, http.StatusConflict, "duplicate_application"},
	{market.ErrNotAnApplicant, http.StatusConflict, "not_an_applicant"},
	{market.ErrNotCompleted, http.StatusConflict, "not_completed"},
	{market.ErrNotAssigned, http.StatusConflict, "not_assigned"},
	{market.ErrNotDisputed, http.StatusConflict, "not_disputed"},
	{market.ErrTransferFailed, http.StatusBadGateway, "transfer_failed"},
	{auth.ErrEmailExists, http.StatusConflict, "email_exists"},
	{auth.ErrWeakPassword, http.StatusBadRequest, "weak_password"},
	{auth.ErrInvalidCredentials, http.StatusUnauthorized, "invalid_credentials"},
}

// writeServiceError maps a core error onto the wire. Unknown errors become
// an opaque 500 so internals do not leak.
func writeServiceError(w http.ResponseWriter, err error) {
	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			writeError(w, m.status, m.code, err)
			return
		}
	}
	writeError(w, http.StatusInternalServerError, "internal", nil)
}
