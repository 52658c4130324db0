package api

import (
	"encoding/json"
	"errors"
	"net/http"

	points "github.com/xraph/points"
)

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Account   string `json:"account,omitempty"`
	Balance   string `json:"balance,omitempty"`
	Requested string `json:"requested,omitempty"`
	Index     *int   `json:"index,omitempty"`
}

// statusFor maps a ledger error onto an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, points.ErrAlreadyMember):
		return http.StatusConflict
	case errors.Is(err, points.ErrNotOwner),
		errors.Is(err, points.ErrAccountBanned),
		errors.Is(err, points.ErrNotMember):
		return http.StatusForbidden
	case errors.Is(err, points.ErrInsufficientPoints),
		errors.Is(err, points.ErrAmountOverflow):
		return http.StatusUnprocessableEntity
	case errors.Is(err, points.ErrInvalidReward):
		return http.StatusNotFound
	case errors.Is(err, points.ErrInvalidInput), errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case points.IsRetryable(err), errors.Is(err, points.ErrStoreClosed):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	detail := errorDetail{Code: codeFor(err), Message: err.Error()}

	var (
		banned       *points.AccountBannedError
		notMember    *points.NotMemberError
		already      *points.AlreadyMemberError
		notOwner     *points.NotOwnerError
		insufficient *points.InsufficientPointsError
		invalid      *points.InvalidRewardError
	)
	switch {
	case errors.As(err, &insufficient):
		detail.Balance = insufficient.Balance.String()
		detail.Requested = insufficient.Requested.String()
	case errors.As(err, &banned):
		detail.Account = banned.Account.Hex()
	case errors.As(err, &notMember):
		detail.Account = notMember.Account.Hex()
	case errors.As(err, &already):
		detail.Account = already.Account.Hex()
	case errors.As(err, &notOwner):
		detail.Account = notOwner.Caller.Hex()
	case errors.As(err, &invalid):
		idx := invalid.Index
		detail.Index = &idx
	}

	if status >= http.StatusInternalServerError {
		h.logger.Error("api: request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
		detail.Message = http.StatusText(status)
	}
	writeJSON(w, status, errorBody{Error: detail})
}

func codeFor(err error) string {
	switch {
	case errors.Is(err, ErrUnauthenticated):
		return "unauthenticated"
	case errors.Is(err, errBadRequest):
		return "invalid_input"
	default:
		return points.Reason(err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
