package points_test

import (
	"errors"
	"fmt"
	"testing"

	points "github.com/xraph/points"
	"github.com/xraph/points/types"
)

func TestTypedErrorsMatchSentinels(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
		reason   string
	}{
		{"already member", &points.AlreadyMemberError{Account: alice}, points.ErrAlreadyMember, "already_member"},
		{"not owner", &points.NotOwnerError{Caller: alice}, points.ErrNotOwner, "not_owner"},
		{"banned", &points.AccountBannedError{Account: alice}, points.ErrAccountBanned, "account_banned"},
		{"insufficient", &points.InsufficientPointsError{Balance: amt(1), Requested: amt(2)}, points.ErrInsufficientPoints, "insufficient_points"},
		{"not member", &points.NotMemberError{Account: alice}, points.ErrNotMember, "not_member"},
		{"invalid reward", &points.InvalidRewardError{Index: 9}, points.ErrInvalidReward, "invalid_reward"},
		{"validation", points.ValidationError{Field: "caller", Message: "zero address"}, points.ErrInvalidInput, "invalid_input"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := fmt.Errorf("outer: %w", tt.err)
			if !errors.Is(wrapped, tt.sentinel) {
				t.Errorf("errors.Is(%v, %v) = false", wrapped, tt.sentinel)
			}
			if !points.IsPreconditionFailure(wrapped) {
				t.Error("IsPreconditionFailure = false")
			}
			if points.IsRetryable(wrapped) {
				t.Error("IsRetryable = true")
			}
			if got := points.Reason(wrapped); got != tt.reason {
				t.Errorf("Reason = %q, want %q", got, tt.reason)
			}
		})
	}
}

func TestTypedErrorsCarryData(t *testing.T) {
	err := fmt.Errorf("redeem: %w", &points.InsufficientPointsError{
		Balance:   types.NewAmount(0),
		Requested: types.NewAmount(1000),
	})

	var insufficient *points.InsufficientPointsError
	if !errors.As(err, &insufficient) {
		t.Fatal("errors.As failed")
	}
	if !insufficient.Balance.IsZero() || insufficient.Requested.String() != "1000" {
		t.Errorf("got (%s, %s), want (0, 1000)", insufficient.Balance, insufficient.Requested)
	}
	if want := "points: insufficient points: balance 0, requested 1000"; insufficient.Error() != want {
		t.Errorf("Error() = %q, want %q", insufficient.Error(), want)
	}
}

func TestStoreErrorsAreRetryable(t *testing.T) {
	tests := []struct {
		err       error
		retryable bool
		reason    string
	}{
		{points.ErrSequenceConflict, true, "sequence_conflict"},
		{points.ErrTransactionFailed, true, "transaction_failed"},
		{points.ErrStoreNotReady, true, "store_not_ready"},
		{points.ErrStoreClosed, false, "store_closed"},
		{errors.New("boom"), false, "internal"},
	}

	for _, tt := range tests {
		t.Run(tt.reason, func(t *testing.T) {
			if points.IsPreconditionFailure(tt.err) {
				t.Error("store error classified as precondition failure")
			}
			if got := points.IsRetryable(tt.err); got != tt.retryable {
				t.Errorf("IsRetryable = %v, want %v", got, tt.retryable)
			}
			if got := points.Reason(tt.err); got != tt.reason {
				t.Errorf("Reason = %q, want %q", got, tt.reason)
			}
		})
	}

	if points.Reason(nil) != "" {
		t.Error("Reason(nil) must be empty")
	}
}
