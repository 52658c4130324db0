package points

import (
	"errors"
	"fmt"

	"github.com/xraph/points/types"
)

// Sentinel errors for common failure scenarios.
var (
	// General errors
	ErrInvalidInput = errors.New("points: invalid input")

	// Precondition errors. Each is matched by its typed error below.
	ErrAlreadyMember      = errors.New("points: already a member")
	ErrNotOwner           = errors.New("points: caller is not the owner")
	ErrAccountBanned      = errors.New("points: account banned")
	ErrInsufficientPoints = errors.New("points: insufficient points")
	ErrNotMember          = errors.New("points: not a member")
	ErrInvalidReward      = errors.New("points: invalid reward index")
	ErrAmountOverflow     = errors.New("points: amount overflow")

	// Store errors
	ErrStoreNotReady     = errors.New("points: store not ready")
	ErrStoreClosed       = errors.New("points: store is closed")
	ErrTransactionFailed = errors.New("points: transaction failed")
	ErrMigrationFailed   = errors.New("points: migration failed")
	ErrSequenceConflict  = errors.New("points: event sequence conflict")
)

// AlreadyMemberError is returned when an identity joins twice.
type AlreadyMemberError struct {
	Account types.Address
}

func (e *AlreadyMemberError) Error() string {
	return fmt.Sprintf("points: already a member: %s", e.Account.Hex())
}

// Is matches ErrAlreadyMember.
func (e *AlreadyMemberError) Is(target error) bool { return target == ErrAlreadyMember }

// NotOwnerError is returned when a non-owner attempts an owner-only operation.
type NotOwnerError struct {
	Caller types.Address
}

func (e *NotOwnerError) Error() string {
	return fmt.Sprintf("points: caller is not the owner: %s", e.Caller.Hex())
}

// Is matches ErrNotOwner.
func (e *NotOwnerError) Is(target error) bool { return target == ErrNotOwner }

// AccountBannedError is returned when a banned identity attempts a mutating
// operation or sends value.
type AccountBannedError struct {
	Account types.Address
}

func (e *AccountBannedError) Error() string {
	return fmt.Sprintf("points: account banned: %s", e.Account.Hex())
}

// Is matches ErrAccountBanned.
func (e *AccountBannedError) Is(target error) bool { return target == ErrAccountBanned }

// InsufficientPointsError is returned when a debit exceeds the balance.
// Balance is the balance at the time of the attempt; Requested is the
// amount (or reward cost) that was asked for.
type InsufficientPointsError struct {
	Balance   types.Amount
	Requested types.Amount
}

func (e *InsufficientPointsError) Error() string {
	return fmt.Sprintf("points: insufficient points: balance %s, requested %s", e.Balance, e.Requested)
}

// Is matches ErrInsufficientPoints.
func (e *InsufficientPointsError) Is(target error) bool { return target == ErrInsufficientPoints }

// NotMemberError is returned when an operation requires membership of an
// identity that has not joined.
type NotMemberError struct {
	Account types.Address
}

func (e *NotMemberError) Error() string {
	return fmt.Sprintf("points: not a member: %s", e.Account.Hex())
}

// Is matches ErrNotMember.
func (e *NotMemberError) Is(target error) bool { return target == ErrNotMember }

// InvalidRewardError is returned for a reward index outside the tier table.
type InvalidRewardError struct {
	Index int
}

func (e *InvalidRewardError) Error() string {
	return fmt.Sprintf("points: invalid reward index: %d", e.Index)
}

// Is matches ErrInvalidReward.
func (e *InvalidRewardError) Is(target error) bool { return target == ErrInvalidReward }

// ValidationError represents a validation failure with details.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("points: validation failed for %s: %s", e.Field, e.Message)
}

// Is matches ErrInvalidInput.
func (e ValidationError) Is(target error) bool { return target == ErrInvalidInput }

// IsPreconditionFailure returns true if err is a rejection of the
// requested operation by the ledger's rules, as opposed to a store failure.
func IsPreconditionFailure(err error) bool {
	return errors.Is(err, ErrAlreadyMember) ||
		errors.Is(err, ErrNotOwner) ||
		errors.Is(err, ErrAccountBanned) ||
		errors.Is(err, ErrInsufficientPoints) ||
		errors.Is(err, ErrNotMember) ||
		errors.Is(err, ErrInvalidReward) ||
		errors.Is(err, ErrAmountOverflow) ||
		errors.Is(err, ErrInvalidInput)
}

// IsRetryable returns true if the error is temporary and the operation can be retried.
// Precondition failures are never retryable.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStoreNotReady) ||
		errors.Is(err, ErrTransactionFailed) ||
		errors.Is(err, ErrSequenceConflict)
}

// Reason returns a short, stable label for err, suitable for metrics and
// audit records. Unknown errors map to "internal".
func Reason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrAlreadyMember):
		return "already_member"
	case errors.Is(err, ErrNotOwner):
		return "not_owner"
	case errors.Is(err, ErrAccountBanned):
		return "account_banned"
	case errors.Is(err, ErrInsufficientPoints):
		return "insufficient_points"
	case errors.Is(err, ErrNotMember):
		return "not_member"
	case errors.Is(err, ErrInvalidReward):
		return "invalid_reward"
	case errors.Is(err, ErrAmountOverflow):
		return "amount_overflow"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrSequenceConflict):
		return "sequence_conflict"
	case errors.Is(err, ErrTransactionFailed):
		return "transaction_failed"
	case errors.Is(err, ErrStoreNotReady):
		return "store_not_ready"
	case errors.Is(err, ErrStoreClosed):
		return "store_closed"
	default:
		return "internal"
	}
}
