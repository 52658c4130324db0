// Package account defines the per-identity ledger record.
package account

import (
	"github.com/xraph/points/types"
)

// Status is the ban latch of an account. It only ever moves from
// StatusActive to StatusBanned.
type Status string

const (
	StatusActive Status = "active"
	StatusBanned Status = "banned"
)

// Account is the ledger record for one identity. Records are created
// lazily: an address that was never touched reads as a zero Account
// with StatusActive.
type Account struct {
	types.Entity
	Address       types.Address `json:"address"`
	IsMember      bool          `json:"is_member"`
	Balance       types.Amount  `json:"balance"`
	Status        Status        `json:"status"`
	FallbackCalls uint64        `json:"fallback_calls"`
}

// New returns the zero record for addr.
func New(addr types.Address) *Account {
	return &Account{Address: addr, Status: StatusActive}
}

// IsBanned reports whether the account has been banned.
func (a *Account) IsBanned() bool { return a.Status == StatusBanned }

// Ban latches the account to StatusBanned.
func (a *Account) Ban() { a.Status = StatusBanned }

// Clone returns a copy that can be mutated without affecting a.
func (a *Account) Clone() *Account {
	c := *a
	return &c
}
