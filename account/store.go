package account

import (
	"context"

	"github.com/xraph/points/types"
)

// Store is the read side of the account table. Writes go through the
// composite store's atomic Commit.
type Store interface {
	// Get returns the record for addr, or a zero record when the
	// address has never been persisted. It never returns a not-found error.
	Get(ctx context.Context, addr types.Address) (*Account, error)
	List(ctx context.Context, opts ListOpts) ([]*Account, error)
}

// ListOpts filters and paginates account listings. Results are ordered
// by creation time, then address.
type ListOpts struct {
	Status      Status
	MembersOnly bool
	Limit       int
	Offset      int
}

// Match reports whether a satisfies the filter part of opts.
func (o ListOpts) Match(a *Account) bool {
	if o.Status != "" && a.Status != o.Status {
		return false
	}
	if o.MembersOnly && !a.IsMember {
		return false
	}
	return true
}
