package event

import (
	"context"

	"github.com/xraph/points/types"
)

// Store is the read side of the journal. Entries are appended through
// the composite store's atomic Commit.
type Store interface {
	List(ctx context.Context, opts ListOpts) ([]*Event, error)
	// LastSeq returns the highest committed sequence number, or 0.
	LastSeq(ctx context.Context) (uint64, error)
}

// ListOpts filters and paginates journal queries. Results are ordered
// by Seq ascending.
type ListOpts struct {
	// Account matches events where the address is either party.
	Account *types.Address
	Kind    Kind
	// AfterSeq skips entries with Seq <= AfterSeq.
	AfterSeq uint64
	Limit    int
	Offset   int
}

// Match reports whether e satisfies the filter part of opts.
func (o ListOpts) Match(e *Event) bool {
	if o.Kind != "" && e.Kind != o.Kind {
		return false
	}
	if e.Seq <= o.AfterSeq {
		return false
	}
	if o.Account != nil && !e.Involves(*o.Account) {
		return false
	}
	return true
}
