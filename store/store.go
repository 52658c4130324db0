package store

import (
	"context"

	"github.com/xraph/points/account"
	"github.com/xraph/points/event"
	"github.com/xraph/points/types"
)

// Store is the unified storage interface for the points ledger.
// Instead of embedding the sub-interfaces, we explicitly declare all methods
// to avoid naming conflicts.
//
// Reads may be served at any time. Every write goes through Commit, which
// must apply the whole Batch or nothing.
type Store interface {
	// Account methods
	GetAccount(ctx context.Context, addr types.Address) (*account.Account, error)
	ListAccounts(ctx context.Context, opts account.ListOpts) ([]*account.Account, error)

	// Event methods
	ListEvents(ctx context.Context, opts event.ListOpts) ([]*event.Event, error)
	LastEventSeq(ctx context.Context) (uint64, error)

	// Commit atomically upserts every account in b and appends every event.
	Commit(ctx context.Context, b *Batch) error

	// Core methods
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

// Batch is the complete write set of one ledger operation.
type Batch struct {
	// Accounts are full records; backends replace the stored row.
	Accounts []*account.Account
	// Events are appended in order. Seq values must be strictly increasing
	// and greater than every committed Seq.
	Events []*event.Event
}

// Empty reports whether the batch would write nothing.
func (b *Batch) Empty() bool {
	return b == nil || (len(b.Accounts) == 0 && len(b.Events) == 0)
}

// StaleSeq reports the first event whose Seq does not strictly follow
// last and its predecessors in the batch.
func (b *Batch) StaleSeq(last uint64) (uint64, bool) {
	if b == nil {
		return 0, false
	}
	for _, e := range b.Events {
		if e.Seq <= last {
			return e.Seq, true
		}
		last = e.Seq
	}
	return 0, false
}

// LastSeq returns the Seq of the final event, or 0 for a batch without events.
func (b *Batch) LastSeq() uint64 {
	if b == nil || len(b.Events) == 0 {
		return 0
	}
	return b.Events[len(b.Events)-1].Seq
}
