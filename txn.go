package points

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/xraph/points/account"
	"github.com/xraph/points/event"
	"github.com/xraph/points/id"
	"github.com/xraph/points/store"
	"github.com/xraph/points/types"
)

// txn collects the write set of one operation. Nothing reaches the store
// until execute commits it as a single Batch.
type txn struct {
	ctx   context.Context
	store store.Store

	loaded map[types.Address]*account.Account
	dirty  []types.Address
	events []*event.Event

	fallback *fallbackNotice
}

type fallbackNotice struct {
	sender types.Address
	calls  uint64
}

func newTxn(ctx context.Context, s store.Store) *txn {
	return &txn{
		ctx:    ctx,
		store:  s,
		loaded: make(map[types.Address]*account.Account),
	}
}

// load returns the working copy of addr. Repeated loads of one address
// return the same pointer.
func (t *txn) load(addr types.Address) (*account.Account, error) {
	if a, ok := t.loaded[addr]; ok {
		return a, nil
	}
	a, err := t.store.GetAccount(t.ctx, addr)
	if err != nil {
		return nil, fmt.Errorf("points: load account: %w", err)
	}
	t.loaded[addr] = a
	return a, nil
}

// active loads addr and rejects it when banned.
func (t *txn) active(addr types.Address) (*account.Account, error) {
	a, err := t.load(addr)
	if err != nil {
		return nil, err
	}
	if a.IsBanned() {
		return nil, &AccountBannedError{Account: addr}
	}
	return a, nil
}

// member loads addr and rejects it unless it has joined.
func (t *txn) member(addr types.Address) (*account.Account, error) {
	a, err := t.load(addr)
	if err != nil {
		return nil, err
	}
	if !a.IsMember {
		return nil, &NotMemberError{Account: addr}
	}
	return a, nil
}

// activeMember applies the ban check before the membership check.
func (t *txn) activeMember(addr types.Address) (*account.Account, error) {
	if _, err := t.active(addr); err != nil {
		return nil, err
	}
	return t.member(addr)
}

// write adds a to the write set.
func (t *txn) write(a *account.Account) {
	for _, addr := range t.dirty {
		if addr == a.Address {
			return
		}
	}
	t.dirty = append(t.dirty, a.Address)
}

// emit queues a notification. Emission order is journal order.
func (t *txn) emit(e *event.Event) {
	t.events = append(t.events, e)
}

func (t *txn) fallbackCall(sender types.Address, calls uint64) {
	t.fallback = &fallbackNotice{sender: sender, calls: calls}
}

// batch stamps the write set and assigns journal positions after lastSeq.
func (t *txn) batch(now time.Time, lastSeq uint64) *store.Batch {
	b := &store.Batch{
		Accounts: make([]*account.Account, 0, len(t.dirty)),
		Events:   make([]*event.Event, 0, len(t.events)),
	}
	for _, addr := range t.dirty {
		a := t.loaded[addr]
		a.TouchAt(now)
		b.Accounts = append(b.Accounts, a)
	}

	opID := id.NewOperationID()
	seq := lastSeq
	for _, e := range t.events {
		seq++
		e.ID = id.NewEventID()
		e.OperationID = opID
		e.Seq = seq
		e.CreatedAt = now
		b.Events = append(b.Events, e)
	}
	return b
}

// execute runs fn under the ledger lock and commits its write set.
// Preconditions that fail leave the store untouched.
func (l *Ledger) execute(ctx context.Context, op string, caller types.Address, fn func(*txn) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	start := time.Now()

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := requireAddress("caller", caller); err != nil {
		return err
	}
	if err := l.loadSeq(ctx); err != nil {
		return err
	}

	tx := newTxn(ctx, l.store)
	if err := fn(tx); err != nil {
		if IsPreconditionFailure(err) && !errors.Is(err, ErrInvalidInput) {
			l.logger.Debug("operation rejected",
				"op", op,
				"caller", caller.Hex(),
				"reason", Reason(err),
			)
			l.plugins.EmitOperationRejected(ctx, op, caller, err)
		}
		return err
	}

	b := tx.batch(l.clock().UTC(), l.lastSeq)
	if err := l.store.Commit(ctx, b); err != nil {
		// Another writer may have moved the journal; reload on next use.
		l.seqLoaded = false
		l.logger.Warn("operation commit failed",
			"op", op,
			"caller", caller.Hex(),
			"error", err,
		)
		return fmt.Errorf("points: %s: %w", op, err)
	}
	if len(b.Events) > 0 {
		l.lastSeq = b.LastSeq()
	}

	for _, e := range b.Events {
		l.plugins.EmitEvent(ctx, e)
	}
	if tx.fallback != nil {
		l.plugins.EmitFallbackCalled(ctx, tx.fallback.sender, tx.fallback.calls)
	}
	elapsed := time.Since(start)
	l.plugins.EmitOperationCommitted(ctx, op, caller, len(b.Events), elapsed)

	l.logger.Debug("operation committed",
		"op", op,
		"caller", caller.Hex(),
		"events", len(b.Events),
		"elapsed", elapsed,
	)
	return nil
}

// loadSeq reads the journal position once. Callers hold l.mu.
func (l *Ledger) loadSeq(ctx context.Context) error {
	if l.seqLoaded {
		return nil
	}
	last, err := l.store.LastEventSeq(ctx)
	if err != nil {
		return fmt.Errorf("points: load journal position: %w", err)
	}
	l.lastSeq = last
	l.seqLoaded = true
	return nil
}

// requireAddress rejects the zero address, which never names an identity.
func requireAddress(field string, a types.Address) error {
	if a == types.ZeroAddress {
		return ValidationError{Field: field, Message: "zero address"}
	}
	return nil
}
