// Package memory provides an in-process implementation of store.Store.
// It is the default backend and the reference for the conformance suite.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	points "github.com/xraph/points"
	"github.com/xraph/points/account"
	"github.com/xraph/points/event"
	pointsstore "github.com/xraph/points/store"
	"github.com/xraph/points/types"
)

// compile-time interface check
var _ pointsstore.Store = (*Store)(nil)

type Store struct {
	mu     sync.RWMutex
	closed bool

	// Account storage
	accounts map[types.Address]*account.Account

	// Journal storage, ordered by Seq
	events  []*event.Event
	lastSeq uint64
}

func New() *Store {
	return &Store{
		accounts: make(map[types.Address]*account.Account),
		events:   make([]*event.Event, 0),
	}
}

// ==================== Account Store ====================

func (s *Store) GetAccount(_ context.Context, addr types.Address) (*account.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, points.ErrStoreClosed
	}
	if a, ok := s.accounts[addr]; ok {
		return a.Clone(), nil
	}
	return account.New(addr), nil
}

func (s *Store) ListAccounts(_ context.Context, opts account.ListOpts) ([]*account.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, points.ErrStoreClosed
	}

	result := make([]*account.Account, 0, len(s.accounts))
	for _, a := range s.accounts {
		if opts.Match(a) {
			result = append(result, a.Clone())
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].Address.Cmp(result[j].Address) < 0
	})

	return paginate(result, opts.Offset, opts.Limit), nil
}

// ==================== Event Store ====================

func (s *Store) ListEvents(_ context.Context, opts event.ListOpts) ([]*event.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, points.ErrStoreClosed
	}

	result := make([]*event.Event, 0)
	for _, e := range s.events {
		if opts.Match(e) {
			c := *e
			result = append(result, &c)
		}
	}

	return paginate(result, opts.Offset, opts.Limit), nil
}

func (s *Store) LastEventSeq(_ context.Context) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return 0, points.ErrStoreClosed
	}
	return s.lastSeq, nil
}

// ==================== Commit ====================

// Commit validates the whole batch before touching any state, so a
// rejected batch leaves the store unchanged.
func (s *Store) Commit(ctx context.Context, b *pointsstore.Batch) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if b.Empty() {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return points.ErrStoreClosed
	}

	if seq, stale := b.StaleSeq(s.lastSeq); stale {
		return fmt.Errorf("%w: seq %d after %d", points.ErrSequenceConflict, seq, s.lastSeq)
	}

	for _, a := range b.Accounts {
		s.accounts[a.Address] = a.Clone()
	}
	for _, e := range b.Events {
		c := *e
		s.events = append(s.events, &c)
	}
	if len(b.Events) > 0 {
		s.lastSeq = b.LastSeq()
	}

	return nil
}

// ==================== Core ====================

// Migrate is a no-op for the memory store.
func (s *Store) Migrate(_ context.Context) error { return nil }

// Ping reports whether the store is open.
func (s *Store) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return points.ErrStoreClosed
	}
	return nil
}

// Close marks the store closed. Later calls fail with points.ErrStoreClosed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	return nil
}

func paginate[T any](items []T, offset, limit int) []T {
	start := offset
	if start > len(items) {
		start = len(items)
	}
	end := len(items)
	if limit > 0 && limit < end-start {
		end = start + limit
	}
	return items[start:end]
}
