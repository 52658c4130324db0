// Package storetest is a conformance suite for store.Store implementations.
// Backends call Run from their own tests with a factory that opens a
// fresh, migrated store.
package storetest

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	points "github.com/xraph/points"
	"github.com/xraph/points/account"
	"github.com/xraph/points/event"
	"github.com/xraph/points/id"
	"github.com/xraph/points/store"
	"github.com/xraph/points/types"
)

// Factory opens a fresh, migrated store. The suite closes it.
type Factory func(t *testing.T) store.Store

// MaxAmount is 2^256-1.
var MaxAmount = types.MustParseAmount("115792089237316195423570985008687907853269984665640564039457584007913129639935")

// Addr returns a deterministic test address ending in n.
func Addr(n int) types.Address {
	return types.MustParseAddress(fmt.Sprintf("0x%040x", n))
}

// Run executes every conformance test against stores produced by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Helper()

	tests := []struct {
		name string
		fn   func(t *testing.T, s store.Store)
	}{
		{"GetUnknownAccountReturnsZeroRecord", testGetUnknownAccount},
		{"CommitUpsertsAccounts", testCommitUpsertsAccounts},
		{"CommitAppendsEventsInOrder", testCommitAppendsEvents},
		{"CommitRejectsStaleSequence", testCommitRejectsStaleSequence},
		{"CommitWithCancelledContext", testCommitCancelledContext},
		{"EmptyCommitIsNoop", testEmptyCommit},
		{"LargeBalanceSurvives", testLargeBalance},
		{"ListAccountsFiltersAndPaginates", testListAccounts},
		{"ListEventsFilters", testListEvents},
		{"Ping", testPing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newStore(t)
			t.Cleanup(func() { _ = s.Close() })
			tt.fn(t, s)
		})
	}
}

func newAccount(addr types.Address, at time.Time) *account.Account {
	a := account.New(addr)
	a.TouchAt(at)
	return a
}

func newEvent(seq uint64, e *event.Event, at time.Time) *event.Event {
	e.ID = id.NewEventID()
	e.OperationID = id.NewOperationID()
	e.Seq = seq
	e.CreatedAt = at.UTC()
	return e
}

func testGetUnknownAccount(t *testing.T, s store.Store) {
	ctx := context.Background()
	a, err := s.GetAccount(ctx, Addr(1))
	require.NoError(t, err)
	assert.Equal(t, Addr(1), a.Address)
	assert.False(t, a.IsMember)
	assert.False(t, a.IsBanned())
	assert.True(t, a.Balance.IsZero())
	assert.Zero(t, a.FallbackCalls)
	assert.True(t, a.IsZero(), "unknown account must not carry timestamps")

	seq, err := s.LastEventSeq(ctx)
	require.NoError(t, err)
	assert.Zero(t, seq)
}

func testCommitUpsertsAccounts(t *testing.T, s store.Store) {
	ctx := context.Background()
	t0 := time.Now().UTC()

	a := newAccount(Addr(1), t0)
	a.IsMember = true
	a.Balance = types.NewAmount(100)
	require.NoError(t, s.Commit(ctx, &store.Batch{Accounts: []*account.Account{a}}))

	got, err := s.GetAccount(ctx, Addr(1))
	require.NoError(t, err)
	assert.True(t, got.IsMember)
	assert.Equal(t, "100", got.Balance.String())
	assert.WithinDuration(t, t0, got.CreatedAt, time.Millisecond)

	// Second commit replaces the record in place.
	t1 := t0.Add(time.Second)
	a.Balance = types.NewAmount(60)
	a.FallbackCalls = 5
	a.Ban()
	a.TouchAt(t1)
	require.NoError(t, s.Commit(ctx, &store.Batch{Accounts: []*account.Account{a}}))

	got, err = s.GetAccount(ctx, Addr(1))
	require.NoError(t, err)
	assert.Equal(t, "60", got.Balance.String())
	assert.Equal(t, uint64(5), got.FallbackCalls)
	assert.True(t, got.IsBanned())
	assert.True(t, got.IsMember)
	assert.WithinDuration(t, t0, got.CreatedAt, time.Millisecond)
	assert.WithinDuration(t, t1, got.UpdatedAt, time.Millisecond)

	all, err := s.ListAccounts(ctx, account.ListOpts{})
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func testCommitAppendsEvents(t *testing.T, s store.Store) {
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, s.Commit(ctx, &store.Batch{Events: []*event.Event{
		newEvent(1, event.MemberJoined(Addr(1)), now),
		newEvent(2, event.PointsAssigned(Addr(9), Addr(1), types.NewAmount(100)), now),
	}}))
	require.NoError(t, s.Commit(ctx, &store.Batch{Events: []*event.Event{
		newEvent(3, event.RewardRedeemed(Addr(1), 3, types.NewAmount(100)), now),
	}}))

	seq, err := s.LastEventSeq(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), seq)

	evs, err := s.ListEvents(ctx, event.ListOpts{})
	require.NoError(t, err)
	require.Len(t, evs, 3)
	for i, e := range evs {
		assert.Equal(t, uint64(i+1), e.Seq)
		assert.False(t, e.ID.IsNil())
		assert.False(t, e.OperationID.IsNil())
	}
	assert.Equal(t, event.KindPointsAssigned, evs[1].Kind)
	assert.Equal(t, Addr(9), evs[1].Account)
	assert.Equal(t, Addr(1), evs[1].Counterparty)
	assert.Equal(t, "100", evs[1].Amount.String())
	assert.Equal(t, 3, evs[2].RewardIndex)
}

func testCommitRejectsStaleSequence(t *testing.T, s store.Store) {
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, s.Commit(ctx, &store.Batch{Events: []*event.Event{
		newEvent(1, event.MemberJoined(Addr(1)), now),
		newEvent(2, event.MemberJoined(Addr(2)), now),
	}}))

	a := newAccount(Addr(3), now)
	a.IsMember = true
	err := s.Commit(ctx, &store.Batch{
		Accounts: []*account.Account{a},
		Events:   []*event.Event{newEvent(2, event.MemberJoined(Addr(3)), now)},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, points.ErrSequenceConflict), "got %v", err)

	// Nothing from the rejected batch is visible.
	got, err := s.GetAccount(ctx, Addr(3))
	require.NoError(t, err)
	assert.False(t, got.IsMember)

	seq, err := s.LastEventSeq(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), seq)
}

func testCommitCancelledContext(t *testing.T, s store.Store) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	a := newAccount(Addr(1), time.Now())
	a.IsMember = true
	err := s.Commit(ctx, &store.Batch{Accounts: []*account.Account{a}})
	require.Error(t, err)

	got, err := s.GetAccount(context.Background(), Addr(1))
	require.NoError(t, err)
	assert.False(t, got.IsMember)
}

func testEmptyCommit(t *testing.T, s store.Store) {
	require.NoError(t, s.Commit(context.Background(), &store.Batch{}))
	require.NoError(t, s.Commit(context.Background(), nil))
}

func testLargeBalance(t *testing.T, s store.Store) {
	ctx := context.Background()
	a := newAccount(Addr(1), time.Now())
	a.Balance = MaxAmount
	require.NoError(t, s.Commit(ctx, &store.Batch{
		Accounts: []*account.Account{a},
		Events:   []*event.Event{newEvent(1, event.PointsEarned(Addr(1), MaxAmount), time.Now())},
	}))

	got, err := s.GetAccount(ctx, Addr(1))
	require.NoError(t, err)
	assert.True(t, got.Balance.Equal(MaxAmount), "got %s", got.Balance)

	evs, err := s.ListEvents(ctx, event.ListOpts{})
	require.NoError(t, err)
	require.Len(t, evs, 1)
	assert.True(t, evs[0].Amount.Equal(MaxAmount))
}

func testListAccounts(t *testing.T, s store.Store) {
	ctx := context.Background()
	base := time.Now().UTC()

	var batch store.Batch
	for i := 1; i <= 5; i++ {
		a := newAccount(Addr(i), base.Add(time.Duration(i)*time.Second))
		a.IsMember = i%2 == 1 // 1, 3, 5
		if i == 5 {
			a.Ban()
		}
		batch.Accounts = append(batch.Accounts, a)
	}
	require.NoError(t, s.Commit(ctx, &batch))

	all, err := s.ListAccounts(ctx, account.ListOpts{})
	require.NoError(t, err)
	require.Len(t, all, 5)
	for i, a := range all {
		assert.Equal(t, Addr(i+1), a.Address, "accounts must be ordered by creation")
	}

	members, err := s.ListAccounts(ctx, account.ListOpts{MembersOnly: true})
	require.NoError(t, err)
	assert.Len(t, members, 3)

	banned, err := s.ListAccounts(ctx, account.ListOpts{Status: account.StatusBanned})
	require.NoError(t, err)
	require.Len(t, banned, 1)
	assert.Equal(t, Addr(5), banned[0].Address)

	page, err := s.ListAccounts(ctx, account.ListOpts{Limit: 2, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, Addr(2), page[0].Address)
	assert.Equal(t, Addr(3), page[1].Address)

	rest, err := s.ListAccounts(ctx, account.ListOpts{Limit: math.MaxInt, Offset: 1})
	require.NoError(t, err)
	require.Len(t, rest, 4)
	assert.Equal(t, Addr(2), rest[0].Address)

	past, err := s.ListAccounts(ctx, account.ListOpts{Limit: math.MaxInt, Offset: 10})
	require.NoError(t, err)
	assert.Empty(t, past)
}

func testListEvents(t *testing.T, s store.Store) {
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, s.Commit(ctx, &store.Batch{Events: []*event.Event{
		newEvent(1, event.MemberJoined(Addr(1)), now),
		newEvent(2, event.MemberJoined(Addr(2)), now),
		newEvent(3, event.PointsTransferred(Addr(1), Addr(2), types.NewAmount(40)), now),
		newEvent(4, event.ReceivedFunds(Addr(3), types.NewAmount(7)), now),
	}}))

	alice := Addr(1)
	mine, err := s.ListEvents(ctx, event.ListOpts{Account: &alice})
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, uint64(1), mine[0].Seq)
	assert.Equal(t, uint64(3), mine[1].Seq)

	bob := Addr(2)
	theirs, err := s.ListEvents(ctx, event.ListOpts{Account: &bob})
	require.NoError(t, err)
	assert.Len(t, theirs, 2, "counterparty side must match")

	joins, err := s.ListEvents(ctx, event.ListOpts{Kind: event.KindMemberJoined})
	require.NoError(t, err)
	assert.Len(t, joins, 2)

	tail, err := s.ListEvents(ctx, event.ListOpts{AfterSeq: 2, Limit: 1})
	require.NoError(t, err)
	require.Len(t, tail, 1)
	assert.Equal(t, uint64(3), tail[0].Seq)

	page, err := s.ListEvents(ctx, event.ListOpts{Offset: 3})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, event.KindReceivedFunds, page[0].Kind)

	rest, err := s.ListEvents(ctx, event.ListOpts{Offset: 1, Limit: math.MaxInt})
	require.NoError(t, err)
	assert.Len(t, rest, 3)
}

func testPing(t *testing.T, s store.Store) {
	assert.NoError(t, s.Ping(context.Background()))
}
