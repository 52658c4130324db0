// Package event defines the notifications emitted by the ledger and
// their persisted journal form.
package event

import (
	"time"

	"github.com/xraph/points/id"
	"github.com/xraph/points/types"
)

// Kind names a notification.
type Kind string

const (
	KindMemberJoined      Kind = "MemberJoined"
	KindPointsEarned      Kind = "PointsEarned"
	KindPointsAssigned    Kind = "PointsAssigned"
	KindPointsTransferred Kind = "PointsTransferred"
	KindRewardRedeemed    Kind = "RewardRedeemed"
	KindMemberBanned      Kind = "MemberBanned"
	KindReceivedFunds     Kind = "ReceivedFunds"
)

// Kinds lists every notification kind in declaration order.
func Kinds() []Kind {
	return []Kind{
		KindMemberJoined,
		KindPointsEarned,
		KindPointsAssigned,
		KindPointsTransferred,
		KindRewardRedeemed,
		KindMemberBanned,
		KindReceivedFunds,
	}
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	for _, known := range Kinds() {
		if k == known {
			return true
		}
	}
	return false
}

// Event is one journal entry. Field meaning depends on Kind:
//
//	MemberJoined(Account)
//	PointsEarned(Account, Amount)
//	PointsAssigned(Account=owner, Counterparty=target, Amount)
//	PointsTransferred(Account=from, Counterparty=to, Amount)
//	RewardRedeemed(Account, RewardIndex, Amount=cost)
//	MemberBanned(Account)
//	ReceivedFunds(Account=sender, Amount=value)
type Event struct {
	ID           id.EventID     `json:"id"`
	OperationID  id.OperationID `json:"operation_id"`
	Seq          uint64         `json:"seq"`
	Kind         Kind           `json:"kind"`
	Account      types.Address  `json:"account"`
	Counterparty types.Address  `json:"counterparty"`
	Amount       types.Amount   `json:"amount"`
	RewardIndex  int            `json:"reward_index"`
	CreatedAt    time.Time      `json:"created_at"`
}

// Involves reports whether addr is either party of the event.
func (e *Event) Involves(addr types.Address) bool {
	if e.Account == addr {
		return true
	}
	return e.hasCounterparty() && e.Counterparty == addr
}

func (e *Event) hasCounterparty() bool {
	return e.Kind == KindPointsAssigned || e.Kind == KindPointsTransferred
}

// ──────────────────────────────────────────────────
// Constructors
// ──────────────────────────────────────────────────

// MemberJoined builds a MemberJoined(identity) event.
func MemberJoined(identity types.Address) *Event {
	return &Event{Kind: KindMemberJoined, Account: identity}
}

// PointsEarned builds a PointsEarned(identity, amount) event.
func PointsEarned(identity types.Address, amount types.Amount) *Event {
	return &Event{Kind: KindPointsEarned, Account: identity, Amount: amount}
}

// PointsAssigned builds a PointsAssigned(owner, target, amount) event.
func PointsAssigned(owner, target types.Address, amount types.Amount) *Event {
	return &Event{Kind: KindPointsAssigned, Account: owner, Counterparty: target, Amount: amount}
}

// PointsTransferred builds a PointsTransferred(from, to, amount) event.
func PointsTransferred(from, to types.Address, amount types.Amount) *Event {
	return &Event{Kind: KindPointsTransferred, Account: from, Counterparty: to, Amount: amount}
}

// RewardRedeemed builds a RewardRedeemed(identity, index, cost) event.
func RewardRedeemed(identity types.Address, index int, cost types.Amount) *Event {
	return &Event{Kind: KindRewardRedeemed, Account: identity, RewardIndex: index, Amount: cost}
}

// MemberBanned builds a MemberBanned(identity) event.
func MemberBanned(identity types.Address) *Event {
	return &Event{Kind: KindMemberBanned, Account: identity}
}

// ReceivedFunds builds a ReceivedFunds(sender, value) event.
func ReceivedFunds(sender types.Address, value types.Amount) *Event {
	return &Event{Kind: KindReceivedFunds, Account: sender, Amount: value}
}
