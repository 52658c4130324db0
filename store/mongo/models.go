package mongo

import (
	"strings"
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/points/account"
	"github.com/xraph/points/event"
	"github.com/xraph/points/id"
	"github.com/xraph/points/types"
)

// ==================== Account models ====================

type accountModel struct {
	grove.BaseModel `grove:"table:points_accounts"`

	Address       string    `grove:"address,pk"     bson:"_id"`
	IsMember      bool      `grove:"is_member"      bson:"is_member"`
	Balance       string    `grove:"balance"        bson:"balance"`
	Status        string    `grove:"status"         bson:"status"`
	FallbackCalls int64     `grove:"fallback_calls" bson:"fallback_calls"`
	CreatedAt     time.Time `grove:"created_at"     bson:"created_at"`
	UpdatedAt     time.Time `grove:"updated_at"     bson:"updated_at"`
}

func toAccountModel(a *account.Account) *accountModel {
	return &accountModel{
		Address:       addressKey(a.Address),
		IsMember:      a.IsMember,
		Balance:       a.Balance.String(),
		Status:        string(a.Status),
		FallbackCalls: int64(a.FallbackCalls), //nolint:gosec // counter never reaches 2^63
		CreatedAt:     a.CreatedAt.UTC(),
		UpdatedAt:     a.UpdatedAt.UTC(),
	}
}

func fromAccountModel(m *accountModel) (*account.Account, error) {
	addr, err := types.ParseAddress(m.Address)
	if err != nil {
		return nil, err
	}
	bal, err := types.ParseAmount(m.Balance)
	if err != nil {
		return nil, err
	}
	a := account.New(addr)
	a.IsMember = m.IsMember
	a.Balance = bal
	a.Status = account.Status(m.Status)
	a.FallbackCalls = uint64(m.FallbackCalls) //nolint:gosec // stored from a uint64
	a.CreatedAt = m.CreatedAt
	a.UpdatedAt = m.UpdatedAt
	return a, nil
}

// ==================== Event models ====================

type eventModel struct {
	grove.BaseModel `grove:"table:points_events"`

	ID           string    `grove:"id,pk"        bson:"_id"`
	OperationID  string    `grove:"operation_id" bson:"operation_id"`
	Seq          int64     `grove:"seq"          bson:"seq"`
	Kind         string    `grove:"kind"         bson:"kind"`
	Account      string    `grove:"account"      bson:"account"`
	Counterparty string    `grove:"counterparty" bson:"counterparty,omitempty"`
	Amount       string    `grove:"amount"       bson:"amount"`
	RewardIndex  int       `grove:"reward_index" bson:"reward_index"`
	CreatedAt    time.Time `grove:"created_at"   bson:"created_at"`
}

func toEventModel(e *event.Event) *eventModel {
	m := &eventModel{
		ID:          e.ID.String(),
		OperationID: e.OperationID.String(),
		Seq:         int64(e.Seq), //nolint:gosec // journal never reaches 2^63
		Kind:        string(e.Kind),
		Account:     addressKey(e.Account),
		Amount:      e.Amount.String(),
		RewardIndex: e.RewardIndex,
		CreatedAt:   e.CreatedAt.UTC(),
	}
	if e.Counterparty != types.ZeroAddress {
		m.Counterparty = addressKey(e.Counterparty)
	}
	return m
}

func fromEventModel(m *eventModel) (*event.Event, error) {
	evtID, err := id.ParseEventID(m.ID)
	if err != nil {
		return nil, err
	}
	opID, err := id.ParseOperationID(m.OperationID)
	if err != nil {
		return nil, err
	}
	acct, err := types.ParseAddress(m.Account)
	if err != nil {
		return nil, err
	}
	amt, err := types.ParseAmount(m.Amount)
	if err != nil {
		return nil, err
	}
	e := &event.Event{
		ID:          evtID,
		OperationID: opID,
		Seq:         uint64(m.Seq), //nolint:gosec // stored from a uint64
		Kind:        event.Kind(m.Kind),
		Account:     acct,
		Amount:      amt,
		RewardIndex: m.RewardIndex,
		CreatedAt:   m.CreatedAt,
	}
	if m.Counterparty != "" {
		if e.Counterparty, err = types.ParseAddress(m.Counterparty); err != nil {
			return nil, err
		}
	}
	return e, nil
}

func addressKey(a types.Address) string {
	return strings.ToLower(a.Hex())
}
