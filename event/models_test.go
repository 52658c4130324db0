package event

import (
	"testing"

	"github.com/xraph/points/types"
)

var (
	alice = types.MustParseAddress("0x00000000000000000000000000000000000000a1")
	bob   = types.MustParseAddress("0x00000000000000000000000000000000000000b0")
	owner = types.MustParseAddress("0x0000000000000000000000000000000000000001")
)

func TestConstructorsCarryFields(t *testing.T) {
	tests := []struct {
		name         string
		ev           *Event
		kind         Kind
		account      types.Address
		counterparty types.Address
		amount       uint64
	}{
		{"MemberJoined", MemberJoined(alice), KindMemberJoined, alice, types.ZeroAddress, 0},
		{"PointsEarned", PointsEarned(alice, types.NewAmount(100)), KindPointsEarned, alice, types.ZeroAddress, 100},
		{"PointsAssigned", PointsAssigned(owner, alice, types.NewAmount(50)), KindPointsAssigned, owner, alice, 50},
		{"PointsTransferred", PointsTransferred(alice, bob, types.NewAmount(40)), KindPointsTransferred, alice, bob, 40},
		{"RewardRedeemed", RewardRedeemed(alice, 3, types.NewAmount(100)), KindRewardRedeemed, alice, types.ZeroAddress, 100},
		{"MemberBanned", MemberBanned(alice), KindMemberBanned, alice, types.ZeroAddress, 0},
		{"ReceivedFunds", ReceivedFunds(alice, types.NewAmount(7)), KindReceivedFunds, alice, types.ZeroAddress, 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.ev.Kind != tt.kind {
				t.Errorf("Kind: got %s, want %s", tt.ev.Kind, tt.kind)
			}
			if tt.ev.Account != tt.account {
				t.Errorf("Account: got %s, want %s", tt.ev.Account, tt.account)
			}
			if tt.ev.Counterparty != tt.counterparty {
				t.Errorf("Counterparty: got %s, want %s", tt.ev.Counterparty, tt.counterparty)
			}
			if !tt.ev.Amount.Equal(types.NewAmount(tt.amount)) {
				t.Errorf("Amount: got %s, want %d", tt.ev.Amount, tt.amount)
			}
			if !tt.kind.Valid() {
				t.Errorf("%s should be a valid kind", tt.kind)
			}
		})
	}

	if ev := RewardRedeemed(alice, 3, types.NewAmount(100)); ev.RewardIndex != 3 {
		t.Errorf("RewardIndex: got %d, want 3", ev.RewardIndex)
	}
	if Kind("Bogus").Valid() {
		t.Error("unknown kind reported valid")
	}
}

func TestListOptsMatch(t *testing.T) {
	transfer := PointsTransferred(alice, bob, types.NewAmount(40))
	transfer.Seq = 5
	joined := MemberJoined(alice)
	joined.Seq = 1

	tests := []struct {
		name string
		opts ListOpts
		ev   *Event
		want bool
	}{
		{"no filter", ListOpts{}, transfer, true},
		{"sender side", ListOpts{Account: &alice}, transfer, true},
		{"receiver side", ListOpts{Account: &bob}, transfer, true},
		{"uninvolved", ListOpts{Account: &owner}, transfer, false},
		{"counterparty ignored on join", ListOpts{Account: &types.ZeroAddress}, joined, false},
		{"kind hit", ListOpts{Kind: KindMemberJoined}, joined, true},
		{"kind miss", ListOpts{Kind: KindMemberJoined}, transfer, false},
		{"after seq hit", ListOpts{AfterSeq: 4}, transfer, true},
		{"after seq miss", ListOpts{AfterSeq: 5}, transfer, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.opts.Match(tt.ev); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}
