package store

import (
	"testing"

	"github.com/xraph/points/account"
	"github.com/xraph/points/event"
	"github.com/xraph/points/types"
)

func TestBatchEmpty(t *testing.T) {
	var nilBatch *Batch
	if !nilBatch.Empty() {
		t.Error("nil batch should be empty")
	}
	if !(&Batch{}).Empty() {
		t.Error("zero batch should be empty")
	}
	if (&Batch{Accounts: []*account.Account{account.New(types.ZeroAddress)}}).Empty() {
		t.Error("batch with an account is not empty")
	}
	if (&Batch{Events: []*event.Event{event.MemberJoined(types.ZeroAddress)}}).Empty() {
		t.Error("batch with an event is not empty")
	}
}

func TestBatchStaleSeq(t *testing.T) {
	ev := func(seq uint64) *event.Event {
		e := event.MemberJoined(types.ZeroAddress)
		e.Seq = seq
		return e
	}

	tests := []struct {
		name    string
		last    uint64
		seqs    []uint64
		want    uint64
		wantBad bool
	}{
		{"no events", 5, nil, 0, false},
		{"contiguous", 2, []uint64{3, 4}, 0, false},
		{"gap allowed", 2, []uint64{7}, 0, false},
		{"replays last", 2, []uint64{2}, 2, true},
		{"out of order", 0, []uint64{1, 3, 2}, 2, true},
		{"duplicate in batch", 0, []uint64{1, 1}, 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &Batch{}
			for _, s := range tt.seqs {
				b.Events = append(b.Events, ev(s))
			}
			got, bad := b.StaleSeq(tt.last)
			if bad != tt.wantBad || got != tt.want {
				t.Errorf("StaleSeq(%d) = %d, %v; want %d, %v", tt.last, got, bad, tt.want, tt.wantBad)
			}
		})
	}
}

func TestBatchLastSeq(t *testing.T) {
	if got := (&Batch{}).LastSeq(); got != 0 {
		t.Errorf("empty batch LastSeq = %d", got)
	}
	e1, e2 := event.MemberJoined(types.ZeroAddress), event.MemberJoined(types.ZeroAddress)
	e1.Seq, e2.Seq = 4, 9
	if got := (&Batch{Events: []*event.Event{e1, e2}}).LastSeq(); got != 9 {
		t.Errorf("LastSeq = %d, want 9", got)
	}
}
