package points_test

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	points "github.com/xraph/points"
	"github.com/xraph/points/event"
	"github.com/xraph/points/types"
)

// TestRandomOperationsPreserveInvariants drives the ledger with random
// operations and checks after each step that rejected operations changed
// nothing and that points are only created by earn and assign and only
// destroyed by redemption.
func TestRandomOperationsPreserveInvariants(t *testing.T) {
	ctx := context.Background()
	rng := rand.New(rand.NewSource(42))
	actors := []types.Address{owner, alice, bob, mal}

	for round := 0; round < 5; round++ {
		l, _ := newLedger(t, points.WithFallbackBanThreshold(uint64(4+round)))

		var supply uint64
		for step := 0; step < 300; step++ {
			caller := actors[rng.Intn(len(actors))]
			target := actors[rng.Intn(len(actors))]
			n := uint64(rng.Intn(600))

			before := snapshot(t, l, actors)
			var (
				err   error
				delta int64
			)
			switch rng.Intn(8) {
			case 0:
				err = l.JoinAsMember(ctx, caller)
			case 1:
				err = l.EarnPoints(ctx, caller, amt(n))
				delta = int64(n)
			case 2:
				err = l.AssignPoints(ctx, caller, target, amt(n))
				delta = int64(n)
			case 3:
				err = l.TransferPoints(ctx, caller, target, amt(n))
			case 4:
				idx := rng.Intn(5)
				if cost, cerr := l.PointsRequiredForRewards(idx); cerr == nil {
					c, _ := cost.Uint64()
					delta = -int64(c)
				}
				err = l.RedeemReward(ctx, caller, idx)
			case 5:
				if rng.Intn(10) == 0 {
					err = l.BanAccount(ctx, caller, target)
				}
			case 6:
				err = l.OnPlainTransfer(ctx, caller, amt(n%3))
			case 7:
				err = l.OnDataTransfer(ctx, caller, amt(n%3), []byte{byte(n)})
			}

			after := snapshot(t, l, actors)
			if err != nil {
				if !points.IsPreconditionFailure(err) {
					t.Fatalf("round %d step %d: unexpected error %v", round, step, err)
				}
				for a, b := range before {
					if after[a] != b {
						t.Fatalf("round %d step %d: rejected %v changed %s: %+v -> %+v",
							round, step, err, a.Hex(), b, after[a])
					}
				}
				continue
			}

			supply = uint64(int64(supply) + delta)
			var total uint64
			for a, s := range after {
				total += s.balance
				if before[a].banned && !s.banned {
					t.Fatalf("round %d step %d: %s was unbanned", round, step, a.Hex())
				}
				if before[a].member && !s.member {
					t.Fatalf("round %d step %d: %s lost membership", round, step, a.Hex())
				}
				if s.calls < before[a].calls {
					t.Fatalf("round %d step %d: fallback counter of %s decreased", round, step, a.Hex())
				}
			}
			if total != supply {
				t.Fatalf("round %d step %d: total balance %d, want %d", round, step, total, supply)
			}
		}
	}
}

func TestJournalMatchesHookDelivery(t *testing.T) {
	ctx := context.Background()
	rng := rand.New(rand.NewSource(7))
	l, j := newLedger(t)

	mustOK(t, l.JoinAsMember(ctx, alice))
	mustOK(t, l.JoinAsMember(ctx, bob))
	for i := 0; i < 100; i++ {
		switch rng.Intn(3) {
		case 0:
			_ = l.EarnPoints(ctx, alice, amt(uint64(rng.Intn(50))))
		case 1:
			_ = l.TransferPoints(ctx, alice, bob, amt(uint64(rng.Intn(50))))
		case 2:
			_ = l.OnPlainTransfer(ctx, bob, amt(uint64(rng.Intn(2))))
		}
	}

	evs, err := l.Events(ctx, event.ListOpts{})
	mustOK(t, err)
	delivered := j.kinds()
	if len(evs) != len(delivered) {
		t.Fatalf("journal has %d events, hooks saw %d", len(evs), len(delivered))
	}
	for i, e := range evs {
		if e.Kind != delivered[i] {
			t.Fatalf("event %d: journal %s, hook %s", i, e.Kind, delivered[i])
		}
		if i > 0 && e.Seq <= evs[i-1].Seq {
			t.Fatalf("event %d: seq %d not increasing", i, e.Seq)
		}
	}
}

type accountState struct {
	balance uint64
	member  bool
	banned  bool
	calls   uint64
}

func snapshot(t *testing.T, l *points.Ledger, actors []types.Address) map[types.Address]accountState {
	t.Helper()
	out := make(map[types.Address]accountState, len(actors))
	for _, a := range actors {
		acct, err := l.Account(context.Background(), a)
		if err != nil {
			t.Fatalf("Account(%s): %v", a.Hex(), err)
		}
		b, ok := acct.Balance.Uint64()
		if !ok {
			t.Fatal(errors.New("balance exceeds uint64"))
		}
		out[a] = accountState{
			balance: b,
			member:  acct.IsMember,
			banned:  acct.IsBanned(),
			calls:   acct.FallbackCalls,
		}
	}
	return out
}
