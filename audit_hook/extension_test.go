package audithook_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	points "github.com/xraph/points"
	audithook "github.com/xraph/points/audit_hook"
	"github.com/xraph/points/store/memory"
	"github.com/xraph/points/types"
)

var (
	owner = types.MustParseAddress("0x0000000000000000000000000000000000000001")
	alice = types.MustParseAddress("0x00000000000000000000000000000000000000a1")
	bob   = types.MustParseAddress("0x00000000000000000000000000000000000000b2")
)

type memRecorder struct {
	mu     sync.Mutex
	events []*audithook.AuditEvent
}

func (r *memRecorder) Record(_ context.Context, e *audithook.AuditEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *memRecorder) actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.Action
	}
	return out
}

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func run(t *testing.T, ext *audithook.Extension) {
	t.Helper()
	ctx := context.Background()
	l := points.New(memory.New(), owner, points.WithLogger(quiet()), points.WithPlugin(ext))
	if err := l.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer l.Stop()

	steps := []error{
		l.JoinAsMember(ctx, alice),
		l.JoinAsMember(ctx, bob),
		l.AssignPoints(ctx, owner, alice, types.NewAmount(300)),
		l.EarnPoints(ctx, alice, types.NewAmount(5)),
		l.TransferPoints(ctx, alice, bob, types.NewAmount(50)),
		l.RedeemReward(ctx, alice, 2),
		l.OnPlainTransfer(ctx, bob, types.NewAmount(9)),
		l.OnDataTransfer(ctx, bob, types.Amount{}, []byte("x")),
		l.BanAccount(ctx, owner, bob),
	}
	for i, err := range steps {
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}
	if err := l.AssignPoints(ctx, alice, bob, types.NewAmount(1)); !errors.Is(err, points.ErrNotOwner) {
		t.Fatalf("err = %v, want ErrNotOwner", err)
	}
}

func TestExtensionRecordsEveryAction(t *testing.T) {
	rec := &memRecorder{}
	run(t, audithook.New(rec, audithook.WithLogger(quiet())))

	want := []string{
		audithook.ActionMemberJoined,
		audithook.ActionMemberJoined,
		audithook.ActionPointsAssigned,
		audithook.ActionPointsEarned,
		audithook.ActionPointsTransferred,
		audithook.ActionRewardRedeemed,
		audithook.ActionFundsReceived,
		audithook.ActionFallbackCalled,
		audithook.ActionMemberBanned,
		audithook.ActionOperationRejected,
	}
	got := rec.actions()
	if len(got) != len(want) {
		t.Fatalf("actions = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("action[%d] = %s, want %s", i, got[i], want[i])
		}
	}

	rejected := rec.events[len(rec.events)-1]
	if rejected.Outcome != audithook.OutcomeFailure || rejected.Severity != audithook.SeverityWarning {
		t.Errorf("rejection = %+v", rejected)
	}
	if rejected.Metadata["code"] != "not_owner" || rejected.Metadata["op"] != points.OpAssignPoints {
		t.Errorf("rejection metadata = %v", rejected.Metadata)
	}
	if rejected.ResourceID != alice.Hex() {
		t.Errorf("rejection resource = %s, want caller", rejected.ResourceID)
	}

	redeemed := rec.events[5]
	if redeemed.Metadata["cost"] != "250" || redeemed.Metadata["reward_index"] != 2 {
		t.Errorf("redeem metadata = %v", redeemed.Metadata)
	}
}

func TestActionFilters(t *testing.T) {
	tests := []struct {
		name string
		opts []audithook.Option
		want int
	}{
		{"all", nil, 10},
		{"enabled only bans", []audithook.Option{audithook.WithEnabledActions(audithook.ActionMemberBanned)}, 1},
		{"disable joins", []audithook.Option{audithook.WithDisabledActions(audithook.ActionMemberJoined)}, 8},
		{"disable everything but rejections", []audithook.Option{audithook.WithDisabledActions(
			audithook.ActionMemberJoined,
			audithook.ActionMemberBanned,
			audithook.ActionPointsEarned,
			audithook.ActionPointsAssigned,
			audithook.ActionPointsTransferred,
			audithook.ActionRewardRedeemed,
			audithook.ActionFundsReceived,
			audithook.ActionFallbackCalled,
		)}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &memRecorder{}
			opts := append([]audithook.Option{audithook.WithLogger(quiet())}, tt.opts...)
			run(t, audithook.New(rec, opts...))
			if got := len(rec.actions()); got != tt.want {
				t.Errorf("recorded %d events, want %d", got, tt.want)
			}
		})
	}
}

func TestRecorderFailureDoesNotFailOperation(t *testing.T) {
	var calls int
	rec := audithook.RecorderFunc(func(context.Context, *audithook.AuditEvent) error {
		calls++
		return errors.New("backend down")
	})
	run(t, audithook.New(rec, audithook.WithLogger(quiet())))
	if calls != 10 {
		t.Errorf("recorder called %d times, want 10", calls)
	}
}
