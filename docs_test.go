package points_test

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"testing"

	points "github.com/xraph/points"
	"github.com/xraph/points/id"
	"github.com/xraph/points/store/memory"
	"github.com/xraph/points/types"
)

// TestDocumentationExamples verifies that the examples in the package
// documentation compile and behave as described.
func TestDocumentationExamples(t *testing.T) {
	t.Run("QuickStartExample", func(t *testing.T) {
		ctx := context.Background()
		l := points.New(memory.New(), owner, points.WithLogger(slog.Default()))
		if err := l.Start(ctx); err != nil {
			t.Fatal(err)
		}
		defer l.Stop()

		if err := l.JoinAsMember(ctx, alice); err != nil {
			t.Fatal(err)
		}
		if err := l.AssignPoints(ctx, owner, alice, types.NewAmount(1000)); err != nil {
			t.Fatal(err)
		}
		if err := l.RedeemReward(ctx, alice, 1); err != nil {
			t.Fatal(err)
		}

		bal, err := l.GetMyBalance(ctx, alice)
		if err != nil {
			t.Fatal(err)
		}
		if bal.String() != "500" {
			t.Errorf("balance = %s, want 500", bal)
		}
	})

	t.Run("ErrorExamples", func(t *testing.T) {
		ctx := context.Background()
		l := points.New(memory.New(), owner)
		if err := l.Start(ctx); err != nil {
			t.Fatal(err)
		}
		defer l.Stop()

		err := l.RedeemReward(ctx, alice, 0)

		var insufficient *points.InsufficientPointsError
		if errors.As(err, &insufficient) {
			log.Printf("have %s, need %s", insufficient.Balance, insufficient.Requested)
		} else {
			t.Fatalf("err = %v, want InsufficientPointsError", err)
		}
		if !errors.Is(err, points.ErrInsufficientPoints) {
			t.Error("typed error must match its sentinel")
		}
		if !points.IsPreconditionFailure(err) || points.IsRetryable(err) {
			t.Error("insufficient points is a non-retryable precondition failure")
		}
	})

	t.Run("AmountExamples", func(t *testing.T) {
		a := points.NewAmount(250)
		b, err := points.ParseAmount("750")
		if err != nil {
			t.Fatal(err)
		}

		sum, overflow := a.Add(b)
		if overflow || sum.String() != "1000" {
			t.Errorf("Add = %s (overflow %v), want 1000", sum, overflow)
		}
		if _, underflow := a.Sub(b); !underflow {
			t.Error("250 - 750 must underflow")
		}
	})

	t.Run("TypeIDExamples", func(t *testing.T) {
		evtID := id.NewEventID()
		opID := id.NewOperationID()

		if evtID.Prefix() != id.PrefixEvent {
			t.Errorf("event id prefix = %s", evtID.Prefix())
		}
		if opID.Prefix() != id.PrefixOperation {
			t.Errorf("operation id prefix = %s", opID.Prefix())
		}

		parsed, err := id.ParseEventID(evtID.String())
		if err != nil || parsed != evtID {
			t.Errorf("ParseEventID(%s) = %v, %v", evtID, parsed, err)
		}
		if _, err := id.ParseOperationID(evtID.String()); err == nil {
			t.Error("an event id must not parse as an operation id")
		}
	})

	t.Run("AddressExamples", func(t *testing.T) {
		a, err := points.ParseAddress("0x00000000000000000000000000000000000000A1")
		if err != nil {
			t.Fatal(err)
		}
		if a != alice {
			t.Errorf("ParseAddress = %s, want %s", a.Hex(), alice.Hex())
		}
		if _, err := points.ParseAddress("not-an-address"); err == nil {
			t.Error("invalid address must fail to parse")
		}
	})
}
