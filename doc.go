// Package points provides a membership-and-points ledger for Go applications.
//
// points is designed as a library, not a service. Import it directly and
// back it with the store that fits your deployment. It provides:
//
//   - Self-service membership with a one-way ban latch held by a single owner
//   - Point earning, owner assignment and member-to-member transfers on
//     256-bit unsigned balances that never wrap
//   - A fixed reward tier table and redemption against it
//   - Acknowledgement of inbound value, with a per-sender counter for
//     data-carrying calls
//   - A persisted journal of every notification, committed atomically with
//     the state change that produced it
//   - Plugins for metrics and audit trails
//
// # Quick Start
//
//	import (
//	    points "github.com/xraph/points"
//	    "github.com/xraph/points/store/memory"
//	)
//
//	l := points.New(memory.New(), owner)
//	if err := l.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer l.Stop()
//
//	_ = l.JoinAsMember(ctx, alice)
//	_ = l.AssignPoints(ctx, owner, alice, types.NewAmount(1000))
//	_ = l.RedeemReward(ctx, alice, 1) // costs 500
//
// # Rules
//
// Every mutating operation checks its preconditions in a fixed order and
// the first failure wins. The ban check on the acting identity always comes
// first, except for BanAccount, which only checks that the caller is the
// owner. Failures are typed errors that match sentinels through errors.Is:
//
//	var insufficient *points.InsufficientPointsError
//	if errors.As(err, &insufficient) {
//	    log.Printf("have %s, need %s", insufficient.Balance, insufficient.Requested)
//	}
//
// # Consistency
//
// Operations are serialized by one mutex. An operation builds its complete
// write set, accounts plus journal entries, and hands it to the store as one
// Batch; backends apply a Batch atomically. Plugins run after the commit
// in journal order, and a failing plugin never undoes an operation.
//
// # TypeID
//
// Journal entries use TypeID identifiers:
//
//	evt_01h2xcejqtf2nbrexx3vqjhp41  // Event ID
//	op_01h2xcejqtf2nbrexx3vqjhp41   // Operation ID (shared by events of one commit)
package points
