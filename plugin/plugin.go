// Package plugin provides an extensible plugin system for the points ledger.
// Plugins can hook into lifecycle and journal events to extend functionality.
// Hooks run after the operation has committed; a failing hook is logged and
// never undoes the operation.
package plugin

import (
	"context"
	"time"

	"github.com/xraph/points/event"
	"github.com/xraph/points/types"
)

// Plugin is the base interface that all plugins must implement.
type Plugin interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called when the ledger starts. l is the *points.Ledger.
type OnInit interface {
	Plugin
	OnInit(ctx context.Context, l any) error
}

// OnShutdown is called when the ledger is stopping.
type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// Membership hooks
// ──────────────────────────────────────────────────

// OnMemberJoined is called after an identity joins.
type OnMemberJoined interface {
	Plugin
	OnMemberJoined(ctx context.Context, member types.Address) error
}

// OnMemberBanned is called after the owner bans an identity.
type OnMemberBanned interface {
	Plugin
	OnMemberBanned(ctx context.Context, target types.Address) error
}

// ──────────────────────────────────────────────────
// Points hooks
// ──────────────────────────────────────────────────

// OnPointsEarned is called after a member credits itself.
type OnPointsEarned interface {
	Plugin
	OnPointsEarned(ctx context.Context, member types.Address, amount types.Amount) error
}

// OnPointsAssigned is called after the owner credits a member.
type OnPointsAssigned interface {
	Plugin
	OnPointsAssigned(ctx context.Context, owner, target types.Address, amount types.Amount) error
}

// OnPointsTransferred is called after points move between members.
type OnPointsTransferred interface {
	Plugin
	OnPointsTransferred(ctx context.Context, from, to types.Address, amount types.Amount) error
}

// OnRewardRedeemed is called after a member spends points on a reward tier.
type OnRewardRedeemed interface {
	Plugin
	OnRewardRedeemed(ctx context.Context, member types.Address, index int, cost types.Amount) error
}

// ──────────────────────────────────────────────────
// Inbound transfer hooks
// ──────────────────────────────────────────────────

// OnFundsReceived is called after a non-zero inbound value is acknowledged.
type OnFundsReceived interface {
	Plugin
	OnFundsReceived(ctx context.Context, sender types.Address, value types.Amount) error
}

// OnFallbackCalled is called after a data-carrying inbound call has been
// counted. calls is the sender's counter after the increment.
type OnFallbackCalled interface {
	Plugin
	OnFallbackCalled(ctx context.Context, sender types.Address, calls uint64) error
}

// ──────────────────────────────────────────────────
// Journal hooks
// ──────────────────────────────────────────────────

// OnEventCommitted receives every journal entry in commit order.
type OnEventCommitted interface {
	Plugin
	OnEventCommitted(ctx context.Context, e *event.Event) error
}

// OnOperationRejected is called when an operation fails a precondition.
// Nothing was written.
type OnOperationRejected interface {
	Plugin
	OnOperationRejected(ctx context.Context, op string, caller types.Address, err error) error
}

// OnOperationCommitted is called once per successful operation, after its
// events have been dispatched. elapsed covers validation and the commit.
type OnOperationCommitted interface {
	Plugin
	OnOperationCommitted(ctx context.Context, op string, caller types.Address, events int, elapsed time.Duration) error
}
