// Package audithook bridges ledger notifications to an audit trail backend.
//
// It defines a local Recorder interface so the package does not depend on
// any audit product. Callers inject a RecorderFunc adapter at wiring time.
package audithook

import (
	"context"
	"fmt"
	"log/slog"

	points "github.com/xraph/points"
	"github.com/xraph/points/plugin"
	"github.com/xraph/points/types"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin              = (*Extension)(nil)
	_ plugin.OnMemberJoined      = (*Extension)(nil)
	_ plugin.OnMemberBanned      = (*Extension)(nil)
	_ plugin.OnPointsEarned      = (*Extension)(nil)
	_ plugin.OnPointsAssigned    = (*Extension)(nil)
	_ plugin.OnPointsTransferred = (*Extension)(nil)
	_ plugin.OnRewardRedeemed    = (*Extension)(nil)
	_ plugin.OnFundsReceived     = (*Extension)(nil)
	_ plugin.OnFallbackCalled    = (*Extension)(nil)
	_ plugin.OnOperationRejected = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is one audit trail entry.
type AuditEvent struct {
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Category   string         `json:"category"`
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Extension bridges ledger notifications to an audit trail backend.
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements plugin.Plugin.
func (e *Extension) Name() string { return "audit-hook" }

// ──────────────────────────────────────────────────
// Membership hooks
// ──────────────────────────────────────────────────

// OnMemberJoined implements plugin.OnMemberJoined.
func (e *Extension) OnMemberJoined(ctx context.Context, member types.Address) error {
	return e.record(ctx, ActionMemberJoined, SeverityInfo, OutcomeSuccess,
		ResourceMember, member.Hex(), CategoryMembership, nil,
	)
}

// OnMemberBanned implements plugin.OnMemberBanned.
func (e *Extension) OnMemberBanned(ctx context.Context, target types.Address) error {
	return e.record(ctx, ActionMemberBanned, SeverityWarning, OutcomeSuccess,
		ResourceMember, target.Hex(), CategoryAccess, nil,
	)
}

// ──────────────────────────────────────────────────
// Points hooks
// ──────────────────────────────────────────────────

// OnPointsEarned implements plugin.OnPointsEarned.
func (e *Extension) OnPointsEarned(ctx context.Context, member types.Address, amount types.Amount) error {
	return e.record(ctx, ActionPointsEarned, SeverityInfo, OutcomeSuccess,
		ResourcePoints, member.Hex(), CategoryPoints, nil,
		"amount", amount.String(),
	)
}

// OnPointsAssigned implements plugin.OnPointsAssigned.
func (e *Extension) OnPointsAssigned(ctx context.Context, owner, target types.Address, amount types.Amount) error {
	return e.record(ctx, ActionPointsAssigned, SeverityInfo, OutcomeSuccess,
		ResourcePoints, target.Hex(), CategoryPoints, nil,
		"owner", owner.Hex(),
		"amount", amount.String(),
	)
}

// OnPointsTransferred implements plugin.OnPointsTransferred.
func (e *Extension) OnPointsTransferred(ctx context.Context, from, to types.Address, amount types.Amount) error {
	return e.record(ctx, ActionPointsTransferred, SeverityInfo, OutcomeSuccess,
		ResourcePoints, from.Hex(), CategoryPoints, nil,
		"to", to.Hex(),
		"amount", amount.String(),
	)
}

// OnRewardRedeemed implements plugin.OnRewardRedeemed.
func (e *Extension) OnRewardRedeemed(ctx context.Context, member types.Address, index int, cost types.Amount) error {
	return e.record(ctx, ActionRewardRedeemed, SeverityInfo, OutcomeSuccess,
		ResourceReward, member.Hex(), CategoryRewards, nil,
		"reward_index", index,
		"cost", cost.String(),
	)
}

// ──────────────────────────────────────────────────
// Inbound hooks
// ──────────────────────────────────────────────────

// OnFundsReceived implements plugin.OnFundsReceived.
func (e *Extension) OnFundsReceived(ctx context.Context, sender types.Address, value types.Amount) error {
	return e.record(ctx, ActionFundsReceived, SeverityInfo, OutcomeSuccess,
		ResourceFunds, sender.Hex(), CategoryInbound, nil,
		"value", value.String(),
	)
}

// OnFallbackCalled implements plugin.OnFallbackCalled.
func (e *Extension) OnFallbackCalled(ctx context.Context, sender types.Address, calls uint64) error {
	return e.record(ctx, ActionFallbackCalled, SeverityInfo, OutcomeSuccess,
		ResourceFunds, sender.Hex(), CategoryInbound, nil,
		"calls", calls,
	)
}

// ──────────────────────────────────────────────────
// Rejections
// ──────────────────────────────────────────────────

// OnOperationRejected implements plugin.OnOperationRejected. Owner-only
// and ban rejections are recorded as warnings.
func (e *Extension) OnOperationRejected(ctx context.Context, op string, caller types.Address, err error) error {
	severity := SeverityInfo
	category := CategoryPoints
	switch points.Reason(err) {
	case "not_owner", "account_banned":
		severity = SeverityWarning
		category = CategoryAccess
	}
	return e.record(ctx, ActionOperationRejected, severity, OutcomeFailure,
		ResourceOperation, caller.Hex(), category, err,
		"op", op,
		"code", points.Reason(err),
	)
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

// record builds and sends an audit event if the action is enabled.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category string,
	err error,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}
