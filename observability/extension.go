// Package observability provides a metrics extension for the points ledger
// that records notification counts, rejections and commit latency via a
// MetricFactory.
package observability

import (
	"context"
	"sync"
	"time"

	points "github.com/xraph/points"
	"github.com/xraph/points/event"
	"github.com/xraph/points/plugin"
	"github.com/xraph/points/types"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ plugin.Plugin               = (*MetricsExtension)(nil)
	_ plugin.OnInit               = (*MetricsExtension)(nil)
	_ plugin.OnMemberJoined       = (*MetricsExtension)(nil)
	_ plugin.OnMemberBanned       = (*MetricsExtension)(nil)
	_ plugin.OnPointsEarned       = (*MetricsExtension)(nil)
	_ plugin.OnPointsAssigned     = (*MetricsExtension)(nil)
	_ plugin.OnPointsTransferred  = (*MetricsExtension)(nil)
	_ plugin.OnRewardRedeemed     = (*MetricsExtension)(nil)
	_ plugin.OnFundsReceived      = (*MetricsExtension)(nil)
	_ plugin.OnFallbackCalled     = (*MetricsExtension)(nil)
	_ plugin.OnOperationRejected  = (*MetricsExtension)(nil)
	_ plugin.OnOperationCommitted = (*MetricsExtension)(nil)
)

// Counter interface for metric counters.
type Counter interface {
	Inc()
	Add(float64)
}

// Histogram interface for metric histograms.
type Histogram interface {
	Observe(float64)
}

// MetricFactory creates metrics.
type MetricFactory interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// MetricsExtension records ledger metrics.
// Register it as a plugin to track every committed notification.
type MetricsExtension struct {
	factory MetricFactory

	// Membership metrics
	MembersJoined Counter
	MembersBanned Counter

	// Points metrics
	PointsEarned      Counter
	PointsAssigned    Counter
	PointsTransferred Counter
	EarnedAmount      Histogram
	AssignedAmount    Histogram
	TransferredAmount Histogram

	// Reward metrics
	RewardsRedeemed Counter
	RedeemedCost    Histogram

	// Inbound metrics
	FundsReceived Counter
	FundsValue    Histogram
	FallbackCalls Counter

	// Operation metrics
	OperationsCommitted Counter
	OperationsRejected  Counter
	CommitLatency       Histogram
	EventsPerCommit     Histogram

	mu         sync.Mutex
	rejections map[string]Counter
	byOp       map[string]Counter
}

// NewMetricsExtension creates a MetricsExtension with the provided MetricFactory.
// Use app.Metrics() in forge extensions.
func NewMetricsExtension(factory MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		factory: factory,

		MembersJoined: factory.Counter("points.member.joined"),
		MembersBanned: factory.Counter("points.member.banned"),

		PointsEarned:      factory.Counter("points.points.earned"),
		PointsAssigned:    factory.Counter("points.points.assigned"),
		PointsTransferred: factory.Counter("points.points.transferred"),
		EarnedAmount:      factory.Histogram("points.points.earned.amount"),
		AssignedAmount:    factory.Histogram("points.points.assigned.amount"),
		TransferredAmount: factory.Histogram("points.points.transferred.amount"),

		RewardsRedeemed: factory.Counter("points.reward.redeemed"),
		RedeemedCost:    factory.Histogram("points.reward.redeemed.cost"),

		FundsReceived: factory.Counter("points.funds.received"),
		FundsValue:    factory.Histogram("points.funds.received.value"),
		FallbackCalls: factory.Counter("points.fallback.calls"),

		OperationsCommitted: factory.Counter("points.operation.committed"),
		OperationsRejected:  factory.Counter("points.operation.rejected"),
		CommitLatency:       factory.Histogram("points.operation.latency_ms"),
		EventsPerCommit:     factory.Histogram("points.operation.events"),

		rejections: make(map[string]Counter),
		byOp:       make(map[string]Counter),
	}
}

// Name implements plugin.Plugin.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnInit implements plugin.OnInit.
func (m *MetricsExtension) OnInit(_ context.Context, _ any) error {
	return nil
}

// ──────────────────────────────────────────────────
// Membership hooks
// ──────────────────────────────────────────────────

// OnMemberJoined implements plugin.OnMemberJoined.
func (m *MetricsExtension) OnMemberJoined(_ context.Context, _ types.Address) error {
	m.MembersJoined.Inc()
	return nil
}

// OnMemberBanned implements plugin.OnMemberBanned.
func (m *MetricsExtension) OnMemberBanned(_ context.Context, _ types.Address) error {
	m.MembersBanned.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Points hooks
// ──────────────────────────────────────────────────

// OnPointsEarned implements plugin.OnPointsEarned.
func (m *MetricsExtension) OnPointsEarned(_ context.Context, _ types.Address, amount types.Amount) error {
	m.PointsEarned.Inc()
	m.EarnedAmount.Observe(amount.Float64())
	return nil
}

// OnPointsAssigned implements plugin.OnPointsAssigned.
func (m *MetricsExtension) OnPointsAssigned(_ context.Context, _, _ types.Address, amount types.Amount) error {
	m.PointsAssigned.Inc()
	m.AssignedAmount.Observe(amount.Float64())
	return nil
}

// OnPointsTransferred implements plugin.OnPointsTransferred.
func (m *MetricsExtension) OnPointsTransferred(_ context.Context, _, _ types.Address, amount types.Amount) error {
	m.PointsTransferred.Inc()
	m.TransferredAmount.Observe(amount.Float64())
	return nil
}

// OnRewardRedeemed implements plugin.OnRewardRedeemed.
func (m *MetricsExtension) OnRewardRedeemed(_ context.Context, _ types.Address, _ int, cost types.Amount) error {
	m.RewardsRedeemed.Inc()
	m.RedeemedCost.Observe(cost.Float64())
	return nil
}

// ──────────────────────────────────────────────────
// Inbound hooks
// ──────────────────────────────────────────────────

// OnFundsReceived implements plugin.OnFundsReceived.
func (m *MetricsExtension) OnFundsReceived(_ context.Context, _ types.Address, value types.Amount) error {
	m.FundsReceived.Inc()
	m.FundsValue.Observe(value.Float64())
	return nil
}

// OnFallbackCalled implements plugin.OnFallbackCalled.
func (m *MetricsExtension) OnFallbackCalled(_ context.Context, _ types.Address, _ uint64) error {
	m.FallbackCalls.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Operation hooks
// ──────────────────────────────────────────────────

// OnOperationRejected implements plugin.OnOperationRejected. Rejections
// are counted in total and per reason.
func (m *MetricsExtension) OnOperationRejected(_ context.Context, _ string, _ types.Address, err error) error {
	m.OperationsRejected.Inc()
	m.counter(m.rejections, "points.operation.rejected.", points.Reason(err)).Inc()
	return nil
}

// OnOperationCommitted implements plugin.OnOperationCommitted.
func (m *MetricsExtension) OnOperationCommitted(_ context.Context, op string, _ types.Address, events int, elapsed time.Duration) error {
	m.OperationsCommitted.Inc()
	m.counter(m.byOp, "points.operation.committed.", op).Inc()
	m.CommitLatency.Observe(float64(elapsed.Microseconds()) / 1000)
	m.EventsPerCommit.Observe(float64(events))
	return nil
}

// counter returns the cached counter prefix+key, creating it on first use.
func (m *MetricsExtension) counter(cache map[string]Counter, prefix, key string) Counter {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := cache[key]
	if !ok {
		c = m.factory.Counter(prefix + key)
		cache[key] = c
	}
	return c
}

// KindCounter returns the counter that tracks notifications of kind k,
// or nil for an unknown kind.
func (m *MetricsExtension) KindCounter(k event.Kind) Counter {
	switch k {
	case event.KindMemberJoined:
		return m.MembersJoined
	case event.KindMemberBanned:
		return m.MembersBanned
	case event.KindPointsEarned:
		return m.PointsEarned
	case event.KindPointsAssigned:
		return m.PointsAssigned
	case event.KindPointsTransferred:
		return m.PointsTransferred
	case event.KindRewardRedeemed:
		return m.RewardsRedeemed
	case event.KindReceivedFunds:
		return m.FundsReceived
	default:
		return nil
	}
}
