package observability_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	points "github.com/xraph/points"
	"github.com/xraph/points/event"
	"github.com/xraph/points/observability"
	"github.com/xraph/points/store/memory"
	"github.com/xraph/points/types"
)

var (
	owner = types.MustParseAddress("0x0000000000000000000000000000000000000001")
	alice = types.MustParseAddress("0x00000000000000000000000000000000000000a1")
	bob   = types.MustParseAddress("0x00000000000000000000000000000000000000b2")
)

type fakeCounter struct {
	mu sync.Mutex
	v  float64
}

func (c *fakeCounter) Inc() { c.Add(1) }

func (c *fakeCounter) Add(v float64) {
	c.mu.Lock()
	c.v += v
	c.mu.Unlock()
}

func (c *fakeCounter) value() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.v
}

type fakeHistogram struct {
	mu  sync.Mutex
	obs []float64
}

func (h *fakeHistogram) Observe(v float64) {
	h.mu.Lock()
	h.obs = append(h.obs, v)
	h.mu.Unlock()
}

type fakeFactory struct {
	counters   map[string]*fakeCounter
	histograms map[string]*fakeHistogram
}

func newFakeFactory() *fakeFactory {
	return &fakeFactory{
		counters:   make(map[string]*fakeCounter),
		histograms: make(map[string]*fakeHistogram),
	}
}

func (f *fakeFactory) Counter(name string) observability.Counter {
	c, ok := f.counters[name]
	if !ok {
		c = &fakeCounter{}
		f.counters[name] = c
	}
	return c
}

func (f *fakeFactory) Histogram(name string) observability.Histogram {
	h, ok := f.histograms[name]
	if !ok {
		h = &fakeHistogram{}
		f.histograms[name] = h
	}
	return h
}

func (f *fakeFactory) count(name string) float64 {
	c, ok := f.counters[name]
	if !ok {
		return 0
	}
	return c.value()
}

func TestMetricsExtensionCountsLedgerActivity(t *testing.T) {
	ctx := context.Background()
	factory := newFakeFactory()
	ext := observability.NewMetricsExtension(factory)

	l := points.New(memory.New(), owner,
		points.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		points.WithPlugin(ext),
	)
	if err := l.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer l.Stop()

	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatal(err)
		}
	}
	must(l.JoinAsMember(ctx, alice))
	must(l.JoinAsMember(ctx, bob))
	must(l.AssignPoints(ctx, owner, alice, types.NewAmount(600)))
	must(l.EarnPoints(ctx, alice, types.NewAmount(40)))
	must(l.TransferPoints(ctx, alice, bob, types.NewAmount(100)))
	must(l.RedeemReward(ctx, alice, 1))
	must(l.OnPlainTransfer(ctx, bob, types.NewAmount(5)))
	must(l.OnDataTransfer(ctx, bob, types.Amount{}, []byte{1}))
	must(l.BanAccount(ctx, owner, bob))

	_ = l.EarnPoints(ctx, bob, types.NewAmount(1))
	_ = l.JoinAsMember(ctx, alice)
	_ = l.RedeemReward(ctx, alice, 0)

	tests := []struct {
		name string
		want float64
	}{
		{"points.member.joined", 2},
		{"points.member.banned", 1},
		{"points.points.assigned", 1},
		{"points.points.earned", 1},
		{"points.points.transferred", 1},
		{"points.reward.redeemed", 1},
		{"points.funds.received", 1},
		{"points.fallback.calls", 1},
		{"points.operation.committed", 9},
		{"points.operation.committed.join_as_member", 2},
		{"points.operation.rejected", 3},
		{"points.operation.rejected.account_banned", 1},
		{"points.operation.rejected.already_member", 1},
		{"points.operation.rejected.insufficient_points", 1},
	}
	for _, tt := range tests {
		if got := factory.count(tt.name); got != tt.want {
			t.Errorf("%s = %v, want %v", tt.name, got, tt.want)
		}
	}

	if h := factory.histograms["points.reward.redeemed.cost"]; len(h.obs) != 1 || h.obs[0] != 500 {
		t.Errorf("redeemed cost observations = %v, want [500]", h.obs)
	}
	if h := factory.histograms["points.operation.latency_ms"]; len(h.obs) != 9 {
		t.Errorf("latency observations = %d, want 9", len(h.obs))
	}
}

func TestKindCounterCoversEveryKind(t *testing.T) {
	ext := observability.NewMetricsExtension(newFakeFactory())
	for _, k := range event.Kinds() {
		if ext.KindCounter(k) == nil {
			t.Errorf("no counter for %s", k)
		}
	}
	if ext.KindCounter(event.Kind("Unknown")) != nil {
		t.Error("unknown kind must have no counter")
	}
}
