package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"time"

	"github.com/xraph/points/event"
	"github.com/xraph/points/types"
)

// DefaultHookTimeout bounds a single hook call.
const DefaultHookTimeout = 5 * time.Second

// Registry manages all registered plugins and provides efficient dispatch.
// It uses type-cached discovery for O(1) dispatch performance.
type Registry struct {
	mu      sync.RWMutex
	plugins []Plugin
	logger  *slog.Logger
	timeout time.Duration

	// Type-cached plugin lists for efficient dispatch
	onInit               []OnInit
	onShutdown           []OnShutdown
	onMemberJoined       []OnMemberJoined
	onMemberBanned       []OnMemberBanned
	onPointsEarned       []OnPointsEarned
	onPointsAssigned     []OnPointsAssigned
	onPointsTransferred  []OnPointsTransferred
	onRewardRedeemed     []OnRewardRedeemed
	onFundsReceived      []OnFundsReceived
	onFallbackCalled     []OnFallbackCalled
	onEventCommitted     []OnEventCommitted
	onOperationRejected  []OnOperationRejected
	onOperationCommitted []OnOperationCommitted
}

// NewRegistry creates a new plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		logger:  slog.Default(),
		timeout: DefaultHookTimeout,
	}
}

// WithLogger sets the logger for the registry.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.logger = logger
	return r
}

// WithTimeout sets the per-hook timeout.
func (r *Registry) WithTimeout(d time.Duration) *Registry {
	if d > 0 {
		r.timeout = d
	}
	return r
}

// Register adds a plugin to the registry and caches its interfaces.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Check for duplicate
	for _, existing := range r.plugins {
		if existing.Name() == p.Name() {
			return fmt.Errorf("plugin: duplicate registration: %s", p.Name())
		}
	}

	r.plugins = append(r.plugins, p)

	// Type-switch to cache interfaces
	if v, ok := p.(OnInit); ok {
		r.onInit = append(r.onInit, v)
	}
	if v, ok := p.(OnShutdown); ok {
		r.onShutdown = append(r.onShutdown, v)
	}
	if v, ok := p.(OnMemberJoined); ok {
		r.onMemberJoined = append(r.onMemberJoined, v)
	}
	if v, ok := p.(OnMemberBanned); ok {
		r.onMemberBanned = append(r.onMemberBanned, v)
	}
	if v, ok := p.(OnPointsEarned); ok {
		r.onPointsEarned = append(r.onPointsEarned, v)
	}
	if v, ok := p.(OnPointsAssigned); ok {
		r.onPointsAssigned = append(r.onPointsAssigned, v)
	}
	if v, ok := p.(OnPointsTransferred); ok {
		r.onPointsTransferred = append(r.onPointsTransferred, v)
	}
	if v, ok := p.(OnRewardRedeemed); ok {
		r.onRewardRedeemed = append(r.onRewardRedeemed, v)
	}
	if v, ok := p.(OnFundsReceived); ok {
		r.onFundsReceived = append(r.onFundsReceived, v)
	}
	if v, ok := p.(OnFallbackCalled); ok {
		r.onFallbackCalled = append(r.onFallbackCalled, v)
	}
	if v, ok := p.(OnEventCommitted); ok {
		r.onEventCommitted = append(r.onEventCommitted, v)
	}
	if v, ok := p.(OnOperationRejected); ok {
		r.onOperationRejected = append(r.onOperationRejected, v)
	}
	if v, ok := p.(OnOperationCommitted); ok {
		r.onOperationCommitted = append(r.onOperationCommitted, v)
	}

	r.logger.Info("plugin registered",
		"name", p.Name(),
		"interfaces", implementedInterfaces(p),
	)

	return nil
}

// implementedInterfaces returns the hook names implemented by the plugin.
func implementedInterfaces(p Plugin) []string {
	var interfaces []string
	v := reflect.TypeOf(p)

	checkInterface := func(iface reflect.Type, name string) {
		if v.Implements(iface) {
			interfaces = append(interfaces, name)
		}
	}

	checkInterface(reflect.TypeOf((*OnInit)(nil)).Elem(), "OnInit")
	checkInterface(reflect.TypeOf((*OnShutdown)(nil)).Elem(), "OnShutdown")
	checkInterface(reflect.TypeOf((*OnMemberJoined)(nil)).Elem(), "OnMemberJoined")
	checkInterface(reflect.TypeOf((*OnMemberBanned)(nil)).Elem(), "OnMemberBanned")
	checkInterface(reflect.TypeOf((*OnPointsEarned)(nil)).Elem(), "OnPointsEarned")
	checkInterface(reflect.TypeOf((*OnPointsAssigned)(nil)).Elem(), "OnPointsAssigned")
	checkInterface(reflect.TypeOf((*OnPointsTransferred)(nil)).Elem(), "OnPointsTransferred")
	checkInterface(reflect.TypeOf((*OnRewardRedeemed)(nil)).Elem(), "OnRewardRedeemed")
	checkInterface(reflect.TypeOf((*OnFundsReceived)(nil)).Elem(), "OnFundsReceived")
	checkInterface(reflect.TypeOf((*OnFallbackCalled)(nil)).Elem(), "OnFallbackCalled")
	checkInterface(reflect.TypeOf((*OnEventCommitted)(nil)).Elem(), "OnEventCommitted")
	checkInterface(reflect.TypeOf((*OnOperationRejected)(nil)).Elem(), "OnOperationRejected")
	checkInterface(reflect.TypeOf((*OnOperationCommitted)(nil)).Elem(), "OnOperationCommitted")

	return interfaces
}

// Get returns a plugin by name.
func (r *Registry) Get(name string) Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.plugins {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// List returns all registered plugins.
func (r *Registry) List() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Plugin, len(r.plugins))
	copy(result, r.plugins)
	return result
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// ──────────────────────────────────────────────────
// Event emission methods
// ──────────────────────────────────────────────────

// EmitInit calls OnInit for all plugins that implement it.
func (r *Registry) EmitInit(ctx context.Context, l any) {
	r.mu.RLock()
	plugins := r.onInit
	r.mu.RUnlock()

	for _, p := range plugins {
		r.call(ctx, p.Name(), "OnInit", func() error { return p.OnInit(ctx, l) })
	}
}

// EmitShutdown calls OnShutdown for all plugins that implement it.
func (r *Registry) EmitShutdown(ctx context.Context) {
	r.mu.RLock()
	plugins := r.onShutdown
	r.mu.RUnlock()

	for _, p := range plugins {
		r.call(ctx, p.Name(), "OnShutdown", func() error { return p.OnShutdown(ctx) })
	}
}

// EmitEvent delivers a committed journal entry to the kind-specific hook
// and then to every OnEventCommitted plugin.
func (r *Registry) EmitEvent(ctx context.Context, e *event.Event) {
	switch e.Kind {
	case event.KindMemberJoined:
		r.emitMemberJoined(ctx, e.Account)
	case event.KindPointsEarned:
		r.emitPointsEarned(ctx, e.Account, e.Amount)
	case event.KindPointsAssigned:
		r.emitPointsAssigned(ctx, e.Account, e.Counterparty, e.Amount)
	case event.KindPointsTransferred:
		r.emitPointsTransferred(ctx, e.Account, e.Counterparty, e.Amount)
	case event.KindRewardRedeemed:
		r.emitRewardRedeemed(ctx, e.Account, e.RewardIndex, e.Amount)
	case event.KindMemberBanned:
		r.emitMemberBanned(ctx, e.Account)
	case event.KindReceivedFunds:
		r.emitFundsReceived(ctx, e.Account, e.Amount)
	}

	r.mu.RLock()
	plugins := r.onEventCommitted
	r.mu.RUnlock()

	for _, p := range plugins {
		r.call(ctx, p.Name(), "OnEventCommitted", func() error { return p.OnEventCommitted(ctx, e) })
	}
}

func (r *Registry) emitMemberJoined(ctx context.Context, member types.Address) {
	r.mu.RLock()
	plugins := r.onMemberJoined
	r.mu.RUnlock()

	for _, p := range plugins {
		r.call(ctx, p.Name(), "OnMemberJoined", func() error { return p.OnMemberJoined(ctx, member) })
	}
}

func (r *Registry) emitMemberBanned(ctx context.Context, target types.Address) {
	r.mu.RLock()
	plugins := r.onMemberBanned
	r.mu.RUnlock()

	for _, p := range plugins {
		r.call(ctx, p.Name(), "OnMemberBanned", func() error { return p.OnMemberBanned(ctx, target) })
	}
}

func (r *Registry) emitPointsEarned(ctx context.Context, member types.Address, amount types.Amount) {
	r.mu.RLock()
	plugins := r.onPointsEarned
	r.mu.RUnlock()

	for _, p := range plugins {
		r.call(ctx, p.Name(), "OnPointsEarned", func() error { return p.OnPointsEarned(ctx, member, amount) })
	}
}

func (r *Registry) emitPointsAssigned(ctx context.Context, owner, target types.Address, amount types.Amount) {
	r.mu.RLock()
	plugins := r.onPointsAssigned
	r.mu.RUnlock()

	for _, p := range plugins {
		r.call(ctx, p.Name(), "OnPointsAssigned", func() error { return p.OnPointsAssigned(ctx, owner, target, amount) })
	}
}

func (r *Registry) emitPointsTransferred(ctx context.Context, from, to types.Address, amount types.Amount) {
	r.mu.RLock()
	plugins := r.onPointsTransferred
	r.mu.RUnlock()

	for _, p := range plugins {
		r.call(ctx, p.Name(), "OnPointsTransferred", func() error { return p.OnPointsTransferred(ctx, from, to, amount) })
	}
}

func (r *Registry) emitRewardRedeemed(ctx context.Context, member types.Address, index int, cost types.Amount) {
	r.mu.RLock()
	plugins := r.onRewardRedeemed
	r.mu.RUnlock()

	for _, p := range plugins {
		r.call(ctx, p.Name(), "OnRewardRedeemed", func() error { return p.OnRewardRedeemed(ctx, member, index, cost) })
	}
}

func (r *Registry) emitFundsReceived(ctx context.Context, sender types.Address, value types.Amount) {
	r.mu.RLock()
	plugins := r.onFundsReceived
	r.mu.RUnlock()

	for _, p := range plugins {
		r.call(ctx, p.Name(), "OnFundsReceived", func() error { return p.OnFundsReceived(ctx, sender, value) })
	}
}

// EmitFallbackCalled reports a counted data-carrying call.
func (r *Registry) EmitFallbackCalled(ctx context.Context, sender types.Address, calls uint64) {
	r.mu.RLock()
	plugins := r.onFallbackCalled
	r.mu.RUnlock()

	for _, p := range plugins {
		r.call(ctx, p.Name(), "OnFallbackCalled", func() error { return p.OnFallbackCalled(ctx, sender, calls) })
	}
}

// EmitOperationRejected reports a failed precondition.
func (r *Registry) EmitOperationRejected(ctx context.Context, op string, caller types.Address, opErr error) {
	r.mu.RLock()
	plugins := r.onOperationRejected
	r.mu.RUnlock()

	for _, p := range plugins {
		r.call(ctx, p.Name(), "OnOperationRejected", func() error { return p.OnOperationRejected(ctx, op, caller, opErr) })
	}
}

// EmitOperationCommitted reports a successful operation.
func (r *Registry) EmitOperationCommitted(ctx context.Context, op string, caller types.Address, events int, elapsed time.Duration) {
	r.mu.RLock()
	plugins := r.onOperationCommitted
	r.mu.RUnlock()

	for _, p := range plugins {
		r.call(ctx, p.Name(), "OnOperationCommitted", func() error {
			return p.OnOperationCommitted(ctx, op, caller, events, elapsed)
		})
	}
}

// call runs one hook and logs its failure.
func (r *Registry) call(ctx context.Context, pluginName, hook string, fn func() error) {
	if err := r.callWithTimeout(ctx, pluginName, fn); err != nil {
		r.logger.Warn("plugin "+hook+" failed",
			"plugin", pluginName,
			"error", err,
		)
	}
}

// callWithTimeout calls a plugin function with a timeout.
// Plugins should never block the ledger.
func (r *Registry) callWithTimeout(ctx context.Context, pluginName string, fn func() error) error {
	done := make(chan error, 1)

	go func() {
		done <- fn()
	}()

	timer := time.NewTimer(r.timeout)
	defer timer.Stop()

	select {
	case err := <-done:
		return err
	case <-timer.C:
		return fmt.Errorf("plugin timeout: %s", pluginName)
	case <-ctx.Done():
		return ctx.Err()
	}
}
