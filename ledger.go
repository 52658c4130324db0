package points

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/xraph/points/account"
	"github.com/xraph/points/event"
	"github.com/xraph/points/plugin"
	"github.com/xraph/points/reward"
	"github.com/xraph/points/store"
	"github.com/xraph/points/types"
)

// Operation names, used in logs, plugin hooks and metrics labels.
const (
	OpJoinAsMember   = "join_as_member"
	OpEarnPoints     = "earn_points"
	OpAssignPoints   = "assign_points"
	OpTransferPoints = "transfer_points"
	OpRedeemReward   = "redeem_reward"
	OpBanAccount     = "ban_account"
	OpPlainTransfer  = "plain_transfer"
	OpDataTransfer   = "data_transfer"
)

// Ledger is the membership-and-points engine. Every operation, reads
// included, runs under one mutex, so callers observe a total order.
type Ledger struct {
	mu sync.Mutex

	store   store.Store
	plugins *plugin.Registry
	logger  *slog.Logger

	owner   types.Address
	rewards reward.Table
	clock   func() time.Time

	// fallbackBanThreshold bans a sender whose FallbackCalls reaches it.
	// Zero disables the policy.
	fallbackBanThreshold uint64

	skipMigrate bool

	// lastSeq is the highest committed journal sequence, loaded lazily.
	lastSeq   uint64
	seqLoaded bool
}

// New creates a Ledger owned by owner. The owner is fixed for the
// lifetime of the Ledger.
func New(s store.Store, owner types.Address, opts ...Option) *Ledger {
	l := &Ledger{
		store:   s,
		plugins: plugin.NewRegistry(),
		logger:  slog.Default(),
		owner:   owner,
		rewards: reward.Default(),
		clock:   time.Now,
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Option configures a Ledger instance.
type Option func(*Ledger)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) {
		l.logger = logger
		l.plugins.WithLogger(logger)
	}
}

// WithPlugin registers a plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(l *Ledger) {
		_ = l.plugins.Register(p) //nolint:errcheck // best-effort plugin registration during init
	}
}

// WithHookTimeout bounds each plugin hook call.
func WithHookTimeout(d time.Duration) Option {
	return func(l *Ledger) {
		l.plugins.WithTimeout(d)
	}
}

// WithClock overrides the time source used for record timestamps.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		l.clock = now
	}
}

// WithFallbackBanThreshold bans a sender in the same commit as the
// data-carrying call that raises its FallbackCalls to n. Zero disables it.
func WithFallbackBanThreshold(n uint64) Option {
	return func(l *Ledger) {
		l.fallbackBanThreshold = n
	}
}

// WithSkipMigrate makes Start assume the schema already exists.
func WithSkipMigrate() Option {
	return func(l *Ledger) {
		l.skipMigrate = true
	}
}

// Start migrates the store, loads the journal position and initializes plugins.
func (l *Ledger) Start(ctx context.Context) error {
	if !l.skipMigrate {
		if err := l.store.Migrate(ctx); err != nil {
			return err
		}
	}

	l.mu.Lock()
	err := l.loadSeq(ctx)
	l.mu.Unlock()
	if err != nil {
		return err
	}

	l.plugins.EmitInit(ctx, l)

	l.logger.Info("points ledger started",
		"owner", l.owner.Hex(),
		"rewards", l.rewards.Len(),
		"last_seq", l.lastSeq,
		"fallback_ban_threshold", l.fallbackBanThreshold,
	)

	return nil
}

// Stop shuts down plugins and closes the store.
func (l *Ledger) Stop() error {
	ctx := context.Background()
	l.plugins.EmitShutdown(ctx)

	return l.store.Close()
}

// Owner returns the identity allowed to assign points and ban accounts.
func (l *Ledger) Owner() types.Address { return l.owner }

// RewardTiers returns the reward table.
func (l *Ledger) RewardTiers() reward.Table { return l.rewards }

// Plugins returns the plugin registry.
func (l *Ledger) Plugins() *plugin.Registry { return l.plugins }

// ──────────────────────────────────────────────────
// Membership
// ──────────────────────────────────────────────────

// JoinAsMember makes caller a member.
func (l *Ledger) JoinAsMember(ctx context.Context, caller types.Address) error {
	return l.execute(ctx, OpJoinAsMember, caller, func(tx *txn) error {
		acct, err := tx.active(caller)
		if err != nil {
			return err
		}
		if acct.IsMember {
			return &AlreadyMemberError{Account: caller}
		}

		acct.IsMember = true
		tx.write(acct)
		tx.emit(event.MemberJoined(caller))
		return nil
	})
}

// BanAccount latches target to banned. Only the owner may call it, and it
// is the one mutation that does not check whether the caller is banned.
// Banning an already-banned account succeeds and notifies again.
func (l *Ledger) BanAccount(ctx context.Context, caller, target types.Address) error {
	return l.execute(ctx, OpBanAccount, caller, func(tx *txn) error {
		if caller != l.owner {
			return &NotOwnerError{Caller: caller}
		}
		if err := requireAddress("target", target); err != nil {
			return err
		}

		acct, err := tx.load(target)
		if err != nil {
			return err
		}
		acct.Ban()
		tx.write(acct)
		tx.emit(event.MemberBanned(target))
		return nil
	})
}

// ──────────────────────────────────────────────────
// Points
// ──────────────────────────────────────────────────

// EarnPoints credits amount to the calling member.
func (l *Ledger) EarnPoints(ctx context.Context, caller types.Address, amount types.Amount) error {
	return l.execute(ctx, OpEarnPoints, caller, func(tx *txn) error {
		acct, err := tx.activeMember(caller)
		if err != nil {
			return err
		}
		if err := credit(acct, amount); err != nil {
			return err
		}

		tx.write(acct)
		tx.emit(event.PointsEarned(caller, amount))
		return nil
	})
}

// AssignPoints lets the owner credit amount to a member.
func (l *Ledger) AssignPoints(ctx context.Context, caller, target types.Address, amount types.Amount) error {
	return l.execute(ctx, OpAssignPoints, caller, func(tx *txn) error {
		if _, err := tx.active(caller); err != nil {
			return err
		}
		if caller != l.owner {
			return &NotOwnerError{Caller: caller}
		}
		if err := requireAddress("target", target); err != nil {
			return err
		}

		acct, err := tx.member(target)
		if err != nil {
			return err
		}
		if err := credit(acct, amount); err != nil {
			return err
		}

		tx.write(acct)
		tx.emit(event.PointsAssigned(l.owner, target, amount))
		return nil
	})
}

// TransferPoints moves amount from the calling member to another member.
// A transfer to self leaves the balance unchanged and still notifies.
func (l *Ledger) TransferPoints(ctx context.Context, caller, target types.Address, amount types.Amount) error {
	return l.execute(ctx, OpTransferPoints, caller, func(tx *txn) error {
		from, err := tx.activeMember(caller)
		if err != nil {
			return err
		}
		if err := requireAddress("target", target); err != nil {
			return err
		}
		to, err := tx.member(target)
		if err != nil {
			return err
		}
		if err := debit(from, amount); err != nil {
			return err
		}
		if err := credit(to, amount); err != nil {
			return err
		}

		tx.write(from)
		tx.write(to)
		tx.emit(event.PointsTransferred(caller, target, amount))
		return nil
	})
}

// ──────────────────────────────────────────────────
// Rewards
// ──────────────────────────────────────────────────

// PointsRequiredForRewards returns the cost of reward index.
func (l *Ledger) PointsRequiredForRewards(index int) (types.Amount, error) {
	cost, ok := l.rewards.Cost(index)
	if !ok {
		return types.Amount{}, &InvalidRewardError{Index: index}
	}
	return cost, nil
}

// RedeemReward spends the cost of reward index from caller's balance.
func (l *Ledger) RedeemReward(ctx context.Context, caller types.Address, index int) error {
	return l.execute(ctx, OpRedeemReward, caller, func(tx *txn) error {
		acct, err := tx.active(caller)
		if err != nil {
			return err
		}
		cost, err := l.PointsRequiredForRewards(index)
		if err != nil {
			return err
		}
		if err := debit(acct, cost); err != nil {
			return err
		}

		tx.write(acct)
		tx.emit(event.RewardRedeemed(caller, index, cost))
		return nil
	})
}

// ──────────────────────────────────────────────────
// Inbound transfers
// ──────────────────────────────────────────────────

// OnPlainTransfer acknowledges value sent without data. It changes no
// balance and notifies only when value is non-zero.
func (l *Ledger) OnPlainTransfer(ctx context.Context, sender types.Address, value types.Amount) error {
	return l.execute(ctx, OpPlainTransfer, sender, func(tx *txn) error {
		if _, err := tx.active(sender); err != nil {
			return err
		}
		if value.IsPositive() {
			tx.emit(event.ReceivedFunds(sender, value))
		}
		return nil
	})
}

// OnDataTransfer handles a call that carries data. It counts the call
// against the sender and notifies when value is non-zero. The payload is
// not interpreted.
func (l *Ledger) OnDataTransfer(ctx context.Context, sender types.Address, value types.Amount, payload []byte) error {
	return l.execute(ctx, OpDataTransfer, sender, func(tx *txn) error {
		acct, err := tx.active(sender)
		if err != nil {
			return err
		}

		acct.FallbackCalls++
		tx.write(acct)
		tx.fallbackCall(sender, acct.FallbackCalls)
		if value.IsPositive() {
			tx.emit(event.ReceivedFunds(sender, value))
		}

		if l.fallbackBanThreshold > 0 && acct.FallbackCalls >= l.fallbackBanThreshold {
			acct.Ban()
			tx.emit(event.MemberBanned(sender))
			l.logger.Info("fallback threshold reached, sender banned",
				"sender", sender.Hex(),
				"calls", acct.FallbackCalls,
				"payload_bytes", len(payload),
			)
		}
		return nil
	})
}

// ──────────────────────────────────────────────────
// Reads
// ──────────────────────────────────────────────────

// GetMyBalance returns the caller's balance.
func (l *Ledger) GetMyBalance(ctx context.Context, caller types.Address) (types.Amount, error) {
	return l.BalanceOf(ctx, caller)
}

// BalanceOf returns the balance of identity; unknown identities have zero.
func (l *Ledger) BalanceOf(ctx context.Context, identity types.Address) (types.Amount, error) {
	acct, err := l.Account(ctx, identity)
	if err != nil {
		return types.Amount{}, err
	}
	return acct.Balance, nil
}

// Account returns the full record of addr, or a zero record.
func (l *Ledger) Account(ctx context.Context, addr types.Address) (*account.Account, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	acct, err := l.store.GetAccount(ctx, addr)
	if err != nil {
		return nil, fmt.Errorf("points: get account: %w", err)
	}
	return acct, nil
}

// ListAccounts returns persisted accounts ordered by creation.
func (l *Ledger) ListAccounts(ctx context.Context, opts account.ListOpts) ([]*account.Account, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	accts, err := l.store.ListAccounts(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("points: list accounts: %w", err)
	}
	return accts, nil
}

// Events returns journal entries in commit order.
func (l *Ledger) Events(ctx context.Context, opts event.ListOpts) ([]*event.Event, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	evs, err := l.store.ListEvents(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("points: list events: %w", err)
	}
	return evs, nil
}

// ──────────────────────────────────────────────────
// Balance arithmetic
// ──────────────────────────────────────────────────

func credit(a *account.Account, amount types.Amount) error {
	sum, overflow := a.Balance.Add(amount)
	if overflow {
		return fmt.Errorf("points: credit %s to %s: %w", amount, a.Address.Hex(), ErrAmountOverflow)
	}
	a.Balance = sum
	return nil
}

func debit(a *account.Account, amount types.Amount) error {
	if a.Balance.LessThan(amount) {
		return &InsufficientPointsError{Balance: a.Balance, Requested: amount}
	}
	a.Balance, _ = a.Balance.Sub(amount)
	return nil
}
