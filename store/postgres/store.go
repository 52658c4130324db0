// Package postgres implements store.Store on PostgreSQL through the grove ORM.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/pgdriver"
	"github.com/xraph/grove/migrate"

	points "github.com/xraph/points"
	"github.com/xraph/points/account"
	"github.com/xraph/points/event"
	pointsstore "github.com/xraph/points/store"
	"github.com/xraph/points/types"
)

// compile-time interface check
var _ pointsstore.Store = (*Store)(nil)

// Store implements store.Store using PostgreSQL via Grove ORM.
type Store struct {
	db *grove.DB
	pg *pgdriver.PgDB
}

// New creates a new PostgreSQL store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db: db,
		pg: pgdriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates the required tables and indexes using the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.pg)
	if err != nil {
		return fmt.Errorf("points/postgres: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("points/postgres: %w: %w", points.ErrMigrationFailed, err)
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ==================== Account Store ====================

func (s *Store) GetAccount(ctx context.Context, addr types.Address) (*account.Account, error) {
	m := new(accountModel)
	err := s.pg.NewSelect(m).
		Where("address = $1", addressKey(addr)).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return account.New(addr), nil
		}
		return nil, fmt.Errorf("points/postgres: get account: %w", err)
	}
	return fromAccountModel(m)
}

func (s *Store) ListAccounts(ctx context.Context, opts account.ListOpts) ([]*account.Account, error) {
	var models []accountModel
	q := s.pg.NewSelect(&models)

	argIdx := 0
	if opts.Status != "" {
		argIdx++
		q = q.Where(fmt.Sprintf("status = $%d", argIdx), string(opts.Status))
	}
	if opts.MembersOnly {
		q = q.Where("is_member")
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("created_at ASC").OrderExpr("address ASC")

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("points/postgres: list accounts: %w", err)
	}

	result := make([]*account.Account, len(models))
	for i := range models {
		a, err := fromAccountModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = a
	}
	return result, nil
}

// ==================== Event Store ====================

func (s *Store) ListEvents(ctx context.Context, opts event.ListOpts) ([]*event.Event, error) {
	var models []eventModel
	q := s.pg.NewSelect(&models)

	argIdx := 0
	if opts.Account != nil {
		key := addressKey(*opts.Account)
		q = q.Where(fmt.Sprintf("(account = $%d OR (counterparty = $%d AND kind IN ($%d, $%d)))",
			argIdx+1, argIdx+2, argIdx+3, argIdx+4),
			key, key, string(event.KindPointsAssigned), string(event.KindPointsTransferred))
		argIdx += 4
	}
	if opts.Kind != "" {
		argIdx++
		q = q.Where(fmt.Sprintf("kind = $%d", argIdx), string(opts.Kind))
	}
	if opts.AfterSeq > 0 {
		argIdx++
		q = q.Where(fmt.Sprintf("seq > $%d", argIdx), int64(opts.AfterSeq)) //nolint:gosec // journal never reaches 2^63
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("seq ASC")

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("points/postgres: list events: %w", err)
	}

	result := make([]*event.Event, len(models))
	for i := range models {
		e, err := fromEventModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = e
	}
	return result, nil
}

func (s *Store) LastEventSeq(ctx context.Context) (uint64, error) {
	var last int64
	if err := s.pg.NewRaw(`SELECT COALESCE(MAX(seq), 0) FROM points_events`).Scan(ctx, &last); err != nil {
		return 0, fmt.Errorf("points/postgres: last event seq: %w", err)
	}
	return uint64(last), nil //nolint:gosec // seq is never negative
}

// ==================== Commit ====================

// Commit writes the batch in a single transaction. The events table is
// locked for the duration so concurrent writers cannot interleave sequences.
func (s *Store) Commit(ctx context.Context, b *pointsstore.Batch) error {
	if b.Empty() {
		return nil
	}

	tx, err := s.pg.BeginTxQuery(ctx, nil)
	if err != nil {
		return fmt.Errorf("points/postgres: %w: begin: %w", points.ErrTransactionFailed, err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if len(b.Events) > 0 {
		if _, err := tx.NewRaw(`LOCK TABLE points_events IN SHARE ROW EXCLUSIVE MODE`).Exec(ctx); err != nil {
			return fmt.Errorf("points/postgres: lock events: %w", err)
		}
		var last int64
		if err := tx.NewRaw(`SELECT COALESCE(MAX(seq), 0) FROM points_events`).Scan(ctx, &last); err != nil {
			return fmt.Errorf("points/postgres: read last seq: %w", err)
		}
		if seq, stale := b.StaleSeq(uint64(last)); stale { //nolint:gosec // seq is never negative
			return fmt.Errorf("points/postgres: %w: seq %d after %d", points.ErrSequenceConflict, seq, last)
		}
	}

	for _, a := range b.Accounts {
		_, err := tx.NewInsert(toAccountModel(a)).
			OnConflict("(address) DO UPDATE").
			Set("is_member = EXCLUDED.is_member").
			Set("balance = EXCLUDED.balance").
			Set("status = EXCLUDED.status").
			Set("fallback_calls = EXCLUDED.fallback_calls").
			Set("updated_at = EXCLUDED.updated_at").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("points/postgres: upsert account: %w", err)
		}
	}

	for _, e := range b.Events {
		if _, err := tx.NewInsert(toEventModel(e)).Exec(ctx); err != nil {
			return fmt.Errorf("points/postgres: append event %d: %w", e.Seq, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("points/postgres: %w: %w", points.ErrTransactionFailed, err)
	}
	return nil
}

// ==================== Helpers ====================

// isNoRows checks for the standard sql.ErrNoRows sentinel.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
