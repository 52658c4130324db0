// Package mongo implements store.Store on MongoDB through the grove ORM.
// Commit uses a multi-document transaction, so the server must run as a
// replica set.
package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"

	points "github.com/xraph/points"
	"github.com/xraph/points/account"
	"github.com/xraph/points/event"
	pointsstore "github.com/xraph/points/store"
	"github.com/xraph/points/types"
)

// Collection name constants.
const (
	colAccounts = "points_accounts"
	colEvents   = "points_events"
)

// compile-time interface check
var _ pointsstore.Store = (*Store)(nil)

// Store implements store.Store using MongoDB via Grove ORM.
type Store struct {
	db  *grove.DB
	mdb *mongodriver.MongoDB
}

// New creates a new MongoDB store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		mdb: mongodriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates indexes for all points collections.
func (s *Store) Migrate(ctx context.Context) error {
	indexes := migrationIndexes()

	for col, models := range indexes {
		if len(models) == 0 {
			continue
		}
		_, err := s.mdb.Collection(col).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("points/mongo: %w: %s indexes: %w", points.ErrMigrationFailed, col, err)
		}
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
	var m accountModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": addressKey(addr)}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return account.New(addr), nil
		}
		return nil, fmt.Errorf("points/mongo: get account: %w", err)
	}
	return fromAccountModel(&m)
}

func (s *Store) ListAccounts(ctx context.Context, opts account.ListOpts) ([]*account.Account, error) {
	var models []accountModel

	filter := bson.M{}
	if opts.Status != "" {
		filter["status"] = string(opts.Status)
	}
	if opts.MembersOnly {
		filter["is_member"] = true
	}

	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("points/mongo: list accounts: %w", err)
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

	filter := bson.M{}
	if opts.Account != nil {
		key := addressKey(*opts.Account)
		filter["$or"] = bson.A{
			bson.M{"account": key},
			bson.M{
				"counterparty": key,
				"kind": bson.M{"$in": bson.A{
					string(event.KindPointsAssigned),
					string(event.KindPointsTransferred),
				}},
			},
		}
	}
	if opts.Kind != "" {
		filter["kind"] = string(opts.Kind)
	}
	if opts.AfterSeq > 0 {
		filter["seq"] = bson.M{"$gt": int64(opts.AfterSeq)} //nolint:gosec // journal never reaches 2^63
	}

	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "seq", Value: 1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("points/mongo: list events: %w", err)
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
	return lastSeq(ctx, s.mdb.NewFind)
}

// lastSeq reads the highest seq through find, which is either the pool or
// a transaction's query builder.
func lastSeq(ctx context.Context, find func(model ...any) *mongodriver.FindQuery) (uint64, error) {
	var models []eventModel
	err := find(&models).
		Sort(bson.D{{Key: "seq", Value: -1}}).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return 0, fmt.Errorf("points/mongo: last event seq: %w", err)
	}
	if len(models) == 0 {
		return 0, nil
	}
	return uint64(models[0].Seq), nil //nolint:gosec // seq is never negative
}

// ==================== Commit ====================

// Commit writes the batch in a single multi-document transaction.
func (s *Store) Commit(ctx context.Context, b *pointsstore.Batch) error {
	if b.Empty() {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	gtx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("points/mongo: %w: begin: %w", points.ErrTransactionFailed, err)
	}
	tx, ok := gtx.Raw().(*mongodriver.MongoTx)
	if !ok {
		_ = gtx.Rollback()
		return fmt.Errorf("points/mongo: %w: unexpected transaction type %T", points.ErrTransactionFailed, gtx.Raw())
	}

	if err := s.apply(ctx, tx, b); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("points/mongo: %w: %w", points.ErrTransactionFailed, err)
	}
	return nil
}

func (s *Store) apply(ctx context.Context, tx *mongodriver.MongoTx, b *pointsstore.Batch) error {
	if len(b.Events) > 0 {
		last, err := lastSeq(ctx, tx.NewFind)
		if err != nil {
			return err
		}
		if seq, stale := b.StaleSeq(last); stale {
			return fmt.Errorf("points/mongo: %w: seq %d after %d", points.ErrSequenceConflict, seq, last)
		}
	}

	for _, a := range b.Accounts {
		m := toAccountModel(a)
		_, err := tx.NewUpdate(m).
			Filter(bson.M{"_id": m.Address}).
			SetUpdate(bson.M{
				"$set": bson.M{
					"is_member":      m.IsMember,
					"balance":        m.Balance,
					"status":         m.Status,
					"fallback_calls": m.FallbackCalls,
					"updated_at":     m.UpdatedAt,
				},
				"$setOnInsert": bson.M{"created_at": m.CreatedAt},
			}).
			Upsert().
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("points/mongo: upsert account: %w", err)
		}
	}

	for _, e := range b.Events {
		if _, err := tx.NewInsert(toEventModel(e)).Exec(ctx); err != nil {
			return fmt.Errorf("points/mongo: append event %d: %w", e.Seq, err)
		}
	}
	return nil
}

// ==================== Helpers ====================

// isNoDocuments checks if an error wraps mongo.ErrNoDocuments.
func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// migrationIndexes returns the index definitions for all points collections.
func migrationIndexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		colAccounts: {
			{Keys: bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}},
			{Keys: bson.D{{Key: "status", Value: 1}}},
		},
		colEvents: {
			{
				Keys:    bson.D{{Key: "seq", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "account", Value: 1}, {Key: "seq", Value: 1}}},
			{Keys: bson.D{{Key: "counterparty", Value: 1}, {Key: "seq", Value: 1}}},
			{Keys: bson.D{{Key: "kind", Value: 1}, {Key: "seq", Value: 1}}},
			{Keys: bson.D{{Key: "operation_id", Value: 1}}},
		},
	}
}
