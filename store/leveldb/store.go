// Package leveldb implements store.Store on an embedded LevelDB database.
//
// Layout:
//
//	acct:<lower-case hex address>  JSON account record
//	evt:<%020d seq>                JSON journal entry
//	meta:last_seq                  big-endian uint64
//
// Every Commit is a single leveldb.Batch write.
package leveldb

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	goleveldb "github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"

	points "github.com/xraph/points"
	"github.com/xraph/points/account"
	"github.com/xraph/points/event"
	pointsstore "github.com/xraph/points/store"
	"github.com/xraph/points/types"
)

const (
	accountKeyPrefix = "acct:"
	eventKeyPrefix   = "evt:"
	lastSeqKey       = "meta:last_seq"
)

// compile-time interface check
var _ pointsstore.Store = (*Store)(nil)

// Store implements store.Store on LevelDB.
type Store struct {
	db *goleveldb.DB

	// commitMu serializes the read-validate-write of Commit.
	commitMu sync.Mutex
}

// Open opens (or creates) a LevelDB database at path.
func Open(path string) (*Store, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil, fmt.Errorf("points/leveldb: path required")
	}
	abs, err := filepath.Abs(trimmed)
	if err != nil {
		return nil, fmt.Errorf("points/leveldb: resolve path: %w", err)
	}
	db, err := goleveldb.OpenFile(abs, nil)
	if err != nil {
		return nil, fmt.Errorf("points/leveldb: open: %w", err)
	}
	return &Store{db: db}, nil
}

// Migrate is a no-op; the key layout needs no schema.
func (s *Store) Migrate(_ context.Context) error { return nil }

// Ping reports whether the database is open.
func (s *Store) Ping(_ context.Context) error {
	if _, err := s.db.GetProperty("leveldb.num-files-at-level0"); err != nil {
		return mapErr(err)
	}
	return nil
}

// Close releases the underlying LevelDB resources.
func (s *Store) Close() error {
	return s.db.Close()
}

// ==================== Account Store ====================

func (s *Store) GetAccount(_ context.Context, addr types.Address) (*account.Account, error) {
	raw, err := s.db.Get(accountKey(addr), nil)
	switch {
	case errors.Is(err, goleveldb.ErrNotFound):
		return account.New(addr), nil
	case err != nil:
		return nil, fmt.Errorf("points/leveldb: get account: %w", mapErr(err))
	}
	a := new(account.Account)
	if err := json.Unmarshal(raw, a); err != nil {
		return nil, fmt.Errorf("points/leveldb: decode account: %w", err)
	}
	return a, nil
}

func (s *Store) ListAccounts(ctx context.Context, opts account.ListOpts) ([]*account.Account, error) {
	iter := s.db.NewIterator(util.BytesPrefix([]byte(accountKeyPrefix)), nil)
	defer iter.Release()

	result := make([]*account.Account, 0)
	for iter.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		a := new(account.Account)
		if err := json.Unmarshal(iter.Value(), a); err != nil {
			return nil, fmt.Errorf("points/leveldb: decode account %q: %w", iter.Key(), err)
		}
		if opts.Match(a) {
			result = append(result, a)
		}
	}
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("points/leveldb: iterate accounts: %w", mapErr(err))
	}

	sort.SliceStable(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].Address.Cmp(result[j].Address) < 0
	})

	start := min(opts.Offset, len(result))
	end := len(result)
	if opts.Limit > 0 && opts.Limit < end-start {
		end = start + opts.Limit
	}
	return result[start:end], nil
}

// ==================== Event Store ====================

func (s *Store) ListEvents(ctx context.Context, opts event.ListOpts) ([]*event.Event, error) {
	iter := s.db.NewIterator(util.BytesPrefix([]byte(eventKeyPrefix)), nil)
	defer iter.Release()

	result := make([]*event.Event, 0)
	skipped := 0
	for ok := iter.Seek(eventKey(opts.AfterSeq + 1)); ok; ok = iter.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		e := new(event.Event)
		if err := json.Unmarshal(iter.Value(), e); err != nil {
			return nil, fmt.Errorf("points/leveldb: decode event %q: %w", iter.Key(), err)
		}
		if !opts.Match(e) {
			continue
		}
		if skipped < opts.Offset {
			skipped++
			continue
		}
		result = append(result, e)
		if opts.Limit > 0 && len(result) == opts.Limit {
			break
		}
	}
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("points/leveldb: iterate events: %w", mapErr(err))
	}
	return result, nil
}

func (s *Store) LastEventSeq(_ context.Context) (uint64, error) {
	return s.lastSeq()
}

func (s *Store) lastSeq() (uint64, error) {
	raw, err := s.db.Get([]byte(lastSeqKey), nil)
	switch {
	case errors.Is(err, goleveldb.ErrNotFound):
		return 0, nil
	case err != nil:
		return 0, fmt.Errorf("points/leveldb: last event seq: %w", mapErr(err))
	case len(raw) != 8:
		return 0, fmt.Errorf("points/leveldb: corrupt last seq (%d bytes)", len(raw))
	}
	return binary.BigEndian.Uint64(raw), nil
}

// ==================== Commit ====================

// Commit encodes the whole batch first and writes it with one atomic
// leveldb.Batch.
func (s *Store) Commit(ctx context.Context, b *pointsstore.Batch) error {
	if b.Empty() {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.commitMu.Lock()
	defer s.commitMu.Unlock()

	batch := new(goleveldb.Batch)

	if len(b.Events) > 0 {
		last, err := s.lastSeq()
		if err != nil {
			return err
		}
		if seq, stale := b.StaleSeq(last); stale {
			return fmt.Errorf("points/leveldb: %w: seq %d after %d", points.ErrSequenceConflict, seq, last)
		}
		for _, e := range b.Events {
			raw, err := json.Marshal(e)
			if err != nil {
				return fmt.Errorf("points/leveldb: encode event %d: %w", e.Seq, err)
			}
			batch.Put(eventKey(e.Seq), raw)
		}
		batch.Put([]byte(lastSeqKey), encodeSeq(b.LastSeq()))
	}

	for _, a := range b.Accounts {
		raw, err := json.Marshal(a)
		if err != nil {
			return fmt.Errorf("points/leveldb: encode account: %w", err)
		}
		batch.Put(accountKey(a.Address), raw)
	}

	if err := s.db.Write(batch, nil); err != nil {
		return fmt.Errorf("points/leveldb: %w: %w", points.ErrTransactionFailed, mapErr(err))
	}
	return nil
}

// ==================== Helpers ====================

func accountKey(addr types.Address) []byte {
	return []byte(accountKeyPrefix + strings.ToLower(addr.Hex()))
}

func eventKey(seq uint64) []byte {
	return []byte(fmt.Sprintf("%s%020d", eventKeyPrefix, seq))
}

func encodeSeq(seq uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, seq)
	return buf
}

// mapErr translates goleveldb's closed error into the ledger's sentinel.
func mapErr(err error) error {
	if errors.Is(err, goleveldb.ErrClosed) {
		return points.ErrStoreClosed
	}
	return err
}
