package memory_test

import (
	"context"
	"errors"
	"testing"

	points "github.com/xraph/points"
	"github.com/xraph/points/account"
	"github.com/xraph/points/store"
	"github.com/xraph/points/store/memory"
	"github.com/xraph/points/store/storetest"
)

func TestConformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		return memory.New()
	})
}

func TestClosedStore(t *testing.T) {
	s := memory.New()
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	if _, err := s.GetAccount(ctx, storetest.Addr(1)); !errors.Is(err, points.ErrStoreClosed) {
		t.Errorf("GetAccount: got %v, want ErrStoreClosed", err)
	}
	if err := s.Commit(ctx, &store.Batch{Accounts: []*account.Account{account.New(storetest.Addr(1))}}); !errors.Is(err, points.ErrStoreClosed) {
		t.Errorf("Commit: got %v, want ErrStoreClosed", err)
	}
	if err := s.Ping(ctx); !errors.Is(err, points.ErrStoreClosed) {
		t.Errorf("Ping: got %v, want ErrStoreClosed", err)
	}
}

func TestReturnedRecordsAreCopies(t *testing.T) {
	s := memory.New()
	ctx := context.Background()

	a := account.New(storetest.Addr(1))
	a.IsMember = true
	if err := s.Commit(ctx, &store.Batch{Accounts: []*account.Account{a}}); err != nil {
		t.Fatal(err)
	}
	a.IsMember = false // mutate caller's copy after commit

	got, err := s.GetAccount(ctx, storetest.Addr(1))
	if err != nil {
		t.Fatal(err)
	}
	if !got.IsMember {
		t.Fatal("store kept a reference to the committed record")
	}
	got.Ban()

	again, _ := s.GetAccount(ctx, storetest.Addr(1))
	if again.IsBanned() {
		t.Fatal("store handed out its internal record")
	}
}
