package postgres_test

import (
	"context"
	"os"
	"testing"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/pgdriver"

	"github.com/xraph/points/store"
	"github.com/xraph/points/store/postgres"
	"github.com/xraph/points/store/storetest"
)

// Set POINTS_POSTGRES_DSN to run against a live server. Tables are
// truncated before every test.
func openStore(t *testing.T) *postgres.Store {
	t.Helper()
	dsn := os.Getenv("POINTS_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("POINTS_POSTGRES_DSN not set")
	}
	ctx := context.Background()

	drv := pgdriver.New()
	if err := drv.Open(ctx, dsn); err != nil {
		t.Fatalf("open postgres: %v", err)
	}
	db, err := grove.Open(drv)
	if err != nil {
		t.Fatalf("grove open: %v", err)
	}

	s := postgres.New(db)
	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if _, err := drv.NewRaw(`TRUNCATE points_accounts, points_events`).Exec(ctx); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	return s
}

func TestConformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		return openStore(t)
	})
}
