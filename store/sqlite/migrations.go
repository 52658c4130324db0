package sqlite

import (
	"context"

	"github.com/xraph/grove/migrate"

	// Registers the SQLite migration executor used by migrate.NewExecutorFor.
	_ "github.com/xraph/grove/drivers/sqlitedriver/sqlitemigrate"
)

// Migrations is the grove migration group for the points store (SQLite).
var Migrations = migrate.NewGroup("points")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_points_accounts",
			Version: "20250101000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS points_accounts (
    address        TEXT PRIMARY KEY,
    is_member      INTEGER NOT NULL DEFAULT 0,
    balance        TEXT NOT NULL DEFAULT '0',
    status         TEXT NOT NULL DEFAULT 'active',
    fallback_calls INTEGER NOT NULL DEFAULT 0,
    created_at     TIMESTAMP NOT NULL,
    updated_at     TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_points_accounts_created ON points_accounts (created_at, address);
CREATE INDEX IF NOT EXISTS idx_points_accounts_status ON points_accounts (status);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS points_accounts`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_points_events",
			Version: "20250101000002",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS points_events (
    id           TEXT PRIMARY KEY,
    operation_id TEXT NOT NULL,
    seq          INTEGER NOT NULL UNIQUE,
    kind         TEXT NOT NULL,
    account      TEXT NOT NULL,
    counterparty TEXT NOT NULL DEFAULT '',
    amount       TEXT NOT NULL DEFAULT '0',
    reward_index INTEGER NOT NULL DEFAULT 0,
    created_at   TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_points_events_account ON points_events (account, seq);
CREATE INDEX IF NOT EXISTS idx_points_events_counterparty ON points_events (counterparty, seq);
CREATE INDEX IF NOT EXISTS idx_points_events_kind ON points_events (kind, seq);
CREATE INDEX IF NOT EXISTS idx_points_events_operation ON points_events (operation_id);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS points_events`)
				return err
			},
		},
	)
}
