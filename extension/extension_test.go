package extension

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	points "github.com/xraph/points"
	"github.com/xraph/points/store/memory"
	"github.com/xraph/points/types"
)

func TestMergeWithDefaults(t *testing.T) {
	e := New()
	got := e.mergeWithDefaults(Config{Owner: "0x01"})

	want := DefaultConfig()
	if got.BasePath != want.BasePath {
		t.Errorf("BasePath = %q, want %q", got.BasePath, want.BasePath)
	}
	if got.Driver != DriverMemory {
		t.Errorf("Driver = %q, want %q", got.Driver, DriverMemory)
	}
	if got.HookTimeout != 5*time.Second {
		t.Errorf("HookTimeout = %v, want 5s", got.HookTimeout)
	}
	if got.Identity != IdentityHeader {
		t.Errorf("Identity = %q, want %q", got.Identity, IdentityHeader)
	}
	if got.Owner != "0x01" {
		t.Errorf("Owner = %q, want it kept", got.Owner)
	}
}

func TestMergeConfigurations(t *testing.T) {
	e := New()
	file := Config{
		BasePath:             "/loyalty",
		Driver:               DriverLevelDB,
		DSN:                  "/var/lib/points",
		FallbackBanThreshold: 3,
	}
	prog := Config{
		Owner:                "0x01",
		BasePath:             "/ignored",
		DisableRoutes:        true,
		FallbackBanThreshold: 9,
		HookTimeout:          time.Second,
		JWTSecret:            "s3cret",
	}

	got := e.mergeConfigurations(file, prog)

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"file base path wins", got.BasePath, "/loyalty"},
		{"file driver wins", got.Driver, DriverLevelDB},
		{"file dsn wins", got.DSN, "/var/lib/points"},
		{"file threshold wins", got.FallbackBanThreshold, uint64(3)},
		{"owner filled from options", got.Owner, "0x01"},
		{"secret filled from options", got.JWTSecret, "s3cret"},
		{"hook timeout filled from options", got.HookTimeout, time.Second},
		{"disable routes latched", got.DisableRoutes, true},
		{"identity defaulted", got.Identity, IdentityHeader},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %v, want %v", tt.got, tt.want)
			}
		})
	}
}

func TestOptions(t *testing.T) {
	s := memory.New()
	e := New(
		WithStore(s),
		WithOwner("0x01"),
		WithBasePath("/p"),
		WithDriver(DriverSQLite, "points.db"),
		WithFallbackBanThreshold(4),
		WithDisableRoutes(),
		WithDisableMigrate(),
		WithGroveDatabase("primary"),
	)

	if e.store != s {
		t.Error("WithStore not applied")
	}
	cfg := e.Config()
	if cfg.Owner != "0x01" || cfg.BasePath != "/p" {
		t.Errorf("owner/base path = %q/%q", cfg.Owner, cfg.BasePath)
	}
	if cfg.Driver != DriverSQLite || cfg.DSN != "points.db" {
		t.Errorf("driver/dsn = %q/%q", cfg.Driver, cfg.DSN)
	}
	if cfg.FallbackBanThreshold != 4 {
		t.Errorf("FallbackBanThreshold = %d, want 4", cfg.FallbackBanThreshold)
	}
	if !cfg.DisableRoutes || !cfg.DisableMigrate {
		t.Error("disable flags not applied")
	}
	if !e.useGrove || cfg.GroveDatabase != "primary" {
		t.Error("WithGroveDatabase not applied")
	}
	if e.Engine() != nil {
		t.Error("Engine should be nil before Register")
	}
}

func TestResolveStorePrefersProgrammatic(t *testing.T) {
	s := memory.New()
	e := New(WithStore(s), WithDriver(DriverLevelDB, "unused"))

	got, source, err := e.resolveStore(context.Background())
	if err != nil {
		t.Fatalf("resolveStore: %v", err)
	}
	if got != s || source != "programmatic" {
		t.Errorf("resolveStore = %T/%q, want the programmatic store", got, source)
	}
}

func TestOpenStore(t *testing.T) {
	ctx := context.Background()

	t.Run("memory by default", func(t *testing.T) {
		s, err := OpenStore(ctx, "", "")
		if err != nil {
			t.Fatalf("OpenStore: %v", err)
		}
		if _, ok := s.(*memory.Store); !ok {
			t.Errorf("got %T, want *memory.Store", s)
		}
	})

	t.Run("leveldb", func(t *testing.T) {
		s, err := OpenStore(ctx, DriverLevelDB, filepath.Join(t.TempDir(), "points"))
		if err != nil {
			t.Fatalf("OpenStore: %v", err)
		}
		defer s.Close()
		if err := s.Ping(ctx); err != nil {
			t.Errorf("Ping: %v", err)
		}
	})

	t.Run("missing dsn", func(t *testing.T) {
		_, err := OpenStore(ctx, DriverPostgres, "")
		if err == nil || !strings.Contains(err.Error(), "requires a dsn") {
			t.Errorf("err = %v, want dsn error", err)
		}
	})

	t.Run("unknown driver", func(t *testing.T) {
		_, err := OpenStore(ctx, "cassandra", "x")
		if err == nil || !strings.Contains(err.Error(), "unknown store driver") {
			t.Errorf("err = %v, want unknown driver error", err)
		}
	})
}

func TestMetricsPlugin(t *testing.T) {
	t.Run("forge sink without app metrics", func(t *testing.T) {
		p, err := New().metricsPlugin(nil)
		if err != nil || p != nil {
			t.Fatalf("metricsPlugin = %v, %v; want nil, nil", p, err)
		}
	})

	t.Run("unknown sink", func(t *testing.T) {
		_, err := New(WithMetrics("statsd")).metricsPlugin(nil)
		if err == nil || !strings.Contains(err.Error(), "unknown metrics sink") {
			t.Fatalf("err = %v, want unknown sink error", err)
		}
	})

	t.Run("prometheus sink records ledger activity", func(t *testing.T) {
		e := New(WithMetrics(MetricsPrometheus))
		p, err := e.metricsPlugin(nil)
		if err != nil || p == nil {
			t.Fatalf("metricsPlugin = %v, %v", p, err)
		}

		ctx := context.Background()
		quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
		owner := types.MustParseAddress("0x0000000000000000000000000000000000000001")
		member := types.MustParseAddress("0x00000000000000000000000000000000000000a1")
		l := points.New(memory.New(), owner, points.WithLogger(quiet), points.WithPlugin(p))
		if err := l.Start(ctx); err != nil {
			t.Fatalf("Start: %v", err)
		}
		defer l.Stop()

		if err := l.JoinAsMember(ctx, member); err != nil {
			t.Fatalf("JoinAsMember: %v", err)
		}
		joined, ok := p.MembersJoined.(prometheus.Counter)
		if !ok {
			t.Fatalf("MembersJoined is %T, want a prometheus.Counter", p.MembersJoined)
		}
		if got := testutil.ToFloat64(joined); got != 1 {
			t.Errorf("joined = %v, want 1", got)
		}
		if n, err := testutil.GatherAndCount(e.Registry(), "points_member_joined_total"); err != nil || n != 1 {
			t.Errorf("registry series = %d, %v; want 1", n, err)
		}
	})
}
