package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/Vankh007/tv4u-sub002/internal/models"
	"github.com/Vankh007/tv4u-sub002/internal/repository/memory"
)

func TestPruneIdleSessions(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store := memory.NewDeviceSessionStore()
	store.Now = func() time.Time { return base }

	seed := func(deviceID string) {
		if _, err := store.AdmitHeartbeat(context.Background(), models.DeviceSession{
			ID:        deviceID,
			AccountID: "acct-1",
			DeviceID:  deviceID,
		}, 10, time.Hour); err != nil {
			t.Fatalf("seed %s: %v", deviceID, err)
		}
	}

	seed("dev-old")
	store.Now = func() time.Time { return base.Add(40 * 24 * time.Hour) }
	seed("dev-fresh")

	s := NewScheduler(store, 30*24*time.Hour, zerolog.Nop())
	s.now = func() time.Time { return base.Add(40 * 24 * time.Hour) }
	s.pruneIdleSessions()

	active, err := store.ListActive(context.Background(), "acct-1", 365*24*time.Hour)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(active) != 1 || active[0].DeviceID != "dev-fresh" {
		t.Fatalf("expected only dev-fresh to survive pruning, got %d sessions", len(active))
	}
}
