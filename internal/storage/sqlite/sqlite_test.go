package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/zaman-app/zaman-cli/internal/models"
	"github.com/zaman-app/zaman-cli/internal/storage"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestSnapshotStore(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "cache", "aims.db")
	store, err := New(dbPath)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()

	t.Run("Load before any save returns ErrNoSnapshot", func(t *testing.T) {
		_, err := store.Load(ctx)
		if !errors.Is(err, storage.ErrNoSnapshot) {
			t.Errorf("expected ErrNoSnapshot, got %v", err)
		}
	})

	aims := []models.Aim{
		{ID: 3, UserID: 1, Title: "Trip", Description: "two weeks", TargetAmount: dec("1500"), CurrentAmount: dec("250.75")},
		{ID: 1, UserID: 1, Title: "Car", TargetAmount: dec("5000"), CurrentAmount: dec("5000"), IsCompleted: true},
	}

	t.Run("Save and Load round trip", func(t *testing.T) {
		if err := store.Save(ctx, aims); err != nil {
			t.Fatalf("Save failed: %v", err)
		}

		snap, err := store.Load(ctx)
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if snap.FetchedAt.IsZero() {
			t.Error("expected FetchedAt to be set")
		}
		if len(snap.Aims) != 2 {
			t.Fatalf("expected 2 aims, got %d", len(snap.Aims))
		}
		// Order is the backend's, not id order.
		if snap.Aims[0].ID != 3 || snap.Aims[1].ID != 1 {
			t.Errorf("snapshot order changed: %d, %d", snap.Aims[0].ID, snap.Aims[1].ID)
		}
		if !snap.Aims[0].CurrentAmount.Equal(dec("250.75")) {
			t.Errorf("current_amount = %s", snap.Aims[0].CurrentAmount)
		}
		if !snap.Aims[1].IsCompleted {
			t.Error("completion flag lost in round trip")
		}
	})

	t.Run("Save replaces the previous snapshot", func(t *testing.T) {
		if err := store.Save(ctx, aims[:1]); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		snap, err := store.Load(ctx)
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if len(snap.Aims) != 1 {
			t.Errorf("expected 1 aim after replace, got %d", len(snap.Aims))
		}
	})

	t.Run("Save of empty set keeps an empty snapshot", func(t *testing.T) {
		if err := store.Save(ctx, nil); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		snap, err := store.Load(ctx)
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if len(snap.Aims) != 0 {
			t.Errorf("expected empty snapshot, got %d aims", len(snap.Aims))
		}
	})
}

func TestSnapshotStorePersistsAcrossOpens(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "aims.db")
	ctx := context.Background()

	store, err := New(dbPath)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	if err := store.Save(ctx, []models.Aim{{ID: 1, Title: "Trip", TargetAmount: dec("100"), CurrentAmount: dec("10")}}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	store.Close()

	reopened, err := New(dbPath)
	if err != nil {
		t.Fatalf("Failed to reopen store: %v", err)
	}
	defer reopened.Close()

	snap, err := reopened.Load(ctx)
	if err != nil {
		t.Fatalf("Load after reopen failed: %v", err)
	}
	if len(snap.Aims) != 1 || snap.Aims[0].Title != "Trip" {
		t.Errorf("snapshot lost across opens: %+v", snap.Aims)
	}
}
