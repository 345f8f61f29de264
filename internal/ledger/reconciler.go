package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/zaman-app/zaman-cli/internal/metrics"
	"github.com/zaman-app/zaman-cli/internal/models"
)

// Reconciler merges authoritative backend records into the store without ever
// demoting a completed aim back to in-progress.
//
// Each reconciliation takes a per-aim sequence number at issue time. Responses
// can arrive out of order from the network; a response whose sequence is older
// than the last one applied for that aim is discarded, so a stale fetch can
// never overwrite newer amounts.
type Reconciler struct {
	store   *Store
	backend Backend

	mu      sync.Mutex
	issued  map[int64]uint64
	applied map[int64]uint64
}

// NewReconciler creates a reconciler over the given store and backend.
func NewReconciler(store *Store, backend Backend) *Reconciler {
	return &Reconciler{
		store:   store,
		backend: backend,
		issued:  make(map[int64]uint64),
		applied: make(map[int64]uint64),
	}
}

// Reconcile fetches the authoritative record for aimID and merges it into the
// store. Merging is idempotent: reconciling an unchanged server record twice
// leaves the store identical.
//
// A failed fetch is non-fatal for the store, which keeps its last (possibly
// optimistic) record; the error is returned so the caller can surface it.
func (r *Reconciler) Reconcile(ctx context.Context, aimID int64) error {
	r.mu.Lock()
	r.issued[aimID]++
	seq := r.issued[aimID]
	r.mu.Unlock()

	server, err := r.backend.GetAim(ctx, aimID)
	if err != nil {
		metrics.Reconciliations.WithLabelValues(metrics.OutcomeFailed).Inc()
		return fmt.Errorf("reconcile aim %d: %w", aimID, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if seq < r.applied[aimID] {
		metrics.Reconciliations.WithLabelValues(metrics.OutcomeDiscarded).Inc()
		slog.Debug("discarding stale reconciliation",
			"aim_id", aimID, "seq", seq, "newest_applied", r.applied[aimID])
		return nil
	}
	r.applied[aimID] = seq

	prior, _ := r.store.Get(aimID)
	merged := models.Merge(prior, server)
	r.store.Upsert(merged)
	metrics.Reconciliations.WithLabelValues(metrics.OutcomeApplied).Inc()

	slog.Debug("reconciled aim",
		"aim_id", aimID,
		"seq", seq,
		"current_amount", merged.CurrentAmount,
		"is_completed", merged.IsCompleted,
	)
	return nil
}
