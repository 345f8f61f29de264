package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/zaman-app/zaman-cli/internal/metrics"
	"github.com/zaman-app/zaman-cli/internal/models"
)

var (
	// ErrInvalidAmount rejects non-positive transaction amounts before any
	// store mutation or network traffic.
	ErrInvalidAmount = errors.New("amount must be greater than zero")

	// ErrAimCompleted rejects deposits into an aim that has already reached
	// its target. Completed aims still accept withdrawals to drain the
	// accumulated funds.
	ErrAimCompleted = errors.New("aim is already completed")

	// ErrUnknownAim is returned when the target aim is not in the store.
	ErrUnknownAim = errors.New("aim not found in store")
)

// Applier turns a deposit/withdrawal request into an immediate optimistic
// store update plus a durable backend mutation.
type Applier struct {
	store      *Store
	backend    Backend
	reconciler *Reconciler
}

// NewApplier creates an applier that mutates store, submits via backend, and
// hands successful submissions to rec for reconciliation.
func NewApplier(store *Store, backend Backend, rec *Reconciler) *Applier {
	return &Applier{store: store, backend: backend, reconciler: rec}
}

// Apply validates the request, applies it to the store optimistically so the
// change is visible before any network latency, submits the transaction, and
// reconciles the aim against the backend's authoritative record.
//
// A failed submission returns the error but leaves the optimistic record in
// place: the backend is the durable owner and the next successful
// reconciliation converges the store. A failed reconciliation after a
// successful submission is non-fatal and only logged; the transaction itself
// is durable.
func (a *Applier) Apply(ctx context.Context, aimID int64, kind models.TransactionType, amount decimal.Decimal) error {
	if !kind.Valid() {
		return fmt.Errorf("unsupported transaction type %q", kind)
	}
	if !amount.IsPositive() {
		return fmt.Errorf("%s of %s: %w", kind, amount, ErrInvalidAmount)
	}

	aim, ok := a.store.Get(aimID)
	if !ok {
		return fmt.Errorf("aim %d: %w", aimID, ErrUnknownAim)
	}
	if kind == models.Deposit && aim.IsCompleted {
		return fmt.Errorf("aim %d: %w", aimID, ErrAimCompleted)
	}

	// Optimistic step: visible in the store before the request goes out.
	next := aim
	switch kind {
	case models.Deposit:
		next.CurrentAmount = aim.CurrentAmount.Add(amount)
	case models.Withdrawal:
		next.CurrentAmount = decimal.Max(decimal.Zero, aim.CurrentAmount.Sub(amount))
	}
	if !next.IsCompleted && next.ReachedTarget() {
		next.IsCompleted = true
	}
	a.store.Upsert(next)
	metrics.OptimisticApplies.WithLabelValues(kind.String()).Inc()

	if _, err := a.backend.CreateTransaction(ctx, models.TransactionCreate{
		AimID:           aimID,
		TransactionType: kind,
		Amount:          amount,
	}); err != nil {
		slog.Warn("transaction submission failed, store keeps optimistic state",
			"aim_id", aimID, "kind", kind, "amount", amount, "error", err)
		return fmt.Errorf("submit %s of %s to aim %d: %w", kind, amount, aimID, err)
	}

	if err := a.reconciler.Reconcile(ctx, aimID); err != nil {
		slog.Warn("reconciliation after transaction failed, amounts may be stale until the next refresh",
			"aim_id", aimID, "error", err)
	}
	return nil
}
