// Package ledger implements the goal progress ledger: an in-memory store of
// the user's aims, optimistic application of deposit/withdrawal transactions,
// and reconciliation of local state against the authoritative backend record.
//
// The flow for a transaction is: validate, mutate the store optimistically,
// submit to the backend, then reconcile the backend's record back into the
// store. The store is never rolled back on a failed submission; the next
// successful reconciliation corrects it.
package ledger

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/zaman-app/zaman-cli/internal/models"
)

// Backend is the slice of the API client the ledger depends on.
type Backend interface {
	ListAims(ctx context.Context) ([]models.Aim, error)
	GetAim(ctx context.Context, id int64) (models.Aim, error)
	CreateAim(ctx context.Context, payload models.AimCreate) (models.Aim, error)
	UpdateAim(ctx context.Context, id int64, payload models.AimUpdate) (models.Aim, error)
	DeleteAim(ctx context.Context, id int64) error
	CreateTransaction(ctx context.Context, payload models.TransactionCreate) (models.Transaction, error)
	ListAimTransactions(ctx context.Context, aimID int64) ([]models.Transaction, error)
}

// Ledger wires the store, applier and reconciler together and carries the
// thin aim lifecycle operations.
type Ledger struct {
	store      *Store
	backend    Backend
	applier    *Applier
	reconciler *Reconciler
}

// New creates a ledger backed by the given backend client.
func New(backend Backend) *Ledger {
	store := NewStore()
	rec := NewReconciler(store, backend)
	return &Ledger{
		store:      store,
		backend:    backend,
		applier:    NewApplier(store, backend, rec),
		reconciler: rec,
	}
}

// Store exposes the in-memory aim set for reading.
func (l *Ledger) Store() *Store { return l.store }

// Load fetches the full aim set and replaces the store contents. On failure
// the store keeps its previous contents and the error is returned for display.
func (l *Ledger) Load(ctx context.Context) error {
	aims, err := l.backend.ListAims(ctx)
	if err != nil {
		return fmt.Errorf("load aims: %w", err)
	}
	l.store.Replace(aims)
	return nil
}

// Apply runs a deposit or withdrawal through the transaction applier.
func (l *Ledger) Apply(ctx context.Context, aimID int64, kind models.TransactionType, amount decimal.Decimal) error {
	return l.applier.Apply(ctx, aimID, kind, amount)
}

// Reconcile merges the authoritative record for aimID into the store.
func (l *Ledger) Reconcile(ctx context.Context, aimID int64) error {
	return l.reconciler.Reconcile(ctx, aimID)
}

// Create posts a new aim and inserts the server-returned record.
func (l *Ledger) Create(ctx context.Context, payload models.AimCreate) (models.Aim, error) {
	aim, err := l.backend.CreateAim(ctx, payload)
	if err != nil {
		return models.Aim{}, fmt.Errorf("create aim: %w", err)
	}
	l.store.Upsert(aim)
	return aim, nil
}

// Update patches an aim and replaces the stored record with the server's
// answer, holding the completion flag monotonic like any other merge.
func (l *Ledger) Update(ctx context.Context, id int64, payload models.AimUpdate) (models.Aim, error) {
	updated, err := l.backend.UpdateAim(ctx, id, payload)
	if err != nil {
		return models.Aim{}, fmt.Errorf("update aim %d: %w", id, err)
	}
	prior, _ := l.store.Get(id)
	merged := models.Merge(prior, updated)
	l.store.Upsert(merged)
	return merged, nil
}

// Delete removes an aim. Unlike transactions, deletion is never optimistic:
// the store record goes away only after the backend confirms, because there
// is no reconciliation step to correct a failed removal.
func (l *Ledger) Delete(ctx context.Context, id int64) error {
	if err := l.backend.DeleteAim(ctx, id); err != nil {
		return fmt.Errorf("delete aim %d: %w", id, err)
	}
	l.store.Remove(id)
	return nil
}

// Transactions fetches an aim's ledger history from the backend.
func (l *Ledger) Transactions(ctx context.Context, aimID int64) ([]models.Transaction, error) {
	txs, err := l.backend.ListAimTransactions(ctx, aimID)
	if err != nil {
		return nil, fmt.Errorf("list transactions for aim %d: %w", aimID, err)
	}
	return txs, nil
}
