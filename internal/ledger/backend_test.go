package ledger

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/zaman-app/zaman-cli/internal/models"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// fakeBackend is a scripted Backend. Each func field, when set, overrides the
// default behavior of serving from the aims map.
type fakeBackend struct {
	mu   sync.Mutex
	aims map[int64]models.Aim

	listAimsFunc          func(ctx context.Context) ([]models.Aim, error)
	getAimFunc            func(ctx context.Context, id int64) (models.Aim, error)
	createTransactionFunc func(ctx context.Context, payload models.TransactionCreate) (models.Transaction, error)

	createdTransactions []models.TransactionCreate
}

func newFakeBackend(aims ...models.Aim) *fakeBackend {
	b := &fakeBackend{aims: make(map[int64]models.Aim)}
	for _, a := range aims {
		b.aims[a.ID] = a
	}
	return b
}

func (b *fakeBackend) setAim(a models.Aim) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.aims[a.ID] = a
}

func (b *fakeBackend) ListAims(ctx context.Context) ([]models.Aim, error) {
	if b.listAimsFunc != nil {
		return b.listAimsFunc(ctx)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]models.Aim, 0, len(b.aims))
	for _, a := range b.aims {
		out = append(out, a)
	}
	return out, nil
}

func (b *fakeBackend) GetAim(ctx context.Context, id int64) (models.Aim, error) {
	if b.getAimFunc != nil {
		return b.getAimFunc(ctx, id)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.aims[id], nil
}

func (b *fakeBackend) CreateAim(_ context.Context, payload models.AimCreate) (models.Aim, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	aim := models.Aim{
		ID:            int64(len(b.aims) + 1),
		Title:         payload.Title,
		Description:   payload.Description,
		TargetAmount:  payload.TargetAmount,
		CurrentAmount: payload.CurrentAmount,
	}
	b.aims[aim.ID] = aim
	return aim, nil
}

func (b *fakeBackend) UpdateAim(_ context.Context, id int64, payload models.AimUpdate) (models.Aim, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	aim := b.aims[id]
	if payload.Title != nil {
		aim.Title = *payload.Title
	}
	if payload.Description != nil {
		aim.Description = *payload.Description
	}
	if payload.TargetAmount != nil {
		aim.TargetAmount = *payload.TargetAmount
	}
	if payload.CurrentAmount != nil {
		aim.CurrentAmount = *payload.CurrentAmount
	}
	b.aims[id] = aim
	return aim, nil
}

func (b *fakeBackend) DeleteAim(_ context.Context, id int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.aims, id)
	return nil
}

func (b *fakeBackend) CreateTransaction(ctx context.Context, payload models.TransactionCreate) (models.Transaction, error) {
	if b.createTransactionFunc != nil {
		return b.createTransactionFunc(ctx, payload)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.createdTransactions = append(b.createdTransactions, payload)

	// Mirror the backend's bookkeeping so a follow-up GetAim sees the result.
	aim := b.aims[payload.AimID]
	switch payload.TransactionType {
	case models.Deposit:
		aim.CurrentAmount = aim.CurrentAmount.Add(payload.Amount)
	case models.Withdrawal:
		aim.CurrentAmount = decimal.Max(decimal.Zero, aim.CurrentAmount.Sub(payload.Amount))
	}
	b.aims[payload.AimID] = aim

	return models.Transaction{
		ID:              int64(len(b.createdTransactions)),
		AimID:           payload.AimID,
		TransactionType: payload.TransactionType,
		Amount:          payload.Amount,
	}, nil
}

func (b *fakeBackend) ListAimTransactions(_ context.Context, aimID int64) ([]models.Transaction, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []models.Transaction
	for i, tc := range b.createdTransactions {
		if tc.AimID == aimID {
			out = append(out, models.Transaction{
				ID:              int64(i + 1),
				AimID:           tc.AimID,
				TransactionType: tc.TransactionType,
				Amount:          tc.Amount,
			})
		}
	}
	return out, nil
}
