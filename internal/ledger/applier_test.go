package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zaman-app/zaman-cli/internal/models"
)

func newTestLedger(t *testing.T, backend *fakeBackend) *Ledger {
	t.Helper()
	led := New(backend)
	require.NoError(t, led.Load(context.Background()))
	return led
}

func TestApplyDeposit(t *testing.T) {
	backend := newFakeBackend(models.Aim{ID: 1, TargetAmount: dec("1000"), CurrentAmount: dec("900")})
	led := newTestLedger(t, backend)

	err := led.Apply(context.Background(), 1, models.Deposit, dec("100"))
	require.NoError(t, err)

	aim, ok := led.Store().Get(1)
	require.True(t, ok)
	require.True(t, aim.CurrentAmount.Equal(dec("1000")), "got %s", aim.CurrentAmount)
	require.EqualValues(t, 100, aim.ProgressPercent())
	require.True(t, aim.IsCompleted, "reaching the target must complete the aim")

	require.Len(t, backend.createdTransactions, 1)
	require.Equal(t, models.Deposit, backend.createdTransactions[0].TransactionType)
}

func TestApplyOptimisticVisibility(t *testing.T) {
	backend := newFakeBackend(models.Aim{ID: 1, TargetAmount: dec("1000"), CurrentAmount: dec("100")})
	led := newTestLedger(t, backend)

	// Observe the store from inside the network call: the optimistic update
	// must already be visible before the submission resolves.
	var seenDuringSubmit models.Aim
	backend.createTransactionFunc = func(_ context.Context, payload models.TransactionCreate) (models.Transaction, error) {
		seenDuringSubmit, _ = led.Store().Get(payload.AimID)
		return models.Transaction{AimID: payload.AimID}, nil
	}

	require.NoError(t, led.Apply(context.Background(), 1, models.Deposit, dec("50")))
	require.True(t, seenDuringSubmit.CurrentAmount.Equal(dec("150")),
		"optimistic amount not visible during submission: %s", seenDuringSubmit.CurrentAmount)
}

func TestApplyInvalidAmount(t *testing.T) {
	backend := newFakeBackend(models.Aim{ID: 1, TargetAmount: dec("1000"), CurrentAmount: dec("100")})
	led := newTestLedger(t, backend)

	for _, amount := range []string{"0", "-5"} {
		err := led.Apply(context.Background(), 1, models.Withdrawal, dec(amount))
		require.ErrorIs(t, err, ErrInvalidAmount)
	}

	aim, _ := led.Store().Get(1)
	require.True(t, aim.CurrentAmount.Equal(dec("100")), "store mutated on rejected amount")
	require.Empty(t, backend.createdTransactions, "rejected amount must not reach the network")
}

func TestApplyDepositBlockedWhenCompleted(t *testing.T) {
	backend := newFakeBackend(models.Aim{ID: 1, TargetAmount: dec("500"), CurrentAmount: dec("500"), IsCompleted: true})
	led := newTestLedger(t, backend)

	err := led.Apply(context.Background(), 1, models.Deposit, dec("10"))
	require.ErrorIs(t, err, ErrAimCompleted)

	aim, _ := led.Store().Get(1)
	require.True(t, aim.CurrentAmount.Equal(dec("500")), "store changed by rejected deposit")
	require.Empty(t, backend.createdTransactions)
}

func TestApplyWithdrawalAllowedWhenCompleted(t *testing.T) {
	backend := newFakeBackend(models.Aim{ID: 1, TargetAmount: dec("500"), CurrentAmount: dec("500"), IsCompleted: true})
	led := newTestLedger(t, backend)

	require.NoError(t, led.Apply(context.Background(), 1, models.Withdrawal, dec("200")))

	aim, _ := led.Store().Get(1)
	require.True(t, aim.CurrentAmount.Equal(dec("300")), "got %s", aim.CurrentAmount)
	require.True(t, aim.IsCompleted, "withdrawal must not revert completion")
}

func TestApplyWithdrawalFloorsAtZero(t *testing.T) {
	backend := newFakeBackend(models.Aim{ID: 1, TargetAmount: dec("1000"), CurrentAmount: dec("50")})
	led := newTestLedger(t, backend)

	require.NoError(t, led.Apply(context.Background(), 1, models.Withdrawal, dec("80")))

	aim, _ := led.Store().Get(1)
	require.True(t, aim.CurrentAmount.Equal(dec("0")), "got %s", aim.CurrentAmount)
}

func TestApplySubmissionFailureKeepsOptimisticState(t *testing.T) {
	backend := newFakeBackend(models.Aim{ID: 1, TargetAmount: dec("1000"), CurrentAmount: dec("100")})
	led := newTestLedger(t, backend)

	submitErr := errors.New("backend down")
	backend.createTransactionFunc = func(context.Context, models.TransactionCreate) (models.Transaction, error) {
		return models.Transaction{}, submitErr
	}

	err := led.Apply(context.Background(), 1, models.Deposit, dec("50"))
	require.ErrorIs(t, err, submitErr, "submission failure must be surfaced")

	// No rollback: the next successful reconciliation converges the store.
	aim, _ := led.Store().Get(1)
	require.True(t, aim.CurrentAmount.Equal(dec("150")), "got %s", aim.CurrentAmount)

	backend.createTransactionFunc = nil
	require.NoError(t, led.Reconcile(context.Background(), 1))
	aim, _ = led.Store().Get(1)
	require.True(t, aim.CurrentAmount.Equal(dec("100")), "reconcile must restore server truth, got %s", aim.CurrentAmount)
}

func TestApplyUnknownAim(t *testing.T) {
	led := newTestLedger(t, newFakeBackend())
	err := led.Apply(context.Background(), 42, models.Deposit, dec("10"))
	require.ErrorIs(t, err, ErrUnknownAim)
}

func TestApplyRejectsUnknownKind(t *testing.T) {
	backend := newFakeBackend(models.Aim{ID: 1, TargetAmount: dec("1000")})
	led := newTestLedger(t, backend)
	require.Error(t, led.Apply(context.Background(), 1, models.TransactionType("transfer"), dec("10")))
	require.Empty(t, backend.createdTransactions)
}

func TestApplySequentialTransactionsReadLatestState(t *testing.T) {
	backend := newFakeBackend(models.Aim{ID: 1, TargetAmount: dec("1000"), CurrentAmount: dec("0")})
	led := newTestLedger(t, backend)

	require.NoError(t, led.Apply(context.Background(), 1, models.Deposit, dec("300")))
	require.NoError(t, led.Apply(context.Background(), 1, models.Deposit, dec("300")))

	aim, _ := led.Store().Get(1)
	require.True(t, aim.CurrentAmount.Equal(dec("600")), "got %s", aim.CurrentAmount)
	require.Len(t, backend.createdTransactions, 2)
}
