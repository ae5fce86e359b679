package analytics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/balcao-erp/balcao/internal/ledger"
	"github.com/balcao-erp/balcao/internal/shared"
)

func TestProfitDistributionSplit(t *testing.T) {
	repo := newMockLedger()
	repo.sales = []ledger.Sale{sale(testOwner, day(2025, time.June, 5), 1000, false)}

	svc := NewService(repo, nil).WithNow(fixedNow)
	res, err := svc.GetProfitDistribution(context.Background(), testOwner)
	require.NoError(t, err)

	assert.True(t, res.Available)
	assert.Equal(t, "2025-06", res.Month)
	assert.InDelta(t, 1000, res.NetProfit, 1e-9)
	assert.InDelta(t, 500, res.Withdrawal, 1e-9)
	assert.InDelta(t, 300, res.Reinvestment, 1e-9)
	assert.InDelta(t, 100, res.Taxes, 1e-9)
	assert.InDelta(t, 100, res.Reserve, 1e-9)
}

func TestProfitDistributionUnavailableOnLoss(t *testing.T) {
	repo := newMockLedger()
	repo.sales = []ledger.Sale{sale(testOwner, day(2025, time.June, 5), 100, false)}
	repo.expenses = []ledger.Expense{expense(testOwner, day(2025, time.June, 6), 400, "rent")}

	svc := NewService(repo, nil).WithNow(fixedNow)
	res, err := svc.GetProfitDistribution(context.Background(), testOwner)
	require.NoError(t, err)

	assert.False(t, res.Available)
	assert.InDelta(t, -300, res.NetProfit, 1e-9)
	assert.Zero(t, res.Withdrawal)
	assert.Zero(t, res.Reinvestment)
	assert.Zero(t, res.Taxes)
	assert.Zero(t, res.Reserve)
}

func TestSplitNetProfitSumMatchesWithinCent(t *testing.T) {
	for _, net := range []float64{0.01, 0.03, 1, 33.33, 1234.56, 99999.99} {
		res := SplitNetProfit("2025-06", net)
		sum := res.Withdrawal + res.Reinvestment + res.Taxes + res.Reserve
		assert.InDelta(t, net, sum, 0.01, "net %v", net)
	}
}

func TestSaveProfitDistributionOverwritesSameMonth(t *testing.T) {
	repo := newMockLedger()
	svc := NewService(repo, nil).WithNow(fixedNow)

	first, err := svc.SaveProfitDistribution(context.Background(), testOwner, "2025-06", 1000)
	require.NoError(t, err)
	assert.InDelta(t, 500, first.Withdrawal, 1e-9)

	second, err := svc.SaveProfitDistribution(context.Background(), testOwner, "2025-06", 2000)
	require.NoError(t, err)
	assert.Equal(t, 2, repo.upsertCalls)

	saved, err := svc.GetSavedDistribution(context.Background(), testOwner, "2025-06")
	require.NoError(t, err)
	assert.InDelta(t, second.NetProfit, saved.NetProfit, 1e-9)
	assert.InDelta(t, 1000, saved.Withdrawal, 1e-9)
}

func TestSaveProfitDistributionRejectsBadInput(t *testing.T) {
	svc := NewService(newMockLedger(), nil).WithNow(fixedNow)

	_, err := svc.SaveProfitDistribution(context.Background(), testOwner, "June 2025", 100)
	assert.ErrorIs(t, err, shared.ErrInvalidRange)

	_, err = svc.SaveProfitDistribution(context.Background(), testOwner, "2025-06", 0)
	assert.ErrorIs(t, err, shared.ErrInvalidRange)

	_, err = svc.SaveProfitDistribution(context.Background(), testOwner, "2025-06", -50)
	assert.ErrorIs(t, err, shared.ErrInvalidRange)
}

func TestGetSavedDistributionMissingPlan(t *testing.T) {
	svc := NewService(newMockLedger(), nil).WithNow(fixedNow)

	_, err := svc.GetSavedDistribution(context.Background(), testOwner, "2025-05")
	assert.True(t, errors.Is(err, shared.ErrNotFound))
}
