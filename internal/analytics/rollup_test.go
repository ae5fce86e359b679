package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/balcao-erp/balcao/internal/ledger"
	"github.com/balcao-erp/balcao/internal/shared"
)

func TestMonthlyRollupWindowAndIdentity(t *testing.T) {
	repo := newMockLedger()
	repo.sales = []ledger.Sale{
		sale(testOwner, day(2025, time.April, 5), 1000, false),
		sale(testOwner, day(2025, time.April, 20), 500, false),
		sale(testOwner, day(2025, time.June, 1), 2000, false),
		// Outside the 3-month window.
		sale(testOwner, day(2025, time.March, 31), 9999, false),
	}
	repo.items = []ledger.LineItem{
		item(productA, "Espresso", day(2025, time.April, 5), 10, 100, 40, false),
		item(productA, "Espresso", day(2025, time.June, 1), 20, 100, 40, false),
	}
	repo.expenses = []ledger.Expense{
		expense(testOwner, day(2025, time.April, 28), 300, "rent"),
		expense(testOwner, day(2025, time.May, 10), 120, "rent"),
	}

	svc := NewService(repo, nil).WithNow(fixedNow)
	months, err := svc.GetMonthlyRollup(context.Background(), testOwner, 3)
	require.NoError(t, err)
	require.Len(t, months, 3)

	// Oldest first, no month skipped.
	assert.Equal(t, "2025-04", months[0].Month)
	assert.Equal(t, "2025-05", months[1].Month)
	assert.Equal(t, "2025-06", months[2].Month)

	assert.InDelta(t, 1500, months[0].Revenue, 1e-9)
	assert.InDelta(t, 400, months[0].DirectCost, 1e-9)
	assert.InDelta(t, 300, months[0].Expenses, 1e-9)

	// May has no sales but stays present with an expense-only loss.
	assert.InDelta(t, 0, months[1].Revenue, 1e-9)
	assert.InDelta(t, -120, months[1].Profit, 1e-9)

	for _, m := range months {
		assert.InDelta(t, m.Revenue-m.DirectCost-m.Expenses, m.Profit, 1e-9, "month %s", m.Month)
	}
}

func TestMonthlyRollupExcludesCanceledSales(t *testing.T) {
	repo := newMockLedger()
	repo.sales = []ledger.Sale{
		sale(testOwner, day(2025, time.June, 3), 800, false),
		sale(testOwner, day(2025, time.June, 4), 700, true),
	}
	repo.items = []ledger.LineItem{
		item(productA, "Espresso", day(2025, time.June, 3), 4, 200, 80, false),
		item(productA, "Espresso", day(2025, time.June, 4), 7, 100, 50, true),
	}

	svc := NewService(repo, nil).WithNow(fixedNow)
	months, err := svc.GetMonthlyRollup(context.Background(), testOwner, 1)
	require.NoError(t, err)
	require.Len(t, months, 1)

	assert.InDelta(t, 800, months[0].Revenue, 1e-9)
	assert.InDelta(t, 320, months[0].DirectCost, 1e-9)
}

func TestMonthlyRollupRejectsNonPositiveCount(t *testing.T) {
	svc := NewService(newMockLedger(), nil).WithNow(fixedNow)
	_, err := svc.GetMonthlyRollup(context.Background(), testOwner, 0)
	require.ErrorIs(t, err, shared.ErrInvalidRange)
}

func TestMonthlyRollupEmptyOwnerIsZeroedNotError(t *testing.T) {
	svc := NewService(newMockLedger(), nil).WithNow(fixedNow)
	months, err := svc.GetMonthlyRollup(context.Background(), testOwner, 6)
	require.NoError(t, err)
	require.Len(t, months, 6)
	for _, m := range months {
		assert.Zero(t, m.Revenue)
		assert.Zero(t, m.Profit)
	}
}
