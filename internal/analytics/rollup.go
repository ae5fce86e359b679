package analytics

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/balcao-erp/balcao/internal/ledger"
	"github.com/balcao-erp/balcao/internal/shared"
)

// MonthlyAggregate is one calendar month of the rollup. Profit always equals
// Revenue - DirectCost - Expenses.
type MonthlyAggregate struct {
	Month      string  `json:"month"`
	Revenue    float64 `json:"revenue"`
	DirectCost float64 `json:"direct_cost"`
	Expenses   float64 `json:"expenses"`
	Profit     float64 `json:"profit"`
}

// GetMonthlyRollup aggregates revenue, direct cost, expenses and profit for
// the trailing monthCount calendar months ending with the current one. Months
// are returned oldest first and never skipped, even when fully zero.
func (s *Service) GetMonthlyRollup(ctx context.Context, owner uuid.UUID, monthCount int) ([]MonthlyAggregate, error) {
	if monthCount <= 0 {
		return nil, fmt.Errorf("%w: month count %d", shared.ErrInvalidRange, monthCount)
	}

	loader := func(ctx context.Context) (interface{}, error) {
		window := shared.TrailingMonths(s.now(), monthCount)

		var (
			sales    []ledger.Sale
			items    []ledger.LineItem
			expenses []ledger.Expense
		)
		// The three window reads have no ordering dependency.
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() (err error) {
			sales, err = s.ledger.SalesInRange(gctx, owner, window, false)
			return err
		})
		g.Go(func() (err error) {
			items, err = s.ledger.LineItemsInRange(gctx, owner, window)
			return err
		})
		g.Go(func() (err error) {
			expenses, err = s.ledger.ExpensesInRange(gctx, owner, window)
			return err
		})
		if err := g.Wait(); err != nil {
			return nil, err
		}
		return bucketByMonth(window, monthCount, sales, items, expenses), nil
	}

	if s.cache == nil {
		value, err := loader(ctx)
		if err != nil {
			return nil, err
		}
		return value.([]MonthlyAggregate), nil
	}

	key, err := s.cache.BuildKey(ctx, keyRollup(owner, s.now(), monthCount))
	if err != nil {
		return nil, err
	}
	var months []MonthlyAggregate
	if err := s.cache.FetchJSON(ctx, key, &months, loader); err != nil {
		return nil, err
	}
	return months, nil
}

func bucketByMonth(window shared.DateRange, monthCount int, sales []ledger.Sale, items []ledger.LineItem, expenses []ledger.Expense) []MonthlyAggregate {
	index := make(map[string]int, monthCount)
	months := make([]MonthlyAggregate, 0, monthCount)
	cursor := window.Start
	for i := 0; i < monthCount; i++ {
		label := cursor.Format(shared.MonthLayout)
		index[label] = i
		months = append(months, MonthlyAggregate{Month: label})
		cursor = cursor.AddDate(0, 1, 0)
	}

	for _, sale := range sales {
		if sale.Canceled {
			continue
		}
		if i, ok := index[sale.OccurredAt.Format(shared.MonthLayout)]; ok {
			months[i].Revenue += sale.GrossTotal
		}
	}
	for _, item := range items {
		if item.SaleCanceled {
			continue
		}
		// Cost follows the parent sale's date so cost and revenue always
		// land in the same month.
		if i, ok := index[item.SaleDate.Format(shared.MonthLayout)]; ok {
			months[i].DirectCost += item.Quantity * item.UnitCost
		}
	}
	for _, expense := range expenses {
		if i, ok := index[expense.OccurredOn.Format(shared.MonthLayout)]; ok {
			months[i].Expenses += expense.Amount
		}
	}

	for i := range months {
		months[i].Profit = months[i].Revenue - months[i].DirectCost - months[i].Expenses
	}
	return months
}
