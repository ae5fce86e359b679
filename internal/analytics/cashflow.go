package analytics

import (
	"context"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/balcao-erp/balcao/internal/ledger"
	"github.com/balcao-erp/balcao/internal/shared"
)

// DailyFlow is one calendar day of cash movement. The running cumulative
// balance is a prefix sum the caller derives over the ordered list.
type DailyFlow struct {
	Date         string  `json:"date"`
	Inflow       float64 `json:"inflow"`
	Outflow      float64 `json:"outflow"`
	DailyBalance float64 `json:"daily_balance"`
}

// GetCashFlow builds the per-day inflow/outflow ledger for every calendar day
// in the range. Days without movement are kept as explicit zero entries.
func (s *Service) GetCashFlow(ctx context.Context, owner uuid.UUID, r shared.DateRange) ([]DailyFlow, error) {
	loader := func(ctx context.Context) (interface{}, error) {
		var (
			sales    []ledger.Sale
			expenses []ledger.Expense
		)
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() (err error) {
			sales, err = s.ledger.SalesInRange(gctx, owner, r, false)
			return err
		})
		g.Go(func() (err error) {
			expenses, err = s.ledger.ExpensesInRange(gctx, owner, r)
			return err
		})
		if err := g.Wait(); err != nil {
			return nil, err
		}

		index := make(map[string]int, r.Days())
		flows := make([]DailyFlow, 0, r.Days())
		for day := r.Start; !day.After(r.End); day = day.AddDate(0, 0, 1) {
			key := day.Format(shared.DateLayout)
			index[key] = len(flows)
			flows = append(flows, DailyFlow{Date: key})
		}

		for _, sale := range sales {
			if sale.Canceled {
				continue
			}
			if i, ok := index[sale.OccurredAt.Format(shared.DateLayout)]; ok {
				flows[i].Inflow += sale.GrossTotal
			}
		}
		for _, expense := range expenses {
			if i, ok := index[expense.OccurredOn.Format(shared.DateLayout)]; ok {
				flows[i].Outflow += expense.Amount
			}
		}
		for i := range flows {
			flows[i].DailyBalance = flows[i].Inflow - flows[i].Outflow
		}
		return flows, nil
	}

	if s.cache == nil {
		value, err := loader(ctx)
		if err != nil {
			return nil, err
		}
		return value.([]DailyFlow), nil
	}

	key, err := s.cache.BuildKey(ctx, keyCashFlow(owner, r))
	if err != nil {
		return nil, err
	}
	var flows []DailyFlow
	if err := s.cache.FetchJSON(ctx, key, &flows, loader); err != nil {
		return nil, err
	}
	return flows, nil
}
