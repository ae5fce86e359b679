package analytics

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/balcao-erp/balcao/internal/ledger"
	"github.com/balcao-erp/balcao/internal/shared"
)

// DREResult is the income statement for an arbitrary range. All amounts are
// full precision; rounding is a presentation concern.
type DREResult struct {
	Range                shared.DateRange `json:"-"`
	From                 string           `json:"from"`
	To                   string           `json:"to"`
	Revenue              float64          `json:"revenue"`
	DirectCost           float64          `json:"direct_cost"`
	GrossProfit          float64          `json:"gross_profit"`
	GrossMargin          float64          `json:"gross_margin"`
	OperationalExpenses  float64          `json:"operational_expenses"`
	OperationalProfit    float64          `json:"operational_profit"`
	OperationalMargin    float64          `json:"operational_margin"`
	TaxesFees            float64          `json:"taxes_fees"`
	NetProfit            float64          `json:"net_profit"`
	NetMargin            float64          `json:"net_margin"`
	ExpensesByCategory   []CategoryTotal  `json:"expenses_by_category"`
	RevenueByPayment     []CategoryTotal  `json:"revenue_by_payment"`
}

// CategoryTotal is an explicit tagged pair replacing ad hoc string-keyed maps.
type CategoryTotal struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
}

// GetDRE derives gross, operational and net profit with margins over the
// given range. Zero revenue clamps every margin to 0, never NaN.
func (s *Service) GetDRE(ctx context.Context, owner uuid.UUID, r shared.DateRange) (DREResult, error) {
	loader := func(ctx context.Context) (interface{}, error) {
		var (
			sales    []ledger.Sale
			items    []ledger.LineItem
			expenses []ledger.Expense
			taxes    ledger.TaxSettings
		)
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() (err error) {
			sales, err = s.ledger.SalesInRange(gctx, owner, r, false)
			return err
		})
		g.Go(func() (err error) {
			items, err = s.ledger.LineItemsInRange(gctx, owner, r)
			return err
		})
		g.Go(func() (err error) {
			expenses, err = s.ledger.ExpensesInRange(gctx, owner, r)
			return err
		})
		g.Go(func() (err error) {
			taxes, err = s.ledger.TaxSettings(gctx, owner)
			return err
		})
		if err := g.Wait(); err != nil {
			return DREResult{}, err
		}
		return computeDRE(r, sales, items, expenses, taxes), nil
	}

	if s.cache == nil {
		value, err := loader(ctx)
		if err != nil {
			return DREResult{}, err
		}
		return value.(DREResult), nil
	}

	key, err := s.cache.BuildKey(ctx, keyDRE(owner, r))
	if err != nil {
		return DREResult{}, err
	}
	var result DREResult
	if err := s.cache.FetchJSON(ctx, key, &result, loader); err != nil {
		return DREResult{}, err
	}
	return result, nil
}

func computeDRE(r shared.DateRange, sales []ledger.Sale, items []ledger.LineItem, expenses []ledger.Expense, taxes ledger.TaxSettings) DREResult {
	result := DREResult{
		Range: r,
		From:  r.Start.Format(shared.DateLayout),
		To:    r.End.Format(shared.DateLayout),
	}

	paymentTotals := map[string]float64{}
	for _, sale := range sales {
		if sale.Canceled {
			continue
		}
		result.Revenue += sale.GrossTotal
		paymentTotals[sale.PaymentMethod] += sale.GrossTotal
	}
	for _, item := range items {
		if item.SaleCanceled {
			continue
		}
		result.DirectCost += item.Quantity * item.UnitCost
	}
	categoryTotals := map[string]float64{}
	for _, expense := range expenses {
		result.OperationalExpenses += expense.Amount
		categoryTotals[expense.Category] += expense.Amount
	}

	result.GrossProfit = result.Revenue - result.DirectCost
	result.GrossMargin = safePercent(result.GrossProfit, result.Revenue)
	result.OperationalProfit = result.GrossProfit - result.OperationalExpenses
	result.OperationalMargin = safePercent(result.OperationalProfit, result.Revenue)
	result.TaxesFees = taxes.Applied(result.Revenue)
	result.NetProfit = result.OperationalProfit - result.TaxesFees
	result.NetMargin = safePercent(result.NetProfit, result.Revenue)

	result.ExpensesByCategory = sortedTotals(categoryTotals)
	result.RevenueByPayment = sortedTotals(paymentTotals)
	return result
}

func sortedTotals(totals map[string]float64) []CategoryTotal {
	out := make([]CategoryTotal, 0, len(totals))
	for name, amount := range totals {
		out = append(out, CategoryTotal{Name: name, Amount: amount})
	}
	// Largest first; name ascending keeps equal amounts deterministic.
	sort.Slice(out, func(i, j int) bool {
		if out[i].Amount != out[j].Amount {
			return out[i].Amount > out[j].Amount
		}
		return out[i].Name < out[j].Name
	})
	return out
}
