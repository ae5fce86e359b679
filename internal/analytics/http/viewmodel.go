package analytichttp

import (
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/balcao-erp/balcao/internal/analytics"
	"github.com/balcao-erp/balcao/internal/ledger"
)

// round2 rounds to two decimals. Only view models round; the engine keeps
// full precision so aggregation never compounds rounding error.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// MonthVM is the wire form of one rollup month.
type MonthVM struct {
	Month      string  `json:"month"`
	Revenue    float64 `json:"revenue"`
	DirectCost float64 `json:"direct_cost"`
	Expenses   float64 `json:"expenses"`
	Profit     float64 `json:"profit"`
}

// RollupVM wraps the rollup list.
type RollupVM struct {
	Months []MonthVM `json:"months"`
}

func rollupViewModel(months []analytics.MonthlyAggregate) RollupVM {
	vm := RollupVM{Months: make([]MonthVM, 0, len(months))}
	for _, m := range months {
		vm.Months = append(vm.Months, MonthVM{
			Month:      m.Month,
			Revenue:    round2(m.Revenue),
			DirectCost: round2(m.DirectCost),
			Expenses:   round2(m.Expenses),
			Profit:     round2(m.Profit),
		})
	}
	return vm
}

// DREVM is the wire form of the income statement.
type DREVM struct {
	From                string            `json:"from"`
	To                  string            `json:"to"`
	Revenue             float64           `json:"revenue"`
	DirectCost          float64           `json:"direct_cost"`
	GrossProfit         float64           `json:"gross_profit"`
	GrossMargin         float64           `json:"gross_margin"`
	OperationalExpenses float64           `json:"operational_expenses"`
	OperationalProfit   float64           `json:"operational_profit"`
	OperationalMargin   float64           `json:"operational_margin"`
	TaxesFees           float64           `json:"taxes_fees"`
	NetProfit           float64           `json:"net_profit"`
	NetMargin           float64           `json:"net_margin"`
	ExpensesByCategory  []CategoryTotalVM `json:"expenses_by_category"`
	RevenueByPayment    []CategoryTotalVM `json:"revenue_by_payment"`
}

// CategoryTotalVM is a rounded tagged total.
type CategoryTotalVM struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
}

func dreViewModel(d analytics.DREResult) DREVM {
	vm := DREVM{
		From:                d.From,
		To:                  d.To,
		Revenue:             round2(d.Revenue),
		DirectCost:          round2(d.DirectCost),
		GrossProfit:         round2(d.GrossProfit),
		GrossMargin:         round2(d.GrossMargin),
		OperationalExpenses: round2(d.OperationalExpenses),
		OperationalProfit:   round2(d.OperationalProfit),
		OperationalMargin:   round2(d.OperationalMargin),
		TaxesFees:           round2(d.TaxesFees),
		NetProfit:           round2(d.NetProfit),
		NetMargin:           round2(d.NetMargin),
		ExpensesByCategory:  categoryTotalsVM(d.ExpensesByCategory),
		RevenueByPayment:    categoryTotalsVM(d.RevenueByPayment),
	}
	return vm
}

func categoryTotalsVM(totals []analytics.CategoryTotal) []CategoryTotalVM {
	out := make([]CategoryTotalVM, 0, len(totals))
	for _, t := range totals {
		out = append(out, CategoryTotalVM{Name: t.Name, Amount: round2(t.Amount)})
	}
	return out
}

// ProductRankVM is one classified product on the wire.
type ProductRankVM struct {
	ProductID            uuid.UUID `json:"product_id"`
	Name                 string    `json:"name"`
	Revenue              float64   `json:"revenue"`
	QuantitySold         float64   `json:"quantity_sold"`
	RevenuePercentage    float64   `json:"revenue_percentage"`
	CumulativePercentage float64   `json:"cumulative_percentage"`
	ClassTier            string    `json:"class_tier"`
}

// ABCVM is the wire form of the ABC curve.
type ABCVM struct {
	ClassA       []ProductRankVM `json:"class_a"`
	ClassB       []ProductRankVM `json:"class_b"`
	ClassC       []ProductRankVM `json:"class_c"`
	TotalRevenue float64         `json:"total_revenue"`
}

func abcViewModel(curve analytics.ABCCurve) ABCVM {
	return ABCVM{
		ClassA:       rankVMs(curve.ClassA),
		ClassB:       rankVMs(curve.ClassB),
		ClassC:       rankVMs(curve.ClassC),
		TotalRevenue: round2(curve.TotalRevenue),
	}
}

func rankVMs(ranks []analytics.ProductRank) []ProductRankVM {
	out := make([]ProductRankVM, 0, len(ranks))
	for _, r := range ranks {
		out = append(out, ProductRankVM{
			ProductID:            r.ProductID,
			Name:                 r.Name,
			Revenue:              round2(r.Revenue),
			QuantitySold:         r.QuantitySold,
			RevenuePercentage:    round2(r.RevenuePercentage),
			CumulativePercentage: round2(r.CumulativePercentage),
			ClassTier:            string(r.ClassTier),
		})
	}
	return out
}

// DailyFlowVM adds the running balance the engine deliberately leaves to its
// caller.
type DailyFlowVM struct {
	Date           string  `json:"date"`
	Inflow         float64 `json:"inflow"`
	Outflow        float64 `json:"outflow"`
	DailyBalance   float64 `json:"daily_balance"`
	RunningBalance float64 `json:"running_balance"`
}

// CashFlowVM wraps the per-day list.
type CashFlowVM struct {
	Days []DailyFlowVM `json:"days"`
}

func cashFlowViewModel(flows []analytics.DailyFlow) CashFlowVM {
	vm := CashFlowVM{Days: make([]DailyFlowVM, 0, len(flows))}
	running := 0.0
	for _, f := range flows {
		running += f.DailyBalance
		vm.Days = append(vm.Days, DailyFlowVM{
			Date:           f.Date,
			Inflow:         round2(f.Inflow),
			Outflow:        round2(f.Outflow),
			DailyBalance:   round2(f.DailyBalance),
			RunningBalance: round2(running),
		})
	}
	return vm
}

// DistributionVM is the suggested split, or an explicit unavailable state.
type DistributionVM struct {
	Available    bool    `json:"available"`
	Month        string  `json:"month"`
	NetProfit    float64 `json:"net_profit"`
	Withdrawal   float64 `json:"withdrawal"`
	Reinvestment float64 `json:"reinvestment"`
	Taxes        float64 `json:"taxes"`
	Reserve      float64 `json:"reserve"`
}

func distributionViewModel(d analytics.DistributionResult) DistributionVM {
	return DistributionVM{
		Available:    d.Available,
		Month:        d.Month,
		NetProfit:    round2(d.NetProfit),
		Withdrawal:   round2(d.Withdrawal),
		Reinvestment: round2(d.Reinvestment),
		Taxes:        round2(d.Taxes),
		Reserve:      round2(d.Reserve),
	}
}

// SavedPlanVM is a persisted plan snapshot on the wire.
type SavedPlanVM struct {
	OwnerID      uuid.UUID `json:"owner_id"`
	Month        string    `json:"month"`
	NetProfit    float64   `json:"net_profit"`
	Withdrawal   float64   `json:"withdrawal"`
	Reinvestment float64   `json:"reinvestment"`
	Taxes        float64   `json:"taxes"`
	Reserve      float64   `json:"reserve"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func savedPlanViewModel(p ledger.DistributionPlan) SavedPlanVM {
	return SavedPlanVM{
		OwnerID:      p.OwnerID,
		Month:        p.Month,
		NetProfit:    round2(p.NetProfit),
		Withdrawal:   round2(p.Withdrawal),
		Reinvestment: round2(p.Reinvestment),
		Taxes:        round2(p.Taxes),
		Reserve:      round2(p.Reserve),
		UpdatedAt:    p.UpdatedAt,
	}
}

// AlertVM mirrors an alert on the wire.
type AlertVM struct {
	ID              uuid.UUID `json:"id"`
	Severity        string    `json:"severity"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	SuggestedAction string    `json:"suggested_action"`
}

// TrendVM bundles the trend dashboard.
type TrendVM struct {
	Metrics  TrendMetricsVM `json:"metrics"`
	Alerts   []AlertVM      `json:"alerts"`
	Patterns []string       `json:"patterns"`
	Months   []MonthVM      `json:"months"`
}

// TrendMetricsVM is the rounded metrics block.
type TrendMetricsVM struct {
	Month           string  `json:"month"`
	Margin          float64 `json:"margin"`
	RevenueGrowth   float64 `json:"revenue_growth"`
	Trend           string  `json:"trend"`
	BenchmarkMargin float64 `json:"benchmark_margin"`
	BenchmarkStatus string  `json:"benchmark_status"`
}

func trendViewModel(t analytics.TrendAnalysis) TrendVM {
	alerts := make([]AlertVM, 0, len(t.Alerts))
	for _, a := range t.Alerts {
		alerts = append(alerts, AlertVM{
			ID:              a.ID,
			Severity:        string(a.Severity),
			Title:           a.Title,
			Description:     a.Description,
			SuggestedAction: a.SuggestedAction,
		})
	}
	return TrendVM{
		Metrics: TrendMetricsVM{
			Month:           t.Metrics.Month,
			Margin:          round2(t.Metrics.Margin),
			RevenueGrowth:   round2(t.Metrics.RevenueGrowth),
			Trend:           t.Metrics.Trend,
			BenchmarkMargin: round2(t.Metrics.BenchmarkMargin),
			BenchmarkStatus: t.Metrics.BenchmarkStatus,
		},
		Alerts:   alerts,
		Patterns: t.Patterns,
		Months:   rollupViewModel(t.Months).Months,
	}
}
