package analytics

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Trend window and thresholds.
const (
	trendWindowMonths   = 6
	growthTolerance     = 5.0
	benchmarkTolerance  = 2.0
	lowMarginThreshold  = 10.0
	profitDropThreshold = 15.0
)

// Severity grades an Alert.
type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityWarning  Severity = "WARNING"
)

// Alert is a derived signal; it is never persisted.
type Alert struct {
	ID              uuid.UUID `json:"id"`
	Severity        Severity  `json:"severity"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	SuggestedAction string    `json:"suggested_action"`
}

// TrendMetrics compares the current month against the prior one and against
// the window's average margin.
type TrendMetrics struct {
	Month           string  `json:"month"`
	Margin          float64 `json:"margin"`
	RevenueGrowth   float64 `json:"revenue_growth"`
	Trend           string  `json:"trend"`
	BenchmarkMargin float64 `json:"benchmark_margin"`
	BenchmarkStatus string  `json:"benchmark_status"`
}

// TrendAnalysis bundles metrics, fired alerts and detected patterns.
type TrendAnalysis struct {
	Metrics  TrendMetrics       `json:"metrics"`
	Alerts   []Alert            `json:"alerts"`
	Patterns []string           `json:"patterns"`
	Months   []MonthlyAggregate `json:"months"`
}

// GetTrendAnalysis evaluates the 6-month rollup: month-over-month growth,
// margin benchmark, alert rules and advisory patterns. Alert rules are
// independent; several may fire at once.
func (s *Service) GetTrendAnalysis(ctx context.Context, owner uuid.UUID) (TrendAnalysis, error) {
	months, err := s.GetMonthlyRollup(ctx, owner, trendWindowMonths)
	if err != nil {
		return TrendAnalysis{}, err
	}
	return analyzeTrend(months), nil
}

func analyzeTrend(months []MonthlyAggregate) TrendAnalysis {
	analysis := TrendAnalysis{Alerts: []Alert{}, Patterns: []string{}, Months: months}
	if len(months) == 0 {
		return analysis
	}

	current := months[len(months)-1]
	var prior MonthlyAggregate
	if len(months) > 1 {
		prior = months[len(months)-2]
	}

	metrics := TrendMetrics{
		Month:  current.Month,
		Margin: safePercent(current.Profit, current.Revenue),
	}
	if prior.Revenue != 0 {
		metrics.RevenueGrowth = (current.Revenue - prior.Revenue) / prior.Revenue * 100
	}
	switch {
	case metrics.RevenueGrowth > growthTolerance:
		metrics.Trend = "positive"
	case metrics.RevenueGrowth < -growthTolerance:
		metrics.Trend = "negative"
	default:
		metrics.Trend = "neutral"
	}

	metrics.BenchmarkMargin = benchmarkMargin(months)
	switch {
	case metrics.Margin > metrics.BenchmarkMargin+benchmarkTolerance:
		metrics.BenchmarkStatus = "above"
	case metrics.Margin < metrics.BenchmarkMargin-benchmarkTolerance:
		metrics.BenchmarkStatus = "below"
	default:
		metrics.BenchmarkStatus = "on-average"
	}
	analysis.Metrics = metrics

	analysis.Alerts = append(analysis.Alerts, evaluateAlerts(current, prior, metrics.Margin)...)
	analysis.Patterns = append(analysis.Patterns, detectPatterns(months)...)
	return analysis
}

// benchmarkMargin averages the margin across months with actual revenue.
func benchmarkMargin(months []MonthlyAggregate) float64 {
	var sum float64
	var count int
	for _, m := range months {
		if m.Revenue > 0 {
			sum += safePercent(m.Profit, m.Revenue)
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

func evaluateAlerts(current, prior MonthlyAggregate, margin float64) []Alert {
	alerts := []Alert{}

	if current.Revenue > 0 && current.DirectCost+current.Expenses > current.Revenue {
		alerts = append(alerts, Alert{
			ID:       uuid.New(),
			Severity: SeverityCritical,
			Title:    "Overspending",
			Description: fmt.Sprintf("Costs and expenses (%.2f) exceed revenue (%.2f) this month.",
				current.DirectCost+current.Expenses, current.Revenue),
			SuggestedAction: "Review direct costs and recurring expenses before the month closes.",
		})
	}

	if prior.Profit > 0 {
		drop := (prior.Profit - current.Profit) / prior.Profit * 100
		if drop > profitDropThreshold {
			alerts = append(alerts, Alert{
				ID:       uuid.New(),
				Severity: SeverityWarning,
				Title:    "Profit drop",
				Description: fmt.Sprintf("Profit fell %.1f%% against last month (%.2f to %.2f).",
					drop, prior.Profit, current.Profit),
				SuggestedAction: "Compare this month's cost structure and sales mix with the prior month.",
			})
		}
	}

	if margin > 0 && margin < lowMarginThreshold {
		alerts = append(alerts, Alert{
			ID:              uuid.New(),
			Severity:        SeverityWarning,
			Title:           "Low margin",
			Description:     fmt.Sprintf("Net margin of %.1f%% is below the %.0f%% floor.", margin, lowMarginThreshold),
			SuggestedAction: "Reprice low-margin products or renegotiate supplier costs.",
		})
	}

	return alerts
}

func detectPatterns(months []MonthlyAggregate) []string {
	patterns := []string{}

	if len(months) >= 2 {
		positive := 0
		deltas := 0
		for i := 1; i < len(months); i++ {
			deltas++
			if months[i].Revenue > months[i-1].Revenue {
				positive++
			}
		}
		if deltas >= 5 && positive >= 4 {
			patterns = append(patterns, "consistent-growth")
		}
	}

	if len(months) >= 3 {
		last := months[len(months)-3:]
		if last[0].DirectCost < last[1].DirectCost && last[1].DirectCost < last[2].DirectCost {
			patterns = append(patterns, "rising-costs")
		}
	}

	return patterns
}
