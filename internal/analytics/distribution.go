package analytics

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/balcao-erp/balcao/internal/ledger"
	"github.com/balcao-erp/balcao/internal/shared"
)

// Fixed allocation ratios; they sum to exactly 1.00.
const (
	withdrawalRatio   = 0.50
	reinvestmentRatio = 0.30
	taxesRatio        = 0.10
	reserveRatio      = 0.10
)

// DistributionResult is the suggested split of the current month's net
// profit. Available is false when net profit is zero or negative; the
// amounts are then all zero and no plan should be saved.
type DistributionResult struct {
	Available    bool    `json:"available"`
	Month        string  `json:"month"`
	NetProfit    float64 `json:"net_profit"`
	Withdrawal   float64 `json:"withdrawal"`
	Reinvestment float64 `json:"reinvestment"`
	Taxes        float64 `json:"taxes"`
	Reserve      float64 `json:"reserve"`
}

// GetProfitDistribution derives the 50/30/10/10 split from the current
// month's DRE. Distribution suggestions are never cached: they are a direct
// function of the month-to-date DRE and saving them is a write path.
func (s *Service) GetProfitDistribution(ctx context.Context, owner uuid.UUID) (DistributionResult, error) {
	month := shared.MonthRange(s.now())
	dre, err := s.GetDRE(ctx, owner, month)
	if err != nil {
		return DistributionResult{}, err
	}
	return SplitNetProfit(month.Month(), dre.NetProfit), nil
}

// SplitNetProfit applies the fixed allocation ratios to a net profit figure.
func SplitNetProfit(month string, netProfit float64) DistributionResult {
	if netProfit <= 0 {
		return DistributionResult{Available: false, Month: month, NetProfit: netProfit}
	}
	return DistributionResult{
		Available:    true,
		Month:        month,
		NetProfit:    netProfit,
		Withdrawal:   netProfit * withdrawalRatio,
		Reinvestment: netProfit * reinvestmentRatio,
		Taxes:        netProfit * taxesRatio,
		Reserve:      netProfit * reserveRatio,
	}
}

// SaveProfitDistribution persists a plan snapshot for the owner and month.
// The write is an upsert keyed by (owner, month); saving twice for the same
// month overwrites the earlier snapshot.
func (s *Service) SaveProfitDistribution(ctx context.Context, owner uuid.UUID, month string, netProfit float64) (ledger.DistributionPlan, error) {
	if _, err := parseMonthLabel(month); err != nil {
		return ledger.DistributionPlan{}, err
	}
	if netProfit <= 0 {
		return ledger.DistributionPlan{}, fmt.Errorf("%w: net profit must be positive", shared.ErrInvalidRange)
	}
	split := SplitNetProfit(month, netProfit)
	plan := ledger.DistributionPlan{
		OwnerID:      owner,
		Month:        month,
		NetProfit:    split.NetProfit,
		Withdrawal:   split.Withdrawal,
		Reinvestment: split.Reinvestment,
		Taxes:        split.Taxes,
		Reserve:      split.Reserve,
	}
	if err := s.ledger.UpsertPlan(ctx, plan); err != nil {
		return ledger.DistributionPlan{}, err
	}
	return plan, nil
}

// GetSavedDistribution loads a previously persisted plan.
func (s *Service) GetSavedDistribution(ctx context.Context, owner uuid.UUID, month string) (*ledger.DistributionPlan, error) {
	if _, err := parseMonthLabel(month); err != nil {
		return nil, err
	}
	return s.ledger.SavedPlan(ctx, owner, month)
}
