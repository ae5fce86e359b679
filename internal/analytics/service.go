// Package analytics derives financial statements and decision-support
// signals from the raw sales/expense ledger. Every analytic is a pure,
// synchronous read-and-compute operation; nothing here mutates ledger
// records except the profit-distribution upsert.
package analytics

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/balcao-erp/balcao/internal/ledger"
	"github.com/balcao-erp/balcao/internal/shared"
)

// Ledger is the read-only slice of the ledger repository the engine consumes,
// plus the distribution-plan persistence it owns.
type Ledger interface {
	SalesInRange(ctx context.Context, owner uuid.UUID, r shared.DateRange, includeCanceled bool) ([]ledger.Sale, error)
	LineItemsInRange(ctx context.Context, owner uuid.UUID, r shared.DateRange) ([]ledger.LineItem, error)
	ExpensesInRange(ctx context.Context, owner uuid.UUID, r shared.DateRange) ([]ledger.Expense, error)
	TaxSettings(ctx context.Context, owner uuid.UUID) (ledger.TaxSettings, error)
	SavedPlan(ctx context.Context, owner uuid.UUID, month string) (*ledger.DistributionPlan, error)
	UpsertPlan(ctx context.Context, plan ledger.DistributionPlan) error
}

// Service coordinates analytic computation with the optional cache layer.
type Service struct {
	ledger Ledger
	cache  *Cache
	now    func() time.Time
}

// NewService wires the ledger with an optional Cache helper. A nil cache
// means every call computes from raw records.
func NewService(l Ledger, cache *Cache) *Service {
	return &Service{ledger: l, cache: cache, now: func() time.Time { return time.Now().UTC() }}
}

// WithNow overrides the service clock for testing.
func (s *Service) WithNow(fn func() time.Time) *Service {
	if fn != nil {
		s.now = fn
	}
	return s
}

// safePercent guards the denominator so margin math never yields NaN.
func safePercent(value, total float64) float64 {
	if total == 0 {
		return 0
	}
	return value / total * 100
}
