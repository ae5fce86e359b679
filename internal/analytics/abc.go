package analytics

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/balcao-erp/balcao/internal/shared"
)

// Pareto tier boundaries as cumulative revenue percentages.
const (
	tierABoundary = 80.0
	tierBBoundary = 95.0
)

// ClassTier labels a product's Pareto bucket.
type ClassTier string

const (
	TierA ClassTier = "A"
	TierB ClassTier = "B"
	TierC ClassTier = "C"
)

// ProductRank is one classified product of the ABC curve.
type ProductRank struct {
	ProductID            uuid.UUID `json:"product_id"`
	Name                 string    `json:"name"`
	Revenue              float64   `json:"revenue"`
	QuantitySold         float64   `json:"quantity_sold"`
	RevenuePercentage    float64   `json:"revenue_percentage"`
	CumulativePercentage float64   `json:"cumulative_percentage"`
	ClassTier            ClassTier `json:"class_tier"`
}

// ABCCurve groups the ranked products into the three Pareto tiers.
type ABCCurve struct {
	ClassA       []ProductRank `json:"class_a"`
	ClassB       []ProductRank `json:"class_b"`
	ClassC       []ProductRank `json:"class_c"`
	TotalRevenue float64       `json:"total_revenue"`
}

// GetABCCurve ranks products by revenue over the range and assigns A/B/C
// tiers at the 80% and 95% cumulative boundaries. The product that first
// pushes the cumulative share past a boundary still belongs to the tier
// below it, so A and B are never spuriously empty.
func (s *Service) GetABCCurve(ctx context.Context, owner uuid.UUID, r shared.DateRange) (ABCCurve, error) {
	loader := func(ctx context.Context) (interface{}, error) {
		items, err := s.ledger.LineItemsInRange(ctx, owner, r)
		if err != nil {
			return ABCCurve{}, err
		}

		type productTotal struct {
			id       uuid.UUID
			name     string
			revenue  float64
			quantity float64
		}
		byProduct := map[uuid.UUID]*productTotal{}
		for _, item := range items {
			if item.SaleCanceled {
				continue
			}
			total, ok := byProduct[item.ProductID]
			if !ok {
				total = &productTotal{id: item.ProductID, name: item.ProductName}
				byProduct[item.ProductID] = total
			}
			total.revenue += item.LineTotal
			total.quantity += item.Quantity
		}

		ranked := make([]productTotal, 0, len(byProduct))
		for _, total := range byProduct {
			ranked = append(ranked, *total)
		}
		// Revenue descending; ascending product ID keeps ties deterministic.
		sort.Slice(ranked, func(i, j int) bool {
			if ranked[i].revenue != ranked[j].revenue {
				return ranked[i].revenue > ranked[j].revenue
			}
			return strings.Compare(ranked[i].id.String(), ranked[j].id.String()) < 0
		})

		curve := ABCCurve{ClassA: []ProductRank{}, ClassB: []ProductRank{}, ClassC: []ProductRank{}}
		for _, total := range ranked {
			curve.TotalRevenue += total.revenue
		}
		if curve.TotalRevenue == 0 {
			return curve, nil
		}

		running := 0.0
		for _, total := range ranked {
			before := safePercent(running, curve.TotalRevenue)
			running += total.revenue
			cumulative := safePercent(running, curve.TotalRevenue)

			rank := ProductRank{
				ProductID:            total.id,
				Name:                 total.name,
				Revenue:              total.revenue,
				QuantitySold:         total.quantity,
				RevenuePercentage:    safePercent(total.revenue, curve.TotalRevenue),
				CumulativePercentage: cumulative,
			}
			switch {
			case cumulative <= tierABoundary || before < tierABoundary:
				rank.ClassTier = TierA
				curve.ClassA = append(curve.ClassA, rank)
			case cumulative <= tierBBoundary || before < tierBBoundary:
				rank.ClassTier = TierB
				curve.ClassB = append(curve.ClassB, rank)
			default:
				rank.ClassTier = TierC
				curve.ClassC = append(curve.ClassC, rank)
			}
		}
		return curve, nil
	}

	if s.cache == nil {
		value, err := loader(ctx)
		if err != nil {
			return ABCCurve{}, err
		}
		return value.(ABCCurve), nil
	}

	key, err := s.cache.BuildKey(ctx, keyABC(owner, r))
	if err != nil {
		return ABCCurve{}, err
	}
	var curve ABCCurve
	if err := s.cache.FetchJSON(ctx, key, &curve, loader); err != nil {
		return ABCCurve{}, err
	}
	return curve, nil
}
