package ledger

import (
	"time"

	"github.com/google/uuid"
)

// Sale is one checkout captured by the POS. GrossTotal already includes every
// line item; Canceled sales stay in storage but are excluded from analytics.
type Sale struct {
	ID            uuid.UUID `json:"id"`
	OwnerID       uuid.UUID `json:"owner_id"`
	OccurredAt    time.Time `json:"occurred_at"`
	GrossTotal    float64   `json:"gross_total"`
	PaymentMethod string    `json:"payment_method"`
	Canceled      bool      `json:"canceled"`
}

// LineItem is one product position of a sale. UnitCost is the product cost
// snapshotted at sale time and never follows later cost changes.
type LineItem struct {
	SaleID       uuid.UUID `json:"sale_id"`
	ProductID    uuid.UUID `json:"product_id"`
	ProductName  string    `json:"product_name"`
	Quantity     float64   `json:"quantity"`
	UnitPrice    float64   `json:"unit_price"`
	UnitCost     float64   `json:"unit_cost"`
	LineTotal    float64   `json:"line_total"`
	SaleDate     time.Time `json:"sale_date"`
	SaleCanceled bool      `json:"-"`
}

// Expense is a back-office outflow dated by calendar day.
type Expense struct {
	ID         uuid.UUID `json:"id"`
	OwnerID    uuid.UUID `json:"owner_id"`
	OccurredOn time.Time `json:"occurred_on"`
	Amount     float64   `json:"amount"`
	Category   string    `json:"category"`
}

// TaxMode selects how taxes and fees are derived from revenue.
type TaxMode string

const (
	TaxModeNone TaxMode = "NONE"
	TaxModeRate TaxMode = "RATE"
	TaxModeFlat TaxMode = "FLAT"
)

// TaxSettings is the per-owner tax/fee configuration. A missing row behaves
// like TaxModeNone.
type TaxSettings struct {
	OwnerID    uuid.UUID `json:"owner_id"`
	Mode       TaxMode   `json:"mode"`
	Rate       float64   `json:"rate"`
	FlatAmount float64   `json:"flat_amount"`
}

// Applied computes the taxes-and-fees charge for the given revenue.
func (t TaxSettings) Applied(revenue float64) float64 {
	switch t.Mode {
	case TaxModeRate:
		return revenue * t.Rate / 100
	case TaxModeFlat:
		return t.FlatAmount
	default:
		return 0
	}
}

// DistributionPlan is the persisted 50/30/10/10 split of a month's net profit.
type DistributionPlan struct {
	OwnerID      uuid.UUID `json:"owner_id"`
	Month        string    `json:"month"`
	NetProfit    float64   `json:"net_profit"`
	Withdrawal   float64   `json:"withdrawal"`
	Reinvestment float64   `json:"reinvestment"`
	Taxes        float64   `json:"taxes"`
	Reserve      float64   `json:"reserve"`
	UpdatedAt    time.Time `json:"updated_at"`
}
