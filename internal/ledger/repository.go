package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/balcao-erp/balcao/internal/shared"
)

// Postgres check_violation; the plan table guards allocation amounts.
const pgCheckViolation = "23514"

// Repository is the only component that touches storage. Sales, line items
// and expenses are strictly read-only; the distribution plan upsert is the
// single write this service performs.
type Repository interface {
	SalesInRange(ctx context.Context, owner uuid.UUID, r shared.DateRange, includeCanceled bool) ([]Sale, error)
	LineItemsInRange(ctx context.Context, owner uuid.UUID, r shared.DateRange) ([]LineItem, error)
	ExpensesInRange(ctx context.Context, owner uuid.UUID, r shared.DateRange) ([]Expense, error)
	TaxSettings(ctx context.Context, owner uuid.UUID) (TaxSettings, error)
	SavedPlan(ctx context.Context, owner uuid.UUID, month string) (*DistributionPlan, error)
	UpsertPlan(ctx context.Context, plan DistributionPlan) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository wires a pgx pool into the ledger access layer.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) SalesInRange(ctx context.Context, owner uuid.UUID, rng shared.DateRange, includeCanceled bool) ([]Sale, error) {
	query := `
		SELECT id, owner_id, occurred_at, gross_total, payment_method, canceled
		FROM sales
		WHERE owner_id = $1 AND occurred_at >= $2 AND occurred_at < $3`
	if !includeCanceled {
		query += " AND canceled = FALSE"
	}
	query += " ORDER BY occurred_at, id"

	rows, err := r.pool.Query(ctx, query, owner, rng.Start, rng.ExclusiveEnd())
	if err != nil {
		return nil, dataAccess("sales", err)
	}
	defer rows.Close()

	sales := []Sale{}
	for rows.Next() {
		var s Sale
		var total pgtype.Numeric
		if err := rows.Scan(&s.ID, &s.OwnerID, &s.OccurredAt, &total, &s.PaymentMethod, &s.Canceled); err != nil {
			return nil, dataAccess("sales", err)
		}
		s.GrossTotal = numericFloat(total)
		sales = append(sales, s)
	}
	if err := rows.Err(); err != nil {
		return nil, dataAccess("sales", err)
	}
	return sales, nil
}

func (r *repository) LineItemsInRange(ctx context.Context, owner uuid.UUID, rng shared.DateRange) ([]LineItem, error) {
	// Line items are attributed by the parent sale's date so that cost and
	// revenue always land in the same period.
	const query = `
		SELECT si.sale_id, si.product_id, p.name, si.quantity, si.unit_price,
		       si.unit_cost, si.line_total, s.occurred_at, s.canceled
		FROM sale_items si
		JOIN sales s ON s.id = si.sale_id
		JOIN products p ON p.id = si.product_id
		WHERE s.owner_id = $1 AND s.occurred_at >= $2 AND s.occurred_at < $3
		ORDER BY s.occurred_at, si.sale_id, si.product_id`

	rows, err := r.pool.Query(ctx, query, owner, rng.Start, rng.ExclusiveEnd())
	if err != nil {
		return nil, dataAccess("sale_items", err)
	}
	defer rows.Close()

	items := []LineItem{}
	for rows.Next() {
		var it LineItem
		var qty, price, cost, total pgtype.Numeric
		if err := rows.Scan(&it.SaleID, &it.ProductID, &it.ProductName, &qty, &price, &cost, &total, &it.SaleDate, &it.SaleCanceled); err != nil {
			return nil, dataAccess("sale_items", err)
		}
		it.Quantity = numericFloat(qty)
		it.UnitPrice = numericFloat(price)
		it.UnitCost = numericFloat(cost)
		it.LineTotal = numericFloat(total)
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, dataAccess("sale_items", err)
	}
	return items, nil
}

func (r *repository) ExpensesInRange(ctx context.Context, owner uuid.UUID, rng shared.DateRange) ([]Expense, error) {
	const query = `
		SELECT id, owner_id, occurred_on, amount, category
		FROM expenses
		WHERE owner_id = $1 AND occurred_on >= $2 AND occurred_on <= $3
		ORDER BY occurred_on, id`

	rows, err := r.pool.Query(ctx, query, owner, rng.Start, rng.End)
	if err != nil {
		return nil, dataAccess("expenses", err)
	}
	defer rows.Close()

	expenses := []Expense{}
	for rows.Next() {
		var e Expense
		var amount pgtype.Numeric
		var occurredOn pgtype.Date
		if err := rows.Scan(&e.ID, &e.OwnerID, &occurredOn, &amount, &e.Category); err != nil {
			return nil, dataAccess("expenses", err)
		}
		if occurredOn.Valid {
			e.OccurredOn = occurredOn.Time
		}
		e.Amount = numericFloat(amount)
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, dataAccess("expenses", err)
	}
	return expenses, nil
}

func (r *repository) TaxSettings(ctx context.Context, owner uuid.UUID) (TaxSettings, error) {
	const query = `
		SELECT owner_id, mode, rate, flat_amount
		FROM tax_settings
		WHERE owner_id = $1`

	var t TaxSettings
	var rate, flat pgtype.Numeric
	err := r.pool.QueryRow(ctx, query, owner).Scan(&t.OwnerID, &t.Mode, &rate, &flat)
	if errors.Is(err, pgx.ErrNoRows) {
		return TaxSettings{OwnerID: owner, Mode: TaxModeNone}, nil
	}
	if err != nil {
		return TaxSettings{}, dataAccess("tax_settings", err)
	}
	t.Rate = numericFloat(rate)
	t.FlatAmount = numericFloat(flat)
	return t, nil
}

func (r *repository) SavedPlan(ctx context.Context, owner uuid.UUID, month string) (*DistributionPlan, error) {
	const query = `
		SELECT owner_id, month, net_profit, withdrawal, reinvestment, taxes, reserve, updated_at
		FROM profit_distributions
		WHERE owner_id = $1 AND month = $2`

	var p DistributionPlan
	var net, withdrawal, reinvestment, taxes, reserve pgtype.Numeric
	err := r.pool.QueryRow(ctx, query, owner, month).Scan(&p.OwnerID, &p.Month, &net, &withdrawal, &reinvestment, &taxes, &reserve, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, dataAccess("profit_distributions", err)
	}
	p.NetProfit = numericFloat(net)
	p.Withdrawal = numericFloat(withdrawal)
	p.Reinvestment = numericFloat(reinvestment)
	p.Taxes = numericFloat(taxes)
	p.Reserve = numericFloat(reserve)
	return &p, nil
}

func (r *repository) UpsertPlan(ctx context.Context, plan DistributionPlan) error {
	// Single-statement upsert keyed by (owner, month); concurrent saves for
	// the same month resolve last-writer-wins.
	const query = `
		INSERT INTO profit_distributions
			(owner_id, month, net_profit, withdrawal, reinvestment, taxes, reserve, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		ON CONFLICT (owner_id, month) DO UPDATE SET
			net_profit   = EXCLUDED.net_profit,
			withdrawal   = EXCLUDED.withdrawal,
			reinvestment = EXCLUDED.reinvestment,
			taxes        = EXCLUDED.taxes,
			reserve      = EXCLUDED.reserve,
			updated_at   = NOW()`

	_, err := r.pool.Exec(ctx, query,
		plan.OwnerID, plan.Month, plan.NetProfit,
		plan.Withdrawal, plan.Reinvestment, plan.Taxes, plan.Reserve)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgCheckViolation {
			return fmt.Errorf("%w: plan violates %s", shared.ErrInvalidRange, pgErr.ConstraintName)
		}
		return dataAccess("profit_distributions", err)
	}
	return nil
}

func numericFloat(n pgtype.Numeric) float64 {
	if !n.Valid {
		return 0
	}
	f, err := n.Float64Value()
	if err != nil {
		return 0
	}
	return f.Float64
}

func dataAccess(table string, err error) error {
	return fmt.Errorf("%w: %s: %v", shared.ErrDataAccess, table, err)
}
