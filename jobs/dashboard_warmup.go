package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/balcao-erp/balcao/internal/analytics"
)

const warmupDefaultMonths = 6

// DashboardWarmupJob precomputes dashboards for owners with recent activity
// so the first request of the day hits a warm cache. The engine itself stays
// recompute-per-request; this only populates the injectable cache layer.
type DashboardWarmupJob struct {
	Analytics *analytics.Service
	Pool      *pgxpool.Pool
	Logger    *slog.Logger
	clock     func() time.Time
}

// NewDashboardWarmupJob wires dependencies for the warmup handler.
func NewDashboardWarmupJob(svc *analytics.Service, pool *pgxpool.Pool, logger *slog.Logger) *DashboardWarmupJob {
	return &DashboardWarmupJob{
		Analytics: svc,
		Pool:      pool,
		Logger:    logger,
		clock:     func() time.Time { return time.Now().UTC() },
	}
}

// Handle processes dashboard warmup tasks.
func (j *DashboardWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Analytics == nil {
		return errors.New("dashboard warmup: handler not configured")
	}
	var payload DashboardWarmupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.Months <= 0 {
		payload.Months = warmupDefaultMonths
	}

	logger := j.logger()
	logger.Info("starting dashboard warmup", slog.Int("months", payload.Months))

	owners, err := j.activeOwners(ctx)
	if err != nil {
		logger.Error("load warmup owners", slog.Any("error", err))
		return err
	}
	if len(owners) == 0 {
		logger.Info("no active owners to warm")
		return nil
	}

	start := j.clock()
	for _, owner := range owners {
		if err := j.warmOwner(ctx, owner, payload.Months); err != nil {
			logger.Error("warm owner", slog.String("owner_id", owner.String()), slog.Any("error", err))
			return err
		}
	}
	logger.Info("completed dashboard warmup", slog.Int("owners", len(owners)), slog.Duration("duration", time.Since(start)))
	return nil
}

func (j *DashboardWarmupJob) warmOwner(ctx context.Context, owner uuid.UUID, months int) error {
	ownerCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	if _, err := j.Analytics.GetMonthlyRollup(ownerCtx, owner, months); err != nil {
		return err
	}
	if _, err := j.Analytics.GetTrendAnalysis(ownerCtx, owner); err != nil {
		return err
	}
	return nil
}

// activeOwners lists owners with at least one sale in the last 90 days.
func (j *DashboardWarmupJob) activeOwners(ctx context.Context) ([]uuid.UUID, error) {
	if j.Pool == nil {
		return nil, nil
	}
	const query = `
		SELECT DISTINCT owner_id
		FROM sales
		WHERE occurred_at >= NOW() - INTERVAL '90 days'
		ORDER BY owner_id`

	rows, err := j.Pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var owners []uuid.UUID
	for rows.Next() {
		var owner uuid.UUID
		if err := rows.Scan(&owner); err != nil {
			return nil, err
		}
		owners = append(owners, owner)
	}
	return owners, rows.Err()
}

func (j *DashboardWarmupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
