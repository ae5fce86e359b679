// Package analytichttp exposes the analytics engine as a JSON API. It owns
// all presentation concerns: two-decimal rounding, running balances, and the
// mapping of engine errors onto problem responses.
package analytichttp

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/balcao-erp/balcao/internal/analytics"
	"github.com/balcao-erp/balcao/internal/ledger"
	"github.com/balcao-erp/balcao/internal/platform/httpx"
	"github.com/balcao-erp/balcao/internal/shared"
)

const (
	requestTimeout    = 10 * time.Second
	defaultRollupSpan = 6
	maxRollupSpan     = 24
)

// AnalyticsService is the engine contract consumed by the handler.
type AnalyticsService interface {
	GetMonthlyRollup(ctx context.Context, owner uuid.UUID, monthCount int) ([]analytics.MonthlyAggregate, error)
	GetDRE(ctx context.Context, owner uuid.UUID, r shared.DateRange) (analytics.DREResult, error)
	GetABCCurve(ctx context.Context, owner uuid.UUID, r shared.DateRange) (analytics.ABCCurve, error)
	GetCashFlow(ctx context.Context, owner uuid.UUID, r shared.DateRange) ([]analytics.DailyFlow, error)
	GetProfitDistribution(ctx context.Context, owner uuid.UUID) (analytics.DistributionResult, error)
	SaveProfitDistribution(ctx context.Context, owner uuid.UUID, month string, netProfit float64) (ledger.DistributionPlan, error)
	GetSavedDistribution(ctx context.Context, owner uuid.UUID, month string) (*ledger.DistributionPlan, error)
	GetTrendAnalysis(ctx context.Context, owner uuid.UUID) (analytics.TrendAnalysis, error)
}

// Handler coordinates HTTP requests for the analytics dashboards.
type Handler struct {
	logger   *slog.Logger
	service  AnalyticsService
	validate *validator.Validate
	group    singleflight.Group
	now      func() time.Time
}

// NewHandler constructs the analytics HTTP handler.
func NewHandler(logger *slog.Logger, service AnalyticsService) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:   logger,
		service:  service,
		validate: validator.New(),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// WithNow overrides the handler clock for testing.
func (h *Handler) WithNow(fn func() time.Time) *Handler {
	if fn != nil {
		h.now = fn
	}
	return h
}

func (h *Handler) handleRollup(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerParam(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	months := defaultRollupSpan
	if raw := strings.TrimSpace(r.URL.Query().Get("months")); raw != "" {
		months, err = strconv.Atoi(raw)
		if err != nil || months <= 0 || months > maxRollupSpan {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "months must be between 1 and 24")
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	key := "rollup:" + owner.String() + ":" + strconv.Itoa(months)
	value, err, _ := h.group.Do(key, func() (interface{}, error) {
		return h.service.GetMonthlyRollup(ctx, owner, months)
	})
	if err != nil {
		h.respondServiceError(w, "monthly rollup", err)
		return
	}
	httpx.JSON(w, http.StatusOK, rollupViewModel(value.([]analytics.MonthlyAggregate)))
}

func (h *Handler) handleDRE(w http.ResponseWriter, r *http.Request) {
	owner, rng, ok := h.ownerAndRange(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	key := "dre:" + owner.String() + ":" + rng.String()
	value, err, _ := h.group.Do(key, func() (interface{}, error) {
		return h.service.GetDRE(ctx, owner, rng)
	})
	if err != nil {
		h.respondServiceError(w, "dre", err)
		return
	}
	httpx.JSON(w, http.StatusOK, dreViewModel(value.(analytics.DREResult)))
}

func (h *Handler) handleABC(w http.ResponseWriter, r *http.Request) {
	owner, rng, ok := h.ownerAndRange(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	key := "abc:" + owner.String() + ":" + rng.String()
	value, err, _ := h.group.Do(key, func() (interface{}, error) {
		return h.service.GetABCCurve(ctx, owner, rng)
	})
	if err != nil {
		h.respondServiceError(w, "abc curve", err)
		return
	}
	httpx.JSON(w, http.StatusOK, abcViewModel(value.(analytics.ABCCurve)))
}

func (h *Handler) handleCashFlow(w http.ResponseWriter, r *http.Request) {
	owner, rng, ok := h.ownerAndRange(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	flows, err := h.service.GetCashFlow(ctx, owner, rng)
	if err != nil {
		h.respondServiceError(w, "cash flow", err)
		return
	}
	httpx.JSON(w, http.StatusOK, cashFlowViewModel(flows))
}

func (h *Handler) handleDistribution(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerParam(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	if month := strings.TrimSpace(r.URL.Query().Get("month")); month != "" {
		plan, err := h.service.GetSavedDistribution(ctx, owner, month)
		if err != nil {
			h.respondServiceError(w, "saved distribution", err)
			return
		}
		httpx.JSON(w, http.StatusOK, savedPlanViewModel(*plan))
		return
	}

	result, err := h.service.GetProfitDistribution(ctx, owner)
	if err != nil {
		h.respondServiceError(w, "profit distribution", err)
		return
	}
	httpx.JSON(w, http.StatusOK, distributionViewModel(result))
}

// SaveDistributionRequest is the POST body for persisting a plan snapshot.
type SaveDistributionRequest struct {
	OwnerID   uuid.UUID `json:"owner_id" validate:"required"`
	Month     string    `json:"month" validate:"required,len=7"`
	NetProfit float64   `json:"net_profit" validate:"required,gt=0"`
}

func (h *Handler) handleSaveDistribution(w http.ResponseWriter, r *http.Request) {
	var req SaveDistributionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	plan, err := h.service.SaveProfitDistribution(ctx, req.OwnerID, req.Month, req.NetProfit)
	if err != nil {
		h.respondServiceError(w, "save distribution", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, savedPlanViewModel(plan))
}

func (h *Handler) handleTrends(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerParam(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	key := "trends:" + owner.String()
	value, err, _ := h.group.Do(key, func() (interface{}, error) {
		return h.service.GetTrendAnalysis(ctx, owner)
	})
	if err != nil {
		h.respondServiceError(w, "trend analysis", err)
		return
	}
	httpx.JSON(w, http.StatusOK, trendViewModel(value.(analytics.TrendAnalysis)))
}

// ownerAndRange parses owner_id plus from/to, defaulting to the current
// month when the range is absent.
func (h *Handler) ownerAndRange(w http.ResponseWriter, r *http.Request) (uuid.UUID, shared.DateRange, bool) {
	owner, err := ownerParam(r)
	if err != nil {
		httpx.RespondError(w, err)
		return uuid.Nil, shared.DateRange{}, false
	}
	from := strings.TrimSpace(r.URL.Query().Get("from"))
	to := strings.TrimSpace(r.URL.Query().Get("to"))
	if from == "" && to == "" {
		return owner, shared.MonthRange(h.now()), true
	}
	rng, err := shared.ParseDateRange(from, to)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return uuid.Nil, shared.DateRange{}, false
	}
	return owner, rng, true
}

func ownerParam(r *http.Request) (uuid.UUID, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("owner_id"))
	if raw == "" {
		return uuid.Nil, httpx.ErrValidation
	}
	owner, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, httpx.ErrValidation
	}
	return owner, nil
}

func (h *Handler) respondServiceError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, shared.ErrInvalidRange):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, shared.ErrNotFound):
		httpx.RespondError(w, httpx.ErrNotFound)
	case errors.Is(err, shared.ErrDataAccess):
		h.logger.Error("ledger read failed", slog.String("op", op), slog.Any("error", err))
		httpx.Problem(w, http.StatusServiceUnavailable, "Ledger Unavailable", "the ledger could not be reached")
	default:
		h.logger.Error("analytics request failed", slog.String("op", op), slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
