package analytichttp

import (
	"context"
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/balcao-erp/balcao/internal/platform/httpx"
)

// csvPrinter formats monetary amounts with grouping separators for export.
var csvPrinter = message.NewPrinter(language.English)

func (h *Handler) handleRollupExport(w http.ResponseWriter, r *http.Request) {
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

	rollup, err := h.service.GetMonthlyRollup(ctx, owner, months)
	if err != nil {
		h.respondServiceError(w, "rollup export", err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=rollup-%s.csv", owner))

	writer := csv.NewWriter(w)
	_ = writer.Write([]string{"month", "revenue", "direct_cost", "expenses", "profit"})
	for _, m := range rollup {
		_ = writer.Write([]string{
			m.Month,
			csvAmount(m.Revenue),
			csvAmount(m.DirectCost),
			csvAmount(m.Expenses),
			csvAmount(m.Profit),
		})
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		h.logger.Error("rollup csv flush", "error", err)
	}
}

func csvAmount(v float64) string {
	return csvPrinter.Sprintf("%.2f", round2(v))
}
