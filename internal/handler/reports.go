package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/cashmais/internal/middleware"
	"github.com/iliyamo/cashmais/internal/model"
	"github.com/iliyamo/cashmais/internal/repository"
	"github.com/iliyamo/cashmais/internal/service"
)

const (
	reportLimit  = 100
	seriesMonths = 6
	dateLayout   = "2006-01-02"
	monthLayout  = "2006-01"
)

// PurchaseReader reads the purchase ledger for reports.
type PurchaseReader interface {
	ListForReport(ctx context.Context, companyID uint64, f repository.ReportFilter) ([]model.Purchase, error)
	ListForAggregation(ctx context.Context, companyID uint64, since string) ([]model.Purchase, error)
}

// CashbackStore reads and writes a company's cashback percentage.
type CashbackStore interface {
	CashbackPercentage(ctx context.Context, companyID uint64) (decimal.Decimal, bool, error)
	SetCashbackPercentage(ctx context.Context, companyID uint64, pct decimal.Decimal) error
}

// ReportHandler serves the company reports.  Every figure is folded from
// raw purchase rows at request time.
type ReportHandler struct {
	Purchases  PurchaseReader
	Settings   CashbackStore
	DefaultPct decimal.Decimal
	Now        func() time.Time
}

func NewReportHandler(p PurchaseReader, s CashbackStore, defaultPct decimal.Decimal) *ReportHandler {
	return &ReportHandler{Purchases: p, Settings: s, DefaultPct: defaultPct, Now: time.Now}
}

// Report handles GET /api/empresa/relatorio?from=&to=.
func (h *ReportHandler) Report(c echo.Context) error {
	co, ok := middleware.CompanyFrom(c)
	if !ok {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}
	f := repository.ReportFilter{From: c.QueryParam("from"), To: c.QueryParam("to"), Limit: reportLimit}
	for _, d := range []string{f.From, f.To} {
		if d == "" {
			continue
		}
		if _, err := time.Parse(dateLayout, d); err != nil {
			return fail(c, http.StatusBadRequest, "dates must be YYYY-MM-DD")
		}
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rows, err := h.Purchases.ListForReport(ctx, co.ID, f)
	if err != nil {
		return internalError(c, err, "list purchases")
	}
	return success(c, echo.Map{"purchases": rows})
}

// Statistics handles GET /api/empresa/estatisticas?month=YYYY-MM.
func (h *ReportHandler) Statistics(c echo.Context) error {
	co, ok := middleware.CompanyFrom(c)
	if !ok {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}
	month := service.MonthKey(h.Now().UTC())
	if m := c.QueryParam("month"); m != "" {
		if _, err := time.Parse(monthLayout, m); err != nil {
			return fail(c, http.StatusBadRequest, "month must be YYYY-MM")
		}
		month = m
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rows, err := h.Purchases.ListForAggregation(ctx, co.ID, "")
	if err != nil {
		return internalError(c, err, "aggregate purchases")
	}
	pct, found, err := h.Settings.CashbackPercentage(ctx, co.ID)
	if err != nil {
		return internalError(c, err, "load cashback config")
	}
	if !found {
		pct = h.DefaultPct
	}
	s := service.Summarize(rows, month)
	return success(c, echo.Map{
		"month":               month,
		"total":               s.Total,
		"monthly":             s.Monthly,
		"cashback_percentage": pct,
	})
}

// Monthly handles GET /api/empresa/dados-mensais.
func (h *ReportHandler) Monthly(c echo.Context) error {
	co, ok := middleware.CompanyFrom(c)
	if !ok {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}
	now := h.Now().UTC()
	since := service.SeriesStart(now, seriesMonths).Format(dateLayout)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rows, err := h.Purchases.ListForAggregation(ctx, co.ID, since)
	if err != nil {
		return internalError(c, err, "aggregate purchases")
	}
	return success(c, echo.Map{"monthly_data": service.MonthlySeries(rows, now, seriesMonths)})
}
