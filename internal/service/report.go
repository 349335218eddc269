package service

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/cashmais/internal/model"
)

// Totals is a count/value/cashback rollup.
type Totals struct {
	SalesCount        int             `json:"sales_count"`
	SalesValue        decimal.Decimal `json:"sales_value"`
	CashbackGenerated decimal.Decimal `json:"cashback_generated"`
}

func (t *Totals) add(p model.Purchase) {
	t.SalesCount++
	t.SalesValue = t.SalesValue.Add(p.PurchaseValue)
	t.CashbackGenerated = t.CashbackGenerated.Add(p.CashbackGenerated)
}

// Summary is the all-time and reference-month rollup of a company.
type Summary struct {
	Total   Totals `json:"total"`
	Monthly Totals `json:"monthly"`
}

// MonthBucket is one point of the monthly series.
type MonthBucket struct {
	Month string `json:"month"` // YYYY-MM
	Totals
}

// MonthKey formats t as YYYY-MM.
func MonthKey(t time.Time) string { return t.Format("2006-01") }

// Summarize folds rows into all-time totals and the totals of the month
// identified by month (YYYY-MM).
func Summarize(rows []model.Purchase, month string) Summary {
	s := Summary{
		Total:   Totals{SalesValue: decimal.Zero, CashbackGenerated: decimal.Zero},
		Monthly: Totals{SalesValue: decimal.Zero, CashbackGenerated: decimal.Zero},
	}
	for _, p := range rows {
		s.Total.add(p)
		if len(p.PurchaseDate) >= 7 && p.PurchaseDate[:7] == month {
			s.Monthly.add(p)
		}
	}
	return s
}

// SeriesStart returns the first day of the oldest month in a trailing
// window of n months ending with now's month.
func SeriesStart(now time.Time, n int) time.Time {
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	return first.AddDate(0, -(n - 1), 0)
}

// MonthlySeries buckets rows into the n months ending with now's month,
// ascending.  Months without purchases are present with zero totals; rows
// outside the window are ignored.
func MonthlySeries(rows []model.Purchase, now time.Time, n int) []MonthBucket {
	if n <= 0 {
		return []MonthBucket{}
	}
	start := SeriesStart(now, n)
	out := make([]MonthBucket, n)
	index := make(map[string]int, n)
	for i := 0; i < n; i++ {
		key := MonthKey(start.AddDate(0, i, 0))
		out[i] = MonthBucket{Month: key, Totals: Totals{SalesValue: decimal.Zero, CashbackGenerated: decimal.Zero}}
		index[key] = i
	}
	for _, p := range rows {
		if len(p.PurchaseDate) < 7 {
			continue
		}
		if i, ok := index[p.PurchaseDate[:7]]; ok {
			out[i].add(p)
		}
	}
	return out
}
