package engine

import (
	"fmt"
	"math"
	"strings"
	"time"

	"bizmetrics/internal/models"
)

// Period is the calendar bucket used by GrowthRate.
type Period string

const (
	PeriodMonth   Period = "ME"
	PeriodQuarter Period = "QE"
	PeriodYear    Period = "YE"
)

// ParsePeriod accepts ME/QE/YE and the common aliases M, Q, Y, A, month, quarter, year.
func ParsePeriod(s string) (Period, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ME", "M", "MONTH", "MONTHLY":
		return PeriodMonth, nil
	case "QE", "Q", "QUARTER", "QUARTERLY":
		return PeriodQuarter, nil
	case "YE", "Y", "A", "YEAR", "YEARLY", "ANNUAL":
		return PeriodYear, nil
	}
	return "", fmt.Errorf("unknown period %q: use ME, QE or YE", s)
}

// months is the period length in months.
func (p Period) months() int {
	switch p {
	case PeriodQuarter:
		return 3
	case PeriodYear:
		return 12
	default:
		return 1
	}
}

// bucket numbers periods consecutively so gaps are visible as missing integers.
func (p Period) bucket(t time.Time) int {
	return (t.Year()*12 + int(t.Month()) - 1) / p.months()
}

// end returns the last calendar day of bucket b.
func (p Period) end(b int, loc *time.Location) time.Time {
	next := (b + 1) * p.months() // first month index of the following period
	first := time.Date(next/12, time.Month(next%12+1), 1, 0, 0, 0, 0, loc)
	return first.AddDate(0, 0, -1)
}

// GrowthRate sums valueColumn per calendar period of dateColumn and pairs
// each period with its percentage change from the previous one.
// Every period between the first and last dated row is reported; periods
// without rows carry a zero total.
func (a *Analyzer) GrowthRate(dateColumn, valueColumn string, period Period) ([]models.GrowthPoint, error) {
	period, err := ParsePeriod(string(period))
	if err != nil {
		return nil, err
	}
	dates, err := a.table.Times(dateColumn)
	if err != nil {
		return nil, err
	}
	values, err := a.table.Floats(valueColumn)
	if err != nil {
		return nil, err
	}

	totals := make(map[int]float64)
	lo, hi := math.MaxInt, math.MinInt
	loc := time.UTC
	for i, d := range dates {
		if d.IsZero() {
			continue
		}
		b := period.bucket(d)
		if b < lo {
			lo = b
			loc = d.Location()
		}
		if b > hi {
			hi = b
		}
		if v := values[i]; !math.IsNaN(v) {
			totals[b] += v
		}
	}
	if lo > hi {
		return []models.GrowthPoint{}, nil
	}

	out := make([]models.GrowthPoint, 0, hi-lo+1)
	for b := lo; b <= hi; b++ {
		pt := models.GrowthPoint{PeriodEnd: period.end(b, loc), Value: totals[b]}
		if b > lo {
			if prev := totals[b-1]; prev != 0 {
				pt.GrowthRate = ptr((pt.Value - prev) / prev * 100)
			}
		}
		out = append(out, pt)
	}
	return out, nil
}
