// Package sample generates reproducible synthetic sales and customer tables
// for demos and tests.
package sample

import (
	"encoding/csv"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"bizmetrics/internal/engine"
)

var (
	Categories = []string{"Electronics", "Clothing", "Food", "Home", "Books"}
	Regions    = []string{"North", "South", "East", "West"}
	Segments   = []string{"Premium", "Standard", "Basic"}
	Countries  = []string{"USA", "UK", "Canada", "Australia", "Germany"}

	segmentWeights = []float64{0.2, 0.5, 0.3}
)

const (
	firstCustomerID = 1001
	salesDays       = 365
)

type Options struct {
	Records   int
	Customers int
	Seed      int64
	// End is the last day sales may fall on. Zero means today.
	End time.Time
}

func DefaultOptions() Options {
	return Options{Records: 500, Customers: 200, Seed: 42}
}

func (o Options) end() time.Time {
	end := o.End
	if end.IsZero() {
		end = time.Now()
	}
	y, m, d := end.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Sales generates transaction rows over the salesDays days ending at opts.End.
func Sales(opts Options) *engine.Table {
	rng := rand.New(rand.NewSource(opts.Seed))
	n := opts.Records
	start := opts.end().AddDate(0, 0, -(salesDays - 1))
	customers := opts.Customers
	if customers <= 0 {
		customers = DefaultOptions().Customers
	}

	ids := make([]float64, n)
	dates := make([]time.Time, n)
	custIDs := make([]float64, n)
	cats := make([]string, n)
	regs := make([]string, n)
	revs := make([]float64, n)
	costs := make([]float64, n)
	qtys := make([]float64, n)
	profits := make([]float64, n)

	for i := 0; i < n; i++ {
		ids[i] = float64(i + 1)
		dates[i] = start.AddDate(0, 0, rng.Intn(salesDays))
		custIDs[i] = float64(firstCustomerID + rng.Intn(customers))
		cats[i] = Categories[rng.Intn(len(Categories))]
		regs[i] = Regions[rng.Intn(len(Regions))]
		revs[i] = cents(gamma(rng, 2, 50))
		costs[i] = cents(gamma(rng, 2, 30))
		qtys[i] = float64(1 + rng.Intn(9))
		profits[i] = cents(revs[i] - costs[i])
	}

	return engine.MustTable(
		engine.NewFloatColumn("transaction_id", ids),
		engine.NewTimeColumn("date", dates),
		engine.NewFloatColumn("customer_id", custIDs),
		engine.NewStringColumn("product_category", cats),
		engine.NewStringColumn("region", regs),
		engine.NewFloatColumn("revenue", revs),
		engine.NewFloatColumn("cost", costs),
		engine.NewFloatColumn("quantity", qtys),
		engine.NewFloatColumn("profit", profits),
	)
}

// Customers generates one row per customer with daily signups from 2020-01-01.
func Customers(opts Options) *engine.Table {
	rng := rand.New(rand.NewSource(opts.Seed))
	n := opts.Customers
	signupStart := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

	ids := make([]float64, n)
	names := make([]string, n)
	segs := make([]string, n)
	signups := make([]time.Time, n)
	countries := make([]string, n)
	ltv := make([]float64, n)

	for i := 0; i < n; i++ {
		id := firstCustomerID + i
		ids[i] = float64(id)
		names[i] = "Customer_" + strconv.Itoa(id)
		segs[i] = Segments[weighted(rng, segmentWeights)]
		signups[i] = signupStart.AddDate(0, 0, i)
		countries[i] = Countries[rng.Intn(len(Countries))]
		ltv[i] = cents(gamma(rng, 3, 200))
	}

	return engine.MustTable(
		engine.NewFloatColumn("customer_id", ids),
		engine.NewStringColumn("customer_name", names),
		engine.NewStringColumn("segment", segs),
		engine.NewTimeColumn("signup_date", signups),
		engine.NewStringColumn("country", countries),
		engine.NewFloatColumn("lifetime_value", ltv),
	)
}

// gamma draws from Gamma(shape, scale) for integer shapes as a sum of exponentials.
func gamma(rng *rand.Rand, shape int, scale float64) float64 {
	var x float64
	for i := 0; i < shape; i++ {
		x += rng.ExpFloat64()
	}
	return x * scale
}

func weighted(rng *rand.Rand, weights []float64) int {
	u := rng.Float64()
	for i, w := range weights {
		if u < w {
			return i
		}
		u -= w
	}
	return len(weights) - 1
}

func cents(v float64) float64 {
	return math.Round(v*100) / 100
}

// WriteCSV persists a table with a header row.
func WriteCSV(path string, t *engine.Table) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	w := csv.NewWriter(f)
	header := make([]string, 0, len(t.Schema()))
	for _, field := range t.Schema() {
		header = append(header, field.Name)
	}
	if err := w.Write(header); err != nil {
		_ = f.Close()
		return err
	}
	for r := 0; r < t.Len(); r++ {
		if err := w.Write(t.Row(r)); err != nil {
			_ = f.Close()
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// WriteArrowFile persists a table as an Arrow IPC file.
func WriteArrowFile(path string, t *engine.Table) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := engine.WriteArrow(f, t); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// Save writes sales_data.csv and customer_data.csv into dir, plus .arrow
// copies when withArrow is set. It returns the written paths.
func Save(dir string, opts Options, withArrow bool) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	tables := []struct {
		name  string
		table *engine.Table
	}{
		{"sales_data", Sales(opts)},
		{"customer_data", Customers(opts)},
	}

	var paths []string
	for _, tb := range tables {
		p := filepath.Join(dir, tb.name+".csv")
		if err := WriteCSV(p, tb.table); err != nil {
			return paths, err
		}
		paths = append(paths, p)
		if withArrow {
			p = filepath.Join(dir, tb.name+".arrow")
			if err := WriteArrowFile(p, tb.table); err != nil {
				return paths, err
			}
			paths = append(paths, p)
		}
	}
	return paths, nil
}
