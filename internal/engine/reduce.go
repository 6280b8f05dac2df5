package engine

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Stats is the descriptive summary of one numeric sample.
type Stats struct {
	Count  int
	Sum    float64
	Mean   float64
	Median float64
	Std    float64 // sample (n-1); NaN when Count < 2
	Min    float64
	Max    float64
}

// present collects the non-NaN values at rows, or across all of values when rows is nil.
func present(values []float64, rows []int) []float64 {
	if rows == nil {
		out := make([]float64, 0, len(values))
		for _, v := range values {
			if !math.IsNaN(v) {
				out = append(out, v)
			}
		}
		return out
	}
	out := make([]float64, 0, len(rows))
	for _, r := range rows {
		if v := values[r]; !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

// Sum adds the non-missing values. An empty sample sums to zero.
func Sum(values []float64) float64 {
	return floats.Sum(present(values, nil))
}

// Describe reduces the non-missing values. It returns ErrNoData when none remain.
func Describe(values []float64) (Stats, error) {
	return describe(present(values, nil))
}

func describe(xs []float64) (Stats, error) {
	if len(xs) == 0 {
		return Stats{}, ErrNoData
	}
	s := Stats{
		Count:  len(xs),
		Sum:    floats.Sum(xs),
		Mean:   stat.Mean(xs, nil),
		Median: median(xs),
		Min:    floats.Min(xs),
		Max:    floats.Max(xs),
		Std:    math.NaN(),
	}
	if len(xs) > 1 {
		s.Std = stat.StdDev(xs, nil)
	}
	return s, nil
}

// median averages the two middle values of an even-sized sample.
func median(xs []float64) float64 {
	sorted := make([]float64, len(xs))
	copy(sorted, xs)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}
