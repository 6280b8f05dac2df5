package engine

import (
	"math"
	"time"
)

func day(s string) time.Time {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return t
}

// salesFixture is a small transaction table with two categories and three customers.
func salesFixture() *Table {
	return MustTable(
		NewTimeColumn(ColDate, []time.Time{
			day("2024-01-05"), day("2024-01-20"), day("2024-02-03"), day("2024-03-15"), day("2024-03-30"),
		}),
		NewFloatColumn(ColCustomerID, []float64{1001, 1002, 1001, 1003, 1002}),
		NewStringColumn("product_category", []string{"Books", "Food", "Books", "Food", "Toys"}),
		NewStringColumn("region", []string{"North", "South", "North", "", "East"}),
		NewFloatColumn(ColRevenue, []float64{100, 50, 150, math.NaN(), 200}),
		NewFloatColumn("cost", []float64{60, 30, 90, 10, 120}),
	)
}
