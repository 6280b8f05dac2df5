package engine

import (
	"sort"

	"github.com/RoaringBitmap/roaring"
)

// Group is one distinct key of a column and the rows holding it.
type Group struct {
	Key  string
	Rows *roaring.Bitmap
}

// Len returns the number of rows in the group.
func (g Group) Len() int { return int(g.Rows.GetCardinality()) }

// GroupBy partitions the rows by the values of column name.
// Rows with a missing key are left out. Groups come back in natural key
// order: numeric for float columns, chronological for times, lexicographic
// for strings.
func (t *Table) GroupBy(name string) ([]Group, error) {
	c, err := t.Column(name)
	if err != nil {
		return nil, err
	}

	bitmaps := make(map[string]*roaring.Bitmap)
	first := make(map[string]int)
	order := make([]string, 0)

	for i := 0; i < t.rows; i++ {
		if c.Missing(i) {
			continue
		}
		key := c.Key(i)
		bm, ok := bitmaps[key]
		if !ok {
			bm = roaring.New()
			bitmaps[key] = bm
			first[key] = i
			order = append(order, key)
		}
		bm.Add(uint32(i))
	}

	less := func(a, b string) bool { return a < b }
	switch c.Kind {
	case KindFloat:
		less = func(a, b string) bool { return c.Floats[first[a]] < c.Floats[first[b]] }
	case KindTime:
		less = func(a, b string) bool { return c.Times[first[a]].Before(c.Times[first[b]]) }
	}
	sort.SliceStable(order, func(i, j int) bool { return less(order[i], order[j]) })

	groups := make([]Group, len(order))
	for i, key := range order {
		groups[i] = Group{Key: key, Rows: bitmaps[key]}
	}
	return groups, nil
}

// rowsOf expands a bitmap into ascending row indices.
func rowsOf(bm *roaring.Bitmap) []int {
	ids := bm.ToArray()
	rows := make([]int, len(ids))
	for i, id := range ids {
		rows[i] = int(id)
	}
	return rows
}
