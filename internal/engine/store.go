package engine

import (
	"fmt"
	"math"
	"strconv"
	"time"
)

// Kind is the semantic type of a column.
type Kind uint8

const (
	KindFloat Kind = iota
	KindString
	KindTime
)

func (k Kind) String() string {
	switch k {
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindTime:
		return "time"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Field is one entry of a table schema.
type Field struct {
	Name string `json:"name"`
	Kind Kind   `json:"kind"`
}

// Column holds one named column in Struct-of-Arrays form.
// Exactly one of the value slices is populated, matching Kind.
// Missing values: NaN for floats, "" for strings, zero time for times.
type Column struct {
	Name    string
	Kind    Kind
	Floats  []float64
	Strings []string
	Times   []time.Time
}

func NewFloatColumn(name string, values []float64) *Column {
	return &Column{Name: name, Kind: KindFloat, Floats: values}
}

func NewStringColumn(name string, values []string) *Column {
	return &Column{Name: name, Kind: KindString, Strings: values}
}

func NewTimeColumn(name string, values []time.Time) *Column {
	return &Column{Name: name, Kind: KindTime, Times: values}
}

// Len returns the number of rows in the column.
func (c *Column) Len() int {
	switch c.Kind {
	case KindFloat:
		return len(c.Floats)
	case KindString:
		return len(c.Strings)
	default:
		return len(c.Times)
	}
}

// Missing reports whether row i holds no value.
func (c *Column) Missing(i int) bool {
	switch c.Kind {
	case KindFloat:
		return math.IsNaN(c.Floats[i])
	case KindString:
		return c.Strings[i] == ""
	default:
		return c.Times[i].IsZero()
	}
}

// Key returns the string form of row i, used for grouping and display.
func (c *Column) Key(i int) string {
	if c.Missing(i) {
		return ""
	}
	switch c.Kind {
	case KindFloat:
		return strconv.FormatFloat(c.Floats[i], 'f', -1, 64)
	case KindString:
		return c.Strings[i]
	default:
		t := c.Times[i]
		if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
			return t.Format(time.DateOnly)
		}
		return t.Format(time.RFC3339)
	}
}

// Value returns row i as a JSON-friendly value (nil when missing).
func (c *Column) Value(i int) any {
	if c.Missing(i) {
		return nil
	}
	switch c.Kind {
	case KindFloat:
		return c.Floats[i]
	case KindString:
		return c.Strings[i]
	default:
		return c.Key(i)
	}
}

// take copies the selected rows into a new column.
func (c *Column) take(rows []int) *Column {
	out := &Column{Name: c.Name, Kind: c.Kind}
	switch c.Kind {
	case KindFloat:
		out.Floats = make([]float64, len(rows))
		for k, r := range rows {
			out.Floats[k] = c.Floats[r]
		}
	case KindString:
		out.Strings = make([]string, len(rows))
		for k, r := range rows {
			out.Strings[k] = c.Strings[r]
		}
	default:
		out.Times = make([]time.Time, len(rows))
		for k, r := range rows {
			out.Times[k] = c.Times[r]
		}
	}
	return out
}

// Table is an immutable transaction table. It is safe for concurrent reads.
type Table struct {
	cols  []*Column
	index map[string]int
	rows  int
}

// NewTable builds a table from columns of equal length with unique names.
// The table takes ownership of the column slices.
func NewTable(cols ...*Column) (*Table, error) {
	t := &Table{
		cols:  make([]*Column, 0, len(cols)),
		index: make(map[string]int, len(cols)),
	}
	for i, c := range cols {
		if _, dup := t.index[c.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate column %q", ErrTableShape, c.Name)
		}
		if i == 0 {
			t.rows = c.Len()
		} else if c.Len() != t.rows {
			return nil, fmt.Errorf("%w: column %q has %d rows, want %d", ErrTableShape, c.Name, c.Len(), t.rows)
		}
		t.index[c.Name] = len(t.cols)
		t.cols = append(t.cols, c)
	}
	return t, nil
}

// MustTable is NewTable for fixtures and generated data; it panics on error.
func MustTable(cols ...*Column) *Table {
	t, err := NewTable(cols...)
	if err != nil {
		panic(err)
	}
	return t
}

// Len returns the row count.
func (t *Table) Len() int { return t.rows }

// Schema returns the ordered (name, kind) list.
func (t *Table) Schema() []Field {
	out := make([]Field, len(t.cols))
	for i, c := range t.cols {
		out[i] = Field{Name: c.Name, Kind: c.Kind}
	}
	return out
}

// Has reports whether the table has a column named name.
func (t *Table) Has(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Column returns the named column. Callers must not modify it.
func (t *Table) Column(name string) (*Column, error) {
	i, ok := t.index[name]
	if !ok {
		return nil, &MissingColumnError{Column: name}
	}
	return t.cols[i], nil
}

// Floats returns the values of a numeric column. Callers must not modify the slice.
func (t *Table) Floats(name string) ([]float64, error) {
	c, err := t.Column(name)
	if err != nil {
		return nil, err
	}
	if c.Kind != KindFloat {
		return nil, &ColumnTypeError{Column: name, Want: KindFloat, Got: c.Kind}
	}
	return c.Floats, nil
}

// Times returns the values of a time column, parsing String columns as dates.
func (t *Table) Times(name string) ([]time.Time, error) {
	c, err := t.Column(name)
	if err != nil {
		return nil, err
	}
	switch c.Kind {
	case KindTime:
		return c.Times, nil
	case KindString:
		out := make([]time.Time, len(c.Strings))
		for i, s := range c.Strings {
			if s == "" {
				continue
			}
			ts, ok := parseTime(s)
			if !ok {
				return nil, fmt.Errorf("column %q row %d: cannot parse %q as a date", name, i, s)
			}
			out[i] = ts
		}
		return out, nil
	default:
		return nil, &ColumnTypeError{Column: name, Want: KindTime, Got: c.Kind}
	}
}

// Take returns a new table holding the given rows, in the given order.
func (t *Table) Take(rows []int) *Table {
	out := &Table{
		cols:  make([]*Column, len(t.cols)),
		index: make(map[string]int, len(t.cols)),
		rows:  len(rows),
	}
	for i, c := range t.cols {
		out.cols[i] = c.take(rows)
		out.index[c.Name] = i
	}
	return out
}

// Records returns every row as a column-name keyed map.
func (t *Table) Records() []map[string]any {
	out := make([]map[string]any, t.rows)
	for r := 0; r < t.rows; r++ {
		rec := make(map[string]any, len(t.cols))
		for _, c := range t.cols {
			rec[c.Name] = c.Value(r)
		}
		out[r] = rec
	}
	return out
}

// Row returns the display strings of row r in schema order.
func (t *Table) Row(r int) []string {
	out := make([]string, len(t.cols))
	for i, c := range t.cols {
		out[i] = c.Key(r)
	}
	return out
}
